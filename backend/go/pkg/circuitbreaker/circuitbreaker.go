package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State is the position of a breaker in its closed → open → half-open cycle.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned without calling the protected function while
	// the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned while a half-open probe is in flight.
	ErrTooManyRequests = errors.New("circuit breaker is probing")
)

// Settings configures a breaker.
type Settings struct {
	Name string
	// FailureThreshold consecutive failures trip a closed breaker.
	FailureThreshold uint32
	// SuccessThreshold consecutive half-open successes close the breaker.
	SuccessThreshold uint32
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// IsFailure decides whether an error counts against the breaker. Nil means
	// every non-nil error does.
	IsFailure func(err error) bool
	// OnStateChange is called, outside the lock, after every transition.
	OnStateChange func(name string, from, to State)
}

// Breaker guards calls to a dependency that may fail repeatedly.
type Breaker struct {
	settings Settings
	now      func() time.Time

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
	probing   bool
}

// New returns a closed breaker. Zero thresholds default to 1.
func New(s Settings) *Breaker {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 1
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return err != nil }
	}
	return &Breaker{settings: s, now: time.Now, state: Closed}
}

func (b *Breaker) Name() string {
	return b.settings.Name
}

// State reports the current state, moving an expired open breaker to half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	state, change := b.currentState()
	b.mu.Unlock()
	b.notify(change)
	return state
}

// Execute runs fn unless the breaker rejects the call. A panic in fn counts as
// a failure and is re-raised.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			b.after(true)
			panic(r)
		}
	}()
	err := fn()
	b.after(b.settings.IsFailure(err))
	return err
}

type transition struct {
	from, to State
	ok       bool
}

func (b *Breaker) notify(t transition) {
	if t.ok && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.settings.Name, t.from, t.to)
	}
}

// currentState must be called with mu held.
func (b *Breaker) currentState() (State, transition) {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.settings.Timeout {
		return HalfOpen, b.setState(HalfOpen)
	}
	return b.state, transition{}
}

func (b *Breaker) before() error {
	b.mu.Lock()
	state, change := b.currentState()
	var err error
	switch state {
	case Open:
		err = ErrCircuitOpen
	case HalfOpen:
		if b.probing {
			err = ErrTooManyRequests
		} else {
			b.probing = true
		}
	}
	b.mu.Unlock()
	b.notify(change)
	return err
}

func (b *Breaker) after(failed bool) {
	b.mu.Lock()
	var change transition
	switch b.state {
	case Closed:
		if failed {
			b.failures++
			if b.failures >= b.settings.FailureThreshold {
				change = b.setState(Open)
			}
		} else {
			b.failures = 0
		}
	case HalfOpen:
		b.probing = false
		if failed {
			change = b.setState(Open)
		} else {
			b.successes++
			if b.successes >= b.settings.SuccessThreshold {
				change = b.setState(Closed)
			}
		}
	}
	b.mu.Unlock()
	b.notify(change)
}

// setState must be called with mu held.
func (b *Breaker) setState(to State) transition {
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	b.probing = false
	if to == Open {
		b.openedAt = b.now()
	}
	return transition{from: from, to: to, ok: from != to}
}
