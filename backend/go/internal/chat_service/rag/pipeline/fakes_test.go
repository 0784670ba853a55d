package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"LOTR_RAG/backend/go/internal/chat_service/rag/schema"
	"LOTR_RAG/backend/go/internal/models"
)

var errBoom = errors.New("boom")

type fakeLoader struct {
	pages map[string]string
	fail  map[string]bool
	calls []string
}

func (l *fakeLoader) Load(ctx context.Context, url string) (*schema.Document, error) {
	l.calls = append(l.calls, url)
	if l.fail[url] {
		return nil, errBoom
	}
	return &schema.Document{URL: url, Text: l.pages[url]}, nil
}

// wordSplitter emits one chunk per whitespace separated word.
type wordSplitter struct{}

func (wordSplitter) SplitText(text string) []string {
	return strings.Fields(text)
}

type fakeEmbedder struct {
	dim   int
	fail  string
	calls atomic.Int32
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.fail != "" && text == e.fail {
		return nil, errBoom
	}
	v := make([]float32, e.dim)
	if e.dim > 0 {
		v[0] = float32(len(text))
	}
	return v, nil
}

type fakeStore struct {
	mu        sync.Mutex
	dropErr   error
	createErr error
	inserted  []schema.StoredRecord
	results   []schema.Record
	queryErr  error
	dropped   int
	created   int
	flushed   int
	queries   int
	lastK     int
}

func (s *fakeStore) DropCollection(ctx context.Context) error {
	s.dropped++
	return s.dropErr
}

func (s *fakeStore) CreateCollection(ctx context.Context, dim int, metric string) error {
	s.created++
	return s.createErr
}

func (s *fakeStore) Insert(ctx context.Context, rec schema.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *fakeStore) Query(ctx context.Context, vector []float32, k int) ([]schema.Record, error) {
	s.queries++
	s.lastK = k
	return s.results, s.queryErr
}

func (s *fakeStore) Flush(ctx context.Context) error {
	s.flushed++
	return nil
}

func (s *fakeStore) texts() []string {
	out := make([]string, 0, len(s.inserted))
	for _, r := range s.inserted {
		out = append(out, r.Text)
	}
	return out
}

type fakeArchive struct {
	urls []string
}

func (a *fakeArchive) Put(ctx context.Context, doc *schema.Document) error {
	a.urls = append(a.urls, doc.URL)
	return nil
}

type fakeLLM struct {
	reply    string
	err      error
	messages []models.ChatMessage
	opts     models.ChatOptions
	calls    int
}

func (l *fakeLLM) Chat(ctx context.Context, messages []models.ChatMessage, opts models.ChatOptions) (string, error) {
	l.calls++
	l.messages = messages
	l.opts = opts
	return l.reply, l.err
}
