package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/pkg/circuitbreaker"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client is an outbound HTTP client whose calls pass through a circuit
// breaker. Only transport errors and 5xx responses count as failures.
type Client struct {
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	userAgent  string
}

// NewClient builds a client from the scraper settings. onStateChange may be nil.
func NewClient(cfg config.ScraperConfig, onStateChange func(name string, from, to circuitbreaker.State)) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:             "scraper",
			FailureThreshold: cfg.FailureThreshold,
			SuccessThreshold: 1,
			Timeout:          cfg.OpenTimeout,
			IsFailure:        isServerFailure,
			OnStateChange:    onStateChange,
		}),
		userAgent: cfg.UserAgent,
	}
}

func isServerFailure(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// Get fetches url and returns the full body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return &StatusError{URL: url, StatusCode: resp.StatusCode}
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// BreakerState exposes the breaker for health reporting.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
