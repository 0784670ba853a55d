package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Reply is the body of a successful chat response.
type Reply struct {
	Message string `json:"message"`
	Sources int    `json:"sources"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to the chat service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat posts message to /api/chat.
func (c *Client) Chat(ctx context.Context, message string) (*Reply, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("error creating JSON payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return nil, fmt.Errorf("chat failed with status %d: %s", resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("chat failed with status %d", resp.StatusCode)
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return &reply, nil
}
