// Package relay implements the persistence gateway backed by a rota-relay
// development server: documents over HTTP, live updates over WebSocket.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"rota/internal/gateway"
	"rota/internal/model"
)

// APITimeout bounds one-shot document reads and writes. Watch
// connections are long-lived and carry no deadline.
const APITimeout = 10 * time.Second

// Client talks to a rota-relay server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New creates a client for the relay at rawURL, e.g. "http://localhost:8999".
func New(rawURL string) (*Client, error) {
	return NewWithHTTPClient(rawURL, &http.Client{Timeout: APITimeout})
}

// NewWithHTTPClient creates a client with a custom HTTP client, primarily
// for testing.
func NewWithHTTPClient(rawURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid relay url %q: scheme must be http or https", rawURL)
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

// frame is one watch message from the relay: the entire document state.
type frame struct {
	Exists bool            `json:"exists"`
	Doc    json.RawMessage `json:"doc"`
}

// Read fetches the document at key. A missing document is not an error.
func (c *Client) Read(ctx context.Context, key gateway.DocumentKey) (model.UserDocument, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(key), nil)
	if err != nil {
		return model.UserDocument{}, false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.UserDocument{}, false, wrapError(err, "failed to read document")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return model.UserDocument{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return model.UserDocument{}, false, statusError("failed to read document", resp.StatusCode)
	}
	var doc model.UserDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return model.UserDocument{}, false, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, true, nil
}

// Write replaces the document at key wholesale.
func (c *Client) Write(ctx context.Context, key gateway.DocumentKey, doc model.UserDocument) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.docURL(key), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapError(err, "failed to write document")
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError("failed to write document", resp.StatusCode)
	}
	return nil
}

// Subscribe opens a watch on key. The first update reports current state.
func (c *Client) Subscribe(ctx context.Context, key gateway.DocumentKey) (gateway.Subscription, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.watchURL(key), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, wrapError(err, "failed to watch document")
	}
	s := &subscription{
		conn: conn,
		path: key.Path(),
		ch:   make(chan gateway.Update, 8),
		done: make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

func (c *Client) docURL(key gateway.DocumentKey) string {
	return c.baseURL.JoinPath("v1", "docs", key.Path()).String()
}

func (c *Client) watchURL(key gateway.DocumentKey) string {
	u := c.baseURL.JoinPath("v1", "watch", key.Path())
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

type subscription struct {
	conn *websocket.Conn
	path string
	ch   chan gateway.Update
	done chan struct{}

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

func (s *subscription) Updates() <-chan gateway.Update { return s.ch }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *subscription) pump() {
	defer close(s.ch)
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			select {
			case <-s.done:
				// Closed locally; not a failure.
			default:
				s.fail(fmt.Errorf("watch on %s failed: %w", s.path, err))
			}
			return
		}
		u := gateway.Update{Exists: f.Exists}
		if f.Exists && len(f.Doc) > 0 {
			if err := json.Unmarshal(f.Doc, &u.Doc); err != nil {
				s.fail(fmt.Errorf("failed to decode update on %s: %w", s.path, err))
				return
			}
		}
		select {
		case s.ch <- u:
		case <-s.done:
			return
		}
	}
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func statusError(msg string, code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%s: relay refused the request (http %d)", msg, code)
	case code >= 500:
		return fmt.Errorf("%s: relay error (http %d)", msg, code)
	default:
		return fmt.Errorf("%s: unexpected response (http %d)", msg, code)
	}
}

func wrapError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%s: request timed out (check network)", msg)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%s: relay unreachable (is rota-relay running?)", msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
