// Package cloudfirestore implements the gateway.Gateway interface on
// Cloud Firestore. The user document lives at a fixed path and is always
// read and written wholesale; the snapshot listener provides the push
// feed, echoes included.
package cloudfirestore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rota/internal/gateway"
	"rota/internal/model"
)

// APITimeout is the timeout for one-shot reads and writes. The snapshot
// listener is long-lived and runs without one.
const APITimeout = 10 * time.Second

// Client implements gateway.Gateway using Cloud Firestore.
type Client struct {
	fs *firestore.Client
}

// New creates a Firestore-backed gateway. The token source supplies the
// signed-in user's ID tokens, so document access runs as that user.
func New(ctx context.Context, projectID string, ts oauth2.TokenSource) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore backend requires project_id in settings.json")
	}
	fs, err := firestore.NewClient(ctx, projectID, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Client{fs: fs}, nil
}

// Close releases the underlying client.
func (c *Client) Close() error {
	return c.fs.Close()
}

// Read implements gateway.Gateway.
func (c *Client) Read(ctx context.Context, key gateway.DocumentKey) (model.UserDocument, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	snap, err := c.fs.Doc(key.Path()).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.UserDocument{}, false, nil
	}
	if err != nil {
		return model.UserDocument{}, false, wrapError(err)
	}
	var doc model.UserDocument
	if err := snap.DataTo(&doc); err != nil {
		return model.UserDocument{}, false, fmt.Errorf("decode document %s: %w", key.Path(), err)
	}
	return doc, true, nil
}

// Write implements gateway.Gateway. Set without options replaces the
// whole document.
func (c *Client) Write(ctx context.Context, key gateway.DocumentKey, doc model.UserDocument) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if _, err := c.fs.Doc(key.Path()).Set(ctx, doc); err != nil {
		return wrapError(err)
	}
	return nil
}

// Subscribe implements gateway.Gateway.
func (c *Client) Subscribe(ctx context.Context, key gateway.DocumentKey) (gateway.Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		iter:   c.fs.Doc(key.Path()).Snapshots(subCtx),
		cancel: cancel,
		path:   key.Path(),
		ch:     make(chan gateway.Update, 8),
		ctx:    subCtx,
	}
	go s.pump()
	return s, nil
}

type subscription struct {
	iter   *firestore.DocumentSnapshotIterator
	cancel context.CancelFunc
	path   string
	ch     chan gateway.Update
	ctx    context.Context

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

// Updates implements gateway.Subscription.
func (s *subscription) Updates() <-chan gateway.Update {
	return s.ch
}

// Err implements gateway.Subscription.
func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements gateway.Subscription.
func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.iter.Stop()
	})
}

func (s *subscription) pump() {
	defer close(s.ch)
	for {
		snap, err := s.iter.Next()
		if err != nil {
			// Cancellation is the deliberate-close path, not a failure.
			if status.Code(err) == codes.Canceled || s.ctx.Err() != nil {
				return
			}
			s.fail(wrapError(err))
			return
		}
		u := gateway.Update{Exists: snap.Exists()}
		if snap.Exists() {
			if err := snap.DataTo(&u.Doc); err != nil {
				s.fail(fmt.Errorf("decode document %s: %w", s.path, err))
				return
			}
		}
		select {
		case s.ch <- u:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// wrapError wraps Firestore errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("token expired or revoked (run: rota login)")
	case codes.DeadlineExceeded:
		return fmt.Errorf("request timed out")
	case codes.Unavailable:
		return fmt.Errorf("firestore unavailable (check network)")
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}
	return err
}
