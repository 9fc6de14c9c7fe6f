// Package docsync mirrors the remote user document into the local state
// store for the lifetime of a session. It owns the gateway subscription:
// every push replaces local state wholesale, and a missing remote document
// is bootstrapped with the all-empty form.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"rota/internal/gateway"
	"rota/internal/identity"
	"rota/internal/model"
	"rota/internal/state"
)

// ErrNotReady is returned when Open is called before identity bootstrap
// has produced a ready session.
var ErrNotReady = errors.New("session identity not established")

// ErrSyncFailed wraps subscription failures. The condition is user-visible
// ("failed to load") but not fatal to the process.
var ErrSyncFailed = errors.New("document sync failed")

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the syncer's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) { s.log = log }
}

// Syncer connects one state store to one remote document.
type Syncer struct {
	gw    gateway.Gateway
	store *state.Store
	key   gateway.DocumentKey
	log   *slog.Logger
}

// New returns a syncer for the given store and document.
func New(gw gateway.Gateway, store *state.Store, key gateway.DocumentKey, opts ...Option) *Syncer {
	s := &Syncer{
		gw:    gw,
		store: store,
		key:   key,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts the live subscription. It refuses to run before the
// identity bootstrap has completed: sess must be ready and carry a user
// ID. The returned handle stays live until Close or a subscription error.
func (s *Syncer) Open(ctx context.Context, sess identity.Session) (*Handle, error) {
	if !sess.AuthReady || sess.UserID == "" {
		return nil, ErrNotReady
	}
	sub, err := s.gw.Subscribe(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe %s: %v", ErrSyncFailed, s.key.Path(), err)
	}
	h := &Handle{
		gw:    s.gw,
		store: s.store,
		key:   s.key,
		log:   s.log,
		sub:   sub,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go h.loop(ctx)
	return h, nil
}

// Handle is one live subscription. It applies pushes until closed; once
// Close returns, no further push mutates the store.
type Handle struct {
	gw    gateway.Gateway
	store *state.Store
	key   gateway.DocumentKey
	log   *slog.Logger
	sub   gateway.Subscription

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// Ready is closed after the first push has been handled, i.e. the store
// reflects the remote document (or its empty bootstrap). It also closes
// when the subscription terminates, so waiters must check Err.
func (h *Handle) Ready() <-chan struct{} {
	return h.ready
}

// Done is closed when the subscription has terminated for any reason.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the terminal sync error, nil when the handle was closed
// deliberately or is still live.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close releases the subscription. After it returns the handle is inert:
// buffered or in-flight pushes no longer reach the store.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()
	h.sub.Close()
}

func (h *Handle) loop(ctx context.Context) {
	defer close(h.done)
	for u := range h.sub.Updates() {
		h.apply(ctx, u)
		h.signalReady()
	}
	if err := h.sub.Err(); err != nil {
		h.mu.Lock()
		h.err = fmt.Errorf("%w: %v", ErrSyncFailed, err)
		h.mu.Unlock()
		h.log.Warn("document subscription failed", "path", h.key.Path(), "error", err)
	}
	h.signalReady()
}

// apply handles one push under the handle lock, so Close serializes with
// it: either the push lands before Close returns, or not at all.
func (h *Handle) apply(ctx context.Context, u gateway.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if u.Exists {
		h.store.ApplyRemote(u.Doc)
		h.log.Debug("applied remote snapshot", "path", h.key.Path())
		return
	}
	// First use: no remote document yet. Write the all-empty form and let
	// its echo populate state; until then local state is the same empty
	// default.
	h.log.Debug("remote document absent, writing empty bootstrap", "path", h.key.Path())
	if err := h.gw.Write(ctx, h.key, model.New()); err != nil {
		h.log.Warn("bootstrap write failed", "path", h.key.Path(), "error", err)
	}
}

func (h *Handle) signalReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}
