// Package app wires identity, the persistence gateway, local state, and
// the document synchronizer into a single session.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"rota/internal/config"
	"rota/internal/confirm"
	"rota/internal/docsync"
	"rota/internal/gateway"
	"rota/internal/identity"
	"rota/internal/state"
)

// ReadyTimeout bounds how long Open waits for the first remote snapshot.
const ReadyTimeout = 15 * time.Second

// FlushTimeout bounds how long Close waits for pending saves.
const FlushTimeout = 5 * time.Second

// GatewayFunc connects a persistence gateway for an authenticated user.
type GatewayFunc func(ctx context.Context, cfg *config.Config, creds identity.Credentials) (gateway.Gateway, error)

// Options configures Open.
type Options struct {
	// Provider performs sign-in when no session can be resumed.
	Provider identity.Provider
	// Connect builds the gateway once identity is established.
	Connect GatewayFunc
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// ReadyTimeout overrides the default first-sync wait.
	ReadyTimeout time.Duration
}

// Session is a fully wired, synchronized session. Create one with Open
// and release it with Close.
type Session struct {
	Identity identity.Session
	Store    *state.Store
	Gate     *confirm.Gate
	Key      gateway.DocumentKey

	gw     gateway.Gateway
	handle *docsync.Handle
	cancel context.CancelFunc
	log    *slog.Logger

	saveMu    sync.Mutex
	onSaveErr func(error)
}

// Open establishes identity, connects the gateway, and blocks until the
// first remote snapshot has been applied (or the document bootstrapped).
// The returned session persists every mutation in the background until
// Close.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ident, creds, err := identity.Establish(ctx, opts.Provider, identity.EstablishOptions{
		SessionPath:    cfg.SessionPath(),
		BootstrapToken: cfg.BootstrapToken,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("identity established", "user", ident.UserID, "method", ident.Method)

	gw, err := opts.Connect(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		Identity: ident,
		Key:      gateway.UserDocument(cfg.Namespace, ident.UserID),
		gw:       gw,
		log:      log,
	}

	// Background saves outlive any one command context; they stop when
	// the session closes.
	storeCtx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	sess.Store = state.New(storeCtx, gw, sess.Key,
		state.WithLogger(log),
		state.WithSaveErrorFunc(sess.notifySaveError),
	)
	sess.Gate = confirm.New(sess.Store)

	handle, err := docsync.New(gw, sess.Store, sess.Key, docsync.WithLogger(log)).Open(ctx, ident)
	if err != nil {
		sess.release()
		return nil, err
	}
	sess.handle = handle

	readyTimeout := opts.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = ReadyTimeout
	}
	select {
	case <-handle.Ready():
		if err := handle.Err(); err != nil {
			sess.release()
			return nil, err
		}
	case <-ctx.Done():
		handle.Close()
		sess.release()
		return nil, ctx.Err()
	case <-time.After(readyTimeout):
		handle.Close()
		sess.release()
		return nil, fmt.Errorf("%w: timed out waiting for first sync", docsync.ErrSyncFailed)
	}

	log.Debug("session open", "path", sess.Key.Path())
	return sess, nil
}

// SyncDone closes when the synchronizer terminates, whether through
// Close or a subscription failure.
func (s *Session) SyncDone() <-chan struct{} {
	return s.handle.Done()
}

// SyncFailed reports a terminated synchronizer's error, nil while live.
func (s *Session) SyncFailed() error {
	select {
	case <-s.handle.Done():
		return s.handle.Err()
	default:
		return nil
	}
}

// OnSaveError registers fn for background save failures. Long-running
// commands use it to surface failed writes as they happen; a nil fn
// removes the callback.
func (s *Session) OnSaveError(fn func(error)) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.onSaveErr = fn
}

func (s *Session) notifySaveError(err error) {
	s.saveMu.Lock()
	fn := s.onSaveErr
	s.saveMu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Close flushes pending saves, stops the synchronizer, and releases the
// gateway. The returned error reports writes that never reached the
// remote store.
func (s *Session) Close() error {
	flushCtx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
	defer cancel()
	err := s.Store.Flush(flushCtx)

	if s.handle != nil {
		s.handle.Close()
	}
	s.release()
	return err
}

func (s *Session) release() {
	if s.cancel != nil {
		s.cancel()
	}
	if closer, ok := s.gw.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			s.log.Debug("failed to close gateway", "err", cerr)
		}
	}
}
