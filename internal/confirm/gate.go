// Package confirm implements the two-state gate that guards destructive
// operations. A destructive request parks in the gate as a tagged action
// with a human-readable message; nothing runs until an explicit confirm.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Kind tags a destructive action the gate can hold.
type Kind string

// KindResetAll clears every task and routine in the user document.
const KindResetAll Kind = "reset_all"

// ErrNonePending is returned by Confirm when the gate is idle.
var ErrNonePending = errors.New("no action awaiting confirmation")

// Request is a pending destructive action and the message shown to the
// user while it awaits a decision.
type Request struct {
	Kind    Kind
	Message string
}

// Executor runs a confirmed action.
type Executor interface {
	Execute(ctx context.Context, kind Kind) error
}

// Gate holds at most one pending destructive request. It has exactly two
// states: idle, and pending a single request. Requesting while pending
// replaces the previous request; the last request wins.
type Gate struct {
	mu      sync.Mutex
	exec    Executor
	pending *Request
}

// New returns an idle gate executing confirmed actions on exec.
func New(exec Executor) *Gate {
	return &Gate{exec: exec}
}

// Request parks a destructive action in the gate. It has no side effect
// beyond recording the request.
func (g *Gate) Request(kind Kind, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = &Request{Kind: kind, Message: message}
}

// Pending returns the recorded request, if any.
func (g *Gate) Pending() (Request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Request{}, false
	}
	return *g.pending, true
}

// Confirm executes the pending action and returns the gate to idle. The
// gate is idle afterwards even when the action fails.
func (g *Gate) Confirm(ctx context.Context) error {
	g.mu.Lock()
	req := g.pending
	g.pending = nil
	g.mu.Unlock()

	if req == nil {
		return ErrNonePending
	}
	if err := g.exec.Execute(ctx, req.Kind); err != nil {
		return fmt.Errorf("confirmed action %q: %w", req.Kind, err)
	}
	return nil
}

// Cancel discards the pending request with no side effect. It reports
// whether a request was pending.
func (g *Gate) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	had := g.pending != nil
	g.pending = nil
	return had
}
