// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"rota/internal/gateway"
	"rota/internal/model"
)

// WriteRecord is one successful write observed by the fake gateway.
type WriteRecord struct {
	Key gateway.DocumentKey
	Doc model.UserDocument
}

// FakeGateway is an in-memory implementation of gateway.Gateway for
// testing. It honors the contract's echo rule: every successful write is
// broadcast to all active subscriptions, including the writer's own.
type FakeGateway struct {
	mu   sync.RWMutex
	docs map[string]model.UserDocument // path -> document
	subs map[string][]*FakeSubscription

	writes []WriteRecord

	// Error injection for testing. Set before use; not safe to change
	// while operations are in flight.
	ReadErr      error
	WriteErr     error
	SubscribeErr error
}

// NewFakeGateway creates an empty fake gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		docs: make(map[string]model.UserDocument),
		subs: make(map[string][]*FakeSubscription),
	}
}

// Seed stores a document without notifying subscribers.
func (g *FakeGateway) Seed(key gateway.DocumentKey, doc model.UserDocument) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[key.Path()] = doc.Clone()
}

// Document returns the stored document for key.
func (g *FakeGateway) Document(key gateway.DocumentKey) (model.UserDocument, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	doc, ok := g.docs[key.Path()]
	if !ok {
		return model.UserDocument{}, false
	}
	return doc.Clone(), true
}

// Writes returns every successful write in order.
func (g *FakeGateway) Writes() []WriteRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]WriteRecord, len(g.writes))
	copy(out, g.writes)
	return out
}

// WriteCount returns the number of successful writes.
func (g *FakeGateway) WriteCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.writes)
}

// ResetWrites clears the write log, typically after session hydration.
func (g *FakeGateway) ResetWrites() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = nil
}

// Push stores a document and notifies subscribers, simulating a write
// from another session.
func (g *FakeGateway) Push(key gateway.DocumentKey, doc model.UserDocument) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[key.Path()] = doc.Clone()
	g.broadcastLocked(key.Path(), gateway.Update{Doc: doc.Clone(), Exists: true})
}

// FailSubscriptions terminates every active subscription for key with err.
func (g *FakeGateway) FailSubscriptions(key gateway.DocumentKey, err error) {
	g.mu.Lock()
	subs := append([]*FakeSubscription(nil), g.subs[key.Path()]...)
	g.subs[key.Path()] = nil
	g.mu.Unlock()
	for _, s := range subs {
		s.fail(err)
	}
}

// Read implements gateway.Gateway.
func (g *FakeGateway) Read(ctx context.Context, key gateway.DocumentKey) (model.UserDocument, bool, error) {
	if g.ReadErr != nil {
		return model.UserDocument{}, false, g.ReadErr
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	doc, ok := g.docs[key.Path()]
	if !ok {
		return model.UserDocument{}, false, nil
	}
	return doc.Clone(), true, nil
}

// Write implements gateway.Gateway.
func (g *FakeGateway) Write(ctx context.Context, key gateway.DocumentKey, doc model.UserDocument) error {
	if g.WriteErr != nil {
		return g.WriteErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[key.Path()] = doc.Clone()
	g.writes = append(g.writes, WriteRecord{Key: key, Doc: doc.Clone()})
	g.broadcastLocked(key.Path(), gateway.Update{Doc: doc.Clone(), Exists: true})
	return nil
}

// Subscribe implements gateway.Gateway. The current state, present or
// absent, is delivered as the first update.
func (g *FakeGateway) Subscribe(ctx context.Context, key gateway.DocumentKey) (gateway.Subscription, error) {
	if g.SubscribeErr != nil {
		return nil, g.SubscribeErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	s := &FakeSubscription{
		gw:   g,
		path: key.Path(),
		ch:   make(chan gateway.Update, 16),
	}
	g.subs[key.Path()] = append(g.subs[key.Path()], s)
	if doc, ok := g.docs[key.Path()]; ok {
		s.send(gateway.Update{Doc: doc.Clone(), Exists: true})
	} else {
		s.send(gateway.Update{Exists: false})
	}
	return s, nil
}

func (g *FakeGateway) broadcastLocked(path string, u gateway.Update) {
	for _, s := range g.subs[path] {
		s.send(u)
	}
}

func (g *FakeGateway) unsubscribe(path string, sub *FakeSubscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	subs := g.subs[path]
	for i, s := range subs {
		if s == sub {
			g.subs[path] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// FakeSubscription is the subscription handed out by FakeGateway.
type FakeSubscription struct {
	gw   *FakeGateway
	path string
	ch   chan gateway.Update

	mu     sync.Mutex
	err    error
	closed bool
	once   sync.Once
}

// Updates implements gateway.Subscription.
func (s *FakeSubscription) Updates() <-chan gateway.Update {
	return s.ch
}

// Err implements gateway.Subscription.
func (s *FakeSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close implements gateway.Subscription.
func (s *FakeSubscription) Close() {
	s.gw.unsubscribe(s.path, s)
	s.shutdown()
}

// send delivers an update, dropping the oldest buffered update when the
// consumer lags. The drop keeps the latest state, like a real push feed
// that coalesces.
func (s *FakeSubscription) send(u gateway.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- u:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

func (s *FakeSubscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.shutdown()
}

func (s *FakeSubscription) shutdown() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.ch)
	})
}
