// Package state holds the in-memory user document and applies every
// mutation to it. Mutations are optimistic: each one computes a new
// immutable snapshot, applies it locally, then persists the entire
// document through the gateway in the background. Writes are independent
// of each other and carry no ordering guarantee; the remote store resolves
// them last-write-wins.
package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rota/internal/confirm"
	"rota/internal/gateway"
	"rota/internal/model"
)

// ErrEmptyText is returned when a task or routine text is empty after
// trimming.
var ErrEmptyText = errors.New("text must not be empty")

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the fresh-ID source. Tests inject deterministic
// IDs here.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.freshID = gen }
}

// WithLogger sets the store's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithSaveErrorFunc registers a callback invoked whenever a background
// persistence write fails. The failure is a transient notice; the local
// mutation is not rolled back.
func WithSaveErrorFunc(fn func(error)) Option {
	return func(s *Store) { s.onSaveErr = fn }
}

// Store is the single holder of one user's document. All access is
// through its methods; snapshots handed out are deep copies.
type Store struct {
	gw      gateway.Gateway
	key     gateway.DocumentKey
	ctx     context.Context
	log     *slog.Logger
	freshID func() string

	onSaveErr func(error)

	mu  sync.RWMutex
	doc model.UserDocument

	wg      sync.WaitGroup
	saveMu  sync.Mutex
	saveErr error

	changes chan struct{}
}

// New returns a store starting from the all-empty document. Background
// writes use ctx; cancelling it abandons any still-running write.
func New(ctx context.Context, gw gateway.Gateway, key gateway.DocumentKey, opts ...Option) *Store {
	s := &Store{
		gw:      gw,
		key:     key,
		ctx:     ctx,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		freshID: uuid.NewString,
		doc:     model.New(),
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() model.UserDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Changes returns a coalesced change signal. One buffered tick is kept;
// a reader that drains it sees at least one signal per quiet period with
// changes in it.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// ApplyRemote replaces the entire document with a pushed snapshot. The
// snapshot is normalized first and nothing is written back; a push that
// arrives while a local write is still in flight simply wins in memory,
// and the local edit reappears only when its own write's echo lands.
func (s *Store) ApplyRemote(doc model.UserDocument) {
	s.mu.Lock()
	s.doc = doc.Normalized()
	s.mu.Unlock()
	s.signal()
}

// AddGlobalTask appends a new uncompleted task to the global list.
func (s *Store) AddGlobalTask(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.doc.Clone()
	next.GlobalTasks = append(next.GlobalTasks, model.Task{ID: s.freshID(), Text: text})
	s.commitLocked(next)
	return nil
}

// ToggleGlobalTask flips the completion of one global task. An unknown id
// is a no-op.
func (s *Store) ToggleGlobalTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfTask(s.doc.GlobalTasks, id)
	if idx < 0 {
		return
	}
	next := s.doc.Clone()
	next.GlobalTasks[idx].Completed = !next.GlobalTasks[idx].Completed
	s.commitLocked(next)
}

// DeleteGlobalTask removes one global task. An unknown id is a no-op, so
// deleting twice is harmless.
func (s *Store) DeleteGlobalTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOfTask(s.doc.GlobalTasks, id) < 0 {
		return
	}
	next := s.doc.Clone()
	next.GlobalTasks = removeTask(next.GlobalTasks, id)
	s.commitLocked(next)
}

// AddDailyTask appends a new uncompleted task to one weekday bucket.
func (s *Store) AddDailyTask(day model.Weekday, text string) error {
	if !day.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidWeekday, day)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.doc.Clone()
	next.DailyTasks[day] = append(next.DailyTasks[day], model.Task{ID: s.freshID(), Text: text})
	s.commitLocked(next)
	return nil
}

// ToggleDailyTask flips the completion of one task in a weekday bucket.
// An unknown id is a no-op.
func (s *Store) ToggleDailyTask(day model.Weekday, id string) error {
	if !day.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidWeekday, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfTask(s.doc.DailyTasks[day], id)
	if idx < 0 {
		return nil
	}
	next := s.doc.Clone()
	next.DailyTasks[day][idx].Completed = !next.DailyTasks[day][idx].Completed
	s.commitLocked(next)
	return nil
}

// DeleteDailyTask removes one task from a weekday bucket. An unknown id
// is a no-op.
func (s *Store) DeleteDailyTask(day model.Weekday, id string) error {
	if !day.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidWeekday, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOfTask(s.doc.DailyTasks[day], id) < 0 {
		return nil
	}
	next := s.doc.Clone()
	next.DailyTasks[day] = removeTask(next.DailyTasks[day], id)
	s.commitLocked(next)
	return nil
}

// AddRoutine appends a new routine with all seven days unchecked.
func (s *Store) AddRoutine(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.doc.Clone()
	next.Routines = append(next.Routines, model.NewRoutine(s.freshID(), text))
	s.commitLocked(next)
	return nil
}

// ToggleRoutine flips one routine's completion for one weekday, leaving
// the other six days untouched. An unknown id is a no-op.
func (s *Store) ToggleRoutine(id string, day model.Weekday) error {
	if !day.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidWeekday, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfRoutine(s.doc.Routines, id)
	if idx < 0 {
		return nil
	}
	next := s.doc.Clone()
	next.Routines[idx].Completion[day] = !next.Routines[idx].Completion[day]
	s.commitLocked(next)
	return nil
}

// DeleteRoutine removes one routine. An unknown id is a no-op.
func (s *Store) DeleteRoutine(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOfRoutine(s.doc.Routines, id) < 0 {
		return
	}
	next := s.doc.Clone()
	next.Routines = removeRoutine(next.Routines, id)
	s.commitLocked(next)
}

// ResetAll replaces the document with the all-empty form. It is reachable
// only through the confirmation gate.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(model.New())
}

// Execute dispatches a confirmed destructive action.
func (s *Store) Execute(_ context.Context, kind confirm.Kind) error {
	switch kind {
	case confirm.KindResetAll:
		s.ResetAll()
		return nil
	default:
		return fmt.Errorf("unknown action %q", kind)
	}
}

// Flush waits for all in-flight persistence writes and reports the first
// failure since the last call. The failed mutation stays applied locally.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for pending writes: %w", ctx.Err())
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	err := s.saveErr
	s.saveErr = nil
	return err
}

// commitLocked installs the new snapshot and schedules its write. Callers
// hold s.mu.
func (s *Store) commitLocked(next model.UserDocument) {
	s.doc = next
	s.signal()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.gw.Write(s.ctx, s.key, next); err != nil {
			s.log.Warn("document write failed", "path", s.key.Path(), "error", err)
			s.saveMu.Lock()
			if s.saveErr == nil {
				s.saveErr = err
			}
			s.saveMu.Unlock()
			if s.onSaveErr != nil {
				s.onSaveErr(err)
			}
		}
	}()
}

func (s *Store) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func indexOfTask(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func removeTask(tasks []model.Task, id string) []model.Task {
	out := tasks[:0:0]
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func indexOfRoutine(routines []model.Routine, id string) int {
	for i, r := range routines {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func removeRoutine(routines []model.Routine, id string) []model.Routine {
	out := routines[:0:0]
	for _, r := range routines {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
