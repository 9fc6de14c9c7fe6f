package relayserver

import "sync"

// hub fans document writes out to every watcher of a path. All stores,
// subscriptions, and broadcasts run under one mutex so every watcher sees
// the same write order.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan []byte
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*subscriber]struct{})}
}

// subscribe registers a new watcher for path. initial is invoked under
// the hub lock and its frame is enqueued first, so the watcher starts
// from current state and then sees every subsequent write.
func (h *hub) subscribe(path string, initial func() []byte) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &subscriber{ch: make(chan []byte, 16)}
	sub.send(initial())
	if h.subs[path] == nil {
		h.subs[path] = make(map[*subscriber]struct{})
	}
	h.subs[path][sub] = struct{}{}
	return sub
}

func (h *hub) unsubscribe(path string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[path]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, path)
		}
	}
	// Sends only happen under h.mu while the subscriber is registered,
	// so closing here cannot race one.
	close(sub.ch)
}

// publish runs store under the hub lock and broadcasts the frame it
// returns to every watcher of path, the writer included.
func (h *hub) publish(path string, store func() ([]byte, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, err := store()
	if err != nil {
		return err
	}
	for sub := range h.subs[path] {
		sub.send(data)
	}
	return nil
}

// send enqueues without blocking, dropping the oldest frame when the
// buffer is full. Every frame carries full state, so the latest one is
// always sufficient.
func (s *subscriber) send(data []byte) {
	for {
		select {
		case s.ch <- data:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
