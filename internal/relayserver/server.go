// Package relayserver implements the development relay: the persistence
// gateway semantics served over HTTP and WebSocket, with documents stored
// as opaque JSON in SQLite. The relay never inspects document contents,
// and it performs no authentication; it exists so the whole system runs
// locally without cloud credentials.
package relayserver

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// MaxDocumentBytes bounds one document write.
const MaxDocumentBytes = 1 << 20

// Frame is one watch message: the entire document state at a point in
// time. Every stored write produces a frame for all watchers of the path,
// the writer's own connection included.
type Frame struct {
	Exists bool            `json:"exists"`
	Doc    json.RawMessage `json:"doc,omitempty"`
}

// Server serves the relay endpoints.
type Server struct {
	db       *sql.DB
	log      *slog.Logger
	hub      *hub
	upgrader websocket.Upgrader
}

// New creates a relay server on db, creating the schema if needed.
func New(db *sql.DB, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		db:  db,
		log: log,
		hub: newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS documents (
		path text not null primary key,
		content text not null,
		updated_at text not null
		)`,
	); err != nil {
		return nil, err
	}
	return s, nil
}

// Router returns the relay's routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/v1/docs/{path:.+}").HandlerFunc(s.getDoc)
	r.Methods(http.MethodPut).Path("/v1/docs/{path:.+}").HandlerFunc(s.putDoc)
	r.Methods(http.MethodGet).Path("/v1/watch/{path:.+}").HandlerFunc(s.watchDoc)
	return r
}

func (s *Server) getDoc(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	content, ok, err := s.load(path)
	if err != nil {
		s.log.Error("failed to load document", "path", path, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(content))
}

func (s *Server) putDoc(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentBytes))
	if err != nil {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "body must be a JSON document", http.StatusBadRequest)
		return
	}

	// Store and broadcast under the hub lock, so watchers observe writes
	// in a single total order.
	err = s.hub.publish(path, func() ([]byte, error) {
		if _, err := s.db.Exec(
			`INSERT INTO documents (path, content, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
			path, string(body), time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			return nil, err
		}
		return marshalFrame(Frame{Exists: true, Doc: body}), nil
	})
	if err != nil {
		s.log.Error("failed to store document", "path", path, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) watchDoc(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("failed to upgrade", "path", path, "err", err)
		return
	}
	defer conn.Close()

	// Register before anything else; the initial frame is enqueued under
	// the same lock as broadcasts, so no write can slip between it and
	// the live feed.
	sub := s.hub.subscribe(path, func() []byte {
		content, ok, err := s.load(path)
		if err != nil {
			s.log.Error("failed to load document", "path", path, "err", err)
			ok = false
		}
		if !ok {
			return marshalFrame(Frame{Exists: false})
		}
		return marshalFrame(Frame{Exists: true, Doc: json.RawMessage(content)})
	})
	defer s.hub.unsubscribe(path, sub)

	// Reader goroutine only watches for the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-sub.ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) load(path string) (string, bool, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM documents WHERE path = ?`, path).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

func marshalFrame(f Frame) []byte {
	data, err := json.Marshal(f)
	if err != nil {
		// A frame is two fixed fields; this cannot fail with valid input.
		return []byte(`{"exists":false}`)
	}
	return data
}
