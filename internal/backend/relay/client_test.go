package relay

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rota/internal/gateway"
	"rota/internal/model"
	"rota/internal/relayserver"
)

var testKey = gateway.UserDocument("test-ns", "u1")

func newTestClient(t *testing.T) *Client {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	srv, err := relayserver.New(db, nil)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func nextUpdate(t *testing.T, sub gateway.Subscription) gateway.Update {
	t.Helper()
	select {
	case u, ok := <-sub.Updates():
		if !ok {
			t.Fatalf("updates channel closed, err = %v", sub.Err())
		}
		return u
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for update")
	}
	return gateway.Update{}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("://bad"); err == nil {
		t.Errorf("New accepted an unparseable url")
	}
	if _, err := New("ftp://example.com"); err == nil {
		t.Errorf("New accepted a non-http scheme")
	}
}

func TestReadAbsentDocument(t *testing.T) {
	c := newTestClient(t)

	_, exists, err := c.Read(context.Background(), testKey)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if exists {
		t.Errorf("exists = true, want false for absent document")
	}
}

func TestWriteThenRead(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	doc := model.New()
	doc.GlobalTasks = append(doc.GlobalTasks, model.Task{ID: "t1", Text: "water plants", Completed: true})
	doc.DailyTasks[model.Monday] = append(doc.DailyTasks[model.Monday], model.Task{ID: "t2", Text: "standup"})
	if err := c.Write(ctx, testKey, doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, exists, err := c.Read(ctx, testKey)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !exists {
		t.Fatalf("exists = false, want true after write")
	}
	if len(got.GlobalTasks) != 1 || got.GlobalTasks[0].Text != "water plants" || !got.GlobalTasks[0].Completed {
		t.Errorf("GlobalTasks = %+v, want the written task", got.GlobalTasks)
	}
	if len(got.DailyTasks[model.Monday]) != 1 || got.DailyTasks[model.Monday][0].Text != "standup" {
		t.Errorf("monday tasks = %+v, want the written task", got.DailyTasks[model.Monday])
	}
}

func TestSubscribeDeliversInitialThenEcho(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, testKey)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if u := nextUpdate(t, sub); u.Exists {
		t.Fatalf("initial update exists = true, want false")
	}

	doc := model.New()
	doc.Routines = append(doc.Routines, model.NewRoutine("r1", "stretch"))
	if err := c.Write(ctx, testKey, doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	u := nextUpdate(t, sub)
	if !u.Exists {
		t.Fatalf("update exists = false, want true after write")
	}
	if len(u.Doc.Routines) != 1 || u.Doc.Routines[0].Text != "stretch" {
		t.Errorf("Routines = %+v, want the written routine", u.Doc.Routines)
	}
}

func TestSubscriptionSeesOtherClientsWrites(t *testing.T) {
	watcher := newTestClient(t)
	writer, err := NewWithHTTPClient(watcher.baseURL.String(), watcher.httpClient)
	if err != nil {
		t.Fatalf("failed to create writer client: %v", err)
	}
	ctx := context.Background()

	sub, err := watcher.Subscribe(ctx, testKey)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()
	nextUpdate(t, sub)

	doc := model.New()
	doc.GlobalTasks = append(doc.GlobalTasks, model.Task{ID: "t9", Text: "from elsewhere"})
	if err := writer.Write(ctx, testKey, doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	u := nextUpdate(t, sub)
	if !u.Exists || len(u.Doc.GlobalTasks) != 1 || u.Doc.GlobalTasks[0].Text != "from elsewhere" {
		t.Errorf("update = %+v, want the other client's write", u)
	}
}

func TestCloseEndsSubscriptionCleanly(t *testing.T) {
	c := newTestClient(t)

	sub, err := c.Subscribe(context.Background(), testKey)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	nextUpdate(t, sub)
	sub.Close()
	sub.Close()

	select {
	case _, ok := <-sub.Updates():
		if ok {
			// Drain anything buffered before the close.
			for range sub.Updates() {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("updates channel not closed after Close")
	}
	if err := sub.Err(); err != nil {
		t.Errorf("Err = %v, want nil after local close", err)
	}
}
