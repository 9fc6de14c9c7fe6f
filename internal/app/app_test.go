package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"rota/internal/config"
	"rota/internal/docsync"
	"rota/internal/gateway"
	"rota/internal/identity"
	"rota/internal/model"
	"rota/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Dir:       t.TempDir(),
		Namespace: "test-ns",
	}
}

func openSession(t *testing.T, fg *testutil.FakeGateway) *Session {
	t.Helper()
	sess, err := Open(context.Background(), testConfig(t), Options{
		Provider: testutil.NewFakeProvider(),
		Connect: func(ctx context.Context, cfg *config.Config, creds identity.Credentials) (gateway.Gateway, error) {
			return fg, nil
		},
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return sess
}

func TestOpenHydratesFromRemote(t *testing.T) {
	fg := testutil.NewFakeGateway()
	key := gateway.UserDocument("test-ns", "u-fake")
	doc := model.New()
	doc.GlobalTasks = append(doc.GlobalTasks, model.Task{ID: "t1", Text: "water plants"})
	fg.Seed(key, doc)

	sess := openSession(t, fg)
	defer sess.Close()

	snap := sess.Store.Snapshot()
	if len(snap.GlobalTasks) != 1 || snap.GlobalTasks[0].Text != "water plants" {
		t.Errorf("GlobalTasks = %+v, want the seeded task", snap.GlobalTasks)
	}
	if fg.WriteCount() != 0 {
		t.Errorf("WriteCount = %d, want 0 when a document already exists", fg.WriteCount())
	}
}

func TestOpenBootstrapsAbsentDocument(t *testing.T) {
	fg := testutil.NewFakeGateway()

	sess := openSession(t, fg)
	defer sess.Close()

	if fg.WriteCount() != 1 {
		t.Fatalf("WriteCount = %d, want exactly 1 bootstrap write", fg.WriteCount())
	}
	if !fg.Writes()[0].Doc.Empty() {
		t.Errorf("bootstrap write = %+v, want the all-empty document", fg.Writes()[0].Doc)
	}
}

func TestOpenReportsAuthFailure(t *testing.T) {
	fp := testutil.NewFakeProvider()
	fp.AnonErr = errors.New("sign-in rejected")

	_, err := Open(context.Background(), testConfig(t), Options{
		Provider: fp,
		Connect: func(ctx context.Context, cfg *config.Config, creds identity.Credentials) (gateway.Gateway, error) {
			t.Fatalf("Connect called despite auth failure")
			return nil, nil
		},
	})
	if !errors.Is(err, identity.ErrAuthFailed) {
		t.Errorf("err = %v, want identity.ErrAuthFailed", err)
	}
}

func TestOpenReportsSubscribeFailure(t *testing.T) {
	fg := testutil.NewFakeGateway()
	fg.SubscribeErr = errors.New("listener refused")

	_, err := Open(context.Background(), testConfig(t), Options{
		Provider: testutil.NewFakeProvider(),
		Connect: func(ctx context.Context, cfg *config.Config, creds identity.Credentials) (gateway.Gateway, error) {
			return fg, nil
		},
	})
	if !errors.Is(err, docsync.ErrSyncFailed) {
		t.Errorf("err = %v, want docsync.ErrSyncFailed", err)
	}
}

func TestMutationsPersistUntilClose(t *testing.T) {
	fg := testutil.NewFakeGateway()
	key := gateway.UserDocument("test-ns", "u-fake")
	fg.Seed(key, model.New())

	sess := openSession(t, fg)
	if err := sess.Store.AddGlobalTask("buy milk"); err != nil {
		t.Fatalf("AddGlobalTask failed: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	writes := fg.Writes()
	if len(writes) == 0 {
		t.Fatalf("no writes recorded")
	}
	last := writes[len(writes)-1].Doc
	if len(last.GlobalTasks) != 1 || last.GlobalTasks[0].Text != "buy milk" {
		t.Errorf("last write = %+v, want the added task", last.GlobalTasks)
	}
}

func TestCloseSurfacesSaveError(t *testing.T) {
	fg := testutil.NewFakeGateway()
	key := gateway.UserDocument("test-ns", "u-fake")
	fg.Seed(key, model.New())

	sess := openSession(t, fg)
	fg.WriteErr = errors.New("store rejected write")
	if err := sess.Store.AddGlobalTask("doomed"); err != nil {
		t.Fatalf("AddGlobalTask failed: %v", err)
	}

	if err := sess.Close(); err == nil {
		t.Errorf("Close = nil, want the background save error")
	}
	snap := sess.Store.Snapshot()
	if len(snap.GlobalTasks) != 1 {
		t.Errorf("local task dropped after save failure, want it kept")
	}
}

func TestOnSaveErrorCallback(t *testing.T) {
	fg := testutil.NewFakeGateway()
	key := gateway.UserDocument("test-ns", "u-fake")
	fg.Seed(key, model.New())

	sess := openSession(t, fg)
	defer sess.Close()

	notified := make(chan error, 1)
	sess.OnSaveError(func(err error) { notified <- err })

	fg.WriteErr = errors.New("store rejected write")
	if err := sess.Store.AddGlobalTask("doomed"); err != nil {
		t.Fatalf("AddGlobalTask failed: %v", err)
	}

	select {
	case err := <-notified:
		if err == nil {
			t.Errorf("callback got nil error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("save error callback never fired")
	}
}

func TestSyncFailedAfterSubscriptionLoss(t *testing.T) {
	fg := testutil.NewFakeGateway()
	key := gateway.UserDocument("test-ns", "u-fake")
	fg.Seed(key, model.New())

	sess := openSession(t, fg)
	defer sess.Close()

	if err := sess.SyncFailed(); err != nil {
		t.Fatalf("SyncFailed = %v while live, want nil", err)
	}

	fg.FailSubscriptions(key, errors.New("stream torn down"))

	deadline := time.After(5 * time.Second)
	for {
		if err := sess.SyncFailed(); err != nil {
			if !errors.Is(err, docsync.ErrSyncFailed) {
				t.Errorf("SyncFailed = %v, want docsync.ErrSyncFailed", err)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("SyncFailed never reported the torn stream")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
