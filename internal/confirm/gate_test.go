package confirm

import (
	"context"
	"errors"
	"testing"
)

type recordingExecutor struct {
	calls []Kind
	err   error
}

func (e *recordingExecutor) Execute(_ context.Context, kind Kind) error {
	e.calls = append(e.calls, kind)
	return e.err
}

func TestConfirmRunsActionOnce(t *testing.T) {
	exec := &recordingExecutor{}
	g := New(exec)

	g.Request(KindResetAll, "This will delete everything.")
	req, ok := g.Pending()
	if !ok {
		t.Fatal("Pending() = false after Request")
	}
	if req.Kind != KindResetAll {
		t.Errorf("pending kind = %q, want %q", req.Kind, KindResetAll)
	}
	if req.Message != "This will delete everything." {
		t.Errorf("pending message = %q", req.Message)
	}

	if err := g.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if len(exec.calls) != 1 || exec.calls[0] != KindResetAll {
		t.Errorf("executor calls = %v, want one reset_all", exec.calls)
	}
	if _, ok := g.Pending(); ok {
		t.Error("gate still pending after Confirm")
	}
}

func TestCancelDiscardsWithoutExecuting(t *testing.T) {
	exec := &recordingExecutor{}
	g := New(exec)

	g.Request(KindResetAll, "sure?")
	if !g.Cancel() {
		t.Error("Cancel() = false with a pending request")
	}
	if len(exec.calls) != 0 {
		t.Errorf("executor ran %v on cancel", exec.calls)
	}
	if _, ok := g.Pending(); ok {
		t.Error("gate still pending after Cancel")
	}
	if g.Cancel() {
		t.Error("Cancel() = true on idle gate")
	}
}

func TestConfirmOnIdleGate(t *testing.T) {
	g := New(&recordingExecutor{})
	if err := g.Confirm(context.Background()); !errors.Is(err, ErrNonePending) {
		t.Errorf("Confirm() error = %v, want ErrNonePending", err)
	}
}

func TestLastRequestWins(t *testing.T) {
	exec := &recordingExecutor{}
	g := New(exec)

	g.Request(Kind("first"), "first message")
	g.Request(KindResetAll, "second message")

	req, _ := g.Pending()
	if req.Kind != KindResetAll || req.Message != "second message" {
		t.Errorf("pending = %+v, want the second request", req)
	}
	if err := g.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if len(exec.calls) != 1 || exec.calls[0] != KindResetAll {
		t.Errorf("executor calls = %v, want only the second request", exec.calls)
	}
}

func TestConfirmReturnsExecutorError(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("backend down")}
	g := New(exec)

	g.Request(KindResetAll, "sure?")
	err := g.Confirm(context.Background())
	if err == nil {
		t.Fatal("Confirm() error = nil, want executor error")
	}
	if _, ok := g.Pending(); ok {
		t.Error("gate still pending after failed Confirm")
	}
}
