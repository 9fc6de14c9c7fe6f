package localauth

import (
	"context"
	"strings"
	"testing"
)

func TestAnonymousIdentitiesAreDistinct(t *testing.T) {
	p := New()
	a, err := p.SignInAnonymous(context.Background())
	if err != nil {
		t.Fatalf("SignInAnonymous() error = %v", err)
	}
	b, err := p.SignInAnonymous(context.Background())
	if err != nil {
		t.Fatalf("SignInAnonymous() error = %v", err)
	}
	if !a.Valid() || !b.Valid() {
		t.Errorf("credentials not valid: %+v %+v", a, b)
	}
	if a.UserID == b.UserID {
		t.Errorf("two anonymous sign-ins shared user id %q", a.UserID)
	}
	if !strings.HasPrefix(a.UserID, "local-") {
		t.Errorf("user id = %q, want local- prefix", a.UserID)
	}
}

func TestTokenIdentityIsStable(t *testing.T) {
	p := New()
	a, err := p.SignInWithToken(context.Background(), "team-token")
	if err != nil {
		t.Fatalf("SignInWithToken() error = %v", err)
	}
	b, err := p.SignInWithToken(context.Background(), "team-token")
	if err != nil {
		t.Fatalf("SignInWithToken() error = %v", err)
	}
	if a.UserID != b.UserID {
		t.Errorf("same token produced different user ids: %q %q", a.UserID, b.UserID)
	}
	c, err := p.SignInWithToken(context.Background(), "other-token")
	if err != nil {
		t.Fatalf("SignInWithToken() error = %v", err)
	}
	if c.UserID == a.UserID {
		t.Error("different tokens produced the same user id")
	}
}
