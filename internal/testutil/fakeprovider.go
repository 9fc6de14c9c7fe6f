package testutil

import (
	"context"
	"sync"

	"rota/internal/identity"
)

// FakeProvider is an in-memory identity.Provider for testing.
type FakeProvider struct {
	mu         sync.Mutex
	anonCalls  int
	tokenCalls int
	lastToken  string

	// AnonCreds and TokenCreds are returned by the respective sign-in
	// methods when the matching error field is nil.
	AnonCreds  identity.Credentials
	TokenCreds identity.Credentials

	// Error injection for testing
	AnonErr  error
	TokenErr error
}

// NewFakeProvider returns a provider minting a fixed anonymous identity.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		AnonCreds:  identity.Credentials{UserID: "u-fake", RefreshToken: "rt-fake"},
		TokenCreds: identity.Credentials{UserID: "u-privileged", RefreshToken: "rt-privileged"},
	}
}

// SignInAnonymous implements identity.Provider.
func (p *FakeProvider) SignInAnonymous(ctx context.Context) (identity.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anonCalls++
	if p.AnonErr != nil {
		return identity.Credentials{}, p.AnonErr
	}
	return p.AnonCreds, nil
}

// SignInWithToken implements identity.Provider.
func (p *FakeProvider) SignInWithToken(ctx context.Context, token string) (identity.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenCalls++
	p.lastToken = token
	if p.TokenErr != nil {
		return identity.Credentials{}, p.TokenErr
	}
	return p.TokenCreds, nil
}

// AnonCalls returns how many anonymous sign-ins ran.
func (p *FakeProvider) AnonCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anonCalls
}

// TokenCalls returns how many token sign-ins ran and the last token seen.
func (p *FakeProvider) TokenCalls() (int, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenCalls, p.lastToken
}
