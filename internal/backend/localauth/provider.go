// Package localauth implements the identity.Provider interface without a
// remote identity service, for relay-backed development setups. Anonymous
// sign-in mints a fresh local identity; token sign-in derives a stable
// identity from the token so repeated bootstraps agree on the user ID.
package localauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	"rota/internal/identity"
)

// Provider mints identities locally.
type Provider struct{}

// New creates a local identity provider.
func New() *Provider {
	return &Provider{}
}

// SignInAnonymous implements identity.Provider.
func (p *Provider) SignInAnonymous(ctx context.Context) (identity.Credentials, error) {
	return identity.Credentials{
		UserID:       "local-" + uuid.NewString(),
		RefreshToken: uuid.NewString(),
	}, nil
}

// SignInWithToken implements identity.Provider. The user ID is a digest
// of the token, so the same token always lands on the same document.
func (p *Provider) SignInWithToken(ctx context.Context, token string) (identity.Credentials, error) {
	sum := sha256.Sum256([]byte(token))
	return identity.Credentials{
		UserID:       "local-" + hex.EncodeToString(sum[:8]),
		RefreshToken: uuid.NewString(),
	}, nil
}
