package app

import (
	"context"
	"errors"
	"fmt"

	"rota/internal/backend/cloudfirestore"
	"rota/internal/backend/firebaseauth"
	"rota/internal/backend/localauth"
	"rota/internal/backend/relay"
	"rota/internal/config"
	"rota/internal/gateway"
	"rota/internal/identity"
)

// DefaultProvider builds the identity provider for the configured
// backend.
func DefaultProvider(cfg *config.Config) (identity.Provider, error) {
	switch cfg.Backend {
	case config.BackendRelay:
		return localauth.New(), nil
	case config.BackendFirestore, "":
		if cfg.APIKey == "" {
			return nil, errors.New(`api_key missing in settings.json (or set backend to "relay")`)
		}
		return firebaseauth.New(cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// DefaultGateway connects the persistence gateway for the configured
// backend.
func DefaultGateway(ctx context.Context, cfg *config.Config, creds identity.Credentials) (gateway.Gateway, error) {
	switch cfg.Backend {
	case config.BackendRelay:
		return relay.New(cfg.RelayURL)
	case config.BackendFirestore, "":
		if cfg.APIKey == "" {
			return nil, errors.New("api_key missing in settings.json")
		}
		ts := firebaseauth.New(cfg.APIKey).TokenSource(ctx, creds)
		return cloudfirestore.New(ctx, cfg.ProjectID, ts)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
