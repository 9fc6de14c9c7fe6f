// Package identity establishes who the user is before any document access.
// A session is obtained from exactly one of three sources, tried in order:
// a resumed stored credential, a privileged bootstrap token, or anonymous
// sign-in. Only afterwards is the session marked ready.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Method records which sign-in path produced a session.
type Method string

// Sign-in methods, in the order the bootstrap tries them.
const (
	MethodResume    Method = "resume"
	MethodToken     Method = "token"
	MethodAnonymous Method = "anonymous"
)

// ErrAuthFailed is returned when every sign-in method has been exhausted.
// It is terminal for the session; callers report it once and do not retry.
var ErrAuthFailed = errors.New("sign-in failed")

// Session is an established identity. AuthReady is true only once a
// concrete UserID has been obtained; everything downstream gates on it.
type Session struct {
	UserID    string
	AuthReady bool
	Method    Method
}

// Credentials is the durable sign-in material for one identity, stored in
// the config directory between runs.
type Credentials struct {
	UserID       string    `json:"userId"`
	RefreshToken string    `json:"refreshToken"`
	IDToken      string    `json:"idToken,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Valid reports whether the credentials can resume a session.
func (c Credentials) Valid() bool {
	return c.UserID != "" && c.RefreshToken != ""
}

// Provider signs users in against an identity backend.
type Provider interface {
	// SignInAnonymous creates or resumes an anonymous identity.
	SignInAnonymous(ctx context.Context) (Credentials, error)

	// SignInWithToken exchanges a privileged bootstrap token for an
	// identity.
	SignInWithToken(ctx context.Context, token string) (Credentials, error)
}

// LoadCredentials reads stored credentials from path. A missing or
// unreadable file is not an error; it reports ok=false.
func LoadCredentials(path string) (Credentials, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, false
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, false
	}
	if !creds.Valid() {
		return Credentials{}, false
	}
	return creds, true
}

// SaveCredentials writes credentials to path, readable by the owner only.
func SaveCredentials(path string, creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EstablishOptions configures the bootstrap.
type EstablishOptions struct {
	// SessionPath is the stored-credentials file. Resume reads it; fresh
	// sign-ins persist to it. Empty disables both.
	SessionPath string

	// BootstrapToken is the externally supplied privileged credential.
	// Empty skips the privileged step.
	BootstrapToken string

	// Logger receives bootstrap progress. Nil discards.
	Logger *slog.Logger
}

// Establish produces exactly one session. Order: resume stored
// credentials when valid; else privileged token sign-in when a bootstrap
// token is present (failure falls through); else anonymous sign-in. When
// all paths fail the error wraps ErrAuthFailed and no session exists.
func Establish(ctx context.Context, p Provider, opts EstablishOptions) (Session, Credentials, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.SessionPath != "" {
		if creds, ok := LoadCredentials(opts.SessionPath); ok {
			log.Debug("resumed stored session", "userId", creds.UserID)
			return Session{UserID: creds.UserID, AuthReady: true, Method: MethodResume}, creds, nil
		}
	}

	var tokenErr error
	if opts.BootstrapToken != "" {
		creds, err := p.SignInWithToken(ctx, opts.BootstrapToken)
		if err == nil {
			persist(opts.SessionPath, creds, log)
			log.Debug("signed in with bootstrap token", "userId", creds.UserID)
			return Session{UserID: creds.UserID, AuthReady: true, Method: MethodToken}, creds, nil
		}
		tokenErr = err
		log.Debug("bootstrap token sign-in failed, falling back to anonymous", "error", err)
	}

	creds, err := p.SignInAnonymous(ctx)
	if err != nil {
		if tokenErr != nil {
			return Session{}, Credentials{}, fmt.Errorf("%w: token sign-in: %v; anonymous sign-in: %v", ErrAuthFailed, tokenErr, err)
		}
		return Session{}, Credentials{}, fmt.Errorf("%w: anonymous sign-in: %v", ErrAuthFailed, err)
	}
	persist(opts.SessionPath, creds, log)
	log.Debug("signed in anonymously", "userId", creds.UserID)
	return Session{UserID: creds.UserID, AuthReady: true, Method: MethodAnonymous}, creds, nil
}

// persist stores fresh credentials. A write failure does not fail the
// bootstrap; the session works for this run and sign-in repeats next time.
func persist(path string, creds Credentials, log *slog.Logger) {
	if path == "" {
		return
	}
	if err := SaveCredentials(path, creds); err != nil {
		log.Warn("could not store session credentials", "path", path, "error", err)
	}
}
