// Package firebaseauth implements the identity.Provider interface against
// the Identity Platform REST API. Anonymous and custom-token sign-in go
// through identitytoolkit; ID tokens refresh through the securetoken
// endpoint, which speaks the standard OAuth2 refresh flow.
package firebaseauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"rota/internal/identity"
)

const (
	defaultBaseURL  = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL = "https://securetoken.googleapis.com/v1/token"

	// AuthTimeout is the timeout for sign-in calls.
	AuthTimeout = 30 * time.Second
)

// Provider signs users in against Identity Platform.
type Provider struct {
	apiKey     string
	baseURL    string
	tokenURL   string
	httpClient *http.Client
}

// New creates a provider for the project identified by apiKey.
func New(apiKey string) *Provider {
	return &Provider{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		tokenURL:   defaultTokenURL,
		httpClient: http.DefaultClient,
	}
}

// NewWithHTTPClient creates a provider with a custom HTTP client and base
// URL (for testing). Token refresh is served from baseURL/token.
func NewWithHTTPClient(apiKey string, httpClient *http.Client, baseURL string) *Provider {
	return &Provider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		tokenURL:   baseURL + "/token",
		httpClient: httpClient,
	}
}

type signUpResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

type signInWithTokenResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	IsNewUser    bool   `json:"isNewUser"`
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
	} `json:"users"`
}

// SignInAnonymous creates a fresh anonymous identity.
func (p *Provider) SignInAnonymous(ctx context.Context) (identity.Credentials, error) {
	var resp signUpResponse
	if err := p.post(ctx, "accounts:signUp", map[string]any{"returnSecureToken": true}, &resp); err != nil {
		return identity.Credentials{}, fmt.Errorf("anonymous sign-in: %w", err)
	}
	return identity.Credentials{
		UserID:       resp.LocalID,
		RefreshToken: resp.RefreshToken,
		IDToken:      resp.IDToken,
		Expiry:       expiry(resp.ExpiresIn),
	}, nil
}

// SignInWithToken exchanges a custom bootstrap token for an identity. The
// exchange response carries no user ID, so a lookup follows it.
func (p *Provider) SignInWithToken(ctx context.Context, token string) (identity.Credentials, error) {
	var resp signInWithTokenResponse
	body := map[string]any{"token": token, "returnSecureToken": true}
	if err := p.post(ctx, "accounts:signInWithCustomToken", body, &resp); err != nil {
		return identity.Credentials{}, fmt.Errorf("token sign-in: %w", err)
	}

	var who lookupResponse
	if err := p.post(ctx, "accounts:lookup", map[string]any{"idToken": resp.IDToken}, &who); err != nil {
		return identity.Credentials{}, fmt.Errorf("token sign-in lookup: %w", err)
	}
	if len(who.Users) == 0 {
		return identity.Credentials{}, fmt.Errorf("token sign-in lookup: no account for token")
	}
	return identity.Credentials{
		UserID:       who.Users[0].LocalID,
		RefreshToken: resp.RefreshToken,
		IDToken:      resp.IDToken,
		Expiry:       expiry(resp.ExpiresIn),
	}, nil
}

// TokenSource returns an auto-refreshing source of ID tokens for creds.
// The securetoken endpoint accepts a standard refresh_token grant, so the
// oauth2 machinery drives it directly.
func (p *Provider) TokenSource(ctx context.Context, creds identity.Credentials) oauth2.TokenSource {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  p.tokenURL + "?key=" + p.apiKey,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tok := &oauth2.Token{
		AccessToken:  creds.IDToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
	}
	if tok.Expiry.IsZero() {
		// Stored credentials without an expiry must refresh before first
		// use; a zero expiry would mark the stale token as never expiring.
		tok.Expiry = time.Unix(1, 0)
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return conf.TokenSource(ctx, tok)
}

// post sends one JSON request to the identity API and decodes the reply.
func (p *Provider) post(ctx context.Context, method string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	url := p.baseURL + "/" + method + "?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// apiError turns an identity API error payload into a friendly message.
func apiError(status int, body []byte) error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error.Message == "" {
		return fmt.Errorf("identity api: http %d", status)
	}

	msg := payload.Error.Message
	switch {
	case strings.Contains(msg, "INVALID_CUSTOM_TOKEN"), strings.Contains(msg, "CREDENTIAL_MISMATCH"):
		return fmt.Errorf("bootstrap token rejected")
	case strings.Contains(msg, "OPERATION_NOT_ALLOWED"):
		return fmt.Errorf("anonymous sign-in is disabled for this project")
	case strings.Contains(msg, "API key not valid"), strings.Contains(msg, "API_KEY_INVALID"):
		return fmt.Errorf("invalid api key (check settings.json)")
	case strings.Contains(msg, "TOKEN_EXPIRED"):
		return fmt.Errorf("session expired (run: rota login)")
	}
	return fmt.Errorf("identity api: %s", msg)
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}
	return err
}

// expiry converts the API's expires-in seconds string to a deadline.
func expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(secs) * time.Second)
}
