package firebaseauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rota/internal/identity"
)

func testProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient("test-key", srv.Client(), srv.URL)
}

func TestSignInAnonymous(t *testing.T) {
	var gotKey string
	var gotBody map[string]any
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signUp" {
			t.Errorf("path = %q, want /accounts:signUp", r.URL.Path)
		}
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"idToken":"id-abc","refreshToken":"rt-abc","expiresIn":"3600","localId":"u-anon-1"}`)
	}))

	creds, err := p.SignInAnonymous(context.Background())
	if err != nil {
		t.Fatalf("SignInAnonymous() error = %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("api key = %q, want test-key", gotKey)
	}
	if gotBody["returnSecureToken"] != true {
		t.Errorf("request body = %v, want returnSecureToken", gotBody)
	}
	if creds.UserID != "u-anon-1" || creds.RefreshToken != "rt-abc" || creds.IDToken != "id-abc" {
		t.Errorf("creds = %+v", creds)
	}
	if creds.Expiry.Before(time.Now().Add(30 * time.Minute)) {
		t.Errorf("expiry = %v, want about an hour out", creds.Expiry)
	}
}

func TestSignInWithToken(t *testing.T) {
	var lookupToken string
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts:signInWithCustomToken":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if body["token"] != "boot-xyz" || body["returnSecureToken"] != true {
				t.Errorf("exchange body = %v", body)
			}
			fmt.Fprint(w, `{"idToken":"id-priv","refreshToken":"rt-priv","expiresIn":"3600","isNewUser":false}`)
		case "/accounts:lookup":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			lookupToken, _ = body["idToken"].(string)
			fmt.Fprint(w, `{"users":[{"localId":"u-priv-7"}]}`)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	creds, err := p.SignInWithToken(context.Background(), "boot-xyz")
	if err != nil {
		t.Fatalf("SignInWithToken() error = %v", err)
	}
	if lookupToken != "id-priv" {
		t.Errorf("lookup used idToken %q, want id-priv", lookupToken)
	}
	if creds.UserID != "u-priv-7" || creds.RefreshToken != "rt-priv" {
		t.Errorf("creds = %+v", creds)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"INVALID_CUSTOM_TOKEN", "bootstrap token rejected"},
		{"OPERATION_NOT_ALLOWED", "anonymous sign-in is disabled for this project"},
		{"API key not valid. Please pass a valid API key.", "invalid api key (check settings.json)"},
		{"TOKEN_EXPIRED", "session expired (run: rota login)"},
		{"QUOTA_EXCEEDED", "identity api: QUOTA_EXCEEDED"},
	}
	for _, tt := range tests {
		p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"error":{"code":400,"message":%q}}`, tt.message)
		}))
		_, err := p.SignInAnonymous(context.Background())
		if err == nil {
			t.Fatalf("message %q: error = nil", tt.message)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("message %q: error = %q, want substring %q", tt.message, err, tt.want)
		}
	}
}

func TestAPIErrorWithoutPayload(t *testing.T) {
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream broke")
	}))
	_, err := p.SignInAnonymous(context.Background())
	if err == nil || !strings.Contains(err.Error(), "http 502") {
		t.Errorf("error = %v, want http 502", err)
	}
}

func TestTokenSourceRefreshes(t *testing.T) {
	var form map[string][]string
	p := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("path = %q, want /token", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"id-new","token_type":"Bearer","refresh_token":"rt-new","expires_in":3600}`)
	}))

	// No expiry recorded: the stale stored token must refresh first.
	creds := identity.Credentials{UserID: "u1", RefreshToken: "rt-old", IDToken: "id-old"}
	ts := p.TokenSource(context.Background(), creds)
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "id-new" {
		t.Errorf("access token = %q, want refreshed id-new", tok.AccessToken)
	}
	if got := form["grant_type"]; len(got) != 1 || got[0] != "refresh_token" {
		t.Errorf("grant_type = %v, want refresh_token", got)
	}
	if got := form["refresh_token"]; len(got) != 1 || got[0] != "rt-old" {
		t.Errorf("refresh_token = %v, want rt-old", got)
	}
}
