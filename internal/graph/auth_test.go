package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCredential = Credential{
	TenantID:     "tenant-1",
	ClientID:     "client-1",
	ClientSecret: "s3cret",
}

// newMockIdentityServer serves /{tenant}/oauth2/v2.0/token. handler nil
// issues a one-hour token. Returns the server URL and a request counter.
func newMockIdentityServer(t *testing.T, handler http.HandlerFunc) (string, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	if handler == nil {
		handler = tokenResponder(3600)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL, &calls
}

func tokenResponder(expiresIn int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"app-token","token_type":"Bearer","expires_in":%d}`, expiresIn)
	}
}

func newTestSource(t *testing.T, authority string) *CredentialSource {
	t.Helper()

	src, err := NewCredentialSource(context.Background(), testCredential, CredentialOptions{
		AuthorityURL: authority,
		HTTPClient:   http.DefaultClient,
	}, slog.Default())
	require.NoError(t, err)

	return src
}

func TestAuthenticate_ClientCredentialsGrant(t *testing.T) {
	authority, calls := newMockIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "s3cret", r.PostForm.Get("client_secret"))
		assert.Equal(t, DefaultScope, r.PostForm.Get("scope"))
		tokenResponder(3600)(w, r)
	})

	src := newTestSource(t, authority)

	before := time.Now()
	tok, err := src.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "app-token", tok.AccessToken)
	assert.True(t, tok.Expiry.After(before), "expiry must be in the future")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthenticate_RejectedCredential(t *testing.T) {
	authority, _ := newMockIdentityServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client","error_description":"AADSTS7000215: Invalid client secret provided."}`)
	})

	src := newTestSource(t, authority)

	tok, err := src.Authenticate(context.Background())
	require.Error(t, err)
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, ErrAuthFailed)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "tenant-1", authErr.TenantID)
	assert.Equal(t, "client-1", authErr.ClientID)
	assert.NotContains(t, err.Error(), "s3cret")
}

func TestAuthenticate_TokenWithoutExpiry(t *testing.T) {
	authority, _ := newMockIdentityServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"app-token","token_type":"Bearer"}`)
	})

	src := newTestSource(t, authority)

	_, err := src.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.ErrorIs(t, err, errNoExpiry)
}

func TestAuthenticate_AlreadyExpiredToken(t *testing.T) {
	authority, _ := newMockIdentityServer(t, nil)

	src := newTestSource(t, authority)
	src.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := src.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errTokenExpired)
}

func TestAuthenticate_CanceledContext(t *testing.T) {
	authority, calls := newMockIdentityServer(t, nil)
	src := newTestSource(t, authority)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Authenticate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestToken_CachedWhileValid(t *testing.T) {
	authority, calls := newMockIdentityServer(t, nil)
	src := newTestSource(t, authority)

	for range 3 {
		tok, err := src.Token()
		require.NoError(t, err)
		assert.Equal(t, "app-token", tok)
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestToken_RefreshesLazilyWhenExpired(t *testing.T) {
	// Five seconds is inside oauth2's early-expiry window, so every call
	// sees the cached token as expired and exchanges again.
	authority, calls := newMockIdentityServer(t, tokenResponder(5))
	src := newTestSource(t, authority)

	_, err := src.Token()
	require.NoError(t, err)

	_, err = src.Token()
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestNewCredentialSource_Validation(t *testing.T) {
	tests := []struct {
		name string
		cred Credential
	}{
		{"missing tenant", Credential{ClientID: "c", ClientSecret: "s"}},
		{"missing client", Credential{TenantID: "t", ClientSecret: "s"}},
		{"missing secret", Credential{TenantID: "t", ClientID: "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCredentialSource(context.Background(), tt.cred, CredentialOptions{}, slog.Default())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuthFailed)
			assert.ErrorIs(t, err, errEmptyCredential)
		})
	}
}

func TestNewCredentialSource_UnknownProvider(t *testing.T) {
	_, err := NewCredentialSource(context.Background(), testCredential,
		CredentialOptions{Provider: "kerberos"}, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kerberos")
}

func TestNewCredentialSource_AzIdentityProvider(t *testing.T) {
	src, err := NewCredentialSource(context.Background(), testCredential,
		CredentialOptions{Provider: ProviderAzIdentity}, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestCredential_LogValueOmitsSecret(t *testing.T) {
	v := testCredential.LogValue()
	assert.NotContains(t, v.String(), "s3cret")
	assert.Contains(t, v.String(), "client-1")
}
