package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// DefaultScope is the app-only scope for Graph: whatever application
// permissions the tenant admin consented to.
const DefaultScope = "https://graph.microsoft.com/.default"

// Credential providers.
const (
	ProviderOAuth2     = "oauth2"
	ProviderAzIdentity = "azidentity"
)

var (
	errEmptyCredential = errors.New("tenant id, client id and client secret are all required")
	errTokenExpired    = errors.New("identity provider returned an already expired token")
	errNoExpiry        = errors.New("identity provider returned a token without expiry")
)

// Credential is a service principal identity. It is a plain value: built
// once from configuration and never mutated.
type Credential struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Validate reports whether all three parts are present.
func (c Credential) Validate() error {
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return errEmptyCredential
	}

	return nil
}

// LogValue keeps the secret out of logs.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tenant_id", c.TenantID),
		slog.String("client_id", c.ClientID),
	)
}

// Token is a bearer token and the instant it stops being accepted.
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// CredentialOptions tunes how the credential is exchanged.
type CredentialOptions struct {
	Provider string // ProviderOAuth2 (default) or ProviderAzIdentity
	Scope    string // DefaultScope when empty

	// AuthorityURL overrides https://login.microsoftonline.com (sovereign
	// clouds, tests).
	AuthorityURL string

	HTTPClient *http.Client
}

func (o CredentialOptions) scope() string {
	if o.Scope == "" {
		return DefaultScope
	}

	return o.Scope
}

// CredentialSource exchanges a Credential for bearer tokens. Tokens are
// cached and re-fetched lazily once expired, so a long run never sends an
// expired token. It satisfies TokenSource.
type CredentialSource struct {
	cred   Credential
	src    oauth2.TokenSource
	logger *slog.Logger
	now    func() time.Time
}

// NewCredentialSource builds a token source for cred. No network traffic
// happens until Authenticate or Token is called.
//
// ctx is bound to the underlying oauth2 token source and must outlive the
// CredentialSource.
func NewCredentialSource(
	ctx context.Context,
	cred Credential,
	opts CredentialOptions,
	logger *slog.Logger,
) (*CredentialSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cred.Validate(); err != nil {
		return nil, &AuthError{TenantID: cred.TenantID, ClientID: cred.ClientID, Err: err}
	}

	var src oauth2.TokenSource

	switch opts.Provider {
	case "", ProviderOAuth2:
		src = clientCredentialsSource(ctx, cred, opts)
	case ProviderAzIdentity:
		azCred, err := NewAzureCredential(cred, opts)
		if err != nil {
			return nil, err
		}

		src = oauth2.ReuseTokenSource(nil, &azureTokenSource{
			ctx:    ctx,
			cred:   azCred,
			scopes: []string{opts.scope()},
		})
	default:
		return nil, fmt.Errorf("graph: unknown credential provider %q", opts.Provider)
	}

	logger.Debug("credential source ready",
		slog.Any("credential", cred),
		slog.String("provider", opts.Provider),
		slog.String("scope", opts.scope()),
	)

	return &CredentialSource{
		cred:   cred,
		src:    src,
		logger: logger,
		now:    time.Now,
	}, nil
}

// clientCredentialsSource uses the OAuth2 client-credentials grant against
// the tenant's v2.0 token endpoint.
func clientCredentialsSource(ctx context.Context, cred Credential, opts CredentialOptions) oauth2.TokenSource {
	tokenURL := microsoft.AzureADEndpoint(cred.TenantID).TokenURL
	if opts.AuthorityURL != "" {
		tokenURL = strings.TrimSuffix(opts.AuthorityURL, "/") + "/" + cred.TenantID + "/oauth2/v2.0/token"
	}

	cfg := &clientcredentials.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{opts.scope()},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	// clientcredentials already wraps the source in a ReuseTokenSource.
	return cfg.TokenSource(ctx)
}

// NewAzureCredential builds an azidentity client-secret credential for cred.
// Used by the azidentity provider and by SDK-based callers that need an
// azcore.TokenCredential.
func NewAzureCredential(cred Credential, opts CredentialOptions) (azcore.TokenCredential, error) {
	if err := cred.Validate(); err != nil {
		return nil, &AuthError{TenantID: cred.TenantID, ClientID: cred.ClientID, Err: err}
	}

	azOpts := &azidentity.ClientSecretCredentialOptions{}

	if opts.AuthorityURL != "" {
		azOpts.Cloud = cloud.Configuration{ActiveDirectoryAuthorityHost: opts.AuthorityURL}
		azOpts.DisableInstanceDiscovery = true
	}

	if opts.HTTPClient != nil {
		azOpts.Transport = opts.HTTPClient
	}

	azCred, err := azidentity.NewClientSecretCredential(cred.TenantID, cred.ClientID, cred.ClientSecret, azOpts)
	if err != nil {
		return nil, &AuthError{TenantID: cred.TenantID, ClientID: cred.ClientID, Err: err}
	}

	return azCred, nil
}

// azureTokenSource adapts azcore.TokenCredential to oauth2.TokenSource.
type azureTokenSource struct {
	ctx    context.Context
	cred   azcore.TokenCredential
	scopes []string
}

func (s *azureTokenSource) Token() (*oauth2.Token, error) {
	at, err := s.cred.GetToken(s.ctx, policy.TokenRequestOptions{Scopes: s.scopes})
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: at.Token,
		TokenType:   "Bearer",
		Expiry:      at.ExpiresOn,
	}, nil
}

// Authenticate exchanges the credential for a token (or returns the cached
// one while it is still valid). The returned token always expires strictly
// in the future. A rejected credential yields *AuthError.
func (s *CredentialSource) Authenticate(ctx context.Context) (*Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("graph: authentication canceled: %w", err)
	}

	t, err := s.fetch()
	if err != nil {
		return nil, err
	}

	s.logger.Info("authenticated",
		slog.String("client_id", s.cred.ClientID),
		slog.Time("expiry", t.Expiry),
	)

	return &Token{AccessToken: t.AccessToken, Expiry: t.Expiry}, nil
}

// Token implements TokenSource.
func (s *CredentialSource) Token() (string, error) {
	t, err := s.fetch()
	if err != nil {
		return "", err
	}

	s.logger.Debug("token acquired", slog.Time("expiry", t.Expiry))

	return t.AccessToken, nil
}

// fetch pulls a token and enforces the expiry invariant.
func (s *CredentialSource) fetch() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		s.logger.Warn("token acquisition failed", slog.String("error", err.Error()))

		if isCredentialRejected(err) {
			return nil, s.authError(err)
		}

		return nil, fmt.Errorf("graph: obtaining token: %w", err)
	}

	if t.Expiry.IsZero() {
		return nil, s.authError(errNoExpiry)
	}

	if !t.Expiry.After(s.now()) {
		return nil, s.authError(errTokenExpired)
	}

	return t, nil
}

func (s *CredentialSource) authError(err error) *AuthError {
	return &AuthError{TenantID: s.cred.TenantID, ClientID: s.cred.ClientID, Err: err}
}

// isCredentialRejected separates "the identity provider said no" from
// transport failures.
func isCredentialRejected(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}

	var azErr *azidentity.AuthenticationFailedError

	return errors.As(err, &azErr)
}
