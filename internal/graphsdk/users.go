// Package graphsdk lists directory users through the generated Microsoft
// Graph SDK. It is the second of two user listers; the other is the plain
// REST client in internal/graph. Both produce the same graph.User shape.
package graphsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	kiotaauth "github.com/microsoft/kiota-authentication-azure-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

var errNilResponse = errors.New("graphsdk: empty users response")

// UserLister fetches one page of users via the SDK.
type UserLister struct {
	client *msgraphsdk.GraphServiceClient
	logger *slog.Logger
}

// NewUserLister builds an SDK client authenticated by cred. Empty scopes
// default to graph.DefaultScope. baseURL overrides the service root when
// non-empty.
func NewUserLister(cred azcore.TokenCredential, scopes []string, baseURL string, logger *slog.Logger) (*UserLister, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if len(scopes) == 0 {
		scopes = []string{graph.DefaultScope}
	}

	auth, err := kiotaauth.NewAzureIdentityAuthenticationProviderWithScopes(cred, scopes)
	if err != nil {
		return nil, fmt.Errorf("graphsdk: creating auth provider: %w", err)
	}

	adapter, err := msgraphsdk.NewGraphRequestAdapter(auth)
	if err != nil {
		return nil, fmt.Errorf("graphsdk: creating request adapter: %w", err)
	}

	if baseURL != "" {
		adapter.SetBaseUrl(baseURL)
	}

	return &UserLister{client: msgraphsdk.NewGraphServiceClient(adapter), logger: logger}, nil
}

// ListUsers returns the first page of users. Further pages are not fetched.
func (l *UserLister) ListUsers(ctx context.Context) (*graph.UserListing, error) {
	l.logger.Info("listing users via sdk")

	resp, err := l.client.Users().Get(ctx, &users.UsersRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UsersRequestBuilderGetQueryParameters{
			Select: []string{"id", "displayName", "mail"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("graphsdk: listing users: %w", err)
	}

	if resp == nil {
		return nil, errNilResponse
	}

	listing := fromCollection(resp.GetValue(), deref(resp.GetOdataNextLink()))

	if listing.NextLink != "" {
		l.logger.Warn("user listing truncated to first page", slog.Int("count", len(listing.Users)))
	}

	l.logger.Debug("listed users via sdk", slog.Int("count", len(listing.Users)))

	return listing, nil
}

// fromCollection maps SDK models to the export shape. Nil entries are
// skipped; missing fields become empty strings.
func fromCollection(values []models.Userable, nextLink string) *graph.UserListing {
	out := make([]graph.User, 0, len(values))

	for _, u := range values {
		if u == nil {
			continue
		}

		out = append(out, graph.User{
			ID:    deref(u.GetId()),
			Name:  deref(u.GetDisplayName()),
			Email: deref(u.GetMail()),
		})
	}

	return &graph.UserListing{Users: out, NextLink: nextLink}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
