package graphsdk

import (
	"context"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/sharepoint-go/internal/graph"
)

func newUser(id, name string, mail *string) models.Userable {
	u := models.NewUser()
	u.SetId(&id)
	u.SetDisplayName(&name)
	u.SetMail(mail)

	return u
}

func TestFromCollection(t *testing.T) {
	mail := "ada@contoso.com"

	listing := fromCollection([]models.Userable{
		newUser("u1", "Ada Lovelace", &mail),
		nil,
		newUser("u2", "Service Account", nil),
	}, "")

	assert.Equal(t, []graph.User{
		{ID: "u1", Name: "Ada Lovelace", Email: "ada@contoso.com"},
		{ID: "u2", Name: "Service Account", Email: ""},
	}, listing.Users)
	assert.Empty(t, listing.NextLink)
}

func TestFromCollection_Empty(t *testing.T) {
	listing := fromCollection(nil, "https://graph.microsoft.com/v1.0/users?$skiptoken=x")

	assert.NotNil(t, listing.Users)
	assert.Empty(t, listing.Users)
	assert.Equal(t, "https://graph.microsoft.com/v1.0/users?$skiptoken=x", listing.NextLink)
}

type fakeCredential struct{}

func (fakeCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "t", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestNewUserLister(t *testing.T) {
	l, err := NewUserLister(fakeCredential{}, nil, "", nil)
	require.NoError(t, err)
	assert.NotNil(t, l.client)
}
