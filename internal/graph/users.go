package graph

import (
	"context"
	"log/slog"
)

// usersPath trims the payload to the fields the export uses.
const usersPath = "/users?$select=id,displayName,mail"

// userResponse is a Graph user object; mail is null for accounts without
// a mailbox.
type userResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Mail        string `json:"mail"`
}

// ListUsers returns the first page of directory users, mapped to name and
// email. Needs the User.Read.All application permission.
func (c *Client) ListUsers(ctx context.Context) (*UserListing, error) {
	c.logger.Info("listing users")

	p, err := getPage[userResponse](ctx, c, usersPath, "users")
	if err != nil {
		return nil, err
	}

	users := make([]User, len(p.Value))
	for i, u := range p.Value {
		users[i] = User{ID: u.ID, Name: u.DisplayName, Email: u.Mail}
	}

	users = dedupeByID(users, userID, "user", c.logger)

	c.logger.Info("listed users", slog.Int("count", len(users)))

	return &UserListing{Users: users, NextLink: p.NextLink}, nil
}
