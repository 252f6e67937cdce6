package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// User is the backend's view of an account.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

// GetUser fetches one account by id. The role drives upload file kinds.
func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	path := "/users/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &u); err != nil {
		return User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}
