package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/smartsport/users"
)

const usersPath = "utilisateurs/"

type UserService struct {
	c *Client
}

func (s *UserService) List(ctx context.Context, q users.Query) ([]users.User, error) {
	return list[users.User](ctx, s.c, usersPath, q.Values())
}

func (s *UserService) Get(ctx context.Context, id int) (*users.User, error) {
	return call[users.User](ctx, s.c, http.MethodGet, itemPath(usersPath, id), nil)
}

// Update applies a partial update; nil patch fields are not sent.
func (s *UserService) Update(ctx context.Context, id int, patch users.Patch) (*users.User, error) {
	return call[users.User](ctx, s.c, http.MethodPatch, itemPath(usersPath, id), patch)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return remove(ctx, s.c, itemPath(usersPath, id))
}

// ToggleActive flips the account's active flag and returns the new state.
func (s *UserService) ToggleActive(ctx context.Context, id int) (*users.User, error) {
	return call[users.User](ctx, s.c, http.MethodPost, itemPath(usersPath, id, "toggle_active"), nil)
}
