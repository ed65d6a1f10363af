package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/smartsport/tournaments"
)

const teamsPath = "equipes/"

type TeamService struct {
	c *Client
}

func (s *TeamService) List(ctx context.Context) ([]tournaments.Team, error) {
	return list[tournaments.Team](ctx, s.c, teamsPath, nil)
}

func (s *TeamService) Get(ctx context.Context, id int) (*tournaments.Team, error) {
	return call[tournaments.Team](ctx, s.c, http.MethodGet, itemPath(teamsPath, id), nil)
}

func (s *TeamService) Create(ctx context.Context, t tournaments.Team) (*tournaments.Team, error) {
	return call[tournaments.Team](ctx, s.c, http.MethodPost, teamsPath, t)
}

func (s *TeamService) Update(ctx context.Context, id int, t tournaments.Team) (*tournaments.Team, error) {
	return call[tournaments.Team](ctx, s.c, http.MethodPut, itemPath(teamsPath, id), t)
}

func (s *TeamService) Delete(ctx context.Context, id int) error {
	return remove(ctx, s.c, itemPath(teamsPath, id))
}
