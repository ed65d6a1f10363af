package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/smartsport/tournaments"
)

const matchesPath = "rencontres/"

type MatchService struct {
	c *Client
}

func (s *MatchService) List(ctx context.Context, q tournaments.MatchQuery) ([]tournaments.Match, error) {
	return list[tournaments.Match](ctx, s.c, matchesPath, q.Values())
}

func (s *MatchService) Get(ctx context.Context, id int) (*tournaments.Match, error) {
	return call[tournaments.Match](ctx, s.c, http.MethodGet, itemPath(matchesPath, id), nil)
}

func (s *MatchService) Create(ctx context.Context, m tournaments.Match) (*tournaments.Match, error) {
	return call[tournaments.Match](ctx, s.c, http.MethodPost, matchesPath, m)
}

func (s *MatchService) Update(ctx context.Context, id int, m tournaments.Match) (*tournaments.Match, error) {
	return call[tournaments.Match](ctx, s.c, http.MethodPut, itemPath(matchesPath, id), m)
}

func (s *MatchService) Delete(ctx context.Context, id int) error {
	return remove(ctx, s.c, itemPath(matchesPath, id))
}

// ValidateScore records the final score. Referees and organizers only.
func (s *MatchService) ValidateScore(ctx context.Context, id int, score tournaments.Score) (*tournaments.Match, error) {
	return call[tournaments.Match](ctx, s.c, http.MethodPost, itemPath(matchesPath, id, "valider_score"), score)
}
