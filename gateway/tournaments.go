package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/smartsport/tournaments"
)

const tournamentsPath = "tournois/"

type TournamentService struct {
	c *Client
}

// List returns the public tournament listing, optionally filtered.
func (s *TournamentService) List(ctx context.Context, q tournaments.Query) ([]tournaments.Tournament, error) {
	return list[tournaments.Tournament](ctx, s.c, tournamentsPath, q.Values())
}

func (s *TournamentService) Get(ctx context.Context, id int) (*tournaments.Tournament, error) {
	return call[tournaments.Tournament](ctx, s.c, http.MethodGet, itemPath(tournamentsPath, id), nil)
}

func (s *TournamentService) Create(ctx context.Context, t tournaments.Tournament) (*tournaments.Tournament, error) {
	return call[tournaments.Tournament](ctx, s.c, http.MethodPost, tournamentsPath, t)
}

func (s *TournamentService) Update(ctx context.Context, id int, t tournaments.Tournament) (*tournaments.Tournament, error) {
	return call[tournaments.Tournament](ctx, s.c, http.MethodPut, itemPath(tournamentsPath, id), t)
}

func (s *TournamentService) Delete(ctx context.Context, id int) error {
	return remove(ctx, s.c, itemPath(tournamentsPath, id))
}

// Mine lists the tournaments owned by the authenticated organizer.
func (s *TournamentService) Mine(ctx context.Context) ([]tournaments.Tournament, error) {
	return list[tournaments.Tournament](ctx, s.c, tournamentsPath+"mes_tournois/", nil)
}

// RegistrationResult is the acknowledgement of a tournament registration.
type RegistrationResult struct {
	Message string `json:"message"`
}

func (s *TournamentService) RegisterPlayer(ctx context.Context, id int, reg tournaments.PlayerRegistration) (*RegistrationResult, error) {
	if reg.Status == "" {
		reg.Status = tournaments.RegistrationPending
	}
	return call[RegistrationResult](ctx, s.c, http.MethodPost, itemPath(tournamentsPath, id, "inscrire_joueur"), reg)
}

func (s *TournamentService) RegisterTeam(ctx context.Context, id, teamID int) (*RegistrationResult, error) {
	return call[RegistrationResult](ctx, s.c, http.MethodPost, itemPath(tournamentsPath, id, "inscrire_equipe"), tournaments.TeamRegistration{TeamID: teamID})
}
