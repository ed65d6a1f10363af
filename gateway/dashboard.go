package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/smartsport/tournaments"
	"github.com/jrsteele09/smartsport/users"
)

const adminDashboardPath = "dashboard/admin/"

// DashboardService backs the administrator dashboard.
type DashboardService struct {
	c *Client
}

func (s *DashboardService) AdminStats(ctx context.Context) (*tournaments.AdminStats, error) {
	return call[tournaments.AdminStats](ctx, s.c, http.MethodGet, adminDashboardPath, nil)
}

func (s *DashboardService) ToggleUser(ctx context.Context, userID int) (*users.User, error) {
	return s.c.Users.ToggleActive(ctx, userID)
}

func (s *DashboardService) DeleteUser(ctx context.Context, userID int) error {
	return s.c.Users.Delete(ctx, userID)
}

func (s *DashboardService) DeleteTournament(ctx context.Context, tournamentID int) error {
	return s.c.Tournaments.Delete(ctx, tournamentID)
}
