package server

import (
	"net/http"

	"github.com/jrsteele09/smartsport/guard"
	"github.com/jrsteele09/smartsport/internal/utils"
	"github.com/jrsteele09/smartsport/tournaments"
	"github.com/jrsteele09/smartsport/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AdminUserRow is one line of the admin user table.
type AdminUserRow struct {
	users.User
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
}

// AdminDashboardData is the admin dashboard view model.
type AdminDashboardData struct {
	UserName string                  `json:"user_name"`
	Stats    *tournaments.AdminStats `json:"stats"`
	Users    []AdminUserRow          `json:"users"`
}

// AdminDashboardHandler renders the admin dashboard. Statistics and the
// user list are loaded in parallel.
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := guard.SnapshotFrom(r.Context())

		var (
			stats *tournaments.AdminStats
			list  []users.User
		)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() (err error) {
			stats, err = s.api.Dashboard.AdminStats(ctx)
			return err
		})
		g.Go(func() (err error) {
			list, err = s.api.Users.List(ctx, users.Query{})
			return err
		})
		if err := g.Wait(); err != nil {
			s.respondError(w, r, err)
			return
		}

		rows := make([]AdminUserRow, 0, len(list))
		for _, u := range list {
			rows = append(rows, AdminUserRow{
				User:        u,
				DisplayName: u.DisplayName(),
				Active:      utils.ValueOr(u.IsActive, true),
			})
		}
		writeJSON(w, http.StatusOK, AdminDashboardData{
			UserName: snap.User.DisplayName(),
			Stats:    stats,
			Users:    rows,
		})
	}
}

// AdminToggleUserHandler activates or deactivates an account.
func (s *Server) AdminToggleUserHandler() http.HandlerFunc {
	return s.adminUserAction("toggle", func(r *http.Request, id int) error {
		_, err := s.api.Dashboard.ToggleUser(r.Context(), id)
		return err
	})
}

// AdminDeleteUserHandler deletes an account.
func (s *Server) AdminDeleteUserHandler() http.HandlerFunc {
	return s.adminUserAction("delete", func(r *http.Request, id int) error {
		return s.api.Dashboard.DeleteUser(r.Context(), id)
	})
}

// adminUserAction runs action on the {id} user and returns to the
// dashboard. An administrator cannot act on their own account.
func (s *Server) adminUserAction(name string, action func(r *http.Request, id int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		snap, _ := guard.SnapshotFrom(r.Context())
		if snap.User.ID == id {
			writeError(w, http.StatusBadRequest, "bad_request", "you cannot "+name+" your own account", nil)
			return
		}

		if err := action(r, id); err != nil {
			s.respondError(w, r, err)
			return
		}
		log.Info().Int("admin_id", snap.User.ID).Int("user_id", id).Str("action", name).Msg("Admin user action")
		redirectSuccess(w, r, RouteAdminDashboard)
	}
}

// AdminDeleteTournamentHandler deletes any tournament.
func (s *Server) AdminDeleteTournamentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		if err := s.api.Dashboard.DeleteTournament(r.Context(), id); err != nil {
			s.respondError(w, r, err)
			return
		}
		redirectSuccess(w, r, RouteAdminDashboard)
	}
}
