package server

import (
	"net/http"

	"github.com/jrsteele09/smartsport/guard"
	"github.com/jrsteele09/smartsport/users"
)

func (s *Server) initRoutes() {
	// PUBLIC
	s.RegisterRoute(http.MethodGet, RouteHome, s.IndexHandler())
	s.RegisterRoute(http.MethodGet, RouteTournaments, s.TournamentsHandler())
	s.RegisterRoute(http.MethodGet, RouteTournamentDetail, s.TournamentDetailHandler())
	s.RegisterRoute(http.MethodGet, RouteHealth, s.HealthHandler())

	// LOGIN
	s.RegisterRoute(http.MethodGet, RouteLogin, s.LoginPageUIHandler())
	s.RegisterRoute(http.MethodPost, RouteLogin, s.LoginSubmissionHandler())
	s.RegisterRoute(http.MethodGet, RouteLogout, s.LogoutHandler())
	s.RegisterRoute(http.MethodPost, RouteLogout, s.LogoutHandler())
	s.RegisterRoute(http.MethodGet, RouteRegister, s.SignupGetHandler())
	s.RegisterRoute(http.MethodPost, RouteRegister, s.SignupPostHandler())

	// Any logged in user
	authenticated := s.requireRule(guard.Authenticated())
	s.RegisterRoute(http.MethodGet, RouteProfile, s.ProfileHandler(), authenticated)
	s.RegisterRoute(http.MethodGet, RouteTournamentRegistration, s.TournamentRegistrationGetHandler(), authenticated)
	s.RegisterRoute(http.MethodPost, RouteTournamentRegistration, s.TournamentRegistrationPostHandler(), authenticated)

	// Admin routes
	admin := s.requireRule(guard.RequireRoles(users.RoleAdmin))
	s.RegisterRoute(http.MethodGet, RouteAdminDashboard, s.AdminDashboardHandler(), admin)
	s.RegisterRoute(http.MethodPost, RouteAdminToggleUser, s.AdminToggleUserHandler(), admin)
	s.RegisterRoute(http.MethodPost, RouteAdminDeleteUser, s.AdminDeleteUserHandler(), admin)
	s.RegisterRoute(http.MethodPost, RouteAdminDeleteTournament, s.AdminDeleteTournamentHandler(), admin)

	// Organizer routes
	organizer := s.requireRule(guard.RequireRoles(users.RoleOrganizer))
	s.RegisterRoute(http.MethodGet, RouteOrganizerDashboard, s.OrganizerDashboardHandler(), organizer)
	s.RegisterRoute(http.MethodGet, RouteOrganizerNewTournament, s.NewTournamentGetHandler(), organizer)
	s.RegisterRoute(http.MethodPost, RouteOrganizerNewTournament, s.NewTournamentPostHandler(), organizer)
	s.RegisterRoute(http.MethodGet, RouteOrganizerEditTournament, s.EditTournamentGetHandler(), organizer)
	s.RegisterRoute(http.MethodPost, RouteOrganizerEditTournament, s.EditTournamentPostHandler(), organizer)
}
