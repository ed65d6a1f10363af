package server

// Route path constants
// All page routes are defined here to ensure consistency and prevent typos
const (
	// Public pages
	RouteHome             = "/"
	RouteTournaments      = "/tournaments"
	RouteTournamentDetail = "/tournament/{id}"
	RouteHealth           = "/healthz"

	// Auth pages
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteLogout   = "/logout"

	// Authenticated pages
	RouteProfile                = "/profile"
	RouteTournamentRegistration = "/tournois/{id}/inscription"

	// Administrator pages
	RouteAdminDashboard        = "/admin/dashboard"
	RouteAdminToggleUser       = "/admin/users/{id}/toggle-active"
	RouteAdminDeleteUser       = "/admin/users/{id}/delete"
	RouteAdminDeleteTournament = "/admin/tournois/{id}/delete"

	// Organizer pages
	RouteOrganizerDashboard      = "/organisateur/dashboard"
	RouteOrganizerNewTournament  = "/organisateur/tournois/nouveau"
	RouteOrganizerEditTournament = "/organisateur/tournois/modifier/{id}"
)
