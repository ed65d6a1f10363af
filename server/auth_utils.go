package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/smartsport/users"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// homeForRole is where a user lands after logging in. Players and
// referees go back to the page they came from.
func homeForRole(role users.RoleType, next string) string {
	switch role {
	case users.RoleAdmin:
		return RouteAdminDashboard
	case users.RoleOrganizer:
		return RouteOrganizerDashboard
	default:
		return safeNext(next)
	}
}

// safeNext only accepts local paths so ?next= cannot send the user to
// another site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return RouteHome
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return RouteHome
	}
	return next
}
