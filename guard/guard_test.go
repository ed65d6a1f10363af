package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/smartsport/guard"
	"github.com/jrsteele09/smartsport/session"
	"github.com/jrsteele09/smartsport/users"
	"github.com/stretchr/testify/require"
)

type staticReader session.Snapshot

func (s staticReader) Snapshot() session.Snapshot {
	return session.Snapshot(s)
}

func authenticated(role users.RoleType) session.Snapshot {
	return session.Snapshot{
		State: session.StateAuthenticated,
		User:  &users.User{ID: 7, Email: "u@x.io", Role: role},
		Token: "abc",
	}
}

var anonymous = session.Snapshot{State: session.StateAnonymous}

func TestEvaluate(t *testing.T) {
	g := guard.New(guard.WithFallbackRoute("/"))
	organizerOnly := guard.RequireRoles(users.RoleOrganizer)

	tests := []struct {
		name    string
		snap    session.Snapshot
		rule    guard.Rule
		outcome guard.Outcome
		target  string
	}{
		{"uninitialized", session.Snapshot{}, guard.Authenticated(), guard.OutcomeLoading, ""},
		{"restoring", session.Snapshot{State: session.StateRestoring, IsLoading: true}, organizerOnly, guard.OutcomeLoading, ""},
		{"anonymous", anonymous, guard.Authenticated(), guard.OutcomeRedirectLogin, "/login"},
		{"partial session", session.Snapshot{State: session.StateAuthenticated, Token: "abc"}, guard.Authenticated(), guard.OutcomeRedirectLogin, "/login"},
		{"player on organizer page", authenticated(users.RolePlayer), organizerOnly, guard.OutcomeRedirectFallback, "/"},
		{"organizer on organizer page", authenticated(users.RoleOrganizer), organizerOnly, guard.OutcomeRender, ""},
		{"any authenticated", authenticated(users.RoleReferee), guard.Authenticated(), guard.OutcomeRender, ""},
		{"rule fallback wins", authenticated(users.RolePlayer), guard.Rule{Roles: []users.RoleType{users.RoleAdmin}, Fallback: "/profile"}, guard.OutcomeRedirectFallback, "/profile"},
		{"predicate rejects", authenticated(users.RoleAdmin), guard.Rule{Allow: func(u *users.User) bool { return u.ID == 1 }}, guard.OutcomeRedirectFallback, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Evaluate(tt.snap, tt.rule)
			require.Equal(t, tt.outcome, d.Outcome, d.Outcome.String())
			require.Equal(t, tt.target, d.Target)
			require.Equal(t, tt.target != "", d.Replace)
		})
	}
}

func TestFallbackDefaultsToLogin(t *testing.T) {
	g := guard.New()
	d := g.Evaluate(authenticated(users.RolePlayer), guard.RequireRoles(users.RoleAdmin))
	require.Equal(t, guard.OutcomeRedirectFallback, d.Outcome)
	require.Equal(t, "/login", d.Target)
}

func TestPredicateReceivesCopy(t *testing.T) {
	snap := authenticated(users.RolePlayer)
	g := guard.New()
	g.Evaluate(snap, guard.Rule{Allow: func(u *users.User) bool {
		u.Role = users.RoleAdmin
		return true
	}})
	require.Equal(t, users.RolePlayer, snap.User.Role)
}

func serveGuarded(t *testing.T, snap session.Snapshot, rule guard.Rule, path string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	rendered := false
	h := guard.New(guard.WithFallbackRoute("/")).Middleware(staticReader(snap), rule)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := guard.SnapshotFrom(r.Context())
		require.True(t, ok)
		require.True(t, got.IsAuthenticated())
		rendered = true
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, rendered
}

func TestMiddlewareRedirectsAnonymousToLogin(t *testing.T) {
	rec, rendered := serveGuarded(t, anonymous, guard.Authenticated(), "/profile?tab=1")
	require.False(t, rendered)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?next=%2Fprofile%3Ftab%3D1", rec.Header().Get("Location"))
}

func TestMiddlewareNeverRendersForWrongRole(t *testing.T) {
	rec, rendered := serveGuarded(t, authenticated(users.RolePlayer), guard.RequireRoles(users.RoleOrganizer), "/organisateur/dashboard")
	require.False(t, rendered)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestMiddlewareLoading(t *testing.T) {
	rec, rendered := serveGuarded(t, session.Snapshot{State: session.StateRestoring, IsLoading: true}, guard.Authenticated(), "/profile")
	require.False(t, rendered)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Refresh"))
	require.JSONEq(t, `{"state":"loading"}`, rec.Body.String())
}

func TestMiddlewareRenders(t *testing.T) {
	rec, rendered := serveGuarded(t, authenticated(users.RoleAdmin), guard.RequireRoles(users.RoleAdmin), "/admin/dashboard")
	require.True(t, rendered)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareSelfFallbackIsForbidden(t *testing.T) {
	rec, rendered := serveGuarded(t, authenticated(users.RolePlayer), guard.RequireRoles(users.RoleAdmin), "/")
	require.False(t, rendered)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
