package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"

	"github.com/jrsteele09/smartsport/session"
	"github.com/jrsteele09/smartsport/users"
)

// Outcome is what a guarded page should do for the current session.
type Outcome int

const (
	OutcomeLoading          Outcome = iota // Session not restored yet; render nothing protected
	OutcomeRedirectLogin                   // Not authenticated
	OutcomeRedirectFallback                // Authenticated but the rule rejects the user
	OutcomeRender                          // Render the protected content
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectFallback:
		return "redirect_fallback"
	case OutcomeRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a Rule. Redirects replace the
// current history entry so the back button does not return to the guarded
// page.
type Decision struct {
	Outcome Outcome
	Target  string
	Replace bool
}

// Rule is the per-page access configuration. A user passes when they hold
// one of Roles (if any are listed) and Allow (if set) returns true.
type Rule struct {
	Roles    []users.RoleType
	Allow    func(*users.User) bool
	Fallback string
}

// Authenticated admits any logged-in user.
func Authenticated() Rule {
	return Rule{}
}

// RequireRoles admits users holding any of roles.
func RequireRoles(roles ...users.RoleType) Rule {
	return Rule{Roles: roles}
}

func (r Rule) admits(u *users.User) bool {
	if len(r.Roles) > 0 && !slices.ContainsFunc(r.Roles, func(role users.RoleType) bool { return u.HasRole(role) }) {
		return false
	}
	if r.Allow != nil && !r.Allow(u.Clone()) {
		return false
	}
	return true
}

// SnapshotReader is the read side of the session Store.
type SnapshotReader interface {
	Snapshot() session.Snapshot
}

type Guard struct {
	loginRoute    string
	fallbackRoute string
}

type Option func(*Guard)

func WithLoginRoute(route string) Option {
	return func(g *Guard) {
		if route != "" {
			g.loginRoute = route
		}
	}
}

// WithFallbackRoute sets where users failing a rule without its own
// Fallback are sent.
func WithFallbackRoute(route string) Option {
	return func(g *Guard) {
		g.fallbackRoute = route
	}
}

func New(options ...Option) *Guard {
	g := &Guard{loginRoute: session.DefaultLoginRoute}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *Guard) LoginRoute() string {
	return g.loginRoute
}

// Evaluate derives the decision for snap. It has no side effects.
func (g *Guard) Evaluate(snap session.Snapshot, rule Rule) Decision {
	if snap.IsLoading || snap.State == session.StateUninitialized {
		return Decision{Outcome: OutcomeLoading}
	}
	if !snap.IsAuthenticated() {
		return Decision{Outcome: OutcomeRedirectLogin, Target: g.loginRoute, Replace: true}
	}
	if !rule.admits(snap.User) {
		return Decision{Outcome: OutcomeRedirectFallback, Target: g.fallbackFor(rule), Replace: true}
	}
	return Decision{Outcome: OutcomeRender}
}

func (g *Guard) fallbackFor(rule Rule) string {
	switch {
	case rule.Fallback != "":
		return rule.Fallback
	case g.fallbackRoute != "":
		return g.fallbackRoute
	default:
		return g.loginRoute
	}
}

type contextKey struct{}

// SnapshotFrom returns the session snapshot a guarded handler was admitted
// with.
func SnapshotFrom(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(contextKey{}).(session.Snapshot)
	return snap, ok
}

// Middleware renders decisions over HTTP. Redirects use 303 so the browser
// replaces the guarded request with a GET of the target; the login
// redirect carries the requested path in ?next=.
func (g *Guard) Middleware(reader SnapshotReader, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := reader.Snapshot()
			decision := g.Evaluate(snap, rule)

			switch decision.Outcome {
			case OutcomeLoading:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Refresh", "1")
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusOK)
				_ = json.NewEncoder(w).Encode(map[string]string{"state": "loading"})

			case OutcomeRedirectLogin:
				target := decision.Target + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)

			case OutcomeRedirectFallback:
				if decision.Target == r.URL.Path {
					// Redirecting to ourselves would loop.
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)

			default:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, snap)))
			}
		})
	}
}
