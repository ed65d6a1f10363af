package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/smartsport/gateway"
	"github.com/jrsteele09/smartsport/guard"
	"github.com/jrsteele09/smartsport/internal/config"
	"github.com/jrsteele09/smartsport/session"
	"github.com/jrsteele09/smartsport/users"
	"github.com/rs/zerolog/log"
)

// SessionStore is what pages need from the session Store.
type SessionStore interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) (*users.User, error)
	Register(ctx context.Context, reg users.Registration) (*gateway.RegisterResponse, error)
	Logout() error
}

type Server struct {
	env            string // Environment (e.g., "DEV", "PROD")
	appName        string
	router         chi.Router
	routes         []string
	api            *gateway.Client
	store          SessionStore
	guard          *guard.Guard
	notices        *Notices
	allowedOrigins config.AllowedOrigins
	allowedMethods []string
	allowedHeaders []string
}

// New builds the page host. notices receives forced-logout navigations
// from the Store and may be nil.
func New(cfg config.Config, api *gateway.Client, store SessionStore, notices *Notices) *Server {
	if notices == nil {
		notices = NewNotices()
	}
	s := &Server{
		env:            cfg.GetEnv(),
		appName:        cfg.GetAppName(),
		router:         chi.NewRouter(),
		api:            api,
		store:          store,
		notices:        notices,
		allowedOrigins: cfg.GetAllowedOrigins(),
		allowedMethods: cfg.GetAllowedMethods(),
		allowedHeaders: cfg.GetAllowedHeaders(),
		guard: guard.New(
			guard.WithLoginRoute(cfg.GetLoginRoute()),
			guard.WithFallbackRoute(cfg.GetGuardFallbackRoute()),
		),
	}

	s.router.Use(s.PageMiddleware()...)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, gateway.KindNotFound.String(), "page not found", nil)
	})
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoute mounts handler for method and pattern behind the extra
// middleware mws.
func (s *Server) RegisterRoute(method, pattern string, handler http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
	s.routes = append(s.routes, method+" "+pattern)
	s.router.With(mws...).Method(method, pattern, handler)
}

// Routes lists the registered "METHOD /pattern" pairs.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colourMethod(method), path)
}

// requireRule guards a page with rule.
func (s *Server) requireRule(rule guard.Rule) func(http.Handler) http.Handler {
	return s.guard.Middleware(s.store, rule)
}
