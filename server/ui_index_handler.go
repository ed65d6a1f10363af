package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/smartsport/tournaments"
	"github.com/jrsteele09/smartsport/users"
)

// ViewerData describes who is looking at a public page.
type ViewerData struct {
	State         string      `json:"state"`
	Authenticated bool        `json:"authenticated"`
	User          *users.User `json:"user,omitempty"`
}

// IndexPageData is the home page view model.
type IndexPageData struct {
	AppName     string                   `json:"app_name"`
	Viewer      ViewerData               `json:"viewer"`
	Tournaments []tournaments.Tournament `json:"tournaments"`
}

// TournamentsPageData is the tournaments listing view model.
type TournamentsPageData struct {
	Viewer      ViewerData               `json:"viewer"`
	Filters     map[string]string        `json:"filters"`
	Tournaments []tournaments.Tournament `json:"tournaments"`
}

// TournamentPageData is the tournament detail view model.
type TournamentPageData struct {
	Viewer      ViewerData              `json:"viewer"`
	Tournament  *tournaments.Tournament `json:"tournament"`
	CanRegister bool                    `json:"can_register"`
}

func (s *Server) viewer() ViewerData {
	snap := s.store.Snapshot()
	return ViewerData{State: snap.State.String(), Authenticated: snap.IsAuthenticated(), User: snap.User}
}

// IndexHandler shows the upcoming tournaments (GET /)
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.api.Tournaments.List(r.Context(), tournaments.Query{Status: tournaments.StatusPlanned})
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, IndexPageData{AppName: s.appName, Viewer: s.viewer(), Tournaments: list})
	}
}

// TournamentsHandler lists tournaments with the type, statut and search
// filters (GET /tournaments)
func (s *Server) TournamentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		q := tournaments.Query{
			Type:   tournaments.Type(params.Get("type")),
			Status: tournaments.Status(params.Get("statut")),
			Search: params.Get("search"),
		}
		if q.Type != "" && !q.Type.Valid() {
			writeError(w, http.StatusBadRequest, "bad_request", tournaments.ErrInvalidType.Error(), nil)
			return
		}
		if q.Status != "" && !q.Status.Valid() {
			writeError(w, http.StatusBadRequest, "bad_request", tournaments.ErrInvalidStatus.Error(), nil)
			return
		}

		list, err := s.api.Tournaments.List(r.Context(), q)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		filters := map[string]string{}
		for k, v := range q.Values() {
			filters[k] = v[0]
		}
		writeJSON(w, http.StatusOK, TournamentsPageData{Viewer: s.viewer(), Filters: filters, Tournaments: list})
	}
}

// TournamentDetailHandler shows one tournament (GET /tournament/{id})
func (s *Server) TournamentDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		t, err := s.api.Tournaments.Get(r.Context(), id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		viewer := s.viewer()
		writeJSON(w, http.StatusOK, TournamentPageData{
			Viewer:      viewer,
			Tournament:  t,
			CanRegister: viewer.User.HasRole(users.RolePlayer) && t.Status == tournaments.StatusPlanned,
		})
	}
}

// HealthHandler reports the session state without calling the backend.
func (s *Server) HealthHandler() http.HandlerFunc {
	started := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"session": s.store.Snapshot().State.String(),
			"uptime":  time.Since(started).Round(time.Second).String(),
		})
	}
}
