package server

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/smartsport/gateway"
	"github.com/jrsteele09/smartsport/guard"
	"github.com/jrsteele09/smartsport/tournaments"
	"github.com/jrsteele09/smartsport/users"
)

// formTimeLayouts are accepted for tournament dates, most precise first.
var formTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// OrganizerDashboardData is the organizer dashboard view model.
type OrganizerDashboardData struct {
	UserName    string                   `json:"user_name"`
	Tournaments []tournaments.Tournament `json:"tournaments"`
}

// TournamentFormData is the create/edit tournament view model.
type TournamentFormData struct {
	Tournament *tournaments.Tournament `json:"tournament,omitempty"`
	Types      []tournaments.Type      `json:"types"`
	Statuses   []tournaments.Status    `json:"statuses"`
}

func newTournamentForm(t *tournaments.Tournament) TournamentFormData {
	return TournamentFormData{
		Tournament: t,
		Types:      []tournaments.Type{tournaments.TypeElimination, tournaments.TypeRoundRobin, tournaments.TypeMixed},
		Statuses: []tournaments.Status{
			tournaments.StatusPlanned, tournaments.StatusInProgress,
			tournaments.StatusFinished, tournaments.StatusCancelled,
		},
	}
}

// OrganizerDashboardHandler lists the organizer's own tournaments.
func (s *Server) OrganizerDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := guard.SnapshotFrom(r.Context())

		mine, err := s.api.Tournaments.Mine(r.Context())
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, OrganizerDashboardData{UserName: snap.User.DisplayName(), Tournaments: mine})
	}
}

// NewTournamentGetHandler shows an empty tournament form.
func (s *Server) NewTournamentGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newTournamentForm(nil))
	}
}

// NewTournamentPostHandler creates a tournament owned by the organizer.
func (s *Server) NewTournamentPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := guard.SnapshotFrom(r.Context())

		t, ok := s.tournamentFromForm(w, r, tournaments.Tournament{Status: tournaments.StatusPlanned})
		if !ok {
			return
		}
		t.OrganizerID = snap.User.ID

		if _, err := s.api.Tournaments.Create(r.Context(), t); err != nil {
			s.respondError(w, r, err)
			return
		}
		redirectSuccess(w, r, RouteOrganizerDashboard)
	}
}

// EditTournamentGetHandler shows the form for one of the organizer's
// tournaments.
func (s *Server) EditTournamentGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := s.ownedTournament(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, newTournamentForm(t))
	}
}

// EditTournamentPostHandler saves changes to one of the organizer's
// tournaments.
func (s *Server) EditTournamentPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := s.ownedTournament(w, r)
		if !ok {
			return
		}
		t, ok := s.tournamentFromForm(w, r, *current)
		if !ok {
			return
		}
		if _, err := s.api.Tournaments.Update(r.Context(), current.ID, t); err != nil {
			s.respondError(w, r, err)
			return
		}
		redirectSuccess(w, r, RouteOrganizerDashboard)
	}
}

// ownedTournament loads the {id} tournament and checks that the current
// organizer owns it. Administrators may edit any tournament.
func (s *Server) ownedTournament(w http.ResponseWriter, r *http.Request) (*tournaments.Tournament, bool) {
	id, err := pathID(r)
	if err != nil {
		writeAPIError(w, err)
		return nil, false
	}
	t, err := s.api.Tournaments.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	snap, _ := guard.SnapshotFrom(r.Context())
	if !t.OwnedBy(snap.User.ID) && !snap.User.HasRole(users.RoleAdmin) {
		writeAPIError(w, gateway.ErrForbidden)
		return nil, false
	}
	return t, true
}

// tournamentFromForm overlays the submitted fields on base and validates
// the result. It writes the error response itself.
func (s *Server) tournamentFromForm(w http.ResponseWriter, r *http.Request, base tournaments.Tournament) (tournaments.Tournament, bool) {
	form, err := readInput(r)
	if err != nil {
		writeAPIError(w, err)
		return base, false
	}

	t, fields := applyTournamentForm(base, form)
	if len(fields) > 0 {
		writeAPIError(w, gateway.NewValidationError(fields))
		return base, false
	}
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return base, false
	}
	return t, true
}

func applyTournamentForm(t tournaments.Tournament, form url.Values) (tournaments.Tournament, users.FieldErrors) {
	fields := users.FieldErrors{}
	if form.Has("nom") {
		t.Name = strings.TrimSpace(form.Get("nom"))
	}
	if form.Has("description") {
		t.Description = form.Get("description")
	}
	if form.Has("regles") {
		t.Rules = form.Get("regles")
	}
	if form.Has("type") {
		t.Type = tournaments.Type(form.Get("type"))
	}
	if form.Has("statut") {
		t.Status = tournaments.Status(form.Get("statut"))
	}
	for key, dst := range map[string]*time.Time{"date_debut": &t.StartDate, "date_fin": &t.EndDate} {
		if !form.Has(key) {
			continue
		}
		parsed, err := parseFormTime(form.Get(key))
		if err != nil {
			fields.Add(key, "invalid date")
			continue
		}
		*dst = parsed
	}
	if form.Has("prix_inscription") {
		raw := strings.TrimSpace(form.Get("prix_inscription"))
		if raw == "" {
			t.RegistrationFee = 0
		} else if fee, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err != nil || math.IsNaN(fee) || math.IsInf(fee, 0) {
			fields.Add("prix_inscription", "invalid amount")
		} else {
			t.RegistrationFee = tournaments.Amount(fee)
		}
	}
	return t, fields
}

func parseFormTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range formTimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
