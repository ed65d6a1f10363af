package server

import (
	"net/http"

	"github.com/jrsteele09/smartsport/guard"
	"github.com/jrsteele09/smartsport/tournaments"
	"github.com/jrsteele09/smartsport/users"
)

// ProfilePageData is the profile view model.
type ProfilePageData struct {
	User        *users.User `json:"user"`
	DisplayName string      `json:"display_name"`
}

// RegistrationPageData is the tournament registration view model,
// prefilled from the tournament and the current user.
type RegistrationPageData struct {
	Tournament *tournaments.Tournament        `json:"tournament"`
	Form       tournaments.PlayerRegistration `json:"form"`
}

// ProfileHandler loads the current user's record (GET /profile)
func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := guard.SnapshotFrom(r.Context())

		user, err := s.api.Users.Get(r.Context(), snap.User.ID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfilePageData{User: user, DisplayName: user.DisplayName()})
	}
}

// TournamentRegistrationGetHandler shows the registration form
// (GET /tournois/{id}/inscription)
func (s *Server) TournamentRegistrationGetHandler() http.HandlerFunc {
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

		snap, _ := guard.SnapshotFrom(r.Context())
		writeJSON(w, http.StatusOK, RegistrationPageData{
			Tournament: t,
			Form: tournaments.PlayerRegistration{
				TournamentName: t.Name,
				Nickname:       snap.User.Username,
				Status:         tournaments.RegistrationPending,
			},
		})
	}
}

// TournamentRegistrationPostHandler submits a player registration
// (POST /tournois/{id}/inscription)
func (s *Server) TournamentRegistrationPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		form, err := readInput(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		reg := tournaments.PlayerRegistration{
			TournamentName: form.Get("nom_tournoi"),
			Game:           form.Get("jeu"),
			Nickname:       form.Get("pseudo"),
			Level:          form.Get("niveau"),
			Experience:     form.Get("experience"),
			Comment:        form.Get("commentaire"),
			Team:           form.Get("equipe"),
		}
		if err := reg.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
			return
		}

		result, err := s.api.Tournaments.RegisterPlayer(r.Context(), id, reg)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}
