package tournaments

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

// Team is a roster registered by an organizer.
type Team struct {
	ID          int       `json:"id,omitempty"`
	Name        string    `json:"nom"`
	CreatedAt   time.Time `json:"date_creation,omitzero"`
	OrganizerID int       `json:"organisateur,omitempty"`
}

// MatchStatus adds a postponed state to the tournament statuses.
type MatchStatus string

const (
	MatchPlanned    MatchStatus = "planifie"
	MatchInProgress MatchStatus = "en_cours"
	MatchFinished   MatchStatus = "termine"
	MatchCancelled  MatchStatus = "annule"
	MatchPostponed  MatchStatus = "reporte"
)

var ErrSameTeams = errors.New("a team cannot play against itself")

// Match is a fixture between two teams inside a tournament.
type Match struct {
	ID              int         `json:"id,omitempty"`
	TournamentID    int         `json:"tournoi"`
	Name            string      `json:"nom,omitempty"`
	ScheduledAt     time.Time   `json:"date_heure"`
	DurationMinutes *int        `json:"duree,omitempty"`
	Score1          *int        `json:"score1,omitempty"`
	Score2          *int        `json:"score2,omitempty"`
	Status          MatchStatus `json:"statut,omitempty"`
	Team1ID         int         `json:"equipe1"`
	Team2ID         int         `json:"equipe2"`
	RefereeID       *int        `json:"arbitre,omitempty"`
	Venue           string      `json:"terrain,omitempty"`
}

func (m Match) Validate() error {
	if m.Team1ID != 0 && m.Team1ID == m.Team2ID {
		return ErrSameTeams
	}
	return nil
}

// MatchQuery filters the matches listing.
type MatchQuery struct {
	TournamentID int
	Status       MatchStatus
}

func (q MatchQuery) Values() url.Values {
	v := url.Values{}
	if q.TournamentID != 0 {
		v.Set("tournoi", strconv.Itoa(q.TournamentID))
	}
	if q.Status != "" {
		v.Set("statut", string(q.Status))
	}
	return v
}

// Score is the body of rencontres/{id}/valider_score/.
type Score struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}
