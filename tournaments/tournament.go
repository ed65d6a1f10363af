package tournaments

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle tag of a tournament. Transitions are owned by the
// backend; the client only reads and submits the value.
type Status string

const (
	StatusPlanned    Status = "planifie"
	StatusInProgress Status = "en_cours"
	StatusFinished   Status = "termine"
	StatusCancelled  Status = "annule"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// Type is the competition format.
type Type string

const (
	TypeElimination Type = "elimination"
	TypeRoundRobin  Type = "round-robin"
	TypeMixed       Type = "mixte"
)

func (t Type) Valid() bool {
	switch t {
	case TypeElimination, TypeRoundRobin, TypeMixed:
		return true
	}
	return false
}

var (
	ErrNameRequired     = errors.New("tournament name is required")
	ErrInvalidDateRange = errors.New("end date must be after start date")
	ErrNegativeFee      = errors.New("registration fee must not be negative")
	ErrInvalidFee       = errors.New("registration fee must be a finite number")
	ErrInvalidStatus    = errors.New("invalid tournament status")
	ErrInvalidType      = errors.New("invalid tournament type")
)

// Tournament mirrors the backend's tournament record.
type Tournament struct {
	ID              int       `json:"id,omitempty"`
	Name            string    `json:"nom"`
	Description     string    `json:"description"`
	Type            Type      `json:"type"`
	Rules           string    `json:"regles,omitempty"`
	StartDate       time.Time `json:"date_debut"`
	EndDate         time.Time `json:"date_fin"`
	RegistrationFee Amount    `json:"prix_inscription"`
	Status          Status    `json:"statut,omitempty"`
	OrganizerID     int       `json:"organisateur,omitempty"`
}

// Validate mirrors the checks the backend applies on create and update, so
// an organizer gets the error before a round trip.
func (t Tournament) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if !t.EndDate.After(t.StartDate) {
		errs = append(errs, ErrInvalidDateRange)
	}
	if fee := float64(t.RegistrationFee); math.IsNaN(fee) || math.IsInf(fee, 0) {
		errs = append(errs, ErrInvalidFee)
	} else if fee < 0 {
		errs = append(errs, ErrNegativeFee)
	}
	if t.Status != "" && !t.Status.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}
	if !t.Type.Valid() {
		errs = append(errs, ErrInvalidType)
	}
	return errors.Join(errs...)
}

// OwnedBy reports whether the tournament belongs to the given organizer.
func (t Tournament) OwnedBy(organizerID int) bool {
	return organizerID != 0 && t.OrganizerID == organizerID
}

// Query filters the tournaments listing.
type Query struct {
	Type        Type
	Status      Status
	OrganizerID int
	Search      string
}

func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.Status != "" {
		v.Set("statut", string(q.Status))
	}
	if q.OrganizerID != 0 {
		v.Set("organisateur", strconv.Itoa(q.OrganizerID))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// PlayerRegistration is the body of tournois/{id}/inscrire_joueur/.
type PlayerRegistration struct {
	TournamentName string `json:"nom_tournoi"`
	Game           string `json:"jeu"`
	Nickname       string `json:"pseudo"`
	Level          string `json:"niveau,omitempty"`
	Experience     string `json:"experience,omitempty"`
	Comment        string `json:"commentaire,omitempty"`
	Team           string `json:"equipe,omitempty"`
	Status         string `json:"statut"`
}

// RegistrationPending is the status a freshly submitted registration carries.
const RegistrationPending = "en_attente"

var (
	ErrGameRequired           = errors.New("a game must be selected")
	ErrTournamentNameRequired = errors.New("tournament name is required")
)

// Validate applies the registration form's required fields.
func (p PlayerRegistration) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Game) == "" {
		errs = append(errs, ErrGameRequired)
	}
	if strings.TrimSpace(p.TournamentName) == "" {
		errs = append(errs, ErrTournamentNameRequired)
	}
	return errors.Join(errs...)
}

// TeamRegistration is the body of tournois/{id}/inscrire_equipe/.
type TeamRegistration struct {
	TeamID int `json:"equipe_id"`
}
