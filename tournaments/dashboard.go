package tournaments

import (
	"time"

	"github.com/jrsteele09/smartsport/users"
)

// PlayerProfile is a player account with its competitive level.
type PlayerProfile struct {
	ID      int         `json:"id"`
	User    *users.User `json:"utilisateur,omitempty"`
	Level   string      `json:"niveau,omitempty"`
	Ranking *int        `json:"classement,omitempty"`
}

// OrganizerProfile is an organizer account with its organization details.
type OrganizerProfile struct {
	ID               int         `json:"id"`
	User             *users.User `json:"utilisateur,omitempty"`
	OrganizationName string      `json:"nom_organisation,omitempty"`
	Description      string      `json:"description,omitempty"`
}

// Payment is a registration payment made by a player.
type Payment struct {
	ID       int       `json:"id"`
	PlayerID int       `json:"joueur"`
	Amount   Amount    `json:"montant"`
	PaidAt   time.Time `json:"date_paiement,omitzero"`
	Method   string    `json:"methode,omitempty"`
	Status   string    `json:"statut,omitempty"`
}

// AdminStats is the aggregate served by dashboard/admin/.
type AdminStats struct {
	TotalPlayers      int                `json:"total_joueurs"`
	TotalOrganizers   int                `json:"total_organisateurs"`
	TotalTournaments  int                `json:"total_tournois"`
	TotalTeams        int                `json:"total_equipes"`
	ActiveTournaments []Tournament       `json:"tournois_actifs"`
	LatestPlayers     []PlayerProfile    `json:"derniers_joueurs"`
	LatestOrganizers  []OrganizerProfile `json:"derniers_organisateurs"`
	LatestPayments    []Payment          `json:"derniers_paiements"`
}
