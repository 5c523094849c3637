package models

import "time"

// TournamentStatus represents tournament lifecycle statuses as stored in the DB.
type TournamentStatus string

const (
	TournamentActive   TournamentStatus = "active"
	TournamentEnded    TournamentStatus = "ended"
	TournamentArchived TournamentStatus = "archived"
)

// TournamentVisibility controls discovery: public tournaments show up in
// listing and search, private ones are join-by-code only.
type TournamentVisibility string

const (
	VisibilityPublic  TournamentVisibility = "public"
	VisibilityPrivate TournamentVisibility = "private"
)

// TournamentDurations are the only permitted tournament lengths, mirroring
// 9- and 18-hole golf rounds.
var TournamentDurations = []int{9, 18}

func ValidTournamentDuration(days int) bool {
	for _, d := range TournamentDurations {
		if days == d {
			return true
		}
	}
	return false
}

// Tournament is a date-windowed competition between participants. EndDate is
// persisted for range queries but is always derived from StartDate and
// DurationDays; readers recompute it rather than trusting the stored column.
type Tournament struct {
	ID           string               `json:"tournament_id" db:"id"`
	Name         string               `json:"name" db:"name"`
	CreatorID    string               `json:"created_by" db:"creator_id"`
	StartDate    Date                 `json:"start_date" db:"start_date"`
	DurationDays int                  `json:"duration_days" db:"duration_days"`
	EndDate      Date                 `json:"end_date" db:"end_date"`
	Visibility   TournamentVisibility `json:"tournament_type" db:"visibility"`
	Status       TournamentStatus     `json:"status" db:"status"`
	IsActive     bool                 `json:"is_active" db:"is_active"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
	EndedAt      *time.Time           `json:"ended_at,omitempty" db:"ended_at"`
	WinnerUserID *string              `json:"winner_user_id,omitempty" db:"winner_user_id"`

	// Populated by the service layer, not mapped directly.
	Participants []string `json:"participants" db:"-"`
}

// ComputedEndDate derives the inclusive end date from start and duration.
func (t *Tournament) ComputedEndDate() Date {
	return t.StartDate.AddDays(t.DurationDays - 1)
}

// Participant pairs a player id with the handle used for display and
// deterministic tie-breaking in standings.
type Participant struct {
	UserID   string    `json:"user_id"`
	Handle   string    `json:"handle"`
	JoinedAt time.Time `json:"joined_at"`
}
