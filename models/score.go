package models

import "time"

// ScoreStatus is the outcome of a puzzle attempt.
type ScoreStatus string

const (
	StatusSolved ScoreStatus = "solved"
	StatusDNF    ScoreStatus = "dnf"
)

// ScoreType distinguishes user submissions from system-applied penalties.
// A penalty carries the same numeric score as a DNF but different override
// semantics: a real submission may replace a penalty, never the reverse.
type ScoreType string

const (
	TypeRegular ScoreType = "regular"
	TypePenalty ScoreType = "penalty"
)

// NormalizeScoreType maps legacy or unknown score_type strings onto a valid
// ScoreType. "standard" was the pre-penalty name for regular scores; anything
// unrecognized defaults to regular so older rows keep working.
func NormalizeScoreType(value string) ScoreType {
	switch ScoreType(value) {
	case TypePenalty:
		return TypePenalty
	case TypeRegular, ScoreType("standard"), ScoreType(""):
		return TypeRegular
	default:
		return TypeRegular
	}
}

// Score is one player's result for one puzzle date. At most one row exists
// per (user, date); resubmission updates the row in place.
type Score struct {
	ID          string      `json:"score_id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	PuzzleDate  Date        `json:"puzzle_date" db:"puzzle_date"`
	Status      ScoreStatus `json:"status" db:"status"`
	Type        ScoreType   `json:"score_type" db:"score_type"`
	GuessesUsed *int        `json:"guesses_used,omitempty" db:"guesses_used"`
	GolfScore   int         `json:"golf_score" db:"golf_score"`
	SourceText  *string     `json:"source_text,omitempty" db:"source_text"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// IsPenalty reports whether this score was materialized by the missed-day job
// rather than submitted by the player.
func (s *Score) IsPenalty() bool {
	return s.Type == TypePenalty
}
