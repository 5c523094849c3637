package golf

import (
	"sort"
	"strings"

	"github.com/parsix/parsix-backend/models"
)

// Phase is the derived lifecycle position of a tournament. It is always a
// function of the wall-clock date against the stored window; no stored status
// field overrides the comparison.
type Phase string

const (
	PhaseUpcoming  Phase = "upcoming"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

// PhaseOf derives the tournament phase as of the given date.
func PhaseOf(t *models.Tournament, today models.Date) Phase {
	switch {
	case today.Before(t.StartDate):
		return PhaseUpcoming
	case today.After(t.ComputedEndDate()):
		return PhaseCompleted
	default:
		return PhaseActive
	}
}

// Standing is one row of a tournament leaderboard, derived and never
// persisted.
type Standing struct {
	UserID        string `json:"user_id"`
	Handle        string `json:"handle"`
	TotalScore    int    `json:"total_score"`
	CompletedDays int    `json:"completed_days"`
	Position      int    `json:"position"`
	IsCurrentUser bool   `json:"is_current_user"`
}

// ComputeStandings produces the full ordered standings for a tournament as of
// a given date. For every participant it walks each day of
// [start, min(end, asOf)]: a regular record contributes its score and counts
// as a completed day, a penalty record contributes its score only, and a day
// with no record contributes nothing. Materializing penalties for elapsed
// days is the scheduled job's responsibility, never this function's.
//
// Records outside the tournament window are ignored, so callers may pass
// over-inclusive collections. The sort is a strict total order: total score
// ascending, then completed days descending, then handle ascending; handles
// are unique so positions are never shared. The computation is from scratch
// on every call, which keeps resubmission override semantics trivially
// correct at this scale.
func ComputeStandings(
	t *models.Tournament,
	participants []models.Participant,
	scoresByParticipant map[string][]models.Score,
	asOf models.Date,
) []Standing {
	window := DateRange{Start: t.StartDate, End: t.ComputedEndDate()}
	if asOf.Before(window.End) {
		window.End = asOf
	}

	standings := make([]Standing, 0, len(participants))
	for _, p := range participants {
		byDate := make(map[models.Date]*models.Score)
		scores := scoresByParticipant[p.UserID]
		for i := range scores {
			rec := &scores[i]
			if t.StartDate.DaysUntil(rec.PuzzleDate) >= 0 && rec.PuzzleDate.DaysUntil(t.ComputedEndDate()) >= 0 {
				byDate[rec.PuzzleDate] = rec
			}
		}

		s := Standing{UserID: p.UserID, Handle: p.Handle}
		for day := window.Start; !day.After(window.End); day = day.AddDays(1) {
			rec, ok := byDate[day]
			if !ok {
				continue
			}
			s.TotalScore += rec.GolfScore
			if !rec.IsPenalty() {
				s.CompletedDays++
			}
		}
		standings = append(standings, s)
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore < b.TotalScore
		}
		if a.CompletedDays != b.CompletedDays {
			return a.CompletedDays > b.CompletedDays
		}
		return strings.Compare(a.Handle, b.Handle) < 0
	})

	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}
