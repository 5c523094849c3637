package golf

import "github.com/parsix/parsix-backend/models"

// DateRange is an inclusive calendar window.
type DateRange struct {
	Start models.Date
	End   models.Date
}

func (r DateRange) Contains(d models.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// PlayerStats summarizes a player's history over a window. Best and Worst are
// nil when the player has no non-penalty rounds; zero is a valid par score
// and must not double as "no data".
type PlayerStats struct {
	RoundsPlayed int              `json:"rounds_played"`
	Average      float64          `json:"average"`
	Best         *int             `json:"best,omitempty"`
	Worst        *int             `json:"worst,omitempty"`
	Distribution map[Category]int `json:"distribution"`
}

// Aggregate computes per-player statistics over the records falling inside
// window. Penalty records count toward the score sum and the penalty bucket
// of the distribution, but not toward rounds played or best/worst. Empty
// input is a valid steady state: the result is all zeroes with absent
// best/worst, never an error.
func Aggregate(records []models.Score, window DateRange) PlayerStats {
	stats := PlayerStats{Distribution: make(map[Category]int)}

	total := 0
	for i := range records {
		rec := &records[i]
		if !window.Contains(rec.PuzzleDate) {
			continue
		}
		total += rec.GolfScore
		stats.Distribution[CategoryOf(rec)]++
		if rec.IsPenalty() {
			continue
		}
		stats.RoundsPlayed++
		if stats.Best == nil || rec.GolfScore < *stats.Best {
			best := rec.GolfScore
			stats.Best = &best
		}
		if stats.Worst == nil || rec.GolfScore > *stats.Worst {
			worst := rec.GolfScore
			stats.Worst = &worst
		}
	}

	if stats.RoundsPlayed > 0 {
		stats.Average = float64(total) / float64(stats.RoundsPlayed)
	}
	return stats
}
