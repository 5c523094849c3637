package golf

import (
	"sort"
	"strings"

	"github.com/parsix/parsix-backend/models"
)

// LeaderboardEntry is one row of the global date-range leaderboard.
type LeaderboardEntry struct {
	UserID         string `json:"user_id"`
	Handle         string `json:"handle"`
	TotalGolfScore int    `json:"total_golf_score"`
	RoundsPlayed   int    `json:"rounds_played"`
}

// Leaderboard rolls up every player's scores inside the window into an
// ordered list: total golf score ascending, rounds played descending, handle
// ascending. Penalty scores count toward the total but not toward rounds
// played. Players with no records inside the window are omitted. A limit of
// zero or less means no limit.
func Leaderboard(
	scoresByUser map[string][]models.Score,
	handles map[string]string,
	window DateRange,
	limit int,
) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(scoresByUser))
	for userID, scores := range scoresByUser {
		handle, ok := handles[userID]
		if !ok {
			continue
		}
		entry := LeaderboardEntry{UserID: userID, Handle: handle}
		included := false
		for i := range scores {
			rec := &scores[i]
			if !window.Contains(rec.PuzzleDate) {
				continue
			}
			included = true
			entry.TotalGolfScore += rec.GolfScore
			if !rec.IsPenalty() {
				entry.RoundsPlayed++
			}
		}
		if included {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.TotalGolfScore != b.TotalGolfScore {
			return a.TotalGolfScore < b.TotalGolfScore
		}
		if a.RoundsPlayed != b.RoundsPlayed {
			return a.RoundsPlayed > b.RoundsPlayed
		}
		return strings.Compare(a.Handle, b.Handle) < 0
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
