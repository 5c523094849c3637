package golf

import "github.com/parsix/parsix-backend/models"

// Category is the display classification of a golf score. It is the only
// representation the presentation layer depends on; the numeric score and the
// glyph both derive from it through this package.
type Category string

const (
	CategoryAce         Category = "ace"
	CategoryEagle       Category = "eagle"
	CategoryBirdie      Category = "birdie"
	CategoryPar         Category = "par"
	CategoryBogey       Category = "bogey"
	CategoryDoubleBogey Category = "double_bogey"
	CategoryDNF         Category = "dnf"
	CategoryPenalty     Category = "penalty"
)

// ScoreValue is the normalized form of an outcome: the signed golf score
// (lower is better) plus its display category.
type ScoreValue struct {
	GolfScore int      `json:"golf_score"`
	Category  Category `json:"category"`
}

// DNFScore is the quad-bogey applied to both failed puzzles and
// system-applied penalties.
const DNFScore = 4

var guessTable = [MaxGuesses + 1]ScoreValue{
	1: {GolfScore: -3, Category: CategoryAce},
	2: {GolfScore: -2, Category: CategoryEagle},
	3: {GolfScore: -1, Category: CategoryBirdie},
	4: {GolfScore: 0, Category: CategoryPar},
	5: {GolfScore: 1, Category: CategoryBogey},
	6: {GolfScore: 2, Category: CategoryDoubleBogey},
}

// Normalize maps an outcome onto its golf score and category. It is total
// over valid outcomes: solved results must carry a guess count in
// [1, MaxGuesses], which the parser guarantees; anything else is scored as a
// DNF rather than inventing an error path the callers cannot hit.
func Normalize(status models.ScoreStatus, guessesUsed int, isPenalty bool) ScoreValue {
	if isPenalty {
		return ScoreValue{GolfScore: DNFScore, Category: CategoryPenalty}
	}
	if status == models.StatusSolved && guessesUsed >= 1 && guessesUsed <= MaxGuesses {
		return guessTable[guessesUsed]
	}
	return ScoreValue{GolfScore: DNFScore, Category: CategoryDNF}
}

// CategoryOf classifies a stored score record.
func CategoryOf(s *models.Score) Category {
	guesses := 0
	if s.GuessesUsed != nil {
		guesses = *s.GuessesUsed
	}
	return Normalize(s.Status, guesses, s.IsPenalty()).Category
}

// Glyph returns the display symbol for a category. Kept next to the score
// table so the mapping has a single source of truth.
func (c Category) Glyph() string {
	switch c {
	case CategoryAce:
		return "⛳"
	case CategoryEagle:
		return "-2"
	case CategoryBirdie:
		return "-1"
	case CategoryPar:
		return "E"
	case CategoryBogey:
		return "+1"
	case CategoryDoubleBogey:
		return "+2"
	case CategoryDNF:
		return "✗"
	case CategoryPenalty:
		return "⛔"
	default:
		return "?"
	}
}
