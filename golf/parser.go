// Package golf holds the scoring core: share-text parsing, golf score
// normalization, per-player aggregation and tournament standings. Everything
// here is a pure function over its inputs; persistence and HTTP live in the
// repository and handler layers.
package golf

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxGuesses is the fixed denominator of a share header ("3/6").
const MaxGuesses = 6

var (
	ErrMalformedHeader   = errors.New("malformed result header")
	ErrLineCountMismatch = errors.New("result line count does not match declared guesses")
)

// headerPattern matches the first line of a shared result, e.g.
// "Wordle 1,234 3/6" or "Wordle 1492 X/6*". The puzzle number may carry
// thousands separators; the trailing asterisk marks hard mode.
var headerPattern = regexp.MustCompile(`^(.+?)\s+([0-9][0-9.,]*)\s+([1-6Xx])/([0-9])(\*?)$`)

// Result markers: correct, present, absent (light and dark theme).
var markerGlyphs = []string{"🟩", "🟨", "⬜", "⬛"}

// RawResult is the structured outcome of a parsed share text. GuessesUsed is
// meaningful only when Solved is true.
type RawResult struct {
	PuzzleNumber int
	Solved       bool
	GuessesUsed  int
	HardMode     bool
}

// Parse validates a shared puzzle result and extracts its outcome. The input
// must consist of a header line followed by exactly as many marker lines as
// the header declares (MaxGuesses for a failure). The puzzle date is never
// derived from the text; it is supplied by the caller.
func Parse(shareText string) (RawResult, error) {
	lines := nonEmptyLines(shareText)
	if len(lines) == 0 {
		return RawResult{}, fmt.Errorf("%w: input is empty", ErrMalformedHeader)
	}

	m := headerPattern.FindStringSubmatch(lines[0])
	if m == nil {
		return RawResult{}, fmt.Errorf("%w: %q", ErrMalformedHeader, lines[0])
	}

	denominator, err := strconv.Atoi(m[4])
	if err != nil || denominator != MaxGuesses {
		return RawResult{}, fmt.Errorf("%w: denominator must be %d", ErrMalformedHeader, MaxGuesses)
	}

	number, err := strconv.Atoi(strings.NewReplacer(",", "", ".", "").Replace(m[2]))
	if err != nil {
		return RawResult{}, fmt.Errorf("%w: invalid puzzle number %q", ErrMalformedHeader, m[2])
	}

	result := RawResult{
		PuzzleNumber: number,
		HardMode:     m[5] == "*",
	}

	expected := MaxGuesses
	if numerator := strings.ToUpper(m[3]); numerator != "X" {
		// The pattern already restricts the numerator to 1-6 or X.
		result.Solved = true
		result.GuessesUsed, _ = strconv.Atoi(numerator)
		expected = result.GuessesUsed
	}

	markers := countMarkerLines(lines[1:])
	if markers != expected {
		return RawResult{}, fmt.Errorf("%w: declared %d, found %d", ErrLineCountMismatch, expected, markers)
	}

	return result, nil
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func countMarkerLines(lines []string) int {
	count := 0
	for _, line := range lines {
		for _, glyph := range markerGlyphs {
			if strings.Contains(line, glyph) {
				count++
				break
			}
		}
	}
	return count
}
