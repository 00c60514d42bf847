package services

import (
	"strings"
	"unicode"
)

const (
	artistPoints = 5
	titlePoints  = 5
)

// ScoreBreakdown is the outcome of judging one guess against the correct song.
type ScoreBreakdown struct {
	ArtistPoints int `json:"artistPoints"`
	SongPoints   int `json:"songPoints"`
	Total        int `json:"-"`
}

// NormalizeAnswer prepares a guess or answer-key field for comparison:
// lower-case, trimmed, with everything that is not a letter, digit or
// whitespace removed. "Bohemian Rhapsody!" and "bohemian rhapsody" compare
// equal; an empty guess stays empty.
func NormalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ScoreAnswer awards 5 points for an exact normalized artist match and 5 for
// an exact normalized title match. Pure function, no state.
func ScoreAnswer(guessArtist, guessTitle, correctArtist, correctTitle string) ScoreBreakdown {
	var breakdown ScoreBreakdown
	if NormalizeAnswer(guessArtist) == NormalizeAnswer(correctArtist) {
		breakdown.ArtistPoints = artistPoints
	}
	if NormalizeAnswer(guessTitle) == NormalizeAnswer(correctTitle) {
		breakdown.SongPoints = titlePoints
	}
	breakdown.Total = breakdown.ArtistPoints + breakdown.SongPoints
	return breakdown
}
