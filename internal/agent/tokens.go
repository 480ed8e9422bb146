package agent

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

// Token estimation weights. CJK text packs more meaning per character than
// ASCII, and whole ASCII words tokenize near one-to-one.
const (
	cjkCharWeight   = 1.5
	asciiWordWeight = 1.3
	otherCharWeight = 0.5
)

// EstimateText estimates the token cost of one string. Wide (CJK-range)
// runes weigh 1.5 each, each run of ASCII word characters weighs 1.3, and
// every other character weighs 0.5. All weights are non-negative, so the
// estimate is monotonic under append.
func EstimateText(s string) float64 {
	total := 0.0
	inWord := false

	for _, r := range s {
		switch {
		case runewidth.RuneWidth(r) == 2:
			total += cjkCharWeight
			inWord = false
		case isASCIIWordChar(r):
			if !inWord {
				total += asciiWordWeight
				inWord = true
			}
		default:
			total += otherCharWeight
			inWord = false
		}
	}
	return total
}

// EstimateTokens sums the estimate across a transcript, rounded up.
func EstimateTokens(messages []providers.Message) int {
	total := 0.0
	for _, m := range messages {
		total += EstimateText(m.Content)
	}
	return int(math.Ceil(total))
}

func isASCIIWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}
