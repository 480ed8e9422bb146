package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

func TestEstimateTextWeights(t *testing.T) {
	// Two ASCII words: 2 * 1.3.
	assert.InDelta(t, 2.6, EstimateText("hello world")-EstimateText(" "), 0.001)

	// CJK characters weigh 1.5 each.
	assert.InDelta(t, 3.0, EstimateText("你好"), 0.001)

	// Punctuation and spaces weigh 0.5.
	assert.InDelta(t, 0.5, EstimateText("!"), 0.001)

	// A word is one unit regardless of its length.
	assert.InDelta(t, EstimateText("a"), EstimateText("abcdefgh"), 0.001)

	assert.Zero(t, EstimateText(""))
}

func TestEstimateTokensMonotonic(t *testing.T) {
	base := []providers.Message{{Role: "user", Content: "short"}}
	grown := []providers.Message{{Role: "user", Content: "short plus 更多 content, with punctuation..."}}

	assert.GreaterOrEqual(t, EstimateTokens(grown), EstimateTokens(base))

	// Appending any message never decreases the estimate.
	more := append(append([]providers.Message{}, base...), providers.Message{Role: "assistant", Content: "x"})
	assert.GreaterOrEqual(t, EstimateTokens(more), EstimateTokens(base))
}

func TestEstimateTokensRoundsUp(t *testing.T) {
	// "!" alone estimates 0.5 and must round up to 1.
	assert.Equal(t, 1, EstimateTokens([]providers.Message{{Role: "user", Content: "!"}}))
}
