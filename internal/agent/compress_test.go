package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

func longTranscript(n int) []providers.Message {
	msgs := []providers.Message{{Role: "system", Content: "the original system prompt"}}
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs = append(msgs, providers.Message{Role: role, Content: fmt.Sprintf("message %d", i)})
	}
	return msgs
}

func TestCompressTranscriptShape(t *testing.T) {
	msgs := longTranscript(20)
	out := compressTranscript(msgs)

	require.Len(t, out, compressKeepTail+2)
	assert.Equal(t, msgs[0], out[0], "system message preserved verbatim")
	assert.Equal(t, "system", out[1].Role)
	assert.Equal(t, "[history compressed: 14 messages]", out[1].Content)
	assert.Equal(t, msgs[len(msgs)-compressKeepTail:], out[2:])
}

func TestCompressTranscriptFixedPoint(t *testing.T) {
	once := compressTranscript(longTranscript(30))
	twice := compressTranscript(once)
	assert.Equal(t, once, twice)
}

func TestCompressTranscriptSmallUntouched(t *testing.T) {
	msgs := longTranscript(4)
	assert.Equal(t, msgs, compressTranscript(msgs))
}

func TestNeedsCompression(t *testing.T) {
	msgs := []providers.Message{{Role: "user", Content: "tiny"}}
	assert.False(t, needsCompression(msgs, 128000))
	assert.False(t, needsCompression(msgs, 0))
	// Threshold: estimate for one word is ~2; window of 2 puts it at 80%+.
	assert.True(t, needsCompression(msgs, 2))
}
