package agent

import (
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

const (
	// compressThreshold is the context-window fraction that triggers
	// auto-compression.
	compressThreshold = 0.8
	// compressKeepTail is how many trailing messages survive compression.
	compressKeepTail = 6
)

// compressTranscript rewrites an oversized transcript to
// [system, summary-marker, ...last 6 messages]. The original system message
// is preserved verbatim. Running it on an already-compressed transcript is a
// fixed point: nothing shrinks further.
func compressTranscript(messages []providers.Message) []providers.Message {
	// 1 system + 1 marker + tail; anything at or under that is already
	// as small as compression can make it.
	if len(messages) <= compressKeepTail+2 {
		return messages
	}

	dropped := len(messages) - 1 - compressKeepTail
	out := make([]providers.Message, 0, compressKeepTail+2)
	out = append(out, messages[0])
	out = append(out, providers.Message{
		Role:    "system",
		Content: fmt.Sprintf("[history compressed: %d messages]", dropped),
	})
	out = append(out, messages[len(messages)-compressKeepTail:]...)

	slog.Info("transcript compressed", "dropped", dropped, "kept", len(out))
	return out
}

// needsCompression reports whether the estimated transcript size crosses the
// threshold of the model's context window.
func needsCompression(messages []providers.Message, contextWindow int) bool {
	if contextWindow <= 0 {
		return false
	}
	return float64(EstimateTokens(messages)) >= compressThreshold*float64(contextWindow)
}
