package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

func TestSessionPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(dir)
	s := m.GetOrCreate("run-1")
	assert.Empty(t, s.Messages)

	m.SetTranscript("run-1", []providers.Message{
		{Role: "system", Content: "you are coda"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	m.UpdateMetadata("run-1", "gpt-4o", "openai", "/ws")
	m.AccumulateTokens("run-1", 100, 50)
	require.NoError(t, m.Save("run-1"))

	// Fresh manager loads from disk.
	m2 := NewManager(dir)
	msgs := m2.Transcript("run-1")
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "hello", msgs[2].Content)

	infos := m2.List()
	require.Len(t, infos, 1)
	assert.Equal(t, 3, infos[0].MessageCount)
}

func TestSessionDelete(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.GetOrCreate("gone")
	require.NoError(t, m.Save("gone"))
	require.NoError(t, m.Delete("gone"))

	m2 := NewManager(dir)
	assert.Empty(t, m2.List())
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()

	h := NewHistory(dir)
	h.Add("first command")
	h.Add("second command")
	h.Add("second command") // dedup of consecutive repeats
	h.Add("   ")            // blank ignored

	h2 := NewHistory(dir)
	assert.Equal(t, []string{"first command", "second command"}, h2.Lines())
}
