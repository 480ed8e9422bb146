package workspace

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupStorePerFileCap(t *testing.T) {
	s := NewBackupStore()

	for i := 0; i < 8; i++ {
		s.Add("a.txt", []byte(fmt.Sprintf("version %d", i)), "write_file")
	}

	versions := s.Versions("a.txt")
	require.Len(t, versions, defaultMaxVersionsPerFile)
	// Oldest-first eviction: the survivors are the newest five.
	assert.Equal(t, "version 3", string(versions[0].Content))
	assert.Equal(t, "version 7", string(s.Latest("a.txt").Content))
}

func TestBackupStoreGlobalByteCap(t *testing.T) {
	s := NewBackupStore()
	s.maxTotalBytes = 100

	s.Add("a.txt", make([]byte, 60), "write_file")
	s.Add("b.txt", make([]byte, 60), "apply_diff")

	// First snapshot evicted to get back under the cap.
	assert.Nil(t, s.Latest("a.txt"))
	assert.NotNil(t, s.Latest("b.txt"))
	assert.LessOrEqual(t, s.TotalBytes(), 100)
}

func TestBackupStoreSweepTTL(t *testing.T) {
	s := NewBackupStore()
	s.Add("a.txt", []byte("old"), "write_file")
	s.Add("b.txt", []byte("new"), "write_file")

	// Age the first snapshot past the TTL.
	s.byFile["a.txt"][0].Timestamp = time.Now().Add(-time.Hour)

	removed := s.Sweep()
	assert.Equal(t, 1, removed)
	assert.Nil(t, s.Latest("a.txt"))
	assert.NotNil(t, s.Latest("b.txt"))

	// Sweeping again removes nothing.
	assert.Equal(t, 0, s.Sweep())
}
