package runner

import "sync"

const (
	// maxCaptureBytes caps each output stream.
	maxCaptureBytes = 10 * 1024 * 1024
	// retainBytes is how much of the tail survives an overflow.
	retainBytes = 5 * 1024 * 1024
)

// capBuffer captures a child stream with a hard cap. On overflow the oldest
// half is discarded so the tail of the output is always retained.
type capBuffer struct {
	mu        sync.Mutex
	data      []byte
	truncated bool
}

func (b *capBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, p...)
	if len(b.data) > maxCaptureBytes {
		b.data = b.data[len(b.data)-retainBytes:]
		b.truncated = true
	}
	return len(p), nil
}

func (b *capBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.truncated {
		return "[output truncated]\n" + string(b.data)
	}
	return string(b.data)
}
