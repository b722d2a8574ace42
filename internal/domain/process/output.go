package process

import "sync"

// DefaultOutputLimit bounds the captured stdout/stderr of a spawned app
const DefaultOutputLimit = 64 * 1024

// outputBuffer keeps the last limit bytes written to it
type outputBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func newOutputBuffer(limit int) *outputBuffer {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	return &outputBuffer{limit: limit}
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
