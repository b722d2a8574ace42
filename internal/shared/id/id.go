// Package id generates prefixed, time-sortable identifiers for spans and
// traces. Ids from one generator sort in creation order, so a log grep for
// one trace reads top to bottom.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes keep the two id spaces apart in logs
const (
	TracePrefix = "trc"
	SpanPrefix  = "spn"
)

// Generator hands out ULIDs. Within one millisecond the random part is
// incremented so ordering holds.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader // Protected by mu
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator drawing randomness from entropy
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Next returns a fresh ULID
func (g *Generator) Next() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// Prefixed returns prefix_<ulid>
func (g *Generator) Prefixed(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Next())
}

// NewTraceID returns a trace id from the default generator
func NewTraceID() string {
	return Default().Prefixed(TracePrefix)
}

// NewSpanID returns a span id from the default generator
func NewSpanID() string {
	return Default().Prefixed(SpanPrefix)
}

// Timestamp recovers the creation time of a prefixed or bare id
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ulid.Time(parsed.Time()), nil
}
