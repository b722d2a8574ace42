package id

import (
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixed(t *testing.T) {
	trace := NewTraceID()
	span := NewSpanID()

	assert.True(t, strings.HasPrefix(trace, "trc_"))
	assert.True(t, strings.HasPrefix(span, "spn_"))
	assert.Len(t, strings.TrimPrefix(trace, "trc_"), 26)
}

func TestIDsSortInCreationOrder(t *testing.T) {
	gen := NewGenerator(rand.Reader)
	fixed := time.UnixMilli(1_700_000_000_000)
	gen.now = func() time.Time { return fixed }

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = gen.Next().String()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestConcurrentUnique(t *testing.T) {
	gen := NewGenerator(rand.Reader)

	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Prefixed(SpanPrefix)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator(rand.Reader)
	fixed := time.UnixMilli(1_700_000_000_123)
	gen.now = func() time.Time { return fixed }

	got, err := Timestamp(gen.Prefixed(TracePrefix))
	require.NoError(t, err)
	assert.True(t, got.Equal(fixed))

	_, err = Timestamp("trc_nope")
	assert.Error(t, err)
}
