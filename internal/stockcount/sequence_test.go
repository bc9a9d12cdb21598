package stockcount

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCounters struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemoryCounters() *memoryCounters {
	return &memoryCounters{values: make(map[string]int64)}
}

func (c *memoryCounters) Increment(ctx context.Context, prefix string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[prefix]++
	return c.values[prefix], nil
}

func (c *memoryCounters) Current(ctx context.Context, prefix string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[prefix], nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodeGeneratorFormat(t *testing.T) {
	gen := NewCodeGenerator(newMemoryCounters())
	gen.now = fixedClock(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	code, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "STO-20260831-0001", code)

	code, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "STO-20260831-0002", code)
}

func TestCodeGeneratorDayRollover(t *testing.T) {
	counters := newMemoryCounters()
	gen := NewCodeGenerator(counters)
	gen.now = fixedClock(time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC))

	code, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "STO-20260831-0001", code)

	gen.now = fixedClock(time.Date(2026, 9, 1, 0, 1, 0, 0, time.UTC))
	code, err = gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "STO-20260901-0001", code)
}

func TestCodeGeneratorPeekDoesNotConsume(t *testing.T) {
	gen := NewCodeGenerator(newMemoryCounters())
	gen.now = fixedClock(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	peeked, err := gen.Peek(context.Background())
	require.NoError(t, err)
	require.Equal(t, "STO-20260831-0001", peeked)

	again, err := gen.Peek(context.Background())
	require.NoError(t, err)
	require.Equal(t, peeked, again)

	code, err := gen.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, peeked, code)
}

func TestCodeGeneratorConcurrentDistinct(t *testing.T) {
	gen := NewCodeGenerator(newMemoryCounters())
	gen.now = fixedClock(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))

	const n = 50
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := gen.Next(context.Background())
			require.NoError(t, err)
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool, n)
	for code := range codes {
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	require.Len(t, seen, n)
}

func TestDayPrefixUsesUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 02:00 WIB on Sep 1 is still Aug 31 in UTC.
	local := time.Date(2026, 9, 1, 2, 0, 0, 0, jakarta)
	require.Equal(t, "STO-20260831", DayPrefix(local))
}
