package stockcount

import (
	"context"
	"fmt"
	"time"
)

const codePrefix = "STO"

// CounterStore is the atomic per-prefix document counter. Increment must be
// linearizable across concurrent callers: for any prefix, concurrent
// increments observe a contiguous run of distinct values.
type CounterStore interface {
	Increment(ctx context.Context, prefix string) (int64, error)
	// Current returns the last issued value for the prefix, 0 when none.
	Current(ctx context.Context, prefix string) (int64, error)
}

// CodeGenerator mints human-readable document codes of the form
// STO-<YYYYMMDD>-<NNNN>. The numeric suffix restarts each day and comes from
// an atomic counter, so simultaneous creators never observe the same value.
type CodeGenerator struct {
	counters CounterStore
	now      func() time.Time
}

// NewCodeGenerator constructs CodeGenerator.
func NewCodeGenerator(counters CounterStore) *CodeGenerator {
	return &CodeGenerator{counters: counters, now: time.Now}
}

// Next issues and consumes the next code for today.
func (g *CodeGenerator) Next(ctx context.Context) (string, error) {
	prefix := g.dayPrefix()
	n, err := g.counters.Increment(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("stockcount: next code: %w", err)
	}
	return formatCode(prefix, n), nil
}

// Peek returns the code the next Next call would issue without consuming
// it. Used by the preview path only; two peeks may return the same value.
func (g *CodeGenerator) Peek(ctx context.Context) (string, error) {
	prefix := g.dayPrefix()
	n, err := g.counters.Current(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("stockcount: peek code: %w", err)
	}
	return formatCode(prefix, n+1), nil
}

func (g *CodeGenerator) dayPrefix() string {
	return DayPrefix(g.now())
}

// DayPrefix returns the counter prefix for the given instant, e.g.
// "STO-20260831". Days roll over in UTC.
func DayPrefix(t time.Time) string {
	return fmt.Sprintf("%s-%s", codePrefix, t.UTC().Format("20060102"))
}

func formatCode(prefix string, n int64) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}
