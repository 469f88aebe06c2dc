package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/id"
	corenumerator "invoicepro/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates sys_sequences: one counter per (account, key).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.values == nil {
		m.values = make(map[string]int64)
	}

	k := args[0].(id.ID).String() + "/" + args[1].(string)
	incr := int64(1)
	if len(args) == 3 {
		incr = args[2].(int64)
	}
	m.values[k] += incr
	return &mockRow{val: m.values[k]}
}

var period = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(q)
	ctx := context.Background()
	acc := id.New()
	cfg := corenumerator.DefaultConfig("INV")

	for _, want := range []string{"INV-2026-00001", "INV-2026-00002", "INV-2026-00003"} {
		num, err := svc.GetNextNumber(ctx, acc, cfg, nil, period)
		require.NoError(t, err)
		assert.Equal(t, want, num)
	}
	assert.Equal(t, 3, q.calls)
}

func TestGetNextNumber_PerAccountAndPrefix(t *testing.T) {
	svc := NewWithQuerier(&mockQuerier{})
	ctx := context.Background()
	a, b := id.New(), id.New()

	n, _ := svc.GetNextNumber(ctx, a, corenumerator.DefaultConfig("INV"), nil, period)
	assert.Equal(t, "INV-2026-00001", n)
	n, _ = svc.GetNextNumber(ctx, b, corenumerator.DefaultConfig("INV"), nil, period)
	assert.Equal(t, "INV-2026-00001", n)
	n, _ = svc.GetNextNumber(ctx, a, corenumerator.DefaultConfig("QUO"), nil, period)
	assert.Equal(t, "QUO-2026-00001", n)
	n, _ = svc.GetNextNumber(ctx, a, corenumerator.DefaultConfig("INV"), nil, period.AddDate(1, 0, 0))
	assert.Equal(t, "INV-2027-00001", n)
}

func TestGetNextNumber_CachedReservesRanges(t *testing.T) {
	q := &mockQuerier{}
	svc := NewWithQuerier(q)
	ctx := context.Background()
	acc := id.New()
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	var last string
	for i := 0; i < 15; i++ {
		num, err := svc.GetNextNumber(ctx, acc, corenumerator.DefaultConfig("QUO"), opts, period)
		require.NoError(t, err)
		last = num
	}
	assert.Equal(t, "QUO-2026-00015", last)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_CachedConcurrentUnique(t *testing.T) {
	svc := NewWithQuerier(&mockQuerier{})
	ctx := context.Background()
	acc := id.New()
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 7}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.GetNextNumber(ctx, acc, corenumerator.DefaultConfig("QUO"), opts, period)
			assert.NoError(t, err)
			mu.Lock()
			seen[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestGetNextNumber_Error(t *testing.T) {
	svc := NewWithQuerier(&mockQuerier{err: errors.New("db down")})

	_, err := svc.GetNextNumber(context.Background(), id.New(), corenumerator.DefaultConfig("INV"), nil, period)
	assert.ErrorContains(t, err, "db down")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "PAY-000042", formatNumber(corenumerator.Config{Prefix: "PAY", PadWidth: 6}, period, 42))
	assert.Equal(t, "INV-2026-123456", formatNumber(corenumerator.DefaultConfig("INV"), period, 123456))
	assert.Equal(t, "INV_2026_04", buildKey(corenumerator.Config{Prefix: "INV", ResetPeriod: "month"}, period))
	assert.Equal(t, "INV", buildKey(corenumerator.Config{Prefix: "INV", ResetPeriod: "never"}, period))
}
