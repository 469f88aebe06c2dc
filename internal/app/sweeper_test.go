package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invoicepro/pkg/logger"
)

type fakeInvoices struct {
	n     int
	err   error
	calls atomic.Int32
}

func (f *fakeInvoices) SweepOverdue(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

type fakeQuotations struct {
	n   int
	err error
}

func (f *fakeQuotations) SweepExpired(context.Context) (int, error) { return f.n, f.err }

type fakeCleaner struct{ n int64 }

func (f *fakeCleaner) CleanupExpired(context.Context) (int64, error) { return f.n, nil }

func testLogger() *logger.Logger { return logger.FromZap(zap.NewNop()) }

func TestSweeper_RunOnce(t *testing.T) {
	inv := &fakeInvoices{n: 2}
	var statsCalled bool
	s := NewSweeper(inv, &fakeQuotations{n: 3}, &fakeCleaner{n: 5}, testLogger()).
		WithPoolStats(func(context.Context) { statsCalled = true })

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Overdue: 2, Expired: 3, KeysRemoved: 5}, res)
	assert.True(t, statsCalled)
}

func TestSweeper_RunOnceContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	s := NewSweeper(&fakeInvoices{err: boom}, &fakeQuotations{n: 1}, nil, testLogger())

	res, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sweep overdue invoices")
	assert.Equal(t, 1, res.Expired)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	inv := &fakeInvoices{}
	s := NewSweeper(inv, &fakeQuotations{}, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return inv.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
