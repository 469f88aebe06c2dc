package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/apperror"
	"invoicepro/internal/core/id"
	"invoicepro/internal/core/types"
)

var now = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func input(amount string) Input {
	return Input{InvoiceID: id.New(), Amount: types.MustMoney(amount), Method: MethodBankTransfer}
}

func TestNew_Completed(t *testing.T) {
	p, err := New(id.New(), input("200.00"), "USD", now)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, types.MinorUnits(20000), p.Amount)
	assert.Equal(t, types.Currency("USD"), p.Currency)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, now, *p.PaidAt)
}

func TestNew_Pending(t *testing.T) {
	in := input("5")
	in.Pending = true
	p, err := New(id.New(), in, "USD", now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Nil(t, p.PaidAt)
}

func TestNew_ZeroDecimalCurrency(t *testing.T) {
	p, err := New(id.New(), input("1500"), "JPY", now)
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(1500), p.Amount)

	_, err = New(id.New(), input("1500.5"), "JPY", now)
	assert.True(t, errors.Is(err, apperror.ErrInvalidAmount))
}

func TestNew_RejectsBadInput(t *testing.T) {
	for _, amount := range []string{"0", "-1", "10.005"} {
		_, err := New(id.New(), input(amount), "USD", now)
		assert.True(t, errors.Is(err, apperror.ErrInvalidAmount), amount)
	}

	in := input("10")
	in.Method = "cheque"
	_, err := New(id.New(), in, "USD", now)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestNew_RejectsAmountBeyondMinorUnitRange(t *testing.T) {
	in := input("184467440737095516.17")
	in.Method = MethodCash
	p, err := New(id.New(), in, "USD", now)
	require.Error(t, err)
	assert.Nil(t, p)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidAmount, appErr.Code)
	assert.Equal(t, "amount is out of range", appErr.Details["reason"])
}

func TestLifecycle(t *testing.T) {
	in := input("10")
	in.Pending = true
	p, err := New(id.New(), in, "USD", now)
	require.NoError(t, err)

	assert.True(t, errors.Is(p.Refund(now), apperror.ErrInvalidTransition))
	require.NoError(t, p.Complete(now))
	assert.True(t, errors.Is(p.Fail(now), apperror.ErrInvalidTransition))
	require.NoError(t, p.Refund(now))
	assert.Equal(t, StatusRefunded, p.Status)
	require.NotNil(t, p.RefundedAt)
	assert.True(t, p.Status.IsTerminal())

	failed, err := New(id.New(), in, "USD", now)
	require.NoError(t, err)
	require.NoError(t, failed.Fail(now))
	assert.True(t, errors.Is(failed.Complete(now), apperror.ErrInvalidTransition))
}
