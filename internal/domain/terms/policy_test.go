package terms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicepro/internal/core/types"
)

var issued = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestNetDays(t *testing.T) {
	due, err := NetDays(14).DueDate(Input{IssueDate: issued})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 24, 9, 0, 0, 0, time.UTC), due)
}

func TestExpression_DependsOnTotal(t *testing.T) {
	p, err := NewExpression(`issue_date + duration(grand_total > 10000.0 ? "1080h" : "720h")`)
	require.NoError(t, err)

	due, err := p.DueDate(Input{IssueDate: issued, GrandTotal: types.MustMoney("409.00"), Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(720*time.Hour), due)

	due, err = p.DueDate(Input{IssueDate: issued, GrandTotal: types.MustMoney("25000"), Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, issued.Add(1080*time.Hour), due)
}

func TestExpression_Rejects(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax", `issue_date +`},
		{"unknown variable", `due_date`},
		{"not a timestamp", `grand_total * 2.0`},
		{"before issue", `issue_date - duration("24h")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpression(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig(0, "")
	require.NoError(t, err)
	assert.Equal(t, NetDays(DefaultNetDays), p)

	p, err = FromConfig(45, "")
	require.NoError(t, err)
	assert.Equal(t, NetDays(45), p)

	p, err = FromConfig(45, `issue_date + duration("48h")`)
	require.NoError(t, err)
	assert.IsType(t, &Expression{}, p)

	_, err = FromConfig(-1, "")
	assert.Error(t, err)
}
