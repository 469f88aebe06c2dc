// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain"
)

const dateLayout = "2006-01-02"

// Date is a calendar date in JSON ("2026-03-01"). RFC 3339 timestamps are
// accepted and truncated to the UTC day.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	t = t.UTC()
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// ListQuery holds the query parameters shared by list endpoints.
type ListQuery struct {
	Status   []string   `form:"status"`
	ClientID string     `form:"clientId" binding:"omitempty,uuid"`
	Search   string     `form:"search" binding:"max=100"`
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
	OrderBy  string     `form:"orderBy"`
	Limit    int        `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter builds the account-scoped domain filter.
func (q ListQuery) ToFilter(accountID id.ID) domain.ListFilter {
	f := domain.DefaultListFilter(accountID)
	f.Statuses = q.Status
	if q.ClientID != "" {
		clientID := id.MustParse(q.ClientID)
		f.ClientID = &clientID
	}
	f.Search = q.Search
	f.DateFrom = q.DateFrom
	f.DateTo = q.DateTo
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	return f
}

// SuccessResponse for operations without payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
