package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"invoicepro/internal/core/id"
	"invoicepro/internal/domain/reports"
)

const dashboardKeyPrefix = "invoicepro:dashboard:"

// DashboardCache implements reports.Cache with one JSON value per account.
type DashboardCache struct {
	client redis.Cmdable
}

// NewDashboardCache wraps client. The caller owns and closes it.
func NewDashboardCache(client redis.Cmdable) *DashboardCache {
	return &DashboardCache{client: client}
}

var _ reports.Cache = (*DashboardCache)(nil)

func dashboardKey(accountID id.ID) string {
	return dashboardKeyPrefix + accountID.String()
}

// Get returns the cached dashboard, or nil on a miss.
func (c *DashboardCache) Get(ctx context.Context, accountID id.ID) (*reports.Dashboard, error) {
	raw, err := c.client.Get(ctx, dashboardKey(accountID)).Bytes()
	if isMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}

	var d reports.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		// A value written by an older layout is treated as a miss.
		return nil, nil
	}
	return &d, nil
}

// Set stores d for ttl.
func (c *DashboardCache) Set(ctx context.Context, accountID id.ID, d *reports.Dashboard, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal dashboard: %w", err)
	}
	if err := c.client.Set(ctx, dashboardKey(accountID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set dashboard: %w", err)
	}
	return nil
}

// Invalidate drops the account's dashboard.
func (c *DashboardCache) Invalidate(ctx context.Context, accountID id.ID) error {
	if err := c.client.Del(ctx, dashboardKey(accountID)).Err(); err != nil {
		return fmt.Errorf("invalidate dashboard: %w", err)
	}
	return nil
}
