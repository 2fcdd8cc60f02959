// internal/ratelimit/counter.go
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// CounterStore tracks per-campaign send counts scoped by calendar day and
// clock hour. Acquire is a single atomic increment-if-below-limit over both
// scopes: two callers racing for the last slot can never both win, the loser
// simply observes a refusal. Counters roll over naturally because the scope
// boundary is part of the key.
//
// The store is constructed at process start and closed at shutdown; it is
// injected into whoever needs it, never reached through a package global.
type CounterStore interface {
	// Acquire reserves one send slot for the campaign at t. It returns false
	// and leaves both counters untouched when either limit is already met.
	// A limit <= 0 means that scope is uncapped.
	Acquire(ctx context.Context, campaignID int, t time.Time, dailyLimit, hourlyLimit int) (bool, error)

	// Release undoes a prior Acquire after a dispatch that did not succeed,
	// so failed attempts never consume quota.
	Release(ctx context.Context, campaignID int, t time.Time) error

	// SentToday reports the day counter, for dashboards and diagnostics.
	SentToday(ctx context.Context, campaignID int, t time.Time) (int, error)

	Close() error
}

func dayKey(campaignID int, t time.Time) string {
	return fmt.Sprintf("camp:%d:day:%s", campaignID, t.Format("2006-01-02"))
}

func hourKey(campaignID int, t time.Time) string {
	return fmt.Sprintf("camp:%d:hour:%s", campaignID, t.Format("2006-01-02T15"))
}

// ttls returns how long the day and hour keys should live: until their scope
// boundary rolls over, with a minute of slack.
func ttls(t time.Time) (day, hour time.Duration) {
	y, m, d := t.Date()
	endOfDay := time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(24 * time.Hour)
	endOfHour := t.Truncate(time.Hour).Add(time.Hour)
	return endOfDay.Sub(t) + time.Minute, endOfHour.Sub(t) + time.Minute
}
