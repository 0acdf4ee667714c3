package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"opspulse/pkg/model"
)

func snapWith(ts time.Time, names ...string) model.Snapshot {
	s := model.Snapshot{Timestamp: ts, OverallHealth: model.StatusHealthy}
	for _, n := range names {
		s.Services = append(s.Services, model.Service{Name: n, Status: model.StatusHealthy})
	}
	return s
}

func TestMergeReplacesWholesale(t *testing.T) {
	older := snapWith(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), "api", "db", "cache")
	older.Alerts = []model.SystemAlert{{ID: 1, Severity: model.SeverityWarning}}
	newer := snapWith(time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC), "api")

	got := Merge(&older, newer)
	assert.Equal(t, newer, got)
	assert.Equal(t, newer.Services, got.Services)
	// nothing from the previous generation leaks through
	assert.Empty(t, got.Alerts)
}

func TestMergeIdempotent(t *testing.T) {
	cur := snapWith(time.Now(), "api")
	in := snapWith(time.Now().Add(time.Second), "api", "db")

	once := Merge(&cur, in)
	twice := Merge(&once, in)
	assert.Equal(t, once, twice)
}

func TestMergeFromNil(t *testing.T) {
	in := snapWith(time.Now(), "api")
	assert.Equal(t, in, Merge(nil, in))
}

func TestMergeIgnoresEmbeddedTimestampOrder(t *testing.T) {
	// Arrival order wins even when the incoming snapshot is older by its own
	// clock; there is no sequence number to say otherwise.
	cur := snapWith(time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC), "api", "db")
	stale := snapWith(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), "api")
	assert.Equal(t, stale, Merge(&cur, stale))
}
