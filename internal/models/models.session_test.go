// FilePath: server/hub/internal/models/models.session_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLiveSession(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "grp_1", "2026-09-01", 0, now)

	assert.Equal(t, DefaultTargetHours, s.Hours.TargetHours)
	assert.Equal(t, CompliancePending, s.Hours.Status)
	assert.Len(t, s.HourlyBuckets, 24)
	assert.Equal(t, 13, s.HourlyBuckets[13].Hour)
	assert.Equal(t, int64(0), s.Version)
}

func TestBucketAutoHeal(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "", "2026-09-01", 8, now)
	// Simulate an old document deserialized with truncated buckets.
	s.HourlyBuckets = s.HourlyBuckets[:5]

	b := s.Bucket(20)
	assert.Len(t, s.HourlyBuckets, 24)
	assert.Equal(t, 20, b.Hour)

	// Out-of-range hours are coerced instead of panicking.
	assert.Equal(t, 0, s.Bucket(-1).Hour)
	assert.Equal(t, 0, s.Bucket(24).Hour)
}

func TestSlotAndRecomputeOnline(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "", "2026-09-01", 8, now)

	s.Slot("slot_1").IsOnline = true
	s.Slot("slot_2").IsOnline = false
	s.RecomputeOnline()
	assert.True(t, s.IsOnline)

	s.Slot("slot_1").IsOnline = false
	s.RecomputeOnline()
	assert.False(t, s.IsOnline)

	// Slot is created once and reused.
	assert.Len(t, s.Slots, 2)
	s.Slot("slot_1")
	assert.Len(t, s.Slots, 2)
}

func TestRollover(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "grp_1", "2026-08-31", 8, now.Add(-24*time.Hour))
	s.Slot("slot_1").IsOnline = true
	s.RecomputeOnline()
	s.Hours.AccruedHours = 6.5
	s.TotalAdPlays = 42
	s.TotalQrScans = 7
	s.DistanceKm = 120
	s.Version = 9
	s.CurrentLocation = &GeoPoint{Latitude: 52.52, Longitude: 13.405}
	s.AdPlaybacks = append(s.AdPlaybacks, AdPlayback{ID: "pb_1"})

	s.Rollover("2026-09-01", now)

	assert.Equal(t, "2026-09-01", s.Date)
	assert.Equal(t, 0.0, s.Hours.AccruedHours)
	assert.Equal(t, CompliancePending, s.Hours.Status)
	assert.Equal(t, now, s.Hours.LastAccrual)
	assert.Zero(t, s.TotalAdPlays)
	assert.Zero(t, s.TotalQrScans)
	assert.Zero(t, s.DistanceKm)
	assert.Empty(t, s.AdPlaybacks)
	assert.Empty(t, s.Hours.OfflineIntervals)
	// New date means a new row: version restarts.
	assert.Equal(t, int64(0), s.Version)
	// Slot topology and position survive the boundary.
	assert.Len(t, s.Slots, 1)
	assert.True(t, s.IsOnline)
	assert.NotNil(t, s.CurrentLocation)
}

func TestRolloverWhileOffline(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "", "2026-08-31", 8, now.Add(-24*time.Hour))

	s.Rollover("2026-09-01", now)

	// An offline vehicle starts its new day inside an open offline interval.
	require.Len(t, s.Hours.OfflineIntervals, 1)
	assert.Equal(t, now, s.Hours.OfflineIntervals[0].Start)
	assert.True(t, s.Hours.OfflineIntervals[0].End.IsZero())
}

func TestClone(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "", "2026-09-01", 8, now)
	s.Perf("ad_1").PlayCount = 3
	s.LocationHistory = append(s.LocationHistory, GeoPoint{Latitude: 1, Longitude: 2})

	clone, err := s.Clone()
	require.NoError(t, err)

	clone.Perf("ad_1").PlayCount = 99
	clone.LocationHistory[0].Latitude = 50

	assert.Equal(t, 3, s.AdStats["ad_1"].PlayCount)
	assert.Equal(t, 1.0, s.LocationHistory[0].Latitude)
}

func TestSnapshot(t *testing.T) {
	now := time.Now()
	s := NewLiveSession("veh_1", "", "2026-09-01", 8, now)
	s.Hours.AccruedHours = 5.5
	s.Hours.Status = ComplianceNonCompliant
	s.TotalAdPlays = 10

	snap := s.Snapshot()
	assert.Equal(t, "veh_1", snap.VehicleID)
	assert.InDelta(t, 2.5, snap.HoursRemaining, 1e-9)
	assert.Equal(t, ComplianceNonCompliant, snap.ComplianceStatus)

	// Remaining clamps at zero once the target is met.
	s.Hours.AccruedHours = 9
	assert.Equal(t, 0.0, s.Snapshot().HoursRemaining)
}
