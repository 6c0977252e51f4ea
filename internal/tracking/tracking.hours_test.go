// FilePath: server/hub/internal/tracking/tracking.hours_test.go
package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccrue(t *testing.T) {
	f := newFixture(t)
	y, m, d := time.Now().UTC().Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	t.Run("full working day reaches compliance", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", todayUTC(), 8, dayStart.Add(8*time.Hour))
		f.svc.accrue(s, dayStart.Add(16*time.Hour))

		assert.InDelta(t, 8.0, s.Hours.AccruedHours, 1e-9)
		assert.Equal(t, models.ComplianceCompliant, s.Hours.Status)
	})

	t.Run("partial day is non-compliant", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", todayUTC(), 8, dayStart.Add(8*time.Hour))
		f.svc.accrue(s, dayStart.Add(10*time.Hour))

		assert.InDelta(t, 2.0, s.Hours.AccruedHours, 1e-9)
		assert.Equal(t, models.ComplianceNonCompliant, s.Hours.Status)
	})

	t.Run("accrual caps at the daily target", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", todayUTC(), 8, dayStart.Add(6*time.Hour))
		f.svc.accrue(s, dayStart.Add(18*time.Hour))

		assert.InDelta(t, 8.0, s.Hours.AccruedHours, 1e-9)
		assert.Equal(t, models.ComplianceCompliant, s.Hours.Status)
	})

	t.Run("zero elapsed leaves status pending", func(t *testing.T) {
		at := dayStart.Add(9 * time.Hour)
		s := models.NewLiveSession("veh_1", "", todayUTC(), 8, at)
		f.svc.accrue(s, at)

		assert.Zero(t, s.Hours.AccruedHours)
		assert.Equal(t, models.CompliancePending, s.Hours.Status)
	})

	t.Run("accrual advances the anchor", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", todayUTC(), 8, dayStart.Add(8*time.Hour))
		first := dayStart.Add(9 * time.Hour)
		f.svc.accrue(s, first)
		assert.Equal(t, first, s.Hours.LastAccrual)

		// A second tick only adds the new span.
		f.svc.accrue(s, first.Add(30*time.Minute))
		assert.InDelta(t, 1.5, s.Hours.AccruedHours, 1e-9)
	})

	t.Run("online minutes land in the hourly bucket", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", todayUTC(), 8, dayStart.Add(14*time.Hour))
		f.svc.accrue(s, dayStart.Add(14*time.Hour+30*time.Minute))

		assert.InDelta(t, 30.0, s.Bucket(14).OnlineMinutes, 1e-6)
	})
}

func TestRunAccrual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	online := models.NewLiveSession("veh_online", "", todayUTC(), 8, now.Add(-2*time.Hour))
	online.Slot("slot_1").IsOnline = true
	online.RecomputeOnline()
	require.NoError(t, f.sessions.Save(ctx, online))

	offline := models.NewLiveSession("veh_offline", "", todayUTC(), 8, now.Add(-2*time.Hour))
	require.NoError(t, f.sessions.Save(ctx, offline))

	require.NoError(t, f.svc.RunAccrual(ctx))

	got := f.session(t, "veh_online")
	assert.InDelta(t, 2.0, got.Hours.AccruedHours, 0.05)
	assert.Equal(t, models.ComplianceNonCompliant, got.Hours.Status)

	// Offline sessions are untouched; accrued hours never decay.
	got = f.session(t, "veh_offline")
	assert.Zero(t, got.Hours.AccruedHours)
	assert.Equal(t, models.CompliancePending, got.Hours.Status)
}

func TestRunAccrualSkipsFailingVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	s := models.NewLiveSession("veh_1", "", todayUTC(), 8, now.Add(-time.Hour))
	s.Slot("slot_1").IsOnline = true
	s.RecomputeOnline()
	require.NoError(t, f.sessions.Save(ctx, s))

	// Persistent conflicts on one vehicle must not fail the whole run.
	f.sessions.ConflictNext = 10
	require.NoError(t, f.svc.RunAccrual(ctx))
}
