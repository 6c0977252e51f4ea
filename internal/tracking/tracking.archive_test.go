// FilePath: server/hub/internal/tracking/tracking.archive_test.go
package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, vehicleID, date string) *models.LiveSession {
	t.Helper()
	now := time.Now()
	s := models.NewLiveSession(vehicleID, "grp_1", date, 8, now)
	s.Hours.AccruedHours = 6
	s.Hours.Status = models.ComplianceNonCompliant
	s.TotalAdPlays = 3
	s.TotalQrScans = 1
	s.DistanceKm = 42
	s.AdPlaybacks = []models.AdPlayback{
		{ID: "pb_1", AdID: "ad_1", StartedAt: now.Add(-3 * time.Hour)},
		{ID: "pb_2", AdID: "ad_1", StartedAt: now.Add(-2 * time.Hour)},
		{ID: "pb_3", AdID: "ad_2", StartedAt: now.Add(-time.Hour)},
	}
	s.QrScans = []models.QrScan{{ID: "qr_1", AdID: "ad_1", ScannedAt: now.Add(-time.Hour)}}
	s.Perf("ad_1").PlayCount = 2
	s.Perf("ad_1").Impressions = 2
	s.Perf("ad_2").PlayCount = 1
	s.Perf("ad_2").Impressions = 1
	return s
}

func TestArchiveSessionCreatesTimeline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := seedSession(t, "veh_1", "2026-08-30")

	require.NoError(t, f.svc.ArchiveSession(ctx, s, SourceArchiveJob))

	tl, err := f.timelines.Get(ctx, "veh_1")
	require.NoError(t, err)
	require.Len(t, tl.Records, 1)

	record := tl.Records[0]
	assert.Equal(t, "2026-08-30", record.Date)
	assert.Equal(t, 6.0, record.OnlineHours)
	assert.Equal(t, 3, record.TotalAdPlays)
	assert.Equal(t, 1, record.UpdateCount)
	assert.Equal(t, SourceArchiveJob, record.UpdateSource)

	assert.Equal(t, 1, tl.Totals.Days)
	assert.Equal(t, 6.0, tl.Totals.TotalOnlineHours)
	assert.Equal(t, 3, tl.Totals.TotalAdPlays)
	assert.Equal(t, 1, tl.UpdateCount)
	assert.Equal(t, SourceArchiveJob, tl.LastUpdateSource)
}

func TestArchiveSessionIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := seedSession(t, "veh_1", "2026-08-30")

	require.NoError(t, f.svc.ArchiveSession(ctx, s, SourceArchiveJob))
	first, err := f.timelines.Get(ctx, "veh_1")
	require.NoError(t, err)

	// Re-archiving the identical session state must not change any data,
	// only the bookkeeping counters.
	require.NoError(t, f.svc.ArchiveSession(ctx, s, SourceArchiveJob))
	second, err := f.timelines.Get(ctx, "veh_1")
	require.NoError(t, err)

	require.Len(t, second.Records, 1)
	assert.Len(t, second.Records[0].AdPlaybacks, 3)
	assert.Len(t, second.Records[0].QrScans, 1)
	assert.Equal(t, first.Records[0].OnlineHours, second.Records[0].OnlineHours)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, 2, second.UpdateCount)
	assert.Equal(t, 2, second.Records[0].UpdateCount)
}

func TestArchiveSessionIntraDayGrowth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := seedSession(t, "veh_1", "2026-08-30")

	require.NoError(t, f.svc.ArchiveSession(ctx, s, SourceArchiveJob))

	// The day continues: more hours, one more playback.
	s.Hours.AccruedHours = 8
	s.Hours.Status = models.ComplianceCompliant
	s.TotalAdPlays = 4
	s.AdPlaybacks = append(s.AdPlaybacks, models.AdPlayback{
		ID: "pb_4", AdID: "ad_2", StartedAt: time.Now(),
	})

	require.NoError(t, f.svc.ArchiveSession(ctx, s, SourceManualTrigger))

	tl, err := f.timelines.Get(ctx, "veh_1")
	require.NoError(t, err)
	require.Len(t, tl.Records, 1)
	assert.Equal(t, 8.0, tl.Records[0].OnlineHours)
	assert.Equal(t, models.ComplianceCompliant, tl.Records[0].ComplianceStatus)
	assert.Len(t, tl.Records[0].AdPlaybacks, 4)
	assert.Equal(t, SourceManualTrigger, tl.LastUpdateSource)
	assert.Equal(t, 8.0, tl.Totals.TotalOnlineHours)
	assert.Equal(t, 1, tl.Totals.CompliantDays)
}

func TestArchiveKeepsDatesSorted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, date := range []string{"2026-08-30", "2026-08-28", "2026-08-29"} {
		s := seedSession(t, "veh_1", date)
		require.NoError(t, f.svc.ArchiveSession(ctx, s, SourceArchiveJob))
	}

	tl, err := f.timelines.Get(ctx, "veh_1")
	require.NoError(t, err)
	require.Len(t, tl.Records, 3)
	assert.Equal(t, "2026-08-28", tl.Records[0].Date)
	assert.Equal(t, "2026-08-29", tl.Records[1].Date)
	assert.Equal(t, "2026-08-30", tl.Records[2].Date)
	assert.Equal(t, 3, tl.Totals.Days)
	assert.Equal(t, 18.0, tl.Totals.TotalOnlineHours)
	assert.InDelta(t, 6.0, tl.Totals.AvgDailyHours, 1e-9)
}

func TestRunArchiveSweepsFleet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"veh_1", "veh_2"} {
		s := seedSession(t, id, todayUTC())
		require.NoError(t, f.sessions.Save(ctx, s))
	}

	require.NoError(t, f.svc.RunArchive(ctx))

	for _, id := range []string{"veh_1", "veh_2"} {
		tl, err := f.timelines.Get(ctx, id)
		require.NoError(t, err, id)
		assert.Len(t, tl.Records, 1)
		assert.Equal(t, SourceArchiveJob, tl.LastUpdateSource)
	}
}

func TestMergeDailyRecordPlaybackUnion(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	existing := &models.DailyRecord{
		Date: "2026-08-30",
		AdPlaybacks: []models.AdPlayback{
			{ID: "pb_1", AdID: "ad_1", StartedAt: now},
			{ID: "pb_2", AdID: "ad_1", StartedAt: now.Add(time.Minute)},
			{ID: "pb_3", AdID: "ad_2", StartedAt: now.Add(2 * time.Minute)},
		},
		UpdateCount: 1,
	}
	timeline := models.NewTimeline("veh_1", "", now)
	timeline.Records = append(timeline.Records, *existing)

	// Incoming snapshot shares pb_3's dedup key and adds one new playback.
	incoming := &models.DailyRecord{
		Date: "2026-08-30",
		AdPlaybacks: []models.AdPlayback{
			{ID: "pb_3b", AdID: "ad_2", StartedAt: now.Add(2 * time.Minute)},
			{ID: "pb_4", AdID: "ad_2", StartedAt: now.Add(3 * time.Minute)},
		},
		UpdateCount: 1,
	}

	MergeDailyRecord(timeline, incoming, 960, 800)

	require.Len(t, timeline.Records, 1)
	merged := timeline.Records[0]
	assert.Len(t, merged.AdPlaybacks, 4)
	assert.Equal(t, 2, merged.UpdateCount)
	// Chronological order is preserved after the union.
	for i := 1; i < len(merged.AdPlaybacks); i++ {
		assert.False(t, merged.AdPlaybacks[i].StartedAt.Before(merged.AdPlaybacks[i-1].StartedAt))
	}
}

func TestMergeDailyRecordLocationTrim(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	timeline := models.NewTimeline("veh_1", "", now)

	var existing models.DailyRecord
	existing.Date = "2026-08-30"
	for i := 0; i < 4; i++ {
		existing.LocationHistory = append(existing.LocationHistory, models.GeoPoint{
			Latitude: 52, Longitude: 13, Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
	}
	timeline.Records = append(timeline.Records, existing)

	incoming := &models.DailyRecord{Date: "2026-08-30"}
	for i := 3; i < 7; i++ {
		incoming.LocationHistory = append(incoming.LocationHistory, models.GeoPoint{
			Latitude: 52, Longitude: 13, Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
	}

	MergeDailyRecord(timeline, incoming, 5, 800)

	merged := timeline.Records[0]
	// Union is 7 distinct timestamps, trimmed from the front to the cap.
	require.Len(t, merged.LocationHistory, 5)
	assert.Equal(t, now.Add(2*time.Minute), merged.LocationHistory[0].Timestamp)
	assert.Equal(t, now.Add(6*time.Minute), merged.LocationHistory[4].Timestamp)
}

func TestMergeDailyRecordNewestStatsWin(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	timeline := models.NewTimeline("veh_1", "", now)
	timeline.Records = append(timeline.Records, models.DailyRecord{
		Date: "2026-08-30",
		AdStats: map[string]*models.AdPerformance{
			"ad_1": {AdID: "ad_1", PlayCount: 2, Impressions: 2},
			"ad_2": {AdID: "ad_2", PlayCount: 5, Impressions: 5},
		},
		OnlineHours: 4,
	})

	incoming := &models.DailyRecord{
		Date: "2026-08-30",
		AdStats: map[string]*models.AdPerformance{
			"ad_1": {AdID: "ad_1", PlayCount: 7, Impressions: 7},
		},
		OnlineHours: 6,
	}

	MergeDailyRecord(timeline, incoming, 960, 800)

	merged := timeline.Records[0]
	// Overlapping keys are overwritten, not summed; stale-only keys stay.
	assert.Equal(t, 7, merged.AdStats["ad_1"].PlayCount)
	assert.Equal(t, 5, merged.AdStats["ad_2"].PlayCount)
	assert.Equal(t, 6.0, merged.OnlineHours)
}

func TestComputeLifetimeTotals(t *testing.T) {
	records := []models.DailyRecord{
		{Date: "2026-08-28", OnlineHours: 8, ComplianceStatus: models.ComplianceCompliant, TotalAdPlays: 10, TotalQrScans: 2, DistanceKm: 100},
		{Date: "2026-08-29", OnlineHours: 4, ComplianceStatus: models.ComplianceNonCompliant, TotalAdPlays: 5, TotalQrScans: 1, DistanceKm: 50},
	}

	totals := ComputeLifetimeTotals(records)
	assert.Equal(t, 2, totals.Days)
	assert.Equal(t, 12.0, totals.TotalOnlineHours)
	assert.Equal(t, 6.0, totals.AvgDailyHours)
	assert.Equal(t, 1, totals.CompliantDays)
	assert.Equal(t, 50.0, totals.ComplianceRate)
	assert.Equal(t, 15, totals.TotalAdPlays)
	assert.Equal(t, 3, totals.TotalQrScans)
	assert.Equal(t, 150.0, totals.TotalDistanceKm)

	// Empty history never divides by zero.
	assert.Equal(t, models.LifetimeTotals{}, ComputeLifetimeTotals(nil))
}

func TestRolloverArchivesClosingDayTail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dayStart := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	require.NoError(t, f.svc.ReportAdPlayback(ctx, "veh_1", "slot_1", "ad_1", 30, 30, dayStart))
	require.NoError(t, f.svc.RunArchive(ctx))

	// The day is not over: one more playback lands after the sweep.
	require.NoError(t, f.svc.ReportAdPlayback(ctx, "veh_1", "slot_1", "ad_2", 30, 30, dayStart.Add(time.Hour)))

	// First event of the next local day triggers the rollover. The closing
	// day's tail must be folded into the timeline before the counters reset;
	// the archival sweep only ever sees the latest row per vehicle.
	require.NoError(t, f.svc.ReportQrScan(ctx, "veh_1", "slot_1", "ad_1", "", false, dayStart.Add(24*time.Hour)))

	tl, err := f.timelines.Get(ctx, "veh_1")
	require.NoError(t, err)
	record := tl.Record("2026-08-30")
	require.NotNil(t, record)
	assert.Len(t, record.AdPlaybacks, 2)
	assert.Equal(t, 2, record.TotalAdPlays)
	assert.Equal(t, SourceDayRollover, record.UpdateSource)
	assert.Equal(t, 2, tl.Totals.TotalAdPlays)

	// The new day's session starts clean and carries only the scan.
	s := f.session(t, "veh_1")
	assert.Equal(t, "2026-08-31", s.Date)
	assert.Zero(t, s.TotalAdPlays)
	assert.Equal(t, 1, s.TotalQrScans)
}
