// FilePath: server/hub/internal/tracking/tracking.archive.go
package tracking

import (
	"context"
	"sort"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Update sources recorded on timelines for observability.
const (
	SourceArchiveJob    = "archive_job"
	SourceManualTrigger = "manual_trigger"
	SourceDayRollover   = "day_rollover"
)

// RunArchive folds every vehicle's current live session into its timeline.
// Single-flight: an overlapping invocation no-ops instead of queueing. A
// failure on one vehicle skips that vehicle and continues; the next
// scheduled run retries.
func (s *Service) RunArchive(ctx context.Context) error {
	return s.runArchive(ctx, SourceArchiveJob)
}

// TriggerArchive runs the archival job on demand, tagged as manual for the
// introspection view.
func (s *Service) TriggerArchive(ctx context.Context) error {
	return s.runArchive(ctx, SourceManualTrigger)
}

func (s *Service) runArchive(ctx context.Context, source string) error {
	if !s.archiveBusy.CompareAndSwap(false, true) {
		nuts.L.Infof("[ArchivalJob] Run already in progress, skipping")
		return nil
	}
	defer s.archiveBusy.Store(false)

	sessions, err := s.sessions.ListCurrent(ctx)
	if err != nil {
		return err
	}

	archived := 0
	for _, session := range sessions {
		if err := s.ArchiveSession(ctx, session, source); err != nil {
			nuts.L.Warnf("[ArchivalJob] Skipping vehicle %s: %v", session.VehicleID, err)
			continue
		}
		archived++
	}

	nuts.L.Infof("[ArchivalJob] Archived %d of %d sessions", archived, len(sessions))
	return nil
}

// ArchiveSession merges one live session into its vehicle's timeline. The
// session is deep-copied first: the archival snapshot may be slightly stale
// against concurrent ingestion, which the next run picks up. Re-running
// against the same session state is idempotent.
func (s *Service) ArchiveSession(ctx context.Context, session *models.LiveSession, source string) error {
	snapshot, err := session.Clone()
	if err != nil {
		return err
	}
	now := time.Now()
	record := models.NewDailyRecord(snapshot, source, now)

	timeline, err := s.timelines.Get(ctx, session.VehicleID)
	if err == repository.ErrNotFound {
		timeline = models.NewTimeline(session.VehicleID, session.GroupID, now)
	} else if err != nil {
		return err
	}

	MergeDailyRecord(timeline, record, s.cfg.LocationCap, s.cfg.PlaybackCap)

	timeline.Totals = ComputeLifetimeTotals(timeline.Records)
	timeline.UpdateCount++
	timeline.LastArchivedAt = now
	timeline.LastUpdateSource = source

	if err := s.timelines.Save(ctx, timeline); err != nil {
		return err
	}

	s.Events.Emit(EventSessionArchived, session.VehicleID)
	return nil
}

// MergeDailyRecord folds a fresh snapshot record into the timeline:
// append-if-absent in date order, merge-if-present. Event arrays are
// unioned by stable dedup keys and re-trimmed to their caps; keyed
// accumulators (per-ad performance, hourly buckets) take the newer totals
// wholesale, the snapshot being authoritative for "as of now".
func MergeDailyRecord(timeline *models.Timeline, record *models.DailyRecord, locationCap, playbackCap int) {
	existing := timeline.Record(record.Date)
	if existing == nil {
		insertRecordSorted(timeline, record)
		return
	}

	existing.LocationHistory = mergeLocations(existing.LocationHistory, record.LocationHistory, locationCap)
	existing.AdPlaybacks = mergePlaybacks(existing.AdPlaybacks, record.AdPlaybacks, playbackCap)
	existing.QrScans = mergeQrScans(existing.QrScans, record.QrScans)

	// Newest snapshot wins per key. Counts present only in the older record
	// are kept, but overlapping keys are overwritten, not summed.
	if existing.AdStats == nil {
		existing.AdStats = map[string]*models.AdPerformance{}
	}
	for adID, perf := range record.AdStats {
		existing.AdStats[adID] = perf
	}
	existing.HourlyBuckets = record.HourlyBuckets

	existing.OnlineHours = record.OnlineHours
	existing.TargetHours = record.TargetHours
	existing.ComplianceStatus = record.ComplianceStatus
	existing.OfflineIntervals = record.OfflineIntervals
	existing.DistanceKm = record.DistanceKm
	existing.TotalAdPlays = record.TotalAdPlays
	existing.TotalQrScans = record.TotalQrScans
	existing.Timezone = record.Timezone

	existing.ArchivedAt = record.ArchivedAt
	existing.UpdateCount++
	existing.UpdateSource = record.UpdateSource
}

func insertRecordSorted(timeline *models.Timeline, record *models.DailyRecord) {
	idx := sort.Search(len(timeline.Records), func(i int) bool {
		return timeline.Records[i].Date >= record.Date
	})
	timeline.Records = append(timeline.Records, models.DailyRecord{})
	copy(timeline.Records[idx+1:], timeline.Records[idx:])
	timeline.Records[idx] = *record
}

func mergeLocations(existing, incoming []models.GeoPoint, limit int) []models.GeoPoint {
	seen := make(map[int64]bool, len(existing))
	for i := range existing {
		seen[existing[i].Timestamp.UnixNano()] = true
	}
	merged := existing
	for i := range incoming {
		if !seen[incoming[i].Timestamp.UnixNano()] {
			seen[incoming[i].Timestamp.UnixNano()] = true
			merged = append(merged, incoming[i])
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	if overflow := len(merged) - limit; overflow > 0 {
		merged = merged[overflow:]
	}
	return merged
}

type playbackKey struct {
	adID    string
	started int64
}

func mergePlaybacks(existing, incoming []models.AdPlayback, limit int) []models.AdPlayback {
	seen := make(map[playbackKey]bool, len(existing))
	for i := range existing {
		seen[playbackKey{existing[i].AdID, existing[i].StartedAt.UnixNano()}] = true
	}
	merged := existing
	for i := range incoming {
		key := playbackKey{incoming[i].AdID, incoming[i].StartedAt.UnixNano()}
		if !seen[key] {
			seen[key] = true
			merged = append(merged, incoming[i])
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StartedAt.Before(merged[j].StartedAt)
	})
	if overflow := len(merged) - limit; overflow > 0 {
		merged = merged[overflow:]
	}
	return merged
}

type scanKey struct {
	adID    string
	scanned int64
}

func mergeQrScans(existing, incoming []models.QrScan) []models.QrScan {
	seen := make(map[scanKey]bool, len(existing))
	for i := range existing {
		seen[scanKey{existing[i].AdID, existing[i].ScannedAt.UnixNano()}] = true
	}
	merged := existing
	for i := range incoming {
		key := scanKey{incoming[i].AdID, incoming[i].ScannedAt.UnixNano()}
		if !seen[key] {
			seen[key] = true
			merged = append(merged, incoming[i])
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ScannedAt.Before(merged[j].ScannedAt)
	})
	return merged
}

// ComputeLifetimeTotals recomputes the lifetime aggregates from scratch over
// all daily records. Always a full recompute, never an incremental patch;
// that is what keeps the totals drift-free across merges.
func ComputeLifetimeTotals(records []models.DailyRecord) models.LifetimeTotals {
	totals := models.LifetimeTotals{Days: len(records)}
	for i := range records {
		record := &records[i]
		totals.TotalOnlineHours += record.OnlineHours
		totals.TotalAdPlays += record.TotalAdPlays
		totals.TotalQrScans += record.TotalQrScans
		totals.TotalDistanceKm += record.DistanceKm
		if record.ComplianceStatus == models.ComplianceCompliant {
			totals.CompliantDays++
		}
	}
	if totals.Days > 0 {
		totals.AvgDailyHours = totals.TotalOnlineHours / float64(totals.Days)
		totals.ComplianceRate = float64(totals.CompliantDays) / float64(totals.Days) * 100
	}
	return totals
}
