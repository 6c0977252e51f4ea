// FilePath: server/hub/internal/tracking/tracking.go

// Package tracking is the telemetry/archival core of the hub: live per-day
// vehicle sessions, compliance-hours accrual, the archival merge into
// per-vehicle timelines and the advertiser rollup job.
package tracking

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itsatony/admova/server/hub/internal/config"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
	"github.com/itsatony/admova/server/hub/internal/timezone"
	nuts "github.com/vaudience/go-nuts"
)

const lockStripes = 64

// Events emitted by the service.
const (
	EventSessionArchived = "session.archived"
	EventSessionRollover = "session.rollover"
	EventRollupUpdated   = "rollup.updated"
)

// Service coordinates live sessions, timelines and rollups. Ingestion calls
// for the same vehicle are serialized through striped per-vehicle locks;
// cross-process races are caught by the session store's version check and
// retried a bounded number of times.
type Service struct {
	sessions   repository.SessionRepository
	timelines  repository.TimelineRepository
	rollups    repository.RollupRepository
	placements repository.PlacementRegistry
	vehicles   repository.VehicleRepository
	cache      repository.SnapshotCache
	resolver   *timezone.Resolver
	cfg        config.TrackingConfig

	Events *nuts.EventEmitter

	locks       [lockStripes]sync.Mutex
	accrualBusy atomic.Bool
	archiveBusy atomic.Bool
	rollupBusy  atomic.Bool
}

// New creates the tracking service. The snapshot cache may be nil.
func New(
	sessions repository.SessionRepository,
	timelines repository.TimelineRepository,
	rollups repository.RollupRepository,
	placements repository.PlacementRegistry,
	vehicles repository.VehicleRepository,
	cache repository.SnapshotCache,
	resolver *timezone.Resolver,
	cfg config.TrackingConfig,
) *Service {
	if cfg.TargetHours <= 0 {
		cfg.TargetHours = models.DefaultTargetHours
	}
	if cfg.LocationCap <= 0 {
		cfg.LocationCap = models.LocationHistoryCap
	}
	if cfg.PlaybackCap <= 0 {
		cfg.PlaybackCap = models.AdPlaybackCap
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 50 * time.Millisecond
	}
	if cfg.RollupWindowDays <= 0 {
		cfg.RollupWindowDays = 30
	}
	return &Service{
		sessions:   sessions,
		timelines:  timelines,
		rollups:    rollups,
		placements: placements,
		vehicles:   vehicles,
		cache:      cache,
		resolver:   resolver,
		cfg:        cfg,
		Events:     nuts.NewEventEmitter(),
	}
}

// Validate checks if all required dependencies are initialized
func (s *Service) Validate() error {
	if s.sessions == nil {
		return ErrMissingDependency("sessions")
	}
	if s.timelines == nil {
		return ErrMissingDependency("timelines")
	}
	if s.rollups == nil {
		return ErrMissingDependency("rollups")
	}
	if s.placements == nil {
		return ErrMissingDependency("placements")
	}
	if s.vehicles == nil {
		return ErrMissingDependency("vehicles")
	}
	if s.resolver == nil {
		return ErrMissingDependency("resolver")
	}
	return nil
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}

func (s *Service) lockFor(vehicleID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(vehicleID))
	return &s.locks[h.Sum32()%lockStripes]
}

// mutateSession loads (or lazily creates) the current session for a vehicle,
// rolls it forward across a local-day boundary when needed, applies fn and
// saves. A version conflict triggers a reload-and-reapply retry with fixed
// backoff; after the bounded attempts the update is surfaced as failed.
func (s *Service) mutateSession(ctx context.Context, vehicleID string, at time.Time, fn func(session *models.LiveSession) error) (*models.LiveSession, error) {
	lock := s.lockFor(vehicleID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.cfg.RetryBackoff * time.Duration(attempt))
		}

		session, err := s.loadOrCreateSession(ctx, vehicleID, at)
		if err != nil {
			return nil, err
		}

		if err := fn(session); err != nil {
			return nil, err
		}
		session.UpdatedAt = time.Now()

		err = s.sessions.Save(ctx, session)
		if err == nil {
			s.cacheSnapshot(ctx, session)
			return session, nil
		}
		if err != repository.ErrConflict {
			return nil, err
		}
		lastErr = err
		nuts.L.Warnf("[Tracking] Version conflict for vehicle %s (attempt %d/%d), reloading",
			vehicleID, attempt+1, s.cfg.RetryAttempts)
	}
	return nil, errors.NewConflictError("session update failed after retries", lastErr)
}

// loadOrCreateSession returns the session the given instant belongs to. A
// vehicle that resumes after being dormant gets yesterday's row migrated
// forward: the closing day's final state is folded into the timeline first,
// then counters reset for the new date; the old row stays addressable.
func (s *Service) loadOrCreateSession(ctx context.Context, vehicleID string, at time.Time) (*models.LiveSession, error) {
	session, err := s.sessions.GetLatest(ctx, vehicleID)
	if err == repository.ErrNotFound {
		return s.newSession(ctx, vehicleID, at), nil
	}
	if err != nil {
		return nil, err
	}

	loc := s.resolver.ForSession(session)
	date := timezone.LocalDate(at, loc)
	if date > session.Date {
		nuts.L.Infof("[Tracking] Day rollover for vehicle %s: %s -> %s", vehicleID, session.Date, date)
		// Events ingested since the archival job's last pass would otherwise
		// never reach the closing day's record: once the new row exists the
		// sweep only sees the latest row per vehicle. Failing here keeps the
		// old row current so the next call retries the fold.
		if err := s.ArchiveSession(ctx, session, SourceDayRollover); err != nil {
			return nil, err
		}
		session.Rollover(date, at)
		s.Events.Emit(EventSessionRollover, vehicleID)
	}
	return session, nil
}

func (s *Service) newSession(ctx context.Context, vehicleID string, at time.Time) *models.LiveSession {
	groupID := ""
	tz := ""
	target := s.cfg.TargetHours

	vehicle, err := s.vehicles.Get(ctx, vehicleID)
	if err == nil {
		groupID = vehicle.GroupID
		tz = vehicle.Timezone
		if vehicle.TargetHours > 0 {
			target = vehicle.TargetHours
		}
	} else if err != repository.ErrNotFound {
		nuts.L.Warnf("[Tracking] Vehicle lookup failed for %s: %v", vehicleID, err)
	}

	loc := s.resolver.Fallback()
	if tz != "" {
		if l, lerr := time.LoadLocation(tz); lerr == nil {
			loc = l
		}
	}
	session := models.NewLiveSession(vehicleID, groupID, timezone.LocalDate(at, loc), target, at)
	session.Timezone = tz
	nuts.L.Infof("[Tracking] New live session for vehicle %s on %s", vehicleID, session.Date)
	return session
}

// cacheSnapshot write-throughs the dashboard view. Best effort only.
func (s *Service) cacheSnapshot(ctx context.Context, session *models.LiveSession) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLiveSnapshot(ctx, session.Snapshot()); err != nil {
		nuts.L.Warnf("[Tracking] Failed to cache snapshot for vehicle %s: %v", session.VehicleID, err)
	}
}

// GetLiveSnapshot serves the live dashboard view, cache first.
func (s *Service) GetLiveSnapshot(ctx context.Context, vehicleID string) (*models.LiveSnapshot, error) {
	if s.cache != nil {
		if snapshot, err := s.cache.GetLiveSnapshot(ctx, vehicleID); err == nil {
			return snapshot, nil
		}
	}
	session, err := s.sessions.GetLatest(ctx, vehicleID)
	if err == repository.ErrNotFound {
		return nil, errors.NewNotFoundError("no live session for vehicle", err)
	}
	if err != nil {
		return nil, err
	}
	return session.Snapshot(), nil
}

// TimelinePage is a date-windowed slice of a vehicle's timeline.
type TimelinePage struct {
	VehicleID      string                `json:"vehicle_id"`
	Records        []models.DailyRecord  `json:"records"`
	LifetimeTotals models.LifetimeTotals `json:"lifetime_totals"`
	TotalRecords   int                   `json:"total_records"`
	Offset         int                   `json:"offset"`
	Limit          int                   `json:"limit"`
}

// GetTimelinePage reads a vehicle's archived history restricted to a date
// window, paginated. Lifetime totals always cover the full timeline.
func (s *Service) GetTimelinePage(ctx context.Context, vehicleID string, filters models.TimelineFilters) (*TimelinePage, error) {
	timeline, err := s.timelines.Get(ctx, vehicleID)
	if err == repository.ErrNotFound {
		return nil, errors.NewNotFoundError("no timeline for vehicle", err)
	}
	if err != nil {
		return nil, err
	}

	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 31
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	matched := make([]models.DailyRecord, 0, len(timeline.Records))
	for _, record := range timeline.Records {
		if filters.StartDate != "" && record.Date < filters.StartDate {
			continue
		}
		if filters.EndDate != "" && record.Date > filters.EndDate {
			continue
		}
		matched = append(matched, record)
	}

	total := len(matched)
	start := filters.Offset
	if start > total {
		start = total
	}
	end := start + filters.Limit
	if end > total {
		end = total
	}

	return &TimelinePage{
		VehicleID:      vehicleID,
		Records:        matched[start:end],
		LifetimeTotals: timeline.Totals,
		TotalRecords:   total,
		Offset:         filters.Offset,
		Limit:          filters.Limit,
	}, nil
}

// GetUpdateTracking serves the operational introspection view.
func (s *Service) GetUpdateTracking(ctx context.Context, vehicleID string) (*models.UpdateTracking, error) {
	timeline, err := s.timelines.Get(ctx, vehicleID)
	if err == repository.ErrNotFound {
		return nil, errors.NewNotFoundError("no timeline for vehicle", err)
	}
	if err != nil {
		return nil, err
	}
	return timeline.Tracking(), nil
}

// GetRollup returns the stored rollup for an advertiser.
func (s *Service) GetRollup(ctx context.Context, advertiserID string) (*models.AdvertiserRollup, error) {
	rollup, err := s.rollups.Get(ctx, advertiserID)
	if err == repository.ErrNotFound {
		return nil, errors.NewNotFoundError("no rollup for advertiser", err)
	}
	if err != nil {
		return nil, err
	}
	return rollup, nil
}
