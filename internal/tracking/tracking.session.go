// FilePath: server/hub/internal/tracking/tracking.session.go
package tracking

import (
	"context"
	"time"

	"github.com/itsatony/admova/server/hub/internal/geo"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/timezone"
	nuts "github.com/vaudience/go-nuts"
)

// IngestResult summarizes one batch of device events.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
	Failed   int `json:"failed"`
}

// Ingest dispatches a batch of tagged device events. Malformed events are
// dropped and logged, never surfaced as failures to the device; storage
// failures count as failed but do not abort the batch.
func (s *Service) Ingest(ctx context.Context, events []models.DeviceEvent) *IngestResult {
	result := &IngestResult{}
	for i := range events {
		event := &events[i]
		if err := event.Validate(); err != nil {
			nuts.L.Warnf("[Ingest] Dropping invalid %s event from vehicle %q: %v", event.Type, event.VehicleID, err)
			result.Dropped++
			continue
		}

		var err error
		switch event.Type {
		case models.EventTypeLocation:
			err = s.ReportLocation(ctx, event.VehicleID, models.GeoPoint{
				Latitude:  event.Location.Latitude,
				Longitude: event.Location.Longitude,
				Speed:     event.Location.Speed,
				Heading:   event.Location.Heading,
				Accuracy:  event.Location.Accuracy,
				Timestamp: event.Timestamp,
			})
		case models.EventTypePlayback:
			err = s.ReportAdPlayback(ctx, event.VehicleID, event.SlotID, event.Playback.AdID,
				event.Playback.DurationSeconds, event.Playback.ViewTimeSeconds, event.Timestamp)
		case models.EventTypeQrScan:
			err = s.ReportQrScan(ctx, event.VehicleID, event.SlotID, event.QrScan.AdID,
				event.QrScan.Payload, event.QrScan.Converted, event.Timestamp)
		case models.EventTypeOnline:
			err = s.SetOnline(ctx, event.VehicleID, event.SlotID, event.Online.Online, event.Timestamp)
		}
		if err != nil {
			nuts.L.Warnf("[Ingest] Failed to apply %s event for vehicle %s: %v", event.Type, event.VehicleID, err)
			result.Failed++
			continue
		}
		result.Accepted++
	}
	return result
}

// ReportLocation appends a GPS fix to the session's bounded location
// history, advances the day's distance via great-circle delta and updates
// the hourly bucket's speed/distance counters. Malformed coordinates are
// dropped silently so they can never corrupt the aggregates.
func (s *Service) ReportLocation(ctx context.Context, vehicleID string, point models.GeoPoint) error {
	if !models.ValidCoordinate(point.Latitude, point.Longitude) {
		nuts.L.Warnf("[Tracking] Dropping malformed location for vehicle %s: (%v, %v)",
			vehicleID, point.Latitude, point.Longitude)
		return nil
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = time.Now()
	}

	_, err := s.mutateSession(ctx, vehicleID, point.Timestamp, func(session *models.LiveSession) error {
		if n := len(session.LocationHistory); n > 0 &&
			point.Timestamp.Before(session.LocationHistory[n-1].Timestamp) {
			nuts.L.Warnf("[Tracking] Dropping out-of-order location for vehicle %s at %s",
				vehicleID, point.Timestamp.Format(time.RFC3339))
			return nil
		}

		previous := session.CurrentLocation
		session.LocationHistory = append(session.LocationHistory, point)
		if overflow := len(session.LocationHistory) - s.cfg.LocationCap; overflow > 0 {
			session.LocationHistory = session.LocationHistory[overflow:]
		}
		session.CurrentLocation = &point

		hour := point.Timestamp.In(s.resolver.ForSession(session)).Hour()
		bucket := session.Bucket(hour)

		if previous != nil && models.ValidCoordinate(previous.Latitude, previous.Longitude) {
			delta := geo.DistanceKm(previous.Latitude, previous.Longitude, point.Latitude, point.Longitude)
			session.DistanceKm += delta
			bucket.DistanceKm += delta
		}

		bucket.SpeedSamples++
		bucket.AvgSpeed += (point.Speed - bucket.AvgSpeed) / float64(bucket.SpeedSamples)
		if point.Speed > bucket.MaxSpeed {
			bucket.MaxSpeed = point.Speed
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.touchVehicle(ctx, vehicleID, point.Timestamp)
	return nil
}

// ReportAdPlayback records one advertisement playback on a slot and updates
// the per-ad performance accumulator and hourly bucket.
func (s *Service) ReportAdPlayback(ctx context.Context, vehicleID, slotID, adID string, durationSeconds, viewTimeSeconds float64, at time.Time) error {
	if adID == "" || durationSeconds <= 0 || viewTimeSeconds < 0 {
		nuts.L.Warnf("[Tracking] Dropping malformed playback for vehicle %s (ad=%q duration=%v view=%v)",
			vehicleID, adID, durationSeconds, viewTimeSeconds)
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	completion := viewTimeSeconds / durationSeconds * 100
	if completion > 100 {
		completion = 100
	}

	_, err := s.mutateSession(ctx, vehicleID, at, func(session *models.LiveSession) error {
		playback := models.AdPlayback{
			ID:              nuts.NID("pb", 12),
			AdID:            adID,
			SlotID:          slotID,
			StartedAt:       at,
			DurationSeconds: durationSeconds,
			ViewTimeSeconds: viewTimeSeconds,
			CompletionRate:  completion,
		}
		session.AdPlaybacks = append(session.AdPlaybacks, playback)
		if overflow := len(session.AdPlaybacks) - s.cfg.PlaybackCap; overflow > 0 {
			session.AdPlaybacks = session.AdPlaybacks[overflow:]
		}
		session.CurrentAd = &playback
		session.TotalAdPlays++

		perf := session.Perf(adID)
		perf.PlayCount++
		perf.Impressions++
		perf.TotalViewTimeSeconds += viewTimeSeconds
		perf.AvgViewTimeSeconds = perf.TotalViewTimeSeconds / float64(perf.PlayCount)
		perf.CompletionRate += (completion - perf.CompletionRate) / float64(perf.PlayCount)
		if perf.FirstPlayedAt.IsZero() {
			perf.FirstPlayedAt = at
		}
		perf.LastPlayedAt = at

		hour := at.In(s.resolver.ForSession(session)).Hour()
		session.Bucket(hour).AdPlays++
		return nil
	})
	if err != nil {
		return err
	}

	s.touchVehicle(ctx, vehicleID, at)
	return nil
}

// ReportQrScan records one QR scan. Scans are uncapped within the day.
func (s *Service) ReportQrScan(ctx context.Context, vehicleID, slotID, adID, payload string, converted bool, at time.Time) error {
	if adID == "" {
		nuts.L.Warnf("[Tracking] Dropping malformed QR scan for vehicle %s: missing ad id", vehicleID)
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.mutateSession(ctx, vehicleID, at, func(session *models.LiveSession) error {
		session.QrScans = append(session.QrScans, models.QrScan{
			ID:        nuts.NID("qr", 12),
			AdID:      adID,
			SlotID:    slotID,
			Payload:   payload,
			ScannedAt: at,
			Converted: converted,
		})
		session.TotalQrScans++

		perf := session.Perf(adID)
		perf.ScanCount++
		if perf.FirstScannedAt.IsZero() {
			perf.FirstScannedAt = at
		}
		perf.LastScannedAt = at

		hour := at.In(s.resolver.ForSession(session)).Hour()
		session.Bucket(hour).QrScans++
		return nil
	})
	return err
}

// SetOnline toggles one slot and recomputes the vehicle-level online flag.
// Going fully offline closes the accrual window at the transition instant
// and opens an offline interval; coming back online closes the interval and
// restarts accrual from the reconnection time, so offline hours are never
// accrued and accrued hours never decay.
func (s *Service) SetOnline(ctx context.Context, vehicleID, slotID string, online bool, at time.Time) error {
	if slotID == "" {
		nuts.L.Warnf("[Tracking] Dropping online toggle for vehicle %s: missing slot id", vehicleID)
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.mutateSession(ctx, vehicleID, at, func(session *models.LiveSession) error {
		slot := session.Slot(slotID)
		slot.IsOnline = online
		slot.LastSeen = at

		wasOnline := session.IsOnline
		session.RecomputeOnline()

		switch {
		case wasOnline && !session.IsOnline:
			s.accrue(session, at)
			session.Hours.OfflineIntervals = append(session.Hours.OfflineIntervals,
				models.OfflineInterval{Start: at})
			nuts.L.Infof("[Tracking] Vehicle %s went offline at %s", vehicleID, at.Format(time.RFC3339))
		case !wasOnline && session.IsOnline:
			intervals := session.Hours.OfflineIntervals
			if n := len(intervals); n > 0 && intervals[n-1].End.IsZero() {
				intervals[n-1].End = at
				intervals[n-1].DurationMinutes = timezone.ElapsedHours(intervals[n-1].Start, at) * 60
			}
			session.Hours.LastAccrual = at
			nuts.L.Infof("[Tracking] Vehicle %s back online at %s", vehicleID, at.Format(time.RFC3339))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.touchVehicle(ctx, vehicleID, at)
	return nil
}

// touchVehicle updates the registry's last-seen timestamp. Best effort.
func (s *Service) touchVehicle(ctx context.Context, vehicleID string, at time.Time) {
	if err := s.vehicles.UpdateLastSeen(ctx, vehicleID, at); err != nil {
		nuts.L.Debugf("[Tracking] Failed to update last seen for vehicle %s: %v", vehicleID, err)
	}
}
