// FilePath: server/hub/internal/models/models.timeline.go
package models

import "time"

// DailyRecord is an archived, date-keyed snapshot of one vehicle's day.
// Records for dates other than today are immutable; today's record is
// re-merged on every archival run.
type DailyRecord struct {
	Date      string `json:"date"`
	VehicleID string `json:"vehicle_id"`
	GroupID   string `json:"group_id"`
	Timezone  string `json:"timezone,omitempty"`

	OnlineHours      float64           `json:"online_hours"`
	TargetHours      float64           `json:"target_hours"`
	ComplianceStatus ComplianceStatus  `json:"compliance_status"`
	OfflineIntervals []OfflineInterval `json:"offline_intervals,omitempty"`

	HourlyBuckets   []HourlyBucket            `json:"hourly_buckets"`
	LocationHistory []GeoPoint                `json:"location_history"`
	AdPlaybacks     []AdPlayback              `json:"ad_playbacks"`
	QrScans         []QrScan                  `json:"qr_scans"`
	AdStats         map[string]*AdPerformance `json:"ad_stats"`

	DistanceKm   float64 `json:"distance_km"`
	TotalAdPlays int     `json:"total_ad_plays"`
	TotalQrScans int     `json:"total_qr_scans"`

	ArchivedAt   time.Time `json:"archived_at"`
	UpdateCount  int       `json:"update_count"`
	UpdateSource string    `json:"update_source"`
}

// NewDailyRecord snapshots a live session into an archival record. The
// caller is expected to pass a cloned session, never the live one.
func NewDailyRecord(s *LiveSession, source string, now time.Time) *DailyRecord {
	return &DailyRecord{
		Date:             s.Date,
		VehicleID:        s.VehicleID,
		GroupID:          s.GroupID,
		Timezone:         s.Timezone,
		OnlineHours:      s.Hours.AccruedHours,
		TargetHours:      s.Hours.TargetHours,
		ComplianceStatus: s.Hours.Status,
		OfflineIntervals: s.Hours.OfflineIntervals,
		HourlyBuckets:    s.HourlyBuckets,
		LocationHistory:  s.LocationHistory,
		AdPlaybacks:      s.AdPlaybacks,
		QrScans:          s.QrScans,
		AdStats:          s.AdStats,
		DistanceKm:       s.DistanceKm,
		TotalAdPlays:     s.TotalAdPlays,
		TotalQrScans:     s.TotalQrScans,
		ArchivedAt:       now,
		UpdateCount:      1,
		UpdateSource:     source,
	}
}

// LifetimeTotals aggregates every DailyRecord of a timeline. It is always
// recomputed wholesale after a merge, never patched incrementally.
type LifetimeTotals struct {
	Days             int     `json:"days"`
	TotalOnlineHours float64 `json:"total_online_hours"`
	AvgDailyHours    float64 `json:"avg_daily_hours"`
	CompliantDays    int     `json:"compliant_days"`
	ComplianceRate   float64 `json:"compliance_rate"` // 0..100
	TotalAdPlays     int     `json:"total_ad_plays"`
	TotalQrScans     int     `json:"total_qr_scans"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
}

// Timeline is the full per-vehicle history: one DailyRecord per distinct
// date in ascending order, plus lifetime aggregates.
type Timeline struct {
	VehicleID string         `json:"vehicle_id"`
	GroupID   string         `json:"group_id"`
	Records   []DailyRecord  `json:"records"`
	Totals    LifetimeTotals `json:"lifetime_totals"`

	UpdateCount      int       `json:"update_count"`
	LastArchivedAt   time.Time `json:"last_archived_at"`
	LastUpdateSource string    `json:"last_update_source"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTimeline creates an empty timeline for a vehicle.
func NewTimeline(vehicleID, groupID string, now time.Time) *Timeline {
	return &Timeline{
		VehicleID: vehicleID,
		GroupID:   groupID,
		Records:   []DailyRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Record returns the record for date, or nil.
func (t *Timeline) Record(date string) *DailyRecord {
	for i := range t.Records {
		if t.Records[i].Date == date {
			return &t.Records[i]
		}
	}
	return nil
}

// UpdateTracking is the operational introspection view of a timeline.
type UpdateTracking struct {
	VehicleID        string    `json:"vehicle_id"`
	UpdateCount      int       `json:"update_count"`
	LastArchivedAt   time.Time `json:"last_archived_at"`
	LastUpdateSource string    `json:"last_update_source"`
	RecordCount      int       `json:"record_count"`
}

// Tracking builds the introspection view.
func (t *Timeline) Tracking() *UpdateTracking {
	return &UpdateTracking{
		VehicleID:        t.VehicleID,
		UpdateCount:      t.UpdateCount,
		LastArchivedAt:   t.LastArchivedAt,
		LastUpdateSource: t.LastUpdateSource,
		RecordCount:      len(t.Records),
	}
}
