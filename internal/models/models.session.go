// FilePath: server/hub/internal/models/models.session.go
package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// DateLayout is the canonical format for local calendar dates.
const DateLayout = "2006-01-02"

// DefaultTargetHours is the daily compliance target applied when no
// per-vehicle override is configured.
const DefaultTargetHours = 8.0

// Caps for the bounded per-day event logs. Location history is sized for
// one point roughly every 90 seconds over a full day.
const (
	LocationHistoryCap = 960
	AdPlaybackCap      = 800
)

// ComplianceStatus reflects how a vehicle's accrued online hours compare
// against its daily target.
type ComplianceStatus string

const (
	CompliancePending      ComplianceStatus = "PENDING"
	ComplianceCompliant    ComplianceStatus = "COMPLIANT"
	ComplianceNonCompliant ComplianceStatus = "NON_COMPLIANT"
)

// GeoPoint is a single GPS fix reported by a vehicle.
type GeoPoint struct {
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Speed     float64   `json:"speed" db:"speed"`       // km/h
	Heading   float64   `json:"heading" db:"heading"`   // degrees
	Accuracy  float64   `json:"accuracy" db:"accuracy"` // meters
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// SlotState tracks one physical screen mounted on a vehicle.
type SlotState struct {
	SlotID   string    `json:"slot_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
	Device   string    `json:"device"`
}

// OfflineInterval records one contiguous stretch where every slot of a
// vehicle was offline. End is zero while the interval is still open.
type OfflineInterval struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end,omitempty"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// HoursState carries the compliance-hours accounting for one local day.
type HoursState struct {
	AccruedHours     float64           `json:"accrued_hours"`
	TargetHours      float64           `json:"target_hours"`
	LastAccrual      time.Time         `json:"last_accrual"`
	Status           ComplianceStatus  `json:"status"`
	OfflineIntervals []OfflineInterval `json:"offline_intervals,omitempty"`
}

// HourlyBucket accumulates per-hour counters for one local day.
type HourlyBucket struct {
	Hour          int     `json:"hour"`
	AdPlays       int     `json:"ad_plays"`
	QrScans       int     `json:"qr_scans"`
	DistanceKm    float64 `json:"distance_km"`
	OnlineMinutes float64 `json:"online_minutes"`
	AvgSpeed      float64 `json:"avg_speed"`
	MaxSpeed      float64 `json:"max_speed"`
	SpeedSamples  int     `json:"speed_samples"`
}

// AdPlayback is one advertisement playback event on one slot.
type AdPlayback struct {
	ID              string    `json:"id"`
	AdID            string    `json:"ad_id"`
	SlotID          string    `json:"slot_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	ViewTimeSeconds float64   `json:"view_time_seconds"`
	CompletionRate  float64   `json:"completion_rate"` // 0..100
}

// QrScan is one QR-code scan event attributed to an advertisement.
type QrScan struct {
	ID        string    `json:"id"`
	AdID      string    `json:"ad_id"`
	SlotID    string    `json:"slot_id"`
	Payload   string    `json:"payload,omitempty"`
	ScannedAt time.Time `json:"scanned_at"`
	Converted bool      `json:"converted"`
}

// AdPerformance is the running per-advertisement accumulator for one day.
type AdPerformance struct {
	AdID                 string    `json:"ad_id"`
	PlayCount            int       `json:"play_count"`
	Impressions          int       `json:"impressions"`
	TotalViewTimeSeconds float64   `json:"total_view_time_seconds"`
	AvgViewTimeSeconds   float64   `json:"avg_view_time_seconds"`
	CompletionRate       float64   `json:"completion_rate"`
	ScanCount            int       `json:"scan_count"`
	FirstPlayedAt        time.Time `json:"first_played_at,omitempty"`
	LastPlayedAt         time.Time `json:"last_played_at,omitempty"`
	FirstScannedAt       time.Time `json:"first_scanned_at,omitempty"`
	LastScannedAt        time.Time `json:"last_scanned_at,omitempty"`
}

// LiveSession is today's in-flight tracking state for one vehicle. One row
// exists per vehicle per local day; the latest row is carried forward across
// day boundaries by resetting counters, never deleted.
type LiveSession struct {
	VehicleID string `json:"vehicle_id"`
	GroupID   string `json:"group_id"`
	Date      string `json:"date"` // local calendar date, DateLayout
	Timezone  string `json:"timezone,omitempty"`

	Slots    []SlotState `json:"slots"`
	IsOnline bool        `json:"is_online"`

	Hours         HoursState     `json:"hours"`
	HourlyBuckets []HourlyBucket `json:"hourly_buckets"`

	CurrentLocation *GeoPoint  `json:"current_location,omitempty"`
	LocationHistory []GeoPoint `json:"location_history"`

	AdPlaybacks []AdPlayback              `json:"ad_playbacks"`
	QrScans     []QrScan                  `json:"qr_scans"`
	CurrentAd   *AdPlayback               `json:"current_ad,omitempty"`
	AdStats     map[string]*AdPerformance `json:"ad_stats"`

	DistanceKm   float64 `json:"distance_km"`
	TotalAdPlays int     `json:"total_ad_plays"`
	TotalQrScans int     `json:"total_qr_scans"`

	// Version backs the optimistic-concurrency save path. Zero means the
	// session has never been persisted.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLiveSession creates an empty session for one vehicle and local date.
func NewLiveSession(vehicleID, groupID, date string, targetHours float64, now time.Time) *LiveSession {
	if targetHours <= 0 {
		targetHours = DefaultTargetHours
	}
	buckets := make([]HourlyBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	return &LiveSession{
		VehicleID: vehicleID,
		GroupID:   groupID,
		Date:      date,
		Slots:     []SlotState{},
		Hours: HoursState{
			TargetHours: targetHours,
			LastAccrual: now,
			Status:      CompliancePending,
		},
		HourlyBuckets:   buckets,
		LocationHistory: []GeoPoint{},
		AdPlaybacks:     []AdPlayback{},
		QrScans:         []QrScan{},
		AdStats:         map[string]*AdPerformance{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Bucket returns the hourly bucket for the given local hour, tolerating
// sessions deserialized from older documents with missing buckets.
func (s *LiveSession) Bucket(hour int) *HourlyBucket {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	for len(s.HourlyBuckets) < 24 {
		s.HourlyBuckets = append(s.HourlyBuckets, HourlyBucket{Hour: len(s.HourlyBuckets)})
	}
	return &s.HourlyBuckets[hour]
}

// RecomputeOnline derives the vehicle-level online flag from its slots.
func (s *LiveSession) RecomputeOnline() {
	online := false
	for i := range s.Slots {
		if s.Slots[i].IsOnline {
			online = true
			break
		}
	}
	s.IsOnline = online
}

// Slot returns the state for slotID, creating it on first sight.
func (s *LiveSession) Slot(slotID string) *SlotState {
	for i := range s.Slots {
		if s.Slots[i].SlotID == slotID {
			return &s.Slots[i]
		}
	}
	s.Slots = append(s.Slots, SlotState{SlotID: slotID})
	return &s.Slots[len(s.Slots)-1]
}

// Perf returns the per-ad accumulator for adID, creating it on first sight.
func (s *LiveSession) Perf(adID string) *AdPerformance {
	if s.AdStats == nil {
		s.AdStats = map[string]*AdPerformance{}
	}
	p, ok := s.AdStats[adID]
	if !ok {
		p = &AdPerformance{AdID: adID}
		s.AdStats[adID] = p
	}
	return p
}

// Rollover resets the session for a new local date. Slot states and the
// current location survive the boundary; counters, logs and hours do not.
func (s *LiveSession) Rollover(date string, now time.Time) {
	s.Date = date
	s.Hours = HoursState{
		TargetHours: s.Hours.TargetHours,
		LastAccrual: now,
		Status:      CompliancePending,
	}
	buckets := make([]HourlyBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	s.HourlyBuckets = buckets
	s.LocationHistory = []GeoPoint{}
	s.AdPlaybacks = []AdPlayback{}
	s.QrScans = []QrScan{}
	s.AdStats = map[string]*AdPerformance{}
	s.CurrentAd = nil
	s.DistanceKm = 0
	s.TotalAdPlays = 0
	s.TotalQrScans = 0
	s.Version = 0
	s.CreatedAt = now
	s.UpdatedAt = now
	if !s.IsOnline {
		s.Hours.OfflineIntervals = []OfflineInterval{{Start: now}}
	}
}

// Clone returns a deep copy of the session via a JSON round trip. Archival
// snapshots must never alias live state.
func (s *LiveSession) Clone() (*LiveSession, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := &LiveSession{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// LiveSnapshot is the dashboard-facing view of a session.
type LiveSnapshot struct {
	VehicleID        string           `json:"vehicle_id"`
	Date             string           `json:"date"`
	IsOnline         bool             `json:"is_online"`
	AccruedHours     float64          `json:"accrued_hours"`
	TargetHours      float64          `json:"target_hours"`
	HoursRemaining   float64          `json:"hours_remaining"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	CurrentAd        *AdPlayback      `json:"current_ad,omitempty"`
	CurrentLocation  *GeoPoint        `json:"current_location,omitempty"`
	TotalAdPlays     int              `json:"total_ad_plays"`
	TotalQrScans     int              `json:"total_qr_scans"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Snapshot builds the dashboard view from the session.
func (s *LiveSession) Snapshot() *LiveSnapshot {
	remaining := s.Hours.TargetHours - s.Hours.AccruedHours
	if remaining < 0 {
		remaining = 0
	}
	return &LiveSnapshot{
		VehicleID:        s.VehicleID,
		Date:             s.Date,
		IsOnline:         s.IsOnline,
		AccruedHours:     s.Hours.AccruedHours,
		TargetHours:      s.Hours.TargetHours,
		HoursRemaining:   remaining,
		ComplianceStatus: s.Hours.Status,
		CurrentAd:        s.CurrentAd,
		CurrentLocation:  s.CurrentLocation,
		TotalAdPlays:     s.TotalAdPlays,
		TotalQrScans:     s.TotalQrScans,
		UpdatedAt:        s.UpdatedAt,
	}
}
