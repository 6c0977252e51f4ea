// FilePath: server/hub/internal/models/models.events.go
package models

import (
	"fmt"
	"math"
	"time"
)

// EventType tags an ingested device event variant.
type EventType string

const (
	EventTypeLocation EventType = "location"
	EventTypePlayback EventType = "playback"
	EventTypeQrScan   EventType = "qrscan"
	EventTypeOnline   EventType = "online"
)

// LocationPayload carries a GPS fix.
type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Accuracy  float64 `json:"accuracy"`
}

// PlaybackPayload carries an advertisement playback event.
type PlaybackPayload struct {
	AdID            string  `json:"ad_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	ViewTimeSeconds float64 `json:"view_time_seconds"`
}

// QrScanPayload carries a QR scan event.
type QrScanPayload struct {
	AdID      string `json:"ad_id"`
	Payload   string `json:"payload,omitempty"`
	Converted bool   `json:"converted"`
}

// OnlinePayload carries a slot online/offline transition.
type OnlinePayload struct {
	Online bool `json:"online"`
}

// DeviceEvent is one tagged event from a vehicle's event stream. Exactly one
// payload matching Type must be present; everything else is rejected at the
// ingestion boundary.
type DeviceEvent struct {
	Type      EventType `json:"type"`
	VehicleID string    `json:"vehicle_id"`
	SlotID    string    `json:"slot_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Location *LocationPayload `json:"location,omitempty"`
	Playback *PlaybackPayload `json:"playback,omitempty"`
	QrScan   *QrScanPayload   `json:"qrscan,omitempty"`
	Online   *OnlinePayload   `json:"online,omitempty"`
}

// Validate checks the tagged variant for required fields. Invalid events are
// dropped by the ingestion layer, never propagated as device failures.
func (e *DeviceEvent) Validate() error {
	if e.VehicleID == "" {
		return fmt.Errorf("missing vehicle_id")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	switch e.Type {
	case EventTypeLocation:
		if e.Location == nil {
			return fmt.Errorf("location event without location payload")
		}
		if !ValidCoordinate(e.Location.Latitude, e.Location.Longitude) {
			return fmt.Errorf("malformed coordinates (%v, %v)", e.Location.Latitude, e.Location.Longitude)
		}
	case EventTypePlayback:
		if e.Playback == nil {
			return fmt.Errorf("playback event without playback payload")
		}
		if e.Playback.AdID == "" {
			return fmt.Errorf("playback event without ad_id")
		}
		if e.Playback.DurationSeconds <= 0 || math.IsNaN(e.Playback.DurationSeconds) {
			return fmt.Errorf("playback event with non-positive duration")
		}
		if e.Playback.ViewTimeSeconds < 0 || math.IsNaN(e.Playback.ViewTimeSeconds) {
			return fmt.Errorf("playback event with negative view time")
		}
	case EventTypeQrScan:
		if e.QrScan == nil {
			return fmt.Errorf("qrscan event without qrscan payload")
		}
		if e.QrScan.AdID == "" {
			return fmt.Errorf("qrscan event without ad_id")
		}
	case EventTypeOnline:
		if e.Online == nil {
			return fmt.Errorf("online event without online payload")
		}
		if e.SlotID == "" {
			return fmt.Errorf("online event without slot_id")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// ValidCoordinate reports whether a latitude/longitude pair is finite and in
// range. Malformed input must never corrupt aggregate counters.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
