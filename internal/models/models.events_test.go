// FilePath: server/hub/internal/models/models.events_test.go
package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeviceEventValidate(t *testing.T) {
	now := time.Now()

	valid := []DeviceEvent{
		{
			Type: EventTypeLocation, VehicleID: "veh_1", Timestamp: now,
			Location: &LocationPayload{Latitude: 52.52, Longitude: 13.405, Speed: 30},
		},
		{
			Type: EventTypePlayback, VehicleID: "veh_1", SlotID: "slot_1", Timestamp: now,
			Playback: &PlaybackPayload{AdID: "ad_1", DurationSeconds: 30, ViewTimeSeconds: 25},
		},
		{
			Type: EventTypeQrScan, VehicleID: "veh_1", Timestamp: now,
			QrScan: &QrScanPayload{AdID: "ad_1"},
		},
		{
			Type: EventTypeOnline, VehicleID: "veh_1", SlotID: "slot_1", Timestamp: now,
			Online: &OnlinePayload{Online: true},
		},
	}
	for _, event := range valid {
		assert.NoError(t, event.Validate(), "type %s", event.Type)
	}

	invalid := []struct {
		name  string
		event DeviceEvent
	}{
		{"missing vehicle id", DeviceEvent{Type: EventTypeQrScan, Timestamp: now, QrScan: &QrScanPayload{AdID: "ad_1"}}},
		{"missing timestamp", DeviceEvent{Type: EventTypeQrScan, VehicleID: "veh_1", QrScan: &QrScanPayload{AdID: "ad_1"}}},
		{"unknown type", DeviceEvent{Type: "bogus", VehicleID: "veh_1", Timestamp: now}},
		{"location without payload", DeviceEvent{Type: EventTypeLocation, VehicleID: "veh_1", Timestamp: now}},
		{"location out of range", DeviceEvent{Type: EventTypeLocation, VehicleID: "veh_1", Timestamp: now,
			Location: &LocationPayload{Latitude: 99, Longitude: 0}}},
		{"location with NaN", DeviceEvent{Type: EventTypeLocation, VehicleID: "veh_1", Timestamp: now,
			Location: &LocationPayload{Latitude: math.NaN(), Longitude: 0}}},
		{"playback without ad", DeviceEvent{Type: EventTypePlayback, VehicleID: "veh_1", Timestamp: now,
			Playback: &PlaybackPayload{DurationSeconds: 30}}},
		{"playback zero duration", DeviceEvent{Type: EventTypePlayback, VehicleID: "veh_1", Timestamp: now,
			Playback: &PlaybackPayload{AdID: "ad_1", DurationSeconds: 0}}},
		{"playback negative view time", DeviceEvent{Type: EventTypePlayback, VehicleID: "veh_1", Timestamp: now,
			Playback: &PlaybackPayload{AdID: "ad_1", DurationSeconds: 30, ViewTimeSeconds: -1}}},
		{"qrscan without ad", DeviceEvent{Type: EventTypeQrScan, VehicleID: "veh_1", Timestamp: now,
			QrScan: &QrScanPayload{}}},
		{"online without slot", DeviceEvent{Type: EventTypeOnline, VehicleID: "veh_1", Timestamp: now,
			Online: &OnlinePayload{Online: true}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.event.Validate())
		})
	}
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(0, 0))
	assert.True(t, ValidCoordinate(-90, 180))
	assert.False(t, ValidCoordinate(90.1, 0))
	assert.False(t, ValidCoordinate(0, -180.1))
	assert.False(t, ValidCoordinate(math.Inf(1), 0))
	assert.False(t, ValidCoordinate(0, math.NaN()))
}
