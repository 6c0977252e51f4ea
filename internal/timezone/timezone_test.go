// FilePath: server/hub/internal/timezone/timezone_test.go
package timezone

import (
	"testing"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver(t *testing.T) {
	t.Run("empty zone defaults to UTC", func(t *testing.T) {
		r, err := NewResolver("")
		require.NoError(t, err)
		assert.Equal(t, time.UTC, r.Fallback())
	})

	t.Run("invalid zone is rejected", func(t *testing.T) {
		_, err := NewResolver("Not/AZone")
		assert.Error(t, err)
	})
}

func TestFromCoordinates(t *testing.T) {
	r, err := NewResolver("UTC")
	require.NoError(t, err)

	tests := []struct {
		name   string
		lat    float64
		lon    float64
		offset int
	}{
		{"greenwich", 51.48, 0.0, 0},
		{"berlin band", 52.52, 13.405, 1},
		{"new york band", 40.71, -74.006, -5},
		{"tokyo band", 35.68, 139.69, 9},
		{"date line east", 0, 180, 12},
		{"date line west", 0, -180, -12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := r.FromCoordinates(tt.lat, tt.lon)
			_, offset := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC).In(loc).Zone()
			assert.Equal(t, tt.offset*3600, offset)
		})
	}

	t.Run("malformed coordinates fall back", func(t *testing.T) {
		assert.Equal(t, r.Fallback(), r.FromCoordinates(91, 0))
		assert.Equal(t, r.Fallback(), r.FromCoordinates(0, 181))
	})
}

func TestForSession(t *testing.T) {
	r, err := NewResolver("UTC")
	require.NoError(t, err)

	now := time.Now()

	t.Run("zone hint wins over location", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", "2026-09-01", 8, now)
		s.Timezone = "Europe/Berlin"
		s.CurrentLocation = &models.GeoPoint{Latitude: 40.71, Longitude: -74.006}
		loc := r.ForSession(s)
		assert.Equal(t, "Europe/Berlin", loc.String())
	})

	t.Run("location used without hint", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", "2026-09-01", 8, now)
		s.CurrentLocation = &models.GeoPoint{Latitude: 35.68, Longitude: 139.69}
		_, offset := now.In(r.ForSession(s)).Zone()
		assert.Equal(t, 9*3600, offset)
	})

	t.Run("fallback without hint or location", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", "2026-09-01", 8, now)
		assert.Equal(t, time.UTC, r.ForSession(s))
	})

	t.Run("bad hint falls through to location", func(t *testing.T) {
		s := models.NewLiveSession("veh_1", "", "2026-09-01", 8, now)
		s.Timezone = "Not/AZone"
		s.CurrentLocation = &models.GeoPoint{Latitude: 52.52, Longitude: 13.405}
		_, offset := now.In(r.ForSession(s)).Zone()
		assert.Equal(t, 3600, offset)
	})
}

func TestLocalDate(t *testing.T) {
	// 23:30 UTC on June 1 is already June 2 in Tokyo.
	instant := time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	assert.Equal(t, "2026-06-01", LocalDate(instant, time.UTC))
	assert.Equal(t, "2026-06-02", LocalDate(instant, tokyo))
}

func TestElapsedHours(t *testing.T) {
	from := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 8.0, ElapsedHours(from, from.Add(8*time.Hour)))
	assert.Equal(t, 0.0, ElapsedHours(from, from))
	// Clock skew must never produce negative accrual.
	assert.Equal(t, 0.0, ElapsedHours(from, from.Add(-time.Hour)))
}
