// FilePath: server/hub/internal/geo/geo_test.go
package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceKm(52.52, 13.405, 52.52, 13.405))
	})

	t.Run("berlin to paris", func(t *testing.T) {
		// Berlin (52.52, 13.405) to Paris (48.8566, 2.3522) is ~878 km.
		d := DistanceKm(52.52, 13.405, 48.8566, 2.3522)
		assert.InDelta(t, 878, d, 5)
	})

	t.Run("short hop", func(t *testing.T) {
		// Roughly 111m per 0.001 degrees of latitude.
		d := DistanceKm(52.520, 13.405, 52.521, 13.405)
		assert.InDelta(t, 0.111, d, 0.002)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := DistanceKm(40.7128, -74.006, 34.0522, -118.2437)
		b := DistanceKm(34.0522, -118.2437, 40.7128, -74.006)
		assert.InDelta(t, a, b, 1e-9)
	})
}
