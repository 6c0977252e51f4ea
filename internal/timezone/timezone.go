// FilePath: server/hub/internal/timezone/timezone.go

// Package timezone resolves a vehicle's local day boundary from its last
// known GPS position. Resolution is deliberately coarse: compliance hours
// only need a stable local calendar date, not political zone boundaries.
package timezone

import (
	"fmt"
	"math"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
)

// Resolver maps GPS points and zone hints to time.Locations.
type Resolver struct {
	fallback *time.Location
}

// NewResolver creates a resolver with the given default IANA zone, used when
// a vehicle has neither a registered zone nor a known position.
func NewResolver(defaultZone string) (*Resolver, error) {
	if defaultZone == "" {
		defaultZone = "UTC"
	}
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return nil, fmt.Errorf("invalid default timezone %q: %w", defaultZone, err)
	}
	return &Resolver{fallback: loc}, nil
}

// Fallback returns the configured default zone.
func (r *Resolver) Fallback() *time.Location {
	return r.fallback
}

// FromCoordinates estimates the zone for a GPS point as a fixed UTC offset
// derived from the longitude band. Solar time is close enough for day
// boundaries; malformed coordinates fall back to the default zone.
func (r *Resolver) FromCoordinates(lat, lon float64) *time.Location {
	if !models.ValidCoordinate(lat, lon) {
		return r.fallback
	}
	offset := int(math.Round(lon / 15.0))
	if offset < -12 {
		offset = -12
	}
	if offset > 14 {
		offset = 14
	}
	if offset == 0 {
		return time.UTC
	}
	name := fmt.Sprintf("UTC%+03d", offset)
	return time.FixedZone(name, offset*3600)
}

// ForSession resolves the zone for a live session: the registered zone hint
// wins, then the last known location, then the default.
func (r *Resolver) ForSession(s *models.LiveSession) *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	if s.CurrentLocation != nil {
		return r.FromCoordinates(s.CurrentLocation.Latitude, s.CurrentLocation.Longitude)
	}
	return r.fallback
}

// LocalDate formats t as a local calendar date in loc.
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DateLayout)
}

// ElapsedHours returns the non-negative hour span between two instants.
// Wall-clock zone changes do not affect the result; an elapsed duration is
// absolute.
func ElapsedHours(from, to time.Time) float64 {
	h := to.Sub(from).Hours()
	if h < 0 {
		return 0
	}
	return h
}
