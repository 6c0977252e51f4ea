// FilePath: server/hub/internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrConflict indicates that a versioned save lost a concurrent update
	ErrConflict = errors.New("version conflict")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// SessionRepository stores one LiveSession per vehicle per local day.
type SessionRepository interface {
	// Get returns the session for a vehicle and local date.
	Get(ctx context.Context, vehicleID, date string) (*models.LiveSession, error)
	// GetLatest returns the most recent session row for a vehicle regardless
	// of date; used for lazy day-rollover migration.
	GetLatest(ctx context.Context, vehicleID string) (*models.LiveSession, error)
	// ListCurrent returns the latest session per vehicle across the fleet.
	ListCurrent(ctx context.Context) ([]*models.LiveSession, error)
	// Save persists the session with an optimistic version check: a session
	// with Version 0 is inserted, otherwise the stored row must still carry
	// the same version or ErrConflict is returned. On success the session's
	// Version is advanced.
	Save(ctx context.Context, session *models.LiveSession) error
}

// TimelineRepository stores one Timeline document per vehicle.
type TimelineRepository interface {
	Get(ctx context.Context, vehicleID string) (*models.Timeline, error)
	Save(ctx context.Context, timeline *models.Timeline) error
	ListVehicleIDs(ctx context.Context) ([]string, error)
}

// RollupRepository stores the latest AdvertiserRollup per advertiser.
// Rollups are replaced wholesale; last computed wins.
type RollupRepository interface {
	Get(ctx context.Context, advertiserID string) (*models.AdvertiserRollup, error)
	Replace(ctx context.Context, rollup *models.AdvertiserRollup) error
}

// PlacementRegistry answers which vehicles carry which advertiser's active,
// paid campaigns. The booking flow lives in an external system; the write
// methods exist for seeding and operational tooling.
type PlacementRegistry interface {
	ListAdvertisers(ctx context.Context) ([]string, error)
	VehiclesForAdvertiser(ctx context.Context, advertiserID, startDate, endDate string) ([]string, error)
	AdsForAdvertiser(ctx context.Context, advertiserID, startDate, endDate string) ([]string, error)
	CreateCampaign(ctx context.Context, campaign *models.Campaign) error
	CreatePlacement(ctx context.Context, placement *models.Placement) error
}

// VehicleRepository stores the vehicle registry.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Get(ctx context.Context, id string) (*models.Vehicle, error)
	List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error)
	UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error
}

// SnapshotCache is the best-effort live dashboard cache. Implementations
// must tolerate being skipped entirely; the session store stays the source
// of truth.
type SnapshotCache interface {
	SetLiveSnapshot(ctx context.Context, snapshot *models.LiveSnapshot) error
	GetLiveSnapshot(ctx context.Context, vehicleID string) (*models.LiveSnapshot, error)
}
