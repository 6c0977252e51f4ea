// FilePath: server/hub/internal/testutil/mocks.go

// Package testutil provides in-memory repository implementations for tests.
// They mirror the semantics of the postgres implementations, including the
// session store's optimistic version check.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
)

// SessionStore is an in-memory SessionRepository.
type SessionStore struct {
	mu   sync.Mutex
	rows map[string]*models.LiveSession // key: vehicleID + "|" + date

	// SaveErr, when set, is returned by every Save call.
	SaveErr error
	// ConflictNext fails that many upcoming Save calls with ErrConflict
	// before letting writes through again.
	ConflictNext int
}

func NewSessionStore() *SessionStore {
	return &SessionStore{rows: map[string]*models.LiveSession{}}
}

func sessionKey(vehicleID, date string) string {
	return vehicleID + "|" + date
}

func (s *SessionStore) Get(ctx context.Context, vehicleID, date string) (*models.LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[sessionKey(vehicleID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row.Clone()
}

func (s *SessionStore) GetLatest(ctx context.Context, vehicleID string) (*models.LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.LiveSession
	for _, row := range s.rows {
		if row.VehicleID != vehicleID {
			continue
		}
		if latest == nil || row.Date > latest.Date {
			latest = row
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest.Clone()
}

func (s *SessionStore) ListCurrent(ctx context.Context) ([]*models.LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[string]*models.LiveSession{}
	for _, row := range s.rows {
		if current, ok := latest[row.VehicleID]; !ok || row.Date > current.Date {
			latest[row.VehicleID] = row
		}
	}
	out := make([]*models.LiveSession, 0, len(latest))
	for _, row := range latest {
		clone, err := row.Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

// Save enforces the same optimistic versioning contract as the postgres
// store: Version 0 inserts (conflicting with an existing row), any other
// version must match the stored row. The saved session's Version advances.
func (s *SessionStore) Save(ctx context.Context, session *models.LiveSession) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ConflictNext > 0 {
		s.ConflictNext--
		return repository.ErrConflict
	}

	key := sessionKey(session.VehicleID, session.Date)
	stored, exists := s.rows[key]

	if session.Version == 0 {
		if exists {
			return repository.ErrConflict
		}
	} else if !exists || stored.Version != session.Version {
		return repository.ErrConflict
	}

	session.Version++
	clone, err := session.Clone()
	if err != nil {
		session.Version--
		return err
	}
	s.rows[key] = clone
	return nil
}

// Count returns the number of stored session rows.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// TimelineStore is an in-memory TimelineRepository.
type TimelineStore struct {
	mu   sync.Mutex
	rows map[string]*models.Timeline

	SaveCalls int
}

func NewTimelineStore() *TimelineStore {
	return &TimelineStore{rows: map[string]*models.Timeline{}}
}

func (s *TimelineStore) Get(ctx context.Context, vehicleID string) (*models.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[vehicleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTimeline(row)
}

func (s *TimelineStore) Save(ctx context.Context, timeline *models.Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone, err := cloneTimeline(timeline)
	if err != nil {
		return err
	}
	s.rows[timeline.VehicleID] = clone
	s.SaveCalls++
	return nil
}

func (s *TimelineStore) ListVehicleIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

func cloneTimeline(t *models.Timeline) (*models.Timeline, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	clone := &models.Timeline{}
	if err := json.Unmarshal(raw, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// RollupStore is an in-memory RollupRepository.
type RollupStore struct {
	mu   sync.Mutex
	rows map[string]*models.AdvertiserRollup
}

func NewRollupStore() *RollupStore {
	return &RollupStore{rows: map[string]*models.AdvertiserRollup{}}
}

func (s *RollupStore) Get(ctx context.Context, advertiserID string) (*models.AdvertiserRollup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[advertiserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row, nil
}

func (s *RollupStore) Replace(ctx context.Context, rollup *models.AdvertiserRollup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rollup.AdvertiserID] = rollup
	return nil
}

// PlacementRegistry is an in-memory placement lookup. Created campaigns and
// placements feed straight into the Advertisers map so reads reflect writes.
type PlacementRegistry struct {
	Advertisers map[string]Placements
	Campaigns   map[string]*models.Campaign
}

// Placements binds an advertiser to vehicles and ads for any queried window.
type Placements struct {
	VehicleIDs []string
	AdIDs      []string
}

func NewPlacementRegistry() *PlacementRegistry {
	return &PlacementRegistry{
		Advertisers: map[string]Placements{},
		Campaigns:   map[string]*models.Campaign{},
	}
}

func (r *PlacementRegistry) ListAdvertisers(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.Advertisers))
	for id := range r.Advertisers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *PlacementRegistry) VehiclesForAdvertiser(ctx context.Context, advertiserID, startDate, endDate string) ([]string, error) {
	return r.Advertisers[advertiserID].VehicleIDs, nil
}

func (r *PlacementRegistry) AdsForAdvertiser(ctx context.Context, advertiserID, startDate, endDate string) ([]string, error) {
	return r.Advertisers[advertiserID].AdIDs, nil
}

func (r *PlacementRegistry) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	if _, exists := r.Campaigns[campaign.ID]; exists {
		return repository.ErrConflict
	}
	r.Campaigns[campaign.ID] = campaign
	entry := r.Advertisers[campaign.AdvertiserID]
	entry.AdIDs = append(entry.AdIDs, campaign.AdIDs...)
	r.Advertisers[campaign.AdvertiserID] = entry
	return nil
}

func (r *PlacementRegistry) CreatePlacement(ctx context.Context, placement *models.Placement) error {
	campaign, ok := r.Campaigns[placement.CampaignID]
	if !ok {
		return repository.ErrNotFound
	}
	entry := r.Advertisers[campaign.AdvertiserID]
	entry.VehicleIDs = append(entry.VehicleIDs, placement.VehicleID)
	r.Advertisers[campaign.AdvertiserID] = entry
	return nil
}

// VehicleStore is an in-memory VehicleRepository.
type VehicleStore struct {
	mu   sync.Mutex
	rows map[string]*models.Vehicle
}

func NewVehicleStore() *VehicleStore {
	return &VehicleStore{rows: map[string]*models.Vehicle{}}
}

func (s *VehicleStore) Create(ctx context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[vehicle.ID] = vehicle
	return nil
}

func (s *VehicleStore) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row, nil
}

func (s *VehicleStore) List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Vehicle, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *VehicleStore) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		row.LastSeen = lastSeen
	}
	return nil
}

// SnapshotCache is an in-memory SnapshotCache.
type SnapshotCache struct {
	mu   sync.Mutex
	rows map[string]*models.LiveSnapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{rows: map[string]*models.LiveSnapshot{}}
}

func (c *SnapshotCache) SetLiveSnapshot(ctx context.Context, snapshot *models.LiveSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[snapshot.VehicleID] = snapshot
	return nil
}

func (c *SnapshotCache) GetLiveSnapshot(ctx context.Context, vehicleID string) (*models.LiveSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.rows[vehicleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return snapshot, nil
}
