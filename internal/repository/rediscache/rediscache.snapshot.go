// FilePath: server/hub/internal/repository/rediscache/rediscache.snapshot.go

// Package rediscache holds the best-effort live dashboard cache. The session
// store remains the source of truth; cache misses and failures fall through.
package rediscache

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix = "session:live:"
	snapshotTTL       = 10 * time.Minute
)

type SnapshotCache struct {
	client *redis.Client
}

func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{client: client}
}

func (c *SnapshotCache) SetLiveSnapshot(ctx context.Context, snapshot *models.LiveSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKeyPrefix+snapshot.VehicleID, raw, snapshotTTL).Err()
}

func (c *SnapshotCache) GetLiveSnapshot(ctx context.Context, vehicleID string) (*models.LiveSnapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKeyPrefix+vehicleID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	snapshot := &models.LiveSnapshot{}
	if err := json.Unmarshal(raw, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
