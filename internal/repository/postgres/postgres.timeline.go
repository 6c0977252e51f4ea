// FilePath: server/hub/internal/repository/postgres/postgres.timeline.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/database"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
)

// TimelineRepo persists one timeline document per vehicle in the telemetry
// DB. Update-tracking metadata is mirrored into columns so the introspection
// view never has to decode the full document.
type TimelineRepo struct {
	PostgresBaseRepo
}

func NewTimelineRepository(db database.DB) (*TimelineRepo, error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS timelines (
			vehicle_id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			update_count INTEGER NOT NULL DEFAULT 0,
			last_archived_at TIMESTAMPTZ,
			last_update_source TEXT,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	if err := initSchema(db, queries); err != nil {
		return nil, err
	}
	return &TimelineRepo{PostgresBaseRepo{db: db}}, nil
}

func (r *TimelineRepo) Get(ctx context.Context, vehicleID string) (*models.Timeline, error) {
	var doc []byte
	query := `SELECT doc FROM timelines WHERE vehicle_id = $1`

	err := r.db.GetDB().GetContext(ctx, &doc, query, vehicleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get timeline", err)
	}

	timeline := &models.Timeline{}
	if err := json.Unmarshal(doc, timeline); err != nil {
		return nil, errors.NewDatabaseError("failed to decode timeline document", err)
	}
	return timeline, nil
}

func (r *TimelineRepo) Save(ctx context.Context, timeline *models.Timeline) error {
	timeline.UpdatedAt = time.Now()
	doc, err := json.Marshal(timeline)
	if err != nil {
		return errors.NewInternalError("failed to encode timeline document", err)
	}

	query := `INSERT INTO timelines
			(vehicle_id, doc, update_count, last_archived_at, last_update_source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vehicle_id) DO UPDATE SET
			doc = EXCLUDED.doc,
			update_count = EXCLUDED.update_count,
			last_archived_at = EXCLUDED.last_archived_at,
			last_update_source = EXCLUDED.last_update_source,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.GetDB().ExecContext(ctx, query,
		timeline.VehicleID, doc, timeline.UpdateCount,
		timeline.LastArchivedAt, timeline.LastUpdateSource, timeline.UpdatedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to save timeline", err)
	}
	return nil
}

func (r *TimelineRepo) ListVehicleIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	query := `SELECT vehicle_id FROM timelines ORDER BY vehicle_id`

	err := r.db.GetDB().SelectContext(ctx, &ids, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list timeline vehicle ids", err)
	}
	return ids, nil
}
