// FilePath: server/hub/internal/repository/postgres/postgres.rollup.go
package postgres

import (
	"context"
	"database/sql"

	json "github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/database"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
)

// RollupRepo persists the latest advertiser rollup per advertiser in the app
// DB. Replace semantics only; there is nothing to merge.
type RollupRepo struct {
	PostgresBaseRepo
}

func NewRollupRepository(db database.DB) (*RollupRepo, error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS advertiser_rollups (
			advertiser_id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			computed_at TIMESTAMPTZ NOT NULL
		)`,
	}
	if err := initSchema(db, queries); err != nil {
		return nil, err
	}
	return &RollupRepo{PostgresBaseRepo{db: db}}, nil
}

func (r *RollupRepo) Get(ctx context.Context, advertiserID string) (*models.AdvertiserRollup, error) {
	var doc []byte
	query := `SELECT doc FROM advertiser_rollups WHERE advertiser_id = $1`

	err := r.db.GetDB().GetContext(ctx, &doc, query, advertiserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get rollup", err)
	}

	rollup := &models.AdvertiserRollup{}
	if err := json.Unmarshal(doc, rollup); err != nil {
		return nil, errors.NewDatabaseError("failed to decode rollup document", err)
	}
	return rollup, nil
}

func (r *RollupRepo) Replace(ctx context.Context, rollup *models.AdvertiserRollup) error {
	doc, err := json.Marshal(rollup)
	if err != nil {
		return errors.NewInternalError("failed to encode rollup document", err)
	}

	query := `INSERT INTO advertiser_rollups (advertiser_id, doc, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (advertiser_id) DO UPDATE SET
			doc = EXCLUDED.doc,
			computed_at = EXCLUDED.computed_at`

	_, err = r.db.GetDB().ExecContext(ctx, query,
		rollup.AdvertiserID, doc, rollup.ComputedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to replace rollup", err)
	}
	return nil
}
