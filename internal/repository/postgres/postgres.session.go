// FilePath: server/hub/internal/repository/postgres/postgres.session.go
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

// SessionRepo persists live sessions as JSONB documents in the telemetry DB,
// one row per vehicle per local day, with an optimistic version column.
type SessionRepo struct {
	PostgresBaseRepo
}

func NewSessionRepository(db database.DB) (*SessionRepo, error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS live_sessions (
			vehicle_id TEXT NOT NULL,
			date TEXT NOT NULL,
			doc JSONB NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (vehicle_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_live_sessions_updated_at
			ON live_sessions(updated_at DESC)`,
	}
	if err := initSchema(db, queries); err != nil {
		return nil, err
	}
	return &SessionRepo{PostgresBaseRepo{db: db}}, nil
}

type sessionRow struct {
	VehicleID string    `db:"vehicle_id"`
	Date      string    `db:"date"`
	Doc       []byte    `db:"doc"`
	Version   int64     `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row *sessionRow) unmarshal() (*models.LiveSession, error) {
	session := &models.LiveSession{}
	if err := json.Unmarshal(row.Doc, session); err != nil {
		return nil, errors.NewDatabaseError("failed to decode session document", err)
	}
	session.Version = row.Version
	return session, nil
}

func (r *SessionRepo) Get(ctx context.Context, vehicleID, date string) (*models.LiveSession, error) {
	row := &sessionRow{}
	query := `SELECT vehicle_id, date, doc, version, updated_at
		FROM live_sessions WHERE vehicle_id = $1 AND date = $2`

	err := r.db.GetDB().GetContext(ctx, row, query, vehicleID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get session", err)
	}
	return row.unmarshal()
}

func (r *SessionRepo) GetLatest(ctx context.Context, vehicleID string) (*models.LiveSession, error) {
	row := &sessionRow{}
	query := `SELECT vehicle_id, date, doc, version, updated_at
		FROM live_sessions WHERE vehicle_id = $1 ORDER BY date DESC LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, row, query, vehicleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get latest session", err)
	}
	return row.unmarshal()
}

func (r *SessionRepo) ListCurrent(ctx context.Context) ([]*models.LiveSession, error) {
	rows := []sessionRow{}
	query := `SELECT DISTINCT ON (vehicle_id)
			vehicle_id, date, doc, version, updated_at
		FROM live_sessions ORDER BY vehicle_id, date DESC`

	err := r.db.GetDB().SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list current sessions", err)
	}

	sessions := make([]*models.LiveSession, 0, len(rows))
	for i := range rows {
		session, err := rows[i].unmarshal()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Save inserts a new session (Version 0) or updates an existing one guarded
// by its version. A lost race surfaces as repository.ErrConflict so the
// caller can reload and reapply.
func (r *SessionRepo) Save(ctx context.Context, session *models.LiveSession) error {
	expected := session.Version
	session.UpdatedAt = time.Now()
	session.Version = expected + 1

	doc, err := json.Marshal(session)
	if err != nil {
		session.Version = expected
		return errors.NewInternalError("failed to encode session document", err)
	}

	if expected == 0 {
		query := `INSERT INTO live_sessions (vehicle_id, date, doc, version, updated_at)
			VALUES ($1, $2, $3, 1, $4)
			ON CONFLICT (vehicle_id, date) DO NOTHING`
		result, err := r.db.GetDB().ExecContext(ctx, query,
			session.VehicleID, session.Date, doc, session.UpdatedAt)
		if err != nil {
			session.Version = expected
			return errors.NewDatabaseError("failed to insert session", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			session.Version = expected
			return repository.ErrConflict
		}
		return nil
	}

	query := `UPDATE live_sessions
		SET doc = $3, version = version + 1, updated_at = $4
		WHERE vehicle_id = $1 AND date = $2 AND version = $5`
	result, err := r.db.GetDB().ExecContext(ctx, query,
		session.VehicleID, session.Date, doc, session.UpdatedAt, expected)
	if err != nil {
		session.Version = expected
		return errors.NewDatabaseError("failed to update session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		session.Version = expected
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		session.Version = expected
		return repository.ErrConflict
	}
	return nil
}
