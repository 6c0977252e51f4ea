// FilePath: server/hub/internal/repository/postgres/postgres.vehicle.go
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

type VehicleRepo struct {
	PostgresBaseRepo
}

func NewVehicleRepository(db database.DB) (*VehicleRepo, error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			license_plate TEXT NOT NULL DEFAULT '',
			slots JSONB NOT NULL DEFAULT '[]',
			timezone TEXT NOT NULL DEFAULT '',
			target_hours DOUBLE PRECISION NOT NULL DEFAULT 8,
			driver_phone TEXT NOT NULL DEFAULT '',
			last_seen TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	if err := initSchema(db, queries); err != nil {
		return nil, err
	}
	return &VehicleRepo{PostgresBaseRepo{db: db}}, nil
}

type vehicleRow struct {
	models.Vehicle
	SlotsDoc []byte `db:"slots"`
}

func (r *VehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	slots, err := json.Marshal(vehicle.Slots)
	if err != nil {
		return errors.NewInternalError("failed to encode vehicle slots", err)
	}

	query := `INSERT INTO vehicles
			(id, group_id, name, license_plate, slots, timezone, target_hours,
			 driver_phone, last_seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.GetDB().ExecContext(ctx, query,
		vehicle.ID, vehicle.GroupID, vehicle.Name, vehicle.LicensePlate,
		slots, vehicle.Timezone, vehicle.TargetHours, vehicle.DriverPhone,
		vehicle.LastSeen, vehicle.CreatedAt, vehicle.UpdatedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to create vehicle", err)
	}
	return nil
}

func (r *VehicleRepo) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	row := &vehicleRow{}
	query := `SELECT * FROM vehicles WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get vehicle", err)
	}

	vehicle := row.Vehicle
	if len(row.SlotsDoc) > 0 {
		if err := json.Unmarshal(row.SlotsDoc, &vehicle.Slots); err != nil {
			return nil, errors.NewDatabaseError("failed to decode vehicle slots", err)
		}
	}
	return &vehicle, nil
}

func (r *VehicleRepo) List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	rows := []vehicleRow{}
	query := `SELECT * FROM vehicles ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := r.db.GetDB().SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list vehicles", err)
	}

	vehicles := make([]*models.Vehicle, 0, len(rows))
	for i := range rows {
		vehicle := rows[i].Vehicle
		if len(rows[i].SlotsDoc) > 0 {
			if err := json.Unmarshal(rows[i].SlotsDoc, &vehicle.Slots); err != nil {
				return nil, errors.NewDatabaseError("failed to decode vehicle slots", err)
			}
		}
		vehicles = append(vehicles, &vehicle)
	}
	return vehicles, nil
}

func (r *VehicleRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	query := `UPDATE vehicles SET last_seen = $1, updated_at = $1 WHERE id = $2`
	result, err := r.db.GetDB().ExecContext(ctx, query, lastSeen, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last seen", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
