// FilePath: server/hub/internal/tracking/tracking.vehicles.go
package tracking

import (
	"context"
	"time"

	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"
)

// CreateVehicle registers a new vehicle with validation and defaults.
func (s *Service) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.Name == "" {
		return errors.NewValidationError("vehicle name is required", nil)
	}
	if len(vehicle.Slots) == 0 {
		return errors.NewValidationError("vehicle needs at least one display slot", nil)
	}

	if vehicle.ID == "" {
		vehicle.ID = nuts.NID("veh", 12)
	}

	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	vehicle.LastSeen = now

	if vehicle.Timezone != "" {
		if _, err := time.LoadLocation(vehicle.Timezone); err != nil {
			return errors.NewValidationError("invalid timezone: "+vehicle.Timezone, err)
		}
	}
	if vehicle.TargetHours <= 0 {
		vehicle.TargetHours = s.cfg.TargetHours
	}

	nuts.L.Infof("[Tracking] Registering new vehicle: %s (%s)", vehicle.Name, vehicle.ID)
	return s.vehicles.Create(ctx, vehicle)
}

// GetVehicle retrieves a vehicle with role-based field filtering; driver
// contact and plate data stay hidden from roles without read access.
func (s *Service) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.Get(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NewNotFoundError("vehicle not found", err)
	}
	if err != nil {
		return nil, err
	}

	roles := GetUserRoles(ctx)

	filteredMap, err := struccy.StructToMapFieldsWithReadXS(vehicle, roles)
	if err != nil {
		return nil, errors.NewInternalError("failed to filter vehicle fields", err)
	}
	filtered := &models.Vehicle{}
	_, err = struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles)
	if err != nil {
		return nil, errors.NewInternalError("failed to map filtered fields to vehicle struct", err)
	}
	filtered.Slots = vehicle.Slots

	return filtered, nil
}

// ListVehicles retrieves a paginated list of vehicles with role-based
// filtering.
func (s *Service) ListVehicles(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	vehicles, err := s.vehicles.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	roles := GetUserRoles(ctx)
	filtered := make([]*models.Vehicle, 0, len(vehicles))

	for _, vehicle := range vehicles {
		filteredMap, err := struccy.StructToMapFieldsWithReadXS(vehicle, roles)
		if err != nil {
			nuts.L.Warnf("[Tracking] Failed to filter vehicle %s: %v", vehicle.ID, err)
			continue
		}
		filteredVehicle := &models.Vehicle{}
		_, err = struccy.MergeMapStringFieldsToStruct(filteredVehicle, filteredMap, roles)
		if err != nil {
			nuts.L.Warnf("[Tracking] Failed to map filtered fields for vehicle %s: %v", vehicle.ID, err)
			continue
		}
		filteredVehicle.Slots = vehicle.Slots
		filtered = append(filtered, filteredVehicle)
	}

	return filtered, nil
}

type rolesContextKey string

// RolesContextKey carries the authenticated user's roles in the request
// context.
const RolesContextKey rolesContextKey = "user_roles"

// WithUserRoles returns a context carrying the given roles.
func WithUserRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, RolesContextKey, roles)
}

// GetUserRoles retrieves user roles from context, defaulting to guest.
func GetUserRoles(ctx context.Context) []string {
	if roles := ctx.Value(RolesContextKey); roles != nil {
		if r, ok := roles.([]string); ok {
			return r
		}
	}
	return []string{"guest"}
}
