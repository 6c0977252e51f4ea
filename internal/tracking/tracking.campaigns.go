// FilePath: server/hub/internal/tracking/tracking.campaigns.go
package tracking

import (
	"context"
	"time"

	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CreateCampaign registers an advertiser's booking. Only active, paid
// campaigns feed the rollup job; inactive ones are stored but ignored.
func (s *Service) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	if campaign.AdvertiserID == "" {
		return errors.NewValidationError("advertiser id is required", nil)
	}
	if len(campaign.AdIDs) == 0 {
		return errors.NewValidationError("campaign needs at least one ad id", nil)
	}
	if _, err := time.Parse(models.DateLayout, campaign.StartDate); err != nil {
		return errors.NewValidationError("invalid campaign start date: "+campaign.StartDate, err)
	}
	if _, err := time.Parse(models.DateLayout, campaign.EndDate); err != nil {
		return errors.NewValidationError("invalid campaign end date: "+campaign.EndDate, err)
	}
	if campaign.EndDate < campaign.StartDate {
		return errors.NewValidationError("campaign end date precedes start date", nil)
	}

	if campaign.ID == "" {
		campaign.ID = nuts.NID("cmp", 12)
	}
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	nuts.L.Infof("[Tracking] Registering campaign %s for advertiser %s", campaign.ID, campaign.AdvertiserID)
	return s.placements.CreateCampaign(ctx, campaign)
}

// CreatePlacement books a campaign onto a vehicle. The vehicle must already
// be registered.
func (s *Service) CreatePlacement(ctx context.Context, placement *models.Placement) error {
	if placement.CampaignID == "" {
		return errors.NewValidationError("campaign id is required", nil)
	}
	if placement.VehicleID == "" {
		return errors.NewValidationError("vehicle id is required", nil)
	}
	if _, err := s.vehicles.Get(ctx, placement.VehicleID); err != nil {
		if err == repository.ErrNotFound {
			return errors.NewNotFoundError("vehicle not found: "+placement.VehicleID, err)
		}
		return err
	}

	if placement.ID == "" {
		placement.ID = nuts.NID("plc", 12)
	}
	placement.CreatedAt = time.Now()

	nuts.L.Infof("[Tracking] Placing campaign %s on vehicle %s", placement.CampaignID, placement.VehicleID)
	return s.placements.CreatePlacement(ctx, placement)
}
