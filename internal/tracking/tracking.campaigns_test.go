// FilePath: server/hub/internal/tracking/tracking.campaigns_test.go
package tracking

import (
	"context"
	"testing"

	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	campaign := &models.Campaign{
		AdvertiserID: "adv_1",
		Name:         "Summer push",
		AdIDs:        []string{"ad_1", "ad_2"},
		Active:       true,
		Paid:         true,
		StartDate:    "2026-08-01",
		EndDate:      "2026-08-31",
	}
	require.NoError(t, f.svc.CreateCampaign(ctx, campaign))
	assert.NotEmpty(t, campaign.ID)
	assert.False(t, campaign.CreatedAt.IsZero())

	// The registry now answers rollup lookups for the advertiser.
	ads, err := f.placements.AdsForAdvertiser(ctx, "adv_1", "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ad_1", "ad_2"}, ads)
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := func() *models.Campaign {
		return &models.Campaign{
			AdvertiserID: "adv_1",
			AdIDs:        []string{"ad_1"},
			StartDate:    "2026-08-01",
			EndDate:      "2026-08-31",
		}
	}

	cases := []struct {
		name   string
		mutate func(*models.Campaign)
	}{
		{"missing advertiser", func(c *models.Campaign) { c.AdvertiserID = "" }},
		{"no ads", func(c *models.Campaign) { c.AdIDs = nil }},
		{"malformed start date", func(c *models.Campaign) { c.StartDate = "01.08.2026" }},
		{"malformed end date", func(c *models.Campaign) { c.EndDate = "" }},
		{"end before start", func(c *models.Campaign) { c.EndDate = "2026-07-01" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			campaign := valid()
			tc.mutate(campaign)
			err := f.svc.CreateCampaign(ctx, campaign)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
	assert.Empty(t, f.placements.Campaigns)
}

func TestCreatePlacement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.vehicles.Create(ctx, &models.Vehicle{ID: "veh_1", Name: "Tram 7"}))
	campaign := &models.Campaign{
		ID:           "cmp_1",
		AdvertiserID: "adv_1",
		AdIDs:        []string{"ad_1"},
		Active:       true,
		Paid:         true,
		StartDate:    "2026-08-01",
		EndDate:      "2026-08-31",
	}
	require.NoError(t, f.svc.CreateCampaign(ctx, campaign))

	placement := &models.Placement{CampaignID: "cmp_1", VehicleID: "veh_1"}
	require.NoError(t, f.svc.CreatePlacement(ctx, placement))
	assert.NotEmpty(t, placement.ID)

	vehicles, err := f.placements.VehiclesForAdvertiser(ctx, "adv_1", "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, []string{"veh_1"}, vehicles)
}

func TestCreatePlacementUnknownVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.CreatePlacement(ctx, &models.Placement{CampaignID: "cmp_1", VehicleID: "veh_missing"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
