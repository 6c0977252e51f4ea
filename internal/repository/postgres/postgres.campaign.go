// FilePath: server/hub/internal/repository/postgres/postgres.campaign.go
package postgres

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/itsatony/admova/server/hub/internal/database"
	"github.com/itsatony/admova/server/hub/internal/errors"
	"github.com/itsatony/admova/server/hub/internal/models"
)

// PlacementRepo answers campaign/placement lookups for the rollup job and
// accepts seeding writes. The booking flow itself lives with the external
// booking system.
type PlacementRepo struct {
	PostgresBaseRepo
}

func NewPlacementRepository(db database.DB) (*PlacementRepo, error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			advertiser_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			ad_ids JSONB NOT NULL DEFAULT '[]',
			active BOOLEAN NOT NULL DEFAULT FALSE,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_advertiser
			ON campaigns(advertiser_id)`,
		`CREATE TABLE IF NOT EXISTS placements (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL REFERENCES campaigns(id),
			vehicle_id TEXT NOT NULL,
			slot_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_placements_campaign
			ON placements(campaign_id)`,
	}
	if err := initSchema(db, queries); err != nil {
		return nil, err
	}
	return &PlacementRepo{PostgresBaseRepo{db: db}}, nil
}

func (r *PlacementRepo) ListAdvertisers(ctx context.Context) ([]string, error) {
	ids := []string{}
	query := `SELECT DISTINCT advertiser_id FROM campaigns
		WHERE active = TRUE AND paid = TRUE ORDER BY advertiser_id`

	err := r.db.GetDB().SelectContext(ctx, &ids, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list advertisers", err)
	}
	return ids, nil
}

// VehiclesForAdvertiser returns the vehicles carrying the advertiser's
// active, paid campaigns whose booked range overlaps the window.
func (r *PlacementRepo) VehiclesForAdvertiser(ctx context.Context, advertiserID, startDate, endDate string) ([]string, error) {
	ids := []string{}
	query := `SELECT DISTINCT p.vehicle_id
		FROM placements p
		JOIN campaigns c ON c.id = p.campaign_id
		WHERE c.advertiser_id = $1
			AND c.active = TRUE AND c.paid = TRUE
			AND c.start_date <= $3 AND c.end_date >= $2
		ORDER BY p.vehicle_id`

	err := r.db.GetDB().SelectContext(ctx, &ids, query, advertiserID, startDate, endDate)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list advertiser vehicles", err)
	}
	return ids, nil
}

func (r *PlacementRepo) AdsForAdvertiser(ctx context.Context, advertiserID, startDate, endDate string) ([]string, error) {
	docs := [][]byte{}
	query := `SELECT ad_ids FROM campaigns
		WHERE advertiser_id = $1
			AND active = TRUE AND paid = TRUE
			AND start_date <= $3 AND end_date >= $2`

	err := r.db.GetDB().SelectContext(ctx, &docs, query, advertiserID, startDate, endDate)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list advertiser ads", err)
	}

	seen := map[string]bool{}
	ads := []string{}
	for _, doc := range docs {
		ids := []string{}
		if err := json.Unmarshal(doc, &ids); err != nil {
			return nil, errors.NewDatabaseError("failed to decode campaign ad ids", err)
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				ads = append(ads, id)
			}
		}
	}
	return ads, nil
}

func (r *PlacementRepo) CreateCampaign(ctx context.Context, campaign *models.Campaign) error {
	adIDs, err := json.Marshal(campaign.AdIDs)
	if err != nil {
		return errors.NewInternalError("failed to encode ad ids", err)
	}
	query := `INSERT INTO campaigns
			(id, advertiser_id, name, ad_ids, active, paid, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.GetDB().ExecContext(ctx, query,
		campaign.ID, campaign.AdvertiserID, campaign.Name, adIDs,
		campaign.Active, campaign.Paid, campaign.StartDate, campaign.EndDate,
		campaign.CreatedAt, campaign.UpdatedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to create campaign", err)
	}
	return nil
}

func (r *PlacementRepo) CreatePlacement(ctx context.Context, placement *models.Placement) error {
	query := `INSERT INTO placements (id, campaign_id, vehicle_id, slot_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.GetDB().ExecContext(ctx, query,
		placement.ID, placement.CampaignID, placement.VehicleID,
		placement.SlotID, placement.CreatedAt)
	if err != nil {
		return errors.NewDatabaseError("failed to create placement", err)
	}
	return nil
}
