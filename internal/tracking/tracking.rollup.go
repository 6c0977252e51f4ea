// FilePath: server/hub/internal/tracking/tracking.rollup.go
package tracking

import (
	"context"
	"sort"
	"time"

	"github.com/itsatony/admova/server/hub/internal/models"
	"github.com/itsatony/admova/server/hub/internal/timezone"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/sync/errgroup"
)

const rollupParallelism = 4

// RunRollup recomputes every advertiser's summary over the configured
// trailing window. Single-flight; one advertiser failing is logged and
// skipped, never aborting the others.
func (s *Service) RunRollup(ctx context.Context) error {
	if !s.rollupBusy.CompareAndSwap(false, true) {
		nuts.L.Infof("[RollupJob] Run already in progress, skipping")
		return nil
	}
	defer s.rollupBusy.Store(false)

	now := time.Now()
	endDate := timezone.LocalDate(now, s.resolver.Fallback())
	startDate := timezone.LocalDate(now.AddDate(0, 0, -s.cfg.RollupWindowDays), s.resolver.Fallback())

	advertisers, err := s.placements.ListAdvertisers(ctx)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(rollupParallelism)
	for _, advertiserID := range advertisers {
		advertiserID := advertiserID
		group.Go(func() error {
			if _, err := s.ComputeRollup(groupCtx, advertiserID, startDate, endDate, true); err != nil {
				nuts.L.Warnf("[RollupJob] Skipping advertiser %s: %v", advertiserID, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	nuts.L.Infof("[RollupJob] Recomputed rollups for %d advertisers (%s..%s)",
		len(advertisers), startDate, endDate)
	return nil
}

type adAccumulator struct {
	impressions      int
	playTimeSeconds  float64
	qrScans          int
	completionWeight float64
}

// ComputeRollup scans the timelines of all vehicles carrying the
// advertiser's active, paid campaigns over the date window and builds the
// advertiser summary. With persist set, the previous rollup is replaced
// wholesale. A failed timeline lookup skips that vehicle and continues.
func (s *Service) ComputeRollup(ctx context.Context, advertiserID, startDate, endDate string, persist bool) (*models.AdvertiserRollup, error) {
	vehicleIDs, err := s.placements.VehiclesForAdvertiser(ctx, advertiserID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	adIDs, err := s.placements.AdsForAdvertiser(ctx, advertiserID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	adSet := make(map[string]bool, len(adIDs))
	for _, id := range adIDs {
		adSet[id] = true
	}

	rollup := &models.AdvertiserRollup{
		AdvertiserID: advertiserID,
		WindowStart:  startDate,
		WindowEnd:    endDate,
		Ads:          []models.AdRollupEntry{},
		Vehicles:     []models.VehicleContribution{},
		VehicleCount: len(vehicleIDs),
		ComputedAt:   time.Now(),
	}
	adAggs := map[string]*adAccumulator{}

	for _, vehicleID := range vehicleIDs {
		tl, err := s.timelines.Get(ctx, vehicleID)
		if err != nil {
			nuts.L.Warnf("[RollupJob] Timeline lookup failed for vehicle %s (advertiser %s): %v",
				vehicleID, advertiserID, err)
			continue
		}

		contribution := models.VehicleContribution{VehicleID: vehicleID}
		for i := range tl.Records {
			record := &tl.Records[i]
			if record.Date < startDate || record.Date > endDate {
				continue
			}
			contribution.Days++
			contribution.OnlineHours += record.OnlineHours

			for adID, perf := range record.AdStats {
				if !adSet[adID] {
					continue
				}
				agg, ok := adAggs[adID]
				if !ok {
					agg = &adAccumulator{}
					adAggs[adID] = agg
				}
				agg.impressions += perf.Impressions
				agg.playTimeSeconds += perf.TotalViewTimeSeconds
				agg.qrScans += perf.ScanCount
				agg.completionWeight += perf.CompletionRate * float64(perf.Impressions)

				contribution.Impressions += perf.Impressions
				contribution.PlayTimeSeconds += perf.TotalViewTimeSeconds
				contribution.QrScans += perf.ScanCount
			}
		}
		rollup.Vehicles = append(rollup.Vehicles, contribution)
	}

	for adID, agg := range adAggs {
		entry := models.AdRollupEntry{
			AdID:            adID,
			Impressions:     agg.impressions,
			PlayTimeSeconds: agg.playTimeSeconds,
			QrScans:         agg.qrScans,
		}
		// Rates are ratios guarded against empty denominators; a campaign
		// with zero impressions reports zero rates, not a division fault.
		if agg.impressions > 0 {
			entry.CompletionRate = agg.completionWeight / float64(agg.impressions)
			entry.ConversionRate = float64(agg.qrScans) / float64(agg.impressions) * 100
		}
		rollup.Ads = append(rollup.Ads, entry)

		rollup.TotalImpressions += agg.impressions
		rollup.TotalPlayTimeSeconds += agg.playTimeSeconds
		rollup.TotalQrScans += agg.qrScans
	}
	sort.Slice(rollup.Ads, func(i, j int) bool {
		return rollup.Ads[i].AdID < rollup.Ads[j].AdID
	})

	if rollup.TotalImpressions > 0 {
		weight := 0.0
		for _, agg := range adAggs {
			weight += agg.completionWeight
		}
		rollup.CompletionRate = weight / float64(rollup.TotalImpressions)
		rollup.ConversionRate = float64(rollup.TotalQrScans) / float64(rollup.TotalImpressions) * 100
	}

	if persist {
		if err := s.rollups.Replace(ctx, rollup); err != nil {
			return nil, err
		}
		s.Events.Emit(EventRollupUpdated, advertiserID)
	}
	return rollup, nil
}
