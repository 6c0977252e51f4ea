// FilePath: server/hub/internal/models/models.rollup.go
package models

import "time"

// AdRollupEntry is the per-advertisement breakdown inside a rollup.
type AdRollupEntry struct {
	AdID            string  `json:"ad_id"`
	Impressions     int     `json:"impressions"`
	PlayTimeSeconds float64 `json:"play_time_seconds"`
	QrScans         int     `json:"qr_scans"`
	CompletionRate  float64 `json:"completion_rate"` // 0..100
	ConversionRate  float64 `json:"conversion_rate"` // 0..100, 0 when impressions are 0
}

// VehicleContribution is the per-vehicle breakdown inside a rollup.
type VehicleContribution struct {
	VehicleID       string  `json:"vehicle_id"`
	Days            int     `json:"days"`
	Impressions     int     `json:"impressions"`
	PlayTimeSeconds float64 `json:"play_time_seconds"`
	QrScans         int     `json:"qr_scans"`
	OnlineHours     float64 `json:"online_hours"`
}

// AdvertiserRollup is the advertiser-facing aggregate computed across the
// timelines of all vehicles carrying that advertiser's active, paid
// campaigns. Each rollup run replaces the previous one wholesale.
type AdvertiserRollup struct {
	AdvertiserID string `json:"advertiser_id"`
	WindowStart  string `json:"window_start"` // DateLayout
	WindowEnd    string `json:"window_end"`   // DateLayout

	TotalImpressions     int     `json:"total_impressions"`
	TotalPlayTimeSeconds float64 `json:"total_play_time_seconds"`
	TotalQrScans         int     `json:"total_qr_scans"`
	CompletionRate       float64 `json:"completion_rate"`
	ConversionRate       float64 `json:"conversion_rate"`

	Ads      []AdRollupEntry       `json:"ads"`
	Vehicles []VehicleContribution `json:"vehicles"`

	VehicleCount int       `json:"vehicle_count"`
	ComputedAt   time.Time `json:"computed_at"`
}
