// FilePath: server/hub/internal/models/models.vehicle.go
package models

import "time"

// SlotDescriptor describes one physical screen mounted on a vehicle.
type SlotDescriptor struct {
	SlotID string `json:"slot_id"`
	Device string `json:"device"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Vehicle is a physical advertising carrier ("material") with one or more
// mounted screens. Registry data only; live state lives on the session.
type Vehicle struct {
	ID           string           `json:"id" db:"id"`
	GroupID      string           `json:"group_id" db:"group_id"`
	Name         string           `json:"name" db:"name"`
	LicensePlate string           `json:"license_plate" db:"license_plate" readxs:"owner,operator,system,superadmin" writexs:"owner,system,superadmin"`
	Slots        []SlotDescriptor `json:"slots" db:"-"`
	Timezone     string           `json:"timezone" db:"timezone"`
	TargetHours  float64          `json:"target_hours" db:"target_hours"`
	DriverPhone  string           `json:"driver_phone,omitempty" db:"driver_phone" readxs:"owner,system,superadmin" writexs:"owner,system,superadmin"`
	LastSeen     time.Time        `json:"last_seen" db:"last_seen"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Campaign is an advertiser's booking of one or more advertisements over a
// date range. Only active, paid campaigns count toward rollups.
type Campaign struct {
	ID           string    `json:"id" db:"id"`
	AdvertiserID string    `json:"advertiser_id" db:"advertiser_id"`
	Name         string    `json:"name" db:"name"`
	AdIDs        []string  `json:"ad_ids"`
	Active       bool      `json:"active" db:"active"`
	Paid         bool      `json:"paid" db:"paid"`
	StartDate    string    `json:"start_date" db:"start_date"` // DateLayout
	EndDate      string    `json:"end_date" db:"end_date"`     // DateLayout
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Placement binds a campaign to a vehicle (optionally to one slot).
type Placement struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	VehicleID  string    `json:"vehicle_id" db:"vehicle_id"`
	SlotID     string    `json:"slot_id,omitempty" db:"slot_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
