// Package dto contains Data Transfer Objects for API request and response structures
package dto

// GaugeSetDTO is the composed view of a GO gauge and its NO-GO companion
type GaugeSetDTO struct {
	BaseID     string   `json:"base_id" example:"SP1001"`
	Go         GaugeDTO `json:"go_gauge"`
	NoGo       GaugeDTO `json:"no_go_gauge"`
	SetStatus  string   `json:"set_status,omitempty" example:"available"`
	SealStatus string   `json:"seal_status,omitempty" example:"unsealed"`
}

// CreateSetRequest creates a brand-new GO/NO-GO pair from scratch
type CreateSetRequest struct {
	Go              CreateGaugeInput `json:"go_gauge" validate:"required"`
	NoGo            CreateGaugeInput `json:"no_go_gauge" validate:"required"`
	StorageLocation string           `json:"storage_location" validate:"required,min=1,max=255" example:"Cabinet A3"`
}

// CreateSetResponse returns the created set
type CreateSetResponse struct {
	BaseID string      `json:"base_id" example:"SP1001"`
	Set    GaugeSetDTO `json:"set"`
}

// PairSparesRequest links two existing spare gauges into a set
type PairSparesRequest struct {
	GoGaugeID   uint    `json:"go_gauge_id" validate:"required" example:"42"`
	NoGoGaugeID uint    `json:"no_go_gauge_id" validate:"required" example:"43"`
	SetLocation string  `json:"set_location" validate:"required,min=1,max=255" example:"Cabinet A3"`
	Reason      *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// PairSparesResponse returns the newly paired set
type PairSparesResponse struct {
	BaseID string      `json:"base_id" example:"SP1001"`
	Set    GaugeSetDTO `json:"set"`
}

// UnpairSetRequest dissolves a set; either member's ID is accepted
type UnpairSetRequest struct {
	GaugeID uint    `json:"gauge_id" validate:"required" example:"42"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// UnpairSetResponse returns both former members, initiator first
type UnpairSetResponse struct {
	Initiator GaugeDTO `json:"initiator"`
	Companion GaugeDTO `json:"companion"`
}

// ReplaceCompanionRequest swaps one member of a set for a spare
type ReplaceCompanionRequest struct {
	ExistingGaugeID uint    `json:"existing_gauge_id" validate:"required" example:"42"`
	NewCompanionID  uint    `json:"new_companion_id" validate:"required" example:"57"`
	Reason          *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ReplaceCompanionResponse returns the reconstituted set and the gauge that
// left it
type ReplaceCompanionResponse struct {
	BaseID          string      `json:"base_id" example:"SP1001"`
	Set             GaugeSetDTO `json:"set"`
	FormerCompanion GaugeDTO    `json:"former_companion"`
}

// FindSparesRequest filters the spare pool
type FindSparesRequest struct {
	CategoryID uint   `json:"category_id,omitempty" query:"category_id" example:"3"`
	IsGoGauge  *bool  `json:"is_go_gauge,omitempty" query:"is_go_gauge"`
	Status     string `json:"status,omitempty" query:"status" validate:"omitempty,max=32" example:"available"`
}

// CompanionHistoryDTO is one row of the pairing audit trail
type CompanionHistoryDTO struct {
	ID          uint    `json:"id" example:"11"`
	Action      string  `json:"action" example:"paired_from_spares"`
	GoGaugeID   uint    `json:"go_gauge_id" example:"42"`
	NoGoGaugeID uint    `json:"no_go_gauge_id" example:"43"`
	UserID      uint    `json:"user_id" example:"5"`
	Reason      *string `json:"reason,omitempty"`
	CreatedAt   string  `json:"created_at" example:"2026-01-15T10:30:00Z"`
}
