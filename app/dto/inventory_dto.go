// Package dto contains Data Transfer Objects for API request and response structures
package dto

// InventorySummaryResponse reports gauge counts per status plus derived
// totals for the dashboard
type InventorySummaryResponse struct {
	CountsByStatus map[string]int64 `json:"counts_by_status"`
	TotalGauges    int64            `json:"total_gauges" example:"412"`
	SpareGauges    int64            `json:"spare_gauges" example:"37"`
	PairedSets     int64            `json:"paired_sets" example:"180"`
	CachedAt       string           `json:"cached_at,omitempty" example:"2026-08-31T10:30:00Z"`
}

// InventoryExportRequest filters the inventory spreadsheet export
type InventoryExportRequest struct {
	CategoryID     *uint   `json:"category_id,omitempty" query:"category_id"`
	Status         *string `json:"status,omitempty" query:"status" validate:"omitempty,max=32"`
	OwnershipType  *string `json:"ownership_type,omitempty" query:"ownership_type" validate:"omitempty,oneof=company customer employee"`
	IncludeRetired bool    `json:"include_retired,omitempty" query:"include_retired"`
}

// CalibrationDueResponse lists gauges whose calibration falls due soon
type CalibrationDueResponse struct {
	DueBefore string     `json:"due_before" example:"2026-09-30T00:00:00Z"`
	Gauges    []GaugeDTO `json:"gauges"`
}
