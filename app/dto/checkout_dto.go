// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CheckoutSetRequest checks a whole set out to a job
type CheckoutSetRequest struct {
	GaugeID     uint    `json:"gauge_id" validate:"required" example:"42"`
	Destination string  `json:"destination" validate:"required,min=1,max=255" example:"Line 4 inspection bench"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CheckoutSetResponse returns the checked-out set
type CheckoutSetResponse struct {
	Set GaugeSetDTO `json:"set"`
}

// ReturnSetRequest returns a checked-out set to storage
type ReturnSetRequest struct {
	GaugeID         uint    `json:"gauge_id" validate:"required" example:"42"`
	StorageLocation string  `json:"storage_location" validate:"required,min=1,max=255" example:"Cabinet A3"`
	RequiresQC      bool    `json:"requires_qc" example:"true"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ReturnSetResponse returns the set after check-in
type ReturnSetResponse struct {
	Set GaugeSetDTO `json:"set"`
}

// CheckoutEligibilityResponse reports whether a set can be checked out and,
// when it cannot, why
type CheckoutEligibilityResponse struct {
	Eligible bool   `json:"eligible" example:"false"`
	Code     string `json:"code,omitempty" example:"GAUGE_PENDING_QC"`
	Reason   string `json:"reason,omitempty" example:"gauge TG-2024-0042 is pending QC"`
}
