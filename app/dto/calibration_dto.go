// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CalibrationBatchDTO represents one calibration batch in API responses
type CalibrationBatchDTO struct {
	ID            uint    `json:"id" example:"9"`
	UUID          string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	BatchNumber   string  `json:"batch_number" example:"CB1001"`
	Status        string  `json:"status" example:"sent"`
	VendorName    string  `json:"vendor_name" example:"Acme Calibration Labs"`
	VendorContact *string `json:"vendor_contact,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	CreatedBy     uint    `json:"created_by" example:"5"`
	SentAt        *string `json:"sent_at,omitempty" example:"2026-02-01T09:00:00Z"`
	ClosedAt      *string `json:"closed_at,omitempty"`
	CreatedAt     string  `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// CreateBatchRequest opens a new calibration batch
type CreateBatchRequest struct {
	VendorName    string  `json:"vendor_name" validate:"required,min=1,max=255" example:"Acme Calibration Labs"`
	VendorContact *string `json:"vendor_contact,omitempty" validate:"omitempty,max=255"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// CreateBatchResponse returns the created batch
type CreateBatchResponse struct {
	Batch CalibrationBatchDTO `json:"batch"`
}

// AddGaugesToBatchRequest assigns gauges to an open batch
type AddGaugesToBatchRequest struct {
	BatchID  uint   `json:"batch_id" validate:"required" example:"9"`
	GaugeIDs []uint `json:"gauge_ids" validate:"required,min=1,dive,required" example:"42,43"`
}

// SendBatchRequest marks a batch as sent to the vendor; every member gauge
// moves to out_for_calibration
type SendBatchRequest struct {
	BatchID uint `json:"batch_id" validate:"required" example:"9"`
}

// ReceiveGaugeRequest receives one gauge back from calibration
type ReceiveGaugeRequest struct {
	BatchID uint `json:"batch_id" validate:"required" example:"9"`
	GaugeID uint `json:"gauge_id" validate:"required" example:"42"`
}

// CancelBatchRequest cancels a batch that has not been sent
type CancelBatchRequest struct {
	BatchID uint    `json:"batch_id" validate:"required" example:"9"`
	Reason  *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// BatchDetailResponse returns a batch together with its member gauges
type BatchDetailResponse struct {
	Batch  CalibrationBatchDTO `json:"batch"`
	Gauges []GaugeDTO          `json:"gauges"`
}
