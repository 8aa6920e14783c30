// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CertificateDTO represents one calibration certificate in API responses
type CertificateDTO struct {
	ID                 uint    `json:"id" example:"17"`
	UUID               string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	GaugeID            uint    `json:"gauge_id" example:"42"`
	CalibrationBatchID *uint   `json:"calibration_batch_id,omitempty" example:"9"`
	CertificateNumber  string  `json:"certificate_number" example:"ACL-2026-00317"`
	IsCurrent          bool    `json:"is_current" example:"true"`
	SupersededAt       *string `json:"superseded_at,omitempty"`
	SupersededByID     *uint   `json:"superseded_by_id,omitempty"`
	FileName           *string `json:"file_name,omitempty" example:"ACL-2026-00317.pdf"`
	ContentType        *string `json:"content_type,omitempty" example:"application/pdf"`
	UploadedBy         uint    `json:"uploaded_by" example:"5"`
	IssuedAt           string  `json:"issued_at" example:"2026-02-10T00:00:00Z"`
	ExpiresAt          string  `json:"expires_at" example:"2027-02-10T00:00:00Z"`
	CreatedAt          string  `json:"created_at" example:"2026-02-11T10:30:00Z"`
}

// UploadCertificateRequest records a new certificate for a gauge. The
// previous current certificate, if any, is superseded in the same
// transaction.
type UploadCertificateRequest struct {
	GaugeID            uint    `json:"gauge_id" validate:"required" example:"42"`
	CalibrationBatchID *uint   `json:"calibration_batch_id,omitempty" example:"9"`
	CertificateNumber  string  `json:"certificate_number" validate:"required,min=1,max=100" example:"ACL-2026-00317"`
	IssuedAt           string  `json:"issued_at" validate:"required" example:"2026-02-10T00:00:00Z"`
	ExpiresAt          string  `json:"expires_at" validate:"required" example:"2027-02-10T00:00:00Z"`
	FileName           *string `json:"file_name,omitempty" validate:"omitempty,max=255"`
	FileKey            *string `json:"file_key,omitempty" validate:"omitempty,max=512"`
	ContentType        *string `json:"content_type,omitempty" validate:"omitempty,max=100"`
}

// UploadCertificateResponse returns the new certificate and, when one
// existed, the certificate it superseded
type UploadCertificateResponse struct {
	Certificate CertificateDTO  `json:"certificate"`
	Superseded  *CertificateDTO `json:"superseded,omitempty"`
}

// CertificateChainResponse returns a gauge's full supersession chain, newest
// first
type CertificateChainResponse struct {
	GaugeID      uint             `json:"gauge_id" example:"42"`
	Certificates []CertificateDTO `json:"certificates"`
}
