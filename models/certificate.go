// Package models contains domain entities and business models for the gauge tracking system
package models

import (
	"time"

	"github.com/google/uuid"
)

// Certificate records one calibration certificate for a gauge.
// At most one certificate per gauge has IsCurrent = true. When a new
// certificate is uploaded, the previous current one is flipped to
// non-current in the same transaction and linked through SupersededByID,
// forming a supersession chain.
type Certificate struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_certificates_uuid" json:"uuid"`

	GaugeID            uint  `gorm:"not null;index:idx_certificates_gauge_id" json:"gauge_id"`
	CalibrationBatchID *uint `gorm:"index:idx_certificates_calibration_batch_id" json:"calibration_batch_id,omitempty"`

	CertificateNumber string    `gorm:"size:100;not null" json:"certificate_number"`
	IssuedAt          time.Time `gorm:"not null" json:"issued_at"`
	ExpiresAt         time.Time `gorm:"not null;index:idx_certificates_expires_at" json:"expires_at"`

	IsCurrent      bool       `gorm:"not null;default:true;index:idx_certificates_is_current" json:"is_current"`
	SupersededAt   *time.Time `json:"superseded_at,omitempty"`
	SupersededByID *uint      `json:"superseded_by_id,omitempty"`

	FileName    *string `gorm:"size:255" json:"file_name,omitempty"`
	FileKey     *string `gorm:"size:512" json:"file_key,omitempty"`
	ContentType *string `gorm:"size:100" json:"content_type,omitempty"`

	UploadedBy uint      `gorm:"not null" json:"uploaded_by"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_certificates_created_at" json:"created_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// IsExpired reports whether the certificate has passed its expiry date
func (c *Certificate) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// CertificateFilter represents filter criteria for certificate queries
type CertificateFilter struct {
	ID                 *uint
	UUID               *uuid.UUID
	GaugeID            *uint
	CalibrationBatchID *uint
	CertificateNumber  *string
	IsCurrent          *bool
	ExpiresAfter       *time.Time
	ExpiresBefore      *time.Time
	CreatedAfter       *time.Time
	CreatedBefore      *time.Time
}
