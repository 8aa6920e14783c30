// Package models contains domain entities and business models for the gauge tracking system
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CalibrationBatchStatus represents the lifecycle state of a calibration batch
type CalibrationBatchStatus string

const (
	CalibrationBatchStatusCreated           CalibrationBatchStatus = "created"
	CalibrationBatchStatusInPreparation     CalibrationBatchStatus = "in_preparation"
	CalibrationBatchStatusSent              CalibrationBatchStatus = "sent"
	CalibrationBatchStatusPartiallyReceived CalibrationBatchStatus = "partially_received"
	CalibrationBatchStatusClosed            CalibrationBatchStatus = "closed"
	CalibrationBatchStatusCancelled         CalibrationBatchStatus = "cancelled"
)

func (s CalibrationBatchStatus) String() string {
	return string(s)
}

func (s CalibrationBatchStatus) Valid() bool {
	switch s {
	case CalibrationBatchStatusCreated, CalibrationBatchStatusInPreparation,
		CalibrationBatchStatusSent, CalibrationBatchStatusPartiallyReceived,
		CalibrationBatchStatusClosed, CalibrationBatchStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CalibrationBatchStatus
func (s *CalibrationBatchStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CalibrationBatchStatus(v)
	case []byte:
		*s = CalibrationBatchStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CalibrationBatchStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CalibrationBatchStatus
func (s CalibrationBatchStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CalibrationBatchStatus: %s", s)
	}
	return string(s), nil
}

// CanTransitionTo checks if the batch status can transition to the new status
func (s CalibrationBatchStatus) CanTransitionTo(newStatus CalibrationBatchStatus) bool {
	if s == newStatus {
		return false
	}
	switch s {
	case CalibrationBatchStatusCreated:
		return newStatus == CalibrationBatchStatusInPreparation ||
			newStatus == CalibrationBatchStatusSent ||
			newStatus == CalibrationBatchStatusCancelled
	case CalibrationBatchStatusInPreparation:
		return newStatus == CalibrationBatchStatusSent ||
			newStatus == CalibrationBatchStatusCancelled
	case CalibrationBatchStatusSent:
		return newStatus == CalibrationBatchStatusPartiallyReceived ||
			newStatus == CalibrationBatchStatusClosed
	case CalibrationBatchStatusPartiallyReceived:
		return newStatus == CalibrationBatchStatusClosed
	case CalibrationBatchStatusClosed, CalibrationBatchStatusCancelled:
		return false
	default:
		return false
	}
}

// IsOpen reports whether gauges can still be added to the batch
func (s CalibrationBatchStatus) IsOpen() bool {
	return s == CalibrationBatchStatusCreated || s == CalibrationBatchStatusInPreparation
}

// CalibrationBatch groups gauges sent for external calibration together.
// Gauges reference their batch only while status = out_for_calibration.
type CalibrationBatch struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_calibration_batches_uuid" json:"uuid"`

	BatchNumber string                 `gorm:"size:32;not null;uniqueIndex:uk_calibration_batches_number" json:"batch_number"`
	Status      CalibrationBatchStatus `gorm:"type:calibration_batch_status_enum;not null;default:'created';index:idx_calibration_batches_status" json:"status"`

	VendorName    string  `gorm:"size:255;not null" json:"vendor_name"`
	VendorContact *string `gorm:"size:255" json:"vendor_contact,omitempty"`
	Notes         *string `gorm:"type:text" json:"notes,omitempty"`

	CreatedBy uint       `gorm:"not null" json:"created_by"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_calibration_batches_created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (CalibrationBatch) TableName() string {
	return "calibration_batches"
}

// CalibrationBatchFilter represents filter criteria for calibration batch queries
type CalibrationBatchFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	BatchNumber   *string
	Status        *CalibrationBatchStatus
	VendorName    *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SentAfter     *time.Time
	SentBefore    *time.Time
}
