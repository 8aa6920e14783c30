// Package models contains domain entities and business models for the gauge tracking system
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EquipmentType classifies a gauge by its physical kind
type EquipmentType string

const (
	EquipmentTypeThreadGauge         EquipmentType = "thread_gauge"
	EquipmentTypeLargeEquipment      EquipmentType = "large_equipment"
	EquipmentTypeHandTool            EquipmentType = "hand_tool"
	EquipmentTypeCalibrationStandard EquipmentType = "calibration_standard"
)

func (t EquipmentType) String() string {
	return string(t)
}

func (t EquipmentType) Valid() bool {
	switch t {
	case EquipmentTypeThreadGauge, EquipmentTypeLargeEquipment,
		EquipmentTypeHandTool, EquipmentTypeCalibrationStandard:
		return true
	default:
		return false
	}
}

// OwnershipType identifies who owns a gauge
type OwnershipType string

const (
	OwnershipTypeCompany  OwnershipType = "company"
	OwnershipTypeCustomer OwnershipType = "customer"
	OwnershipTypeEmployee OwnershipType = "employee"
)

func (o OwnershipType) String() string {
	return string(o)
}

func (o OwnershipType) Valid() bool {
	switch o {
	case OwnershipTypeCompany, OwnershipTypeCustomer, OwnershipTypeEmployee:
		return true
	default:
		return false
	}
}

// GaugeStatus represents the lifecycle status of a gauge
type GaugeStatus string

const (
	GaugeStatusAvailable          GaugeStatus = "available"
	GaugeStatusCheckedOut         GaugeStatus = "checked_out"
	GaugeStatusPendingQC          GaugeStatus = "pending_qc"
	GaugeStatusOutOfService       GaugeStatus = "out_of_service"
	GaugeStatusPendingUnseal      GaugeStatus = "pending_unseal"
	GaugeStatusOutForCalibration  GaugeStatus = "out_for_calibration"
	GaugeStatusPendingCertificate GaugeStatus = "pending_certificate"
	GaugeStatusPendingRelease     GaugeStatus = "pending_release"
	GaugeStatusReturned           GaugeStatus = "returned"
	GaugeStatusRetired            GaugeStatus = "retired"
)

// String returns the string representation of the status
func (s GaugeStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s GaugeStatus) Valid() bool {
	switch s {
	case GaugeStatusAvailable, GaugeStatusCheckedOut, GaugeStatusPendingQC,
		GaugeStatusOutOfService, GaugeStatusPendingUnseal, GaugeStatusOutForCalibration,
		GaugeStatusPendingCertificate, GaugeStatusPendingRelease,
		GaugeStatusReturned, GaugeStatusRetired:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for GaugeStatus
func (s *GaugeStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = GaugeStatus(v)
	case []byte:
		*s = GaugeStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into GaugeStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for GaugeStatus
func (s GaugeStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid GaugeStatus: %s", s)
	}
	return string(s), nil
}

// CanTransitionTo checks if the status can transition to the new status.
// Retired is terminal; everything else follows the operational workflow.
func (s GaugeStatus) CanTransitionTo(newStatus GaugeStatus) bool {
	if s == newStatus {
		return false
	}
	switch s {
	case GaugeStatusAvailable:
		return newStatus == GaugeStatusCheckedOut ||
			newStatus == GaugeStatusOutOfService ||
			newStatus == GaugeStatusOutForCalibration ||
			newStatus == GaugeStatusRetired
	case GaugeStatusCheckedOut:
		return newStatus == GaugeStatusReturned ||
			newStatus == GaugeStatusOutOfService
	case GaugeStatusReturned:
		return newStatus == GaugeStatusPendingQC ||
			newStatus == GaugeStatusAvailable
	case GaugeStatusPendingQC:
		return newStatus == GaugeStatusAvailable ||
			newStatus == GaugeStatusOutOfService ||
			newStatus == GaugeStatusOutForCalibration
	case GaugeStatusOutOfService:
		return newStatus == GaugeStatusAvailable ||
			newStatus == GaugeStatusOutForCalibration ||
			newStatus == GaugeStatusRetired
	case GaugeStatusPendingUnseal:
		return newStatus == GaugeStatusAvailable ||
			newStatus == GaugeStatusOutOfService
	case GaugeStatusOutForCalibration:
		return newStatus == GaugeStatusPendingCertificate ||
			newStatus == GaugeStatusOutOfService
	case GaugeStatusPendingCertificate:
		return newStatus == GaugeStatusPendingRelease ||
			newStatus == GaugeStatusOutOfService
	case GaugeStatusPendingRelease:
		return newStatus == GaugeStatusAvailable ||
			newStatus == GaugeStatusPendingUnseal
	case GaugeStatusRetired:
		return false
	default:
		return false
	}
}

// SealStatus represents whether a gauge is sealed for storage
type SealStatus string

const (
	SealStatusUnsealed SealStatus = "unsealed"
	SealStatusSealed   SealStatus = "sealed"
)

func (s SealStatus) String() string {
	return string(s)
}

func (s SealStatus) Valid() bool {
	return s == SealStatusUnsealed || s == SealStatusSealed
}

// Gauge represents one physical inspection gauge
// Table: gauges
// SerialNumber is the business identifier and always present.
// SystemGaugeID is assigned only while paired: {baseId}A for GO, {baseId}B for NO-GO.
// CompanionGaugeID is a self reference; when set, the link is mutually symmetric.
// A gauge with companion_gauge_id NULL is a spare and has system_gauge_id NULL.
type Gauge struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_gauges_uuid" json:"uuid"`

	SerialNumber  string  `gorm:"size:100;not null;uniqueIndex:uk_gauges_serial_number" json:"serial_number"`
	SystemGaugeID *string `gorm:"size:32;uniqueIndex:uk_gauges_system_gauge_id" json:"system_gauge_id,omitempty"`

	EquipmentType EquipmentType `gorm:"type:equipment_type_enum;not null;index:idx_gauges_equipment_type" json:"equipment_type"`
	CategoryID    uint          `gorm:"not null;index:idx_gauges_category_id" json:"category_id"`

	ThreadSize  string `gorm:"size:32;not null" json:"thread_size"`
	ThreadClass string `gorm:"size:16;not null" json:"thread_class"`
	ThreadType  string `gorm:"size:16;not null" json:"thread_type"`
	IsGoGauge   bool   `gorm:"not null;index:idx_gauges_is_go_gauge" json:"is_go_gauge"`

	OwnershipType   OwnershipType `gorm:"type:ownership_type_enum;not null;index:idx_gauges_ownership_type" json:"ownership_type"`
	CustomerID      *uint         `gorm:"index:idx_gauges_customer_id" json:"customer_id,omitempty"`
	Customer        *Customer     `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	EmployeeOwnerID *uint         `gorm:"index:idx_gauges_employee_owner_id" json:"employee_owner_id,omitempty"`

	Status          GaugeStatus `gorm:"type:gauge_status_enum;not null;default:'available';index:idx_gauges_status" json:"status"`
	StorageLocation string      `gorm:"size:255" json:"storage_location"`
	SealStatus      SealStatus  `gorm:"type:seal_status_enum;not null;default:'unsealed'" json:"seal_status"`
	IsFixedLocation bool        `gorm:"not null;default:false" json:"is_fixed_location"`

	CompanionGaugeID *uint `gorm:"index:idx_gauges_companion_gauge_id" json:"companion_gauge_id,omitempty"`

	CalibrationBatchID *uint      `gorm:"index:idx_gauges_calibration_batch_id" json:"calibration_batch_id,omitempty"`
	CalibrationDueAt   *time.Time `gorm:"index:idx_gauges_calibration_due_at" json:"calibration_due_at,omitempty"`

	CreatedBy uint       `gorm:"not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_gauges_created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	RetiredAt *time.Time `gorm:"index:idx_gauges_retired_at" json:"retired_at,omitempty"`
}

func (Gauge) TableName() string {
	return "gauges"
}

// IsSpare reports whether the gauge currently has no companion
func (g *Gauge) IsSpare() bool {
	return g.CompanionGaugeID == nil
}

// IsRetired reports whether the gauge has been retired
func (g *Gauge) IsRetired() bool {
	return g.Status == GaugeStatusRetired || g.RetiredAt != nil
}

// IsSealed reports whether the gauge is currently sealed
func (g *Gauge) IsSealed() bool {
	return g.SealStatus == SealStatusSealed
}

// IsCalibrationOverdue reports whether the gauge's calibration due date has passed
func (g *Gauge) IsCalibrationOverdue(now time.Time) bool {
	return g.CalibrationDueAt != nil && now.After(*g.CalibrationDueAt)
}

// RoleSuffix returns the system gauge ID suffix for the gauge's role
func (g *Gauge) RoleSuffix() string {
	if g.IsGoGauge {
		return SystemGaugeIDSuffixGo
	}
	return SystemGaugeIDSuffixNoGo
}

// System gauge ID suffixes for the two roles in a set
const (
	SystemGaugeIDSuffixGo   = "A"
	SystemGaugeIDSuffixNoGo = "B"
)

// GaugeFilter represents filter criteria for gauge queries
type GaugeFilter struct {
	ID                 *uint
	UUID               *uuid.UUID
	SerialNumber       *string
	SystemGaugeID      *string
	EquipmentType      *EquipmentType
	CategoryID         *uint
	ThreadSize         *string
	ThreadClass        *string
	ThreadType         *string
	IsGoGauge          *bool
	OwnershipType      *OwnershipType
	CustomerID         *uint
	Status             *GaugeStatus
	StorageLocation    *string
	SealStatus         *SealStatus
	IsSpare            *bool
	CompanionGaugeID   *uint
	CalibrationBatchID *uint
	CalibrationDueBy   *time.Time
	IncludeRetired     bool
	CreatedAfter       *time.Time
	CreatedBefore      *time.Time
}
