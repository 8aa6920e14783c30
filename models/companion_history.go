// Package models contains domain entities and business models for the gauge tracking system
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CompanionAction identifies the pairing operation recorded in a history row
type CompanionAction string

const (
	CompanionActionCreatedTogether  CompanionAction = "created_together"
	CompanionActionPairedFromSpares CompanionAction = "paired_from_spares"
	CompanionActionReplaced         CompanionAction = "replaced"
	CompanionActionUnpaired         CompanionAction = "unpaired"
)

func (a CompanionAction) String() string {
	return string(a)
}

func (a CompanionAction) Valid() bool {
	switch a {
	case CompanionActionCreatedTogether, CompanionActionPairedFromSpares,
		CompanionActionReplaced, CompanionActionUnpaired:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CompanionAction
func (a *CompanionAction) Scan(value any) error {
	if value == nil {
		*a = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*a = CompanionAction(v)
	case []byte:
		*a = CompanionAction(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CompanionAction", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CompanionAction
func (a CompanionAction) Value() (driver.Value, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid CompanionAction: %s", a)
	}
	return string(a), nil
}

// CompanionHistory is the append-only audit trail of pairing operations.
// Rows are created once per operation and never mutated or deleted.
type CompanionHistory struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Action     CompanionAction `gorm:"type:companion_action_enum;not null;index:idx_companion_history_action" json:"action"`
	GoGaugeID  uint            `gorm:"not null;index:idx_companion_history_go_gauge_id" json:"go_gauge_id"`
	NoGoGaugeID uint           `gorm:"not null;index:idx_companion_history_no_go_gauge_id" json:"no_go_gauge_id"`
	UserID     uint            `gorm:"not null;index:idx_companion_history_user_id" json:"user_id"`
	Reason     *string         `gorm:"type:text" json:"reason,omitempty"`
	Metadata   json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_companion_history_created_at" json:"created_at"`
}

func (CompanionHistory) TableName() string {
	return "companion_history"
}

// CompanionHistoryFilter represents filter criteria for companion history queries
type CompanionHistoryFilter struct {
	ID            *uint
	Action        *CompanionAction
	GoGaugeID     *uint
	NoGoGaugeID   *uint
	GaugeID       *uint // matches either role
	UserID        *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
