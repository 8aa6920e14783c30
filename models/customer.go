// Package models contains domain entities and business models for the gauge tracking system
package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents an external party that can own gauges tracked in the
// system. Customer-owned gauges must reference a customer row.
type Customer struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid" json:"uuid"`

	Name         string  `gorm:"size:255;not null" json:"name"`
	ContactName  *string `gorm:"size:255" json:"contact_name,omitempty"`
	ContactEmail *string `gorm:"size:255;index:idx_customers_contact_email" json:"contact_email,omitempty"`
	ContactPhone *string `gorm:"size:50" json:"contact_phone,omitempty"`
	Address      *string `gorm:"type:text" json:"address,omitempty"`

	IsActive  *bool     `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Name          *string
	ContactEmail  *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
