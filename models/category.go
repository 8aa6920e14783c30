// Package models contains domain entities and business models for the gauge tracking system
package models

import "time"

// Category is a lookup table for gauge categories (e.g. "Spiralock 1/2-20").
// Both members of a set must share the same category.
type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null;uniqueIndex:uk_categories_name" json:"name"`
	DisplayName string  `gorm:"size:255;not null" json:"display_name"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	IsActive  *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// CategoryFilter represents filter criteria for category queries
type CategoryFilter struct {
	ID       *uint
	Name     *string
	IsActive *bool
}
