// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
	"gorm.io/gorm"
)

// CompanionHistoryRepositoryImpl implements CompanionHistoryRepository interface
type CompanionHistoryRepositoryImpl struct {
	*BaseRepository[models.CompanionHistory, models.CompanionHistoryFilter]
}

// NewCompanionHistoryRepository creates a new companion history repository
func NewCompanionHistoryRepository(db *gorm.DB) CompanionHistoryRepository {
	return &CompanionHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CompanionHistory, models.CompanionHistoryFilter](db),
	}
}

// Record appends one history row for a pairing operation. The row captures
// the operation exactly as performed and is never mutated afterwards.
func (r *CompanionHistoryRepositoryImpl) Record(ctx context.Context, action models.CompanionAction, goID, noGoID, userID uint, reason *string, metadata map[string]any) error {
	if !action.Valid() {
		return fmt.Errorf("invalid companion action: %s", action)
	}

	var metaJSON json.RawMessage
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal history metadata: %w", err)
		}
		metaJSON = b
	}

	row := &models.CompanionHistory{
		Action:      action,
		GoGaugeID:   goID,
		NoGoGaugeID: noGoID,
		UserID:      userID,
		Reason:      reason,
		Metadata:    metaJSON,
		CreatedAt:   utils.UTCNow(),
	}
	return r.Save(ctx, row)
}

// ListByGauge returns history rows where the gauge appears in either role
func (r *CompanionHistoryRepositoryImpl) ListByGauge(ctx context.Context, gaugeID uint, limit, offset int) ([]*models.CompanionHistory, error) {
	filter := models.CompanionHistoryFilter{GaugeID: &gaugeID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// applyFilter applies filter criteria to a GORM query
func (r *CompanionHistoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.CompanionHistoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.GoGaugeID != nil {
		query = query.Where("go_gauge_id = ?", *filter.GoGaugeID)
	}
	if filter.NoGoGaugeID != nil {
		query = query.Where("no_go_gauge_id = ?", *filter.NoGoGaugeID)
	}
	if filter.GaugeID != nil {
		query = query.Where("go_gauge_id = ? OR no_go_gauge_id = ?", *filter.GaugeID, *filter.GaugeID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves history rows based on filter criteria
func (r *CompanionHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.CompanionHistoryFilter, orderBy string, limit, offset int) ([]*models.CompanionHistory, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CompanionHistory{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.CompanionHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of history rows matching the filter
func (r *CompanionHistoryRepositoryImpl) Count(ctx context.Context, filter models.CompanionHistoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CompanionHistory{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any history row matching the filter exists
func (r *CompanionHistoryRepositoryImpl) Exists(ctx context.Context, filter models.CompanionHistoryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
