// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
	"gorm.io/gorm"
)

// CalibrationBatchRepositoryImpl implements CalibrationBatchRepository interface
type CalibrationBatchRepositoryImpl struct {
	*BaseRepository[models.CalibrationBatch, models.CalibrationBatchFilter]
}

// NewCalibrationBatchRepository creates a new calibration batch repository
func NewCalibrationBatchRepository(db *gorm.DB) CalibrationBatchRepository {
	return &CalibrationBatchRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CalibrationBatch, models.CalibrationBatchFilter](db),
	}
}

// ByBatchNumber retrieves a batch by its business number
func (r *CalibrationBatchRepositoryImpl) ByBatchNumber(ctx context.Context, batchNumber string) (*models.CalibrationBatch, error) {
	filter := models.CalibrationBatchFilter{BatchNumber: &batchNumber}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// UpdateStatus updates the batch status and optional timestamps
func (r *CalibrationBatchRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.CalibrationBatchStatus, sentAt, closedAt *time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"status":     status,
		"updated_at": utils.UTCNow(),
	}
	if sentAt != nil {
		updates["sent_at"] = *sentAt
	}
	if closedAt != nil {
		updates["closed_at"] = *closedAt
	}

	result := db.Model(&models.CalibrationBatch{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("calibration batch not found with ID: %d", id)
		return err
	}
	return nil
}

// ListOpenOlderThan returns sent batches that have been out longer than the cutoff
func (r *CalibrationBatchRepositoryImpl) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*models.CalibrationBatch, error) {
	db := r.getDB(ctx)

	var batches []*models.CalibrationBatch
	err := db.Model(&models.CalibrationBatch{}).
		Where("status IN ?", []models.CalibrationBatchStatus{
			models.CalibrationBatchStatusSent,
			models.CalibrationBatchStatusPartiallyReceived,
		}).
		Where("sent_at IS NOT NULL AND sent_at < ?", cutoff).
		Order("sent_at ASC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *CalibrationBatchRepositoryImpl) applyFilter(query *gorm.DB, filter models.CalibrationBatchFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.BatchNumber != nil {
		query = query.Where("batch_number = ?", *filter.BatchNumber)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.VendorName != nil {
		query = query.Where("vendor_name = ?", *filter.VendorName)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.SentAfter != nil {
		query = query.Where("sent_at > ?", *filter.SentAfter)
	}
	if filter.SentBefore != nil {
		query = query.Where("sent_at < ?", *filter.SentBefore)
	}
	return query
}

// ByFilter retrieves calibration batches based on filter criteria
func (r *CalibrationBatchRepositoryImpl) ByFilter(ctx context.Context, filter models.CalibrationBatchFilter, orderBy string, limit, offset int) ([]*models.CalibrationBatch, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CalibrationBatch{})

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

	var batches []*models.CalibrationBatch
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Count returns the number of batches matching the filter
func (r *CalibrationBatchRepositoryImpl) Count(ctx context.Context, filter models.CalibrationBatchFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CalibrationBatch{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any batch matching the filter exists
func (r *CalibrationBatchRepositoryImpl) Exists(ctx context.Context, filter models.CalibrationBatchFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
