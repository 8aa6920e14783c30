// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
	"gorm.io/gorm"
)

// ErrCompanionNotFound is returned when a gauge has no companion link
var ErrCompanionNotFound = errors.New("gauge has no companion")

// GaugeRepositoryImpl implements GaugeRepository interface
type GaugeRepositoryImpl struct {
	*BaseRepository[models.Gauge, models.GaugeFilter]
}

// NewGaugeRepository creates a new gauge repository
func NewGaugeRepository(db *gorm.DB) GaugeRepository {
	return &GaugeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Gauge, models.GaugeFilter](db),
	}
}

// BySerialNumber retrieves a gauge by its business serial number
func (r *GaugeRepositoryImpl) BySerialNumber(ctx context.Context, serialNumber string) (*models.Gauge, error) {
	filter := models.GaugeFilter{SerialNumber: &serialNumber, IncludeRetired: true}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// BySystemGaugeID retrieves a gauge by its paired system ID ({baseId}A or {baseId}B)
func (r *GaugeRepositoryImpl) BySystemGaugeID(ctx context.Context, systemGaugeID string) (*models.Gauge, error) {
	filter := models.GaugeFilter{SystemGaugeID: &systemGaugeID, IncludeRetired: true}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// CompanionOf returns the companion gauge of the given gauge, or nil when the
// gauge is a spare or does not exist.
func (r *GaugeRepositoryImpl) CompanionOf(ctx context.Context, id uint) (*models.Gauge, error) {
	gauge, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gauge == nil || gauge.CompanionGaugeID == nil {
		return nil, nil
	}
	return r.ByID(ctx, *gauge.CompanionGaugeID)
}

// CreatePair inserts the GO and NO-GO rows of a new set and links them
// bidirectionally. The two inserts and two link updates must be atomic, so a
// caller-supplied transaction is mandatory.
func (r *GaugeRepositoryImpl) CreatePair(ctx context.Context, goGauge, noGoGauge *models.Gauge, baseID string) error {
	tx, err := r.requireTx(ctx)
	if err != nil {
		return err
	}

	goGauge.SystemGaugeID = utils.ToPtr(baseID + models.SystemGaugeIDSuffixGo)
	noGoGauge.SystemGaugeID = utils.ToPtr(baseID + models.SystemGaugeIDSuffixNoGo)

	if err := tx.Create(goGauge).Error; err != nil {
		return fmt.Errorf("failed to insert GO gauge: %w", err)
	}
	if err := tx.Create(noGoGauge).Error; err != nil {
		return fmt.Errorf("failed to insert NO-GO gauge: %w", err)
	}

	now := utils.UTCNow()
	if err := tx.Model(&models.Gauge{}).Where("id = ?", goGauge.ID).
		Updates(map[string]any{"companion_gauge_id": noGoGauge.ID, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("failed to link GO gauge: %w", err)
	}
	if err := tx.Model(&models.Gauge{}).Where("id = ?", noGoGauge.ID).
		Updates(map[string]any{"companion_gauge_id": goGauge.ID, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("failed to link NO-GO gauge: %w", err)
	}

	goGauge.CompanionGaugeID = &noGoGauge.ID
	noGoGauge.CompanionGaugeID = &goGauge.ID
	return nil
}

// LinkCompanions sets companion_gauge_id on both rows to point at each other
// and assigns system gauge IDs from the shared base ID. Idempotent when the
// two gauges are already linked to each other.
func (r *GaugeRepositoryImpl) LinkCompanions(ctx context.Context, goID, noGoID uint, baseID string) error {
	tx, err := r.requireTx(ctx)
	if err != nil {
		return err
	}

	var goGauge, noGoGauge models.Gauge
	if err := tx.First(&goGauge, goID).Error; err != nil {
		return fmt.Errorf("failed to load gauge %d: %w", goID, err)
	}
	if err := tx.First(&noGoGauge, noGoID).Error; err != nil {
		return fmt.Errorf("failed to load gauge %d: %w", noGoID, err)
	}

	if goGauge.CompanionGaugeID != nil && noGoGauge.CompanionGaugeID != nil &&
		*goGauge.CompanionGaugeID == noGoID && *noGoGauge.CompanionGaugeID == goID {
		return nil
	}

	now := utils.UTCNow()
	if err := tx.Model(&models.Gauge{}).Where("id = ?", goID).
		Updates(map[string]any{
			"companion_gauge_id": noGoID,
			"system_gauge_id":    baseID + models.SystemGaugeIDSuffixGo,
			"updated_at":         now,
		}).Error; err != nil {
		return fmt.Errorf("failed to link gauge %d: %w", goID, err)
	}
	if err := tx.Model(&models.Gauge{}).Where("id = ?", noGoID).
		Updates(map[string]any{
			"companion_gauge_id": goID,
			"system_gauge_id":    baseID + models.SystemGaugeIDSuffixNoGo,
			"updated_at":         now,
		}).Error; err != nil {
		return fmt.Errorf("failed to link gauge %d: %w", noGoID, err)
	}

	return nil
}

// UnlinkCompanions clears companion_gauge_id and system_gauge_id on the given
// gauge and its companion, returning both former members (initiator first).
// Fails with ErrCompanionNotFound when the gauge is a spare; fails with
// gorm.ErrRecordNotFound when the gauge does not exist.
func (r *GaugeRepositoryImpl) UnlinkCompanions(ctx context.Context, id uint) (*models.Gauge, *models.Gauge, error) {
	tx, err := r.requireTx(ctx)
	if err != nil {
		return nil, nil, err
	}

	var gauge models.Gauge
	if err := tx.First(&gauge, id).Error; err != nil {
		return nil, nil, err
	}
	if gauge.CompanionGaugeID == nil {
		return nil, nil, ErrCompanionNotFound
	}

	var companion models.Gauge
	if err := tx.First(&companion, *gauge.CompanionGaugeID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load companion %d: %w", *gauge.CompanionGaugeID, err)
	}

	now := utils.UTCNow()
	clear := map[string]any{
		"companion_gauge_id": nil,
		"system_gauge_id":    nil,
		"updated_at":         now,
	}
	if err := tx.Model(&models.Gauge{}).Where("id = ?", gauge.ID).Updates(clear).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to unlink gauge %d: %w", gauge.ID, err)
	}
	if err := tx.Model(&models.Gauge{}).Where("id = ?", companion.ID).Updates(clear).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to unlink companion %d: %w", companion.ID, err)
	}

	gauge.CompanionGaugeID = nil
	gauge.SystemGaugeID = nil
	companion.CompanionGaugeID = nil
	companion.SystemGaugeID = nil
	return &gauge, &companion, nil
}

// ClaimSpareForPairing marks a spare gauge as taken by the current pairing
// transaction with a guarded update. Returns false when the gauge is no
// longer a spare, which is how a concurrent pairing loss surfaces under
// REPEATABLE READ.
func (r *GaugeRepositoryImpl) ClaimSpareForPairing(ctx context.Context, id uint) (bool, error) {
	tx, err := r.requireTx(ctx)
	if err != nil {
		return false, err
	}

	result := tx.Model(&models.Gauge{}).
		Where("id = ? AND companion_gauge_id IS NULL", id).
		Update("updated_at", utils.UTCNow())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateLocation performs a single-row storage location update
func (r *GaugeRepositoryImpl) UpdateLocation(ctx context.Context, id uint, location string) error {
	return r.UpdateFields(ctx, id, map[string]any{"storage_location": location})
}

// UpdateStatus performs a single-row status update
func (r *GaugeRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.GaugeStatus) error {
	return r.UpdateFields(ctx, id, map[string]any{"status": status})
}

// UpdateSealStatus performs a single-row seal status update
func (r *GaugeRepositoryImpl) UpdateSealStatus(ctx context.Context, id uint, sealStatus models.SealStatus) error {
	return r.UpdateFields(ctx, id, map[string]any{"seal_status": sealStatus})
}

// AssignCalibrationBatch sets or clears the calibration batch reference
func (r *GaugeRepositoryImpl) AssignCalibrationBatch(ctx context.Context, id uint, batchID *uint) error {
	return r.UpdateFields(ctx, id, map[string]any{"calibration_batch_id": batchID})
}

// UpdateFields applies the given column updates to one gauge row
func (r *GaugeRepositoryImpl) UpdateFields(ctx context.Context, id uint, updates map[string]any) error {
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

	updates["updated_at"] = utils.UTCNow()
	result := db.Model(&models.Gauge{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		err = fmt.Errorf("gauge not found with ID: %d", id)
		return err
	}
	return nil
}

// FindSpares returns non-retired gauges with no companion matching the filters.
// Read-only; runs on the bare connection unless a transaction is in flight.
func (r *GaugeRepositoryImpl) FindSpares(ctx context.Context, categoryID uint, isGoGauge *bool, status models.GaugeStatus) ([]*models.Gauge, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Gauge{}).
		Where("companion_gauge_id IS NULL").
		Where("retired_at IS NULL")

	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if isGoGauge != nil {
		query = query.Where("is_go_gauge = ?", *isGoGauge)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var gauges []*models.Gauge
	if err := query.Order("serial_number ASC").Find(&gauges).Error; err != nil {
		return nil, err
	}
	return gauges, nil
}

// ListByCalibrationBatch returns the gauges currently assigned to a batch
func (r *GaugeRepositoryImpl) ListByCalibrationBatch(ctx context.Context, batchID uint) ([]*models.Gauge, error) {
	filter := models.GaugeFilter{CalibrationBatchID: &batchID}
	return r.ByFilter(ctx, filter, "serial_number ASC", 0, 0)
}

// ListCalibrationDueBefore returns non-retired gauges whose calibration falls
// due before the given time
func (r *GaugeRepositoryImpl) ListCalibrationDueBefore(ctx context.Context, due time.Time, limit int) ([]*models.Gauge, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Gauge{}).
		Where("calibration_due_at IS NOT NULL AND calibration_due_at < ?", due).
		Where("retired_at IS NULL").
		Order("calibration_due_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var gauges []*models.Gauge
	if err := query.Find(&gauges).Error; err != nil {
		return nil, err
	}
	return gauges, nil
}

// Retire soft-deletes a gauge. Retired gauges accept no further transitions.
func (r *GaugeRepositoryImpl) Retire(ctx context.Context, id uint, retiredAt time.Time) error {
	return r.UpdateFields(ctx, id, map[string]any{
		"status":     models.GaugeStatusRetired,
		"retired_at": retiredAt,
	})
}

// CountByStatus returns the number of non-retired gauges per status
func (r *GaugeRepositoryImpl) CountByStatus(ctx context.Context) (map[models.GaugeStatus]int64, error) {
	db := r.getDB(ctx)

	type row struct {
		Status models.GaugeStatus
		Total  int64
	}
	var rows []row
	err := db.Model(&models.Gauge{}).
		Select("status, COUNT(*) AS total").
		Where("retired_at IS NULL").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.GaugeStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *GaugeRepositoryImpl) applyFilter(query *gorm.DB, filter models.GaugeFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.SerialNumber != nil {
		query = query.Where("serial_number = ?", *filter.SerialNumber)
	}
	if filter.SystemGaugeID != nil {
		query = query.Where("system_gauge_id = ?", *filter.SystemGaugeID)
	}
	if filter.EquipmentType != nil {
		query = query.Where("equipment_type = ?", *filter.EquipmentType)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ThreadSize != nil {
		query = query.Where("thread_size = ?", *filter.ThreadSize)
	}
	if filter.ThreadClass != nil {
		query = query.Where("thread_class = ?", *filter.ThreadClass)
	}
	if filter.ThreadType != nil {
		query = query.Where("thread_type = ?", *filter.ThreadType)
	}
	if filter.IsGoGauge != nil {
		query = query.Where("is_go_gauge = ?", *filter.IsGoGauge)
	}
	if filter.OwnershipType != nil {
		query = query.Where("ownership_type = ?", *filter.OwnershipType)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StorageLocation != nil {
		query = query.Where("storage_location = ?", *filter.StorageLocation)
	}
	if filter.SealStatus != nil {
		query = query.Where("seal_status = ?", *filter.SealStatus)
	}
	if filter.IsSpare != nil {
		if *filter.IsSpare {
			query = query.Where("companion_gauge_id IS NULL")
		} else {
			query = query.Where("companion_gauge_id IS NOT NULL")
		}
	}
	if filter.CompanionGaugeID != nil {
		query = query.Where("companion_gauge_id = ?", *filter.CompanionGaugeID)
	}
	if filter.CalibrationBatchID != nil {
		query = query.Where("calibration_batch_id = ?", *filter.CalibrationBatchID)
	}
	if filter.CalibrationDueBy != nil {
		query = query.Where("calibration_due_at IS NOT NULL AND calibration_due_at < ?", *filter.CalibrationDueBy)
	}
	if !filter.IncludeRetired {
		query = query.Where("retired_at IS NULL")
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves gauges based on filter criteria
func (r *GaugeRepositoryImpl) ByFilter(ctx context.Context, filter models.GaugeFilter, orderBy string, limit, offset int) ([]*models.Gauge, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Gauge{})

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

	var gauges []*models.Gauge
	if err := query.Find(&gauges).Error; err != nil {
		return nil, err
	}
	return gauges, nil
}

// Count returns the number of gauges matching the filter
func (r *GaugeRepositoryImpl) Count(ctx context.Context, filter models.GaugeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Gauge{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any gauge matching the filter exists
func (r *GaugeRepositoryImpl) Exists(ctx context.Context, filter models.GaugeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
