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

// CertificateRepositoryImpl implements CertificateRepository interface
type CertificateRepositoryImpl struct {
	*BaseRepository[models.Certificate, models.CertificateFilter]
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &CertificateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Certificate, models.CertificateFilter](db),
	}
}

// CurrentByGauge returns the gauge's current certificate, or nil if none
func (r *CertificateRepositoryImpl) CurrentByGauge(ctx context.Context, gaugeID uint) (*models.Certificate, error) {
	isCurrent := true
	filter := models.CertificateFilter{GaugeID: &gaugeID, IsCurrent: &isCurrent}
	items, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ListByGauge returns all certificates of a gauge, newest first
func (r *CertificateRepositoryImpl) ListByGauge(ctx context.Context, gaugeID uint) ([]*models.Certificate, error) {
	filter := models.CertificateFilter{GaugeID: &gaugeID}
	return r.ByFilter(ctx, filter, "issued_at DESC", 0, 0)
}

// SaveSuperseding inserts a new current certificate and flips the gauge's
// previous current one to non-current, pointing it at its successor. Both
// writes happen in the caller's transaction; the previous certificate (if
// any) is returned.
func (r *CertificateRepositoryImpl) SaveSuperseding(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	tx, err := r.requireTx(ctx)
	if err != nil {
		return nil, err
	}

	var previous models.Certificate
	res := tx.Where("gauge_id = ? AND is_current = ?", cert.GaugeID, true).Limit(1).Find(&previous)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to load current certificate: %w", res.Error)
	}
	hasPrevious := res.RowsAffected > 0

	cert.IsCurrent = true
	if err := tx.Create(cert).Error; err != nil {
		return nil, fmt.Errorf("failed to insert certificate: %w", err)
	}

	if !hasPrevious {
		return nil, nil
	}

	now := utils.UTCNow()
	if err := tx.Model(&models.Certificate{}).Where("id = ?", previous.ID).
		Updates(map[string]any{
			"is_current":        false,
			"superseded_at":     now,
			"superseded_by_id":  cert.ID,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to supersede certificate %d: %w", previous.ID, err)
	}

	previous.IsCurrent = false
	previous.SupersededAt = &now
	previous.SupersededByID = &cert.ID
	return &previous, nil
}

// ListExpiringBefore returns current certificates expiring before the cutoff
func (r *CertificateRepositoryImpl) ListExpiringBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Certificate, error) {
	isCurrent := true
	filter := models.CertificateFilter{IsCurrent: &isCurrent, ExpiresBefore: &cutoff}
	return r.ByFilter(ctx, filter, "expires_at ASC", limit, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *CertificateRepositoryImpl) applyFilter(query *gorm.DB, filter models.CertificateFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.GaugeID != nil {
		query = query.Where("gauge_id = ?", *filter.GaugeID)
	}
	if filter.CalibrationBatchID != nil {
		query = query.Where("calibration_batch_id = ?", *filter.CalibrationBatchID)
	}
	if filter.CertificateNumber != nil {
		query = query.Where("certificate_number = ?", *filter.CertificateNumber)
	}
	if filter.IsCurrent != nil {
		query = query.Where("is_current = ?", *filter.IsCurrent)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expires_at > ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expires_at < ?", *filter.ExpiresBefore)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves certificates based on filter criteria
func (r *CertificateRepositoryImpl) ByFilter(ctx context.Context, filter models.CertificateFilter, orderBy string, limit, offset int) ([]*models.Certificate, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Certificate{})

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

	var certs []*models.Certificate
	if err := query.Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

// Count returns the number of certificates matching the filter
func (r *CertificateRepositoryImpl) Count(ctx context.Context, filter models.CertificateFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Certificate{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any certificate matching the filter exists
func (r *CertificateRepositoryImpl) Exists(ctx context.Context, filter models.CertificateFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
