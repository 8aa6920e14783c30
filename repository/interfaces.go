// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/gaugetrack/gaugetrack/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// GaugeRepository defines operations for gauges and companion links.
// Multi-step mutations (CreatePair, LinkCompanions, UnlinkCompanions) require
// a caller-supplied transaction in the context and fail with ErrNoTransaction
// when invoked without one.
type GaugeRepository interface {
	Repository[models.Gauge, models.GaugeFilter]
	BySerialNumber(ctx context.Context, serialNumber string) (*models.Gauge, error)
	BySystemGaugeID(ctx context.Context, systemGaugeID string) (*models.Gauge, error)
	CompanionOf(ctx context.Context, id uint) (*models.Gauge, error)
	CreatePair(ctx context.Context, goGauge, noGoGauge *models.Gauge, baseID string) error
	LinkCompanions(ctx context.Context, goID, noGoID uint, baseID string) error
	UnlinkCompanions(ctx context.Context, id uint) (*models.Gauge, *models.Gauge, error)
	ClaimSpareForPairing(ctx context.Context, id uint) (bool, error)
	UpdateLocation(ctx context.Context, id uint, location string) error
	UpdateStatus(ctx context.Context, id uint, status models.GaugeStatus) error
	UpdateSealStatus(ctx context.Context, id uint, sealStatus models.SealStatus) error
	UpdateFields(ctx context.Context, id uint, updates map[string]any) error
	AssignCalibrationBatch(ctx context.Context, id uint, batchID *uint) error
	FindSpares(ctx context.Context, categoryID uint, isGoGauge *bool, status models.GaugeStatus) ([]*models.Gauge, error)
	ListByCalibrationBatch(ctx context.Context, batchID uint) ([]*models.Gauge, error)
	ListCalibrationDueBefore(ctx context.Context, due time.Time, limit int) ([]*models.Gauge, error)
	Retire(ctx context.Context, id uint, retiredAt time.Time) error
	CountByStatus(ctx context.Context) (map[models.GaugeStatus]int64, error)
}

// CompanionHistoryRepository defines operations for the pairing audit trail.
// The table is append-only; there are no update or delete operations.
type CompanionHistoryRepository interface {
	Repository[models.CompanionHistory, models.CompanionHistoryFilter]
	Record(ctx context.Context, action models.CompanionAction, goID, noGoID, userID uint, reason *string, metadata map[string]any) error
	ListByGauge(ctx context.Context, gaugeID uint, limit, offset int) ([]*models.CompanionHistory, error)
}

// CalibrationBatchRepository defines operations for calibration batches
type CalibrationBatchRepository interface {
	Repository[models.CalibrationBatch, models.CalibrationBatchFilter]
	ByBatchNumber(ctx context.Context, batchNumber string) (*models.CalibrationBatch, error)
	UpdateStatus(ctx context.Context, id uint, status models.CalibrationBatchStatus, sentAt, closedAt *time.Time) error
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*models.CalibrationBatch, error)
}

// CertificateRepository defines operations for calibration certificates
type CertificateRepository interface {
	Repository[models.Certificate, models.CertificateFilter]
	CurrentByGauge(ctx context.Context, gaugeID uint) (*models.Certificate, error)
	ListByGauge(ctx context.Context, gaugeID uint) ([]*models.Certificate, error)
	SaveSuperseding(ctx context.Context, cert *models.Certificate) (*models.Certificate, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.Certificate, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByName(ctx context.Context, name string) (*models.Customer, error)
	ListActive(ctx context.Context, limit, offset int) ([]*models.Customer, error)
}

// UserRepository defines operations for system users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
}

// CategoryRepository defines operations for gauge categories
type CategoryRepository interface {
	Repository[models.Category, models.CategoryFilter]
	ByName(ctx context.Context, name string) (*models.Category, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByGauge(ctx context.Context, gaugeID uint, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// SequenceCounterRepository allocates monotonic business identifiers
type SequenceCounterRepository interface {
	Next(ctx context.Context, name, prefix string, start uint64) (string, error)
}
