// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
	"gorm.io/gorm"
)

// GaugeFlow handles single-gauge maintenance: reads, field updates, location
// moves, service state changes and retirement. Pairing and set operations
// live in SetLifecycleFlow.
type GaugeFlow interface {
	GetGauge(ctx context.Context, gaugeID uint) (*dto.GaugeDTO, error)
	ListGauges(ctx context.Context, req *dto.ListGaugesRequest) ([]dto.GaugeDTO, int64, error)
	UpdateGauge(ctx context.Context, gaugeID uint, req *dto.UpdateGaugeRequest, userID uint, metadata *ClientMetadata) (*dto.GaugeDTO, error)
	ChangeLocation(ctx context.Context, req *dto.ChangeLocationRequest, userID uint, metadata *ClientMetadata) error
	TakeOutOfService(ctx context.Context, req *dto.ChangeServiceStateRequest, userID uint, metadata *ClientMetadata) error
	ReturnToService(ctx context.Context, req *dto.ChangeServiceStateRequest, userID uint, metadata *ClientMetadata) error
	RetireGauge(ctx context.Context, req *dto.RetireGaugeRequest, userID uint, metadata *ClientMetadata) error
	GaugeHistory(ctx context.Context, gaugeID uint, limit, offset int) ([]dto.CompanionHistoryDTO, error)
}

// GaugeFlowImpl implements the gauge maintenance flow
type GaugeFlowImpl struct {
	gaugeRepo   repository.GaugeRepository
	historyRepo repository.CompanionHistoryRepository
	auditRepo   repository.AuditLogRepository
	resolver    CascadeResolver
	db          *gorm.DB
}

// NewGaugeFlow creates a new gauge maintenance flow instance
func NewGaugeFlow(
	gaugeRepo repository.GaugeRepository,
	historyRepo repository.CompanionHistoryRepository,
	auditRepo repository.AuditLogRepository,
	resolver CascadeResolver,
	db *gorm.DB,
) GaugeFlow {
	return &GaugeFlowImpl{
		gaugeRepo:   gaugeRepo,
		historyRepo: historyRepo,
		auditRepo:   auditRepo,
		resolver:    resolver,
		db:          db,
	}
}

// GetGauge returns a single gauge by ID
func (g *GaugeFlowImpl) GetGauge(ctx context.Context, gaugeID uint) (*dto.GaugeDTO, error) {
	gauge, err := g.gaugeRepo.ByID(ctx, gaugeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return nil, NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
	}
	out := ToGaugeDTO(*gauge)
	return &out, nil
}

// ListGauges returns gauges matching the request filters plus the total count
func (g *GaugeFlowImpl) ListGauges(ctx context.Context, req *dto.ListGaugesRequest) ([]dto.GaugeDTO, int64, error) {
	filter := models.GaugeFilter{
		CategoryID:     req.CategoryID,
		CustomerID:     req.CustomerID,
		IsSpare:        req.IsSpare,
		IncludeRetired: req.IncludeRetired,
	}
	if req.Status != nil {
		status := models.GaugeStatus(*req.Status)
		if !status.Valid() {
			return nil, 0, NewBusinessErrorf("VALIDATION_ERROR", "unknown status %q", nil, *req.Status)
		}
		filter.Status = &status
	}
	if req.OwnershipType != nil {
		ownership := models.OwnershipType(*req.OwnershipType)
		if !ownership.Valid() {
			return nil, 0, NewBusinessErrorf("VALIDATION_ERROR", "unknown ownership type %q", nil, *req.OwnershipType)
		}
		filter.OwnershipType = &ownership
	}

	gauges, err := g.gaugeRepo.ByFilter(ctx, filter, "serial_number ASC", req.Limit(), req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list gauges: %w", err)
	}
	total, err := g.gaugeRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count gauges: %w", err)
	}

	out := make([]dto.GaugeDTO, 0, len(gauges))
	for _, gauge := range gauges {
		out = append(out, ToGaugeDTO(*gauge))
	}
	return out, total, nil
}

// UpdateGauge applies the submitted fields to a gauge. Any attempt to change
// an immutable field is rejected before anything is written.
func (g *GaugeFlowImpl) UpdateGauge(ctx context.Context, gaugeID uint, req *dto.UpdateGaugeRequest, userID uint, metadata *ClientMetadata) (*dto.GaugeDTO, error) {
	var result *models.Gauge

	err := repository.WithTransaction(ctx, g.db, func(txCtx context.Context) error {
		existing, err := g.gaugeRepo.ByID(txCtx, gaugeID)
		if err != nil {
			return fmt.Errorf("failed to load gauge: %w", err)
		}
		if existing == nil {
			return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
		}
		if existing.IsRetired() {
			return NewBusinessErrorf("GAUGE_RETIRED", "gauge %s is retired", ErrGaugeRetired, existing.SerialNumber)
		}

		updated := *existing
		applyGaugeUpdate(&updated, req)

		if updated.ThreadSize != existing.ThreadSize {
			normalized, err := NormalizeThreadSize(updated.ThreadSize)
			if err != nil {
				return err
			}
			updated.ThreadSize = normalized
		}

		if err := ValidateImmutableFields(existing, &updated); err != nil {
			return err
		}

		// A paired gauge must keep matching its companion's thread spec.
		specChanged := updated.ThreadSize != existing.ThreadSize ||
			updated.ThreadClass != existing.ThreadClass ||
			updated.ThreadType != existing.ThreadType
		if specChanged && existing.CompanionGaugeID != nil {
			companion, err := g.gaugeRepo.ByID(txCtx, *existing.CompanionGaugeID)
			if err != nil {
				return fmt.Errorf("failed to load companion: %w", err)
			}
			if companion == nil {
				return NewBusinessErrorf("COMPANION_NOT_FOUND", "companion of gauge %d not found", ErrCompanionNotFound, existing.ID)
			}
			if updated.IsGoGauge {
				err = CheckCompatibility(&updated, companion)
			} else {
				err = CheckCompatibility(companion, &updated)
			}
			if err != nil {
				return err
			}
		}

		updates := map[string]any{
			"thread_size":       updated.ThreadSize,
			"thread_class":      updated.ThreadClass,
			"thread_type":       updated.ThreadType,
			"seal_status":       updated.SealStatus,
			"is_fixed_location": updated.IsFixedLocation,
		}
		if err := g.gaugeRepo.UpdateFields(txCtx, existing.ID, updates); err != nil {
			return fmt.Errorf("failed to update gauge: %w", err)
		}

		result, err = g.gaugeRepo.ByID(txCtx, existing.ID)
		if err != nil {
			return fmt.Errorf("failed to reload gauge: %w", err)
		}
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		_ = g.createAuditLog(ctx, userID, &gaugeID, models.AuditActionGaugeUpdated,
			fmt.Sprintf("Gauge %d update failed", gaugeID), false, &errMsg, metadata)
		return nil, err
	}

	_ = g.createAuditLog(ctx, userID, &gaugeID, models.AuditActionGaugeUpdated,
		fmt.Sprintf("Gauge %s updated", result.SerialNumber), true, nil, metadata)

	out := ToGaugeDTO(*result)
	return &out, nil
}

// ChangeLocation moves a gauge to a new storage location. When the gauge is
// paired the companion moves with it in the same transaction.
func (g *GaugeFlowImpl) ChangeLocation(ctx context.Context, req *dto.ChangeLocationRequest, userID uint, metadata *ClientMetadata) error {
	err := repository.WithTransaction(ctx, g.db, func(txCtx context.Context) error {
		return g.resolver.CascadeLocationChange(txCtx, req.GaugeID, req.NewLocation)
	})
	if err != nil {
		errMsg := err.Error()
		_ = g.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionLocationChanged,
			fmt.Sprintf("Location change for gauge %d failed", req.GaugeID), false, &errMsg, metadata)
		return err
	}

	_ = g.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionLocationChanged,
		fmt.Sprintf("Gauge %d moved to %s", req.GaugeID, req.NewLocation), true, nil, metadata)
	return nil
}

// TakeOutOfService marks a gauge out of service
func (g *GaugeFlowImpl) TakeOutOfService(ctx context.Context, req *dto.ChangeServiceStateRequest, userID uint, metadata *ClientMetadata) error {
	return g.changeServiceState(ctx, req, userID, metadata, g.resolver.CascadeOutOfService, "taken out of service")
}

// ReturnToService returns an out-of-service gauge to available
func (g *GaugeFlowImpl) ReturnToService(ctx context.Context, req *dto.ChangeServiceStateRequest, userID uint, metadata *ClientMetadata) error {
	return g.changeServiceState(ctx, req, userID, metadata, g.resolver.CascadeReturnToService, "returned to service")
}

func (g *GaugeFlowImpl) changeServiceState(ctx context.Context, req *dto.ChangeServiceStateRequest, userID uint, metadata *ClientMetadata, apply func(context.Context, uint) error, verb string) error {
	err := repository.WithTransaction(ctx, g.db, func(txCtx context.Context) error {
		return apply(txCtx, req.GaugeID)
	})

	description := fmt.Sprintf("Gauge %d %s", req.GaugeID, verb)
	if req.Reason != nil {
		description = fmt.Sprintf("%s: %s", description, *req.Reason)
	}

	if err != nil {
		errMsg := err.Error()
		_ = g.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionStatusChanged,
			description, false, &errMsg, metadata)
		return err
	}

	_ = g.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionStatusChanged,
		description, true, nil, metadata)
	return nil
}

// RetireGauge soft-retires a gauge. A paired gauge is unpaired first so the
// surviving companion becomes a spare; the history row is written before the
// unlink.
func (g *GaugeFlowImpl) RetireGauge(ctx context.Context, req *dto.RetireGaugeRequest, userID uint, metadata *ClientMetadata) error {
	err := repository.WithRepeatableRead(ctx, g.db, func(txCtx context.Context) error {
		gauge, err := g.gaugeRepo.ByID(txCtx, req.GaugeID)
		if err != nil {
			return fmt.Errorf("failed to load gauge: %w", err)
		}
		if gauge == nil {
			return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, req.GaugeID)
		}
		if gauge.IsRetired() {
			return NewBusinessErrorf("GAUGE_RETIRED", "gauge %s is already retired", ErrGaugeRetired, gauge.SerialNumber)
		}
		if gauge.Status == models.GaugeStatusCheckedOut {
			return NewBusinessErrorf("CHECKED_OUT", "gauge %s is checked out", ErrGaugeCheckedOut, gauge.SerialNumber)
		}

		if gauge.CompanionGaugeID != nil {
			companion, err := g.gaugeRepo.ByID(txCtx, *gauge.CompanionGaugeID)
			if err != nil {
				return fmt.Errorf("failed to load companion: %w", err)
			}
			if companion == nil {
				return NewBusinessErrorf("COMPANION_NOT_FOUND", "companion of gauge %d not found", ErrCompanionNotFound, gauge.ID)
			}

			goID, noGoID := gauge.ID, companion.ID
			if !gauge.IsGoGauge {
				goID, noGoID = companion.ID, gauge.ID
			}
			if err := g.historyRepo.Record(txCtx, models.CompanionActionUnpaired,
				goID, noGoID, userID, req.Reason,
				map[string]any{
					"base_id":      models.BaseIDFromSystemGaugeID(gauge.SystemGaugeID),
					"initiated_by": gauge.ID,
					"retirement":   true,
				}); err != nil {
				return fmt.Errorf("failed to record history: %w", err)
			}
			if _, _, err := g.gaugeRepo.UnlinkCompanions(txCtx, gauge.ID); err != nil {
				return fmt.Errorf("failed to unpair before retirement: %w", err)
			}
		}

		return g.gaugeRepo.Retire(txCtx, gauge.ID, utils.UTCNow())
	})
	if err != nil {
		errMsg := err.Error()
		_ = g.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionGaugeRetired,
			fmt.Sprintf("Retirement of gauge %d failed", req.GaugeID), false, &errMsg, metadata)
		return err
	}

	_ = g.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionGaugeRetired,
		fmt.Sprintf("Gauge %d retired", req.GaugeID), true, nil, metadata)
	return nil
}

// GaugeHistory returns the pairing trail for a gauge, most recent first
func (g *GaugeFlowImpl) GaugeHistory(ctx context.Context, gaugeID uint, limit, offset int) ([]dto.CompanionHistoryDTO, error) {
	gauge, err := g.gaugeRepo.ByID(ctx, gaugeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return nil, NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
	}

	rows, err := g.historyRepo.ListByGauge(ctx, gaugeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	out := make([]dto.CompanionHistoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ToCompanionHistoryDTO(*row))
	}
	return out, nil
}

func applyGaugeUpdate(gauge *models.Gauge, req *dto.UpdateGaugeRequest) {
	if req.SerialNumber != nil {
		gauge.SerialNumber = *req.SerialNumber
	}
	if req.EquipmentType != nil {
		gauge.EquipmentType = models.EquipmentType(*req.EquipmentType)
	}
	if req.CategoryID != nil {
		gauge.CategoryID = *req.CategoryID
	}
	if req.OwnershipType != nil {
		gauge.OwnershipType = models.OwnershipType(*req.OwnershipType)
	}
	if req.CustomerID != nil {
		gauge.CustomerID = req.CustomerID
	}
	if req.EmployeeOwnerID != nil {
		gauge.EmployeeOwnerID = req.EmployeeOwnerID
	}
	if req.ThreadSize != nil {
		gauge.ThreadSize = *req.ThreadSize
	}
	if req.ThreadClass != nil {
		gauge.ThreadClass = *req.ThreadClass
	}
	if req.ThreadType != nil {
		gauge.ThreadType = *req.ThreadType
	}
	if req.SealStatus != nil {
		gauge.SealStatus = models.SealStatus(*req.SealStatus)
	}
	if req.IsFixedLocation != nil {
		gauge.IsFixedLocation = *req.IsFixedLocation
	}
}

func (g *GaugeFlowImpl) createAuditLog(ctx context.Context, userID uint, gaugeID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       &userID,
		GaugeID:      gaugeID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
		CreatedAt:    utils.UTCNow(),
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return g.auditRepo.Save(ctx, audit)
}
