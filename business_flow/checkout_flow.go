// Package businessflow contains the core business logic and use cases for gauge set lifecycle workflows
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

// CheckoutFlow handles checking sets out to the shop floor and back in.
// A set moves as a unit in one transaction; with the pending QC set block
// disabled, a pending QC member stays behind and only the eligible member
// goes out.
type CheckoutFlow interface {
	CheckoutSet(ctx context.Context, req *dto.CheckoutSetRequest, userID uint, metadata *ClientMetadata) (*dto.CheckoutSetResponse, error)
	ReturnSet(ctx context.Context, req *dto.ReturnSetRequest, userID uint, metadata *ClientMetadata) (*dto.ReturnSetResponse, error)
	CheckEligibility(ctx context.Context, gaugeID uint) (*dto.CheckoutEligibilityResponse, error)
}

// CheckoutFlowImpl implements the checkout business flow
type CheckoutFlowImpl struct {
	gaugeRepo repository.GaugeRepository
	auditRepo repository.AuditLogRepository
	resolver  CascadeResolver
	db        *gorm.DB
}

// NewCheckoutFlow creates a new checkout flow instance
func NewCheckoutFlow(
	gaugeRepo repository.GaugeRepository,
	auditRepo repository.AuditLogRepository,
	resolver CascadeResolver,
	db *gorm.DB,
) CheckoutFlow {
	return &CheckoutFlowImpl{
		gaugeRepo: gaugeRepo,
		auditRepo: auditRepo,
		resolver:  resolver,
		db:        db,
	}
}

// CheckoutSet checks a set out. Either member's ID is accepted; only the
// members that pass the eligibility rules change status, and the call fails
// when none do.
func (s *CheckoutFlowImpl) CheckoutSet(ctx context.Context, req *dto.CheckoutSetRequest, userID uint, metadata *ClientMetadata) (*dto.CheckoutSetResponse, error) {
	if req.Destination == "" {
		return nil, NewBusinessError("LOCATION_REQUIRED", "a checkout destination is required", ErrLocationRequired)
	}

	var goGauge, noGoGauge *models.Gauge

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		goGauge, noGoGauge, err = s.loadSet(txCtx, req.GaugeID)
		if err != nil {
			return err
		}

		eligible, err := s.resolver.CheckoutEligibleMembers(goGauge, noGoGauge, utils.UTCNow())
		if err != nil {
			return err
		}

		for _, g := range eligible {
			if err := s.gaugeRepo.UpdateFields(txCtx, g.ID, map[string]any{
				"status":           models.GaugeStatusCheckedOut,
				"storage_location": req.Destination,
			}); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Checkout failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionSetCheckoutFailed, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Set checked out to %s: gauges %d and %d", req.Destination, goGauge.ID, noGoGauge.ID)
	_ = s.createAuditLog(ctx, userID, &goGauge.ID, models.AuditActionSetCheckedOut, msg, true, nil, metadata)

	return &dto.CheckoutSetResponse{Set: s.composeSet(ctx, goGauge.ID, noGoGauge.ID)}, nil
}

// ReturnSet checks a set back in. Members land in pending_qc when the return
// requests a QC inspection, otherwise go straight back to available.
func (s *CheckoutFlowImpl) ReturnSet(ctx context.Context, req *dto.ReturnSetRequest, userID uint, metadata *ClientMetadata) (*dto.ReturnSetResponse, error) {
	if req.StorageLocation == "" {
		return nil, NewBusinessError("LOCATION_REQUIRED", "a storage location is required", ErrLocationRequired)
	}

	var goGauge, noGoGauge *models.Gauge

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		goGauge, noGoGauge, err = s.loadSet(txCtx, req.GaugeID)
		if err != nil {
			return err
		}

		if goGauge.Status != models.GaugeStatusCheckedOut && noGoGauge.Status != models.GaugeStatusCheckedOut {
			return NewBusinessErrorf("NOT_CHECKED_OUT", "set of gauge %d is not checked out", ErrSetNotCheckedOut, req.GaugeID)
		}

		target := models.GaugeStatusAvailable
		if req.RequiresQC {
			target = models.GaugeStatusPendingQC
		}

		for _, g := range []*models.Gauge{goGauge, noGoGauge} {
			if g.Status != models.GaugeStatusCheckedOut {
				continue
			}
			if err := s.gaugeRepo.UpdateFields(txCtx, g.ID, map[string]any{
				"status":           target,
				"storage_location": req.StorageLocation,
			}); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Return failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, &req.GaugeID, models.AuditActionSetReturnFailed, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Set returned to %s: gauges %d and %d", req.StorageLocation, goGauge.ID, noGoGauge.ID)
	_ = s.createAuditLog(ctx, userID, &goGauge.ID, models.AuditActionSetReturned, msg, true, nil, metadata)

	return &dto.ReturnSetResponse{Set: s.composeSet(ctx, goGauge.ID, noGoGauge.ID)}, nil
}

// CheckEligibility is a read-only dry run of the set checkout rules
func (s *CheckoutFlowImpl) CheckEligibility(ctx context.Context, gaugeID uint) (*dto.CheckoutEligibilityResponse, error) {
	goGauge, noGoGauge, err := s.loadSet(ctx, gaugeID)
	if err != nil {
		return nil, err
	}

	if err := s.resolver.CanCheckoutSet(goGauge, noGoGauge, utils.UTCNow()); err != nil {
		return &dto.CheckoutEligibilityResponse{
			Eligible: false,
			Code:     ErrorCode(err),
			Reason:   err.Error(),
		}, nil
	}
	return &dto.CheckoutEligibilityResponse{Eligible: true}, nil
}

// loadSet loads both members of the set containing the given gauge, GO first
func (s *CheckoutFlowImpl) loadSet(ctx context.Context, gaugeID uint) (*models.Gauge, *models.Gauge, error) {
	gauge, err := s.gaugeRepo.ByID(ctx, gaugeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return nil, nil, NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
	}
	if gauge.CompanionGaugeID == nil {
		return nil, nil, NewBusinessErrorf("COMPANION_NOT_FOUND", "gauge %d is a spare", ErrCompanionNotFound, gaugeID)
	}

	companion, err := s.gaugeRepo.ByID(ctx, *gauge.CompanionGaugeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load companion: %w", err)
	}
	if companion == nil {
		return nil, nil, NewBusinessErrorf("COMPANION_NOT_FOUND", "companion of gauge %d not found", ErrCompanionNotFound, gaugeID)
	}

	if gauge.IsGoGauge {
		return gauge, companion, nil
	}
	return companion, gauge, nil
}

// composeSet reloads both members and builds the set view; falls back to the
// stale copies when the reload fails since the transaction already committed.
func (s *CheckoutFlowImpl) composeSet(ctx context.Context, goID, noGoID uint) dto.GaugeSetDTO {
	goGauge, errGo := s.gaugeRepo.ByID(ctx, goID)
	noGoGauge, errNoGo := s.gaugeRepo.ByID(ctx, noGoID)
	if errGo != nil || errNoGo != nil || goGauge == nil || noGoGauge == nil {
		return dto.GaugeSetDTO{}
	}

	set := ToGaugeSetDTO(models.NewGaugeSet(goGauge, noGoGauge))
	set.SetStatus = s.resolver.ComputeSetStatus(goGauge, noGoGauge).String()
	set.SealStatus = s.resolver.ComputeSealStatus(goGauge, noGoGauge).String()
	return set
}

func (s *CheckoutFlowImpl) createAuditLog(ctx context.Context, userID uint, gaugeID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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

	return s.auditRepo.Save(ctx, audit)
}
