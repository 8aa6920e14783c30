// Package businessflow contains the core business logic and use cases for gauge set lifecycle workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SetLifecycleFlow orchestrates the pairing lifecycle of GO/NO-GO gauge sets.
// Every write operation runs in one REPEATABLE READ transaction: validation
// first, then row mutations, then the history record, then commit. A failure
// at any point rolls the whole operation back, so no partial pairing state is
// ever observable.
type SetLifecycleFlow interface {
	CreateSet(ctx context.Context, req *dto.CreateSetRequest, userID uint, metadata *ClientMetadata) (*dto.CreateSetResponse, error)
	PairSpareGauges(ctx context.Context, req *dto.PairSparesRequest, userID uint, metadata *ClientMetadata) (*dto.PairSparesResponse, error)
	UnpairSet(ctx context.Context, req *dto.UnpairSetRequest, userID uint, metadata *ClientMetadata) (*dto.UnpairSetResponse, error)
	ReplaceCompanion(ctx context.Context, req *dto.ReplaceCompanionRequest, userID uint, metadata *ClientMetadata) (*dto.ReplaceCompanionResponse, error)
	FindSpareGauges(ctx context.Context, req *dto.FindSparesRequest) ([]dto.GaugeDTO, error)
	SetByGaugeID(ctx context.Context, gaugeID uint) (*dto.GaugeSetDTO, error)
	PairingHistory(ctx context.Context, gaugeID uint, limit, offset int) ([]dto.CompanionHistoryDTO, error)
}

// SetLifecycleFlowImpl implements the set lifecycle business flow
type SetLifecycleFlowImpl struct {
	gaugeRepo    repository.GaugeRepository
	historyRepo  repository.CompanionHistoryRepository
	sequenceRepo repository.SequenceCounterRepository
	auditRepo    repository.AuditLogRepository
	resolver     CascadeResolver
	db           *gorm.DB
}

// NewSetLifecycleFlow creates a new set lifecycle flow instance
func NewSetLifecycleFlow(
	gaugeRepo repository.GaugeRepository,
	historyRepo repository.CompanionHistoryRepository,
	sequenceRepo repository.SequenceCounterRepository,
	auditRepo repository.AuditLogRepository,
	resolver CascadeResolver,
	db *gorm.DB,
) SetLifecycleFlow {
	return &SetLifecycleFlowImpl{
		gaugeRepo:    gaugeRepo,
		historyRepo:  historyRepo,
		sequenceRepo: sequenceRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		db:           db,
	}
}

// Base ID allocation for new sets: "SP" prefix, counting from 1001, so the
// first set issued is SP1001A / SP1001B.
const (
	setBaseIDPrefix = "SP"
	setBaseIDStart  = 1001
)

// CreateSet creates a brand-new GO/NO-GO pair from scratch: both rows are
// inserted, linked, and given system gauge IDs from a freshly allocated base
// ID in a single transaction.
func (s *SetLifecycleFlowImpl) CreateSet(ctx context.Context, req *dto.CreateSetRequest, userID uint, metadata *ClientMetadata) (*dto.CreateSetResponse, error) {
	goGauge, err := s.buildGauge(&req.Go, userID, req.StorageLocation)
	if err != nil {
		return nil, err
	}
	noGoGauge, err := s.buildGauge(&req.NoGo, userID, req.StorageLocation)
	if err != nil {
		return nil, err
	}

	goGauge, noGoGauge, err = OrientPair(goGauge, noGoGauge)
	if err != nil {
		return nil, err
	}
	if err := CheckCompatibility(goGauge, noGoGauge); err != nil {
		return nil, err
	}

	for _, serial := range []string{goGauge.SerialNumber, noGoGauge.SerialNumber} {
		existing, err := s.gaugeRepo.BySerialNumber(ctx, serial)
		if err != nil {
			return nil, fmt.Errorf("failed to check serial number: %w", err)
		}
		if existing != nil {
			return nil, NewBusinessErrorf("SERIAL_EXISTS", "serial number %s already exists", ErrSerialNumberExists, serial)
		}
	}

	var baseID string
	err = repository.WithRepeatableRead(ctx, s.db, func(txCtx context.Context) error {
		var err error
		baseID, err = s.sequenceRepo.Next(txCtx, models.SequenceSetBaseID, setBaseIDPrefix, setBaseIDStart)
		if err != nil {
			return fmt.Errorf("failed to allocate base ID: %w", err)
		}

		if err := s.gaugeRepo.CreatePair(txCtx, goGauge, noGoGauge, baseID); err != nil {
			return err
		}

		return s.historyRepo.Record(txCtx, models.CompanionActionCreatedTogether,
			goGauge.ID, noGoGauge.ID, userID, nil, map[string]any{"base_id": baseID})
	})

	if err != nil {
		errMsg := fmt.Sprintf("Set creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, nil, models.AuditActionSetCreateFailed, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Set %s created: gauges %d and %d", baseID, goGauge.ID, noGoGauge.ID)
	_ = s.createAuditLog(ctx, userID, &goGauge.ID, models.AuditActionSetCreated, msg, true, nil, metadata)

	set := ToGaugeSetDTO(models.NewGaugeSet(goGauge, noGoGauge))
	return &dto.CreateSetResponse{
		BaseID: baseID,
		Set:    set,
	}, nil
}

// PairSpareGauges links two existing spare gauges into a set. Both spares are
// claimed with guarded updates inside the transaction, so of two concurrent
// pairings targeting the same spare exactly one commits.
func (s *SetLifecycleFlowImpl) PairSpareGauges(ctx context.Context, req *dto.PairSparesRequest, userID uint, metadata *ClientMetadata) (*dto.PairSparesResponse, error) {
	if req.SetLocation == "" {
		return nil, NewBusinessError("LOCATION_REQUIRED", "a set location is required for pairing", ErrLocationRequired)
	}

	var baseID string
	var goGauge, noGoGauge *models.Gauge

	err := repository.WithRepeatableRead(ctx, s.db, func(txCtx context.Context) error {
		var err error
		goGauge, err = s.loadSpareForPairing(txCtx, req.GoGaugeID)
		if err != nil {
			return err
		}
		noGoGauge, err = s.loadSpareForPairing(txCtx, req.NoGoGaugeID)
		if err != nil {
			return err
		}

		if !goGauge.IsGoGauge || noGoGauge.IsGoGauge {
			return NewBusinessError("ROLE_MISMATCH",
				"a set needs one GO and one NO-GO gauge", ErrRoleMismatch)
		}
		if err := CheckCompatibility(goGauge, noGoGauge); err != nil {
			return err
		}

		for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
			claimed, err := s.gaugeRepo.ClaimSpareForPairing(txCtx, id)
			if err != nil {
				return fmt.Errorf("failed to claim spare %d: %w", id, err)
			}
			if !claimed {
				return NewBusinessErrorf("GAUGE_NOT_AVAILABLE",
					"gauge %d was claimed by a concurrent pairing", ErrSpareClaimed, id)
			}
		}

		baseID, err = s.sequenceRepo.Next(txCtx, models.SequenceSetBaseID, setBaseIDPrefix, setBaseIDStart)
		if err != nil {
			return fmt.Errorf("failed to allocate base ID: %w", err)
		}

		if err := s.gaugeRepo.LinkCompanions(txCtx, goGauge.ID, noGoGauge.ID, baseID); err != nil {
			return err
		}
		if err := s.resolver.CascadeLocationChange(txCtx, goGauge.ID, req.SetLocation); err != nil {
			return err
		}

		return s.historyRepo.Record(txCtx, models.CompanionActionPairedFromSpares,
			goGauge.ID, noGoGauge.ID, userID, req.Reason,
			map[string]any{"base_id": baseID, "location": req.SetLocation})
	})

	if err != nil {
		errMsg := fmt.Sprintf("Pairing failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, nil, models.AuditActionSetPairFailed, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Set %s paired from spares %d and %d", baseID, goGauge.ID, noGoGauge.ID)
	_ = s.createAuditLog(ctx, userID, &goGauge.ID, models.AuditActionSetPaired, msg, true, nil, metadata)

	return s.pairResponse(ctx, baseID, goGauge.ID, noGoGauge.ID)
}

// UnpairSet dissolves a set, returning both members to spares. Either
// member's ID is accepted. The history row is written before the unlink so it
// captures the pre-unpair state.
func (s *SetLifecycleFlowImpl) UnpairSet(ctx context.Context, req *dto.UnpairSetRequest, userID uint, metadata *ClientMetadata) (*dto.UnpairSetResponse, error) {
	var initiator, companion *models.Gauge

	err := repository.WithRepeatableRead(ctx, s.db, func(txCtx context.Context) error {
		gauge, err := s.gaugeRepo.ByID(txCtx, req.GaugeID)
		if err != nil {
			return fmt.Errorf("failed to load gauge: %w", err)
		}
		if gauge == nil {
			return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, req.GaugeID)
		}
		if gauge.CompanionGaugeID == nil {
			return NewBusinessErrorf("COMPANION_NOT_FOUND", "gauge %d has no companion", ErrCompanionNotFound, req.GaugeID)
		}

		goID, noGoID := gauge.ID, *gauge.CompanionGaugeID
		if !gauge.IsGoGauge {
			goID, noGoID = noGoID, goID
		}

		// History first: the row must capture the pre-unpair state.
		if err := s.historyRepo.Record(txCtx, models.CompanionActionUnpaired,
			goID, noGoID, userID, req.Reason,
			map[string]any{
				"base_id":      models.BaseIDFromSystemGaugeID(gauge.SystemGaugeID),
				"initiated_by": gauge.ID,
			}); err != nil {
			return err
		}

		initiator, companion, err = s.gaugeRepo.UnlinkCompanions(txCtx, req.GaugeID)
		return err
	})

	if err != nil {
		errMsg := fmt.Sprintf("Unpair failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, nil, models.AuditActionSetUnpairFailed, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Set unpaired: gauges %d and %d are spares again", initiator.ID, companion.ID)
	_ = s.createAuditLog(ctx, userID, &initiator.ID, models.AuditActionSetUnpaired, msg, true, nil, metadata)

	return &dto.UnpairSetResponse{
		Initiator: ToGaugeDTO(*initiator),
		Companion: ToGaugeDTO(*companion),
	}, nil
}

// ReplaceCompanion swaps one member of an existing set for a spare. The old
// companion becomes a spare, the set keeps its base ID, and the replacement
// inherits the set's location. Any validation failure leaves the existing
// pair untouched.
func (s *SetLifecycleFlowImpl) ReplaceCompanion(ctx context.Context, req *dto.ReplaceCompanionRequest, userID uint, metadata *ClientMetadata) (*dto.ReplaceCompanionResponse, error) {
	var baseID string
	var existing, former, replacement *models.Gauge

	err := repository.WithRepeatableRead(ctx, s.db, func(txCtx context.Context) error {
		var err error
		existing, err = s.gaugeRepo.ByID(txCtx, req.ExistingGaugeID)
		if err != nil {
			return fmt.Errorf("failed to load gauge: %w", err)
		}
		if existing == nil {
			return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, req.ExistingGaugeID)
		}
		if existing.CompanionGaugeID == nil {
			return NewBusinessErrorf("COMPANION_NOT_FOUND", "gauge %d has no companion", ErrCompanionNotFound, req.ExistingGaugeID)
		}

		former, err = s.gaugeRepo.ByID(txCtx, *existing.CompanionGaugeID)
		if err != nil {
			return fmt.Errorf("failed to load companion: %w", err)
		}
		if former == nil {
			return NewBusinessErrorf("COMPANION_NOT_FOUND", "companion of gauge %d not found", ErrCompanionNotFound, req.ExistingGaugeID)
		}

		if existing.Status == models.GaugeStatusCheckedOut {
			return NewBusinessErrorf("CHECKED_OUT", "gauge %s is checked out", ErrGaugeCheckedOut, existing.SerialNumber)
		}
		if former.Status == models.GaugeStatusCheckedOut {
			return NewBusinessErrorf("CHECKED_OUT", "companion %s is checked out", ErrGaugeCheckedOut, former.SerialNumber)
		}

		replacement, err = s.loadSpareForPairing(txCtx, req.NewCompanionID)
		if err != nil {
			return err
		}

		goGauge, noGoGauge, err := OrientPair(existing, replacement)
		if err != nil {
			return err
		}
		if err := CheckCompatibility(goGauge, noGoGauge); err != nil {
			return err
		}

		claimed, err := s.gaugeRepo.ClaimSpareForPairing(txCtx, replacement.ID)
		if err != nil {
			return fmt.Errorf("failed to claim spare %d: %w", replacement.ID, err)
		}
		if !claimed {
			return NewBusinessErrorf("GAUGE_NOT_AVAILABLE",
				"gauge %d was claimed by a concurrent pairing", ErrSpareClaimed, replacement.ID)
		}

		// The set keeps its base ID across the swap.
		baseID = models.BaseIDFromSystemGaugeID(existing.SystemGaugeID)

		if err := s.gaugeRepo.UpdateLocation(txCtx, replacement.ID, existing.StorageLocation); err != nil {
			return err
		}
		if _, _, err := s.gaugeRepo.UnlinkCompanions(txCtx, existing.ID); err != nil {
			return err
		}
		if err := s.gaugeRepo.LinkCompanions(txCtx, goGauge.ID, noGoGauge.ID, baseID); err != nil {
			return err
		}

		return s.historyRepo.Record(txCtx, models.CompanionActionReplaced,
			goGauge.ID, noGoGauge.ID, userID, req.Reason,
			map[string]any{"base_id": baseID, "replaced_gauge_id": former.ID})
	})

	if err != nil {
		errMsg := fmt.Sprintf("Replacement failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, nil, models.AuditActionSetReplaceFailed, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Set %s: gauge %d replaced by %d", baseID, former.ID, replacement.ID)
	_ = s.createAuditLog(ctx, userID, &existing.ID, models.AuditActionSetReplaced, msg, true, nil, metadata)

	goID, noGoID := existing.ID, replacement.ID
	if !existing.IsGoGauge {
		goID, noGoID = replacement.ID, existing.ID
	}
	resp, err := s.pairResponse(ctx, baseID, goID, noGoID)
	if err != nil {
		return nil, err
	}

	formerNow, err := s.gaugeRepo.ByID(ctx, former.ID)
	if err != nil || formerNow == nil {
		return nil, fmt.Errorf("failed to reload former companion: %w", err)
	}

	return &dto.ReplaceCompanionResponse{
		BaseID:          resp.BaseID,
		Set:             resp.Set,
		FormerCompanion: ToGaugeDTO(*formerNow),
	}, nil
}

// FindSpareGauges is a pass-through read over the spare pool; no transaction
func (s *SetLifecycleFlowImpl) FindSpareGauges(ctx context.Context, req *dto.FindSparesRequest) ([]dto.GaugeDTO, error) {
	status := models.GaugeStatusAvailable
	if req.Status != "" {
		status = models.GaugeStatus(req.Status)
		if !status.Valid() {
			return nil, NewBusinessErrorf("VALIDATION_ERROR", "unknown status %q", nil, req.Status)
		}
	}

	gauges, err := s.gaugeRepo.FindSpares(ctx, req.CategoryID, req.IsGoGauge, status)
	if err != nil {
		return nil, fmt.Errorf("failed to find spares: %w", err)
	}

	result := make([]dto.GaugeDTO, 0, len(gauges))
	for _, g := range gauges {
		result = append(result, ToGaugeDTO(*g))
	}
	return result, nil
}

// SetByGaugeID returns the composed set view for either member's ID
func (s *SetLifecycleFlowImpl) SetByGaugeID(ctx context.Context, gaugeID uint) (*dto.GaugeSetDTO, error) {
	gauge, err := s.gaugeRepo.ByID(ctx, gaugeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return nil, NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
	}
	if gauge.CompanionGaugeID == nil {
		return nil, NewBusinessErrorf("COMPANION_NOT_FOUND", "gauge %d is a spare", ErrCompanionNotFound, gaugeID)
	}

	companion, err := s.gaugeRepo.ByID(ctx, *gauge.CompanionGaugeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load companion: %w", err)
	}
	if companion == nil {
		return nil, NewBusinessErrorf("COMPANION_NOT_FOUND", "companion of gauge %d not found", ErrCompanionNotFound, gaugeID)
	}

	goGauge, noGoGauge := gauge, companion
	if !gauge.IsGoGauge {
		goGauge, noGoGauge = companion, gauge
	}

	set := ToGaugeSetDTO(models.NewGaugeSet(goGauge, noGoGauge))
	set.SetStatus = s.resolver.ComputeSetStatus(goGauge, noGoGauge).String()
	set.SealStatus = s.resolver.ComputeSealStatus(goGauge, noGoGauge).String()
	return &set, nil
}

// PairingHistory lists the pairing audit trail rows touching a gauge
func (s *SetLifecycleFlowImpl) PairingHistory(ctx context.Context, gaugeID uint, limit, offset int) ([]dto.CompanionHistoryDTO, error) {
	rows, err := s.historyRepo.ListByGauge(ctx, gaugeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairing history: %w", err)
	}

	result := make([]dto.CompanionHistoryDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, ToCompanionHistoryDTO(*row))
	}
	return result, nil
}

// loadSpareForPairing loads a gauge and checks it can enter a pairing: it
// exists, is a spare, is not retired, and is not pending QC.
func (s *SetLifecycleFlowImpl) loadSpareForPairing(ctx context.Context, id uint) (*models.Gauge, error) {
	gauge, err := s.gaugeRepo.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return nil, NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, id)
	}
	if gauge.IsRetired() {
		return nil, NewBusinessErrorf("GAUGE_RETIRED", "gauge %s is retired", ErrGaugeRetired, gauge.SerialNumber)
	}
	if gauge.CompanionGaugeID != nil {
		return nil, NewBusinessErrorf("GAUGE_NOT_SPARE", "gauge %s already has a companion", ErrGaugeNotSpare, gauge.SerialNumber)
	}
	if gauge.Status == models.GaugeStatusPendingQC {
		return nil, NewBusinessErrorf("GAUGE_PENDING_QC", "gauge %s is pending QC", ErrGaugePendingQC, gauge.SerialNumber)
	}
	return gauge, nil
}

// buildGauge turns a creation input into a gauge model and validates it
func (s *SetLifecycleFlowImpl) buildGauge(input *dto.CreateGaugeInput, userID uint, location string) (*models.Gauge, error) {
	gauge := &models.Gauge{
		UUID:            uuid.New(),
		SerialNumber:    input.SerialNumber,
		EquipmentType:   models.EquipmentType(input.EquipmentType),
		CategoryID:      input.CategoryID,
		ThreadSize:      input.ThreadSize,
		ThreadClass:     input.ThreadClass,
		ThreadType:      input.ThreadType,
		IsGoGauge:       input.IsGoGauge,
		OwnershipType:   models.OwnershipType(input.OwnershipType),
		CustomerID:      input.CustomerID,
		EmployeeOwnerID: input.EmployeeOwnerID,
		Status:          models.GaugeStatusAvailable,
		StorageLocation: location,
		SealStatus:      models.SealStatusUnsealed,
		IsFixedLocation: input.IsFixedLocation,
		CreatedBy:       userID,
		CreatedAt:       utils.UTCNow(),
		UpdatedAt:       utils.UTCNow(),
	}
	if err := ValidateNewGauge(gauge); err != nil {
		return nil, err
	}
	return gauge, nil
}

// pairResponse reloads both members and composes the set view
func (s *SetLifecycleFlowImpl) pairResponse(ctx context.Context, baseID string, goID, noGoID uint) (*dto.PairSparesResponse, error) {
	goGauge, err := s.gaugeRepo.ByID(ctx, goID)
	if err != nil || goGauge == nil {
		return nil, fmt.Errorf("failed to reload gauge %d: %w", goID, err)
	}
	noGoGauge, err := s.gaugeRepo.ByID(ctx, noGoID)
	if err != nil || noGoGauge == nil {
		return nil, fmt.Errorf("failed to reload gauge %d: %w", noGoID, err)
	}

	set := ToGaugeSetDTO(models.NewGaugeSet(goGauge, noGoGauge))
	set.SetStatus = s.resolver.ComputeSetStatus(goGauge, noGoGauge).String()
	set.SealStatus = s.resolver.ComputeSealStatus(goGauge, noGoGauge).String()

	return &dto.PairSparesResponse{
		BaseID: baseID,
		Set:    set,
	}, nil
}

func (s *SetLifecycleFlowImpl) createAuditLog(ctx context.Context, userID uint, gaugeID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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
		CreatedAt:    time.Now().UTC(),
	}

	// Extract request ID from context if available
	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}
