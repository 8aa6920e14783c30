// Package businessflow contains the core business logic and use cases for gauge set lifecycle workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CalibrationFlow manages calibration batches: opening a batch, filling it
// with gauges, sending it to the vendor, and receiving gauges back one at a
// time. A gauge references its batch only while it is out for calibration.
type CalibrationFlow interface {
	CreateBatch(ctx context.Context, req *dto.CreateBatchRequest, userID uint, metadata *ClientMetadata) (*dto.CreateBatchResponse, error)
	AddGauges(ctx context.Context, req *dto.AddGaugesToBatchRequest, userID uint, metadata *ClientMetadata) (*dto.BatchDetailResponse, error)
	SendBatch(ctx context.Context, req *dto.SendBatchRequest, userID uint, metadata *ClientMetadata) (*dto.BatchDetailResponse, error)
	ReceiveGauge(ctx context.Context, req *dto.ReceiveGaugeRequest, userID uint, metadata *ClientMetadata) (*dto.BatchDetailResponse, error)
	CancelBatch(ctx context.Context, req *dto.CancelBatchRequest, userID uint, metadata *ClientMetadata) (*dto.CalibrationBatchDTO, error)
	BatchDetail(ctx context.Context, batchID uint) (*dto.BatchDetailResponse, error)
	ListBatches(ctx context.Context, status *string, limit, offset int) ([]dto.CalibrationBatchDTO, error)
}

// CalibrationFlowImpl implements the calibration business flow
type CalibrationFlowImpl struct {
	batchRepo    repository.CalibrationBatchRepository
	gaugeRepo    repository.GaugeRepository
	sequenceRepo repository.SequenceCounterRepository
	auditRepo    repository.AuditLogRepository
	db           *gorm.DB
}

// NewCalibrationFlow creates a new calibration flow instance
func NewCalibrationFlow(
	batchRepo repository.CalibrationBatchRepository,
	gaugeRepo repository.GaugeRepository,
	sequenceRepo repository.SequenceCounterRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CalibrationFlow {
	return &CalibrationFlowImpl{
		batchRepo:    batchRepo,
		gaugeRepo:    gaugeRepo,
		sequenceRepo: sequenceRepo,
		auditRepo:    auditRepo,
		db:           db,
	}
}

const (
	batchNumberPrefix = "CB"
	batchNumberStart  = 1001
)

// CreateBatch opens a new batch with a freshly allocated batch number
func (s *CalibrationFlowImpl) CreateBatch(ctx context.Context, req *dto.CreateBatchRequest, userID uint, metadata *ClientMetadata) (*dto.CreateBatchResponse, error) {
	if req.VendorName == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "vendor name is required", nil)
	}

	batch := &models.CalibrationBatch{
		UUID:          uuid.New(),
		Status:        models.CalibrationBatchStatusCreated,
		VendorName:    req.VendorName,
		VendorContact: req.VendorContact,
		Notes:         req.Notes,
		CreatedBy:     userID,
		CreatedAt:     utils.UTCNow(),
		UpdatedAt:     utils.UTCNow(),
	}

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		number, err := s.sequenceRepo.Next(txCtx, models.SequenceCalibrationBatch, batchNumberPrefix, batchNumberStart)
		if err != nil {
			return fmt.Errorf("failed to allocate batch number: %w", err)
		}
		batch.BatchNumber = number
		return s.batchRepo.Save(txCtx, batch)
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Calibration batch %s created for %s", batch.BatchNumber, batch.VendorName)
	_ = s.createAuditLog(ctx, userID, models.AuditActionBatchCreated, msg, true, nil, metadata)

	return &dto.CreateBatchResponse{Batch: ToCalibrationBatchDTO(*batch)}, nil
}

// AddGauges assigns gauges to an open batch. Adding the first gauge moves
// the batch from created to in_preparation.
func (s *CalibrationFlowImpl) AddGauges(ctx context.Context, req *dto.AddGaugesToBatchRequest, userID uint, metadata *ClientMetadata) (*dto.BatchDetailResponse, error) {
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		batch, err := s.loadBatch(txCtx, req.BatchID)
		if err != nil {
			return err
		}
		if !batch.Status.IsOpen() {
			return NewBusinessErrorf("BATCH_NOT_OPEN", "batch %s is %s", ErrBatchNotOpen, batch.BatchNumber, batch.Status)
		}

		for _, gaugeID := range req.GaugeIDs {
			gauge, err := s.gaugeRepo.ByID(txCtx, gaugeID)
			if err != nil {
				return fmt.Errorf("failed to load gauge: %w", err)
			}
			if gauge == nil {
				return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
			}
			if gauge.IsRetired() {
				return NewBusinessErrorf("GAUGE_RETIRED", "gauge %s is retired", ErrGaugeRetired, gauge.SerialNumber)
			}
			if gauge.Status == models.GaugeStatusCheckedOut {
				return NewBusinessErrorf("CHECKED_OUT", "gauge %s is checked out", ErrGaugeCheckedOut, gauge.SerialNumber)
			}
			if gauge.CalibrationBatchID != nil && *gauge.CalibrationBatchID != batch.ID {
				return NewBusinessErrorf("BATCH_CONFLICT", "gauge %s is already in another batch", ErrGaugeNotAvailable, gauge.SerialNumber)
			}
			if err := s.gaugeRepo.AssignCalibrationBatch(txCtx, gauge.ID, &batch.ID); err != nil {
				return err
			}
		}

		if batch.Status == models.CalibrationBatchStatusCreated {
			return s.batchRepo.UpdateStatus(txCtx, batch.ID, models.CalibrationBatchStatusInPreparation, nil, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.BatchDetail(ctx, req.BatchID)
}

// SendBatch marks the batch as sent to the vendor; every member gauge moves
// to out_for_calibration
func (s *CalibrationFlowImpl) SendBatch(ctx context.Context, req *dto.SendBatchRequest, userID uint, metadata *ClientMetadata) (*dto.BatchDetailResponse, error) {
	var batchNumber string

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		batch, err := s.loadBatch(txCtx, req.BatchID)
		if err != nil {
			return err
		}
		if !batch.Status.CanTransitionTo(models.CalibrationBatchStatusSent) {
			return NewBusinessErrorf("INVALID_BATCH_TRANSITION", "batch %s cannot be sent from %s",
				ErrInvalidBatchTransition, batch.BatchNumber, batch.Status)
		}
		batchNumber = batch.BatchNumber

		gauges, err := s.gaugeRepo.ListByCalibrationBatch(txCtx, batch.ID)
		if err != nil {
			return err
		}
		if len(gauges) == 0 {
			return NewBusinessErrorf("BATCH_EMPTY", "batch %s has no gauges", ErrBatchEmpty, batch.BatchNumber)
		}

		for _, gauge := range gauges {
			if err := s.gaugeRepo.UpdateStatus(txCtx, gauge.ID, models.GaugeStatusOutForCalibration); err != nil {
				return err
			}
		}

		sentAt := utils.UTCNow()
		return s.batchRepo.UpdateStatus(txCtx, batch.ID, models.CalibrationBatchStatusSent, &sentAt, nil)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Batch send failed: %s", err.Error())
		_ = s.createAuditLog(ctx, userID, models.AuditActionBatchSent, errMsg, false, &errMsg, metadata)
		return nil, err
	}

	msg := fmt.Sprintf("Calibration batch %s sent", batchNumber)
	_ = s.createAuditLog(ctx, userID, models.AuditActionBatchSent, msg, true, nil, metadata)

	return s.BatchDetail(ctx, req.BatchID)
}

// ReceiveGauge receives one gauge back from calibration. The gauge moves to
// pending_certificate and drops its batch reference; when the last
// outstanding gauge comes back the batch closes.
func (s *CalibrationFlowImpl) ReceiveGauge(ctx context.Context, req *dto.ReceiveGaugeRequest, userID uint, metadata *ClientMetadata) (*dto.BatchDetailResponse, error) {
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		batch, err := s.loadBatch(txCtx, req.BatchID)
		if err != nil {
			return err
		}
		if batch.Status != models.CalibrationBatchStatusSent &&
			batch.Status != models.CalibrationBatchStatusPartiallyReceived {
			return NewBusinessErrorf("BATCH_NOT_SENT", "batch %s is %s", ErrBatchNotSent, batch.BatchNumber, batch.Status)
		}

		gauge, err := s.gaugeRepo.ByID(txCtx, req.GaugeID)
		if err != nil {
			return fmt.Errorf("failed to load gauge: %w", err)
		}
		if gauge == nil {
			return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, req.GaugeID)
		}
		if gauge.CalibrationBatchID == nil || *gauge.CalibrationBatchID != batch.ID {
			return NewBusinessErrorf("GAUGE_NOT_IN_BATCH", "gauge %s is not part of batch %s",
				ErrGaugeNotInBatch, gauge.SerialNumber, batch.BatchNumber)
		}

		if err := s.gaugeRepo.UpdateFields(txCtx, gauge.ID, map[string]any{
			"status":               models.GaugeStatusPendingCertificate,
			"calibration_batch_id": nil,
		}); err != nil {
			return err
		}

		remaining, err := s.gaugeRepo.ListByCalibrationBatch(txCtx, batch.ID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			closedAt := utils.UTCNow()
			return s.batchRepo.UpdateStatus(txCtx, batch.ID, models.CalibrationBatchStatusClosed, nil, &closedAt)
		}
		if batch.Status == models.CalibrationBatchStatusSent {
			return s.batchRepo.UpdateStatus(txCtx, batch.ID, models.CalibrationBatchStatusPartiallyReceived, nil, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.BatchDetail(ctx, req.BatchID)
}

// CancelBatch cancels a batch that has not been sent; member gauges drop
// their batch reference
func (s *CalibrationFlowImpl) CancelBatch(ctx context.Context, req *dto.CancelBatchRequest, userID uint, metadata *ClientMetadata) (*dto.CalibrationBatchDTO, error) {
	var batch *models.CalibrationBatch

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		var err error
		batch, err = s.loadBatch(txCtx, req.BatchID)
		if err != nil {
			return err
		}
		if !batch.Status.CanTransitionTo(models.CalibrationBatchStatusCancelled) {
			return NewBusinessErrorf("INVALID_BATCH_TRANSITION", "batch %s cannot be cancelled from %s",
				ErrInvalidBatchTransition, batch.BatchNumber, batch.Status)
		}

		gauges, err := s.gaugeRepo.ListByCalibrationBatch(txCtx, batch.ID)
		if err != nil {
			return err
		}
		for _, gauge := range gauges {
			if err := s.gaugeRepo.AssignCalibrationBatch(txCtx, gauge.ID, nil); err != nil {
				return err
			}
		}

		return s.batchRepo.UpdateStatus(txCtx, batch.ID, models.CalibrationBatchStatusCancelled, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Calibration batch %s cancelled", batch.BatchNumber)
	_ = s.createAuditLog(ctx, userID, models.AuditActionBatchCancelled, msg, true, nil, metadata)

	reloaded, err := s.batchRepo.ByID(ctx, batch.ID)
	if err != nil || reloaded == nil {
		return nil, fmt.Errorf("failed to reload batch: %w", err)
	}
	result := ToCalibrationBatchDTO(*reloaded)
	return &result, nil
}

// BatchDetail returns a batch together with its member gauges
func (s *CalibrationFlowImpl) BatchDetail(ctx context.Context, batchID uint) (*dto.BatchDetailResponse, error) {
	batch, err := s.loadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	gauges, err := s.gaugeRepo.ListByCalibrationBatch(ctx, batch.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.BatchDetailResponse{
		Batch:  ToCalibrationBatchDTO(*batch),
		Gauges: make([]dto.GaugeDTO, 0, len(gauges)),
	}
	for _, g := range gauges {
		resp.Gauges = append(resp.Gauges, ToGaugeDTO(*g))
	}
	return resp, nil
}

// ListBatches lists calibration batches, optionally filtered by status
func (s *CalibrationFlowImpl) ListBatches(ctx context.Context, status *string, limit, offset int) ([]dto.CalibrationBatchDTO, error) {
	filter := models.CalibrationBatchFilter{}
	if status != nil && *status != "" {
		st := models.CalibrationBatchStatus(*status)
		if !st.Valid() {
			return nil, NewBusinessErrorf("VALIDATION_ERROR", "unknown batch status %q", nil, *status)
		}
		filter.Status = &st
	}

	batches, err := s.batchRepo.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([]dto.CalibrationBatchDTO, 0, len(batches))
	for _, b := range batches {
		result = append(result, ToCalibrationBatchDTO(*b))
	}
	return result, nil
}

func (s *CalibrationFlowImpl) loadBatch(ctx context.Context, batchID uint) (*models.CalibrationBatch, error) {
	batch, err := s.batchRepo.ByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	if batch == nil {
		return nil, NewBusinessErrorf("BATCH_NOT_FOUND", "batch %d not found", ErrBatchNotFound, batchID)
	}
	return batch, nil
}

func (s *CalibrationFlowImpl) createAuditLog(ctx context.Context, userID uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       &userID,
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
