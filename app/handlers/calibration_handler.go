// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gaugetrack/gaugetrack/app/dto"
	businessflow "github.com/gaugetrack/gaugetrack/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CalibrationHandlerInterface defines the contract for calibration batch handlers
type CalibrationHandlerInterface interface {
	CreateBatch(c fiber.Ctx) error
	AddGauges(c fiber.Ctx) error
	SendBatch(c fiber.Ctx) error
	ReceiveGauge(c fiber.Ctx) error
	CancelBatch(c fiber.Ctx) error
	BatchDetail(c fiber.Ctx) error
	ListBatches(c fiber.Ctx) error
}

// CalibrationHandler handles calibration batch HTTP requests
type CalibrationHandler struct {
	calibrationFlow businessflow.CalibrationFlow
	validator       *validator.Validate
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(calibrationFlow businessflow.CalibrationFlow) *CalibrationHandler {
	return &CalibrationHandler{
		calibrationFlow: calibrationFlow,
		validator:       validator.New(),
	}
}

// batchError maps batch lifecycle failures to HTTP responses.
// Returns nil when the error is not a batch failure.
func batchError(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsBatchNotFound(err):
		return errorResponse(c, fiber.StatusNotFound, "Batch not found", "BATCH_NOT_FOUND", nil)
	case businessflow.IsBatchNotOpen(err):
		return errorResponse(c, fiber.StatusConflict, "Batch no longer accepts gauges", "BATCH_NOT_OPEN", nil)
	case businessflow.IsBatchNotSent(err):
		return errorResponse(c, fiber.StatusConflict, "Batch has not been sent", "BATCH_NOT_SENT", nil)
	case businessflow.IsBatchEmpty(err):
		return errorResponse(c, fiber.StatusConflict, "Batch has no gauges", "BATCH_EMPTY", nil)
	case businessflow.IsBatchHasOutstanding(err):
		return errorResponse(c, fiber.StatusConflict, "Batch still has gauges out for calibration", "BATCH_HAS_OUTSTANDING", nil)
	case businessflow.IsGaugeNotInBatch(err):
		return errorResponse(c, fiber.StatusConflict, "Gauge is not in this batch", "GAUGE_NOT_IN_BATCH", nil)
	case businessflow.IsInvalidBatchTransition(err):
		return errorResponse(c, fiber.StatusConflict, err.Error(), "INVALID_BATCH_TRANSITION", nil)
	}
	return nil
}

// CreateBatch creates a new calibration batch
// @Summary Create Calibration Batch
// @Tags Calibration
// @Accept json
// @Produce json
// @Param request body dto.CreateBatchRequest true "Batch vendor data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateBatchResponse} "Batch created"
// @Router /api/v1/calibration/batches [post]
func (h *CalibrationHandler) CreateBatch(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.calibrationFlow.CreateBatch(createRequestContext(c, "/api/v1/calibration/batches"), &req, userID, clientMetadata(c))
	if err != nil {
		log.Println("Create batch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create batch", "BATCH_CREATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Batch created", result)
}

// AddGauges adds gauges to an open batch
// @Summary Add Gauges To Batch
// @Tags Calibration
// @Accept json
// @Produce json
// @Param request body dto.AddGaugesToBatchRequest true "Batch and gauge IDs"
// @Success 200 {object} dto.APIResponse{data=dto.BatchDetailResponse} "Batch contents"
// @Failure 409 {object} dto.APIResponse "Batch closed or gauge ineligible"
// @Router /api/v1/calibration/batches/add [post]
func (h *CalibrationHandler) AddGauges(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.AddGaugesToBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.calibrationFlow.AddGauges(createRequestContext(c, "/api/v1/calibration/batches/add"), &req, userID, clientMetadata(c))
	if err != nil {
		if resp := batchError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsGaugeRetired(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is retired", "GAUGE_RETIRED", nil)
		}
		if businessflow.IsGaugeCheckedOut(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is checked out", "CHECKED_OUT", nil)
		}
		if businessflow.IsGaugeNotAvailable(err) {
			return errorResponse(c, fiber.StatusConflict, err.Error(), "GAUGE_NOT_AVAILABLE", nil)
		}

		log.Println("Add gauges to batch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to add gauges", "BATCH_ADD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauges added", result)
}

// SendBatch marks a batch as sent to the calibration vendor
// @Summary Send Batch
// @Tags Calibration
// @Accept json
// @Produce json
// @Param request body dto.SendBatchRequest true "Batch ID"
// @Success 200 {object} dto.APIResponse{data=dto.BatchDetailResponse} "Batch sent"
// @Router /api/v1/calibration/batches/send [post]
func (h *CalibrationHandler) SendBatch(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.SendBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.calibrationFlow.SendBatch(createRequestContext(c, "/api/v1/calibration/batches/send"), &req, userID, clientMetadata(c))
	if err != nil {
		if resp := batchError(c, err); resp != nil {
			return resp
		}
		log.Println("Send batch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to send batch", "BATCH_SEND_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Batch sent", result)
}

// ReceiveGauge receives one gauge back from calibration
// @Summary Receive Gauge From Calibration
// @Tags Calibration
// @Accept json
// @Produce json
// @Param request body dto.ReceiveGaugeRequest true "Batch and gauge ID"
// @Success 200 {object} dto.APIResponse{data=dto.BatchDetailResponse} "Gauge received"
// @Router /api/v1/calibration/batches/receive [post]
func (h *CalibrationHandler) ReceiveGauge(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.ReceiveGaugeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.calibrationFlow.ReceiveGauge(createRequestContext(c, "/api/v1/calibration/batches/receive"), &req, userID, clientMetadata(c))
	if err != nil {
		if resp := batchError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}

		log.Println("Receive gauge failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to receive gauge", "BATCH_RECEIVE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauge received", result)
}

// CancelBatch cancels a batch that has not been sent
// @Summary Cancel Batch
// @Tags Calibration
// @Accept json
// @Produce json
// @Param request body dto.CancelBatchRequest true "Batch ID and reason"
// @Success 200 {object} dto.APIResponse{data=dto.CalibrationBatchDTO} "Batch cancelled"
// @Router /api/v1/calibration/batches/cancel [post]
func (h *CalibrationHandler) CancelBatch(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CancelBatchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.calibrationFlow.CancelBatch(createRequestContext(c, "/api/v1/calibration/batches/cancel"), &req, userID, clientMetadata(c))
	if err != nil {
		if resp := batchError(c, err); resp != nil {
			return resp
		}
		log.Println("Cancel batch failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to cancel batch", "BATCH_CANCEL_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Batch cancelled", result)
}

// BatchDetail returns a batch with its member gauges
// @Summary Batch Detail
// @Tags Calibration
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} dto.APIResponse{data=dto.BatchDetailResponse} "Batch"
// @Router /api/v1/calibration/batches/{id} [get]
func (h *CalibrationHandler) BatchDetail(c fiber.Ctx) error {
	batchID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.calibrationFlow.BatchDetail(createRequestContext(c, "/api/v1/calibration/batches/:id"), batchID)
	if err != nil {
		if resp := batchError(c, err); resp != nil {
			return resp
		}
		log.Println("Batch detail failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load batch", "BATCH_LOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Batch", result)
}

// ListBatches returns batches filtered by status
// @Summary List Batches
// @Tags Calibration
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.CalibrationBatchDTO} "Batches"
// @Router /api/v1/calibration/batches [get]
func (h *CalibrationHandler) ListBatches(c fiber.Ctx) error {
	var page dto.PaginationRequest
	if err := c.Bind().Query(&page); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	batches, err := h.calibrationFlow.ListBatches(createRequestContext(c, "/api/v1/calibration/batches"), status, page.Limit(), page.Offset())
	if err != nil {
		if code := businessflow.ErrorCode(err); code == "VALIDATION_ERROR" {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), code, nil)
		}
		log.Println("List batches failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list batches", "BATCH_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Batches", batches)
}
