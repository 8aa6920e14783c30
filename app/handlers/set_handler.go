// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/app/middleware"
	businessflow "github.com/gaugetrack/gaugetrack/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// SetHandlerInterface defines the contract for set lifecycle handlers
type SetHandlerInterface interface {
	CreateSet(c fiber.Ctx) error
	PairSpares(c fiber.Ctx) error
	UnpairSet(c fiber.Ctx) error
	ReplaceCompanion(c fiber.Ctx) error
	FindSpares(c fiber.Ctx) error
	GetSet(c fiber.Ctx) error
}

// SetHandler handles GO/NO-GO set lifecycle HTTP requests
type SetHandler struct {
	setFlow   businessflow.SetLifecycleFlow
	validator *validator.Validate
}

// NewSetHandler creates a new set lifecycle handler
func NewSetHandler(setFlow businessflow.SetLifecycleFlow) *SetHandler {
	return &SetHandler{
		setFlow:   setFlow,
		validator: validator.New(),
	}
}

// compatibilityError maps pair compatibility failures to HTTP responses.
// Returns nil when the error is not a compatibility failure.
func compatibilityError(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsOwnershipMismatch(err):
		return errorResponse(c, fiber.StatusBadRequest, "Gauges have different ownership types", "OWNERSHIP_MISMATCH", nil)
	case businessflow.IsMissingCustomerID(err):
		return errorResponse(c, fiber.StatusBadRequest, "Customer-owned gauges require a customer", "MISSING_CUSTOMER_ID", nil)
	case businessflow.IsCustomerMismatch(err):
		return errorResponse(c, fiber.StatusBadRequest, "Gauges belong to different customers", "CUSTOMER_MISMATCH", nil)
	case businessflow.IsSpecMismatch(err):
		return errorResponse(c, fiber.StatusBadRequest, "Gauge specifications do not match", "SPEC_MISMATCH", nil)
	case businessflow.IsRoleMismatch(err):
		return errorResponse(c, fiber.StatusBadRequest, "A set needs one GO and one NO-GO gauge", "ROLE_MISMATCH", nil)
	}
	return nil
}

// CreateSet creates a new GO/NO-GO set from two new gauges
// @Summary Create Set
// @Description Create two new gauges and pair them as a set
// @Tags Sets
// @Accept json
// @Produce json
// @Param request body dto.CreateSetRequest true "Set data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateSetResponse} "Set created"
// @Failure 400 {object} dto.APIResponse "Validation or compatibility error"
// @Failure 409 {object} dto.APIResponse "Serial number already exists"
// @Router /api/v1/sets [post]
func (h *SetHandler) CreateSet(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateSetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.setFlow.CreateSet(createRequestContext(c, "/api/v1/sets"), &req, userID, clientMetadata(c))
	middleware.RecordPairingOperation("create_set", err == nil)
	if err != nil {
		if resp := compatibilityError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsSerialNumberExists(err) {
			return errorResponse(c, fiber.StatusConflict, "Serial number already exists", "SERIAL_EXISTS", nil)
		}
		if businessflow.IsInvalidThreadFormat(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_THREAD_FORMAT", nil)
		}
		if businessflow.IsCategoryNotFound(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		if businessflow.IsLocationRequired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Storage location is required", "LOCATION_REQUIRED", nil)
		}
		if code := businessflow.ErrorCode(err); code == "VALIDATION_ERROR" {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), code, nil)
		}

		log.Println("Create set failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create set", "SET_CREATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Set created", result)
}

// PairSpares pairs two existing spare gauges into a set
// @Summary Pair Spare Gauges
// @Description Pair two spare gauges into a new GO/NO-GO set
// @Tags Sets
// @Accept json
// @Produce json
// @Param request body dto.PairSparesRequest true "Spare gauge IDs and set location"
// @Success 200 {object} dto.APIResponse{data=dto.PairSparesResponse} "Set paired"
// @Failure 400 {object} dto.APIResponse "Compatibility or eligibility error"
// @Failure 409 {object} dto.APIResponse "Gauge already claimed by a concurrent pairing"
// @Router /api/v1/sets/pair [post]
func (h *SetHandler) PairSpares(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.PairSparesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.setFlow.PairSpareGauges(createRequestContext(c, "/api/v1/sets/pair"), &req, userID, clientMetadata(c))
	middleware.RecordPairingOperation("pair", err == nil)
	if err != nil {
		if resp := compatibilityError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsGaugeNotSpare(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is already paired", "GAUGE_NOT_SPARE", nil)
		}
		if businessflow.IsSpareClaimed(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge was claimed by a concurrent pairing", "SPARE_CLAIMED", nil)
		}
		if businessflow.IsLocationRequired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Set location is required", "LOCATION_REQUIRED", nil)
		}
		if businessflow.IsGaugePendingQC(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is pending QC", "GAUGE_PENDING_QC", nil)
		}
		if businessflow.IsGaugeNotAvailable(err) {
			return errorResponse(c, fiber.StatusConflict, err.Error(), "GAUGE_NOT_AVAILABLE", nil)
		}

		log.Println("Pair spares failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to pair gauges", "SET_PAIR_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Set paired", result)
}

// UnpairSet breaks an existing set into two spares
// @Summary Unpair Set
// @Description Break a set into two spare gauges; the pairing trail is preserved
// @Tags Sets
// @Accept json
// @Produce json
// @Param request body dto.UnpairSetRequest true "Gauge in the set to unpair"
// @Success 200 {object} dto.APIResponse{data=dto.UnpairSetResponse} "Set unpaired"
// @Failure 404 {object} dto.APIResponse "Gauge not found or not paired"
// @Router /api/v1/sets/unpair [post]
func (h *SetHandler) UnpairSet(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.UnpairSetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.setFlow.UnpairSet(createRequestContext(c, "/api/v1/sets/unpair"), &req, userID, clientMetadata(c))
	middleware.RecordPairingOperation("unpair", err == nil)
	if err != nil {
		// A spare has no companion to unpair; same NotFound as a missing gauge
		if businessflow.IsGaugeNotFound(err) || businessflow.IsGaugeNotSpare(err) || businessflow.IsCompanionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "No paired gauge found", "GAUGE_NOT_FOUND", nil)
		}

		log.Println("Unpair set failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to unpair set", "SET_UNPAIR_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Set unpaired", result)
}

// ReplaceCompanion swaps one member of a set with a spare
// @Summary Replace Companion
// @Description Replace one member of a set with a compatible spare gauge
// @Tags Sets
// @Accept json
// @Produce json
// @Param request body dto.ReplaceCompanionRequest true "Existing member and replacement spare"
// @Success 200 {object} dto.APIResponse{data=dto.ReplaceCompanionResponse} "Companion replaced"
// @Failure 400 {object} dto.APIResponse "Compatibility error"
// @Failure 409 {object} dto.APIResponse "Set checked out or replacement ineligible"
// @Router /api/v1/sets/replace [post]
func (h *SetHandler) ReplaceCompanion(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.ReplaceCompanionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.setFlow.ReplaceCompanion(createRequestContext(c, "/api/v1/sets/replace"), &req, userID, clientMetadata(c))
	middleware.RecordPairingOperation("replace", err == nil)
	if err != nil {
		if resp := compatibilityError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsGaugeCheckedOut(err) {
			return errorResponse(c, fiber.StatusConflict, "Set is checked out", "CHECKED_OUT", nil)
		}
		if businessflow.IsGaugePendingQC(err) {
			return errorResponse(c, fiber.StatusConflict, "Replacement gauge is pending QC", "GAUGE_PENDING_QC", nil)
		}
		if businessflow.IsGaugeNotSpare(err) {
			return errorResponse(c, fiber.StatusConflict, "Replacement gauge is already paired", "GAUGE_NOT_SPARE", nil)
		}
		if businessflow.IsSpareClaimed(err) {
			return errorResponse(c, fiber.StatusConflict, "Replacement was claimed by a concurrent pairing", "SPARE_CLAIMED", nil)
		}

		log.Println("Replace companion failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to replace companion", "SET_REPLACE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Companion replaced", result)
}

// FindSpares lists spare gauges matching a pairing profile
// @Summary Find Spare Gauges
// @Tags Sets
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.GaugeDTO} "Spares"
// @Router /api/v1/sets/spares [get]
func (h *SetHandler) FindSpares(c fiber.Ctx) error {
	var req dto.FindSparesRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	spares, err := h.setFlow.FindSpareGauges(createRequestContext(c, "/api/v1/sets/spares"), &req)
	if err != nil {
		if code := businessflow.ErrorCode(err); code == "VALIDATION_ERROR" {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), code, nil)
		}
		log.Println("Find spares failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to find spares", "SPARE_SEARCH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Spares", spares)
}

// GetSet returns the set a gauge belongs to, with derived set status
// @Summary Get Set By Gauge
// @Tags Sets
// @Produce json
// @Param id path int true "Gauge ID"
// @Success 200 {object} dto.APIResponse{data=dto.GaugeSetDTO} "Set"
// @Failure 404 {object} dto.APIResponse "Gauge not found or not paired"
// @Router /api/v1/sets/by-gauge/{id} [get]
func (h *SetHandler) GetSet(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	set, err := h.setFlow.SetByGaugeID(createRequestContext(c, "/api/v1/sets/by-gauge/:id"), gaugeID)
	if err != nil {
		if businessflow.IsGaugeNotFound(err) || businessflow.IsGaugeNotSpare(err) || businessflow.IsCompanionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "No set found for gauge", "GAUGE_NOT_FOUND", nil)
		}
		log.Println("Get set failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load set", "SET_LOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Set", set)
}
