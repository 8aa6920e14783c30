// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"

	"github.com/gaugetrack/gaugetrack/app/dto"
	businessflow "github.com/gaugetrack/gaugetrack/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// GaugeHandlerInterface defines the contract for gauge maintenance handlers
type GaugeHandlerInterface interface {
	GetGauge(c fiber.Ctx) error
	ListGauges(c fiber.Ctx) error
	UpdateGauge(c fiber.Ctx) error
	ChangeLocation(c fiber.Ctx) error
	TakeOutOfService(c fiber.Ctx) error
	ReturnToService(c fiber.Ctx) error
	RetireGauge(c fiber.Ctx) error
	GaugeHistory(c fiber.Ctx) error
}

// GaugeHandler handles gauge maintenance HTTP requests
type GaugeHandler struct {
	gaugeFlow businessflow.GaugeFlow
	validator *validator.Validate
}

// NewGaugeHandler creates a new gauge handler
func NewGaugeHandler(gaugeFlow businessflow.GaugeFlow) *GaugeHandler {
	return &GaugeHandler{
		gaugeFlow: gaugeFlow,
		validator: validator.New(),
	}
}

// GetGauge returns one gauge
// @Summary Get Gauge
// @Tags Gauges
// @Produce json
// @Param id path int true "Gauge ID"
// @Success 200 {object} dto.APIResponse{data=dto.GaugeDTO} "Gauge"
// @Failure 404 {object} dto.APIResponse "Gauge not found"
// @Router /api/v1/gauges/{id} [get]
func (h *GaugeHandler) GetGauge(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	gauge, err := h.gaugeFlow.GetGauge(createRequestContext(c, "/api/v1/gauges/:id"), gaugeID)
	if err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		log.Println("Get gauge failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load gauge", "GAUGE_LOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauge", gauge)
}

// ListGauges returns gauges matching the query filters
// @Summary List Gauges
// @Tags Gauges
// @Produce json
// @Success 200 {object} dto.APIResponse{data=object{gauges=[]dto.GaugeDTO,total=int}} "Gauges"
// @Router /api/v1/gauges [get]
func (h *GaugeHandler) ListGauges(c fiber.Ctx) error {
	var req dto.ListGaugesRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	gauges, total, err := h.gaugeFlow.ListGauges(createRequestContext(c, "/api/v1/gauges"), &req)
	if err != nil {
		if code := businessflow.ErrorCode(err); code == "VALIDATION_ERROR" {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), code, nil)
		}
		log.Println("List gauges failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list gauges", "GAUGE_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauges", fiber.Map{
		"gauges": gauges,
		"total":  total,
	})
}

// UpdateGauge applies an update to a gauge
// @Summary Update Gauge
// @Description Update gauge fields; immutable fields are rejected when changed
// @Tags Gauges
// @Accept json
// @Produce json
// @Param id path int true "Gauge ID"
// @Param request body dto.UpdateGaugeRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.GaugeDTO} "Updated gauge"
// @Failure 400 {object} dto.APIResponse "Validation error or immutable field change"
// @Failure 404 {object} dto.APIResponse "Gauge not found"
// @Router /api/v1/gauges/{id} [put]
func (h *GaugeHandler) UpdateGauge(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateGaugeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	gauge, err := h.gaugeFlow.UpdateGauge(createRequestContext(c, "/api/v1/gauges/:id"), gaugeID, &req, userID, clientMetadata(c))
	if err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsImmutableFieldChanged(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), "IMMUTABLE_FIELD", nil)
		}
		if businessflow.IsInvalidThreadFormat(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_THREAD_FORMAT", nil)
		}
		if businessflow.IsGaugeRetired(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is retired", "GAUGE_RETIRED", nil)
		}
		log.Println("Update gauge failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to update gauge", "GAUGE_UPDATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauge updated", gauge)
}

// ChangeLocation moves a gauge and its companion to a new location
// @Summary Change Gauge Location
// @Tags Gauges
// @Accept json
// @Produce json
// @Param request body dto.ChangeLocationRequest true "New location"
// @Success 200 {object} dto.APIResponse "Location changed"
// @Failure 404 {object} dto.APIResponse "Gauge not found"
// @Router /api/v1/gauges/location [post]
func (h *GaugeHandler) ChangeLocation(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.ChangeLocationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.gaugeFlow.ChangeLocation(createRequestContext(c, "/api/v1/gauges/location"), &req, userID, clientMetadata(c)); err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsLocationRequired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Location is required", "LOCATION_REQUIRED", nil)
		}
		log.Println("Change location failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to change location", "LOCATION_CHANGE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Location changed", nil)
}

// TakeOutOfService marks a gauge out of service
// @Summary Take Gauge Out Of Service
// @Tags Gauges
// @Accept json
// @Produce json
// @Param request body dto.ChangeServiceStateRequest true "Gauge and reason"
// @Success 200 {object} dto.APIResponse "Gauge taken out of service"
// @Router /api/v1/gauges/out-of-service [post]
func (h *GaugeHandler) TakeOutOfService(c fiber.Ctx) error {
	return h.serviceStateChange(c, "/api/v1/gauges/out-of-service", h.gaugeFlow.TakeOutOfService, "Gauge taken out of service")
}

// ReturnToService returns an out-of-service gauge to available
// @Summary Return Gauge To Service
// @Tags Gauges
// @Accept json
// @Produce json
// @Param request body dto.ChangeServiceStateRequest true "Gauge and reason"
// @Success 200 {object} dto.APIResponse "Gauge returned to service"
// @Router /api/v1/gauges/return-to-service [post]
func (h *GaugeHandler) ReturnToService(c fiber.Ctx) error {
	return h.serviceStateChange(c, "/api/v1/gauges/return-to-service", h.gaugeFlow.ReturnToService, "Gauge returned to service")
}

func (h *GaugeHandler) serviceStateChange(c fiber.Ctx, endpoint string, apply func(ctx context.Context, req *dto.ChangeServiceStateRequest, userID uint, metadata *businessflow.ClientMetadata) error, message string) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.ChangeServiceStateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := apply(createRequestContext(c, endpoint), &req, userID, clientMetadata(c)); err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsGaugeNotAvailable(err) {
			return errorResponse(c, fiber.StatusConflict, err.Error(), "INVALID_STATE", nil)
		}
		log.Println("Service state change failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to change service state", "STATUS_CHANGE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, message, nil)
}

// RetireGauge soft-retires a gauge
// @Summary Retire Gauge
// @Description Retire a gauge permanently; a paired gauge is unpaired first
// @Tags Gauges
// @Accept json
// @Produce json
// @Param request body dto.RetireGaugeRequest true "Gauge and reason"
// @Success 200 {object} dto.APIResponse "Gauge retired"
// @Failure 409 {object} dto.APIResponse "Gauge checked out or already retired"
// @Router /api/v1/gauges/retire [post]
func (h *GaugeHandler) RetireGauge(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.RetireGaugeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.gaugeFlow.RetireGauge(createRequestContext(c, "/api/v1/gauges/retire"), &req, userID, clientMetadata(c)); err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsGaugeRetired(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is already retired", "GAUGE_RETIRED", nil)
		}
		if businessflow.IsGaugeCheckedOut(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is checked out", "CHECKED_OUT", nil)
		}
		log.Println("Retire gauge failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to retire gauge", "GAUGE_RETIRE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauge retired", nil)
}

// GaugeHistory returns the pairing history of a gauge
// @Summary Gauge Pairing History
// @Tags Gauges
// @Produce json
// @Param id path int true "Gauge ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CompanionHistoryDTO} "History"
// @Router /api/v1/gauges/{id}/history [get]
func (h *GaugeHandler) GaugeHistory(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var page dto.PaginationRequest
	if err := c.Bind().Query(&page); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	history, err := h.gaugeFlow.GaugeHistory(createRequestContext(c, "/api/v1/gauges/:id/history"), gaugeID, page.Limit(), page.Offset())
	if err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		log.Println("Gauge history failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load history", "HISTORY_LOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "History", history)
}
