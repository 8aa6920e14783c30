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

// CheckoutHandlerInterface defines the contract for checkout handlers
type CheckoutHandlerInterface interface {
	CheckoutSet(c fiber.Ctx) error
	ReturnSet(c fiber.Ctx) error
	CheckEligibility(c fiber.Ctx) error
}

// CheckoutHandler handles set checkout and return HTTP requests
type CheckoutHandler struct {
	checkoutFlow businessflow.CheckoutFlow
	validator    *validator.Validate
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutFlow businessflow.CheckoutFlow) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutFlow: checkoutFlow,
		validator:    validator.New(),
	}
}

// eligibilityError maps checkout eligibility failures to HTTP responses.
// Returns nil when the error is not an eligibility failure.
func eligibilityError(c fiber.Ctx, err error) error {
	switch {
	case businessflow.IsGaugeCheckedOut(err):
		return errorResponse(c, fiber.StatusConflict, "Set is already checked out", "CHECKED_OUT", nil)
	case businessflow.IsGaugeSealed(err):
		return errorResponse(c, fiber.StatusConflict, "A member of the set is sealed", "GAUGE_SEALED", nil)
	case businessflow.IsCalibrationOverdue(err):
		return errorResponse(c, fiber.StatusConflict, "Calibration is overdue", "CALIBRATION_OVERDUE", nil)
	case businessflow.IsGaugePendingQC(err):
		return errorResponse(c, fiber.StatusConflict, "A member of the set is pending QC", "GAUGE_PENDING_QC", nil)
	case businessflow.IsFixedLocation(err):
		return errorResponse(c, fiber.StatusConflict, "Fixed-location equipment cannot be checked out", "FIXED_LOCATION", nil)
	case businessflow.IsGaugeRetired(err):
		return errorResponse(c, fiber.StatusConflict, "Gauge is retired", "GAUGE_RETIRED", nil)
	case businessflow.IsGaugeNotAvailable(err):
		return errorResponse(c, fiber.StatusConflict, err.Error(), "GAUGE_NOT_AVAILABLE", nil)
	}
	return nil
}

// CheckoutSet checks out a whole set to a destination
// @Summary Checkout Set
// @Description Check out both members of a set to a customer or shop destination
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.CheckoutSetRequest true "Set member and destination"
// @Success 200 {object} dto.APIResponse{data=dto.CheckoutSetResponse} "Set checked out"
// @Failure 409 {object} dto.APIResponse "Set not eligible for checkout"
// @Router /api/v1/checkout [post]
func (h *CheckoutHandler) CheckoutSet(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutSetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.checkoutFlow.CheckoutSet(createRequestContext(c, "/api/v1/checkout"), &req, userID, clientMetadata(c))
	middleware.RecordCheckoutOperation("checkout", err == nil)
	if err != nil {
		if resp := eligibilityError(c, err); resp != nil {
			return resp
		}
		if businessflow.IsGaugeNotFound(err) || businessflow.IsCompanionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Set not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsLocationRequired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Destination is required", "LOCATION_REQUIRED", nil)
		}

		log.Println("Checkout failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Checkout failed", "CHECKOUT_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Set checked out", result)
}

// ReturnSet returns a checked out set
// @Summary Return Set
// @Description Return both members of a checked out set to storage
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.ReturnSetRequest true "Set member and return location"
// @Success 200 {object} dto.APIResponse{data=dto.ReturnSetResponse} "Set returned"
// @Failure 409 {object} dto.APIResponse "Set is not checked out"
// @Router /api/v1/checkout/return [post]
func (h *CheckoutHandler) ReturnSet(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.ReturnSetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.checkoutFlow.ReturnSet(createRequestContext(c, "/api/v1/checkout/return"), &req, userID, clientMetadata(c))
	middleware.RecordCheckoutOperation("return", err == nil)
	if err != nil {
		if businessflow.IsGaugeNotFound(err) || businessflow.IsCompanionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Set not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsSetNotCheckedOut(err) {
			return errorResponse(c, fiber.StatusConflict, "Set is not checked out", "SET_NOT_CHECKED_OUT", nil)
		}
		if businessflow.IsLocationRequired(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Storage location is required", "LOCATION_REQUIRED", nil)
		}

		log.Println("Return failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Return failed", "RETURN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Set returned", result)
}

// CheckEligibility reports whether a set can be checked out right now
// @Summary Checkout Eligibility
// @Tags Checkout
// @Produce json
// @Param id path int true "Gauge ID of either set member"
// @Success 200 {object} dto.APIResponse{data=dto.CheckoutEligibilityResponse} "Eligibility"
// @Router /api/v1/checkout/eligibility/{id} [get]
func (h *CheckoutHandler) CheckEligibility(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.checkoutFlow.CheckEligibility(createRequestContext(c, "/api/v1/checkout/eligibility/:id"), gaugeID)
	if err != nil {
		if businessflow.IsGaugeNotFound(err) || businessflow.IsCompanionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Set not found", "GAUGE_NOT_FOUND", nil)
		}
		log.Println("Eligibility check failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Eligibility check failed", "ELIGIBILITY_CHECK_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Eligibility", result)
}
