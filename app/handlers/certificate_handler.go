// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"time"

	"github.com/gaugetrack/gaugetrack/app/dto"
	businessflow "github.com/gaugetrack/gaugetrack/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// CertificateHandlerInterface defines the contract for certificate handlers
type CertificateHandlerInterface interface {
	Upload(c fiber.Ctx) error
	Chain(c fiber.Ctx) error
	Current(c fiber.Ctx) error
	ListExpiring(c fiber.Ctx) error
}

// CertificateHandler handles calibration certificate HTTP requests
type CertificateHandler struct {
	certificateFlow businessflow.CertificateFlow
	validator       *validator.Validate
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certificateFlow businessflow.CertificateFlow) *CertificateHandler {
	return &CertificateHandler{
		certificateFlow: certificateFlow,
		validator:       validator.New(),
	}
}

// Upload registers a new calibration certificate for a gauge
// @Summary Upload Certificate
// @Description Register a certificate; any previous current certificate is superseded atomically
// @Tags Certificates
// @Accept json
// @Produce json
// @Param request body dto.UploadCertificateRequest true "Certificate data"
// @Success 201 {object} dto.APIResponse{data=dto.UploadCertificateResponse} "Certificate registered"
// @Failure 400 {object} dto.APIResponse "Invalid dates"
// @Router /api/v1/certificates [post]
func (h *CertificateHandler) Upload(c fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req dto.UploadCertificateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	result, err := h.certificateFlow.UploadCertificate(createRequestContext(c, "/api/v1/certificates"), &req, userID, clientMetadata(c))
	if err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsGaugeRetired(err) {
			return errorResponse(c, fiber.StatusConflict, "Gauge is retired", "GAUGE_RETIRED", nil)
		}
		if businessflow.IsCertificateExpiryInPast(err) {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), "CERTIFICATE_EXPIRY_INVALID", nil)
		}
		if code := businessflow.ErrorCode(err); code == "VALIDATION_ERROR" {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), code, nil)
		}

		log.Println("Certificate upload failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to register certificate", "CERTIFICATE_UPLOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Certificate registered", result)
}

// Chain returns the full supersession chain for a gauge
// @Summary Certificate Chain
// @Tags Certificates
// @Produce json
// @Param id path int true "Gauge ID"
// @Success 200 {object} dto.APIResponse{data=dto.CertificateChainResponse} "Chain"
// @Router /api/v1/certificates/gauge/{id} [get]
func (h *CertificateHandler) Chain(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.certificateFlow.CertificateChain(createRequestContext(c, "/api/v1/certificates/gauge/:id"), gaugeID)
	if err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		log.Println("Certificate chain failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load chain", "CERTIFICATE_CHAIN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Chain", result)
}

// Current returns the current certificate for a gauge
// @Summary Current Certificate
// @Tags Certificates
// @Produce json
// @Param id path int true "Gauge ID"
// @Success 200 {object} dto.APIResponse{data=dto.CertificateDTO} "Certificate"
// @Failure 404 {object} dto.APIResponse "No current certificate"
// @Router /api/v1/certificates/gauge/{id}/current [get]
func (h *CertificateHandler) Current(c fiber.Ctx) error {
	gaugeID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.certificateFlow.CurrentCertificate(createRequestContext(c, "/api/v1/certificates/gauge/:id/current"), gaugeID)
	if err != nil {
		if businessflow.IsGaugeNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Gauge not found", "GAUGE_NOT_FOUND", nil)
		}
		if businessflow.IsCertificateNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "No current certificate", "CERTIFICATE_NOT_FOUND", nil)
		}
		log.Println("Current certificate failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load certificate", "CERTIFICATE_LOAD_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Certificate", result)
}

// ListExpiring returns certificates expiring within the requested window
// @Summary Expiring Certificates
// @Tags Certificates
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} dto.APIResponse{data=[]dto.CertificateDTO} "Certificates"
// @Router /api/v1/certificates/expiring [get]
func (h *CertificateHandler) ListExpiring(c fiber.Ctx) error {
	days := fiber.Query(c, "days", 30)
	if days <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "days must be positive", "INVALID_PARAMETER", days)
	}
	limit := fiber.Query(c, "limit", 100)

	result, err := h.certificateFlow.ListExpiring(createRequestContext(c, "/api/v1/certificates/expiring"),
		time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		log.Println("Expiring certificates failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list certificates", "CERTIFICATE_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Certificates", result)
}
