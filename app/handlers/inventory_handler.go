// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"
	"log"
	"time"

	"github.com/gaugetrack/gaugetrack/app/dto"
	businessflow "github.com/gaugetrack/gaugetrack/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// InventoryHandlerInterface defines the contract for inventory handlers
type InventoryHandlerInterface interface {
	Summary(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	CalibrationDue(c fiber.Ctx) error
}

// InventoryHandler handles inventory dashboard and export HTTP requests
type InventoryHandler struct {
	inventoryFlow businessflow.InventoryFlow
	validator     *validator.Validate
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryFlow businessflow.InventoryFlow) *InventoryHandler {
	return &InventoryHandler{
		inventoryFlow: inventoryFlow,
		validator:     validator.New(),
	}
}

// Summary returns cached inventory counts
// @Summary Inventory Summary
// @Tags Inventory
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.InventorySummaryResponse} "Summary"
// @Router /api/v1/inventory/summary [get]
func (h *InventoryHandler) Summary(c fiber.Ctx) error {
	result, err := h.inventoryFlow.Summary(createRequestContext(c, "/api/v1/inventory/summary"))
	if err != nil {
		log.Println("Inventory summary failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to build summary", "SUMMARY_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Summary", result)
}

// Export streams the inventory as an xlsx workbook
// @Summary Export Inventory
// @Tags Inventory
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Workbook"
// @Router /api/v1/inventory/export [get]
func (h *InventoryHandler) Export(c fiber.Ctx) error {
	var req dto.InventoryExportRequest
	if err := c.Bind().Query(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}

	workbook, err := h.inventoryFlow.ExportInventory(createRequestContext(c, "/api/v1/inventory/export"), &req)
	if err != nil {
		if code := businessflow.ErrorCode(err); code == "VALIDATION_ERROR" {
			return errorResponse(c, fiber.StatusBadRequest, err.Error(), code, nil)
		}
		log.Println("Inventory export failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to export inventory", "EXPORT_FAILED", nil)
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(workbook)
}

// CalibrationDue lists gauges whose calibration comes due within a window
// @Summary Calibration Due
// @Tags Inventory
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} dto.APIResponse{data=dto.CalibrationDueResponse} "Gauges due"
// @Router /api/v1/inventory/calibration-due [get]
func (h *InventoryHandler) CalibrationDue(c fiber.Ctx) error {
	days := fiber.Query(c, "days", 30)
	if days <= 0 {
		return errorResponse(c, fiber.StatusBadRequest, "days must be positive", "INVALID_PARAMETER", days)
	}
	limit := fiber.Query(c, "limit", 100)

	result, err := h.inventoryFlow.CalibrationDue(createRequestContext(c, "/api/v1/inventory/calibration-due"),
		time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		log.Println("Calibration due listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list due gauges", "CALIBRATION_DUE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Gauges due", result)
}
