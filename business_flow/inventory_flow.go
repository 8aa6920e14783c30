// Package businessflow contains the core business logic and use cases for gauge set lifecycle workflows
package businessflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
)

const (
	inventorySummaryCacheKey = "gaugetrack:inventory:summary"
	inventorySummaryCacheTTL = 5 * time.Minute
)

// InventoryFlow provides dashboard counts and spreadsheet exports over the
// gauge inventory. The status summary is cached in Redis since the dashboard
// polls it and exact freshness does not matter there.
type InventoryFlow interface {
	Summary(ctx context.Context) (*dto.InventorySummaryResponse, error)
	ExportInventory(ctx context.Context, req *dto.InventoryExportRequest) ([]byte, error)
	CalibrationDue(ctx context.Context, within time.Duration, limit int) (*dto.CalibrationDueResponse, error)
	InvalidateSummary(ctx context.Context) error
}

// InventoryFlowImpl implements the inventory business flow
type InventoryFlowImpl struct {
	gaugeRepo repository.GaugeRepository
	cache     *redis.Client
}

// NewInventoryFlow creates a new inventory flow instance. The cache client
// may be nil, in which case every summary call hits the database.
func NewInventoryFlow(gaugeRepo repository.GaugeRepository, cache *redis.Client) InventoryFlow {
	return &InventoryFlowImpl{
		gaugeRepo: gaugeRepo,
		cache:     cache,
	}
}

// Summary reports gauge counts per status plus derived totals
func (s *InventoryFlowImpl) Summary(ctx context.Context) (*dto.InventorySummaryResponse, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, inventorySummaryCacheKey).Bytes()
		if err == nil {
			var cached dto.InventorySummaryResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	counts, err := s.gaugeRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count gauges: %w", err)
	}

	spare := true
	spares, err := s.gaugeRepo.Count(ctx, models.GaugeFilter{IsSpare: &spare})
	if err != nil {
		return nil, fmt.Errorf("failed to count spares: %w", err)
	}
	paired, err := s.gaugeRepo.Count(ctx, models.GaugeFilter{IsSpare: utils.ToPtr(false)})
	if err != nil {
		return nil, fmt.Errorf("failed to count paired gauges: %w", err)
	}

	resp := &dto.InventorySummaryResponse{
		CountsByStatus: make(map[string]int64, len(counts)),
		SpareGauges:    spares,
		PairedSets:     paired / 2,
		CachedAt:       utils.UTCNow().Format(time.RFC3339),
	}
	for status, n := range counts {
		resp.CountsByStatus[status.String()] = n
		resp.TotalGauges += n
	}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			// Best effort; a cache failure never fails the read.
			_ = s.cache.Set(ctx, inventorySummaryCacheKey, raw, inventorySummaryCacheTTL).Err()
		}
	}

	return resp, nil
}

// InvalidateSummary drops the cached summary; called after bulk mutations
func (s *InventoryFlowImpl) InvalidateSummary(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, inventorySummaryCacheKey).Err()
}

var inventoryExportHeader = []string{
	"Serial Number", "System Gauge ID", "Equipment Type", "Thread Size",
	"Thread Class", "Thread Type", "Role", "Ownership", "Status",
	"Location", "Seal", "Calibration Due", "Companion ID",
}

// ExportInventory builds an xlsx workbook of the filtered inventory
func (s *InventoryFlowImpl) ExportInventory(ctx context.Context, req *dto.InventoryExportRequest) ([]byte, error) {
	filter := models.GaugeFilter{
		CategoryID:     req.CategoryID,
		IncludeRetired: req.IncludeRetired,
	}
	if req.Status != nil && *req.Status != "" {
		status := models.GaugeStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessErrorf("VALIDATION_ERROR", "unknown status %q", nil, *req.Status)
		}
		filter.Status = &status
	}
	if req.OwnershipType != nil && *req.OwnershipType != "" {
		ownership := models.OwnershipType(*req.OwnershipType)
		if !ownership.Valid() {
			return nil, NewBusinessErrorf("VALIDATION_ERROR", "unknown ownership type %q", nil, *req.OwnershipType)
		}
		filter.OwnershipType = &ownership
	}

	gauges, err := s.gaugeRepo.ByFilter(ctx, filter, "serial_number ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list gauges: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range inventoryExportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, g := range gauges {
		role := "NO-GO"
		if g.IsGoGauge {
			role = "GO"
		}
		systemID := utils.FromPtr(g.SystemGaugeID)
		due := ""
		if g.CalibrationDueAt != nil {
			due = g.CalibrationDueAt.Format("2006-01-02")
		}
		companion := ""
		if g.CompanionGaugeID != nil {
			companion = fmt.Sprintf("%d", *g.CompanionGaugeID)
		}

		row := []any{
			g.SerialNumber, systemID, g.EquipmentType.String(), g.ThreadSize,
			g.ThreadClass, g.ThreadType, role, g.OwnershipType.String(),
			g.Status.String(), g.StorageLocation, g.SealStatus.String(),
			due, companion,
		}
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// CalibrationDue lists gauges whose calibration falls due within the window
func (s *InventoryFlowImpl) CalibrationDue(ctx context.Context, within time.Duration, limit int) (*dto.CalibrationDueResponse, error) {
	cutoff := utils.UTCNow().Add(within)
	gauges, err := s.gaugeRepo.ListCalibrationDueBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due gauges: %w", err)
	}

	resp := &dto.CalibrationDueResponse{
		DueBefore: cutoff.Format(time.RFC3339),
		Gauges:    make([]dto.GaugeDTO, 0, len(gauges)),
	}
	for _, g := range gauges {
		resp.Gauges = append(resp.Gauges, ToGaugeDTO(*g))
	}
	return resp, nil
}
