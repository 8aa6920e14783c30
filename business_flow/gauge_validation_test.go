package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
)

func TestNormalizeThreadSize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple fraction", "1/2", "0.500"},
		{"quarter", "1/4", "0.250"},
		{"sixteenth", "3/16", "0.188"},
		{"mixed number", "1-1/4", "1.250"},
		{"mixed number halves", "2-1/2", "2.500"},
		{"plain decimal", "0.5", "0.500"},
		{"decimal without leading zero", ".500", "0.500"},
		{"already canonical", "0.500", "0.500"},
		{"whole number", "1", "1.000"},
		{"surrounding whitespace", "  1/2  ", "0.500"},
		{"fraction with inner spaces", "1 / 2", "0.500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeThreadSize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeThreadSizeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"garbage", "half an inch"},
		{"zero", "0"},
		{"zero fraction", "0/2"},
		{"division by zero", "1/0"},
		{"negative", "-0.5"},
		{"bad mixed whole part", "x-1/2"},
		{"bad numerator", "a/2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeThreadSize(tt.input)
			require.Error(t, err)
			assert.True(t, IsInvalidThreadFormat(err))
			assert.Equal(t, "INVALID_THREAD_FORMAT", ErrorCode(err))
		})
	}
}

func validGauge() *models.Gauge {
	return &models.Gauge{
		SerialNumber:  "SN-1001",
		EquipmentType: models.EquipmentTypeThreadGauge,
		OwnershipType: models.OwnershipTypeCompany,
		CategoryID:    3,
		ThreadSize:    "1/2",
		ThreadClass:   "2B",
		ThreadType:    "UNC",
		IsGoGauge:     true,
		CreatedBy:     5,
	}
}

func TestValidateNewGauge(t *testing.T) {
	t.Run("valid gauge normalizes thread size in place", func(t *testing.T) {
		g := validGauge()
		require.NoError(t, ValidateNewGauge(g))
		assert.Equal(t, "0.500", g.ThreadSize)
	})

	t.Run("missing serial number", func(t *testing.T) {
		g := validGauge()
		g.SerialNumber = "  "
		err := ValidateNewGauge(g)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))
	})

	t.Run("unknown equipment type", func(t *testing.T) {
		g := validGauge()
		g.EquipmentType = models.EquipmentType("widget")
		err := ValidateNewGauge(g)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))
	})

	t.Run("unknown ownership type", func(t *testing.T) {
		g := validGauge()
		g.OwnershipType = models.OwnershipType("borrowed")
		err := ValidateNewGauge(g)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))
	})

	t.Run("customer owned without customer", func(t *testing.T) {
		g := validGauge()
		g.OwnershipType = models.OwnershipTypeCustomer
		g.CustomerID = nil
		err := ValidateNewGauge(g)
		require.Error(t, err)
		assert.True(t, IsMissingCustomerID(err))
		assert.Equal(t, "MISSING_CUSTOMER_ID", ErrorCode(err))
	})

	t.Run("customer owned with customer passes", func(t *testing.T) {
		g := validGauge()
		g.OwnershipType = models.OwnershipTypeCustomer
		g.CustomerID = utils.ToPtr(uint(9))
		require.NoError(t, ValidateNewGauge(g))
	})

	t.Run("missing category", func(t *testing.T) {
		g := validGauge()
		g.CategoryID = 0
		err := ValidateNewGauge(g)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))
	})

	t.Run("bad thread size on thread gauge", func(t *testing.T) {
		g := validGauge()
		g.ThreadSize = "fat"
		err := ValidateNewGauge(g)
		require.Error(t, err)
		assert.True(t, IsInvalidThreadFormat(err))
	})

	t.Run("thread size not checked for large equipment", func(t *testing.T) {
		g := validGauge()
		g.EquipmentType = models.EquipmentTypeLargeEquipment
		g.ThreadSize = ""
		require.NoError(t, ValidateNewGauge(g))
	})
}

func TestValidateImmutableFields(t *testing.T) {
	base := func() *models.Gauge {
		g := validGauge()
		g.ID = 42
		g.SystemGaugeID = utils.ToPtr("SP1001A")
		g.CreatedAt = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
		return g
	}

	t.Run("identical gauges pass", func(t *testing.T) {
		require.NoError(t, ValidateImmutableFields(base(), base()))
	})

	t.Run("mutable fields may change", func(t *testing.T) {
		updated := base()
		updated.StorageLocation = "Cabinet B7"
		updated.ThreadClass = "3B"
		updated.Status = models.GaugeStatusOutOfService
		require.NoError(t, ValidateImmutableFields(base(), updated))
	})

	t.Run("zero created at is ignored", func(t *testing.T) {
		updated := base()
		updated.CreatedAt = time.Time{}
		require.NoError(t, ValidateImmutableFields(base(), updated))
	})

	mutate := []struct {
		name string
		fn   func(g *models.Gauge)
	}{
		{"serial number", func(g *models.Gauge) { g.SerialNumber = "SN-9999" }},
		{"system gauge ID", func(g *models.Gauge) { g.SystemGaugeID = utils.ToPtr("SP2000A") }},
		{"system gauge ID cleared", func(g *models.Gauge) { g.SystemGaugeID = nil }},
		{"equipment type", func(g *models.Gauge) { g.EquipmentType = models.EquipmentTypeHandTool }},
		{"category", func(g *models.Gauge) { g.CategoryID = 99 }},
		{"ownership type", func(g *models.Gauge) { g.OwnershipType = models.OwnershipTypeEmployee }},
		{"customer", func(g *models.Gauge) { g.CustomerID = utils.ToPtr(uint(8)) }},
		{"employee owner", func(g *models.Gauge) { g.EmployeeOwnerID = utils.ToPtr(uint(4)) }},
		{"creator", func(g *models.Gauge) { g.CreatedBy = 77 }},
		{"creation time", func(g *models.Gauge) { g.CreatedAt = g.CreatedAt.Add(time.Hour) }},
	}

	for _, tt := range mutate {
		t.Run(tt.name+" is immutable", func(t *testing.T) {
			updated := base()
			tt.fn(updated)
			err := ValidateImmutableFields(base(), updated)
			require.Error(t, err)
			assert.True(t, IsImmutableFieldChanged(err))
			assert.Equal(t, "IMMUTABLE_FIELD", ErrorCode(err))
		})
	}
}
