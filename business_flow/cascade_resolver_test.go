package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
)

// ComputeSetStatus, ComputeSealStatus and the checkout checks are pure; no
// repository is needed to exercise them.
func pureResolver(policy CascadePolicy) CascadeResolver {
	return NewCascadeResolver(nil, policy)
}

func TestComputeSetStatus(t *testing.T) {
	r := pureResolver(DefaultCascadePolicy())

	tests := []struct {
		name   string
		goSt   models.GaugeStatus
		noGoSt models.GaugeStatus
		want   models.GaugeStatus
	}{
		{"both available", models.GaugeStatusAvailable, models.GaugeStatusAvailable, models.GaugeStatusAvailable},
		{"retired wins over everything", models.GaugeStatusRetired, models.GaugeStatusAvailable, models.GaugeStatusRetired},
		{"out of service beats pending qc", models.GaugeStatusOutOfService, models.GaugeStatusPendingQC, models.GaugeStatusOutOfService},
		{"pending qc beats out for calibration", models.GaugeStatusPendingQC, models.GaugeStatusOutForCalibration, models.GaugeStatusPendingQC},
		{"out for calibration beats pending certificate", models.GaugeStatusPendingCertificate, models.GaugeStatusOutForCalibration, models.GaugeStatusOutForCalibration},
		{"pending certificate beats pending release", models.GaugeStatusPendingRelease, models.GaugeStatusPendingCertificate, models.GaugeStatusPendingCertificate},
		{"pending release beats pending unseal", models.GaugeStatusPendingUnseal, models.GaugeStatusPendingRelease, models.GaugeStatusPendingRelease},
		{"pending unseal beats returned", models.GaugeStatusReturned, models.GaugeStatusPendingUnseal, models.GaugeStatusPendingUnseal},
		{"returned beats checked out", models.GaugeStatusCheckedOut, models.GaugeStatusReturned, models.GaugeStatusReturned},
		{"checked out beats available", models.GaugeStatusAvailable, models.GaugeStatusCheckedOut, models.GaugeStatusCheckedOut},
		{"order of members does not matter", models.GaugeStatusRetired, models.GaugeStatusCheckedOut, models.GaugeStatusRetired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goGauge := &models.Gauge{Status: tt.goSt}
			noGoGauge := &models.Gauge{Status: tt.noGoSt}
			assert.Equal(t, tt.want, r.ComputeSetStatus(goGauge, noGoGauge))
			assert.Equal(t, tt.want, r.ComputeSetStatus(noGoGauge, goGauge))
		})
	}

	t.Run("unknown statuses fall back to out of service", func(t *testing.T) {
		goGauge := &models.Gauge{Status: models.GaugeStatus("mystery")}
		noGoGauge := &models.Gauge{Status: models.GaugeStatus("enigma")}
		assert.Equal(t, models.GaugeStatusOutOfService, r.ComputeSetStatus(goGauge, noGoGauge))
	})
}

func TestComputeSealStatus(t *testing.T) {
	r := pureResolver(DefaultCascadePolicy())

	sealed := &models.Gauge{SealStatus: models.SealStatusSealed}
	unsealed := &models.Gauge{SealStatus: models.SealStatusUnsealed}

	assert.Equal(t, models.SealStatusUnsealed, r.ComputeSealStatus(unsealed, unsealed))
	assert.Equal(t, models.SealStatusSealed, r.ComputeSealStatus(sealed, unsealed))
	assert.Equal(t, models.SealStatusSealed, r.ComputeSealStatus(unsealed, sealed))
	assert.Equal(t, models.SealStatusSealed, r.ComputeSealStatus(sealed, sealed))
}

func checkoutReady() *models.Gauge {
	return &models.Gauge{
		SerialNumber: "SN-1001",
		Status:       models.GaugeStatusAvailable,
		SealStatus:   models.SealStatusUnsealed,
	}
}

func TestCanCheckoutGauge(t *testing.T) {
	r := pureResolver(DefaultCascadePolicy())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("available unsealed gauge passes", func(t *testing.T) {
		require.NoError(t, r.CanCheckoutGauge(checkoutReady(), now))
	})

	tests := []struct {
		name string
		fn   func(g *models.Gauge)
		code string
	}{
		{"retired", func(g *models.Gauge) { g.Status = models.GaugeStatusRetired }, "GAUGE_RETIRED"},
		{"retired at set", func(g *models.Gauge) { g.RetiredAt = utils.ToPtr(now) }, "GAUGE_RETIRED"},
		{"fixed location", func(g *models.Gauge) { g.IsFixedLocation = true }, "FIXED_LOCATION"},
		{"already checked out", func(g *models.Gauge) { g.Status = models.GaugeStatusCheckedOut }, "CHECKED_OUT"},
		{"sealed", func(g *models.Gauge) { g.SealStatus = models.SealStatusSealed }, "GAUGE_SEALED"},
		{"pending unseal", func(g *models.Gauge) { g.Status = models.GaugeStatusPendingUnseal }, "GAUGE_SEALED"},
		{"calibration overdue", func(g *models.Gauge) { g.CalibrationDueAt = utils.ToPtr(now.Add(-time.Hour)) }, "CALIBRATION_OVERDUE"},
		{"pending qc", func(g *models.Gauge) { g.Status = models.GaugeStatusPendingQC }, "GAUGE_PENDING_QC"},
		{"out of service", func(g *models.Gauge) { g.Status = models.GaugeStatusOutOfService }, "GAUGE_NOT_AVAILABLE"},
		{"out for calibration", func(g *models.Gauge) { g.Status = models.GaugeStatusOutForCalibration }, "GAUGE_NOT_AVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := checkoutReady()
			tt.fn(g)
			err := r.CanCheckoutGauge(g, now)
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}

	// Precedence: a retired, sealed, overdue gauge reports retirement first,
	// and a sealed overdue gauge reports the seal first.
	t.Run("retired reported first", func(t *testing.T) {
		g := checkoutReady()
		g.Status = models.GaugeStatusRetired
		g.SealStatus = models.SealStatusSealed
		g.CalibrationDueAt = utils.ToPtr(now.Add(-time.Hour))
		err := r.CanCheckoutGauge(g, now)
		require.Error(t, err)
		assert.True(t, IsGaugeRetired(err))
	})

	t.Run("seal reported before overdue calibration", func(t *testing.T) {
		g := checkoutReady()
		g.SealStatus = models.SealStatusSealed
		g.CalibrationDueAt = utils.ToPtr(now.Add(-time.Hour))
		err := r.CanCheckoutGauge(g, now)
		require.Error(t, err)
		assert.True(t, IsGaugeSealed(err))
	})

	t.Run("future calibration due date passes", func(t *testing.T) {
		g := checkoutReady()
		g.CalibrationDueAt = utils.ToPtr(now.Add(30 * 24 * time.Hour))
		require.NoError(t, r.CanCheckoutGauge(g, now))
	})
}

func TestCanCheckoutSet(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("both members eligible", func(t *testing.T) {
		r := pureResolver(DefaultCascadePolicy())
		require.NoError(t, r.CanCheckoutSet(checkoutReady(), checkoutReady(), now))
	})

	t.Run("pending qc member blocks the set by default", func(t *testing.T) {
		r := pureResolver(DefaultCascadePolicy())
		goGauge := checkoutReady()
		noGoGauge := checkoutReady()
		noGoGauge.Status = models.GaugeStatusPendingQC
		err := r.CanCheckoutSet(goGauge, noGoGauge, now)
		require.Error(t, err)
		assert.True(t, IsGaugePendingQC(err))
	})

	t.Run("pending qc member is skipped when block is off", func(t *testing.T) {
		r := pureResolver(CascadePolicy{CascadeStatusChanges: false, BlockSetOnPendingQC: false})
		goGauge := checkoutReady()
		noGoGauge := checkoutReady()
		noGoGauge.Status = models.GaugeStatusPendingQC
		require.NoError(t, r.CanCheckoutSet(goGauge, noGoGauge, now))

		// The skipped member is not itself eligible.
		eligible, err := r.CheckoutEligibleMembers(goGauge, noGoGauge, now)
		require.NoError(t, err)
		require.Len(t, eligible, 1)
		assert.Same(t, goGauge, eligible[0])
	})

	t.Run("both members pending qc fails even with block off", func(t *testing.T) {
		r := pureResolver(CascadePolicy{CascadeStatusChanges: false, BlockSetOnPendingQC: false})
		goGauge := checkoutReady()
		goGauge.Status = models.GaugeStatusPendingQC
		noGoGauge := checkoutReady()
		noGoGauge.Status = models.GaugeStatusPendingQC
		err := r.CanCheckoutSet(goGauge, noGoGauge, now)
		require.Error(t, err)
		assert.True(t, IsGaugePendingQC(err))

		eligible, err := r.CheckoutEligibleMembers(goGauge, noGoGauge, now)
		require.Error(t, err)
		assert.Empty(t, eligible)
	})

	t.Run("other failures still block with pending qc relaxed", func(t *testing.T) {
		r := pureResolver(CascadePolicy{BlockSetOnPendingQC: false})
		goGauge := checkoutReady()
		goGauge.SealStatus = models.SealStatusSealed
		noGoGauge := checkoutReady()
		noGoGauge.Status = models.GaugeStatusPendingQC
		err := r.CanCheckoutSet(goGauge, noGoGauge, now)
		require.Error(t, err)
		assert.True(t, IsGaugeSealed(err))
	})

	t.Run("sealed companion blocks the set", func(t *testing.T) {
		r := pureResolver(DefaultCascadePolicy())
		goGauge := checkoutReady()
		noGoGauge := checkoutReady()
		noGoGauge.SealStatus = models.SealStatusSealed
		err := r.CanCheckoutSet(goGauge, noGoGauge, now)
		require.Error(t, err)
		assert.True(t, IsGaugeSealed(err))
	})
}

func TestDefaultCascadePolicy(t *testing.T) {
	p := DefaultCascadePolicy()
	assert.False(t, p.CascadeStatusChanges)
	assert.True(t, p.BlockSetOnPendingQC)
}
