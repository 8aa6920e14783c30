package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    GaugeStatus
		to      GaugeStatus
		allowed bool
	}{
		{"available to checked out", GaugeStatusAvailable, GaugeStatusCheckedOut, true},
		{"available to out of service", GaugeStatusAvailable, GaugeStatusOutOfService, true},
		{"available to out for calibration", GaugeStatusAvailable, GaugeStatusOutForCalibration, true},
		{"available to retired", GaugeStatusAvailable, GaugeStatusRetired, true},
		{"available to pending qc", GaugeStatusAvailable, GaugeStatusPendingQC, false},
		{"available to returned", GaugeStatusAvailable, GaugeStatusReturned, false},
		{"checked out to returned", GaugeStatusCheckedOut, GaugeStatusReturned, true},
		{"checked out to out of service", GaugeStatusCheckedOut, GaugeStatusOutOfService, true},
		{"checked out to available", GaugeStatusCheckedOut, GaugeStatusAvailable, false},
		{"checked out to retired", GaugeStatusCheckedOut, GaugeStatusRetired, false},
		{"returned to pending qc", GaugeStatusReturned, GaugeStatusPendingQC, true},
		{"returned to available", GaugeStatusReturned, GaugeStatusAvailable, true},
		{"returned to checked out", GaugeStatusReturned, GaugeStatusCheckedOut, false},
		{"pending qc to available", GaugeStatusPendingQC, GaugeStatusAvailable, true},
		{"pending qc to out of service", GaugeStatusPendingQC, GaugeStatusOutOfService, true},
		{"pending qc to out for calibration", GaugeStatusPendingQC, GaugeStatusOutForCalibration, true},
		{"pending qc to checked out", GaugeStatusPendingQC, GaugeStatusCheckedOut, false},
		{"out of service to available", GaugeStatusOutOfService, GaugeStatusAvailable, true},
		{"out of service to out for calibration", GaugeStatusOutOfService, GaugeStatusOutForCalibration, true},
		{"out of service to retired", GaugeStatusOutOfService, GaugeStatusRetired, true},
		{"out of service to checked out", GaugeStatusOutOfService, GaugeStatusCheckedOut, false},
		{"pending unseal to available", GaugeStatusPendingUnseal, GaugeStatusAvailable, true},
		{"pending unseal to out of service", GaugeStatusPendingUnseal, GaugeStatusOutOfService, true},
		{"pending unseal to checked out", GaugeStatusPendingUnseal, GaugeStatusCheckedOut, false},
		{"out for calibration to pending certificate", GaugeStatusOutForCalibration, GaugeStatusPendingCertificate, true},
		{"out for calibration to out of service", GaugeStatusOutForCalibration, GaugeStatusOutOfService, true},
		{"out for calibration to available", GaugeStatusOutForCalibration, GaugeStatusAvailable, false},
		{"pending certificate to pending release", GaugeStatusPendingCertificate, GaugeStatusPendingRelease, true},
		{"pending certificate to out of service", GaugeStatusPendingCertificate, GaugeStatusOutOfService, true},
		{"pending certificate to available", GaugeStatusPendingCertificate, GaugeStatusAvailable, false},
		{"pending release to available", GaugeStatusPendingRelease, GaugeStatusAvailable, true},
		{"pending release to pending unseal", GaugeStatusPendingRelease, GaugeStatusPendingUnseal, true},
		{"pending release to checked out", GaugeStatusPendingRelease, GaugeStatusCheckedOut, false},
		{"retired is terminal", GaugeStatusRetired, GaugeStatusAvailable, false},
		{"retired to out of service", GaugeStatusRetired, GaugeStatusOutOfService, false},
		{"same status is not a transition", GaugeStatusAvailable, GaugeStatusAvailable, false},
		{"unknown source status", GaugeStatus("bogus"), GaugeStatusAvailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestGaugeStatusValid(t *testing.T) {
	for _, s := range []GaugeStatus{
		GaugeStatusAvailable, GaugeStatusCheckedOut, GaugeStatusPendingQC,
		GaugeStatusOutOfService, GaugeStatusPendingUnseal, GaugeStatusOutForCalibration,
		GaugeStatusPendingCertificate, GaugeStatusPendingRelease,
		GaugeStatusReturned, GaugeStatusRetired,
	} {
		assert.True(t, s.Valid(), "status %s should be valid", s)
	}
	assert.False(t, GaugeStatus("").Valid())
	assert.False(t, GaugeStatus("broken").Valid())
}

func TestGaugeHelpers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("IsSpare", func(t *testing.T) {
		spare := &Gauge{}
		assert.True(t, spare.IsSpare())

		companionID := uint(7)
		paired := &Gauge{CompanionGaugeID: &companionID}
		assert.False(t, paired.IsSpare())
	})

	t.Run("IsRetired", func(t *testing.T) {
		assert.True(t, (&Gauge{Status: GaugeStatusRetired}).IsRetired())

		retiredAt := now
		assert.True(t, (&Gauge{Status: GaugeStatusAvailable, RetiredAt: &retiredAt}).IsRetired())
		assert.False(t, (&Gauge{Status: GaugeStatusAvailable}).IsRetired())
	})

	t.Run("IsSealed", func(t *testing.T) {
		assert.True(t, (&Gauge{SealStatus: SealStatusSealed}).IsSealed())
		assert.False(t, (&Gauge{SealStatus: SealStatusUnsealed}).IsSealed())
	})

	t.Run("IsCalibrationOverdue", func(t *testing.T) {
		assert.False(t, (&Gauge{}).IsCalibrationOverdue(now), "no due date means never overdue")

		past := now.Add(-24 * time.Hour)
		assert.True(t, (&Gauge{CalibrationDueAt: &past}).IsCalibrationOverdue(now))

		future := now.Add(24 * time.Hour)
		assert.False(t, (&Gauge{CalibrationDueAt: &future}).IsCalibrationOverdue(now))

		exact := now
		assert.False(t, (&Gauge{CalibrationDueAt: &exact}).IsCalibrationOverdue(now), "due exactly now is not yet overdue")
	})

	t.Run("RoleSuffix", func(t *testing.T) {
		assert.Equal(t, SystemGaugeIDSuffixGo, (&Gauge{IsGoGauge: true}).RoleSuffix())
		assert.Equal(t, SystemGaugeIDSuffixNoGo, (&Gauge{IsGoGauge: false}).RoleSuffix())
	})
}

func TestBaseIDFromSystemGaugeID(t *testing.T) {
	goID := "SP1001A"
	noGoID := "SP1001B"
	plain := "SP1001"

	assert.Equal(t, "SP1001", BaseIDFromSystemGaugeID(&goID))
	assert.Equal(t, "SP1001", BaseIDFromSystemGaugeID(&noGoID))
	assert.Equal(t, "SP1001", BaseIDFromSystemGaugeID(&plain))
	assert.Equal(t, "", BaseIDFromSystemGaugeID(nil), "spares have no base ID")
}

func TestGaugeStatusScanValue(t *testing.T) {
	var s GaugeStatus
	require.NoError(t, s.Scan("available"))
	assert.Equal(t, GaugeStatusAvailable, s)

	require.NoError(t, s.Scan([]byte("pending_qc")))
	assert.Equal(t, GaugeStatusPendingQC, s)

	assert.Error(t, s.Scan(42), "non-string values cannot be scanned")

	v, err := GaugeStatusCheckedOut.Value()
	require.NoError(t, err)
	assert.Equal(t, "checked_out", v)

	_, err = GaugeStatus("junk").Value()
	assert.Error(t, err)
}
