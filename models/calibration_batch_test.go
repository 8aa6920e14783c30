package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrationBatchStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    CalibrationBatchStatus
		to      CalibrationBatchStatus
		allowed bool
	}{
		{"created to in preparation", CalibrationBatchStatusCreated, CalibrationBatchStatusInPreparation, true},
		{"created to sent", CalibrationBatchStatusCreated, CalibrationBatchStatusSent, true},
		{"created to cancelled", CalibrationBatchStatusCreated, CalibrationBatchStatusCancelled, true},
		{"created to closed", CalibrationBatchStatusCreated, CalibrationBatchStatusClosed, false},
		{"in preparation to sent", CalibrationBatchStatusInPreparation, CalibrationBatchStatusSent, true},
		{"in preparation to cancelled", CalibrationBatchStatusInPreparation, CalibrationBatchStatusCancelled, true},
		{"in preparation back to created", CalibrationBatchStatusInPreparation, CalibrationBatchStatusCreated, false},
		{"sent to partially received", CalibrationBatchStatusSent, CalibrationBatchStatusPartiallyReceived, true},
		{"sent to closed", CalibrationBatchStatusSent, CalibrationBatchStatusClosed, true},
		{"sent to cancelled", CalibrationBatchStatusSent, CalibrationBatchStatusCancelled, false},
		{"partially received to closed", CalibrationBatchStatusPartiallyReceived, CalibrationBatchStatusClosed, true},
		{"partially received to cancelled", CalibrationBatchStatusPartiallyReceived, CalibrationBatchStatusCancelled, false},
		{"closed is terminal", CalibrationBatchStatusClosed, CalibrationBatchStatusSent, false},
		{"cancelled is terminal", CalibrationBatchStatusCancelled, CalibrationBatchStatusCreated, false},
		{"same status is not a transition", CalibrationBatchStatusSent, CalibrationBatchStatusSent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCalibrationBatchStatusIsOpen(t *testing.T) {
	assert.True(t, CalibrationBatchStatusCreated.IsOpen())
	assert.True(t, CalibrationBatchStatusInPreparation.IsOpen())
	assert.False(t, CalibrationBatchStatusSent.IsOpen())
	assert.False(t, CalibrationBatchStatusPartiallyReceived.IsOpen())
	assert.False(t, CalibrationBatchStatusClosed.IsOpen())
	assert.False(t, CalibrationBatchStatusCancelled.IsOpen())
}
