// Package businessflow contains the business logic for the application.
package businessflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gaugetrack/gaugetrack/models"
)

// Fields that are fixed at creation, grouped the way they appear on the entity.
// Identity: serial number, system gauge ID. Classification: equipment type,
// category. Ownership: ownership type, customer, employee owner.
// Audit: created by, created at.

// ValidateImmutableFields compares an update candidate against the stored
// gauge and rejects changes to any field fixed at creation. SystemGaugeID and
// CompanionGaugeID are managed exclusively by pairing operations and may never
// be set through a plain update either.
func ValidateImmutableFields(existing, updated *models.Gauge) error {
	if updated.SerialNumber != existing.SerialNumber {
		return NewBusinessError("IMMUTABLE_FIELD", "serial number cannot be changed", ErrImmutableFieldChanged)
	}
	if !ptrStringEqual(updated.SystemGaugeID, existing.SystemGaugeID) {
		return NewBusinessError("IMMUTABLE_FIELD", "system gauge ID is managed by pairing operations", ErrImmutableFieldChanged)
	}
	if updated.EquipmentType != existing.EquipmentType {
		return NewBusinessError("IMMUTABLE_FIELD", "equipment type cannot be changed", ErrImmutableFieldChanged)
	}
	if updated.CategoryID != existing.CategoryID {
		return NewBusinessError("IMMUTABLE_FIELD", "category cannot be changed", ErrImmutableFieldChanged)
	}
	if updated.OwnershipType != existing.OwnershipType {
		return NewBusinessError("IMMUTABLE_FIELD", "ownership type cannot be changed", ErrImmutableFieldChanged)
	}
	if !ptrUintEqual(updated.CustomerID, existing.CustomerID) {
		return NewBusinessError("IMMUTABLE_FIELD", "customer cannot be changed", ErrImmutableFieldChanged)
	}
	if !ptrUintEqual(updated.EmployeeOwnerID, existing.EmployeeOwnerID) {
		return NewBusinessError("IMMUTABLE_FIELD", "employee owner cannot be changed", ErrImmutableFieldChanged)
	}
	if updated.CreatedBy != existing.CreatedBy {
		return NewBusinessError("IMMUTABLE_FIELD", "creator cannot be changed", ErrImmutableFieldChanged)
	}
	if !updated.CreatedAt.IsZero() && !updated.CreatedAt.Equal(existing.CreatedAt) {
		return NewBusinessError("IMMUTABLE_FIELD", "creation time cannot be changed", ErrImmutableFieldChanged)
	}
	return nil
}

// ValidateNewGauge checks single-gauge field rules for a gauge about to be created
func ValidateNewGauge(gauge *models.Gauge) error {
	if strings.TrimSpace(gauge.SerialNumber) == "" {
		return NewBusinessError("VALIDATION_ERROR", "serial number is required", nil)
	}
	if !gauge.EquipmentType.Valid() {
		return NewBusinessErrorf("VALIDATION_ERROR", "unknown equipment type %q", ErrInvalidEquipmentType, gauge.EquipmentType)
	}
	if !gauge.OwnershipType.Valid() {
		return NewBusinessErrorf("VALIDATION_ERROR", "unknown ownership type %q", ErrInvalidOwnershipType, gauge.OwnershipType)
	}
	if gauge.OwnershipType == models.OwnershipTypeCustomer && gauge.CustomerID == nil {
		return NewBusinessError("MISSING_CUSTOMER_ID", "customer-owned gauge requires a customer", ErrMissingCustomerID)
	}
	if gauge.CategoryID == 0 {
		return NewBusinessError("VALIDATION_ERROR", "category is required", nil)
	}
	if gauge.EquipmentType == models.EquipmentTypeThreadGauge {
		normalized, err := NormalizeThreadSize(gauge.ThreadSize)
		if err != nil {
			return err
		}
		gauge.ThreadSize = normalized
	}
	return nil
}

// NormalizeThreadSize converts a thread size to its canonical decimal string
// with three decimal places. Accepted forms: a plain decimal ("0.5", ".500"),
// a fraction ("1/2"), or a mixed number ("1-1/4"). The canonical form for 1/2
// is "0.500".
func NormalizeThreadSize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", NewBusinessError("INVALID_THREAD_FORMAT", "thread size is empty", ErrInvalidThreadFormat)
	}

	whole := 0.0
	frac := s

	// Mixed number: whole part separated from the fraction by a dash.
	if dash := strings.Index(s, "-"); dash > 0 && strings.Contains(s[dash+1:], "/") {
		w, err := strconv.ParseFloat(s[:dash], 64)
		if err != nil {
			return "", NewBusinessErrorf("INVALID_THREAD_FORMAT", "cannot parse thread size %q", ErrInvalidThreadFormat, raw)
		}
		whole = w
		frac = s[dash+1:]
	}

	var value float64
	if num, den, found := strings.Cut(frac, "/"); found {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN != nil || errD != nil || d == 0 {
			return "", NewBusinessErrorf("INVALID_THREAD_FORMAT", "cannot parse thread size %q", ErrInvalidThreadFormat, raw)
		}
		value = whole + n/d
	} else {
		v, err := strconv.ParseFloat(frac, 64)
		if err != nil {
			return "", NewBusinessErrorf("INVALID_THREAD_FORMAT", "cannot parse thread size %q", ErrInvalidThreadFormat, raw)
		}
		value = whole + v
	}

	if value <= 0 {
		return "", NewBusinessErrorf("INVALID_THREAD_FORMAT", "thread size %q must be positive", ErrInvalidThreadFormat, raw)
	}

	return fmt.Sprintf("%.3f", value), nil
}

func ptrStringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ptrUintEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
