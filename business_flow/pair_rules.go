// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/gaugetrack/gaugetrack/models"
)

// CheckCompatibility decides whether two gauges may become (or remain) a
// valid set. Checks run in a fixed order so callers always see the same
// failure for a given pair: ownership, customer presence, customer match,
// spec match, role match. Pure function, no I/O.
func CheckCompatibility(goGauge, noGoGauge *models.Gauge) error {
	if goGauge.OwnershipType != noGoGauge.OwnershipType {
		return NewBusinessErrorf("OWNERSHIP_MISMATCH",
			"cannot pair %s-owned gauge with %s-owned gauge",
			ErrOwnershipMismatch, goGauge.OwnershipType, noGoGauge.OwnershipType)
	}

	if goGauge.OwnershipType == models.OwnershipTypeCustomer {
		if goGauge.CustomerID == nil || noGoGauge.CustomerID == nil {
			return NewBusinessError("MISSING_CUSTOMER_ID",
				"customer-owned gauges must both reference a customer", ErrMissingCustomerID)
		}
		if *goGauge.CustomerID != *noGoGauge.CustomerID {
			return NewBusinessError("CUSTOMER_MISMATCH",
				"gauges belong to different customers", ErrCustomerMismatch)
		}
	}

	if goGauge.ThreadSize != noGoGauge.ThreadSize ||
		goGauge.ThreadClass != noGoGauge.ThreadClass ||
		goGauge.ThreadType != noGoGauge.ThreadType ||
		goGauge.CategoryID != noGoGauge.CategoryID {
		return NewBusinessErrorf("SPEC_MISMATCH",
			"thread spec %s-%s %s does not match %s-%s %s",
			ErrSpecMismatch,
			goGauge.ThreadSize, goGauge.ThreadClass, goGauge.ThreadType,
			noGoGauge.ThreadSize, noGoGauge.ThreadClass, noGoGauge.ThreadType)
	}

	if goGauge.IsGoGauge == noGoGauge.IsGoGauge {
		return NewBusinessError("ROLE_MISMATCH",
			"a set needs one GO and one NO-GO gauge", ErrRoleMismatch)
	}

	return nil
}

// OrientPair returns the two gauges ordered as (GO, NO-GO) regardless of the
// order the caller passed them in. Fails with ROLE_MISMATCH when both gauges
// play the same role.
func OrientPair(a, b *models.Gauge) (*models.Gauge, *models.Gauge, error) {
	if a.IsGoGauge == b.IsGoGauge {
		return nil, nil, NewBusinessError("ROLE_MISMATCH",
			"a set needs one GO and one NO-GO gauge", ErrRoleMismatch)
	}
	if a.IsGoGauge {
		return a, b, nil
	}
	return b, a, nil
}
