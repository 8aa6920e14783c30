// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
)

// CascadePolicy controls which single-gauge changes propagate to the
// companion. Location always cascades; status cascade and the set-level
// pending QC checkout block are configurable.
type CascadePolicy struct {
	// CascadeStatusChanges propagates out-of-service and return-to-service
	// transitions to the companion when true. Off by default: a gauge can be
	// pulled from service without sidelining its companion.
	CascadeStatusChanges bool

	// BlockSetOnPendingQC blocks checkout of the whole set when either
	// member is pending QC. On by default.
	BlockSetOnPendingQC bool
}

// DefaultCascadePolicy returns the production defaults
func DefaultCascadePolicy() CascadePolicy {
	return CascadePolicy{
		CascadeStatusChanges: false,
		BlockSetOnPendingQC:  true,
	}
}

// CascadeResolver computes derived set-level state and propagates changes
// between companions
type CascadeResolver interface {
	ComputeSetStatus(goGauge, noGoGauge *models.Gauge) models.GaugeStatus
	ComputeSealStatus(goGauge, noGoGauge *models.Gauge) models.SealStatus
	CascadeLocationChange(ctx context.Context, gaugeID uint, newLocation string) error
	CascadeOutOfService(ctx context.Context, gaugeID uint) error
	CascadeReturnToService(ctx context.Context, gaugeID uint) error
	CanCheckoutGauge(gauge *models.Gauge, now time.Time) error
	CanCheckoutSet(goGauge, noGoGauge *models.Gauge, now time.Time) error
	CheckoutEligibleMembers(goGauge, noGoGauge *models.Gauge, now time.Time) ([]*models.Gauge, error)
}

// CascadeResolverImpl implements CascadeResolver
type CascadeResolverImpl struct {
	gaugeRepo repository.GaugeRepository
	policy    CascadePolicy
}

// NewCascadeResolver creates a new cascade resolver
func NewCascadeResolver(gaugeRepo repository.GaugeRepository, policy CascadePolicy) CascadeResolver {
	return &CascadeResolverImpl{
		gaugeRepo: gaugeRepo,
		policy:    policy,
	}
}

// setStatusPriority orders gauge statuses from most to least restrictive.
// The set takes on the highest-priority status among its two members, so a
// set is available only when both members are.
var setStatusPriority = []models.GaugeStatus{
	models.GaugeStatusRetired,
	models.GaugeStatusOutOfService,
	models.GaugeStatusPendingQC,
	models.GaugeStatusOutForCalibration,
	models.GaugeStatusPendingCertificate,
	models.GaugeStatusPendingRelease,
	models.GaugeStatusPendingUnseal,
	models.GaugeStatusReturned,
	models.GaugeStatusCheckedOut,
	models.GaugeStatusAvailable,
}

// ComputeSetStatus resolves the derived set status from the two member
// statuses using the priority table above
func (r *CascadeResolverImpl) ComputeSetStatus(goGauge, noGoGauge *models.Gauge) models.GaugeStatus {
	for _, status := range setStatusPriority {
		if goGauge.Status == status || noGoGauge.Status == status {
			return status
		}
	}
	// Unknown statuses never reach here through normal writes; treat as OOS
	// so an undefined combination is never reported available.
	return models.GaugeStatusOutOfService
}

// ComputeSealStatus reports the set as sealed if either member is sealed
func (r *CascadeResolverImpl) ComputeSealStatus(goGauge, noGoGauge *models.Gauge) models.SealStatus {
	if goGauge.IsSealed() || noGoGauge.IsSealed() {
		return models.SealStatusSealed
	}
	return models.SealStatusUnsealed
}

// CascadeLocationChange moves a gauge and, when paired, its companion to the
// new location. Both writes run in the caller's transaction.
func (r *CascadeResolverImpl) CascadeLocationChange(ctx context.Context, gaugeID uint, newLocation string) error {
	if newLocation == "" {
		return NewBusinessError("LOCATION_REQUIRED", "location is required", ErrLocationRequired)
	}

	gauge, err := r.gaugeRepo.ByID(ctx, gaugeID)
	if err != nil {
		return fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
	}

	if err := r.gaugeRepo.UpdateLocation(ctx, gauge.ID, newLocation); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}

	if gauge.CompanionGaugeID != nil {
		if err := r.gaugeRepo.UpdateLocation(ctx, *gauge.CompanionGaugeID, newLocation); err != nil {
			return fmt.Errorf("failed to update companion location: %w", err)
		}
	}

	return nil
}

// CascadeOutOfService marks a gauge out of service. The companion follows
// only when the status cascade policy is enabled.
func (r *CascadeResolverImpl) CascadeOutOfService(ctx context.Context, gaugeID uint) error {
	return r.cascadeStatus(ctx, gaugeID, models.GaugeStatusOutOfService)
}

// CascadeReturnToService returns a gauge to available. The companion follows
// only when the status cascade policy is enabled.
func (r *CascadeResolverImpl) CascadeReturnToService(ctx context.Context, gaugeID uint) error {
	return r.cascadeStatus(ctx, gaugeID, models.GaugeStatusAvailable)
}

func (r *CascadeResolverImpl) cascadeStatus(ctx context.Context, gaugeID uint, target models.GaugeStatus) error {
	gauge, err := r.gaugeRepo.ByID(ctx, gaugeID)
	if err != nil {
		return fmt.Errorf("failed to load gauge: %w", err)
	}
	if gauge == nil {
		return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, gaugeID)
	}

	if !gauge.Status.CanTransitionTo(target) {
		return NewBusinessErrorf("INVALID_STATE", "gauge %s cannot move from %s to %s",
			ErrGaugeNotAvailable, gauge.SerialNumber, gauge.Status, target)
	}

	if err := r.gaugeRepo.UpdateStatus(ctx, gauge.ID, target); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if !r.policy.CascadeStatusChanges || gauge.CompanionGaugeID == nil {
		return nil
	}

	companion, err := r.gaugeRepo.ByID(ctx, *gauge.CompanionGaugeID)
	if err != nil {
		return fmt.Errorf("failed to load companion: %w", err)
	}
	if companion == nil {
		return NewBusinessErrorf("COMPANION_NOT_FOUND", "companion of gauge %d not found", ErrCompanionNotFound, gaugeID)
	}

	// The companion follows only when its own state machine allows it; a
	// checked out companion stays checked out until returned.
	if companion.Status.CanTransitionTo(target) {
		if err := r.gaugeRepo.UpdateStatus(ctx, companion.ID, target); err != nil {
			return fmt.Errorf("failed to update companion status: %w", err)
		}
	}

	return nil
}

// CanCheckoutGauge checks single-gauge checkout eligibility
func (r *CascadeResolverImpl) CanCheckoutGauge(gauge *models.Gauge, now time.Time) error {
	if gauge.IsRetired() {
		return NewBusinessErrorf("GAUGE_RETIRED", "gauge %s is retired", ErrGaugeRetired, gauge.SerialNumber)
	}
	if gauge.IsFixedLocation {
		return NewBusinessErrorf("FIXED_LOCATION", "gauge %s is fixed-location equipment", ErrFixedLocation, gauge.SerialNumber)
	}
	if gauge.Status == models.GaugeStatusCheckedOut {
		return NewBusinessErrorf("CHECKED_OUT", "gauge %s is already checked out", ErrGaugeCheckedOut, gauge.SerialNumber)
	}
	if gauge.Status == models.GaugeStatusPendingUnseal || gauge.IsSealed() {
		return NewBusinessErrorf("GAUGE_SEALED", "gauge %s is sealed", ErrGaugeSealed, gauge.SerialNumber)
	}
	if gauge.IsCalibrationOverdue(now) {
		return NewBusinessErrorf("CALIBRATION_OVERDUE", "gauge %s calibration is overdue", ErrCalibrationOverdue, gauge.SerialNumber)
	}
	if gauge.Status == models.GaugeStatusPendingQC {
		return NewBusinessErrorf("GAUGE_PENDING_QC", "gauge %s is pending QC", ErrGaugePendingQC, gauge.SerialNumber)
	}
	if gauge.Status != models.GaugeStatusAvailable {
		return NewBusinessErrorf("GAUGE_NOT_AVAILABLE", "gauge %s is %s", ErrGaugeNotAvailable, gauge.SerialNumber, gauge.Status)
	}
	return nil
}

// CheckoutEligibleMembers returns the set members that may be checked out.
// Every eligibility rule applies to both members; the pending QC rule applies
// at the set level only when the policy says so, otherwise a pending QC
// member is excluded rather than failing the whole set. A pending QC member
// is never itself eligible, so when nothing remains the pending QC error
// surfaces.
func (r *CascadeResolverImpl) CheckoutEligibleMembers(goGauge, noGoGauge *models.Gauge, now time.Time) ([]*models.Gauge, error) {
	var eligible []*models.Gauge
	var excluded error
	for _, gauge := range []*models.Gauge{goGauge, noGoGauge} {
		if err := r.CanCheckoutGauge(gauge, now); err != nil {
			if IsGaugePendingQC(err) && !r.policy.BlockSetOnPendingQC {
				excluded = err
				continue
			}
			return nil, err
		}
		eligible = append(eligible, gauge)
	}
	if len(eligible) == 0 {
		return nil, excluded
	}
	return eligible, nil
}

// CanCheckoutSet checks whether any part of the set may be checked out
func (r *CascadeResolverImpl) CanCheckoutSet(goGauge, noGoGauge *models.Gauge, now time.Time) error {
	_, err := r.CheckoutEligibleMembers(goGauge, noGoGauge, now)
	return err
}
