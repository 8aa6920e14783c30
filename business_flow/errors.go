// Package businessflow contains the core business logic and use cases for gauge set lifecycle workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Gauge-related errors
	ErrGaugeNotFound          = errors.New("gauge not found")
	ErrGaugeRetired           = errors.New("gauge is retired")
	ErrCompanionNotFound      = errors.New("gauge has no companion")
	ErrGaugeNotSpare          = errors.New("gauge already has a companion")
	ErrGaugeNotAvailable      = errors.New("gauge is not available")
	ErrSerialNumberExists     = errors.New("serial number already exists")
	ErrImmutableFieldChanged  = errors.New("immutable field cannot be changed")
	ErrInvalidThreadFormat    = errors.New("thread size format is invalid")
	ErrInvalidEquipmentType   = errors.New("equipment type is invalid")
	ErrInvalidOwnershipType   = errors.New("ownership type is invalid")
	ErrCategoryNotFound       = errors.New("category not found")

	// Pair compatibility errors
	ErrOwnershipMismatch = errors.New("ownership type differs between gauges")
	ErrMissingCustomerID = errors.New("customer-owned gauge lacks a customer ID")
	ErrCustomerMismatch  = errors.New("customer ID differs between gauges")
	ErrSpecMismatch      = errors.New("thread spec or category differs between gauges")
	ErrRoleMismatch      = errors.New("set requires one GO and one NO-GO gauge")

	// Lifecycle state errors
	ErrLocationRequired  = errors.New("set location is required")
	ErrGaugePendingQC    = errors.New("gauge is pending QC")
	ErrGaugeCheckedOut   = errors.New("gauge is checked out")
	ErrSetNotCheckedOut  = errors.New("set is not checked out")
	ErrGaugeSealed       = errors.New("gauge is sealed pending unseal")
	ErrCalibrationOverdue = errors.New("gauge calibration is overdue")
	ErrFixedLocation     = errors.New("fixed-location equipment cannot be checked out")
	ErrSpareClaimed      = errors.New("spare gauge was claimed by a concurrent pairing")

	// Calibration batch errors
	ErrBatchNotFound       = errors.New("calibration batch not found")
	ErrBatchNotOpen        = errors.New("calibration batch is not open for changes")
	ErrBatchNotSent        = errors.New("calibration batch has not been sent")
	ErrBatchEmpty          = errors.New("calibration batch has no gauges")
	ErrBatchHasOutstanding = errors.New("calibration batch still has gauges out")
	ErrGaugeNotInBatch     = errors.New("gauge is not part of the batch")
	ErrInvalidBatchTransition = errors.New("calibration batch transition not allowed")

	// Certificate errors
	ErrCertificateNotFound    = errors.New("certificate not found")
	ErrCertificateExpiryInPast = errors.New("certificate expiry is in the past")

	// User/auth errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserInactive      = errors.New("user is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidCaptcha    = errors.New("captcha verification failed")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// ErrorCode returns the machine-readable code of a BusinessError, or "" when
// the error is not one.
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsGaugeNotFound(err error) bool {
	return errors.Is(err, ErrGaugeNotFound)
}

func IsGaugeRetired(err error) bool {
	return errors.Is(err, ErrGaugeRetired)
}

func IsCompanionNotFound(err error) bool {
	return errors.Is(err, ErrCompanionNotFound)
}

func IsGaugeNotSpare(err error) bool {
	return errors.Is(err, ErrGaugeNotSpare)
}

func IsGaugeNotAvailable(err error) bool {
	return errors.Is(err, ErrGaugeNotAvailable)
}

func IsSerialNumberExists(err error) bool {
	return errors.Is(err, ErrSerialNumberExists)
}

func IsImmutableFieldChanged(err error) bool {
	return errors.Is(err, ErrImmutableFieldChanged)
}

func IsInvalidThreadFormat(err error) bool {
	return errors.Is(err, ErrInvalidThreadFormat)
}

func IsOwnershipMismatch(err error) bool {
	return errors.Is(err, ErrOwnershipMismatch)
}

func IsMissingCustomerID(err error) bool {
	return errors.Is(err, ErrMissingCustomerID)
}

func IsCustomerMismatch(err error) bool {
	return errors.Is(err, ErrCustomerMismatch)
}

func IsSpecMismatch(err error) bool {
	return errors.Is(err, ErrSpecMismatch)
}

func IsRoleMismatch(err error) bool {
	return errors.Is(err, ErrRoleMismatch)
}

func IsLocationRequired(err error) bool {
	return errors.Is(err, ErrLocationRequired)
}

func IsGaugePendingQC(err error) bool {
	return errors.Is(err, ErrGaugePendingQC)
}

func IsGaugeCheckedOut(err error) bool {
	return errors.Is(err, ErrGaugeCheckedOut)
}

func IsGaugeSealed(err error) bool {
	return errors.Is(err, ErrGaugeSealed)
}

func IsCalibrationOverdue(err error) bool {
	return errors.Is(err, ErrCalibrationOverdue)
}

func IsFixedLocation(err error) bool {
	return errors.Is(err, ErrFixedLocation)
}

func IsSpareClaimed(err error) bool {
	return errors.Is(err, ErrSpareClaimed)
}

func IsBatchNotFound(err error) bool {
	return errors.Is(err, ErrBatchNotFound)
}

func IsBatchNotOpen(err error) bool {
	return errors.Is(err, ErrBatchNotOpen)
}

func IsBatchNotSent(err error) bool {
	return errors.Is(err, ErrBatchNotSent)
}

func IsBatchEmpty(err error) bool {
	return errors.Is(err, ErrBatchEmpty)
}

func IsBatchHasOutstanding(err error) bool {
	return errors.Is(err, ErrBatchHasOutstanding)
}

func IsInvalidBatchTransition(err error) bool {
	return errors.Is(err, ErrInvalidBatchTransition)
}

func IsGaugeNotInBatch(err error) bool {
	return errors.Is(err, ErrGaugeNotInBatch)
}

func IsCertificateNotFound(err error) bool {
	return errors.Is(err, ErrCertificateNotFound)
}

func IsCertificateExpiryInPast(err error) bool {
	return errors.Is(err, ErrCertificateExpiryInPast)
}

func IsSetNotCheckedOut(err error) bool {
	return errors.Is(err, ErrSetNotCheckedOut)
}

func IsCategoryNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsUserInactive(err error) bool {
	return errors.Is(err, ErrUserInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}
