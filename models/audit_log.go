// Package models contains domain entities and business models for the gauge tracking system
package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       *uint           `gorm:"index:idx_audit_user_id" json:"user_id,omitempty"`
	User         *User           `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	GaugeID      *uint           `gorm:"index:idx_audit_gauge_id" json:"gauge_id,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb;index:idx_audit_metadata,type:gin" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionLoginSuccess = "login_success"
	AuditActionLoginFailed  = "login_failed"
	AuditActionLogout       = "logout"

	AuditActionGaugeCreated   = "gauge_created"
	AuditActionGaugeUpdated   = "gauge_updated"
	AuditActionGaugeRetired   = "gauge_retired"
	AuditActionSetCreated     = "set_created"
	AuditActionSetCreateFailed = "set_create_failed"
	AuditActionSetPaired      = "set_paired"
	AuditActionSetPairFailed  = "set_pair_failed"
	AuditActionSetUnpaired    = "set_unpaired"
	AuditActionSetUnpairFailed = "set_unpair_failed"
	AuditActionSetReplaced    = "set_replaced"
	AuditActionSetReplaceFailed = "set_replace_failed"

	AuditActionSetCheckedOut     = "set_checked_out"
	AuditActionSetCheckoutFailed = "set_checkout_failed"
	AuditActionSetReturned       = "set_returned"
	AuditActionSetReturnFailed   = "set_return_failed"

	AuditActionLocationChanged = "location_changed"
	AuditActionStatusChanged   = "status_changed"
	AuditActionSealChanged     = "seal_changed"

	AuditActionBatchCreated   = "calibration_batch_created"
	AuditActionBatchSent      = "calibration_batch_sent"
	AuditActionBatchClosed    = "calibration_batch_closed"
	AuditActionBatchCancelled = "calibration_batch_cancelled"

	AuditActionCertificateUploaded = "certificate_uploaded"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	UserID        *uint
	GaugeID       *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// IsSecurityEvent reports whether the entry concerns authentication or access
func (a *AuditLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		AuditActionLoginSuccess: true,
		AuditActionLoginFailed:  true,
		AuditActionLogout:       true,
	}
	return securityActions[a.Action]
}
