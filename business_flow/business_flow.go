// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	DeviceInfo map[string]string `json:"device_info,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		DeviceInfo: make(map[string]string),
		Additional: make(map[string]string),
	}
}

// AddDeviceInfo adds device information to the metadata
func (cm *ClientMetadata) AddDeviceInfo(key, value string) {
	if cm.DeviceInfo == nil {
		cm.DeviceInfo = make(map[string]string)
	}
	cm.DeviceInfo[key] = value
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToGaugeDTO converts a gauge model to its API representation
func ToGaugeDTO(gauge models.Gauge) dto.GaugeDTO {
	d := dto.GaugeDTO{
		ID:               gauge.ID,
		UUID:             gauge.UUID.String(),
		SerialNumber:     gauge.SerialNumber,
		SystemGaugeID:    gauge.SystemGaugeID,
		EquipmentType:    gauge.EquipmentType.String(),
		CategoryID:       gauge.CategoryID,
		ThreadSize:       gauge.ThreadSize,
		ThreadClass:      gauge.ThreadClass,
		ThreadType:       gauge.ThreadType,
		IsGoGauge:        gauge.IsGoGauge,
		OwnershipType:    gauge.OwnershipType.String(),
		CustomerID:       gauge.CustomerID,
		EmployeeOwnerID:  gauge.EmployeeOwnerID,
		Status:           gauge.Status.String(),
		StorageLocation:  gauge.StorageLocation,
		SealStatus:       gauge.SealStatus.String(),
		IsFixedLocation:  gauge.IsFixedLocation,
		CompanionGaugeID: gauge.CompanionGaugeID,
		IsSpare:          gauge.IsSpare(),
		CreatedAt:        gauge.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        gauge.UpdatedAt.Format(time.RFC3339),
	}

	if gauge.CalibrationDueAt != nil {
		due := gauge.CalibrationDueAt.Format(time.RFC3339)
		d.CalibrationDueAt = &due
	}
	if gauge.RetiredAt != nil {
		retired := gauge.RetiredAt.Format(time.RFC3339)
		d.RetiredAt = &retired
	}

	return d
}

// ToGaugeSetDTO converts a composed set view to its API representation
func ToGaugeSetDTO(set *models.GaugeSet) dto.GaugeSetDTO {
	goDTO := ToGaugeDTO(*set.Go)
	noGoDTO := ToGaugeDTO(*set.NoGo)
	return dto.GaugeSetDTO{
		BaseID: set.BaseID,
		Go:     goDTO,
		NoGo:   noGoDTO,
	}
}

// ToCompanionHistoryDTO converts a companion history record to its API representation
func ToCompanionHistoryDTO(h models.CompanionHistory) dto.CompanionHistoryDTO {
	return dto.CompanionHistoryDTO{
		ID:          h.ID,
		Action:      h.Action.String(),
		GoGaugeID:   h.GoGaugeID,
		NoGoGaugeID: h.NoGoGaugeID,
		UserID:      h.UserID,
		Reason:      h.Reason,
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
}

// ToCalibrationBatchDTO converts a calibration batch model to its API representation
func ToCalibrationBatchDTO(batch models.CalibrationBatch) dto.CalibrationBatchDTO {
	d := dto.CalibrationBatchDTO{
		ID:            batch.ID,
		UUID:          batch.UUID.String(),
		BatchNumber:   batch.BatchNumber,
		Status:        batch.Status.String(),
		VendorName:    batch.VendorName,
		VendorContact: batch.VendorContact,
		Notes:         batch.Notes,
		CreatedBy:     batch.CreatedBy,
		CreatedAt:     batch.CreatedAt.Format(time.RFC3339),
	}
	if batch.SentAt != nil {
		sent := batch.SentAt.Format(time.RFC3339)
		d.SentAt = &sent
	}
	if batch.ClosedAt != nil {
		closed := batch.ClosedAt.Format(time.RFC3339)
		d.ClosedAt = &closed
	}
	return d
}

// ToCertificateDTO converts a certificate model to its API representation
func ToCertificateDTO(cert models.Certificate) dto.CertificateDTO {
	d := dto.CertificateDTO{
		ID:                 cert.ID,
		UUID:               cert.UUID.String(),
		GaugeID:            cert.GaugeID,
		CalibrationBatchID: cert.CalibrationBatchID,
		CertificateNumber:  cert.CertificateNumber,
		IsCurrent:          cert.IsCurrent,
		SupersededByID:     cert.SupersededByID,
		FileName:           cert.FileName,
		ContentType:        cert.ContentType,
		UploadedBy:         cert.UploadedBy,
		IssuedAt:           cert.IssuedAt.Format(time.RFC3339),
		ExpiresAt:          cert.ExpiresAt.Format(time.RFC3339),
		CreatedAt:          cert.CreatedAt.Format(time.RFC3339),
	}
	if cert.SupersededAt != nil {
		superseded := cert.SupersededAt.Format(time.RFC3339)
		d.SupersededAt = &superseded
	}
	return d
}

// ToAuthUserDTO converts a user model to AuthUserDTO for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	return dto.AuthUserDTO{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		IsActive:  user.IsActive != nil && *user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
