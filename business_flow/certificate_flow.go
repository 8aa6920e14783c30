// Package businessflow contains the core business logic and use cases for gauge set lifecycle workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CertificateFlow manages calibration certificates and their supersession
// chain. Uploading a new certificate flips the previous current one to
// non-current in the same transaction, so a gauge never has two current
// certificates.
type CertificateFlow interface {
	UploadCertificate(ctx context.Context, req *dto.UploadCertificateRequest, userID uint, metadata *ClientMetadata) (*dto.UploadCertificateResponse, error)
	CertificateChain(ctx context.Context, gaugeID uint) (*dto.CertificateChainResponse, error)
	CurrentCertificate(ctx context.Context, gaugeID uint) (*dto.CertificateDTO, error)
	ListExpiring(ctx context.Context, within time.Duration, limit int) ([]dto.CertificateDTO, error)
}

// CertificateFlowImpl implements the certificate business flow
type CertificateFlowImpl struct {
	certRepo  repository.CertificateRepository
	gaugeRepo repository.GaugeRepository
	auditRepo repository.AuditLogRepository
	db        *gorm.DB
}

// NewCertificateFlow creates a new certificate flow instance
func NewCertificateFlow(
	certRepo repository.CertificateRepository,
	gaugeRepo repository.GaugeRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) CertificateFlow {
	return &CertificateFlowImpl{
		certRepo:  certRepo,
		gaugeRepo: gaugeRepo,
		auditRepo: auditRepo,
		db:        db,
	}
}

// UploadCertificate records a new certificate for a gauge. A gauge waiting
// on its certificate moves to pending_release, and its calibration due date
// advances to the certificate expiry.
func (s *CertificateFlowImpl) UploadCertificate(ctx context.Context, req *dto.UploadCertificateRequest, userID uint, metadata *ClientMetadata) (*dto.UploadCertificateResponse, error) {
	issuedAt, err := time.Parse(time.RFC3339, req.IssuedAt)
	if err != nil {
		return nil, NewBusinessErrorf("VALIDATION_ERROR", "cannot parse issued_at %q", nil, req.IssuedAt)
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return nil, NewBusinessErrorf("VALIDATION_ERROR", "cannot parse expires_at %q", nil, req.ExpiresAt)
	}
	if !expiresAt.After(issuedAt) {
		return nil, NewBusinessError("VALIDATION_ERROR", "expiry must be after issue date", nil)
	}
	if expiresAt.Before(utils.UTCNow()) {
		return nil, NewBusinessError("CERT_EXPIRED", "certificate expiry is in the past", ErrCertificateExpiryInPast)
	}

	cert := &models.Certificate{
		UUID:               uuid.New(),
		GaugeID:            req.GaugeID,
		CalibrationBatchID: req.CalibrationBatchID,
		CertificateNumber:  req.CertificateNumber,
		IssuedAt:           issuedAt,
		ExpiresAt:          expiresAt,
		IsCurrent:          true,
		FileName:           req.FileName,
		FileKey:            req.FileKey,
		ContentType:        req.ContentType,
		UploadedBy:         userID,
		CreatedAt:          utils.UTCNow(),
	}

	var superseded *models.Certificate

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		gauge, err := s.gaugeRepo.ByID(txCtx, req.GaugeID)
		if err != nil {
			return fmt.Errorf("failed to load gauge: %w", err)
		}
		if gauge == nil {
			return NewBusinessErrorf("GAUGE_NOT_FOUND", "gauge %d not found", ErrGaugeNotFound, req.GaugeID)
		}
		if gauge.IsRetired() {
			return NewBusinessErrorf("GAUGE_RETIRED", "gauge %s is retired", ErrGaugeRetired, gauge.SerialNumber)
		}

		superseded, err = s.certRepo.SaveSuperseding(txCtx, cert)
		if err != nil {
			return err
		}

		updates := map[string]any{"calibration_due_at": expiresAt}
		if gauge.Status == models.GaugeStatusPendingCertificate {
			updates["status"] = models.GaugeStatusPendingRelease
		}
		return s.gaugeRepo.UpdateFields(txCtx, gauge.ID, updates)
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Certificate %s uploaded for gauge %d", cert.CertificateNumber, cert.GaugeID)
	_ = s.createAuditLog(ctx, userID, cert.GaugeID, models.AuditActionCertificateUploaded, msg, true, nil, metadata)

	resp := &dto.UploadCertificateResponse{Certificate: ToCertificateDTO(*cert)}
	if superseded != nil {
		old := ToCertificateDTO(*superseded)
		resp.Superseded = &old
	}
	return resp, nil
}

// CertificateChain returns a gauge's full supersession chain, newest first
func (s *CertificateFlowImpl) CertificateChain(ctx context.Context, gaugeID uint) (*dto.CertificateChainResponse, error) {
	certs, err := s.certRepo.ListByGauge(ctx, gaugeID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CertificateChainResponse{
		GaugeID:      gaugeID,
		Certificates: make([]dto.CertificateDTO, 0, len(certs)),
	}
	for _, c := range certs {
		resp.Certificates = append(resp.Certificates, ToCertificateDTO(*c))
	}
	return resp, nil
}

// CurrentCertificate returns the gauge's current certificate
func (s *CertificateFlowImpl) CurrentCertificate(ctx context.Context, gaugeID uint) (*dto.CertificateDTO, error) {
	cert, err := s.certRepo.CurrentByGauge(ctx, gaugeID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, NewBusinessErrorf("CERT_NOT_FOUND", "gauge %d has no current certificate", ErrCertificateNotFound, gaugeID)
	}
	result := ToCertificateDTO(*cert)
	return &result, nil
}

// ListExpiring lists current certificates expiring within the given window
func (s *CertificateFlowImpl) ListExpiring(ctx context.Context, within time.Duration, limit int) ([]dto.CertificateDTO, error) {
	cutoff := utils.UTCNow().Add(within)
	certs, err := s.certRepo.ListExpiringBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}

	result := make([]dto.CertificateDTO, 0, len(certs))
	for _, c := range certs {
		result = append(result, ToCertificateDTO(*c))
	}
	return result, nil
}

func (s *CertificateFlowImpl) createAuditLog(ctx context.Context, userID uint, gaugeID uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       &userID,
		GaugeID:      &gaugeID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
		CreatedAt:    utils.UTCNow(),
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		if requestIDStr, ok := requestID.(string); ok {
			audit.RequestID = &requestIDStr
		}
	}

	return s.auditRepo.Save(ctx, audit)
}
