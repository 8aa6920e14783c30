// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// NotificationService sends operational emails, primarily calibration-due
// reminders raised by the scheduler.
type NotificationService interface {
	SendEmail(email, subject, message string) error
	SendCalibrationReminder(email, serialNumber string, daysLeft int) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(email, subject, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{
		emailProvider: emailProvider,
	}
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	if len(email) == 0 || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(email, subject, message)
}

// SendCalibrationReminder sends a due-soon reminder for a single gauge
func (s *NotificationServiceImpl) SendCalibrationReminder(email, serialNumber string, daysLeft int) error {
	subject := fmt.Sprintf("Calibration due: %s", serialNumber)
	var message string
	switch {
	case daysLeft < 0:
		message = fmt.Sprintf("Gauge %s is %d day(s) past its calibration due date. It cannot be checked out until recalibrated.", serialNumber, -daysLeft)
	case daysLeft == 0:
		message = fmt.Sprintf("Gauge %s reaches its calibration due date today.", serialNumber)
	default:
		message = fmt.Sprintf("Gauge %s is due for calibration in %d day(s). Schedule it into a calibration batch.", serialNumber, daysLeft)
	}
	return s.SendEmail(email, subject, message)
}

type MockEmailProvider struct{}

func NewMockEmailProvider() EmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(email, subject, message string) error {
	log.Printf("Email sent to %s [%s]: %s", email, subject, message)
	return nil
}

type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail string) EmailProvider {
	return &SMTPEmailProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

func (p *SMTPEmailProvider) SendEmail(email, subject, message string) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	body := strings.Join([]string{
		"From: " + p.fromEmail,
		"To: " + email,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		message,
	}, "\r\n")

	return smtp.SendMail(addr, auth, p.fromEmail, []string{email}, []byte(body))
}
