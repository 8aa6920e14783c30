// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gaugetrack/gaugetrack/config"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	"github.com/gaugetrack/gaugetrack/utils"
)

// ReminderSender is the slice of NotificationService the scheduler needs.
// Keeping it minimal makes the scheduler easy to test with a mock.
type ReminderSender interface {
	SendCalibrationReminder(email, serialNumber string, daysLeft int) error
}

// CalibrationScheduler periodically scans for gauges approaching their
// calibration due date, certificates about to expire, and calibration
// batches that have been out at the lab for too long, and notifies the
// configured recipients by email.
type CalibrationScheduler struct {
	gaugeRepo repository.GaugeRepository
	certRepo  repository.CertificateRepository
	batchRepo repository.CalibrationBatchRepository
	notifier  ReminderSender
	logger    *log.Logger
	cfg       config.SchedulerConfig

	// lastNotified suppresses repeat reminders for the same gauge within
	// one notification window
	lastNotified map[uint]time.Time

	logFile *os.File
}

func NewCalibrationScheduler(
	gaugeRepo repository.GaugeRepository,
	certRepo repository.CertificateRepository,
	batchRepo repository.CalibrationBatchRepository,
	notifier ReminderSender,
	cfg config.SchedulerConfig,
) *CalibrationScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.ReminderDays <= 0 {
		cfg.ReminderDays = 30
	}
	if cfg.BatchOverdueDays <= 0 {
		cfg.BatchOverdueDays = 14
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 500
	}

	s := &CalibrationScheduler{
		gaugeRepo:    gaugeRepo,
		certRepo:     certRepo,
		batchRepo:    batchRepo,
		notifier:     notifier,
		cfg:          cfg,
		lastNotified: make(map[uint]time.Time),
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *CalibrationScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *CalibrationScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		defer s.close()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *CalibrationScheduler) runOnce(ctx context.Context) {
	now := utils.UTCNow()

	s.remindCalibrationDue(ctx, now)
	s.remindExpiringCertificates(ctx, now)
	s.reportOverdueBatches(ctx, now)
	s.sweepNotified(now)
}

// remindCalibrationDue emails one reminder per gauge whose calibration due
// date falls inside the reminder window. Gauges already out at a lab are
// skipped since the batch workflow covers them.
func (s *CalibrationScheduler) remindCalibrationDue(ctx context.Context, now time.Time) {
	cutoff := now.Add(time.Duration(s.cfg.ReminderDays) * 24 * time.Hour)

	gauges, err := s.gaugeRepo.ListCalibrationDueBefore(ctx, cutoff, s.cfg.ScanLimit)
	if err != nil {
		s.logger.Printf("scheduler: list calibration due failed: %v", err)
		return
	}
	if len(gauges) == 0 {
		return
	}

	sent := 0
	for _, g := range gauges {
		if g.CalibrationDueAt == nil || g.Status == models.GaugeStatusOutForCalibration {
			continue
		}
		if !s.shouldNotify(g.ID, now) {
			continue
		}

		daysLeft := int(g.CalibrationDueAt.Sub(now).Hours() / 24)
		if err := s.notifyRecipients(g.SerialNumber, daysLeft); err != nil {
			s.logger.Printf("scheduler: reminder for gauge %s failed: %v", g.SerialNumber, err)
			continue
		}
		s.lastNotified[g.ID] = now
		sent++
	}
	if sent > 0 {
		s.logger.Printf("scheduler: sent %d calibration reminders", sent)
	}
}

// remindExpiringCertificates covers gauges whose current certificate runs out
// before the reminder window ends. A certificate expiring makes the gauge
// calibration-overdue regardless of its due date.
func (s *CalibrationScheduler) remindExpiringCertificates(ctx context.Context, now time.Time) {
	cutoff := now.Add(time.Duration(s.cfg.ReminderDays) * 24 * time.Hour)

	certs, err := s.certRepo.ListExpiringBefore(ctx, cutoff, s.cfg.ScanLimit)
	if err != nil {
		s.logger.Printf("scheduler: list expiring certificates failed: %v", err)
		return
	}

	sent := 0
	for _, cert := range certs {
		if !s.shouldNotify(cert.GaugeID, now) {
			continue
		}

		gauge, err := s.gaugeRepo.ByID(ctx, cert.GaugeID)
		if err != nil || gauge == nil || gauge.RetiredAt != nil {
			continue
		}

		daysLeft := int(cert.ExpiresAt.Sub(now).Hours() / 24)
		if err := s.notifyRecipients(gauge.SerialNumber, daysLeft); err != nil {
			s.logger.Printf("scheduler: certificate reminder for gauge %s failed: %v", gauge.SerialNumber, err)
			continue
		}
		s.lastNotified[cert.GaugeID] = now
		sent++
	}
	if sent > 0 {
		s.logger.Printf("scheduler: sent %d certificate expiry reminders", sent)
	}
}

// reportOverdueBatches logs sent batches that have been at the lab longer
// than the configured turnaround. These need a phone call, not an email to
// the lab, so the scheduler only surfaces them in the log.
func (s *CalibrationScheduler) reportOverdueBatches(ctx context.Context, now time.Time) {
	cutoff := now.Add(-time.Duration(s.cfg.BatchOverdueDays) * 24 * time.Hour)

	batches, err := s.batchRepo.ListOpenOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Printf("scheduler: list overdue batches failed: %v", err)
		return
	}

	for _, b := range batches {
		days := 0
		if b.SentAt != nil {
			days = int(now.Sub(*b.SentAt).Hours() / 24)
		}
		s.logger.Printf("scheduler: batch %s has been at the lab for %d days", b.BatchNumber, days)
	}
}

func (s *CalibrationScheduler) notifyRecipients(serialNumber string, daysLeft int) error {
	var lastErr error
	for _, email := range s.cfg.Recipients {
		if err := s.notifier.SendCalibrationReminder(email, serialNumber, daysLeft); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// shouldNotify reports whether a gauge is past its suppression window
func (s *CalibrationScheduler) shouldNotify(gaugeID uint, now time.Time) bool {
	last, ok := s.lastNotified[gaugeID]
	if !ok {
		return true
	}
	return now.Sub(last) >= 24*time.Hour
}

// sweepNotified drops suppression entries older than the reminder window so
// the map does not grow unbounded
func (s *CalibrationScheduler) sweepNotified(now time.Time) {
	horizon := time.Duration(s.cfg.ReminderDays) * 24 * time.Hour
	for id, last := range s.lastNotified {
		if now.Sub(last) > horizon {
			delete(s.lastNotified, id)
		}
	}
}

func (s *CalibrationScheduler) close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}
