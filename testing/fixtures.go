// Package testing provides test utilities and database setup for testing the gauge tracking system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a user with the given role and password "TestPass123!"
func (tf *TestFixtures) CreateTestUser(role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	user := &models.User{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("user_%s_%s", role, suffix),
		Email:        fmt.Sprintf("user.%s.%s@example.com", role, suffix),
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestCustomer creates an active customer
func (tf *TestFixtures) CreateTestCustomer(name string) (*models.Customer, error) {
	customer := &models.Customer{
		UUID:         uuid.New(),
		Name:         name,
		ContactName:  utils.ToPtr("Jordan Smith"),
		ContactEmail: utils.ToPtr(fmt.Sprintf("contact.%06d@example.com", rand.Intn(900000)+100000)),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test customer: %w", err)
	}
	return customer, nil
}

// CreateTestCategory creates a gauge category
func (tf *TestFixtures) CreateTestCategory(name string) (*models.Category, error) {
	category := &models.Category{
		Name:        name,
		DisplayName: name,
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create test category: %w", err)
	}
	return category, nil
}

// GaugeOption mutates a gauge fixture before insertion
type GaugeOption func(*models.Gauge)

// WithStatus sets the gauge status
func WithStatus(status models.GaugeStatus) GaugeOption {
	return func(g *models.Gauge) { g.Status = status }
}

// WithOwnership sets ownership type and customer
func WithOwnership(ownership models.OwnershipType, customerID *uint) GaugeOption {
	return func(g *models.Gauge) {
		g.OwnershipType = ownership
		g.CustomerID = customerID
	}
}

// WithThreadSpec overrides the thread specification
func WithThreadSpec(size, class, threadType string) GaugeOption {
	return func(g *models.Gauge) {
		g.ThreadSize = size
		g.ThreadClass = class
		g.ThreadType = threadType
	}
}

// WithLocation sets the storage location
func WithLocation(location string) GaugeOption {
	return func(g *models.Gauge) { g.StorageLocation = location }
}

// WithSeal sets the seal status
func WithSeal(seal models.SealStatus) GaugeOption {
	return func(g *models.Gauge) { g.SealStatus = seal }
}

// WithCalibrationDue sets the calibration due date
func WithCalibrationDue(due time.Time) GaugeOption {
	return func(g *models.Gauge) { g.CalibrationDueAt = &due }
}

// CreateSpareGauge creates an unpaired gauge with sane defaults. isGo picks
// the GO or NO-GO role.
func (tf *TestFixtures) CreateSpareGauge(categoryID, createdBy uint, isGo bool, opts ...GaugeOption) (*models.Gauge, error) {
	role := "NOGO"
	if isGo {
		role = "GO"
	}
	gauge := &models.Gauge{
		UUID:          uuid.New(),
		SerialNumber:  fmt.Sprintf("SN-%s-%08d", role, rand.Intn(90000000)+10000000),
		EquipmentType: models.EquipmentTypeThreadGauge,
		CategoryID:    categoryID,
		ThreadSize:    "0.500",
		ThreadClass:   "2B",
		ThreadType:    "UNC",
		IsGoGauge:     isGo,
		OwnershipType: models.OwnershipTypeCompany,
		Status:        models.GaugeStatusAvailable,
		SealStatus:    models.SealStatusUnsealed,
		CreatedBy:     createdBy,
	}

	for _, opt := range opts {
		opt(gauge)
	}

	if err := tf.DB.DB.Create(gauge).Error; err != nil {
		return nil, fmt.Errorf("failed to create test gauge: %w", err)
	}
	return gauge, nil
}

// CreateSparePair creates two compatible spare gauges (one GO, one NO-GO)
func (tf *TestFixtures) CreateSparePair(categoryID, createdBy uint, opts ...GaugeOption) (*models.Gauge, *models.Gauge, error) {
	goGauge, err := tf.CreateSpareGauge(categoryID, createdBy, true, opts...)
	if err != nil {
		return nil, nil, err
	}
	noGoGauge, err := tf.CreateSpareGauge(categoryID, createdBy, false, opts...)
	if err != nil {
		return nil, nil, err
	}
	return goGauge, noGoGauge, nil
}

// CreateTestBatch creates a calibration batch in the created state
func (tf *TestFixtures) CreateTestBatch(createdBy uint) (*models.CalibrationBatch, error) {
	batch := &models.CalibrationBatch{
		UUID:        uuid.New(),
		BatchNumber: fmt.Sprintf("CAL-%06d", rand.Intn(900000)+100000),
		Status:      models.CalibrationBatchStatusCreated,
		VendorName:  "Acme Calibration Labs",
		CreatedBy:   createdBy,
	}

	if err := tf.DB.DB.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("failed to create test batch: %w", err)
	}
	return batch, nil
}

// CreateTestCertificate creates a current certificate for a gauge
func (tf *TestFixtures) CreateTestCertificate(gaugeID, uploadedBy uint, issuedAt, expiresAt time.Time) (*models.Certificate, error) {
	cert := &models.Certificate{
		UUID:              uuid.New(),
		GaugeID:           gaugeID,
		CertificateNumber: fmt.Sprintf("CERT-%08d", rand.Intn(90000000)+10000000),
		IssuedAt:          issuedAt,
		ExpiresAt:         expiresAt,
		IsCurrent:         true,
		UploadedBy:        uploadedBy,
	}

	if err := tf.DB.DB.Create(cert).Error; err != nil {
		return nil, fmt.Errorf("failed to create test certificate: %w", err)
	}
	return cert, nil
}
