package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	testingutil "github.com/gaugetrack/gaugetrack/testing"
	"github.com/gaugetrack/gaugetrack/utils"
)

func newCertificateFlow(testDB *testingutil.TestDB) (CertificateFlow, repository.GaugeRepository) {
	gaugeRepo := repository.NewGaugeRepository(testDB.DB)
	certRepo := repository.NewCertificateRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	return NewCertificateFlow(certRepo, gaugeRepo, auditRepo, testDB.DB), gaugeRepo
}

func uploadRequest(gaugeID uint, number string) *dto.UploadCertificateRequest {
	return &dto.UploadCertificateRequest{
		GaugeID:           gaugeID,
		CertificateNumber: number,
		IssuedAt:          utils.UTCNow().Add(-24 * time.Hour).Format(time.RFC3339),
		ExpiresAt:         utils.UTCNow().Add(365 * 24 * time.Hour).Format(time.RFC3339),
	}
}

func TestUploadCertificate(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newCertificateFlow(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("FirstCertificateHasNoPredecessor", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			resp, err := flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-00101"), user.ID, testMetadata())
			require.NoError(t, err)
			assert.True(t, resp.Certificate.IsCurrent)
			assert.Nil(t, resp.Superseded)

			// The gauge's calibration clock advances to the certificate expiry.
			stored, err := gaugeRepo.ByID(ctx, gauge.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.CalibrationDueAt)
			assert.True(t, stored.CalibrationDueAt.After(utils.UTCNow()))
		})

		t.Run("SupersedesExactlyThePreviousCurrent", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			first, err := flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-00201"), user.ID, testMetadata())
			require.NoError(t, err)
			second, err := flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-00202"), user.ID, testMetadata())
			require.NoError(t, err)

			require.NotNil(t, second.Superseded)
			assert.Equal(t, first.Certificate.ID, second.Superseded.ID)

			chain, err := flow.CertificateChain(ctx, gauge.ID)
			require.NoError(t, err)
			require.Len(t, chain.Certificates, 2)

			current := 0
			for _, c := range chain.Certificates {
				if c.IsCurrent {
					current++
					assert.Equal(t, second.Certificate.ID, c.ID)
				} else {
					require.NotNil(t, c.SupersededByID)
					assert.Equal(t, second.Certificate.ID, *c.SupersededByID)
					assert.NotNil(t, c.SupersededAt)
				}
			}
			assert.Equal(t, 1, current)
		})

		t.Run("PendingCertificateGaugeMovesToPendingRelease", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true,
				testingutil.WithStatus(models.GaugeStatusPendingCertificate))
			require.NoError(t, err)

			_, err = flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-00301"), user.ID, testMetadata())
			require.NoError(t, err)

			stored, err := gaugeRepo.ByID(ctx, gauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusPendingRelease, stored.Status)
		})

		t.Run("AvailableGaugeKeepsItsStatus", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-00401"), user.ID, testMetadata())
			require.NoError(t, err)

			stored, err := gaugeRepo.ByID(ctx, gauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusAvailable, stored.Status)
		})

		t.Run("ExpiryInPastRejected", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			req := uploadRequest(gauge.ID, "ACL-2026-00501")
			req.IssuedAt = utils.UTCNow().Add(-48 * time.Hour).Format(time.RFC3339)
			req.ExpiresAt = utils.UTCNow().Add(-24 * time.Hour).Format(time.RFC3339)

			_, err = flow.UploadCertificate(ctx, req, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsCertificateExpiryInPast(err))
		})

		t.Run("ExpiryBeforeIssueRejected", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			req := uploadRequest(gauge.ID, "ACL-2026-00601")
			req.IssuedAt = utils.UTCNow().Add(48 * time.Hour).Format(time.RFC3339)
			req.ExpiresAt = utils.UTCNow().Add(24 * time.Hour).Format(time.RFC3339)

			_, err = flow.UploadCertificate(ctx, req, user.ID, testMetadata())
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))
		})

		t.Run("UnknownGaugeRejected", func(t *testing.T) {
			_, err := flow.UploadCertificate(ctx, uploadRequest(999999, "ACL-2026-00701"), user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeNotFound(err))
		})

		t.Run("RetiredGaugeRejected", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true,
				testingutil.WithStatus(models.GaugeStatusRetired))
			require.NoError(t, err)

			_, err = flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-00801"), user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeRetired(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCurrentCertificateAndExpiry(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _ := newCertificateFlow(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("CurrentReturnsTheNewest", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-01101"), user.ID, testMetadata())
			require.NoError(t, err)
			latest, err := flow.UploadCertificate(ctx, uploadRequest(gauge.ID, "ACL-2026-01102"), user.ID, testMetadata())
			require.NoError(t, err)

			current, err := flow.CurrentCertificate(ctx, gauge.ID)
			require.NoError(t, err)
			assert.Equal(t, latest.Certificate.ID, current.ID)
		})

		t.Run("NoCertificateIsNotFound", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.CurrentCertificate(ctx, gauge.ID)
			require.Error(t, err)
			assert.True(t, IsCertificateNotFound(err))
		})

		t.Run("ListExpiringHonorsTheWindow", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			req := uploadRequest(gauge.ID, "ACL-2026-01301")
			req.ExpiresAt = utils.UTCNow().Add(10 * 24 * time.Hour).Format(time.RFC3339)
			_, err = flow.UploadCertificate(ctx, req, user.ID, testMetadata())
			require.NoError(t, err)

			expiring, err := flow.ListExpiring(ctx, 30*24*time.Hour, 100)
			require.NoError(t, err)
			found := false
			for _, c := range expiring {
				if c.GaugeID == gauge.ID {
					found = true
				}
			}
			assert.True(t, found)

			tight, err := flow.ListExpiring(ctx, 24*time.Hour, 100)
			require.NoError(t, err)
			for _, c := range tight {
				assert.NotEqual(t, gauge.ID, c.GaugeID)
			}
		})

		return nil
	})
	require.NoError(t, err)
}
