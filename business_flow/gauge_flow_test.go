package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	testingutil "github.com/gaugetrack/gaugetrack/testing"
	"github.com/gaugetrack/gaugetrack/utils"
)

func newGaugeFlow(testDB *testingutil.TestDB) (GaugeFlow, repository.GaugeRepository) {
	gaugeRepo := repository.NewGaugeRepository(testDB.DB)
	historyRepo := repository.NewCompanionHistoryRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	resolver := NewCascadeResolver(gaugeRepo, DefaultCascadePolicy())
	return NewGaugeFlow(gaugeRepo, historyRepo, auditRepo, resolver, testDB.DB), gaugeRepo
}

func TestUpdateGauge(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newGaugeFlow(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("SpareSpecChangeIsNormalized", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			result, err := flow.UpdateGauge(ctx, gauge.ID, &dto.UpdateGaugeRequest{
				ThreadSize: utils.ToPtr("1/4"),
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "0.250", result.ThreadSize)
		})

		t.Run("PairedMemberCannotDriftFromCompanionSpec", func(t *testing.T) {
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			_, err := flow.UpdateGauge(ctx, noGoGauge.ID, &dto.UpdateGaugeRequest{
				ThreadSize: utils.ToPtr("1/4"),
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsSpecMismatch(err))

			// The rejected update leaves the row untouched.
			stored, err := gaugeRepo.ByID(ctx, noGoGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, "0.500", stored.ThreadSize)

			_, err = flow.UpdateGauge(ctx, goGauge.ID, &dto.UpdateGaugeRequest{
				ThreadClass: utils.ToPtr("3B"),
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsSpecMismatch(err))
		})

		t.Run("PairedMemberKeepsNonSpecUpdates", func(t *testing.T) {
			goGauge, _ := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			result, err := flow.UpdateGauge(ctx, goGauge.ID, &dto.UpdateGaugeRequest{
				SealStatus: utils.ToPtr(models.SealStatusSealed.String()),
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.SealStatusSealed.String(), result.SealStatus)
		})

		t.Run("ImmutableFieldRejected", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.UpdateGauge(ctx, gauge.ID, &dto.UpdateGaugeRequest{
				SerialNumber: utils.ToPtr("SN-OTHER-00000001"),
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsImmutableFieldChanged(err))
		})

		t.Run("RetiredGaugeRejected", func(t *testing.T) {
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true,
				testingutil.WithStatus(models.GaugeStatusRetired))
			require.NoError(t, err)

			_, err = flow.UpdateGauge(ctx, gauge.ID, &dto.UpdateGaugeRequest{
				ThreadClass: utils.ToPtr("3B"),
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeRetired(err))
		})

		return nil
	})
	require.NoError(t, err)
}
