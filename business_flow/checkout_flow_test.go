package businessflow

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	testingutil "github.com/gaugetrack/gaugetrack/testing"
)

func newCheckoutFlow(testDB *testingutil.TestDB, policy CascadePolicy) (CheckoutFlow, repository.GaugeRepository) {
	gaugeRepo := repository.NewGaugeRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	resolver := NewCascadeResolver(gaugeRepo, policy)
	return NewCheckoutFlow(gaugeRepo, auditRepo, resolver, testDB.DB), gaugeRepo
}

// linkedPair creates two compatible gauges and links them into a set.
func linkedPair(t *testing.T, testDB *testingutil.TestDB, gaugeRepo repository.GaugeRepository, fixtures *testingutil.TestFixtures, categoryID, userID uint, opts ...testingutil.GaugeOption) (*models.Gauge, *models.Gauge) {
	t.Helper()
	goGauge, noGoGauge, err := fixtures.CreateSparePair(categoryID, userID, opts...)
	require.NoError(t, err)

	baseID := fmt.Sprintf("SP9%05d", rand.Intn(90000)+10000)
	err = repository.WithTransaction(testingutil.CreateTestContext(), testDB.DB, func(txCtx context.Context) error {
		return gaugeRepo.LinkCompanions(txCtx, goGauge.ID, noGoGauge.ID, baseID)
	})
	require.NoError(t, err)
	return goGauge, noGoGauge
}

func forceStatus(t *testing.T, testDB *testingutil.TestDB, gaugeID uint, status models.GaugeStatus) {
	t.Helper()
	err := testDB.DB.Model(&models.Gauge{}).Where("id = ?", gaugeID).Update("status", status).Error
	require.NoError(t, err)
}

func TestCheckoutSet(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newCheckoutFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("ChecksOutBothMembers", func(t *testing.T) {
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			resp, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     noGoGauge.ID,
				Destination: "Line 4 inspection bench",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusCheckedOut.String(), resp.Set.SetStatus)

			for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
				stored, err := gaugeRepo.ByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, models.GaugeStatusCheckedOut, stored.Status)
				assert.Equal(t, "Line 4 inspection bench", stored.StorageLocation)
			}
		})

		t.Run("DestinationRequired", func(t *testing.T) {
			goGauge, _ := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			_, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{GaugeID: goGauge.ID}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsLocationRequired(err))
		})

		t.Run("SpareCannotBeCheckedOutAsSet", func(t *testing.T) {
			spare, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     spare.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsCompanionNotFound(err))
		})

		t.Run("SealedMemberBlocksSet", func(t *testing.T) {
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			err := testDB.DB.Model(&models.Gauge{}).Where("id = ?", noGoGauge.ID).
				Update("seal_status", models.SealStatusSealed).Error
			require.NoError(t, err)

			_, err = flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeSealed(err))

			stored, err := gaugeRepo.ByID(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusAvailable, stored.Status)
		})

		t.Run("AlreadyCheckedOutFails", func(t *testing.T) {
			goGauge, _ := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			_, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.NoError(t, err)

			_, err = flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 5",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeCheckedOut(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCheckoutSetPendingQCPolicy(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("DefaultPolicyBlocksSetOnPendingMember", func(t *testing.T) {
			flow, gaugeRepo := newCheckoutFlow(testDB, DefaultCascadePolicy())
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			forceStatus(t, testDB, noGoGauge.ID, models.GaugeStatusPendingQC)

			_, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugePendingQC(err))

			stored, err := gaugeRepo.ByID(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusAvailable, stored.Status)
		})

		t.Run("RelaxedPolicyChecksOutOnlyEligibleMember", func(t *testing.T) {
			flow, gaugeRepo := newCheckoutFlow(testDB, CascadePolicy{BlockSetOnPendingQC: false})
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			forceStatus(t, testDB, noGoGauge.ID, models.GaugeStatusPendingQC)

			_, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.NoError(t, err)

			storedGo, err := gaugeRepo.ByID(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusCheckedOut, storedGo.Status)

			// The pending member stays behind, untouched.
			storedNoGo, err := gaugeRepo.ByID(ctx, noGoGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusPendingQC, storedNoGo.Status)
			assert.NotEqual(t, "Line 4", storedNoGo.StorageLocation)
		})

		t.Run("RelaxedPolicyStillFailsWhenBothMembersPendingQC", func(t *testing.T) {
			flow, gaugeRepo := newCheckoutFlow(testDB, CascadePolicy{BlockSetOnPendingQC: false})
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			forceStatus(t, testDB, goGauge.ID, models.GaugeStatusPendingQC)
			forceStatus(t, testDB, noGoGauge.ID, models.GaugeStatusPendingQC)

			_, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugePendingQC(err))

			// Neither member ever reaches checked_out without passing QC.
			for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
				stored, err := gaugeRepo.ByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, models.GaugeStatusPendingQC, stored.Status)
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestReturnSet(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newCheckoutFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		checkedOutPair := func(t *testing.T) (*models.Gauge, *models.Gauge) {
			t.Helper()
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			_, err := flow.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			return goGauge, noGoGauge
		}

		t.Run("ReturnsBothMembersToAvailable", func(t *testing.T) {
			goGauge, noGoGauge := checkedOutPair(t)

			_, err := flow.ReturnSet(ctx, &dto.ReturnSetRequest{
				GaugeID:         noGoGauge.ID,
				StorageLocation: "Cabinet A3",
			}, user.ID, testMetadata())
			require.NoError(t, err)

			for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
				stored, err := gaugeRepo.ByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, models.GaugeStatusAvailable, stored.Status)
				assert.Equal(t, "Cabinet A3", stored.StorageLocation)
			}
		})

		t.Run("QCReturnLandsInPendingQC", func(t *testing.T) {
			goGauge, _ := checkedOutPair(t)

			_, err := flow.ReturnSet(ctx, &dto.ReturnSetRequest{
				GaugeID:         goGauge.ID,
				StorageLocation: "Cabinet A3",
				RequiresQC:      true,
			}, user.ID, testMetadata())
			require.NoError(t, err)

			stored, err := gaugeRepo.ByID(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusPendingQC, stored.Status)
		})

		t.Run("NotCheckedOutFails", func(t *testing.T) {
			goGauge, _ := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			_, err := flow.ReturnSet(ctx, &dto.ReturnSetRequest{
				GaugeID:         goGauge.ID,
				StorageLocation: "Cabinet A3",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsSetNotCheckedOut(err))
		})

		t.Run("PartialCheckoutReturnsOnlyTheMemberThatWentOut", func(t *testing.T) {
			relaxed, _ := newCheckoutFlow(testDB, CascadePolicy{BlockSetOnPendingQC: false})
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			forceStatus(t, testDB, noGoGauge.ID, models.GaugeStatusPendingQC)

			_, err := relaxed.CheckoutSet(ctx, &dto.CheckoutSetRequest{
				GaugeID:     goGauge.ID,
				Destination: "Line 4",
			}, user.ID, testMetadata())
			require.NoError(t, err)

			_, err = relaxed.ReturnSet(ctx, &dto.ReturnSetRequest{
				GaugeID:         goGauge.ID,
				StorageLocation: "Cabinet A3",
			}, user.ID, testMetadata())
			require.NoError(t, err)

			storedGo, err := gaugeRepo.ByID(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusAvailable, storedGo.Status)

			storedNoGo, err := gaugeRepo.ByID(ctx, noGoGauge.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusPendingQC, storedNoGo.Status)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCheckEligibility(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newCheckoutFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("EligibleSet", func(t *testing.T) {
			goGauge, _ := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)

			resp, err := flow.CheckEligibility(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.True(t, resp.Eligible)
			assert.Empty(t, resp.Code)
		})

		t.Run("PendingQCMemberReportsCode", func(t *testing.T) {
			goGauge, noGoGauge := linkedPair(t, testDB, gaugeRepo, fixtures, category.ID, user.ID)
			forceStatus(t, testDB, noGoGauge.ID, models.GaugeStatusPendingQC)

			resp, err := flow.CheckEligibility(ctx, goGauge.ID)
			require.NoError(t, err)
			assert.False(t, resp.Eligible)
			assert.Equal(t, "GAUGE_PENDING_QC", resp.Code)
		})

		return nil
	})
	require.NoError(t, err)
}
