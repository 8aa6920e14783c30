package businessflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugetrack/gaugetrack/app/dto"
	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/repository"
	testingutil "github.com/gaugetrack/gaugetrack/testing"
)

func newCalibrationFlow(testDB *testingutil.TestDB) (CalibrationFlow, repository.GaugeRepository) {
	gaugeRepo := repository.NewGaugeRepository(testDB.DB)
	batchRepo := repository.NewCalibrationBatchRepository(testDB.DB)
	sequenceRepo := repository.NewSequenceCounterRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	return NewCalibrationFlow(batchRepo, gaugeRepo, sequenceRepo, auditRepo, testDB.DB), gaugeRepo
}

func TestCreateBatch(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _ := newCalibrationFlow(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)

		t.Run("AllocatesBatchNumber", func(t *testing.T) {
			resp, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{
				VendorName: "Acme Calibration Labs",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(resp.Batch.BatchNumber, "CB"))
			assert.Equal(t, models.CalibrationBatchStatusCreated.String(), resp.Batch.Status)

			second, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{
				VendorName: "Acme Calibration Labs",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.NotEqual(t, resp.Batch.BatchNumber, second.Batch.BatchNumber)
		})

		t.Run("VendorNameRequired", func(t *testing.T) {
			_, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{}, user.ID, testMetadata())
			require.Error(t, err)
			assert.Equal(t, "VALIDATION_ERROR", ErrorCode(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCalibrationBatchLifecycle(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newCalibrationFlow(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		created, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{
			VendorName: "Acme Calibration Labs",
		}, user.ID, testMetadata())
		require.NoError(t, err)
		batchID := created.Batch.ID

		first, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
		require.NoError(t, err)
		second, err := fixtures.CreateSpareGauge(category.ID, user.ID, false)
		require.NoError(t, err)

		t.Run("AddingGaugesOpensPreparation", func(t *testing.T) {
			detail, err := flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  batchID,
				GaugeIDs: []uint{first.ID, second.ID},
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.CalibrationBatchStatusInPreparation.String(), detail.Batch.Status)
			assert.Len(t, detail.Gauges, 2)

			stored, err := gaugeRepo.ByID(ctx, first.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.CalibrationBatchID)
			assert.Equal(t, batchID, *stored.CalibrationBatchID)
		})

		t.Run("SendingMovesGaugesOutForCalibration", func(t *testing.T) {
			detail, err := flow.SendBatch(ctx, &dto.SendBatchRequest{BatchID: batchID}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.CalibrationBatchStatusSent.String(), detail.Batch.Status)
			require.NotNil(t, detail.Batch.SentAt)

			for _, id := range []uint{first.ID, second.ID} {
				stored, err := gaugeRepo.ByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, models.GaugeStatusOutForCalibration, stored.Status)
			}
		})

		t.Run("FirstReturnLeavesBatchPartiallyReceived", func(t *testing.T) {
			detail, err := flow.ReceiveGauge(ctx, &dto.ReceiveGaugeRequest{
				BatchID: batchID,
				GaugeID: first.ID,
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.CalibrationBatchStatusPartiallyReceived.String(), detail.Batch.Status)

			stored, err := gaugeRepo.ByID(ctx, first.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GaugeStatusPendingCertificate, stored.Status)
			assert.Nil(t, stored.CalibrationBatchID)
		})

		t.Run("LastReturnClosesBatch", func(t *testing.T) {
			detail, err := flow.ReceiveGauge(ctx, &dto.ReceiveGaugeRequest{
				BatchID: batchID,
				GaugeID: second.ID,
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.CalibrationBatchStatusClosed.String(), detail.Batch.Status)
			assert.NotNil(t, detail.Batch.ClosedAt)
		})

		t.Run("ClosedBatchRejectsNewGauges", func(t *testing.T) {
			spare, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  batchID,
				GaugeIDs: []uint{spare.ID},
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsBatchNotOpen(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCalibrationBatchGuards(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo := newCalibrationFlow(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		openBatch := func(t *testing.T) uint {
			t.Helper()
			resp, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{
				VendorName: "Acme Calibration Labs",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			return resp.Batch.ID
		}

		t.Run("EmptyBatchCannotBeSent", func(t *testing.T) {
			batchID := openBatch(t)
			_, err := flow.SendBatch(ctx, &dto.SendBatchRequest{BatchID: batchID}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsBatchEmpty(err))
		})

		t.Run("CheckedOutGaugeCannotJoinBatch", func(t *testing.T) {
			batchID := openBatch(t)
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true,
				testingutil.WithStatus(models.GaugeStatusCheckedOut))
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  batchID,
				GaugeIDs: []uint{gauge.ID},
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeCheckedOut(err))
		})

		t.Run("GaugeCannotBeInTwoBatches", func(t *testing.T) {
			firstBatch := openBatch(t)
			secondBatch := openBatch(t)
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  firstBatch,
				GaugeIDs: []uint{gauge.ID},
			}, user.ID, testMetadata())
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  secondBatch,
				GaugeIDs: []uint{gauge.ID},
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.Equal(t, "BATCH_CONFLICT", ErrorCode(err))
		})

		t.Run("UnsentBatchCannotReceive", func(t *testing.T) {
			batchID := openBatch(t)
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.ReceiveGauge(ctx, &dto.ReceiveGaugeRequest{
				BatchID: batchID,
				GaugeID: gauge.ID,
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsBatchNotSent(err))
		})

		t.Run("ReceivingForeignGaugeFails", func(t *testing.T) {
			batchID := openBatch(t)
			member, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)
			outsider, err := fixtures.CreateSpareGauge(category.ID, user.ID, false)
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  batchID,
				GaugeIDs: []uint{member.ID},
			}, user.ID, testMetadata())
			require.NoError(t, err)
			_, err = flow.SendBatch(ctx, &dto.SendBatchRequest{BatchID: batchID}, user.ID, testMetadata())
			require.NoError(t, err)

			_, err = flow.ReceiveGauge(ctx, &dto.ReceiveGaugeRequest{
				BatchID: batchID,
				GaugeID: outsider.ID,
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeNotInBatch(err))
		})

		t.Run("CancelReleasesGauges", func(t *testing.T) {
			batchID := openBatch(t)
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  batchID,
				GaugeIDs: []uint{gauge.ID},
			}, user.ID, testMetadata())
			require.NoError(t, err)

			cancelled, err := flow.CancelBatch(ctx, &dto.CancelBatchRequest{BatchID: batchID}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, models.CalibrationBatchStatusCancelled.String(), cancelled.Status)

			stored, err := gaugeRepo.ByID(ctx, gauge.ID)
			require.NoError(t, err)
			assert.Nil(t, stored.CalibrationBatchID)
		})

		t.Run("SentBatchCannotBeCancelled", func(t *testing.T) {
			batchID := openBatch(t)
			gauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.AddGauges(ctx, &dto.AddGaugesToBatchRequest{
				BatchID:  batchID,
				GaugeIDs: []uint{gauge.ID},
			}, user.ID, testMetadata())
			require.NoError(t, err)
			_, err = flow.SendBatch(ctx, &dto.SendBatchRequest{BatchID: batchID}, user.ID, testMetadata())
			require.NoError(t, err)

			_, err = flow.CancelBatch(ctx, &dto.CancelBatchRequest{BatchID: batchID}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsInvalidBatchTransition(err))
		})

		return nil
	})
	require.NoError(t, err)
}
