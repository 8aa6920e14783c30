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
	"github.com/gaugetrack/gaugetrack/utils"
)

func skipWithoutDB(t *testing.T) {
	t.Helper()
	if !testingutil.DBAvailable() {
		t.Skip("PostgreSQL is not available")
	}
}

func newSetFlow(testDB *testingutil.TestDB, policy CascadePolicy) (SetLifecycleFlow, repository.GaugeRepository, repository.CompanionHistoryRepository) {
	gaugeRepo := repository.NewGaugeRepository(testDB.DB)
	historyRepo := repository.NewCompanionHistoryRepository(testDB.DB)
	sequenceRepo := repository.NewSequenceCounterRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)
	resolver := NewCascadeResolver(gaugeRepo, policy)
	flow := NewSetLifecycleFlow(gaugeRepo, historyRepo, sequenceRepo, auditRepo, resolver, testDB.DB)
	return flow, gaugeRepo, historyRepo
}

func testMetadata() *ClientMetadata {
	return &ClientMetadata{IPAddress: "192.0.2.10", UserAgent: "go-test"}
}

func createSetRequest(categoryID uint, serialSuffix string) *dto.CreateSetRequest {
	return &dto.CreateSetRequest{
		Go: dto.CreateGaugeInput{
			SerialNumber:  "SN-GO-" + serialSuffix,
			EquipmentType: "thread_gauge",
			CategoryID:    categoryID,
			ThreadSize:    "1/2",
			ThreadClass:   "2B",
			ThreadType:    "UNC",
			IsGoGauge:     true,
			OwnershipType: "company",
		},
		NoGo: dto.CreateGaugeInput{
			SerialNumber:  "SN-NOGO-" + serialSuffix,
			EquipmentType: "thread_gauge",
			CategoryID:    categoryID,
			ThreadSize:    "1/2",
			ThreadClass:   "2B",
			ThreadType:    "UNC",
			IsGoGauge:     false,
			OwnershipType: "company",
		},
		StorageLocation: "Cabinet A3",
	}
}

func TestCreateSet(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo, historyRepo := newSetFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("FirstSetGetsSP1001", func(t *testing.T) {
			resp, err := flow.CreateSet(ctx, createSetRequest(category.ID, "0001"), user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "SP1001", resp.BaseID)
			require.NotNil(t, resp.Set.Go.SystemGaugeID)
			assert.Equal(t, "SP1001A", *resp.Set.Go.SystemGaugeID)
			require.NotNil(t, resp.Set.NoGo.SystemGaugeID)
			assert.Equal(t, "SP1001B", *resp.Set.NoGo.SystemGaugeID)
			assert.Equal(t, "0.500", resp.Set.Go.ThreadSize, "thread size is normalized")
			assert.Equal(t, "Cabinet A3", resp.Set.Go.StorageLocation)

			rows, err := historyRepo.ListByGauge(ctx, resp.Set.Go.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, models.CompanionActionCreatedTogether, rows[0].Action)
		})

		t.Run("BaseIDIsSequential", func(t *testing.T) {
			resp, err := flow.CreateSet(ctx, createSetRequest(category.ID, "0002"), user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "SP1002", resp.BaseID)
		})

		t.Run("DuplicateSerialFails", func(t *testing.T) {
			req := createSetRequest(category.ID, "0003")
			req.Go.SerialNumber = "SN-GO-0001"
			_, err := flow.CreateSet(ctx, req, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsSerialNumberExists(err))
		})

		t.Run("SpecMismatchFails", func(t *testing.T) {
			req := createSetRequest(category.ID, "0004")
			req.NoGo.ThreadClass = "3B"
			_, err := flow.CreateSet(ctx, req, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsSpecMismatch(err))
		})

		t.Run("BadThreadSizeFails", func(t *testing.T) {
			req := createSetRequest(category.ID, "0005")
			req.Go.ThreadSize = "half"
			req.NoGo.ThreadSize = "half"
			_, err := flow.CreateSet(ctx, req, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsInvalidThreadFormat(err))
		})

		t.Run("SwappedRolesAreReoriented", func(t *testing.T) {
			req := createSetRequest(category.ID, "0006")
			req.Go, req.NoGo = req.NoGo, req.Go
			resp, err := flow.CreateSet(ctx, req, user.ID, testMetadata())
			require.NoError(t, err)
			assert.True(t, resp.Set.Go.IsGoGauge)
			assert.False(t, resp.Set.NoGo.IsGoGauge)

			stored, err := gaugeRepo.ByID(ctx, resp.Set.Go.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.SystemGaugeID)
			assert.True(t, strings.HasSuffix(*stored.SystemGaugeID, models.SystemGaugeIDSuffixGo))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPairSpareGauges(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo, historyRepo := newSetFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		t.Run("PairsAndCascadesLocation", func(t *testing.T) {
			goGauge, noGoGauge, err := fixtures.CreateSparePair(category.ID, user.ID,
				testingutil.WithLocation("Shelf 9"))
			require.NoError(t, err)

			resp, err := flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
				SetLocation: "Cabinet B1",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, resp.BaseID)
			require.NotNil(t, resp.Set.Go.SystemGaugeID)
			assert.Equal(t, resp.BaseID+"A", *resp.Set.Go.SystemGaugeID)
			require.NotNil(t, resp.Set.NoGo.SystemGaugeID)
			assert.Equal(t, resp.BaseID+"B", *resp.Set.NoGo.SystemGaugeID)

			// Both members moved to the set location.
			for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
				stored, err := gaugeRepo.ByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, "Cabinet B1", stored.StorageLocation)
			}

			rows, err := historyRepo.ListByGauge(ctx, goGauge.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, models.CompanionActionPairedFromSpares, rows[0].Action)
		})

		t.Run("LocationRequired", func(t *testing.T) {
			goGauge, noGoGauge, err := fixtures.CreateSparePair(category.ID, user.ID)
			require.NoError(t, err)

			_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsLocationRequired(err))
		})

		t.Run("PendingQCGaugeCannotPair", func(t *testing.T) {
			goGauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true,
				testingutil.WithStatus(models.GaugeStatusPendingQC))
			require.NoError(t, err)
			noGoGauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, false)
			require.NoError(t, err)

			_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
				SetLocation: "Cabinet B2",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugePendingQC(err))
		})

		t.Run("AlreadyPairedGaugeCannotPairAgain", func(t *testing.T) {
			goGauge, noGoGauge, err := fixtures.CreateSparePair(category.ID, user.ID)
			require.NoError(t, err)
			_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
				SetLocation: "Cabinet B3",
			}, user.ID, testMetadata())
			require.NoError(t, err)

			extra, err := fixtures.CreateSpareGauge(category.ID, user.ID, false)
			require.NoError(t, err)
			_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: extra.ID,
				SetLocation: "Cabinet B3",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeNotSpare(err))
		})

		t.Run("TwoGoGaugesFail", func(t *testing.T) {
			first, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)
			second, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   first.ID,
				NoGoGaugeID: second.ID,
				SetLocation: "Cabinet B4",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsRoleMismatch(err))
		})

		t.Run("SpecMismatchFails", func(t *testing.T) {
			goGauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)
			noGoGauge, err := fixtures.CreateSpareGauge(category.ID, user.ID, false,
				testingutil.WithThreadSpec("0.250", "2B", "UNC"))
			require.NoError(t, err)

			_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
				SetLocation: "Cabinet B5",
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsSpecMismatch(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUnpairSet(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo, historyRepo := newSetFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		pairUp := func(t *testing.T) (*dto.PairSparesResponse, uint, uint) {
			t.Helper()
			goGauge, noGoGauge, err := fixtures.CreateSparePair(category.ID, user.ID)
			require.NoError(t, err)
			resp, err := flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
				SetLocation: "Cabinet C1",
			}, user.ID, testMetadata())
			require.NoError(t, err)
			return resp, goGauge.ID, noGoGauge.ID
		}

		t.Run("UnpairByEitherMember", func(t *testing.T) {
			resp, goID, noGoID := pairUp(t)

			out, err := flow.UnpairSet(ctx, &dto.UnpairSetRequest{
				GaugeID: noGoID,
				Reason:  utils.ToPtr("worn NO-GO member"),
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, noGoID, out.Initiator.ID, "initiator comes back first")
			assert.Equal(t, goID, out.Companion.ID)

			for _, id := range []uint{goID, noGoID} {
				stored, err := gaugeRepo.ByID(ctx, id)
				require.NoError(t, err)
				assert.True(t, stored.IsSpare())
				assert.Nil(t, stored.SystemGaugeID)
			}

			// The unpair row captures the dissolved set's base ID even though
			// the link is gone afterwards.
			rows, err := historyRepo.ListByGauge(ctx, goID, 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			unpair := rows[0]
			if unpair.Action != models.CompanionActionUnpaired {
				unpair = rows[1]
			}
			assert.Equal(t, models.CompanionActionUnpaired, unpair.Action)
			assert.Equal(t, goID, unpair.GoGaugeID)
			assert.Equal(t, noGoID, unpair.NoGoGaugeID)
			assert.Contains(t, string(unpair.Metadata), resp.BaseID)
		})

		t.Run("UnpairSpareFails", func(t *testing.T) {
			spare, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.UnpairSet(ctx, &dto.UnpairSetRequest{GaugeID: spare.ID}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsCompanionNotFound(err))
		})

		t.Run("UnknownGaugeFails", func(t *testing.T) {
			_, err := flow.UnpairSet(ctx, &dto.UnpairSetRequest{GaugeID: 999999}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestReplaceCompanion(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo, _ := newSetFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		pairUp := func(t *testing.T, location string) (string, uint, uint) {
			t.Helper()
			goGauge, noGoGauge, err := fixtures.CreateSparePair(category.ID, user.ID)
			require.NoError(t, err)
			resp, err := flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
				GoGaugeID:   goGauge.ID,
				NoGoGaugeID: noGoGauge.ID,
				SetLocation: location,
			}, user.ID, testMetadata())
			require.NoError(t, err)
			return resp.BaseID, goGauge.ID, noGoGauge.ID
		}

		t.Run("KeepsBaseIDAndInheritsLocation", func(t *testing.T) {
			baseID, goID, noGoID := pairUp(t, "Cabinet D1")
			replacement, err := fixtures.CreateSpareGauge(category.ID, user.ID, false,
				testingutil.WithLocation("Shelf 2"))
			require.NoError(t, err)

			resp, err := flow.ReplaceCompanion(ctx, &dto.ReplaceCompanionRequest{
				ExistingGaugeID: goID,
				NewCompanionID:  replacement.ID,
				Reason:          utils.ToPtr("NO-GO member failed inspection"),
			}, user.ID, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, baseID, resp.BaseID, "the set keeps its base ID")
			assert.Equal(t, replacement.ID, resp.Set.NoGo.ID)
			assert.Equal(t, noGoID, resp.FormerCompanion.ID)

			newMember, err := gaugeRepo.ByID(ctx, replacement.ID)
			require.NoError(t, err)
			assert.Equal(t, "Cabinet D1", newMember.StorageLocation, "replacement inherits the set location")
			require.NotNil(t, newMember.SystemGaugeID)
			assert.Equal(t, baseID+"B", *newMember.SystemGaugeID)

			former, err := gaugeRepo.ByID(ctx, noGoID)
			require.NoError(t, err)
			assert.True(t, former.IsSpare())
			assert.Nil(t, former.SystemGaugeID)
		})

		t.Run("CheckedOutMemberBlocksReplacement", func(t *testing.T) {
			_, goID, noGoID := pairUp(t, "Cabinet D2")
			require.NoError(t, testDB.DB.Model(&models.Gauge{}).
				Where("id = ?", noGoID).
				Update("status", models.GaugeStatusCheckedOut).Error)

			replacement, err := fixtures.CreateSpareGauge(category.ID, user.ID, false)
			require.NoError(t, err)

			_, err = flow.ReplaceCompanion(ctx, &dto.ReplaceCompanionRequest{
				ExistingGaugeID: goID,
				NewCompanionID:  replacement.ID,
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeCheckedOut(err))

			// The original pair is untouched.
			stored, err := gaugeRepo.ByID(ctx, goID)
			require.NoError(t, err)
			require.NotNil(t, stored.CompanionGaugeID)
			assert.Equal(t, noGoID, *stored.CompanionGaugeID)
		})

		t.Run("ReplacementMustBeSpare", func(t *testing.T) {
			_, goID, _ := pairUp(t, "Cabinet D3")
			_, otherGoID, _ := pairUp(t, "Cabinet D4")

			_, err := flow.ReplaceCompanion(ctx, &dto.ReplaceCompanionRequest{
				ExistingGaugeID: goID,
				NewCompanionID:  otherGoID,
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsGaugeNotSpare(err))
		})

		t.Run("SameRoleReplacementFails", func(t *testing.T) {
			_, goID, _ := pairUp(t, "Cabinet D5")
			replacement, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
			require.NoError(t, err)

			_, err = flow.ReplaceCompanion(ctx, &dto.ReplaceCompanionRequest{
				ExistingGaugeID: goID,
				NewCompanionID:  replacement.ID,
			}, user.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, IsRoleMismatch(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestFindSpareGaugesAndSetByGaugeID(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _, _ := newSetFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		spareGo, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
		require.NoError(t, err)
		_, err = fixtures.CreateSpareGauge(category.ID, user.ID, false)
		require.NoError(t, err)

		goGauge, noGoGauge, err := fixtures.CreateSparePair(category.ID, user.ID)
		require.NoError(t, err)
		_, err = flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
			GoGaugeID:   goGauge.ID,
			NoGoGaugeID: noGoGauge.ID,
			SetLocation: "Cabinet E1",
		}, user.ID, testMetadata())
		require.NoError(t, err)

		t.Run("FindSparesExcludesPaired", func(t *testing.T) {
			spares, err := flow.FindSpareGauges(ctx, &dto.FindSparesRequest{CategoryID: category.ID})
			require.NoError(t, err)
			assert.Len(t, spares, 2)
		})

		t.Run("FindSparesByRole", func(t *testing.T) {
			spares, err := flow.FindSpareGauges(ctx, &dto.FindSparesRequest{
				CategoryID: category.ID,
				IsGoGauge:  utils.ToPtr(true),
			})
			require.NoError(t, err)
			require.Len(t, spares, 1)
			assert.Equal(t, spareGo.ID, spares[0].ID)
		})

		t.Run("FindSparesRejectsUnknownStatus", func(t *testing.T) {
			_, err := flow.FindSpareGauges(ctx, &dto.FindSparesRequest{Status: "bogus"})
			require.Error(t, err)
		})

		t.Run("SetByEitherMemberID", func(t *testing.T) {
			for _, id := range []uint{goGauge.ID, noGoGauge.ID} {
				set, err := flow.SetByGaugeID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, goGauge.ID, set.Go.ID)
				assert.Equal(t, noGoGauge.ID, set.NoGo.ID)
				assert.Equal(t, models.GaugeStatusAvailable.String(), set.SetStatus)
				assert.Equal(t, models.SealStatusUnsealed.String(), set.SealStatus)
			}
		})

		t.Run("SetForSpareFails", func(t *testing.T) {
			_, err := flow.SetByGaugeID(ctx, spareGo.ID)
			require.Error(t, err)
			assert.True(t, IsCompanionNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestConcurrentPairingClaimsSpareOnce(t *testing.T) {
	skipWithoutDB(t)

	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, gaugeRepo, _ := newSetFlow(testDB, DefaultCascadePolicy())
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser("operator")
		require.NoError(t, err)
		category, err := fixtures.CreateTestCategory("thread_plug_unc")
		require.NoError(t, err)

		firstGo, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
		require.NoError(t, err)
		secondGo, err := fixtures.CreateSpareGauge(category.ID, user.ID, true)
		require.NoError(t, err)
		sharedNoGo, err := fixtures.CreateSpareGauge(category.ID, user.ID, false)
		require.NoError(t, err)

		results := make(chan error, 2)
		for _, goID := range []uint{firstGo.ID, secondGo.ID} {
			go func(goID uint) {
				_, err := flow.PairSpareGauges(ctx, &dto.PairSparesRequest{
					GoGaugeID:   goID,
					NoGoGaugeID: sharedNoGo.ID,
					SetLocation: "Cabinet R1",
				}, user.ID, testMetadata())
				results <- err
			}(goID)
		}

		var successes, failures int
		for i := 0; i < 2; i++ {
			if err := <-results; err != nil {
				failures++
			} else {
				successes++
			}
		}
		assert.Equal(t, 1, successes, "exactly one pairing must win the shared spare")
		assert.Equal(t, 1, failures)

		// The shared NO-GO belongs to exactly one winner, symmetrically.
		noGo, err := gaugeRepo.ByID(ctx, sharedNoGo.ID)
		require.NoError(t, err)
		require.NotNil(t, noGo.CompanionGaugeID)
		winner, err := gaugeRepo.ByID(ctx, *noGo.CompanionGaugeID)
		require.NoError(t, err)
		require.NotNil(t, winner.CompanionGaugeID)
		assert.Equal(t, noGo.ID, *winner.CompanionGaugeID)

		// The loser's GO gauge stays a spare.
		linked := 0
		for _, id := range []uint{firstGo.ID, secondGo.ID} {
			g, err := gaugeRepo.ByID(ctx, id)
			require.NoError(t, err)
			if g.CompanionGaugeID != nil {
				linked++
				assert.Equal(t, winner.ID, g.ID)
			} else {
				assert.Nil(t, g.SystemGaugeID)
			}
		}
		assert.Equal(t, 1, linked)

		return nil
	})
	require.NoError(t, err)
}
