package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/adapters/events"
	"github.com/aegle-health/aegle/adapters/store"
	"github.com/aegle-health/aegle/core"
)

const charityAddress = "0x281055afc982d96fAB65b3a49cAc8b878184cb16"

func newTestAchievementService(t *testing.T) (*AchievementService, *store.MemoryAchievementStore, *core.LedgerState) {
	t.Helper()
	achievements := store.NewMemoryAchievementStore()
	state := core.NewLedgerState()
	svc := NewAchievementService(
		achievements,
		state,
		events.NopPublisher{},
		charityAddress,
		DefaultCharitySplitPercent,
		zap.NewNop(),
	)
	return svc, achievements, state
}

func TestAchievementService_MintAssignsMonotonicTokenIDs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAchievementService(t)
	controller := controllerSession(testAddress)

	var prev uint64
	for i := 0; i < 3; i++ {
		a, err := svc.MintAchievement(ctx, controller, testAddress, 0, "ipfs://meta")
		require.NoError(t, err)
		require.Greater(t, a.TokenID, prev)
		prev = a.TokenID
	}

	got, err := svc.Achievement(ctx, prev)
	require.NoError(t, err)
	require.Equal(t, testAddress, got.Recipient)
	require.Equal(t, "ipfs://meta", got.MetadataRef)
}

func TestAchievementService_MintRequiresController(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAchievementService(t)

	_, err := svc.MintAchievement(ctx, minterSession(testAddress), testAddress, 0, "ipfs://meta")
	require.ErrorIs(t, err, core.ErrInsufficientRole)
}

func TestAchievementService_MintBlockedWhilePaused(t *testing.T) {
	ctx := context.Background()
	svc, _, state := newTestAchievementService(t)
	state.SetPaused(true)

	_, err := svc.MintAchievement(ctx, controllerSession(testAddress), testAddress, 0, "ipfs://meta")
	require.ErrorIs(t, err, core.ErrPaused)
}

func TestAchievementService_RecordSaleSplitsProceeds(t *testing.T) {
	ctx := context.Background()
	svc, achievements, _ := newTestAchievementService(t)
	controller := controllerSession(testAddress)

	minted, err := svc.MintAchievement(ctx, controller, testAddress, 1, "ipfs://meta")
	require.NoError(t, err)

	sale, err := svc.RecordSale(ctx, controller, minted.TokenID, 100)
	require.NoError(t, err)
	require.Equal(t, int64(10), sale.Royalty)
	require.Equal(t, int64(90), sale.SellerPayout)

	sellerPayout, err := achievements.Payout(ctx, testAddress)
	require.NoError(t, err)
	require.Equal(t, int64(90), sellerPayout)
	charityPayout, err := achievements.Payout(ctx, charityAddress)
	require.NoError(t, err)
	require.Equal(t, int64(10), charityPayout)
}

func TestAchievementService_RecordSaleUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAchievementService(t)

	_, err := svc.RecordSale(ctx, controllerSession(testAddress), 42, 100)
	require.ErrorIs(t, err, core.ErrUnknownToken)
}

func TestCharityRoyalty_NoRoundingLeak(t *testing.T) {
	// royalty + seller payout must reconstruct the price exactly for every
	// price in the range, with the royalty rounding down.
	for price := int64(1); price <= 10_000; price++ {
		royalty := CharityRoyalty(price, DefaultCharitySplitPercent)
		payout := price - royalty
		require.Equal(t, price, royalty+payout)
		require.Equal(t, price*DefaultCharitySplitPercent/100, royalty, "price %d", price)
		require.GreaterOrEqual(t, royalty, int64(0))
		require.LessOrEqual(t, royalty, price)
	}
}
