package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aegle-health/aegle/core"
)

const testAddress = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

func TestMemoryRewardStore_UpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRewardStore()

	_, err := s.Update(ctx, testAddress, func(a *core.RewardAccount) error {
		a.Balance += 100
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, testAddress, func(a *core.RewardAccount) error {
		a.Balance += 1000
		a.LastExerciseDate = "2025-06-01"
		return boom
	})
	require.ErrorIs(t, err, boom)

	// The failed update left nothing behind.
	account, err := s.Get(ctx, testAddress)
	require.NoError(t, err)
	require.Equal(t, int64(100), account.Balance)
	require.Empty(t, account.LastExerciseDate)
}

func TestMemoryConditionStore_SnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryConditionStore()

	_, err := s.Update(ctx, testAddress, func(a *core.HealthAccount) error {
		a.History = append(a.History, core.HealthRecord{Tier: core.TierNormal})
		return nil
	})
	require.NoError(t, err)

	snapshot, err := s.Get(ctx, testAddress)
	require.NoError(t, err)
	snapshot.History[0].Tier = core.TierSevere
	snapshot.Balance = 999

	fresh, err := s.Get(ctx, testAddress)
	require.NoError(t, err)
	require.Equal(t, core.TierNormal, fresh.History[0].Tier)
	require.Zero(t, fresh.Balance)
}

func TestMemoryNonceStore_ExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryNonceStore()

	challenge := &core.Challenge{
		Address:   testAddress,
		Nonce:     "abc",
		IssuedAt:  time.Now().Add(-10 * time.Minute),
		ExpiresAt: time.Now().Add(-5 * time.Minute),
	}
	require.NoError(t, s.Put(ctx, challenge, 5*time.Minute))

	require.ErrorIs(t, s.Consume(ctx, testAddress, "abc"), core.ErrNonceExpired)
	// The expired challenge is gone, a retry reports replay.
	require.ErrorIs(t, s.Consume(ctx, testAddress, "abc"), core.ErrNonceReplayed)
}

func TestMemoryAchievementStore_TokenIDsStartAtOne(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAchievementStore()

	first, err := s.Mint(ctx, &core.Achievement{Recipient: testAddress})
	require.NoError(t, err)
	require.EqualValues(t, 1, first)

	second, err := s.Mint(ctx, &core.Achievement{Recipient: testAddress})
	require.NoError(t, err)
	require.EqualValues(t, 2, second)

	_, err = s.Get(ctx, 99)
	require.ErrorIs(t, err, core.ErrUnknownToken)
}
