package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/adapters/store"
	"github.com/aegle-health/aegle/core"
)

const testAddress = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

func newTestRegistry(t *testing.T) *NonceRegistry {
	t.Helper()
	return NewNonceRegistry(store.NewMemoryNonceStore(), zap.NewNop())
}

func TestNonceRegistry_IssueAndConsume(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	challenge, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Nonce)
	require.Contains(t, challenge.Message, testAddress)
	require.Contains(t, challenge.Message, challenge.Nonce)

	require.NoError(t, registry.Consume(ctx, testAddress, challenge.Nonce))
}

func TestNonceRegistry_RejectsInvalidAddress(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Issue(context.Background(), "not-an-address")
	require.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestNonceRegistry_ConsumeTwiceFails(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	challenge, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)

	require.NoError(t, registry.Consume(ctx, testAddress, challenge.Nonce))
	require.ErrorIs(t, registry.Consume(ctx, testAddress, challenge.Nonce), core.ErrNonceReplayed)
}

func TestNonceRegistry_WrongNonceFails(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	_, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)

	require.ErrorIs(t, registry.Consume(ctx, testAddress, "deadbeef"), core.ErrNonceReplayed)
}

func TestNonceRegistry_ExpiredNonce(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)
	registry.ttl = -time.Minute

	challenge, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)

	require.ErrorIs(t, registry.Consume(ctx, testAddress, challenge.Nonce), core.ErrNonceExpired)
}

func TestNonceRegistry_ReissueOverwrites(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	first, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)
	second, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)
	require.NotEqual(t, first.Nonce, second.Nonce)

	require.ErrorIs(t, registry.Consume(ctx, testAddress, first.Nonce), core.ErrNonceReplayed)
	require.NoError(t, registry.Consume(ctx, testAddress, second.Nonce))
}

func TestNonceRegistry_ConcurrentConsumeSingleWinner(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t)

	challenge, err := registry.Issue(ctx, testAddress)
	require.NoError(t, err)

	const attempts = 16
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			results <- registry.Consume(ctx, testAddress, challenge.Nonce)
		}()
	}

	var wins int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, core.ErrNonceReplayed)
		}
	}
	require.Equal(t, 1, wins)
}

func TestParseChallengeMessage(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	message := BuildChallengeMessage(testAddress, "abc123", issued)

	address, nonce, err := ParseChallengeMessage(message)
	require.NoError(t, err)
	require.Equal(t, testAddress, address)
	require.Equal(t, "abc123", nonce)
}

func TestParseChallengeMessage_Malformed(t *testing.T) {
	_, _, err := ParseChallengeMessage("arbitrary text")
	require.ErrorIs(t, err, core.ErrInvalidChallenge)

	_, _, err = ParseChallengeMessage("aegle.health wants you to sign in with your wallet account:\nnot-an-address\n\nNonce: x")
	require.ErrorIs(t, err, core.ErrInvalidChallenge)
}
