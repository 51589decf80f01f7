package ports

import (
	"context"
	"time"

	"github.com/aegle-health/aegle/core"
)

// NonceStore keeps at most one unconsumed challenge per address.
type NonceStore interface {
	// Put stores a challenge for the address with a TTL, overwriting any
	// prior unconsumed challenge for the same address.
	Put(ctx context.Context, challenge *core.Challenge, ttl time.Duration) error

	// Consume atomically checks that the stored nonce for the address
	// matches, is unexpired, and removes it in one step. It returns
	// core.ErrNonceExpired or core.ErrNonceReplayed on failure.
	Consume(ctx context.Context, address, nonce string) error
}

// IdentityStore persists wallet identities.
type IdentityStore interface {
	// GetOrCreate returns the identity for the address, creating it when it
	// does not exist yet. The second result reports whether it was created.
	GetOrCreate(ctx context.Context, address string, create func() *core.Identity) (*core.Identity, bool, error)

	Get(ctx context.Context, address string) (*core.Identity, error)
}

// RewardStore persists fungible reward accounts. Update runs fn under the
// store's per-address lock; a non-nil error from fn aborts the update and
// leaves the account unchanged.
type RewardStore interface {
	Get(ctx context.Context, address string) (*core.RewardAccount, error)
	Update(ctx context.Context, address string, fn func(*core.RewardAccount) error) (*core.RewardAccount, error)
}

// ConditionStore persists per-address condition ledger state. Update has the
// same all-or-nothing contract as RewardStore.Update.
type ConditionStore interface {
	Get(ctx context.Context, address string) (*core.HealthAccount, error)
	Update(ctx context.Context, address string, fn func(*core.HealthAccount) error) (*core.HealthAccount, error)
}

// AchievementStore persists achievement records and their sales.
type AchievementStore interface {
	// Mint assigns the next monotonically increasing token id, fills it into
	// the record and stores it.
	Mint(ctx context.Context, a *core.Achievement) (uint64, error)

	Get(ctx context.Context, tokenID uint64) (*core.Achievement, error)

	// RecordSale stores the sale and credits the seller payout to the token
	// holder and the royalty to the charity recipient, all atomically.
	// It returns core.ErrUnknownToken when the token does not exist.
	RecordSale(ctx context.Context, sale *core.SaleRecord, charity string) error

	// Payout returns the accumulated proceeds credited to a recipient.
	Payout(ctx context.Context, recipient string) (int64, error)
}
