package store

import (
	"context"
	"sync"
	"time"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/ports"
)

// MemoryNonceStore is an in-memory implementation of the NonceStore interface
type MemoryNonceStore struct {
	challenges map[string]*core.Challenge
	mu         sync.Mutex
	now        func() time.Time
}

// NewMemoryNonceStore creates a new in-memory nonce store
func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		challenges: make(map[string]*core.Challenge),
		now:        time.Now,
	}
}

// Put stores a challenge, overwriting any prior one for the address
func (s *MemoryNonceStore) Put(ctx context.Context, challenge *core.Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *challenge
	s.challenges[c.Address] = &c
	return nil
}

// Consume checks and removes the stored nonce in one critical section, so two
// concurrent verification attempts cannot both redeem the same nonce.
func (s *MemoryNonceStore) Consume(ctx context.Context, address, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[address]
	if !ok || challenge.Nonce != nonce {
		return core.ErrNonceReplayed
	}
	if challenge.Expired(s.now()) {
		delete(s.challenges, address)
		return core.ErrNonceExpired
	}

	delete(s.challenges, address)
	return nil
}

// MemoryIdentityStore is an in-memory implementation of the IdentityStore interface
type MemoryIdentityStore struct {
	identities map[string]*core.Identity
	mu         sync.Mutex
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{identities: make(map[string]*core.Identity)}
}

func (s *MemoryIdentityStore) GetOrCreate(ctx context.Context, address string, create func() *core.Identity) (*core.Identity, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity, ok := s.identities[address]; ok {
		c := *identity
		return &c, false, nil
	}

	identity := create()
	s.identities[address] = identity
	c := *identity
	return &c, true, nil
}

func (s *MemoryIdentityStore) Get(ctx context.Context, address string) (*core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[address]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}
	c := *identity
	return &c, nil
}

// MemoryRewardStore keeps fungible reward accounts in memory. Updates for the
// same address are serialized by the store mutex, which is what makes the
// check-then-mint sequences of the reward service indivisible.
type MemoryRewardStore struct {
	accounts map[string]*core.RewardAccount
	mu       sync.Mutex
}

func NewMemoryRewardStore() *MemoryRewardStore {
	return &MemoryRewardStore{accounts: make(map[string]*core.RewardAccount)}
}

func (s *MemoryRewardStore) Get(ctx context.Context, address string) (*core.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *s.account(address)
	return &c, nil
}

// Update runs fn on the account under the store lock. A non-nil error from fn
// discards the mutation entirely.
func (s *MemoryRewardStore) Update(ctx context.Context, address string, fn func(*core.RewardAccount) error) (*core.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.account(address)
	scratch := *account
	if err := fn(&scratch); err != nil {
		return nil, err
	}

	*account = scratch
	c := scratch
	return &c, nil
}

func (s *MemoryRewardStore) account(address string) *core.RewardAccount {
	account, ok := s.accounts[address]
	if !ok {
		account = &core.RewardAccount{Address: address}
		s.accounts[address] = account
	}
	return account
}

// MemoryConditionStore keeps per-address condition ledger state in memory.
type MemoryConditionStore struct {
	accounts map[string]*core.HealthAccount
	mu       sync.Mutex
}

func NewMemoryConditionStore() *MemoryConditionStore {
	return &MemoryConditionStore{accounts: make(map[string]*core.HealthAccount)}
}

func (s *MemoryConditionStore) Get(ctx context.Context, address string) (*core.HealthAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshotHealth(s.account(address)), nil
}

func (s *MemoryConditionStore) Update(ctx context.Context, address string, fn func(*core.HealthAccount) error) (*core.HealthAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.account(address)
	scratch := snapshotHealth(account)
	if err := fn(scratch); err != nil {
		return nil, err
	}

	*account = *snapshotHealth(scratch)
	return snapshotHealth(account), nil
}

func (s *MemoryConditionStore) account(address string) *core.HealthAccount {
	account, ok := s.accounts[address]
	if !ok {
		account = &core.HealthAccount{Address: address}
		s.accounts[address] = account
	}
	return account
}

func snapshotHealth(a *core.HealthAccount) *core.HealthAccount {
	c := *a
	c.History = append([]core.HealthRecord(nil), a.History...)
	return &c
}

// MemoryAchievementStore keeps achievements, sales and payout balances in
// memory. Token ids are assigned monotonically starting at 1.
type MemoryAchievementStore struct {
	achievements map[uint64]*core.Achievement
	sales        []core.SaleRecord
	payouts      map[string]int64
	nextTokenID  uint64
	mu           sync.Mutex
}

func NewMemoryAchievementStore() *MemoryAchievementStore {
	return &MemoryAchievementStore{
		achievements: make(map[uint64]*core.Achievement),
		payouts:      make(map[string]int64),
		nextTokenID:  1,
	}
}

func (s *MemoryAchievementStore) Mint(ctx context.Context, a *core.Achievement) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.TokenID = s.nextTokenID
	s.nextTokenID++

	c := *a
	s.achievements[c.TokenID] = &c
	return c.TokenID, nil
}

func (s *MemoryAchievementStore) Get(ctx context.Context, tokenID uint64) (*core.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.achievements[tokenID]
	if !ok {
		return nil, core.ErrUnknownToken
	}
	c := *a
	return &c, nil
}

// RecordSale stores the sale and applies both payout legs inside one critical
// section, so a failed lookup leaves no partial transfer behind.
func (s *MemoryAchievementStore) RecordSale(ctx context.Context, sale *core.SaleRecord, charity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.achievements[sale.TokenID]
	if !ok {
		return core.ErrUnknownToken
	}

	s.sales = append(s.sales, *sale)
	s.payouts[a.Recipient] += sale.SellerPayout
	s.payouts[charity] += sale.Royalty
	return nil
}

// Payout returns the accumulated proceeds credited to a recipient.
func (s *MemoryAchievementStore) Payout(ctx context.Context, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payouts[recipient], nil
}

var _ ports.NonceStore = (*MemoryNonceStore)(nil)
var _ ports.IdentityStore = (*MemoryIdentityStore)(nil)
var _ ports.RewardStore = (*MemoryRewardStore)(nil)
var _ ports.ConditionStore = (*MemoryConditionStore)(nil)
var _ ports.AchievementStore = (*MemoryAchievementStore)(nil)
