package core

import (
	"sync"
	"time"
)

// ConditionTier is the severity classification of a reported health condition.
type ConditionTier uint8

const (
	TierNormal ConditionTier = iota
	TierMild
	TierSevere
)

func (t ConditionTier) String() string {
	switch t {
	case TierMild:
		return "mild"
	case TierSevere:
		return "severe"
	default:
		return "normal"
	}
}

// ParseConditionTier parses the wire representation of a tier.
func ParseConditionTier(s string) (ConditionTier, bool) {
	switch s {
	case "normal":
		return TierNormal, true
	case "mild":
		return TierMild, true
	case "severe":
		return TierSevere, true
	}
	return TierNormal, false
}

// DiscountTier is a discrete doctor-visit discount level, in percent.
type DiscountTier uint8

const (
	DiscountNone   DiscountTier = 0
	DiscountBronze DiscountTier = 5
	DiscountSilver DiscountTier = 10
	DiscountGold   DiscountTier = 20
)

// RewardAccount holds the fungible credit state for one address.
type RewardAccount struct {
	Address          string
	Balance          int64
	TotalMinted      int64
	LastExerciseDate string // calendar day in the ledger's reference timezone, "2006-01-02"
}

// HealthRecord is one reported condition. Records are immutable once written
// and ordered by timestamp.
type HealthRecord struct {
	Address    string
	Tier       ConditionTier
	Confidence uint8 // 0..100, stored but not used to scale the minted amount
	Amount     int64 // credits minted for this record, zero for severe findings
	ReportedAt time.Time
}

// HealthStatistics are per-address counts by tier, maintained incrementally
// alongside each history append.
type HealthStatistics struct {
	TotalTests  int
	NormalCount int
	MildCount   int
	SevereCount int
}

// HealthAccount is the per-address state of the condition ledger.
type HealthAccount struct {
	Address string
	Balance int64
	History []HealthRecord
	Stats   HealthStatistics
}

// Achievement is a unique, non-fungible record. Token ids are assigned
// monotonically and the record is immutable after mint.
type Achievement struct {
	TokenID     uint64
	Type        uint8
	Recipient   string
	MetadataRef string
	MintedAt    time.Time
}

// SaleRecord captures one recorded sale of an achievement token. The royalty
// is a fixed percentage of the price, computed at the moment of sale.
type SaleRecord struct {
	TokenID      uint64
	Price        int64
	Royalty      int64 // credited to the charity recipient
	SellerPayout int64 // Price - Royalty, always sums back to Price exactly
	RecordedAt   time.Time
}

// LedgerState is the shared pause flag read by every mutating ledger
// operation and written only by the controller role.
type LedgerState struct {
	mu     sync.RWMutex
	paused bool
}

func NewLedgerState() *LedgerState {
	return &LedgerState{}
}

// Paused reports whether mutating ledger operations are halted.
func (s *LedgerState) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetPaused flips the global pause flag.
func (s *LedgerState) SetPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}
