package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/ports"
)

// ConditionAmounts is the severity-gated mint table. The amount decreases
// with severity and severe findings mint nothing: a medically urgent signal
// must not be something users are paid to report.
type ConditionAmounts struct {
	Normal int64
	Mild   int64
}

// DefaultConditionAmounts mirrors the product reward table.
var DefaultConditionAmounts = ConditionAmounts{Normal: 10, Mild: 5}

// ConditionService is the condition-report ledger. It maintains the
// append-only per-address history and incrementally updated statistics.
type ConditionService struct {
	store    ports.ConditionStore
	eventPub ports.EventPublisher
	log      *zap.Logger

	amounts ConditionAmounts
	now     func() time.Time
}

// NewConditionService creates a new condition reward ledger
func NewConditionService(store ports.ConditionStore, eventPub ports.EventPublisher, amounts ConditionAmounts, log *zap.Logger) *ConditionService {
	return &ConditionService{
		store:    store,
		eventPub: eventPub,
		log:      log,
		amounts:  amounts,
		now:      time.Now,
	}
}

// MintForCondition appends a health record and mints the tier-gated amount in
// one atomic step. A severe tier mints zero but still records history.
// Confidence is validated and stored; it does not scale the amount.
func (s *ConditionService) MintForCondition(ctx context.Context, sess *core.Session, address string, tier core.ConditionTier, confidence int) (*core.HealthRecord, error) {
	if sess.Role < core.RoleMinter {
		return nil, core.ErrUnauthorizedMint
	}
	if confidence < 0 || confidence > 100 {
		return nil, fmt.Errorf("confidence %d out of range [0,100]", confidence)
	}

	amount := s.amountFor(tier)
	record := core.HealthRecord{
		Address:    address,
		Tier:       tier,
		Confidence: uint8(confidence),
		Amount:     amount,
		ReportedAt: s.now(),
	}

	_, err := s.store.Update(ctx, address, func(a *core.HealthAccount) error {
		a.History = append(a.History, record)
		a.Balance += amount
		a.Stats.TotalTests++
		switch tier {
		case core.TierNormal:
			a.Stats.NormalCount++
		case core.TierMild:
			a.Stats.MildCount++
		case core.TierSevere:
			a.Stats.SevereCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("condition reported",
		zap.String("address", address),
		zap.String("tier", tier.String()),
		zap.Int("confidence", confidence),
		zap.Int64("amount", amount))

	if amount > 0 {
		if err := s.eventPub.PublishRewardMinted(ctx, address, "condition_"+tier.String(), amount); err != nil {
			s.log.Warn("failed to publish reward event", zap.Error(err))
		}
	}

	return &record, nil
}

// HealthHistory returns the address's records oldest first.
func (s *ConditionService) HealthHistory(ctx context.Context, address string) ([]core.HealthRecord, error) {
	account, err := s.store.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	return account.History, nil
}

// HealthStatistics returns the incrementally maintained per-tier counts, so
// this call never rescans the full history.
func (s *ConditionService) HealthStatistics(ctx context.Context, address string) (core.HealthStatistics, error) {
	account, err := s.store.Get(ctx, address)
	if err != nil {
		return core.HealthStatistics{}, err
	}
	return account.Stats, nil
}

// Balance returns the condition-ledger credit balance for the address.
func (s *ConditionService) Balance(ctx context.Context, address string) (int64, error) {
	account, err := s.store.Get(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *ConditionService) amountFor(tier core.ConditionTier) int64 {
	switch tier {
	case core.TierNormal:
		return s.amounts.Normal
	case core.TierMild:
		return s.amounts.Mild
	default:
		return 0
	}
}
