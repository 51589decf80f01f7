package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/ports"
)

const exerciseDateLayout = "2006-01-02"

// RewardAmounts are the fixed credit amounts minted per off-chain event.
type RewardAmounts struct {
	EyeTest      int64
	Exercise     int64
	FamilyMember int64
}

// DefaultRewardAmounts mirrors the product reward table.
var DefaultRewardAmounts = RewardAmounts{
	EyeTest:      50,
	Exercise:     10,
	FamilyMember: 20,
}

// RewardService is the fungible credit ledger. Every mutating operation
// checks the shared pause flag first, then requires the minter role.
type RewardService struct {
	store    ports.RewardStore
	state    *core.LedgerState
	eventPub ports.EventPublisher
	log      *zap.Logger

	amounts RewardAmounts
	loc     *time.Location // reference timezone for the exercise cooldown
	now     func() time.Time
}

// NewRewardService creates a new fungible reward ledger. loc is the reference
// timezone for calendar-day comparisons; nil means UTC.
func NewRewardService(
	store ports.RewardStore,
	state *core.LedgerState,
	eventPub ports.EventPublisher,
	amounts RewardAmounts,
	loc *time.Location,
	log *zap.Logger,
) *RewardService {
	if loc == nil {
		loc = time.UTC
	}
	return &RewardService{
		store:    store,
		state:    state,
		eventPub: eventPub,
		log:      log,
		amounts:  amounts,
		loc:      loc,
		now:      time.Now,
	}
}

// MintForEyeTest mints the fixed eye-test amount for the address.
func (s *RewardService) MintForEyeTest(ctx context.Context, sess *core.Session, address string) (*core.RewardAccount, error) {
	return s.mintFixed(ctx, sess, address, "eye_test", s.amounts.EyeTest)
}

// MintForFamilyMember mints the fixed family-member amount. Family additions
// carry no per-address cap.
func (s *RewardService) MintForFamilyMember(ctx context.Context, sess *core.Session, address string) (*core.RewardAccount, error) {
	return s.mintFixed(ctx, sess, address, "family_member", s.amounts.FamilyMember)
}

// MintForDailyExercise mints the exercise amount at most once per calendar
// day in the ledger's reference timezone. The cooldown check and the date
// advance happen inside one store update, so concurrent duplicate calls
// cannot both pass the check.
func (s *RewardService) MintForDailyExercise(ctx context.Context, sess *core.Session, address string) (*core.RewardAccount, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}

	today := s.now().In(s.loc).Format(exerciseDateLayout)
	account, err := s.store.Update(ctx, address, func(a *core.RewardAccount) error {
		if a.LastExerciseDate == today {
			return core.ErrAlreadyRewardedToday
		}
		a.Balance += s.amounts.Exercise
		a.TotalMinted += s.amounts.Exercise
		a.LastExerciseDate = today
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMinted(ctx, address, "daily_exercise", s.amounts.Exercise)
	return account, nil
}

// DoctorVisitDiscount maps the current balance onto a discrete discount tier.
// Higher balance never yields a lower tier.
func (s *RewardService) DoctorVisitDiscount(ctx context.Context, address string) (core.DiscountTier, error) {
	account, err := s.store.Get(ctx, address)
	if err != nil {
		return core.DiscountNone, err
	}
	return DiscountTierFor(account.Balance), nil
}

// DiscountTierFor is the pure balance-to-tier step function.
func DiscountTierFor(balance int64) core.DiscountTier {
	switch {
	case balance >= 1000:
		return core.DiscountGold
	case balance >= 500:
		return core.DiscountSilver
	case balance >= 100:
		return core.DiscountBronze
	default:
		return core.DiscountNone
	}
}

// Balance returns the current reward account for the address.
func (s *RewardService) Balance(ctx context.Context, address string) (*core.RewardAccount, error) {
	return s.store.Get(ctx, address)
}

// Pause halts all mutating operations on the fungible and achievement
// ledgers. Controller role only.
func (s *RewardService) Pause(sess *core.Session) error {
	if sess.Role < core.RoleController {
		return core.ErrInsufficientRole
	}
	s.state.SetPaused(true)
	s.log.Warn("ledger paused", zap.String("by", sess.Address))
	return nil
}

// Unpause restores normal minting with no residual effect on balances.
func (s *RewardService) Unpause(sess *core.Session) error {
	if sess.Role < core.RoleController {
		return core.ErrInsufficientRole
	}
	s.state.SetPaused(false)
	s.log.Info("ledger unpaused", zap.String("by", sess.Address))
	return nil
}

func (s *RewardService) mintFixed(ctx context.Context, sess *core.Session, address, kind string, amount int64) (*core.RewardAccount, error) {
	if err := s.gate(sess); err != nil {
		return nil, err
	}

	account, err := s.store.Update(ctx, address, func(a *core.RewardAccount) error {
		a.Balance += amount
		a.TotalMinted += amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMinted(ctx, address, kind, amount)
	return account, nil
}

func (s *RewardService) gate(sess *core.Session) error {
	if s.state.Paused() {
		return core.ErrPaused
	}
	if sess.Role < core.RoleMinter {
		return core.ErrUnauthorizedMint
	}
	return nil
}

func (s *RewardService) publishMinted(ctx context.Context, address, kind string, amount int64) {
	if err := s.eventPub.PublishRewardMinted(ctx, address, kind, amount); err != nil {
		s.log.Warn("failed to publish reward event",
			zap.String("kind", kind), zap.Error(err))
	}
}
