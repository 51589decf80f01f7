package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/ports"
)

// DefaultCharitySplitPercent is the fixed share of every recorded sale that
// goes to the charity recipient.
const DefaultCharitySplitPercent int64 = 10

// AchievementService is the non-fungible achievement ledger. Minting is
// controller-only; recorded sales split proceeds between the seller and a
// fixed charity recipient atomically.
type AchievementService struct {
	store    ports.AchievementStore
	state    *core.LedgerState
	eventPub ports.EventPublisher
	log      *zap.Logger

	charity      string
	splitPercent int64
	now          func() time.Time
}

// NewAchievementService creates a new achievement ledger
func NewAchievementService(
	store ports.AchievementStore,
	state *core.LedgerState,
	eventPub ports.EventPublisher,
	charity string,
	splitPercent int64,
	log *zap.Logger,
) *AchievementService {
	return &AchievementService{
		store:        store,
		state:        state,
		eventPub:     eventPub,
		log:          log,
		charity:      charity,
		splitPercent: splitPercent,
		now:          time.Now,
	}
}

// MintAchievement assigns the next unique token id and stores the record.
// Controller role only; blocked while the ledger is paused.
func (s *AchievementService) MintAchievement(ctx context.Context, sess *core.Session, recipient string, achievementType uint8, metadataRef string) (*core.Achievement, error) {
	if s.state.Paused() {
		return nil, core.ErrPaused
	}
	if sess.Role < core.RoleController {
		return nil, core.ErrInsufficientRole
	}

	achievement := &core.Achievement{
		Type:        achievementType,
		Recipient:   recipient,
		MetadataRef: metadataRef,
		MintedAt:    s.now(),
	}

	tokenID, err := s.store.Mint(ctx, achievement)
	if err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishAchievementMinted(ctx, recipient, tokenID); err != nil {
		s.log.Warn("failed to publish achievement event", zap.Error(err))
	}

	s.log.Info("achievement minted",
		zap.Uint64("token_id", tokenID),
		zap.String("recipient", recipient))

	return achievement, nil
}

// RecordSale computes the charity royalty for the sale price and applies both
// payout legs atomically. The royalty rounds down, so the seller payout plus
// the royalty always equals the price exactly.
func (s *AchievementService) RecordSale(ctx context.Context, sess *core.Session, tokenID uint64, price int64) (*core.SaleRecord, error) {
	if s.state.Paused() {
		return nil, core.ErrPaused
	}
	if sess.Role < core.RoleMinter {
		return nil, core.ErrUnauthorizedMint
	}

	royalty := CharityRoyalty(price, s.splitPercent)
	sale := &core.SaleRecord{
		TokenID:      tokenID,
		Price:        price,
		Royalty:      royalty,
		SellerPayout: price - royalty,
		RecordedAt:   s.now(),
	}

	if err := s.store.RecordSale(ctx, sale, s.charity); err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishSaleRecorded(ctx, tokenID, price, royalty); err != nil {
		s.log.Warn("failed to publish sale event", zap.Error(err))
	}

	return sale, nil
}

// Achievement returns the record for a token id.
func (s *AchievementService) Achievement(ctx context.Context, tokenID uint64) (*core.Achievement, error) {
	return s.store.Get(ctx, tokenID)
}

// CharityRoyalty computes floor(price * splitPercent / 100).
func CharityRoyalty(price, splitPercent int64) int64 {
	return decimal.NewFromInt(price).
		Mul(decimal.NewFromInt(splitPercent)).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
