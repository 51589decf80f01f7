package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/aegle-health/aegle/ports"
)

const (
	TopicLogin             = "aegle.auth.login"
	TopicRewardMinted      = "aegle.reward.minted"
	TopicAchievementMinted = "aegle.achievement.minted"
	TopicSaleRecorded      = "aegle.achievement.sold"
)

// LoginEvent is published on every successful verification
type LoginEvent struct {
	Address   string `json:"address"`
	IsNewUser bool   `json:"is_new_user"`
}

// RewardMintedEvent is published when fungible credits are minted
type RewardMintedEvent struct {
	Address string `json:"address"`
	Kind    string `json:"kind"`
	Amount  int64  `json:"amount"`
}

// AchievementMintedEvent is published when an achievement token is minted
type AchievementMintedEvent struct {
	Recipient string `json:"recipient"`
	TokenID   uint64 `json:"token_id"`
}

// SaleRecordedEvent is published when an achievement sale is recorded
type SaleRecordedEvent struct {
	TokenID uint64 `json:"token_id"`
	Price   int64  `json:"price"`
	Royalty int64  `json:"royalty"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishLogin(ctx context.Context, address string, isNewUser bool) error {
	return p.publish(TopicLogin, LoginEvent{Address: address, IsNewUser: isNewUser})
}

func (p *WatermillPublisher) PublishRewardMinted(ctx context.Context, address, kind string, amount int64) error {
	return p.publish(TopicRewardMinted, RewardMintedEvent{Address: address, Kind: kind, Amount: amount})
}

func (p *WatermillPublisher) PublishAchievementMinted(ctx context.Context, recipient string, tokenID uint64) error {
	return p.publish(TopicAchievementMinted, AchievementMintedEvent{Recipient: recipient, TokenID: tokenID})
}

func (p *WatermillPublisher) PublishSaleRecorded(ctx context.Context, tokenID uint64, price, royalty int64) error {
	return p.publish(TopicSaleRecorded, SaleRecordedEvent{TokenID: tokenID, Price: price, Royalty: royalty})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher discards all events. Used when no broker is configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, bool) error                 { return nil }
func (NopPublisher) PublishRewardMinted(context.Context, string, string, int64) error { return nil }
func (NopPublisher) PublishAchievementMinted(context.Context, string, uint64) error   { return nil }
func (NopPublisher) PublishSaleRecorded(context.Context, uint64, int64, int64) error  { return nil }

var _ ports.EventPublisher = (*WatermillPublisher)(nil)
var _ ports.EventPublisher = NopPublisher{}
