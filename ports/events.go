package ports

import "context"

// EventPublisher notifies other components about domain events.
type EventPublisher interface {
	PublishLogin(ctx context.Context, address string, isNewUser bool) error
	PublishRewardMinted(ctx context.Context, address, kind string, amount int64) error
	PublishAchievementMinted(ctx context.Context, recipient string, tokenID uint64) error
	PublishSaleRecorded(ctx context.Context, tokenID uint64, price, royalty int64) error
}
