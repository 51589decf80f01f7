package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/ports"
)

// consumeScript deletes the stored nonce only when it matches the provided
// one, in a single server-side step. This closes the window between read and
// invalidate that two concurrent verification attempts could otherwise race.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisNonceStore is a Redis implementation of the NonceStore interface.
// Expiry is delegated to the key TTL, so an expired challenge is
// indistinguishable from a replayed one and reported as replayed.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store
func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		prefix: "aegle:nonce:",
	}
}

// Put stores the challenge nonce keyed by address with the TTL, overwriting
// any prior unconsumed nonce for that address.
func (s *RedisNonceStore) Put(ctx context.Context, challenge *core.Challenge, ttl time.Duration) error {
	key := s.prefix + challenge.Address
	if err := s.client.Set(ctx, key, challenge.Nonce, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}
	return nil
}

// Consume atomically compares and deletes the stored nonce.
func (s *RedisNonceStore) Consume(ctx context.Context, address, nonce string) error {
	key := s.prefix + address

	deleted, err := consumeScript.Run(ctx, s.client, []string{key}, nonce).Int()
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	if deleted == 0 {
		return core.ErrNonceReplayed
	}
	return nil
}

var _ ports.NonceStore = (*RedisNonceStore)(nil)
