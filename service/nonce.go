package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/ports"
)

// DefaultChallengeTTL is how long an issued challenge stays redeemable.
const DefaultChallengeTTL = 5 * time.Minute

const messageHeader = "aegle.health wants you to sign in with your wallet account:"

// NonceRegistry issues and consumes single-use authentication challenges,
// one unconsumed challenge per address at a time.
type NonceRegistry struct {
	store ports.NonceStore
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// NewNonceRegistry creates a new nonce registry
func NewNonceRegistry(store ports.NonceStore, log *zap.Logger) *NonceRegistry {
	return &NonceRegistry{
		store: store,
		ttl:   DefaultChallengeTTL,
		log:   log,
		now:   time.Now,
	}
}

// Issue generates a fresh random nonce and a human-readable sign-in message
// embedding the address and the nonce, overwriting any prior unconsumed
// challenge for the address.
func (r *NonceRegistry) Issue(ctx context.Context, address string) (*core.Challenge, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	address = common.HexToAddress(address).Hex()

	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := r.now()
	challenge := &core.Challenge{
		Address:   address,
		Nonce:     nonce,
		Message:   BuildChallengeMessage(address, nonce, now),
		IssuedAt:  now,
		ExpiresAt: now.Add(r.ttl),
	}

	if err := r.store.Put(ctx, challenge, r.ttl); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	r.log.Debug("challenge issued", zap.String("address", address))
	return challenge, nil
}

// Consume redeems the nonce for the address. The underlying store performs
// the check-and-mark as a single atomic step, so a second attempt with the
// same nonce fails with core.ErrNonceReplayed.
func (r *NonceRegistry) Consume(ctx context.Context, address, nonce string) error {
	if !common.IsHexAddress(address) {
		return core.ErrInvalidAddress
	}
	return r.store.Consume(ctx, common.HexToAddress(address).Hex(), nonce)
}

// BuildChallengeMessage renders the message presented to the wallet for
// signing. Binding the address into the message prevents a signature issued
// for one address from being replayed against another.
func BuildChallengeMessage(address, nonce string, issuedAt time.Time) string {
	var b strings.Builder
	b.WriteString(messageHeader)
	b.WriteString("\n")
	b.WriteString(address)
	b.WriteString("\n\nNonce: ")
	b.WriteString(nonce)
	b.WriteString("\nIssued At: ")
	b.WriteString(issuedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// ParseChallengeMessage extracts the address and nonce embedded in a sign-in
// message produced by BuildChallengeMessage.
func ParseChallengeMessage(message string) (address, nonce string, err error) {
	lines := strings.Split(message, "\n")
	if len(lines) < 2 || lines[0] != messageHeader {
		return "", "", fmt.Errorf("unrecognized message header: %w", core.ErrInvalidChallenge)
	}
	address = strings.TrimSpace(lines[1])
	if !common.IsHexAddress(address) {
		return "", "", fmt.Errorf("message address: %w", core.ErrInvalidChallenge)
	}

	for _, line := range lines[2:] {
		if rest, ok := strings.CutPrefix(line, "Nonce: "); ok {
			nonce = strings.TrimSpace(rest)
		}
	}
	if nonce == "" {
		return "", "", fmt.Errorf("message nonce: %w", core.ErrInvalidChallenge)
	}

	return common.HexToAddress(address).Hex(), nonce, nil
}
