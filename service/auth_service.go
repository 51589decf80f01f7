package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/internal/eth"
	"github.com/aegle-health/aegle/ports"
)

// DefaultAccessTTL is the default lifetime of an access token.
const DefaultAccessTTL = 30 * time.Minute

// VerifyResult is the outcome of a successful challenge verification.
type VerifyResult struct {
	Session     *core.Session
	AccessToken string
	Identity    *core.Identity
	IsNewUser   bool
}

// AuthService converts a wallet signature into a session. It owns the
// Challenge and Session lifecycles and is the only path that creates
// identities; there is no separate register step for wallet accounts.
type AuthService struct {
	nonces     *NonceRegistry
	identities ports.IdentityStore
	tokenizer  ports.Tokenizer
	eventPub   ports.EventPublisher
	log        *zap.Logger

	controller common.Address // address granted the controller role
	accessTTL  time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service. controllerAddress may
// be empty, in which case no identity is ever granted the controller role.
func NewAuthService(
	nonces *NonceRegistry,
	identities ports.IdentityStore,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	controllerAddress string,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		nonces:     nonces,
		identities: identities,
		tokenizer:  tokenizer,
		eventPub:   eventPub,
		log:        log,
		controller: common.HexToAddress(controllerAddress),
		accessTTL:  DefaultAccessTTL,
		now:        time.Now,
	}
}

// Challenge issues a new single-use challenge for the address.
func (s *AuthService) Challenge(ctx context.Context, address string) (*core.Challenge, error) {
	return s.nonces.Issue(ctx, address)
}

// Verify recovers the signer from (message, signature), redeems the embedded
// nonce, resolves or lazily creates the wallet identity and issues a session.
// Failure paths are distinct so the caller can decide between retrying with a
// fresh challenge (expired nonce) and aborting (invalid signature).
func (s *AuthService) Verify(ctx context.Context, address, signature, message string) (*VerifyResult, error) {
	if !common.IsHexAddress(address) {
		return nil, core.ErrInvalidAddress
	}
	address = common.HexToAddress(address).Hex()

	ok, err := eth.VerifySigner(address, message, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	if !ok {
		return nil, core.ErrInvalidSignature
	}

	msgAddress, nonce, err := ParseChallengeMessage(message)
	if err != nil {
		return nil, err
	}
	if msgAddress != address {
		return nil, fmt.Errorf("message bound to another address: %w", core.ErrInvalidChallenge)
	}

	if err := s.nonces.Consume(ctx, address, nonce); err != nil {
		return nil, err
	}

	identity, created, err := s.identities.GetOrCreate(ctx, address, func() *core.Identity {
		role := core.RoleMinter
		if s.controller != (common.Address{}) && common.HexToAddress(address) == s.controller {
			role = core.RoleController
		}
		return &core.Identity{
			Address:   address,
			ProfileID: uuid.New().String(),
			Role:      role,
			CreatedAt: s.now(),
			Active:    true,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	now := s.now()
	session := &core.Session{
		ID:        uuid.New().String(),
		Address:   address,
		ProfileID: identity.ProfileID,
		Role:      identity.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, address, created); err != nil {
		// The session is already issued, publishing is best effort.
		s.log.Warn("failed to publish login event", zap.Error(err))
	}

	s.log.Info("wallet authenticated",
		zap.String("address", address),
		zap.Bool("is_new_user", created),
		zap.String("role", identity.Role.String()))

	return &VerifyResult{
		Session:     session,
		AccessToken: accessToken,
		Identity:    identity,
		IsNewUser:   created,
	}, nil
}

// ValidateAccessToken parses and validates an access token, returning the
// session it carries. The caller's role is resolved from this session, never
// re-derived from the raw address.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, err
	}

	if s.now().After(session.ExpiresAt) {
		return nil, core.ErrTokenExpired
	}

	return session, nil
}
