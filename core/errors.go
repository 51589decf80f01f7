package core

import "errors"

var (
	ErrNonceExpired         = errors.New("nonce has expired")
	ErrNonceReplayed        = errors.New("nonce already consumed or unknown")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrInvalidAddress       = errors.New("invalid wallet address")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrAlreadyRewardedToday = errors.New("exercise already rewarded today")
	ErrPaused               = errors.New("ledger is paused")
	ErrUnauthorizedMint     = errors.New("caller lacks minter role")
	ErrInsufficientRole     = errors.New("caller lacks controller role")
	ErrUnknownToken         = errors.New("unknown achievement token")
	ErrInvalidChallenge     = errors.New("invalid challenge message")
	ErrIdentityNotFound     = errors.New("identity not found")
)

// ReasonCode maps a core error to the machine-readable reason returned by the
// HTTP layer. Unknown errors map to "internal".
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNonceExpired):
		return "nonce_expired"
	case errors.Is(err, ErrNonceReplayed):
		return "nonce_replayed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrAlreadyRewardedToday):
		return "already_rewarded_today"
	case errors.Is(err, ErrPaused):
		return "ledger_paused"
	case errors.Is(err, ErrUnauthorizedMint):
		return "unauthorized_mint"
	case errors.Is(err, ErrInsufficientRole):
		return "insufficient_role"
	case errors.Is(err, ErrUnknownToken):
		return "unknown_token"
	case errors.Is(err, ErrInvalidChallenge):
		return "invalid_challenge"
	case errors.Is(err, ErrIdentityNotFound):
		return "identity_not_found"
	default:
		return "internal"
	}
}
