package aegle

import "errors"

var (
	// ErrUserRejected means the user declined the wallet prompt. Retrying
	// without user action will only produce another prompt, so callers must
	// not auto-retry.
	ErrUserRejected = errors.New("user rejected the wallet request")

	// ErrAgentUnavailable means no wallet agent is reachable.
	ErrAgentUnavailable = errors.New("wallet agent unavailable")

	// ErrNotConnected is returned when an operation needs a connected wallet.
	ErrNotConnected = errors.New("wallet not connected")
)

// Retryable reports whether the client may retry the failed operation
// without new user action. User rejections are final until the user acts
// again; everything else is treated as transient.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrUserRejected)
}
