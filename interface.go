// Package aegle is the client-side SDK for the aegle incentive service. It
// orchestrates the wallet connection and challenge-response authentication
// flow against an external wallet agent, collapsing concurrent requests into
// a single outstanding operation per kind.
package aegle

import "context"

// WalletAgent is the external wallet provider the orchestrator talks to.
// Agents may silently drop a request (the user closes a popup) without any
// callback; recovery from that is Reset on the orchestrator.
type WalletAgent interface {
	// RequestAccounts prompts the user to connect and returns the selected
	// account address.
	RequestAccounts(ctx context.Context) (string, error)

	// CurrentAddress returns the already-connected address without
	// prompting, or an empty string when not connected.
	CurrentAddress(ctx context.Context) (string, error)

	// SignMessage asks the wallet to sign the message with the account's
	// key and returns the hex-encoded signature.
	SignMessage(ctx context.Context, address, message string) (string, error)
}

// AuthGateway is the server side of the challenge-response flow.
type AuthGateway interface {
	// Challenge requests a fresh sign-in challenge for the address.
	Challenge(ctx context.Context, address string) (message, nonce string, err error)

	// Verify submits the signed challenge and returns the issued session.
	Verify(ctx context.Context, address, signature, message string) (*AuthResult, error)
}

// AuthResult is the outcome of a successful verification.
type AuthResult struct {
	Address     string
	ProfileID   string
	AccessToken string
	IsNewUser   bool
}
