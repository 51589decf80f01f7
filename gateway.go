package aegle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aegle-health/aegle/core"
)

// HTTPGateway implements AuthGateway against the aegle HTTP API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway for the server at baseURL.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type challengeRequest struct {
	Address string `json:"address"`
}

type challengeResponse struct {
	Message string `json:"message"`
	Nonce   string `json:"nonce"`
}

type verifyRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

type verifyResponse struct {
	User struct {
		Address   string `json:"address"`
		ProfileID string `json:"profile_id"`
	} `json:"user"`
	AccessToken string `json:"access_token"`
	IsNewUser   bool   `json:"is_new_user"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Challenge requests a fresh sign-in challenge for the address.
func (g *HTTPGateway) Challenge(ctx context.Context, address string) (string, string, error) {
	var resp challengeResponse
	if err := g.post(ctx, "/auth/challenge", challengeRequest{Address: address}, &resp); err != nil {
		return "", "", err
	}
	return resp.Message, resp.Nonce, nil
}

// Verify submits the signed challenge and returns the issued session.
func (g *HTTPGateway) Verify(ctx context.Context, address, signature, message string) (*AuthResult, error) {
	var resp verifyResponse
	req := verifyRequest{Address: address, Signature: signature, Message: message}
	if err := g.post(ctx, "/auth/verify", req, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{
		Address:     resp.User.Address,
		ProfileID:   resp.User.ProfileID,
		AccessToken: resp.AccessToken,
		IsNewUser:   resp.IsNewUser,
	}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Reason != "" {
			return fmt.Errorf("%s: %w", apiErr.Error, reasonError(apiErr.Reason))
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// reasonError maps machine-readable reason codes back onto the core error
// taxonomy, so the client can tell a retryable expired nonce from a hard
// signature failure.
func reasonError(reason string) error {
	switch reason {
	case "nonce_expired":
		return core.ErrNonceExpired
	case "nonce_replayed":
		return core.ErrNonceReplayed
	case "invalid_signature":
		return core.ErrInvalidSignature
	case "invalid_address":
		return core.ErrInvalidAddress
	case "invalid_challenge":
		return core.ErrInvalidChallenge
	default:
		return fmt.Errorf("reason %s", reason)
	}
}

var _ AuthGateway = (*HTTPGateway)(nil)
