package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with session-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	ProfileID string `json:"pid"`
	Role      string `json:"role"`
}
