package ports

import "github.com/aegle-health/aegle/core"

// Tokenizer converts sessions to and from signed access tokens.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
}
