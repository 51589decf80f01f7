package aegle

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the orchestrator's connection state.
type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

const (
	opConnect      = "connect"
	opAuthenticate = "authenticate"
)

// Orchestrator drives the connect and authenticate flows against the wallet
// agent. Overlapping calls of the same kind join the one in-flight operation
// instead of issuing duplicate wallet prompts, and every joined caller
// observes the same result. There is no mid-flight cancellation; a silently
// dropped wallet request is recovered with Reset.
type Orchestrator struct {
	agent   WalletAgent
	gateway AuthGateway

	group singleflight.Group

	mu          sync.Mutex
	state       State
	address     string
	accessToken string
	lastErr     error
}

// NewOrchestrator creates a new connection orchestrator
func NewOrchestrator(agent WalletAgent, gateway AuthGateway) *Orchestrator {
	return &Orchestrator{
		agent:   agent,
		gateway: gateway,
		state:   StateIdle,
	}
}

// Connect requests the wallet account. When a connect is already in flight,
// the caller joins it; when already connected, the current address is
// queried from the agent without issuing a new account request.
func (o *Orchestrator) Connect(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state >= StateConnected && o.state != StateError {
		o.mu.Unlock()
		address, err := o.agent.CurrentAddress(ctx)
		if err == nil && address != "" {
			return address, nil
		}
		// Connection silently lost on the agent side, fall through to a
		// fresh account request.
		o.mu.Lock()
		o.state = StateIdle
	}
	o.mu.Unlock()

	v, err, _ := o.group.Do(opConnect, func() (interface{}, error) {
		o.setState(StateConnecting)

		address, err := o.agent.RequestAccounts(ctx)
		if err != nil {
			o.fail(err)
			return nil, err
		}

		o.mu.Lock()
		o.state = StateConnected
		o.address = address
		o.lastErr = nil
		o.mu.Unlock()

		return address, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Authenticate runs the full challenge, sign, verify sequence with the same
// single-flight guarantee as Connect. Any failure moves the machine to the
// error state and clears the in-flight marker so a retry is possible.
func (o *Orchestrator) Authenticate(ctx context.Context) (*AuthResult, error) {
	v, err, _ := o.group.Do(opAuthenticate, func() (interface{}, error) {
		address, err := o.Connect(ctx)
		if err != nil {
			return nil, err
		}

		o.setState(StateAuthenticating)

		message, _, err := o.gateway.Challenge(ctx, address)
		if err != nil {
			o.fail(err)
			return nil, err
		}

		signature, err := o.agent.SignMessage(ctx, address, message)
		if err != nil {
			o.fail(err)
			return nil, err
		}

		result, err := o.gateway.Verify(ctx, address, signature, message)
		if err != nil {
			o.fail(err)
			return nil, err
		}

		o.mu.Lock()
		o.state = StateAuthenticated
		o.accessToken = result.AccessToken
		o.lastErr = nil
		o.mu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AuthResult), nil
}

// Reset clears all in-flight markers and returns to the idle state,
// regardless of the current state. This is the escape hatch for wallet
// requests the agent dropped without a callback.
func (o *Orchestrator) Reset() {
	o.group.Forget(opConnect)
	o.group.Forget(opAuthenticate)

	o.mu.Lock()
	o.state = StateIdle
	o.address = ""
	o.accessToken = ""
	o.lastErr = nil
	o.mu.Unlock()
}

// State returns the current state of the machine.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Address returns the connected wallet address, if any.
func (o *Orchestrator) Address() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.address
}

// AccessToken returns the session token from the last successful
// authentication, if any.
func (o *Orchestrator) AccessToken() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.accessToken
}

// Err returns the error that moved the machine into the error state.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.state = StateError
	o.lastErr = err
	o.mu.Unlock()
}
