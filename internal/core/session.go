package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// State is a step in a session's lifecycle.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateJoined
	StateRelaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoined:
		return "joined"
	case StateRelaying:
		return "relaying"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the control loop of one connection: authenticate, join the room,
// relay inbound lines as broadcasts, and leave on disconnect.
type Session struct {
	hub    *Hub
	conn   Conn
	roomID RoomID
	token  string
	log    *zerolog.Logger

	mu       sync.Mutex
	state    State
	identity string
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the verified subject, or "" before authentication.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Run drives the session until the connection ends. It returns nil after a
// clean disconnect, an error wrapping ErrAuthentication when the token is
// rejected, and the transport error otherwise. Once the session has joined,
// every exit path deregisters and announces the leave exactly once.
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateAuthenticating)
	identity, err := s.authenticate()
	if err != nil {
		s.setState(StateClosed)
		s.log.Info().Err(err).Msg("session rejected")
		_ = s.conn.Close(ClosePolicyViolation, "unauthorized")
		return err
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	if err := s.hub.registry.Register(s.roomID, s.conn); err != nil {
		s.setState(StateClosed)
		if IsCode(err, ErrCodeShuttingDown) {
			_ = s.conn.Close(CloseGoingAway, "server shutting down")
		} else {
			_ = s.conn.Close(CloseInternalError, "join failed")
		}
		return fmt.Errorf("register: %w", err)
	}
	s.setState(StateJoined)
	defer s.leave(ctx, identity)

	s.hub.broadcaster.Broadcast(ctx, s.roomID, Joined(identity))

	s.setState(StateRelaying)
	for {
		text, err := s.conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrDisconnected) {
				return nil
			}
			return err
		}
		s.hub.broadcaster.Broadcast(ctx, s.roomID, Said(identity, text))
	}
}

func (s *Session) authenticate() (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("%w: missing token", ErrAuthentication)
	}
	identity, err := s.hub.verifier.VerifyIdentity(s.token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if identity == "" {
		return "", fmt.Errorf("%w: empty subject", ErrAuthentication)
	}
	return identity, nil
}

// leave runs on every exit from a joined session. The request context may
// already be cancelled, so the announcement gets its own deadline.
func (s *Session) leave(ctx context.Context, identity string) {
	s.hub.registry.Deregister(s.roomID, s.conn)
	s.setState(StateClosed)

	leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()
	s.hub.broadcaster.Broadcast(leaveCtx, s.roomID, Left(identity))

	_ = s.conn.Close(CloseNormal, "")
	s.log.Debug().Str("identity", identity).Msg("session closed")
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.log.Debug().Stringer("from", prev).Stringer("to", next).Msg("session state")
}
