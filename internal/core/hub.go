package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// leaveTimeout bounds the leave announcement sent after a session ends.
const leaveTimeout = 5 * time.Second

// IdentityVerifier turns an identity token into a subject.
// Any error means the token is rejected.
type IdentityVerifier interface {
	VerifyIdentity(token string) (string, error)
}

// Hub owns the state shared by all sessions: the room registry and the
// broadcaster. It is constructed once per process.
type Hub struct {
	registry    *Registry
	broadcaster *Broadcaster
	verifier    IdentityVerifier
	log         *zerolog.Logger
}

// NewHub creates a chat hub instance.
func NewHub(registry *Registry, broadcaster *Broadcaster, verifier IdentityVerifier, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry:    registry,
		broadcaster: broadcaster,
		verifier:    verifier,
		log:         logger,
	}
}

// Registry exposes room membership for read-only queries such as online counts.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// NewSession prepares the control loop for a freshly accepted connection.
func (h *Hub) NewSession(conn Conn, roomID RoomID, token string) *Session {
	logger := h.log.With().
		Str("session_id", conn.ID()).
		Int64("room_id", int64(roomID)).
		Logger()
	return &Session{
		hub:    h,
		conn:   conn,
		roomID: roomID,
		token:  token,
		log:    &logger,
		state:  StateConnecting,
	}
}

// Shutdown closes every joined connection with a going-away code and turns
// away sessions that have not joined yet. Close handshakes still pending when
// ctx is done are left to finish in the background.
func (h *Hub) Shutdown(ctx context.Context) {
	n := h.registry.CloseAll(ctx, CloseGoingAway, "server shutting down")
	h.log.Info().Int("connections", n).Msg("closed live connections")
}
