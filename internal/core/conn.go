package core

import "context"

// CloseCode is the status a connection is closed with.
type CloseCode int

// Close codes understood by every Conn implementation. Values match RFC 6455.
const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	ClosePolicyViolation CloseCode = 1008
	CloseInternalError   CloseCode = 1011
)

// Conn is one client's bidirectional message stream as seen by the core layer.
//
// Send may be called concurrently with Receive and with other Sends.
// Receive is only called from the owning Session. Close unblocks any pending
// Send or Receive on the same Conn.
type Conn interface {
	// ID returns an identifier unique among live connections.
	ID() string

	// Send writes one line of text to the peer.
	Send(ctx context.Context, line string) error

	// Receive blocks until the next inbound line arrives.
	// A clean disconnect is reported as ErrDisconnected; anything else is a
	// transport failure.
	Receive(ctx context.Context) (string, error)

	// Close terminates the stream with the given code. Closing twice is harmless.
	Close(code CloseCode, reason string) error
}
