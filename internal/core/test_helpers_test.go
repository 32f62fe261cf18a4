package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errConnClosed = errors.New("conn closed")

// fakeConn is an in-memory Conn. Lines pushed to in are returned by Receive,
// lines sent by the core land in out.
type fakeConn struct {
	id      string
	in      chan string
	errs    chan error
	out     chan string
	sendErr error

	closeOnce sync.Once
	closed    chan struct{}
	mu        sync.Mutex
	closeCode CloseCode
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{
		id:     id,
		in:     make(chan string, 16),
		errs:   make(chan error, 1),
		out:    make(chan string, 256),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(ctx context.Context, line string) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	select {
	case c.out <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			return "", ErrDisconnected
		}
		return line, nil
	case err := <-c.errs:
		return "", &TransportError{Op: "read", Err: err}
	case <-c.closed:
		return "", &TransportError{Op: "read", Err: errConnClosed}
	case <-ctx.Done():
		return "", &TransportError{Op: "read", Err: ctx.Err()}
	}
}

func (c *fakeConn) Close(code CloseCode, _ string) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) code() CloseCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

// disconnect simulates a clean client-initiated close.
func (c *fakeConn) disconnect() { close(c.in) }

// blockingConn never completes a Send until its context ends.
type blockingConn struct {
	*fakeConn
}

func (c blockingConn) Send(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

type tokenVerifier map[string]string

func (v tokenVerifier) VerifyIdentity(token string) (string, error) {
	identity, ok := v[token]
	if !ok {
		return "", errors.New("token is expired")
	}
	return identity, nil
}

func newTestHub(t *testing.T, verifier IdentityVerifier) *Hub {
	t.Helper()

	logger := zerolog.Nop()
	registry := NewRegistry()
	return NewHub(registry, NewBroadcaster(registry, &logger, time.Second, 0), verifier, &logger)
}

func mustLine(t *testing.T, c *fakeConn, want string) {
	t.Helper()

	select {
	case got := <-c.out:
		if got != want {
			t.Fatalf("%s: expected line %q, got %q", c.id, want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: expected line %q not received", c.id, want)
	}
}

func mustNoLine(t *testing.T, c *fakeConn, within time.Duration) {
	t.Helper()

	select {
	case got := <-c.out:
		t.Fatalf("%s: unexpected line %q", c.id, got)
	case <-time.After(within):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
