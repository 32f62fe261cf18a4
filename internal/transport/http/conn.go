package http

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
)

// wsConn adapts a websocket connection to core.Conn. Each text frame is one line.
type wsConn struct {
	id      string
	conn    *websocket.Conn
	limiter *rateLimiter
	log     *zerolog.Logger

	closeOnce sync.Once
}

func newWSConn(id string, conn *websocket.Conn, limiter *rateLimiter, logger *zerolog.Logger) *wsConn {
	return &wsConn{
		id:      id,
		conn:    conn,
		limiter: limiter,
		log:     logger,
	}
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(ctx context.Context, line string) error {
	if err := c.conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
		return &core.TransportError{Op: "write", Err: err}
	}
	return nil
}

// Receive skips frames the core should never see: binary frames, invalid
// UTF-8, and messages over the per-minute rate limit.
func (c *wsConn) Receive(ctx context.Context) (string, error) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if isCleanClose(err) {
				return "", core.ErrDisconnected
			}
			return "", &core.TransportError{Op: "read", Err: err}
		}

		if typ != websocket.MessageText {
			c.log.Debug().Str("conn_id", c.id).Msg("ignoring binary frame")
			continue
		}
		if !utf8.Valid(data) {
			c.log.Debug().Str("conn_id", c.id).Msg("ignoring invalid utf-8 frame")
			continue
		}
		if !c.limiter.allow(time.Now()) {
			c.log.Warn().Str("conn_id", c.id).Msg("rate limit exceeded, dropping message")
			continue
		}

		return string(data), nil
	}
}

func (c *wsConn) Close(code core.CloseCode, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close(closeStatus(code), reason)
	})
	return err
}

func isCleanClose(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
