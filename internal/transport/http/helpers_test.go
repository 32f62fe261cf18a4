package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/store"
	"github.com/vovakirdan/roomchat-server/internal/store/sqlite"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	ts    *httptest.Server
	hub   *core.Hub
	auth  *auth.Service
	store store.Store
	jwt   *auth.JWTConfig
}

func newTestEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := zerolog.Nop()
	jwtCfg := &auth.JWTConfig{
		Secret:   testSecret,
		Issuer:   "roomchat",
		Audience: "roomchat",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtCfg)

	registry := core.NewRegistry()
	broadcaster := core.NewBroadcaster(registry, &logger, time.Second, 8)
	hub := core.NewHub(registry, broadcaster, authService, &logger)

	cfg := config.Default()
	cfg.MaxMessageBytes = 1024
	cfg.RateLimitPerMinute = 1000
	if tweak != nil {
		tweak(&cfg)
	}

	ts := httptest.NewServer(NewHandler(hub, authService, st, &cfg, &logger))
	t.Cleanup(func() {
		hub.Shutdown(context.Background())
		ts.Close()
		_ = st.Close()
	})

	return &testEnv{ts: ts, hub: hub, auth: authService, store: st, jwt: jwtCfg}
}

func (e *testEnv) token(t *testing.T, subject string) string {
	t.Helper()

	token, err := e.auth.IssueToken(subject)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (e *testEnv) expiredToken(t *testing.T, subject string) string {
	t.Helper()

	past := time.Now().Add(-time.Hour)
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    e.jwt.Issuer,
			Audience:  jwt.ClaimStrings{e.jwt.Audience},
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.jwt.Secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *testEnv) wsURL(room, token string) string {
	u := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws/" + room
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

func (e *testEnv) dial(t *testing.T, room, token string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, e.wsURL(room, token), nil)
	if err != nil {
		t.Fatalf("dial room %s: %v", room, err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

// readLine expects a text frame. A Read that times out closes the
// connection, so only call it when a frame is due.
func readLine(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("expected text frame, got %v", typ)
	}
	return string(data)
}

func expectLine(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()

	if got := readLine(t, conn); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func writeLine(t *testing.T, conn *websocket.Conn, line string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, []byte(line)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// expectClose reads until the server closes and returns the close status.
func expectClose(t *testing.T, conn *websocket.Conn) websocket.StatusCode {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		_, _, err := conn.Read(ctx)
		if err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func waitForOnline(t *testing.T, hub *core.Hub, room core.RoomID, want int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Registry().Len(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %d: expected %d online, got %d", room, want, hub.Registry().Len(room))
}
