package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
)

// WSHandler upgrades join requests and hands the connection to a core session.
type WSHandler struct {
	hub             *core.Hub
	maxMessageBytes int64
	ratePerMinute   int
	originPatterns  []string
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:             hub,
		maxMessageBytes: cfg.MaxMessageBytes,
		ratePerMinute:   cfg.RateLimitPerMinute,
		originPatterns:  cfg.OriginPatterns,
		log:             logger,
	}
}

// ServeHTTP handles GET /ws/{room}.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseRoomID(r.PathValue("room"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		if cookie, err := r.Cookie(accessTokenCookie); err == nil {
			token = cookie.Value
		}
	}

	// Cross-origin browsers are refused unless listed in origin_patterns.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("ws accept error")
		return
	}
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	wc := newWSConn(uuid.NewString(), conn, newRateLimiter(h.ratePerMinute), h.log)
	session := h.hub.NewSession(wc, core.RoomID(roomID), token)

	err = session.Run(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, core.ErrAuthentication):
		h.log.Debug().Err(err).Int64("room_id", roomID).Msg("ws join rejected")
	case core.IsCode(err, core.ErrCodeShuttingDown):
		h.log.Debug().Int64("room_id", roomID).Msg("ws join refused during shutdown")
	default:
		h.log.Warn().Err(err).Int64("room_id", roomID).Msg("ws session ended with error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
