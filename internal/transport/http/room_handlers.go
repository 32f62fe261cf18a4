package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	rooms    store.RoomStore
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(rooms store.RoomStore, registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms:    rooms,
		registry: registry,
		log:      logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	OwnerID   int64  `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

// OnlineResponse reports how many connections are live in a room.
type OnlineResponse struct {
	RoomID int64 `json:"room_id"`
	Online int   `json:"online"`
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "token is not bound to an account"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name is required"})
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), name, uid)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Int64("owner_id", uid).Msg("room created")
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

// ListRooms lists every room, optionally filtered by name.
// GET /api/rooms?search=
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))

	rooms, err := h.rooms.ListRooms(c.Request.Context(), search)
	if err != nil {
		h.log.Error().Err(err).Str("search", search).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toRoomResponses(rooms))
}

// MyRooms lists rooms owned by the caller.
// GET /api/rooms/mine
func (h *RoomHandlers) MyRooms(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusOK, []RoomResponse{})
		return
	}

	rooms, err := h.rooms.ListRoomsByOwner(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list owned rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, toRoomResponses(rooms))
}

// DeleteRoom removes a room owned by the caller.
// DELETE /api/rooms/:id
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}
	uid, _ := currentUserID(c)

	room, err := h.rooms.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if uid == 0 || room.OwnerID != uid {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the owner can delete a room"})
		return
	}

	if err := h.rooms.DeleteRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to delete room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("owner_id", uid).Msg("room deleted")
	c.Status(http.StatusNoContent)
}

// Online reports the live member count of a room.
// GET /api/rooms/:id/online
func (h *RoomHandlers) Online(c *gin.Context) {
	roomID, ok := parseRoomID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	c.JSON(http.StatusOK, OnlineResponse{
		RoomID: roomID,
		Online: h.registry.Len(core.RoomID(roomID)),
	})
}

// OnlineRooms lists every room with live members and its member count.
// GET /api/rooms/online
func (h *RoomHandlers) OnlineRooms(c *gin.Context) {
	response := make([]OnlineResponse, 0)
	for _, roomID := range h.registry.Rooms() {
		if n := h.registry.Len(roomID); n > 0 {
			response = append(response, OnlineResponse{RoomID: int64(roomID), Online: n})
		}
	}
	c.JSON(http.StatusOK, response)
}

func parseRoomID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
