package http

import (
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

func closeStatus(code core.CloseCode) websocket.StatusCode {
	switch code {
	case core.CloseNormal:
		return websocket.StatusNormalClosure
	case core.CloseGoingAway:
		return websocket.StatusGoingAway
	case core.ClosePolicyViolation:
		return websocket.StatusPolicyViolation
	default:
		return websocket.StatusInternalError
	}
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toRoomResponse(r *store.Room) RoomResponse {
	return RoomResponse{
		ID:        r.ID,
		Name:      r.Name,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func toRoomResponses(rooms []*store.Room) []RoomResponse {
	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, toRoomResponse(room))
	}
	return response
}
