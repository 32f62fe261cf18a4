package http

import (
	"fmt"
	"net/http"
	"testing"
)

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()

	body := credentials{Email: email, Password: "password123"}
	if resp := e.do(t, http.MethodPost, "/api/register", "", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: got %d", email, resp.StatusCode)
	}
	resp := e.do(t, http.MethodPost, "/api/login", "", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: got %d", email, resp.StatusCode)
	}
	var auth AuthResponse
	decodeJSON(t, resp, &auth)
	return auth.Token
}

func (e *testEnv) createRoom(t *testing.T, token, name string) RoomResponse {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/rooms", token, CreateRoomRequest{Name: name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room %q: expected 201, got %d", name, resp.StatusCode)
	}
	var room RoomResponse
	decodeJSON(t, resp, &room)
	return room
}

func TestCreateAndListRooms(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.login(t, "alice@example.com")
	bob := env.login(t, "bob@example.com")

	general := env.createRoom(t, alice, "General")
	env.createRoom(t, alice, "random")
	env.createRoom(t, bob, "Gophers")

	if general.ID <= 0 || general.Name != "General" || general.OwnerID == 0 {
		t.Fatalf("unexpected room: %+v", general)
	}

	var all []RoomResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/api/rooms", bob, nil), &all)
	if len(all) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(all))
	}

	var found []RoomResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/api/rooms?search=GEN", bob, nil), &found)
	if len(found) != 1 || found[0].ID != general.ID {
		t.Fatalf("search: unexpected result %+v", found)
	}

	var mine []RoomResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/api/rooms/mine", alice, nil), &mine)
	if len(mine) != 2 {
		t.Fatalf("mine: expected 2 rooms, got %d", len(mine))
	}
}

func TestCreateRoom_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.login(t, "alice@example.com")

	for _, body := range []any{
		CreateRoomRequest{Name: ""},
		CreateRoomRequest{Name: "   "},
		map[string]int{"name": 5},
	} {
		if resp := env.do(t, http.MethodPost, "/api/rooms", alice, body); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", body, resp.StatusCode)
		}
	}

	if resp := env.do(t, http.MethodPost, "/api/rooms", env.token(t, "cli-user"), CreateRoomRequest{Name: "x"}); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("subject-only token: expected 403, got %d", resp.StatusCode)
	}
}

func TestDeleteRoom(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.login(t, "alice@example.com")
	bob := env.login(t, "bob@example.com")

	room := env.createRoom(t, alice, "doomed")
	path := fmt.Sprintf("/api/rooms/%d", room.ID)

	if resp := env.do(t, http.MethodDelete, path, bob, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner delete: expected 403, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodDelete, path, alice, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodDelete, path, alice, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodDelete, "/api/rooms/nope", alice, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", resp.StatusCode)
	}
}

func TestOnline_EmptyRoom(t *testing.T) {
	env := newTestEnv(t, nil)

	var online OnlineResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/api/rooms/42/online", env.token(t, "alice"), nil), &online)
	if online.RoomID != 42 || online.Online != 0 {
		t.Fatalf("unexpected online response: %+v", online)
	}

	if resp := env.do(t, http.MethodGet, "/api/rooms/0/online", env.token(t, "alice"), nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestOnlineRooms(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "watcher")

	var empty []OnlineResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/api/rooms/online", token, nil), &empty)
	if len(empty) != 0 {
		t.Fatalf("expected no online rooms, got %+v", empty)
	}

	alice := env.dial(t, "5", env.token(t, "alice"))
	expectLine(t, alice, "alice joined the chat")
	bob := env.dial(t, "5", env.token(t, "bob"))
	expectLine(t, bob, "bob joined the chat")
	carol := env.dial(t, "2", env.token(t, "carol"))
	expectLine(t, carol, "carol joined the chat")

	var online []OnlineResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/api/rooms/online", token, nil), &online)
	want := []OnlineResponse{{RoomID: 2, Online: 1}, {RoomID: 5, Online: 2}}
	if len(online) != len(want) || online[0] != want[0] || online[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want, online)
	}
}
