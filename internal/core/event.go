package core

import "fmt"

// EventKind is a notification the core emits to a room.
type EventKind int

const (
	// EventJoined announces a member entering a room.
	EventJoined EventKind = iota
	// EventLeft announces a member leaving a room.
	EventLeft
	// EventSaid carries a chat message from a member.
	EventSaid
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined"
	case EventLeft:
		return "left"
	case EventSaid:
		return "said"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is sent to every member of a room.
type Event struct {
	Kind     EventKind
	Identity string
	Text     string // only for EventSaid
}

// Joined builds a join announcement for identity.
func Joined(identity string) Event {
	return Event{Kind: EventJoined, Identity: identity}
}

// Left builds a leave announcement for identity.
func Left(identity string) Event {
	return Event{Kind: EventLeft, Identity: identity}
}

// Said builds a chat message event.
func Said(identity, text string) Event {
	return Event{Kind: EventSaid, Identity: identity, Text: text}
}

// Render formats the event as the single line sent over the wire.
func (e Event) Render() string {
	switch e.Kind {
	case EventJoined:
		return e.Identity + " joined the chat"
	case EventLeft:
		return e.Identity + " left the chat"
	default:
		return e.Identity + ": " + e.Text
	}
}
