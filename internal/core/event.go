package core

// EventKind is a notification the core emits to live viewers.
type EventKind int

const (
	// EventRoomUpdated tells viewers the room changed and should be re-read.
	EventRoomUpdated EventKind = iota
	// EventRoomReplaced tells viewers the room code now belongs to a new room.
	EventRoomReplaced
)

// Event carries no room content; each viewer re-reads its own role-scoped view.
type Event struct {
	Kind     EventKind
	Room     string
	User     string
	Action   ActionKind
	Revision int64
}
