package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ProtocolVersion is announced in the snapshot sent on connect.
const ProtocolVersion = 1

const (

	InboundTypeAction = "action"
	InboundTypePing   = "ping"

	OutboundTypeSnapshot = "snapshot"
	OutboundTypeEvent    = "event"
	OutboundTypeResult   = "result"
	OutboundTypePong     = "pong"
	OutboundTypeError    = "error"

	EventRoomUpdated  = "room_updated"
	EventRoomReplaced = "room_replaced"
)

// ActionRequest submits one room action. Payload shape depends on Action.
type ActionRequest struct {
	Action  string          `json:"action" binding:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InfoPayload replaces the meeting header.
type InfoPayload struct {
	Date  string `json:"date"`
	Place string `json:"place"`
	Time  string `json:"time"`
	Task  string `json:"task"`
}

// DiscussionPayload adds a hazard and its countermeasure.
type DiscussionPayload struct {
	Risk    string `json:"risk"`
	Measure string `json:"measure"`
}

// NotesPayload overwrites the additional notes.
type NotesPayload struct {
	Notes string `json:"notes"`
}

// TaskPayload adds an action item. Deadline is YYYY-MM-DD; empty means today.
type TaskPayload struct {
	Person   string `json:"person"`
	Duty     string `json:"duty"`
	Deadline string `json:"deadline,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Version int    `json:"version,omitempty"`
	Event   string `json:"event,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// EventRoom tells a viewer the room changed; Room carries the viewer's fresh view.
type EventRoom struct {
	RoomCode string    `json:"room_code"`
	User     string    `json:"user,omitempty"`
	Action   string    `json:"action,omitempty"`
	Revision int64     `json:"revision"`
	Room     *RoomView `json:"room,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
