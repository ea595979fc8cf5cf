package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoomStore is the process-wide registry of rooms keyed by room code.
type RoomStore struct {
	mu              sync.RWMutex
	rooms           map[string]*Room
	rejectOverwrite bool
	now             func() time.Time
	loc             *time.Location
	footer          string
}

// StoreOption configures a RoomStore.
type StoreOption func(*RoomStore)

// WithRejectOverwrite makes CreateRoom fail with ErrRoomExists instead of replacing a room.
func WithRejectOverwrite(reject bool) StoreOption {
	return func(s *RoomStore) { s.rejectOverwrite = reject }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *RoomStore) { s.now = now }
}

// WithLocation sets the timezone used for "today" task deadlines.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *RoomStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithFooter sets the attribution line of printable minutes.
func WithFooter(footer string) StoreOption {
	return func(s *RoomStore) { s.footer = footer }
}

// NewRoomStore creates an empty registry.
func NewRoomStore(opts ...StoreOption) *RoomStore {
	s := &RoomStore{
		rooms: make(map[string]*Room),
		now:   time.Now,
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseMembers splits a comma separated member list, trimming each name and
// dropping empty entries.
func ParseMembers(csv string) []string {
	parts := strings.Split(csv, ",")
	members := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			members = append(members, name)
		}
	}
	return members
}

// CreateRoom registers a new room under code. An existing room with the same code
// is replaced and replaced reports true, unless the store rejects overwrites.
func (s *RoomStore) CreateRoom(code, adminName, membersCSV string) (room *Room, replaced bool, err error) {
	if code == "" || strings.TrimSpace(adminName) == "" {
		return nil, false, fmt.Errorf("%w: room code and admin name are required", ErrBadRequest)
	}

	room = newRoom(code, uuid.NewString(), adminName, ParseMembers(membersCSV), s.now)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced = s.rooms[code]
	if replaced && s.rejectOverwrite {
		return nil, false, ErrRoomExists
	}
	s.rooms[code] = room
	return room, replaced, nil
}

// GetRoom looks a room up by exact code.
func (s *RoomStore) GetRoom(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

// JoinRoom returns the shared room for a registered member.
func (s *RoomStore) JoinRoom(code, name string) (*Room, error) {
	room, ok := s.GetRoom(code)
	if !ok {
		return nil, authError(code, name, ReasonUnknownRoom)
	}
	if !room.HasMember(name) {
		return nil, authError(code, name, ReasonNotMember)
	}
	return room, nil
}

// Open rebuilds a session from the identity a client carries between requests.
// roomID must match the room currently registered under code, so a session
// issued before the code was reused cannot touch the new room.
func (s *RoomStore) Open(code, roomID, name string, role Role) (*RoomSession, error) {
	room, ok := s.GetRoom(code)
	if !ok {
		return nil, authError(code, name, ReasonUnknownRoom)
	}
	if roomID != "" && room.ID != roomID {
		return nil, authError(code, name, ReasonRoomReplaced)
	}

	switch role {
	case RoleAdmin:
		if room.Admin != name {
			return nil, authError(code, name, ReasonNotAdmin)
		}
	case RoleMember:
		if !room.HasMember(name) {
			return nil, authError(code, name, ReasonNotMember)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, role)
	}

	return s.Session(room, name, role), nil
}

// Session binds a user to a room without re-checking membership.
func (s *RoomStore) Session(room *Room, name string, role Role) *RoomSession {
	return &RoomSession{
		room:     room,
		username: name,
		role:     role,
		loc:      s.loc,
		now:      s.now,
		footer:   s.footer,
	}
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
