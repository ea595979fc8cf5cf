package core

import (
	"slices"
	"sync"
	"time"
)

// MeetingInfo is the meeting header. The admin replaces it in full on every edit.
type MeetingInfo struct {
	Date  string
	Place string
	Time  string
	Task  string
}

// DiscussionItem pairs a hazard with its countermeasure.
type DiscussionItem struct {
	Risk    string
	Measure string
}

// Task is a decided action item.
type Task struct {
	Person   string
	Duty     string
	Deadline time.Time
}

// Room is the shared minutes record for one room code. Every read and write goes
// through mu.
type Room struct {
	Code      string
	ID        string
	Admin     string
	CreatedAt time.Time

	mu            sync.Mutex
	now           func() time.Time
	members       []string
	attendees     []string
	confirmations []string
	discussion    []DiscussionItem
	tasks         []Task
	info          *MeetingInfo
	notes         string
	revision      int64
	updatedAt     time.Time
}

// RoomState is a point-in-time copy of a room.
type RoomState struct {
	Code          string
	ID            string
	Admin         string
	Members       []string
	Attendees     []string
	Confirmations []string
	Discussion    []DiscussionItem
	Tasks         []Task
	Info          MeetingInfo
	InfoSet       bool
	Notes         string
	Revision      int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func newRoom(code, id, admin string, members []string, now func() time.Time) *Room {
	created := now()
	return &Room{
		Code:          code,
		ID:            id,
		Admin:         admin,
		CreatedAt:     created,
		now:           now,
		members:       members,
		attendees:     []string{},
		confirmations: []string{},
		discussion:    []DiscussionItem{},
		tasks:         []Task{},
		updatedAt:     created,
	}
}

// HasMember reports whether name was registered at creation.
func (r *Room) HasMember(name string) bool {
	return slices.Contains(r.members, name)
}

// Snapshot copies the current state.
func (r *Room) Snapshot() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() RoomState {
	state := RoomState{
		Code:          r.Code,
		ID:            r.ID,
		Admin:         r.Admin,
		Members:       slices.Clone(r.members),
		Attendees:     slices.Clone(r.attendees),
		Confirmations: slices.Clone(r.confirmations),
		Discussion:    slices.Clone(r.discussion),
		Tasks:         slices.Clone(r.tasks),
		Notes:         r.notes,
		Revision:      r.revision,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.updatedAt,
	}
	if r.info != nil {
		state.Info = *r.info
		state.InfoSet = true
	}
	return state
}

// mutate runs fn under the room lock and bumps the revision when fn reports a change.
func (r *Room) mutate(fn func() bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !fn() {
		return false
	}
	r.revision++
	r.updatedAt = r.now()
	return true
}

func appendOnce(list []string, name string) ([]string, bool) {
	if slices.Contains(list, name) {
		return list, false
	}
	return append(list, name), true
}
