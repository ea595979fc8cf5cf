package core

import (
	"fmt"
	"slices"
	"time"
)

// RoomSession is one user's role-scoped handle on a shared room.
type RoomSession struct {
	room     *Room
	username string
	role     Role
	loc      *time.Location
	now      func() time.Time
	footer   string
}

// Action is a room update submitted by a session.
type Action struct {
	Kind     ActionKind
	Info     MeetingInfo
	Risk     string
	Measure  string
	Notes    string
	Person   string
	Duty     string
	Deadline time.Time
}

// ActionResult reports what an action did. Changed is false for validation no-ops.
type ActionResult struct {
	Kind             ActionKind
	Changed          bool
	AlreadyConfirmed bool
}

// MemberConfirmation is one row of the admin's signature overview.
type MemberConfirmation struct {
	Name      string
	Confirmed bool
}

// Summary counts confirmations among registered members.
type Summary struct {
	Confirmed int
	Total     int
	Members   []MemberConfirmation
}

// RoomView is what one user sees of the room.
type RoomView struct {
	RoomCode   string
	Admin      string
	Username   string
	Role       Role
	Info       MeetingInfo
	InfoSet    bool
	Attendees  []string
	Discussion []DiscussionItem
	Notes      string
	Tasks      []Task
	Confirmed  bool
	Summary    *Summary
	Revision   int64
}

func (s *RoomSession) Username() string { return s.username }
func (s *RoomSession) Role() Role       { return s.role }
func (s *RoomSession) IsAdmin() bool    { return s.role == RoleAdmin }
func (s *RoomSession) RoomCode() string { return s.room.Code }
func (s *RoomSession) Room() *Room      { return s.room }

// RecordAttendance adds the user to the attendee list once.
func (s *RoomSession) RecordAttendance() bool {
	return s.room.mutate(func() bool {
		var added bool
		s.room.attendees, added = appendOnce(s.room.attendees, s.username)
		return added
	})
}

// SetMeetingInfo replaces the meeting header. Empty fields are allowed.
func (s *RoomSession) SetMeetingInfo(date, place, tm, task string) error {
	if err := Authorize(s.role, ActionSetInfo); err != nil {
		return err
	}
	s.room.mutate(func() bool {
		s.room.info = &MeetingInfo{Date: date, Place: place, Time: tm, Task: task}
		return true
	})
	return nil
}

// MeetingInfo returns the current header; set is false until the admin first saves it.
func (s *RoomSession) MeetingInfo() (info MeetingInfo, set bool) {
	s.room.mu.Lock()
	defer s.room.mu.Unlock()
	if s.room.info == nil {
		return MeetingInfo{}, false
	}
	return *s.room.info, true
}

// AddDiscussionItem appends a hazard and countermeasure. It is a no-op unless
// both are non-empty.
func (s *RoomSession) AddDiscussionItem(risk, measure string) (bool, error) {
	if err := Authorize(s.role, ActionAddDiscussion); err != nil {
		return false, err
	}
	if risk == "" || measure == "" {
		return false, nil
	}
	return s.room.mutate(func() bool {
		s.room.discussion = append(s.room.discussion, DiscussionItem{Risk: risk, Measure: measure})
		return true
	}), nil
}

// SetNotes overwrites the free-text notes.
func (s *RoomSession) SetNotes(text string) error {
	if err := Authorize(s.role, ActionSetNotes); err != nil {
		return err
	}
	s.room.mutate(func() bool {
		s.room.notes = text
		return true
	})
	return nil
}

// AddTask appends an action item. It is a no-op unless person and duty are
// non-empty; a zero deadline means today.
func (s *RoomSession) AddTask(person, duty string, deadline time.Time) (bool, error) {
	if err := Authorize(s.role, ActionAddTask); err != nil {
		return false, err
	}
	if person == "" || duty == "" {
		return false, nil
	}
	if deadline.IsZero() {
		deadline = s.Today()
	}
	return s.room.mutate(func() bool {
		s.room.tasks = append(s.room.tasks, Task{Person: person, Duty: duty, Deadline: deadline})
		return true
	}), nil
}

// ConfirmReview signs the minutes for the user. already is true when the user had
// signed before; that is not an error.
func (s *RoomSession) ConfirmReview() (already bool) {
	added := s.room.mutate(func() bool {
		var added bool
		s.room.confirmations, added = appendOnce(s.room.confirmations, s.username)
		return added
	})
	return !added
}

// ConfirmationSummary lists every registered member with their signature status.
func (s *RoomSession) ConfirmationSummary() (Summary, error) {
	if err := Authorize(s.role, ActionViewSummary); err != nil {
		return Summary{}, err
	}
	return summarize(s.room.Snapshot()), nil
}

func summarize(state RoomState) Summary {
	summary := Summary{
		Total:   len(state.Members),
		Members: make([]MemberConfirmation, 0, len(state.Members)),
	}
	for _, name := range state.Members {
		confirmed := slices.Contains(state.Confirmations, name)
		if confirmed {
			summary.Confirmed++
		}
		summary.Members = append(summary.Members, MemberConfirmation{Name: name, Confirmed: confirmed})
	}
	return summary
}

// View projects the room for this user. Only the admin sees the summary.
func (s *RoomSession) View() RoomView {
	state := s.room.Snapshot()
	view := RoomView{
		RoomCode:   state.Code,
		Admin:      state.Admin,
		Username:   s.username,
		Role:       s.role,
		Info:       state.Info,
		InfoSet:    state.InfoSet,
		Attendees:  state.Attendees,
		Discussion: state.Discussion,
		Notes:      state.Notes,
		Tasks:      state.Tasks,
		Confirmed:  slices.Contains(state.Confirmations, s.username),
		Revision:   state.Revision,
	}
	if s.IsAdmin() {
		summary := summarize(state)
		view.Summary = &summary
	}
	return view
}

// RenderPrintable builds the read-only printable minutes.
func (s *RoomSession) RenderPrintable() Printable {
	return renderPrintable(s.room.Snapshot(), s.footer)
}

// Minutes returns the room state and its printable form from a single snapshot,
// so the revision matches the document.
func (s *RoomSession) Minutes() (RoomState, Printable) {
	state := s.room.Snapshot()
	return state, renderPrintable(state, s.footer)
}

// Apply authorizes and performs an action.
func (s *RoomSession) Apply(action Action) (ActionResult, error) {
	result := ActionResult{Kind: action.Kind}
	if err := Authorize(s.role, action.Kind); err != nil {
		return result, err
	}

	var err error
	switch action.Kind {
	case ActionSetInfo:
		err = s.SetMeetingInfo(action.Info.Date, action.Info.Place, action.Info.Time, action.Info.Task)
		result.Changed = err == nil
	case ActionAddDiscussion:
		result.Changed, err = s.AddDiscussionItem(action.Risk, action.Measure)
	case ActionSetNotes:
		err = s.SetNotes(action.Notes)
		result.Changed = err == nil
	case ActionAddTask:
		result.Changed, err = s.AddTask(action.Person, action.Duty, action.Deadline)
	case ActionConfirm:
		result.AlreadyConfirmed = s.ConfirmReview()
		result.Changed = !result.AlreadyConfirmed
	case ActionRecordAttendance:
		result.Changed = s.RecordAttendance()
	default:
		err = fmt.Errorf("%w: action %q cannot be applied", ErrBadRequest, action.Kind)
	}
	return result, err
}

// Today is the current date at midnight in the room's timezone.
func (s *RoomSession) Today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
