package core

import (
	"fmt"
	"strings"
)

// Role is the role a user declared at login.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole accepts the API role names and the Korean form labels.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "관리자":
		return RoleAdmin, nil
	case "member", "팀원":
		return RoleMember, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrBadRequest, s)
	}
}

// ActionKind names an operation a session may perform on its room.
type ActionKind string

const (
	ActionSetInfo          ActionKind = "setInfo"
	ActionAddDiscussion    ActionKind = "addDiscussion"
	ActionSetNotes         ActionKind = "setNotes"
	ActionAddTask          ActionKind = "addTask"
	ActionConfirm          ActionKind = "confirm"
	ActionRecordAttendance ActionKind = "recordAttendance"
	// ActionViewSummary and ActionListArchive are not submitted as actions but
	// are authorized like one.
	ActionViewSummary ActionKind = "viewSummary"
	ActionListArchive ActionKind = "listArchive"
)

var adminOnly = map[ActionKind]bool{
	ActionSetInfo:          true,
	ActionAddDiscussion:    true,
	ActionSetNotes:         true,
	ActionAddTask:          true,
	ActionViewSummary:      true,
	ActionListArchive:      true,
	ActionConfirm:          false,
	ActionRecordAttendance: false,
}

// Authorize is the single place the trust model is enforced. Identity comes from
// the name and room code the user logged in with; there are no credentials.
func Authorize(role Role, kind ActionKind) error {
	admin, known := adminOnly[kind]
	if !known {
		return fmt.Errorf("%w: unknown action %q", ErrBadRequest, kind)
	}
	if admin && role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
