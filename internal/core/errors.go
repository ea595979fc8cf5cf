package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAuth         = "auth_failed"
	ErrCodeForbidden    = "forbidden"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeRoomExists   = "room_exists"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal"
)

// AuthErrorMessage is shown to users whose join or session check failed.
const AuthErrorMessage = "not a registered name or invalid room code"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrForbidden    = errors.New("only the room admin may do this")
	ErrBadRequest   = errors.New("bad request")
)

// AuthError reports a failed join or a session that no longer matches its room.
type AuthError struct {
	RoomCode string
	Name     string
	Reason   string
}

func (e *AuthError) Error() string {
	return AuthErrorMessage
}

// Auth failure reasons, kept for logs only.
const (
	ReasonUnknownRoom  = "unknown_room"
	ReasonNotMember    = "not_member"
	ReasonNotAdmin     = "not_admin"
	ReasonRoomReplaced = "room_replaced"
)

func authError(code, name, reason string) *AuthError {
	return &AuthError{RoomCode: code, Name: name, Reason: reason}
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ToCoreError maps domain errors onto wire error codes.
func ToCoreError(err error) *CoreError {
	var ce *CoreError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return ce
	case IsAuthError(err):
		return coreError(ErrCodeAuth, AuthErrorMessage)
	case errors.Is(err, ErrForbidden):
		return coreError(ErrCodeForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrRoomNotFound):
		return coreError(ErrCodeRoomNotFound, ErrRoomNotFound.Error())
	case errors.Is(err, ErrRoomExists):
		return coreError(ErrCodeRoomExists, ErrRoomExists.Error())
	case errors.Is(err, ErrBadRequest):
		return coreError(ErrCodeBadRequest, err.Error())
	default:
		return coreError(ErrCodeInternal, "internal error")
	}
}
