package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
	"github.com/Kay0310/toolboxtalk-v27/internal/service/minutes"
)

// decodeAction turns a wire action into a core action. Deadlines are dates in loc.
func decodeAction(req proto.ActionRequest, loc *time.Location) (core.Action, error) {
	action := core.Action{Kind: core.ActionKind(req.Action)}

	switch action.Kind {
	case core.ActionSetInfo:
		var p proto.InfoPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return action, err
		}
		action.Info = core.MeetingInfo{Date: p.Date, Place: p.Place, Time: p.Time, Task: p.Task}
	case core.ActionAddDiscussion:
		var p proto.DiscussionPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return action, err
		}
		action.Risk, action.Measure = p.Risk, p.Measure
	case core.ActionSetNotes:
		var p proto.NotesPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return action, err
		}
		action.Notes = p.Notes
	case core.ActionAddTask:
		var p proto.TaskPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return action, err
		}
		action.Person, action.Duty = p.Person, p.Duty
		if p.Deadline != "" {
			deadline, err := time.ParseInLocation(core.DateLayout, p.Deadline, loc)
			if err != nil {
				return action, fmt.Errorf("%w: deadline must be YYYY-MM-DD", core.ErrBadRequest)
			}
			action.Deadline = deadline
		}
	case core.ActionConfirm, core.ActionRecordAttendance:
	default:
		return action, fmt.Errorf("%w: unknown action %q", core.ErrBadRequest, req.Action)
	}

	return action, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: invalid payload", core.ErrBadRequest)
	}
	return nil
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case core.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrRoomNotFound), errors.Is(err, minutes.ErrArchiveDisabled):
		return http.StatusNotFound
	case errors.Is(err, core.ErrRoomExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders err for clients; internal details stay in the logs.
func errorBody(err error) ErrorResponse {
	if errors.Is(err, minutes.ErrArchiveDisabled) {
		return ErrorResponse{Error: err.Error(), Code: core.ErrCodeRoomNotFound}
	}
	ce := core.ToCoreError(err)
	return ErrorResponse{Error: ce.Message, Code: ce.Code}
}

func outboundError(err error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Error: proto.ErrorFrom(err)}
}
