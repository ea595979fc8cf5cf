package minutes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Kay0310/toolboxtalk-v27/internal/auth"
	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/metrics"
	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
	"github.com/Kay0310/toolboxtalk-v27/internal/store"
	"github.com/rs/zerolog"
)

// ErrArchiveDisabled is returned by Archived when no database is configured.
var ErrArchiveDisabled = errors.New("minutes archive is disabled")

// Service ties the room registry to tokens, live updates and the archive.
type Service struct {
	rooms          *core.RoomStore
	hub            *core.Hub
	archive        store.MinutesStore
	tokens         *auth.Service
	metrics        *metrics.Metrics
	log            zerolog.Logger
	defaultMembers string
}

// Deps are the collaborators of a Service. Archive and Metrics may be nil.
type Deps struct {
	Rooms          *core.RoomStore
	Hub            *core.Hub
	Archive        store.MinutesStore
	Tokens         *auth.Service
	Metrics        *metrics.Metrics
	Log            zerolog.Logger
	DefaultMembers string
}

// New creates a minutes service.
func New(d Deps) *Service {
	return &Service{
		rooms:          d.Rooms,
		hub:            d.Hub,
		archive:        d.Archive,
		tokens:         d.Tokens,
		metrics:        d.Metrics,
		log:            d.Log,
		defaultMembers: d.DefaultMembers,
	}
}

// LoginInput is what a user types on the login form.
type LoginInput struct {
	Name       string
	Role       string
	RoomCode   string
	MembersCSV string
}

// LoginResult is an opened session plus the token that reopens it.
type LoginResult struct {
	Token    string
	Session  *core.RoomSession
	Replaced bool
	View     core.RoomView
}

// Login creates the room (admin) or joins it (member) and opens a session.
// Opening the room records attendance.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	role, err := core.ParseRole(in.Role)
	if err != nil {
		s.metrics.ObserveLogin("unknown", "invalid")
		return nil, err
	}
	name := strings.TrimSpace(in.Name)

	var (
		sess     *core.RoomSession
		replaced bool
	)
	switch role {
	case core.RoleAdmin:
		members := in.MembersCSV
		if strings.TrimSpace(members) == "" {
			members = s.defaultMembers
		}
		room, wasReplaced, createErr := s.rooms.CreateRoom(in.RoomCode, name, members)
		if createErr != nil {
			s.metrics.ObserveLogin(string(role), "invalid")
			return nil, createErr
		}
		replaced = wasReplaced
		sess = s.rooms.Session(room, name, core.RoleAdmin)
		s.metrics.SetRooms(s.rooms.Len())
	default:
		room, joinErr := s.rooms.JoinRoom(in.RoomCode, name)
		if joinErr != nil {
			s.metrics.ObserveLogin(string(role), "denied")
			var authErr *core.AuthError
			if errors.As(joinErr, &authErr) {
				s.log.Info().
					Str("room_code", authErr.RoomCode).
					Str("user", authErr.Name).
					Str("reason", authErr.Reason).
					Msg("join rejected")
			}
			return nil, joinErr
		}
		sess = s.rooms.Session(room, name, core.RoleMember)
	}

	token, err := s.tokens.IssueSession(auth.Identity{
		Username: sess.Username(),
		Role:     string(sess.Role()),
		RoomCode: sess.RoomCode(),
		RoomID:   sess.Room().ID,
	})
	if err != nil {
		s.metrics.ObserveLogin(string(role), "error")
		return nil, fmt.Errorf("issue session: %w", err)
	}

	if replaced {
		s.log.Warn().Str("room_code", sess.RoomCode()).Str("user", name).Msg("room code reused, previous room replaced")
		s.hub.Publish(&core.Event{Kind: core.EventRoomReplaced, Room: sess.RoomCode(), User: name})
	}
	if sess.RecordAttendance() {
		s.changed(ctx, sess, core.ActionRecordAttendance)
	}

	s.metrics.ObserveLogin(string(role), "ok")
	s.log.Info().
		Str("room_code", sess.RoomCode()).
		Str("user", name).
		Str("role", string(role)).
		Msg("session opened")

	return &LoginResult{Token: token, Session: sess, Replaced: replaced, View: sess.View()}, nil
}

// Session reopens the session a token was issued for.
func (s *Service) Session(_ context.Context, claims *auth.Claims) (*core.RoomSession, error) {
	id := claims.Identity()
	role, err := core.ParseRole(id.Role)
	if err != nil {
		return nil, err
	}
	return s.rooms.Open(id.RoomCode, id.RoomID, id.Username, role)
}

// View records attendance and returns the caller's view.
func (s *Service) View(ctx context.Context, claims *auth.Claims) (core.RoomView, error) {
	sess, err := s.Session(ctx, claims)
	if err != nil {
		return core.RoomView{}, err
	}
	if sess.RecordAttendance() {
		s.changed(ctx, sess, core.ActionRecordAttendance)
	}
	return sess.View(), nil
}

// Outcome is the result of an applied action with the caller's fresh projections.
type Outcome struct {
	Result    core.ActionResult
	View      core.RoomView
	Printable core.Printable
}

// Apply performs one action for the token holder.
func (s *Service) Apply(ctx context.Context, claims *auth.Claims, action core.Action) (*Outcome, error) {
	sess, err := s.Session(ctx, claims)
	if err != nil {
		s.metrics.ObserveAction(string(action.Kind), "denied")
		return nil, err
	}

	res, err := sess.Apply(action)
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, core.ErrForbidden):
			result = "forbidden"
		case errors.Is(err, core.ErrBadRequest):
			result = "invalid"
		}
		s.metrics.ObserveAction(string(action.Kind), result)
		s.log.Debug().Err(err).
			Str("room_code", sess.RoomCode()).
			Str("user", sess.Username()).
			Str("action", string(action.Kind)).
			Msg("action rejected")
		return nil, err
	}

	if res.Changed {
		s.metrics.ObserveAction(string(action.Kind), "ok")
		s.changed(ctx, sess, action.Kind)
	} else {
		s.metrics.ObserveAction(string(action.Kind), "noop")
	}

	return &Outcome{Result: res, View: sess.View(), Printable: sess.RenderPrintable()}, nil
}

// Summary returns the confirmation overview; admin only.
func (s *Service) Summary(ctx context.Context, claims *auth.Claims) (core.Summary, error) {
	sess, err := s.Session(ctx, claims)
	if err != nil {
		return core.Summary{}, err
	}
	return sess.ConfirmationSummary()
}

// Printable returns the printable minutes of the caller's room.
func (s *Service) Printable(ctx context.Context, claims *auth.Claims) (core.Printable, error) {
	sess, err := s.Session(ctx, claims)
	if err != nil {
		return core.Printable{}, err
	}
	return sess.RenderPrintable(), nil
}

// Archived returns the stored minutes for code. Users may only read their own room.
func (s *Service) Archived(ctx context.Context, claims *auth.Claims, code string) (*store.Minutes, error) {
	if code != claims.RoomCode {
		return nil, core.ErrForbidden
	}
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	m, err := s.archive.GetMinutes(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", core.ErrRoomNotFound, err)
		}
		return nil, fmt.Errorf("get minutes: %w", err)
	}
	return m, nil
}

// ListArchived returns up to limit archived minutes, most recent first. Only a
// room admin with a live session may list.
func (s *Service) ListArchived(ctx context.Context, claims *auth.Claims, limit int) ([]*store.Minutes, error) {
	sess, err := s.Session(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := core.Authorize(sess.Role(), core.ActionListArchive); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	list, err := s.archive.ListMinutes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list minutes: %w", err)
	}
	return list, nil
}

// Hub exposes the event hub.
func (s *Service) Hub() *core.Hub {
	return s.hub
}

// changed archives the room and notifies live viewers. It runs after the room
// lock is released.
func (s *Service) changed(ctx context.Context, sess *core.RoomSession, kind core.ActionKind) {
	state, printable := sess.Minutes()
	s.hub.Publish(&core.Event{
		Kind:     core.EventRoomUpdated,
		Room:     state.Code,
		User:     sess.Username(),
		Action:   kind,
		Revision: state.Revision,
	})
	s.save(ctx, state, printable)
}

func (s *Service) save(ctx context.Context, state core.RoomState, printable core.Printable) {
	if s.archive == nil {
		return
	}
	doc, err := json.Marshal(proto.FromPrintable(printable))
	if err == nil {
		err = s.archive.SaveMinutes(ctx, &store.Minutes{
			RoomCode:  state.Code,
			RoomID:    state.ID,
			Admin:     state.Admin,
			Revision:  state.Revision,
			CreatedAt: state.CreatedAt,
			Document:  doc,
			UpdatedAt: state.UpdatedAt,
		})
	}
	s.metrics.ObserveArchiveWrite(err)
	if err != nil {
		s.log.Error().Err(err).Str("room_code", state.Code).Msg("archive minutes failed")
	}
}
