package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Kay0310/toolboxtalk-v27/internal/auth"
	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/metrics"
	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
	"github.com/Kay0310/toolboxtalk-v27/internal/service/minutes"
)

// errSessionEnded stops a connection whose room was replaced under it.
var errSessionEnded = errors.New("session ended")

// WSHandler upgrades HTTP connections and streams live room views.
type WSHandler struct {
	svc             *minutes.Service
	tokens          *auth.Service
	metrics         *metrics.Metrics
	loc             *time.Location
	maxMessageBytes int64
	rateLimitPerMin int
	log             *zerolog.Logger
}

// WSOptions configures a WSHandler.
type WSOptions struct {
	Location        *time.Location
	MaxMessageBytes int64
	RateLimitPerMin int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(svc *minutes.Service, tokens *auth.Service, m *metrics.Metrics, opts WSOptions, logger *zerolog.Logger) *WSHandler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &WSHandler{
		svc:             svc,
		tokens:          tokens,
		metrics:         m,
		loc:             loc,
		maxMessageBytes: opts.MaxMessageBytes,
		rateLimitPerMin: opts.RateLimitPerMin,
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = bearerToken(r.Header.Get("Authorization"))
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws rejected: invalid token")
		stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
		return
	}
	if _, err := h.svc.Session(r.Context(), claims); err != nil {
		h.log.Debug().Err(err).Str("room_code", claims.RoomCode).Msg("ws rejected: stale session")
		stdhttp.Error(w, core.AuthErrorMessage, stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	h.metrics.WSConnected()
	defer h.metrics.WSDisconnected()

	client := core.NewClient(uuid.NewString(), claims.Username, claims.RoomCode)
	h.svc.Hub().RegisterClient(client)
	defer h.svc.Hub().UnregisterClient(client)

	logger := h.log.With().
		Str("client_id", client.ID).
		Str("room_code", claims.RoomCode).
		Str("user", claims.Username).
		Logger()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	view, err := h.svc.View(ctx, claims)
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, core.AuthErrorMessage)
		return
	}
	snapshot := proto.Outbound{
		Type:    proto.OutboundTypeSnapshot,
		Version: proto.ProtocolVersion,
		Data:    proto.FromRoomView(view),
	}
	if err := wsjson.Write(ctx, conn, snapshot); err != nil {
		logger.Warn().Err(err).Msg("write ws snapshot")
		return
	}
	logger.Info().Msg("ws connected")

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, claims, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, claims, &logger)
	}()

	err = <-errCh
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errSessionEnded):
		status = websocket.StatusPolicyViolation
		reason = core.AuthErrorMessage
	case err != nil && !errors.Is(err, context.Canceled):
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	logger.Info().Int("status", int(status)).Msg("ws disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, claims *auth.Claims, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.rateLimitPerMin)
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"},
			}); err != nil {
				return err
			}
			continue
		}

		out := h.handleInbound(ctx, claims, inbound, logger)
		if err := wsjson.Write(ctx, conn, out); err != nil {
			return err
		}
	}
}

func (h *WSHandler) handleInbound(ctx context.Context, claims *auth.Claims, inbound proto.Inbound, logger *zerolog.Logger) proto.Outbound {
	switch inbound.Type {
	case proto.InboundTypePing:
		return proto.Outbound{Type: proto.OutboundTypePong}
	case proto.InboundTypeAction:
		var req proto.ActionRequest
		if err := json.Unmarshal(inbound.Data, &req); err != nil || req.Action == "" {
			return proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "invalid action"},
			}
		}
		action, err := decodeAction(req, h.loc)
		if err != nil {
			return outboundError(err)
		}
		out, err := h.svc.Apply(ctx, claims, action)
		if err != nil {
			logger.Debug().Err(err).Str("action", req.Action).Msg("ws action rejected")
			return outboundError(err)
		}
		return proto.Outbound{
			Type: proto.OutboundTypeResult,
			Data: proto.ActionResponse{
				Result:    proto.FromActionResult(out.Result),
				Room:      proto.FromRoomView(out.View),
				Printable: proto.FromPrintable(out.Printable),
			},
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"},
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, claims *auth.Claims, logger *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out, err := h.outboundFromEvent(ctx, event, claims)
			if err != nil {
				_ = wsjson.Write(ctx, conn, outboundError(err))
				return errSessionEnded
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				logger.Error().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// outboundFromEvent re-reads the viewer's own projection, so members never
// receive admin-only data.
func (h *WSHandler) outboundFromEvent(ctx context.Context, event *core.Event, claims *auth.Claims) (proto.Outbound, error) {
	sess, err := h.svc.Session(ctx, claims)
	if err != nil {
		return proto.Outbound{}, err
	}
	view := proto.FromRoomView(sess.View())

	name := proto.EventRoomUpdated
	if event.Kind == core.EventRoomReplaced {
		name = proto.EventRoomReplaced
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: name,
		Data: proto.EventRoom{
			RoomCode: event.Room,
			User:     event.User,
			Action:   string(event.Action),
			Revision: view.Revision,
			Room:     view,
		},
	}, nil
}
