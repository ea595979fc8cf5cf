package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Kay0310/toolboxtalk-v27/internal/core"
	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
	"github.com/Kay0310/toolboxtalk-v27/internal/service/minutes"
)

const (
	defaultArchiveLimit = 50
	maxArchiveLimit     = 200
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RoomHandlers serves login and the room endpoints.
type RoomHandlers struct {
	svc        *minutes.Service
	sessionTTL time.Duration
	loc        *time.Location
	log        *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(svc *minutes.Service, sessionTTL time.Duration, loc *time.Location, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		svc:        svc,
		sessionTTL: sessionTTL,
		loc:        loc,
		log:        logger,
	}
}

// Login creates (admin) or joins (member) a room.
// POST /api/login
func (h *RoomHandlers) Login(c *gin.Context) {
	var req proto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), minutes.LoginInput{
		Name:       req.Name,
		Role:       req.Role,
		RoomCode:   req.RoomCode,
		MembersCSV: req.Members,
	})
	if err != nil {
		h.fail(c, err, "login failed")
		return
	}

	c.JSON(http.StatusCreated, proto.LoginResponse{
		Token:     res.Token,
		ExpiresIn: int64(h.sessionTTL.Seconds()),
		Replaced:  res.Replaced,
		Room:      proto.FromRoomView(res.View),
	})
}

// GetRoom returns the caller's view and records attendance.
// GET /api/room
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	view, err := h.svc.View(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, err, "view room failed")
		return
	}
	c.JSON(http.StatusOK, proto.FromRoomView(view))
}

// ApplyAction performs one room action.
// POST /api/room/actions
func (h *RoomHandlers) ApplyAction(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req proto.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid action request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	action, err := decodeAction(req, h.loc)
	if err != nil {
		h.fail(c, err, "decode action failed")
		return
	}

	out, err := h.svc.Apply(c.Request.Context(), claims, action)
	if err != nil {
		h.fail(c, err, "apply action failed")
		return
	}

	c.JSON(http.StatusOK, proto.ActionResponse{
		Result:    proto.FromActionResult(out.Result),
		Room:      proto.FromRoomView(out.View),
		Printable: proto.FromPrintable(out.Printable),
	})
}

// GetSummary returns the confirmation overview; admin only.
// GET /api/room/summary
func (h *RoomHandlers) GetSummary(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, err, "summary failed")
		return
	}
	c.JSON(http.StatusOK, proto.FromSummary(summary))
}

// GetPrintable returns the printable minutes as JSON, or as text with ?format=text.
// GET /api/room/print
func (h *RoomHandlers) GetPrintable(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	p, err := h.svc.Printable(c.Request.Context(), claims)
	if err != nil {
		h.fail(c, err, "printable failed")
		return
	}

	if c.Query("format") == "text" {
		var b strings.Builder
		if err := p.WriteText(&b); err != nil {
			h.fail(c, err, "render text failed")
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(b.String()))
		return
	}
	c.JSON(http.StatusOK, proto.FromPrintable(p))
}

// GetArchive returns the archived minutes of the caller's room.
// GET /api/archive/:code
func (h *RoomHandlers) GetArchive(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	m, err := h.svc.Archived(c.Request.Context(), claims, c.Param("code"))
	if err != nil {
		h.fail(c, err, "archive lookup failed")
		return
	}

	var doc proto.PrintableView
	if err := json.Unmarshal(m.Document, &doc); err != nil {
		h.fail(c, err, "decode archived minutes failed")
		return
	}

	c.JSON(http.StatusOK, proto.ArchiveView{
		RoomCode:  m.RoomCode,
		Admin:     m.Admin,
		Revision:  m.Revision,
		UpdatedAt: m.UpdatedAt.UTC().Format(time.RFC3339),
		Minutes:   &doc,
	})
}

// ListArchive lists archived minutes without their documents; admin only.
// GET /api/archive?limit=N
func (h *RoomHandlers) ListArchive(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	limit := defaultArchiveLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: core.ErrCodeBadRequest})
			return
		}
		limit = min(n, maxArchiveLimit)
	}

	list, err := h.svc.ListArchived(c.Request.Context(), claims, limit)
	if err != nil {
		h.fail(c, err, "archive list failed")
		return
	}

	resp := proto.ArchiveListView{Archives: make([]proto.ArchiveView, 0, len(list))}
	for _, m := range list {
		resp.Archives = append(resp.Archives, proto.ArchiveView{
			RoomCode:  m.RoomCode,
			Admin:     m.Admin,
			Revision:  m.Revision,
			UpdatedAt: m.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RoomHandlers) fail(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	ev := h.log.Debug()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(err).Int("status", status).Msg(msg)
	c.JSON(status, errorBody(err))
}
