package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coursehub/course-online-server/internal/middleware"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	ws "github.com/coursehub/course-online-server/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// CourseSubscriber streams the events of one course. Implemented by
// service.CourseEventBus.
type CourseSubscriber interface {
	Subscribe(ctx context.Context, courseID int) (<-chan model.CourseEvent, error)
}

// WSHandler streams course changes to the owner and enrolled users.
type WSHandler struct {
	courseService *service.CourseService
	events        CourseSubscriber
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(courseService *service.CourseService, events CourseSubscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		courseService: courseService,
		events:        events,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// CourseStream godoc
// WS /ws/v1/courses/:id/stream?token=...
// Upgrades to WebSocket and pushes every change of the course.
func (h *WSHandler) CourseStream(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	// Access is decided before the upgrade so rejections are plain HTTP.
	allowed, err := h.courseService.CanFollow(c.Request.Context(), identity.SubjectID, courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrCourseNotFound)
			return
		}
		h.log.Error().Err(err).Int("course_id", courseID).Msg("Stream access check failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !allowed {
		response.Fail(c, http.StatusForbidden, response.ErrStreamAccessDenied)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("subject_id", identity.SubjectID).
		Int("course_id", courseID).
		Logger()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, err := h.events.Subscribe(ctx, courseID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Subscribe failed")
		_ = conn.WriteError("subscription failed")
		return
	}

	if err := conn.WriteTyped(ws.ReadyResponse{Event: ws.EventReady, CourseID: courseID}); err != nil {
		return
	}
	wsLog.Info().Msg("Subscriber connected")

	go h.readLoop(conn, wsLog, cancel)

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Subscriber disconnected")
			return
		case evt, open := <-events:
			if !open {
				return
			}
			if err := conn.WriteTyped(ws.CourseEventResponse{Event: ws.EventCourse, Data: evt}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
			if evt.Type == model.EventCourseDeleted {
				_ = conn.WriteClose(websocket.CloseNormalClosure, "course deleted")
				return
			}
		}
	}
}

// readLoop answers pings and cancels the stream when the client goes away.
func (h *WSHandler) readLoop(conn *ws.Conn, wsLog zerolog.Logger, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}
