package websocket

import "github.com/coursehub/course-online-server/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady  Event = "ready"
	EventCourse Event = "course_event"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ReadyResponse is sent once the subscription is live.
type ReadyResponse struct {
	Event    Event `json:"event"`
	CourseID int   `json:"course_id"`
}

// CourseEventResponse wraps one change of the followed course.
type CourseEventResponse struct {
	Event Event             `json:"event"`
	Data  model.CourseEvent `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
