package model

import "time"

// CourseEventType enumerates changes fanned out to course subscribers.
type CourseEventType string

const (
	EventCourseUpdated CourseEventType = "course_updated"
	EventCourseDeleted CourseEventType = "course_deleted"
	EventLessonCreated CourseEventType = "lesson_created"
	EventLessonUpdated CourseEventType = "lesson_updated"
	EventLessonDeleted CourseEventType = "lesson_deleted"
)

// CourseEvent is published on the course's Redis channel.
type CourseEvent struct {
	Type      CourseEventType `json:"type"`
	CourseID  int             `json:"course_id"`
	LessonID  int             `json:"lesson_id,omitempty"`
	Title     string          `json:"title,omitempty"`
	ActorID   string          `json:"actor_id"`
	Timestamp time.Time       `json:"timestamp"`
}
