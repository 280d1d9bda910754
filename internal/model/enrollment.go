package model

import "time"

// Enrollment links a user to a course they follow.
type Enrollment struct {
	UserID     int       `json:"user_id"`
	CourseID   int       `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}
