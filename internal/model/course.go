package model

import "time"

// Course is owned by exactly one teacher. Ownership never changes after
// creation.
type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TeacherID   int       `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Title       string `json:"title" binding:"required,notblank,min=3,max=255"`
	Description string `json:"description" binding:"max=5000"`
}
