package model

import "time"

// Lesson belongs to one course.
type Lesson struct {
	ID        int       `json:"id"`
	CourseID  int       `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonRequest is the payload for creating or updating a lesson. Both
// fields are required on update as well.
type LessonRequest struct {
	Title   string `json:"title" binding:"required,notblank,max=255"`
	Content string `json:"content" binding:"required,notblank"`
}
