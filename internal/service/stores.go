package service

import (
	"context"

	"github.com/coursehub/course-online-server/internal/model"
)

// UserStore is the user persistence consumed by the services. Implemented by
// repository.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateRole(ctx context.Context, id int, role model.Role) error
	Delete(ctx context.Context, id int) error
}

// CourseStore is implemented by repository.CourseRepository.
type CourseStore interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	ListByStudent(ctx context.Context, userID int) ([]model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id int) error
}

// LessonStore is implemented by repository.LessonRepository.
type LessonStore interface {
	GetByID(ctx context.Context, id int) (*model.Lesson, error)
	ListByCourse(ctx context.Context, courseID int) ([]model.Lesson, error)
	Create(ctx context.Context, l *model.Lesson) error
	Update(ctx context.Context, l *model.Lesson) error
	Delete(ctx context.Context, id int) error
}

// EnrollmentStore is implemented by repository.EnrollmentRepository.
type EnrollmentStore interface {
	Enroll(ctx context.Context, userID, courseID int) error
	Unenroll(ctx context.Context, userID, courseID int) error
	IsEnrolled(ctx context.Context, userID, courseID int) (bool, error)
}

// EventPublisher fans course changes out to live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, evt model.CourseEvent) error
}
