package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
	"github.com/rs/zerolog"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrNotEnrolled     = errors.New("not enrolled")
)

// CourseService handles courses and enrollments. Authorization is done by
// the middleware chain before any of these methods is reached.
type CourseService struct {
	courses     CourseStore
	enrollments EnrollmentStore
	events      EventPublisher
	log         zerolog.Logger
}

// NewCourseService creates a new CourseService. events may be nil.
func NewCourseService(courses CourseStore, enrollments EnrollmentStore, events EventPublisher, log zerolog.Logger) *CourseService {
	return &CourseService{
		courses:     courses,
		enrollments: enrollments,
		events:      events,
		log:         log.With().Str("component", "course_service").Logger(),
	}
}

// GetByID retrieves a course. It also serves as the ownership guard's lookup,
// so a missing row must surface as repository.ErrNotFound.
func (s *CourseService) GetByID(ctx context.Context, id int) (*model.Course, error) {
	return s.courses.GetByID(ctx, id)
}

// Get retrieves a course, translating a missing row to ErrCourseNotFound.
func (s *CourseService) Get(ctx context.Context, id int) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course %d: %w", id, err)
	}
	return course, nil
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// ListByStudent returns the courses userID is enrolled in.
func (s *CourseService) ListByStudent(ctx context.Context, userID int) ([]model.Course, error) {
	courses, err := s.courses.ListByStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// Create stores a course owned by teacherID.
func (s *CourseService) Create(ctx context.Context, teacherID int, req model.CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		TeacherID:   teacherID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info().Int("course_id", course.ID).Int("teacher_id", teacherID).Msg("Course created")
	return course, nil
}

// Update changes title and description. The owner is never changed.
func (s *CourseService) Update(ctx context.Context, actorID string, id int, req model.CourseRequest) (*model.Course, error) {
	course := &model.Course{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.courses.Update(ctx, course); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	s.publish(ctx, model.CourseEvent{
		Type:     model.EventCourseUpdated,
		CourseID: id,
		Title:    course.Title,
		ActorID:  actorID,
	})
	return course, nil
}

// Delete removes a course with its lessons and enrollments.
func (s *CourseService) Delete(ctx context.Context, actorID string, id int) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("delete course: %w", err)
	}
	s.log.Info().Int("course_id", id).Str("actor_id", actorID).Msg("Course deleted")
	s.publish(ctx, model.CourseEvent{Type: model.EventCourseDeleted, CourseID: id, ActorID: actorID})
	return nil
}

// Enroll adds userID to the course.
func (s *CourseService) Enroll(ctx context.Context, userID, courseID int) error {
	if _, err := s.Get(ctx, courseID); err != nil {
		return err
	}
	if err := s.enrollments.Enroll(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyEnrolled
		}
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

// Unenroll removes userID from the course.
func (s *CourseService) Unenroll(ctx context.Context, userID, courseID int) error {
	if err := s.enrollments.Unenroll(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("unenroll: %w", err)
	}
	return nil
}

// CanFollow reports whether subjectID may watch the course's event stream:
// the owner or an enrolled user.
func (s *CourseService) CanFollow(ctx context.Context, subjectID string, courseID int) (bool, error) {
	course, err := s.Get(ctx, courseID)
	if err != nil {
		return false, err
	}
	if SameSubject(course.TeacherID, subjectID) {
		return true, nil
	}
	userID, err := strconv.Atoi(strings.TrimSpace(subjectID))
	if err != nil {
		return false, nil
	}
	return s.enrollments.IsEnrolled(ctx, userID, courseID)
}

// publish is best effort. A lost event must not fail the mutation that
// already committed.
func (s *CourseService) publish(ctx context.Context, evt model.CourseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).
			Int("course_id", evt.CourseID).
			Str("type", string(evt.Type)).
			Msg("Failed to publish course event")
	}
}
