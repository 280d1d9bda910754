package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
	"github.com/rs/zerolog"
)

var ErrLessonNotFound = errors.New("lesson not found")

// LessonService handles lessons inside a course.
type LessonService struct {
	lessons LessonStore
	events  EventPublisher
	log     zerolog.Logger
}

// NewLessonService creates a new LessonService. events may be nil.
func NewLessonService(lessons LessonStore, events EventPublisher, log zerolog.Logger) *LessonService {
	return &LessonService{
		lessons: lessons,
		events:  events,
		log:     log.With().Str("component", "lesson_service").Logger(),
	}
}

// ListByCourse returns the lessons of courseID.
func (s *LessonService) ListByCourse(ctx context.Context, courseID int) ([]model.Lesson, error) {
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	return lessons, nil
}

// Create adds a lesson to courseID.
func (s *LessonService) Create(ctx context.Context, actorID string, courseID int, req model.LessonRequest) (*model.Lesson, error) {
	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	s.publish(ctx, actorID, model.EventLessonCreated, lesson)
	return lesson, nil
}

// Update replaces title and content of lessonID, which must belong to
// courseID.
func (s *LessonService) Update(ctx context.Context, actorID string, courseID, lessonID int, req model.LessonRequest) (*model.Lesson, error) {
	if _, err := s.inCourse(ctx, courseID, lessonID); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		ID:      lessonID,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
	}
	if err := s.lessons.Update(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("update lesson: %w", err)
	}
	s.publish(ctx, actorID, model.EventLessonUpdated, lesson)
	return lesson, nil
}

// Delete removes lessonID from courseID.
func (s *LessonService) Delete(ctx context.Context, actorID string, courseID, lessonID int) error {
	lesson, err := s.inCourse(ctx, courseID, lessonID)
	if err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("delete lesson: %w", err)
	}
	s.publish(ctx, actorID, model.EventLessonDeleted, lesson)
	return nil
}

// inCourse loads lessonID and checks it belongs to courseID. A lesson of
// another course is reported as not found so ownership of one course never
// reaches into another.
func (s *LessonService) inCourse(ctx context.Context, courseID, lessonID int) (*model.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson.CourseID != courseID {
		return nil, ErrLessonNotFound
	}
	return lesson, nil
}

func (s *LessonService) publish(ctx context.Context, actorID string, typ model.CourseEventType, l *model.Lesson) {
	if s.events == nil {
		return
	}
	evt := model.CourseEvent{
		Type:     typ,
		CourseID: l.CourseID,
		LessonID: l.ID,
		Title:    l.Title,
		ActorID:  actorID,
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).Int("lesson_id", l.ID).Msg("Failed to publish lesson event")
	}
}
