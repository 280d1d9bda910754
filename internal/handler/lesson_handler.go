package handler

import (
	"errors"
	"net/http"

	"github.com/coursehub/course-online-server/internal/middleware"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/coursehub/course-online-server/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LessonHandler handles the lessons of a course.
type LessonHandler struct {
	lessonService *service.LessonService
	courseService *service.CourseService
	log           zerolog.Logger
}

// NewLessonHandler creates a new LessonHandler.
func NewLessonHandler(lessonService *service.LessonService, courseService *service.CourseService, log zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		lessonService: lessonService,
		courseService: courseService,
		log:           log.With().Str("component", "lesson_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/courses/:id/lessons
func (h *LessonHandler) List(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if _, err := h.courseService.Get(c.Request.Context(), courseID); err != nil {
		h.fail(c, err)
		return
	}

	lessons, err := h.lessonService.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lessons": lessons})
}

// Create godoc
// POST /api/v1/courses/:id/lessons
func (h *LessonHandler) Create(c *gin.Context) {
	identity, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := h.courseID(c)
	if !ok {
		return
	}

	var req model.LessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.Create(c.Request.Context(), identity.SubjectID, courseID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"lesson": lesson})
}

// Update godoc
// PUT /api/v1/courses/:id/lessons/:lessonId
// Title and content are both required.
func (h *LessonHandler) Update(c *gin.Context) {
	identity, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := h.courseID(c)
	if !ok {
		return
	}
	lessonID, ok := paramID(c, "lessonId")
	if !ok {
		return
	}

	var req model.LessonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	lesson, err := h.lessonService.Update(c.Request.Context(), identity.SubjectID, courseID, lessonID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lesson": lesson})
}

// Delete godoc
// DELETE /api/v1/courses/:id/lessons/:lessonId
func (h *LessonHandler) Delete(c *gin.Context) {
	identity, _, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := h.courseID(c)
	if !ok {
		return
	}
	lessonID, ok := paramID(c, "lessonId")
	if !ok {
		return
	}

	if err := h.lessonService.Delete(c.Request.Context(), identity.SubjectID, courseID, lessonID); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "lesson deleted successfully"})
}

// courseID takes the course already loaded by the ownership guard.
func (h *LessonHandler) courseID(c *gin.Context) (int, bool) {
	if course := middleware.GetCourse(c); course != nil {
		return course.ID, true
	}
	return paramID(c, "id")
}

func (h *LessonHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCourseNotFound)
	case errors.Is(err, service.ErrLessonNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrLessonNotFound)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Lesson request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
