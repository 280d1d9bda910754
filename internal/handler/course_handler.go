package handler

import (
	"errors"
	"net/http"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/coursehub/course-online-server/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CourseHandler handles course and enrollment endpoints.
type CourseHandler struct {
	courseService *service.CourseService
	log           zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService *service.CourseService, log zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		log:           log.With().Str("component", "course_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courseService.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List courses failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// Get godoc
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Create godoc
// POST /api/v1/courses
// The caller becomes the owner of the course.
func (h *CourseHandler) Create(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}

	var req model.CourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// Update godoc
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	identity, _, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.CourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), identity.SubjectID, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Delete godoc
// DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	identity, _, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), identity.SubjectID, id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "course deleted successfully"})
}

// Enroll godoc
// POST /api/v1/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Enroll(c.Request.Context(), userID, id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"message": "enrolled successfully"})
}

// Unenroll godoc
// DELETE /api/v1/courses/:id/unenroll
func (h *CourseHandler) Unenroll(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Unenroll(c.Request.Context(), userID, id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "unenrolled successfully"})
}

// ListByStudent godoc
// GET /api/v1/courses/student/:studentId
// Returns the courses the given student is enrolled in.
func (h *CourseHandler) ListByStudent(c *gin.Context) {
	studentID, ok := paramID(c, "studentId")
	if !ok {
		return
	}

	courses, err := h.courseService.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

func (h *CourseHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCourseNotFound)
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyEnrolled)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusNotFound, response.ErrNotEnrolled)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Course request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
