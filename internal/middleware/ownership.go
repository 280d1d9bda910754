package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ContextKeyCourse is the Gin context key for the course loaded by the
// ownership guard.
const ContextKeyCourse = "course"

// CourseLookup finds a course by ID. A missing course must be reported as
// repository.ErrNotFound. Implemented by service.CourseService.
type CourseLookup interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
}

// RequireCourseOwnership admits the request only when the authenticated
// subject owns the course named by the :courseId route param, or :id when
// the route has no :courseId. Admins get no bypass.
func RequireCourseOwnership(lookup CourseLookup, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "ownership").Logger()
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		raw := CourseIDParam(c)
		if raw == "" {
			response.AbortFail(c, http.StatusBadRequest, response.ErrCourseIDRequired)
			return
		}

		// A non-numeric id cannot name a course.
		courseID, err := strconv.Atoi(raw)
		if err != nil {
			response.AbortFail(c, http.StatusNotFound, response.ErrCourseNotFound)
			return
		}

		course, err := lookup.GetByID(c.Request.Context(), courseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				response.AbortFail(c, http.StatusNotFound, response.ErrCourseNotFound)
				return
			}
			log.Error().Err(err).Int("course_id", courseID).Msg("Ownership lookup failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrOwnershipCheck)
			return
		}

		if !service.SameSubject(course.TeacherID, identity.SubjectID) {
			response.AbortFail(c, http.StatusForbidden, response.ErrNotCourseOwner)
			return
		}

		c.Set(ContextKeyCourse, course)
		c.Next()
	}
}

// CourseIDParam returns the course identifier of the route, preferring
// :courseId over :id.
func CourseIDParam(c *gin.Context) string {
	if v := strings.TrimSpace(c.Param("courseId")); v != "" {
		return v
	}
	return strings.TrimSpace(c.Param("id"))
}

// GetCourse retrieves the course stored by RequireCourseOwnership.
func GetCourse(c *gin.Context) *model.Course {
	val, exists := c.Get(ContextKeyCourse)
	if !exists {
		return nil
	}
	course, _ := val.(*model.Course)
	return course
}
