package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RoleProvider returns the current role of a subject from the user store.
// Implemented by service.UserService. A missing user must be reported as
// service.ErrUserNotFound.
type RoleProvider interface {
	CurrentRole(ctx context.Context, subjectID string) (model.Role, error)
}

var roleDeniedCodes = map[model.Role]response.ErrCode{
	model.RoleTeacher: response.ErrTeacherAccessOnly,
	model.RoleAdmin:   response.ErrAdminAccessOnly,
}

// RequireRole checks that the authenticated subject currently holds role.
// The role claim in the token is ignored; the store is asked on every request.
func RequireRole(provider RoleProvider, role model.Role, log zerolog.Logger) gin.HandlerFunc {
	denied, ok := roleDeniedCodes[role]
	if !ok {
		denied = response.ErrForbidden
	}
	log = log.With().Str("component", "rbac").Str("required_role", string(role)).Logger()

	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		current, err := provider.CurrentRole(c.Request.Context(), identity.SubjectID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.AbortFail(c, http.StatusForbidden, denied)
				return
			}
			log.Error().Err(err).Str("subject_id", identity.SubjectID).Msg("Role lookup failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if current != role {
			response.AbortFail(c, http.StatusForbidden, denied)
			return
		}

		c.Next()
	}
}

// RequireTeacher admits only subjects whose stored role is teacher.
func RequireTeacher(provider RoleProvider, log zerolog.Logger) gin.HandlerFunc {
	return RequireRole(provider, model.RoleTeacher, log)
}

// RequireAdmin admits only subjects whose stored role is admin.
func RequireAdmin(provider RoleProvider, log zerolog.Logger) gin.HandlerFunc {
	return RequireRole(provider, model.RoleAdmin, log)
}
