package handler

import (
	"net/http"
	"strconv"

	"github.com/coursehub/course-online-server/internal/middleware"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/gin-gonic/gin"
)

// paramID parses a positive integer route param, answering 400 INVALID_ID
// when it is not one.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// caller returns the verified identity and its numeric user id. Routes that
// reach a handler through the chain always have one; the 401 is for
// misconfigured routes.
func caller(c *gin.Context) (*service.Identity, int, bool) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, 0, false
	}
	userID, err := identity.UserID()
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil, 0, false
	}
	return identity, userID, true
}
