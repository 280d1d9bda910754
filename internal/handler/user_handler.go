package handler

import (
	"errors"
	"net/http"

	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/coursehub/course-online-server/internal/validator"
	"github.com/gin-gonic/gin"
)

// UserHandler handles user administration endpoints.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List godoc
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// Get godoc
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrUserGone)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateRole godoc
// PUT /api/v1/users/:id/role
// Takes effect on the target's next request, without a new token.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	_, actorID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateRoleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), actorID, id, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrUserGone)
		case errors.Is(err, service.ErrCannotChangeOwnRole):
			response.Fail(c, http.StatusBadRequest, response.ErrSelfRoles)
		case errors.Is(err, service.ErrInvalidRole):
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// Delete godoc
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrUserGone)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "user deleted successfully"})
}
