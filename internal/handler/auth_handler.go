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

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates a student or teacher account and returns a token for it.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.FailWithFields(c, http.StatusConflict, response.ErrConflict,
				map[string]string{"email": "email is already registered"})
			return
		}
		if errors.Is(err, service.ErrPasswordTooLong) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"password": "password must be at most 72 bytes"})
			return
		}
		h.log.Error().Err(err).Msg("Register failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Msg("Login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the account behind the presented token.
func (h *AuthHandler) Me(c *gin.Context) {
	_, userID, ok := caller(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
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
