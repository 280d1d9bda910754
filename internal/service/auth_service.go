package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	// ErrPasswordTooLong is returned for passwords over bcrypt's 72 byte input.
	ErrPasswordTooLong = errors.New("password too long")
)

// AuthService handles registration, password checks and token issuance.
type AuthService struct {
	users      UserStore
	tokens     *TokenService
	bcryptCost int
	log        zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users UserStore, tokens *TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: cfg.BcryptCost,
		log:        log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	if req.Role != model.RoleStudent && req.Role != model.RoleTeacher {
		return nil, fmt.Errorf("register: role %q is not self-assignable", req.Role)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return s.issueFor(user)
}

// Login verifies email and password and returns a fresh token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	return s.issueFor(user)
}

func (s *AuthService) issueFor(user *model.User) (*model.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(strconv.Itoa(user.ID), user.Role)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
