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
	ErrUserNotFound        = errors.New("user not found")
	ErrCannotChangeOwnRole = errors.New("cannot change own role")
	ErrInvalidRole         = errors.New("invalid role")
)

// UserService reads and administers user accounts. It is also the role
// source for the authorization guards.
type UserService struct {
	users UserStore
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// CurrentRole reads the role of subjectID from the store. Nothing is cached,
// so a role change applies to the next request even under an old token.
func (s *UserService) CurrentRole(ctx context.Context, subjectID string) (model.Role, error) {
	id, err := strconv.Atoi(strings.TrimSpace(subjectID))
	if err != nil {
		return "", ErrUserNotFound
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Create stores a user whose password is already hashed. Used by the CLI
// tools, which may create admins.
func (s *UserService) Create(ctx context.Context, user *model.User) error {
	if !user.Role.Valid() {
		return ErrInvalidRole
	}
	user.Email = normalizeEmail(user.Email)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// UpdateRole changes the role of targetID. An admin cannot change their
// own role, so the last admin cannot lock themselves out.
func (s *UserService) UpdateRole(ctx context.Context, actorID, targetID int, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if actorID == targetID {
		return nil, ErrCannotChangeOwnRole
	}

	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.log.Info().
		Int("actor_id", actorID).
		Int("user_id", targetID).
		Str("role", string(role)).
		Msg("User role changed")

	return s.GetByID(ctx, targetID)
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
