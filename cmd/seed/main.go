package main

import (
	"context"
	"errors"
	"strconv"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/database"
	"github.com/coursehub/course-online-server/internal/logger"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/coursehub/course-online-server/internal/repository"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/rs/zerolog"
)

const seedPassword = "password123"

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	authService := service.NewAuthService(cfg, users, service.NewTokenService(cfg), log)
	courseService := service.NewCourseService(
		repository.NewCourseRepository(pool), repository.NewEnrollmentRepository(pool), nil, log,
	)
	lessonService := service.NewLessonService(repository.NewLessonRepository(pool), nil, log)

	teacher := ensureUser(ctx, authService, log, "Demo Teacher", "teacher@example.com", model.RoleTeacher)
	student := ensureUser(ctx, authService, log, "Demo Student", "student@example.com", model.RoleStudent)

	course, err := courseService.Create(ctx, teacher.UserID, model.CourseRequest{
		Title:       "Introduction to Go",
		Description: "Types, interfaces, goroutines and the standard library.",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create course")
	}

	if _, err := lessonService.Create(ctx, strconv.Itoa(teacher.UserID), course.ID, model.LessonRequest{
		Title:   "Hello, world",
		Content: "Install the toolchain and write your first program.",
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to create lesson")
	}

	if err := courseService.Enroll(ctx, student.UserID, course.ID); err != nil && !errors.Is(err, service.ErrAlreadyEnrolled) {
		log.Fatal().Err(err).Msg("Failed to enroll student")
	}

	log.Info().
		Int("teacher_id", teacher.UserID).
		Int("student_id", student.UserID).
		Int("course_id", course.ID).
		Str("password", seedPassword).
		Msg("Seed complete")
}

// ensureUser registers the account, or logs into it when it already exists.
func ensureUser(ctx context.Context, auth *service.AuthService, log zerolog.Logger, name, email string, role model.Role) *model.AuthResponse {
	resp, err := auth.Register(ctx, model.RegisterRequest{Name: name, Email: email, Password: seedPassword, Role: role})
	if errors.Is(err, service.ErrEmailTaken) {
		resp, err = auth.Login(ctx, model.LoginRequest{Email: email, Password: seedPassword})
	}
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to seed user")
	}
	return resp
}
