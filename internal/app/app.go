// Package app assembles services, handlers and the router from a set of
// stores. cmd/server feeds it PostgreSQL repositories; tests feed it the
// in-memory store.
package app

import (
	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/handler"
	"github.com/coursehub/course-online-server/internal/middleware"
	"github.com/coursehub/course-online-server/internal/router"
	"github.com/coursehub/course-online-server/internal/service"
	"github.com/coursehub/course-online-server/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Stores is the persistence the application runs on.
type Stores struct {
	Users       service.UserStore
	Courses     service.CourseStore
	Lessons     service.LessonStore
	Enrollments service.EnrollmentStore
}

// Options carries the optional collaborators.
type Options struct {
	// Redis enables shared rate limiting, event publishing and the course
	// stream. Without it the limiter is process-local and the stream route
	// is not registered.
	Redis *redis.Client
	// Health checks exposed on /health, by name.
	Health map[string]handler.Pinger
}

// App holds the assembled services and the HTTP engine.
type App struct {
	Engine  *gin.Engine
	Tokens  *service.TokenService
	Auth    *service.AuthService
	Users   *service.UserService
	Courses *service.CourseService
	Lessons *service.LessonService
}

// New wires everything together.
func New(cfg *config.Config, stores Stores, opts Options, log zerolog.Logger) *App {
	validator.Setup()

	var (
		events    service.EventPublisher
		bus       *service.CourseEventBus
		wsHandler *handler.WSHandler
	)
	if opts.Redis != nil {
		bus = service.NewCourseEventBus(opts.Redis, log)
		events = bus
	}

	tokens := service.NewTokenService(cfg)
	authService := service.NewAuthService(cfg, stores.Users, tokens, log)
	userService := service.NewUserService(stores.Users, log)
	courseService := service.NewCourseService(stores.Courses, stores.Enrollments, events, log)
	lessonService := service.NewLessonService(stores.Lessons, events, log)

	if bus != nil {
		wsHandler = handler.NewWSHandler(courseService, bus, log, cfg.AllowedOrigins)
	}

	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, userService, log),
		User:   handler.NewUserHandler(userService),
		Course: handler.NewCourseHandler(courseService, log),
		Lesson: handler.NewLessonHandler(lessonService, courseService, log),
		WS:     wsHandler,
		Health: handler.NewHealthHandler(opts.Health),
	}

	guards := router.Guards{
		Tokens:      tokens,
		Roles:       userService,
		Courses:     courseService,
		AuthLimiter: middleware.NewRateLimiter(opts.Redis, cfg.AuthRateLimit, cfg.AuthRateWindow, log),
	}

	return &App{
		Engine:  router.SetupRouter(guards, handlers, cfg, log),
		Tokens:  tokens,
		Auth:    authService,
		Users:   userService,
		Courses: courseService,
		Lessons: lessonService,
	}
}
