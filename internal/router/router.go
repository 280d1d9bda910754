package router

import (
	"time"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/handler"
	"github.com/coursehub/course-online-server/internal/logger"
	"github.com/coursehub/course-online-server/internal/middleware"
	"github.com/coursehub/course-online-server/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Course *handler.CourseHandler
	Lesson *handler.LessonHandler
	WS     *handler.WSHandler
	Health *handler.HealthHandler
}

// Guards carries what the guard chain needs to make its decisions.
type Guards struct {
	Tokens      middleware.TokenVerifier
	Roles       middleware.RoleProvider
	Courses     middleware.CourseLookup
	AuthLimiter *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with their guard chains.
func SetupRouter(guards Guards, handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(logger.RequestLogger(log))
	router.Use(middleware.Brotli())

	if handlers.Health != nil {
		router.GET("/health", handlers.Health.Health)
	}

	// ─── Guards ────────────────────────────────────────────────────────
	authenticate := middleware.RequireAuth(guards.Tokens, log)
	teacher := middleware.RequireTeacher(guards.Roles, log)
	admin := middleware.RequireAdmin(guards.Roles, log)
	owner := middleware.RequireCourseOwnership(guards.Courses, log)

	authed := middleware.Chain(authenticate)
	teacherOnly := middleware.Chain(authenticate, teacher)
	courseOwner := middleware.Chain(authenticate, teacher, owner)
	adminOnly := middleware.Chain(authenticate, admin)

	api := router.Group("/api/v1")

	// ─── 1. Auth (public, rate limited) ────────────────────────────────
	auth := api.Group("/auth")
	{
		var limited middleware.Pipeline
		if guards.AuthLimiter != nil {
			limited = middleware.Pipeline{guards.AuthLimiter.Middleware()}
		}
		auth.POST("/register", limited.Then(handlers.Auth.Register)...)
		auth.POST("/login", limited.Then(handlers.Auth.Login)...)
		auth.GET("/me", authed.Then(handlers.Auth.Me)...)
	}

	// ─── 2. Users ──────────────────────────────────────────────────────
	users := api.Group("/users")
	{
		users.GET("", adminOnly.Then(handlers.User.List)...)
		users.GET("/:id", authed.Then(handlers.User.Get)...)
		users.PUT("/:id/role", adminOnly.Then(handlers.User.UpdateRole)...)
		users.DELETE("/:id", adminOnly.Then(handlers.User.Delete)...)
	}

	// ─── 3. Courses ────────────────────────────────────────────────────
	courses := api.Group("/courses")
	{
		courses.GET("", handlers.Course.List)
		courses.GET("/:id", handlers.Course.Get)
		courses.GET("/student/:studentId", authed.Then(handlers.Course.ListByStudent)...)

		courses.POST("", teacherOnly.Then(handlers.Course.Create)...)
		courses.PUT("/:id", courseOwner.Then(handlers.Course.Update)...)
		courses.DELETE("/:id", courseOwner.Then(handlers.Course.Delete)...)

		courses.POST("/:id/enroll", authed.Then(handlers.Course.Enroll)...)
		courses.DELETE("/:id/unenroll", authed.Then(handlers.Course.Unenroll)...)

		// ─── Lessons ───────────────────────────────────────────────────
		courses.GET("/:id/lessons", handlers.Lesson.List)
		courses.POST("/:id/lessons", courseOwner.Then(handlers.Lesson.Create)...)
		courses.PUT("/:id/lessons/:lessonId", courseOwner.Then(handlers.Lesson.Update)...)
		courses.DELETE("/:id/lessons/:lessonId", courseOwner.Then(handlers.Lesson.Delete)...)
	}

	// ─── 4. WebSocket (token in query) ─────────────────────────────────
	if handlers.WS != nil {
		ws := router.Group("/ws/v1")
		ws.Use(middleware.RequireWSAuth(guards.Tokens, log))
		{
			ws.GET("/courses/:id/stream", handlers.WS.CourseStream)
		}
	}

	return router
}
