package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/olympiad-progress-api/internal/config"
	"github.com/noah-isme/olympiad-progress-api/internal/handler"
	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProgressHandler   *handler.ProgressHandler
	SubmissionHandler *handler.SubmissionHandler
	BadgeHandler      *handler.BadgeHandler
	RewardHandler     *handler.RewardHandler
	CatalogHandler    *handler.CatalogHandler
	QuestionHandler   *handler.QuestionHandler
	SeedHandler       *handler.SeedHandler
	JWTMiddleware     fiber.Handler
	// WriteGuards run before mutating student routes, typically rate limiters.
	WriteGuards []fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Seeding is guarded by its own token, not by JWT
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(app.Group("/api/v2/admin"))
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	v2 := app.Group("/api/v2", jwtMiddleware)

	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(v2.Group("/catalog"))
	}

	students := v2.Group("/students")
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(students)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(students, deps.WriteGuards...)
	}
	if deps.BadgeHandler != nil {
		deps.BadgeHandler.Register(students)
	}
	if deps.RewardHandler != nil {
		deps.RewardHandler.RegisterStudentRoutes(students, deps.WriteGuards...)
		deps.RewardHandler.RegisterStaffRoutes(v2.Group("/redemptions"))
	}

	if deps.QuestionHandler != nil {
		teacher := v2.Group("/teacher", middleware.RequireRole(middleware.RoleTeacher, middleware.RoleAdmin))
		deps.QuestionHandler.Register(teacher, deps.WriteGuards...)
	}
}
