package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/config"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups everything Setup mounts. Uploads may be nil when object
// storage is not configured.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Health   *handlers.HealthHandler
	Projects *handlers.ProjectHandler
	Uploads  *handlers.UploadHandler
}

// Limits configures the per-IP rate limiters. A nil Storage keeps counters
// in process memory.
type Limits struct {
	API     int
	Auth    int
	Storage fiber.Storage
}

var DefaultLimits = Limits{API: 60, Auth: 10}

func Setup(app *fiber.App, cfg *config.Config, users middleware.UserLoader, h Handlers, limits Limits) {
	app.Get("/", h.Health.Root)

	api := app.Group("/api")
	if limits.API > 0 {
		api.Use(rateLimit(limits.API, limits.Storage))
	}

	api.Get("/health", h.Health.Check)

	// Protected routes resolve the token subject to an active user.
	protected := []fiber.Handler{middleware.JWTProtected(cfg), middleware.ActiveUser(users)}
	with := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, protected...), handler)
	}

	auth := api.Group("/auth")
	if limits.Auth > 0 {
		auth.Use(rateLimit(limits.Auth, limits.Storage))
	}
	auth.Post("/register", h.Auth.Register)
	auth.Post("/token", h.Auth.Token)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", with(h.Auth.Logout)...)
	auth.Get("/me", with(h.Auth.Me)...)
	auth.Patch("/profile", with(h.Auth.UpdateProfile)...)
	auth.Patch("/profile/image", with(h.Auth.UpdateImage)...)
	auth.Delete("/account", with(h.Auth.DeleteAccount)...)

	projects := api.Group("/projects")
	projects.Get("/", h.Projects.List)
	// Registered before /:id so "user" is not taken as an id.
	projects.Get("/user", with(h.Projects.ListMine)...)
	projects.Post("/", with(h.Projects.Create)...)
	projects.Get("/:id", h.Projects.Get)
	projects.Patch("/:id", with(h.Projects.Update)...)
	projects.Patch("/:id/status", with(h.Projects.UpdateStatus)...)
	projects.Post("/:id/like", with(h.Projects.ToggleLike)...)
	projects.Get("/:id/like", with(h.Projects.LikeStatus)...)
	projects.Post("/:id/comments", with(h.Projects.AddComment)...)
	projects.Delete("/:id", with(h.Projects.Delete)...)

	if h.Uploads != nil {
		api.Post("/uploads", with(h.Uploads.UploadImage)...)
	}
}

func rateLimit(limit int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   true,
				"message": "Too many requests",
			})
		},
	})
}
