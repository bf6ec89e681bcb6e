package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/gym-booking/controllers"
	"github.com/meinhoongagan/gym-booking/middleware"
	"github.com/meinhoongagan/gym-booking/services"
)

const (
	authAttempts = 10
	authWindow   = time.Minute
)

// Setup mounts every route group under /api, plus /health.
func Setup(app *fiber.App, h *controllers.Handler, jwtSecret string) {
	app.Get("/health", h.Health)

	protected := middleware.Protected(jwtSecret, h.Accounts)
	api := app.Group("/api")
	SetupAuthRoutes(api, h, protected)
	SetupAdminRoutes(api, h, protected)
	SetupScheduleRoutes(api, h, protected)
	SetupTraineeRoutes(api, h, protected)
}

// SetupAuthRoutes configures registration, login and logout.
func SetupAuthRoutes(api fiber.Router, h *controllers.Handler, protected fiber.Handler) {
	users := api.Group("/users")

	// Public routes
	limited := middleware.AuthRateLimiter(authAttempts, authWindow)
	users.Post("/", limited, h.Register)
	users.Post("/login", limited, h.Login)

	users.Post("/logout", protected, h.Logout)
}

// SetupAdminRoutes configures trainer management.
func SetupAdminRoutes(api fiber.Router, h *controllers.Handler, protected fiber.Handler) {
	admin := api.Group("/admin", protected, middleware.RequirePermission(services.ActionManageTrainers))
	admin.Post("/", h.CreateTrainer)
	admin.Get("/", h.ListTrainers)
	admin.Get("/:id", h.GetTrainer)
	admin.Put("/:id", h.UpdateTrainer)
	admin.Delete("/:id", h.DeleteTrainer)
}

// SetupScheduleRoutes configures class schedules. /all is registered before /:id.
func SetupScheduleRoutes(api fiber.Router, h *controllers.Handler, protected fiber.Handler) {
	schedule := api.Group("/schedule", protected)
	schedule.Post("/", middleware.RequirePermission(services.ActionCreateSchedule), h.CreateSchedule)
	schedule.Get("/", middleware.RequirePermission(services.ActionListOwn), h.ListTrainerSchedules)
	schedule.Get("/all", middleware.RequirePermission(services.ActionListAll), h.ListAllSchedules)
	schedule.Get("/:id", middleware.RequirePermission(services.ActionViewSchedule), h.GetSchedule)
	schedule.Put("/:id", middleware.RequirePermission(services.ActionUpdateSchedule), h.UpdateSchedule)
	schedule.Delete("/:id", middleware.RequirePermission(services.ActionDeleteSchedule), h.DeleteSchedule)
}

// SetupTraineeRoutes configures enrollment and the trainee's own profile.
func SetupTraineeRoutes(api fiber.Router, h *controllers.Handler, protected fiber.Handler) {
	trainee := api.Group("/trainee", protected)
	trainee.Post("/enroll", middleware.RequirePermission(services.ActionEnroll), h.Enroll)
	trainee.Delete("/enroll/:scheduleId", middleware.RequirePermission(services.ActionWithdraw), h.Withdraw)

	profile := trainee.Group("/profile", middleware.RequirePermission(services.ActionManageProfile))
	profile.Get("/", h.GetProfile)
	profile.Put("/", h.UpdateProfile)
	profile.Post("/picture", h.UploadProfilePicture)
	profile.Delete("/", middleware.RequirePermission(services.ActionDeleteAccount), h.DeleteProfile)
}
