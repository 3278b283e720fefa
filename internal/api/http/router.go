package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/squad-service/internal/api/http/handlers"
	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Teams          *handlers.TeamsHandler
	Activities     *handlers.ActivitiesHandler
	Callups        *handlers.CallupsHandler
	Quizzes        *handlers.QuizzesHandler
	Events         *handlers.EventsHandler
	AuthMiddleware *auth.AuthMiddleware
	Registry       *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	coach := auth.RequireRole(domain.RoleCoach)
	player := auth.RequireRole(domain.RolePlayer)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.SignUp)
	authGroup.Post("/signin", cfg.Auth.SignIn)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	api.Get("/auth/session", cfg.Auth.Session)
	api.Post("/auth/switch-role", cfg.Auth.SwitchRole)
	api.Post("/auth/roles", cfg.Auth.AddRole)
	api.Post("/auth/password/change", cfg.Auth.ChangePassword)

	api.Get("/me", cfg.Profile.Me)
	api.Patch("/me", cfg.Profile.UpdateMe)
	api.Get("/me/callups", player, cfg.Callups.Pending)
	api.Get("/me/assignments", player, cfg.Quizzes.ListMine)

	teams := api.Group("/teams")
	teams.Post("/join", player, cfg.Teams.Join)
	teams.Post("/leave", player, cfg.Teams.Leave)
	teams.Post("", coach, cfg.Teams.Create)
	teams.Get("", cfg.Teams.ListMine)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Patch("/:id", coach, cfg.Teams.Update)
	teams.Post("/:id/code", coach, cfg.Teams.RegenerateCode)
	teams.Get("/:id/roster", cfg.Teams.Roster)
	teams.Delete("/:id/players/:playerId", coach, cfg.Teams.RemovePlayer)
	teams.Post("/:id/activities", coach, cfg.Activities.Create)
	teams.Get("/:id/activities", cfg.Activities.List)
	teams.Get("/:id/calendar/week", cfg.Activities.Week)
	teams.Get("/:id/scheduled-callups", coach, cfg.Callups.ListScheduled)
	teams.Post("/:id/quizzes", coach, cfg.Quizzes.Create)
	teams.Get("/:id/quizzes", cfg.Quizzes.List)
	teams.Get("/:id/assignments", coach, cfg.Quizzes.ListTeam)
	teams.Get("/:id/events", cfg.Events.Stream)

	activities := api.Group("/activities")
	activities.Get("/:id", cfg.Activities.Get)
	activities.Put("/:id", coach, cfg.Activities.Update)
	activities.Delete("/:id", coach, cfg.Activities.Delete)
	activities.Post("/:id/callups", coach, cfg.Callups.Send)
	activities.Get("/:id/callups", coach, cfg.Callups.Overview)
	activities.Put("/:id/callups/me", player, cfg.Callups.Respond)
	activities.Get("/:id/callups/me", player, cfg.Callups.MyResponse)
	activities.Post("/:id/scheduled-callups", coach, cfg.Callups.Schedule)

	api.Delete("/scheduled-callups/:id", coach, cfg.Callups.CancelScheduled)

	quizzes := api.Group("/quizzes")
	quizzes.Get("/:id", cfg.Quizzes.Get)
	quizzes.Put("/:id", coach, cfg.Quizzes.Update)
	quizzes.Delete("/:id", coach, cfg.Quizzes.Delete)
	quizzes.Post("/:id/assignments", coach, cfg.Quizzes.Assign)

	api.Delete("/assignments/:id", coach, cfg.Quizzes.Unassign)
	api.Post("/assignments/:id/attempts", player, cfg.Quizzes.StartAttempt)

	attempts := api.Group("/attempts", player)
	attempts.Get("/:id", cfg.Quizzes.GetAttempt)
	attempts.Post("/:id/answer", cfg.Quizzes.Answer)
	attempts.Post("/:id/next", cfg.Quizzes.Next)
}
