package handlers

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/realtime"
	"github.com/spec-kit/squad-service/internal/service"
)

// ChangeSubscriber opens a change feed for one team.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, teamID string) (realtime.Subscription, error)
}

// EventsHandler streams team change events over server-sent events.
type EventsHandler struct {
	teams     *service.TeamService
	hub       ChangeSubscriber
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(teams *service.TeamService, hub ChangeSubscriber, heartbeat time.Duration, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{teams: teams, hub: hub, heartbeat: heartbeat, logger: logger}
}

// Stream GET /teams/:id/events. The connection stays open until the client
// goes away; each change arrives as a "change" event.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	team, err := h.teams.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}

	// The body writer outlives the handler, so it cannot use the request context.
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.hub.Subscribe(ctx, team.ID)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	teamID := team.ID
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer func() { _ = sub.Close() }()
		if err := realtime.Stream(ctx, w, sub, h.heartbeat); err != nil {
			h.logger.Debug("event stream closed", zap.String("team_id", teamID), zap.Error(err))
		}
	})
	return nil
}
