package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/observability"
)

// Change is the message clients receive. It only says what changed; clients
// re-fetch the affected resource.
type Change struct {
	EventID   string           `json:"event_id"`
	Type      events.EventType `json:"type"`
	TeamID    string           `json:"team_id"`
	Table     string           `json:"table"`
	Action    events.Action    `json:"action"`
	RecordID  string           `json:"record_id"`
	Timestamp time.Time        `json:"timestamp"`
}

// Hub publishes team-scoped changes on a Bus.
type Hub struct {
	bus     Bus
	prefix  string
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewHub constructs a Hub.
func NewHub(bus Bus, prefix string, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{bus: bus, prefix: prefix, logger: logger, metrics: metrics}
}

// Channel returns the pub/sub channel for a team.
func (h *Hub) Channel(teamID string) string {
	return fmt.Sprintf("%s:team:%s", h.prefix, teamID)
}

// Register subscribes the hub to every dispatched event.
func (h *Hub) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.SubscribeAll(h.Handle)
}

// Handle forwards an event to its team channel. Events without a team are
// ignored.
func (h *Hub) Handle(ctx context.Context, event events.Event) error {
	if event.TeamID == "" {
		return nil
	}
	payload, err := json.Marshal(Change{
		EventID:   event.ID,
		Type:      event.Type,
		TeamID:    event.TeamID,
		Table:     event.Table,
		Action:    event.Action,
		RecordID:  event.RecordID,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		return err
	}
	if err := h.bus.Publish(ctx, h.Channel(event.TeamID), payload); err != nil {
		h.logger.Warn("realtime publish failed",
			zap.String("team_id", event.TeamID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	h.metrics.RecordRealtimeEvent(event.Table)
	return nil
}

// Subscribe opens a subscription on a team channel.
func (h *Hub) Subscribe(ctx context.Context, teamID string) (Subscription, error) {
	return h.bus.Subscribe(ctx, h.Channel(teamID))
}
