package worker

import (
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/realtime"
	"github.com/spec-kit/squad-service/internal/service"
)

// StartNotificationWorker registers event consumers: email notifications and
// the realtime hub.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, hub *realtime.Hub) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if hub != nil {
		hub.Register(dispatcher)
	}
}
