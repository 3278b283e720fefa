package service

import (
	"context"
	"net/mail"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/events"
	squadmail "github.com/spec-kit/squad-service/internal/mail"
	"github.com/spec-kit/squad-service/internal/repository"
)

const mailTimeout = 30 * time.Second

// NotificationService emails players about callups and quiz assignments.
// Mail is sent in the background; Wait blocks until pending sends finish.
type NotificationService struct {
	dispatcher events.Dispatcher
	profiles   repository.ProfileRepository
	sender     squadmail.Sender
	logger     *zap.Logger
	location   *time.Location
	wg         sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, profiles repository.ProfileRepository, sender squadmail.Sender, logger *zap.Logger, cfg config.CalendarConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		profiles:   profiles,
		sender:     sender,
		logger:     logger,
		location:   cfg.Location(),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCallupSent, n.handleCallupSent)
	n.dispatcher.Subscribe(events.EventTheoryAssigned, n.handleTheoryAssigned)
}

// Wait blocks until every queued email has been attempted.
func (n *NotificationService) Wait() {
	n.wg.Wait()
}

type callupMailData struct {
	PlayerName string
	Title      string
	StartsAt   string
	Location   string
}

type theoryMailData struct {
	PlayerName string
	QuizTitle  string
	DueDate    string
}

func (n *NotificationService) handleCallupSent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CallupSentPayload)
	if !ok {
		return nil
	}
	n.logger.Info("CallupSent", zap.String("activity_id", payload.ActivityID), zap.Int("players", len(payload.PlayerIDs)))

	startsAt := payload.StartsAt.In(n.location).Format("Mon 02 Jan 15:04")
	for _, playerID := range payload.PlayerIDs {
		n.mailPlayer(ctx, playerID, "New callup: "+payload.ActivityTitle, squadmail.TemplateCallup, func(name string) interface{} {
			return callupMailData{PlayerName: name, Title: payload.ActivityTitle, StartsAt: startsAt, Location: payload.Location}
		})
	}
	return nil
}

func (n *NotificationService) handleTheoryAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TheoryAssignedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TheoryAssigned", zap.String("quiz_id", payload.QuizID), zap.Int("players", len(payload.PlayerIDs)))

	due := ""
	if payload.DueDate != nil {
		due = payload.DueDate.In(n.location).Format("Mon 02 Jan")
	}
	for _, playerID := range payload.PlayerIDs {
		n.mailPlayer(ctx, playerID, "New quiz: "+payload.QuizTitle, squadmail.TemplateTheoryAssigned, func(name string) interface{} {
			return theoryMailData{PlayerName: name, QuizTitle: payload.QuizTitle, DueDate: due}
		})
	}
	return nil
}

func (n *NotificationService) mailPlayer(ctx context.Context, playerID, subject, template string, data func(name string) interface{}) {
	profile, err := n.profiles.GetByID(ctx, playerID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed", zap.String("player_id", playerID), zap.Error(err))
		return
	}
	msg := &squadmail.Message{
		To:           []mail.Address{{Name: profile.FullName, Address: profile.Email}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: data(profile.FullName),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, msg); err != nil {
			n.logger.Error("sending email failed",
				zap.String("player_id", playerID),
				zap.String("template", template),
				zap.Error(err))
		}
	}()
}
