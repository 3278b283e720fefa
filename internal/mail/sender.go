package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/config"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender returns a SendGrid sender when an API key is configured and a
// logging sender otherwise.
func NewSender(cfg config.NotificationConfig, appName string, logger *zap.Logger) Sender {
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return NewLogSender(appName, cfg.FrontendBaseURL, logger)
	}
	return NewSendGridSender(cfg.SendGridAPIKey, appName, cfg.EmailFrom, cfg.FrontendBaseURL)
}

// SendGridSender posts messages to the SendGrid v3 API.
type SendGridSender struct {
	key         string
	appName     string
	frontendURL string
	from        *sgmail.Email
	subjPrefix  string
}

var _ Sender = (*SendGridSender)(nil)

// NewSendGridSender constructs a SendGridSender.
func NewSendGridSender(key, appName, fromEmail, frontendURL string) *SendGridSender {
	return &SendGridSender{
		key:         key,
		appName:     appName,
		frontendURL: frontendURL,
		from:        sgmail.NewEmail(appName, fromEmail),
		subjPrefix:  "[" + appName + "] ",
	}
}

func (s *SendGridSender) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	return m
}

func (s *SendGridSender) Send(_ context.Context, msg *Message) error {
	if err := msg.Render(s.appName, s.frontendURL); err != nil {
		return err
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogSender renders messages and logs them instead of sending.
type LogSender struct {
	appName     string
	frontendURL string
	logger      *zap.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender constructs a LogSender.
func NewLogSender(appName, frontendURL string, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{appName: appName, frontendURL: frontendURL, logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	if err := msg.Render(s.appName, s.frontendURL); err != nil {
		return err
	}
	if !msg.HasRecipients() {
		return nil
	}
	s.logger.Info("email",
		zap.String("to", joinAddresses(msg.To)),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.TemplateName),
		zap.String("text", msg.TextContent),
	)
	return nil
}

func joinAddresses(addrs []mail.Address) string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return strings.Join(out, ", ")
}
