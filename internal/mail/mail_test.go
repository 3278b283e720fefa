package mail

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/squad-service/internal/config"
)

type callupData struct {
	PlayerName string
	Title      string
	StartsAt   string
	Location   string
}

func TestRenderCallup(t *testing.T) {
	msg := &Message{
		To:           []mail.Address{{Name: "Leo", Address: "leo@example.com"}},
		Subject:      "New callup",
		TemplateName: TemplateCallup,
		TemplateData: callupData{PlayerName: "Leo", Title: "Match vs <Rivals>", StartsAt: "Sat 10 May 10:00", Location: "Field 2"},
	}
	require.NoError(t, msg.Render("Squad", "https://squad.test"))

	assert.Contains(t, msg.TextContent, `called up for "Match vs <Rivals>"`)
	assert.Contains(t, msg.TextContent, "https://squad.test/callups")
	assert.Contains(t, msg.HTMLContent, "Match vs &lt;Rivals&gt;")
	assert.Contains(t, msg.HTMLContent, " at Field 2")
	assert.True(t, msg.HasContent())
}

func TestRenderPasswordReset(t *testing.T) {
	msg := &Message{
		TemplateName: TemplatePasswordReset,
		TemplateData: map[string]any{"Name": "Pau", "Token": "abc123", "ExpiresInMinutes": 30},
	}
	require.NoError(t, msg.Render("Squad", "https://squad.test"))

	assert.Contains(t, msg.TextContent, "https://squad.test/reset-password?token=abc123")
	assert.Contains(t, msg.TextContent, "expires in 30 minutes")
	assert.Contains(t, msg.HTMLContent, `href="https://squad.test/reset-password?token=abc123"`)
}

func TestRenderUnknownTemplate(t *testing.T) {
	msg := &Message{TemplateName: "nope"}
	assert.Error(t, msg.Render("Squad", ""))
}

func TestRenderMissingKeyFails(t *testing.T) {
	msg := &Message{TemplateName: TemplateTheoryAssigned, TemplateData: map[string]string{"PlayerName": "Ana"}}
	assert.Error(t, msg.Render("Squad", ""))
}

func TestNewSenderPicksImplementation(t *testing.T) {
	logSender := NewSender(config.NotificationConfig{EmailFrom: "a@b.c"}, "Squad", nil)
	assert.IsType(t, &LogSender{}, logSender)

	sg := NewSender(config.NotificationConfig{EmailFrom: "a@b.c", SendGridAPIKey: "SG.key"}, "Squad", nil)
	assert.IsType(t, &SendGridSender{}, sg)
}

func TestLogSenderRendersMessage(t *testing.T) {
	sender := NewLogSender("Squad", "https://squad.test", nil)
	msg := &Message{
		To:           []mail.Address{{Address: "ana@example.com"}},
		Subject:      "Quiz",
		TemplateName: TemplateTheoryAssigned,
		TemplateData: map[string]interface{}{"PlayerName": "Ana", "QuizTitle": "Offside", "DueDate": ""},
	}
	require.NoError(t, sender.Send(context.Background(), msg))
	assert.Contains(t, msg.TextContent, `quiz "Offside".`)
}

func TestSendGridPrepare(t *testing.T) {
	sender := NewSendGridSender("SG.key", "Squad", "coach@example.com", "https://squad.test")
	msg := &Message{
		To:          []mail.Address{{Name: "Leo", Address: "leo@example.com"}},
		Subject:     "Hello",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	}
	m := sender.prepare(msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Squad] Hello", m.Personalizations[0].Subject)
	assert.Equal(t, "leo@example.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "coach@example.com", m.From.Address)
	assert.Len(t, m.Content, 2)
}
