// Package mail renders and delivers notification emails.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"
)

// Template names available to Message.TemplateName.
const (
	TemplateCallup         = "callup"
	TemplateTheoryAssigned = "theory_assigned"
	TemplatePasswordReset  = "password_reset"
)

//go:embed templates/*
var templateFS embed.FS

type parsedTemplates struct {
	text map[string]*texttmpl.Template
	html map[string]*htmltmpl.Template
}

var (
	tmplOnce sync.Once
	tmpls    parsedTemplates
	tmplErr  error
)

func loadTemplates() (parsedTemplates, error) {
	tmplOnce.Do(func() {
		tmpls = parsedTemplates{
			text: make(map[string]*texttmpl.Template),
			html: make(map[string]*htmltmpl.Template),
		}
		for _, name := range []string{TemplateCallup, TemplateTheoryAssigned, TemplatePasswordReset} {
			t, err := texttmpl.ParseFS(templateFS, "templates/_base.txt", "templates/"+name+".txt")
			if err != nil {
				tmplErr = fmt.Errorf("parse %s.txt: %w", name, err)
				return
			}
			tmpls.text[name] = t.Option("missingkey=error")

			h, err := htmltmpl.ParseFS(templateFS, "templates/_base.gohtml", "templates/"+name+".gohtml")
			if err != nil {
				tmplErr = fmt.Errorf("parse %s.gohtml: %w", name, err)
				return
			}
			tmpls.html[name] = h.Option("missingkey=error")
		}
	})
	return tmpls, tmplErr
}

// Message is an outbound email. Templated messages are rendered into
// TextContent and HTMLContent before sending.
type Message struct {
	To      []mail.Address
	Subject string

	TemplateName string
	TemplateData interface{}
	TextContent  string
	HTMLContent  string
}

// RenderContext is the value templates execute against.
type RenderContext struct {
	AppName         string
	FrontendBaseURL string
	Data            interface{}
}

// Render fills the text and HTML bodies from the named template.
func (m *Message) Render(appName, frontendBaseURL string) error {
	if m.TemplateName == "" {
		return nil
	}
	t, err := loadTemplates()
	if err != nil {
		return err
	}
	text, ok := t.text[m.TemplateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", m.TemplateName)
	}
	data := RenderContext{AppName: appName, FrontendBaseURL: frontendBaseURL, Data: m.TemplateData}

	var buf bytes.Buffer
	if err := text.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s text: %w", m.TemplateName, err)
	}
	m.TextContent = buf.String()

	buf.Reset()
	if err := t.html[m.TemplateName].ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render %s html: %w", m.TemplateName, err)
	}
	m.HTMLContent = buf.String()
	return nil
}

func (m *Message) HasRecipients() bool { return len(m.To) > 0 }
func (m *Message) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }
