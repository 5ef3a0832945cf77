// Package mailer sends templated plain-text email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/go-mail/mail/v2"
)

// ConfirmEmailTemplate is the template sent after registration. Its data is
// a ConfirmEmailData.
const ConfirmEmailTemplate = "confirm_email.tmpl"

type ConfirmEmailData struct {
	Username string
	Link     string
}

//go:embed templates
var templateFS embed.FS

const sendAttempts = 3

type Mailer struct {
	dialer    *mail.Dialer
	sender    string
	templates *template.Template
}

func New(host string, port int, username, password, sender string) (*Mailer, error) {
	templates, err := template.New("").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second
	return &Mailer{
		dialer:    dialer,
		sender:    sender,
		templates: templates,
	}, nil
}

// Render executes the subject and plainBody blocks of the named template.
func (m *Mailer) Render(name string, data any) (subject, body string, err error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", "", fmt.Errorf("mail template %q not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", err
	}
	subject = buf.String()

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, "plainBody", data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

// Send renders the named template and delivers it to a single recipient,
// redialing up to three times.
func (m *Mailer) Send(ctx context.Context, to, name string, data any) error {
	subject, body, err := m.Render(name, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	for i := 0; i < sendAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
	}
	return err
}
