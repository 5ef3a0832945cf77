package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/harlequingg/todo-api/internal/data"
	"github.com/harlequingg/todo-api/internal/mailer"
)

// EmailConfirmation mails new users a link carrying a token bound to their
// id and email address.
type EmailConfirmation struct {
	tokens      Tokens
	mailer      Mailer
	frontendURL string
}

func NewEmailConfirmation(tokens Tokens, m Mailer, frontendURL string) *EmailConfirmation {
	return &EmailConfirmation{tokens: tokens, mailer: m, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// SendVerification issues a confirmation token for u and mails the link.
func (e *EmailConfirmation) SendVerification(ctx context.Context, u *data.User) error {
	tok, err := e.tokens.Generate(u.ID.String(), u.Email)
	if err != nil {
		return err
	}
	return e.mailer.Send(ctx, u.Email, mailer.ConfirmEmailTemplate, mailer.ConfirmEmailData{
		Username: u.Username,
		Link:     e.Link(tok),
	})
}

// Link returns the front-end page that confirms tok.
func (e *EmailConfirmation) Link(tok string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", e.frontendURL, url.QueryEscape(tok))
}
