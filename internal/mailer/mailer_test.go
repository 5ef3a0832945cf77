package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfirmEmail(t *testing.T) {
	m, err := New("localhost", 25, "", "", "noreply@example.com")
	require.NoError(t, err)

	subject, body, err := m.Render(ConfirmEmailTemplate, ConfirmEmailData{
		Username: "alice",
		Link:     "http://localhost:5173/verify-email?token=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "Confirm your email", subject)
	assert.Contains(t, body, "Hi alice,")
	assert.Contains(t, body, "http://localhost:5173/verify-email?token=abc")
}

func TestRenderUnknownTemplate(t *testing.T) {
	m, err := New("localhost", 25, "", "", "noreply@example.com")
	require.NoError(t, err)

	_, _, err = m.Render("missing.tmpl", nil)
	assert.ErrorContains(t, err, "not found")
}

func TestSendUnreachableServer(t *testing.T) {
	m, err := New("127.0.0.1", 1, "", "", "noreply@example.com")
	require.NoError(t, err)

	err = m.Send(context.Background(), "alice@example.com", ConfirmEmailTemplate, ConfirmEmailData{Username: "alice"})
	assert.Error(t, err)
}

func TestSendCanceled(t *testing.T) {
	m, err := New("127.0.0.1", 1, "", "", "noreply@example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = m.Send(ctx, "alice@example.com", ConfirmEmailTemplate, ConfirmEmailData{Username: "alice"})
	assert.ErrorIs(t, err, context.Canceled)
}
