package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secondhandhub/marketplace-backend/pkg/config"
)

func TestSMTPMailerSend(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := &SMTPMailer{
		cfg: config.MailConfig{
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			Username:    "mailer",
			Password:    "secret",
			SenderEmail: "noreply@example.com",
		},
		send: func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	err := m.Send(context.Background(), Message{To: "user@example.com", Subject: "Hi", Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hi")
	assert.Contains(t, string(gotMsg), "\r\n\r\nhello")
}

func TestSMTPMailerSendFailure(t *testing.T) {
	m := &SMTPMailer{
		cfg: config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, SenderEmail: "noreply@example.com"},
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}

	err := m.Send(context.Background(), Message{To: "user@example.com"})
	assert.ErrorContains(t, err, "sending mail")
}

func TestSMTPMailerUnconfigured(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{})
	assert.Error(t, m.Send(context.Background(), Message{To: "user@example.com"}))
}

func TestVerificationMessage(t *testing.T) {
	msg := VerificationMessage("user@example.com", "http://localhost:5005/", "tok123")

	assert.Equal(t, "user@example.com", msg.To)
	assert.Contains(t, msg.Body, "http://localhost:5005/api/users/verify_email/tok123")
}

func TestPasswordResetMessage(t *testing.T) {
	msg := PasswordResetMessage("user@example.com", "http://localhost:5005", "tok456")

	assert.Contains(t, msg.Body, "http://localhost:5005/reset_password?token=tok456")
}
