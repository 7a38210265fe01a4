package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/secondhandhub/marketplace-backend/pkg/config"
)

// Message is a fully rendered outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. The SMTP implementation is swapped for a
// recording fake in tests.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends over authenticated SMTP with STARTTLS.
type SMTPMailer struct {
	cfg  config.MailConfig
	send sendFunc
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.SMTPHost == "" || m.cfg.SenderEmail == "" {
		return fmt.Errorf("mailer is not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("mail recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	raw := renderMessage(m.cfg.SenderEmail, msg)
	if err := m.send(addr, auth, m.cfg.SenderEmail, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return nil
}

func renderMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// VerificationMessage renders the email-confirmation mail. The link
// points at the public verify endpoint with the signed token appended.
func VerificationMessage(to, publicURL, token string) Message {
	link := fmt.Sprintf("%s/api/users/verify_email/%s", strings.TrimSuffix(publicURL, "/"), token)
	return Message{
		To:      to,
		Subject: "Confirm your email",
		Body: fmt.Sprintf(
			"Welcome! Please confirm your email address to finish creating your account.\r\n\r\n"+
				"Confirm by opening this link (valid for 1 hour):\r\n%s\r\n\r\n"+
				"If you did not sign up, you can ignore this email.\r\n", link),
	}
}

// PasswordResetMessage renders the password-reset mail.
func PasswordResetMessage(to, publicURL, token string) Message {
	link := fmt.Sprintf("%s/reset_password?token=%s", strings.TrimSuffix(publicURL, "/"), token)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf(
			"A password reset was requested for your account.\r\n\r\n"+
				"Reset it by opening this link (valid for 1 hour):\r\n%s\r\n\r\n"+
				"If you did not request this, you can ignore this email.\r\n", link),
	}
}
