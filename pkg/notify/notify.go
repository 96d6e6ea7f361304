// Package notify delivers account emails (confirmation, password reset,
// email change) over SMTP. Delivery is fire-and-forget: failures are logged
// and never surfaced to the request that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer sends the three account notification emails. The token is embedded
// in a frontend link the recipient follows to complete the flow.
type Mailer struct {
	client      *mail.Client
	from        string
	frontendURL string
	logger      *slog.Logger
}

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

func NewMailer(cfg Config, logger *slog.Logger) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{
		client:      client,
		from:        cfg.From,
		frontendURL: cfg.FrontendURL,
		logger:      logger,
	}, nil
}

func (m *Mailer) SendEmailConfirmation(ctx context.Context, recipient, token string) {
	body := fmt.Sprintf("Click link to confirm your email: %s/confirm-email/%s", m.frontendURL, token)
	m.send(ctx, recipient, "Confirmation Email", body)
}

func (m *Mailer) SendPasswordReset(ctx context.Context, recipient, token string) {
	body := fmt.Sprintf("Click link to reset your password: %s/reset-password/%s", m.frontendURL, token)
	m.send(ctx, recipient, "Reset your password", body)
}

func (m *Mailer) SendEmailChange(ctx context.Context, recipient, token string) {
	body := fmt.Sprintf("Click link to confirm your new email change: %s/confirm-email-change/%s", m.frontendURL, token)
	m.send(ctx, recipient, "Confirm your email change", body)
}

// send delivers in the background. The request that triggered the email has
// usually completed by the time SMTP finishes, so errors only go to the log.
func (m *Mailer) send(ctx context.Context, recipient, subject, body string) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		m.logger.ErrorContext(ctx, "invalid sender address", "error", err)
		return
	}
	if err := msg.To(recipient); err != nil {
		m.logger.WarnContext(ctx, "invalid recipient address", "error", err)
		return
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	go func() {
		if err := m.client.DialAndSend(msg); err != nil {
			m.logger.Error("failed to send notification email",
				"error", err,
				"subject", subject,
			)
		}
	}()
}
