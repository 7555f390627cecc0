// Package mailer delivers notifications by email.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/wneessen/go-mail"
)

// SMTPConfig configures the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends text/HTML alternative mail through an SMTP relay,
// upgrading to TLS when the server offers STARTTLS.
type SMTPMailer struct {
	cfg SMTPConfig
	now func() time.Time
}

var _ gateways.MessageSender = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg, now: time.Now}
}

func (m *SMTPMailer) Send(ctx context.Context, msg domain.Message) error {
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("%w: no recipients", apperrors.ErrDelivery)
	}
	email, err := m.compose(msg)
	if err != nil {
		return fmt.Errorf("%w: compose message: %w", apperrors.ErrDelivery, err)
	}
	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("%w: smtp client: %w", apperrors.ErrDelivery, err)
	}
	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDelivery, err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTLSConfig(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	return opts
}

// compose builds the message with the text body first and the HTML body as
// its alternative.
func (m *SMTPMailer) compose(msg domain.Message) (*mail.Msg, error) {
	email := mail.NewMsg()
	if err := email.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := email.To(msg.Recipients...); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	email.Subject(msg.Subject)
	email.SetDateWithValue(m.now())

	switch {
	case msg.TextBody != "":
		email.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		if msg.HTMLBody != "" {
			email.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
		}
	case msg.HTMLBody != "":
		email.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		email.SetBodyString(mail.TypeTextPlain, "")
	}
	return email, nil
}

// LogSender writes messages to the log. Used when SMTP is not configured.
type LogSender struct{}

var _ gateways.MessageSender = LogSender{}

func (LogSender) Send(ctx context.Context, msg domain.Message) error {
	middleware.GetLoggerFromCtx(ctx).Info("Notification (log delivery)",
		slog.String("subject", msg.Subject),
		slog.Any("recipients", msg.Recipients),
		slog.String("body", msg.TextBody),
	)
	return nil
}
