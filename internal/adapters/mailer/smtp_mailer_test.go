package mailer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "etl@example.com"})
	m.now = func() time.Time { return time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC) }

	email, err := m.compose(domain.Message{
		Subject:    "Exchange Rate ETL Completed Successfully",
		TextBody:   "USD/EGP increased by 1.02%",
		HTMLBody:   "<p>USD/EGP increased by 1.02%</p>",
		Recipients: []string{"ops@example.com", "fx@example.com"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = email.WriteTo(&buf)
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "From: <etl@example.com>")
	assert.Contains(t, text, "<ops@example.com>, <fx@example.com>")
	assert.Contains(t, text, "Subject: Exchange Rate ETL Completed Successfully")
	assert.Contains(t, text, "Date: Mon, 10 Nov 2025 14:00:00 +0000")
	assert.Contains(t, text, "multipart/alternative")
	assert.Contains(t, text, "text/plain")
	assert.Contains(t, text, "text/html")
	assert.Contains(t, text, "USD/EGP increased by 1.02%")
}

func TestCompose_InvalidFrom(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "not an address"})

	_, err := m.compose(domain.Message{Subject: "x", TextBody: "y", Recipients: []string{"ops@example.com"}})
	assert.Error(t, err)

	err = m.Send(context.Background(), domain.Message{Subject: "x", TextBody: "y", Recipients: []string{"ops@example.com"}})
	assert.ErrorIs(t, err, apperrors.ErrDelivery)
}

func TestClientOptions_AuthOnlyWithUsername(t *testing.T) {
	anonymous := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "etl@example.com"})
	authenticated := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "etl@example.com", Username: "etl", Password: "secret"})

	assert.Len(t, authenticated.clientOptions(), len(anonymous.clientOptions())+3)
	assert.Equal(t, 587, anonymous.cfg.Port)
	assert.Equal(t, 30*time.Second, anonymous.cfg.Timeout)
}

func TestSend_NoRecipients(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "etl@example.com"})

	err := m.Send(context.Background(), domain.Message{Subject: "x"})
	assert.ErrorIs(t, err, apperrors.ErrDelivery)
}

func TestSend_Unreachable(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "etl@example.com", Timeout: time.Second})

	err := m.Send(context.Background(), domain.Message{Subject: "x", TextBody: "y", Recipients: []string{"ops@example.com"}})
	assert.ErrorIs(t, err, apperrors.ErrDelivery)
}
