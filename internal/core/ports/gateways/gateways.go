// Package gateways defines the outbound collaborators of the pipeline.
package gateways

import (
	"context"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// RateProvider fetches live quotes for a source currency.
type RateProvider interface {
	// LiveQuotes returns an *apperrors.UpstreamError on provider failure.
	LiveQuotes(ctx context.Context, baseCurrency string) (*domain.QuoteSet, error)
	// Symbols returns the supported currency codes.
	Symbols(ctx context.Context) ([]string, error)
}

// MessageSender delivers a rendered notification.
type MessageSender interface {
	Send(ctx context.Context, msg domain.Message) error
}

// EventPublisher publishes run lifecycle events.
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, event domain.RunEvent) error
	Close() error
}
