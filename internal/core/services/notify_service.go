package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/gateways"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils/clock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SummaryWindow is the look-back window of the change summary.
const SummaryWindow = 24 * time.Hour

const displayTimeLayout = "2006-01-02 15:04:05 MST"

// NotifyConfig carries the notifier's settings.
type NotifyConfig struct {
	Recipients     []string
	DefaultTargets []string
}

// notifyService implements portssvc.NotifierSvc
type notifyService struct {
	BaseService
	current  repositories.CurrentRateReader
	history  repositories.HistoricalRateReader
	sender   gateways.MessageSender
	clock    clock.Clock
	settings NotifyConfig

	successTmpl *template.Template
	failureTmpl *template.Template
}

var _ portssvc.NotifierSvc = (*notifyService)(nil)

// NewNotifyService creates a new notify service
func NewNotifyService(
	current repositories.CurrentRateReader,
	history repositories.HistoricalRateReader,
	sender gateways.MessageSender,
	clk clock.Clock,
	settings NotifyConfig,
) portssvc.NotifierSvc {
	return &notifyService{
		current:     current,
		history:     history,
		sender:      sender,
		clock:       clk,
		settings:    settings,
		successTmpl: successHTML,
		failureTmpl: failureHTML,
	}
}

// BuildSummary reads the latest rate and the oldest rate of the trailing
// window concurrently and compares them.
func (s *notifyService) BuildSummary(ctx context.Context, pair domain.CurrencyPair) (*domain.RateSummary, error) {
	if err := validatePair(pair); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var latest, prior *domain.RateObservation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		row, err := s.current.FindCurrentRate(gctx, pair)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		latest = row
		return nil
	})
	g.Go(func() error {
		row, err := s.history.FindOldestSince(gctx, pair, now.Add(-SummaryWindow), now)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		prior = row
		return nil
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, apperrors.ErrStorage) {
			err = apperrors.NewStorageError("read rate summary", err)
		}
		return nil, err
	}

	return summarize(pair, latest, prior, now), nil
}

// summarize computes the percent change. A zero prior has no baseline and is
// treated as absent.
func summarize(pair domain.CurrencyPair, latest, prior *domain.RateObservation, now time.Time) *domain.RateSummary {
	summary := &domain.RateSummary{
		Pair:        pair,
		Latest:      latest,
		Prior:       prior,
		Direction:   domain.ChangeNone,
		GeneratedAt: now,
	}
	if latest == nil || prior == nil || prior.Rate <= 0 {
		return summary
	}

	priorRate := decimal.NewFromFloat(prior.Rate)
	change := decimal.NewFromFloat(latest.Rate).Sub(priorRate).Div(priorRate).Mul(decimal.NewFromInt(100))
	summary.HasChange = true
	summary.PercentChange = change
	switch change.Sign() {
	case 1:
		summary.Direction = domain.ChangeIncreased
	case -1:
		summary.Direction = domain.ChangeDecreased
	}
	return summary
}

// ChangeLine renders the one-line description of a summary.
func ChangeLine(summary domain.RateSummary) string {
	switch {
	case summary.HasChange:
		from := formatRate(summary.Prior.Rate)
		to := formatRate(summary.Latest.Rate)
		pct := summary.PercentChange.Abs().StringFixed(2)
		switch summary.Direction {
		case domain.ChangeIncreased:
			return fmt.Sprintf("increased by %s%% (from %s to %s)", pct, from, to)
		case domain.ChangeDecreased:
			return fmt.Sprintf("decreased by %s%% (from %s to %s)", pct, from, to)
		default:
			return fmt.Sprintf("no change (0.00%%) at %s", to)
		}
	case summary.Latest != nil:
		return fmt.Sprintf("current rate: 1 %s = %s %s",
			summary.Pair.BaseCurrency, formatRate(summary.Latest.Rate), summary.Pair.TargetCurrency)
	default:
		return "no recent rate data available"
	}
}

func formatRate(rate float64) string {
	return decimal.NewFromFloat(rate).StringFixed(4)
}

// Render produces the success message for one or more summaries.
func (s *notifyService) Render(summaries []domain.RateSummary, req domain.NotifyRequest) domain.Message {
	return s.render(context.Background(), summaries, req)
}

func (s *notifyService) render(ctx context.Context, summaries []domain.RateSummary, req domain.NotifyRequest) domain.Message {
	now := s.clock.Now()
	view := successView{RunID: req.RunID, ExecutedAt: now.Format(displayTimeLayout)}
	if req.Load != nil {
		view.HasLoad = true
		view.Appended = req.Load.Appended
		view.Merged = req.Load.Merged
	}

	var text strings.Builder
	text.WriteString("Exchange Rate ETL Completed Successfully\n\n")
	for _, summary := range summaries {
		line := ChangeLine(summary)
		section := summarySection{
			Pair:     summary.Pair.String(),
			Base:     summary.Pair.BaseCurrency,
			Target:   summary.Pair.TargetCurrency,
			Headline: capitalize(line),
		}
		fmt.Fprintf(&text, "%s: %s\n", summary.Pair, line)
		if summary.Latest != nil {
			section.HasLatest = true
			section.Latest = formatRate(summary.Latest.Rate)
			section.ObservedAt = summary.Latest.Timestamp.In(now.Location()).Format(displayTimeLayout)
		}
		view.Sections = append(view.Sections, section)
	}
	if len(summaries) == 0 {
		text.WriteString("No target currency was selected; no rate summary available.\n")
	}
	if req.RunID != "" {
		fmt.Fprintf(&text, "\nRun ID: %s\n", req.RunID)
	}
	if req.Load != nil {
		fmt.Fprintf(&text, "Rows appended: %d, current rates updated: %d\n", req.Load.Appended, req.Load.Merged)
	}
	fmt.Fprintf(&text, "Execution time: %s\nStatus: SUCCESS\n", view.ExecutedAt)

	html := s.executeHTML(ctx, s.successTmpl, view, req.RunID)

	subject := "Exchange Rate ETL Completed Successfully - " + normalizeCode(req.BaseCurrency)
	if len(summaries) == 1 {
		subject = "Exchange Rate ETL Completed Successfully - " + summaries[0].Pair.String()
	}
	return domain.Message{
		Subject:    subject,
		HTMLBody:   html,
		TextBody:   text.String(),
		Recipients: append([]string(nil), s.settings.Recipients...),
	}
}

// Notify builds the success summary for the requested pair, or for every
// default target when no target is given, and delivers it.
func (s *notifyService) Notify(ctx context.Context, req domain.NotifyRequest) (*domain.Message, error) {
	base := normalizeCode(req.BaseCurrency)
	if err := validateCode("base_currency", base); err != nil {
		return nil, err
	}
	req.BaseCurrency = base

	targets := s.targets(base, normalizeCode(req.TargetCurrency))
	summaries := make([]domain.RateSummary, 0, len(targets))
	for _, target := range targets {
		summary, err := s.BuildSummary(ctx, domain.CurrencyPair{BaseCurrency: base, TargetCurrency: target})
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	msg := s.render(ctx, summaries, req)
	if err := s.deliver(ctx, msg); err != nil {
		return &msg, err
	}
	s.LogInfo(ctx, "Success notification sent", slog.String("subject", msg.Subject), slog.Int("sections", len(summaries)))
	return &msg, nil
}

// NotifyFailure sends the operator failure notice for a run.
func (s *notifyService) NotifyFailure(ctx context.Context, failure domain.RunFailure) error {
	at := failure.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	pair := failure.Request.Pair()
	view := failureView{
		Pair:   pair.String(),
		RunID:  failure.RunID,
		Stage:  string(failure.Stage),
		Kind:   failure.Kind,
		Detail: failure.Detail,
		At:     at.In(s.clock.Location()).Format(displayTimeLayout),
	}

	html := s.executeHTML(ctx, s.failureTmpl, view, failure.RunID)
	text := fmt.Sprintf("Exchange Rate ETL Failed\n\nPair: %s\nRun ID: %s\nFailed stage: %s\nError kind: %s\nDetail: %s\nFailed at: %s\nStatus: FAILED\n",
		view.Pair, view.RunID, view.Stage, view.Kind, view.Detail, view.At)

	msg := domain.Message{
		Subject:    fmt.Sprintf("Exchange Rate ETL Failed - %s (stage %s)", view.Pair, view.Stage),
		HTMLBody:   html,
		TextBody:   text,
		Recipients: append([]string(nil), s.settings.Recipients...),
	}
	return s.deliver(ctx, msg)
}

// executeHTML renders the HTML part. On failure the message goes out as
// plain text only.
func (s *notifyService) executeHTML(ctx context.Context, tmpl *template.Template, view any, runID string) string {
	var html bytes.Buffer
	if err := tmpl.Execute(&html, view); err != nil {
		s.GetLogger(ctx).Warn("HTML notification render failed, sending plain text only",
			slog.String("run_id", runID),
			slog.String("template", tmpl.Name()),
			slog.String("error", err.Error()))
		return ""
	}
	return html.String()
}

func (s *notifyService) deliver(ctx context.Context, msg domain.Message) error {
	if len(msg.Recipients) == 0 {
		s.GetLogger(ctx).Warn("No notification recipients configured, skipping delivery", slog.String("subject", msg.Subject))
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		if !errors.Is(err, apperrors.ErrDelivery) {
			err = fmt.Errorf("%w: %w", apperrors.ErrDelivery, err)
		}
		s.LogError(ctx, err, "Notification delivery failed", slog.String("subject", msg.Subject))
		return err
	}
	return nil
}

func (s *notifyService) targets(base, target string) []string {
	if target != "" {
		return []string{target}
	}
	out := make([]string, 0, len(s.settings.DefaultTargets))
	for _, t := range s.settings.DefaultTargets {
		if t = normalizeCode(t); t != "" && t != base {
			out = append(out, t)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
