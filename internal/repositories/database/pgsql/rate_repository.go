package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

const historicalTable = "historical_rates"

var rateColumns = []string{"base_currency", "target_currency", "rate", "timestamp", "retrieved_at"}

// mergeCurrentRatesSQL upserts one row per pair from parallel arrays. A
// current row is replaced only when the incoming timestamp is strictly
// newer. Ties and older rows leave it untouched.
const mergeCurrentRatesSQL = `
	INSERT INTO current_rates AS cur (base_currency, target_currency, rate, "timestamp", retrieved_at)
	SELECT * FROM unnest($1::text[], $2::text[], $3::float8[], $4::timestamptz[], $5::timestamptz[])
	ON CONFLICT (base_currency, target_currency) DO UPDATE
	SET rate = EXCLUDED.rate,
		"timestamp" = EXCLUDED."timestamp",
		retrieved_at = EXCLUDED.retrieved_at
	WHERE cur."timestamp" < EXCLUDED."timestamp"`

// PgxRateRepository implements the rate warehouse on PostgreSQL.
type PgxRateRepository struct {
	BaseRepository
	loc *time.Location
}

var _ repositories.RateRepositoryWithTx = (*PgxRateRepository)(nil)

// NewPgxRateRepository creates a repository. Timestamps read back are
// converted to loc. The tables come from the migrations.
func NewPgxRateRepository(db DBPool, loc *time.Location) *PgxRateRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &PgxRateRepository{
		BaseRepository: BaseRepository{Pool: db},
		loc:            loc,
	}
}

// AppendAndMerge copies rows into the historical log and upserts the newest
// row per pair into current state in a single transaction.
func (r *PgxRateRepository) AppendAndMerge(ctx context.Context, rows []domain.RateObservation) (stats domain.MergeStats, err error) {
	if len(rows) == 0 {
		return stats, nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err != nil {
			_ = r.Rollback(ctx, tx)
		}
	}()

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{historicalTable}, rateColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		row := rows[i]
		return []any{row.BaseCurrency, row.TargetCurrency, row.Rate, row.Timestamp, row.RetrievedAt}, nil
	}))
	if err != nil {
		return stats, apperrors.NewStorageError("append historical rates", err)
	}
	stats.Appended = int(copied)

	candidates := domain.LatestPerPair(rows)
	stats.Candidates = len(candidates)

	bases := make([]string, len(candidates))
	targets := make([]string, len(candidates))
	rates := make([]float64, len(candidates))
	timestamps := make([]time.Time, len(candidates))
	retrieved := make([]time.Time, len(candidates))
	for i, row := range candidates {
		bases[i], targets[i], rates[i] = row.BaseCurrency, row.TargetCurrency, row.Rate
		timestamps[i], retrieved[i] = row.Timestamp, row.RetrievedAt
	}
	tag, err := tx.Exec(ctx, mergeCurrentRatesSQL, bases, targets, rates, timestamps, retrieved)
	if err != nil {
		err = apperrors.NewStorageError("merge current rates", err)
		return stats, err
	}
	stats.Merged = int(tag.RowsAffected())

	if err = r.Commit(ctx, tx); err != nil {
		return stats, err
	}
	return stats, nil
}

// FindCurrentRate retrieves the current row for pair.
func (r *PgxRateRepository) FindCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error) {
	query := `
		SELECT base_currency, target_currency, rate, "timestamp", retrieved_at
		FROM current_rates
		WHERE base_currency = $1 AND target_currency = $2;
	`
	row, err := r.scanOne(r.Pool.QueryRow(ctx, query, pair.BaseCurrency, pair.TargetCurrency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no current rate for %s", pair)
		}
		return nil, apperrors.NewStorageError("find current rate", err)
	}
	return row, nil
}

// ListCurrentRates lists current rows ordered by pair.
func (r *PgxRateRepository) ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error) {
	query := `SELECT base_currency, target_currency, rate, "timestamp", retrieved_at FROM current_rates`
	args := []any{}
	if baseCurrency != "" {
		query += " WHERE base_currency = $1"
		args = append(args, strings.ToUpper(baseCurrency))
	}
	query += " ORDER BY base_currency, target_currency"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("list current rates", err)
	}
	return r.collect(rows)
}

// FindOldestSince returns the earliest logged observation inside [from, to].
func (r *PgxRateRepository) FindOldestSince(ctx context.Context, pair domain.CurrencyPair, from, to time.Time) (*domain.RateObservation, error) {
	query := `
		SELECT base_currency, target_currency, rate, "timestamp", retrieved_at
		FROM historical_rates
		WHERE base_currency = $1 AND target_currency = $2
			AND "timestamp" >= $3 AND "timestamp" <= $4
		ORDER BY "timestamp" ASC
		LIMIT 1;
	`
	row, err := r.scanOne(r.Pool.QueryRow(ctx, query, pair.BaseCurrency, pair.TargetCurrency, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no historical rate for %s since %s", pair, from.Format(time.RFC3339))
		}
		return nil, apperrors.NewStorageError("find oldest historical rate", err)
	}
	return row, nil
}

// ListHistory returns the newest filter.Limit rows ordered ascending.
func (r *PgxRateRepository) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error) {
	inner := `SELECT base_currency, target_currency, rate, "timestamp", retrieved_at FROM historical_rates WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.BaseCurrency != "" {
		inner += fmt.Sprintf(" AND base_currency = $%d", argNum)
		args = append(args, filter.BaseCurrency)
		argNum++
	}
	if filter.TargetCurrency != "" {
		inner += fmt.Sprintf(" AND target_currency = $%d", argNum)
		args = append(args, filter.TargetCurrency)
		argNum++
	}
	inner += ` ORDER BY "timestamp" DESC`
	if filter.Limit > 0 {
		inner += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	query := `SELECT * FROM (` + inner + `) AS recent ORDER BY "timestamp" ASC`
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("list rate history", err)
	}
	return r.collect(rows)
}

func (r *PgxRateRepository) scanOne(row pgx.Row) (*domain.RateObservation, error) {
	var obs domain.RateObservation
	if err := row.Scan(&obs.BaseCurrency, &obs.TargetCurrency, &obs.Rate, &obs.Timestamp, &obs.RetrievedAt); err != nil {
		return nil, err
	}
	obs.Timestamp = obs.Timestamp.In(r.loc)
	obs.RetrievedAt = obs.RetrievedAt.In(r.loc)
	return &obs, nil
}

func (r *PgxRateRepository) collect(rows pgx.Rows) ([]domain.RateObservation, error) {
	defer rows.Close()

	out := make([]domain.RateObservation, 0)
	for rows.Next() {
		obs, err := r.scanOne(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("scan rate row", err)
		}
		out = append(out, *obs)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate rate rows", err)
	}
	return out, nil
}
