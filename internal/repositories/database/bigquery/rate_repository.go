// Package bigquery implements the rate warehouse on BigQuery through the
// REST API.
package bigquery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const timestampParamLayout = "2006-01-02 15:04:05.999999Z07:00"

// RateRepository runs warehouse queries as BigQuery jobs.
type RateRepository struct {
	svc       *bq.Service
	projectID string
	datasetID string
	location  string
	loc       *time.Location
	pollEvery time.Duration
}

var (
	_ repositories.RateRepositoryFacade = (*RateRepository)(nil)
	_ repositories.SchemaManager        = (*RateRepository)(nil)
)

// NewRateRepository creates a repository for projectID.datasetID.
func NewRateRepository(ctx context.Context, projectID, datasetID, location string, loc *time.Location, opts ...option.ClientOption) (*RateRepository, error) {
	if projectID == "" || datasetID == "" {
		return nil, fmt.Errorf("bigquery project and dataset are required")
	}
	svc, err := bq.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RateRepository{
		svc:       svc,
		projectID: projectID,
		datasetID: datasetID,
		location:  location,
		loc:       loc,
		pollEvery: time.Second,
	}, nil
}

func (r *RateRepository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// EnsureSchema creates both tables when absent.
func (r *RateRepository) EnsureSchema(ctx context.Context) error {
	script := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			base_currency STRING NOT NULL,
			target_currency STRING NOT NULL,
			rate FLOAT64 NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			retrieved_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS %[2]s (
			base_currency STRING NOT NULL,
			target_currency STRING NOT NULL,
			rate FLOAT64 NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			retrieved_at TIMESTAMP NOT NULL
		);`, r.table("historical_rates"), r.table("current_rates"))

	if _, err := r.run(ctx, script, nil); err != nil {
		return apperrors.NewStorageError("create rate tables", err)
	}
	return nil
}

// AppendAndMerge inserts rows and merges the per-pair newest into current
// state inside one multi-statement transaction. BigQuery does not report
// per-statement counts for scripts, so Merged equals Candidates.
func (r *RateRepository) AppendAndMerge(ctx context.Context, rows []domain.RateObservation) (domain.MergeStats, error) {
	if len(rows) == 0 {
		return domain.MergeStats{}, nil
	}
	candidates := domain.LatestPerPair(rows)

	script := fmt.Sprintf(`
		BEGIN TRANSACTION;
		INSERT INTO %[1]s (base_currency, target_currency, rate, timestamp, retrieved_at)
		SELECT r.base_currency, r.target_currency, r.rate, r.timestamp, r.retrieved_at
		FROM UNNEST(@rows) AS r;
		MERGE %[2]s AS t
		USING (SELECT * FROM UNNEST(@candidates)) AS s
		ON t.base_currency = s.base_currency AND t.target_currency = s.target_currency
		WHEN MATCHED AND s.timestamp > t.timestamp THEN
			UPDATE SET rate = s.rate, timestamp = s.timestamp, retrieved_at = s.retrieved_at
		WHEN NOT MATCHED THEN
			INSERT (base_currency, target_currency, rate, timestamp, retrieved_at)
			VALUES (s.base_currency, s.target_currency, s.rate, s.timestamp, s.retrieved_at);
		COMMIT TRANSACTION;`, r.table("historical_rates"), r.table("current_rates"))

	params := []*bq.QueryParameter{
		rowsParameter("rows", rows),
		rowsParameter("candidates", candidates),
	}
	if _, err := r.run(ctx, script, params); err != nil {
		return domain.MergeStats{}, apperrors.NewStorageError("append and merge rates", err)
	}
	return domain.MergeStats{Appended: len(rows), Candidates: len(candidates), Merged: len(candidates)}, nil
}

func (r *RateRepository) FindCurrentRate(ctx context.Context, pair domain.CurrencyPair) (*domain.RateObservation, error) {
	query := fmt.Sprintf(`
		SELECT base_currency, target_currency, rate, UNIX_MICROS(timestamp), UNIX_MICROS(retrieved_at)
		FROM %s
		WHERE base_currency = @base AND target_currency = @target
		LIMIT 1`, r.table("current_rates"))

	rows, err := r.run(ctx, query, pairParameters(pair))
	if err != nil {
		return nil, apperrors.NewStorageError("find current rate", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("no current rate for %s", pair)
	}
	return r.decodeRow(rows[0])
}

func (r *RateRepository) ListCurrentRates(ctx context.Context, baseCurrency string) ([]domain.RateObservation, error) {
	query := fmt.Sprintf(`
		SELECT base_currency, target_currency, rate, UNIX_MICROS(timestamp), UNIX_MICROS(retrieved_at)
		FROM %s`, r.table("current_rates"))
	var params []*bq.QueryParameter
	if baseCurrency != "" {
		query += " WHERE base_currency = @base"
		params = append(params, stringParameter("base", strings.ToUpper(baseCurrency)))
	}
	query += " ORDER BY base_currency, target_currency"

	rows, err := r.run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewStorageError("list current rates", err)
	}
	return r.decodeRows(rows)
}

func (r *RateRepository) FindOldestSince(ctx context.Context, pair domain.CurrencyPair, from, to time.Time) (*domain.RateObservation, error) {
	query := fmt.Sprintf(`
		SELECT base_currency, target_currency, rate, UNIX_MICROS(timestamp), UNIX_MICROS(retrieved_at)
		FROM %s
		WHERE base_currency = @base AND target_currency = @target
			AND timestamp >= @from AND timestamp <= @to
		ORDER BY timestamp ASC
		LIMIT 1`, r.table("historical_rates"))

	params := append(pairParameters(pair), timestampParameter("from", from), timestampParameter("to", to))
	rows, err := r.run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewStorageError("find oldest historical rate", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("no historical rate for %s since %s", pair, from.Format(time.RFC3339))
	}
	return r.decodeRow(rows[0])
}

func (r *RateRepository) ListHistory(ctx context.Context, filter domain.HistoryFilter) ([]domain.RateObservation, error) {
	inner := fmt.Sprintf(`
		SELECT base_currency, target_currency, rate, timestamp, retrieved_at
		FROM %s
		WHERE TRUE`, r.table("historical_rates"))
	var params []*bq.QueryParameter
	if filter.BaseCurrency != "" {
		inner += " AND base_currency = @base"
		params = append(params, stringParameter("base", filter.BaseCurrency))
	}
	if filter.TargetCurrency != "" {
		inner += " AND target_currency = @target"
		params = append(params, stringParameter("target", filter.TargetCurrency))
	}
	inner += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		inner += " LIMIT @limit"
		params = append(params, int64Parameter("limit", int64(filter.Limit)))
	}

	query := `
		SELECT base_currency, target_currency, rate, UNIX_MICROS(timestamp), UNIX_MICROS(retrieved_at)
		FROM (` + inner + `)
		ORDER BY timestamp ASC`
	rows, err := r.run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewStorageError("list rate history", err)
	}
	return r.decodeRows(rows)
}

// run executes a standard SQL query, waits for completion and reads every
// result page.
func (r *RateRepository) run(ctx context.Context, query string, params []*bq.QueryParameter) ([]*bq.TableRow, error) {
	req := &bq.QueryRequest{
		Query:           query,
		UseLegacySql:    googleapi.Bool(false),
		ParameterMode:   "NAMED",
		QueryParameters: params,
		Location:        r.location,
	}
	if deadline, ok := ctx.Deadline(); ok {
		req.TimeoutMs = time.Until(deadline).Milliseconds()
	}

	resp, err := r.svc.Jobs.Query(r.projectID, req).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := resp.Rows
	complete, pageToken := resp.JobComplete, resp.PageToken
	if complete && pageToken == "" {
		return rows, nil
	}
	if resp.JobReference == nil {
		return nil, fmt.Errorf("query job reference missing")
	}

	ref := resp.JobReference
	for !complete || pageToken != "" {
		if !complete {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.pollEvery):
			}
		}
		call := r.svc.Jobs.GetQueryResults(r.projectID, ref.JobId).Context(ctx)
		if ref.Location != "" {
			call = call.Location(ref.Location)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		results, err := call.Do()
		if err != nil {
			return nil, err
		}
		if !results.JobComplete {
			continue
		}
		complete = true
		rows = append(rows, results.Rows...)
		pageToken = results.PageToken
	}
	return rows, nil
}

func (r *RateRepository) decodeRows(rows []*bq.TableRow) ([]domain.RateObservation, error) {
	out := make([]domain.RateObservation, 0, len(rows))
	for _, row := range rows {
		obs, err := r.decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *obs)
	}
	return out, nil
}

func (r *RateRepository) decodeRow(row *bq.TableRow) (*domain.RateObservation, error) {
	if len(row.F) != 5 {
		return nil, apperrors.NewStorageError("decode rate row", fmt.Errorf("expected 5 columns, got %d", len(row.F)))
	}
	cell := func(i int) string {
		s, _ := row.F[i].V.(string)
		return s
	}
	rate, err := strconv.ParseFloat(cell(2), 64)
	if err != nil {
		return nil, apperrors.NewStorageError("decode rate", err)
	}
	ts, err := strconv.ParseInt(cell(3), 10, 64)
	if err != nil {
		return nil, apperrors.NewStorageError("decode timestamp", err)
	}
	retrieved, err := strconv.ParseInt(cell(4), 10, 64)
	if err != nil {
		return nil, apperrors.NewStorageError("decode retrieved_at", err)
	}
	return &domain.RateObservation{
		CurrencyPair: domain.CurrencyPair{BaseCurrency: cell(0), TargetCurrency: cell(1)},
		Rate:         rate,
		Timestamp:    time.UnixMicro(ts).In(r.loc),
		RetrievedAt:  time.UnixMicro(retrieved).In(r.loc),
	}, nil
}

var rateStructType = &bq.QueryParameterType{
	Type: "STRUCT",
	StructTypes: []*bq.QueryParameterTypeStructTypes{
		{Name: "base_currency", Type: &bq.QueryParameterType{Type: "STRING"}},
		{Name: "target_currency", Type: &bq.QueryParameterType{Type: "STRING"}},
		{Name: "rate", Type: &bq.QueryParameterType{Type: "FLOAT64"}},
		{Name: "timestamp", Type: &bq.QueryParameterType{Type: "TIMESTAMP"}},
		{Name: "retrieved_at", Type: &bq.QueryParameterType{Type: "TIMESTAMP"}},
	},
}

// rowsParameter encodes observations as ARRAY<STRUCT<...>>.
func rowsParameter(name string, rows []domain.RateObservation) *bq.QueryParameter {
	values := make([]*bq.QueryParameterValue, 0, len(rows))
	for _, row := range rows {
		values = append(values, &bq.QueryParameterValue{
			StructValues: map[string]bq.QueryParameterValue{
				"base_currency":   {Value: row.BaseCurrency},
				"target_currency": {Value: row.TargetCurrency},
				"rate":            {Value: strconv.FormatFloat(row.Rate, 'g', -1, 64)},
				"timestamp":       {Value: row.Timestamp.Format(timestampParamLayout)},
				"retrieved_at":    {Value: row.RetrievedAt.Format(timestampParamLayout)},
			},
		})
	}
	return &bq.QueryParameter{
		Name:           name,
		ParameterType:  &bq.QueryParameterType{Type: "ARRAY", ArrayType: rateStructType},
		ParameterValue: &bq.QueryParameterValue{ArrayValues: values},
	}
}

func pairParameters(pair domain.CurrencyPair) []*bq.QueryParameter {
	return []*bq.QueryParameter{
		stringParameter("base", pair.BaseCurrency),
		stringParameter("target", pair.TargetCurrency),
	}
}

func stringParameter(name, value string) *bq.QueryParameter {
	return &bq.QueryParameter{
		Name:           name,
		ParameterType:  &bq.QueryParameterType{Type: "STRING"},
		ParameterValue: &bq.QueryParameterValue{Value: value},
	}
}

func int64Parameter(name string, value int64) *bq.QueryParameter {
	return &bq.QueryParameter{
		Name:           name,
		ParameterType:  &bq.QueryParameterType{Type: "INT64"},
		ParameterValue: &bq.QueryParameterValue{Value: strconv.FormatInt(value, 10)},
	}
}

func timestampParameter(name string, value time.Time) *bq.QueryParameter {
	return &bq.QueryParameter{
		Name:           name,
		ParameterType:  &bq.QueryParameterType{Type: "TIMESTAMP"},
		ParameterValue: &bq.QueryParameterValue{Value: value.Format(timestampParamLayout)},
	}
}
