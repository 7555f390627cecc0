package pgsql_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/repositories/database/pgsql"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"
)

var (
	mergeCurrentRatesPattern = `(?s)INSERT INTO current_rates AS cur .*FROM unnest\(.*` +
		`ON CONFLICT \(base_currency, target_currency\) DO UPDATE.*` +
		regexp.QuoteMeta(`WHERE cur."timestamp" < EXCLUDED."timestamp"`)
	historicalColumns = []string{"base_currency", "target_currency", "rate", "timestamp", "retrieved_at"}
)

type RateRepositoryTestSuite struct {
	suite.Suite
	mock pgxmock.PgxPoolIface
	repo *pgsql.PgxRateRepository
	base time.Time
}

func (suite *RateRepositoryTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	suite.Require().NoError(err)
	suite.mock = mock
	suite.repo = pgsql.NewPgxRateRepository(mock, time.UTC)
	suite.base = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
}

func (suite *RateRepositoryTestSuite) TearDownTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func (suite *RateRepositoryTestSuite) rows() []domain.RateObservation {
	return []domain.RateObservation{
		{CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}, Rate: 49.0, Timestamp: suite.base, RetrievedAt: suite.base},
		{CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}, Rate: 49.5, Timestamp: suite.base.Add(time.Hour), RetrievedAt: suite.base},
		{CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EUR"}, Rate: 0.92, Timestamp: suite.base, RetrievedAt: suite.base},
	}
}

func (suite *RateRepositoryTestSuite) TestAppendAndMerge_CopyAndUpsertInOneTransaction() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectCopyFrom(pgx.Identifier{"historical_rates"}, historicalColumns).WillReturnResult(3)
	suite.mock.ExpectExec(mergeCurrentRatesPattern).
		WithArgs([]string{"USD", "USD"}, []string{"EGP", "EUR"}, []float64{49.5, 0.92}, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	stats, err := suite.repo.AppendAndMerge(context.Background(), suite.rows())

	suite.Require().NoError(err)
	suite.Equal(domain.MergeStats{Appended: 3, Candidates: 2, Merged: 1}, stats)
}

func (suite *RateRepositoryTestSuite) TestAppendAndMerge_UpsertFailureRollsBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectCopyFrom(pgx.Identifier{"historical_rates"}, historicalColumns).WillReturnResult(3)
	suite.mock.ExpectExec(mergeCurrentRatesPattern).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))
	suite.mock.ExpectRollback()

	_, err := suite.repo.AppendAndMerge(context.Background(), suite.rows())

	suite.ErrorIs(err, apperrors.ErrStorage)
	suite.Contains(err.Error(), "merge current rates")
}

func (suite *RateRepositoryTestSuite) TestAppendAndMerge_CopyFailureRollsBack() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectCopyFrom(pgx.Identifier{"historical_rates"}, historicalColumns).
		WillReturnError(errors.New("connection reset"))
	suite.mock.ExpectRollback()

	_, err := suite.repo.AppendAndMerge(context.Background(), suite.rows())

	suite.ErrorIs(err, apperrors.ErrStorage)
	suite.Contains(err.Error(), "append historical rates")
}

func (suite *RateRepositoryTestSuite) TestAppendAndMerge_CommitFailure() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectCopyFrom(pgx.Identifier{"historical_rates"}, historicalColumns).WillReturnResult(3)
	suite.mock.ExpectExec(mergeCurrentRatesPattern).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	suite.mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
	suite.mock.ExpectRollback()

	_, err := suite.repo.AppendAndMerge(context.Background(), suite.rows())

	suite.ErrorIs(err, apperrors.ErrStorage)
}

func (suite *RateRepositoryTestSuite) TestAppendAndMerge_BeginFailure() {
	suite.mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := suite.repo.AppendAndMerge(context.Background(), suite.rows())

	suite.ErrorIs(err, apperrors.ErrStorage)
}

func (suite *RateRepositoryTestSuite) TestAppendAndMerge_NoRows() {
	stats, err := suite.repo.AppendAndMerge(context.Background(), nil)

	suite.Require().NoError(err)
	suite.Equal(domain.MergeStats{}, stats)
}

func (suite *RateRepositoryTestSuite) TestFindCurrentRate() {
	cairo := time.FixedZone("EET", 2*60*60)
	repo := pgsql.NewPgxRateRepository(suite.mock, cairo)
	suite.mock.ExpectQuery(`FROM current_rates`).
		WithArgs("USD", "EGP").
		WillReturnRows(pgxmock.NewRows(historicalColumns).AddRow("USD", "EGP", 49.5, suite.base, suite.base))

	obs, err := repo.FindCurrentRate(context.Background(), domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"})

	suite.Require().NoError(err)
	suite.Equal(49.5, obs.Rate)
	suite.True(obs.Timestamp.Equal(suite.base))
	suite.Equal(cairo, obs.Timestamp.Location())
}

func (suite *RateRepositoryTestSuite) TestFindCurrentRate_NotFound() {
	suite.mock.ExpectQuery(`FROM current_rates`).
		WithArgs("USD", "EGP").
		WillReturnRows(pgxmock.NewRows(historicalColumns))

	_, err := suite.repo.FindCurrentRate(context.Background(), domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"})

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RateRepositoryTestSuite) TestListHistory_NewestLimitAscending() {
	suite.mock.ExpectQuery(`(?s)FROM historical_rates WHERE 1=1 AND base_currency = \$1 AND target_currency = \$2 ORDER BY "timestamp" DESC LIMIT \$3\) AS recent ORDER BY "timestamp" ASC`).
		WithArgs("USD", "EGP", 2).
		WillReturnRows(pgxmock.NewRows(historicalColumns).
			AddRow("USD", "EGP", 49.0, suite.base, suite.base).
			AddRow("USD", "EGP", 49.5, suite.base.Add(time.Hour), suite.base))

	rows, err := suite.repo.ListHistory(context.Background(), domain.HistoryFilter{BaseCurrency: "USD", TargetCurrency: "EGP", Limit: 2})

	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal(49.5, rows[1].Rate)
}

func (suite *RateRepositoryTestSuite) TestListCurrentRates_QueryError() {
	suite.mock.ExpectQuery(`FROM current_rates WHERE base_currency = \$1`).
		WithArgs("USD").
		WillReturnError(errors.New("relation does not exist"))

	_, err := suite.repo.ListCurrentRates(context.Background(), "usd")

	suite.ErrorIs(err, apperrors.ErrStorage)
}

func TestRateRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RateRepositoryTestSuite))
}
