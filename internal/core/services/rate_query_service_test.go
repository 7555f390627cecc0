package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/repositories/memory"
	"github.com/SscSPs/fx_rates_pipeline/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RateQueryServiceTestSuite struct {
	suite.Suite
	repo    *memory.RateRepository
	service portssvc.RateQuerySvc
	base    time.Time
}

func (suite *RateQueryServiceTestSuite) SetupTest() {
	suite.repo = memory.NewRateRepository()
	suite.service = services.NewRateQueryService(suite.repo)
	suite.base = time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)

	rows := make([]domain.RateObservation, 0, 6)
	for i := 0; i < 5; i++ {
		rows = append(rows, domain.RateObservation{
			CurrencyPair: usdEgp,
			Rate:         49.0 + float64(i)/10,
			Timestamp:    suite.base.Add(time.Duration(i) * time.Hour),
		})
	}
	rows = append(rows, domain.RateObservation{
		CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EUR"},
		Rate:         0.92,
		Timestamp:    suite.base,
	})
	_, err := suite.repo.AppendAndMerge(context.Background(), rows)
	suite.Require().NoError(err)
}

func (suite *RateQueryServiceTestSuite) TestGetHistory_LimitKeepsNewestAscending() {
	rows, err := suite.service.GetHistory(context.Background(), domain.HistoryFilter{BaseCurrency: "usd", TargetCurrency: "egp", Limit: 3})

	suite.Require().NoError(err)
	suite.Require().Len(rows, 3)
	suite.Equal(49.2, rows[0].Rate)
	suite.Equal(49.4, rows[2].Rate)
	suite.True(rows[0].Timestamp.Before(rows[2].Timestamp))
}

func (suite *RateQueryServiceTestSuite) TestGetHistory_DefaultLimit() {
	rows, err := suite.service.GetHistory(context.Background(), domain.HistoryFilter{BaseCurrency: "USD"})

	suite.Require().NoError(err)
	suite.Len(rows, 6)
}

func (suite *RateQueryServiceTestSuite) TestGetHistory_InvalidCode() {
	_, err := suite.service.GetHistory(context.Background(), domain.HistoryFilter{BaseCurrency: "DOLLAR"})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RateQueryServiceTestSuite) TestGetCurrentRate() {
	row, err := suite.service.GetCurrentRate(context.Background(), domain.CurrencyPair{BaseCurrency: "usd", TargetCurrency: "egp"})

	suite.Require().NoError(err)
	suite.Equal(49.4, row.Rate)

	_, err = suite.service.GetCurrentRate(context.Background(), domain.CurrencyPair{BaseCurrency: "EUR", TargetCurrency: "JPY"})
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RateQueryServiceTestSuite) TestListCurrentRates() {
	rows, err := suite.service.ListCurrentRates(context.Background(), "USD")

	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal("USDEGP", rows[0].Code())
	suite.Equal("USDEUR", rows[1].Code())
}

func TestRateQueryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateQueryServiceTestSuite))
}

func TestCurrencyService_FallsBackOnProviderError(t *testing.T) {
	ctx := context.Background()
	provider := new(MockRateProvider)
	provider.On("Symbols", ctx).Return(nil, errors.New("timeout")).Once()

	service := services.NewCurrencyService(provider, []string{"USD", "EGP", "EUR"})
	codes, err := service.ListCurrencies(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"EGP", "EUR", "USD"}, codes)
}

func TestCurrencyService_UsesProviderList(t *testing.T) {
	ctx := context.Background()
	provider := new(MockRateProvider)
	provider.On("Symbols", ctx).Return([]string{"AED", "USD"}, nil).Once()

	codes, err := services.NewCurrencyService(provider, []string{"EGP"}).ListCurrencies(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"AED", "USD"}, codes)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	service := services.NewAuthService(services.AuthConfig{
		OperatorUsername:     "operator",
		OperatorPasswordHash: hash,
		JWTSecret:            "test-secret",
		JWTIssuer:            "fx-rates-pipeline",
		JWTExpiry:            time.Hour,
	})

	token, err := service.Login(context.Background(), "operator", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "operator", token.Subject)
	claims, err := utils.ParseOperatorToken(token.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
	assert.Equal(t, "fx-rates-pipeline", claims.Issuer)

	_, err = service.Login(context.Background(), "operator", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = service.Login(context.Background(), "someone", "s3cret")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_LoginDisabledWithoutHash(t *testing.T) {
	service := services.NewAuthService(services.AuthConfig{OperatorUsername: "operator", JWTSecret: "x"})

	_, err := service.Login(context.Background(), "operator", "")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
