package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/dto"
	"github.com/SscSPs/fx_rates_pipeline/internal/handlers"
	"github.com/SscSPs/fx_rates_pipeline/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testOperator = "operator"

// --- Test Suite ---
type DashboardHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockRates    *MockRateQueryService
	mockNotifier *MockNotifierService
	mockPipeline *MockPipelineService
	mockCurrency *MockCurrencyService
	mockAuth     *MockAuthService
	jwtSecret    string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *DashboardHandlerTestSuite) generateTestToken(subject string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "fxpipeline-test",
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *DashboardHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockRates = new(MockRateQueryService)
	suite.mockNotifier = new(MockNotifierService)
	suite.mockPipeline = new(MockPipelineService)
	suite.mockCurrency = new(MockCurrencyService)
	suite.mockAuth = new(MockAuthService)

	cfg := &config.Config{
		IsProduction:     true,
		JWTSecret:        suite.jwtSecret,
		LoginRateLimit:   "1000-M",
		TriggerRateLimit: "1000-M",
	}
	container := &portssvc.ServiceContainer{
		Notifier: suite.mockNotifier,
		Pipeline: suite.mockPipeline,
		Rates:    suite.mockRates,
		Currency: suite.mockCurrency,
		Auth:     suite.mockAuth,
	}
	err := handlers.RegisterRoutes(suite.router, cfg, container, nil)
	suite.Require().NoError(err)
}

func (suite *DashboardHandlerTestSuite) do(method, url string, body any, authorized bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(testOperator))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *DashboardHandlerTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", nil, false)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *DashboardHandlerTestSuite) TestAPIRequiresToken() {
	w := suite.do(http.MethodGet, "/api/v1/rates/current", nil, false)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockRates.AssertNotCalled(suite.T(), "ListCurrentRates", mock.Anything, mock.Anything)
}

func (suite *DashboardHandlerTestSuite) TestLogin_Success() {
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	suite.mockAuth.On("Login", mock.Anything, testOperator, "secret").
		Return(&domain.AuthToken{Token: "signed", Subject: testOperator, ExpiresAt: expiresAt}, nil).Once()

	w := suite.do(http.MethodPost, "/auth/login", dto.LoginRequest{Username: testOperator, Password: "secret"}, false)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.LoginResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("signed", resp.Token)
	suite.True(expiresAt.Equal(resp.ExpiresAt))
	suite.mockAuth.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestLogin_InvalidCredentials() {
	suite.mockAuth.On("Login", mock.Anything, testOperator, "wrong").
		Return(nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)).Once()

	w := suite.do(http.MethodPost, "/auth/login", dto.LoginRequest{Username: testOperator, Password: "wrong"}, false)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.do(http.MethodPost, "/auth/login", map[string]string{"username": testOperator}, false)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAuth.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestListCurrencies() {
	suite.mockCurrency.On("ListCurrencies", mock.Anything).Return([]string{"EGP", "EUR", "USD"}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/currencies", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.CurrencyListResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal([]string{"EGP", "EUR", "USD"}, resp.Currencies)
}

func (suite *DashboardHandlerTestSuite) TestGetHistory_Success() {
	ts := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	rows := []domain.RateObservation{
		{CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}, Rate: 30.9, Timestamp: ts, RetrievedAt: ts},
		{CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}, Rate: 30.95, Timestamp: ts.Add(time.Hour), RetrievedAt: ts.Add(time.Hour)},
	}
	suite.mockRates.On("GetHistory", mock.Anything, domain.HistoryFilter{BaseCurrency: "USD", TargetCurrency: "EGP", Limit: 100}).
		Return(rows, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/history?base=USD&target=EGP&limit=100", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.HistoryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(2, resp.Count)
	suite.Equal(30.95, resp.Rates[1].Rate)
	suite.mockRates.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestGetHistory_InvalidQuery() {
	w := suite.do(http.MethodGet, "/api/v1/rates/history?base=DOLLARS", nil, true)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/rates/history?limit=-1", nil, true)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRates.AssertNotCalled(suite.T(), "GetHistory", mock.Anything, mock.Anything)
}

func (suite *DashboardHandlerTestSuite) TestGetHistory_WarehouseUnavailable() {
	suite.mockRates.On("GetHistory", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: connection refused", apperrors.ErrStorage)).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/history", nil, true)
	suite.Equal(http.StatusBadGateway, w.Code)
}

func (suite *DashboardHandlerTestSuite) TestListCurrentRates() {
	ts := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	suite.mockRates.On("ListCurrentRates", mock.Anything, "USD").Return([]domain.RateObservation{
		{CurrencyPair: domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}, Rate: 30.9, Timestamp: ts, RetrievedAt: ts},
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/current?base=USD", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.RateResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 1)
	suite.Equal("EGP", resp[0].TargetCurrency)
}

func (suite *DashboardHandlerTestSuite) TestGetCurrentRate() {
	ts := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	pair := domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}
	suite.mockRates.On("GetCurrentRate", mock.Anything, pair).
		Return(&domain.RateObservation{CurrencyPair: pair, Rate: 30.9, Timestamp: ts, RetrievedAt: ts}, nil).Once()
	suite.mockRates.On("GetCurrentRate", mock.Anything, domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "JPY"}).
		Return(nil, apperrors.NewNotFoundError("no current rate for USD/JPY")).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/current/usd/egp", nil, true)
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.RateResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(30.9, resp.Rate)

	w = suite.do(http.MethodGet, "/api/v1/rates/current/USD/JPY", nil, true)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockRates.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestGetSummary() {
	pair := domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	summary := &domain.RateSummary{
		Pair:          pair,
		Latest:        &domain.RateObservation{CurrencyPair: pair, Rate: 30.9, Timestamp: now},
		Prior:         &domain.RateObservation{CurrencyPair: pair, Rate: 30.6, Timestamp: now.Add(-23 * time.Hour)},
		HasChange:     true,
		PercentChange: decimal.RequireFromString("0.98039"),
		Direction:     domain.ChangeIncreased,
		GeneratedAt:   now,
	}
	suite.mockNotifier.On("BuildSummary", mock.Anything, pair).Return(summary, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/summary/USD/EGP", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.SummaryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("increased", resp.Direction)
	suite.Require().NotNil(resp.PercentChange)
	suite.Equal("0.98", *resp.PercentChange)
	suite.Equal(services.ChangeLine(*summary), resp.Message)
}

func (suite *DashboardHandlerTestSuite) TestGetSummary_NoData() {
	pair := domain.CurrencyPair{BaseCurrency: "USD", TargetCurrency: "EGP"}
	suite.mockNotifier.On("BuildSummary", mock.Anything, pair).
		Return(&domain.RateSummary{Pair: pair, Direction: domain.ChangeNone}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/summary/USD/EGP", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.SummaryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Nil(resp.LatestRate)
	suite.Nil(resp.PercentChange)
	suite.Equal("no recent rate data available", resp.Message)
}

func (suite *DashboardHandlerTestSuite) TestTriggerRun_Accepted() {
	runID := uuid.NewString()
	expected := domain.RunRequest{BaseCurrency: "USD", TargetCurrency: "EGP", TriggeredBy: testOperator}
	suite.mockPipeline.On("Submit", mock.Anything, expected).
		Return(&domain.Run{RunID: runID, Request: expected, Status: domain.RunQueued}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/pipeline/runs", dto.TriggerRunRequest{BaseCurrency: "USD", TargetCurrency: "EGP"}, true)

	suite.Equal(http.StatusAccepted, w.Code)
	var resp dto.TriggerRunResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(dto.TriggerAccepted, resp.Status)
	suite.Equal(runID, resp.RunID)
	suite.mockPipeline.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestTriggerRun_Rejected() {
	rejected := func(cause error) error {
		return fmt.Errorf("%w: %w", apperrors.ErrRunRejected, cause)
	}
	testCases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"invalid pair", rejected(apperrors.NewValidationError("base and target currency must differ, got USD")), http.StatusBadRequest},
		{"duplicate", rejected(fmt.Errorf("%w: run already in progress", apperrors.ErrDuplicate)), http.StatusConflict},
		{"queue full", rejected(fmt.Errorf("%w (16)", services.ErrQueueFull)), http.StatusTooManyRequests},
		{"not running", rejected(services.ErrPipelineStopped), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.mockPipeline.On("Submit", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/pipeline/runs",
				dto.TriggerRunRequest{BaseCurrency: "USD", TargetCurrency: "USD", TriggeredBy: "ops"}, true)

			suite.Equal(tc.wantCode, w.Code)
			var resp dto.TriggerRunResponse
			suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			suite.Equal(dto.TriggerRejected, resp.Status)
			suite.Empty(resp.RunID)
			suite.NotEmpty(resp.Reason)
		})
	}
}

func (suite *DashboardHandlerTestSuite) TestTriggerRun_InvalidBody() {
	w := suite.do(http.MethodPost, "/api/v1/pipeline/runs", map[string]string{"base_currency": "US"}, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	var resp dto.TriggerRunResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(dto.TriggerRejected, resp.Status)
	suite.mockPipeline.AssertNotCalled(suite.T(), "Submit", mock.Anything, mock.Anything)
}

func (suite *DashboardHandlerTestSuite) TestGetRun() {
	runID := uuid.NewString()
	started := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	run := &domain.Run{
		RunID:   runID,
		Request: domain.RunRequest{BaseCurrency: "USD", TargetCurrency: "EGP", TriggeredBy: "schedule"},
		Status:  domain.RunSucceeded,
		Stages: []domain.StageOutcome{
			{Stage: domain.StageFetch, Attempts: 1, Output: "raw1/exchangerate/live/file.csv", StartedAt: started, FinishedAt: started.Add(time.Second)},
		},
		CreatedAt: started,
	}
	suite.mockPipeline.On("GetRun", mock.Anything, runID).Return(run, nil).Once()
	suite.mockPipeline.On("GetRun", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("run missing not found")).Once()

	w := suite.do(http.MethodGet, "/api/v1/pipeline/runs/"+runID, nil, true)
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.RunResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("succeeded", resp.Status)
	suite.Len(resp.Stages, 1)
	suite.Equal("fetch", resp.Stages[0].Stage)

	w = suite.do(http.MethodGet, "/api/v1/pipeline/runs/missing", nil, true)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockPipeline.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestListRuns() {
	suite.mockPipeline.On("ListRuns", mock.Anything, 50).Return([]domain.Run{
		{RunID: "b", Status: domain.RunRunning},
		{RunID: "a", Status: domain.RunFailed, Error: "fetch: upstream rate provider error"},
	}, nil).Once()
	suite.mockPipeline.On("ListRuns", mock.Anything, 5).Return([]domain.Run{}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/pipeline/runs", nil, true)
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListRunsResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Runs, 2)
	suite.Equal("b", resp.Runs[0].RunID)

	w = suite.do(http.MethodGet, "/api/v1/pipeline/runs?limit=5", nil, true)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/pipeline/runs?limit=abc", nil, true)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockPipeline.AssertExpectations(suite.T())
}

func (suite *DashboardHandlerTestSuite) TestRegisterRoutes_InvalidRateLimit() {
	r := gin.New()
	cfg := &config.Config{IsProduction: true, JWTSecret: suite.jwtSecret, LoginRateLimit: "often", TriggerRateLimit: "30-M"}
	err := handlers.RegisterRoutes(r, cfg, &portssvc.ServiceContainer{}, nil)
	suite.Error(err)
}

// --- Run Test Suite ---
func TestDashboardHandler(t *testing.T) {
	suite.Run(t, new(DashboardHandlerTestSuite))
}
