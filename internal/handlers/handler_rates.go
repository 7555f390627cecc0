package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/dto"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/gin-gonic/gin"
)

// rateHandler serves stored rates and change summaries.
type rateHandler struct {
	rateService    portssvc.RateQuerySvc
	summaryBuilder portssvc.SummaryBuilder
}

// registerRateRoutes registers routes related to stored rates.
func registerRateRoutes(rg *gin.RouterGroup, rateService portssvc.RateQuerySvc, summaryBuilder portssvc.SummaryBuilder) {
	h := &rateHandler{rateService: rateService, summaryBuilder: summaryBuilder}

	rates := rg.Group("/rates")
	{
		rates.GET("/history", h.getHistory)
		rates.GET("/current", h.listCurrent)
		rates.GET("/current/:base/:target", h.getCurrent)
		rates.GET("/summary/:base/:target", h.getSummary)
	}
}

// getHistory godoc
// @Summary Rate history
// @Description Returns the newest historical observations, ordered by timestamp ascending
// @Tags rates
// @Produce  json
// @Param   base   query string false "Base currency code" MinLength(3) MaxLength(3)
// @Param   target query string false "Target currency code" MinLength(3) MaxLength(3)
// @Param   limit  query int    false "Maximum rows (default 5000)"
// @Success 200 {object} dto.HistoryResponse
// @Failure 400 {object} ErrorResponse "Invalid query"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 502 {object} ErrorResponse "Warehouse unavailable"
// @Security BearerAuth
// @Router /api/v1/rates/history [get]
func (h *rateHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	rows, err := h.rateService.GetHistory(c.Request.Context(), domain.HistoryFilter{
		BaseCurrency:   query.Base,
		TargetCurrency: query.Target,
		Limit:          query.Limit,
	})
	if err != nil {
		writeServiceError(c, logger, err, "Failed to load rate history")
		return
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{Rates: dto.ToListRateResponse(rows), Count: len(rows)})
}

// listCurrent godoc
// @Summary Current rates
// @Description Lists the current-state rate of every pair, optionally for one base currency
// @Tags rates
// @Produce  json
// @Param   base query string false "Base currency code" MinLength(3) MaxLength(3)
// @Success 200 {array} dto.RateResponse
// @Failure 400 {object} ErrorResponse "Invalid currency code"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 502 {object} ErrorResponse "Warehouse unavailable"
// @Security BearerAuth
// @Router /api/v1/rates/current [get]
func (h *rateHandler) listCurrent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rows, err := h.rateService.ListCurrentRates(c.Request.Context(), c.Query("base"))
	if err != nil {
		writeServiceError(c, logger, err, "Failed to list current rates")
		return
	}
	c.JSON(http.StatusOK, dto.ToListRateResponse(rows))
}

// getCurrent godoc
// @Summary Latest stored rate
// @Description Returns the current-state row for a currency pair
// @Tags rates
// @Produce  json
// @Param   base   path string true "Base currency code" MinLength(3) MaxLength(3)
// @Param   target path string true "Target currency code" MinLength(3) MaxLength(3)
// @Success 200 {object} dto.RateResponse
// @Failure 400 {object} ErrorResponse "Invalid currency code"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "No rate stored for the pair"
// @Failure 502 {object} ErrorResponse "Warehouse unavailable"
// @Security BearerAuth
// @Router /api/v1/rates/current/{base}/{target} [get]
func (h *rateHandler) getCurrent(c *gin.Context) {
	pair := pairFromPath(c)
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("pair", pair.String()))

	row, err := h.rateService.GetCurrentRate(c.Request.Context(), pair)
	if err != nil {
		writeServiceError(c, logger, err, "Failed to load current rate")
		return
	}
	c.JSON(http.StatusOK, dto.ToRateResponse(*row))
}

// getSummary godoc
// @Summary 24h change summary
// @Description Compares the latest rate with the oldest rate of the trailing 24 hours
// @Tags rates
// @Produce  json
// @Param   base   path string true "Base currency code" MinLength(3) MaxLength(3)
// @Param   target path string true "Target currency code" MinLength(3) MaxLength(3)
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} ErrorResponse "Invalid currency code"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 502 {object} ErrorResponse "Warehouse unavailable"
// @Security BearerAuth
// @Router /api/v1/rates/summary/{base}/{target} [get]
func (h *rateHandler) getSummary(c *gin.Context) {
	pair := pairFromPath(c)
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("pair", pair.String()))

	summary, err := h.summaryBuilder.BuildSummary(c.Request.Context(), pair)
	if err != nil {
		writeServiceError(c, logger, err, "Failed to build rate summary")
		return
	}
	c.JSON(http.StatusOK, dto.ToSummaryResponse(*summary, services.ChangeLine(*summary)))
}

func pairFromPath(c *gin.Context) domain.CurrencyPair {
	return domain.CurrencyPair{
		BaseCurrency:   strings.ToUpper(strings.TrimSpace(c.Param("base"))),
		TargetCurrency: strings.ToUpper(strings.TrimSpace(c.Param("target"))),
	}
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrStorage):
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Warehouse unavailable: " + err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}
