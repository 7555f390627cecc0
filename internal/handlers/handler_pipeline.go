package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	portssvc "github.com/SscSPs/fx_rates_pipeline/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/services"
	"github.com/SscSPs/fx_rates_pipeline/internal/dto"
	"github.com/SscSPs/fx_rates_pipeline/internal/middleware"
	"github.com/gin-gonic/gin"
)

const defaultRunListLimit = 50

// pipelineHandler triggers and reports pipeline runs.
type pipelineHandler struct {
	pipeline portssvc.PipelineTrigger
}

// registerPipelineRoutes registers routes related to pipeline runs.
func registerPipelineRoutes(rg *gin.RouterGroup, pipeline portssvc.PipelineTrigger, limit gin.HandlerFunc) {
	h := &pipelineHandler{pipeline: pipeline}

	runs := rg.Group("/pipeline/runs")
	{
		runs.POST("", limit, h.triggerRun)
		runs.GET("", h.listRuns)
		runs.GET("/:runID", h.getRun)
	}
}

// triggerRun godoc
// @Summary Trigger a pipeline run
// @Description Queues one fetch, transform, load and notify run for a currency pair
// @Tags pipeline
// @Accept  json
// @Produce  json
// @Param   run body dto.TriggerRunRequest true "Run parameters"
// @Success 202 {object} dto.TriggerRunResponse "Run accepted"
// @Failure 400 {object} dto.TriggerRunResponse "Invalid pair"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.TriggerRunResponse "A run for the pair is already in progress"
// @Failure 429 {object} dto.TriggerRunResponse "Run queue is full"
// @Failure 503 {object} dto.TriggerRunResponse "Pipeline workers are not running"
// @Security BearerAuth
// @Router /api/v1/pipeline/runs [post]
func (h *pipelineHandler) triggerRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for TriggerRun", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.TriggerRunResponse{Status: dto.TriggerRejected, Reason: "Invalid request format: " + err.Error()})
		return
	}

	triggeredBy := req.TriggeredBy
	if triggeredBy == "" {
		if operator, ok := middleware.GetOperatorFromContext(c); ok {
			triggeredBy = operator
		}
	}

	run, err := h.pipeline.Submit(c.Request.Context(), domain.RunRequest{
		BaseCurrency:   req.BaseCurrency,
		TargetCurrency: req.TargetCurrency,
		TriggeredBy:    triggeredBy,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperrors.ErrDuplicate):
			status = http.StatusConflict
		case errors.Is(err, services.ErrQueueFull):
			status = http.StatusTooManyRequests
		case errors.Is(err, services.ErrPipelineStopped):
			status = http.StatusServiceUnavailable
		default:
			logger.Error("Failed to submit pipeline run", slog.String("error", err.Error()))
		}
		c.JSON(status, dto.TriggerRunResponse{Status: dto.TriggerRejected, Reason: err.Error()})
		return
	}

	logger.Info("Pipeline run accepted", slog.String("run_id", run.RunID), slog.String("pair", run.Request.Pair().String()))
	c.JSON(http.StatusAccepted, dto.TriggerRunResponse{Status: dto.TriggerAccepted, RunID: run.RunID})
}

// getRun godoc
// @Summary Get a pipeline run
// @Description Returns the status and stage outcomes of a run
// @Tags pipeline
// @Produce  json
// @Param   runID path string true "Run ID"
// @Success 200 {object} dto.RunResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Run not found"
// @Security BearerAuth
// @Router /api/v1/pipeline/runs/{runID} [get]
func (h *pipelineHandler) getRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	run, err := h.pipeline.GetRun(c.Request.Context(), c.Param("runID"))
	if err != nil {
		writeServiceError(c, logger, err, "Failed to load run")
		return
	}
	c.JSON(http.StatusOK, dto.ToRunResponse(*run))
}

// listRuns godoc
// @Summary List pipeline runs
// @Description Lists recent runs, newest first
// @Tags pipeline
// @Produce  json
// @Param   limit query int false "Maximum runs (default 50)"
// @Success 200 {object} dto.ListRunsResponse
// @Failure 400 {object} ErrorResponse "Invalid limit"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /api/v1/pipeline/runs [get]
func (h *pipelineHandler) listRuns(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	limit := defaultRunListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := h.pipeline.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, logger, err, "Failed to list runs")
		return
	}
	c.JSON(http.StatusOK, dto.ToListRunsResponse(runs))
}
