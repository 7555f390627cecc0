package dto

import (
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// Trigger statuses returned by the run endpoint.
const (
	TriggerAccepted = "accepted"
	TriggerRejected = "rejected"
)

// TriggerRunRequest starts one pipeline run.
type TriggerRunRequest struct {
	BaseCurrency   string `json:"base_currency" binding:"required,len=3,alpha"`
	TargetCurrency string `json:"target_currency" binding:"required,len=3,alpha"`
	TriggeredBy    string `json:"triggered_by" binding:"omitempty,max=64"`
}

// TriggerRunResponse reports whether a run was accepted.
type TriggerRunResponse struct {
	Status string `json:"status"`
	RunID  string `json:"run_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// StageResponse is the outcome of one stage of a run.
type StageResponse struct {
	Stage      string    `json:"stage"`
	Attempts   int       `json:"attempts"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunResponse is the tracked state of a pipeline run.
type RunResponse struct {
	RunID          string          `json:"run_id"`
	Status         string          `json:"status"`
	BaseCurrency   string          `json:"base_currency"`
	TargetCurrency string          `json:"target_currency,omitempty"`
	TriggeredBy    string          `json:"triggered_by"`
	Stages         []StageResponse `json:"stages"`
	Error          string          `json:"error,omitempty"`
	ErrorKind      string          `json:"error_kind,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
}

// ListRunsResponse lists recent runs, newest first.
type ListRunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

// ToRunResponse converts a domain.Run to RunResponse DTO
func ToRunResponse(run domain.Run) RunResponse {
	stages := make([]StageResponse, len(run.Stages))
	for i, st := range run.Stages {
		stages[i] = StageResponse{
			Stage:      string(st.Stage),
			Attempts:   st.Attempts,
			Output:     st.Output,
			Error:      st.Error,
			StartedAt:  st.StartedAt,
			FinishedAt: st.FinishedAt,
		}
	}
	return RunResponse{
		RunID:          run.RunID,
		Status:         string(run.Status),
		BaseCurrency:   run.Request.BaseCurrency,
		TargetCurrency: run.Request.TargetCurrency,
		TriggeredBy:    run.Request.TriggeredBy,
		Stages:         stages,
		Error:          run.Error,
		ErrorKind:      run.ErrorKind,
		CreatedAt:      run.CreatedAt,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
}

// ToListRunsResponse converts a slice of runs.
func ToListRunsResponse(runs []domain.Run) ListRunsResponse {
	out := ListRunsResponse{Runs: make([]RunResponse, len(runs))}
	for i, run := range runs {
		out.Runs[i] = ToRunResponse(run)
	}
	return out
}
