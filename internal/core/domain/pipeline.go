package domain

import "time"

// StageName names a pipeline stage.
type StageName string

const (
	StageFetch     StageName = "fetch"
	StageTransform StageName = "transform"
	StageLoad      StageName = "load"
	StageNotify    StageName = "notify"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// RunRequest is a trigger for one pipeline run.
type RunRequest struct {
	BaseCurrency   string `json:"base_currency"`
	TargetCurrency string `json:"target_currency"`
	TriggeredBy    string `json:"triggered_by"`
}

// Pair returns the request's currency pair.
func (r RunRequest) Pair() CurrencyPair {
	return CurrencyPair{BaseCurrency: r.BaseCurrency, TargetCurrency: r.TargetCurrency}
}

// StageOutcome records the result of one stage in a run.
type StageOutcome struct {
	Stage      StageName `json:"stage"`
	Attempts   int       `json:"attempts"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run is a pipeline run as tracked by the run registry.
type Run struct {
	RunID      string         `json:"run_id"`
	Request    RunRequest     `json:"request"`
	Status     RunStatus      `json:"status"`
	Stages     []StageOutcome `json:"stages"`
	Error      string         `json:"error,omitempty"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

// Finished reports whether the run reached a terminal status.
func (r Run) Finished() bool {
	return r.Status == RunSucceeded || r.Status == RunFailed || r.Status == RunCancelled
}

// RunEvent is published when a run changes status.
type RunEvent struct {
	RunID          string    `json:"run_id"`
	Status         RunStatus `json:"status"`
	BaseCurrency   string    `json:"base_currency"`
	TargetCurrency string    `json:"target_currency"`
	TriggeredBy    string    `json:"triggered_by"`
	Stage          StageName `json:"stage,omitempty"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	Appended       int       `json:"appended,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
