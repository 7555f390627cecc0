package services

import (
	"fmt"
	"sync"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// runRegistry tracks runs in memory and enforces one in-flight run per pair.
type runRegistry struct {
	mu      sync.RWMutex
	runs    map[string]*domain.Run
	order   []string
	active  map[domain.CurrencyPair]string
	maxRuns int
}

func newRunRegistry(maxRuns int) *runRegistry {
	if maxRuns <= 0 {
		maxRuns = 500
	}
	return &runRegistry{
		runs:    make(map[string]*domain.Run),
		active:  make(map[domain.CurrencyPair]string),
		maxRuns: maxRuns,
	}
}

// reserve registers run and marks its pair in flight.
func (r *runRegistry) reserve(run domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pair := run.Request.Pair()
	if existing, ok := r.active[pair]; ok {
		return fmt.Errorf("%w: run %s is already in progress for %s", apperrors.ErrDuplicate, existing, pair)
	}
	r.active[pair] = run.RunID
	stored := run
	r.runs[run.RunID] = &stored
	r.order = append(r.order, run.RunID)
	r.prune()
	return nil
}

// discard forgets a run that was reserved but never enqueued.
func (r *runRegistry) discard(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run, ok := r.runs[runID]; ok {
		if r.active[run.Request.Pair()] == runID {
			delete(r.active, run.Request.Pair())
		}
		delete(r.runs, runID)
	}
	for i, id := range r.order {
		if id == runID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// update applies fn to the stored run. Finished runs release their pair.
func (r *runRegistry) update(runID string, fn func(run *domain.Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return
	}
	fn(run)
	if run.Finished() && r.active[run.Request.Pair()] == runID {
		delete(r.active, run.Request.Pair())
	}
}

func (r *runRegistry) get(runID string) (domain.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[runID]
	if !ok {
		return domain.Run{}, false
	}
	return cloneRun(run), true
}

// list returns up to limit runs, newest first.
func (r *runRegistry) list(limit int) []domain.Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Run, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, cloneRun(r.runs[r.order[i]]))
	}
	return out
}

// prune drops the oldest finished runs beyond maxRuns. Caller holds mu.
func (r *runRegistry) prune() {
	for len(r.order) > r.maxRuns {
		evicted := false
		for i, id := range r.order {
			if r.runs[id].Finished() {
				delete(r.runs, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}

func cloneRun(run *domain.Run) domain.Run {
	out := *run
	out.Stages = append([]domain.StageOutcome(nil), run.Stages...)
	return out
}
