package induction

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/kochimetro/inductd/core/events"
	"github.com/kochimetro/inductd/core/logger"
	"github.com/kochimetro/inductd/core/metrics"
	"github.com/kochimetro/inductd/core/model"
	"github.com/kochimetro/inductd/internal/eventbus"
)

// RunState tracks the orchestrator's per-run state machine.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateComplete
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ExcludedTrainset records a snapshot dropped from a run together with the
// integrity error that caused the exclusion.
type ExcludedTrainset struct {
	TrainsetID string `json:"trainset_id"`
	Err        error  `json:"-"`
}

// MarshalJSON renders the exclusion with a readable error string.
func (e ExcludedTrainset) MarshalJSON() ([]byte, error) {
	var reason string
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return json.Marshal(struct {
		TrainsetID string `json:"trainset_id"`
		Error      string `json:"error"`
	}{e.TrainsetID, reason})
}

// RunResult is the immutable outcome of one optimization run. It is
// published atomically: callers observe either no result or a fully
// consistent one. A new run supersedes, never mutates, a prior result.
type RunResult struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	// Results is ranked for presentation: descending composite score, ties
	// by ascending trainset ID. Exactly one entry per included trainset.
	Results  []model.OptimizationResult `json:"results"`
	Metrics  model.FleetMetrics         `json:"metrics"`
	Excluded []ExcludedTrainset         `json:"excluded,omitempty"`
}

// Orchestrator coordinates one optimization pass over the fleet: snapshot
// validation, parallel feasibility and scoring, the single-threaded
// stabling reconciliation, action assignment, ranking, and metric
// aggregation. It holds no mutable fleet state between runs.
type Orchestrator struct {
	cfg      Config
	filter   FeasibilityFilter
	scorer   Scorer
	assigner Assigner
	log      logger.Logger
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	progress *eventbus.TypedBus[events.ProgressEvent]

	mu    sync.Mutex
	state RunState
	last  *RunResult
}

// NewOrchestrator validates the configuration and builds an engine. A
// ConfigurationError here is fatal: no run can start with bad parameters.
// The sink and bus may be nil; progress events are always available via
// Progress.
func NewOrchestrator(cfg Config, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*Orchestrator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = nopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Orchestrator{
		cfg:      cfg,
		filter:   FeasibilityFilter{BlockingJobCards: cfg.BlockingJobCards},
		scorer:   Scorer{Weights: cfg.Weights},
		assigner: Assigner{Config: cfg},
		log:      log,
		sink:     sink,
		bus:      bus,
		progress: eventbus.NewTyped[events.ProgressEvent](),
	}, nil
}

// State returns the current run state.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastResult returns the most recent completed result, or nil if no run has
// completed yet. The result is immutable.
func (o *Orchestrator) LastResult() *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Progress subscribes to the advisory progress channel. The percentage is
// monotonic within a run.
func (o *Orchestrator) Progress() <-chan events.ProgressEvent {
	return o.progress.Subscribe()
}

// Unfollow removes a progress subscription.
func (o *Orchestrator) Unfollow(ch <-chan events.ProgressEvent) {
	o.progress.Unsubscribe(ch)
}

// Close releases the progress bus.
func (o *Orchestrator) Close() {
	o.progress.Close()
}

// evaluation carries the per-trainset outputs of the parallel phase.
type evaluation struct {
	ts        model.Trainset
	feasible  ActionSet
	scores    model.ObjectiveScores
	composite int
}

// Run executes one optimization pass over the supplied fleet snapshot.
//
// In non-strict mode a trainset failing validation is excluded and recorded
// while the rest of the fleet completes; in strict mode the first integrity
// error fails the whole run. Cancellation via ctx is honoured between
// trainset evaluations and yields a failed run with no partial result
// visible.
func (o *Orchestrator) Run(ctx context.Context, fleet []model.Trainset) (*RunResult, error) {
	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.state = StateRunning
	o.mu.Unlock()

	runID := uuid.NewString()
	startedAt := time.Now()
	o.log.Infof("run %s: optimizing %d trainsets", runID, len(fleet))
	o.publishProgress(runID, 0, "validating fleet snapshot")

	valid, excluded, err := o.validateFleet(runID, fleet)
	if err != nil {
		return nil, o.fail(runID, startedAt, len(fleet), err)
	}
	o.publishProgress(runID, 5, "fleet snapshot validated")

	// One evaluation instant and one normalization context for the whole
	// run: feasibility, scoring, and reasoning all agree on "now".
	fctx := NewFleetContext(startedAt, valid)
	evals, err := o.evaluateFleet(ctx, runID, fctx, valid)
	if err != nil {
		return nil, o.fail(runID, startedAt, len(fleet), err)
	}

	o.publishProgress(runID, 80, "reconciling stabling geometry")
	conflicts := reconcileStabling(valid, o.cfg.BayTieBreak, fctx)
	for i := range evals {
		if _, ok := conflicts[evals[i].ts.ID]; ok {
			evals[i].scores, evals[i].composite = o.scorer.Score(evals[i].ts, fctx)
		}
	}

	o.publishProgress(runID, 90, "assigning induction actions")
	results := make([]model.OptimizationResult, 0, len(evals))
	for _, ev := range evals {
		var conflict *BayConflict
		if c, ok := conflicts[ev.ts.ID]; ok {
			conflict = &c
		}
		results = append(results, o.assigner.Assign(ev.ts, ev.feasible, ev.scores, ev.composite, fctx, conflict))
	}
	rankResults(results)

	if err := ctx.Err(); err != nil {
		return nil, o.fail(runID, startedAt, len(fleet), &CancelledError{RunID: runID, Cause: err})
	}

	o.publishProgress(runID, 95, "aggregating fleet metrics")
	completedAt := time.Now()
	res := &RunResult{
		RunID:       runID,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Results:     results,
		Metrics:     aggregateMetrics(results, completedAt),
		Excluded:    excluded,
	}

	o.mu.Lock()
	o.state = StateComplete
	o.last = res
	o.mu.Unlock()

	o.publishProgress(runID, 100, "optimization complete")
	if o.bus != nil {
		o.bus.Publish(events.RunCompletedEvent{
			RunID:       runID,
			Status:      StateComplete.String(),
			Fleet:       len(results),
			Excluded:    len(excluded),
			Metrics:     res.Metrics,
			CompletedAt: completedAt,
		})
	}
	o.record(res)
	o.log.Infof("run %s: complete, fleet score %.1f, %d excluded",
		runID, res.Metrics.OverallScore, len(excluded))
	return res, nil
}

// validateFleet splits the snapshot into valid and excluded trainsets. A
// duplicate ID is an integrity error: the invariant is exactly one result
// per trainset.
func (o *Orchestrator) validateFleet(runID string, fleet []model.Trainset) ([]model.Trainset, []ExcludedTrainset, error) {
	valid := make([]model.Trainset, 0, len(fleet))
	var excluded []ExcludedTrainset
	seen := make(map[string]struct{}, len(fleet))

	for _, ts := range fleet {
		err := ts.Validate()
		if err == nil {
			if _, dup := seen[ts.ID]; dup {
				err = &model.DataIntegrityError{TrainsetID: ts.ID, Field: "trainset_id", Reason: "duplicate in snapshot"}
			}
		}
		if err != nil {
			if o.cfg.Strict {
				return nil, nil, err
			}
			o.log.Warnf("run %s: excluding trainset: %v", runID, err)
			excluded = append(excluded, ExcludedTrainset{TrainsetID: ts.ID, Err: err})
			if o.bus != nil {
				o.bus.Publish(events.TrainsetExcludedEvent{RunID: runID, TrainsetID: ts.ID, Err: err})
			}
			continue
		}
		seen[ts.ID] = struct{}{}
		valid = append(valid, ts)
	}
	return valid, excluded, nil
}

// evaluateFleet runs feasibility filtering and scoring across a bounded
// worker pool. Each trainset is independent; the snapshot is read-only and
// results are written once into a slot keyed by input position. Workers
// check for cancellation before every evaluation.
func (o *Orchestrator) evaluateFleet(ctx context.Context, runID string, fctx *FleetContext, fleet []model.Trainset) ([]evaluation, error) {
	evals := make([]evaluation, len(fleet))

	jobs := make(chan int)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	tick := func(id string, composite int) {
		// Publishing under the lock keeps the advisory percentage monotonic
		// even when workers finish out of order.
		mu.Lock()
		done++
		pct := 5 + 70*done/max(len(fleet), 1)
		o.publishProgress(runID, pct, "evaluating trainsets")
		mu.Unlock()
		if o.bus != nil {
			o.bus.Publish(events.TrainsetEvaluatedEvent{RunID: runID, TrainsetID: id, Composite: composite})
		}
	}

	workers := min(o.cfg.Workers, max(len(fleet), 1))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				ts := fleet[i]
				scores, composite := o.scorer.Score(ts, fctx)
				evals[i] = evaluation{
					ts:        ts,
					feasible:  o.filter.FeasibleActions(ts, fctx.Now),
					scores:    scores,
					composite: composite,
				}
				tick(ts.ID, composite)
			}
		}()
	}
	for i := range fleet {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{RunID: runID, Cause: err}
	}
	return evals, nil
}

// fail moves the run to its terminal failed state. No partial result is
// published.
func (o *Orchestrator) fail(runID string, startedAt time.Time, fleet int, err error) error {
	o.mu.Lock()
	o.state = StateFailed
	o.mu.Unlock()
	o.log.Errorf("run %s: failed: %v", runID, err)
	if o.bus != nil {
		o.bus.Publish(events.RunCompletedEvent{
			RunID:       runID,
			Status:      StateFailed.String(),
			Fleet:       fleet,
			CompletedAt: time.Now(),
		})
	}
	if serr := o.sink.RecordRun(metrics.RunRecord{
		RunID:     runID,
		Status:    StateFailed.String(),
		FleetSize: fleet,
		Duration:  time.Since(startedAt),
		Time:      time.Now(),
	}); serr != nil {
		o.log.Errorf("run %s: metrics error: %v", runID, serr)
	}
	return err
}

// record pushes the completed run into the configured metrics sink.
func (o *Orchestrator) record(res *RunResult) {
	rec := metrics.RunRecord{
		RunID:     res.RunID,
		Status:    StateComplete.String(),
		FleetSize: len(res.Results),
		Excluded:  len(res.Excluded),
		Metrics:   res.Metrics,
		Duration:  res.CompletedAt.Sub(res.StartedAt),
		Time:      res.CompletedAt,
	}
	for _, r := range res.Results {
		switch r.Action {
		case model.ActionInduct:
			rec.Inducted++
		case model.ActionStandby:
			rec.Standby++
		case model.ActionMaintenance:
			rec.Pulled++
		}
	}
	if err := o.sink.RecordRun(rec); err != nil {
		o.log.Errorf("run %s: metrics error: %v", res.RunID, err)
	}
	if dr, ok := o.sink.(metrics.DecisionRecorder); ok {
		recs := make([]metrics.DecisionRecord, 0, len(res.Results))
		for _, r := range res.Results {
			recs = append(recs, metrics.DecisionRecord{
				RunID:          res.RunID,
				TrainsetID:     r.TrainsetID,
				Action:         r.Action,
				CompositeScore: r.CompositeScore,
				Scores:         r.Scores,
				Time:           res.CompletedAt,
			})
		}
		if err := dr.RecordDecisions(recs); err != nil {
			o.log.Errorf("run %s: decision metrics error: %v", res.RunID, err)
		}
	}
}

func (o *Orchestrator) publishProgress(runID string, pct int, stage string) {
	o.progress.Publish(events.ProgressEvent{RunID: runID, Percent: pct, Stage: stage})
	if o.bus != nil {
		o.bus.Publish(events.ProgressEvent{RunID: runID, Percent: pct, Stage: stage})
	}
}

// aggregateMetrics recomputes the fleet metrics from the run's result set.
// They are derived, never independently settable.
func aggregateMetrics(results []model.OptimizationResult, at time.Time) model.FleetMetrics {
	m := model.FleetMetrics{Timestamp: at}
	if len(results) == 0 {
		return m
	}
	n := len(results)
	readiness := make([]float64, n)
	cost := make([]float64, n)
	branding := make([]float64, n)
	maintenance := make([]float64, n)
	stabling := make([]float64, n)
	overall := make([]float64, n)
	for i, r := range results {
		readiness[i] = r.Scores.ServiceReadiness
		cost[i] = r.Scores.CostEfficiency
		branding[i] = r.Scores.BrandingCompliance
		maintenance[i] = r.Scores.MaintenanceOptimization
		stabling[i] = r.Scores.StablingEfficiency
		overall[i] = float64(r.CompositeScore)
	}
	m.ServiceReadiness = stat.Mean(readiness, nil)
	m.CostEfficiency = stat.Mean(cost, nil)
	m.BrandingCompliance = stat.Mean(branding, nil)
	m.MaintenanceOptimization = stat.Mean(maintenance, nil)
	m.StablingEfficiency = stat.Mean(stabling, nil)
	m.OverallScore = stat.Mean(overall, nil)
	return m
}

// nopLogger keeps the orchestrator usable without a configured logger.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
