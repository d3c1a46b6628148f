package induction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kochimetro/inductd/core/metrics"
	"github.com/kochimetro/inductd/core/model"
)

// captureSink records everything pushed at it, for assertions.
type captureSink struct {
	mu        sync.Mutex
	runs      []metrics.RunRecord
	decisions []metrics.DecisionRecord
}

func (s *captureSink) RecordRun(rec metrics.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, rec)
	return nil
}

func (s *captureSink) RecordDecisions(recs []metrics.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, recs...)
	return nil
}

func testFleet(now time.Time) []model.Trainset {
	healthy := fitTrainset("TS-01", now)

	backlog := fitTrainset("TS-02", now)
	backlog.JobCards = model.JobCards{Open: 2, Total: 6}
	backlog.Cleaning = model.Cleaning{Scheduled: false, Priority: 2}

	pulled := fitTrainset("TS-03", now)
	pulled.Fitness.Signalling = model.Certificate{ExpiresAt: now.Add(-time.Hour)}

	return []model.Trainset{healthy, backlog, pulled}
}

func newTestOrchestrator(t *testing.T, cfg Config, sink metrics.MetricsSink) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(cfg, nil, sink, nil)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	t.Cleanup(o.Close)
	return o
}

func TestRun_ExactlyOneResultPerTrainset(t *testing.T) {
	fleet := testFleet(time.Now())
	o := newTestOrchestrator(t, Config{}, nil)

	res, err := o.Run(context.Background(), fleet)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Results) != len(fleet) {
		t.Fatalf("got %d results for %d trainsets", len(res.Results), len(fleet))
	}
	seen := map[string]int{}
	for _, r := range res.Results {
		seen[r.TrainsetID]++
	}
	for _, ts := range fleet {
		if seen[ts.ID] != 1 {
			t.Errorf("trainset %s appears %d times", ts.ID, seen[ts.ID])
		}
	}
	if o.State() != StateComplete {
		t.Errorf("state = %s, expected complete", o.State())
	}
	if o.LastResult() != res {
		t.Error("LastResult must expose the published run")
	}
}

func TestRun_RankedByCompositeThenID(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)

	res, err := o.Run(context.Background(), testFleet(time.Now()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(res.Results); i++ {
		prev, cur := res.Results[i-1], res.Results[i]
		if cur.CompositeScore > prev.CompositeScore {
			t.Fatalf("rank %d: %d after %d", i, cur.CompositeScore, prev.CompositeScore)
		}
		if cur.CompositeScore == prev.CompositeScore && cur.TrainsetID < prev.TrainsetID {
			t.Fatalf("rank %d: tie not broken by ascending ID", i)
		}
	}
}

func TestRun_DeterministicOnIdenticalSnapshot(t *testing.T) {
	fleet := testFleet(time.Now().Add(time.Hour))
	o := newTestOrchestrator(t, Config{Workers: 8}, nil)

	first, err := o.Run(context.Background(), fleet)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := o.Run(context.Background(), fleet)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if len(again.Results) != len(first.Results) {
			t.Fatalf("run %d: result count changed", i)
		}
		for j := range first.Results {
			a, b := first.Results[j], again.Results[j]
			if a.TrainsetID != b.TrainsetID || a.Action != b.Action || a.CompositeScore != b.CompositeScore {
				t.Fatalf("run %d diverged at rank %d: %+v vs %+v", i, j, a, b)
			}
		}
	}
}

func TestRun_FleetMetricsAreDerived(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)

	res, err := o.Run(context.Background(), testFleet(time.Now()))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var sum float64
	for _, r := range res.Results {
		sum += float64(r.CompositeScore)
	}
	want := sum / float64(len(res.Results))
	if diff := res.Metrics.OverallScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("overall score = %.4f, expected mean composite %.4f", res.Metrics.OverallScore, want)
	}
}

func TestRun_MalformedTrainsetExcluded(t *testing.T) {
	now := time.Now()
	bad := fitTrainset("TS-99", now)
	bad.JobCards = model.JobCards{Open: 8, Total: 5}
	fleet := append(testFleet(now), bad)

	sink := &captureSink{}
	o := newTestOrchestrator(t, Config{}, sink)

	res, err := o.Run(context.Background(), fleet)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Excluded) != 1 || res.Excluded[0].TrainsetID != "TS-99" {
		t.Fatalf("excluded = %+v, expected TS-99 only", res.Excluded)
	}
	var integrity *model.DataIntegrityError
	if !errors.As(res.Excluded[0].Err, &integrity) {
		t.Errorf("exclusion error = %T, expected DataIntegrityError", res.Excluded[0].Err)
	}
	for _, r := range res.Results {
		if r.TrainsetID == "TS-99" {
			t.Error("excluded trainset must not receive a result")
		}
	}
	if len(sink.runs) != 1 || sink.runs[0].Excluded != 1 {
		t.Errorf("sink runs = %+v, expected one record with one exclusion", sink.runs)
	}
	if len(sink.decisions) != len(res.Results) {
		t.Errorf("sink got %d decisions, expected %d", len(sink.decisions), len(res.Results))
	}
}

func TestRun_DuplicateIDExcluded(t *testing.T) {
	now := time.Now()
	fleet := []model.Trainset{fitTrainset("TS-01", now), fitTrainset("TS-01", now)}
	o := newTestOrchestrator(t, Config{}, nil)

	res, err := o.Run(context.Background(), fleet)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Results) != 1 || len(res.Excluded) != 1 {
		t.Fatalf("results %d, excluded %d; duplicate must yield exactly one result",
			len(res.Results), len(res.Excluded))
	}
}

func TestRun_StrictModeFailsOnIntegrityError(t *testing.T) {
	now := time.Now()
	bad := fitTrainset("TS-99", now)
	bad.Cleaning.Priority = 9
	fleet := append(testFleet(now), bad)

	sink := &captureSink{}
	o := newTestOrchestrator(t, Config{Strict: true}, sink)

	res, err := o.Run(context.Background(), fleet)
	if err == nil {
		t.Fatal("strict run must fail on the first integrity error")
	}
	if res != nil {
		t.Error("failed run must publish no partial result")
	}
	var integrity *model.DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Errorf("err = %T, expected DataIntegrityError", err)
	}
	if o.State() != StateFailed {
		t.Errorf("state = %s, expected failed", o.State())
	}
	if o.LastResult() != nil {
		t.Error("no result may be visible after a failed run")
	}
	if len(sink.runs) != 1 || sink.runs[0].Status != "failed" {
		t.Errorf("sink runs = %+v, expected one failed record", sink.runs)
	}
}

func TestRun_CancellationYieldsNoPartialResult(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := o.Run(ctx, testFleet(time.Now()))
	if err == nil {
		t.Fatal("cancelled run must fail")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, expected ErrCancelled", err)
	}
	var cerr *CancelledError
	if !errors.As(err, &cerr) {
		t.Errorf("err = %T, expected CancelledError", err)
	}
	if res != nil {
		t.Error("cancelled run must publish no partial result")
	}
	if o.State() != StateFailed {
		t.Errorf("state = %s, expected failed", o.State())
	}
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	o.mu.Lock()
	o.state = StateRunning
	o.mu.Unlock()

	if _, err := o.Run(context.Background(), nil); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, expected ErrRunInProgress", err)
	}
}

func TestRun_ProgressMonotonicAndTerminal(t *testing.T) {
	o := newTestOrchestrator(t, Config{}, nil)
	sub := o.Progress()
	defer o.Unfollow(sub)

	if _, err := o.Run(context.Background(), testFleet(time.Now())); err != nil {
		t.Fatalf("run: %v", err)
	}

	last := -1
	final := -1
	for {
		select {
		case ev := <-sub:
			if ev.Percent < last {
				t.Fatalf("progress regressed from %d to %d (%s)", last, ev.Percent, ev.Stage)
			}
			if ev.Percent < 0 || ev.Percent > 100 {
				t.Fatalf("progress %d out of range", ev.Percent)
			}
			if ev.Stage == "" {
				t.Fatal("progress event missing stage label")
			}
			last = ev.Percent
			final = ev.Percent
		default:
			if final != 100 {
				t.Fatalf("final progress = %d, expected 100", final)
			}
			return
		}
	}
}

func TestRun_BayContentionReflectedInResults(t *testing.T) {
	now := time.Now()
	winner := fitTrainset("TS-01", now)
	winner.Stabling = model.Stabling{CurrentBay: "SBL4", OptimalBay: "SBL1", ShuntingMinutes: 5}
	loser := fitTrainset("TS-02", now)
	loser.Stabling = model.Stabling{CurrentBay: "SBL5", OptimalBay: "SBL1", ShuntingMinutes: 20}

	o := newTestOrchestrator(t, Config{}, nil)
	res, err := o.Run(context.Background(), []model.Trainset{winner, loser})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	byID := map[string]model.OptimizationResult{}
	for _, r := range res.Results {
		byID[r.TrainsetID] = r
	}
	// The loser retains its current bay, so its stabling score recovers to
	// the ceiling while the winner still pays for the planned move.
	if got := byID["TS-02"].Scores.StablingEfficiency; got != 100 {
		t.Errorf("loser stabling score = %.2f, expected 100 after retaining its bay", got)
	}
	if got := byID["TS-01"].Scores.StablingEfficiency; got >= 100 {
		t.Errorf("winner stabling score = %.2f, expected a shunting deduction", got)
	}
	if !contains(byID["TS-02"].Constraints, "optimal bay SBL1 ceded to TS-01; retaining bay SBL5") {
		t.Errorf("loser constraints = %v, expected bay cession note", byID["TS-02"].Constraints)
	}
}
