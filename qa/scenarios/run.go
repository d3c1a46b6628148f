package scenarios

import (
	"context"
	"time"

	"github.com/kochimetro/inductd/core/induction"
	"github.com/kochimetro/inductd/core/model"
)

// Run executes the scenario against a fresh engine and returns the result.
func Run(sc *Scenario) (*induction.RunResult, error) {
	now := time.Now()
	fleet := make([]model.Trainset, 0, len(sc.Trainsets))
	for _, def := range sc.Trainsets {
		fleet = append(fleet, def.ToModel(now))
	}
	engine, err := induction.NewOrchestrator(sc.Config, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	defer engine.Close()
	return engine.Run(context.Background(), fleet)
}
