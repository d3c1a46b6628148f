// Package app wires the configuration into a running planning service: the
// optimization engine, its metrics sinks, the planning-cycle scheduler, and
// the optional dashboard publisher.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kochimetro/inductd/config"
	"github.com/kochimetro/inductd/core/induction"
	coremetrics "github.com/kochimetro/inductd/core/metrics"
	"github.com/kochimetro/inductd/core/scheduler"
	"github.com/kochimetro/inductd/infra/logger"
	"github.com/kochimetro/inductd/infra/metrics"
	"github.com/kochimetro/inductd/infra/mqtt"
	"github.com/kochimetro/inductd/infra/snapshot"
	"github.com/kochimetro/inductd/internal/eventbus"
)

// Service runs one optimization pass per planning cycle.
type Service struct {
	Engine *induction.Orchestrator

	cfg       *config.Config
	sched     scheduler.Scheduler
	bus       *eventbus.Bus
	publisher *mqtt.Publisher
	log       logger.Logger
	promPort  string
}

// New builds a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	var promPort string
	for _, sc := range cfg.Metrics.Sinks {
		sink, err := coremetrics.NewMetricsSink(sc)
		if err != nil {
			return nil, fmt.Errorf("metrics sink %s: %w", sc.Type, err)
		}
		if sc.Type == "prometheus" {
			promPort = cfg.Metrics.PrometheusPort
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	engine, err := induction.NewOrchestrator(cfg.Engine, logger.New("engine"), sink, bus)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	svc := &Service{
		Engine:   engine,
		cfg:      cfg,
		sched:    scheduler.Scheduler{Config: cfg.Scheduler},
		bus:      bus,
		log:      logg,
		promPort: promPort,
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// Run blocks until the context is cancelled, executing one optimization
// pass per planning cycle.
func (s *Service) Run(ctx context.Context) error {
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.publisher != nil {
		progress := s.Engine.Progress()
		defer s.Engine.Unfollow(progress)
		go func() {
			for ev := range progress {
				if err := s.publisher.PublishProgress(ev); err != nil {
					s.log.Errorf("publish progress: %v", err)
				}
			}
		}()
	}

	err := s.sched.Run(ctx, func(at time.Time) {
		s.log.Infof("planning cycle triggered at %s", at.Format(time.RFC3339))
		if _, rerr := s.Optimize(ctx); rerr != nil {
			s.log.Errorf("planning cycle failed: %v", rerr)
		}
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Optimize executes one pass immediately using the configured snapshot.
func (s *Service) Optimize(ctx context.Context) (*induction.RunResult, error) {
	fleet, err := snapshot.Load(s.cfg.Fleet.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	res, err := s.Engine.Run(ctx, fleet)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		if perr := s.publisher.PublishRun(res); perr != nil {
			s.log.Errorf("publish run: %v", perr)
		}
	}
	return res, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Engine.Close()
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Close()
	}
	return nil
}
