package metrics

import (
	"context"
	"math"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kochimetro/inductd/core/metrics"
	"github.com/kochimetro/inductd/infra/logger"
)

// InfluxSink writes run outcomes to an InfluxDB instance using the official
// client, so the depot dashboard can chart fleet scores over time.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails, so a dashboard outage never blocks
// planning.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the fleet-level metrics of one run.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("induction_run").
		AddTag("run_id", rec.RunID).
		AddTag("status", rec.Status).
		AddField("fleet_size", rec.FleetSize).
		AddField("inducted", rec.Inducted).
		AddField("standby", rec.Standby).
		AddField("maintenance", rec.Pulled).
		AddField("excluded", rec.Excluded).
		AddField("service_readiness", round3(rec.Metrics.ServiceReadiness)).
		AddField("cost_efficiency", round3(rec.Metrics.CostEfficiency)).
		AddField("branding_compliance", round3(rec.Metrics.BrandingCompliance)).
		AddField("maintenance_optimization", round3(rec.Metrics.MaintenanceOptimization)).
		AddField("stabling_efficiency", round3(rec.Metrics.StablingEfficiency)).
		AddField("overall_score", round3(rec.Metrics.OverallScore)).
		AddField("duration_seconds", rec.Duration.Seconds()).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDecisions writes one point per trainset decision.
func (s *InfluxSink) RecordDecisions(recs []coremetrics.DecisionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		p := write.NewPointWithMeasurement("induction_decision").
			AddTag("run_id", r.RunID).
			AddTag("trainset_id", r.TrainsetID).
			AddTag("action", r.Action.String()).
			AddField("composite_score", r.CompositeScore).
			AddField("service_readiness", round3(r.Scores.ServiceReadiness)).
			AddField("cost_efficiency", round3(r.Scores.CostEfficiency)).
			AddField("branding_compliance", round3(r.Scores.BrandingCompliance)).
			AddField("maintenance_optimization", round3(r.Scores.MaintenanceOptimization)).
			AddField("stabling_efficiency", round3(r.Scores.StablingEfficiency)).
			SetTime(r.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
