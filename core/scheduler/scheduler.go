// Package scheduler triggers one optimization run per planning cycle at a
// fixed wall-clock time, typically after revenue service ends and before
// the night stabling window closes.
package scheduler

import (
	"context"
	"time"
)

// defaultHour is the 21:00 depot planning default.
const defaultHour = 21

// Config defines when the nightly planning cycle fires.
type Config struct {
	// Hour and Minute are the local wall-clock trigger time. An unset hour
	// means 21; an explicit 0 schedules the cycle at midnight.
	Hour   *int `json:"hour" yaml:"hour"`
	Minute int  `json:"minute" yaml:"minute"`
}

// SetDefaults applies the 21:00 depot planning default.
func (c *Config) SetDefaults() {
	if c.Hour == nil {
		h := defaultHour
		c.Hour = &h
	}
}

func (c Config) hour() int {
	if c.Hour == nil {
		return defaultHour
	}
	return *c.Hour
}

// Validate checks the trigger time is a real wall-clock instant.
func (c Config) Validate() error {
	if h := c.hour(); h < 0 || h > 23 {
		return errHour
	}
	if c.Minute < 0 || c.Minute > 59 {
		return errMinute
	}
	return nil
}

// Scheduler computes planning-cycle instants and drives a run callback.
type Scheduler struct {
	Config Config
}

// Next returns the first planning instant strictly after the given time.
func (s Scheduler) Next(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(),
		s.Config.hour(), s.Config.Minute, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run invokes fn once per planning cycle until the context is cancelled.
// Each cycle's trigger time is computed fresh so a long run never skews the
// next one.
func (s Scheduler) Run(ctx context.Context, fn func(at time.Time)) error {
	for {
		next := s.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case at := <-timer.C:
			fn(at)
		}
	}
}
