package model

import (
	"time"
)

// Trainset represents one physical metro unit as supplied in a planning
// snapshot. Snapshots are read-only for the duration of a run; the engine
// never mutates them.
type Trainset struct {
	ID       string
	Fitness  Fitness
	JobCards JobCards
	Branding Branding
	Mileage  Mileage
	Cleaning Cleaning
	Stabling Stabling
}

// Fitness groups the three mandatory clearance certificates. A certificate
// is valid only while unexpired; all three must be valid for revenue
// service eligibility.
type Fitness struct {
	RollingStock Certificate
	Signalling   Certificate
	Telecom      Certificate
}

// Certificate is a pass/fail clearance with an expiry instant.
type Certificate struct {
	ExpiresAt time.Time
}

// ValidAt reports whether the certificate is still valid at the given instant.
func (c Certificate) ValidAt(now time.Time) bool {
	return c.ExpiresAt.After(now)
}

// ExpiringWithin reports whether the certificate is valid now but expires
// before now+window.
func (c Certificate) ExpiringWithin(now time.Time, window time.Duration) bool {
	return c.ValidAt(now) && !c.ExpiresAt.After(now.Add(window))
}

// certificateNames follows the fixed rolling-stock, signalling, telecom order.
var certificateNames = [3]string{"rolling-stock", "signalling", "telecom"}

func (f Fitness) certificates() [3]Certificate {
	return [3]Certificate{f.RollingStock, f.Signalling, f.Telecom}
}

// AllValidAt reports whether every certificate is valid at the given instant.
func (f Fitness) AllValidAt(now time.Time) bool {
	for _, c := range f.certificates() {
		if !c.ValidAt(now) {
			return false
		}
	}
	return true
}

// ExpiredAt returns the names of the certificates already expired at now,
// in rolling-stock, signalling, telecom order.
func (f Fitness) ExpiredAt(now time.Time) []string {
	var out []string
	for i, c := range f.certificates() {
		if !c.ValidAt(now) {
			out = append(out, certificateNames[i])
		}
	}
	return out
}

// ExpiringWithin returns the names of the certificates that are valid at now
// but expire within the window.
func (f Fitness) ExpiringWithin(now time.Time, window time.Duration) []string {
	var out []string
	for i, c := range f.certificates() {
		if c.ExpiringWithin(now, window) {
			out = append(out, certificateNames[i])
		}
	}
	return out
}

// JobCards summarises the maintenance work-order backlog for a trainset.
type JobCards struct {
	Open  int
	Total int
}

// ClosedRatio returns the fraction of job cards already resolved. A trainset
// with no job cards at all counts as a fully clean backlog.
func (j JobCards) ClosedRatio() float64 {
	if j.Total == 0 {
		return 1
	}
	return float64(j.Total-j.Open) / float64(j.Total)
}

// BrandingPriority orders advertising campaigns; higher values bind harder.
type BrandingPriority int

const (
	BrandingLow BrandingPriority = iota
	BrandingMedium
	BrandingHigh
)

func (p BrandingPriority) String() string {
	switch p {
	case BrandingHigh:
		return "high"
	case BrandingMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParseBrandingPriority maps a snapshot string to a priority. Unknown values
// fall back to low so a sloppy feed degrades instead of blocking a run.
func ParseBrandingPriority(s string) BrandingPriority {
	switch s {
	case "high":
		return BrandingHigh
	case "medium":
		return BrandingMedium
	default:
		return BrandingLow
	}
}

// Branding captures the exposure contract for the wrap currently applied to
// the trainset.
type Branding struct {
	Priority         BrandingPriority
	ExposureAchieved float64 // service hours delivered so far
	ExposureTarget   float64 // contracted service hours
}

// Deficit returns the exposure hours still owed, never negative.
func (b Branding) Deficit() float64 {
	d := b.ExposureTarget - b.ExposureAchieved
	if d < 0 {
		return 0
	}
	return d
}

// Mileage tracks cumulative wear against the fleet balancing target.
type Mileage struct {
	Current float64 // km
	Target  float64 // km
}

// Variance is the signed deviation from the balancing target.
func (m Mileage) Variance() float64 {
	return m.Current - m.Target
}

// Cleaning describes the deep-cleaning state. Priority runs 1..5 with lower
// values more urgent.
type Cleaning struct {
	Scheduled bool
	Priority  int
}

// Stabling describes the current parking position and the cost of moving to
// the optimal one.
type Stabling struct {
	CurrentBay      string
	OptimalBay      string
	ShuntingMinutes float64
}

// AtOptimal reports whether the trainset is already parked where it should be.
func (s Stabling) AtOptimal() bool {
	return s.CurrentBay == s.OptimalBay
}

// Validate checks that the snapshot values are inside their documented
// ranges. A violation is reported as a DataIntegrityError carrying the
// trainset ID.
func (t Trainset) Validate() error {
	if t.ID == "" {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "trainset_id", Reason: "must not be empty"}
	}
	if t.JobCards.Open < 0 || t.JobCards.Total < 0 {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "job_cards", Reason: "counts must be non-negative"}
	}
	if t.JobCards.Open > t.JobCards.Total {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "job_cards",
			Reason: "open count exceeds total count"}
	}
	if t.Branding.ExposureAchieved < 0 || t.Branding.ExposureTarget < 0 {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "branding", Reason: "exposure must be non-negative"}
	}
	if t.Mileage.Current < 0 || t.Mileage.Target < 0 {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "mileage", Reason: "must be non-negative"}
	}
	if t.Cleaning.Priority < 1 || t.Cleaning.Priority > 5 {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "cleaning.priority", Reason: "must be within 1..5"}
	}
	if t.Stabling.CurrentBay == "" || t.Stabling.OptimalBay == "" {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "stabling", Reason: "bay identifiers are required"}
	}
	if t.Stabling.ShuntingMinutes < 0 {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "stabling.shunting_minutes", Reason: "must be non-negative"}
	}
	if t.Fitness.RollingStock.ExpiresAt.IsZero() ||
		t.Fitness.Signalling.ExpiresAt.IsZero() ||
		t.Fitness.Telecom.ExpiresAt.IsZero() {
		return &DataIntegrityError{TrainsetID: t.ID, Field: "fitness", Reason: "certificate expiry missing"}
	}
	return nil
}
