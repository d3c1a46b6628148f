// Package scenarios runs YAML-defined planning scenarios against the
// engine, for QA regression of decision behaviour. Certificate expiries are
// given as hour offsets from the run instant so fixtures stay valid
// forever.
package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kochimetro/inductd/core/induction"
	"github.com/kochimetro/inductd/core/model"
)

// TrainsetDef describes one trainset in scenario form.
type TrainsetDef struct {
	ID        string `yaml:"id"`
	CertHours struct {
		RollingStock float64 `yaml:"rolling_stock"`
		Signalling   float64 `yaml:"signalling"`
		Telecom      float64 `yaml:"telecom"`
	} `yaml:"cert_hours"`
	OpenJobCards      int     `yaml:"open_job_cards"`
	TotalJobCards     int     `yaml:"total_job_cards"`
	BrandingPriority  string  `yaml:"branding_priority"`
	ExposureAchieved  float64 `yaml:"exposure_achieved"`
	ExposureTarget    float64 `yaml:"exposure_target"`
	MileageCurrent    float64 `yaml:"mileage_current"`
	MileageTarget     float64 `yaml:"mileage_target"`
	CleaningScheduled bool    `yaml:"cleaning_scheduled"`
	CleaningPriority  int     `yaml:"cleaning_priority"`
	CurrentBay        string  `yaml:"current_bay"`
	OptimalBay        string  `yaml:"optimal_bay"`
	ShuntingMinutes   float64 `yaml:"shunting_minutes"`
}

// ToModel materialises the definition relative to the run instant.
func (d TrainsetDef) ToModel(now time.Time) model.Trainset {
	hours := func(h float64) model.Certificate {
		return model.Certificate{ExpiresAt: now.Add(time.Duration(h * float64(time.Hour)))}
	}
	cleaningPriority := d.CleaningPriority
	if cleaningPriority == 0 {
		cleaningPriority = 3
	}
	currentBay := d.CurrentBay
	if currentBay == "" {
		currentBay = "SBL1"
	}
	optimalBay := d.OptimalBay
	if optimalBay == "" {
		optimalBay = currentBay
	}
	return model.Trainset{
		ID: d.ID,
		Fitness: model.Fitness{
			RollingStock: hours(d.CertHours.RollingStock),
			Signalling:   hours(d.CertHours.Signalling),
			Telecom:      hours(d.CertHours.Telecom),
		},
		JobCards: model.JobCards{Open: d.OpenJobCards, Total: d.TotalJobCards},
		Branding: model.Branding{
			Priority:         model.ParseBrandingPriority(d.BrandingPriority),
			ExposureAchieved: d.ExposureAchieved,
			ExposureTarget:   d.ExposureTarget,
		},
		Mileage:  model.Mileage{Current: d.MileageCurrent, Target: d.MileageTarget},
		Cleaning: model.Cleaning{Scheduled: d.CleaningScheduled, Priority: cleaningPriority},
		Stabling: model.Stabling{
			CurrentBay:      currentBay,
			OptimalBay:      optimalBay,
			ShuntingMinutes: d.ShuntingMinutes,
		},
	}
}

// Expected captures the assertions of a scenario.
type Expected struct {
	Induct      int               `yaml:"induct"`
	Standby     int               `yaml:"standby"`
	Maintenance int               `yaml:"maintenance"`
	Actions     map[string]string `yaml:"actions,omitempty"`
	Excluded    []string          `yaml:"excluded,omitempty"`
}

// Scenario is one YAML fixture.
type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Config      induction.Config `yaml:"config"`
	Trainsets   []TrainsetDef    `yaml:"trainsets"`
	Expected    Expected         `yaml:"expected"`
}

// Load reads a scenario fixture.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
