// Package snapshot loads fleet snapshot files supplied by the depot data
// feeds. One file describes the complete fleet state at planning time.
package snapshot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kochimetro/inductd/core/model"
)

// CertificateDef holds one clearance expiry as RFC 3339 text.
type CertificateDef struct {
	ExpiresAt string `yaml:"expires_at"`
}

func (c CertificateDef) toModel() (model.Certificate, error) {
	if c.ExpiresAt == "" {
		return model.Certificate{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.ExpiresAt)
	if err != nil {
		return model.Certificate{}, fmt.Errorf("parse expiry %q: %w", c.ExpiresAt, err)
	}
	return model.Certificate{ExpiresAt: t}, nil
}

// TrainsetDef mirrors one trainset entry of a snapshot file.
type TrainsetDef struct {
	ID      string `yaml:"id"`
	Fitness struct {
		RollingStock CertificateDef `yaml:"rolling_stock"`
		Signalling   CertificateDef `yaml:"signalling"`
		Telecom      CertificateDef `yaml:"telecom"`
	} `yaml:"fitness"`
	JobCards struct {
		Open  int `yaml:"open"`
		Total int `yaml:"total"`
	} `yaml:"job_cards"`
	Branding struct {
		Priority         string  `yaml:"priority"`
		ExposureAchieved float64 `yaml:"exposure_achieved"`
		ExposureTarget   float64 `yaml:"exposure_target"`
	} `yaml:"branding"`
	Mileage struct {
		Current float64 `yaml:"current"`
		Target  float64 `yaml:"target"`
	} `yaml:"mileage"`
	Cleaning struct {
		Scheduled bool `yaml:"scheduled"`
		Priority  int  `yaml:"priority"`
	} `yaml:"cleaning"`
	Stabling struct {
		CurrentBay      string  `yaml:"current_bay"`
		OptimalBay      string  `yaml:"optimal_bay"`
		ShuntingMinutes float64 `yaml:"shunting_minutes"`
	} `yaml:"stabling"`
}

// ToModel converts the definition into the engine's trainset type. Range
// validation is the engine's job; only parse errors are reported here.
func (d TrainsetDef) ToModel() (model.Trainset, error) {
	rs, err := d.Fitness.RollingStock.toModel()
	if err != nil {
		return model.Trainset{}, fmt.Errorf("trainset %s: rolling-stock: %w", d.ID, err)
	}
	sig, err := d.Fitness.Signalling.toModel()
	if err != nil {
		return model.Trainset{}, fmt.Errorf("trainset %s: signalling: %w", d.ID, err)
	}
	tel, err := d.Fitness.Telecom.toModel()
	if err != nil {
		return model.Trainset{}, fmt.Errorf("trainset %s: telecom: %w", d.ID, err)
	}
	return model.Trainset{
		ID:      d.ID,
		Fitness: model.Fitness{RollingStock: rs, Signalling: sig, Telecom: tel},
		JobCards: model.JobCards{
			Open:  d.JobCards.Open,
			Total: d.JobCards.Total,
		},
		Branding: model.Branding{
			Priority:         model.ParseBrandingPriority(d.Branding.Priority),
			ExposureAchieved: d.Branding.ExposureAchieved,
			ExposureTarget:   d.Branding.ExposureTarget,
		},
		Mileage: model.Mileage{
			Current: d.Mileage.Current,
			Target:  d.Mileage.Target,
		},
		Cleaning: model.Cleaning{
			Scheduled: d.Cleaning.Scheduled,
			Priority:  d.Cleaning.Priority,
		},
		Stabling: model.Stabling{
			CurrentBay:      d.Stabling.CurrentBay,
			OptimalBay:      d.Stabling.OptimalBay,
			ShuntingMinutes: d.Stabling.ShuntingMinutes,
		},
	}, nil
}

// Snapshot is the root of a fleet snapshot file.
type Snapshot struct {
	Fleet []TrainsetDef `yaml:"fleet"`
}

// Load reads a YAML fleet snapshot file into engine trainsets.
func Load(path string) ([]model.Trainset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML snapshot document.
func Parse(data []byte) ([]model.Trainset, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	fleet := make([]model.Trainset, 0, len(snap.Fleet))
	for _, def := range snap.Fleet {
		ts, err := def.ToModel()
		if err != nil {
			return nil, err
		}
		fleet = append(fleet, ts)
	}
	return fleet, nil
}
