package induction

import (
	"time"

	"github.com/kochimetro/inductd/core/model"
)

// fitTrainset returns a fully serviceable trainset: valid certificates,
// clean backlog, branding on target, balanced mileage, optimal bay.
func fitTrainset(id string, now time.Time) model.Trainset {
	cert := model.Certificate{ExpiresAt: now.Add(48 * time.Hour)}
	return model.Trainset{
		ID:      id,
		Fitness: model.Fitness{RollingStock: cert, Signalling: cert, Telecom: cert},
		JobCards: model.JobCards{
			Open:  0,
			Total: 4,
		},
		Branding: model.Branding{
			Priority:         model.BrandingMedium,
			ExposureAchieved: 100,
			ExposureTarget:   100,
		},
		Mileage:  model.Mileage{Current: 42000, Target: 42000},
		Cleaning: model.Cleaning{Scheduled: true, Priority: 3},
		Stabling: model.Stabling{CurrentBay: "SBL1", OptimalBay: "SBL1", ShuntingMinutes: 0},
	}
}
