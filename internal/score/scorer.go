// Package score implements the quality scorer: it validates a raw
// six-dimension judgment, derives the weighted composite score, and applies
// the approve/reject policy.
package score

import (
	"fmt"
	"math"

	"lacuna/internal/model"
)

// Policy thresholds. The approval guard is conjunctive because a high
// composite can mask a single fatally weak dimension: averaging alone
// would approve rigorous-but-irrelevant evidence.
const (
	ApprovalThreshold  = 3.0
	MinStrength        = 3
	MinRelevance       = 3
	MaxDirectnessScale = 3
)

// Composite weights over the six dimensions. Directness (1-3) is normalized
// onto the 5-point scale before weighting; is_recent contributes its weight
// as a flat 0/1 bonus.
const (
	weightStrength        = 0.30
	weightRigor           = 0.25
	weightRelevance       = 0.25
	weightDirectness      = 0.10
	weightRecency         = 0.05
	weightReproducibility = 0.05
)

// ValidationError reports a judgment that failed schema or range checks.
// It always surfaces to the caller; the scorer never substitutes defaults.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid judgment: %s %s", e.Field, e.Reason)
}

// Scorer validates judgments and applies the scoring policy
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score validates the judgment, computes the composite, and decides the
// verdict. Persistence is the caller's responsibility.
func (s *Scorer) Score(j model.Judgment) (model.EvidenceQuality, model.ClaimStatus, error) {
	if err := Validate(j); err != nil {
		return model.EvidenceQuality{}, "", err
	}

	quality := model.EvidenceQuality{
		Strength:        j.Strength,
		Rigor:           j.Rigor,
		Relevance:       j.Relevance,
		Directness:      j.Directness,
		IsRecent:        j.IsRecent,
		Reproducibility: j.Reproducibility,
		CompositeScore:  Composite(j),
	}

	return quality, Verdict(quality), nil
}

// Validate checks every dimension against its declared range
func Validate(j model.Judgment) error {
	checks := []struct {
		field    string
		value    int
		min, max int
	}{
		{"strength", j.Strength, 1, 5},
		{"rigor", j.Rigor, 1, 5},
		{"relevance", j.Relevance, 1, 5},
		{"directness", j.Directness, 1, MaxDirectnessScale},
		{"reproducibility", j.Reproducibility, 1, 5},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return &ValidationError{
				Field:  c.field,
				Reason: fmt.Sprintf("must be in [%d, %d], got %d", c.min, c.max, c.value),
			}
		}
	}
	return nil
}

// Composite computes the weighted scalar for a validated judgment,
// rounded to 2 decimals. Deterministic for fixed inputs.
func Composite(j model.Judgment) float64 {
	recent := 0.0
	if j.IsRecent {
		recent = 1.0
	}
	raw := weightStrength*float64(j.Strength) +
		weightRigor*float64(j.Rigor) +
		weightRelevance*float64(j.Relevance) +
		weightDirectness*(float64(j.Directness)/MaxDirectnessScale)*5 +
		weightRecency*recent +
		weightReproducibility*float64(j.Reproducibility)
	return round2(raw)
}

// Verdict applies the decision policy to a scored quality vector
func Verdict(q model.EvidenceQuality) model.ClaimStatus {
	if q.CompositeScore >= ApprovalThreshold && q.Strength >= MinStrength && q.Relevance >= MinRelevance {
		return model.StatusApproved
	}
	return model.StatusRejected
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
