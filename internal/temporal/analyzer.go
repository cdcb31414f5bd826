// Package temporal computes the evolution record for one requirement:
// publication-year distribution, quality trend, maturity classification,
// and consensus strength across the requirement's evidence base.
package temporal

import (
	"math"
	"time"

	"lacuna/internal/model"
)

const (
	// minYear guards against extraction garbage; nothing before it counts
	minYear = 1900
	// recentWindowYears defines the "recent papers" window
	recentWindowYears = 3

	// Trend thresholds: slope magnitude and significance both required
	// before a trend is reported as fact
	trendSlopeThreshold = 0.1
	trendPValue         = 0.05
	minTrendYears       = 3
)

// Sample is one claim's contribution to a requirement's temporal record
type Sample struct {
	Filename  string   // Source document; papers are counted by distinct filename
	Year      *int     // Publication year, nil when extraction found none
	Composite *float64 // Composite score, nil for unscored claims
}

// Analyzer computes temporal evolution records
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an analyzer using the wall clock
func NewAnalyzer() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewAnalyzerWithClock creates an analyzer with an injected clock
func NewAnalyzerWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze computes the temporal record for one requirement's claims.
// Missing and invalid years never contribute to span or counts; sparse
// data degrades fields to "unknown" instead of raising.
func (a *Analyzer) Analyze(requirement string, samples []Sample) model.TemporalAnalysis {
	currentYear := a.now().Year()

	analysis := model.TemporalAnalysis{
		Requirement:   requirement,
		QualityTrend:  model.TrendUnknown,
		MaturityLevel: model.MaturityEmerging,
	}

	// Year hygiene: count papers by distinct filename, one year per paper
	paperYears := make(map[string]int)
	for _, s := range samples {
		if s.Year == nil {
			continue
		}
		y := *s.Year
		if y < minYear || y > currentYear {
			continue
		}
		paperYears[s.Filename] = y
	}

	yearCounts := make(map[int]int)
	earliest, latest := 0, 0
	recent := 0
	for _, y := range paperYears {
		yearCounts[y]++
		if earliest == 0 || y < earliest {
			earliest = y
		}
		if y > latest {
			latest = y
		}
		if y > currentYear-recentWindowYears {
			recent++
		}
	}

	analysis.EarliestYear = earliest
	analysis.LatestYear = latest
	analysis.TotalPapers = len(paperYears)
	analysis.RecentPapers = recent
	analysis.RecentActivity = recent >= 3
	if len(yearCounts) > 0 {
		analysis.YearCounts = yearCounts
		analysis.SpanYears = latest - earliest
	}

	analysis.MaturityLevel = classifyMaturity(analysis.SpanYears, analysis.TotalPapers, analysis.RecentPapers)
	analysis.QualityTrend, analysis.TrendSlope, analysis.TrendPValue = a.classifyTrend(samples, currentYear)
	analysis.ConsensusStrength = classifyConsensus(samples)

	return analysis
}

// classifyTrend fits composite score against year. Under 3 distinct years
// the slope estimate is unreliable and must not be reported as fact.
func (a *Analyzer) classifyTrend(samples []Sample, currentYear int) (model.QualityTrend, float64, float64) {
	var xs, ys []float64
	distinctYears := make(map[int]bool)
	for _, s := range samples {
		if s.Year == nil || s.Composite == nil {
			continue
		}
		y := *s.Year
		if y < minYear || y > currentYear {
			continue
		}
		xs = append(xs, float64(y))
		ys = append(ys, *s.Composite)
		distinctYears[y] = true
	}

	if len(distinctYears) < minTrendYears {
		return model.TrendUnknown, 0, 0
	}

	slope, p, err := Regress(xs, ys)
	if err != nil {
		return model.TrendUnknown, 0, 0
	}

	switch {
	case slope > trendSlopeThreshold && p < trendPValue:
		return model.TrendImproving, slope, p
	case slope < -trendSlopeThreshold && p < trendPValue:
		return model.TrendDeclining, slope, p
	default:
		return model.TrendStable, slope, p
	}
}

// classifyMaturity applies the deterministic decision table. Boundary
// values belong to the higher bucket, so the checks run top-down from
// mature to emerging with growing as the fallback.
func classifyMaturity(spanYears, totalPapers, recentPapers int) model.MaturityLevel {
	switch {
	case spanYears >= 5 && totalPapers >= 20 && recentPapers >= 5:
		return model.MaturityMature
	case spanYears >= 5 && totalPapers >= 10:
		return model.MaturityEstablished
	case spanYears < 2 && totalPapers < 5:
		return model.MaturityEmerging
	default:
		return model.MaturityGrowing
	}
}

// classifyConsensus buckets the population std-dev of composite scores
func classifyConsensus(samples []Sample) model.ConsensusStrength {
	var scores []float64
	for _, s := range samples {
		if s.Composite != nil {
			scores = append(scores, *s.Composite)
		}
	}
	if len(scores) == 0 {
		return model.StrengthUnknown
	}

	mean := 0.0
	for _, v := range scores {
		mean += v
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, v := range scores {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(scores)))

	switch {
	case stdDev < 0.5:
		return model.StrengthStrong
	case stdDev < 1.0:
		return model.StrengthModerate
	case stdDev < 1.5:
		return model.StrengthWeak
	default:
		return model.StrengthNone
	}
}
