package temporal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lacuna/internal/model"
)

func fixedClock() time.Time {
	return time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzerWithClock(fixedClock)
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func sampleAt(filename string, year int, composite float64) Sample {
	return Sample{Filename: filename, Year: intp(year), Composite: floatp(composite)}
}

func TestAnalyze_YearHygiene(t *testing.T) {
	a := newTestAnalyzer()

	samples := []Sample{
		sampleAt("good1.pdf", 2020, 3.5),
		sampleAt("good2.pdf", 2022, 3.8),
		{Filename: "noyear.pdf", Composite: floatp(3.0)}, // missing year
		sampleAt("ancient.pdf", 1850, 4.0),               // before 1900
		sampleAt("future.pdf", 2099, 4.0),                // after current year
	}

	analysis := a.Analyze("REQ-1", samples)

	assert.Equal(t, 2, analysis.TotalPapers)
	assert.Equal(t, 2020, analysis.EarliestYear)
	assert.Equal(t, 2022, analysis.LatestYear)
	assert.Equal(t, 2, analysis.SpanYears)
	assert.Equal(t, map[int]int{2020: 1, 2022: 1}, analysis.YearCounts)
}

func TestAnalyze_MaturityBoundary(t *testing.T) {
	// span = 5, papers = 10, recent = 0 must classify as established,
	// not growing: boundaries belong to the higher bucket
	assert.Equal(t, model.MaturityEstablished, classifyMaturity(5, 10, 0))
}

func TestClassifyMaturity_DecisionTable(t *testing.T) {
	cases := []struct {
		span, papers, recent int
		want                 model.MaturityLevel
	}{
		{0, 0, 0, model.MaturityEmerging},
		{1, 4, 0, model.MaturityEmerging},
		{1, 5, 0, model.MaturityGrowing},  // enough papers to leave emerging
		{2, 3, 0, model.MaturityGrowing},  // enough span to leave emerging
		{4, 9, 0, model.MaturityGrowing},
		{5, 10, 0, model.MaturityEstablished},
		{10, 19, 4, model.MaturityEstablished},
		{5, 20, 5, model.MaturityMature},
		{10, 25, 8, model.MaturityMature},
		{10, 25, 4, model.MaturityEstablished}, // too little recent activity for mature
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("span=%d_papers=%d_recent=%d", tc.span, tc.papers, tc.recent), func(t *testing.T) {
			assert.Equal(t, tc.want, classifyMaturity(tc.span, tc.papers, tc.recent))
		})
	}
}

func TestAnalyze_TrendImproving(t *testing.T) {
	a := newTestAnalyzer()

	var samples []Sample
	for i, year := range []int{2018, 2019, 2020, 2021, 2022, 2023} {
		samples = append(samples, sampleAt(fmt.Sprintf("p%d.pdf", i), year, 2.0+0.4*float64(i)))
	}

	analysis := a.Analyze("REQ-1", samples)

	assert.Equal(t, model.TrendImproving, analysis.QualityTrend)
	assert.InDelta(t, 0.4, analysis.TrendSlope, 1e-9)
	assert.Less(t, analysis.TrendPValue, 0.05)
}

func TestAnalyze_TrendDeclining(t *testing.T) {
	a := newTestAnalyzer()

	var samples []Sample
	for i, year := range []int{2018, 2019, 2020, 2021, 2022, 2023} {
		samples = append(samples, sampleAt(fmt.Sprintf("p%d.pdf", i), year, 4.5-0.4*float64(i)))
	}

	analysis := a.Analyze("REQ-1", samples)
	assert.Equal(t, model.TrendDeclining, analysis.QualityTrend)
}

func TestAnalyze_TrendStable_SmallSlope(t *testing.T) {
	a := newTestAnalyzer()

	// Perfectly linear but slope 0.05 is below the reporting threshold
	var samples []Sample
	for i, year := range []int{2018, 2019, 2020, 2021} {
		samples = append(samples, sampleAt(fmt.Sprintf("p%d.pdf", i), year, 3.0+0.05*float64(i)))
	}

	analysis := a.Analyze("REQ-1", samples)
	assert.Equal(t, model.TrendStable, analysis.QualityTrend)
}

func TestAnalyze_TrendUnknown_TooFewYears(t *testing.T) {
	a := newTestAnalyzer()

	samples := []Sample{
		sampleAt("a.pdf", 2020, 3.0),
		sampleAt("b.pdf", 2020, 3.5),
		sampleAt("c.pdf", 2023, 4.0),
	}

	analysis := a.Analyze("REQ-1", samples)
	assert.Equal(t, model.TrendUnknown, analysis.QualityTrend)
}

func TestAnalyze_ConsensusStrength(t *testing.T) {
	a := newTestAnalyzer()

	uniform := []Sample{
		sampleAt("a.pdf", 2020, 3.5),
		sampleAt("b.pdf", 2021, 3.5),
		sampleAt("c.pdf", 2022, 3.5),
	}
	assert.Equal(t, model.StrengthStrong, a.Analyze("REQ-1", uniform).ConsensusStrength)

	scattered := []Sample{
		sampleAt("a.pdf", 2020, 1.0),
		sampleAt("b.pdf", 2021, 5.0),
		sampleAt("c.pdf", 2022, 1.0),
	}
	assert.Equal(t, model.StrengthNone, a.Analyze("REQ-1", scattered).ConsensusStrength)

	unscored := []Sample{
		{Filename: "a.pdf", Year: intp(2020)},
	}
	assert.Equal(t, model.StrengthUnknown, a.Analyze("REQ-1", unscored).ConsensusStrength)
}

func TestAnalyze_RecentActivity(t *testing.T) {
	a := newTestAnalyzer()

	var samples []Sample
	for i := 0; i < 3; i++ {
		samples = append(samples, sampleAt(fmt.Sprintf("recent%d.pdf", i), 2025, 3.0))
	}

	analysis := a.Analyze("REQ-1", samples)
	assert.Equal(t, 3, analysis.RecentPapers)
	assert.True(t, analysis.RecentActivity)
}

func TestAnalyze_Empty(t *testing.T) {
	a := newTestAnalyzer()

	analysis := a.Analyze("REQ-1", nil)

	assert.Zero(t, analysis.TotalPapers)
	assert.Equal(t, model.TrendUnknown, analysis.QualityTrend)
	assert.Equal(t, model.MaturityEmerging, analysis.MaturityLevel)
	assert.Equal(t, model.StrengthUnknown, analysis.ConsensusStrength)
	assert.False(t, analysis.RecentActivity)
}
