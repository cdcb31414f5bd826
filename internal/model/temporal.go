package model

// QualityTrend is the direction of evidence quality over publication years
type QualityTrend string

const (
	TrendImproving QualityTrend = "improving" // slope > 0.1, p < 0.05
	TrendStable    QualityTrend = "stable"
	TrendDeclining QualityTrend = "declining" // slope < -0.1, p < 0.05
	TrendUnknown   QualityTrend = "unknown"   // under 3 distinct years of scored data
)

// MaturityLevel classifies how developed the evidence base is
type MaturityLevel string

const (
	MaturityEmerging    MaturityLevel = "emerging"
	MaturityGrowing     MaturityLevel = "growing"
	MaturityEstablished MaturityLevel = "established"
	MaturityMature      MaturityLevel = "mature"
)

// ConsensusStrength measures score dispersion across a requirement's claims
type ConsensusStrength string

const (
	StrengthStrong   ConsensusStrength = "strong"   // std-dev < 0.5
	StrengthModerate ConsensusStrength = "moderate" // std-dev < 1.0
	StrengthWeak     ConsensusStrength = "weak"     // std-dev < 1.5
	StrengthNone     ConsensusStrength = "none"
	StrengthUnknown  ConsensusStrength = "unknown" // no scored claims
)

// TemporalAnalysis is the derived evolution record for one requirement.
// It is computed on demand and never persisted independently.
type TemporalAnalysis struct {
	Requirement       string            `json:"requirement"`
	EarliestYear      int               `json:"earliest_year,omitempty"`
	LatestYear        int               `json:"latest_year,omitempty"`
	SpanYears         int               `json:"evidence_span_years"`
	TotalPapers       int               `json:"total_papers"`
	RecentPapers      int               `json:"recent_papers"` // within the last 3 years
	YearCounts        map[int]int       `json:"year_counts,omitempty"`
	QualityTrend      QualityTrend      `json:"quality_trend"`
	TrendSlope        float64           `json:"trend_slope,omitempty"`
	TrendPValue       float64           `json:"trend_p_value,omitempty"`
	MaturityLevel     MaturityLevel     `json:"maturity_level"`
	ConsensusStrength ConsensusStrength `json:"consensus_strength"`
	RecentActivity    bool              `json:"recent_activity"` // recent_papers >= 3
}
