// Package decay converts publication age into a freshness weight with an
// exponential half-life model and blends it into raw alignment scores.
// Weighting is opt-in and never mutates raw scores: the adjusted score is
// returned alongside an auditable metadata record.
package decay

import (
	"math"
	"time"

	"lacuna/internal/model"
)

// neutralFreshness is the documented design choice for papers with a wholly
// absent publication year: neither fully fresh nor fully stale, and flagged
// so consumers can see the neutrality was applied.
const neutralFreshness = 0.5

// Paper is one contributing evidence source for a requirement
type Paper struct {
	Filename  string
	Year      *int    // nil when the publication year is unknown
	Alignment float64 // raw alignment score for this paper, 1-5 scale
}

// Metadata is the audit side-record produced next to every adjusted score
type Metadata struct {
	RawScore     float64 `json:"raw_score"`
	Freshness    float64 `json:"freshness"`
	FinalScore   float64 `json:"final_score"`
	DecayApplied bool    `json:"decay_applied"`
	BestPaper    string  `json:"best_paper,omitempty"`
	PaperYear    *int    `json:"paper_year,omitempty"`
	YearMissing  bool    `json:"year_missing,omitempty"`
	// StaleWarning is a user-visible advisory when freshness drops below
	// the configured floor; it never blocks processing
	StaleWarning bool `json:"stale_warning,omitempty"`
}

// Weighter applies temporal decay to alignment scores
type Weighter struct {
	cfg model.DecayConfig
	now func() time.Time
}

// NewWeighter creates a weighter using the wall clock
func NewWeighter(cfg model.DecayConfig) *Weighter {
	return &Weighter{cfg: cfg, now: time.Now}
}

// NewWeighterWithClock creates a weighter with an injected clock
func NewWeighterWithClock(cfg model.DecayConfig, now func() time.Time) *Weighter {
	return &Weighter{cfg: cfg, now: now}
}

// Freshness returns the decay weight for a publication year. A paper
// exactly one half-life old retains exactly 50% weight; future or
// current-year papers retain full weight.
func (w *Weighter) Freshness(year *int) (float64, bool) {
	if year == nil {
		return neutralFreshness, true
	}
	age := float64(w.now().Year() - *year)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, age/w.cfg.HalfLifeYears), false
}

// Weight blends the raw score with its freshness-scaled counterpart for the
// best-supporting paper. When decay is disabled, or the pillar is not
// opted in, the raw score passes through untouched (decay_weight=0 is
// likewise a no-op by construction).
func (w *Weighter) Weight(pillar string, rawScore float64, papers []Paper) (float64, Metadata) {
	meta := Metadata{
		RawScore:   rawScore,
		Freshness:  1.0,
		FinalScore: rawScore,
	}

	if !w.cfg.AppliesTo(pillar) || len(papers) == 0 {
		return rawScore, meta
	}

	best := papers[0]
	for _, p := range papers[1:] {
		if p.Alignment > best.Alignment {
			best = p
		}
	}
	meta.BestPaper = best.Filename
	meta.PaperYear = best.Year

	freshness, missing := w.Freshness(best.Year)
	meta.Freshness = freshness
	meta.YearMissing = missing
	meta.DecayApplied = true
	meta.StaleWarning = freshness < w.cfg.MinFreshness

	blend := w.cfg.DecayWeight
	final := (1-blend)*rawScore + blend*(rawScore*freshness)
	meta.FinalScore = final

	return final, meta
}
