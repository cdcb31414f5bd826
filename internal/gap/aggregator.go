// Package gap rolls per-claim scores up to per-requirement and per-pillar
// completeness, producing the gap-analysis report that drives which
// requirements to research next.
package gap

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"lacuna/internal/decay"
	"lacuna/internal/history"
	"lacuna/internal/model"
	"lacuna/internal/taxonomy"
	"lacuna/internal/temporal"
)

// RequirementGap is the completeness/priority record for one requirement
type RequirementGap struct {
	Requirement  string                  `json:"requirement"`
	Pillar       string                  `json:"pillar"`
	Completeness float64                 `json:"completeness"` // 0-100
	Priority     float64                 `json:"priority"`     // 0-1, higher fills first
	ClaimCount   int                     `json:"claim_count"`
	PaperCount   int                     `json:"paper_count"`
	AvgQuality   float64                 `json:"avg_quality,omitempty"`
	BestQuality  float64                 `json:"best_quality,omitempty"`
	Decay        *decay.Metadata         `json:"evidence_metadata,omitempty"`
	Temporal     *model.TemporalAnalysis `json:"temporal,omitempty"`
}

// PillarSummary rolls requirement completeness up to pillar level
type PillarSummary struct {
	Pillar       string  `json:"pillar"`
	Completeness float64 `json:"completeness"` // mean over the pillar's requirements
	Requirements int     `json:"requirements"`
	NoEvidence   int     `json:"no_evidence"` // requirements with zero approved claims
}

// Report is the full gap analysis, ordered by the taxonomy
type Report struct {
	Requirements []RequirementGap `json:"requirements"`
	Pillars      []PillarSummary  `json:"pillars"`
}

// Aggregator computes gap reports from the version history
type Aggregator struct {
	store    *history.Store
	tax      *taxonomy.Taxonomy
	weighter *decay.Weighter
	analyzer *temporal.Analyzer
	log      zerolog.Logger
}

// NewAggregator creates an aggregator over a history store and taxonomy
func NewAggregator(store *history.Store, tax *taxonomy.Taxonomy, weighter *decay.Weighter, analyzer *temporal.Analyzer, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		tax:      tax,
		weighter: weighter,
		analyzer: analyzer,
		log:      log.With().Str("component", "gap").Logger(),
	}
}

// evidence is one approved claim plus its document context
type evidence struct {
	claim    model.Claim
	filename string
	year     *int
}

// Aggregate reads the latest snapshot of every document and computes the
// per-requirement and per-pillar completeness report
func (a *Aggregator) Aggregate(docs map[string]*model.Document) (*Report, error) {
	approved, samples, err := a.collect(docs)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	pillarTotals := make(map[string]*PillarSummary)

	for _, p := range a.tax.Pillars {
		pillarTotals[p.ID] = &PillarSummary{Pillar: p.ID}
	}

	for _, reqID := range a.tax.RequirementIDs() {
		pillar, _ := a.tax.PillarOf(reqID)
		g := a.requirementGap(reqID, pillar, approved[reqID], samples[reqID])
		report.Requirements = append(report.Requirements, g)

		summary := pillarTotals[pillar]
		summary.Requirements++
		summary.Completeness += g.Completeness
		if g.ClaimCount == 0 {
			summary.NoEvidence++
		}
	}

	for _, p := range a.tax.Pillars {
		summary := pillarTotals[p.ID]
		if summary.Requirements > 0 {
			summary.Completeness /= float64(summary.Requirements)
		}
		report.Pillars = append(report.Pillars, *summary)
	}

	return report, nil
}

// collect groups the latest approved claims and temporal samples per
// requirement. When docs is nil the latest snapshots are read from the
// version history.
func (a *Aggregator) collect(docs map[string]*model.Document) (map[string][]evidence, map[string][]temporal.Sample, error) {
	approved := make(map[string][]evidence)
	samples := make(map[string][]temporal.Sample)

	visit := func(filename string, year *int, claims []model.Claim) {
		for _, c := range claims {
			if _, known := a.tax.Requirement(c.SubRequirement); !known {
				a.log.Warn().
					Str("claim", c.ID).
					Str("requirement", c.SubRequirement).
					Msg("claim targets a requirement outside the taxonomy, skipping")
				continue
			}

			sample := temporal.Sample{Filename: filename, Year: year}
			if c.Quality != nil {
				score := c.Quality.CompositeScore
				sample.Composite = &score
			}
			samples[c.SubRequirement] = append(samples[c.SubRequirement], sample)

			// Legacy approved claims without a quality record cannot
			// contribute a composite; fabricating one would corrupt the
			// completeness statistics
			if c.Status == model.StatusApproved && c.Quality != nil {
				approved[c.SubRequirement] = append(approved[c.SubRequirement], evidence{
					claim:    c,
					filename: filename,
					year:     year,
				})
			}
		}
	}

	if docs != nil {
		for _, doc := range docs {
			visit(doc.Filename, doc.PublicationYear, doc.Claims)
		}
		return approved, samples, nil
	}

	filenames, err := a.store.Filenames()
	if err != nil {
		return nil, nil, err
	}
	for _, filename := range filenames {
		entry, err := a.store.Latest(filename)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				continue
			}
			return nil, nil, fmt.Errorf("latest snapshot for %s: %w", filename, err)
		}
		visit(filename, entry.PublicationYear, entry.Snapshot)
	}
	return approved, samples, nil
}

// requirementGap computes completeness and priority for one requirement
func (a *Aggregator) requirementGap(reqID, pillar string, claims []evidence, samples []temporal.Sample) RequirementGap {
	g := RequirementGap{
		Requirement: reqID,
		Pillar:      pillar,
		ClaimCount:  len(claims),
	}

	// The no-evidence case always outranks low-quality evidence
	if len(claims) == 0 {
		g.Completeness = 0
		g.Priority = 1.0
		return g
	}

	var sum float64
	best := claims[0]
	papers := make(map[string]decay.Paper)
	for _, e := range claims {
		composite := e.claim.Quality.CompositeScore
		sum += composite
		if composite > best.claim.Quality.CompositeScore {
			best = e
		}
		p := papers[e.filename]
		if composite > p.Alignment {
			papers[e.filename] = decay.Paper{Filename: e.filename, Year: e.year, Alignment: composite}
		}
	}
	g.PaperCount = len(papers)
	g.AvgQuality = sum / float64(len(claims))
	g.BestQuality = best.claim.Quality.CompositeScore

	paperList := make([]decay.Paper, 0, len(papers))
	for _, p := range papers {
		paperList = append(paperList, p)
	}

	final, meta := a.weighter.Weight(pillar, g.BestQuality, paperList)
	if meta.DecayApplied {
		g.Decay = &meta
	}
	if meta.StaleWarning {
		a.log.Warn().
			Str("requirement", reqID).
			Float64("freshness", meta.Freshness).
			Msg("best evidence is stale")
	}

	g.Completeness = clamp((final-1)/4*100, 0, 100)
	g.Priority = clamp(1-(g.AvgQuality-1)/4, 0, 1)

	if a.analyzer != nil {
		t := a.analyzer.Analyze(reqID, samples)
		g.Temporal = &t
	}

	return g
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
