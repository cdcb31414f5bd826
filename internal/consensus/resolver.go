// Package consensus resolves borderline claims by fanning out multiple
// independent judgments and reducing them to one verdict. Composite scores
// outside the borderline band are trusted from a single judgment; inside it,
// approve/reject flips on small perturbations, so one sample is not enough.
package consensus

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lacuna/internal/judge"
	"lacuna/internal/model"
	"lacuna/internal/score"
	"lacuna/internal/taxonomy"
)

// weakThreshold is the floor for weak consensus; below it the claim needs
// a human and is never auto-finalized
const weakThreshold = 0.5

// Result is the reduced outcome of a consensus round
type Result struct {
	Quality  model.EvidenceQuality
	Verdict  model.ClaimStatus
	Metadata model.ConsensusMetadata
}

// Resolver obtains N independent judgments and reduces them
type Resolver struct {
	judge  judge.Judge
	scorer *score.Scorer
	cfg    model.ConsensusConfig
	log    zerolog.Logger
}

// NewResolver creates a resolver around a judgment source
func NewResolver(j judge.Judge, cfg model.ConsensusConfig, log zerolog.Logger) *Resolver {
	return &Resolver{
		judge:  j,
		scorer: score.NewScorer(),
		cfg:    cfg,
		log:    log.With().Str("component", "consensus").Logger(),
	}
}

// InBand reports whether a composite score falls in the borderline band
// and therefore requires consensus resolution
func (r *Resolver) InBand(composite float64) bool {
	return composite >= r.cfg.BorderlineLow && composite <= r.cfg.BorderlineHigh
}

type scoredJudgment struct {
	quality model.EvidenceQuality
	verdict model.ClaimStatus
	temp    float32
}

// Resolve runs the consensus round for one claim. Judgments are dispatched
// concurrently; each failure is tolerated as long as at least one judgment
// returns. With fewer than the configured count the result degrades to the
// first available judgment and is flagged, never silently dropped.
func (r *Resolver) Resolve(ctx context.Context, claimText string, req taxonomy.Requirement) (*Result, error) {
	n := r.cfg.JudgeCount
	results := make([]*scoredJudgment, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			// Varied temperature induces diversity without changing the rubric
			temp := samplingTemperature(i)
			judgment, err := r.judge.Judge(gctx, judge.Request{
				ClaimText:   claimText,
				Requirement: req,
				Sampling:    judge.SamplingParams{Temperature: temp},
			})
			if err != nil {
				r.log.Warn().Err(err).Int("judge", i).Msg("judgment failed")
				return nil
			}
			quality, verdict, err := r.scorer.Score(judgment)
			if err != nil {
				r.log.Warn().Err(err).Int("judge", i).Msg("judgment rejected by validator")
				return nil
			}
			results[i] = &scoredJudgment{quality: quality, verdict: verdict, temp: temp}
			return nil
		})
	}
	_ = g.Wait()

	var available []*scoredJudgment
	for _, res := range results {
		if res != nil {
			available = append(available, res)
		}
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("consensus: all %d judgments failed", n)
	}

	degraded := len(available) < n
	if degraded {
		r.log.Warn().
			Int("requested", n).
			Int("received", len(available)).
			Msg("consensus degraded, falling back to first available judgment")
	}

	return r.reduce(n, available, degraded), nil
}

// reduce folds the available judgments into one result
func (r *Resolver) reduce(requested int, available []*scoredJudgment, degraded bool) *Result {
	meta := model.ConsensusMetadata{
		Degraded: degraded,
	}

	votes := make(map[model.ClaimStatus]int)
	var composites []float64
	for _, s := range available {
		meta.Verdicts = append(meta.Verdicts, model.JudgeVerdict{
			Verdict:        s.verdict,
			CompositeScore: s.quality.CompositeScore,
			Temperature:    s.temp,
		})
		votes[s.verdict]++
		composites = append(composites, s.quality.CompositeScore)
	}

	majority := available[0].verdict
	if votes[model.StatusApproved] > votes[model.StatusRejected] {
		majority = model.StatusApproved
	} else if votes[model.StatusRejected] > votes[model.StatusApproved] {
		majority = model.StatusRejected
	}

	// The rate is always over the requested judge count, so a degraded
	// round reads as low agreement rather than inventing a full round
	meta.AgreementRate = float64(votes[majority]) / float64(requested)
	meta.ScoreStdDev = populationStdDev(composites)

	// Classified at 2-decimal precision so 2-of-3 (0.666...) meets the
	// documented 0.67 threshold
	switch {
	case round2(meta.AgreementRate) >= r.cfg.AgreementThreshold:
		meta.Status = model.ConsensusStrong
	case round2(meta.AgreementRate) >= weakThreshold:
		meta.Status = model.ConsensusWeak
	default:
		meta.Status = model.ConsensusNone
		meta.RequiresHumanReview = true
	}

	// Degraded rounds fall back to the first available single judgment;
	// full rounds take the majority with the mean composite.
	quality := available[0].quality
	verdict := available[0].verdict
	if !degraded {
		quality.CompositeScore = round2(mean(composites))
		verdict = majority
		// No trusted majority never auto-finalizes
		if meta.Status == model.ConsensusNone {
			verdict = model.StatusPendingReview
		}
	}

	return &Result{
		Quality:  quality,
		Verdict:  verdict,
		Metadata: meta,
	}
}

// samplingTemperature spreads judges across the sampling space
func samplingTemperature(i int) float32 {
	return 0.3 + 0.2*float32(i)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
