// Package pipeline orchestrates the review of documents: judge each pending
// claim, score it, resolve borderline composites through consensus, and
// append the result to the version history.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lacuna/internal/consensus"
	"lacuna/internal/history"
	"lacuna/internal/judge"
	"lacuna/internal/model"
	"lacuna/internal/score"
	"lacuna/internal/taxonomy"
	"lacuna/internal/worker"
)

// Pipeline runs the complete review process
type Pipeline struct {
	judge    judge.Judge
	scorer   *score.Scorer
	resolver *consensus.Resolver
	store    *history.Store
	tax      *taxonomy.Taxonomy
	cfg      *model.Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewPipeline wires a pipeline from configuration
func NewPipeline(cfg *model.Config, tax *taxonomy.Taxonomy, store *history.Store, log zerolog.Logger) (*Pipeline, error) {
	j, err := judge.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create judge: %w", err)
	}
	return newPipeline(cfg, tax, store, j, log), nil
}

// NewPipelineWithJudge wires a pipeline around an existing judge
func NewPipelineWithJudge(cfg *model.Config, tax *taxonomy.Taxonomy, store *history.Store, j judge.Judge, log zerolog.Logger) *Pipeline {
	return newPipeline(cfg, tax, store, j, log)
}

func newPipeline(cfg *model.Config, tax *taxonomy.Taxonomy, store *history.Store, j judge.Judge, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		judge:    j,
		scorer:   score.NewScorer(),
		resolver: consensus.NewResolver(j, cfg.Consensus, log),
		store:    store,
		tax:      tax,
		cfg:      cfg,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// ReviewAll reviews documents concurrently, bounded by the configured
// worker count. One document failing never aborts the batch.
func (p *Pipeline) ReviewAll(ctx context.Context, docs []*model.Document) []*worker.ReviewResult {
	batch := worker.NewBatchProcessor(p, p.cfg.Concurrency.ReviewWorkers)
	return batch.ProcessDocuments(ctx, docs)
}

// ReviewDocument judges every pending claim of one document and appends the
// reviewed snapshot to the version history. A validation failure on any
// claim aborts the document: a judgment that fails range checks must never
// be replaced with a default score.
func (p *Pipeline) ReviewDocument(ctx context.Context, doc *model.Document) (*model.Document, error) {
	reviewed := *doc
	reviewed.Claims = make([]model.Claim, len(doc.Claims))
	copy(reviewed.Claims, doc.Claims)

	for i := range reviewed.Claims {
		if reviewed.Claims[i].Status != model.StatusPendingReview {
			continue
		}
		if err := p.reviewClaim(ctx, &reviewed.Claims[i]); err != nil {
			return nil, fmt.Errorf("claim %s: %w", reviewed.Claims[i].ID, err)
		}
	}

	if err := p.append(&reviewed); err != nil {
		return nil, err
	}
	return &reviewed, nil
}

// reviewClaim runs one claim through judge, scorer, and (when borderline)
// the consensus resolver
func (p *Pipeline) reviewClaim(ctx context.Context, c *model.Claim) error {
	req, ok := p.tax.Requirement(c.SubRequirement)
	if !ok {
		// Unknown requirement is an extraction defect, not a quality signal;
		// the claim stays pending instead of being scored against nothing
		p.log.Warn().
			Str("claim", c.ID).
			Str("requirement", c.SubRequirement).
			Msg("claim targets a requirement outside the taxonomy, left pending")
		return nil
	}

	judgment, err := p.judge.Judge(ctx, judge.Request{
		ClaimText:   c.Text,
		Requirement: req,
		Sampling:    judge.SamplingParams{Temperature: 0},
	})
	if err != nil {
		return fmt.Errorf("judge: %w", err)
	}

	quality, verdict, err := p.scorer.Score(judgment)
	if err != nil {
		return err
	}
	c.Rationale = judgment.Rationale
	c.Consensus = nil

	if p.resolver.InBand(quality.CompositeScore) {
		p.log.Debug().
			Str("claim", c.ID).
			Float64("composite", quality.CompositeScore).
			Msg("borderline composite, resolving by consensus")
		result, err := p.resolver.Resolve(ctx, c.Text, req)
		if err != nil {
			return fmt.Errorf("consensus: %w", err)
		}
		quality = result.Quality
		verdict = result.Verdict
		c.Consensus = &result.Metadata
	}

	c.Quality = &quality
	c.Status = verdict
	return nil
}

// Appeal re-enters one rejected claim into review, re-judges it, and appends
// the new snapshot. The claim keeps its ID so the history links the appeal
// to the original verdict.
func (p *Pipeline) Appeal(ctx context.Context, filename, claimID string) (*model.Document, error) {
	entry, err := p.store.Latest(filename)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Filename:        entry.Filename,
		Title:           entry.Title,
		PublicationYear: entry.PublicationYear,
		Claims:          entry.Snapshot,
	}

	found := false
	for i := range doc.Claims {
		c := &doc.Claims[i]
		if c.ID != claimID {
			continue
		}
		found = true
		if !c.CanAppeal(p.cfg.Review.MaxAppeals) {
			if c.Status != model.StatusRejected {
				return nil, fmt.Errorf("claim %s is %s; only rejected claims can be appealed", claimID, c.Status)
			}
			return nil, fmt.Errorf("claim %s exhausted its %d appeals and is finalized", claimID, p.cfg.Review.MaxAppeals)
		}
		c.AppealCount++
		c.Status = model.StatusPendingReview
		if err := p.reviewClaim(ctx, c); err != nil {
			return nil, fmt.Errorf("claim %s: %w", claimID, err)
		}
	}
	if !found {
		return nil, fmt.Errorf("claim %s not found in %s", claimID, filename)
	}

	if err := p.append(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Pipeline) append(doc *model.Document) error {
	now := time.Now().UTC()
	if p.now != nil {
		now = p.now()
	}
	if _, err := p.store.Append(doc, now); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
