package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacuna/internal/history"
	"lacuna/internal/judge"
	"lacuna/internal/model"
	"lacuna/internal/taxonomy"
)

const testTaxonomy = `
pillars:
  - id: pillar-1
    name: Pillar One
    requirements:
      - id: REQ-1
        name: First requirement
      - id: REQ-2
        name: Second requirement
`

// Judgments pinned against the composite formula:
// strong -> 4.2 (above the band), borderline -> 3.35 (in band), weak -> 1.02
var (
	strongJudgment     = model.Judgment{Strength: 4, Rigor: 5, Relevance: 4, Directness: 3, IsRecent: true, Reproducibility: 4}
	borderlineJudgment = model.Judgment{Strength: 3, Rigor: 4, Relevance: 3, Directness: 3, IsRecent: true, Reproducibility: 3}
	weakJudgment       = model.Judgment{Strength: 1, Rigor: 1, Relevance: 1, Directness: 1, IsRecent: false, Reproducibility: 1}
)

type scriptedJudge struct {
	judgment model.Judgment
	calls    int32
}

func (s *scriptedJudge) judge() judge.Judge {
	return judge.Func(func(context.Context, judge.Request) (model.Judgment, error) {
		atomic.AddInt32(&s.calls, 1)
		return s.judgment, nil
	})
}

func testPipeline(t *testing.T, j judge.Judge) (*Pipeline, *history.Store) {
	t.Helper()
	tax, err := taxonomy.Parse([]byte(testTaxonomy))
	require.NoError(t, err)
	store, err := history.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := model.DefaultConfig()
	cfg.Concurrency.ReviewWorkers = 2
	return NewPipelineWithJudge(cfg, tax, store, j, zerolog.Nop()), store
}

func pendingDoc(name string, ids ...string) *model.Document {
	claims := make([]model.Claim, len(ids))
	for i, id := range ids {
		claims[i] = model.Claim{
			ID:             id,
			Text:           "claim " + id,
			SubRequirement: "REQ-1",
			Status:         model.StatusPendingReview,
		}
	}
	return &model.Document{Filename: name, Claims: claims}
}

func TestReviewDocument_ApprovesAndPersists(t *testing.T) {
	sj := &scriptedJudge{judgment: strongJudgment}
	p, store := testPipeline(t, sj.judge())

	reviewed, err := p.ReviewDocument(context.Background(), pendingDoc("paper.pdf", "c1"))
	require.NoError(t, err)

	c := reviewed.Claims[0]
	assert.Equal(t, model.StatusApproved, c.Status)
	require.NotNil(t, c.Quality)
	assert.Equal(t, 4.2, c.Quality.CompositeScore)
	assert.Nil(t, c.Consensus, "out-of-band composite must not trigger consensus")
	assert.Equal(t, int32(1), atomic.LoadInt32(&sj.calls))

	latest, err := store.Latest("paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, latest.Snapshot[0].Status)
}

func TestReviewDocument_RejectsWeakEvidence(t *testing.T) {
	sj := &scriptedJudge{judgment: weakJudgment}
	p, _ := testPipeline(t, sj.judge())

	reviewed, err := p.ReviewDocument(context.Background(), pendingDoc("paper.pdf", "c1"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, reviewed.Claims[0].Status)
	assert.Nil(t, reviewed.Claims[0].Consensus)
}

func TestReviewDocument_BorderlineGoesThroughConsensus(t *testing.T) {
	sj := &scriptedJudge{judgment: borderlineJudgment}
	p, _ := testPipeline(t, sj.judge())

	reviewed, err := p.ReviewDocument(context.Background(), pendingDoc("paper.pdf", "c1"))
	require.NoError(t, err)

	c := reviewed.Claims[0]
	require.NotNil(t, c.Consensus)
	assert.Len(t, c.Consensus.Verdicts, 3)
	assert.Equal(t, 1.0, c.Consensus.AgreementRate)
	assert.Equal(t, model.ConsensusStrong, c.Consensus.Status)
	assert.Equal(t, model.StatusApproved, c.Status)
	// one scoring call plus three consensus judges
	assert.Equal(t, int32(4), atomic.LoadInt32(&sj.calls))
}

func TestReviewDocument_SkipsAlreadyReviewedClaims(t *testing.T) {
	sj := &scriptedJudge{judgment: strongJudgment}
	p, _ := testPipeline(t, sj.judge())

	doc := pendingDoc("paper.pdf", "c1", "c2")
	doc.Claims[0].Status = model.StatusApproved
	doc.Claims[0].Quality = &model.EvidenceQuality{CompositeScore: 4.0}

	reviewed, err := p.ReviewDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 4.0, reviewed.Claims[0].Quality.CompositeScore, "settled claims are not re-judged")
	assert.Equal(t, int32(1), atomic.LoadInt32(&sj.calls))
}

func TestReviewDocument_UnknownRequirementLeftPending(t *testing.T) {
	sj := &scriptedJudge{judgment: strongJudgment}
	p, _ := testPipeline(t, sj.judge())

	doc := pendingDoc("paper.pdf", "c1")
	doc.Claims[0].SubRequirement = "REQ-unmapped"

	reviewed, err := p.ReviewDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingReview, reviewed.Claims[0].Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&sj.calls))
}

func TestReviewAll_BatchPersistsEveryDocument(t *testing.T) {
	sj := &scriptedJudge{judgment: strongJudgment}
	p, store := testPipeline(t, sj.judge())

	docs := []*model.Document{
		pendingDoc("a.pdf", "c1"),
		pendingDoc("b.pdf", "c1"),
		pendingDoc("c.pdf", "c1"),
	}
	results := p.ReviewAll(context.Background(), docs)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.GetError())
	}

	names, err := store.Filenames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, names)
}

func TestAppeal_ReentersAndRejudges(t *testing.T) {
	sj := &scriptedJudge{judgment: weakJudgment}
	p, store := testPipeline(t, sj.judge())

	_, err := p.ReviewDocument(context.Background(), pendingDoc("paper.pdf", "c1"))
	require.NoError(t, err)

	// Stronger evidence surfaced on appeal
	sj.judgment = strongJudgment
	doc, err := p.Appeal(context.Background(), "paper.pdf", "c1")
	require.NoError(t, err)

	c := doc.Claims[0]
	assert.Equal(t, model.StatusApproved, c.Status)
	assert.Equal(t, 1, c.AppealCount)

	versions, err := store.AllVersions("paper.pdf")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestAppeal_CapIsTerminal(t *testing.T) {
	sj := &scriptedJudge{judgment: weakJudgment}
	p, _ := testPipeline(t, sj.judge())
	p.cfg.Review.MaxAppeals = 1

	_, err := p.ReviewDocument(context.Background(), pendingDoc("paper.pdf", "c1"))
	require.NoError(t, err)

	doc, err := p.Appeal(context.Background(), "paper.pdf", "c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, doc.Claims[0].Status)
	assert.Equal(t, 1, doc.Claims[0].AppealCount)

	_, err = p.Appeal(context.Background(), "paper.pdf", "c1")
	assert.Error(t, err, "a claim at the appeal cap is finalized")
}

func TestAppeal_OnlyRejectedClaims(t *testing.T) {
	sj := &scriptedJudge{judgment: strongJudgment}
	p, _ := testPipeline(t, sj.judge())

	_, err := p.ReviewDocument(context.Background(), pendingDoc("paper.pdf", "c1"))
	require.NoError(t, err)

	_, err = p.Appeal(context.Background(), "paper.pdf", "c1")
	assert.Error(t, err)

	_, err = p.Appeal(context.Background(), "paper.pdf", "missing")
	assert.Error(t, err)

	_, err = p.Appeal(context.Background(), "missing.pdf", "c1")
	assert.ErrorIs(t, err, history.ErrNotFound)
}
