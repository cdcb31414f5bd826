package worker

import (
	"context"

	"lacuna/internal/model"
)

// Reviewer runs the full review of one document and returns its new state
type Reviewer interface {
	ReviewDocument(ctx context.Context, doc *model.Document) (*model.Document, error)
}

// ReviewJob reviews one document
type ReviewJob struct {
	Doc      *model.Document
	Reviewer Reviewer
}

// Execute runs the review
func (j *ReviewJob) Execute(ctx context.Context) Result {
	doc, err := j.Reviewer.ReviewDocument(ctx, j.Doc)
	return &ReviewResult{Filename: j.Doc.Filename, Doc: doc, Error: err}
}

// ReviewResult is the outcome of one document review
type ReviewResult struct {
	Filename string
	Doc      *model.Document
	Error    error
}

// GetError returns the review error, if any
func (r *ReviewResult) GetError() error {
	return r.Error
}

// BatchProcessor reviews documents concurrently with a bounded pool.
// One document failing never aborts the batch; failures come back as
// per-document results.
type BatchProcessor struct {
	reviewer    Reviewer
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(reviewer Reviewer, concurrency int) *BatchProcessor {
	return &BatchProcessor{reviewer: reviewer, concurrency: concurrency}
}

// ProcessDocuments reviews all documents and returns one result per input
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, docs []*model.Document) []*ReviewResult {
	if len(docs) == 0 {
		return []*ReviewResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submission runs alongside collection so the batch size is never
	// bounded by the pool's channel buffers
	go func() {
		for _, doc := range docs {
			select {
			case <-ctx.Done():
				pool.Shutdown()
				return
			default:
			}
			pool.Submit(&ReviewJob{Doc: doc, Reviewer: b.reviewer})
		}
		pool.Close()
	}()

	results := pool.Wait()

	reviews := make([]*ReviewResult, 0, len(results))
	for _, result := range results {
		reviews = append(reviews, result.(*ReviewResult))
	}
	return reviews
}
