// Package judge defines the external judgment source and its providers.
// A judge reads one claim against one requirement definition and returns a
// raw six-dimension quality judgment. Transport failures and malformed
// responses surface as errors; the judge never invents a default score.
package judge

import (
	"context"

	"lacuna/internal/model"
	"lacuna/internal/taxonomy"
)

// SamplingParams controls judgment diversity. Consensus rounds vary the
// temperature to induce independent judgments without changing the rubric.
type SamplingParams struct {
	Temperature float32
}

// Request is the input for one judgment call
type Request struct {
	ClaimText   string
	Requirement taxonomy.Requirement
	Sampling    SamplingParams
}

// Judge performs one independent judgment of a claim
type Judge interface {
	// Name returns the provider name
	Name() string

	// Judge evaluates the claim against the requirement definition
	Judge(ctx context.Context, req Request) (model.Judgment, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Func adapts a plain function to the Judge interface (used in tests and
// for the consensus resolver's callable contract)
type Func func(ctx context.Context, req Request) (model.Judgment, error)

// Name implements Judge
func (f Func) Name() string { return "func" }

// Judge implements Judge
func (f Func) Judge(ctx context.Context, req Request) (model.Judgment, error) {
	return f(ctx, req)
}

// IsAvailable implements Judge
func (f Func) IsAvailable(context.Context) bool { return true }
