package judge

import (
	"context"

	"golang.org/x/time/rate"

	"lacuna/internal/model"
)

// ThrottledJudge rate-limits calls to the underlying provider so batch
// review and consensus fan-out stay inside the provider's quota
type ThrottledJudge struct {
	inner   Judge
	limiter *rate.Limiter
}

// NewThrottled wraps a judge with a rate limiter
func NewThrottled(inner Judge, requestsPerSecond float64) *ThrottledJudge {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &ThrottledJudge{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the inner provider name
func (t *ThrottledJudge) Name() string {
	return t.inner.Name()
}

// IsAvailable delegates to the inner judge
func (t *ThrottledJudge) IsAvailable(ctx context.Context) bool {
	return t.inner.IsAvailable(ctx)
}

// Judge waits for rate limit clearance and calls through
func (t *ThrottledJudge) Judge(ctx context.Context, req Request) (model.Judgment, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return model.Judgment{}, err
	}
	return t.inner.Judge(ctx, req)
}
