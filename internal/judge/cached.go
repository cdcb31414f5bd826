package judge

import (
	"context"
	"encoding/json"
	"time"

	"lacuna/internal/cache"
	"lacuna/internal/model"
)

// CachedJudge serves repeated judgments from the cache. Only deterministic
// calls (temperature 0) are cached: consensus rounds rely on sampling
// independence, and a cache hit there would collapse the judges into one.
type CachedJudge struct {
	inner Judge
	store cache.Cache
	model string
	ttl   time.Duration
}

// NewCached wraps a judge with a judgment cache
func NewCached(inner Judge, store cache.Cache, modelName string, ttl time.Duration) *CachedJudge {
	return &CachedJudge{
		inner: inner,
		store: store,
		model: modelName,
		ttl:   ttl,
	}
}

// Name returns the inner provider name
func (c *CachedJudge) Name() string {
	return c.inner.Name()
}

// IsAvailable delegates to the inner judge
func (c *CachedJudge) IsAvailable(ctx context.Context) bool {
	return c.inner.IsAvailable(ctx)
}

// Judge returns a cached judgment when one exists, otherwise calls through
// and stores the result
func (c *CachedJudge) Judge(ctx context.Context, req Request) (model.Judgment, error) {
	if req.Sampling.Temperature != 0 {
		return c.inner.Judge(ctx, req)
	}

	key := cache.JudgmentKey(req.ClaimText, req.Requirement.ID, c.model, req.Sampling.Temperature)

	if data, found := c.store.Get(key); found {
		var judgment model.Judgment
		if err := json.Unmarshal(data, &judgment); err == nil {
			return judgment, nil
		}
		// Corrupt entry: drop it and re-judge
		_ = c.store.Delete(key)
	}

	judgment, err := c.inner.Judge(ctx, req)
	if err != nil {
		return model.Judgment{}, err
	}

	if data, err := json.Marshal(judgment); err == nil {
		_ = c.store.Set(key, data, c.ttl)
	}

	return judgment, nil
}
