package judge

import (
	"fmt"
	"strings"
	"time"

	"lacuna/internal/cache"
	"lacuna/internal/model"
)

// New creates a judge from configuration, wiring in the judgment cache and
// rate limiter when enabled
func New(cfg *model.Config) (Judge, error) {
	base, err := newProvider(cfg.Judge)
	if err != nil {
		return nil, err
	}

	var j Judge = base

	if cfg.Judge.RequestsPerSecond > 0 {
		j = NewThrottled(j, cfg.Judge.RequestsPerSecond)
	}

	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		store := cache.NewLayeredCache(30*time.Minute, cfg.Cache.Dir, cfg.Cache.TTL)
		j = NewCached(j, store, cfg.Judge.Model, cfg.Cache.TTL)
	}

	return j, nil
}

func newProvider(cfg model.JudgeConfig) (Judge, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIJudge(cfg)

	default:
		return nil, fmt.Errorf("unknown judge provider: %s (supported: openai)", cfg.Provider)
	}
}
