package model

import (
	"fmt"
	"time"
)

// Config holds the complete runtime configuration.
// Hierarchy (highest to lowest priority): CLI flags, LACUNA_* environment
// variables, ~/.lacuna/config.yaml, DefaultConfig. Unrecognized keys in the
// config file are ignored for forward compatibility.
type Config struct {
	EvidenceDecay DecayConfig       `mapstructure:"evidence_decay" yaml:"evidence_decay"`
	Consensus     ConsensusConfig   `mapstructure:"consensus" yaml:"consensus"`
	Review        ReviewConfig      `mapstructure:"review" yaml:"review"`
	Judge         JudgeConfig       `mapstructure:"judge" yaml:"judge"`
	Cache         CacheConfig       `mapstructure:"cache" yaml:"cache"`
	History       HistoryConfig     `mapstructure:"history" yaml:"history"`
	Sync          SyncConfig        `mapstructure:"sync" yaml:"sync"`
	Concurrency   ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
}

// DecayConfig controls the temporal freshness weighting of evidence
type DecayConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// HalfLifeYears is the age at which a paper retains exactly 50% weight
	HalfLifeYears float64 `mapstructure:"half_life_years" yaml:"half_life_years"`
	// DecayWeight blends raw and freshness-scaled scores; 0 is a no-op
	DecayWeight float64 `mapstructure:"decay_weight" yaml:"decay_weight"`
	// MinFreshness below which a stale-evidence advisory is attached
	MinFreshness float64 `mapstructure:"min_freshness" yaml:"min_freshness"`
	// ApplyToPillars limits decay to the named pillars; ["all"] means every pillar
	ApplyToPillars []string `mapstructure:"apply_to_pillars" yaml:"apply_to_pillars"`
}

// AppliesTo reports whether decay weighting is active for the given pillar
func (d DecayConfig) AppliesTo(pillar string) bool {
	if !d.Enabled {
		return false
	}
	for _, p := range d.ApplyToPillars {
		if p == "all" || p == pillar {
			return true
		}
	}
	return false
}

// ConsensusConfig controls multi-judge resolution of borderline claims
type ConsensusConfig struct {
	JudgeCount         int     `mapstructure:"judge_count" yaml:"judge_count"` // must be odd so ties are impossible
	AgreementThreshold float64 `mapstructure:"agreement_threshold" yaml:"agreement_threshold"`
	BorderlineLow      float64 `mapstructure:"borderline_low" yaml:"borderline_low"`
	BorderlineHigh     float64 `mapstructure:"borderline_high" yaml:"borderline_high"`
}

// ReviewConfig controls the claim review lifecycle
type ReviewConfig struct {
	// MaxAppeals bounds the rejected -> pending_review loop; at the cap
	// a claim is terminally finalized
	MaxAppeals int `mapstructure:"max_appeals" yaml:"max_appeals"`
}

// JudgeConfig configures the external judgment source
type JudgeConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// CacheConfig configures judgment response caching
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// HistoryConfig configures the version history store
type HistoryConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SyncConfig configures the CSV projection
type SyncConfig struct {
	Output string `mapstructure:"output" yaml:"output"`
}

// ConcurrencyConfig bounds parallelism
type ConcurrencyConfig struct {
	ReviewWorkers int `mapstructure:"review_workers" yaml:"review_workers"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() *Config {
	return &Config{
		EvidenceDecay: DecayConfig{
			Enabled:        false, // must be opt-in; raw scores are never mutated
			HalfLifeYears:  5.0,
			DecayWeight:    0.3,
			MinFreshness:   0.25,
			ApplyToPillars: []string{"all"},
		},
		Consensus: ConsensusConfig{
			JudgeCount:         3,
			AgreementThreshold: 0.67,
			BorderlineLow:      2.5,
			BorderlineHigh:     3.5,
		},
		Review: ReviewConfig{
			MaxAppeals: 2,
		},
		Judge: JudgeConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 2,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
			TTL:     7 * 24 * time.Hour,
		},
		History: HistoryConfig{
			Dir: "history",
		},
		Sync: SyncConfig{
			Output: "review_database.csv",
		},
		Concurrency: ConcurrencyConfig{
			ReviewWorkers: 4,
		},
	}
}

// Validate checks constraints that would make the pipeline misbehave
// rather than fail loudly
func (c *Config) Validate() error {
	if c.Consensus.JudgeCount < 1 {
		return fmt.Errorf("consensus.judge_count must be >= 1, got %d", c.Consensus.JudgeCount)
	}
	if c.Consensus.JudgeCount%2 == 0 {
		return fmt.Errorf("consensus.judge_count must be odd so majority ties are impossible, got %d", c.Consensus.JudgeCount)
	}
	if c.Consensus.AgreementThreshold < 0 || c.Consensus.AgreementThreshold > 1 {
		return fmt.Errorf("consensus.agreement_threshold must be in [0,1], got %g", c.Consensus.AgreementThreshold)
	}
	if c.Consensus.BorderlineLow > c.Consensus.BorderlineHigh {
		return fmt.Errorf("consensus borderline band is inverted: [%g, %g]",
			c.Consensus.BorderlineLow, c.Consensus.BorderlineHigh)
	}
	if c.EvidenceDecay.DecayWeight < 0 || c.EvidenceDecay.DecayWeight > 1 {
		return fmt.Errorf("evidence_decay.decay_weight must be in [0,1], got %g", c.EvidenceDecay.DecayWeight)
	}
	if c.EvidenceDecay.HalfLifeYears <= 0 {
		return fmt.Errorf("evidence_decay.half_life_years must be positive, got %g", c.EvidenceDecay.HalfLifeYears)
	}
	if c.Review.MaxAppeals < 0 {
		return fmt.Errorf("review.max_appeals must be >= 0, got %d", c.Review.MaxAppeals)
	}
	return nil
}
