// Package cache provides the layered judgment cache: re-reviewing an
// unchanged corpus must not re-spend judge calls.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// JudgmentKey derives a stable cache key for one judgment call. The key
// covers everything that can change the judge's answer: claim text,
// requirement definition, model, and sampling temperature.
func JudgmentKey(claimText, requirementID, model string, temperature float32) string {
	hash := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%s\x00%.3f", claimText, requirementID, model, temperature))
	return "lacuna:v1:" + hex.EncodeToString(hash[:])
}
