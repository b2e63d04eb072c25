// Package cache stores raw oracle verifications and fetched documents so
// repeated audits do not spend session budget.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/proofpilot/internal/model"
)

const keyPrefix = "proofpilot:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// VerificationKey identifies a raw verification by oracle, category and
// normalized claim text. Claim IDs are positional and deliberately excluded.
func VerificationKey(oracle string, claim model.Claim) string {
	norm := strings.Join(strings.Fields(strings.ToLower(claim.Text)), " ")
	return hashKey("verify", oracle+"|"+strings.ToLower(claim.Category)+"|"+norm)
}

// DocumentKey identifies a fetched document by URL
func DocumentKey(url string) string {
	return hashKey("doc", url)
}

func hashKey(kind, payload string) string {
	hash := sha256.Sum256([]byte(payload))
	return keyPrefix + kind + ":" + hex.EncodeToString(hash[:])
}

// GetJSON decodes a cached JSON value into v. Undecodable entries count as misses.
func GetJSON(c Cache, key string, v any) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON stores v as JSON
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}

// New builds the cache described by cfg: layered memory+disk, memory only
// when no directory is configured, or a no-op cache when disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(string) ([]byte, bool) { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error { return nil }
func (Noop) Clear() error { return nil }
