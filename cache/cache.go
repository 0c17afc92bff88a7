// Package cache implements the spec's Cache Layer: a redis-backed
// keyed byte store for embeddings and retrieval payloads, plus a
// bounded in-process LRU used by the cross-encoder reranker.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the spec's get/set/invalidate contract over a remote
// key-value store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
	Stats() Stats
}

// Stats exposes hit/miss/bypass counters for telemetry, as the spec
// requires.
type Stats struct {
	Hits    int64
	Misses  int64
	Bypass  int64
}

// RedisCache is the production Cache backed by go-redis.
type RedisCache struct {
	rdb     *redis.Client
	hits    int64
	misses  int64
	bypass  int64
}

// NewRedisCache dials a redis server at addr with the given password
// (empty for none).
func NewRedisCache(addr, password string) *RedisCache {
	return &RedisCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}
	if err != nil {
		atomic.AddInt64(&c.bypass, 1)
		return nil, false, err
	}
	atomic.AddInt64(&c.hits, 1)
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisCache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Bypass: atomic.LoadInt64(&c.bypass),
	}
}

// Key namespaces, versioned per the spec's "cache keys must be stable
// across process restarts" guidance.
const (
	NamespaceEmbedding        = "emb:v1:"
	NamespaceSearchResults    = "search_results:v1:"
	NamespaceRetrievalPayload = "retrieval_payload:v1:"
	NamespaceDocEmbedding     = "doc_emb:v1:"
)

// EmbeddingKey hashes normalized text into the emb:v1: namespace.
func EmbeddingKey(normalizedText string) string {
	return NamespaceEmbedding + sha256Hex(normalizedText)
}

// SearchResultsKey hashes a canonical query into the search_results:v1:
// namespace.
func SearchResultsKey(canonicalQuery string) string {
	return NamespaceSearchResults + sha256Hex(canonicalQuery)
}

// RetrievalPayloadKey hashes query|statute_k|case_k into the
// retrieval_payload:v1: namespace.
func RetrievalPayloadKey(query string, statuteK, caseK int) string {
	return NamespaceRetrievalPayload + sha256Hex(fmt.Sprintf("%s|%d|%d", query, statuteK, caseK))
}

// DocEmbeddingKey addresses the permanent per-document embedding cache
// entry.
func DocEmbeddingKey(docID string) string {
	return NamespaceDocEmbedding + docID
}

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
