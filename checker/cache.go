package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisSignatureCache caches corpus MinHash signatures in Redis keyed by
// "sig:<paramsID>:<corpusID>". Signatures are 61-bit integers, so they are
// serialized as comma-joined decimals rather than JSON numbers. Failures are
// logged and treated as cache misses; the checker recomputes from disk.
type RedisSignatureCache struct {
	rdb    *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func NewRedisSignatureCache(rdb *redis.Client, logger *zap.Logger, ttl time.Duration) *RedisSignatureCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSignatureCache{rdb: rdb, logger: logger, ttl: ttl}
}

func cacheKey(paramsID, corpusID int) string {
	return fmt.Sprintf("sig:%d:%d", paramsID, corpusID)
}

func (c *RedisSignatureCache) Get(ctx context.Context, paramsID, corpusID int) ([]uint64, bool) {
	val, err := c.rdb.Get(ctx, cacheKey(paramsID, corpusID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("signature cache read failed", zap.Error(err))
		return nil, false
	}
	parts := strings.Split(val, ",")
	sig := make([]uint64, 0, len(parts))
	for _, p := range parts {
		v, parseErr := strconv.ParseUint(p, 10, 64)
		if parseErr != nil {
			c.logger.Warn("signature cache entry corrupt",
				zap.Int("corpus_id", corpusID), zap.Error(parseErr))
			return nil, false
		}
		sig = append(sig, v)
	}
	return sig, true
}

func (c *RedisSignatureCache) Put(ctx context.Context, paramsID, corpusID int, sig []uint64) {
	parts := make([]string, len(sig))
	for i, v := range sig {
		parts[i] = strconv.FormatUint(v, 10)
	}
	if err := c.rdb.Set(ctx, cacheKey(paramsID, corpusID), strings.Join(parts, ","), c.ttl).Err(); err != nil {
		c.logger.Warn("signature cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached signature of a corpus document, across all
// parameter generations. Called when the document's text or active flag
// changes.
func (c *RedisSignatureCache) Invalidate(ctx context.Context, corpusID int) {
	pattern := fmt.Sprintf("sig:*:%d", corpusID)
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("signature cache invalidation failed",
				zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("signature cache scan failed", zap.Error(err))
	}
}
