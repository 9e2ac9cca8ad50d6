package matching

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    "github.com/go-redis/redis/v8"
)

// ResultTTL is how long a ranked result set stays valid. Entries are only
// ever invalidated by expiry, never mutated in place.
const ResultTTL = time.Hour

// ResultCache stores the ranked candidate list per request id.
type ResultCache interface {
    Put(ctx context.Context, requestID string, ranked []ScoredCandidate, ttl time.Duration) error
    Get(ctx context.Context, requestID string) ([]ScoredCandidate, bool, error)
}

type redisResultCache struct {
    client *redis.Client
}

func NewRedisResultCache(client *redis.Client) ResultCache {
    return &redisResultCache{client: client}
}

func resultKey(requestID string) string {
    return "matching:results:" + requestID
}

func (c *redisResultCache) Put(ctx context.Context, requestID string, ranked []ScoredCandidate, ttl time.Duration) error {
    payload, err := json.Marshal(ranked)
    if err != nil {
        return fmt.Errorf("failed to encode ranked results: %w", err)
    }
    if err := c.client.Set(ctx, resultKey(requestID), payload, ttl).Err(); err != nil {
        return fmt.Errorf("failed to cache ranked results: %w", err)
    }
    return nil
}

func (c *redisResultCache) Get(ctx context.Context, requestID string) ([]ScoredCandidate, bool, error) {
    payload, err := c.client.Get(ctx, resultKey(requestID)).Bytes()
    if err == redis.Nil {
        return nil, false, nil
    }
    if err != nil {
        return nil, false, fmt.Errorf("failed to read cached results: %w", err)
    }

    var ranked []ScoredCandidate
    if err := json.Unmarshal(payload, &ranked); err != nil {
        return nil, false, fmt.Errorf("failed to decode cached results: %w", err)
    }
    return ranked, true, nil
}
