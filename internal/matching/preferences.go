package matching

import (
    "context"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/go-redis/redis/v8"
)

// Preference learning constants. Accepts push a target up, rejects push it
// down with smaller magnitude; signals decay away after a week of
// inactivity so one bad stretch cannot poison a type forever.
const (
    acceptWeight = 1.0
    rejectWeight = -0.5

    userAdjustmentMultiplier = 5
    typeAdjustmentMultiplier = 3

    // MaxLearnedAdjustment bounds how far learned signals can move a
    // composite score in either direction.
    MaxLearnedAdjustment = 25

    preferenceTTL = 7 * 24 * time.Hour
)

// PreferenceStore accumulates per-user adjustment weights from past
// accept/reject outcomes. Concurrent adjustments must be commutative.
type PreferenceStore interface {
    Adjust(ctx context.Context, userID, targetUserID int64, targetType TypeCode, decision Decision) error
    Adjustments(ctx context.Context, userID int64) (*PreferenceAdjustments, error)
}

// PreferenceAdjustments is a snapshot of one user's learned weights.
type PreferenceAdjustments struct {
    Users map[int64]float64
    Types map[TypeCode]float64
}

// Apply folds the learned weights into already-scored candidates, bounding
// the per-candidate delta and re-clamping to [0,100].
func (p *PreferenceAdjustments) Apply(candidates []ScoredCandidate) []ScoredCandidate {
    if p == nil || (len(p.Users) == 0 && len(p.Types) == 0) {
        return candidates
    }
    for i := range candidates {
        delta := p.Users[candidates[i].UserID]*userAdjustmentMultiplier +
            p.Types[candidates[i].TypeCode]*typeAdjustmentMultiplier
        if delta > MaxLearnedAdjustment {
            delta = MaxLearnedAdjustment
        }
        if delta < -MaxLearnedAdjustment {
            delta = -MaxLearnedAdjustment
        }
        adjusted := clampScore(candidates[i].MatchScore + int(delta))
        candidates[i].LearningAdjustment = adjusted - candidates[i].MatchScore
        candidates[i].MatchScore = adjusted
    }
    return candidates
}

// redisPreferenceStore keeps one hash per user with user:<id> and
// type:<code> fields. HIncrByFloat keeps concurrent updates commutative and
// the rolling EXPIRE implements the decay window.
type redisPreferenceStore struct {
    client *redis.Client
}

func NewRedisPreferenceStore(client *redis.Client) PreferenceStore {
    return &redisPreferenceStore{client: client}
}

func preferenceKey(userID int64) string {
    return fmt.Sprintf("matching:preferences:%d", userID)
}

func (s *redisPreferenceStore) Adjust(ctx context.Context, userID, targetUserID int64, targetType TypeCode, decision Decision) error {
    weight := acceptWeight
    if decision == DecisionReject {
        weight = rejectWeight
    }

    key := preferenceKey(userID)
    pipe := s.client.TxPipeline()
    pipe.HIncrByFloat(ctx, key, fmt.Sprintf("user:%d", targetUserID), weight)
    if targetType.Valid() {
        pipe.HIncrByFloat(ctx, key, fmt.Sprintf("type:%s", targetType), weight)
    }
    pipe.Expire(ctx, key, preferenceTTL)

    if _, err := pipe.Exec(ctx); err != nil {
        return fmt.Errorf("failed to record preference adjustment: %w", err)
    }
    return nil
}

func (s *redisPreferenceStore) Adjustments(ctx context.Context, userID int64) (*PreferenceAdjustments, error) {
    fields, err := s.client.HGetAll(ctx, preferenceKey(userID)).Result()
    if err != nil {
        return nil, fmt.Errorf("failed to load preference adjustments: %w", err)
    }

    adj := &PreferenceAdjustments{
        Users: make(map[int64]float64),
        Types: make(map[TypeCode]float64),
    }
    for field, raw := range fields {
        weight, err := strconv.ParseFloat(raw, 64)
        if err != nil {
            continue
        }
        switch {
        case strings.HasPrefix(field, "user:"):
            id, err := strconv.ParseInt(strings.TrimPrefix(field, "user:"), 10, 64)
            if err == nil {
                adj.Users[id] = weight
            }
        case strings.HasPrefix(field, "type:"):
            if t := TypeCode(strings.TrimPrefix(field, "type:")); t.Valid() {
                adj.Types[t] = weight
            }
        }
    }
    return adj, nil
}
