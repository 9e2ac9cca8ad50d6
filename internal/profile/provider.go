// internal/profile/provider.go
// Read-side adapters for the matching engine: profile lookup and
// interaction history. Profile writes live in the profile service; the
// matching API never mutates these tables.

package profile

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/go-redis/redis/v8"
    "github.com/jmoiron/sqlx"

    "github.com/artmateapp/artmate-backend/internal/matching"
)

var ErrUserNotFound = errors.New("user not found")

// Provider implements matching.ProfileLookup and matching.InteractionHistory
// over Postgres, with the activity time pattern read from Redis where the
// engagement tracker maintains it.
type Provider struct {
    db    *sqlx.DB
    redis *redis.Client
}

func NewProvider(db *sqlx.DB, redisClient *redis.Client) *Provider {
    return &Provider{db: db, redis: redisClient}
}

func (p *Provider) GetUserProfile(ctx context.Context, userID int64) (*matching.UserProfile, error) {
    var profile matching.UserProfile
    query := `
        SELECT u.id, u.nickname, p.type_code, u.age, u.gender,
               u.latitude, u.longitude, u.is_premium,
               (p.profile_image_url IS NOT NULL) AS has_profile_image,
               u.created_at
        FROM users u
        JOIN user_profiles p ON p.user_id = u.id
        WHERE u.id = $1
    `
    err := p.db.QueryRowxContext(ctx, query, userID).StructScan(&profile)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }

    if score, err := p.GetRecentActivityScore(ctx, userID); err == nil {
        profile.RecentActivityScore = score
    }
    return &profile, nil
}

// GetCategoryVector returns per-category like counts, the raw material for
// interest similarity.
func (p *Provider) GetCategoryVector(ctx context.Context, userID int64) (map[string]int, error) {
    rows, err := p.db.QueryxContext(ctx, `
        SELECT artwork_category, COUNT(*) AS count
        FROM user_interactions
        WHERE user_id = $1 AND interaction_type = 'like'
        GROUP BY artwork_category
    `, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    vector := make(map[string]int)
    for rows.Next() {
        var category string
        var count int
        if err := rows.Scan(&category, &count); err != nil {
            return nil, err
        }
        vector[category] = count
    }
    return vector, rows.Err()
}

func (p *Provider) GetVisitCount(ctx context.Context, userID int64) (int, error) {
    var count int
    err := p.db.GetContext(ctx, &count,
        `SELECT COUNT(*) FROM exhibition_checkins WHERE user_id = $1`, userID)
    return count, err
}

// GetRecentActivityScore returns the weighted 30-day engagement sum:
// comments count triple, shares double, likes single.
func (p *Provider) GetRecentActivityScore(ctx context.Context, userID int64) (int, error) {
    var score int
    err := p.db.GetContext(ctx, &score, `
        SELECT COALESCE(
            COUNT(CASE WHEN interaction_type = 'comment' THEN 1 END) * 3 +
            COUNT(CASE WHEN interaction_type = 'share' THEN 1 END) * 2 +
            COUNT(CASE WHEN interaction_type = 'like' THEN 1 END), 0)
        FROM user_interactions
        WHERE user_id = $1 AND created_at > NOW() - INTERVAL '30 days'
    `, userID)
    return score, err
}

// GetTimeSlotPreference reads the user's historical slot preference from the
// activity pattern hash the engagement tracker keeps in Redis.
func (p *Provider) GetTimeSlotPreference(ctx context.Context, userID int64, slot string) (int, bool, error) {
    raw, err := p.redis.HGet(ctx, fmt.Sprintf("user:activity:%d", userID), "time_pattern").Result()
    if err == redis.Nil {
        return 0, false, nil
    }
    if err != nil {
        return 0, false, err
    }

    var pattern map[string]int
    if err := json.Unmarshal([]byte(raw), &pattern); err != nil {
        return 0, false, fmt.Errorf("malformed time pattern for user %d: %w", userID, err)
    }

    pref, ok := pattern[slot]
    return pref, ok, nil
}
