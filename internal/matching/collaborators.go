package matching

import "context"

// Collaborator interfaces the engine depends on but does not implement.
// Concrete adapters live in internal/profile and internal/notification.

// ProfileLookup resolves the slice of a user profile the engine needs.
type ProfileLookup interface {
    GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error)
}

// InteractionHistory exposes a user's accumulated activity signals.
type InteractionHistory interface {
    // GetCategoryVector returns per-category interaction counts (likes by
    // artwork category). An empty map means no history.
    GetCategoryVector(ctx context.Context, userID int64) (map[string]int, error)

    // GetVisitCount returns the user's lifetime exhibition check-in count.
    GetVisitCount(ctx context.Context, userID int64) (int, error)

    // GetRecentActivityScore returns the weighted engagement sum
    // (comments*3 + shares*2 + likes*1) over the last 30 days.
    GetRecentActivityScore(ctx context.Context, userID int64) (int, error)

    // GetTimeSlotPreference returns the user's historical preference (0-100)
    // for a time slot. ok is false when the user has no recorded pattern.
    GetTimeSlotPreference(ctx context.Context, userID int64, slot string) (pref int, ok bool, err error)
}

// NotificationGateway is informed of discovery and lifecycle events.
// Implementations must be idempotent per request id: queue processing is
// at-least-once and may deliver the same event twice.
type NotificationGateway interface {
    NotifyMatchesFound(ctx context.Context, requestID string, hostUserID int64, candidates []ScoredCandidate) error
    NotifyMatchConfirmed(ctx context.Context, requestID string, userIDs []int64) error
}
