package matching

import (
    "encoding/json"
    "time"
)

// Match request lifecycle. A request is created open, is matched at most
// once, and ends up completed (activity happened) or expired (never matched,
// or cancelled by the host).
const (
    StatusOpen      = "open"
    StatusMatched   = "matched"
    StatusCompleted = "completed"
    StatusExpired   = "expired"
)

// Time slots a host can request for the visit.
const (
    SlotMorning   = "morning"
    SlotAfternoon = "afternoon"
    SlotEvening   = "evening"
)

// RequestTTL is how long an open request stays eligible for matching.
const RequestTTL = 7 * 24 * time.Hour

type MatchRequest struct {
    ID            string          `json:"id" db:"id"`
    HostUserID    int64           `json:"host_user_id" db:"host_user_id"`
    ExhibitionID  int64           `json:"exhibition_id" db:"exhibition_id"`
    PreferredDate time.Time       `json:"preferred_date" db:"preferred_date"`
    TimeSlot      string          `json:"time_slot" db:"time_slot"`
    Criteria      MatchCriteria   `json:"criteria" db:"-"`
    CriteriaJSON  json.RawMessage `json:"-" db:"matching_criteria"`
    Status        string          `json:"status" db:"status"`
    StatusReason  *string         `json:"status_reason,omitempty" db:"status_reason"`
    MatchedUserID *int64          `json:"matched_user_id,omitempty" db:"matched_user_id"`
    HostLat       float64         `json:"host_lat" db:"host_lat"`
    HostLng       float64         `json:"host_lng" db:"host_lng"`
    CreatedAt     time.Time       `json:"created_at" db:"created_at"`
    ExpiresAt     time.Time       `json:"expires_at" db:"expires_at"`
    MatchedAt     *time.Time      `json:"matched_at,omitempty" db:"matched_at"`
}

// MatchCriteria are the host's hard filters. Zero values fall back to the
// defaults applied in CreateMatchRequest.
type MatchCriteria struct {
    AllowedTypes     []TypeCode `json:"allowed_types,omitempty"`
    AgeRange         AgeRange   `json:"age_range"`
    GenderPreference string     `json:"gender_preference"`
    MaxDistanceKm    float64    `json:"max_distance_km"`
    Languages        []string   `json:"languages,omitempty"`
    Interests        []string   `json:"interests,omitempty"`
    ExperienceLevel  string     `json:"experience_level"`
}

type AgeRange struct {
    Min int `json:"min"`
    Max int `json:"max"`
}

// Candidate is one user under evaluation for a request, as returned by the
// candidate query. Ephemeral; never persisted.
type Candidate struct {
    UserID     int64     `json:"user_id" db:"user_id"`
    Nickname   string    `json:"nickname" db:"nickname"`
    TypeCode   TypeCode  `json:"type_code" db:"type_code"`
    Age        int       `json:"age" db:"age"`
    Gender     string    `json:"gender" db:"gender"`
    DistanceKm float64   `json:"distance_km" db:"distance_km"`
    IsPremium  bool      `json:"is_premium" db:"is_premium"`
    HasImage   bool      `json:"has_profile_image" db:"has_profile_image"`
    CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ScoredCandidate is a Candidate with its composite score and the factor
// breakdown that produced it.
type ScoredCandidate struct {
    Candidate
    MatchScore         int           `json:"match_score"`
    LearningAdjustment int           `json:"learning_adjustment,omitempty"`
    Factors            *ScoreFactors `json:"factors,omitempty"`
}

// ScoreFactors records each sub-score (0-100, pre-weight) for transparency
// and debugging.
type ScoreFactors struct {
    TypeCompatibility int `json:"type_compatibility"`
    Location          int `json:"location"`
    Time              int `json:"time"`
    Interests         int `json:"interests"`
    Experience        int `json:"experience"`
    SocialActivity    int `json:"social_activity"`
    Bonus             int `json:"bonus"`
}

// Decision is the outcome of an accept/reject call.
type Decision string

const (
    DecisionAccept Decision = "accept"
    DecisionReject Decision = "reject"
)

// MatchOutcome is the append-only audit record behind the learning loop.
type MatchOutcome struct {
    ID          int64     `json:"id" db:"id"`
    RequestID   string    `json:"request_id" db:"request_id"`
    CandidateID int64     `json:"candidate_id" db:"candidate_id"`
    Decision    Decision  `json:"decision" db:"decision"`
    DecidedBy   int64     `json:"decided_by" db:"decided_by"`
    CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// UserProfile is the slice of a user's profile the engine needs, fetched
// through the ProfileLookup collaborator.
type UserProfile struct {
    ID                  int64     `json:"id" db:"id"`
    Nickname            string    `json:"nickname" db:"nickname"`
    TypeCode            TypeCode  `json:"type_code" db:"type_code"`
    Age                 int       `json:"age" db:"age"`
    Gender              string    `json:"gender" db:"gender"`
    Latitude            float64   `json:"latitude" db:"latitude"`
    Longitude           float64   `json:"longitude" db:"longitude"`
    IsPremium           bool      `json:"is_premium" db:"is_premium"`
    HasProfileImage     bool      `json:"has_profile_image" db:"has_profile_image"`
    RecentActivityScore int       `json:"recent_activity_score" db:"-"`
    CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// MatchFeedback is a post-visit rating of the other party. One row per
// (request, rater); a repeat submission overwrites the earlier one.
type MatchFeedback struct {
    ID           int64     `json:"id" db:"id"`
    RequestID    string    `json:"request_id" db:"request_id"`
    RaterUserID  int64     `json:"rater_user_id" db:"rater_user_id"`
    TargetUserID int64     `json:"target_user_id" db:"target_user_id"`
    Rating       int       `json:"rating" db:"rating"`
    Comment      string    `json:"comment,omitempty" db:"comment"`
    CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AnalyticsSummary is the read-only matching report for one host.
type AnalyticsSummary struct {
    RequestCount       int     `json:"request_count" db:"request_count"`
    SuccessfulMatches  int     `json:"successful_matches" db:"successful_matches"`
    CompletedMatches   int     `json:"completed_matches" db:"completed_matches"`
    SuccessRate        float64 `json:"success_rate"`
    AvgTimeToMatchHrs  float64 `json:"avg_time_to_match_hours" db:"avg_time_to_match_hours"`
    AvgRating          float64 `json:"avg_rating" db:"avg_rating"`
    FeedbackCount      int     `json:"feedback_count" db:"feedback_count"`
}
