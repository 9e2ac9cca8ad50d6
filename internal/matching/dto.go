// internal/matching/dto.go
package matching

// DTOs for API requests/responses

type CreateMatchRequestDTO struct {
    ExhibitionID     int64    `json:"exhibition_id" validate:"required"`
    PreferredDate    string   `json:"preferred_date" validate:"required"`
    TimeSlot         string   `json:"time_slot" validate:"required,oneof=morning afternoon evening"`
    PreferredTypes   []string `json:"preferred_types,omitempty"`
    MinAge           int      `json:"min_age,omitempty" validate:"omitempty,min=18,max=99"`
    MaxAge           int      `json:"max_age,omitempty" validate:"omitempty,min=18,max=99"`
    GenderPreference string   `json:"gender_preference,omitempty" validate:"omitempty,oneof=any male female"`
    MaxDistanceKm    float64  `json:"max_distance_km,omitempty" validate:"omitempty,gt=0,max=500"`
    Languages        []string `json:"languages,omitempty"`
    Interests        []string `json:"interests,omitempty"`
    ExperienceLevel  string   `json:"experience_level,omitempty" validate:"omitempty,oneof=any beginner intermediate expert"`
}

type DecideMatchDTO struct {
    CandidateUserID int64 `json:"candidate_user_id" validate:"required"`
}

type SubmitFeedbackDTO struct {
    Rating  int    `json:"rating" validate:"required,min=1,max=5"`
    Comment string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

type MatchListResponse struct {
    RequestID  string            `json:"request_id"`
    Candidates []ScoredCandidate `json:"candidates"`
    FromCache  bool              `json:"from_cache"`
}
