package matching

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

// candidateLimit caps how many candidates one scoring round considers.
const candidateLimit = 100

type Repository interface {
    // Match requests
    CreateMatchRequest(ctx context.Context, req *MatchRequest) error
    GetMatchRequest(ctx context.Context, id string) (*MatchRequest, error)
    GetRequestStatus(ctx context.Context, id string) (string, error)
    HasOpenRequest(ctx context.Context, hostUserID, exhibitionID int64) (bool, error)

    // State transitions
    AcceptMatchRequest(ctx context.Context, id string, candidateUserID int64) (bool, error)
    ExpireRequestIfOpen(ctx context.Context, id string, reason string) (bool, error)
    ExpireStaleRequests(ctx context.Context, now time.Time) (int64, error)
    CompleteElapsedRequests(ctx context.Context, now time.Time) (int64, error)

    // Outcomes & audit
    RecordOutcome(ctx context.Context, outcome *MatchOutcome) error
    RecordRejection(ctx context.Context, requestID string, candidateUserID, rejectedBy int64, reason string) error
    ListRejectedUsers(ctx context.Context, requestID string) ([]int64, error)
    RecordFeedback(ctx context.Context, feedback *MatchFeedback) error

    // Candidate retrieval
    FindCandidates(ctx context.Context, req *MatchRequest, allowedTypes []TypeCode, excludeUsers []int64) ([]Candidate, error)

    // Reporting
    GetAnalytics(ctx context.Context, hostUserID int64) (*AnalyticsSummary, error)
}

type postgresRepository struct {
    db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
    return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateMatchRequest(ctx context.Context, req *MatchRequest) error {
    criteriaJSON, err := json.Marshal(req.Criteria)
    if err != nil {
        return fmt.Errorf("failed to encode criteria: %w", err)
    }

    query := `
        INSERT INTO match_requests (
            id, host_user_id, exhibition_id, preferred_date, time_slot,
            matching_criteria, status, host_lat, host_lng, expires_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING created_at
    `

    return r.db.QueryRowxContext(
        ctx, query,
        req.ID, req.HostUserID, req.ExhibitionID, req.PreferredDate, req.TimeSlot,
        criteriaJSON, req.Status, req.HostLat, req.HostLng, req.ExpiresAt,
    ).Scan(&req.CreatedAt)
}

func (r *postgresRepository) GetMatchRequest(ctx context.Context, id string) (*MatchRequest, error) {
    var req MatchRequest
    query := `SELECT * FROM match_requests WHERE id = $1`

    err := r.db.QueryRowxContext(ctx, query, id).StructScan(&req)
    if err == sql.ErrNoRows {
        return nil, ErrRequestNotFound
    }
    if err != nil {
        return nil, err
    }

    if len(req.CriteriaJSON) > 0 {
        if err := json.Unmarshal(req.CriteriaJSON, &req.Criteria); err != nil {
            return nil, fmt.Errorf("failed to decode criteria: %w", err)
        }
    }
    return &req, nil
}

func (r *postgresRepository) GetRequestStatus(ctx context.Context, id string) (string, error) {
    var status string
    err := r.db.GetContext(ctx, &status, `SELECT status FROM match_requests WHERE id = $1`, id)
    if err == sql.ErrNoRows {
        return "", ErrRequestNotFound
    }
    return status, err
}

func (r *postgresRepository) HasOpenRequest(ctx context.Context, hostUserID, exhibitionID int64) (bool, error) {
    var exists bool
    query := `
        SELECT EXISTS(
            SELECT 1 FROM match_requests
            WHERE host_user_id = $1 AND exhibition_id = $2 AND status = 'open'
        )
    `
    err := r.db.GetContext(ctx, &exists, query, hostUserID, exhibitionID)
    return exists, err
}

// AcceptMatchRequest performs the single contended write of the engine: a
// conditional update that only succeeds while the request is still open, so
// exactly one of two concurrent accepts wins.
func (r *postgresRepository) AcceptMatchRequest(ctx context.Context, id string, candidateUserID int64) (bool, error) {
    query := `
        UPDATE match_requests
        SET matched_user_id = $2, status = 'matched', matched_at = CURRENT_TIMESTAMP
        WHERE id = $1 AND status = 'open'
    `
    result, err := r.db.ExecContext(ctx, query, id, candidateUserID)
    if err != nil {
        return false, err
    }
    rows, err := result.RowsAffected()
    return rows == 1, err
}

func (r *postgresRepository) ExpireRequestIfOpen(ctx context.Context, id string, reason string) (bool, error) {
    query := `
        UPDATE match_requests
        SET status = 'expired', status_reason = $2
        WHERE id = $1 AND status = 'open'
    `
    result, err := r.db.ExecContext(ctx, query, id, reason)
    if err != nil {
        return false, err
    }
    rows, err := result.RowsAffected()
    return rows == 1, err
}

func (r *postgresRepository) ExpireStaleRequests(ctx context.Context, now time.Time) (int64, error) {
    query := `
        UPDATE match_requests
        SET status = 'expired', status_reason = 'ttl elapsed'
        WHERE status = 'open' AND expires_at < $1
    `
    result, err := r.db.ExecContext(ctx, query, now)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

func (r *postgresRepository) CompleteElapsedRequests(ctx context.Context, now time.Time) (int64, error) {
    query := `
        UPDATE match_requests
        SET status = 'completed'
        WHERE status = 'matched' AND preferred_date < $1
    `
    result, err := r.db.ExecContext(ctx, query, now)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}

func (r *postgresRepository) RecordOutcome(ctx context.Context, outcome *MatchOutcome) error {
    query := `
        INSERT INTO match_outcomes (request_id, candidate_id, decision, decided_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
    return r.db.QueryRowxContext(
        ctx, query,
        outcome.RequestID, outcome.CandidateID, outcome.Decision, outcome.DecidedBy,
    ).Scan(&outcome.ID, &outcome.CreatedAt)
}

func (r *postgresRepository) RecordRejection(ctx context.Context, requestID string, candidateUserID, rejectedBy int64, reason string) error {
    query := `
        INSERT INTO match_rejections (request_id, candidate_user_id, rejected_by, reason)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (request_id, candidate_user_id) DO NOTHING
    `
    _, err := r.db.ExecContext(ctx, query, requestID, candidateUserID, rejectedBy, reason)
    return err
}

func (r *postgresRepository) ListRejectedUsers(ctx context.Context, requestID string) ([]int64, error) {
    var users []int64
    query := `SELECT candidate_user_id FROM match_rejections WHERE request_id = $1`
    err := r.db.SelectContext(ctx, &users, query, requestID)
    return users, err
}

func (r *postgresRepository) RecordFeedback(ctx context.Context, feedback *MatchFeedback) error {
    query := `
        INSERT INTO match_feedback (request_id, rater_user_id, target_user_id, rating, comment)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (request_id, rater_user_id)
        DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment
        RETURNING id, created_at
    `
    return r.db.QueryRowxContext(
        ctx, query,
        feedback.RequestID, feedback.RaterUserID, feedback.TargetUserID,
        feedback.Rating, feedback.Comment,
    ).Scan(&feedback.ID, &feedback.CreatedAt)
}

// FindCandidates applies the hard filters in SQL: not the host, active, type
// in the resolved allow-list, age and gender within criteria, not already
// matched for this exhibition, not previously rejected for this request, and
// within the host's maximum distance. Ordered nearest-first and capped.
func (r *postgresRepository) FindCandidates(ctx context.Context, req *MatchRequest, allowedTypes []TypeCode, excludeUsers []int64) ([]Candidate, error) {
    types := make([]string, len(allowedTypes))
    for i, t := range allowedTypes {
        types[i] = string(t)
    }
    if excludeUsers == nil {
        excludeUsers = []int64{}
    }

    query := `
        SELECT * FROM (
            SELECT u.id AS user_id, u.nickname, p.type_code, u.age, u.gender,
                   u.is_premium,
                   (p.profile_image_url IS NOT NULL) AS has_profile_image,
                   u.created_at,
                   6371 * acos(least(1.0,
                       cos(radians($2)) * cos(radians(u.latitude)) *
                       cos(radians(u.longitude) - radians($3)) +
                       sin(radians($2)) * sin(radians(u.latitude))
                   )) AS distance_km
            FROM users u
            JOIN user_profiles p ON p.user_id = u.id
            WHERE u.id != $1
              AND u.is_active = TRUE
              AND p.type_code = ANY($4)
              AND u.age BETWEEN $5 AND $6
              AND ($7 = 'any' OR u.gender = $7)
              AND u.id != ALL($8)
              AND NOT EXISTS (
                  SELECT 1 FROM match_requests mr
                  WHERE mr.matched_user_id = u.id
                    AND mr.exhibition_id = $9
                    AND mr.status IN ('matched', 'completed')
              )
        ) c
        WHERE c.distance_km <= $10
        ORDER BY c.distance_km ASC
        LIMIT $11
    `

    var candidates []Candidate
    err := r.db.SelectContext(ctx, &candidates, query,
        req.HostUserID,
        req.HostLat,
        req.HostLng,
        pq.Array(types),
        req.Criteria.AgeRange.Min,
        req.Criteria.AgeRange.Max,
        req.Criteria.GenderPreference,
        pq.Array(excludeUsers),
        req.ExhibitionID,
        req.Criteria.MaxDistanceKm,
        candidateLimit,
    )
    if err != nil {
        return nil, err
    }
    return candidates, nil
}

func (r *postgresRepository) GetAnalytics(ctx context.Context, hostUserID int64) (*AnalyticsSummary, error) {
    summary := &AnalyticsSummary{}

    query := `
        SELECT
            COUNT(*) AS request_count,
            COUNT(CASE WHEN status IN ('matched', 'completed') THEN 1 END) AS successful_matches,
            COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed_matches,
            COALESCE(AVG(EXTRACT(EPOCH FROM (matched_at - created_at)) / 3600), 0) AS avg_time_to_match_hours
        FROM match_requests
        WHERE host_user_id = $1
    `
    err := r.db.QueryRowxContext(ctx, query, hostUserID).Scan(
        &summary.RequestCount,
        &summary.SuccessfulMatches,
        &summary.CompletedMatches,
        &summary.AvgTimeToMatchHrs,
    )
    if err != nil {
        return nil, err
    }

    feedbackQuery := `
        SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS feedback_count
        FROM match_feedback
        WHERE target_user_id = $1
    `
    err = r.db.QueryRowxContext(ctx, feedbackQuery, hostUserID).Scan(
        &summary.AvgRating,
        &summary.FeedbackCount,
    )
    if err != nil {
        return nil, err
    }

    if summary.RequestCount > 0 {
        summary.SuccessRate = float64(summary.SuccessfulMatches) / float64(summary.RequestCount)
    }
    return summary, nil
}
