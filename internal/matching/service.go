// internal/matching/service.go

package matching

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"
)

var (
    ErrRequestNotFound     = errors.New("match request not found")
    ErrRequestNotOpen      = errors.New("match request is no longer open")
    ErrDuplicateRequest    = errors.New("an open match request already exists for this exhibition")
    ErrAlreadyMatched      = errors.New("match request has already been matched")
    ErrUnauthorized        = errors.New("unauthorized to perform this action")
    ErrProfileIncomplete   = errors.New("user has no behavioral type assigned")
    ErrFeedbackUnavailable = errors.New("feedback is only available after a match")
)

// Defaults applied when the host leaves criteria fields empty.
const (
    defaultMaxDistanceKm = 50.0
    defaultMinAge        = 18
    defaultMaxAge        = 99

    defaultCollaboratorTimeout = 3 * time.Second
)

// Enqueuer hands a request id to the background matching queue.
type Enqueuer interface {
    Enqueue(ctx context.Context, requestID string, priority int) error
}

type Service interface {
    CreateMatchRequest(ctx context.Context, hostUserID int64, dto *CreateMatchRequestDTO) (*MatchRequest, error)

    // FindCompatibleMatches serves the cached ranking when one exists and
    // scores synchronously otherwise; fromCache reports which path ran.
    FindCompatibleMatches(ctx context.Context, requestID string) (ranked []ScoredCandidate, fromCache bool, err error)
    AcceptMatch(ctx context.Context, requestID string, candidateUserID, actingUserID int64) (*MatchRequest, error)
    RejectMatch(ctx context.Context, requestID string, candidateUserID, actingUserID int64) error
    CancelMatchRequest(ctx context.Context, requestID string, actingUserID int64) error
    SubmitMatchFeedback(ctx context.Context, requestID string, actingUserID int64, dto *SubmitFeedbackDTO) (*MatchFeedback, error)
    GetMatchingAnalytics(ctx context.Context, userID int64) (*AnalyticsSummary, error)

    // ScoreRequest runs one full retrieval + scoring + adjustment round.
    // Exposed for the queue processor; callers get cached reads.
    ScoreRequest(ctx context.Context, req *MatchRequest) ([]ScoredCandidate, error)

    // Background sweeps.
    ExpireStaleRequests(ctx context.Context) (int64, error)
    CompleteElapsedMatches(ctx context.Context) (int64, error)
}

// ServiceOptions tune the collaborator deadline and the compatibility
// threshold used when the host names no preferred types. Zero values fall
// back to the defaults.
type ServiceOptions struct {
    CollaboratorTimeout    time.Duration
    CompatibilityThreshold int
}

type service struct {
    repo     Repository
    profiles ProfileLookup
    scoring  *ScoringEngine
    compat   *CompatibilityModel
    prefs    PreferenceStore
    cache    ResultCache
    queue    Enqueuer
    gateway  NotificationGateway
    now      func() time.Time

    collaboratorTimeout time.Duration
    compatThreshold     int
}

func NewService(
    repo Repository,
    profiles ProfileLookup,
    scoring *ScoringEngine,
    compat *CompatibilityModel,
    prefs PreferenceStore,
    cache ResultCache,
    queue Enqueuer,
    gateway NotificationGateway,
    opts ServiceOptions,
) Service {
    if opts.CollaboratorTimeout <= 0 {
        opts.CollaboratorTimeout = defaultCollaboratorTimeout
    }
    if opts.CompatibilityThreshold <= 0 {
        opts.CompatibilityThreshold = DefaultCompatibilityThreshold
    }
    return &service{
        repo:                repo,
        profiles:            profiles,
        scoring:             scoring,
        compat:              compat,
        prefs:               prefs,
        cache:               cache,
        queue:               queue,
        gateway:             gateway,
        now:                 time.Now,
        collaboratorTimeout: opts.CollaboratorTimeout,
        compatThreshold:     opts.CompatibilityThreshold,
    }
}

func (s *service) CreateMatchRequest(ctx context.Context, hostUserID int64, dto *CreateMatchRequestDTO) (*MatchRequest, error) {
    host, err := s.profiles.GetUserProfile(ctx, hostUserID)
    if err != nil {
        return nil, err
    }
    if !host.TypeCode.Valid() {
        return nil, ErrProfileIncomplete
    }

    criteria, err := buildCriteria(dto)
    if err != nil {
        return nil, err
    }

    preferredDate, err := time.Parse(time.RFC3339, dto.PreferredDate)
    if err != nil {
        return nil, fmt.Errorf("invalid preferred_date: %w", err)
    }

    exists, err := s.repo.HasOpenRequest(ctx, hostUserID, dto.ExhibitionID)
    if err != nil {
        return nil, err
    }
    if exists {
        return nil, ErrDuplicateRequest
    }

    now := s.now()
    req := &MatchRequest{
        ID:            uuid.NewString(),
        HostUserID:    hostUserID,
        ExhibitionID:  dto.ExhibitionID,
        PreferredDate: preferredDate,
        TimeSlot:      dto.TimeSlot,
        Criteria:      *criteria,
        Status:        StatusOpen,
        HostLat:       host.Latitude,
        HostLng:       host.Longitude,
        ExpiresAt:     now.Add(RequestTTL),
    }

    if err := s.repo.CreateMatchRequest(ctx, req); err != nil {
        return nil, err
    }
    RecordRequestCreated()

    priority := ComputePriority(now.Sub(host.CreatedAt), host.RecentActivityScore)
    if err := s.queue.Enqueue(ctx, req.ID, priority); err != nil {
        // The request exists either way; a cold FindCompatibleMatches call
        // will still score it synchronously.
        log.Printf("matching: failed to enqueue request %s: %v", req.ID, err)
    }

    return req, nil
}

func buildCriteria(dto *CreateMatchRequestDTO) (*MatchCriteria, error) {
    criteria := &MatchCriteria{
        AgeRange:         AgeRange{Min: defaultMinAge, Max: defaultMaxAge},
        GenderPreference: "any",
        MaxDistanceKm:    defaultMaxDistanceKm,
        Languages:        dto.Languages,
        Interests:        dto.Interests,
        ExperienceLevel:  "any",
    }

    for _, raw := range dto.PreferredTypes {
        t, err := ParseTypeCode(raw)
        if err != nil {
            return nil, err
        }
        criteria.AllowedTypes = append(criteria.AllowedTypes, t)
    }

    if dto.MinAge != 0 {
        criteria.AgeRange.Min = dto.MinAge
    }
    if dto.MaxAge != 0 {
        criteria.AgeRange.Max = dto.MaxAge
    }
    if criteria.AgeRange.Min > criteria.AgeRange.Max {
        return nil, fmt.Errorf("invalid age range: min %d exceeds max %d", criteria.AgeRange.Min, criteria.AgeRange.Max)
    }
    if dto.GenderPreference != "" {
        criteria.GenderPreference = dto.GenderPreference
    }
    if dto.MaxDistanceKm > 0 {
        criteria.MaxDistanceKm = dto.MaxDistanceKm
    }
    if dto.ExperienceLevel != "" {
        criteria.ExperienceLevel = dto.ExperienceLevel
    }
    return criteria, nil
}

func (s *service) FindCompatibleMatches(ctx context.Context, requestID string) ([]ScoredCandidate, bool, error) {
    ranked, hit, err := s.cache.Get(ctx, requestID)
    if err != nil {
        log.Printf("matching: result cache read failed for %s: %v", requestID, err)
    }
    if hit {
        return ranked, true, nil
    }

    req, err := s.repo.GetMatchRequest(ctx, requestID)
    if err != nil {
        return nil, false, err
    }
    if req.Status != StatusOpen {
        return nil, false, ErrRequestNotOpen
    }

    ranked, err = s.ScoreRequest(ctx, req)
    if err != nil {
        return nil, false, err
    }
    if err := s.cache.Put(ctx, requestID, ranked, ResultTTL); err != nil {
        log.Printf("matching: result cache write failed for %s: %v", requestID, err)
    }
    return ranked, false, nil
}

// ScoreRequest resolves the type allow-list, retrieves candidates, scores
// them, folds in learned preferences, and ranks. A timed-out candidate
// lookup is treated as an empty round, not a failure.
func (s *service) ScoreRequest(ctx context.Context, req *MatchRequest) ([]ScoredCandidate, error) {
    host, err := s.profiles.GetUserProfile(ctx, req.HostUserID)
    if err != nil {
        return nil, err
    }

    allowed, err := s.resolveAllowedTypes(host.TypeCode, req.Criteria.AllowedTypes)
    if err != nil {
        return nil, err
    }

    rejected, err := s.repo.ListRejectedUsers(ctx, req.ID)
    if err != nil {
        log.Printf("matching: failed to load rejections for %s: %v", req.ID, err)
        rejected = nil
    }

    lookupCtx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
    defer cancel()
    candidates, err := s.repo.FindCandidates(lookupCtx, req, allowed, rejected)
    if err != nil {
        log.Printf("matching: candidate lookup failed for %s, scoring empty round: %v", req.ID, err)
        candidates = nil
    }

    scored := s.scoring.ScoreCandidates(ctx, req, host, candidates)

    adjustments, err := s.prefs.Adjustments(ctx, req.HostUserID)
    if err != nil {
        log.Printf("matching: preference lookup failed for host %d: %v", req.HostUserID, err)
    } else {
        scored = adjustments.Apply(scored)
    }

    return RankCandidates(scored), nil
}

func (s *service) resolveAllowedTypes(hostType TypeCode, preferred []TypeCode) ([]TypeCode, error) {
    if len(preferred) > 0 {
        valid := make([]TypeCode, 0, len(preferred))
        for _, t := range preferred {
            if t.Valid() {
                valid = append(valid, t)
            }
        }
        if len(valid) > 0 {
            return valid, nil
        }
    }
    return s.compat.CompatibleTypes(hostType, s.compatThreshold)
}

// AcceptMatch transitions open -> matched. Only the host or the named
// candidate may accept; exactly one accept succeeds under contention, and a
// repeat accept of the winning candidate is an idempotent success.
func (s *service) AcceptMatch(ctx context.Context, requestID string, candidateUserID, actingUserID int64) (*MatchRequest, error) {
    req, err := s.repo.GetMatchRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }

    if actingUserID != req.HostUserID && actingUserID != candidateUserID {
        return nil, ErrUnauthorized
    }

    switch req.Status {
    case StatusOpen:
        // fall through to the conditional update
    case StatusMatched, StatusCompleted:
        if req.MatchedUserID != nil && *req.MatchedUserID == candidateUserID {
            return req, nil
        }
        return nil, ErrAlreadyMatched
    default:
        return nil, ErrRequestNotOpen
    }

    won, err := s.repo.AcceptMatchRequest(ctx, requestID, candidateUserID)
    if err != nil {
        return nil, err
    }
    if !won {
        // Lost the race: surface the post-transition state.
        current, err := s.repo.GetMatchRequest(ctx, requestID)
        if err != nil {
            return nil, err
        }
        if current.Status == StatusMatched && current.MatchedUserID != nil && *current.MatchedUserID == candidateUserID {
            return current, nil
        }
        if current.Status == StatusMatched || current.Status == StatusCompleted {
            return nil, ErrAlreadyMatched
        }
        return nil, ErrRequestNotOpen
    }
    RecordMatchConfirmed()

    outcome := &MatchOutcome{
        RequestID:   requestID,
        CandidateID: candidateUserID,
        Decision:    DecisionAccept,
        DecidedBy:   actingUserID,
    }
    if err := s.repo.RecordOutcome(ctx, outcome); err != nil {
        log.Printf("matching: failed to record accept outcome for %s: %v", requestID, err)
    }

    s.learn(ctx, req.HostUserID, candidateUserID, DecisionAccept)

    s.notifyConfirmed(ctx, requestID, []int64{req.HostUserID, candidateUserID})

    return s.repo.GetMatchRequest(ctx, requestID)
}

// RejectMatch records a negative outcome without changing the request's own
// status: the host can still match with someone else, but the rejected
// candidate is excluded from future rounds of this request.
func (s *service) RejectMatch(ctx context.Context, requestID string, candidateUserID, actingUserID int64) error {
    req, err := s.repo.GetMatchRequest(ctx, requestID)
    if err != nil {
        return err
    }

    if actingUserID != req.HostUserID && actingUserID != candidateUserID {
        return ErrUnauthorized
    }

    if err := s.repo.RecordRejection(ctx, requestID, candidateUserID, actingUserID, "user_rejection"); err != nil {
        return err
    }
    RecordMatchRejected()

    outcome := &MatchOutcome{
        RequestID:   requestID,
        CandidateID: candidateUserID,
        Decision:    DecisionReject,
        DecidedBy:   actingUserID,
    }
    if err := s.repo.RecordOutcome(ctx, outcome); err != nil {
        log.Printf("matching: failed to record reject outcome for %s: %v", requestID, err)
    }

    s.learn(ctx, actingUserID, candidateUserID, DecisionReject)
    return nil
}

// CancelMatchRequest lets the host abandon an open request; it transitions
// to expired immediately and the queue will notice before notifying anyone.
func (s *service) CancelMatchRequest(ctx context.Context, requestID string, actingUserID int64) error {
    req, err := s.repo.GetMatchRequest(ctx, requestID)
    if err != nil {
        return err
    }
    if actingUserID != req.HostUserID {
        return ErrUnauthorized
    }
    if req.Status != StatusOpen {
        return ErrRequestNotOpen
    }

    expired, err := s.repo.ExpireRequestIfOpen(ctx, requestID, "cancelled by host")
    if err != nil {
        return err
    }
    if !expired {
        return ErrRequestNotOpen
    }
    return nil
}

// SubmitMatchFeedback records a post-visit rating of the other party. Only
// the two matched users may rate, and only once the match is locked in.
func (s *service) SubmitMatchFeedback(ctx context.Context, requestID string, actingUserID int64, dto *SubmitFeedbackDTO) (*MatchFeedback, error) {
    req, err := s.repo.GetMatchRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if req.Status != StatusMatched && req.Status != StatusCompleted {
        return nil, ErrFeedbackUnavailable
    }
    if req.MatchedUserID == nil {
        return nil, ErrFeedbackUnavailable
    }

    var targetUserID int64
    switch actingUserID {
    case req.HostUserID:
        targetUserID = *req.MatchedUserID
    case *req.MatchedUserID:
        targetUserID = req.HostUserID
    default:
        return nil, ErrUnauthorized
    }

    feedback := &MatchFeedback{
        RequestID:    requestID,
        RaterUserID:  actingUserID,
        TargetUserID: targetUserID,
        Rating:       dto.Rating,
        Comment:      dto.Comment,
    }
    if err := s.repo.RecordFeedback(ctx, feedback); err != nil {
        return nil, err
    }
    return feedback, nil
}

func (s *service) GetMatchingAnalytics(ctx context.Context, userID int64) (*AnalyticsSummary, error) {
    return s.repo.GetAnalytics(ctx, userID)
}

func (s *service) ExpireStaleRequests(ctx context.Context) (int64, error) {
    return s.repo.ExpireStaleRequests(ctx, s.now())
}

func (s *service) CompleteElapsedMatches(ctx context.Context) (int64, error) {
    return s.repo.CompleteElapsedRequests(ctx, s.now())
}

// learn updates the preference store with an accept/reject signal for both
// the specific target user and their behavioral type.
func (s *service) learn(ctx context.Context, userID, targetUserID int64, decision Decision) {
    var targetType TypeCode
    if target, err := s.profiles.GetUserProfile(ctx, targetUserID); err == nil {
        targetType = target.TypeCode
    }
    if err := s.prefs.Adjust(ctx, userID, targetUserID, targetType, decision); err != nil {
        log.Printf("matching: preference update failed for user %d: %v", userID, err)
    }
}

// notifyConfirmed informs both parties. Delivery failures are logged and
// retried once; they never block the state transition that triggered them.
func (s *service) notifyConfirmed(ctx context.Context, requestID string, userIDs []int64) {
    notifyCtx, cancel := context.WithTimeout(ctx, s.collaboratorTimeout)
    defer cancel()

    if err := s.gateway.NotifyMatchConfirmed(notifyCtx, requestID, userIDs); err != nil {
        log.Printf("matching: confirmation notify failed for %s, retrying once: %v", requestID, err)
        if err := s.gateway.NotifyMatchConfirmed(notifyCtx, requestID, userIDs); err != nil {
            log.Printf("matching: confirmation notify retry failed for %s: %v", requestID, err)
        }
    }
}

// ComputePriority ranks queue entries: everyone starts at 50, young accounts
// get a discovery boost, and highly active hosts jump ahead.
func ComputePriority(accountAge time.Duration, recentActivityScore int) int {
    priority := 50
    if accountAge < 7*24*time.Hour {
        priority += 20
    }
    if recentActivityScore > 80 {
        priority += 15
    }
    return priority
}
