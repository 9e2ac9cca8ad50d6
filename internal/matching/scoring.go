package matching

import (
    "context"
    "math"
    "sort"
    "sync"
    "time"
)

// Composite weights. They sum to 100; the weighted factor sum is the base
// score before bonus and learned adjustments.
const (
    weightTypeCompatibility = 40
    weightLocation          = 20
    weightTime              = 15
    weightInterests         = 10
    weightExperience        = 8
    weightSocialActivity    = 7
)

const (
    // ScoreCutoff is the minimum composite score a candidate needs to be
    // returned at all.
    ScoreCutoff = 60

    // MaxRankedResults caps the ranked list per request.
    MaxRankedResults = 20

    // Fallback sub-scores when a user has no history to compare.
    defaultTimeScore     = 75
    defaultInterestScore = 70

    // Account age under which a candidate earns the new-account bonus.
    newAccountWindow = 30 * 24 * time.Hour

    maxScoreWorkers = 8
)

// ScoringEngine combines type compatibility, proximity, temporal overlap,
// interest similarity, experience similarity and activity recency into one
// composite score per candidate.
type ScoringEngine struct {
    compat  *CompatibilityModel
    history InteractionHistory
}

func NewScoringEngine(compat *CompatibilityModel, history InteractionHistory) *ScoringEngine {
    return &ScoringEngine{compat: compat, history: history}
}

// ScoreCandidates scores every candidate against the request. Candidates are
// independent, so scoring fans out across a small worker pool and the caller
// ranks the collected results afterwards.
func (e *ScoringEngine) ScoreCandidates(ctx context.Context, req *MatchRequest, host *UserProfile, candidates []Candidate) []ScoredCandidate {
    if len(candidates) == 0 {
        return nil
    }

    hostVector, err := e.history.GetCategoryVector(ctx, host.ID)
    if err != nil {
        hostVector = nil
    }
    hostVisits, err := e.history.GetVisitCount(ctx, host.ID)
    if err != nil {
        hostVisits = -1
    }

    scored := make([]ScoredCandidate, len(candidates))

    var wg sync.WaitGroup
    sem := make(chan struct{}, maxScoreWorkers)
    for i := range candidates {
        wg.Add(1)
        sem <- struct{}{}
        go func(i int) {
            defer wg.Done()
            defer func() { <-sem }()
            score, factors := e.scoreOne(ctx, req, host, hostVector, hostVisits, &candidates[i])
            scored[i] = ScoredCandidate{
                Candidate:  candidates[i],
                MatchScore: score,
                Factors:    factors,
            }
        }(i)
    }
    wg.Wait()

    for i := range scored {
        RecordMatchScore(scored[i].MatchScore)
    }
    return scored
}

func (e *ScoringEngine) scoreOne(ctx context.Context, req *MatchRequest, host *UserProfile, hostVector map[string]int, hostVisits int, c *Candidate) (int, *ScoreFactors) {
    factors := &ScoreFactors{}

    // Unknown pairs fall back to a neutral 50 rather than zeroing the
    // dominant term; candidates are pre-filtered to valid codes anyway.
    typeScore, err := e.compat.Score(host.TypeCode, c.TypeCode)
    if err != nil {
        typeScore = 50
    }
    factors.TypeCompatibility = typeScore

    factors.Location = locationScore(c.DistanceKm, req.Criteria.MaxDistanceKm)
    factors.Time = e.timeScore(ctx, host.ID, c.UserID, req.TimeSlot)
    factors.Interests = e.interestScore(ctx, hostVector, c.UserID)
    factors.Experience = e.experienceScore(ctx, hostVisits, c.UserID)
    factors.SocialActivity = e.socialActivityScore(ctx, c.UserID)
    factors.Bonus = bonusScore(c)

    total := float64(factors.TypeCompatibility)*weightTypeCompatibility/100 +
        float64(factors.Location)*weightLocation/100 +
        float64(factors.Time)*weightTime/100 +
        float64(factors.Interests)*weightInterests/100 +
        float64(factors.Experience)*weightExperience/100 +
        float64(factors.SocialActivity)*weightSocialActivity/100

    score := int(math.Round(total)) + factors.Bonus
    return clampScore(score), factors
}

// locationScore decays piecewise with distance: close candidates score full
// marks, the tail declines linearly toward 20 as distance approaches the
// host's maximum, and anything beyond the maximum scores zero.
func locationScore(distanceKm, maxDistanceKm float64) int {
    if maxDistanceKm <= 0 || distanceKm > maxDistanceKm {
        return 0
    }
    switch {
    case distanceKm <= 5:
        return 100
    case distanceKm <= 10:
        return 90
    case distanceKm <= 20:
        return 75
    case distanceKm <= 30:
        return 60
    case distanceKm <= 40:
        return 45
    }
    linear := 100 - (distanceKm/maxDistanceKm)*80
    if linear < 20 {
        linear = 20
    }
    return int(math.Round(linear))
}

// timeScore compares both users' historical preference for the requested
// slot. Users without a recorded pattern get the neutral default.
func (e *ScoringEngine) timeScore(ctx context.Context, hostID, candidateID int64, slot string) int {
    hostPref, hostOK, err := e.history.GetTimeSlotPreference(ctx, hostID, slot)
    if err != nil || !hostOK {
        return defaultTimeScore
    }
    candPref, candOK, err := e.history.GetTimeSlotPreference(ctx, candidateID, slot)
    if err != nil || !candOK {
        return defaultTimeScore
    }
    return clampScore((hostPref + candPref) / 2)
}

func (e *ScoringEngine) interestScore(ctx context.Context, hostVector map[string]int, candidateID int64) int {
    if len(hostVector) == 0 {
        return defaultInterestScore
    }
    candVector, err := e.history.GetCategoryVector(ctx, candidateID)
    if err != nil || len(candVector) == 0 {
        return defaultInterestScore
    }
    return int(math.Round(cosineSimilarity(hostVector, candVector) * 100))
}

func cosineSimilarity(a, b map[string]int) float64 {
    var dot, normA, normB float64
    for category, va := range a {
        normA += float64(va) * float64(va)
        if vb, ok := b[category]; ok {
            dot += float64(va) * float64(vb)
        }
    }
    for _, vb := range b {
        normB += float64(vb) * float64(vb)
    }
    if normA == 0 || normB == 0 {
        return 0
    }
    return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// experienceScore buckets the absolute difference in lifetime visit counts.
func (e *ScoringEngine) experienceScore(ctx context.Context, hostVisits int, candidateID int64) int {
    if hostVisits < 0 {
        return defaultTimeScore
    }
    candVisits, err := e.history.GetVisitCount(ctx, candidateID)
    if err != nil {
        return defaultTimeScore
    }
    return experienceBucket(hostVisits, candVisits)
}

func experienceBucket(hostVisits, candidateVisits int) int {
    diff := hostVisits - candidateVisits
    if diff < 0 {
        diff = -diff
    }
    switch {
    case diff <= 2:
        return 100
    case diff <= 5:
        return 85
    case diff <= 10:
        return 70
    case diff <= 20:
        return 55
    }
    return 40
}

// socialActivityScore normalizes the candidate's weighted 30-day engagement
// sum into [20,100].
func (e *ScoringEngine) socialActivityScore(ctx context.Context, candidateID int64) int {
    raw, err := e.history.GetRecentActivityScore(ctx, candidateID)
    if err != nil {
        return 60
    }
    return normalizeActivity(raw)
}

func normalizeActivity(raw int) int {
    score := raw * 2
    if score < 20 {
        return 20
    }
    if score > 100 {
        return 100
    }
    return score
}

// bonusScore grants a small additive boost: new accounts, premium members,
// and completed profiles. Never exceeds 10.
func bonusScore(c *Candidate) int {
    bonus := 0
    if time.Since(c.CreatedAt) < newAccountWindow {
        bonus += 5
    }
    if c.IsPremium {
        bonus += 3
    }
    if c.HasImage {
        bonus += 2
    }
    return bonus
}

// RankCandidates drops candidates below the cutoff, sorts by score
// descending with ascending distance as the tiebreak, and caps the list.
func RankCandidates(candidates []ScoredCandidate) []ScoredCandidate {
    ranked := make([]ScoredCandidate, 0, len(candidates))
    for _, c := range candidates {
        if c.MatchScore >= ScoreCutoff {
            ranked = append(ranked, c)
        }
    }
    sort.SliceStable(ranked, func(i, j int) bool {
        if ranked[i].MatchScore != ranked[j].MatchScore {
            return ranked[i].MatchScore > ranked[j].MatchScore
        }
        return ranked[i].DistanceKm < ranked[j].DistanceKm
    })
    if len(ranked) > MaxRankedResults {
        ranked = ranked[:MaxRankedResults]
    }
    return ranked
}

func clampScore(score int) int {
    if score < 0 {
        return 0
    }
    if score > 100 {
        return 100
    }
    return score
}
