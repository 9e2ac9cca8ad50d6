package matching

import (
    "context"
    "fmt"
    "math"
    "testing"
    "time"
)

// fakeHistory serves canned interaction signals keyed by user id.
type fakeHistory struct {
    vectors   map[int64]map[string]int
    visits    map[int64]int
    activity  map[int64]int
    timePrefs map[int64]map[string]int
}

func (f *fakeHistory) GetCategoryVector(ctx context.Context, userID int64) (map[string]int, error) {
    return f.vectors[userID], nil
}

func (f *fakeHistory) GetVisitCount(ctx context.Context, userID int64) (int, error) {
    return f.visits[userID], nil
}

func (f *fakeHistory) GetRecentActivityScore(ctx context.Context, userID int64) (int, error) {
    return f.activity[userID], nil
}

func (f *fakeHistory) GetTimeSlotPreference(ctx context.Context, userID int64, slot string) (int, bool, error) {
    prefs, ok := f.timePrefs[userID]
    if !ok {
        return 0, false, nil
    }
    pref, ok := prefs[slot]
    return pref, ok, nil
}

func TestLocationScore(t *testing.T) {
    cases := []struct {
        distance, max float64
        want          int
    }{
        {3, 50, 100},
        {5, 50, 100},
        {8, 50, 90},
        {10, 50, 90},
        {15, 50, 75},
        {25, 50, 60},
        {35, 50, 45},
        {45, 50, 28},  // 100 - 45/50*80
        {60, 50, 0},   // beyond max
        {41, 100, 67}, // 100 - 41/100*80
        {99, 100, 21},
        {10, 0, 0}, // no max configured
    }
    for _, tc := range cases {
        if got := locationScore(tc.distance, tc.max); got != tc.want {
            t.Errorf("locationScore(%v, %v) = %d, want %d", tc.distance, tc.max, got, tc.want)
        }
    }
}

func TestCosineSimilarity(t *testing.T) {
    identical := map[string]int{"painting": 3, "sculpture": 2}
    if sim := cosineSimilarity(identical, identical); math.Abs(sim-1) > 1e-9 {
        t.Errorf("identical vectors: got %v, want 1", sim)
    }

    disjoint := map[string]int{"photography": 5}
    if sim := cosineSimilarity(identical, disjoint); sim != 0 {
        t.Errorf("disjoint vectors: got %v, want 0", sim)
    }

    if sim := cosineSimilarity(nil, identical); sim != 0 {
        t.Errorf("empty vector: got %v, want 0", sim)
    }
}

func TestExperienceBucket(t *testing.T) {
    cases := []struct {
        host, candidate, want int
    }{
        {5, 5, 100},
        {5, 7, 100},
        {5, 10, 85},
        {0, 5, 85},
        {5, 15, 70},
        {5, 25, 55},
        {5, 30, 40},
        {30, 5, 40}, // symmetric
    }
    for _, tc := range cases {
        if got := experienceBucket(tc.host, tc.candidate); got != tc.want {
            t.Errorf("experienceBucket(%d, %d) = %d, want %d", tc.host, tc.candidate, got, tc.want)
        }
    }
}

func TestNormalizeActivity(t *testing.T) {
    cases := []struct{ raw, want int }{
        {0, 20},
        {5, 20},
        {10, 20},
        {15, 30},
        {40, 80},
        {50, 100},
        {500, 100},
    }
    for _, tc := range cases {
        if got := normalizeActivity(tc.raw); got != tc.want {
            t.Errorf("normalizeActivity(%d) = %d, want %d", tc.raw, got, tc.want)
        }
    }
}

func TestBonusScore(t *testing.T) {
    full := &Candidate{
        CreatedAt: time.Now().Add(-24 * time.Hour),
        IsPremium: true,
        HasImage:  true,
    }
    if got := bonusScore(full); got != 10 {
        t.Errorf("full bonus = %d, want 10", got)
    }

    none := &Candidate{CreatedAt: time.Now().Add(-365 * 24 * time.Hour)}
    if got := bonusScore(none); got != 0 {
        t.Errorf("no bonus = %d, want 0", got)
    }

    imageOnly := &Candidate{
        CreatedAt: time.Now().Add(-365 * 24 * time.Hour),
        HasImage:  true,
    }
    if got := bonusScore(imageOnly); got != 2 {
        t.Errorf("image-only bonus = %d, want 2", got)
    }
}

func TestRankCandidates(t *testing.T) {
    t.Run("drops below cutoff and sorts by score", func(t *testing.T) {
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 1}, MatchScore: 72},
            {Candidate: Candidate{UserID: 2}, MatchScore: 59},
            {Candidate: Candidate{UserID: 3}, MatchScore: 91},
            {Candidate: Candidate{UserID: 4}, MatchScore: 60},
        }
        ranked := RankCandidates(candidates)
        if len(ranked) != 3 {
            t.Fatalf("got %d candidates, want 3", len(ranked))
        }
        wantOrder := []int64{3, 1, 4}
        for i, want := range wantOrder {
            if ranked[i].UserID != want {
                t.Errorf("position %d: got user %d, want %d", i, ranked[i].UserID, want)
            }
        }
    })

    t.Run("closer candidate wins score ties", func(t *testing.T) {
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 1, DistanceKm: 12}, MatchScore: 80},
            {Candidate: Candidate{UserID: 2, DistanceKm: 4}, MatchScore: 80},
        }
        ranked := RankCandidates(candidates)
        if ranked[0].UserID != 2 {
            t.Errorf("expected closer candidate first, got user %d", ranked[0].UserID)
        }
    })

    t.Run("caps the list", func(t *testing.T) {
        var candidates []ScoredCandidate
        for i := 0; i < MaxRankedResults+5; i++ {
            candidates = append(candidates, ScoredCandidate{
                Candidate:  Candidate{UserID: int64(i)},
                MatchScore: 70 + i%20,
            })
        }
        ranked := RankCandidates(candidates)
        if len(ranked) != MaxRankedResults {
            t.Errorf("got %d candidates, want %d", len(ranked), MaxRankedResults)
        }
    })
}

func TestScoreCandidates(t *testing.T) {
    history := &fakeHistory{
        visits:   map[int64]int{1: 5, 2: 5, 3: 30},
        activity: map[int64]int{2: 50, 3: 0},
        timePrefs: map[int64]map[string]int{
            1: {SlotMorning: 80},
            2: {SlotMorning: 90},
            3: {SlotMorning: 40},
        },
    }
    engine := NewScoringEngine(NewCompatibilityModel(), history)

    host := &UserProfile{ID: 1, TypeCode: TypeLAEF}
    req := &MatchRequest{
        HostUserID: 1,
        TimeSlot:   SlotMorning,
        Criteria:   MatchCriteria{MaxDistanceKm: 50},
    }
    oldAccount := time.Now().Add(-365 * 24 * time.Hour)
    candidates := []Candidate{
        {UserID: 2, TypeCode: TypeLAEF, DistanceKm: 3, HasImage: true, CreatedAt: oldAccount},
        {UserID: 3, TypeCode: TypeSRMC, DistanceKm: 8, CreatedAt: oldAccount},
    }

    scored := engine.ScoreCandidates(context.Background(), req, host, candidates)
    if len(scored) != 2 {
        t.Fatalf("got %d scored candidates, want 2", len(scored))
    }

    // Same type, nearby, aligned schedules and experience:
    // 90*0.40 + 100*0.20 + 85*0.15 + 70*0.10 + 100*0.08 + 100*0.07 = 90.75,
    // rounded to 91 plus the profile-image bonus.
    if scored[0].MatchScore != 93 {
        t.Errorf("candidate 2 score = %d, want 93 (factors %+v)", scored[0].MatchScore, scored[0].Factors)
    }

    // Weakly compatible type, mismatched schedule and experience, inactive:
    // 50*0.40 + 90*0.20 + 60*0.15 + 70*0.10 + 40*0.08 + 20*0.07 = 58.6,
    // rounded to 59 with no bonus.
    if scored[1].MatchScore != 59 {
        t.Errorf("candidate 3 score = %d, want 59 (factors %+v)", scored[1].MatchScore, scored[1].Factors)
    }

    ranked := RankCandidates(scored)
    if len(ranked) != 1 || ranked[0].UserID != 2 {
        t.Errorf("expected only candidate 2 to survive the cutoff, got %v", ranked)
    }
}

func TestScoreCandidatesEmptyInput(t *testing.T) {
    engine := NewScoringEngine(NewCompatibilityModel(), &fakeHistory{})
    if got := engine.ScoreCandidates(context.Background(), &MatchRequest{}, &UserProfile{}, nil); got != nil {
        t.Errorf("expected nil for empty candidate list, got %v", got)
    }
}

func TestScoreCandidatesManyCandidates(t *testing.T) {
    history := &fakeHistory{visits: map[int64]int{1: 5}}
    engine := NewScoringEngine(NewCompatibilityModel(), history)

    host := &UserProfile{ID: 1, TypeCode: TypeLAEF}
    req := &MatchRequest{HostUserID: 1, TimeSlot: SlotEvening, Criteria: MatchCriteria{MaxDistanceKm: 50}}

    var candidates []Candidate
    for i := 0; i < 50; i++ {
        candidates = append(candidates, Candidate{
            UserID:     int64(100 + i),
            TypeCode:   allTypeCodes[i%len(allTypeCodes)],
            DistanceKm: float64(i % 40),
            CreatedAt:  time.Now().Add(-365 * 24 * time.Hour),
        })
    }

    scored := engine.ScoreCandidates(context.Background(), req, host, candidates)
    if len(scored) != len(candidates) {
        t.Fatalf("got %d scored, want %d", len(scored), len(candidates))
    }
    for i := range scored {
        if scored[i].UserID != candidates[i].UserID {
            t.Fatalf("position %d: result order diverged from input order", i)
        }
        if scored[i].MatchScore < 0 || scored[i].MatchScore > 100 {
            t.Errorf("user %d score %d out of range", scored[i].UserID, scored[i].MatchScore)
        }
        if scored[i].Factors == nil {
            t.Errorf("user %d missing factor breakdown", scored[i].UserID)
        }
    }
}

func ExampleComputePriority() {
    fmt.Println(ComputePriority(30*24*time.Hour, 10))
    fmt.Println(ComputePriority(2*24*time.Hour, 10))
    fmt.Println(ComputePriority(30*24*time.Hour, 95))
    fmt.Println(ComputePriority(2*24*time.Hour, 95))
    // Output:
    // 50
    // 70
    // 65
    // 85
}
