package matching

import "testing"

func TestPreferenceAdjustmentsApply(t *testing.T) {
    t.Run("user and type weights combine", func(t *testing.T) {
        adj := &PreferenceAdjustments{
            Users: map[int64]float64{7: 2},
            Types: map[TypeCode]float64{TypeLAEF: 1},
        }
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 7, TypeCode: TypeLAEF}, MatchScore: 70},
        }
        out := adj.Apply(candidates)

        // 2*5 + 1*3 = +13
        if out[0].MatchScore != 83 {
            t.Errorf("score = %d, want 83", out[0].MatchScore)
        }
        if out[0].LearningAdjustment != 13 {
            t.Errorf("adjustment = %d, want 13", out[0].LearningAdjustment)
        }
    })

    t.Run("delta is bounded", func(t *testing.T) {
        adj := &PreferenceAdjustments{
            Users: map[int64]float64{7: 20}, // raw delta 100
        }
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 7, TypeCode: TypeLAEF}, MatchScore: 60},
        }
        out := adj.Apply(candidates)
        if out[0].MatchScore != 60+MaxLearnedAdjustment {
            t.Errorf("score = %d, want %d", out[0].MatchScore, 60+MaxLearnedAdjustment)
        }

        adj = &PreferenceAdjustments{
            Users: map[int64]float64{7: -20},
        }
        candidates = []ScoredCandidate{
            {Candidate: Candidate{UserID: 7, TypeCode: TypeLAEF}, MatchScore: 60},
        }
        out = adj.Apply(candidates)
        if out[0].MatchScore != 60-MaxLearnedAdjustment {
            t.Errorf("score = %d, want %d", out[0].MatchScore, 60-MaxLearnedAdjustment)
        }
    })

    t.Run("adjusted score stays in range", func(t *testing.T) {
        adj := &PreferenceAdjustments{
            Users: map[int64]float64{7: 10},
        }
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 7}, MatchScore: 95},
        }
        out := adj.Apply(candidates)
        if out[0].MatchScore != 100 {
            t.Errorf("score = %d, want clamped 100", out[0].MatchScore)
        }
        if out[0].LearningAdjustment != 5 {
            t.Errorf("adjustment = %d, want 5 after clamping", out[0].LearningAdjustment)
        }

        adj = &PreferenceAdjustments{Users: map[int64]float64{7: -10}}
        candidates = []ScoredCandidate{
            {Candidate: Candidate{UserID: 7}, MatchScore: 10},
        }
        out = adj.Apply(candidates)
        if out[0].MatchScore != 0 {
            t.Errorf("score = %d, want clamped 0", out[0].MatchScore)
        }
    })

    t.Run("unknown candidates pass through", func(t *testing.T) {
        adj := &PreferenceAdjustments{
            Users: map[int64]float64{7: 3},
            Types: map[TypeCode]float64{TypeSRMC: 2},
        }
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 99, TypeCode: TypeLAEF}, MatchScore: 75},
        }
        out := adj.Apply(candidates)
        if out[0].MatchScore != 75 || out[0].LearningAdjustment != 0 {
            t.Errorf("unrelated candidate changed: score %d adjustment %d", out[0].MatchScore, out[0].LearningAdjustment)
        }
    })

    t.Run("empty adjustments are a no-op", func(t *testing.T) {
        adj := &PreferenceAdjustments{Users: map[int64]float64{}, Types: map[TypeCode]float64{}}
        candidates := []ScoredCandidate{
            {Candidate: Candidate{UserID: 1}, MatchScore: 70},
        }
        out := adj.Apply(candidates)
        if out[0].MatchScore != 70 {
            t.Errorf("score = %d, want 70", out[0].MatchScore)
        }
    })
}
