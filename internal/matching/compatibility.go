package matching

import (
    "fmt"
    "sort"
)

// DefaultCompatibilityThreshold is the minimum pairwise score for a type to
// be considered compatible when the requester specified no allow-list.
const DefaultCompatibilityThreshold = 70

// referenceCompatibility is the curated 16x16 pairwise score table. A few
// transposed entries in the source data disagree by a handful of points, so
// the model symmetrizes on construction by taking the higher direction.
var referenceCompatibility = map[TypeCode]map[TypeCode]int{
    TypeLAEF: {TypeLAEF: 90, TypeLAEC: 75, TypeLAMF: 85, TypeLAMC: 65, TypeLREF: 70, TypeLREC: 60, TypeLRMF: 55, TypeLRMC: 45,
        TypeSAEF: 80, TypeSAEC: 65, TypeSAMF: 75, TypeSAMC: 55, TypeSREF: 85, TypeSREC: 70, TypeSRMF: 60, TypeSRMC: 50},
    TypeLAEC: {TypeLAEF: 75, TypeLAEC: 95, TypeLAMF: 70, TypeLAMC: 80, TypeLREF: 65, TypeLREC: 85, TypeLRMF: 50, TypeLRMC: 70,
        TypeSAEF: 60, TypeSAEC: 80, TypeSAMF: 55, TypeSAMC: 75, TypeSREF: 65, TypeSREC: 80, TypeSRMF: 45, TypeSRMC: 65},
    TypeLAMF: {TypeLAEF: 85, TypeLAEC: 70, TypeLAMF: 90, TypeLAMC: 75, TypeLREF: 60, TypeLREC: 55, TypeLRMF: 80, TypeLRMC: 65,
        TypeSAEF: 70, TypeSAEC: 55, TypeSAMF: 85, TypeSAMC: 70, TypeSREF: 60, TypeSREC: 50, TypeSRMF: 75, TypeSRMC: 60},
    TypeLAMC: {TypeLAEF: 65, TypeLAEC: 80, TypeLAMF: 75, TypeLAMC: 95, TypeLREF: 55, TypeLREC: 70, TypeLRMF: 65, TypeLRMC: 85,
        TypeSAEF: 50, TypeSAEC: 70, TypeSAMF: 60, TypeSAMC: 80, TypeSREF: 45, TypeSREC: 65, TypeSRMF: 55, TypeSRMC: 75},
    TypeLREF: {TypeLAEF: 70, TypeLAEC: 65, TypeLAMF: 60, TypeLAMC: 55, TypeLREF: 85, TypeLREC: 75, TypeLRMF: 70, TypeLRMC: 60,
        TypeSAEF: 75, TypeSAEC: 60, TypeSAMF: 65, TypeSAMC: 50, TypeSREF: 90, TypeSREC: 75, TypeSRMF: 65, TypeSRMC: 55},
    TypeLREC: {TypeLAEF: 60, TypeLAEC: 85, TypeLAMF: 55, TypeLAMC: 70, TypeLREF: 75, TypeLREC: 90, TypeLRMF: 50, TypeLRMC: 65,
        TypeSAEF: 55, TypeSAEC: 75, TypeSAMF: 45, TypeSAMC: 60, TypeSREF: 70, TypeSREC: 85, TypeSRMF: 40, TypeSRMC: 55},
    TypeLRMF: {TypeLAEF: 55, TypeLAEC: 50, TypeLAMF: 80, TypeLAMC: 65, TypeLREF: 70, TypeLREC: 50, TypeLRMF: 85, TypeLRMC: 70,
        TypeSAEF: 60, TypeSAEC: 45, TypeSAMF: 75, TypeSAMC: 60, TypeSREF: 65, TypeSREC: 50, TypeSRMF: 80, TypeSRMC: 65},
    TypeLRMC: {TypeLAEF: 45, TypeLAEC: 70, TypeLAMF: 65, TypeLAMC: 85, TypeLREF: 60, TypeLREC: 65, TypeLRMF: 70, TypeLRMC: 90,
        TypeSAEF: 40, TypeSAEC: 60, TypeSAMF: 55, TypeSAMC: 70, TypeSREF: 45, TypeSREC: 60, TypeSRMF: 65, TypeSRMC: 80},
    TypeSAEF: {TypeLAEF: 80, TypeLAEC: 60, TypeLAMF: 70, TypeLAMC: 50, TypeLREF: 75, TypeLREC: 55, TypeLRMF: 60, TypeLRMC: 40,
        TypeSAEF: 95, TypeSAEC: 75, TypeSAMF: 80, TypeSAMC: 60, TypeSREF: 85, TypeSREC: 70, TypeSRMF: 65, TypeSRMC: 50},
    TypeSAEC: {TypeLAEF: 65, TypeLAEC: 80, TypeLAMF: 55, TypeLAMC: 70, TypeLREF: 60, TypeLREC: 75, TypeLRMF: 45, TypeLRMC: 60,
        TypeSAEF: 75, TypeSAEC: 90, TypeSAMF: 65, TypeSAMC: 80, TypeSREF: 70, TypeSREC: 85, TypeSRMF: 50, TypeSRMC: 70},
    TypeSAMF: {TypeLAEF: 75, TypeLAEC: 55, TypeLAMF: 85, TypeLAMC: 60, TypeLREF: 65, TypeLREC: 45, TypeLRMF: 75, TypeLRMC: 55,
        TypeSAEF: 80, TypeSAEC: 65, TypeSAMF: 95, TypeSAMC: 70, TypeSREF: 75, TypeSREC: 60, TypeSRMF: 85, TypeSRMC: 65},
    TypeSAMC: {TypeLAEF: 55, TypeLAEC: 75, TypeLAMF: 70, TypeLAMC: 80, TypeLREF: 50, TypeLREC: 60, TypeLRMF: 60, TypeLRMC: 70,
        TypeSAEF: 60, TypeSAEC: 80, TypeSAMF: 70, TypeSAMC: 95, TypeSREF: 55, TypeSREC: 75, TypeSRMF: 65, TypeSRMC: 85},
    TypeSREF: {TypeLAEF: 85, TypeLAEC: 65, TypeLAMF: 60, TypeLAMC: 45, TypeLREF: 90, TypeLREC: 70, TypeLRMF: 65, TypeLRMC: 45,
        TypeSAEF: 85, TypeSAEC: 70, TypeSAMF: 75, TypeSAMC: 55, TypeSREF: 90, TypeSREC: 80, TypeSRMF: 70, TypeSRMC: 60},
    TypeSREC: {TypeLAEF: 70, TypeLAEC: 80, TypeLAMF: 50, TypeLAMC: 65, TypeLREF: 75, TypeLREC: 85, TypeLRMF: 50, TypeLRMC: 60,
        TypeSAEF: 70, TypeSAEC: 85, TypeSAMF: 60, TypeSAMC: 75, TypeSREF: 80, TypeSREC: 95, TypeSRMF: 55, TypeSRMC: 75},
    TypeSRMF: {TypeLAEF: 60, TypeLAEC: 45, TypeLAMF: 75, TypeLAMC: 55, TypeLREF: 65, TypeLREC: 40, TypeLRMF: 80, TypeLRMC: 65,
        TypeSAEF: 65, TypeSAEC: 50, TypeSAMF: 85, TypeSAMC: 65, TypeSREF: 70, TypeSREC: 55, TypeSRMF: 90, TypeSRMC: 75},
    TypeSRMC: {TypeLAEF: 50, TypeLAEC: 65, TypeLAMF: 60, TypeLAMC: 75, TypeLREF: 55, TypeLREC: 55, TypeLRMF: 65, TypeLRMC: 80,
        TypeSAEF: 50, TypeSAEC: 70, TypeSAMF: 65, TypeSAMC: 85, TypeSREF: 60, TypeSREC: 75, TypeSRMF: 75, TypeSRMC: 95},
}

// CompatibilityModel is the immutable pairwise score table between all
// behavioral types. Construct it once and inject it; lookups are pure.
type CompatibilityModel struct {
    scores map[TypeCode]map[TypeCode]int
}

// NewCompatibilityModel builds the model from the reference table,
// symmetrizing score(a,b) and score(b,a) to the higher of the two.
func NewCompatibilityModel() *CompatibilityModel {
    scores := make(map[TypeCode]map[TypeCode]int, len(allTypeCodes))
    for _, a := range allTypeCodes {
        row := make(map[TypeCode]int, len(allTypeCodes))
        for _, b := range allTypeCodes {
            ab := referenceCompatibility[a][b]
            ba := referenceCompatibility[b][a]
            if ba > ab {
                ab = ba
            }
            row[b] = ab
        }
        scores[a] = row
    }
    return &CompatibilityModel{scores: scores}
}

// Score returns the compatibility between two types in [0,100].
func (m *CompatibilityModel) Score(a, b TypeCode) (int, error) {
    row, ok := m.scores[a]
    if !ok {
        return 0, fmt.Errorf("%w: %q", ErrInvalidTypeCode, a)
    }
    score, ok := row[b]
    if !ok {
        return 0, fmt.Errorf("%w: %q", ErrInvalidTypeCode, b)
    }
    return score, nil
}

// CompatibleTypes returns every type scoring at least threshold against a,
// in descending score order.
func (m *CompatibilityModel) CompatibleTypes(a TypeCode, threshold int) ([]TypeCode, error) {
    row, ok := m.scores[a]
    if !ok {
        return nil, fmt.Errorf("%w: %q", ErrInvalidTypeCode, a)
    }

    var types []TypeCode
    for _, t := range allTypeCodes {
        if row[t] >= threshold {
            types = append(types, t)
        }
    }

    sort.Slice(types, func(i, j int) bool {
        if row[types[i]] != row[types[j]] {
            return row[types[i]] > row[types[j]]
        }
        return types[i] < types[j]
    })

    return types, nil
}
