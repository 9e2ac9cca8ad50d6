package matching

import (
    "errors"
    "testing"
)

func TestTypeCodeValid(t *testing.T) {
    for _, code := range AllTypeCodes() {
        if !code.Valid() {
            t.Errorf("expected %q to be valid", code)
        }
    }

    invalid := []string{"", "LAE", "LAEFX", "XAEF", "LXEF", "LAXF", "LAEX", "laef", "ABCD"}
    for _, raw := range invalid {
        if TypeCode(raw).Valid() {
            t.Errorf("expected %q to be invalid", raw)
        }
        if _, err := ParseTypeCode(raw); !errors.Is(err, ErrInvalidTypeCode) {
            t.Errorf("ParseTypeCode(%q): expected ErrInvalidTypeCode, got %v", raw, err)
        }
    }
}

func TestCompatibilityModelScoreRange(t *testing.T) {
    model := NewCompatibilityModel()
    for _, a := range AllTypeCodes() {
        for _, b := range AllTypeCodes() {
            score, err := model.Score(a, b)
            if err != nil {
                t.Fatalf("Score(%s, %s): %v", a, b, err)
            }
            if score < 0 || score > 100 {
                t.Errorf("Score(%s, %s) = %d, out of range", a, b, score)
            }
        }
    }
}

func TestCompatibilityModelSymmetry(t *testing.T) {
    model := NewCompatibilityModel()
    for _, a := range AllTypeCodes() {
        for _, b := range AllTypeCodes() {
            ab, _ := model.Score(a, b)
            ba, _ := model.Score(b, a)
            if ab != ba {
                t.Errorf("Score(%s, %s) = %d but Score(%s, %s) = %d", a, b, ab, b, a, ba)
            }
        }
    }
}

func TestCompatibilityModelKnownPairs(t *testing.T) {
    model := NewCompatibilityModel()

    cases := []struct {
        a, b TypeCode
        want int
    }{
        {TypeLAEF, TypeLAEF, 90},
        {TypeLAEC, TypeLAEC, 95},
        {TypeLAEF, TypeSREF, 85},
        {TypeLAEF, TypeLAEC, 75},
        {TypeLAEF, TypeLRMC, 45},
        {TypeSRMC, TypeSAMC, 85},
    }
    for _, tc := range cases {
        got, err := model.Score(tc.a, tc.b)
        if err != nil {
            t.Fatalf("Score(%s, %s): %v", tc.a, tc.b, err)
        }
        if got != tc.want {
            t.Errorf("Score(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
        }
    }
}

func TestCompatibilityModelInvalidType(t *testing.T) {
    model := NewCompatibilityModel()

    if _, err := model.Score("XXXX", TypeLAEF); !errors.Is(err, ErrInvalidTypeCode) {
        t.Errorf("expected ErrInvalidTypeCode, got %v", err)
    }
    if _, err := model.Score(TypeLAEF, "XXXX"); !errors.Is(err, ErrInvalidTypeCode) {
        t.Errorf("expected ErrInvalidTypeCode, got %v", err)
    }
    if _, err := model.CompatibleTypes("XXXX", 70); !errors.Is(err, ErrInvalidTypeCode) {
        t.Errorf("expected ErrInvalidTypeCode, got %v", err)
    }
}

func TestCompatibleTypes(t *testing.T) {
    model := NewCompatibilityModel()

    types, err := model.CompatibleTypes(TypeLAEF, DefaultCompatibilityThreshold)
    if err != nil {
        t.Fatal(err)
    }

    want := []TypeCode{TypeLAEF, TypeLAMF, TypeSREF, TypeSAEF, TypeLAEC, TypeSAMF, TypeLREF, TypeSREC}
    if len(types) != len(want) {
        t.Fatalf("got %d types %v, want %d", len(types), types, len(want))
    }
    for i := range want {
        if types[i] != want[i] {
            t.Errorf("position %d: got %s, want %s", i, types[i], want[i])
        }
    }

    // Scores must be non-increasing down the list.
    for i := 1; i < len(types); i++ {
        prev, _ := model.Score(TypeLAEF, types[i-1])
        cur, _ := model.Score(TypeLAEF, types[i])
        if cur > prev {
            t.Errorf("types not sorted: %s (%d) before %s (%d)", types[i-1], prev, types[i], cur)
        }
        if cur < DefaultCompatibilityThreshold {
            t.Errorf("%s scores %d, below threshold", types[i], cur)
        }
    }

    // An impossible threshold yields nothing.
    none, err := model.CompatibleTypes(TypeLAEF, 101)
    if err != nil {
        t.Fatal(err)
    }
    if len(none) != 0 {
        t.Errorf("expected no types above 101, got %v", none)
    }
}
