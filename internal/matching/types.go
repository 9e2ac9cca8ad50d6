package matching

import (
    "errors"
    "fmt"
)

// TypeCode is one of the 16 four-letter behavioral type codes assigned to a
// user during onboarding. The matching engine consumes it read-only.
//
// Each position is an independent binary axis:
//   1: L (lone) / S (social)
//   2: A (abstract) / R (representational)
//   3: E (emotional) / M (meaning-driven)
//   4: F (flow) / C (constructive)
type TypeCode string

const (
    TypeLAEF TypeCode = "LAEF"
    TypeLAEC TypeCode = "LAEC"
    TypeLAMF TypeCode = "LAMF"
    TypeLAMC TypeCode = "LAMC"
    TypeLREF TypeCode = "LREF"
    TypeLREC TypeCode = "LREC"
    TypeLRMF TypeCode = "LRMF"
    TypeLRMC TypeCode = "LRMC"
    TypeSAEF TypeCode = "SAEF"
    TypeSAEC TypeCode = "SAEC"
    TypeSAMF TypeCode = "SAMF"
    TypeSAMC TypeCode = "SAMC"
    TypeSREF TypeCode = "SREF"
    TypeSREC TypeCode = "SREC"
    TypeSRMF TypeCode = "SRMF"
    TypeSRMC TypeCode = "SRMC"
)

var ErrInvalidTypeCode = errors.New("invalid type code")

// allTypeCodes lists every valid code in a fixed order.
var allTypeCodes = []TypeCode{
    TypeLAEF, TypeLAEC, TypeLAMF, TypeLAMC,
    TypeLREF, TypeLREC, TypeLRMF, TypeLRMC,
    TypeSAEF, TypeSAEC, TypeSAMF, TypeSAMC,
    TypeSREF, TypeSREC, TypeSRMF, TypeSRMC,
}

// AllTypeCodes returns a copy of the full taxonomy.
func AllTypeCodes() []TypeCode {
    codes := make([]TypeCode, len(allTypeCodes))
    copy(codes, allTypeCodes)
    return codes
}

// Valid reports whether t is one of the 16 known codes.
func (t TypeCode) Valid() bool {
    if len(t) != 4 {
        return false
    }
    return axisValid(t[0], 'L', 'S') &&
        axisValid(t[1], 'A', 'R') &&
        axisValid(t[2], 'E', 'M') &&
        axisValid(t[3], 'F', 'C')
}

func axisValid(c, a, b byte) bool {
    return c == a || c == b
}

// ParseTypeCode validates a raw string as a TypeCode.
func ParseTypeCode(s string) (TypeCode, error) {
    t := TypeCode(s)
    if !t.Valid() {
        return "", fmt.Errorf("%w: %q", ErrInvalidTypeCode, s)
    }
    return t, nil
}
