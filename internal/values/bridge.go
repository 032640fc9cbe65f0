// Package values implements the boundary crossing described in spec.md
// §4.7: only signed integers, floats, text, blobs and null travel through
// the SQL engine itself. Every richer native type a caller might bind as
// a query parameter -- timestamps, durations, decimals, anything else --
// is coerced to one of those five shapes before it reaches the driver.
package values

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/urisql/urisql/internal/fields"
	"github.com/urisql/urisql/internal/sqlerr"
)

// ToParam coerces a native Go value bound as a query parameter into the
// engine's primitive set. Go's time.Time carries a location unconditionally,
// so unlike spec.md's naive/aware distinction every timestamp is formatted
// with an explicit offset; callers wanting naive semantics should bind a
// string already in the shape they want.
func ToParam(native any) (any, error) {
	switch v := native.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return v, nil
	case []byte:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case time.Duration:
		return fields.FormatDuration(v), nil
	case *big.Rat:
		s := v.FloatString(ratPrecision(v))
		if !v.IsInt() {
			s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
		}
		return s, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, sqlerr.NewProgrammingError(fmt.Sprintf("unable to bind parameter of type %T", native), err)
		}
		return string(encoded), nil
	}
}

// ToParams applies ToParam across a parameter list, the shape execute()
// receives from a caller.
func ToParams(native []any) ([]any, error) {
	out := make([]any, len(native))
	for i, v := range native {
		coerced, err := ToParam(v)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}
	return out, nil
}

// ratPrecision picks a decimal expansion long enough to round-trip most
// rationals without producing an unbounded repeating expansion.
func ratPrecision(r *big.Rat) int {
	if r.IsInt() {
		return 0
	}
	return 12
}

// FromEngine loosely classifies a raw engine-domain value (as returned by
// the driver for an untyped or ad hoc column) into the closest native Go
// representation, without a declared field to guide it. Columns backed by
// a declared fields.Field should instead use that field's own Parse, which
// knows the intended native type.
func FromEngine(raw any) any {
	switch v := raw.(type) {
	case []byte:
		return append([]byte(nil), v...)
	default:
		return v
	}
}
