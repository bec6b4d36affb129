package domain

import "fmt"

// Vector is a product embedding as stored in the feature table.
type Vector []float32

// AsVector converts a raw table cell into a Vector. The feature table's
// embedding column arrives in a handful of representations depending on how
// the parquet file was written, so the accepted forms are enumerated
// explicitly rather than sniffed:
//
//   - []float32, []float64, []int32, []int64
//   - []interface{} of numeric elements
//   - []interface{} wrapping exactly one of the above (boxed array)
//
// Anything else is an error, which the caller treats as a per-row
// projection failure.
func AsVector(v interface{}) (Vector, error) {
	switch vals := v.(type) {
	case Vector:
		return vals, nil
	case []float32:
		return Vector(vals), nil
	case []float64:
		out := make(Vector, len(vals))
		for i, f := range vals {
			out[i] = float32(f)
		}
		return out, nil
	case []int32:
		out := make(Vector, len(vals))
		for i, n := range vals {
			out[i] = float32(n)
		}
		return out, nil
	case []int64:
		out := make(Vector, len(vals))
		for i, n := range vals {
			out[i] = float32(n)
		}
		return out, nil
	case []interface{}:
		// A single wrapped slice is a boxed array; unwrap one level.
		if len(vals) == 1 {
			switch vals[0].(type) {
			case []float32, []float64, []int32, []int64, []interface{}:
				return AsVector(vals[0])
			}
		}
		out := make(Vector, len(vals))
		for i, el := range vals {
			f, err := asFloat32(el)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("vector value is null")
	default:
		return nil, fmt.Errorf("unsupported vector representation %T", v)
	}
}

func asFloat32(v interface{}) (float32, error) {
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	case int32:
		return float32(n), nil
	case int64:
		return float32(n), nil
	case int:
		return float32(n), nil
	default:
		return 0, fmt.Errorf("unsupported vector element %T", v)
	}
}
