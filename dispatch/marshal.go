package dispatch

import (
	"errors"
	"reflect"
)

// ErrNotAggregate reports a BoxElements source that is not a slice or array.
var ErrNotAggregate = errors.New("dispatch: source is not a slice or array")

// ElemFunc receives each boxed element. A non-nil error stops the loop.
type ElemFunc func(i int, v any) error

// BoxElements runs a bounded counted loop over a statically-typed aggregate,
// boxing each element into the dynamic representation and applying fn. A
// closed set of numeric/string shapes gets direct loops with widening to the
// canonical literal kinds (int64, float64); other slices and arrays go
// through the generic reflective path. Returns the number of elements fn was
// applied to.
func BoxElements(src any, fn ElemFunc) (int, error) {
	switch s := src.(type) {
	case []bool:
		for i, v := range s {
			if err := fn(i, v); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []int:
		for i, v := range s {
			if err := fn(i, v); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []int32:
		for i, v := range s {
			if err := fn(i, int64(v)); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []int64:
		for i, v := range s {
			if err := fn(i, v); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []float32:
		for i, v := range s {
			if err := fn(i, float64(v)); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []float64:
		for i, v := range s {
			if err := fn(i, v); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []string:
		for i, v := range s {
			if err := fn(i, v); err != nil {
				return i, err
			}
		}
		return len(s), nil
	case []any:
		for i, v := range s {
			if err := fn(i, v); err != nil {
				return i, err
			}
		}
		return len(s), nil
	}

	rv := reflect.ValueOf(src)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return 0, ErrNotAggregate
	}
	n := rv.Len()
	for i := 0; i < n; i++ {
		if err := fn(i, rv.Index(i).Interface()); err != nil {
			return i, err
		}
	}
	return n, nil
}
