package eval

import (
	"fmt"
	"math"

	"github.com/mitchellh/hashstructure"
	"github.com/spf13/cast"

	"github.com/msokolov/lux/xquery/dom"
)

// atomize replaces the nodes of s by their string values.
func atomize(s Sequence) Sequence {
	result := make(Sequence, len(s))
	for i, item := range s {
		if n, ok := item.(*dom.Node); ok {
			result[i] = n.StringValue()
		} else {
			result[i] = item
		}
	}
	return result
}

// singleAtomic returns the atomized value of a sequence of at most one
// item, nil when it is empty.
func singleAtomic(s Sequence) (interface{}, error) {
	switch len(s) {
	case 0:
		return nil, nil
	case 1:
		return atomize(s)[0], nil
	default:
		return nil, ErrTypeMismatch.New(fmt.Sprintf("sequence of %d items where at most one is allowed", len(s)))
	}
}

// effectiveBoolean returns the effective boolean value of s.
func effectiveBoolean(s Sequence) (bool, error) {
	if len(s) == 0 {
		return false, nil
	}

	if _, ok := s[0].(*dom.Node); ok {
		return true, nil
	}

	if len(s) > 1 {
		return false, ErrTypeMismatch.New("effective boolean value of a sequence of atomic values")
	}

	switch v := s[0].(type) {
	case bool:
		return v, nil
	case string:
		return v != "", nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0 && !math.IsNaN(v), nil
	default:
		return false, ErrTypeMismatch.New(fmt.Sprintf("effective boolean value of %T", v))
	}
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

func toNumber(v interface{}) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return math.NaN(), ErrTypeMismatch.New(fmt.Sprintf("%v is not a number", v))
	}
	return f, nil
}

func toString(v interface{}) string {
	switch v := v.(type) {
	case *dom.Node:
		return v.StringValue()
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e15 {
			return cast.ToString(int64(v))
		}
	}
	return cast.ToString(v)
}

func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}

// compareAtomic compares two atomic values. Numbers compare numerically
// with anything convertible to a number, booleans with anything
// convertible to a boolean, and everything else as strings. ok is false
// when the values cannot be compared.
func compareAtomic(a, b interface{}) (cmp int, ok bool) {
	switch {
	case isNumeric(a) || isNumeric(b):
		x, err := cast.ToFloat64E(a)
		if err != nil {
			return 0, false
		}
		y, err := cast.ToFloat64E(b)
		if err != nil {
			return 0, false
		}
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		return compareFloats(x, y), true
	case isBool(a) || isBool(b):
		x, err := cast.ToBoolE(a)
		if err != nil {
			return 0, false
		}
		y, err := cast.ToBoolE(b)
		if err != nil {
			return 0, false
		}
		return compareBools(x, y), true
	default:
		x, y := toString(a), toString(b)
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	}
}

func isBool(v interface{}) bool {
	_, ok := v.(bool)
	return ok
}

func compareFloats(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compareBools(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

// distinctKey is the hashed identity of an atomic value: numbers equal
// across their representations.
type distinctKey struct {
	Numeric bool
	Number  float64
	Text    string
	Bool    bool
	IsBool  bool
}

func keyOf(v interface{}) distinctKey {
	switch v := v.(type) {
	case int64:
		return distinctKey{Numeric: true, Number: float64(v)}
	case float64:
		return distinctKey{Numeric: true, Number: v}
	case bool:
		return distinctKey{IsBool: true, Bool: v}
	default:
		return distinctKey{Text: toString(v)}
	}
}

// distinct returns the atomized values of s without duplicates, in the
// order of their first occurrence.
func distinct(s Sequence) (Sequence, error) {
	seen := make(map[uint64][]distinctKey)
	var result Sequence
	for _, v := range atomize(s) {
		key := keyOf(v)
		hash, err := hashstructure.Hash(key, nil)
		if err != nil {
			return nil, err
		}

		dup := false
		for _, k := range seen[hash] {
			if k == key {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		seen[hash] = append(seen[hash], key)
		result = append(result, v)
	}
	return result, nil
}

// StringValue returns the string value of an item.
func StringValue(item interface{}) string {
	return toString(item)
}
