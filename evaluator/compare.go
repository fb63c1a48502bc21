package evaluator

import (
	"strings"

	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
)

// opRelational implements <, >, <=, >=: both sides singleton-convert; numbers
// compare with numbers, strings with strings, date/time/datetime compare
// lexically, and two of them where one is a precision prefix of the other
// are not comparable (empty result) (spec.md §4.6: "compare
// numbers with numbers and strings with strings; type mismatch errors").
func opRelational(kind string, left, right Sequence) (Sequence, error) {
	lv, lok, err := singleton(left, kind)
	if err != nil {
		return nil, err
	}
	rv, rok, err := singleton(right, kind)
	if err != nil {
		return nil, err
	}
	if !lok || !rok {
		return Sequence{}, nil
	}

	cmp, comparable, err := compareValues(lv, rv)
	if err != nil {
		return nil, err
	}
	if !comparable {
		return Sequence{}, nil
	}

	var result bool
	switch kind {
	case "<":
		result = cmp < 0
	case ">":
		result = cmp > 0
	case "<=":
		result = cmp <= 0
	case ">=":
		result = cmp >= 0
	}
	return Sequence{Boolean(result)}, nil
}

// compareValues returns (-1/0/1, true) when lv and rv are ordered, or
// (0, false) when they're of a kind that doesn't support total ordering
// here (e.g. date/time values at different precisions).
func compareValues(lv, rv interface{}) (int, bool, error) {
	switch l := lv.(type) {
	case Integer:
		if r, ok := rv.(Integer); ok {
			return cmpInt64(int64(l), int64(r)), true, nil
		}
		if r, ok := rv.(Decimal); ok {
			return cmpFloat64(float64(l), float64(r)), true, nil
		}
	case Decimal:
		if n, err := asNumber(rv, "comparison"); err == nil {
			return cmpFloat64(float64(l), numAsFloat(n)), true, nil
		}
	case String:
		if r, ok := rv.(String); ok {
			return strings.Compare(string(l), string(r)), true, nil
		}
	case Date:
		if r, ok := rv.(Date); ok {
			return comparePartial(string(l), string(r))
		}
	case Time:
		if r, ok := rv.(Time); ok {
			return comparePartial(string(l), string(r))
		}
	case DateTime:
		if r, ok := rv.(DateTime); ok {
			return comparePartial(string(l), string(r))
		}
	}
	return 0, false, newEvalError(diagnostic.TypeErrorCode, "cannot compare %T with %T", lv, rv)
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePartial compares two date/time-ish lexemes component-wise; when
// one is a precision-prefix of the other (e.g. "2020" vs "2020-01") the
// comparison is indeterminate, so ordering falls back to "not comparable"
// rather than guessing, matching FHIRPath's treatment of partial dates.
func comparePartial(a, b string) (int, bool, error) {
	if a == b {
		return 0, true, nil
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return 0, false, nil
	}
	if a < b {
		return -1, true, nil
	}
	return 1, true, nil
}

// opEquals implements = and !=: sequences compare structurally (spec.md
// §4.6) - empty vs anything yields empty; otherwise length-then-element.
func opEquals(negate bool, left, right Sequence) (Sequence, error) {
	if len(left) == 0 || len(right) == 0 {
		return Sequence{}, nil
	}
	eq := sequenceEqual(left, right)
	if negate {
		eq = !eq
	}
	return Sequence{Boolean(eq)}, nil
}

// sequenceEqual implements collection equality following plain FHIRPath
// element-wise semantics (length then pairwise =), not a single-boolean
// shortcut.
func sequenceEqual(a, b Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !elementEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func elementEqual(a, b interface{}) bool {
	cmp, comparable, err := compareValues(a, b)
	if err == nil && comparable {
		return cmp == 0
	}
	ab, aok := a.(Boolean)
	bb, bok := b.(Boolean)
	if aok && bok {
		return ab == bb
	}
	return false
}

// opEquivalent implements ~ and !~: whitespace-insensitive, case-sensitive
// string match; numeric/date/time equivalence falls back to ordinary
// equality; both-empty is equivalent (unlike =, which propagates empty).
func opEquivalent(negate bool, left, right Sequence) (Sequence, error) {
	var eq bool
	switch {
	case len(left) == 0 && len(right) == 0:
		eq = true
	case len(left) != len(right):
		eq = false
	default:
		eq = true
		for i := range left {
			if !elementEquivalent(left[i], right[i]) {
				eq = false
				break
			}
		}
	}
	if negate {
		eq = !eq
	}
	return Sequence{Boolean(eq)}, nil
}

func elementEquivalent(a, b interface{}) bool {
	as, aok := a.(String)
	bs, bok := b.(String)
	if aok && bok {
		return normalizeWhitespace(string(as)) == normalizeWhitespace(string(bs))
	}
	return elementEqual(a, b)
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// opMembership implements `in` (left scalar, right sequence: is left present
// in right?) and `contains` (the reverse).
func opMembership(contains bool, left, right Sequence) (Sequence, error) {
	scalar, seq := left, right
	if contains {
		scalar, seq = right, left
	}
	v, ok, err := singleton(scalar, "in/contains")
	if err != nil {
		return nil, err
	}
	if !ok {
		return Sequence{}, nil
	}
	for _, item := range seq {
		if elementEqual(v, item) {
			return Sequence{Boolean(true)}, nil
		}
	}
	return Sequence{Boolean(false)}, nil
}
