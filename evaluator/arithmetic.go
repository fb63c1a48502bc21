package evaluator

import (
	"math"
	"strings"

	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
)

// opArithmetic implements the binary +, -, *, /, div, mod: empty on either
// side propagates to empty; otherwise both sides singleton-convert to
// numbers (spec.md §4.6).
func opArithmetic(op string, left, right Sequence) (Sequence, error) {
	lv, lok, err := singleton(left, op)
	if err != nil {
		return nil, err
	}
	rv, rok, err := singleton(right, op)
	if err != nil {
		return nil, err
	}
	if !lok || !rok {
		return Sequence{}, nil
	}

	ln, err := asNumber(lv, op)
	if err != nil {
		return nil, err
	}
	rn, err := asNumber(rv, op)
	if err != nil {
		return nil, err
	}

	switch op {
	case "+", "-", "*":
		if li, ri, ok := bothInteger(ln, rn); ok {
			var r int64
			switch op {
			case "+":
				r = int64(li) + int64(ri)
			case "-":
				r = int64(li) - int64(ri)
			case "*":
				r = int64(li) * int64(ri)
			}
			return Sequence{Integer(r)}, nil
		}
		lf, rf := numAsFloat(ln), numAsFloat(rn)
		var r float64
		switch op {
		case "+":
			r = lf + rf
		case "-":
			r = lf - rf
		case "*":
			r = lf * rf
		}
		return Sequence{Decimal(r)}, nil
	case "/":
		// `/` always returns a decimal, even for two integers. A zero divisor
		// yields empty for two integers but is an evaluation error once a
		// decimal is involved (spec.md §8).
		if li, ri, ok := bothInteger(ln, rn); ok {
			if ri == 0 {
				return Sequence{}, nil
			}
			return Sequence{Decimal(float64(li) / float64(ri))}, nil
		}
		rf := numAsFloat(rn)
		if rf == 0 {
			return nil, newEvalError(diagnostic.TypeErrorCode, "division by zero")
		}
		return Sequence{Decimal(numAsFloat(ln) / rf)}, nil
	case "div":
		li, ri, ok := bothInteger(ln, rn)
		if ok {
			if ri == 0 {
				return Sequence{}, nil
			}
			return Sequence{Integer(int64(li) / int64(ri))}, nil
		}
		rf := numAsFloat(rn)
		if rf == 0 {
			return nil, newEvalError(diagnostic.TypeErrorCode, "integer division by zero")
		}
		return Sequence{Integer(int64(math.Trunc(numAsFloat(ln) / rf)))}, nil
	case "mod":
		li, ri, ok := bothInteger(ln, rn)
		if ok {
			if ri == 0 {
				return Sequence{}, nil
			}
			return Sequence{Integer(int64(li) % int64(ri))}, nil
		}
		rf := numAsFloat(rn)
		if rf == 0 {
			return nil, newEvalError(diagnostic.TypeErrorCode, "modulo by zero")
		}
		return Sequence{Decimal(math.Mod(numAsFloat(ln), rf))}, nil
	}
	return nil, newEvalError(diagnostic.TypeErrorCode, "unknown arithmetic operator %q", op)
}

// opConcat implements `&`: string concatenation where empty operands are
// treated as empty strings, unlike `+` which propagates empty.
func opConcat(left, right Sequence) (Sequence, error) {
	var lb, rb strings.Builder
	if v, ok, err := singleton(left, "&"); err != nil {
		return nil, err
	} else if ok {
		lb.WriteString(stringOf(v))
	}
	if v, ok, err := singleton(right, "&"); err != nil {
		return nil, err
	} else if ok {
		rb.WriteString(stringOf(v))
	}
	return Sequence{String(lb.String() + rb.String())}, nil
}

// opUnary implements prefix -, +, not.
func opUnary(op string, operand Sequence) (Sequence, error) {
	switch op {
	case "-":
		v, ok, err := singleton(operand, "unary -")
		if err != nil {
			return nil, err
		}
		if !ok {
			return Sequence{}, nil
		}
		n, err := asNumber(v, "unary -")
		if err != nil {
			return nil, err
		}
		if i, ok := n.(Integer); ok {
			return Sequence{Integer(-int64(i))}, nil
		}
		return Sequence{Decimal(-numAsFloat(n))}, nil
	case "+":
		return operand, nil
	case "not":
		return toTriBool(operand).negate().toSequence(), nil
	}
	return nil, newEvalError(diagnostic.TypeErrorCode, "unknown unary operator %q", op)
}

func (t triBool) negate() triBool {
	switch t {
	case triTrue:
		return triFalse
	case triFalse:
		return triTrue
	default:
		return triUnknown
	}
}
