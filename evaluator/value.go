// Package evaluator implements the tree-walking FHIRPath evaluator: a
// stream-processing contract over flat value sequences, three-valued
// logic, and the ~70 mandatory built-in functions (spec.md §4.6). Dispatch
// for operators and functions goes through the shared registry package so
// the same descriptor table the parser uses for precedence also drives
// evaluation, per spec.md §4.4.
package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
)

// Sequence is the flat value-sequence type threaded through every node
// evaluation. It's an alias for evalctx.Sequence so the two packages never
// disagree about element representation.
type Sequence = evalctx.Sequence

// Value-kind concrete types. FHIRPath's primitive element kinds are given
// distinct Go types (rather than reusing bare string/float64) so a type
// switch unambiguously distinguishes, e.g., an Integer produced by the
// engine from an arbitrary float64 living inside a host's input tree.
type (
	Integer  int64
	Decimal  float64
	String   string
	Boolean  bool
	Date     string // normalized "YYYY[-MM[-DD]]", no leading '@'
	Time     string // normalized "HH[:MM[:SS[.fff]]]", no leading '@' or 'T'
	DateTime string // normalized "YYYY[-MM[-DD]][THH[:MM[:SS[.fff]]]][Z|±HH:MM]"
)

// EvalError is the error type every evaluator failure is wrapped in.
type EvalError struct {
	Code     diagnostic.Code
	Message  string
	Position *ast.Node // nil until a frame higher up the stack backfills it
}

func (e *EvalError) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, (*e.Position).Position())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newEvalError(code diagnostic.Code, format string, args ...any) error {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// annotate backfills Position on err if it's an *EvalError without one,
// matching spec.md §4.6's "the evaluator annotates missing positions while
// unwinding".
func annotate(err error, n ast.Node) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EvalError); ok && ee.Position == nil {
		ee.Position = &n
	}
	return err
}

// literalValue converts a parsed ast.Literal into its Value representation.
// ValueNull produces no value at all (the caller treats it as an empty
// sequence, never calling this).
func literalValue(lit *ast.Literal) (interface{}, error) {
	switch lit.ValueKind {
	case ast.ValueString:
		return String(lit.Value), nil
	case ast.ValueBoolean:
		return Boolean(lit.Value == "true"), nil
	case ast.ValueNumber:
		if strings.Contains(lit.Value, ".") {
			f, err := strconv.ParseFloat(lit.Value, 64)
			if err != nil {
				return nil, newEvalError(diagnostic.TypeErrorCode, "invalid decimal literal %q", lit.Value)
			}
			return Decimal(f), nil
		}
		i, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return nil, newEvalError(diagnostic.TypeErrorCode, "invalid integer literal %q", lit.Value)
		}
		return Integer(i), nil
	case ast.ValueDate:
		return Date(strings.TrimPrefix(lit.Value, "@")), nil
	case ast.ValueTime:
		return Time(strings.TrimPrefix(strings.TrimPrefix(lit.Value, "@"), "T")), nil
	case ast.ValueDateTime:
		return DateTime(strings.TrimPrefix(lit.Value, "@")), nil
	default:
		return nil, newEvalError(diagnostic.TypeErrorCode, "unhandled literal kind")
	}
}

// normalize converts a raw host value (as found inside an input JSON-shaped
// tree: float64/int/string/bool/nil/map/slice) into the engine's Value
// representation. Maps and slices pass through unchanged; they're "node"
// elements the evaluator descends into via Identifier, not leaf values.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case Integer, Decimal, String, Boolean, Date, Time, DateTime:
		return x
	case bool:
		return Boolean(x)
	case string:
		return String(x)
	case int:
		return Integer(int64(x))
	case int32:
		return Integer(int64(x))
	case int64:
		return Integer(x)
	case float32:
		return decimalOrInteger(float64(x))
	case float64:
		return decimalOrInteger(x)
	default:
		return v // map[string]interface{}, []interface{}, or a host-defined node type
	}
}

// decimalOrInteger classifies a raw JSON number: whole-valued floats become
// Integer (JSON has no integer/float distinction, but FHIRPath does), so
// `42` round-trips as an Integer even after passing through encoding/json.
func decimalOrInteger(f float64) interface{} {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return Integer(int64(f))
	}
	return Decimal(f)
}

// singleton applies FHIRPath's singleton conversion (spec.md §3): 0 elements
// -> (nil, false) meaning "propagate empty"; 1 element -> that element;
// >=2 -> an evaluation error, since the caller needed exactly one scalar.
func singleton(s Sequence, ctxDescription string) (interface{}, bool, error) {
	switch len(s) {
	case 0:
		return nil, false, nil
	case 1:
		return s[0], true, nil
	default:
		return nil, false, newEvalError(diagnostic.TypeErrorCode,
			"expected a single value for %s, got a collection of %d", ctxDescription, len(s))
	}
}

// triBool is the three-valued-logic result: known true, known false, or
// unknown (empty).
type triBool int

const (
	triUnknown triBool = iota
	triTrue
	triFalse
)

func (t triBool) toSequence() Sequence {
	switch t {
	case triTrue:
		return Sequence{Boolean(true)}
	case triFalse:
		return Sequence{Boolean(false)}
	default:
		return Sequence{}
	}
}

// toTriBool coerces a sequence to a three-valued boolean via singleton
// conversion: empty -> unknown, [true]/[false] -> known, multi-element ->
// true (non-empty), per spec.md §4.6 ("A sequence coerces to boolean via
// singleton conversion ... multi-element -> true").
func toTriBool(s Sequence) triBool {
	switch len(s) {
	case 0:
		return triUnknown
	case 1:
		if b, ok := s[0].(Boolean); ok {
			if bool(b) {
				return triTrue
			}
			return triFalse
		}
		return triTrue
	default:
		return triTrue
	}
}

// asNumber singleton-converts v to either Integer or Decimal, erroring on
// any other type.
func asNumber(v interface{}, op string) (interface{}, error) {
	switch v.(type) {
	case Integer, Decimal:
		return v, nil
	default:
		return nil, newEvalError(diagnostic.TypeErrorCode, "%s: expected a number, got %T", op, v)
	}
}

func numAsFloat(v interface{}) float64 {
	switch x := v.(type) {
	case Integer:
		return float64(x)
	case Decimal:
		return float64(x)
	default:
		return 0
	}
}

func bothInteger(a, b interface{}) (Integer, Integer, bool) {
	ai, aok := a.(Integer)
	bi, bok := b.(Integer)
	return ai, bi, aok && bok
}

// asString singleton-converts v to a string, erroring on any other type.
func asString(v interface{}, op string) (String, error) {
	s, ok := v.(String)
	if !ok {
		return "", newEvalError(diagnostic.TypeErrorCode, "%s: expected a string, got %T", op, v)
	}
	return s, nil
}

// stringOf renders v for display/conversion purposes (toString, & operand
// coercion), covering every primitive Value kind plus passthrough node
// values rendered with fmt.
func stringOf(v interface{}) string {
	switch x := v.(type) {
	case String:
		return string(x)
	case Integer:
		return strconv.FormatInt(int64(x), 10)
	case Decimal:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case Boolean:
		if x {
			return "true"
		}
		return "false"
	case Date:
		return string(x)
	case Time:
		return string(x)
	case DateTime:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
