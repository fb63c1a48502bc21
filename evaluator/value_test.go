package evaluator

import (
	"testing"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
)

func TestLiteralValue(t *testing.T) {
	tests := []struct {
		name string
		lit  *ast.Literal
		want interface{}
	}{
		{"string", &ast.Literal{Value: "hi", ValueKind: ast.ValueString}, String("hi")},
		{"boolean true", &ast.Literal{Value: "true", ValueKind: ast.ValueBoolean}, Boolean(true)},
		{"boolean false", &ast.Literal{Value: "false", ValueKind: ast.ValueBoolean}, Boolean(false)},
		{"integer", &ast.Literal{Value: "42", ValueKind: ast.ValueNumber}, Integer(42)},
		{"decimal", &ast.Literal{Value: "4.2", ValueKind: ast.ValueNumber}, Decimal(4.2)},
		{"date", &ast.Literal{Value: "@2023-01-15", ValueKind: ast.ValueDate}, Date("2023-01-15")},
		{"time", &ast.Literal{Value: "@T10:30:00", ValueKind: ast.ValueTime}, Time("10:30:00")},
		{"datetime", &ast.Literal{Value: "@2023-01-15T10:30:00Z", ValueKind: ast.ValueDateTime}, DateTime("2023-01-15T10:30:00Z")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := literalValue(tt.lit)
			if err != nil {
				t.Fatalf("literalValue() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("literalValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLiteralValueInvalidNumber(t *testing.T) {
	_, err := literalValue(&ast.Literal{Value: "not-a-number", ValueKind: ast.ValueNumber})
	if err == nil {
		t.Fatalf("expected an error for an invalid numeric literal")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"bool", true, Boolean(true)},
		{"string", "hi", String("hi")},
		{"int", int(5), Integer(5)},
		{"int32", int32(5), Integer(5)},
		{"int64", int64(5), Integer(5)},
		{"whole float64", float64(5), Integer(5)},
		{"fractional float64", float64(5.5), Decimal(5.5)},
		{"already Integer", Integer(3), Integer(3)},
		{"already Decimal", Decimal(3.5), Decimal(3.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.in); got != tt.want {
				t.Errorf("normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizePassesThroughNodes(t *testing.T) {
	m := map[string]interface{}{"given": "John"}
	got := normalize(m)
	if gm, ok := got.(map[string]interface{}); !ok || gm["given"] != "John" {
		t.Errorf("normalize(map) = %v, want passthrough", got)
	}
}

func TestSingletonConversion(t *testing.T) {
	v, ok, err := singleton(Sequence{}, "test")
	if err != nil || ok || v != nil {
		t.Errorf("singleton(empty) = (%v, %v, %v), want (nil, false, nil)", v, ok, err)
	}

	v, ok, err = singleton(Sequence{Integer(1)}, "test")
	if err != nil || !ok || v != Integer(1) {
		t.Errorf("singleton([1]) = (%v, %v, %v), want (1, true, nil)", v, ok, err)
	}

	_, _, err = singleton(Sequence{Integer(1), Integer(2)}, "test")
	if err == nil {
		t.Fatalf("singleton([1,2]) should error")
	}
	evalErr, ok2 := err.(*EvalError)
	if !ok2 || evalErr.Code != diagnostic.TypeErrorCode {
		t.Errorf("error = %+v, want *EvalError with TypeErrorCode", err)
	}
}

func TestToTriBool(t *testing.T) {
	tests := []struct {
		name string
		in   Sequence
		want triBool
	}{
		{"empty", Sequence{}, triUnknown},
		{"true", Sequence{Boolean(true)}, triTrue},
		{"false", Sequence{Boolean(false)}, triFalse},
		{"non-bool singleton", Sequence{Integer(1)}, triTrue},
		{"multi-element", Sequence{Integer(1), Integer(2)}, triTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toTriBool(tt.in); got != tt.want {
				t.Errorf("toTriBool(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTriBoolToSequence(t *testing.T) {
	if got := triTrue.toSequence(); len(got) != 1 || got[0] != Boolean(true) {
		t.Errorf("triTrue.toSequence() = %v, want [true]", got)
	}
	if got := triFalse.toSequence(); len(got) != 1 || got[0] != Boolean(false) {
		t.Errorf("triFalse.toSequence() = %v, want [false]", got)
	}
	if got := triUnknown.toSequence(); len(got) != 0 {
		t.Errorf("triUnknown.toSequence() = %v, want empty", got)
	}
}

func TestStringOf(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{String("hi"), "hi"},
		{Integer(42), "42"},
		{Decimal(4.5), "4.5"},
		{Boolean(true), "true"},
		{Boolean(false), "false"},
		{Date("2023-01-15"), "2023-01-15"},
	}
	for _, tt := range tests {
		if got := stringOf(tt.in); got != tt.want {
			t.Errorf("stringOf(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAsNumberRejectsNonNumeric(t *testing.T) {
	if _, err := asNumber(String("x"), "+"); err == nil {
		t.Errorf("asNumber(String) should error")
	}
	if v, err := asNumber(Integer(1), "+"); err != nil || v != Integer(1) {
		t.Errorf("asNumber(Integer) = (%v, %v), want (1, nil)", v, err)
	}
}

func TestBothIntegerHelper(t *testing.T) {
	if _, _, ok := bothInteger(Integer(1), Decimal(2)); ok {
		t.Errorf("bothInteger(Integer, Decimal) ok = true, want false")
	}
	ai, bi, ok := bothInteger(Integer(1), Integer(2))
	if !ok || ai != 1 || bi != 2 {
		t.Errorf("bothInteger(Integer, Integer) = (%v, %v, %v), want (1, 2, true)", ai, bi, ok)
	}
}

func TestEvalErrorPositionAnnotation(t *testing.T) {
	err := newEvalError(diagnostic.TypeErrorCode, "boom")
	node := &ast.Identifier{Name: "x"}
	annotated := annotate(err, node)
	ee := annotated.(*EvalError)
	if ee.Position == nil {
		t.Fatalf("annotate() did not set Position")
	}
	if (*ee.Position) != ast.Node(node) {
		t.Errorf("annotate() set Position to a different node")
	}
	if got := ee.Error(); got == "" {
		t.Errorf("Error() should not be empty once annotated")
	}
}

func TestAnnotateNilError(t *testing.T) {
	if got := annotate(nil, &ast.Identifier{Name: "x"}); got != nil {
		t.Errorf("annotate(nil) = %v, want nil", got)
	}
}
