package evaluator

import "testing"

func TestTypeMatchesPrimitives(t *testing.T) {
	tests := []struct {
		v          interface{}
		targetType string
		want       bool
	}{
		{Integer(1), "Integer", true},
		{Integer(1), "System.Integer", true},
		{Decimal(1.5), "Decimal", true},
		{String("x"), "String", true},
		{Boolean(true), "Boolean", true},
		{Integer(1), "String", false},
	}
	for _, tt := range tests {
		if got := typeMatches(tt.v, tt.targetType); got != tt.want {
			t.Errorf("typeMatches(%v, %q) = %v, want %v", tt.v, tt.targetType, got, tt.want)
		}
	}
}

func TestTypeMatchesResourceNode(t *testing.T) {
	patient := map[string]interface{}{"resourceType": "Patient"}
	if !typeMatches(patient, "Patient") {
		t.Errorf("typeMatches(patient node, Patient) = false, want true")
	}
	if typeMatches(patient, "Observation") {
		t.Errorf("typeMatches(patient node, Observation) = true, want false")
	}
}

func TestTypeMatchesNodeWithoutResourceType(t *testing.T) {
	node := map[string]interface{}{"given": "John"}
	if typeMatches(node, "Patient") {
		t.Errorf("a node without resourceType should never match")
	}
}

func TestTryCastPassesThroughMatchingValue(t *testing.T) {
	got, ok := tryCast(Integer(5), "Integer")
	if !ok || got != Integer(5) {
		t.Errorf("tryCast(5, Integer) = (%v, %v), want (5, true)", got, ok)
	}
}

func TestTryCastConvertsCompatiblePrimitive(t *testing.T) {
	got, ok := tryCast(Integer(5), "Decimal")
	if !ok || got != Decimal(5) {
		t.Errorf("tryCast(5, Decimal) = (%v, %v), want (5.0, true)", got, ok)
	}
	got, ok = tryCast(String("true"), "Boolean")
	if !ok || got != Boolean(true) {
		t.Errorf("tryCast('true', Boolean) = (%v, %v), want (true, true)", got, ok)
	}
}

func TestTryCastDropsUnconvertible(t *testing.T) {
	_, ok := tryCast(String("not a number"), "Integer")
	if ok {
		t.Errorf("tryCast('not a number', Integer) should fail")
	}
}

func TestLastSegment(t *testing.T) {
	if got := lastSegment("System.Integer"); got != "Integer" {
		t.Errorf("lastSegment(System.Integer) = %q, want %q", got, "Integer")
	}
	if got := lastSegment("Patient"); got != "Patient" {
		t.Errorf("lastSegment(Patient) = %q, want %q", got, "Patient")
	}
}
