package evaluator

import "testing"

func TestOpArithmeticIntegerResultsStayInteger(t *testing.T) {
	tests := []struct {
		op   string
		l, r Sequence
		want interface{}
	}{
		{"+", Sequence{Integer(2)}, Sequence{Integer(3)}, Integer(5)},
		{"-", Sequence{Integer(5)}, Sequence{Integer(3)}, Integer(2)},
		{"*", Sequence{Integer(2)}, Sequence{Integer(3)}, Integer(6)},
	}
	for _, tt := range tests {
		got, err := opArithmetic(tt.op, tt.l, tt.r)
		if err != nil {
			t.Fatalf("opArithmetic(%s) error = %v", tt.op, err)
		}
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("opArithmetic(%s) = %v, want [%v]", tt.op, got, tt.want)
		}
	}
}

func TestOpArithmeticMixedPromotesToDecimal(t *testing.T) {
	got, err := opArithmetic("+", Sequence{Integer(2)}, Sequence{Decimal(0.5)})
	if err != nil {
		t.Fatalf("opArithmetic() error = %v", err)
	}
	if len(got) != 1 || got[0] != Decimal(2.5) {
		t.Errorf("opArithmetic(2 + 0.5) = %v, want [2.5]", got)
	}
}

func TestOpArithmeticEmptyPropagates(t *testing.T) {
	got, err := opArithmetic("+", Sequence{}, Sequence{Integer(1)})
	if err != nil {
		t.Fatalf("opArithmetic() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("opArithmetic(empty + 1) = %v, want empty", got)
	}
}

func TestOpArithmeticDivisionAlwaysDecimal(t *testing.T) {
	got, err := opArithmetic("/", Sequence{Integer(6)}, Sequence{Integer(3)})
	if err != nil {
		t.Fatalf("opArithmetic() error = %v", err)
	}
	if len(got) != 1 || got[0] != Decimal(2) {
		t.Errorf("opArithmetic(6 / 3) = %v, want [2.0 as Decimal]", got)
	}
}

func TestOpArithmeticIntegerDivisionByZeroYieldsEmpty(t *testing.T) {
	got, err := opArithmetic("/", Sequence{Integer(1)}, Sequence{Integer(0)})
	if err != nil {
		t.Fatalf("1 / 0 error = %v, want empty", err)
	}
	if len(got) != 0 {
		t.Errorf("opArithmetic(1 / 0) = %v, want empty", got)
	}
}

func TestOpArithmeticDecimalDivisionByZeroErrors(t *testing.T) {
	if _, err := opArithmetic("/", Sequence{Decimal(1)}, Sequence{Decimal(0)}); err == nil {
		t.Errorf("1.0 / 0.0 should error")
	}
	if _, err := opArithmetic("/", Sequence{Integer(1)}, Sequence{Decimal(0)}); err == nil {
		t.Errorf("1 / 0.0 should error once a decimal is involved")
	}
}

func TestOpArithmeticIntegerDivAndMod(t *testing.T) {
	got, err := opArithmetic("div", Sequence{Integer(7)}, Sequence{Integer(2)})
	if err != nil || len(got) != 1 || got[0] != Integer(3) {
		t.Errorf("opArithmetic(7 div 2) = (%v, %v), want [3]", got, err)
	}
	got, err = opArithmetic("mod", Sequence{Integer(7)}, Sequence{Integer(2)})
	if err != nil || len(got) != 1 || got[0] != Integer(1) {
		t.Errorf("opArithmetic(7 mod 2) = (%v, %v), want [1]", got, err)
	}
}

func TestOpArithmeticIntegerDivAndModByZeroYieldEmpty(t *testing.T) {
	got, err := opArithmetic("div", Sequence{Integer(1)}, Sequence{Integer(0)})
	if err != nil {
		t.Fatalf("1 div 0 error = %v, want empty", err)
	}
	if len(got) != 0 {
		t.Errorf("opArithmetic(1 div 0) = %v, want empty", got)
	}

	got, err = opArithmetic("mod", Sequence{Integer(1)}, Sequence{Integer(0)})
	if err != nil {
		t.Fatalf("1 mod 0 error = %v, want empty", err)
	}
	if len(got) != 0 {
		t.Errorf("opArithmetic(1 mod 0) = %v, want empty", got)
	}
}

func TestOpArithmeticDecimalDivAndModByZeroError(t *testing.T) {
	if _, err := opArithmetic("div", Sequence{Decimal(1)}, Sequence{Decimal(0)}); err == nil {
		t.Errorf("1.0 div 0.0 should error")
	}
	if _, err := opArithmetic("mod", Sequence{Decimal(1)}, Sequence{Decimal(0)}); err == nil {
		t.Errorf("1.0 mod 0.0 should error")
	}
}

func TestOpArithmeticSingletonViolationErrors(t *testing.T) {
	if _, err := opArithmetic("+", Sequence{Integer(1), Integer(2)}, Sequence{Integer(1)}); err == nil {
		t.Errorf("a 2-element left operand should error, not silently pick one")
	}
}

func TestOpConcatTreatsEmptyAsEmptyString(t *testing.T) {
	got, err := opConcat(Sequence{}, Sequence{String("b")})
	if err != nil {
		t.Fatalf("opConcat() error = %v", err)
	}
	if len(got) != 1 || got[0] != String("b") {
		t.Errorf("opConcat(empty, b) = %v, want [b]", got)
	}
}

func TestOpConcatBothPresent(t *testing.T) {
	got, err := opConcat(Sequence{String("a")}, Sequence{String("b")})
	if err != nil {
		t.Fatalf("opConcat() error = %v", err)
	}
	if len(got) != 1 || got[0] != String("ab") {
		t.Errorf("opConcat(a, b) = %v, want [ab]", got)
	}
}

func TestOpUnary(t *testing.T) {
	got, err := opUnary("-", Sequence{Integer(5)})
	if err != nil || len(got) != 1 || got[0] != Integer(-5) {
		t.Errorf("opUnary(-, 5) = (%v, %v), want [-5]", got, err)
	}

	got, err = opUnary("+", Sequence{Integer(5)})
	if err != nil || len(got) != 1 || got[0] != Integer(5) {
		t.Errorf("opUnary(+, 5) = (%v, %v), want [5]", got, err)
	}

	got, err = opUnary("not", Sequence{Boolean(true)})
	if err != nil || len(got) != 1 || got[0] != Boolean(false) {
		t.Errorf("opUnary(not, true) = (%v, %v), want [false]", got, err)
	}

	got, err = opUnary("not", Sequence{})
	if err != nil || len(got) != 0 {
		t.Errorf("opUnary(not, empty) = (%v, %v), want empty", got, err)
	}
}

func TestOpUnaryNegateDecimal(t *testing.T) {
	got, err := opUnary("-", Sequence{Decimal(1.5)})
	if err != nil || len(got) != 1 || got[0] != Decimal(-1.5) {
		t.Errorf("opUnary(-, 1.5) = (%v, %v), want [-1.5]", got, err)
	}
}
