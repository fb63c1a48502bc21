package parser

import (
	"testing"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evaluator"
)

func mustParse(t *testing.T, source string, opts ...Option) *Result {
	t.Helper()
	reg := evaluator.NewRegistry()
	res, err := Parse(source, reg, opts...)
	if err != nil {
		t.Fatalf("Parse(%q) unexpected error = %v", source, err)
	}
	return res
}

func TestParseLiteral(t *testing.T) {
	res := mustParse(t, "42")
	lit, ok := res.AST.(*ast.Literal)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Literal", res.AST)
	}
	if lit.Value != "42" || lit.ValueKind != ast.ValueNumber {
		t.Errorf("literal = %+v, want Value=42 ValueKind=ValueNumber", lit)
	}
	if res.HasErrors {
		t.Errorf("HasErrors = true, want false")
	}
}

func TestParsePrecedenceAdditiveBeforeMultiplicative(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3): the top node is '+'.
	res := mustParse(t, "1 + 2 * 3")
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpPlus {
		t.Fatalf("AST = %+v, want top-level '+'", res.AST)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("right of '+' = %+v, want '*'", bin.Right)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	// 1 - 2 - 3 should parse as (1 - 2) - 3.
	res := mustParse(t, "1 - 2 - 3")
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpMinus {
		t.Fatalf("AST = %+v, want top-level '-'", res.AST)
	}
	lhs, ok := bin.Left.(*ast.Binary)
	if !ok || lhs.Op != ast.OpMinus {
		t.Fatalf("left of top '-' = %+v, want another '-'", bin.Left)
	}
}

func TestParseDotChain(t *testing.T) {
	res := mustParse(t, "Patient.name.given")
	outer, ok := res.AST.(*ast.Binary)
	if !ok || outer.Op != ast.OpDot {
		t.Fatalf("AST = %+v, want top-level DOT", res.AST)
	}
	right, ok := outer.Right.(*ast.Identifier)
	if !ok || right.Name != "given" {
		t.Fatalf("outermost right = %+v, want Identifier(given)", outer.Right)
	}
}

func TestParseFunctionCallAfterDot(t *testing.T) {
	res := mustParse(t, "name.where(use = 'official')")
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpDot {
		t.Fatalf("AST = %+v, want top-level DOT", res.AST)
	}
	fn, ok := bin.Right.(*ast.Function)
	if !ok {
		t.Fatalf("right of DOT = %T, want *ast.Function", bin.Right)
	}
	if len(fn.Arguments) != 1 {
		t.Errorf("len(fn.Arguments) = %d, want 1", len(fn.Arguments))
	}
}

func TestParseStandaloneFunctionCall(t *testing.T) {
	res := mustParse(t, "exists()")
	fn, ok := res.AST.(*ast.Function)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Function", res.AST)
	}
	if len(fn.Arguments) != 0 {
		t.Errorf("len(fn.Arguments) = %d, want 0", len(fn.Arguments))
	}
}

func TestParseKeywordAsIdentifierAfterDot(t *testing.T) {
	// "contains" is a keyword but must be treated as a plain member name here.
	res := mustParse(t, "Patient.contains")
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpDot {
		t.Fatalf("AST = %+v, want top-level DOT", res.AST)
	}
	ident, ok := bin.Right.(*ast.Identifier)
	if !ok || ident.Name != "contains" {
		t.Fatalf("right of DOT = %+v, want Identifier(contains)", bin.Right)
	}
}

func TestParseIndex(t *testing.T) {
	res := mustParse(t, "name[0]")
	idx, ok := res.AST.(*ast.Index)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Index", res.AST)
	}
	lit, ok := idx.IndexExpr.(*ast.Literal)
	if !ok || lit.Value != "0" {
		t.Errorf("index expr = %+v, want literal 0", idx.IndexExpr)
	}
}

func TestParseUnionFlattensRepeated(t *testing.T) {
	res := mustParse(t, "1 | 2 | 3")
	u, ok := res.AST.(*ast.Union)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Union", res.AST)
	}
	if len(u.Operands) != 3 {
		t.Errorf("len(u.Operands) = %d, want 3 (flattened)", len(u.Operands))
	}
}

func TestParseIsForm(t *testing.T) {
	res := mustParse(t, "value is Integer")
	m, ok := res.AST.(*ast.MembershipTest)
	if !ok {
		t.Fatalf("AST = %T, want *ast.MembershipTest", res.AST)
	}
	if m.TargetType != "Integer" {
		t.Errorf("TargetType = %q, want Integer", m.TargetType)
	}
}

func TestParseAsForm(t *testing.T) {
	res := mustParse(t, "value as Decimal")
	c, ok := res.AST.(*ast.TypeCast)
	if !ok {
		t.Fatalf("AST = %T, want *ast.TypeCast", res.AST)
	}
	if c.TargetType != "Decimal" {
		t.Errorf("TargetType = %q, want Decimal", c.TargetType)
	}
}

func TestParseOfTypeArgumentIsTypeReference(t *testing.T) {
	res := mustParse(t, "children().ofType(Patient)")
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpDot {
		t.Fatalf("AST = %+v, want DOT", res.AST)
	}
	fn, ok := bin.Right.(*ast.Function)
	if !ok {
		t.Fatalf("right of DOT = %T, want *ast.Function", bin.Right)
	}
	if len(fn.Arguments) != 1 {
		t.Fatalf("len(fn.Arguments) = %d, want 1", len(fn.Arguments))
	}
	ref, ok := fn.Arguments[0].(*ast.TypeReference)
	if !ok || ref.TypeName != "Patient" {
		t.Errorf("argument = %+v, want TypeReference(Patient)", fn.Arguments[0])
	}
}

func TestParseEmptyCollectionIsNullLiteral(t *testing.T) {
	res := mustParse(t, "{}")
	lit, ok := res.AST.(*ast.Literal)
	if !ok || lit.ValueKind != ast.ValueNull {
		t.Fatalf("AST = %+v, want null literal", res.AST)
	}
}

func TestParseCollectionLiteral(t *testing.T) {
	res := mustParse(t, "{1, 2, 3}")
	c, ok := res.AST.(*ast.Collection)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Collection", res.AST)
	}
	if len(c.Elements) != 3 {
		t.Errorf("len(c.Elements) = %d, want 3", len(c.Elements))
	}
}

func TestParseUnaryOperators(t *testing.T) {
	res := mustParse(t, "-1")
	u, ok := res.AST.(*ast.Unary)
	if !ok || u.Op != ast.OpNeg {
		t.Fatalf("AST = %+v, want unary neg", res.AST)
	}
}

func TestParseParenthesizedExpression(t *testing.T) {
	res := mustParse(t, "(1 + 2) * 3")
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpMul {
		t.Fatalf("AST = %+v, want top-level '*'", res.AST)
	}
	lhs, ok := bin.Left.(*ast.Binary)
	if !ok || lhs.Op != ast.OpPlus {
		t.Fatalf("left of '*' = %+v, want '+' (parenthesized)", bin.Left)
	}
}

func TestParseUnclosedParenthesisDiagnosed(t *testing.T) {
	res := mustParse(t, "(1 + 2")
	if !res.HasErrors {
		t.Errorf("HasErrors = false, want true for unclosed parenthesis")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.UnclosedParenthesis {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want one with UnclosedParenthesis", res.Diagnostics)
	}
}

func TestParseDoubleDotDiagnosed(t *testing.T) {
	res := mustParse(t, "Patient..name", WithErrorRecovery())
	if !res.IsPartial {
		t.Errorf("IsPartial = false, want true")
	}
	if !res.HasErrors {
		t.Errorf("HasErrors = false, want true")
	}
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpDot {
		t.Fatalf("AST = %+v, want a DOT binary despite the recovered error", res.AST)
	}

	var found *diagnostic.Diagnostic
	for i, d := range res.Diagnostics {
		if d.Code == diagnostic.InvalidOperator {
			found = &res.Diagnostics[i]
		}
	}
	if found == nil {
		t.Fatalf("no INVALID_OPERATOR diagnostic among %+v", res.Diagnostics)
	}
	// "Patient..name": the first '.' is at offset 7, the second at offset 8;
	// the range must span both dots, not just the second.
	if found.Range.Start.Offset != 7 || found.Range.End.Offset != 9 {
		t.Errorf("diagnostic range = %+v, want a span from offset 7 to 9 covering both dots", found.Range)
	}
}

func TestParseDoubleEqualsDiagnosed(t *testing.T) {
	res := mustParse(t, "a == b")
	if !res.HasErrors {
		t.Errorf("HasErrors = false, want true for '=='")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == diagnostic.InvalidOperator {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want one with InvalidOperator", res.Diagnostics)
	}
	bin, ok := res.AST.(*ast.Binary)
	if !ok || bin.Op != ast.OpEq {
		t.Fatalf("AST = %+v, want a plain '=' binary recovered from '=='", res.AST)
	}
}

func TestParseTrailingCommaInCollectionDiagnosed(t *testing.T) {
	res := mustParse(t, "{1, 2,}")
	if !res.HasErrors {
		t.Errorf("HasErrors = false, want true for trailing comma")
	}
}

func TestParseErrorRecoveryProducesErrorNode(t *testing.T) {
	res := mustParse(t, "1 + ", WithErrorRecovery())
	if !res.IsPartial {
		t.Errorf("IsPartial = false, want true")
	}
	bin, ok := res.AST.(*ast.Binary)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Binary", res.AST)
	}
	if _, ok := bin.Right.(*ast.Incomplete); !ok {
		t.Errorf("bin.Right = %T, want *ast.Incomplete", bin.Right)
	}
}

func TestParseStrictModeWithoutRecoveryStillReturnsBestEffortAST(t *testing.T) {
	res := mustParse(t, "1 +")
	if res.AST == nil {
		t.Fatalf("AST = nil, want a best-effort AST even without recovery")
	}
	if !res.HasErrors {
		t.Errorf("HasErrors = false, want true")
	}
}

func TestParseThrowOnErrorReturnsGoError(t *testing.T) {
	reg := evaluator.NewRegistry()
	_, err := Parse("1 +", reg, WithThrowOnError())
	if err == nil {
		t.Fatalf("Parse with WithThrowOnError() on malformed input returned nil error")
	}
}

func TestParseTrackRangesAttachesFullRange(t *testing.T) {
	res := mustParse(t, "1 + 2", WithTrackRanges())
	bin, ok := res.AST.(*ast.Binary)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Binary", res.AST)
	}
	rng, has := bin.Range()
	if !has {
		t.Fatalf("Range() ok = false, want true when WithTrackRanges() is set")
	}
	if rng.End.Offset <= rng.Start.Offset {
		t.Errorf("range = %+v, want End strictly after Start", rng)
	}
}

func TestParseWithoutTrackRangesLeavesRangeUnset(t *testing.T) {
	res := mustParse(t, "1 + 2")
	bin, ok := res.AST.(*ast.Binary)
	if !ok {
		t.Fatalf("AST = %T, want *ast.Binary", res.AST)
	}
	if _, has := bin.Range(); has {
		t.Errorf("Range() ok = true, want false when track-ranges is disabled")
	}
}

func TestParseMaxErrorsCapsErrorsNotDiagnosticCollectionOverall(t *testing.T) {
	reg := evaluator.NewRegistry()
	res, err := Parse("1 +", reg, WithMaxErrors(1))
	if err != nil {
		t.Fatalf("unexpected error = %v", err)
	}
	errCount := 0
	for _, d := range res.Diagnostics {
		if d.Severity == diagnostic.SeverityError {
			errCount++
		}
	}
	if errCount > 1 {
		t.Errorf("error-severity diagnostics = %d, want at most 1", errCount)
	}
}

func TestParseDelimitedIdentifierNeverBecomesTypeOrIdentifier(t *testing.T) {
	res := mustParse(t, "`Patient`")
	if _, ok := res.AST.(*ast.Identifier); !ok {
		t.Fatalf("AST = %T, want *ast.Identifier (delimited identifiers are never TypeOrIdentifier)", res.AST)
	}
}
