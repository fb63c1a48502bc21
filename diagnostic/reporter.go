package diagnostic

import (
	"fmt"

	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// ParseContext tags the syntactic position an error occurred in, so the
// Reporter can phrase a message specific to it (spec.md §4.8).
type ParseContext int

const (
	CtxExpression ParseContext = iota
	CtxCollectionLiteral
	CtxFunctionCall
	CtxIndexExpression
	CtxTypeCast
	CtxMembershipTest
)

func (c ParseContext) String() string {
	switch c {
	case CtxExpression:
		return "expression"
	case CtxCollectionLiteral:
		return "collection literal"
	case CtxFunctionCall:
		return "function call"
	case CtxIndexExpression:
		return "index expression"
	case CtxTypeCast:
		return "type cast"
	case CtxMembershipTest:
		return "membership test"
	default:
		return "expression"
	}
}

// Reporter produces context-sensitive diagnostic messages given a
// ParseContext and the offending token.
type Reporter struct{}

// NewReporter creates a Reporter. It holds no state; it exists as a
// collaborator type so callers can swap in a localized/alternate reporter
// without changing call sites.
func NewReporter() *Reporter { return &Reporter{} }

// Unexpected builds an UNEXPECTED_TOKEN diagnostic phrased for ctx.
func (r *Reporter) Unexpected(ctx ParseContext, got token.Token, expected string) Diagnostic {
	msg := fmt.Sprintf("unexpected %s in %s: expected %s", describeToken(got), ctx, expected)
	return Diagnostic{
		Severity: SeverityError,
		Range:    got.Range(),
		Code:     UnexpectedToken,
		Message:  msg,
	}
}

// MissingIdentifier builds an EXPECTED_IDENTIFIER diagnostic phrased for ctx.
func (r *Reporter) MissingIdentifier(ctx ParseContext, got token.Token) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Range:    got.Range(),
		Code:     ExpectedIdentifier,
		Message:  fmt.Sprintf("expected an identifier in %s, got %s", ctx, describeToken(got)),
	}
}

func describeToken(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of input"
	}
	if t.Text != "" {
		return fmt.Sprintf("%q", t.Text)
	}
	return t.Kind.String()
}
