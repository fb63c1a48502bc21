// Package diagnostic implements the error/warning model shared by the lexer
// and parser: a stable closed set of error codes, severities, source ranges,
// and a collector/reporter pair (spec.md §4.8, §6, §7).
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// Severity is the closed set of diagnostic severities.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code is the stable, closed set of error codes exported for host error
// handling, per spec.md §6.
type Code int

const (
	SyntaxError Code = iota
	UnexpectedToken
	ExpectedExpression
	ExpectedIdentifier
	InvalidOperator
	UnclosedParenthesis
	UnclosedBracket
	UnclosedBrace
	UnterminatedString
	InvalidEscape
	ParseErrorCode
	TypeErrorCode
	AnalysisError
	UnreachableCode
)

var codeNames = map[Code]string{
	SyntaxError: "SYNTAX_ERROR", UnexpectedToken: "UNEXPECTED_TOKEN",
	ExpectedExpression: "EXPECTED_EXPRESSION", ExpectedIdentifier: "EXPECTED_IDENTIFIER",
	InvalidOperator: "INVALID_OPERATOR", UnclosedParenthesis: "UNCLOSED_PARENTHESIS",
	UnclosedBracket: "UNCLOSED_BRACKET", UnclosedBrace: "UNCLOSED_BRACE",
	UnterminatedString: "UNTERMINATED_STRING", InvalidEscape: "INVALID_ESCAPE",
	ParseErrorCode: "PARSE_ERROR", TypeErrorCode: "TYPE_ERROR",
	AnalysisError: "ANALYSIS_ERROR", UnreachableCode: "UNREACHABLE_CODE",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "UNKNOWN_CODE"
}

// Source is the fixed diagnostic source string required by spec.md §4.5.
const Source = "fhirpath-parser"

// Diagnostic is one error/warning/info/hint.
type Diagnostic struct {
	Severity Severity
	Range    token.Range
	Code     Code
	Message  string
	Source   string
}

// Snippet renders a Rust/Clang-style source snippet pointing at the
// diagnostic's start position, grounded on the teacher's
// ParseError.createCodeSnippet in runtime/parser/errors.go.
func (d Diagnostic) Snippet(sm *token.SourceMap) string {
	if sm == nil {
		return ""
	}
	line := d.Range.Start.Line
	if line < 0 || line >= sm.LineCount() {
		return ""
	}
	lineText := sm.LineText(line)

	var b strings.Builder
	fmt.Fprintf(&b, "  --> %d:%d\n", line+1, d.Range.Start.Column+1)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", line+1, lineText)
	b.WriteString("   | ")
	col := d.Range.Start.Column
	if col >= 0 && col <= len(lineText) {
		b.WriteString(strings.Repeat(" ", col) + "^")
	}
	return b.String()
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%s] %s at %s", d.Severity, d.Code, d.Message, d.Range.Start)
}
