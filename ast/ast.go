// Package ast defines the FHIRPath abstract syntax tree: a tagged variant
// over node kinds, each carrying a starting source position and, when range
// tracking is requested, a full token range (spec.md §3/§4.3).
package ast

import (
	"fmt"
	"strings"

	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// Node is the interface every AST variant implements. Range() returns
// ok=false when range tracking was not requested for this parse.
type Node interface {
	Position() token.Position
	Range() (token.Range, bool)
	String() string
}

// Base is embedded by every concrete node; it centralizes the
// position/range bookkeeping so each variant only adds its own fields.
type Base struct {
	pos      token.Position
	rng      token.Range
	hasRange bool
}

func (b *Base) Position() token.Position { return b.pos }

func (b *Base) Range() (token.Range, bool) {
	if !b.hasRange {
		return token.Range{}, false
	}
	return b.rng, true
}

// SetRange attaches a full range to the node; called by the parser after a
// node's extent is known, only when track_ranges is enabled.
func (b *Base) SetRange(r token.Range) {
	b.rng = r
	b.hasRange = true
}

// NewBase constructs the embeddable position/range state for a node
// starting at pos. Exported so the parser (a different package) can
// initialize nodes it builds.
func NewBase(pos token.Position) Base {
	return Base{pos: pos}
}

// ValueKind distinguishes Literal payload types.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBoolean
	ValueDate
	ValueTime
	ValueDateTime
	ValueNull
)

// Literal is a constant value appearing in source: a string, number,
// boolean, date/time/datetime, or the empty-collection literal `{}` (Null).
type Literal struct {
	Base
	Value     string // raw lexeme-derived value (numbers/dates kept as text; evaluator parses)
	ValueKind ValueKind
}

func (l *Literal) String() string {
	if l.ValueKind == ValueNull {
		return "{}"
	}
	if l.ValueKind == ValueString {
		return fmt.Sprintf("%q", l.Value)
	}
	return l.Value
}

// Identifier is a bare name not starting with an uppercase letter, or any
// delimited (backtick) name: a property/path segment.
type Identifier struct {
	Base
	Name string
}

func (i *Identifier) String() string { return i.Name }

// TypeOrIdentifier is an uppercase-initial name: syntactically ambiguous
// between a type name and a property, resolved by the host's type system
// (out of scope for this engine; the evaluator treats it like Identifier
// unless it appears where a type name is grammatically required).
type TypeOrIdentifier struct {
	Base
	Name string
}

func (t *TypeOrIdentifier) String() string { return t.Name }

// VariableKind distinguishes $-iterator variables from %-user variables
// and the three reserved $this/$index/$total environment slots.
type VariableKind int

const (
	VarEnv  VariableKind = iota // $this, $index, $total
	VarUser                     // %name
)

// Variable is a reference to an environment slot or a user/host variable.
type Variable struct {
	Base
	Name string // without the leading $ or %
	Kind VariableKind
}

func (v *Variable) String() string {
	if v.Kind == VarEnv {
		return "$" + v.Name
	}
	return "%" + v.Name
}

// BinaryOp is the closed set of infix operators.
type BinaryOp int

const (
	OpDot BinaryOp = iota
	OpPlus
	OpMinus
	OpMul
	OpDiv
	OpIDiv // div
	OpMod
	OpConcat // &
	OpLt
	OpGt
	OpLte
	OpGte
	OpEq
	OpNeq
	OpEquiv    // ~
	OpNotEquiv // !~
	OpIn
	OpContains
	OpAnd
	OpOr
	OpXor
	OpImplies
)

var binaryOpSymbols = map[BinaryOp]string{
	OpDot: ".", OpPlus: "+", OpMinus: "-", OpMul: "*", OpDiv: "/", OpIDiv: "div", OpMod: "mod",
	OpConcat: "&", OpLt: "<", OpGt: ">", OpLte: "<=", OpGte: ">=", OpEq: "=", OpNeq: "!=",
	OpEquiv: "~", OpNotEquiv: "!~", OpIn: "in", OpContains: "contains",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpImplies: "implies",
}

func (op BinaryOp) String() string { return binaryOpSymbols[op] }

// Binary is a two-operand expression, including the `.` navigation operator.
type Binary struct {
	Base
	Op    BinaryOp
	Left  Node
	Right Node
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryOp is the closed set of prefix operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota // unary -
	OpPos                // unary +
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpNot:
		return "not"
	}
	return "?"
}

// Unary is a single-operand prefix expression.
type Unary struct {
	Base
	Op      UnaryOp
	Operand Node
}

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

// Union is the n-ary flattening of repeated `|` operands (spec.md §4.5).
type Union struct {
	Base
	Operands []Node
}

func (u *Union) String() string {
	parts := make([]string, len(u.Operands))
	for i, o := range u.Operands {
		parts[i] = o.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// Function is a call of the form callee(arg, arg, ...); callee is the
// Identifier/TypeOrIdentifier naming the function, whether reached via a
// preceding `.` or at the start of an expression.
type Function struct {
	Base
	Callee    Node
	Arguments []Node
}

func (f *Function) String() string {
	parts := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Callee, strings.Join(parts, ", "))
}

// Index is a postfix `expr[index]`.
type Index struct {
	Base
	Expression Node
	IndexExpr  Node
}

func (ix *Index) String() string { return fmt.Sprintf("%s[%s]", ix.Expression, ix.IndexExpr) }

// Collection is a literal `{ e1, e2, ... }`.
type Collection struct {
	Base
	Elements []Node
}

func (c *Collection) String() string {
	parts := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MembershipTest is `expr is TypeName`.
type MembershipTest struct {
	Base
	Expression Node
	TargetType string
}

func (m *MembershipTest) String() string { return fmt.Sprintf("(%s is %s)", m.Expression, m.TargetType) }

// TypeCast is `expr as TypeName`.
type TypeCast struct {
	Base
	Expression Node
	TargetType string
}

func (t *TypeCast) String() string { return fmt.Sprintf("(%s as %s)", t.Expression, t.TargetType) }

// TypeReference appears only as ofType(...)'s argument; evaluating it
// directly (outside that one position) is an evaluation error per spec.md
// §4.6.
type TypeReference struct {
	Base
	TypeName string
}

func (t *TypeReference) String() string { return t.TypeName }

// Error is produced only in recovery mode: a placeholder for a token the
// parser could not make sense of, carrying the diagnostic code that
// explains why (the diagnostic.Code value, stored here as an int to avoid
// an import cycle with the diagnostic package; diagnostic.Code(d.Code)
// round-trips it).
type Error struct {
	Base
	Expected string
	Actual   token.Token
	Code     int
	Message  string
}

func (e *Error) String() string { return fmt.Sprintf("<error: %s>", e.Message) }

// Incomplete is produced only in recovery mode: a node missing an operand
// (e.g. a binary operator with nothing after it).
type Incomplete struct {
	Base
	Partial Node   // may be nil
	Missing string // human-readable description of what's missing
}

func (i *Incomplete) String() string {
	if i.Partial != nil {
		return fmt.Sprintf("<incomplete: %s, missing %s>", i.Partial, i.Missing)
	}
	return fmt.Sprintf("<incomplete: missing %s>", i.Missing)
}
