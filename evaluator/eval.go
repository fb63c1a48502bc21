package evaluator

import (
	"fmt"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
	"github.com/atomic-ehr/fhirpath-sub008/internal/invariant"
	"github.com/atomic-ehr/fhirpath-sub008/registry"
	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// BinaryEval is the signature every infix operator descriptor's Eval field
// holds (type-asserted back out of registry.Descriptor.Eval, which is typed
// `any` to avoid an import cycle).
type BinaryEval func(left, right Sequence) (Sequence, error)

// UnaryEval is the signature every prefix operator descriptor's Eval field
// holds.
type UnaryEval func(operand Sequence) (Sequence, error)

// FunctionEval is the signature every function descriptor's Eval field
// holds. It receives the unevaluated argument AST nodes rather than
// pre-evaluated sequences, because a function's own Params metadata
// determines - per argument - whether it's evaluated eagerly (ParamValue)
// or lazily once per iteration item (ParamExpression); only the function
// itself knows which is which for each position.
type FunctionEval func(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error)

// Evaluator walks an AST against an input sequence and context, dispatching
// operators and functions through the shared registry (spec.md §4.4, §4.6).
type Evaluator struct {
	Registry *registry.Registry
}

// New creates an Evaluator bound to reg (normally the product of
// NewRegistry()).
func New(reg *registry.Registry) *Evaluator {
	invariant.NotNil(reg, "evaluator.New: registry must not be nil")
	return &Evaluator{Registry: reg}
}

// Eval is the stream-processing entry point: (node, input, context) ->
// (output, context'), per spec.md §4.6's per-node table.
func (ev *Evaluator) Eval(node ast.Node, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return ev.evalLiteral(n, ctx)
	case *ast.Identifier:
		return ev.evalIdentifier(n, input, ctx)
	case *ast.TypeOrIdentifier:
		return ev.evalIdentifierByName(n.Name, input, ctx)
	case *ast.Variable:
		return ev.evalVariable(n, ctx)
	case *ast.Binary:
		return ev.evalBinary(n, input, ctx)
	case *ast.Unary:
		return ev.evalUnary(n, input, ctx)
	case *ast.Union:
		return ev.evalUnion(n, input, ctx)
	case *ast.Function:
		return ev.evalFunction(n, input, ctx)
	case *ast.Collection:
		return ev.evalCollection(n, input, ctx)
	case *ast.Index:
		return ev.evalIndex(n, input, ctx)
	case *ast.MembershipTest:
		return ev.evalMembershipTest(n, input, ctx)
	case *ast.TypeCast:
		return ev.evalTypeCast(n, input, ctx)
	case *ast.TypeReference:
		return nil, ctx, annotate(newEvalError(diagnostic.TypeErrorCode,
			"a type reference cannot be evaluated outside ofType(...)"), n)
	case *ast.Error, *ast.Incomplete:
		// Recovery-mode placeholder: never crash, per spec.md §4.6's
		// failure model.
		return Sequence{}, ctx, nil
	default:
		return nil, ctx, fmt.Errorf("evaluator: unhandled node type %T", node)
	}
}

func (ev *Evaluator) evalLiteral(n *ast.Literal, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	if n.ValueKind == ast.ValueNull {
		return Sequence{}, ctx, nil
	}
	v, err := literalValue(n)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	return Sequence{v}, ctx, nil
}

func (ev *Evaluator) evalIdentifier(n *ast.Identifier, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	out, _, err := ev.evalIdentifierByName(n.Name, input, ctx)
	return out, ctx, err
}

// evalIdentifierByName implements path navigation: for each input item that
// is a node (a map), emit item[name], flattening if the result is an array
// (spec.md §4.6). Non-node items (primitives, nil) contribute nothing.
func (ev *Evaluator) evalIdentifierByName(name string, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	var out Sequence
	for _, item := range input {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		v, present := m[name]
		if !present || v == nil {
			continue
		}
		switch arr := v.(type) {
		case []interface{}:
			for _, e := range arr {
				out = append(out, normalize(e))
			}
		default:
			out = append(out, normalize(v))
		}
	}
	return out, ctx, nil
}

func (ev *Evaluator) evalVariable(n *ast.Variable, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	if ctx == nil {
		return Sequence{}, ctx, nil
	}
	if n.Kind == ast.VarEnv {
		v, ok := ctx.GetEnv(n.Name)
		if !ok {
			return Sequence{}, ctx, nil
		}
		if n.Name == "index" {
			return Sequence{Integer(v.(int))}, ctx, nil
		}
		return v.(Sequence), ctx, nil
	}
	v, ok := ctx.LookupUserVariable(n.Name)
	if !ok {
		return Sequence{}, ctx, nil
	}
	return v, ctx, nil
}

// binaryOpToken maps an ast.BinaryOp to the token.Kind its registry
// descriptor is keyed on. OpDot has no entry: it's handled directly, never
// through the registry, since it's pure left-to-right input threading with
// no associated computation of its own.
var binaryOpToken = map[ast.BinaryOp]token.Kind{
	ast.OpPlus: token.PLUS, ast.OpMinus: token.MINUS, ast.OpMul: token.STAR,
	ast.OpDiv: token.SLASH, ast.OpIDiv: token.DIV, ast.OpMod: token.MOD,
	ast.OpConcat: token.CONCAT,
	ast.OpLt:     token.LT, ast.OpGt: token.GT, ast.OpLte: token.LTE, ast.OpGte: token.GTE,
	ast.OpEq: token.EQ, ast.OpNeq: token.NEQ,
	ast.OpEquiv: token.SIMILAR, ast.OpNotEquiv: token.NOT_SIMILAR,
	ast.OpIn: token.IN, ast.OpContains: token.CONTAINS,
	ast.OpAnd: token.AND, ast.OpOr: token.OR, ast.OpXor: token.XOR, ast.OpImplies: token.IMPLIES,
}

var unaryOpToken = map[ast.UnaryOp]token.Kind{
	ast.OpNeg: token.MINUS, ast.OpPos: token.PLUS, ast.OpNot: token.NOT,
}

func (ev *Evaluator) evalBinary(n *ast.Binary, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	if n.Op == ast.OpDot {
		leftOut, ctx2, err := ev.Eval(n.Left, input, ctx)
		if err != nil {
			return nil, ctx, annotate(err, n)
		}
		rightOut, ctx3, err := ev.Eval(n.Right, leftOut, ctx2)
		if err != nil {
			return nil, ctx2, annotate(err, n)
		}
		return rightOut, ctx3, nil
	}

	leftOut, ctx2, err := ev.Eval(n.Left, input, ctx)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	rightOut, ctx3, err := ev.Eval(n.Right, input, ctx2)
	if err != nil {
		return nil, ctx2, annotate(err, n)
	}

	tok, ok := binaryOpToken[n.Op]
	if !ok {
		return nil, ctx3, annotate(newEvalError(diagnostic.TypeErrorCode, "unhandled binary operator %s", n.Op), n)
	}
	desc, ok := ev.Registry.LookupOperator(tok, registry.FormInfix)
	if !ok {
		return nil, ctx3, annotate(newEvalError(diagnostic.TypeErrorCode, "no infix operator registered for %s", n.Op), n)
	}
	fn, ok := desc.Eval.(BinaryEval)
	if !ok {
		return nil, ctx3, annotate(newEvalError(diagnostic.TypeErrorCode, "malformed operator descriptor for %s", n.Op), n)
	}

	if desc.PropagatesEmpty && (len(leftOut) == 0 || len(rightOut) == 0) {
		return Sequence{}, ctx3, nil
	}

	out, err := fn(leftOut, rightOut)
	if err != nil {
		return nil, ctx3, annotate(err, n)
	}
	return out, ctx3, nil
}

func (ev *Evaluator) evalUnary(n *ast.Unary, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	operandOut, ctx2, err := ev.Eval(n.Operand, input, ctx)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	tok := unaryOpToken[n.Op]
	desc, ok := ev.Registry.LookupOperator(tok, registry.FormPrefix)
	if !ok {
		return nil, ctx2, annotate(newEvalError(diagnostic.TypeErrorCode, "no prefix operator registered for %s", n.Op), n)
	}
	fn, ok := desc.Eval.(UnaryEval)
	if !ok {
		return nil, ctx2, annotate(newEvalError(diagnostic.TypeErrorCode, "malformed operator descriptor for %s", n.Op), n)
	}
	out, err := fn(operandOut)
	if err != nil {
		return nil, ctx2, annotate(err, n)
	}
	return out, ctx2, nil
}

// evalCollection and evalUnion share the same "thread context across
// siblings, concatenate outputs, same input for every sibling" shape.
func (ev *Evaluator) evalCollection(n *ast.Collection, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	return ev.evalConcatSiblings(n.Elements, input, ctx)
}

func (ev *Evaluator) evalUnion(n *ast.Union, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	return ev.evalConcatSiblings(n.Operands, input, ctx)
}

func (ev *Evaluator) evalConcatSiblings(nodes []ast.Node, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	cur := ctx
	var out Sequence
	for _, e := range nodes {
		elOut, nextCtx, err := ev.Eval(e, input, cur)
		if err != nil {
			return nil, ctx, err
		}
		out = append(out, elOut...)
		cur = nextCtx
	}
	return out, cur, nil
}

// evalIndex implements expr[i]: i is evaluated with expr's own output as
// input, per spec.md §4.6's literal (if unusual) description of Index.
func (ev *Evaluator) evalIndex(n *ast.Index, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	exprOut, ctx2, err := ev.Eval(n.Expression, input, ctx)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	idxOut, ctx3, err := ev.Eval(n.IndexExpr, exprOut, ctx2)
	if err != nil {
		return nil, ctx2, annotate(err, n)
	}
	idxVal, ok, err := singleton(idxOut, "index")
	if err != nil {
		return nil, ctx3, annotate(err, n)
	}
	if !ok {
		return Sequence{}, ctx3, nil
	}
	idx, ok := idxVal.(Integer)
	if !ok {
		return nil, ctx3, annotate(newEvalError(diagnostic.TypeErrorCode, "index must be an integer, got %T", idxVal), n)
	}
	if int64(idx) < 0 || int64(idx) >= int64(len(exprOut)) {
		return Sequence{}, ctx3, nil
	}
	return Sequence{exprOut[idx]}, ctx3, nil
}

func (ev *Evaluator) evalMembershipTest(n *ast.MembershipTest, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	exprOut, ctx2, err := ev.Eval(n.Expression, input, ctx)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	out := make(Sequence, len(exprOut))
	for i, v := range exprOut {
		out[i] = Boolean(typeMatches(v, n.TargetType))
	}
	return out, ctx2, nil
}

func (ev *Evaluator) evalTypeCast(n *ast.TypeCast, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	exprOut, ctx2, err := ev.Eval(n.Expression, input, ctx)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	var out Sequence
	for _, v := range exprOut {
		if cast, ok := tryCast(v, n.TargetType); ok {
			out = append(out, cast)
		}
	}
	return out, ctx2, nil
}

// calleeName extracts the bare function name from a Function node's Callee,
// which the parser only ever builds as an Identifier or TypeOrIdentifier
// (spec.md §4.5: function calls are always `name(...)`, never `expr(...)`).
func calleeName(n ast.Node) (string, bool) {
	switch c := n.(type) {
	case *ast.Identifier:
		return c.Name, true
	case *ast.TypeOrIdentifier:
		return c.Name, true
	default:
		return "", false
	}
}

// evalFunction dispatches a call to its registered descriptor. Lookup is
// case-sensitive and unknown names fail with a "did you mean" suggestion,
// per spec.md §9 (registry-backed diagnostics).
func (ev *Evaluator) evalFunction(n *ast.Function, input Sequence, ctx *evalctx.Context) (Sequence, *evalctx.Context, error) {
	name, ok := calleeName(n.Callee)
	if !ok {
		return nil, ctx, annotate(newEvalError(diagnostic.TypeErrorCode, "function callee must be a name"), n)
	}
	desc, ok := ev.Registry.LookupFunction(name)
	if !ok {
		suggestion := ev.Registry.Suggest(name)
		if suggestion != "" {
			return nil, ctx, annotate(newEvalError(diagnostic.TypeErrorCode, "unknown function %q, did you mean %q?", name, suggestion), n)
		}
		return nil, ctx, annotate(newEvalError(diagnostic.TypeErrorCode, "unknown function %q", name), n)
	}
	fn, ok := desc.Eval.(FunctionEval)
	if !ok {
		return nil, ctx, annotate(newEvalError(diagnostic.TypeErrorCode, "malformed function descriptor for %q", name), n)
	}
	if len(n.Arguments) < desc.MinArgs || (desc.MaxArgs >= 0 && len(n.Arguments) > desc.MaxArgs) {
		return nil, ctx, annotate(newEvalError(diagnostic.TypeErrorCode, "%s() expects between %d and %d arguments, got %d", name, desc.MinArgs, desc.MaxArgs, len(n.Arguments)), n)
	}
	out, ctx2, err := fn(ev, ctx, input, n.Arguments)
	if err != nil {
		return nil, ctx, annotate(err, n)
	}
	return out, ctx2, nil
}
