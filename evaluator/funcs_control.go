package evaluator

import (
	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
)

// fnIif implements iif(criterion, true-result, otherwise-result?): both
// result branches are expression-kind parameters, evaluated lazily so the
// branch not taken never runs (spec.md §4.6 - important since the untaken
// branch may reference fields absent on this input shape).
func fnIif(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(args) < 2 {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "iif() requires at least a criterion and a true-result")
	}
	cond, _, err := ev.Eval(args[0], input, ctx)
	if err != nil {
		return nil, ctx, err
	}
	switch toTriBool(cond) {
	case triTrue:
		out, _, err := ev.Eval(args[1], input, ctx)
		return out, ctx, err
	default:
		if len(args) < 3 {
			return Sequence{}, ctx, nil
		}
		out, _, err := ev.Eval(args[2], input, ctx)
		return out, ctx, err
	}
}

// fnDefineVariable implements defineVariable(name, expr?): binds name to
// expr's value (or to input itself when expr is omitted) in a child context
// returned alongside the unchanged input, so sibling expressions evaluated
// against the returned context observe the binding (spec.md §4.6, §5).
func fnDefineVariable(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(args) == 0 {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "defineVariable() requires a name argument")
	}
	nameOut, _, err := ev.Eval(args[0], input, ctx)
	if err != nil {
		return nil, ctx, err
	}
	nameVal, ok, err := singleton(nameOut, "defineVariable name")
	if err != nil {
		return nil, ctx, err
	}
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "defineVariable() name must evaluate to a single string")
	}
	name, ok := nameVal.(String)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "defineVariable() name must be a string, got %T", nameVal)
	}

	value := input
	if len(args) > 1 {
		out, _, err := ev.Eval(args[1], input, ctx)
		if err != nil {
			return nil, ctx, err
		}
		value = out
	}
	return input, ctx.SetVariable(string(name), value), nil
}

// fnIsFunction implements the is(Type) function form, equivalent to the
// `is` operator but usable mid-chain (spec.md §4.5).
func fnIsFunction(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	ref, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "is() requires a type argument")
	}
	tr, ok := ref.(*ast.TypeReference)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "is() argument must be a type name")
	}
	out := make(Sequence, len(input))
	for i, v := range input {
		out[i] = Boolean(typeMatches(v, tr.TypeName))
	}
	return out, ctx, nil
}

// fnAsFunction implements the as(Type) function form, equivalent to the
// `as` operator.
func fnAsFunction(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	ref, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "as() requires a type argument")
	}
	tr, ok := ref.(*ast.TypeReference)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "as() argument must be a type name")
	}
	var out Sequence
	for _, v := range input {
		if cast, ok := tryCast(v, tr.TypeName); ok {
			out = append(out, cast)
		}
	}
	return out, ctx, nil
}
