package evaluator

import (
	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
)

// iterate evaluates expr once per element of input under a fresh
// $this/$index child context, per the iteration contract in spec.md §4.6.
// Each item's child context is derived from the same parent ctx (iteration
// contexts are not threaded sibling-to-sibling), matching the contract's
// wording that each gets "a child context", not a chain of them.
func (ev *Evaluator) iterate(ctx *evalctx.Context, input Sequence, expr ast.Node) ([]Sequence, error) {
	results := make([]Sequence, len(input))
	for i, item := range input {
		childCtx := ctx.WithIterator(item, i)
		out, _, err := ev.Eval(expr, Sequence{item}, childCtx)
		if err != nil {
			return nil, err
		}
		results[i] = out
	}
	return results, nil
}

func singleArg(args []ast.Node) (ast.Node, bool) {
	if len(args) == 0 {
		return nil, false
	}
	return args[0], true
}

func fnEmpty(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return Sequence{Boolean(len(input) == 0)}, ctx, nil
}

// fnExists implements exists() and exists(criteria): with no argument, true
// iff input is non-empty; with an argument, true iff at least one element
// satisfies it (short-circuits on the first truthy result).
func fnExists(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	expr, ok := singleArg(args)
	if !ok {
		return Sequence{Boolean(len(input) != 0)}, ctx, nil
	}
	for i, item := range input {
		childCtx := ctx.WithIterator(item, i)
		out, _, err := ev.Eval(expr, Sequence{item}, childCtx)
		if err != nil {
			return nil, ctx, err
		}
		if toTriBool(out) == triTrue {
			return Sequence{Boolean(true)}, ctx, nil
		}
	}
	return Sequence{Boolean(false)}, ctx, nil
}

func fnCount(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return Sequence{Integer(len(input))}, ctx, nil
}

// fnAll implements all(criteria): true iff every element satisfies it
// (short-circuits on the first falsy result); vacuously true for empty
// input.
func fnAll(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	expr, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "all() requires a criteria argument")
	}
	for i, item := range input {
		childCtx := ctx.WithIterator(item, i)
		out, _, err := ev.Eval(expr, Sequence{item}, childCtx)
		if err != nil {
			return nil, ctx, err
		}
		if toTriBool(out) != triTrue {
			return Sequence{Boolean(false)}, ctx, nil
		}
	}
	return Sequence{Boolean(true)}, ctx, nil
}

func boolAggregate(input Sequence, want bool, emptyResult bool) Sequence {
	for _, v := range input {
		if b, ok := v.(Boolean); ok && bool(b) == want {
			return Sequence{Boolean(true)}
		}
	}
	if len(input) == 0 {
		return Sequence{Boolean(emptyResult)}
	}
	return Sequence{Boolean(false)}
}

func fnAllTrue(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	for _, v := range input {
		if b, ok := v.(Boolean); !ok || !bool(b) {
			return Sequence{Boolean(false)}, ctx, nil
		}
	}
	return Sequence{Boolean(true)}, ctx, nil
}

func fnAnyTrue(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return boolAggregate(input, true, false), ctx, nil
}

func fnAllFalse(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	for _, v := range input {
		if b, ok := v.(Boolean); !ok || bool(b) {
			return Sequence{Boolean(false)}, ctx, nil
		}
	}
	return Sequence{Boolean(true)}, ctx, nil
}

func fnAnyFalse(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return boolAggregate(input, false, false), ctx, nil
}

func fnDistinct(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return orderedDedup(input), ctx, nil
}

func fnIsDistinct(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return Sequence{Boolean(len(orderedDedup(input)) == len(input))}, ctx, nil
}

func fnFirst(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	return Sequence{input[0]}, ctx, nil
}

func fnLast(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	return Sequence{input[len(input)-1]}, ctx, nil
}

func fnTail(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) <= 1 {
		return Sequence{}, ctx, nil
	}
	return append(Sequence{}, input[1:]...), ctx, nil
}

func intArg(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node, name string) (int, error) {
	expr, ok := singleArg(args)
	if !ok {
		return 0, newEvalError(diagnostic.TypeErrorCode, "%s() requires an integer argument", name)
	}
	out, _, err := ev.Eval(expr, input, ctx)
	if err != nil {
		return 0, err
	}
	v, ok, err := singleton(out, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, newEvalError(diagnostic.TypeErrorCode, "%s() argument evaluated to empty", name)
	}
	i, ok := v.(Integer)
	if !ok {
		return 0, newEvalError(diagnostic.TypeErrorCode, "%s() requires an integer argument, got %T", name, v)
	}
	return int(i), nil
}

func fnSkip(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	n, err := intArg(ev, ctx, input, args, "skip")
	if err != nil {
		return nil, ctx, err
	}
	if n <= 0 {
		return append(Sequence{}, input...), ctx, nil
	}
	if n >= len(input) {
		return Sequence{}, ctx, nil
	}
	return append(Sequence{}, input[n:]...), ctx, nil
}

func fnTake(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	n, err := intArg(ev, ctx, input, args, "take")
	if err != nil {
		return nil, ctx, err
	}
	if n <= 0 {
		return Sequence{}, ctx, nil
	}
	if n >= len(input) {
		return append(Sequence{}, input...), ctx, nil
	}
	return append(Sequence{}, input[:n]...), ctx, nil
}

func fnSingle(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	if len(input) > 1 {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "single() expected exactly one element, got %d", len(input))
	}
	return Sequence{input[0]}, ctx, nil
}

func evalOtherArg(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node, name string) (Sequence, error) {
	expr, ok := singleArg(args)
	if !ok {
		return nil, newEvalError(diagnostic.TypeErrorCode, "%s() requires an argument", name)
	}
	out, _, err := ev.Eval(expr, input, ctx)
	return out, err
}

func fnIntersect(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	other, err := evalOtherArg(ev, ctx, input, args, "intersect")
	if err != nil {
		return nil, ctx, err
	}
	var out Sequence
	for _, v := range orderedDedup(input) {
		if containsValue(other, v) {
			out = append(out, v)
		}
	}
	return out, ctx, nil
}

func fnExclude(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	other, err := evalOtherArg(ev, ctx, input, args, "exclude")
	if err != nil {
		return nil, ctx, err
	}
	var out Sequence
	for _, v := range input {
		if !containsValue(other, v) {
			out = append(out, v)
		}
	}
	return out, ctx, nil
}

func fnUnionFn(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	other, err := evalOtherArg(ev, ctx, input, args, "union")
	if err != nil {
		return nil, ctx, err
	}
	combined := append(append(Sequence{}, input...), other...)
	return orderedDedup(combined), ctx, nil
}

func fnCombine(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	other, err := evalOtherArg(ev, ctx, input, args, "combine")
	if err != nil {
		return nil, ctx, err
	}
	return append(append(Sequence{}, input...), other...), ctx, nil
}

// fnWhere implements where(criteria): keeps the item iff its result is
// truthy.
func fnWhere(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	expr, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "where() requires a criteria argument")
	}
	var out Sequence
	for i, item := range input {
		childCtx := ctx.WithIterator(item, i)
		res, _, err := ev.Eval(expr, Sequence{item}, childCtx)
		if err != nil {
			return nil, ctx, err
		}
		if toTriBool(res) == triTrue {
			out = append(out, item)
		}
	}
	return out, ctx, nil
}

// fnSelect implements select(expr): concatenates each item's projection.
func fnSelect(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	expr, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "select() requires a projection argument")
	}
	results, err := ev.iterate(ctx, input, expr)
	if err != nil {
		return nil, ctx, err
	}
	var out Sequence
	for _, r := range results {
		out = append(out, r...)
	}
	return out, ctx, nil
}

// fnRepeat fixed-points by repeatedly applying expr to newly produced items
// until no new (by canonical key) items are produced, per spec.md §4.6.
func fnRepeat(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	expr, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "repeat() requires an argument")
	}
	seen := map[string]bool{}
	var out Sequence
	frontier := input
	for len(frontier) > 0 {
		results, err := ev.iterate(ctx, frontier, expr)
		if err != nil {
			return nil, ctx, err
		}
		var next Sequence
		for _, r := range results {
			for _, v := range r {
				k := canonicalKey(v)
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, v)
				next = append(next, v)
			}
		}
		frontier = next
	}
	return out, ctx, nil
}

// fnAggregate threads a $total accumulator through repeated application of
// expr, seeded by init (default empty), per spec.md §4.6.
func fnAggregate(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(args) == 0 {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "aggregate() requires an expression argument")
	}
	expr := args[0]

	var total Sequence
	if len(args) > 1 {
		out, _, err := ev.Eval(args[1], input, ctx)
		if err != nil {
			return nil, ctx, err
		}
		total = out
	}

	for i, item := range input {
		childCtx := ctx.WithIterator(item, i).WithTotal(total)
		out, _, err := ev.Eval(expr, Sequence{item}, childCtx)
		if err != nil {
			return nil, ctx, err
		}
		total = out
	}
	return total, ctx, nil
}

// fnOfType implements ofType(Type): keeps only elements matching Type. The
// argument is parsed as an ast.TypeReference, never a general expression
// (spec.md §4.5).
func fnOfType(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	ref, ok := singleArg(args)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "ofType() requires a type argument")
	}
	tr, ok := ref.(*ast.TypeReference)
	if !ok {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "ofType() argument must be a type name")
	}
	var out Sequence
	for _, v := range input {
		if typeMatches(v, tr.TypeName) {
			out = append(out, v)
		}
	}
	return out, ctx, nil
}
