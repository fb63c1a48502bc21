package evaluator

import (
	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
)

// convert applies convertFn to the singleton input value, producing empty
// on an empty or unconvertible input rather than an error - toX() functions
// fail soft, per spec.md §4.6.
func convert(input Sequence, convertFn func(interface{}) (interface{}, bool)) Sequence {
	v, ok, err := singleton(input, "conversion")
	if err != nil || !ok {
		return Sequence{}
	}
	out, ok := convertFn(v)
	if !ok {
		return Sequence{}
	}
	return Sequence{out}
}

func convertible(input Sequence, convertFn func(interface{}) (interface{}, bool)) Sequence {
	v, ok, err := singleton(input, "conversion")
	if err != nil || !ok {
		return Sequence{Boolean(false)}
	}
	_, ok = convertFn(v)
	return Sequence{Boolean(ok)}
}

func fnToString(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	v, ok, err := singleton(input, "toString")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{String(stringOf(v))}, ctx, nil
}

func fnToInteger(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return convert(input, toIntegerValue), ctx, nil
}

func fnToDecimal(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return convert(input, toDecimalValue), ctx, nil
}

func fnToBoolean(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	return convert(input, toBooleanValue), ctx, nil
}

func fnConvertsToString(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	return Sequence{Boolean(true)}, ctx, nil
}

func fnConvertsToInteger(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	return convertible(input, toIntegerValue), ctx, nil
}

func fnConvertsToDecimal(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	return convertible(input, toDecimalValue), ctx, nil
}

func fnConvertsToBoolean(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	if len(input) == 0 {
		return Sequence{}, ctx, nil
	}
	return convertible(input, toBooleanValue), ctx, nil
}
