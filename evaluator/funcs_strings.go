package evaluator

import (
	"regexp"
	"strings"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
)

// stringSingleton reduces input to its singleton string value. Non-string
// singletons and empty input both propagate as "no value" rather than an
// error, matching the singleton-conversion rule applied throughout spec.md
// §4.6's string function family.
func stringSingleton(input Sequence) (string, bool, error) {
	v, ok, err := singleton(input, "string function input")
	if err != nil || !ok {
		return "", ok, err
	}
	s, ok := v.(String)
	if !ok {
		return "", false, nil
	}
	return string(s), true, nil
}

func evalStringArg(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node, idx int, name string) (string, bool, error) {
	if idx >= len(args) {
		return "", false, nil
	}
	out, _, err := ev.Eval(args[idx], input, ctx)
	if err != nil {
		return "", false, err
	}
	return stringSingleton(out)
}

func fnContainsStr(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	sub, ok, err := evalStringArg(ev, ctx, input, args, 0, "contains")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{Boolean(strings.Contains(s, sub))}, ctx, nil
}

func fnLength(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{Integer(len([]rune(s)))}, ctx, nil
}

func fnSubstring(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	start, err := intArg(ev, ctx, input, args[:1], "substring")
	if err != nil {
		return nil, ctx, err
	}
	runes := []rune(s)
	if start < 0 || start >= len(runes) {
		return Sequence{}, ctx, nil
	}
	end := len(runes)
	if len(args) > 1 {
		l, err := intArg(ev, ctx, input, args[1:2], "substring")
		if err != nil {
			return nil, ctx, err
		}
		if l < 0 {
			l = 0
		}
		if start+l < end {
			end = start + l
		}
	}
	return Sequence{String(string(runes[start:end]))}, ctx, nil
}

func fnStartsWith(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	prefix, ok, err := evalStringArg(ev, ctx, input, args, 0, "startsWith")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{Boolean(strings.HasPrefix(s, prefix))}, ctx, nil
}

func fnEndsWith(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	suffix, ok, err := evalStringArg(ev, ctx, input, args, 0, "endsWith")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{Boolean(strings.HasSuffix(s, suffix))}, ctx, nil
}

func fnUpper(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{String(strings.ToUpper(s))}, ctx, nil
}

func fnLower(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{String(strings.ToLower(s))}, ctx, nil
}

func fnReplace(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	pattern, ok, err := evalStringArg(ev, ctx, input, args, 0, "replace")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	replacement, ok, err := evalStringArg(ev, ctx, input, args, 1, "replace")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	return Sequence{String(strings.ReplaceAll(s, pattern, replacement))}, ctx, nil
}

func fnMatches(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	pattern, ok, err := evalStringArg(ev, ctx, input, args, 0, "matches")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "matches(): invalid regular expression %q: %v", pattern, err)
	}
	return Sequence{Boolean(re.MatchString(s))}, ctx, nil
}

func fnIndexOf(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	sub, ok, err := evalStringArg(ev, ctx, input, args, 0, "indexOf")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	idx := strings.Index(s, sub)
	if idx < 0 {
		return Sequence{Integer(-1)}, ctx, nil
	}
	return Sequence{Integer(len([]rune(s[:idx])))}, ctx, nil
}

func fnSplit(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	s, ok, err := stringSingleton(input)
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	sep, ok, err := evalStringArg(ev, ctx, input, args, 0, "split")
	if err != nil || !ok {
		return Sequence{}, ctx, err
	}
	parts := strings.Split(s, sep)
	out := make(Sequence, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return out, ctx, nil
}

func fnJoin(ev *Evaluator, ctx *evalctx.Context, input Sequence, args []ast.Node) (Sequence, *evalctx.Context, error) {
	sep := ""
	if len(args) > 0 {
		s, ok, err := evalStringArg(ev, ctx, input, args, 0, "join")
		if err != nil {
			return nil, ctx, err
		}
		if ok {
			sep = s
		}
	}
	parts := make([]string, 0, len(input))
	for _, v := range input {
		s, ok := v.(String)
		if !ok {
			return nil, ctx, newEvalError(diagnostic.TypeErrorCode, "join() requires a collection of strings")
		}
		parts = append(parts, string(s))
	}
	return Sequence{String(strings.Join(parts, sep))}, ctx, nil
}
