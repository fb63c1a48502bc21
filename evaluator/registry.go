package evaluator

import (
	"github.com/atomic-ehr/fhirpath-sub008/registry"
	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// NewRegistry builds the shared operator/function registry, sealing every
// entry as a built-in (spec.md §4.4: "attempting to override a built-in is
// rejected"). Precedence values follow the larger-binds-tighter convention
// documented in SPEC_FULL.md and DESIGN.md: bindingPower = 14 - rank, where
// rank is the spec's 1 (tightest) to 13 (loosest) tightness ranking.
func NewRegistry() *registry.Registry {
	r := registry.New()

	mustOp := func(d registry.Descriptor) {
		if err := r.RegisterOperator(d); err != nil {
			panic(err)
		}
	}
	mustFn := func(d registry.Descriptor) {
		if err := r.RegisterFunction(d, true); err != nil {
			panic(err)
		}
	}

	binary := func(name string, tok token.Kind, prec int, propagatesEmpty bool, fn BinaryEval) {
		mustOp(registry.Descriptor{
			Kind: registry.KindOperator, Name: name, Token: tok, Form: registry.FormInfix,
			Precedence: prec, Associativity: registry.LeftAssoc,
			PropagatesEmpty: propagatesEmpty, Eval: fn,
		})
	}
	prefix := func(name string, tok token.Kind, prec int, propagatesEmpty bool, fn UnaryEval) {
		mustOp(registry.Descriptor{
			Kind: registry.KindOperator, Name: name, Token: tok, Form: registry.FormPrefix,
			Precedence: prec, Associativity: registry.LeftAssoc,
			PropagatesEmpty: propagatesEmpty, Eval: fn,
		})
	}

	// Invocation/index (precedence 13/12) are handled structurally by the parser
	// and evaluator (Binary-dot threading, Index node), never through the
	// operator table; DOT and index brackets have no descriptor here.

	// Unary +, -, not: rank 3 -> precedence 11 (14-rank convention; see
	// SPEC_FULL.md). "not" is a prefix
	// keyword, not an operator in the infix sense, but shares the prefix
	// table.
	prefix("-", token.MINUS, 11, true, func(operand Sequence) (Sequence, error) { return opUnary("-", operand) })
	prefix("+", token.PLUS, 11, true, func(operand Sequence) (Sequence, error) { return opUnary("+", operand) })
	prefix("not", token.NOT, 11, false, func(operand Sequence) (Sequence, error) { return opUnary("not", operand) })

	// Multiplicative: precedence 10.
	binary("*", token.STAR, 10, true, func(l, r Sequence) (Sequence, error) { return opArithmetic("*", l, r) })
	binary("/", token.SLASH, 10, true, func(l, r Sequence) (Sequence, error) { return opArithmetic("/", l, r) })
	binary("div", token.DIV, 10, true, func(l, r Sequence) (Sequence, error) { return opArithmetic("div", l, r) })
	binary("mod", token.MOD, 10, true, func(l, r Sequence) (Sequence, error) { return opArithmetic("mod", l, r) })

	// Additive, concat: precedence 9. Concat (&) shares additive's rank.
	binary("+", token.PLUS, 9, true, func(l, r Sequence) (Sequence, error) { return opArithmetic("+", l, r) })
	binary("-", token.MINUS, 9, true, func(l, r Sequence) (Sequence, error) { return opArithmetic("-", l, r) })
	binary("&", token.CONCAT, 9, false, opConcat)

	// Union (|): precedence 7. No BinaryEval: the parser flattens repeated
	// '|' into a single n-ary ast.Union evaluated structurally (evalUnion),
	// so '|' never reaches operator dispatch; the descriptor exists only so
	// the registry can answer Precedence queries.
	mustOp(registry.Descriptor{
		Kind: registry.KindOperator, Name: "|", Token: token.PIPE, Form: registry.FormInfix,
		Precedence: 7, Associativity: registry.LeftAssoc,
	})

	// Relational: precedence 6.
	binary("<", token.LT, 6, true, func(l, r Sequence) (Sequence, error) { return opRelational("<", l, r) })
	binary(">", token.GT, 6, true, func(l, r Sequence) (Sequence, error) { return opRelational(">", l, r) })
	binary("<=", token.LTE, 6, true, func(l, r Sequence) (Sequence, error) { return opRelational("<=", l, r) })
	binary(">=", token.GTE, 6, true, func(l, r Sequence) (Sequence, error) { return opRelational(">=", l, r) })

	// Equality/equivalence: precedence 5.
	binary("=", token.EQ, 5, false, func(l, r Sequence) (Sequence, error) { return opEquals(false, l, r) })
	binary("!=", token.NEQ, 5, false, func(l, r Sequence) (Sequence, error) { return opEquals(true, l, r) })
	binary("~", token.SIMILAR, 5, false, func(l, r Sequence) (Sequence, error) { return opEquivalent(false, l, r) })
	binary("!~", token.NOT_SIMILAR, 5, false, func(l, r Sequence) (Sequence, error) { return opEquivalent(true, l, r) })

	// Membership: precedence 4.
	binary("in", token.IN, 4, false, func(l, r Sequence) (Sequence, error) { return opMembership(false, l, r) })
	binary("contains", token.CONTAINS, 4, false, func(l, r Sequence) (Sequence, error) { return opMembership(true, l, r) })

	// and: precedence 3.
	binary("and", token.AND, 3, false, func(l, r Sequence) (Sequence, error) { return opAnd(l, r), nil })
	// or, xor: precedence 2.
	binary("or", token.OR, 2, false, func(l, r Sequence) (Sequence, error) { return opOr(l, r), nil })
	binary("xor", token.XOR, 2, false, func(l, r Sequence) (Sequence, error) { return opXor(l, r), nil })
	// implies: precedence 1 (loosest).
	binary("implies", token.IMPLIES, 1, false, func(l, r Sequence) (Sequence, error) { return opImplies(l, r), nil })

	// is / as as infix operators also get descriptors so the parser can
	// query their precedence via reg.Precedence(token.IS/AS); they are
	// handled structurally (parseTypeForm -> ast.MembershipTest/TypeCast),
	// never through BinaryEval, so no Eval closure is attached. Precedence
	// 10 matches the multiplicative rank they share per spec.md §4.4.
	mustOp(registry.Descriptor{Kind: registry.KindOperator, Name: "is", Token: token.IS, Form: registry.FormInfix, Precedence: 10, Associativity: registry.LeftAssoc})
	mustOp(registry.Descriptor{Kind: registry.KindOperator, Name: "as", Token: token.AS, Form: registry.FormInfix, Precedence: 10, Associativity: registry.LeftAssoc})

	fn := func(name string, minArgs, maxArgs int, eval FunctionEval, params ...registry.Param) {
		mustFn(registry.Descriptor{
			Kind: registry.KindFunction, Name: name, Params: params,
			MinArgs: minArgs, MaxArgs: maxArgs, Eval: eval,
		})
	}
	value := func(n string) registry.Param { return registry.Param{Name: n, Kind: registry.ParamValue} }
	expr := func(n string) registry.Param { return registry.Param{Name: n, Kind: registry.ParamExpression} }

	// Collections (spec.md §4.6).
	fn("empty", 0, 0, fnEmpty)
	fn("exists", 0, 1, fnExists, expr("criteria"))
	fn("count", 0, 0, fnCount)
	fn("all", 1, 1, fnAll, expr("criteria"))
	fn("allTrue", 0, 0, fnAllTrue)
	fn("anyTrue", 0, 0, fnAnyTrue)
	fn("allFalse", 0, 0, fnAllFalse)
	fn("anyFalse", 0, 0, fnAnyFalse)
	fn("distinct", 0, 0, fnDistinct)
	fn("isDistinct", 0, 0, fnIsDistinct)
	fn("first", 0, 0, fnFirst)
	fn("last", 0, 0, fnLast)
	fn("tail", 0, 0, fnTail)
	fn("skip", 1, 1, fnSkip, value("num"))
	fn("take", 1, 1, fnTake, value("num"))
	fn("single", 0, 0, fnSingle)
	fn("intersect", 1, 1, fnIntersect, value("other"))
	fn("exclude", 1, 1, fnExclude, value("other"))
	fn("union", 1, 1, fnUnionFn, value("other"))
	fn("combine", 1, 1, fnCombine, value("other"))
	fn("where", 1, 1, fnWhere, expr("criteria"))
	fn("select", 1, 1, fnSelect, expr("projection"))
	fn("repeat", 1, 1, fnRepeat, expr("projection"))
	fn("aggregate", 1, 2, fnAggregate, expr("aggregator"), value("init"))
	fn("ofType", 1, 1, fnOfType, registry.Param{Name: "type", Kind: registry.ParamValue, TypeHint: "type"})

	// Strings (spec.md §4.6).
	fn("contains", 1, 1, fnContainsStr, value("substring"))
	fn("length", 0, 0, fnLength)
	fn("substring", 1, 2, fnSubstring, value("start"), value("length"))
	fn("startsWith", 1, 1, fnStartsWith, value("prefix"))
	fn("endsWith", 1, 1, fnEndsWith, value("suffix"))
	fn("upper", 0, 0, fnUpper)
	fn("lower", 0, 0, fnLower)
	fn("replace", 2, 2, fnReplace, value("pattern"), value("substitution"))
	fn("matches", 1, 1, fnMatches, value("regex"))
	fn("indexOf", 1, 1, fnIndexOf, value("substring"))
	fn("split", 1, 1, fnSplit, value("separator"))
	fn("join", 0, 1, fnJoin, value("separator"))

	// Conversion.
	fn("toString", 0, 0, fnToString)
	fn("toInteger", 0, 0, fnToInteger)
	fn("toDecimal", 0, 0, fnToDecimal)
	fn("toBoolean", 0, 0, fnToBoolean)
	fn("convertsToString", 0, 0, fnConvertsToString)
	fn("convertsToInteger", 0, 0, fnConvertsToInteger)
	fn("convertsToDecimal", 0, 0, fnConvertsToDecimal)
	fn("convertsToBoolean", 0, 0, fnConvertsToBoolean)

	// Control and type.
	fn("iif", 2, 3, fnIif, value("criterion"), expr("true-result"), expr("otherwise-result"))
	fn("defineVariable", 1, 2, fnDefineVariable, value("name"), value("expr"))
	fn("is", 1, 1, fnIsFunction, registry.Param{Name: "type", Kind: registry.ParamValue, TypeHint: "type"})
	fn("as", 1, 1, fnAsFunction, registry.Param{Name: "type", Kind: registry.ParamValue, TypeHint: "type"})

	return r
}
