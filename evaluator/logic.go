package evaluator

// opAnd implements the three-valued and: false wins over everything,
// true&&true is true, else unknown (spec.md §4.6).
func opAnd(left, right Sequence) Sequence {
	l, r := toTriBool(left), toTriBool(right)
	if l == triFalse || r == triFalse {
		return triFalse.toSequence()
	}
	if l == triTrue && r == triTrue {
		return triTrue.toSequence()
	}
	return triUnknown.toSequence()
}

// opOr implements the three-valued or: true wins over everything,
// false||false is false, else unknown.
func opOr(left, right Sequence) Sequence {
	l, r := toTriBool(left), toTriBool(right)
	if l == triTrue || r == triTrue {
		return triTrue.toSequence()
	}
	if l == triFalse && r == triFalse {
		return triFalse.toSequence()
	}
	return triUnknown.toSequence()
}

// opXor implements the three-valued xor: known xor known; any unknown ->
// unknown.
func opXor(left, right Sequence) Sequence {
	l, r := toTriBool(left), toTriBool(right)
	if l == triUnknown || r == triUnknown {
		return triUnknown.toSequence()
	}
	if l != r {
		return triTrue.toSequence()
	}
	return triFalse.toSequence()
}

// opImplies implements the three-valued implies: false implies anything is
// true; true implies b is b (if known); else unknown.
func opImplies(left, right Sequence) Sequence {
	l := toTriBool(left)
	if l == triFalse {
		return triTrue.toSequence()
	}
	r := toTriBool(right)
	if l == triTrue {
		return r.toSequence()
	}
	if r == triTrue {
		return triTrue.toSequence()
	}
	return triUnknown.toSequence()
}
