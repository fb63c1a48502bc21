// Package evalctx implements the persistent evaluation context: variable
// bindings, the $this/$index/$total iteration slots, and the fixed
// $context/$resource/$rootResource roots (spec.md §3, §4.7). Grounded on the
// teacher's pkgs/execution/context.go shallow-copy-and-override pattern
// (WithMode/WithTimeout/WithCancel all do `newCtx := *c; newCtx.field = x;
// return &newCtx`), generalized here to a parent-pointer chain so
// SetVariable is O(1) instead of copying the whole variable table.
package evalctx

// Sequence is the flat value-sequence type shared with the evaluator
// package. It's declared here (rather than imported from evaluator) to keep
// evalctx free of a dependency on the evaluator; evaluator imports evalctx,
// not the other way around, so the alias lives on the side with no cycle
// risk. Both packages use the identical concrete element type by
// convention (interface{} slices of the evaluator's Value).
type Sequence = []interface{}

// Context is a persistent, immutable scope. Every setter returns a new
// Context; the receiver is never mutated, so a Context can be freely shared
// across goroutines evaluating different expressions (spec.md §5: "Contexts
// are persistent and freely shareable").
type Context struct {
	parent *Context
	root   *Context // the evaluation root; root.root == nil

	// Local overrides; a nil map/zero value here means "inherit from
	// parent" except for the roots, which are only ever set once, at the
	// evaluation root, and never overridden by a child.
	variables map[string]Sequence

	hasThis  bool
	this     Sequence
	hasIndex bool
	index    int
	hasTotal bool
	total    Sequence

	// Roots: set once when New is called for a fresh evaluation, inherited
	// unchanged by every descendant context.
	context      Sequence
	resource     Sequence
	rootResource Sequence
}

// New creates the root Context for one evaluation. $context, $resource, and
// $rootResource are all set to input, and $this is also seeded to input, per
// spec.md §6 ("If no context is supplied, create one with $context =
// $resource = $rootResource = input and $this = input").
func New(input Sequence) *Context {
	return &Context{
		context: input, resource: input, rootResource: input,
		hasThis: true, this: input,
	}
}

// rootOf returns c's evaluation root in O(1), relying on every child
// recording a direct pointer to it at creation time instead of walking the
// parent chain.
func (c *Context) rootOf() *Context {
	if c.root != nil {
		return c.root
	}
	return c
}

// GetVariable looks up a user variable (bound via SetVariable or
// with_variable), searching outward through parents. ok is false when
// unbound anywhere in the chain.
func (c *Context) GetVariable(name string) (Sequence, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.variables != nil {
			if v, ok := cur.variables[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// SetVariable returns a new Context with name bound to value; the receiver
// is unchanged. Per spec.md §4.7's lookup precedence, a user variable never
// shadows $this/$index/$total (those live in a separate slot entirely).
func (c *Context) SetVariable(name string, value Sequence) *Context {
	child := &Context{parent: c, root: c.rootOf()}
	child.variables = map[string]Sequence{name: value}
	return child
}

// WithIterator returns a new Context with $this set to a one-element
// sequence containing item and $index set to index, for evaluating a
// higher-order function's argument expression once per input element
// (spec.md §4.6 "Iteration contract").
func (c *Context) WithIterator(item interface{}, index int) *Context {
	child := &Context{parent: c, root: c.rootOf()}
	child.hasThis = true
	child.this = Sequence{item}
	child.hasIndex = true
	child.index = index
	return child
}

// WithTotal returns a new Context with $total set to value, used by
// aggregate to thread its running accumulator through the argument
// expression's evaluation.
func (c *Context) WithTotal(value Sequence) *Context {
	child := &Context{parent: c, root: c.rootOf()}
	child.hasTotal = true
	child.total = value
	return child
}

// GetEnv looks up one of the three reserved environment slots. name must be
// "this", "index", or "total" (without the leading $); any other name
// returns ok=false, unbound.
func (c *Context) GetEnv(name string) (value interface{}, ok bool) {
	switch name {
	case "this":
		for cur := c; cur != nil; cur = cur.parent {
			if cur.hasThis {
				return cur.this, true
			}
		}
	case "index":
		for cur := c; cur != nil; cur = cur.parent {
			if cur.hasIndex {
				return cur.index, true
			}
		}
	case "total":
		for cur := c; cur != nil; cur = cur.parent {
			if cur.hasTotal {
				return cur.total, true
			}
		}
	}
	return nil, false
}

// Root-level reserved variables ("context", "resource", "rootResource"),
// set once at New and inherited unchanged by every descendant.

// ResourceRoot looks up %context, %resource, or %rootResource by their bare
// names, per spec.md §4.7's lookup precedence: user-variable table first,
// then these reserved roots, then unbound.
func (c *Context) ResourceRoot(name string) (Sequence, bool) {
	root := c.rootOf()
	switch name {
	case "context":
		return root.context, true
	case "resource":
		return root.resource, true
	case "rootResource":
		return root.rootResource, true
	default:
		return nil, false
	}
}

// LookupUserVariable implements the full precedence from spec.md §4.7:
// user-variable table, then reserved roots, then unbound.
func (c *Context) LookupUserVariable(name string) (Sequence, bool) {
	if v, ok := c.GetVariable(name); ok {
		return v, true
	}
	return c.ResourceRoot(name)
}
