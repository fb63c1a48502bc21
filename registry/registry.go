// Package registry is the single name/token-to-descriptor mapping shared by
// the parser (precedence, token recognition) and the evaluator (dispatch),
// per spec.md §4.4.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// Kind distinguishes the three descriptor categories.
type Kind int

const (
	KindOperator Kind = iota
	KindFunction
	KindLiteral
)

// Form distinguishes prefix (unary) from infix (binary) operator usage; the
// same token (e.g. MINUS) can have descriptors under both forms, so the
// registry is keyed by (token.Kind, Form) for operators, per spec.md §9
// ("Registry lookup by token + form").
type Form int

const (
	FormPrefix Form = iota
	FormInfix
)

// Associativity is always left in FHIRPath (spec.md §4.4: "there are no
// right-associative operators"), but the field exists so the table is
// self-documenting and future-proof.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// ParamKind distinguishes eagerly-evaluated function arguments from
// lazily-evaluated ones (higher-order functions need the unevaluated AST).
type ParamKind int

const (
	ParamValue ParamKind = iota
	ParamExpression
)

// Param describes one formal parameter of a function descriptor.
type Param struct {
	Name     string
	Kind     ParamKind
	Optional bool
	Default  any
	TypeHint string
}

// Evaluator is the signature every operator/function descriptor's evaluation
// callback implements. It is declared as an alias for `any` here to avoid an
// import cycle with the evaluator package (which depends on registry for
// descriptor lookup); the evaluator package defines the concrete function
// type and type-asserts it back out of this field.
type Evaluator = any

// Descriptor is one registry entry: an operator, function, or literal form.
type Descriptor struct {
	Kind Kind
	Name string // symbolic for operators ("+", "and"), textual for functions

	// Operator-only fields.
	Token         token.Kind
	Form          Form
	Precedence    int
	Associativity Associativity

	// Function-only fields.
	Params []Param
	MinArgs, MaxArgs int // MaxArgs < 0 means unbounded

	PropagatesEmpty bool
	Eval            Evaluator
}

type operatorKey struct {
	tok  token.Kind
	form Form
}

// Registry is read-only after initialization (spec.md §5): Register* takes
// the write lock, Lookup*/Suggest take the read lock, mirroring the
// teacher's sync.RWMutex-guarded decorator table.
type Registry struct {
	mu        sync.RWMutex
	operators map[operatorKey]*Descriptor
	functions map[string]*Descriptor
	sealed    map[string]bool // built-ins, rejected on re-registration
}

var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// New creates an empty registry. Use Builtins() to get one preloaded with
// the mandatory FHIRPath operator and function set.
func New() *Registry {
	return &Registry{
		operators: make(map[operatorKey]*Descriptor),
		functions: make(map[string]*Descriptor),
		sealed:    make(map[string]bool),
	}
}

// RegisterOperator adds an operator descriptor. Used only during registry
// construction (Builtins); attempting to override an existing (token, form)
// pair is rejected.
func (r *Registry) RegisterOperator(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := operatorKey{tok: d.Token, form: d.Form}
	if _, exists := r.operators[key]; exists {
		return fmt.Errorf("registry: operator %s/%v already registered", d.Token, d.Form)
	}
	cp := d
	r.operators[key] = &cp
	return nil
}

// RegisterFunction adds a function descriptor. Built-ins are sealed: once
// registered as a built-in (seal=true), no caller - including a later call
// to RegisterFunction with seal=false - may override it, per spec.md §4.4
// ("Attempting to override a built-in is rejected").
func (r *Registry) RegisterFunction(d Descriptor, seal bool) error {
	if !nameRE.MatchString(d.Name) {
		return fmt.Errorf("registry: invalid function name %q", d.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed[d.Name] {
		return fmt.Errorf("registry: %q is a built-in function and cannot be overridden", d.Name)
	}
	cp := d
	r.functions[d.Name] = &cp
	if seal {
		r.sealed[d.Name] = true
	}
	return nil
}

// LookupOperator returns the descriptor for (tok, form), if any.
func (r *Registry) LookupOperator(tok token.Kind, form Form) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.operators[operatorKey{tok: tok, form: form}]
	return d, ok
}

// LookupFunction returns the descriptor for name, if any.
func (r *Registry) LookupFunction(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.functions[name]
	return d, ok
}

// IsBuiltinFunction reports whether name is a sealed built-in.
func (r *Registry) IsBuiltinFunction(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed[name]
}

// FunctionNames returns all registered function names, sorted, for
// diagnostics and Suggest.
func (r *Registry) FunctionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Suggest finds the closest registered function name to an unknown one,
// using fuzzy ranking (grounded on the teacher's findClosestMatch /
// fuzzy.RankFindFold). Returns "" if there are no candidates or nothing
// ranks.
func (r *Registry) Suggest(name string) string {
	candidates := r.FunctionNames()
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i].Distance < ranks[j].Distance })
	return ranks[0].Target
}

// Precedence returns the binding precedence for an infix operator token,
// or 0 if tok is not an infix operator (spec.md §4.4: higher binds
// tighter; 0 means "stop the precedence loop").
func (r *Registry) Precedence(tok token.Kind) int {
	d, ok := r.LookupOperator(tok, FormInfix)
	if !ok {
		return 0
	}
	return d.Precedence
}
