// Package fhirpath is the single public facade wiring lexer, parser, and
// evaluator together behind one entry point (spec.md §6), grounded on the
// teacher's pkgs/engine/engine.go role as the one package a host imports.
package fhirpath

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/evalctx"
	"github.com/atomic-ehr/fhirpath-sub008/evaluator"
	"github.com/atomic-ehr/fhirpath-sub008/lexer"
	"github.com/atomic-ehr/fhirpath-sub008/parser"
	"github.com/atomic-ehr/fhirpath-sub008/registry"
	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// Logger is gated by FHIRPATH_DEBUG exactly as the lexer's internal
// logger is, exposed here so a host embedding this module can share one
// logging policy with it.
var Logger = newLogger()

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("FHIRPATH_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Re-exported closed error-code set (spec.md §6).
const (
	SyntaxError         = diagnostic.SyntaxError
	UnexpectedToken     = diagnostic.UnexpectedToken
	ExpectedExpression  = diagnostic.ExpectedExpression
	ExpectedIdentifier  = diagnostic.ExpectedIdentifier
	InvalidOperator     = diagnostic.InvalidOperator
	UnclosedParenthesis = diagnostic.UnclosedParenthesis
	UnclosedBracket     = diagnostic.UnclosedBracket
	UnclosedBrace       = diagnostic.UnclosedBrace
	UnterminatedString  = diagnostic.UnterminatedString
	InvalidEscape       = diagnostic.InvalidEscape
	ParseErrorCode      = diagnostic.ParseErrorCode
	TypeErrorCode       = diagnostic.TypeErrorCode
	AnalysisError       = diagnostic.AnalysisError
	UnreachableCode     = diagnostic.UnreachableCode
)

// Sequence is the flat value-sequence every evaluation produces and
// consumes (spec.md §3).
type Sequence = evalctx.Sequence

// ParseResult mirrors spec.md §6's `{ ast, diagnostics, has_errors,
// is_partial?, ranges? }`, with the two optional fields always present:
// SourceMap is always set, and IsPartial can be true with or without error
// recovery.
type ParseResult = parser.Result

// ModelProvider is an optional type oracle a host may supply for static
// analysis. It is stored on the Engine but never consulted during
// evaluation (spec.md §6: "not consulted during evaluation") - any concrete
// implementation (e.g. backed by a real FHIR StructureDefinition set) lives
// outside this module.
type ModelProvider interface {
	// TypeOf returns the declared type name for a dotted element path, if
	// the provider has schema knowledge of it.
	TypeOf(path string) (typeName string, ok bool)
}

var nameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Engine is a configured FHIRPath host: a registry (built-ins plus any
// with_custom_function registrations), seeded user variables, and an
// optional model provider. The zero value is not usable; construct one with
// New.
type Engine struct {
	registry      *registry.Registry
	evaluator     *evaluator.Evaluator
	variables     map[string]Sequence
	modelProvider ModelProvider
}

// Option configures an Engine, builder-style (spec.md §6).
type Option func(*Engine)

// WithVariable seeds a user variable, available to evaluated expressions as
// %name.
func WithVariable(name string, value interface{}) Option {
	return func(e *Engine) {
		e.variables[name] = normalizeInput(value)
	}
}

// WithCustomFunction registers fn under name. Registration is rejected -
// by panicking, since a misconfigured Engine is a caller bug discovered at
// wiring time, not a runtime condition a caller is expected to recover from
// - when name collides with a built-in or is lexically invalid (spec.md
// §6: "rejected if name matches a built-in or is lexically invalid").
func WithCustomFunction(name string, fn evaluator.FunctionEval) Option {
	return func(e *Engine) {
		if !nameRE.MatchString(name) {
			panic(fmt.Sprintf("fhirpath: invalid custom function name %q", name))
		}
		if e.registry.IsBuiltinFunction(name) {
			panic(fmt.Sprintf("fhirpath: custom function %q collides with a built-in", name))
		}
		err := e.registry.RegisterFunction(registry.Descriptor{
			Kind: registry.KindFunction, Name: name,
			MinArgs: 0, MaxArgs: -1, Eval: fn,
		}, false)
		if err != nil {
			panic(fmt.Sprintf("fhirpath: %v", err))
		}
	}
}

// WithModelProvider attaches an optional type oracle. It is stored and
// never consulted by Evaluate.
func WithModelProvider(provider ModelProvider) Option {
	return func(e *Engine) {
		e.modelProvider = provider
	}
}

// New builds an Engine with the full built-in operator/function set plus
// whatever opts configure.
func New(opts ...Option) *Engine {
	reg := evaluator.NewRegistry()
	e := &Engine{
		registry:  reg,
		evaluator: evaluator.New(reg),
		variables: make(map[string]Sequence),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelProvider returns the engine's configured model provider, if any.
func (e *Engine) ModelProvider() (ModelProvider, bool) {
	return e.modelProvider, e.modelProvider != nil
}

// Parse parses source against the engine's registry (the parser takes
// operator precedence from it), honoring opts (spec.md §6's throw_on_error/error_recovery/
// track_ranges/max_errors).
func (e *Engine) Parse(source string, opts ...parser.Option) (*ParseResult, error) {
	return parser.Parse(source, e.registry, opts...)
}

// Evaluate parses and evaluates source in one step, building a fresh root
// Context seeded with input and the engine's variables (spec.md §6's
// evaluation interface). input is normalized: a non-sequence becomes a
// one-element sequence, nil becomes empty.
func (e *Engine) Evaluate(source string, input interface{}) (Sequence, error) {
	result, err := e.Parse(source)
	if err != nil {
		return nil, err
	}
	if result.HasErrors {
		return nil, fmt.Errorf("fhirpath: parse error: %s", firstDiagnostic(result.Diagnostics))
	}
	ctx := e.newContext(input)
	out, _, err := e.evaluator.Eval(result.AST, normalizeInput(input), ctx)
	return out, err
}

// EvaluateNode evaluates an already-parsed AST node against input and an
// optional explicit context, letting a host re-evaluate a cached parse
// result without re-lexing (spec.md §6: "evaluate(expression_or_ast, input,
// context?)").
func (e *Engine) EvaluateNode(node ast.Node, input interface{}, ctx *evalctx.Context) (Sequence, error) {
	if ctx == nil {
		ctx = e.newContext(input)
	}
	out, _, err := e.evaluator.Eval(node, normalizeInput(input), ctx)
	return out, err
}

func (e *Engine) newContext(input interface{}) *evalctx.Context {
	ctx := evalctx.New(normalizeInput(input))
	for name, value := range e.variables {
		ctx = ctx.SetVariable(name, value)
	}
	return ctx
}

func normalizeInput(input interface{}) Sequence {
	switch v := input.(type) {
	case nil:
		return Sequence{}
	case Sequence:
		return v
	default:
		return Sequence{v}
	}
}

func firstDiagnostic(diags []diagnostic.Diagnostic) string {
	if len(diags) == 0 {
		return "unknown error"
	}
	return diags[0].Message
}

// Parse is the package-level convenience form of Engine.Parse, using a
// fresh engine with only the built-in registry - equivalent to
// New().Parse(source, opts...).
func Parse(source string, opts ...parser.Option) (*ParseResult, error) {
	return New().Parse(source, opts...)
}

// Evaluate is the package-level convenience form of Engine.Evaluate.
func Evaluate(source string, input interface{}) (Sequence, error) {
	return New().Evaluate(source, input)
}

// Lex exposes the lexer directly for tooling that wants tokens without a
// full parse (e.g. syntax highlighting).
func Lex(source string, opts ...lexer.Option) ([]token.Token, error) {
	lx := lexer.New(source, opts...)
	return lx.Tokenize()
}
