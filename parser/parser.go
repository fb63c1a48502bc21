// Package parser implements the FHIRPath Pratt parser: one recursive
// "primary" production plus a precedence-driven "expression(minPrec)" loop,
// with optional error recovery, per spec.md §4.5. Grounded on the teacher's
// runtime/parser/parser.go binaryExpr(minPrec) precedence-climbing loop,
// adapted from its CST event-builder style to direct typed-AST construction
// (the shape its own older pkgs/parser/parser.go generation uses).
package parser

import (
	"fmt"

	"github.com/atomic-ehr/fhirpath-sub008/ast"
	"github.com/atomic-ehr/fhirpath-sub008/diagnostic"
	"github.com/atomic-ehr/fhirpath-sub008/internal/invariant"
	"github.com/atomic-ehr/fhirpath-sub008/lexer"
	"github.com/atomic-ehr/fhirpath-sub008/registry"
	"github.com/atomic-ehr/fhirpath-sub008/token"
)

// Result is the parser's output (spec.md §6 "Parse result").
type Result struct {
	AST        ast.Node
	Diagnostics []diagnostic.Diagnostic
	HasErrors  bool
	IsPartial  bool // only meaningful when error recovery was enabled
	SourceMap  *token.SourceMap
}

// Parser holds the token stream and parsing state for one source text.
type Parser struct {
	cfg  config
	reg  *registry.Registry
	rep  *diagnostic.Reporter
	coll *diagnostic.Collector

	toks []token.Token
	pos  int

	partial bool
}

// syncSet is the fixed set of synchronization-point token kinds recovery
// mode advances to (spec.md §4.5).
var syncSet = map[token.Kind]bool{
	token.COMMA: true, token.RPAREN: true, token.RBRACKET: true, token.RBRACE: true,
	token.PIPE: true, token.AND: true, token.OR: true, token.EOF: true,
}

// binaryOpFromToken maps an infix operator token to its ast.BinaryOp. DOT,
// IS, AS, and PIPE are deliberately absent: they're handled as special forms
// (postfix member access, type-name forms, and n-ary union flattening
// respectively), never as plain Binary nodes.
var binaryOpFromToken = map[token.Kind]ast.BinaryOp{
	token.PLUS: ast.OpPlus, token.MINUS: ast.OpMinus, token.STAR: ast.OpMul,
	token.SLASH: ast.OpDiv, token.DIV: ast.OpIDiv, token.MOD: ast.OpMod,
	token.CONCAT: ast.OpConcat,
	token.LT:     ast.OpLt, token.GT: ast.OpGt, token.LTE: ast.OpLte, token.GTE: ast.OpGte,
	token.EQ: ast.OpEq, token.NEQ: ast.OpNeq,
	token.SIMILAR: ast.OpEquiv, token.NOT_SIMILAR: ast.OpNotEquiv,
	token.IN: ast.OpIn, token.CONTAINS: ast.OpContains,
	token.AND: ast.OpAnd, token.OR: ast.OpOr, token.XOR: ast.OpXor, token.IMPLIES: ast.OpImplies,
}

// Parse tokenizes source and parses it into a Result. reg supplies operator
// precedence/arity; it's read-only from the parser's perspective.
func Parse(source string, reg *registry.Registry, opts ...Option) (*Result, error) {
	invariant.NotNil(reg, "parser.Parse: registry must not be nil")

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	coll := diagnostic.NewCollector(cfg.maxErrors)
	sm := token.NewSourceMap(source)

	var lexOpts []lexer.Option
	lexOpts = append(lexOpts, lexer.WithRecovery(coll))
	lx := lexer.New(source, lexOpts...)
	toks, lexErr := lx.Tokenize()
	if lexErr != nil {
		// Only possible when recovery wasn't requested of the lexer, which
		// never happens here since WithRecovery is always passed; kept for
		// completeness/defensiveness against future option changes.
		return nil, lexErr
	}

	p := &Parser{cfg: cfg, reg: reg, rep: diagnostic.NewReporter(), coll: coll, toks: toks}

	var result ast.Node
	if cfg.errorRecovery {
		result = p.parseTopLevelRecovering()
	} else {
		result = p.parseTopLevel()
	}

	diags := coll.All()
	hasErrors := coll.HasErrors()

	if cfg.throwOnError && hasErrors && !cfg.errorRecovery {
		first := diags[0]
		return nil, fmt.Errorf("%s: %s", first.Code, first.Message)
	}

	return &Result{
		AST:         result,
		Diagnostics: diags,
		HasErrors:   hasErrors,
		IsPartial:   p.partial,
		SourceMap:   sm,
	}, nil
}

// parseTopLevel parses a single expression followed by EOF (used when error
// recovery is disabled). Errors are collected as diagnostics, not returned;
// a failure mid-expression still returns a best-effort AST (possibly containing an
// Error/Incomplete node) since the caller inspects coll.HasErrors().
func (p *Parser) parseTopLevel() ast.Node {
	expr := p.parseExpression(0)
	if !p.at(token.EOF) {
		p.addUnexpected(diagnosticCtxExpression(), p.cur(), "end of input")
	}
	return expr
}

// parseTopLevelRecovering is identical except failures during parsing are
// contained by synchronize(), and the overall result is marked partial.
func (p *Parser) parseTopLevelRecovering() ast.Node {
	expr := p.parseExpression(0)
	if !p.at(token.EOF) {
		p.addUnexpected(diagnosticCtxExpression(), p.cur(), "end of input")
		p.partial = true
		p.synchronize()
	}
	return expr
}

func diagnosticCtxExpression() diagnostic.ParseContext { return diagnostic.CtxExpression }

// --- token stream helpers ---

func (p *Parser) cur() token.Token { return p.peek(0) }

func (p *Parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel, always last
	}
	return p.toks[i]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

// consumeMemberName reads an identifier-like name at the current token for
// use as a property/function name, applying the keyword-after-dot
// reclassification from spec.md §4.5: a keyword token is treated as a plain
// identifier immediately after `.` (FHIR field names collide with reserved
// words like "contains", "as", "is", "div").
func (p *Parser) consumeMemberName() (string, token.Position, bool) {
	t := p.cur()
	switch t.Kind {
	case token.IDENTIFIER, token.DELIMITED_IDENTIFIER:
		p.advance()
		return t.Text, t.Position, true
	case token.AND, token.OR, token.XOR, token.NOT, token.IMPLIES, token.IS, token.AS,
		token.IN, token.CONTAINS, token.DIV, token.MOD, token.TRUE, token.FALSE, token.UNIT:
		p.advance()
		return t.Text, t.Position, true
	default:
		return "", t.Position, false
	}
}

func (p *Parser) addUnexpected(ctx diagnostic.ParseContext, got token.Token, expected string) {
	p.coll.Add(p.rep.Unexpected(ctx, got, expected))
}

func (p *Parser) addMissingIdentifier(ctx diagnostic.ParseContext, got token.Token) {
	p.coll.Add(p.rep.MissingIdentifier(ctx, got))
}

func (p *Parser) errorDiag(code diagnostic.Code, rng token.Range, format string, args ...any) {
	p.coll.Add(diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Range:    rng,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

// synchronize advances past tokens until one in syncSet is current (or EOF),
// per spec.md §4.5 step 2. The synchronizing token itself is not consumed
// (callers decide whether to consume it, e.g. a comma in an argument list).
func (p *Parser) synchronize() {
	for !syncSet[p.cur().Kind] {
		p.advance()
	}
}

func (p *Parser) newBase(pos token.Position) ast.Base { return ast.NewBase(pos) }

// finishRange attaches a full range to n, from n's own start position to the
// token just consumed (end), when range tracking is enabled.
func (p *Parser) finishRange(n interface{ SetRange(token.Range) }, start token.Position, end token.Position) {
	if !p.cfg.trackRanges {
		return
	}
	n.SetRange(token.Range{Start: start, End: end})
}

// --- expression(minPrec): the precedence-climbing loop ---

func (p *Parser) parseExpression(minPrec int) ast.Node {
	left := p.parsePrimary()

	for {
		tok := p.cur()

		if tok.Kind == token.PIPE {
			prec := p.reg.Precedence(token.PIPE)
			if prec == 0 || prec < minPrec {
				break
			}
			left = p.parseUnionTail(left, prec)
			continue
		}

		if tok.Kind == token.IS || tok.Kind == token.AS {
			prec := p.reg.Precedence(tok.Kind)
			if prec == 0 || prec < minPrec {
				break
			}
			left = p.parseTypeForm(left, tok)
			continue
		}

		op, known := binaryOpFromToken[tok.Kind]
		if !known {
			break
		}
		prec := p.reg.Precedence(tok.Kind)
		if prec == 0 || prec < minPrec {
			break
		}

		p.advance()
		if tok.Kind == token.EQ && p.at(token.EQ) {
			// "==" is a common mistake; the lexer emits two adjacent EQ
			// tokens (it has no "==" lexeme of its own), so the second EQ is
			// detected here and skipped, per spec.md §4.5.
			extra := p.advance()
			p.errorDiag(diagnostic.InvalidOperator, extra.Range(), "use '=' for equality, not '=='")
		}
		right := p.parseExpressionOrIncomplete(prec+1, tok)

		bin := &ast.Binary{Base: p.newBase(left.Position()), Op: op, Left: left, Right: right}
		p.finishRange(bin, left.Position(), p.prevEnd())
		left = bin
	}

	return left
}

// parseExpressionOrIncomplete parses a right-hand operand, synthesizing an
// Incomplete node (recovery mode) instead of recursing into garbage when the
// operand is obviously missing (next token is a synchronization point).
func (p *Parser) parseExpressionOrIncomplete(minPrec int, opTok token.Token) ast.Node {
	if p.cfg.errorRecovery && (syncSet[p.cur().Kind] || p.startsNothing(p.cur())) {
		p.errorDiag(diagnostic.ExpectedExpression, p.cur().Range(),
			"expected an operand after %q, got %s", opTok.Text, describeKind(p.cur()))
		p.partial = true
		return &ast.Incomplete{Base: p.newBase(opTok.Position), Missing: "right-hand operand"}
	}
	return p.parseExpression(minPrec)
}

// startsNothing reports whether t can never begin a primary expression, used
// to decide (in recovery mode only) whether to synthesize Incomplete rather
// than recurse.
func (p *Parser) startsNothing(t token.Token) bool {
	switch t.Kind {
	case token.RPAREN, token.RBRACKET, token.RBRACE, token.COMMA, token.EOF,
		token.AND, token.OR, token.PIPE:
		return true
	default:
		return false
	}
}

func describeKind(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of input"
	}
	return t.Kind.String()
}

// prevEnd returns the End() of the most recently consumed token, used as a
// node's range end.
func (p *Parser) prevEnd() token.Position {
	if p.pos == 0 {
		return p.toks[0].Position
	}
	return p.toks[p.pos-1].End()
}

// parseUnionTail folds repeated `|` into a single n-ary Union, per spec.md
// §4.5 ("repeated `|` collects operands into a single Union node").
func (p *Parser) parseUnionTail(left ast.Node, prec int) ast.Node {
	var operands []ast.Node
	if u, ok := left.(*ast.Union); ok {
		operands = u.Operands
	} else {
		operands = []ast.Node{left}
	}
	pipeTok := p.advance() // consume '|'
	right := p.parseExpressionOrIncomplete(prec+1, pipeTok)
	if u, ok := right.(*ast.Union); ok {
		operands = append(operands, u.Operands...)
	} else {
		operands = append(operands, right)
	}
	u := &ast.Union{Base: p.newBase(operands[0].Position()), Operands: operands}
	p.finishRange(u, operands[0].Position(), p.prevEnd())
	return u
}

// parseTypeForm handles `expr is TypeName` / `expr as TypeName`: the
// right-hand side is a type name, not a recursive expression, per spec.md
// §4.5.
func (p *Parser) parseTypeForm(left ast.Node, opTok token.Token) ast.Node {
	p.advance() // consume 'is'/'as'
	name, ok := p.parseTypeName()
	if !ok {
		p.addMissingIdentifier(diagnostic.CtxMembershipTest, p.cur())
		p.partial = true
		name = ""
	}
	if opTok.Kind == token.IS {
		m := &ast.MembershipTest{Base: p.newBase(left.Position()), Expression: left, TargetType: name}
		p.finishRange(m, left.Position(), p.prevEnd())
		return m
	}
	c := &ast.TypeCast{Base: p.newBase(left.Position()), Expression: left, TargetType: name}
	p.finishRange(c, left.Position(), p.prevEnd())
	return c
}

// parseTypeName reads a bare or dotted type name (e.g. "Patient" or
// "FHIR.Patient"), optionally parenthesized, per spec.md §4.5 ("is/as read a
// type-name: bare identifier or parenthesized identifier").
func (p *Parser) parseTypeName() (string, bool) {
	paren := false
	if p.at(token.LPAREN) {
		paren = true
		p.advance()
	}
	name, _, ok := p.consumeMemberName()
	if !ok {
		return "", false
	}
	for p.at(token.DOT) {
		p.advance()
		part, _, ok2 := p.consumeMemberName()
		if !ok2 {
			break
		}
		name = name + "." + part
	}
	if paren {
		if p.at(token.RPAREN) {
			p.advance()
		} else {
			p.errorDiag(diagnostic.UnclosedParenthesis, p.cur().Range(), "unclosed parenthesis in type name")
		}
	}
	return name, true
}

// --- primary: leaves plus the postfix loop ([index], .member, .member(...)) ---

func (p *Parser) parsePrimary() ast.Node {
	tok := p.cur()
	var node ast.Node

	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: tok.Text, ValueKind: ast.ValueNumber}
	case token.STRING:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: tok.Text, ValueKind: ast.ValueString}
	case token.TRUE:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: "true", ValueKind: ast.ValueBoolean}
	case token.FALSE:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: "false", ValueKind: ast.ValueBoolean}
	case token.DATE:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: tok.Text, ValueKind: ast.ValueDate}
	case token.TIME:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: tok.Text, ValueKind: ast.ValueTime}
	case token.DATETIME:
		p.advance()
		node = &ast.Literal{Base: p.newBase(tok.Position), Value: tok.Text, ValueKind: ast.ValueDateTime}
	case token.THIS:
		p.advance()
		node = &ast.Variable{Base: p.newBase(tok.Position), Name: "this", Kind: ast.VarEnv}
	case token.INDEX:
		p.advance()
		node = &ast.Variable{Base: p.newBase(tok.Position), Name: "index", Kind: ast.VarEnv}
	case token.TOTAL:
		p.advance()
		node = &ast.Variable{Base: p.newBase(tok.Position), Name: "total", Kind: ast.VarEnv}
	case token.ENV_VAR:
		p.advance()
		node = &ast.Variable{Base: p.newBase(tok.Position), Name: tok.Text, Kind: ast.VarUser}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression(0)
		if p.at(token.RPAREN) {
			p.advance()
		} else {
			p.errorDiag(diagnostic.UnclosedParenthesis, tok.Range(), "unclosed parenthesis")
			p.partial = true
		}
		node = inner
	case token.LBRACE:
		node = p.parseCollectionOrNull(tok)
	case token.MINUS, token.PLUS, token.NOT:
		node = p.parseUnary(tok)
	case token.IDENTIFIER, token.DELIMITED_IDENTIFIER:
		p.advance()
		node = p.identifierLeaf(tok)
		node = p.maybePromoteCall(node, tok)
	default:
		p.addUnexpected(diagnostic.CtxExpression, tok, "an expression")
		p.partial = true
		if p.cfg.errorRecovery {
			errNode := &ast.Error{
				Base: p.newBase(tok.Position), Expected: "expression", Actual: tok,
				Code: int(diagnostic.ExpectedExpression), Message: fmt.Sprintf("unexpected %s", describeKind(tok)),
			}
			if !p.at(token.EOF) {
				p.advance()
			}
			return errNode
		}
		return &ast.Error{
			Base: p.newBase(tok.Position), Expected: "expression", Actual: tok,
			Code: int(diagnostic.ExpectedExpression), Message: fmt.Sprintf("unexpected %s", describeKind(tok)),
		}
	}

	return p.parsePostfix(node)
}

// identifierLeaf builds an Identifier or TypeOrIdentifier node from an
// already-classified IDENTIFIER/DELIMITED_IDENTIFIER token, using the
// initial-uppercase heuristic from spec.md §3. Delimited identifiers
// (`` `name` ``) are never treated as type names since backtick-quoting is
// used precisely to name a field that looks like something else.
func (p *Parser) identifierLeaf(tok token.Token) ast.Node {
	if tok.Kind == token.DELIMITED_IDENTIFIER {
		return &ast.Identifier{Base: p.newBase(tok.Position), Name: tok.Text}
	}
	if isUpperStart(tok.Text) {
		return &ast.TypeOrIdentifier{Base: p.newBase(tok.Position), Name: tok.Text}
	}
	return &ast.Identifier{Base: p.newBase(tok.Position), Name: tok.Text}
}

func isUpperStart(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

// maybePromoteCall turns a bare leading identifier into a Function node when
// immediately followed by '(' (e.g. standalone `exists()` at the start of an
// expression, not reached via a preceding dot).
func (p *Parser) maybePromoteCall(callee ast.Node, calleeTok token.Token) ast.Node {
	if !p.at(token.LPAREN) {
		return callee
	}
	args := p.parseCallArguments(calleeName(callee))
	fn := &ast.Function{Base: p.newBase(calleeTok.Position), Callee: callee, Arguments: args}
	p.finishRange(fn, calleeTok.Position, p.prevEnd())
	return fn
}

func calleeName(n ast.Node) string {
	switch v := n.(type) {
	case *ast.Identifier:
		return v.Name
	case *ast.TypeOrIdentifier:
		return v.Name
	default:
		return ""
	}
}

// parseUnary handles prefix -, +, not (spec.md §4.4 precedence rank 3).
func (p *Parser) parseUnary(tok token.Token) ast.Node {
	p.advance()
	operand := p.parsePrimary()
	var op ast.UnaryOp
	switch tok.Kind {
	case token.MINUS:
		op = ast.OpNeg
	case token.PLUS:
		op = ast.OpPos
	default:
		op = ast.OpNot
	}
	u := &ast.Unary{Base: p.newBase(tok.Position), Op: op, Operand: operand}
	p.finishRange(u, tok.Position, p.prevEnd())
	return u
}

// parseCollectionOrNull parses `{}` (the empty/null literal) or
// `{ e1, e2, ... }` (a Collection), per spec.md §3's Literal ValueNull case.
func (p *Parser) parseCollectionOrNull(open token.Token) ast.Node {
	p.advance() // consume '{'
	if p.at(token.RBRACE) {
		p.advance()
		n := &ast.Literal{Base: p.newBase(open.Position), ValueKind: ast.ValueNull}
		p.finishRange(n, open.Position, p.prevEnd())
		return n
	}

	var elems []ast.Node
	for {
		elems = append(elems, p.parseExpression(0))
		if p.at(token.COMMA) {
			commaTok := p.advance()
			if p.at(token.RBRACE) {
				p.errorDiag(diagnostic.SyntaxError, commaTok.Range(), "trailing comma in collection literal")
				p.partial = true
				break
			}
			continue
		}
		break
	}
	if p.at(token.RBRACE) {
		p.advance()
	} else {
		p.errorDiag(diagnostic.UnclosedBrace, open.Range(), "unclosed brace in collection literal")
		p.partial = true
		if p.cfg.errorRecovery {
			p.synchronize()
			if p.at(token.RBRACE) {
				p.advance()
			}
		}
	}
	c := &ast.Collection{Base: p.newBase(open.Position), Elements: elems}
	p.finishRange(c, open.Position, p.prevEnd())
	return c
}

// parsePostfix applies the postfix loop: `[index]`, `.member`,
// `.member(...)`, in the order they appear, per spec.md §4.5.
func (p *Parser) parsePostfix(node ast.Node) ast.Node {
	for {
		switch {
		case p.at(token.DOT):
			node = p.parseDotted(node)
		case p.at(token.LBRACKET):
			node = p.parseIndexed(node)
		default:
			return node
		}
	}
}

func (p *Parser) parseDotted(left ast.Node) ast.Node {
	firstDot := p.advance() // consume '.'
	if p.at(token.DOT) {
		extra := p.advance()
		span := token.Range{Start: firstDot.Position, End: extra.End()}
		p.errorDiag(diagnostic.InvalidOperator, span, "unexpected '..'; a single '.' separates path segments")
		p.partial = true
	}
	name, namePos, ok := p.consumeMemberName()
	if !ok {
		p.addMissingIdentifier(diagnostic.CtxExpression, p.cur())
		p.partial = true
		return &ast.Incomplete{Base: p.newBase(left.Position()), Partial: left, Missing: "member name after '.'"}
	}
	memberTok := token.Token{Kind: token.IDENTIFIER, Text: name, Position: namePos}
	var right ast.Node = p.identifierLeaf(memberTok)

	if p.at(token.LPAREN) {
		args := p.parseCallArguments(name)
		fn := &ast.Function{Base: p.newBase(namePos), Callee: right, Arguments: args}
		p.finishRange(fn, namePos, p.prevEnd())
		right = fn
	}

	bin := &ast.Binary{Base: p.newBase(left.Position()), Op: ast.OpDot, Left: left, Right: right}
	p.finishRange(bin, left.Position(), p.prevEnd())
	return bin
}

func (p *Parser) parseIndexed(expr ast.Node) ast.Node {
	open := p.advance() // consume '['
	idx := p.parseExpression(0)
	if p.at(token.RBRACKET) {
		p.advance()
	} else {
		p.errorDiag(diagnostic.UnclosedBracket, open.Range(), "unclosed bracket in index expression")
		p.partial = true
		if p.cfg.errorRecovery {
			p.synchronize()
			if p.at(token.RBRACKET) {
				p.advance()
			}
		}
	}
	ix := &ast.Index{Base: p.newBase(expr.Position()), Expression: expr, IndexExpr: idx}
	p.finishRange(ix, expr.Position(), p.prevEnd())
	return ix
}

// parseCallArguments parses `(arg, arg, ...)`. When calleeName is "ofType",
// "is", or "as", the single argument is parsed as a bare TypeReference
// instead of a general expression, per spec.md §4.5.
func (p *Parser) parseCallArguments(calleeName string) []ast.Node {
	open := p.advance() // consume '('
	var args []ast.Node

	if p.at(token.RPAREN) {
		p.advance()
		return args
	}

	typeArgument := calleeName == "ofType" || calleeName == "is" || calleeName == "as"
	for {
		if typeArgument {
			args = append(args, p.parseTypeReference())
		} else {
			args = append(args, p.parseExpression(0))
		}
		if p.at(token.COMMA) {
			commaTok := p.advance()
			if p.at(token.RPAREN) {
				p.errorDiag(diagnostic.SyntaxError, commaTok.Range(), "trailing comma in argument list")
				p.partial = true
				break
			}
			continue
		}
		break
	}

	if p.at(token.RPAREN) {
		p.advance()
	} else {
		p.errorDiag(diagnostic.UnclosedParenthesis, open.Range(), "unclosed parenthesis in argument list")
		p.partial = true
		if p.cfg.errorRecovery {
			p.synchronize()
			if p.at(token.RPAREN) {
				p.advance()
			}
		}
	}
	return args
}

func (p *Parser) parseTypeReference() ast.Node {
	tok := p.cur()
	name, ok := p.parseTypeName()
	if !ok {
		p.addMissingIdentifier(diagnostic.CtxTypeCast, p.cur())
		p.partial = true
		return &ast.Incomplete{Base: p.newBase(tok.Position), Missing: "type name"}
	}
	n := &ast.TypeReference{Base: p.newBase(tok.Position), TypeName: name}
	p.finishRange(n, tok.Position, p.prevEnd())
	return n
}
