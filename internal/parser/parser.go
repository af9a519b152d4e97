// Package parser implements the syntax analysis for phplite.
// It uses Pratt parsing for expressions and recursive descent for statements/declarations.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"phplite/internal/ast"
	"phplite/internal/diag"
	"phplite/internal/span"
	"phplite/internal/token"
)

// ============================================================
// Binding power (precedence) levels
// ============================================================

const (
	bpNone       = 0
	bpOrKw       = 2  // or
	bpXorKw      = 4  // xor
	bpAndKw      = 6  // and
	bpAssign     = 8  // = += .= ... (right-associative)
	bpCoalesce   = 10 // ?? (right-associative)
	bpOrOr       = 12 // ||
	bpAndAnd     = 14 // &&
	bpBitOr      = 16 // |
	bpBitXor     = 18 // ^
	bpBitAnd     = 20 // &
	bpEquality   = 22 // == != === !== <> <=>
	bpComparison = 24 // < <= > >=
	bpConcat     = 26 // .
	bpShift      = 28 // << >>
	bpAdditive   = 30 // + -
	bpMultiply   = 32 // * / %
	bpNot        = 34 // !
	bpInstanceof = 36 // instanceof
	bpPrefix     = 38 // - + ~
	bpPow        = 40 // ** (right-associative)
	bpPostfix    = 44 // () [] ->
)

// infixBP returns the left binding power for an infix/postfix operator.
func infixBP(kind token.Kind) int {
	if kind.IsAssignOp() {
		return bpAssign
	}
	switch kind {
	case token.KW_OR:
		return bpOrKw
	case token.KW_XOR:
		return bpXorKw
	case token.KW_AND:
		return bpAndKw
	case token.COALESCE:
		return bpCoalesce
	case token.OR:
		return bpOrOr
	case token.AND:
		return bpAndAnd
	case token.PIPE:
		return bpBitOr
	case token.CARET:
		return bpBitXor
	case token.AMP:
		return bpBitAnd
	case token.EQ, token.NEQ, token.IDENTICAL, token.NOT_IDENTICAL, token.SPACESHIP:
		return bpEquality
	case token.LT, token.LTE, token.GT, token.GTE:
		return bpComparison
	case token.DOT:
		return bpConcat
	case token.SHL, token.SHR:
		return bpShift
	case token.PLUS, token.MINUS:
		return bpAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return bpMultiply
	case token.KW_INSTANCEOF:
		return bpInstanceof
	case token.POW:
		return bpPow
	case token.LPAREN, token.LBRACKET, token.ARROW:
		return bpPostfix
	default:
		return bpNone
	}
}

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens   []token.Token
	filename string
	pos      int
	diags    []diag.Diagnostic
}

// New creates a new parser from a token slice.
func New(tokens []token.Token, filename string) *Parser {
	return &Parser{tokens: tokens, filename: filename, pos: 0}
}

// ParseProgram parses the entire script and returns the AST root and diagnostics.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	program := &ast.Program{Filename: p.filename}
	startPos := p.peek().Span.Start

	for !p.isAtEnd() {
		switch p.peekKind() {
		case token.INLINE_HTML:
			tok := p.advance()
			program.Body = append(program.Body, &ast.InlineHTMLStmt{
				StmtBase: makeStmtBase(tok.Span.Start, tok.Span.End),
				Text:     tok.Lexeme,
			})
		case token.OPEN_TAG, token.CLOSE_TAG:
			p.advance()
		case token.OPEN_TAG_ECHO:
			program.Body = append(program.Body, p.parseEchoTag())
		default:
			stmt := p.parseStmt()
			if stmt != nil {
				program.Body = append(program.Body, stmt)
			}
		}
	}

	endPos := p.peek().Span.End
	program.Span = span.Span{Start: startPos, End: endPos}
	return program, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) peekAhead(n int) token.Kind {
	if p.pos+n >= len(p.tokens) {
		return token.EOF
	}
	return p.tokens[p.pos+n].Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected '%s', got '%s'", kind, tok.Kind))
	return tok, false
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

func (p *Parser) error(code string, s span.Span, msg string) {
	d := diag.Errorf(code, s, "%s", msg)
	d.File = p.filename
	p.diags = append(p.diags, d)
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		// Stop at tag boundaries, closing braces, and statement keywords.
		if p.match(token.RBRACE, token.CLOSE_TAG, token.INLINE_HTML,
			token.KW_ECHO, token.KW_CLASS, token.KW_ABSTRACT, token.KW_RETURN,
			token.KW_UNSET, token.KW_INCLUDE, token.KW_INCLUDE_ONCE,
			token.KW_REQUIRE, token.KW_REQUIRE_ONCE) {
			return
		}
		p.advance()
	}
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peekKind() {
	case token.KW_ECHO:
		return p.parseEchoStmt()
	case token.KW_CLASS, token.KW_ABSTRACT:
		return p.parseClassDecl()
	case token.KW_RETURN:
		return p.parseReturnStmt()
	case token.SEMICOLON:
		p.advance() // empty statement
		return nil
	default:
		return p.parseExprStmt()
	}
}

// parseEchoStmt parses: echo expr [, expr ...] ;
func (p *Parser) parseEchoStmt() *ast.EchoStmt {
	start := p.advance() // consume 'echo'
	stmt := &ast.EchoStmt{}
	stmt.Values = p.parseExprList()
	p.endStmt()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseEchoTag parses the short echo tag: <?= expr [, expr ...] [;] ?>
func (p *Parser) parseEchoTag() *ast.EchoStmt {
	start := p.advance() // consume '<?='
	stmt := &ast.EchoStmt{}
	stmt.Values = p.parseExprList()
	if p.check(token.SEMICOLON) {
		p.advance()
	}
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseExprList parses one or more comma-separated expressions.
func (p *Parser) parseExprList() []ast.Expr {
	var values []ast.Expr
	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
		p.synchronize()
		return values
	}
	values = append(values, expr)
	for p.check(token.COMMA) {
		p.advance()
		next := p.parseExpr(bpNone)
		if next == nil {
			tok := p.peek()
			p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
			p.synchronize()
			return values
		}
		values = append(values, next)
	}
	return values
}

// parseReturnStmt parses: return [expr] ;
func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance() // consume 'return'
	stmt := &ast.ReturnStmt{}

	if !p.match(token.SEMICOLON, token.CLOSE_TAG, token.RBRACE, token.EOF) {
		stmt.Value = p.parseExpr(bpNone)
	}
	p.endStmt()
	stmt.Span = p.makeSpan(start.Span.Start)
	return stmt
}

// parseExprStmt parses an expression executed for its side effects.
func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr(bpNone)
	if expr == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
		p.synchronize()
		return nil
	}
	p.endStmt()
	return &ast.ExprStmt{
		StmtBase: makeStmtBase(expr.GetSpan().Start, p.prevEnd()),
		Expr:     expr,
	}
}

// endStmt consumes a statement terminator. A closing tag, closing brace or
// EOF also ends a statement, without being consumed.
func (p *Parser) endStmt() {
	if p.check(token.SEMICOLON) {
		p.advance()
		return
	}
	if p.match(token.CLOSE_TAG, token.RBRACE, token.EOF) {
		return
	}
	tok := p.peek()
	p.error("E2001", tok.Span, fmt.Sprintf("expected ';', got '%s'", tok.Kind))
	p.synchronize()
}

// ============================================================
// Declaration parsing
// ============================================================

// parseClassDecl parses: [abstract] class Name [extends Parent] { members }
func (p *Parser) parseClassDecl() *ast.ClassDeclStmt {
	start := p.peek()
	decl := &ast.ClassDeclStmt{}

	if p.check(token.KW_ABSTRACT) {
		p.advance()
		decl.Abstract = true
	}
	if _, ok := p.expect(token.KW_CLASS); !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}
	decl.Name = nameTok.Lexeme

	if p.check(token.KW_EXTENDS) {
		p.advance()
		parentTok, ok := p.expect(token.IDENT)
		if ok {
			decl.Extends = parentTok.Lexeme
		}
	}

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		decl.Span = p.makeSpan(start.Span.Start)
		return decl
	}

	for !p.check(token.RBRACE) && !p.isAtEnd() {
		p.parseClassMember(decl)
	}

	p.expect(token.RBRACE)
	decl.Span = p.makeSpan(start.Span.Start)
	return decl
}

// parseClassMember parses one property declaration or the constructor.
func (p *Parser) parseClassMember(decl *ast.ClassDeclStmt) {
	memberStart := p.peek()
	modifiers := p.parseModifiers()

	switch p.peekKind() {
	case token.KW_FUNCTION:
		p.advance()
		nameTok, ok := p.expect(token.IDENT)
		if !ok {
			p.synchronize()
			return
		}
		ctor := p.parseCtorDecl(memberStart)
		if !strings.EqualFold(nameTok.Lexeme, "__construct") {
			p.error("E2004", nameTok.Span,
				fmt.Sprintf("unsupported method '%s': only __construct is supported", nameTok.Lexeme))
			return
		}
		if decl.Ctor != nil {
			p.error("E2004", nameTok.Span,
				fmt.Sprintf("class %s already has a constructor", decl.Name))
			return
		}
		decl.Ctor = ctor

	case token.VARIABLE:
		nameTok := p.advance()
		prop := &ast.PropDecl{
			Modifiers: modifiers,
			Name:      nameTok.Lexeme,
		}
		if len(modifiers) == 0 {
			p.error("E2004", nameTok.Span,
				fmt.Sprintf("property $%s needs a visibility modifier", nameTok.Lexeme))
		}
		if p.check(token.ASSIGN) {
			p.advance()
			prop.Default = p.parseExpr(bpNone)
		}
		p.expect(token.SEMICOLON)
		prop.Span = p.makeSpan(memberStart.Span.Start)
		decl.Props = append(decl.Props, prop)

	default:
		tok := p.peek()
		p.error("E2004", tok.Span,
			fmt.Sprintf("expected property or constructor, got '%s'", tok.Lexeme))
		p.synchronize()
	}
}

// parseCtorDecl parses the parameter list and body after "function __construct".
func (p *Parser) parseCtorDecl(start token.Token) *ast.CtorDecl {
	ctor := &ast.CtorDecl{}
	ctor.Params = p.parseParamList()

	if _, ok := p.expect(token.LBRACE); !ok {
		p.synchronize()
		ctor.Span = p.makeSpan(start.Span.Start)
		return ctor
	}
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		stmt := p.parseStmt()
		if stmt != nil {
			ctor.Body = append(ctor.Body, stmt)
		}
	}
	p.expect(token.RBRACE)
	ctor.Span = p.makeSpan(start.Span.Start)
	return ctor
}

// parseParamList parses: ( [param, param, ...] )
// Each parameter is: [modifiers] [type] $name [= default]
func (p *Parser) parseParamList() []*ast.ParamDecl {
	var params []*ast.ParamDecl

	if _, ok := p.expect(token.LPAREN); !ok {
		return params
	}

	for !p.check(token.RPAREN) && !p.isAtEnd() {
		param := p.parseParam()
		if param == nil {
			p.synchronize()
			break
		}
		params = append(params, param)
		if p.check(token.COMMA) {
			p.advance() // trailing comma before ) is fine
			continue
		}
		break
	}

	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseParam() *ast.ParamDecl {
	start := p.peek()
	param := &ast.ParamDecl{Modifiers: p.parseModifiers()}

	if p.check(token.IDENT) {
		param.Type = strings.ToLower(p.advance().Lexeme)
	}

	nameTok, ok := p.expect(token.VARIABLE)
	if !ok {
		return nil
	}
	param.Name = nameTok.Lexeme

	if p.check(token.ASSIGN) {
		p.advance()
		param.Default = p.parseExpr(bpNone)
	}

	param.Span = p.makeSpan(start.Span.Start)
	return param
}

// parseModifiers collects visibility/readonly modifiers, lowercased.
func (p *Parser) parseModifiers() []string {
	var modifiers []string
	for p.match(token.KW_PUBLIC, token.KW_PRIVATE, token.KW_PROTECTED, token.KW_READONLY) {
		modifiers = append(modifiers, strings.ToLower(p.advance().Lexeme))
	}
	return modifiers
}

// ============================================================
// Expression parsing (Pratt / precedence climbing)
// ============================================================

// parseExpr parses an expression with the given minimum binding power.
func (p *Parser) parseExpr(minBP int) ast.Expr {
	left := p.nud()
	if left == nil {
		return nil
	}

	for {
		kind := p.peekKind()
		bp := infixBP(kind)
		if bp <= minBP {
			break
		}
		left = p.led(left)
	}

	return left
}

// nud handles prefix (null denotation) parsing.
func (p *Parser) nud() ast.Expr {
	tok := p.peek()

	switch tok.Kind {
	case token.INT:
		p.advance()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			// Integer literals too large for int64 become floats.
			f, _ := strconv.ParseFloat(tok.Lexeme, 64)
			return &ast.FloatLit{
				ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
				Value:    f,
			}
		}
		return &ast.IntLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.FLOAT:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.FloatLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    val,
		}

	case token.STRING:
		p.advance()
		return &ast.StringLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    tok.Lexeme,
		}

	case token.KW_TRUE:
		p.advance()
		return &ast.BoolLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    true,
		}

	case token.KW_FALSE:
		p.advance()
		return &ast.BoolLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Value:    false,
		}

	case token.KW_NULL:
		p.advance()
		return &ast.NullLit{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
		}

	case token.VARIABLE:
		p.advance()
		return &ast.VarExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}

	case token.DOLLAR:
		return p.parseVarVar()

	case token.IDENT:
		p.advance()
		return &ast.IdentExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}

	case token.LPAREN:
		// Grouped expression: ( expr )
		p.advance()
		expr := p.parseExpr(bpNone)
		p.expect(token.RPAREN)
		return expr

	case token.BANG:
		p.advance()
		operand := p.parseExpr(bpNot)
		if operand == nil {
			return p.missingOperand(tok)
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       token.BANG,
			Operand:  operand,
		}

	case token.MINUS, token.PLUS, token.TILDE:
		p.advance()
		operand := p.parseExpr(bpPrefix)
		if operand == nil {
			return p.missingOperand(tok)
		}
		return &ast.UnaryExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Op:       tok.Kind,
			Operand:  operand,
		}

	case token.AT:
		p.advance()
		// Suppression covers the whole following expression, so that
		// @$v = expr quiets the right-hand side too.
		operand := p.parseExpr(bpNone)
		if operand == nil {
			return p.missingOperand(tok)
		}
		return &ast.SuppressExpr{
			ExprBase: makeExprBase(tok.Span.Start, operand.GetSpan().End),
			Operand:  operand,
		}

	case token.KW_NEW:
		return p.parseNewExpr()

	case token.KW_ISSET:
		return p.parseIssetExpr()

	case token.KW_EMPTY:
		return p.parseEmptyExpr()

	case token.KW_UNSET:
		return p.parseUnsetExpr()

	case token.KW_PRINT:
		p.advance()
		// print binds tighter than and/or/xor but looser than assignment.
		value := p.parseExpr(bpAndKw)
		if value == nil {
			return p.missingOperand(tok)
		}
		return &ast.PrintExpr{
			ExprBase: makeExprBase(tok.Span.Start, value.GetSpan().End),
			Value:    value,
		}

	case token.KW_DIE, token.KW_EXIT:
		return p.parseExitExpr()

	case token.KW_INCLUDE, token.KW_INCLUDE_ONCE, token.KW_REQUIRE, token.KW_REQUIRE_ONCE:
		return p.parseIncludeExpr()

	case token.LBRACKET:
		return p.parseArrayLit()

	default:
		return nil
	}
}

func (p *Parser) missingOperand(tok token.Token) ast.Expr {
	p.error("E2002", tok.Span, fmt.Sprintf("missing operand after '%s'", tok.Lexeme))
	return &ast.NullLit{ExprBase: makeExprBase(tok.Span.Start, tok.Span.End)}
}

// parseVarVar parses $$name (and $$$name, recursively).
func (p *Parser) parseVarVar() ast.Expr {
	start := p.advance() // consume '$'

	var inner ast.Expr
	switch p.peekKind() {
	case token.VARIABLE:
		tok := p.advance()
		inner = &ast.VarExpr{
			ExprBase: makeExprBase(tok.Span.Start, tok.Span.End),
			Name:     tok.Lexeme,
		}
	case token.DOLLAR:
		inner = p.parseVarVar()
	default:
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("expected variable after '$', got '%s'", tok.Kind))
		return &ast.NullLit{ExprBase: makeExprBase(start.Span.Start, start.Span.End)}
	}

	return &ast.VarVarExpr{
		ExprBase: makeExprBase(start.Span.Start, inner.GetSpan().End),
		Name:     inner,
	}
}

// led handles infix/postfix (left denotation) parsing.
func (p *Parser) led(left ast.Expr) ast.Expr {
	tok := p.peek()

	if tok.Kind.IsAssignOp() {
		return p.parseAssign(left)
	}

	switch tok.Kind {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.DOT, token.SHL, token.SHR, token.AMP, token.PIPE, token.CARET,
		token.EQ, token.NEQ, token.IDENTICAL, token.NOT_IDENTICAL,
		token.LT, token.LTE, token.GT, token.GTE, token.SPACESHIP,
		token.AND, token.OR, token.KW_AND, token.KW_OR, token.KW_XOR:
		// Binary infix operator (left-associative)
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp)
		if right == nil {
			return p.missingOperand(tok)
		}
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.POW, token.COALESCE:
		// Right-associative binary operators
		bp := infixBP(tok.Kind)
		p.advance()
		right := p.parseExpr(bp - 1)
		if right == nil {
			return p.missingOperand(tok)
		}
		return &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       tok.Kind,
			Left:     left,
			Right:    right,
		}

	case token.KW_INSTANCEOF:
		p.advance()
		var class ast.Expr
		if p.check(token.IDENT) {
			nameTok := p.advance()
			class = &ast.IdentExpr{
				ExprBase: makeExprBase(nameTok.Span.Start, nameTok.Span.End),
				Name:     nameTok.Lexeme,
			}
		} else {
			class = p.parseExpr(bpInstanceof)
			if class == nil {
				return p.missingOperand(tok)
			}
		}
		return &ast.InstanceofExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, class.GetSpan().End),
			Left:     left,
			Class:    class,
		}

	case token.ARROW:
		// Property access: $obj->prop. Member names may be reserved words.
		p.advance()
		propTok := p.peek()
		if propTok.Kind == token.IDENT || propTok.Kind.IsKeyword() {
			p.advance()
		} else {
			p.error("E2001", propTok.Span,
				fmt.Sprintf("expected property name, got '%s'", propTok.Kind))
		}
		return &ast.PropFetchExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, propTok.Span.End),
			Object:   left,
			Prop:     propTok.Lexeme,
		}

	case token.LBRACKET:
		// Index expression: $a[k], or the append target $a[]
		p.advance()
		var index ast.Expr
		if !p.check(token.RBRACKET) {
			index = p.parseExpr(bpNone)
		}
		end, _ := p.expect(token.RBRACKET)
		return &ast.IndexExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, end.Span.End),
			Object:   left,
			Index:    index,
		}

	case token.LPAREN:
		// Call expression: name(args). Only named functions are callable.
		ident, ok := left.(*ast.IdentExpr)
		if !ok {
			p.error("E2003", tok.Span, "this expression is not callable")
			p.advance()
			args := p.parseCallArgs()
			return &ast.CallExpr{
				ExprBase: makeExprBase(left.GetSpan().Start, p.prevEnd()),
				Name:     "",
				Args:     args,
			}
		}
		p.advance()
		args := p.parseCallArgs()
		return &ast.CallExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, p.prevEnd()),
			Name:     ident.Name,
			Args:     args,
		}

	default:
		return left
	}
}

// parseAssign parses plain, compound, and reference assignment.
func (p *Parser) parseAssign(target ast.Expr) ast.Expr {
	opTok := p.advance()

	if !isAssignTarget(target) {
		p.error("E2003", target.GetSpan(), "invalid assignment target")
	}

	// Reference assignment: $a = &$b
	if opTok.Kind == token.ASSIGN && p.check(token.AMP) {
		p.advance() // consume '&'
		source := p.parseExpr(bpAssign - 1)
		if source == nil {
			return p.missingOperand(opTok)
		}
		return &ast.RefAssignExpr{
			ExprBase: makeExprBase(target.GetSpan().Start, source.GetSpan().End),
			Target:   target,
			Source:   source,
		}
	}

	value := p.parseExpr(bpAssign - 1)
	if value == nil {
		return p.missingOperand(opTok)
	}
	return &ast.AssignExpr{
		ExprBase: makeExprBase(target.GetSpan().Start, value.GetSpan().End),
		Target:   target,
		Op:       opTok.Kind,
		Value:    value,
	}
}

// isAssignTarget reports whether an expression can appear on the left of =.
func isAssignTarget(expr ast.Expr) bool {
	switch expr.(type) {
	case *ast.VarExpr, *ast.VarVarExpr, *ast.IndexExpr, *ast.PropFetchExpr:
		return true
	default:
		return false
	}
}

// parseNewExpr parses: new ClassName(args) — arguments may be named.
func (p *Parser) parseNewExpr() ast.Expr {
	start := p.advance() // consume 'new'

	nameTok, ok := p.expect(token.IDENT)
	if !ok {
		p.synchronize()
		return &ast.NewExpr{ExprBase: makeExprBase(start.Span.Start, p.prevEnd())}
	}

	expr := &ast.NewExpr{ClassName: nameTok.Lexeme}

	if p.check(token.LPAREN) {
		p.advance()
		for !p.check(token.RPAREN) && !p.isAtEnd() {
			arg := p.parseArg()
			if arg == nil {
				p.synchronize()
				break
			}
			expr.Args = append(expr.Args, arg)
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
	}

	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

// parseArg parses one constructor argument: expr or name: expr.
func (p *Parser) parseArg() *ast.Arg {
	start := p.peek()
	arg := &ast.Arg{}

	if p.check(token.IDENT) && p.peekAhead(1) == token.COLON {
		arg.Name = p.advance().Lexeme
		p.advance() // consume ':'
	}

	arg.Value = p.parseExpr(bpNone)
	if arg.Value == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
		return nil
	}
	arg.Span = span.Span{Start: start.Span.Start, End: p.prevEnd()}
	return arg
}

// parseCallArgs parses a plain positional argument list after '('.
func (p *Parser) parseCallArgs() []ast.Expr {
	var args []ast.Expr
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		arg := p.parseExpr(bpNone)
		if arg == nil {
			tok := p.peek()
			p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
			p.synchronize()
			break
		}
		args = append(args, arg)
		if p.check(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return args
}

// parseIssetExpr parses: isset($a, $b, ...)
func (p *Parser) parseIssetExpr() ast.Expr {
	start := p.advance() // consume 'isset'
	expr := &ast.IssetExpr{}

	if _, ok := p.expect(token.LPAREN); !ok {
		expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
		return expr
	}
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		v := p.parseExpr(bpNone)
		if v == nil {
			break
		}
		expr.Vars = append(expr.Vars, v)
		if p.check(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	if len(expr.Vars) == 0 {
		p.error("E2002", start.Span, "isset needs at least one argument")
	}
	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

// parseEmptyExpr parses: empty($a)
func (p *Parser) parseEmptyExpr() ast.Expr {
	start := p.advance() // consume 'empty'
	expr := &ast.EmptyExpr{}

	if _, ok := p.expect(token.LPAREN); !ok {
		expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
		return expr
	}
	expr.Var = p.parseExpr(bpNone)
	if expr.Var == nil {
		tok := p.peek()
		p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
	}
	p.expect(token.RPAREN)
	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

// parseUnsetExpr parses: unset($a, $b, ...)
func (p *Parser) parseUnsetExpr() ast.Expr {
	start := p.advance() // consume 'unset'
	expr := &ast.UnsetExpr{}

	if _, ok := p.expect(token.LPAREN); !ok {
		expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
		return expr
	}
	for !p.check(token.RPAREN) && !p.isAtEnd() {
		v := p.parseExpr(bpNone)
		if v == nil {
			break
		}
		expr.Vars = append(expr.Vars, v)
		if p.check(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	if len(expr.Vars) == 0 {
		p.error("E2002", start.Span, "unset needs at least one argument")
	}
	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

// parseExitExpr parses: die / exit, with an optional parenthesized argument.
func (p *Parser) parseExitExpr() ast.Expr {
	start := p.advance() // consume 'die' or 'exit'
	expr := &ast.ExitExpr{}

	if p.check(token.LPAREN) {
		p.advance()
		if !p.check(token.RPAREN) {
			expr.Value = p.parseExpr(bpNone)
		}
		p.expect(token.RPAREN)
	}

	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr
}

// parseIncludeExpr parses: include/include_once/require/require_once expr
func (p *Parser) parseIncludeExpr() ast.Expr {
	start := p.advance()

	var mode ast.IncludeMode
	switch start.Kind {
	case token.KW_INCLUDE:
		mode = ast.IncInclude
	case token.KW_INCLUDE_ONCE:
		mode = ast.IncIncludeOnce
	case token.KW_REQUIRE:
		mode = ast.IncRequire
	case token.KW_REQUIRE_ONCE:
		mode = ast.IncRequireOnce
	}

	path := p.parseExpr(bpAndKw)
	if path == nil {
		return p.missingOperand(start)
	}
	return &ast.IncludeExpr{
		ExprBase: makeExprBase(start.Span.Start, path.GetSpan().End),
		Mode:     mode,
		Path:     path,
	}
}

// parseArrayLit parses: [ v, k => v, ... ] with an optional trailing comma.
func (p *Parser) parseArrayLit() ast.Expr {
	start := p.advance() // consume '['
	lit := &ast.ArrayLit{}

	for !p.check(token.RBRACKET) && !p.isAtEnd() {
		entry := ast.ArrayEntry{}
		first := p.parseExpr(bpNone)
		if first == nil {
			tok := p.peek()
			p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
			p.synchronize()
			break
		}
		if p.check(token.DOUBLE_ARROW) {
			p.advance()
			entry.Key = first
			entry.Value = p.parseExpr(bpNone)
			if entry.Value == nil {
				tok := p.peek()
				p.error("E2002", tok.Span, fmt.Sprintf("unexpected token: '%s'", tok.Lexeme))
				p.synchronize()
				break
			}
		} else {
			entry.Value = first
		}
		lit.Entries = append(lit.Entries, entry)

		if p.check(token.COMMA) {
			p.advance()
			continue
		}
		break
	}

	end, _ := p.expect(token.RBRACKET)
	lit.ExprBase = makeExprBase(start.Span.Start, end.Span.End)
	return lit
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
