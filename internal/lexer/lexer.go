// Package lexer implements the lexical analysis (tokenization) for phplite.
//
// A source file starts in text mode: everything up to an opening tag is
// emitted verbatim as INLINE_HTML. An opening tag (<?php, <? or <?=) switches
// the lexer to code mode, and ?> switches it back. One newline immediately
// after ?> is swallowed, as in the interpreted language.
package lexer

import (
	"fmt"
	"strings"

	"phplite/internal/diag"
	"phplite/internal/span"
	"phplite/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based)

	inCode bool // false while scanning raw text outside tags

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.nextToken()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.pos >= len(l.source) {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// peekAt returns the character n positions ahead, or 0 if at end.
func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// curPos returns the current position as a span.Position.
func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// makeSpan returns a span from start to current position.
func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) makeToken(kind token.Kind, lexeme string, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

// skipWhitespace skips spaces, tabs and newlines. Only meaningful in code
// mode; in text mode whitespace is part of the output.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
		} else {
			break
		}
	}
}

// skipLineComment skips from // or # to the end of the line. A closing tag
// terminates a line comment too, so "// x ?>" leaves ?> for the next token.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.source) {
		if l.source[l.pos] == '\n' {
			return
		}
		if l.peek() == '?' && l.peekNext() == '>' {
			return
		}
		l.advance()
	}
}

// skipBlockComment skips a /* ... */ comment.
func (l *Lexer) skipBlockComment(start span.Position) {
	l.advance() // '/'
	l.advance() // '*'
	for l.pos < len(l.source) {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.addError("E1002", l.makeSpan(start), "unterminated block comment")
}

// addError records a diagnostic error.
func (l *Lexer) addError(code string, s span.Span, msg string) {
	d := diag.Errorf(code, s, "%s", msg)
	d.File = l.filename
	l.diags = append(l.diags, d)
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	if !l.inCode {
		return l.lexText()
	}

	l.skipWhitespace()

	if l.pos >= len(l.source) {
		return l.makeToken(token.EOF, "", l.curPos())
	}

	start := l.curPos()
	ch := l.peek()

	// Closing tag: back to text mode, swallowing one following newline.
	if ch == '?' && l.peekNext() == '>' {
		l.advance()
		l.advance()
		tok := l.makeToken(token.CLOSE_TAG, "?>", start)
		l.inCode = false
		if l.peek() == '\r' && l.peekNext() == '\n' {
			l.advance()
		}
		if l.peek() == '\n' {
			l.advance()
		}
		return tok
	}

	// Line comment: // or #
	if (ch == '/' && l.peekNext() == '/') || ch == '#' {
		l.skipLineComment()
		return l.nextToken()
	}

	// Block comment: /* ... */
	if ch == '/' && l.peekNext() == '*' {
		l.skipBlockComment(start)
		return l.nextToken()
	}

	// Variable: $name, or a bare $ for variable-variables ($$name)
	if ch == '$' {
		return l.readVariable(start)
	}

	// String literals
	if ch == '\'' {
		return l.readSingleQuoted(start)
	}
	if ch == '"' {
		return l.readDoubleQuoted(start)
	}

	// Number literal
	if isDigit(ch) {
		return l.readNumber(start)
	}
	if ch == '.' && isDigit(l.peekNext()) {
		return l.readNumber(start)
	}

	// Identifier or keyword
	if isIdentStart(ch) {
		return l.readIdentifier(start)
	}

	// Operators and delimiters
	return l.readOperator(start)
}

// lexText scans raw text outside tags until an opening tag or EOF.
func (l *Lexer) lexText() token.Token {
	start := l.curPos()

	if l.pos >= len(l.source) {
		return l.makeToken(token.EOF, "", start)
	}

	textStart := l.pos
	for l.pos < len(l.source) {
		if l.peek() == '<' && l.peekNext() == '?' {
			break
		}
		l.advance()
	}

	if l.pos > textStart {
		return l.makeToken(token.INLINE_HTML, l.source[textStart:l.pos], start)
	}

	// At an opening tag.
	if l.peekAt(2) == '=' {
		l.advance()
		l.advance()
		l.advance()
		l.inCode = true
		return l.makeToken(token.OPEN_TAG_ECHO, "<?=", start)
	}
	if l.hasLongOpenTag() {
		lexeme := l.source[l.pos : l.pos+5]
		for i := 0; i < 5; i++ {
			l.advance()
		}
		l.inCode = true
		return l.makeToken(token.OPEN_TAG, lexeme, start)
	}
	l.advance()
	l.advance()
	l.inCode = true
	return l.makeToken(token.OPEN_TAG, "<?", start)
}

// hasLongOpenTag reports whether the input at the current position starts
// with <?php (case-insensitive) followed by a non-identifier character.
func (l *Lexer) hasLongOpenTag() bool {
	if l.pos+5 > len(l.source) {
		return false
	}
	if !strings.EqualFold(l.source[l.pos:l.pos+5], "<?php") {
		return false
	}
	return l.pos+5 == len(l.source) || !isIdentPart(l.source[l.pos+5])
}

// readVariable reads $name into a VARIABLE token holding the bare name.
// A $ not followed by a name (as in $$name) becomes a DOLLAR token.
func (l *Lexer) readVariable(start span.Position) token.Token {
	l.advance() // $
	if !isIdentStart(l.peek()) {
		return l.makeToken(token.DOLLAR, "$", start)
	}
	nameStart := l.pos
	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}
	return l.makeToken(token.VARIABLE, l.source[nameStart:l.pos], start)
}

// readSingleQuoted reads a single-quoted string. Only \' and \\ are escape
// sequences; every other backslash is literal.
func (l *Lexer) readSingleQuoted(start span.Position) token.Token {
	l.advance() // opening '
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == '\'' {
			l.advance()
			return l.makeToken(token.STRING, string(value), start)
		}
		if ch == '\\' {
			next := l.peekNext()
			if next == '\'' || next == '\\' {
				l.advance()
				value = append(value, l.advance())
				continue
			}
			value = append(value, l.advance())
			continue
		}
		value = append(value, l.advance())
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return l.makeToken(token.STRING, string(value), start)
}

// readDoubleQuoted reads a double-quoted string. Supported escapes are
// \n \t \r \\ \" \$ and \0; an unknown escape keeps its backslash.
// There is no variable interpolation.
func (l *Lexer) readDoubleQuoted(start span.Position) token.Token {
	l.advance() // opening "
	var value []byte

	for l.pos < len(l.source) {
		ch := l.peek()
		if ch == '"' {
			l.advance()
			return l.makeToken(token.STRING, string(value), start)
		}
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.advance()
			esc := l.advance()
			switch esc {
			case 'n':
				value = append(value, '\n')
			case 't':
				value = append(value, '\t')
			case 'r':
				value = append(value, '\r')
			case '\\':
				value = append(value, '\\')
			case '"':
				value = append(value, '"')
			case '$':
				value = append(value, '$')
			case '0':
				value = append(value, 0)
			default:
				value = append(value, '\\', esc)
			}
			continue
		}
		value = append(value, l.advance())
	}

	l.addError("E1001", l.makeSpan(start), "unterminated string literal")
	return l.makeToken(token.STRING, string(value), start)
}

// readNumber reads an integer or float literal. Floats may carry a leading
// dot, a fraction, and an exponent (1.5, .5, 1e3, 2.5E-2).
func (l *Lexer) readNumber(start span.Position) token.Token {
	isFloat := false
	numStart := l.pos

	for l.pos < len(l.source) && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.advance() // '.'
		for l.pos < len(l.source) && isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			isFloat = true
			l.advance() // e
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for l.pos < len(l.source) && isDigit(l.peek()) {
				l.advance()
			}
		}
	}

	lexeme := l.source[numStart:l.pos]
	kind := token.INT
	if isFloat {
		kind = token.FLOAT
	}
	return l.makeToken(kind, lexeme, start)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos

	for l.pos < len(l.source) && isIdentPart(l.peek()) {
		l.advance()
	}

	lexeme := l.source[identStart:l.pos]
	kind := token.LookupIdent(lexeme)
	return l.makeToken(kind, lexeme, start)
}

// readOperator reads an operator or delimiter token.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	switch ch {
	case '(':
		return l.makeToken(token.LPAREN, "(", start)
	case ')':
		return l.makeToken(token.RPAREN, ")", start)
	case '{':
		return l.makeToken(token.LBRACE, "{", start)
	case '}':
		return l.makeToken(token.RBRACE, "}", start)
	case '[':
		return l.makeToken(token.LBRACKET, "[", start)
	case ']':
		return l.makeToken(token.RBRACKET, "]", start)
	case ',':
		return l.makeToken(token.COMMA, ",", start)
	case ';':
		return l.makeToken(token.SEMICOLON, ";", start)
	case ':':
		return l.makeToken(token.COLON, ":", start)
	case '@':
		return l.makeToken(token.AT, "@", start)
	case '~':
		return l.makeToken(token.TILDE, "~", start)
	case '+':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.PLUS_ASSIGN, "+=", start)
		}
		return l.makeToken(token.PLUS, "+", start)
	case '-':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.MINUS_ASSIGN, "-=", start)
		}
		if l.peek() == '>' {
			l.advance()
			return l.makeToken(token.ARROW, "->", start)
		}
		return l.makeToken(token.MINUS, "-", start)
	case '*':
		if l.peek() == '*' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.makeToken(token.POW_ASSIGN, "**=", start)
			}
			return l.makeToken(token.POW, "**", start)
		}
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.STAR_ASSIGN, "*=", start)
		}
		return l.makeToken(token.STAR, "*", start)
	case '/':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.SLASH_ASSIGN, "/=", start)
		}
		return l.makeToken(token.SLASH, "/", start)
	case '%':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.PERCENT_ASSIGN, "%=", start)
		}
		return l.makeToken(token.PERCENT, "%", start)
	case '.':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.DOT_ASSIGN, ".=", start)
		}
		return l.makeToken(token.DOT, ".", start)
	case '!':
		if l.peek() == '=' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.makeToken(token.NOT_IDENTICAL, "!==", start)
			}
			return l.makeToken(token.NEQ, "!=", start)
		}
		return l.makeToken(token.BANG, "!", start)
	case '=':
		if l.peek() == '=' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.makeToken(token.IDENTICAL, "===", start)
			}
			return l.makeToken(token.EQ, "==", start)
		}
		if l.peek() == '>' {
			l.advance()
			return l.makeToken(token.DOUBLE_ARROW, "=>", start)
		}
		return l.makeToken(token.ASSIGN, "=", start)
	case '<':
		if l.peek() == '=' {
			l.advance()
			if l.peek() == '>' {
				l.advance()
				return l.makeToken(token.SPACESHIP, "<=>", start)
			}
			return l.makeToken(token.LTE, "<=", start)
		}
		if l.peek() == '<' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.makeToken(token.SHL_ASSIGN, "<<=", start)
			}
			return l.makeToken(token.SHL, "<<", start)
		}
		if l.peek() == '>' {
			l.advance()
			return l.makeToken(token.NEQ, "<>", start)
		}
		return l.makeToken(token.LT, "<", start)
	case '>':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.GTE, ">=", start)
		}
		if l.peek() == '>' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.makeToken(token.SHR_ASSIGN, ">>=", start)
			}
			return l.makeToken(token.SHR, ">>", start)
		}
		return l.makeToken(token.GT, ">", start)
	case '&':
		if l.peek() == '&' {
			l.advance()
			return l.makeToken(token.AND, "&&", start)
		}
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.AMP_ASSIGN, "&=", start)
		}
		return l.makeToken(token.AMP, "&", start)
	case '|':
		if l.peek() == '|' {
			l.advance()
			return l.makeToken(token.OR, "||", start)
		}
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.PIPE_ASSIGN, "|=", start)
		}
		return l.makeToken(token.PIPE, "|", start)
	case '^':
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(token.CARET_ASSIGN, "^=", start)
		}
		return l.makeToken(token.CARET, "^", start)
	case '?':
		if l.peek() == '?' {
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return l.makeToken(token.COALESCE_ASSIGN, "??=", start)
			}
			return l.makeToken(token.COALESCE, "??", start)
		}
		l.addError("E1003", l.makeSpan(start), "unexpected character: '?', did you mean '??'?")
		return l.makeToken(token.ILLEGAL, "?", start)
	default:
		l.addError("E1003", l.makeSpan(start), fmt.Sprintf("unexpected character: '%c'", ch))
		return l.makeToken(token.ILLEGAL, string(ch), start)
	}
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIdentStart follows the interpreted language's identifier rule: ASCII
// letters, underscore, and any byte >= 0x80.
func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
