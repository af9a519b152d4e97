// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"
	"strings"

	"phplite/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Source structure: text outside tags and the tags themselves
	INLINE_HTML   // raw text emitted verbatim
	OPEN_TAG      // <?php or <?
	OPEN_TAG_ECHO // <?=
	CLOSE_TAG     // ?>

	// Literals
	VARIABLE // $name (lexeme holds the name without the sigil)
	IDENT    // identifiers: class names, named arguments, constants
	INT      // integer literals: 123
	FLOAT    // float literals: 3.14, 1e3
	STRING   // string literals: 'a', "a"

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	POW     // **
	DOT     // .
	BANG    // !
	TILDE   // ~
	AMP     // &
	PIPE    // |
	CARET   // ^
	SHL     // <<
	SHR     // >>
	AT      // @
	DOLLAR  // $ (only before another variable: $$name)

	EQ            // == (and <>, folded into NEQ)
	NEQ           // !=
	IDENTICAL     // ===
	NOT_IDENTICAL // !==
	LT            // <
	LTE           // <=
	GT            // >
	GTE           // >=
	SPACESHIP     // <=>
	COALESCE      // ??

	AND // &&
	OR  // ||

	// Compound assignment
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	STAR_ASSIGN     // *=
	SLASH_ASSIGN    // /=
	PERCENT_ASSIGN  // %=
	POW_ASSIGN      // **=
	DOT_ASSIGN      // .=
	AMP_ASSIGN      // &=
	PIPE_ASSIGN     // |=
	CARET_ASSIGN    // ^=
	SHL_ASSIGN      // <<=
	SHR_ASSIGN      // >>=
	COALESCE_ASSIGN // ??=

	// Misc operators
	ARROW        // ->
	DOUBLE_ARROW // =>

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :

	// Keywords
	KW_ECHO
	KW_PRINT
	KW_DIE
	KW_EXIT
	KW_INCLUDE
	KW_INCLUDE_ONCE
	KW_REQUIRE
	KW_REQUIRE_ONCE
	KW_ISSET
	KW_EMPTY
	KW_UNSET
	KW_NEW
	KW_CLASS
	KW_ABSTRACT
	KW_EXTENDS
	KW_INSTANCEOF
	KW_FUNCTION
	KW_RETURN
	KW_PUBLIC
	KW_PRIVATE
	KW_PROTECTED
	KW_READONLY
	KW_TRUE
	KW_FALSE
	KW_NULL
	KW_AND
	KW_OR
	KW_XOR
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	INLINE_HTML:   "INLINE_HTML",
	OPEN_TAG:      "<?php",
	OPEN_TAG_ECHO: "<?=",
	CLOSE_TAG:     "?>",

	VARIABLE: "VARIABLE",
	IDENT:    "IDENT",
	INT:      "INT",
	FLOAT:    "FLOAT",
	STRING:   "STRING",

	ASSIGN:  "=",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	POW:     "**",
	DOT:     ".",
	BANG:    "!",
	TILDE:   "~",
	AMP:     "&",
	PIPE:    "|",
	CARET:   "^",
	SHL:     "<<",
	SHR:     ">>",
	AT:      "@",
	DOLLAR:  "$",

	EQ:            "==",
	NEQ:           "!=",
	IDENTICAL:     "===",
	NOT_IDENTICAL: "!==",
	LT:            "<",
	LTE:           "<=",
	GT:            ">",
	GTE:           ">=",
	SPACESHIP:     "<=>",
	COALESCE:      "??",

	AND: "&&",
	OR:  "||",

	PLUS_ASSIGN:     "+=",
	MINUS_ASSIGN:    "-=",
	STAR_ASSIGN:     "*=",
	SLASH_ASSIGN:    "/=",
	PERCENT_ASSIGN:  "%=",
	POW_ASSIGN:      "**=",
	DOT_ASSIGN:      ".=",
	AMP_ASSIGN:      "&=",
	PIPE_ASSIGN:     "|=",
	CARET_ASSIGN:    "^=",
	SHL_ASSIGN:      "<<=",
	SHR_ASSIGN:      ">>=",
	COALESCE_ASSIGN: "??=",

	ARROW:        "->",
	DOUBLE_ARROW: "=>",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	SEMICOLON: ";",
	COLON:     ":",

	KW_ECHO:         "echo",
	KW_PRINT:        "print",
	KW_DIE:          "die",
	KW_EXIT:         "exit",
	KW_INCLUDE:      "include",
	KW_INCLUDE_ONCE: "include_once",
	KW_REQUIRE:      "require",
	KW_REQUIRE_ONCE: "require_once",
	KW_ISSET:        "isset",
	KW_EMPTY:        "empty",
	KW_UNSET:        "unset",
	KW_NEW:          "new",
	KW_CLASS:        "class",
	KW_ABSTRACT:     "abstract",
	KW_EXTENDS:      "extends",
	KW_INSTANCEOF:   "instanceof",
	KW_FUNCTION:     "function",
	KW_RETURN:       "return",
	KW_PUBLIC:       "public",
	KW_PRIVATE:      "private",
	KW_PROTECTED:    "protected",
	KW_READONLY:     "readonly",
	KW_TRUE:         "true",
	KW_FALSE:        "false",
	KW_NULL:         "null",
	KW_AND:          "and",
	KW_OR:           "or",
	KW_XOR:          "xor",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_ECHO && k <= KW_XOR
}

// IsLiteral returns true if the kind is a literal (variable/ident/int/float/string).
func (k Kind) IsLiteral() bool {
	return k >= VARIABLE && k <= STRING
}

// IsAssignOp returns true for = and every compound assignment operator.
func (k Kind) IsAssignOp() bool {
	return k == ASSIGN || (k >= PLUS_ASSIGN && k <= COALESCE_ASSIGN)
}

var keywords = map[string]Kind{
	"echo":         KW_ECHO,
	"print":        KW_PRINT,
	"die":          KW_DIE,
	"exit":         KW_EXIT,
	"include":      KW_INCLUDE,
	"include_once": KW_INCLUDE_ONCE,
	"require":      KW_REQUIRE,
	"require_once": KW_REQUIRE_ONCE,
	"isset":        KW_ISSET,
	"empty":        KW_EMPTY,
	"unset":        KW_UNSET,
	"new":          KW_NEW,
	"class":        KW_CLASS,
	"abstract":     KW_ABSTRACT,
	"extends":      KW_EXTENDS,
	"instanceof":   KW_INSTANCEOF,
	"function":     KW_FUNCTION,
	"return":       KW_RETURN,
	"public":       KW_PUBLIC,
	"private":      KW_PRIVATE,
	"protected":    KW_PROTECTED,
	"readonly":     KW_READONLY,
	"true":         KW_TRUE,
	"false":        KW_FALSE,
	"null":         KW_NULL,
	"and":          KW_AND,
	"or":           KW_OR,
	"xor":          KW_XOR,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a
// keyword. Keywords are case-insensitive, as in the interpreted language.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[strings.ToLower(ident)]; ok {
		return kind
	}
	return IDENT
}

// CompoundOp maps a compound assignment kind to its underlying binary operator.
// For COALESCE_ASSIGN it returns COALESCE; plain ASSIGN maps to ILLEGAL.
func CompoundOp(k Kind) Kind {
	switch k {
	case PLUS_ASSIGN:
		return PLUS
	case MINUS_ASSIGN:
		return MINUS
	case STAR_ASSIGN:
		return STAR
	case SLASH_ASSIGN:
		return SLASH
	case PERCENT_ASSIGN:
		return PERCENT
	case POW_ASSIGN:
		return POW
	case DOT_ASSIGN:
		return DOT
	case AMP_ASSIGN:
		return AMP
	case PIPE_ASSIGN:
		return PIPE
	case CARET_ASSIGN:
		return CARET
	case SHL_ASSIGN:
		return SHL
	case SHR_ASSIGN:
		return SHR
	case COALESCE_ASSIGN:
		return COALESCE
	default:
		return ILLEGAL
	}
}

// Token represents a lexical token with its kind, text, and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
