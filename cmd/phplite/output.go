package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"phplite/internal/diag"
	"phplite/internal/runtime"
	"phplite/internal/token"
)

// ---- output helpers ----

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

func printDiagsText(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func hasErrorDiags(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if d.File != "" {
			result[i]["file"] = d.File
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- runtime diagnostics, rendered the way php's CLI does ----

func displayFile(file string) string {
	if file == "" {
		return "php shell code"
	}
	return file
}

func printRuntimeDiags(diags []diag.Diagnostic) {
	for _, d := range diags {
		label := "PHP Warning"
		if d.Severity == diag.Error {
			// Parse errors folded in from an included file.
			label = "PHP Parse error"
		}
		fmt.Fprintf(os.Stderr, "%s: %s in %s on line %d\n",
			label, d.Message, displayFile(d.File), d.Span.Line())
	}
}

func printFatal(err error) {
	var rerr *runtime.RuntimeError
	if errors.As(err, &rerr) {
		fmt.Fprintf(os.Stderr, "PHP Fatal error: %s in %s on line %d\n",
			rerr.Message, displayFile(rerr.File), rerr.Span.Line())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// ---- token output helpers ----

func displayLexeme(lexeme string) string {
	lexeme = strings.ReplaceAll(lexeme, "\n", "\\n")
	return strings.ReplaceAll(lexeme, "\t", "\\t")
}

func printTokensText(tokens []token.Token, diags []diag.Diagnostic) {
	for _, tok := range tokens {
		fmt.Printf("%-14s %-24s %d:%d\n",
			tok.Kind, displayLexeme(tok.Lexeme), tok.Span.Start.Line, tok.Span.Start.Column)
	}
	printDiagsText(diags)
}

func printTokensJSON(tokens []token.Token, diags []diag.Diagnostic) {
	type tokenJSON struct {
		Kind   string `json:"kind"`
		Lexeme string `json:"lexeme"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Offset int    `json:"offset"`
	}

	var toks []tokenJSON
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}

	printJSON(map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	})
}
