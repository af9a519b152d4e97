package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"phplite/internal/config"
	"phplite/internal/diag"
	"phplite/internal/lexer"
	"phplite/internal/parser"
	"phplite/internal/runtime"
)

// ---- ANSI colors ----

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// replFile is the file label runtime diagnostics carry for typed input.
const replFile = "php shell code"

// ---- repl command ----

func cmdRepl(cfg *config.Config) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "php> " + colorReset,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline init failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Welcome banner
	fmt.Fprintf(rl.Stdout(), "%s%sphplite REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	interp := runtime.New(rl.Stdout(), cfg)
	var accumulated strings.Builder
	braceDepth := 0

	for {
		// Update prompt based on multi-line state
		if braceDepth > 0 {
			rl.SetPrompt(colorGray + "...  " + colorReset)
		} else {
			rl.SetPrompt(colorGreen + "php> " + colorReset)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					// Cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				// Show hint instead of exiting
				fmt.Fprintf(rl.Stdout(), "\n%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			// EOF (Ctrl+D) or other error → exit
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			break
		}

		// Exit command
		if braceDepth == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		// Count braces for multi-line input
		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
		accumulated.WriteString(line)
		accumulated.WriteString("\n")

		// If braces are unbalanced, keep reading
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()

		// Skip empty input
		if strings.TrimSpace(source) == "" {
			continue
		}

		// Typed input rarely carries its own open tag; add one.
		if !strings.HasPrefix(strings.TrimSpace(source), "<?") {
			source = "<?php " + source
		}

		// Tokenize
		tokens, lexDiags := lexer.New(source, replFile).Tokenize()
		if hasErrorDiags(lexDiags) {
			printDiagsColored(rl.Stderr(), lexDiags)
			continue
		}

		// Parse
		prog, parseDiags := parser.New(tokens, replFile).ParseProgram()
		if hasErrorDiags(parseDiags) {
			printDiagsColored(rl.Stderr(), parseDiags)
			continue
		}

		// Execute statement by statement, echoing expression values.
		for _, stmt := range prog.Body {
			v, err := interp.ExecOne(stmt)
			if err != nil {
				var exit *runtime.ExitError
				if errors.As(err, &exit) {
					printReplWarnings(rl.Stderr(), interp.TakeDiags())
					rl.Close()
					os.Exit(exit.Status)
				}
				var fatal *runtime.RuntimeError
				if errors.As(err, &fatal) {
					fmt.Fprintf(rl.Stderr(), "%sFatal error: %s%s\n", colorRed, fatal.Message, colorReset)
				} else {
					fmt.Fprintf(rl.Stderr(), "%s%v%s\n", colorRed, err, colorReset)
				}
				break
			}
			if _, isNull := v.(runtime.NullVal); !isNull {
				fmt.Fprintf(rl.Stdout(), "%s=> %s%s\n", colorGray, runtime.Dump(v), colorReset)
			}
		}
		printReplWarnings(rl.Stderr(), interp.TakeDiags())
	}
}

// printDiagsColored prints lex/parse diagnostics in red for REPL display.
func printDiagsColored(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s%s%s\n", colorRed, d.String(), colorReset)
	}
}

// printReplWarnings prints recorded runtime warnings in yellow.
func printReplWarnings(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		label := "Warning"
		if d.Severity == diag.Error {
			label = "Parse error"
		}
		fmt.Fprintf(w, "%s%s: %s on line %d%s\n",
			colorYellow, label, d.Message, d.Span.Line(), colorReset)
	}
}
