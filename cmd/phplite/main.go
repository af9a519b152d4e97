// Command phplite is the CLI entry point for the phplite toolchain.
//
// Usage:
//
//	phplite tokens <file>            Print tokens
//	phplite tokens <file> --json     Print tokens as JSON
//	phplite parse  <file>            Print AST as JSON
//	phplite run    <file>            Run a script
//	phplite repl                     Start interactive REPL
//
// run and repl accept --config <file> to load interpreter settings.
package main

import (
	"fmt"
	"os"
	"strings"

	"phplite/internal/ast"
	"phplite/internal/config"
	"phplite/internal/lexer"
	"phplite/internal/parser"
	"phplite/internal/runtime"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]
	args, err := parseArgs(os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(args.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "tokens":
		cmdTokens(readFile(requireFile(args)), args.file, args.json)
	case "parse":
		cmdParse(readFile(requireFile(args)), args.file)
	case "run":
		cmdRun(readFile(requireFile(args)), args.file, cfg)
	case "repl":
		cmdRepl(cfg)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  phplite tokens <file> [--json]   Tokenize and print tokens")
	fmt.Fprintln(os.Stderr, "  phplite parse  <file>            Parse and print AST (JSON)")
	fmt.Fprintln(os.Stderr, "  phplite run    <file>            Run a script")
	fmt.Fprintln(os.Stderr, "  phplite repl                     Start interactive REPL")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  --config <file>   Load settings from a YAML file")
	fmt.Fprintln(os.Stderr, "  --json            Machine-readable output (tokens)")
}

// cliArgs holds the flags shared by every subcommand.
type cliArgs struct {
	file   string
	json   bool
	config string
}

func parseArgs(rest []string) (cliArgs, error) {
	var a cliArgs
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--json":
			a.json = true
		case arg == "--config":
			i++
			if i >= len(rest) {
				return a, fmt.Errorf("--config requires a path")
			}
			a.config = rest[i]
		case strings.HasPrefix(arg, "--config="):
			a.config = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--"):
			return a, fmt.Errorf("unknown flag '%s'", arg)
		case a.file == "":
			a.file = arg
		default:
			return a, fmt.Errorf("unexpected argument '%s'", arg)
		}
	}
	return a, nil
}

func requireFile(a cliArgs) string {
	if a.file == "" {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		os.Exit(1)
	}
	return a.file
}

func readFile(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

// ---- tokens command ----

func cmdTokens(source, filename string, jsonMode bool) {
	tokens, diags := lexer.New(source, filename).Tokenize()

	if jsonMode {
		printTokensJSON(tokens, diags)
	} else {
		printTokensText(tokens, diags)
	}

	if hasErrorDiags(diags) {
		os.Exit(1)
	}
}

// ---- parse command ----

func cmdParse(source, filename string) {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	prog, parseDiags := parser.New(tokens, filename).ParseProgram()

	allDiags := append(lexDiags, parseDiags...)

	printJSON(map[string]interface{}{
		"ast":         ast.NodeToMap(prog),
		"diagnostics": diagsToSlice(allDiags),
	})

	if hasErrorDiags(allDiags) {
		os.Exit(1)
	}
}

// ---- run command ----

func cmdRun(source, filename string, cfg *config.Config) {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()
	printDiagsText(lexDiags)
	if hasErrorDiags(lexDiags) {
		os.Exit(1)
	}

	prog, parseDiags := parser.New(tokens, filename).ParseProgram()
	printDiagsText(parseDiags)
	if hasErrorDiags(parseDiags) {
		os.Exit(1)
	}

	interp := runtime.New(os.Stdout, cfg)
	status, err := interp.Run(prog)
	printRuntimeDiags(interp.Diags())
	if err != nil {
		printFatal(err)
	}
	os.Exit(status)
}
