package runtime

import (
	"os"
	"path/filepath"

	"phplite/internal/ast"
	"phplite/internal/diag"
	"phplite/internal/lexer"
	"phplite/internal/parser"
)

// ============================================================
// Include resolution
// ============================================================

// Resolver locates the source of an included script. Tests substitute
// in-memory fakes.
type Resolver interface {
	// Resolve returns the canonical path and contents of an include
	// target. Relative targets resolve against fromDir first.
	Resolve(path, fromDir string) (string, []byte, error)
}

// FileResolver reads includes from the filesystem: absolute paths as
// given, relative ones against the including file's directory and then
// each SearchPath entry in order.
type FileResolver struct {
	SearchPath []string
}

func (r *FileResolver) Resolve(path, fromDir string) (string, []byte, error) {
	var candidates []string
	if filepath.IsAbs(path) {
		candidates = []string{path}
	} else {
		candidates = append(candidates, filepath.Join(fromDir, path))
		for _, dir := range r.SearchPath {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}

	var firstErr error
	for _, cand := range candidates {
		src, err := os.ReadFile(cand)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		abs, err := filepath.Abs(cand)
		if err != nil {
			abs = filepath.Clean(cand)
		}
		return abs, src, nil
	}
	return "", nil, firstErr
}

// ============================================================
// include / require
// ============================================================

// evalInclude runs another script in the current scope. include and
// include_once recover from failure with a warning and false; require
// and require_once make failure fatal. The _once forms skip paths that
// already ran and evaluate to true instead.
func (i *Interp) evalInclude(e *ast.IncludeExpr) (Value, error) {
	pathVal, err := i.evalExpr(e.Path)
	if err != nil {
		return nil, err
	}
	path := pathVal.String()

	abs, src, rerr := i.resolver.Resolve(path, i.dir)
	if rerr != nil {
		if e.Mode.IsRequire() {
			return nil, i.fatal(e.GetSpan(), "Failed opening required '%s'", path)
		}
		i.warn("W3005", e.GetSpan(), "%s(%s): Failed to open stream: No such file or directory", e.Mode, path)
		return BoolVal(false), nil
	}

	if e.Mode.IsOnce() && i.onceSet[abs] {
		return BoolVal(true), nil
	}
	if i.depth+1 > i.maxDepth {
		return nil, i.fatal(e.GetSpan(), "Maximum include nesting level of %d reached", i.maxDepth)
	}

	prog, ok := i.parseInclude(abs, src)
	if !ok {
		if e.Mode.IsRequire() {
			return nil, i.fatal(e.GetSpan(), "Errors parsing %s", path)
		}
		i.warn("W3005", e.GetSpan(), "%s(%s): Errors parsing included file", e.Mode, path)
		return BoolVal(false), nil
	}

	// Recorded before execution so a script that exits early, or
	// includes itself, still counts as done.
	if e.Mode.IsOnce() {
		i.onceSet[abs] = true
	}

	prevFile, prevDir := i.file, i.dir
	i.file, i.dir = abs, filepath.Dir(abs)
	i.depth++
	defer func() {
		i.file, i.dir = prevFile, prevDir
		i.depth--
	}()

	for _, stmt := range prog.Body {
		res, err := i.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		if res.Signal == SigReturn {
			break
		}
	}
	return IntVal(1), nil
}

// parseInclude lexes and parses an included source, folding its
// diagnostics into the interpreter's. ok is false when any are errors.
func (i *Interp) parseInclude(filename string, src []byte) (*ast.Program, bool) {
	tokens, lexDiags := lexer.New(string(src), filename).Tokenize()
	i.diags = append(i.diags, lexDiags...)
	if hasErrors(lexDiags) {
		return nil, false
	}
	prog, parseDiags := parser.New(tokens, filename).ParseProgram()
	i.diags = append(i.diags, parseDiags...)
	if hasErrors(parseDiags) {
		return nil, false
	}
	return prog, true
}

func hasErrors(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}
