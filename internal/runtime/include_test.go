package runtime

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phplite/internal/config"
	"phplite/internal/diag"
	"phplite/internal/lexer"
	"phplite/internal/parser"
)

// writeScripts lays the given files out under a fresh temp directory.
func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// runScript executes dir/entry with its real path, so relative includes
// resolve against the script's own directory.
func runScript(t *testing.T, dir, entry string, cfg *config.Config) (string, int, []diag.Diagnostic, error) {
	t.Helper()
	path := filepath.Join(dir, entry)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tokens, _ := lexer.New(string(data), path).Tokenize()
	prog, _ := parser.New(tokens, path).ParseProgram()

	var buf bytes.Buffer
	interp := New(&buf, cfg)
	status, runErr := interp.Run(prog)
	return buf.String(), status, interp.Diags(), runErr
}

func TestIncludeRunsFile(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"inc.php":  `<?php echo "X";`,
		"main.php": `<?php include "inc.php"; include "inc.php"; echo "done";`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "XXdone" {
		t.Errorf("output = %q, want %q", out, "XXdone")
	}
}

func TestIncludeSharesScope(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"inc.php":  `<?php $sum = $base + 6;`,
		"main.php": `<?php $base = 1; include "inc.php"; echo $sum;`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "7" {
		t.Errorf("output = %q, want %q", out, "7")
	}
}

func TestIncludeMissingRecovers(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"main.php": `<?php $r = include "nope.php"; echo "r=", $r, ";after";`,
	})
	out, _, diags, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "r=0;after" {
		t.Errorf("output = %q, want %q", out, "r=0;after")
	}
	found := false
	for _, d := range diags {
		if d.Code == "W3005" && strings.Contains(d.Message, "include(nope.php): Failed to open stream") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected W3005 include warning, got: %v", diags)
	}
}

func TestRequireMissingIsFatal(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"main.php": `<?php echo "pre;"; require "nope.php"; echo "post;";`,
	})
	out, status, _, err := runScript(t, dir, "main.php", nil)
	if err == nil {
		t.Fatal("expected fatal error, got nil")
	}
	if !strings.Contains(err.Error(), "Failed opening required 'nope.php'") {
		t.Errorf("unexpected error: %v", err)
	}
	if status != 255 {
		t.Errorf("status = %d, want 255", status)
	}
	if out != "pre;" {
		t.Errorf("output = %q, want %q", out, "pre;")
	}
}

func TestIncludeOnceSkipsSecondRun(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"inc.php": `<?php echo "X";`,
		"main.php": `<?php
include_once "inc.php";
$r = include_once "inc.php";
echo $r;`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	// The skipped include evaluates to true.
	if out != "X1" {
		t.Errorf("output = %q, want %q", out, "X1")
	}
}

func TestRequireOnce(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"inc.php":  `<?php echo "X";`,
		"main.php": `<?php require_once "inc.php"; require_once "inc.php"; echo "done";`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "Xdone" {
		t.Errorf("output = %q, want %q", out, "Xdone")
	}
}

func TestIncludeDepthLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxIncludeDepth = 3
	dir := writeScripts(t, map[string]string{
		"loop.php": `<?php echo "L"; include "loop.php";`,
		"main.php": `<?php include "loop.php";`,
	})
	out, status, _, err := runScript(t, dir, "main.php", cfg)
	if err == nil {
		t.Fatal("expected fatal error, got nil")
	}
	if !strings.Contains(err.Error(), "Maximum include nesting level of 3 reached") {
		t.Errorf("unexpected error: %v", err)
	}
	if status != 255 {
		t.Errorf("status = %d, want 255", status)
	}
	if out != "LLL" {
		t.Errorf("output = %q, want %q", out, "LLL")
	}
}

func TestIncludeReturnStopsIncludedFile(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"inc.php":  `<?php echo "a"; return; echo "b";`,
		"main.php": `<?php include "inc.php"; echo "c";`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "ac" {
		t.Errorf("output = %q, want %q", out, "ac")
	}
}

func TestIncludeResolvesAgainstIncludingFile(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"sub/outer.php": `<?php include "inner.php";`,
		"sub/inner.php": `<?php echo "deep";`,
		"main.php":      `<?php include "sub/outer.php";`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "deep" {
		t.Errorf("output = %q, want %q", out, "deep")
	}
}

func TestIncludeSearchPath(t *testing.T) {
	libs := writeScripts(t, map[string]string{
		"lib.php": `<?php echo "from-lib";`,
	})
	cfg := config.Default()
	cfg.IncludePath = []string{libs}
	dir := writeScripts(t, map[string]string{
		"main.php": `<?php include "lib.php";`,
	})
	out, _, _, err := runScript(t, dir, "main.php", cfg)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "from-lib" {
		t.Errorf("output = %q, want %q", out, "from-lib")
	}
}

func TestIncludeAbsolutePath(t *testing.T) {
	libs := writeScripts(t, map[string]string{
		"abs.php": `<?php echo "absolute";`,
	})
	target := filepath.Join(libs, "abs.php")
	dir := writeScripts(t, map[string]string{
		"main.php": fmt.Sprintf(`<?php include "%s";`, target),
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "absolute" {
		t.Errorf("output = %q, want %q", out, "absolute")
	}
}

func TestRequireParseErrorIsFatal(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"bad.php":  `<?php class ;`,
		"main.php": `<?php require "bad.php";`,
	})
	_, status, _, err := runScript(t, dir, "main.php", nil)
	if err == nil {
		t.Fatal("expected fatal error, got nil")
	}
	if !strings.Contains(err.Error(), "Errors parsing bad.php") {
		t.Errorf("unexpected error: %v", err)
	}
	if status != 255 {
		t.Errorf("status = %d, want 255", status)
	}
}

func TestIncludeParseErrorRecovers(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"bad.php":  `<?php class ;`,
		"main.php": `<?php $r = include "bad.php"; echo "r=", $r, ";on";`,
	})
	out, _, diags, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "r=0;on" {
		t.Errorf("output = %q, want %q", out, "r=0;on")
	}
	found := false
	for _, d := range diags {
		if d.Code == "W3005" && strings.Contains(d.Message, "Errors parsing included file") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected W3005 parse warning, got: %v", diags)
	}
}

func TestIncludedClassesPersist(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"defs.php": `<?php class Lib { public $v = 9; }`,
		"main.php": `<?php include "defs.php"; $l = new Lib(); echo $l->v;`,
	})
	out, _, _, err := runScript(t, dir, "main.php", nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if out != "9" {
		t.Errorf("output = %q, want %q", out, "9")
	}
}

// fakeResolver serves includes from memory, exercising the resolver seam.
type fakeResolver map[string]string

func (r fakeResolver) Resolve(path, fromDir string) (string, []byte, error) {
	src, ok := r[path]
	if !ok {
		return "", nil, os.ErrNotExist
	}
	return path, []byte(src), nil
}

func TestResolverSubstitution(t *testing.T) {
	tokens, _ := lexer.New(`<?php include "mem.php"; echo "!";`, "test.php").Tokenize()
	prog, _ := parser.New(tokens, "test.php").ParseProgram()

	var buf bytes.Buffer
	interp := New(&buf, nil)
	interp.SetResolver(fakeResolver{"mem.php": `<?php echo "virtual";`})
	if _, err := interp.Run(prog); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if buf.String() != "virtual!" {
		t.Errorf("output = %q, want %q", buf.String(), "virtual!")
	}
}
