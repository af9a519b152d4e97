package runtime

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"phplite/internal/ast"
	"phplite/internal/config"
	"phplite/internal/diag"
	"phplite/internal/span"
	"phplite/internal/token"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone   ExecSignal = iota
	SigReturn            // return: ends the current script or constructor body
)

// ExecResult carries a control flow signal out of statement execution.
type ExecResult struct {
	Signal ExecSignal
}

var resultNone = ExecResult{Signal: SigNone}

// ============================================================
// Runtime errors and termination
// ============================================================

// RuntimeError is a fatal runtime condition: it unwinds every active
// frame and terminates the run with a non-zero status.
type RuntimeError struct {
	Message string
	Span    span.Span
	File    string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("fatal error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

func (i *Interp) fatal(s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Span: s, File: i.file}
}

// ExitError carries a die/exit request up through every frame.
type ExitError struct {
	Status int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit with status %d", e.Status)
}

// ============================================================
// Interpreter
// ============================================================

// Interp walks a parsed program and executes it. Output streams to out
// as it is produced; warnings collect as diagnostics for the driver.
type Interp struct {
	out      io.Writer
	global   *Scope
	scope    *Scope
	classes  map[string]*ClassVal // keyed by lowercased name
	builtins map[string]builtinFn
	diags    []diag.Diagnostic
	suppress int // depth of active @ suppressions

	resolver  Resolver
	onceSet   map[string]bool
	depth     int // current include nesting
	maxDepth  int
	file      string // script the executing code came from
	dir       string // its directory, for relative include resolution
	nextObjID int
}

// New creates an interpreter writing program output to out. A nil cfg
// falls back to the defaults.
func New(out io.Writer, cfg *config.Config) *Interp {
	if cfg == nil {
		cfg = config.Default()
	}
	global := NewScope()
	i := &Interp{
		out:      out,
		global:   global,
		scope:    global,
		classes:  make(map[string]*ClassVal),
		onceSet:  make(map[string]bool),
		resolver: &FileResolver{SearchPath: cfg.IncludePath},
		maxDepth: cfg.MaxIncludeDepth,
	}
	i.builtins = builtinTable()
	return i
}

// SetResolver swaps the include path resolver (tests use fakes).
func (i *Interp) SetResolver(r Resolver) { i.resolver = r }

// Scope returns the global scope, so a driver can inspect session state.
func (i *Interp) Scope() *Scope { return i.global }

// Diags returns the warnings recorded so far.
func (i *Interp) Diags() []diag.Diagnostic { return i.diags }

// TakeDiags returns the recorded warnings and clears them.
func (i *Interp) TakeDiags() []diag.Diagnostic {
	d := i.diags
	i.diags = nil
	return d
}

// Run executes a whole program. It returns the process exit status:
// 0 on normal completion, the carried status on die/exit, 255 together
// with the error on a fatal condition.
func (i *Interp) Run(prog *ast.Program) (int, error) {
	prevFile, prevDir := i.file, i.dir
	i.file = prog.Filename
	i.dir = filepath.Dir(prog.Filename)
	defer func() { i.file, i.dir = prevFile, prevDir }()

	for _, stmt := range prog.Body {
		res, err := i.execStmt(stmt)
		if err != nil {
			if exit, ok := err.(*ExitError); ok {
				return exit.Status, nil
			}
			return 255, err
		}
		if res.Signal == SigReturn {
			break
		}
	}
	return 0, nil
}

// ExecOne executes a single statement and returns the value of an
// expression statement, or Null for any other kind. The REPL uses this
// to echo results.
func (i *Interp) ExecOne(stmt ast.Stmt) (Value, error) {
	if es, ok := stmt.(*ast.ExprStmt); ok {
		return i.evalExpr(es.Expr)
	}
	if _, err := i.execStmt(stmt); err != nil {
		return nil, err
	}
	return NullVal{}, nil
}

// warn records a recoverable diagnostic unless an @ suppression is live.
func (i *Interp) warn(code string, s span.Span, format string, args ...interface{}) {
	if i.suppress > 0 {
		return
	}
	d := diag.Warningf(code, s, format, args...)
	d.File = i.file
	i.diags = append(i.diags, d)
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interp) execStmt(stmt ast.Stmt) (ExecResult, error) {
	switch s := stmt.(type) {
	case *ast.InlineHTMLStmt:
		if _, err := io.WriteString(i.out, s.Text); err != nil {
			return resultNone, i.fatal(s.GetSpan(), "cannot write output: %s", err)
		}
		return resultNone, nil

	case *ast.ExprStmt:
		_, err := i.evalExpr(s.Expr)
		return resultNone, err

	case *ast.EchoStmt:
		return i.execEcho(s)

	case *ast.ReturnStmt:
		if s.Value != nil {
			if _, err := i.evalExpr(s.Value); err != nil {
				return resultNone, err
			}
		}
		return ExecResult{Signal: SigReturn}, nil

	case *ast.ClassDeclStmt:
		return i.execClassDecl(s)

	default:
		return resultNone, i.fatal(stmt.GetSpan(), "unhandled statement type: %T", stmt)
	}
}

func (i *Interp) execEcho(s *ast.EchoStmt) (ExecResult, error) {
	for _, e := range s.Values {
		v, err := i.evalExpr(e)
		if err != nil {
			return resultNone, err
		}
		i.write(i.outString(v, e.GetSpan()))
	}
	return resultNone, nil
}

func (i *Interp) write(s string) {
	io.WriteString(i.out, s)
}

// outString converts a value for output. Arrays and objects render as
// placeholder tags and additionally record a conversion warning.
func (i *Interp) outString(v Value, s span.Span) string {
	switch v.(type) {
	case *ArrayVal:
		i.warn("W3004", s, "array to string conversion failed.")
		return "Array"
	case *ObjectVal:
		i.warn("W3004", s, "object to string conversion failed.")
		return "Object"
	}
	return v.String()
}

// typeShort is the error-message spelling of a type name ("int", not
// "integer").
func typeShort(v Value) string {
	switch v.(type) {
	case NullVal:
		return "null"
	case BoolVal:
		return "bool"
	case IntVal:
		return "int"
	case FloatVal:
		return "float"
	case StringVal:
		return "string"
	case *ArrayVal:
		return "array"
	case *ObjectVal:
		return "object"
	default:
		return v.TypeName()
	}
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interp) evalExpr(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return IntVal(e.Value), nil
	case *ast.FloatLit:
		return FloatVal(e.Value), nil
	case *ast.StringLit:
		return StringVal(e.Value), nil
	case *ast.BoolLit:
		return BoolVal(e.Value), nil
	case *ast.NullLit:
		return NullVal{}, nil
	case *ast.VarExpr:
		return i.readVar(e.Name, e.GetSpan()), nil
	case *ast.VarVarExpr:
		name, err := i.varVarName(e)
		if err != nil {
			return nil, err
		}
		return i.readVar(name, e.GetSpan()), nil
	case *ast.IdentExpr:
		return nil, i.fatal(e.GetSpan(), "Undefined constant \"%s\"", e.Name)
	case *ast.AssignExpr:
		return i.evalAssign(e)
	case *ast.RefAssignExpr:
		return i.evalRefAssign(e)
	case *ast.BinaryExpr:
		return i.evalBinary(e)
	case *ast.UnaryExpr:
		return i.evalUnary(e)
	case *ast.InstanceofExpr:
		return i.evalInstanceof(e)
	case *ast.SuppressExpr:
		return i.evalSuppress(e)
	case *ast.IssetExpr:
		return i.evalIsset(e)
	case *ast.EmptyExpr:
		return i.evalEmpty(e)
	case *ast.UnsetExpr:
		return i.evalUnset(e)
	case *ast.PrintExpr:
		return i.evalPrint(e)
	case *ast.ExitExpr:
		return i.evalExit(e)
	case *ast.IncludeExpr:
		return i.evalInclude(e)
	case *ast.ArrayLit:
		return i.evalArrayLit(e)
	case *ast.IndexExpr:
		return i.evalIndex(e)
	case *ast.PropFetchExpr:
		return i.evalPropFetch(e)
	case *ast.NewExpr:
		return i.evalNew(e)
	case *ast.CallExpr:
		return i.evalCall(e)
	default:
		return nil, i.fatal(expr.GetSpan(), "unhandled expression type: %T", expr)
	}
}

// readVar reads a variable, warning and substituting Null when unbound.
func (i *Interp) readVar(name string, s span.Span) Value {
	v, ok := i.scope.Read(name)
	if !ok {
		i.warn("W3001", s, "Undefined variable $%s", name)
		return NullVal{}
	}
	return v
}

// varVarName resolves the name a $$variable refers to.
func (i *Interp) varVarName(e *ast.VarVarExpr) (string, error) {
	v, err := i.evalExpr(e.Name)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ============================================================
// Assignment
// ============================================================

// evalAssign handles plain and compound assignment. The result of an
// assignment expression is always Null, never the assigned value.
func (i *Interp) evalAssign(e *ast.AssignExpr) (Value, error) {
	if e.Op == token.COALESCE_ASSIGN {
		return i.evalCoalesceAssign(e)
	}

	var value Value
	if e.Op == token.ASSIGN {
		v, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		value = v
	} else {
		current, err := i.evalExpr(e.Target)
		if err != nil {
			return nil, err
		}
		rhs, err := i.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		v, err := i.applyBinary(token.CompoundOp(e.Op), current, rhs, e.GetSpan())
		if err != nil {
			return nil, err
		}
		value = v
	}

	if err := i.assignTo(e.Target, value); err != nil {
		return nil, err
	}
	return NullVal{}, nil
}

// evalCoalesceAssign assigns only when the target is unset or Null; the
// right side is not evaluated otherwise.
func (i *Interp) evalCoalesceAssign(e *ast.AssignExpr) (Value, error) {
	current, found, err := i.readQuiet(e.Target)
	if err != nil {
		return nil, err
	}
	if found {
		if _, isNull := current.(NullVal); !isNull {
			return NullVal{}, nil
		}
	}
	value, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	if err := i.assignTo(e.Target, value); err != nil {
		return nil, err
	}
	return NullVal{}, nil
}

// assignTo writes a value through an lvalue: variable, variable-variable,
// array index (or append) or object property. Arrays copy on the way in.
func (i *Interp) assignTo(target ast.Expr, v Value) error {
	switch t := target.(type) {
	case *ast.VarExpr:
		i.scope.Bind(t.Name, CopyValue(v))
		return nil

	case *ast.VarVarExpr:
		name, err := i.varVarName(t)
		if err != nil {
			return err
		}
		i.scope.Bind(name, CopyValue(v))
		return nil

	case *ast.IndexExpr:
		arr, err := i.lvalueArray(t.Object)
		if err != nil || arr == nil {
			return err
		}
		if t.Index == nil {
			arr.Append(CopyValue(v))
			return nil
		}
		keyVal, err := i.evalExpr(t.Index)
		if err != nil {
			return err
		}
		key, ok := KeyOf(keyVal)
		if !ok {
			i.warn("W3008", t.GetSpan(), "Illegal offset type")
			return nil
		}
		arr.Set(key, CopyValue(v))
		return nil

	case *ast.PropFetchExpr:
		obj, err := i.evalExpr(t.Object)
		if err != nil {
			return err
		}
		o, ok := obj.(*ObjectVal)
		if !ok {
			i.warn("W3002", t.GetSpan(), "Attempt to assign property \"%s\" on %s", t.Prop, typeShort(obj))
			return nil
		}
		if cell := o.Prop(t.Prop); cell != nil && cell.Ref {
			cell.Set(CopyValue(v))
			return nil
		}
		o.BindProp(t.Prop, NewCell(CopyValue(v)))
		return nil

	default:
		return i.fatal(target.GetSpan(), "Cannot use temporary expression in write context")
	}
}

// lvalueArray resolves the array an index assignment mutates, creating
// arrays along the way for unbound or Null containers. A nil array with
// nil error means the target was not arrayable and a warning is recorded.
func (i *Interp) lvalueArray(container ast.Expr) (*ArrayVal, error) {
	switch c := container.(type) {
	case *ast.VarExpr:
		return i.varSlotArray(c.Name, c.GetSpan())

	case *ast.VarVarExpr:
		name, err := i.varVarName(c)
		if err != nil {
			return nil, err
		}
		return i.varSlotArray(name, c.GetSpan())

	case *ast.IndexExpr:
		parent, err := i.lvalueArray(c.Object)
		if err != nil || parent == nil {
			return nil, err
		}
		if c.Index == nil {
			fresh := NewArray()
			parent.Append(fresh)
			return fresh, nil
		}
		keyVal, err := i.evalExpr(c.Index)
		if err != nil {
			return nil, err
		}
		key, ok := KeyOf(keyVal)
		if !ok {
			i.warn("W3008", c.GetSpan(), "Illegal offset type")
			return nil, nil
		}
		existing, present := parent.Get(key)
		if present {
			if arr, isArr := existing.(*ArrayVal); isArr {
				return arr, nil
			}
			if _, isNull := existing.(NullVal); !isNull {
				i.warn("W3009", c.GetSpan(), "Cannot use a scalar value as an array")
				return nil, nil
			}
		}
		fresh := NewArray()
		parent.Set(key, fresh)
		return fresh, nil

	case *ast.PropFetchExpr:
		obj, err := i.evalExpr(c.Object)
		if err != nil {
			return nil, err
		}
		o, ok := obj.(*ObjectVal)
		if !ok {
			i.warn("W3002", c.GetSpan(), "Attempt to assign property \"%s\" on %s", c.Prop, typeShort(obj))
			return nil, nil
		}
		cell := o.Prop(c.Prop)
		if cell == nil {
			cell = NewCell(NullVal{})
			o.BindProp(c.Prop, cell)
		}
		if arr, isArr := cell.Get().(*ArrayVal); isArr {
			return arr, nil
		}
		if _, isNull := cell.Get().(NullVal); !isNull {
			i.warn("W3009", c.GetSpan(), "Cannot use a scalar value as an array")
			return nil, nil
		}
		fresh := NewArray()
		cell.Set(fresh)
		return fresh, nil

	default:
		return nil, i.fatal(container.GetSpan(), "Cannot use temporary expression in write context")
	}
}

// varSlotArray resolves (or vivifies) the array held by a variable.
func (i *Interp) varSlotArray(name string, s span.Span) (*ArrayVal, error) {
	cell := i.scope.Cell(name)
	if cell == nil {
		fresh := NewArray()
		i.scope.Bind(name, fresh)
		return fresh, nil
	}
	switch v := cell.Get().(type) {
	case *ArrayVal:
		return v, nil
	case NullVal:
		fresh := NewArray()
		cell.Set(fresh)
		return fresh, nil
	default:
		i.warn("W3009", s, "Cannot use a scalar value as an array")
		return nil, nil
	}
}

// evalRefAssign implements $a = &$b. Variables and object properties
// may be aliased; the target joins the source cell's group and flags it
// as a reference. Array elements hold plain values, not cells, so they
// cannot be aliased.
func (i *Interp) evalRefAssign(e *ast.RefAssignExpr) (Value, error) {
	var cell *Cell
	switch src := e.Source.(type) {
	case *ast.VarExpr:
		cell = i.scope.CellOrDefine(src.Name)
	case *ast.VarVarExpr:
		name, err := i.varVarName(src)
		if err != nil {
			return nil, err
		}
		cell = i.scope.CellOrDefine(name)
	case *ast.PropFetchExpr:
		obj, err := i.evalExpr(src.Object)
		if err != nil {
			return nil, err
		}
		o, ok := obj.(*ObjectVal)
		if !ok {
			return nil, i.fatal(src.GetSpan(), "Attempt to modify property \"%s\" on %s", src.Prop, typeShort(obj))
		}
		cell = o.Prop(src.Prop)
		if cell == nil {
			cell = NewCell(NullVal{})
			o.BindProp(src.Prop, cell)
		}
	case *ast.IndexExpr:
		return nil, i.fatal(src.GetSpan(), "Cannot assign by reference to an array element")
	default:
		return nil, i.fatal(e.Source.GetSpan(), "Cannot assign by reference to a non-variable")
	}

	switch t := e.Target.(type) {
	case *ast.VarExpr:
		i.scope.BindRef(t.Name, cell)
	case *ast.VarVarExpr:
		name, err := i.varVarName(t)
		if err != nil {
			return nil, err
		}
		i.scope.BindRef(name, cell)
	case *ast.PropFetchExpr:
		obj, err := i.evalExpr(t.Object)
		if err != nil {
			return nil, err
		}
		o, ok := obj.(*ObjectVal)
		if !ok {
			return nil, i.fatal(t.GetSpan(), "Attempt to assign property \"%s\" on %s", t.Prop, typeShort(obj))
		}
		cell.Ref = true
		o.BindProp(t.Prop, cell)
	case *ast.IndexExpr:
		return nil, i.fatal(t.GetSpan(), "Cannot assign by reference to an array element")
	default:
		return nil, i.fatal(e.Target.GetSpan(), "Cannot assign by reference to a non-variable")
	}
	return NullVal{}, nil
}

// ============================================================
// Quiet reads (isset, empty, ??)
// ============================================================

// readQuiet evaluates the binding-style forms without recording
// undefined-variable warnings. found reports whether the binding (or
// key, or property) exists at all. Non-binding expressions evaluate
// normally and always count as found.
func (i *Interp) readQuiet(e ast.Expr) (Value, bool, error) {
	switch t := e.(type) {
	case *ast.VarExpr:
		v, ok := i.scope.Read(t.Name)
		if !ok {
			return NullVal{}, false, nil
		}
		return v, true, nil

	case *ast.VarVarExpr:
		inner, found, err := i.readQuiet(t.Name)
		if err != nil || !found {
			return NullVal{}, false, err
		}
		v, ok := i.scope.Read(inner.String())
		if !ok {
			return NullVal{}, false, nil
		}
		return v, true, nil

	case *ast.IndexExpr:
		if t.Index == nil {
			return nil, false, i.fatal(t.GetSpan(), "Cannot use [] for reading")
		}
		container, found, err := i.readQuiet(t.Object)
		if err != nil || !found {
			return NullVal{}, false, err
		}
		keyVal, err := i.evalExpr(t.Index)
		if err != nil {
			return nil, false, err
		}
		switch cv := container.(type) {
		case *ArrayVal:
			key, ok := KeyOf(keyVal)
			if !ok {
				return NullVal{}, false, nil
			}
			v, ok := cv.Get(key)
			if !ok {
				return NullVal{}, false, nil
			}
			return v, true, nil
		case StringVal:
			idx := ToInt(keyVal)
			s := string(cv)
			if idx < 0 {
				idx += int64(len(s))
			}
			if idx < 0 || idx >= int64(len(s)) {
				return NullVal{}, false, nil
			}
			return StringVal(s[idx : idx+1]), true, nil
		default:
			return NullVal{}, false, nil
		}

	case *ast.PropFetchExpr:
		container, found, err := i.readQuiet(t.Object)
		if err != nil || !found {
			return NullVal{}, false, err
		}
		o, ok := container.(*ObjectVal)
		if !ok {
			return NullVal{}, false, nil
		}
		cell := o.Prop(t.Prop)
		if cell == nil {
			return NullVal{}, false, nil
		}
		return cell.Get(), true, nil

	default:
		v, err := i.evalExpr(e)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
}

func (i *Interp) evalIsset(e *ast.IssetExpr) (Value, error) {
	for _, arg := range e.Vars {
		v, found, err := i.readQuiet(arg)
		if err != nil {
			return nil, err
		}
		if !found {
			return BoolVal(false), nil
		}
		if _, isNull := v.(NullVal); isNull {
			return BoolVal(false), nil
		}
	}
	return BoolVal(true), nil
}

// evalEmpty: unset, Null, false, zero, the empty string and the empty
// array are empty. The string "0" is not.
func (i *Interp) evalEmpty(e *ast.EmptyExpr) (Value, error) {
	v, found, err := i.readQuiet(e.Var)
	if err != nil {
		return nil, err
	}
	if !found {
		return BoolVal(true), nil
	}
	if s, ok := v.(StringVal); ok && s == "0" {
		return BoolVal(false), nil
	}
	return BoolVal(!IsTruthy(v)), nil
}

func (i *Interp) evalUnset(e *ast.UnsetExpr) (Value, error) {
	for _, arg := range e.Vars {
		if err := i.unsetOne(arg); err != nil {
			return nil, err
		}
	}
	return NullVal{}, nil
}

func (i *Interp) unsetOne(arg ast.Expr) error {
	switch t := arg.(type) {
	case *ast.VarExpr:
		i.scope.Unset(t.Name)
		return nil
	case *ast.VarVarExpr:
		name, err := i.varVarName(t)
		if err != nil {
			return err
		}
		i.scope.Unset(name)
		return nil
	case *ast.IndexExpr:
		if t.Index == nil {
			return i.fatal(t.GetSpan(), "Cannot use [] for unsetting")
		}
		container, found, err := i.readQuiet(t.Object)
		if err != nil || !found {
			return err
		}
		arr, ok := container.(*ArrayVal)
		if !ok {
			return nil
		}
		keyVal, err := i.evalExpr(t.Index)
		if err != nil {
			return err
		}
		if key, ok := KeyOf(keyVal); ok {
			arr.Unset(key)
		}
		return nil
	case *ast.PropFetchExpr:
		container, found, err := i.readQuiet(t.Object)
		if err != nil || !found {
			return err
		}
		if o, ok := container.(*ObjectVal); ok {
			o.UnsetProp(t.Prop)
		}
		return nil
	default:
		return i.fatal(arg.GetSpan(), "Cannot unset a temporary expression")
	}
}

// ============================================================
// Operators
// ============================================================

func (i *Interp) evalBinary(e *ast.BinaryExpr) (Value, error) {
	switch e.Op {
	case token.AND, token.KW_AND:
		left, err := i.evalExpr(e.Left)
		if err != nil {
			return nil, err
		}
		if !IsTruthy(left) {
			return BoolVal(false), nil
		}
		right, err := i.evalExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return BoolVal(IsTruthy(right)), nil

	case token.OR, token.KW_OR:
		left, err := i.evalExpr(e.Left)
		if err != nil {
			return nil, err
		}
		if IsTruthy(left) {
			return BoolVal(true), nil
		}
		right, err := i.evalExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return BoolVal(IsTruthy(right)), nil

	case token.KW_XOR:
		left, err := i.evalExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.evalExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return BoolVal(IsTruthy(left) != IsTruthy(right)), nil

	case token.COALESCE:
		left, found, err := i.readQuiet(e.Left)
		if err != nil {
			return nil, err
		}
		if found {
			if _, isNull := left.(NullVal); !isNull {
				return left, nil
			}
		}
		return i.evalExpr(e.Right)
	}

	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}
	return i.applyBinary(e.Op, left, right, e.GetSpan())
}

// applyBinary applies an eager binary operator to two evaluated values.
// Compound assignment reuses it for the underlying operator.
func (i *Interp) applyBinary(op token.Kind, left, right Value, s span.Span) (Value, error) {
	switch op {
	case token.DOT:
		return StringVal(i.outString(left, s) + i.outString(right, s)), nil

	case token.EQ:
		return BoolVal(LooseEqual(left, right)), nil
	case token.NEQ:
		return BoolVal(!LooseEqual(left, right)), nil
	case token.IDENTICAL:
		return BoolVal(StrictEqual(left, right)), nil
	case token.NOT_IDENTICAL:
		return BoolVal(!StrictEqual(left, right)), nil
	case token.LT:
		return BoolVal(Compare(left, right) < 0), nil
	case token.LTE:
		return BoolVal(Compare(left, right) <= 0), nil
	case token.GT:
		return BoolVal(Compare(left, right) > 0), nil
	case token.GTE:
		return BoolVal(Compare(left, right) >= 0), nil
	case token.SPACESHIP:
		return IntVal(Compare(left, right)), nil

	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.POW:
		return i.evalArith(op, left, right, s)

	case token.AMP, token.PIPE, token.CARET, token.SHL, token.SHR:
		return i.evalBitwise(op, left, right, s)

	case token.COALESCE:
		// Compound ??= resolves before evaluation; a bare ?? never
		// reaches applyBinary. Kept for CompoundOp completeness.
		if _, isNull := left.(NullVal); isNull {
			return right, nil
		}
		return left, nil

	default:
		return nil, i.fatal(s, "unknown binary operator: %s", op)
	}
}

func (i *Interp) evalArith(op token.Kind, left, right Value, s span.Span) (Value, error) {
	if op == token.PLUS {
		if la, ok := left.(*ArrayVal); ok {
			if ra, ok := right.(*ArrayVal); ok {
				return arrayUnion(la, ra), nil
			}
		}
	}
	if err := i.checkNumericOperands(op, left, right, s); err != nil {
		return nil, err
	}

	ln := toNumber(left)
	rn := toNumber(right)
	li, leftIsInt := ln.(IntVal)
	ri, rightIsInt := rn.(IntVal)
	bothInt := leftIsInt && rightIsInt

	switch op {
	case token.PLUS:
		if bothInt {
			if sum, ok := addInts(int64(li), int64(ri)); ok {
				return IntVal(sum), nil
			}
		}
		return FloatVal(ToFloat(ln) + ToFloat(rn)), nil

	case token.MINUS:
		if bothInt {
			if diff, ok := subInts(int64(li), int64(ri)); ok {
				return IntVal(diff), nil
			}
		}
		return FloatVal(ToFloat(ln) - ToFloat(rn)), nil

	case token.STAR:
		if bothInt {
			if prod, ok := mulInts(int64(li), int64(ri)); ok {
				return IntVal(prod), nil
			}
		}
		return FloatVal(ToFloat(ln) * ToFloat(rn)), nil

	case token.SLASH:
		if ToFloat(rn) == 0 {
			i.warn("W3003", s, "Division by zero")
			return BoolVal(false), nil
		}
		if bothInt && int64(li)%int64(ri) == 0 {
			return IntVal(int64(li) / int64(ri)), nil
		}
		return FloatVal(ToFloat(ln) / ToFloat(rn)), nil

	case token.PERCENT:
		l, r := ToInt(ln), ToInt(rn)
		if r == 0 {
			i.warn("W3003", s, "Division by zero")
			return BoolVal(false), nil
		}
		return IntVal(l % r), nil

	case token.POW:
		if bothInt && int64(ri) >= 0 {
			if p, ok := powInts(int64(li), int64(ri)); ok {
				return IntVal(p), nil
			}
		}
		return FloatVal(math.Pow(ToFloat(ln), ToFloat(rn))), nil
	}
	return nil, i.fatal(s, "unknown arithmetic operator: %s", op)
}

// checkNumericOperands rejects arrays and objects in arithmetic.
func (i *Interp) checkNumericOperands(op token.Kind, left, right Value, s span.Span) error {
	for _, v := range []Value{left, right} {
		switch v.(type) {
		case *ArrayVal, *ObjectVal:
			return i.fatal(s, "Unsupported operation: %s %s %s", typeShort(left), op, typeShort(right))
		}
	}
	return nil
}

func (i *Interp) evalBitwise(op token.Kind, left, right Value, s span.Span) (Value, error) {
	if err := i.checkNumericOperands(op, left, right, s); err != nil {
		return nil, err
	}
	l, r := ToInt(left), ToInt(right)
	switch op {
	case token.AMP:
		return IntVal(l & r), nil
	case token.PIPE:
		return IntVal(l | r), nil
	case token.CARET:
		return IntVal(l ^ r), nil
	case token.SHL:
		if r < 0 {
			return nil, i.fatal(s, "Bit shift by negative number")
		}
		if r >= 64 {
			return IntVal(0), nil
		}
		return IntVal(l << uint(r)), nil
	case token.SHR:
		if r < 0 {
			return nil, i.fatal(s, "Bit shift by negative number")
		}
		if r >= 64 {
			if l < 0 {
				return IntVal(-1), nil
			}
			return IntVal(0), nil
		}
		return IntVal(l >> uint(r)), nil
	}
	return nil, i.fatal(s, "unknown bitwise operator: %s", op)
}

// arrayUnion implements + on two arrays: the left operand's entries win,
// the right contributes only keys the left lacks.
func arrayUnion(a, b *ArrayVal) *ArrayVal {
	out := a.Clone()
	for _, key := range b.Keys() {
		if _, ok := out.Get(key); !ok {
			v, _ := b.Get(key)
			out.Set(key, CopyValue(v))
		}
	}
	return out
}

func addInts(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func subInts(a, b int64) (int64, bool) {
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		return 0, false
	}
	return diff, true
}

func mulInts(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	prod := a * b
	if prod/b != a {
		return 0, false
	}
	return prod, true
}

func powInts(base, exp int64) (int64, bool) {
	var result int64 = 1
	for n := exp; n > 0; n-- {
		p, ok := mulInts(result, base)
		if !ok {
			return 0, false
		}
		result = p
	}
	return result, true
}

func (i *Interp) evalUnary(e *ast.UnaryExpr) (Value, error) {
	operand, err := i.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.BANG:
		return BoolVal(!IsTruthy(operand)), nil
	case token.MINUS:
		if err := i.checkNumericOperands(e.Op, operand, IntVal(0), e.GetSpan()); err != nil {
			return nil, err
		}
		switch n := toNumber(operand).(type) {
		case IntVal:
			if n == math.MinInt64 {
				return FloatVal(-float64(n)), nil
			}
			return -n, nil
		default:
			return FloatVal(-ToFloat(n)), nil
		}
	case token.PLUS:
		if err := i.checkNumericOperands(e.Op, operand, IntVal(0), e.GetSpan()); err != nil {
			return nil, err
		}
		return toNumber(operand), nil
	case token.TILDE:
		if err := i.checkNumericOperands(e.Op, operand, IntVal(0), e.GetSpan()); err != nil {
			return nil, err
		}
		return IntVal(^ToInt(operand)), nil
	default:
		return nil, i.fatal(e.GetSpan(), "unknown unary operator: %s", e.Op)
	}
}

func (i *Interp) evalInstanceof(e *ast.InstanceofExpr) (Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	obj, ok := left.(*ObjectVal)
	if !ok {
		return BoolVal(false), nil
	}

	var class *ClassVal
	switch c := e.Class.(type) {
	case *ast.IdentExpr:
		class = i.classes[strings.ToLower(c.Name)]
	default:
		v, err := i.evalExpr(e.Class)
		if err != nil {
			return nil, err
		}
		switch cv := v.(type) {
		case *ObjectVal:
			class = cv.Class
		case StringVal:
			class = i.classes[strings.ToLower(string(cv))]
		}
	}
	if class == nil {
		return BoolVal(false), nil
	}
	return BoolVal(obj.Class.IsSubclassOf(class)), nil
}

// evalSuppress evaluates its operand with warnings discarded. Substitute
// values still apply; fatal conditions pass through untouched.
func (i *Interp) evalSuppress(e *ast.SuppressExpr) (Value, error) {
	i.suppress++
	defer func() { i.suppress-- }()
	return i.evalExpr(e.Operand)
}

// ============================================================
// Output expressions
// ============================================================

func (i *Interp) evalPrint(e *ast.PrintExpr) (Value, error) {
	v, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	i.write(i.outString(v, e.GetSpan()))
	return IntVal(1), nil
}

// evalExit handles die/exit: an Int argument becomes the exit status, a
// String is written first, anything else coerces to a status.
func (i *Interp) evalExit(e *ast.ExitExpr) (Value, error) {
	if e.Value == nil {
		return nil, &ExitError{Status: 0}
	}
	v, err := i.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case StringVal:
		i.write(string(val))
		return nil, &ExitError{Status: 0}
	case IntVal:
		return nil, &ExitError{Status: int(val)}
	default:
		return nil, &ExitError{Status: int(ToInt(val))}
	}
}

// ============================================================
// Arrays
// ============================================================

func (i *Interp) evalArrayLit(e *ast.ArrayLit) (Value, error) {
	arr := NewArray()
	for _, entry := range e.Entries {
		value, err := i.evalExpr(entry.Value)
		if err != nil {
			return nil, err
		}
		if entry.Key == nil {
			arr.Append(CopyValue(value))
			continue
		}
		keyVal, err := i.evalExpr(entry.Key)
		if err != nil {
			return nil, err
		}
		key, ok := KeyOf(keyVal)
		if !ok {
			i.warn("W3008", entry.Key.GetSpan(), "Illegal offset type")
			continue
		}
		arr.Set(key, CopyValue(value))
	}
	return arr, nil
}

func (i *Interp) evalIndex(e *ast.IndexExpr) (Value, error) {
	if e.Index == nil {
		return nil, i.fatal(e.GetSpan(), "Cannot use [] for reading")
	}
	container, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	keyVal, err := i.evalExpr(e.Index)
	if err != nil {
		return nil, err
	}

	switch cv := container.(type) {
	case *ArrayVal:
		key, ok := KeyOf(keyVal)
		if !ok {
			i.warn("W3008", e.Index.GetSpan(), "Illegal offset type")
			return NullVal{}, nil
		}
		v, ok := cv.Get(key)
		if !ok {
			i.warn("W3006", e.GetSpan(), "Undefined array key %s", keyLabel(key))
			return NullVal{}, nil
		}
		return v, nil

	case StringVal:
		idx := ToInt(keyVal)
		s := string(cv)
		if idx < 0 {
			idx += int64(len(s))
		}
		if idx < 0 || idx >= int64(len(s)) {
			i.warn("W3006", e.GetSpan(), "Uninitialized string offset %d", ToInt(keyVal))
			return StringVal(""), nil
		}
		return StringVal(s[idx : idx+1]), nil

	default:
		i.warn("W3007", e.GetSpan(), "Trying to access array offset on value of type %s", typeShort(container))
		return NullVal{}, nil
	}
}

// keyLabel renders an array key for diagnostics: string keys quoted,
// integer keys bare.
func keyLabel(k ArrayKey) string {
	if k.IsInt {
		return k.String()
	}
	return "\"" + k.S + "\""
}

// ============================================================
// Property access
// ============================================================

func (i *Interp) evalPropFetch(e *ast.PropFetchExpr) (Value, error) {
	obj, err := i.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	o, ok := obj.(*ObjectVal)
	if !ok {
		i.warn("W3002", e.GetSpan(), "Attempt to read property \"%s\" on %s", e.Prop, typeShort(obj))
		return NullVal{}, nil
	}
	cell := o.Prop(e.Prop)
	if cell == nil {
		i.warn("W3002", e.GetSpan(), "Undefined property: %s::$%s", o.Class.Name, e.Prop)
		return NullVal{}, nil
	}
	return cell.Get(), nil
}

// ============================================================
// Calls
// ============================================================

// evalCall dispatches to a native function. Function names are
// case-insensitive; user-defined functions are not supported.
func (i *Interp) evalCall(e *ast.CallExpr) (Value, error) {
	fn, ok := i.builtins[strings.ToLower(e.Name)]
	if !ok {
		return nil, i.fatal(e.GetSpan(), "Call to undefined function %s()", e.Name)
	}
	args := make([]Value, len(e.Args))
	for idx, argExpr := range e.Args {
		v, err := i.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	return fn(i, args, e.GetSpan())
}
