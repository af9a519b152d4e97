package runtime

import (
	"strings"

	"phplite/internal/ast"
)

// ============================================================
// Class declaration
// ============================================================

// execClassDecl registers a class. Property and parameter defaults are
// evaluated here, once, not at each instantiation. Class names are
// case-insensitive; the declared spelling is kept for messages.
func (i *Interp) execClassDecl(s *ast.ClassDeclStmt) (ExecResult, error) {
	key := strings.ToLower(s.Name)
	if _, exists := i.classes[key]; exists {
		return resultNone, i.fatal(s.GetSpan(), "Cannot redeclare class %s", s.Name)
	}

	var parent *ClassVal
	if s.Extends != "" {
		p, ok := i.classes[strings.ToLower(s.Extends)]
		if !ok {
			return resultNone, i.fatal(s.GetSpan(), "Class \"%s\" not found", s.Extends)
		}
		parent = p
	}

	class := &ClassVal{Name: s.Name, Abstract: s.Abstract, Parent: parent}

	for _, pd := range s.Props {
		def := &PropDef{Name: pd.Name, Modifiers: pd.Modifiers}
		if pd.Default != nil {
			v, err := i.evalExpr(pd.Default)
			if err != nil {
				return resultNone, err
			}
			def.Default = CopyValue(v)
		}
		class.Props = append(class.Props, def)
	}

	if s.Ctor != nil {
		ctor := &Ctor{Body: s.Ctor.Body}
		for _, pd := range s.Ctor.Params {
			param := &Param{Name: pd.Name, Type: pd.Type, Modifiers: pd.Modifiers}
			if pd.Default != nil {
				v, err := i.evalExpr(pd.Default)
				if err != nil {
					return resultNone, err
				}
				param.Default = CopyValue(v)
			}
			ctor.Params = append(ctor.Params, param)
		}
		class.Ctor = ctor
	}

	i.classes[key] = class
	return resultNone, nil
}

// ============================================================
// Instantiation
// ============================================================

// evalNew creates an instance: binds declared properties along the
// inheritance chain, matches arguments against the nearest constructor
// and runs its body in a fresh scope.
func (i *Interp) evalNew(e *ast.NewExpr) (Value, error) {
	class, ok := i.classes[strings.ToLower(e.ClassName)]
	if !ok {
		return nil, i.fatal(e.GetSpan(), "Class %s not found", e.ClassName)
	}
	if class.Abstract {
		return nil, i.fatal(e.GetSpan(), "Cannot instantiate abstract class %s", class.Name)
	}

	obj := NewObject(class)
	i.nextObjID++
	obj.ID = i.nextObjID

	// Root-first so a child's redeclaration overrides the parent's
	// default while keeping the inherited slot's position.
	for _, c := range chainRootFirst(class) {
		for _, pd := range c.Props {
			def := pd.Default
			if def == nil {
				def = NullVal{}
			}
			obj.BindProp(pd.Name, NewCell(CopyValue(def)))
		}
	}

	ctorClass := class
	for ctorClass != nil && ctorClass.Ctor == nil {
		ctorClass = ctorClass.Parent
	}

	positional, named, namedOrder, err := i.evalCtorArgs(e)
	if err != nil {
		return nil, err
	}
	if ctorClass == nil {
		// No constructor anywhere in the chain: arguments are
		// evaluated for their effects and dropped.
		return obj, nil
	}
	ctor := ctorClass.Ctor

	ctorScope := NewScope()
	ctorScope.Bind("this", obj)
	if err := i.bindCtorParams(e, ctorClass, obj, ctorScope, positional, named, namedOrder); err != nil {
		return nil, err
	}

	// The body is taken before it runs: the first instantiation
	// empties it, so later ones execute nothing.
	body := ctor.Body
	ctor.Body = nil
	if err := i.runCtorBody(body, ctorScope); err != nil {
		return nil, err
	}
	return obj, nil
}

// chainRootFirst returns the inheritance chain ordered root to leaf.
func chainRootFirst(class *ClassVal) []*ClassVal {
	var chain []*ClassVal
	for c := class; c != nil; c = c.Parent {
		chain = append(chain, c)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain
}

// evalCtorArgs evaluates constructor arguments in source order and
// splits them into positionals and nameds.
func (i *Interp) evalCtorArgs(e *ast.NewExpr) ([]Value, map[string]Value, []string, error) {
	var positional []Value
	named := make(map[string]Value)
	var namedOrder []string
	for _, arg := range e.Args {
		if arg.Name == "" {
			if len(namedOrder) > 0 {
				return nil, nil, nil, i.fatal(arg.Span, "Cannot use positional argument after named argument")
			}
			v, err := i.evalExpr(arg.Value)
			if err != nil {
				return nil, nil, nil, err
			}
			positional = append(positional, CopyValue(v))
			continue
		}
		if _, dup := named[arg.Name]; dup {
			return nil, nil, nil, i.fatal(arg.Span, "Named argument $%s overwrites previous argument", arg.Name)
		}
		v, err := i.evalExpr(arg.Value)
		if err != nil {
			return nil, nil, nil, err
		}
		named[arg.Name] = CopyValue(v)
		namedOrder = append(namedOrder, arg.Name)
	}
	return positional, named, namedOrder, nil
}

// bindCtorParams matches arguments to parameters. Extra positional
// arguments are dropped; a named argument with no parameter is fatal.
// Promoted parameters share one cell between the constructor scope and
// the instance property.
func (i *Interp) bindCtorParams(e *ast.NewExpr, ctorClass *ClassVal, obj *ObjectVal, ctorScope *Scope, positional []Value, named map[string]Value, namedOrder []string) error {
	params := ctorClass.Ctor.Params
	required := 0
	for _, p := range params {
		if p.Default == nil {
			required++
		}
	}

	usedNamed := make(map[string]bool)
	for idx, p := range params {
		var v Value
		fromDefault := false
		if idx < len(positional) {
			if _, also := named[p.Name]; also {
				return i.fatal(e.GetSpan(), "Named argument $%s overwrites previous argument", p.Name)
			}
			v = positional[idx]
		} else if nv, ok := named[p.Name]; ok {
			v = nv
			usedNamed[p.Name] = true
		} else if p.Default != nil {
			v = CopyValue(p.Default)
			fromDefault = true
		} else {
			passed := len(positional) + len(namedOrder)
			quantifier := "at least"
			if required == len(params) {
				quantifier = "exactly"
			}
			return i.fatal(e.GetSpan(), "Too few arguments to function %s::__construct(), %d passed and %s %d expected",
				ctorClass.Name, passed, quantifier, required)
		}

		// Declared defaults are trusted; only caller-supplied values
		// are checked against the hint.
		if p.Type != "" && !fromDefault && !i.typeMatches(p.Type, v) {
			return i.fatal(e.GetSpan(), "%s::__construct(): Argument #%d ($%s): Expected type '%s', '%s' given",
				ctorClass.Name, idx+1, p.Name, p.Type, typeShort(v))
		}

		if p.Promoted() {
			cell := NewCell(v)
			ctorScope.BindRef(p.Name, cell)
			obj.BindProp(p.Name, cell)
		} else {
			ctorScope.Bind(p.Name, v)
		}
	}

	for _, name := range namedOrder {
		if !usedNamed[name] {
			return i.fatal(e.GetSpan(), "Unknown named argument $%s", name)
		}
	}
	return nil
}

// typeMatches checks a value against a parameter type hint. Hints are
// strict: no coercion, an int is not accepted for a float hint. A hint
// that is not a builtin type name is tried as a class name.
func (i *Interp) typeMatches(hint string, v Value) bool {
	switch hint {
	case "int":
		_, ok := v.(IntVal)
		return ok
	case "float":
		_, ok := v.(FloatVal)
		return ok
	case "bool":
		_, ok := v.(BoolVal)
		return ok
	case "string":
		_, ok := v.(StringVal)
		return ok
	case "null":
		_, ok := v.(NullVal)
		return ok
	case "array":
		_, ok := v.(*ArrayVal)
		return ok
	case "object":
		_, ok := v.(*ObjectVal)
		return ok
	default:
		o, ok := v.(*ObjectVal)
		if !ok {
			return false
		}
		class := i.classes[hint]
		return class != nil && o.Class.IsSubclassOf(class)
	}
}

// runCtorBody executes constructor statements with the scope swapped to
// the constructor's own. A return ends the body early.
func (i *Interp) runCtorBody(body []ast.Stmt, ctorScope *Scope) error {
	prev := i.scope
	i.scope = ctorScope
	defer func() { i.scope = prev }()

	for _, stmt := range body {
		res, err := i.execStmt(stmt)
		if err != nil {
			return err
		}
		if res.Signal == SigReturn {
			break
		}
	}
	return nil
}
