package ast

import (
	"phplite/internal/span"
	"phplite/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "filename", n.Filename, "body", stmtSlice(n.Body))

	// ---- Expressions ----
	case *IntLit:
		return m("IntLit", n.Span, "value", n.Value)
	case *FloatLit:
		return m("FloatLit", n.Span, "value", n.Value)
	case *StringLit:
		return m("StringLit", n.Span, "value", n.Value)
	case *BoolLit:
		return m("BoolLit", n.Span, "value", n.Value)
	case *NullLit:
		return m("NullLit", n.Span)
	case *VarExpr:
		return m("VarExpr", n.Span, "name", n.Name)
	case *VarVarExpr:
		return m("VarVarExpr", n.Span, "name", NodeToMap(n.Name))
	case *IdentExpr:
		return m("IdentExpr", n.Span, "name", n.Name)
	case *AssignExpr:
		return m("AssignExpr", n.Span,
			"op", opStr(n.Op),
			"target", NodeToMap(n.Target),
			"value", NodeToMap(n.Value))
	case *RefAssignExpr:
		return m("RefAssignExpr", n.Span,
			"target", NodeToMap(n.Target),
			"source", NodeToMap(n.Source))
	case *BinaryExpr:
		return m("BinaryExpr", n.Span,
			"op", opStr(n.Op),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *UnaryExpr:
		return m("UnaryExpr", n.Span, "op", opStr(n.Op), "operand", NodeToMap(n.Operand))
	case *InstanceofExpr:
		return m("InstanceofExpr", n.Span,
			"left", NodeToMap(n.Left),
			"class", NodeToMap(n.Class))
	case *SuppressExpr:
		return m("SuppressExpr", n.Span, "operand", NodeToMap(n.Operand))
	case *IssetExpr:
		return m("IssetExpr", n.Span, "vars", exprSlice(n.Vars))
	case *EmptyExpr:
		return m("EmptyExpr", n.Span, "var", NodeToMap(n.Var))
	case *UnsetExpr:
		return m("UnsetExpr", n.Span, "vars", exprSlice(n.Vars))
	case *PrintExpr:
		return m("PrintExpr", n.Span, "value", NodeToMap(n.Value))
	case *ExitExpr:
		result := m("ExitExpr", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *IncludeExpr:
		return m("IncludeExpr", n.Span,
			"mode", n.Mode.String(),
			"path", NodeToMap(n.Path))
	case *NewExpr:
		return m("NewExpr", n.Span,
			"className", n.ClassName,
			"args", argSlice(n.Args))
	case *PropFetchExpr:
		return m("PropFetchExpr", n.Span,
			"object", NodeToMap(n.Object),
			"prop", n.Prop)
	case *IndexExpr:
		result := m("IndexExpr", n.Span, "object", NodeToMap(n.Object))
		if n.Index != nil {
			result["index"] = NodeToMap(n.Index)
		}
		return result
	case *ArrayLit:
		entries := make([]interface{}, len(n.Entries))
		for i, e := range n.Entries {
			entry := map[string]interface{}{
				"kind":  "ArrayEntry",
				"value": NodeToMap(e.Value),
			}
			if e.Key != nil {
				entry["key"] = NodeToMap(e.Key)
			}
			entries[i] = entry
		}
		return m("ArrayLit", n.Span, "entries", entries)
	case *CallExpr:
		return m("CallExpr", n.Span, "name", n.Name, "args", exprSlice(n.Args))

	// ---- Statements ----
	case *InlineHTMLStmt:
		return m("InlineHTMLStmt", n.Span, "text", n.Text)
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *EchoStmt:
		return m("EchoStmt", n.Span, "values", exprSlice(n.Values))
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result

	// ---- Declarations ----
	case *ClassDeclStmt:
		result := m("ClassDeclStmt", n.Span, "name", n.Name, "abstract", n.Abstract)
		if n.Extends != "" {
			result["extends"] = n.Extends
		}
		if len(n.Props) > 0 {
			props := make([]interface{}, len(n.Props))
			for i, pd := range n.Props {
				prop := map[string]interface{}{
					"kind":      "PropDecl",
					"span":      spanToMap(pd.Span),
					"modifiers": pd.Modifiers,
					"name":      pd.Name,
				}
				if pd.Default != nil {
					prop["default"] = NodeToMap(pd.Default)
				}
				props[i] = prop
			}
			result["props"] = props
		}
		if n.Ctor != nil {
			result["ctor"] = map[string]interface{}{
				"kind":   "CtorDecl",
				"span":   spanToMap(n.Ctor.Span),
				"params": paramSlice(n.Ctor.Params),
				"body":   stmtSlice(n.Ctor.Body),
			}
		}
		return result

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, e := range exprs {
		result[i] = NodeToMap(e)
	}
	return result
}

func argSlice(args []*Arg) []interface{} {
	result := make([]interface{}, len(args))
	for i, a := range args {
		arg := map[string]interface{}{
			"kind":  "Arg",
			"span":  spanToMap(a.Span),
			"value": NodeToMap(a.Value),
		}
		if a.Name != "" {
			arg["name"] = a.Name
		}
		result[i] = arg
	}
	return result
}

func paramSlice(params []*ParamDecl) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		param := map[string]interface{}{
			"kind":      "ParamDecl",
			"span":      spanToMap(p.Span),
			"modifiers": p.Modifiers,
			"name":      p.Name,
		}
		if p.Type != "" {
			param["type"] = p.Type
		}
		if p.Default != nil {
			param["default"] = NodeToMap(p.Default)
		}
		result[i] = param
	}
	return result
}

func opStr(kind token.Kind) string {
	return kind.String()
}
