package ast

import (
	"github.com/emberlang/ember/internal/span"
)

// ProgramToMap converts a Program to a map suitable for JSON
// serialization, rendering every struct and function in source order.
// This (like the rest of this file) is diagnostic-rendering machinery,
// deliberately kept outside internal/parser — the parser core only
// produces the AST, it never renders it.
func ProgramToMap(p *Program) map[string]interface{} {
	structs := make([]interface{}, len(p.Structs))
	for i, s := range p.Structs {
		structs[i] = structToMap(s)
	}
	functions := make([]interface{}, len(p.Functions))
	for i, f := range p.Functions {
		functions[i] = functionToMap(f)
	}
	return map[string]interface{}{
		"structs":   structs,
		"functions": functions,
	}
}

func itemNameToMap(n ItemName) map[string]interface{} {
	params := make([]interface{}, len(n.TypeParams))
	for i, tp := range n.TypeParams {
		params[i] = map[string]interface{}{
			"name": string(tp.Value),
			"span": spanToMap(tp.Span),
		}
	}
	return map[string]interface{}{
		"name":       string(n.Name.Value),
		"nameSpan":   spanToMap(n.Name.Span),
		"typeParams": params,
	}
}

func varToMap(v Var) map[string]interface{} {
	return map[string]interface{}{
		"name": string(v.Name.Value),
		"span": spanToMap(v.Name.Span),
		"type": spannedTypeToMap(v.Type),
	}
}

func structToMap(s *Struct) map[string]interface{} {
	fields := make([]interface{}, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = varToMap(f)
	}
	return map[string]interface{}{
		"kind":   "Struct",
		"span":   spanToMap(s.Span),
		"name":   itemNameToMap(s.Name),
		"fields": fields,
	}
}

func functionToMap(f *Function) map[string]interface{} {
	params := make([]interface{}, len(f.Params))
	for i, p := range f.Params {
		params[i] = varToMap(p)
	}
	kind := "Normal"
	if f.Kind == FuncExtern {
		kind = "Extern"
	}
	result := map[string]interface{}{
		"kind":       "Function",
		"fnType":     kind,
		"span":       spanToMap(f.Span),
		"name":       itemNameToMap(f.Name),
		"params":     params,
		"returnType": spannedTypeToMap(f.ReturnType),
	}
	if f.Body != nil {
		result["body"] = NodeToMap(f.Body)
	}
	return result
}

// NodeToMap converts a Stmt or Expr node to a map suitable for JSON
// serialization. Every node has a "kind" field naming its variant.
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	// ---- Expressions ----
	case *LiteralExpr:
		switch n.Kind {
		case LitNumber:
			return m("NumberLiteral", n.Span, "value", n.Text)
		case LitBool:
			return m("BoolLiteral", n.Span, "value", n.BoolValue)
		case LitChar:
			return m("CharLiteral", n.Span, "value", string(n.CharValue))
		default:
			return m("StrLiteral", n.Span, "value", n.Text)
		}
	case *NameExpr:
		args := make([]interface{}, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			args[i] = spannedTypeToMap(a)
		}
		return m("Name", n.Span, "name", string(n.Name.Value), "typeArgs", args)
	case *UnaryExpr:
		return m("Unary", n.Span, "op", n.Op.Value.String(), "operand", NodeToMap(n.Operand))
	case *BinaryExpr:
		return m("Binary", n.Span,
			"op", n.Op.Value.String(),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *CallExpr:
		params := make([]interface{}, len(n.Params))
		for i, p := range n.Params {
			if p.Name != nil {
				params[i] = map[string]interface{}{
					"kind":  "Named",
					"name":  string(p.Name.Value),
					"value": NodeToMap(p.Value),
				}
			} else {
				params[i] = map[string]interface{}{
					"kind":  "Unnamed",
					"value": NodeToMap(p.Value),
				}
			}
		}
		return m("Call", n.Span, "callee", NodeToMap(n.Callee), "args", params)
	case *FieldExpr:
		return m("Field", n.Span, "base", NodeToMap(n.Base), "name", string(n.Name.Value))
	case *ErrorExpr:
		return m("Error", n.Span)

	// ---- Statements ----
	case *IfStmt:
		result := m("If", n.Span, "condition", NodeToMap(n.Condition), "then", NodeToMap(n.Then))
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *LoopStmt:
		return m("Loop", n.Span, "body", NodeToMap(n.Body))
	case *WhileStmt:
		return m("While", n.Span, "condition", NodeToMap(n.Condition), "body", NodeToMap(n.Body))
	case *BreakStmt:
		return m("Break", n.Span)
	case *ContinueStmt:
		return m("Continue", n.Span)
	case *ReturnStmt:
		return m("Return", n.Span, "value", NodeToMap(n.Value))
	case *LetStmt:
		result := m("Let", n.Span, "name", string(n.Name.Value), "value", NodeToMap(n.Value))
		if n.Type != nil {
			result["type"] = spannedTypeToMap(*n.Type)
		}
		return result
	case *BlockStmt:
		stmts := make([]interface{}, len(n.Stmts))
		for i, s := range n.Stmts {
			stmts[i] = NodeToMap(s)
		}
		return m("Block", n.Span, "stmts", stmts)
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *ErrorStmt:
		return m("Error", n.Span)

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

func typeToMap(t Type) map[string]interface{} {
	if t == nil {
		return nil
	}
	switch n := t.(type) {
	case *WildcardType:
		return m("Wildcard", n.Span)
	case *I8Type:
		return m("I8", n.Span)
	case *U8Type:
		return m("U8", n.Span)
	case *I16Type:
		return m("I16", n.Span)
	case *U16Type:
		return m("U16", n.Span)
	case *I32Type:
		return m("I32", n.Span)
	case *U32Type:
		return m("U32", n.Span)
	case *BoolType:
		return m("Bool", n.Span)
	case *ConcreteType:
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = spannedTypeToMap(a)
		}
		return m("Concrete", n.Span, "name", string(n.Name), "args", args)
	case *PointerType:
		return m("Pointer", n.Span, "elem", spannedTypeToMap(n.Elem))
	case *FuncType:
		params := make([]interface{}, len(n.Params))
		for i, p := range n.Params {
			params[i] = spannedTypeToMap(p)
		}
		return m("Function", n.Span, "params", params, "returnType", spannedTypeToMap(n.Return))
	case *ErrorType:
		return m("Error", n.Span)
	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

func spannedTypeToMap(sp span.Spanned[Type]) map[string]interface{} {
	return typeToMap(sp.Value)
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
