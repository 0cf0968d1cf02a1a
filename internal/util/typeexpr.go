package util

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"
)

// ParseType parses a Go type expression.
func ParseType(expr string) (ast.Expr, error) {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid type expression %q: %w", expr, err)
	}
	return e, nil
}

// ExprString renders an expression in canonical gofmt form.
func ExprString(e ast.Expr) string {
	var buf bytes.Buffer
	if err := format.Node(&buf, token.NewFileSet(), e); err != nil {
		return ""
	}
	return buf.String()
}

// NormalizeType returns the canonical gofmt spelling of a type expression so
// that two spellings of the same type compare equal.
func NormalizeType(expr string) (string, error) {
	e, err := ParseType(expr)
	if err != nil {
		return "", err
	}
	return ExprString(e), nil
}

// QualifyType prefixes every bare exported identifier in expr with pkg, so a
// type written inside package pkg can be used from another package.
// Identifiers that are already qualified and struct field names are left alone.
func QualifyType(expr, pkg string) (string, error) {
	e, err := ParseType(expr)
	if err != nil {
		return "", err
	}
	if pkg == "" {
		return ExprString(e), nil
	}
	out := astutil.Apply(e, func(c *astutil.Cursor) bool {
		switch c.Parent().(type) {
		case *ast.SelectorExpr:
			return false
		case *ast.Field:
			if c.Name() == "Names" {
				return false
			}
		}
		id, ok := c.Node().(*ast.Ident)
		if !ok || !id.IsExported() {
			return true
		}
		c.Replace(&ast.SelectorExpr{X: ast.NewIdent(pkg), Sel: ast.NewIdent(id.Name)})
		return false
	}, nil)
	return ExprString(out.(ast.Expr)), nil
}

// LeadingSegment returns the first name segment of a type expression:
// "*host.State" -> "host", "HostState" -> "HostState", "store.Ref[int]" -> "store".
// Composite types (slices, maps, funcs) have no leading segment.
func LeadingSegment(expr string) string {
	e, err := ParseType(expr)
	if err != nil {
		return ""
	}
	for {
		switch t := e.(type) {
		case *ast.StarExpr:
			e = t.X
		case *ast.ParenExpr:
			e = t.X
		case *ast.IndexExpr:
			e = t.X
		case *ast.IndexListExpr:
			e = t.X
		case *ast.SelectorExpr:
			e = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

// PackageRefs returns the package qualifiers referenced by a type expression,
// e.g. "map[string]api.Message" -> ["api"].
func PackageRefs(expr string) []string {
	e, err := ParseType(expr)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var refs []string
	ast.Inspect(e, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			refs = append(refs, id.Name)
		}
		return false
	})
	return refs
}
