package schema

import (
	"fmt"
	"go/ast"
	"regexp"
	"strings"

	"github.com/hupe1980/ipcmesh/internal/util"
)

// OutcomeName is the base identifier recognized as the two-variant result.
const OutcomeName = "Outcome"

// UnitType is the qualified spelling of the empty payload in generated code.
const UnitType = "core.Unit"

// ClassifyReturn inspects the declared result expressions of one method.
//
//	no results, "()", "Unit", "core.Unit"  -> Unit
//	Outcome[S, F] (any qualifier)          -> Outcome(S, F)
//	anything else                          -> Opaque(T)
//
// Shapes that look like a result type but cannot be decoded as one (an
// Outcome with another type argument count, a tuple, a bare error) are
// classified Opaque with a non-empty Ambiguous reason. Callers decide whether
// to reject them.
func ClassifyReturn(results []string) ReturnShape {
	shape := ReturnShape{Results: results}

	switch len(results) {
	case 0:
		shape.Kind = KindUnit
		return shape
	case 1:
	default:
		shape.Kind = KindOpaque
		shape.Type = "(" + strings.Join(results, ", ") + ")"
		shape.Ambiguous = fmt.Sprintf("tuple of %d results has no single decodable value", len(results))
		return shape
	}

	expr := NormalizeUnit(results[0])
	if isUnit(expr) {
		shape.Kind = KindUnit
		return shape
	}

	e, err := util.ParseType(expr)
	if err != nil {
		shape.Kind = KindOpaque
		shape.Type = expr
		shape.Ambiguous = err.Error()
		return shape
	}

	if base, args, ok := genericParts(e); ok && baseName(base) == OutcomeName {
		if len(args) == 2 {
			shape.Kind = KindOutcome
			shape.Success = payloadType(args[0])
			shape.Failure = payloadType(args[1])
			return shape
		}
		shape.Kind = KindOpaque
		shape.Type = util.ExprString(e)
		shape.Ambiguous = fmt.Sprintf("%s with %d type arguments is not a two-variant result", OutcomeName, len(args))
		return shape
	}

	shape.Kind = KindOpaque
	shape.Type = util.ExprString(e)
	if id, ok := e.(*ast.Ident); ok && id.Name == "error" {
		shape.Ambiguous = "a bare error result cannot carry a decodable failure payload"
	}
	return shape
}

var unitArg = regexp.MustCompile(`([\[,]\s*)\(\)(\s*[\],])`)

// NormalizeUnit rewrites "()" written as a type argument ("Outcome[(), string]")
// to core.Unit so the expression parses as Go.
func NormalizeUnit(expr string) string {
	expr = strings.TrimSpace(expr)
	for {
		next := unitArg.ReplaceAllString(expr, "${1}"+UnitType+"${2}")
		if next == expr {
			return expr
		}
		expr = next
	}
}

func isUnit(expr string) bool {
	switch strings.ReplaceAll(expr, " ", "") {
	case "()", "Unit", UnitType:
		return true
	}
	return false
}

// payloadType maps an Outcome type argument to the type used in generated code.
func payloadType(e ast.Expr) string {
	s := util.ExprString(e)
	if isUnit(s) {
		return UnitType
	}
	return s
}

func genericParts(e ast.Expr) (ast.Expr, []ast.Expr, bool) {
	switch t := e.(type) {
	case *ast.IndexExpr:
		return t.X, []ast.Expr{t.Index}, true
	case *ast.IndexListExpr:
		return t.X, t.Indices, true
	case *ast.ParenExpr:
		return genericParts(t.X)
	}
	return nil, nil, false
}

func baseName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return t.Sel.Name
	}
	return ""
}
