package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyReturn(t *testing.T) {
	tests := []struct {
		name      string
		results   []string
		kind      ReturnKind
		success   string
		failure   string
		typ       string
		ambiguous bool
	}{
		{name: "no results", results: nil, kind: KindUnit},
		{name: "empty tuple", results: []string{"()"}, kind: KindUnit},
		{name: "bare unit", results: []string{"Unit"}, kind: KindUnit},
		{name: "qualified unit", results: []string{"core.Unit"}, kind: KindUnit},
		{name: "outcome", results: []string{"core.Outcome[string, string]"}, kind: KindOutcome, success: "string", failure: "string"},
		{name: "unqualified outcome", results: []string{"Outcome[[]Message, error]"}, kind: KindOutcome, success: "[]Message", failure: "error"},
		{name: "outcome with unit success", results: []string{"core.Outcome[(), string]"}, kind: KindOutcome, success: "core.Unit", failure: "string"},
		{name: "outcome with bare unit", results: []string{"Outcome[Unit, *Problem]"}, kind: KindOutcome, success: "core.Unit", failure: "*Problem"},
		{name: "plain value", results: []string{"string"}, kind: KindOpaque, typ: "string"},
		{name: "map value", results: []string{"map[string]int"}, kind: KindOpaque, typ: "map[string]int"},
		{name: "foreign generic", results: []string{"Pair[int, int]"}, kind: KindOpaque, typ: "Pair[int, int]"},
		{name: "outcome with one argument", results: []string{"core.Outcome[string]"}, kind: KindOpaque, typ: "core.Outcome[string]", ambiguous: true},
		{name: "outcome with three arguments", results: []string{"Outcome[int, int, int]"}, kind: KindOpaque, ambiguous: true},
		{name: "tuple", results: []string{"string", "error"}, kind: KindOpaque, ambiguous: true},
		{name: "bare error", results: []string{"error"}, kind: KindOpaque, typ: "error", ambiguous: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape := ClassifyReturn(tt.results)
			assert.Equal(t, tt.kind, shape.Kind)
			assert.Equal(t, tt.ambiguous, shape.IsAmbiguous(), shape.Ambiguous)
			if tt.success != "" {
				assert.Equal(t, tt.success, shape.Success)
				assert.Equal(t, tt.failure, shape.Failure)
			}
			if tt.typ != "" {
				assert.Equal(t, tt.typ, shape.Type)
			}
		})
	}
}

func TestClassifyReturn_TupleFlag(t *testing.T) {
	shape := ClassifyReturn([]string{"int", "int"})
	assert.True(t, shape.IsTuple())
	assert.Equal(t, "(int, int)", shape.Type)
}

func TestReturnShape_ValueType(t *testing.T) {
	assert.Equal(t, "", ClassifyReturn(nil).ValueType())
	assert.Equal(t, "core.Outcome[string, int]", ClassifyReturn([]string{"Outcome[string,int]"}).ValueType())
	assert.Equal(t, "[]byte", ClassifyReturn([]string{"[]byte"}).ValueType())
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, "Outcome[core.Unit, core.Unit]", NormalizeUnit("Outcome[(), ()]"))
	assert.Equal(t, "func()", NormalizeUnit("func()"))
	assert.Equal(t, "Outcome[func(), string]", NormalizeUnit(" Outcome[func(), string] "))
}
