package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntersection(t *testing.T) {
	tests := []struct {
		name string
		a, b Schema
		want Schema
	}{
		{"same atomic", atom(Integer), atom(Integer), atom(Integer)},
		{"different atomics", atom(Integer), atom(String), Unsat()},
		{"any is identity", Any(), ArrayOf(atom(Integer)), ArrayOf(atom(Integer))},
		{"unsat absorbs", Unsat(), atom(Integer), Unsat()},
		{"missing", Missing(), Missing(), Missing()},
		{"cross variant", Missing(), atom(Null), Unsat()},
		{"arrays", ArrayOf(AnyOf(atom(Integer), atom(String))), ArrayOf(atom(Integer)), ArrayOf(atom(Integer))},
		{"disjoint arrays", ArrayOf(atom(Integer)), ArrayOf(atom(String)), Unsat()},
		{
			"anyOf with anyOf",
			AnyOf(atom(Integer), atom(String), atom(Null)),
			AnyOf(atom(String), atom(Null), atom(Double)),
			AnyOf(atom(Null), atom(String)),
		},
		{"anyOf to single", AnyOf(atom(Integer), atom(Null)), atom(Integer), atom(Integer)},
		{"anyOf disjoint", AnyOf(atom(Integer), atom(Null)), atom(String), Unsat()},
		{
			"documents",
			closedDoc(map[string]Schema{"a": atom(Integer), "b": atom(String)}, "a"),
			openDoc(map[string]Schema{"a": AnyOf(atom(Integer), atom(Null))}, "a"),
			closedDoc(map[string]Schema{"a": atom(Integer), "b": atom(String)}, "a"),
		},
		{
			"any document",
			AnyDocumentSchema(),
			closedDoc(map[string]Schema{"a": atom(Integer)}, "a"),
			closedDoc(map[string]Schema{"a": atom(Integer)}, "a"),
		},
		{
			"disjoint closed documents",
			closedDoc(map[string]Schema{"a": atom(Integer)}),
			closedDoc(map[string]Schema{"b": atom(Integer)}),
			Unsat(),
		},
		{
			"empty closed documents",
			closedDoc(nil),
			closedDoc(nil),
			closedDoc(nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Intersection(tt.b)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			rev := tt.b.Intersection(tt.a)
			assert.True(t, rev.Equal(tt.want), "reversed: got %s, want %s", rev, tt.want)
		})
	}
}

func TestCartesianProduct(t *testing.T) {
	got := CartesianProduct(
		AnyOf(atom(Integer), atom(String)),
		atom(Null),
		AnyOf(atom(Boolean), atom(Date), atom(Double)),
	)
	assert.Len(t, got, 6)
	for _, combo := range got {
		assert.Len(t, combo, 3)
		assert.True(t, combo[1].Equal(atom(Null)))
	}

	assert.Equal(t, [][]Schema{{}}, CartesianProduct())
	assert.Empty(t, CartesianProduct(atom(Integer), AnyOf()))
}
