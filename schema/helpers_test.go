package schema

import "fmt"

func atom(a Atomic) Schema { return AtomicType(a) }

// closedDoc builds a closed document schema. Keys listed in required are
// required.
func closedDoc(keys map[string]Schema, required ...string) Schema {
	return DocumentType(NewDocument(keys, required, false))
}

func emptyDoc() Schema { return DocumentType(EmptyDocument()) }

func openDoc(keys map[string]Schema, required ...string) Schema {
	return DocumentType(NewDocument(keys, required, true))
}

// sampleSchemas is a spread of shapes used by the property-style tests.
func sampleSchemas() map[string]Schema {
	return map[string]Schema{
		"unsat":           Unsat(),
		"missing":         Missing(),
		"any":             Any(),
		"int":             atom(Integer),
		"string":          atom(String),
		"null":            atom(Null),
		"array-int":       ArrayOf(atom(Integer)),
		"array-string":    ArrayOf(atom(String)),
		"empty-array":     ArrayOf(Unsat()),
		"doc-a":           closedDoc(map[string]Schema{"a": atom(Integer)}, "a"),
		"doc-b":           closedDoc(map[string]Schema{"b": atom(String)}, "b"),
		"doc-a-optional":  closedDoc(map[string]Schema{"a": atom(String)}),
		"doc-any":         AnyDocumentSchema(),
		"doc-open-a":      openDoc(map[string]Schema{"a": atom(Double)}, "a"),
		"nullable-int":    AnyOf(atom(Integer), atom(Null)),
		"string-or-doc":   AnyOf(atom(String), closedDoc(map[string]Schema{"a": atom(Integer)}, "a")),
		"optional-array":  AnyOf(ArrayOf(atom(Integer)), Missing()),
		"numeric":         Numeric(),
		"nested-doc":      closedDoc(map[string]Schema{"x": closedDoc(map[string]Schema{"y": atom(Boolean)}, "y")}, "x"),
		"required-no-key": DocumentType(NewDocument(nil, []string{"k"}, false)),
	}
}

// deepAnyOf nests n disjunctions around an int.
func deepAnyOf(n int) Schema {
	s := atom(Integer)
	for i := 0; i < n; i++ {
		s = AnyOf(s, atom(Null))
	}
	return s
}

func disjointDocument(i, width int) Document {
	keys := make(map[string]Schema, width)
	required := make([]string, 0, width)
	for j := 0; j < width; j++ {
		name := fmt.Sprintf("f%d_%d", i, j)
		keys[name] = atom(Integer)
		required = append(required, name)
	}
	return NewDocument(keys, required, false)
}
