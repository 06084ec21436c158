package schema

import (
	"testing"
)

// TestSatisfies_TopAndBottom verifies Any and Unsat at both ends of every comparison.
func TestSatisfies_TopAndBottom(t *testing.T) {
	if got := Any().Satisfies(Any()); got != Must {
		t.Errorf("Any.Satisfies(Any) = %v, want Must", got)
	}
	for name, s := range sampleSchemas() {
		if got := Unsat().Satisfies(s); got != Must {
			t.Errorf("Unsat.Satisfies(%s) = %v, want Must", name, got)
		}
		if got := s.Satisfies(Any()); got != Must {
			t.Errorf("%s.Satisfies(Any) = %v, want Must", name, got)
		}
		if got := AnyOf().Satisfies(s); got != Must {
			t.Errorf("AnyOf().Satisfies(%s) = %v, want Must", name, got)
		}
	}
}

func TestSatisfies_Cases(t *testing.T) {
	tests := []struct {
		name  string
		self  Schema
		other Schema
		want  Satisfaction
	}{
		{"equal atomics", atom(Integer), atom(Integer), Must},
		{"different atomics", atom(Integer), atom(String), Not},
		{"anything into unsat", atom(Integer), Unsat(), Not},
		{"any into atomic", Any(), atom(Integer), May},
		{"missing into missing", Missing(), Missing(), Must},
		{"missing into atomic", Missing(), atom(Null), Not},
		{"cross variant", ArrayOf(atom(Integer)), atom(Integer), Not},
		{"array elements", ArrayOf(atom(Integer)), ArrayOf(atom(Integer)), Must},
		{"array elements differ", ArrayOf(atom(Integer)), ArrayOf(atom(String)), Not},
		{"empty array into any array", ArrayOf(Unsat()), ArrayOf(atom(String)), Must},
		{"anyOf self all must", AnyOf(atom(Integer), atom(Long)), Numeric(), Must},
		{"anyOf self mixed", AnyOf(atom(Integer), atom(String)), atom(Integer), May},
		{"anyOf self all not", AnyOf(atom(Boolean), atom(String)), atom(Integer), Not},
		{"anyOf other", atom(Integer), AnyOf(atom(Integer), atom(Null)), Must},
		{"anyOf other none", atom(Date), AnyOf(atom(Integer), atom(Null)), Not},
		{"anyOf other may", AnyOf(atom(Integer), atom(Date)), AnyOf(atom(Integer), atom(Null)), May},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.self.Satisfies(tt.other); got != tt.want {
				t.Errorf("%s.Satisfies(%s) = %v, want %v", tt.self, tt.other, got, tt.want)
			}
		})
	}
}

// TestSatisfies_Documents verifies closure, optionality and required handling.
func TestSatisfies_Documents(t *testing.T) {
	a := map[string]Schema{"a": atom(Integer)}
	tests := []struct {
		name  string
		self  Schema
		other Schema
		want  Satisfaction
	}{
		{"identical", closedDoc(a, "a"), closedDoc(a, "a"), Must},
		{"extra required field in closed target", closedDoc(map[string]Schema{"a": atom(Integer), "b": atom(String)}, "a", "b"), closedDoc(a, "a"), Not},
		{"open source into closed target", openDoc(a, "a"), closedDoc(a, "a"), May},
		{"extra optional field in closed target", closedDoc(map[string]Schema{"a": atom(Integer), "b": atom(String)}, "a"), closedDoc(a, "a"), May},
		{"closed into open", closedDoc(a, "a"), AnyDocumentSchema(), Must},
		{"optional into required", closedDoc(a), closedDoc(a, "a"), May},
		{"required into optional", closedDoc(a, "a"), closedDoc(a), Must},
		{"absent into required", emptyDoc(), closedDoc(a, "a"), Not},
		{"absent into optional", emptyDoc(), closedDoc(a), Must},
		{"type mismatch", closedDoc(a, "a"), closedDoc(map[string]Schema{"a": atom(String)}, "a"), Not},
		{"optional type mismatch", closedDoc(a), closedDoc(map[string]Schema{"a": atom(String)}), May},
		{"required without schema", DocumentType(NewDocument(nil, []string{"a"}, false)), closedDoc(a, "a"), May},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.self.Satisfies(tt.other); got != tt.want {
				t.Errorf("%s.Satisfies(%s) = %v, want %v", tt.self, tt.other, got, tt.want)
			}
		})
	}
}

func TestContainsField(t *testing.T) {
	nullableInt := AnyOf(atom(Integer), atom(Null))
	required := closedDoc(map[string]Schema{"a": nullableInt}, "a")
	if got := required.ContainsField("a"); got != Must {
		t.Errorf("required field: got %v, want Must", got)
	}
	if got := required.ContainsField("b"); got != Not {
		t.Errorf("unknown field of closed document: got %v, want Not", got)
	}

	optional := closedDoc(map[string]Schema{"a": nullableInt})
	if got := optional.ContainsField("a"); got != May {
		t.Errorf("optional field: got %v, want May", got)
	}
	if got := AnyDocumentSchema().ContainsField("b"); got != May {
		t.Errorf("open document: got %v, want May", got)
	}
	if got := atom(Integer).ContainsField("a"); got != Not {
		t.Errorf("atomic: got %v, want Not", got)
	}
	if got := AnyOf(required, atom(Null)).ContainsField("a"); got != May {
		t.Errorf("nullable document: got %v, want May", got)
	}
}

func TestIsComparableWith(t *testing.T) {
	tests := []struct {
		name string
		a, b Schema
		want Satisfaction
	}{
		{"same atomic", atom(String), atom(String), Must},
		{"numeric pair", atom(Integer), atom(Decimal), Must},
		{"different atomics", atom(Integer), atom(String), Not},
		{"null with javascript", atom(Null), atom(Javascript), Must},
		{"javascript with itself", atom(Javascript), atom(Javascript), Not},
		{"db pointer with string", atom(DbPointer), atom(String), Not},
		{"missing with document", Missing(), closedDoc(nil), Must},
		{"unsat with anything", Unsat(), ArrayOf(atom(Integer)), Must},
		{"any", Any(), atom(Integer), May},
		{"arrays of numerics", ArrayOf(atom(Integer)), ArrayOf(atom(Double)), Must},
		{"arrays of mismatched", ArrayOf(atom(Integer)), ArrayOf(atom(String)), Not},
		{"documents", closedDoc(nil), AnyDocumentSchema(), Must},
		{"array with document", ArrayOf(atom(Integer)), AnyDocumentSchema(), Not},
		{"anyOf mixed", AnyOf(atom(Integer), atom(String)), atom(Long), May},
		{"anyOf all numeric", Numeric(), atom(Long), Must},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsComparableWith(tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got := tt.b.IsComparableWith(tt.a); got != tt.want {
				t.Errorf("reversed: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasOverlappingKeysWith(t *testing.T) {
	a := closedDoc(map[string]Schema{"a": atom(Integer)}, "a")
	aOptional := closedDoc(map[string]Schema{"a": atom(String)})
	b := closedDoc(map[string]Schema{"b": atom(Integer)}, "b")

	if got := a.HasOverlappingKeysWith(a); got != Must {
		t.Errorf("same required key: got %v, want Must", got)
	}
	if got := a.HasOverlappingKeysWith(aOptional); got != May {
		t.Errorf("optional key: got %v, want May", got)
	}
	if got := a.HasOverlappingKeysWith(b); got != Not {
		t.Errorf("disjoint: got %v, want Not", got)
	}
	if got := a.HasOverlappingKeysWith(AnyDocumentSchema()); got != May {
		t.Errorf("open: got %v, want May", got)
	}
	if got := AnyOf(a, b).HasOverlappingKeysWith(b); got != May {
		t.Errorf("anyOf: got %v, want May", got)
	}
}

func TestMeet(t *testing.T) {
	if Meet(Must, Must) != Must || Meet(Not, Not) != Not || Meet(May, May) != May {
		t.Error("meet of equal verdicts must be idempotent")
	}
	if Meet(Must, Not) != May || Meet(Not, May) != May {
		t.Error("meet of differing verdicts must be May")
	}
	if got := meetAll(nil, func(Satisfaction) Satisfaction { return Not }); got != Must {
		t.Errorf("empty meet = %v, want Must", got)
	}
}
