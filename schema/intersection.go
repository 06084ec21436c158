package schema

// Intersection returns the schema matched by values that match both s and
// other.
func (s Schema) Intersection(other Schema) Schema {
	switch {
	case s.kind == KindAny:
		return other
	case other.kind == KindAny:
		return s
	case s.kind == KindUnsat || other.kind == KindUnsat:
		return Unsat()
	case s.kind == KindAnyOf || other.kind == KindAnyOf:
		return intersectBranches(s, other)
	case s.kind != other.kind:
		return Unsat()
	}

	switch s.kind {
	case KindMissing:
		return s
	case KindAtomic:
		if s.atomic == other.atomic {
			return s
		}
	case KindArray:
		items := s.items.Intersection(*other.items)
		if items.kind != KindUnsat {
			return ArrayOf(items)
		}
	case KindDocument:
		return s.doc.intersection(other.doc)
	}
	return Unsat()
}

// intersectBranches intersects every pairing of branches and keeps the
// satisfiable results.
func intersectBranches(a, b Schema) Schema {
	var kept []Schema
	for _, pair := range CartesianProduct(a, b) {
		x := pair[0].Intersection(pair[1])
		if !x.isUnsatEquivalent() {
			kept = append(kept, x)
		}
	}
	if len(kept) == 0 {
		return Unsat()
	}
	return AnyOf(kept...).Simplify()
}

func (d *Document) intersection(o *Document) Schema {
	switch {
	case d.isAny():
		return DocumentType(*o)
	case o.isAny():
		return DocumentType(*d)
	}

	keys := make(map[string]Schema, len(d.Keys))
	for field, ds := range d.Keys {
		os, ok := o.Keys[field]
		switch {
		case ok:
			if x := ds.Intersection(os); !x.isUnsatEquivalent() {
				keys[field] = x
			}
		case o.AdditionalProperties:
			keys[field] = ds
		}
	}
	if d.AdditionalProperties {
		for field, os := range o.Keys {
			if !d.hasKey(field) {
				keys[field] = os
			}
		}
	}
	if len(keys) == 0 && (len(d.Keys) > 0 || len(o.Keys) > 0) {
		return Unsat()
	}

	out := Document{
		Keys:                 keys,
		References:           mergeReferences(d.References, o.References),
		Required:             newFieldSet(),
		AdditionalProperties: d.AdditionalProperties && o.AdditionalProperties,
	}
	for _, field := range d.RequiredFields() {
		if o.requires(field) {
			out.Required.Insert(field)
		}
	}
	return Schema{kind: KindDocument, doc: &out}
}

// CartesianProduct expands the branches of every input into all combinations,
// one schema per input in each combination. Non-AnyOf inputs contribute a
// single branch; an input with no branches yields no combinations.
func CartesianProduct(schemas ...Schema) [][]Schema {
	out := [][]Schema{{}}
	for _, s := range schemas {
		branches := s.branches()
		next := make([][]Schema, 0, len(out)*len(branches))
		for _, prefix := range out {
			for _, b := range branches {
				combo := make([]Schema, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, b))
			}
		}
		out = next
	}
	return out
}
