package schema

import (
	"slices"
)

// Simplify returns the canonical form of s: disjunctions are flattened,
// deduplicated, hold at most one document and at least two branches, and
// document keys no longer mention Missing.
func (s Schema) Simplify() Schema {
	switch s.kind {
	case KindArray:
		return ArrayOf(s.items.Simplify())
	case KindDocument:
		return s.doc.simplify()
	case KindAnyOf:
		return simplifyBranches(s.anyOf)
	}
	return s
}

func simplifyBranches(branches []Schema) Schema {
	var (
		flat []Schema
		doc  *Document
	)
	// Nested disjunctions are unrolled with an explicit stack.
	stack := newSchemaStack[Schema]()
	for _, b := range slices.Backward(branches) {
		stack.push(b)
	}
	for !stack.empty() {
		b := stack.pop()
		if b.kind == KindAnyOf {
			for _, nested := range slices.Backward(b.anyOf) {
				stack.push(nested)
			}
			continue
		}
		b = b.Simplify()
		switch b.kind {
		case KindUnsat:
			continue
		case KindAny:
			return Any()
		case KindDocument:
			if doc == nil {
				d := b.doc.clone()
				doc = &d
			} else {
				d := doc.Merge(*b.doc)
				doc = &d
			}
			continue
		}
		flat = append(flat, b)
	}
	if doc != nil {
		flat = append(flat, doc.simplify())
	}
	return collapseAnyOf(flat)
}

// simplify drops keys that can only be Missing, strips Missing from keys that
// may be absent (making them optional), and keeps the rest.
func (d *Document) simplify() Schema {
	out := d.clone()
	out.Keys = make(map[string]Schema, len(d.Keys))
	for field, v := range d.Keys {
		v = v.Simplify()
		if v.kind == KindAny {
			out.Keys[field] = v
			continue
		}
		switch v.Satisfies(Missing()) {
		case Must:
			out.Required.Remove(field)
		case May:
			out.Keys[field] = v.subtract(func(b Schema) bool { return b.kind == KindMissing })
			out.Required.Remove(field)
		default:
			out.Keys[field] = v
		}
	}
	return Schema{kind: KindDocument, doc: &out}
}

// subtract removes the branches matching drop. A non-disjunction that matches
// becomes Unsat.
func (s Schema) subtract(drop func(Schema) bool) Schema {
	if s.kind != KindAnyOf {
		if drop(s) {
			return Unsat()
		}
		return s
	}
	kept := make([]Schema, 0, len(s.anyOf))
	for _, b := range s.anyOf {
		if b.kind == KindAnyOf {
			b = b.subtract(drop)
		}
		if !drop(b) && !b.isUnsatEquivalent() {
			kept = append(kept, b)
		}
	}
	return collapseAnyOf(kept)
}

// SubtractNullish removes null and Missing from s.
func (s Schema) SubtractNullish() Schema {
	return s.subtract(func(b Schema) bool {
		return b.kind == KindMissing || b.isAtomic(Null)
	})
}

// UpconvertMissingToNull replaces Missing with null at the top level of s,
// matching how an absent field reads in a SQL projection.
func (s Schema) UpconvertMissingToNull() Schema {
	switch s.kind {
	case KindMissing:
		return AtomicType(Null)
	case KindAnyOf:
		branches := make([]Schema, len(s.anyOf))
		for i, b := range s.anyOf {
			branches[i] = b.UpconvertMissingToNull()
		}
		return AnyOf(branches...).Simplify()
	}
	return s
}
