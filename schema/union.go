package schema

import (
	"slices"
)

// Union returns the narrowest schema this package can express that matches
// every value of s and every value of other. Both inputs are simplified
// first and then ordered, so the case analysis below only sees each pairing
// once.
func (s Schema) Union(other Schema) Schema {
	left, right := s.Simplify(), other.Simplify()
	if Compare(left, right) > 0 {
		left, right = right, left
	}

	switch {
	case left.kind == KindUnsat:
		return right
	case right.kind == KindAny:
		return Any()
	case left.kind == KindAnyOf:
		// Both are disjunctions: fold the lesser one into the greater.
		out := right.anyOf
		for _, b := range left.anyOf {
			out = insertBranch(out, b)
		}
		return collapseAnyOf(out)
	case right.kind == KindAnyOf:
		return collapseAnyOf(insertBranch(right.anyOf, left))
	case left.kind == KindArray && right.kind == KindArray:
		return ArrayOf(left.items.Union(*right.items))
	case left.kind == KindDocument && right.kind == KindDocument:
		return DocumentType(left.doc.Union(*right.doc))
	case left.Equal(right):
		return left
	}
	return AnyOf(left, right)
}

// Unions folds Union over schemas. No input gives Unsat.
func Unions(schemas ...Schema) Schema {
	out := Unsat()
	for _, s := range schemas {
		out = out.Union(s)
	}
	return out
}

// insertBranch adds x to a canonical branch list. Arrays and documents merge
// with the branch of the same kind instead of sitting beside it.
func insertBranch(branches []Schema, x Schema) []Schema {
	out := make([]Schema, 0, len(branches)+1)
	switch x.kind {
	case KindArray:
		var arrays []Schema
		for _, b := range branches {
			if b.kind == KindArray {
				arrays = append(arrays, b)
			} else {
				out = append(out, b)
			}
		}
		switch len(arrays) {
		case 0:
			out = append(out, x)
		case 1:
			out = append(out, ArrayOf(arrays[0].items.Union(*x.items)))
		default:
			out = append(out, AnyArray())
		}
	case KindDocument:
		var doc *Document
		for _, b := range branches {
			if b.kind != KindDocument {
				out = append(out, b)
				continue
			}
			if doc == nil {
				d := b.doc.clone()
				doc = &d
			} else {
				d := doc.Merge(*b.doc)
				doc = &d
			}
		}
		if doc == nil {
			out = append(out, x)
		} else {
			out = append(out, DocumentType(doc.Union(*x.doc)))
		}
	default:
		out = append(slices.Clone(branches), x)
	}
	return out
}

// collapseAnyOf builds a disjunction from already canonical branches and
// collapses it when it has fewer than two, or contains Any.
func collapseAnyOf(branches []Schema) Schema {
	if slices.ContainsFunc(branches, func(b Schema) bool { return b.kind == KindAny }) {
		return Any()
	}
	out := AnyOf(branches...)
	switch len(out.anyOf) {
	case 0:
		return Unsat()
	case 1:
		return out.anyOf[0]
	}
	return out
}

// Union merges two documents as alternatives: keys are unioned, a field stays
// required only if both sides require it, and the result is open if either
// side is. A key declared by one side only becomes Any when the other side is
// open, because that side may carry the key with any value.
//
// When either side tracks a JaccardIndex the union records the similarity of
// the two key sets, and returns AnyDocument (carrying the updated index) once
// the running similarity shows the shape is not stable.
func (d Document) Union(o Document) Document {
	ji := combineJaccard(d.JaccardIndex, o.JaccardIndex)
	if ji != nil {
		*ji = ji.Update(keySimilarity(d.keySet(), o.keySet()))
		if ji.Unstable() {
			out := AnyDocument()
			out.JaccardIndex = ji
			return out
		}
	}

	out := Document{
		Keys:                 unionKeys(&d, &o),
		References:           mergeReferences(d.References, o.References),
		Required:             newFieldSet(),
		AdditionalProperties: d.AdditionalProperties || o.AdditionalProperties,
		JaccardIndex:         ji,
	}
	for _, field := range d.RequiredFields() {
		if o.requires(field) {
			out.Required.Insert(field)
		}
	}
	return out
}

// Merge flattens two documents into one envelope. Unlike Union, a field is
// required if either side requires it.
func (d Document) Merge(o Document) Document {
	out := Document{
		Keys:                 unionKeys(&d, &o),
		References:           mergeReferences(d.References, o.References),
		Required:             newFieldSet(d.RequiredFields()...),
		AdditionalProperties: d.AdditionalProperties || o.AdditionalProperties,
		JaccardIndex:         combineJaccard(d.JaccardIndex, o.JaccardIndex),
	}
	out.Required.InsertSlice(o.RequiredFields())
	return out
}

func unionKeys(a, b *Document) map[string]Schema {
	keys := make(map[string]Schema, len(a.Keys)+len(b.Keys))
	for _, pair := range [][2]*Document{{a, b}, {b, a}} {
		this, that := pair[0], pair[1]
		for _, field := range this.fieldNames() {
			if _, done := keys[field]; done {
				continue
			}
			mine, _ := this.declared(field)
			theirs, ok := that.declared(field)
			switch {
			case ok && !this.hasKey(field) && !that.hasKey(field):
				// Required on both sides with no known schema; the required
				// set already says everything.
			case ok:
				keys[field] = mine.Union(theirs)
			case that.AdditionalProperties:
				keys[field] = Any()
			default:
				keys[field] = mine
			}
		}
	}
	return keys
}
