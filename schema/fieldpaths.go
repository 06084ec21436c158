package schema

import (
	"slices"
	"strings"
)

// Unbounded disables the length bound of EnumerateFieldPaths.
const Unbounded = -1

// FieldPath is a dotted field path split into its components.
type FieldPath []string

func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// EnumerateFieldPaths lists every field path of at most maxLength components
// that a value of s can have. It fails with ErrCannotEnumerateAllFieldPaths
// when it reaches Any or an open document, since their paths are unknown.
//
// The boolean reports whether every disjunction that carries a document is
// polymorphic only in optionality: each of its branches is a document, null
// or Missing.
func (s Schema) EnumerateFieldPaths(maxLength int) ([]FieldPath, bool, error) {
	paths, nullableOnly, err := s.enumerateFieldPaths(maxLength)
	if err != nil {
		return nil, false, err
	}
	slices.SortFunc(paths, func(a, b FieldPath) int { return slices.Compare(a, b) })
	paths = slices.CompactFunc(paths, func(a, b FieldPath) bool { return slices.Equal(a, b) })
	return paths, nullableOnly, nil
}

func (s Schema) enumerateFieldPaths(remaining int) ([]FieldPath, bool, error) {
	if remaining == 0 {
		return []FieldPath{{}}, true, nil
	}
	next := remaining
	if next > 0 {
		next--
	}

	switch s.kind {
	case KindAny:
		return nil, false, CannotEnumerateError(s)
	case KindUnsat, KindMissing:
		return nil, true, nil
	case KindAtomic, KindArray:
		return []FieldPath{{}}, true, nil
	case KindDocument:
		if s.doc.AdditionalProperties {
			return nil, false, CannotEnumerateError(s)
		}
		var out []FieldPath
		nullableOnly := true
		for _, field := range s.doc.SortedKeys() {
			sub, ok, err := s.doc.Keys[field].enumerateFieldPaths(next)
			if err != nil {
				return nil, false, err
			}
			nullableOnly = nullableOnly && ok
			// A closed document with no keys still has its own path.
			if len(sub) == 0 && s.doc.Keys[field].Satisfies(Missing()) != Must {
				out = append(out, FieldPath{field})
				continue
			}
			for _, p := range sub {
				out = append(out, append(FieldPath{field}, p...))
			}
		}
		return out, nullableOnly, nil
	}

	// Document branches are merged first so that duplicated document shapes
	// do not read as polymorphism.
	var (
		branches []Schema
		doc      *Document
	)
	for _, b := range s.anyOf {
		if b.kind != KindDocument {
			branches = append(branches, b)
			continue
		}
		if doc == nil {
			d := b.doc.clone()
			doc = &d
		} else {
			d := doc.Union(*b.doc)
			doc = &d
		}
	}
	nullableOnly := true
	if doc != nil {
		branches = append(branches, Schema{kind: KindDocument, doc: doc})
		for _, b := range branches {
			if b.kind != KindDocument && b.kind != KindMissing && !b.isAtomic(Null) {
				nullableOnly = false
			}
		}
	}
	var out []FieldPath
	for _, b := range branches {
		sub, ok, err := b.enumerateFieldPaths(remaining)
		if err != nil {
			return nil, false, err
		}
		nullableOnly = nullableOnly && ok
		out = append(out, sub...)
	}
	return out, nullableOnly, nil
}
