package schema

// Satisfies answers whether every value matched by s necessarily (Must),
// possibly (May) or never (Not) matches other.
func (s Schema) Satisfies(other Schema) Satisfaction {
	switch {
	case s.isUnsatEquivalent():
		return Must
	case other.isUnsatEquivalent():
		return Not
	case other.kind == KindAny:
		return Must
	case s.kind == KindAny:
		return May
	case s.kind == KindAnyOf:
		return meetAll(s.anyOf, func(b Schema) Satisfaction { return b.Satisfies(other) })
	case other.kind == KindAnyOf:
		return bestOf(other.anyOf, func(b Schema) Satisfaction { return s.Satisfies(b) })
	case s.kind != other.kind:
		return Not
	}

	switch s.kind {
	case KindMissing:
		return Must
	case KindAtomic:
		if s.atomic == other.atomic {
			return Must
		}
		return Not
	case KindArray:
		return s.items.Satisfies(*other.items)
	case KindDocument:
		return s.doc.satisfies(other.doc)
	}
	return Not
}

// satisfies compares two documents field by field. Optional fields are
// compared as their schema unioned with Missing on both sides.
func (d *Document) satisfies(o *Document) Satisfaction {
	out := Must
	if !o.AdditionalProperties {
		for _, field := range d.RequiredFields() {
			if !o.hasKey(field) && !o.requires(field) {
				return Not
			}
		}
		if d.AdditionalProperties {
			out = May
		}
		for _, field := range d.SortedKeys() {
			if o.hasKey(field) || o.requires(field) {
				continue
			}
			if d.Keys[field].Satisfies(Missing()) != Must {
				out = May
			}
		}
	}

	for _, field := range o.SortedKeys() {
		switch d.fieldSchema(field).Satisfies(o.fieldSchema(field)) {
		case Not:
			return Not
		case May:
			out = May
		}
	}

	for _, field := range o.RequiredFields() {
		if d.requires(field) {
			continue
		}
		if d.provablyAbsent(field) {
			return Not
		}
		out = May
	}
	return out
}

// IsComparableWith reports whether values of s and other can be operands of
// the same ordering or equality comparison.
func (s Schema) IsComparableWith(other Schema) Satisfaction {
	switch {
	case s.nullComparable() || other.nullComparable():
		return Must
	case s.kind == KindAny || other.kind == KindAny:
		return May
	case s.kind == KindAnyOf:
		return meetAll(s.anyOf, func(b Schema) Satisfaction { return b.IsComparableWith(other) })
	case other.kind == KindAnyOf:
		return meetAll(other.anyOf, func(b Schema) Satisfaction { return s.IsComparableWith(b) })
	case s.kind == KindAtomic && s.atomic.isOpaque(), other.kind == KindAtomic && other.atomic.isOpaque():
		return Not
	case s.kind != other.kind:
		return Not
	}

	switch s.kind {
	case KindAtomic:
		if s.atomic == other.atomic || (s.atomic.IsNumeric() && other.atomic.IsNumeric()) {
			return Must
		}
		return Not
	case KindArray:
		return s.items.IsComparableWith(*other.items)
	case KindDocument:
		return Must
	}
	return Not
}

// nullComparable holds for the schemas that compare with anything.
func (s Schema) nullComparable() bool {
	return s.kind == KindUnsat || s.kind == KindMissing || s.isAtomic(Null)
}

// ContainsField reports whether a value of s has the named top-level field.
func (s Schema) ContainsField(field string) Satisfaction {
	switch s.kind {
	case KindAny:
		return May
	case KindAnyOf:
		return meetAll(s.anyOf, func(b Schema) Satisfaction { return b.ContainsField(field) })
	case KindDocument:
		switch {
		case s.doc.requires(field):
			return Must
		case s.doc.hasKey(field), s.doc.AdditionalProperties:
			return May
		}
	}
	return Not
}

// IsNullish reports whether values of s are null or absent.
func (s Schema) IsNullish() Satisfaction {
	return s.Satisfies(Nullish())
}

// HasOverlappingKeysWith reports whether a value of s and a value of other
// share a top-level field name.
func (s Schema) HasOverlappingKeysWith(other Schema) Satisfaction {
	switch {
	case s.kind == KindAnyOf:
		return meetAll(s.anyOf, func(b Schema) Satisfaction { return b.HasOverlappingKeysWith(other) })
	case other.kind == KindAnyOf:
		return meetAll(other.anyOf, func(b Schema) Satisfaction { return s.HasOverlappingKeysWith(b) })
	case s.kind == KindAny && (other.kind == KindAny || other.kind == KindDocument):
		return May
	case other.kind == KindAny && s.kind == KindDocument:
		return May
	case s.kind != KindDocument || other.kind != KindDocument:
		return Not
	}

	a, b := s.doc, other.doc
	for _, field := range a.RequiredFields() {
		if b.requires(field) {
			return Must
		}
	}
	aNames, bNames := a.fieldNames(), b.fieldNames()
	switch {
	case a.AdditionalProperties && b.AdditionalProperties,
		a.AdditionalProperties && len(bNames) > 0,
		b.AdditionalProperties && len(aNames) > 0:
		return May
	}
	for _, field := range aNames {
		if b.hasKey(field) || b.requires(field) {
			return May
		}
	}
	return Not
}
