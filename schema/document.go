package schema

import (
	"cmp"
	"maps"
	"slices"

	"github.com/hashicorp/go-set/v3"
)

// Cardinality of a cross-entity reference.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// Reference is relationship metadata attached to a document field. It is
// carried through every operation untouched; only the join planner reads it.
type Reference struct {
	Entity      string      `bson:"entity" yaml:"entity"`
	Field       string      `bson:"field" yaml:"field"`
	Cardinality Cardinality `bson:"cardinality" yaml:"cardinality"`
}

// Document is a structural record type. Required may name fields that have no
// entry in Keys; such fields are present with an unknown type. When
// AdditionalProperties is false the key set is closed and every other field is
// Missing.
type Document struct {
	Keys                 map[string]Schema
	References           map[string]Reference
	Required             *set.TreeSet[string]
	AdditionalProperties bool
	JaccardIndex         *JaccardIndex
}

// NewDocument builds a document from its parts.
func NewDocument(keys map[string]Schema, required []string, additionalProperties bool) Document {
	return Document{
		Keys:                 maps.Clone(keys),
		Required:             newFieldSet(required...),
		AdditionalProperties: additionalProperties,
	}
}

// AnyDocument is the unconstrained document: no keys, nothing required,
// additional properties allowed.
func AnyDocument() Document {
	return Document{Required: newFieldSet(), AdditionalProperties: true}
}

// EmptyDocument is the closed document with no fields.
func EmptyDocument() Document {
	return Document{Required: newFieldSet()}
}

func newFieldSet(items ...string) *set.TreeSet[string] {
	return set.TreeSetFrom(items, cmp.Compare[string])
}

// WithJaccardIndex returns a copy of d that tracks key-set drift on union.
func (d Document) WithJaccardIndex(j *JaccardIndex) Document {
	out := d.clone()
	out.JaccardIndex = j.clone()
	return out
}

// WithReferences returns a copy of d carrying the given references.
func (d Document) WithReferences(refs map[string]Reference) Document {
	out := d.clone()
	out.References = maps.Clone(refs)
	return out
}

func (d Document) clone() Document {
	out := Document{
		Keys:                 maps.Clone(d.Keys),
		References:           maps.Clone(d.References),
		Required:             newFieldSet(),
		AdditionalProperties: d.AdditionalProperties,
		JaccardIndex:         d.JaccardIndex.clone(),
	}
	if d.Required != nil {
		out.Required = d.Required.Copy()
	}
	return out
}

func (d *Document) requires(field string) bool {
	return d.Required != nil && d.Required.Contains(field)
}

func (d *Document) hasKey(field string) bool {
	_, ok := d.Keys[field]
	return ok
}

// RequiredFields returns the required set in sorted order.
func (d *Document) RequiredFields() []string {
	if d.Required == nil {
		return nil
	}
	return d.Required.Slice()
}

// SortedKeys returns the names in Keys in sorted order.
func (d *Document) SortedKeys() []string {
	return slices.Sorted(maps.Keys(d.Keys))
}

// keySet is the set of names in Keys.
func (d *Document) keySet() *set.Set[string] {
	s := set.New[string](len(d.Keys))
	for k := range d.Keys {
		s.Insert(k)
	}
	return s
}

// fieldNames is Keys ∪ Required in sorted order.
func (d *Document) fieldNames() []string {
	names := d.SortedKeys()
	for _, r := range d.RequiredFields() {
		if !d.hasKey(r) {
			names = append(names, r)
		}
	}
	slices.Sort(names)
	return names
}

// declared returns the schema a field is declared with, treating a required
// field with no known schema as Any.
func (d *Document) declared(field string) (Schema, bool) {
	if s, ok := d.Keys[field]; ok {
		return s, true
	}
	if d.requires(field) {
		return Any(), true
	}
	return Schema{}, false
}

// fieldSchema is the schema of every value the field can take, including
// Missing when the field is optional.
func (d *Document) fieldSchema(field string) Schema {
	if s, ok := d.Keys[field]; ok {
		if d.requires(field) {
			return s
		}
		return withMissing(s)
	}
	if d.requires(field) || d.AdditionalProperties {
		return Any()
	}
	return Missing()
}

// provablyAbsent reports whether no value of d can have the field.
func (d *Document) provablyAbsent(field string) bool {
	if s, ok := d.Keys[field]; ok {
		return s.Satisfies(Missing()) == Must
	}
	return !d.AdditionalProperties && !d.requires(field)
}

// isAny reports whether d is the unconstrained document.
func (d *Document) isAny() bool {
	return d.AdditionalProperties && len(d.Keys) == 0 && (d.Required == nil || d.Required.Empty())
}

func withMissing(s Schema) Schema {
	switch s.kind {
	case KindAny, KindMissing:
		return s
	case KindAnyOf:
		return AnyOf(append(slices.Clone(s.anyOf), Missing())...)
	}
	return AnyOf(s, Missing())
}

// Equal compares structure and ignores the Jaccard statistics.
func (d Document) Equal(o Document) bool {
	return compareDocuments(&d, &o) == 0
}

// EqualWithJaccardIndex is Equal that also compares the Jaccard statistics of
// d, o and every nested document.
func (d Document) EqualWithJaccardIndex(o Document) bool {
	return documentsEqualWithJaccard(&d, &o)
}

func documentsEqualWithJaccard(a, b *Document) bool {
	if !a.JaccardIndex.equal(b.JaccardIndex) || compareDocuments(a, b) != 0 {
		return false
	}
	for k, v := range a.Keys {
		if !v.EqualWithJaccardIndex(b.Keys[k]) {
			return false
		}
	}
	return true
}

func compareDocuments(a, b *Document) int {
	ak, bk := a.SortedKeys(), b.SortedKeys()
	for i := 0; i < min(len(ak), len(bk)); i++ {
		if c := cmp.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := Compare(a.Keys[ak[i]], b.Keys[bk[i]]); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(ak), len(bk)); c != 0 {
		return c
	}
	if c := slices.Compare(a.RequiredFields(), b.RequiredFields()); c != 0 {
		return c
	}
	if a.AdditionalProperties != b.AdditionalProperties {
		if a.AdditionalProperties {
			return 1
		}
		return -1
	}
	return compareReferences(a.References, b.References)
}

func compareReferences(a, b map[string]Reference) int {
	ak := slices.Sorted(maps.Keys(a))
	bk := slices.Sorted(maps.Keys(b))
	for i := 0; i < min(len(ak), len(bk)); i++ {
		if c := cmp.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		ar, br := a[ak[i]], b[bk[i]]
		if c := cmp.Compare(ar.Entity, br.Entity); c != 0 {
			return c
		}
		if c := cmp.Compare(ar.Field, br.Field); c != 0 {
			return c
		}
		if c := cmp.Compare(ar.Cardinality, br.Cardinality); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ak), len(bk))
}

func mergeReferences(a, b map[string]Reference) map[string]Reference {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := maps.Clone(b)
	if out == nil {
		out = make(map[string]Reference, len(a))
	}
	maps.Copy(out, a)
	return out
}
