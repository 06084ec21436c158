package schema

import (
	"cmp"
	"slices"
	"sync"

	"github.com/hashicorp/go-set/v3"
)

// Kind identifies the variant held by a Schema. The declaration order is the
// structural order between variants.
type Kind uint8

const (
	KindUnsat Kind = iota
	KindMissing
	KindAtomic
	KindArray
	KindDocument
	KindAnyOf
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindUnsat:
		return "Unsat"
	case KindMissing:
		return "Missing"
	case KindAtomic:
		return "Atomic"
	case KindArray:
		return "Array"
	case KindDocument:
		return "Document"
	case KindAnyOf:
		return "AnyOf"
	case KindAny:
		return "Any"
	default:
		return "Unknown"
	}
}

// Schema is an immutable structural type over BSON values. The zero value is
// Unsat. Values are safe to share between goroutines; every operation returns
// a new Schema.
type Schema struct {
	kind   Kind
	atomic Atomic
	items  *Schema
	doc    *Document
	anyOf  []Schema
}

// Unsat matches no value.
func Unsat() Schema { return Schema{kind: KindUnsat} }

// Missing matches an absent field.
func Missing() Schema { return Schema{kind: KindMissing} }

// Any matches every BSON value and Missing.
func Any() Schema { return Schema{kind: KindAny} }

// AtomicType matches values of a single BSON kind.
func AtomicType(a Atomic) Schema { return Schema{kind: KindAtomic, atomic: a} }

// ArrayOf matches arrays whose elements all match items. ArrayOf(Unsat())
// matches only the empty array.
func ArrayOf(items Schema) Schema {
	return Schema{kind: KindArray, items: &items}
}

// DocumentType wraps a copy of d.
func DocumentType(d Document) Schema {
	c := d.clone()
	return Schema{kind: KindDocument, doc: &c}
}

// AnyOf builds a disjunction from a deduplicated, sorted copy of branches. It
// does not flatten or collapse; call Simplify for canonical form.
func AnyOf(branches ...Schema) Schema {
	return Schema{kind: KindAnyOf, anyOf: set.TreeSetFrom(branches, Compare).Slice()}
}

// Kind returns the variant held by s.
func (s Schema) Kind() Kind { return s.kind }

// Atomic returns the atomic kind when s is an Atomic schema.
func (s Schema) Atomic() (Atomic, bool) {
	return s.atomic, s.kind == KindAtomic
}

// Items returns the element schema when s is an Array schema.
func (s Schema) Items() (Schema, bool) {
	if s.kind != KindArray {
		return Schema{}, false
	}
	return *s.items, true
}

// Document returns a copy of the document when s is a Document schema.
func (s Schema) Document() (Document, bool) {
	if s.kind != KindDocument {
		return Document{}, false
	}
	return s.doc.clone(), true
}

// Branches returns a copy of the branches when s is an AnyOf schema.
func (s Schema) Branches() []Schema {
	if s.kind != KindAnyOf {
		return nil
	}
	return slices.Clone(s.anyOf)
}

// branches treats a non-AnyOf schema as a one-branch disjunction.
func (s Schema) branches() []Schema {
	if s.kind == KindAnyOf {
		return s.anyOf
	}
	return []Schema{s}
}

func (s Schema) isAtomic(a Atomic) bool {
	return s.kind == KindAtomic && s.atomic == a
}

// isUnsatEquivalent is true for Unsat and for disjunctions with no satisfiable
// branch.
func (s Schema) isUnsatEquivalent() bool {
	switch s.kind {
	case KindUnsat:
		return true
	case KindAnyOf:
		for _, b := range s.anyOf {
			if !b.isUnsatEquivalent() {
				return false
			}
		}
		return true
	}
	return false
}

// Compare is a structural total order: variants by Kind, then by content.
// It exists for deterministic set placement and ignores Jaccard statistics.
func Compare(a, b Schema) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	switch a.kind {
	case KindAtomic:
		return cmp.Compare(a.atomic, b.atomic)
	case KindArray:
		return Compare(*a.items, *b.items)
	case KindDocument:
		return compareDocuments(a.doc, b.doc)
	case KindAnyOf:
		return slices.CompareFunc(a.anyOf, b.anyOf, Compare)
	}
	return 0
}

// Equal reports structural equality, ignoring Jaccard statistics.
func (s Schema) Equal(o Schema) bool {
	return Compare(s, o) == 0
}

// EqualWithJaccardIndex is Equal that also compares the Jaccard statistics of
// every document inside s and o.
func (s Schema) EqualWithJaccardIndex(o Schema) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindAtomic:
		return s.atomic == o.atomic
	case KindArray:
		return s.items.EqualWithJaccardIndex(*o.items)
	case KindDocument:
		return documentsEqualWithJaccard(s.doc, o.doc)
	case KindAnyOf:
		return slices.EqualFunc(s.anyOf, o.anyOf, Schema.EqualWithJaccardIndex)
	}
	return true
}

// Depth is the nesting depth of s, computed without recursion.
func (s Schema) Depth() int {
	type frame struct {
		schema Schema
		depth  int
	}
	stack := newSchemaStack[frame]()
	stack.push(frame{s, 1})
	deepest := 0
	for !stack.empty() {
		f := stack.pop()
		deepest = max(deepest, f.depth)
		switch f.schema.kind {
		case KindArray:
			stack.push(frame{*f.schema.items, f.depth + 1})
		case KindDocument:
			for _, v := range f.schema.doc.Keys {
				stack.push(frame{v, f.depth + 1})
			}
		case KindAnyOf:
			for _, b := range f.schema.anyOf {
				stack.push(frame{b, f.depth + 1})
			}
		}
	}
	return deepest
}

// Keys returns the field names a value of s may carry, in sorted order. Open
// documents contribute only their declared fields.
func (s Schema) Keys() []string {
	names := set.NewTreeSet[string](cmp.Compare[string])
	for _, b := range s.branches() {
		if b.kind == KindDocument {
			names.InsertSlice(b.doc.fieldNames())
		}
	}
	return names.Slice()
}

var (
	unfoldedAny = sync.OnceValue(func() Schema {
		branches := []Schema{Missing(), ArrayOf(Any()), DocumentType(AnyDocument())}
		for _, a := range Atomics() {
			branches = append(branches, AtomicType(a))
		}
		return AnyOf(branches...)
	})
	anyDocumentSchema = sync.OnceValue(func() Schema { return DocumentType(AnyDocument()) })
	anyArraySchema    = sync.OnceValue(func() Schema { return ArrayOf(Any()) })
	numericSchema     = sync.OnceValue(func() Schema {
		return AnyOf(AtomicType(Integer), AtomicType(Long), AtomicType(Double), AtomicType(Decimal))
	})
	nullishSchema = sync.OnceValue(func() Schema { return AnyOf(AtomicType(Null), Missing()) })
)

// UnfoldedAny is Any spelled out as an explicit disjunction of every kind.
func UnfoldedAny() Schema { return unfoldedAny() }

// AnyDocumentSchema is DocumentType(AnyDocument()).
func AnyDocumentSchema() Schema { return anyDocumentSchema() }

// AnyArray matches every array.
func AnyArray() Schema { return anyArraySchema() }

// Numeric matches int, long, double and decimal.
func Numeric() Schema { return numericSchema() }

// Nullish matches null or an absent field.
func Nullish() Schema { return nullishSchema() }
