package schema

import (
	"crypto/sha256"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// canonMaxDepth is the guardrail for canonical rendering of pathological
// nesting; deeper levels are replaced by a marker.
const canonMaxDepth = 1000

// Fingerprinter counts distinct schema shapes by their fingerprint. It is safe
// for concurrent use.
type Fingerprinter struct {
	mu   sync.RWMutex
	seen map[string]int
}

// NewFingerprinter creates a new fingerprinter
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{seen: make(map[string]int, 64)}
}

// Observe records s and reports its fingerprint and whether this is the first
// time the shape was seen.
func (fp *Fingerprinter) Observe(s Schema) (string, bool) {
	sum := Fingerprint(s)

	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.seen[sum]++
	return sum, fp.seen[sum] == 1
}

// Count returns how many times the shape with the given fingerprint was seen.
func (fp *Fingerprinter) Count(sum string) int {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return fp.seen[sum]
}

// Distinct returns the number of distinct shapes observed.
func (fp *Fingerprinter) Distinct() int {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return len(fp.seen)
}

// Fingerprint returns a deterministic hex digest of the structure of s.
// Schemas that are Equal have the same fingerprint.
func Fingerprint(s Schema) string {
	sum := sha256.Sum256([]byte(canonicalize(s)))
	return fmt.Sprintf("%x", sum[:])
}

// String renders s in full in a stable, compact notation.
func (s Schema) String() string {
	return canonicalize(s)
}

func canonicalize(s Schema) string {
	var b strings.Builder
	writeCanonical(&b, s, 0)
	return b.String()
}

func writeCanonical(b *strings.Builder, s Schema, depth int) {
	if depth > canonMaxDepth {
		b.WriteString(`{"$max_depth":true}`)
		return
	}
	switch s.kind {
	case KindUnsat, KindMissing, KindAny:
		b.WriteString(s.kind.String())
	case KindAtomic:
		b.WriteString(s.atomic.String())
	case KindArray:
		b.WriteString("[")
		writeCanonical(b, *s.items, depth+1)
		b.WriteString("]")
	case KindDocument:
		b.WriteString("{")
		names := s.doc.fieldNames()
		for i, k := range names {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Quote(k))
			if s.doc.requires(k) {
				b.WriteString("!")
			}
			b.WriteString(":")
			if v, ok := s.doc.Keys[k]; ok {
				writeCanonical(b, v, depth+1)
			} else {
				b.WriteString("?")
			}
		}
		if s.doc.AdditionalProperties {
			if len(names) > 0 {
				b.WriteString(",")
			}
			b.WriteString("...")
		}
		b.WriteString("}")
		for _, k := range slices.Sorted(maps.Keys(s.doc.References)) {
			r := s.doc.References[k]
			fmt.Fprintf(b, "&%s->%s.%s/%s", strconv.Quote(k), r.Entity, r.Field, r.Cardinality)
		}
	case KindAnyOf:
		b.WriteString("anyOf(")
		for i, branch := range s.anyOf {
			if i > 0 {
				b.WriteString("|")
			}
			writeCanonical(b, branch, depth+1)
		}
		b.WriteString(")")
	}
}
