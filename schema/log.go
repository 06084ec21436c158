package schema

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ----------------------------------------------------------------------------
// Helpers: schema summaries for logs, truncation
// ----------------------------------------------------------------------------

// Summary returns a compact one-line representation of a schema's shape,
// descending at most maxDepth levels and truncating long key lists.
func Summary(s Schema, maxDepth int) string {
	opts := DefaultOptions()
	opts.LogSummaryDepth = maxDepth
	return opts.Summary(s)
}

// Summary renders s using the configured truncation limits.
func (o Options) Summary(s Schema) string {
	var b strings.Builder
	o.summarize(&b, s, o.LogSummaryDepth)
	return b.String()
}

func (o Options) summarize(b *strings.Builder, s Schema, depth int) {
	switch s.kind {
	case KindUnsat, KindMissing, KindAny:
		b.WriteString(s.kind.String())
	case KindAtomic:
		b.WriteString(s.atomic.String())
	case KindArray:
		if depth <= 0 {
			b.WriteString("array[...]")
			return
		}
		b.WriteString("array[")
		o.summarize(b, *s.items, depth-1)
		b.WriteString("]")
	case KindDocument:
		b.WriteString("doc{")
		keys := s.doc.SortedKeys()
		if depth <= 0 {
			fmt.Fprintf(b, "~%d keys", len(keys))
		} else {
			shown, extra := truncateList(keys, o.LogMaxProps)
			for i, k := range shown {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(k)
				if s.doc.requires(k) {
					b.WriteString("!")
				}
				b.WriteString(": ")
				o.summarize(b, s.doc.Keys[k], depth-1)
			}
			if extra > 0 {
				fmt.Fprintf(b, ", +%d", extra)
			}
		}
		if s.doc.AdditionalProperties {
			b.WriteString(", ...")
		}
		b.WriteString("}")
	case KindAnyOf:
		if depth <= 0 {
			fmt.Fprintf(b, "anyOf(%d)", len(s.anyOf))
			return
		}
		shown, extra := truncateList(s.anyOf, o.LogMaxAnyOfBranches)
		b.WriteString("anyOf(")
		for i, branch := range shown {
			if i > 0 {
				b.WriteString(" | ")
			}
			o.summarize(b, branch, depth-1)
		}
		if extra > 0 {
			fmt.Fprintf(b, " | +%d", extra)
		}
		b.WriteString(")")
	}
}

// truncateList returns at most n items and how many were left out.
func truncateList[T any](items []T, n int) ([]T, int) {
	if n <= 0 || len(items) <= n {
		return items, 0
	}
	return items[:n], len(items) - n
}

// Field is a zap field that renders s as a summary only if the entry is
// actually written.
func Field(key string, s Schema) zap.Field {
	return zap.Object(key, summaryMarshaler{s: s, opts: DefaultOptions()})
}

type summaryMarshaler struct {
	s    Schema
	opts Options
}

func (m summaryMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", m.s.kind.String())
	enc.AddString("shape", m.opts.Summary(m.s))
	if m.s.kind == KindDocument {
		enc.AddInt("keys", len(m.s.doc.Keys))
		enc.AddBool("open", m.s.doc.AdditionalProperties)
		if ji := m.s.doc.JaccardIndex; ji != nil {
			enc.AddFloat64("avg_ji", ji.AvgJI)
			enc.AddUint32("num_unions", ji.NumUnions)
		}
	}
	return nil
}
