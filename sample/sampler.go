package sample

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/speakeasy-api/bsonschema/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Options configures a Sampler.
type Options struct {
	Schema schema.Options
	Logger *zap.Logger

	// MaxLineBytes bounds a single extended JSON document read by ReadExtJSON.
	MaxLineBytes int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Schema:       schema.DefaultOptions(),
		Logger:       zap.NewNop(),
		MaxLineBytes: 16 << 20,
	}
}

// Stats describes what a Sampler has seen.
type Stats struct {
	Documents      int
	DistinctShapes int
	Collapsed      bool
	NumUnions      uint32
	AvgJI          float64
}

// Sampler folds documents into one schema with Document.Union, tracking key
// set similarity so that a collection without a stable shape ends up as an
// open document instead of an ever-growing one. It is safe for concurrent use.
type Sampler struct {
	opts   Options
	logger *zap.Logger
	shapes *schema.Fingerprinter

	mu        sync.Mutex
	acc       *schema.Document
	documents int
	collapsed bool
}

// NewSampler creates a Sampler.
func NewSampler(opts Options) *Sampler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Schema == (schema.Options{}) {
		opts.Schema = schema.DefaultOptions()
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultOptions().MaxLineBytes
	}
	return &Sampler{
		opts:   opts,
		logger: logger.Named("sampler"),
		shapes: schema.NewFingerprinter(),
	}
}

// Add folds one document into the running schema.
func (s *Sampler) Add(doc bson.Raw) error {
	d, err := documentOf(doc, 1, s.opts.Schema.MaxDepth)
	if err != nil {
		return err
	}
	sum, first := s.shapes.Observe(schema.DocumentType(d))
	if first {
		s.logger.Debug("new document shape",
			zap.String("fingerprint", sum[:12]),
			schema.Field("shape", schema.DocumentType(d)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents++
	if s.acc == nil {
		acc := d.WithJaccardIndex(s.opts.Schema.NewJaccardIndex())
		s.acc = &acc
		return nil
	}
	acc := s.acc.Union(d)
	s.acc = &acc
	if !s.collapsed && acc.Equal(schema.AnyDocument()) {
		s.collapsed = true
		s.logger.Warn("document shapes are not stable, abandoning precision",
			zap.Int("documents", s.documents),
			zap.Uint32("num_unions", acc.JaccardIndex.NumUnions),
			zap.Float64("avg_ji", acc.JaccardIndex.AvgJI),
			zap.Float64("stability_limit", acc.JaccardIndex.StabilityLimit))
	}
	return nil
}

// AddAll folds every document, stopping early if ctx is done.
func (s *Sampler) AddAll(ctx context.Context, docs []bson.Raw) error {
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Add(doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

// ReadExtJSON folds documents written as extended JSON, one per line. Blank
// lines are skipped.
func (s *Sampler) ReadExtJSON(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), s.opts.MaxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var raw bson.Raw
		if err := bson.UnmarshalExtJSON(text, false, &raw); err != nil {
			return schema.Wrap(schema.ErrBSONDecode, fmt.Sprintf("line %d", line), err)
		}
		if err := s.Add(raw); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	return nil
}

// Schema returns the schema of everything added so far. Before the first
// document it is Unsat.
func (s *Sampler) Schema() schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acc == nil {
		return schema.Unsat()
	}
	return schema.DocumentType(*s.acc)
}

// Stats returns counters for everything added so far.
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		Documents:      s.documents,
		DistinctShapes: s.shapes.Distinct(),
		Collapsed:      s.collapsed,
	}
	if s.acc != nil && s.acc.JaccardIndex != nil {
		out.NumUnions = s.acc.JaccardIndex.NumUnions
		out.AvgJI = s.acc.JaccardIndex.AvgJI
	}
	return out
}
