package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/speakeasy-api/bsonschema/erd"
	"github.com/speakeasy-api/bsonschema/jsonschema"
	"github.com/speakeasy-api/bsonschema/pkg/oasexport"
	"github.com/speakeasy-api/bsonschema/sample"
	"github.com/speakeasy-api/bsonschema/schema"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// reportTimeFormat is the strftime layout used for report timestamps.
const reportTimeFormat = "%Y-%m-%d %H:%M:%S %Z"

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) runInfer(argv []string) error {
	fs := a.newFlagSet("infer")
	output := fs.String("o", "", "write the $jsonSchema to this file instead of stdout")
	report := fs.Bool("report", false, "print a summary of the sampled documents to stderr")
	if err := fs.Parse(argv); err != nil {
		return usageError("infer: %v", err)
	}
	if fs.NArg() > 1 {
		return usageError("infer takes at most one input file")
	}

	in := a.stdin
	source := "stdin"
	if fs.NArg() == 1 {
		source = fs.Arg(0)
		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	started := a.clock()
	sampler := sample.NewSampler(a.cfg.samplerOptions(a.logger))
	if err := sampler.ReadExtJSON(context.Background(), in); err != nil {
		return fmt.Errorf("infer from %s: %w", source, err)
	}
	inferred := sampler.Schema()
	a.logger.Info("schema inferred", zap.String("source", source), schema.Field("schema", inferred))

	out, err := a.encodeSchema(inferred)
	if err != nil {
		return err
	}
	if err := a.writeOutput(*output, out); err != nil {
		return err
	}

	if *report {
		stats := sampler.Stats()
		t := newTable("FIELD", "VALUE")
		t.add("source", source)
		t.add("documents", strconv.Itoa(stats.Documents))
		t.add("distinct shapes", strconv.Itoa(stats.DistinctShapes))
		t.add("unions", strconv.FormatUint(uint64(stats.NumUnions), 10))
		t.add("average jaccard index", strconv.FormatFloat(stats.AvgJI, 'f', 3, 64))
		t.add("collapsed", strconv.FormatBool(stats.Collapsed))
		t.add("started", timefmt.Format(started, reportTimeFormat))
		t.add("finished", timefmt.Format(a.clock(), reportTimeFormat))
		return t.write(a.stderr)
	}
	return nil
}

func (a *app) runUnion(argv []string) error {
	fs := a.newFlagSet("union")
	output := fs.String("o", "", "write the $jsonSchema to this file instead of stdout")
	if err := fs.Parse(argv); err != nil {
		return usageError("union: %v", err)
	}
	if fs.NArg() < 2 {
		return usageError("union needs at least two schema files")
	}

	var (
		schemas []schema.Schema
		errs    error
	)
	for _, path := range fs.Args() {
		s, err := a.readSchema(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		schemas = append(schemas, s)
	}
	if errs != nil {
		return errs
	}

	combined := schema.Unions(schemas...)
	a.logger.Debug("schemas combined", zap.Int("inputs", len(schemas)), schema.Field("schema", combined))
	out, err := a.encodeSchema(combined)
	if err != nil {
		return err
	}
	return a.writeOutput(*output, out)
}

func (a *app) runPaths(argv []string) error {
	fs := a.newFlagSet("paths")
	maxLength := fs.Int("max-length", schema.Unbounded, "longest path to list, -1 for no limit")
	if err := fs.Parse(argv); err != nil {
		return usageError("paths: %v", err)
	}
	if fs.NArg() != 1 {
		return usageError("paths needs exactly one schema file")
	}

	s, err := a.readSchema(fs.Arg(0))
	if err != nil {
		return err
	}
	paths, nullableOnly, err := s.EnumerateFieldPaths(*maxLength)
	if err != nil {
		return fmt.Errorf("%s: %w", fs.Arg(0), err)
	}

	t := newTable("PATH", "PRESENCE")
	for _, p := range paths {
		t.add(p.String(), pathPresence(s, p).String())
	}
	if err := t.write(a.stdout); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "\n%d paths, nullable-only polymorphism: %t\n", len(paths), nullableOnly)
	return err
}

func (a *app) runErd(argv []string) error {
	if len(argv) == 0 {
		return usageError("erd needs a subcommand: validate or export")
	}
	switch argv[0] {
	case "validate":
		return a.runErdValidate(argv[1:])
	case "export":
		return a.runErdExport(argv[1:])
	}
	return usageError("unknown erd subcommand %q", argv[0])
}

func (a *app) runErdValidate(argv []string) error {
	fs := a.newFlagSet("erd validate")
	if err := fs.Parse(argv); err != nil {
		return usageError("erd validate: %v", err)
	}
	if fs.NArg() != 1 {
		return usageError("erd validate needs exactly one ERD file")
	}

	e, err := a.readErd(fs.Arg(0))
	if err != nil {
		return err
	}
	problems := multierr.Errors(e.Validate())
	if len(problems) == 0 {
		_, err := fmt.Fprintf(a.stdout, "%s: %d entities, no problems\n", e.SchemaName, len(e.Entities))
		return err
	}

	t := newTable("KIND", "FIELD", "MESSAGE")
	for _, p := range problems {
		var se *schema.Error
		if errors.As(p, &se) {
			t.add(string(se.Kind), se.Field, se.Message)
		} else {
			t.add("", "", p.Error())
		}
	}
	if err := t.write(a.stdout); err != nil {
		return err
	}
	return fmt.Errorf("%s: %d problems", fs.Arg(0), len(problems))
}

func (a *app) runErdExport(argv []string) error {
	fs := a.newFlagSet("erd export")
	output := fs.String("o", "", "write the OpenAPI document to this file instead of stdout")
	if err := fs.Parse(argv); err != nil {
		return usageError("erd export: %v", err)
	}
	if fs.NArg() != 1 {
		return usageError("erd export needs exactly one ERD file")
	}

	e, err := a.readErd(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%s is not valid: %w", fs.Arg(0), err)
	}

	var b strings.Builder
	if err := oasexport.ExportERD(context.Background(), e, &b); err != nil {
		return fmt.Errorf("export %s: %w", fs.Arg(0), err)
	}
	return a.writeOutput(*output, []byte(b.String()))
}

// readSchema reads a $jsonSchema file: BSON for .bson, extended JSON
// otherwise.
func (a *app) readSchema(path string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("read schema: %w", err)
	}

	var js *jsonschema.Schema
	if strings.EqualFold(filepath.Ext(path), ".bson") {
		js, err = jsonschema.Unmarshal(data)
	} else {
		js, err = jsonschema.UnmarshalExtJSON(data)
	}
	if err != nil {
		return schema.Schema{}, fmt.Errorf("%s: %w", path, err)
	}

	s, err := schema.FromJSONSchemaWithOptions(js, a.cfg.schemaOptions())
	if err != nil {
		return schema.Schema{}, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("schema read", zap.String("path", path), schema.Field("schema", s))
	return s, nil
}

func (a *app) readErd(path string) (*erd.Erd, error) {
	e, err := erd.ReadFile(path, erd.Options{Schema: a.cfg.schemaOptions(), Logger: a.logger})
	if err != nil {
		return nil, fmt.Errorf("read erd: %w", err)
	}
	return e, nil
}

func (a *app) encodeSchema(s schema.Schema) ([]byte, error) {
	js, err := schema.ToJSONSchemaWithOptions(s, a.cfg.schemaOptions())
	if err != nil {
		return nil, err
	}
	out, err := jsonschema.MarshalExtJSON(js)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// writeOutput writes data to path, or to stdout when path is empty.
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	a.logger.Info("output written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (a *app) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

// pathPresence is how certainly a value of s has path: Must when every value
// has it, Not when none can.
func pathPresence(s schema.Schema, path schema.FieldPath) schema.Satisfaction {
	out := schema.Must
	for _, field := range path {
		out = min(out, s.ContainsField(field))
		if out == schema.Not {
			return out
		}
		s = fieldSchema(s, field)
	}
	return out
}

// fieldSchema is the union of the schemas field has across the document
// branches of s. Undeclared fields are Any.
func fieldSchema(s schema.Schema, field string) schema.Schema {
	branches := s.Branches()
	if branches == nil {
		branches = []schema.Schema{s}
	}
	out := schema.Unsat()
	found := false
	for _, b := range branches {
		d, ok := b.Document()
		if !ok {
			continue
		}
		v, ok := d.Keys[field]
		if !ok {
			return schema.Any()
		}
		out = out.Union(v)
		found = true
	}
	if !found {
		return schema.Any()
	}
	return out
}
