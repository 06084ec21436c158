package erd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/speakeasy-api/bsonschema/jsonschema"
	"github.com/speakeasy-api/bsonschema/schema"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format is a serialization of an Erd.
type Format string

const (
	FormatBSON    Format = "bson"
	FormatExtJSON Format = "json"
	FormatYAML    Format = "yaml"
)

// FormatFromPath picks a format from a file extension. Unknown extensions are
// read as extended JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bson":
		return FormatBSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatExtJSON
}

// Options configures loading.
type Options struct {
	Schema schema.Options
	Logger *zap.Logger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{Schema: schema.DefaultOptions(), Logger: zap.NewNop()}
}

// entityRecord and record are the wire shape of an Erd.
type entityRecord struct {
	DB         string             `bson:"db" yaml:"db"`
	Collection string             `bson:"collection" yaml:"collection"`
	PrimaryKey []string           `bson:"primaryKey" yaml:"primaryKey"`
	JSONSchema *jsonschema.Schema `bson:"jsonSchema" yaml:"jsonSchema"`
}

type record struct {
	SchemaName string                  `bson:"schemaName" yaml:"schemaName"`
	Entities   map[string]entityRecord `bson:"entities" yaml:"entities"`
}

func (e *Erd) toRecord() (record, error) {
	out := record{SchemaName: e.SchemaName, Entities: make(map[string]entityRecord, len(e.Entities))}
	for _, name := range e.EntityNames() {
		ent := e.Entities[name]
		js, err := schema.ToJSONSchema(ent.Schema)
		if err != nil {
			return record{}, fmt.Errorf("entity %q: %w", name, err)
		}
		out.Entities[name] = entityRecord{
			DB:         ent.DB,
			Collection: ent.Collection,
			PrimaryKey: ent.PrimaryKey,
			JSONSchema: js,
		}
	}
	return out, nil
}

func fromRecord(r record, opts schema.Options) (*Erd, error) {
	out := New(r.SchemaName)
	for name, ent := range r.Entities {
		s, err := schema.FromJSONSchemaWithOptions(ent.JSONSchema, opts)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
		out.Entities[name] = Entity{
			DB:         ent.DB,
			Collection: ent.Collection,
			PrimaryKey: ent.PrimaryKey,
			Schema:     s,
		}
	}
	return out, nil
}

// MarshalBSON writes e with entities in sorted order, so equal Erds encode to
// equal bytes.
func (e Erd) MarshalBSON() ([]byte, error) {
	r, err := e.toRecord()
	if err != nil {
		return nil, err
	}
	entities := make(bson.D, 0, len(r.Entities))
	for _, name := range e.EntityNames() {
		ent := r.Entities[name]
		pk := ent.PrimaryKey
		if pk == nil {
			pk = []string{}
		}
		entities = append(entities, bson.E{Key: name, Value: bson.D{
			{Key: "db", Value: ent.DB},
			{Key: "collection", Value: ent.Collection},
			{Key: "primaryKey", Value: pk},
			{Key: "jsonSchema", Value: ent.JSONSchema},
		}})
	}
	return bson.Marshal(bson.D{
		{Key: "schemaName", Value: r.SchemaName},
		{Key: "entities", Value: entities},
	})
}

// UnmarshalBSON reads e, converting every jsonSchema into a Schema.
func (e *Erd) UnmarshalBSON(data []byte) error {
	var r record
	if err := bson.Unmarshal(data, &r); err != nil {
		return schema.Wrap(schema.ErrBSONDecode, "decode erd", err)
	}
	out, err := fromRecord(r, schema.DefaultOptions())
	if err != nil {
		return err
	}
	*e = *out
	return nil
}

// MarshalYAML writes e with each jsonSchema as a nested mapping.
func (e Erd) MarshalYAML() (interface{}, error) {
	return e.toRecord()
}

// UnmarshalYAML reads e from a YAML mapping.
func (e *Erd) UnmarshalYAML(node *yaml.Node) error {
	var r record
	if err := node.Decode(&r); err != nil {
		return err
	}
	out, err := fromRecord(r, schema.DefaultOptions())
	if err != nil {
		return err
	}
	*e = *out
	return nil
}

// Decode reads an Erd in the given format.
func Decode(data []byte, format Format, opts Options) (*Erd, error) {
	var r record
	switch format {
	case FormatBSON:
		if err := bson.Unmarshal(data, &r); err != nil {
			return nil, schema.Wrap(schema.ErrBSONDecode, "decode erd", err)
		}
	case FormatExtJSON:
		var raw bson.Raw
		if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
			return nil, schema.Wrap(schema.ErrBSONDecode, "parse erd", err)
		}
		if err := bson.Unmarshal(raw, &r); err != nil {
			return nil, schema.Wrap(schema.ErrBSONDecode, "decode erd", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decode erd: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown erd format %q", format)
	}

	out, err := fromRecord(r, opts.Schema)
	if err != nil {
		return nil, err
	}
	opts.logger().Debug("erd decoded",
		zap.String("schema_name", out.SchemaName),
		zap.Int("entities", len(out.Entities)),
		zap.String("format", string(format)))
	return out, nil
}

// Encode writes e in the given format.
func (e *Erd) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatBSON:
		return e.MarshalBSON()
	case FormatExtJSON:
		data, err := e.MarshalBSON()
		if err != nil {
			return nil, err
		}
		return bson.MarshalExtJSON(bson.Raw(data), false, false)
	case FormatYAML:
		return yaml.Marshal(e)
	}
	return nil, fmt.Errorf("unknown erd format %q", format)
}

// ReadFile loads an Erd, choosing the format from the file extension.
func ReadFile(path string, opts Options) (*Erd, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read erd: %w", err)
	}
	out, err := Decode(data, FormatFromPath(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// WriteFile saves e, choosing the format from the file extension.
func (e *Erd) WriteFile(path string) error {
	data, err := e.Encode(FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
