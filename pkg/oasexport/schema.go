// Package oasexport renders schemas and entity descriptions as OpenAPI 3.1
// component schemas.
package oasexport

import (
	"fmt"

	"github.com/speakeasy-api/bsonschema/schema"
	"github.com/speakeasy-api/openapi/extensions"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"
)

const (
	// ExtBSONType carries the BSON alias of an atomic, since several BSON
	// types share one JSON type.
	ExtBSONType = "x-bsonType"
	// ExtReference carries relationship metadata of a document field.
	ExtReference = "x-bsonschema-reference"
)

// atomicShape is the JSON Schema type and format used for each Atomic.
type atomicShape struct {
	typ    oas3.SchemaType
	format string
}

var atomicShapes = map[schema.Atomic]atomicShape{
	schema.MinKey:              {oas3.SchemaTypeObject, ""},
	schema.Null:                {oas3.SchemaTypeNull, ""},
	schema.Integer:             {oas3.SchemaTypeInteger, "int32"},
	schema.Long:                {oas3.SchemaTypeInteger, "int64"},
	schema.Double:              {oas3.SchemaTypeNumber, "double"},
	schema.Decimal:             {oas3.SchemaTypeNumber, "decimal128"},
	schema.Symbol:              {oas3.SchemaTypeString, ""},
	schema.String:              {oas3.SchemaTypeString, ""},
	schema.BinData:             {oas3.SchemaTypeString, "binary"},
	schema.Undefined:           {oas3.SchemaTypeNull, ""},
	schema.ObjectID:            {oas3.SchemaTypeString, "objectid"},
	schema.Boolean:             {oas3.SchemaTypeBoolean, ""},
	schema.Date:                {oas3.SchemaTypeString, "date-time"},
	schema.Timestamp:           {oas3.SchemaTypeObject, ""},
	schema.Regex:               {oas3.SchemaTypeString, "regex"},
	schema.DbPointer:           {oas3.SchemaTypeObject, ""},
	schema.Javascript:          {oas3.SchemaTypeString, "javascript"},
	schema.JavascriptWithScope: {oas3.SchemaTypeObject, ""},
	schema.MaxKey:              {oas3.SchemaTypeObject, ""},
}

// SchemaToOAS converts s into an OpenAPI 3.1 schema. Unsat becomes {not: {}},
// Any becomes {}, a closed document forbids additional properties with
// {not: {}}, and Missing inside a document becomes optionality. A Missing
// anywhere else cannot be expressed.
func SchemaToOAS(s schema.Schema) (*oas3.Schema, error) {
	if limit := schema.DefaultOptions().MaxDepth; s.Depth() > limit {
		return nil, schema.MaxDepthError(limit)
	}
	return toOAS(s)
}

func toOAS(s schema.Schema) (*oas3.Schema, error) {
	switch s.Kind() {
	case schema.KindAny:
		return &oas3.Schema{}, nil
	case schema.KindUnsat:
		return never(), nil
	case schema.KindMissing:
		return nil, schema.New(schema.ErrMissingNotSerializable, "Missing has no OpenAPI form")
	case schema.KindAtomic:
		a, _ := s.Atomic()
		return atomicToOAS(a), nil
	case schema.KindArray:
		items, _ := s.Items()
		return arrayToOAS(items)
	case schema.KindDocument:
		d, _ := s.Document()
		return documentToOAS(d)
	}

	branches := s.Branches()
	out := &oas3.Schema{AnyOf: make([]*oas3.JSONSchema[oas3.Referenceable], 0, len(branches))}
	for _, b := range branches {
		child, err := toOAS(b)
		if err != nil {
			return nil, err
		}
		out.AnyOf = append(out.AnyOf, oas3.NewJSONSchemaFromSchema[oas3.Referenceable](child))
	}
	return out, nil
}

func never() *oas3.Schema {
	return &oas3.Schema{Not: oas3.NewJSONSchemaFromSchema[oas3.Referenceable](&oas3.Schema{})}
}

func atomicToOAS(a schema.Atomic) *oas3.Schema {
	shape := atomicShapes[a]
	out := &oas3.Schema{
		Type:       oas3.NewTypeFromString(shape.typ),
		Extensions: extensions.New(),
	}
	if shape.format != "" {
		format := shape.format
		out.Format = &format
	}
	out.Extensions.Set(ExtBSONType, scalarNode(a.String()))
	return out
}

func arrayToOAS(items schema.Schema) (*oas3.Schema, error) {
	out := &oas3.Schema{Type: oas3.NewTypeFromString(oas3.SchemaTypeArray)}
	switch items.Kind() {
	case schema.KindAny:
		return out, nil
	case schema.KindUnsat:
		maxItems := int64(0)
		out.MaxItems = &maxItems
		return out, nil
	}
	child, err := toOAS(items)
	if err != nil {
		return nil, err
	}
	out.Items = oas3.NewJSONSchemaFromSchema[oas3.Referenceable](child)
	return out, nil
}

func documentToOAS(d schema.Document) (*oas3.Schema, error) {
	// Simplified documents carry optionality only through Required.
	d, _ = schema.DocumentType(d).Simplify().Document()

	props := sequencedmap.New[string, *oas3.JSONSchema[oas3.Referenceable]]()
	for _, field := range d.SortedKeys() {
		child, err := toOAS(d.Keys[field])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", field, err)
		}
		if ref, ok := d.References[field]; ok {
			if child.Extensions == nil {
				child.Extensions = extensions.New()
			}
			child.Extensions.Set(ExtReference, scalarNode(formatReference(ref)))
		}
		props.Set(field, oas3.NewJSONSchemaFromSchema[oas3.Referenceable](child))
	}

	out := &oas3.Schema{
		Type:       oas3.NewTypeFromString(oas3.SchemaTypeObject),
		Properties: props,
	}
	if required := d.RequiredFields(); len(required) > 0 {
		out.Required = required
	}
	if !d.AdditionalProperties {
		out.AdditionalProperties = oas3.NewJSONSchemaFromSchema[oas3.Referenceable](never())
	}
	return out, nil
}

func formatReference(r schema.Reference) string {
	return fmt.Sprintf("%s.%s (%s)", r.Entity, r.Field, r.Cardinality)
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
