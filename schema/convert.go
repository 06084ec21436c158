package schema

import (
	"errors"
	"fmt"

	"github.com/speakeasy-api/bsonschema/jsonschema"
)

// FromJSONSchema converts a $jsonSchema validator into a Schema.
//
// Exactly one shape is accepted: no keywords (Any); bsonType with optional
// properties, required, additionalProperties, items and maxItems; anyOf
// alone; or oneOf alone. Anything else is ErrInvalidCombinationOfFields.
func FromJSONSchema(js *jsonschema.Schema) (Schema, error) {
	return FromJSONSchemaWithOptions(js, DefaultOptions())
}

// FromJSONSchemaWithOptions is FromJSONSchema with a custom depth limit.
func FromJSONSchemaWithOptions(js *jsonschema.Schema, opts Options) (Schema, error) {
	c := converter{maxDepth: opts.MaxDepth}
	return c.fromJSONSchema(js, 1)
}

// ToJSONSchema converts s into a $jsonSchema validator. Missing cannot be
// written, except as the optional part of a document field.
func ToJSONSchema(s Schema) (*jsonschema.Schema, error) {
	return ToJSONSchemaWithOptions(s, DefaultOptions())
}

// ToJSONSchemaWithOptions is ToJSONSchema with a custom depth limit.
func ToJSONSchemaWithOptions(s Schema, opts Options) (*jsonschema.Schema, error) {
	if d := s.Depth(); d > opts.MaxDepth {
		return nil, MaxDepthError(opts.MaxDepth)
	}
	return toJSONSchema(s)
}

// FromBSON decodes a $jsonSchema BSON document into a Schema.
func FromBSON(data []byte) (Schema, error) {
	js, err := jsonschema.Unmarshal(data)
	if err != nil {
		return Schema{}, decodeError(err)
	}
	return FromJSONSchema(js)
}

// ToBSON encodes s as a $jsonSchema BSON document.
func ToBSON(s Schema) ([]byte, error) {
	js, err := ToJSONSchema(s)
	if err != nil {
		return nil, err
	}
	return jsonschema.Marshal(js)
}

// FromExtJSON decodes a $jsonSchema written as extended JSON.
func FromExtJSON(data []byte) (Schema, error) {
	js, err := jsonschema.UnmarshalExtJSON(data)
	if err != nil {
		return Schema{}, decodeError(err)
	}
	return FromJSONSchema(js)
}

// ToExtJSON encodes s as relaxed extended JSON.
func ToExtJSON(s Schema) ([]byte, error) {
	js, err := ToJSONSchema(s)
	if err != nil {
		return nil, err
	}
	return jsonschema.MarshalExtJSON(js)
}

// MarshalBSON encodes s as its $jsonSchema document.
func (s Schema) MarshalBSON() ([]byte, error) {
	return ToBSON(s)
}

// UnmarshalBSON decodes a $jsonSchema document into s.
func (s *Schema) UnmarshalBSON(data []byte) error {
	out, err := FromBSON(data)
	if err != nil {
		return err
	}
	*s = out
	return nil
}

func decodeError(err error) error {
	if errors.Is(err, jsonschema.ErrMaxDepth) {
		return Wrap(ErrMaxDepthExceeded, "decode $jsonSchema", err)
	}
	return Wrap(ErrBSONDecode, "decode $jsonSchema", err)
}

type converter struct {
	maxDepth int
}

func (c converter) fromJSONSchema(js *jsonschema.Schema, depth int) (Schema, error) {
	if depth > c.maxDepth {
		return Schema{}, MaxDepthError(c.maxDepth)
	}
	if js == nil || js.IsEmpty() {
		return Any(), nil
	}

	switch {
	case js.BSONType != nil && js.AnyOf == nil && js.OneOf == nil:
		return c.fromTyped(js, depth)
	case js.AnyOf != nil && js.BSONType == nil && !js.HasTypeFields() && js.OneOf == nil:
		return c.fromList(js.AnyOf, depth)
	case js.OneOf != nil && js.BSONType == nil && !js.HasTypeFields() && js.AnyOf == nil:
		return c.fromList(js.OneOf, depth)
	}
	return Schema{}, InvalidCombinationError(describeKeywords(js))
}

func (c converter) fromList(list []*jsonschema.Schema, depth int) (Schema, error) {
	branches := make([]Schema, 0, len(list))
	for _, item := range list {
		b, err := c.fromJSONSchema(item, depth+1)
		if err != nil {
			return Schema{}, err
		}
		branches = append(branches, b)
	}
	return AnyOf(branches...), nil
}

func (c converter) fromTyped(js *jsonschema.Schema, depth int) (Schema, error) {
	names := js.BSONType.Names
	if !js.BSONType.Multiple && len(names) == 1 {
		return c.fromSingleType(names[0], js, depth)
	}
	branches := make([]Schema, 0, len(names))
	for _, name := range names {
		b, err := c.fromSingleType(name, js, depth)
		if err != nil {
			return Schema{}, err
		}
		branches = append(branches, b)
	}
	return AnyOf(branches...).Simplify(), nil
}

func (c converter) fromSingleType(name string, js *jsonschema.Schema, depth int) (Schema, error) {
	switch name {
	case objectTypeName:
		d := Document{
			Keys:                 make(map[string]Schema, len(js.Properties)),
			Required:             newFieldSet(js.Required...),
			AdditionalProperties: js.AdditionalProperties == nil || *js.AdditionalProperties,
		}
		for _, p := range js.Properties {
			v, err := c.fromJSONSchema(p.Schema, depth+1)
			if err != nil {
				return Schema{}, err
			}
			d.Keys[p.Name] = v
		}
		return Schema{kind: KindDocument, doc: &d}, nil
	case arrayTypeName:
		if js.Items == nil {
			if js.MaxItems != nil && *js.MaxItems == 0 {
				return ArrayOf(Unsat()), nil
			}
			return AnyArray(), nil
		}
		if !js.Items.Multiple && len(js.Items.Schemas) == 1 {
			items, err := c.fromJSONSchema(js.Items.Schemas[0], depth+1)
			if err != nil {
				return Schema{}, err
			}
			return ArrayOf(items), nil
		}
		items, err := c.fromList(js.Items.Schemas, depth)
		if err != nil {
			return Schema{}, err
		}
		return ArrayOf(items), nil
	}
	a, err := ParseAtomic(name)
	if err != nil {
		return Schema{}, err
	}
	return AtomicType(a), nil
}

func describeKeywords(js *jsonschema.Schema) string {
	var present []string
	if js.BSONType != nil {
		present = append(present, "bsonType")
	}
	if js.HasTypeFields() {
		present = append(present, "type keywords")
	}
	if js.AnyOf != nil {
		present = append(present, "anyOf")
	}
	if js.OneOf != nil {
		present = append(present, "oneOf")
	}
	return fmt.Sprintf("cannot combine %v", present)
}

func toJSONSchema(s Schema) (*jsonschema.Schema, error) {
	switch s.kind {
	case KindAny:
		return &jsonschema.Schema{}, nil
	case KindUnsat:
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{}}, nil
	case KindMissing:
		return nil, New(ErrMissingNotSerializable, "Missing has no $jsonSchema form")
	case KindAtomic:
		return &jsonschema.Schema{BSONType: jsonschema.Single(s.atomic.String())}, nil
	case KindArray:
		switch s.items.kind {
		case KindUnsat:
			return &jsonschema.Schema{BSONType: jsonschema.Single(arrayTypeName), MaxItems: jsonschema.Int64(0)}, nil
		case KindAny:
			return &jsonschema.Schema{BSONType: jsonschema.Single(arrayTypeName)}, nil
		}
		items, err := toJSONSchema(*s.items)
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{
			BSONType: jsonschema.Single(arrayTypeName),
			Items:    &jsonschema.Items{Schemas: []*jsonschema.Schema{items}},
		}, nil
	case KindDocument:
		return documentToJSONSchema(s.doc)
	}

	if len(s.anyOf) == 0 {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{}}, nil
	}
	names := make([]string, 0, len(s.anyOf))
	for _, b := range s.anyOf {
		if b.kind != KindAtomic {
			names = nil
			break
		}
		names = append(names, b.atomic.String())
	}
	if names != nil {
		return &jsonschema.Schema{BSONType: jsonschema.Multiple(names...)}, nil
	}
	list := make([]*jsonschema.Schema, 0, len(s.anyOf))
	for _, b := range s.anyOf {
		js, err := toJSONSchema(b)
		if err != nil {
			return nil, err
		}
		list = append(list, js)
	}
	return &jsonschema.Schema{AnyOf: list}, nil
}

// documentToJSONSchema writes a document, expressing Missing in a field as
// optionality.
func documentToJSONSchema(d *Document) (*jsonschema.Schema, error) {
	out := &jsonschema.Schema{
		BSONType:             jsonschema.Single(objectTypeName),
		Properties:           make([]jsonschema.Property, 0, len(d.Keys)),
		AdditionalProperties: jsonschema.Bool(d.AdditionalProperties),
	}
	optional := make(map[string]bool)
	for _, field := range d.SortedKeys() {
		v := d.Keys[field]
		if v.Satisfies(Missing()) != Not && v.kind != KindAny {
			optional[field] = true
			v = v.subtract(func(b Schema) bool { return b.kind == KindMissing })
			if v.kind == KindUnsat {
				continue
			}
		}
		js, err := toJSONSchema(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", field, err)
		}
		out.Properties = append(out.Properties, jsonschema.Property{Name: field, Schema: js})
	}
	for _, field := range d.RequiredFields() {
		if !optional[field] {
			out.Required = append(out.Required, field)
		}
	}
	return out, nil
}
