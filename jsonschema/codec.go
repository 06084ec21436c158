package jsonschema

import (
	"errors"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
)

// DefaultMaxDepth bounds how deeply validators may nest when read or written.
const DefaultMaxDepth = 2048

// ErrMaxDepth is returned when a validator nests deeper than the limit.
var ErrMaxDepth = errors.New("jsonschema: maximum nesting depth exceeded")

const (
	keyBSONType             = "bsonType"
	keyProperties           = "properties"
	keyRequired             = "required"
	keyAdditionalProperties = "additionalProperties"
	keyItems                = "items"
	keyMaxItems             = "maxItems"
	keyAnyOf                = "anyOf"
	keyOneOf                = "oneOf"
)

// Unmarshal decodes a BSON document into a validator.
func Unmarshal(data []byte) (*Schema, error) {
	return Decode(bson.Raw(data), DefaultMaxDepth)
}

// UnmarshalExtJSON decodes relaxed or canonical extended JSON.
func UnmarshalExtJSON(data []byte) (*Schema, error) {
	var raw bson.Raw
	if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
		return nil, fmt.Errorf("jsonschema: parse extended json: %w", err)
	}
	return Decode(raw, DefaultMaxDepth)
}

// Marshal encodes a validator as a BSON document with keywords in a fixed
// order. Unknown keywords are never written.
func Marshal(s *Schema) ([]byte, error) {
	d, err := s.toD(1, DefaultMaxDepth)
	if err != nil {
		return nil, err
	}
	return bson.Marshal(d)
}

// MarshalExtJSON encodes a validator as relaxed extended JSON.
func MarshalExtJSON(s *Schema) ([]byte, error) {
	data, err := Marshal(s)
	if err != nil {
		return nil, err
	}
	return bson.MarshalExtJSON(bson.Raw(data), false, false)
}

// MarshalBSON lets validators be embedded in larger BSON documents.
func (s *Schema) MarshalBSON() ([]byte, error) {
	return Marshal(s)
}

// UnmarshalBSON lets validators be decoded from larger BSON documents.
func (s *Schema) UnmarshalBSON(data []byte) error {
	out, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*s = *out
	return nil
}

// Decode reads a validator from raw BSON, rejecting nesting deeper than
// maxDepth. Unknown keywords are ignored.
func Decode(raw bson.Raw, maxDepth int) (*Schema, error) {
	return decode(raw, 1, maxDepth)
}

func decode(raw bson.Raw, depth, maxDepth int) (*Schema, error) {
	if depth > maxDepth {
		return nil, ErrMaxDepth
	}
	elems, err := raw.Elements()
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %w", err)
	}

	s := &Schema{}
	for _, e := range elems {
		v := e.Value()
		switch e.Key() {
		case keyBSONType:
			s.BSONType, err = decodeBSONType(v)
		case keyProperties:
			s.Properties, err = decodeProperties(v, depth, maxDepth)
		case keyRequired:
			s.Required, err = decodeStrings(keyRequired, v)
		case keyAdditionalProperties:
			b, ok := v.BooleanOK()
			if !ok {
				err = typeError(keyAdditionalProperties, "a boolean", v)
			}
			s.AdditionalProperties = &b
		case keyItems:
			s.Items, err = decodeItems(v, depth, maxDepth)
		case keyMaxItems:
			n, ok := v.AsInt64OK()
			if !ok {
				err = typeError(keyMaxItems, "an integer", v)
			}
			s.MaxItems = &n
		case keyAnyOf:
			s.AnyOf, err = decodeList(keyAnyOf, v, depth, maxDepth)
		case keyOneOf:
			s.OneOf, err = decodeList(keyOneOf, v, depth, maxDepth)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func typeError(key, want string, v bson.RawValue) error {
	return fmt.Errorf("jsonschema: %s must be %s, got %s", key, want, v.Type)
}

func decodeBSONType(v bson.RawValue) (*BSONType, error) {
	if name, ok := v.StringValueOK(); ok {
		return Single(name), nil
	}
	if _, ok := v.ArrayOK(); !ok {
		return nil, typeError(keyBSONType, "a string or an array of strings", v)
	}
	names, err := decodeStrings(keyBSONType, v)
	if err != nil {
		return nil, err
	}
	return &BSONType{Names: names, Multiple: true}, nil
}

func decodeStrings(key string, v bson.RawValue) ([]string, error) {
	arr, ok := v.ArrayOK()
	if !ok {
		return nil, typeError(key, "an array of strings", v)
	}
	values, err := arr.Values()
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %s: %w", key, err)
	}
	out := make([]string, 0, len(values))
	for _, item := range values {
		str, ok := item.StringValueOK()
		if !ok {
			return nil, typeError(key, "an array of strings", item)
		}
		out = append(out, str)
	}
	return out, nil
}

func decodeProperties(v bson.RawValue, depth, maxDepth int) ([]Property, error) {
	doc, ok := v.DocumentOK()
	if !ok {
		return nil, typeError(keyProperties, "a document", v)
	}
	elems, err := doc.Elements()
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %s: %w", keyProperties, err)
	}
	out := make([]Property, 0, len(elems))
	for _, e := range elems {
		sub, ok := e.Value().DocumentOK()
		if !ok {
			return nil, typeError(keyProperties+"."+e.Key(), "a document", e.Value())
		}
		child, err := decode(sub, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		out = append(out, Property{Name: e.Key(), Schema: child})
	}
	return out, nil
}

func decodeItems(v bson.RawValue, depth, maxDepth int) (*Items, error) {
	if doc, ok := v.DocumentOK(); ok {
		child, err := decode(doc, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		return &Items{Schemas: []*Schema{child}}, nil
	}
	list, err := decodeList(keyItems, v, depth, maxDepth)
	if err != nil {
		return nil, err
	}
	return &Items{Schemas: list, Multiple: true}, nil
}

func decodeList(key string, v bson.RawValue, depth, maxDepth int) ([]*Schema, error) {
	arr, ok := v.ArrayOK()
	if !ok {
		return nil, typeError(key, "an array of documents", v)
	}
	values, err := arr.Values()
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %s: %w", key, err)
	}
	out := make([]*Schema, 0, len(values))
	for _, item := range values {
		doc, ok := item.DocumentOK()
		if !ok {
			return nil, typeError(key, "an array of documents", item)
		}
		child, err := decode(doc, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// toD renders the validator as an ordered document.
func (s *Schema) toD(depth, maxDepth int) (bson.D, error) {
	if depth > maxDepth {
		return nil, ErrMaxDepth
	}
	d := bson.D{}
	if s == nil {
		return d, nil
	}
	if t := s.BSONType; t != nil {
		if t.Multiple || len(t.Names) != 1 {
			names := make(bson.A, 0, len(t.Names))
			for _, n := range t.Names {
				names = append(names, n)
			}
			d = append(d, bson.E{Key: keyBSONType, Value: names})
		} else {
			d = append(d, bson.E{Key: keyBSONType, Value: t.Names[0]})
		}
	}
	if s.Properties != nil {
		props := make(bson.D, 0, len(s.Properties))
		for _, p := range s.Properties {
			child, err := p.Schema.toD(depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			props = append(props, bson.E{Key: p.Name, Value: child})
		}
		d = append(d, bson.E{Key: keyProperties, Value: props})
	}
	if s.Required != nil {
		required := make(bson.A, 0, len(s.Required))
		for _, r := range s.Required {
			required = append(required, r)
		}
		d = append(d, bson.E{Key: keyRequired, Value: required})
	}
	if s.AdditionalProperties != nil {
		d = append(d, bson.E{Key: keyAdditionalProperties, Value: *s.AdditionalProperties})
	}
	if s.Items != nil {
		if !s.Items.Multiple && len(s.Items.Schemas) == 1 {
			child, err := s.Items.Schemas[0].toD(depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			d = append(d, bson.E{Key: keyItems, Value: child})
		} else {
			list, err := listToA(s.Items.Schemas, depth, maxDepth)
			if err != nil {
				return nil, err
			}
			d = append(d, bson.E{Key: keyItems, Value: list})
		}
	}
	if s.MaxItems != nil {
		n := *s.MaxItems
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			d = append(d, bson.E{Key: keyMaxItems, Value: int32(n)})
		} else {
			d = append(d, bson.E{Key: keyMaxItems, Value: n})
		}
	}
	if s.AnyOf != nil {
		list, err := listToA(s.AnyOf, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		d = append(d, bson.E{Key: keyAnyOf, Value: list})
	}
	if s.OneOf != nil {
		list, err := listToA(s.OneOf, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		d = append(d, bson.E{Key: keyOneOf, Value: list})
	}
	return d, nil
}

func listToA(list []*Schema, depth, maxDepth int) (bson.A, error) {
	out := make(bson.A, 0, len(list))
	for _, item := range list {
		child, err := item.toD(depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}
