// Package jsonschema models MongoDB's $jsonSchema validator document as it
// appears on the wire. It only parses and prints; meaning is assigned by the
// schema package.
package jsonschema

// BSONType is the bsonType keyword, which is either a single alias or an
// array of aliases.
type BSONType struct {
	Names    []string
	Multiple bool
}

// Single returns a bsonType holding one alias.
func Single(name string) *BSONType {
	return &BSONType{Names: []string{name}}
}

// Multiple returns a bsonType written as an array.
func Multiple(names ...string) *BSONType {
	return &BSONType{Names: append([]string{}, names...), Multiple: true}
}

// Items is the items keyword: a single schema for every element, or a list.
type Items struct {
	Schemas  []*Schema
	Multiple bool
}

// Property is one entry of the properties keyword. Order is preserved as read.
type Property struct {
	Name   string
	Schema *Schema
}

// Schema is a $jsonSchema validator. A nil slice or pointer means the keyword
// was absent; an empty non-nil slice means it was present and empty.
type Schema struct {
	BSONType             *BSONType
	Properties           []Property
	Required             []string
	AdditionalProperties *bool
	Items                *Items
	MaxItems             *int64
	AnyOf                []*Schema
	OneOf                []*Schema
}

// Property returns the schema of a named property.
func (s *Schema) Property(name string) (*Schema, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// HasTypeFields reports whether any keyword that only makes sense next to
// bsonType is present.
func (s *Schema) HasTypeFields() bool {
	return s.Properties != nil || s.Required != nil || s.AdditionalProperties != nil ||
		s.Items != nil || s.MaxItems != nil
}

// IsEmpty reports whether no known keyword is present.
func (s *Schema) IsEmpty() bool {
	return s.BSONType == nil && !s.HasTypeFields() && s.AnyOf == nil && s.OneOf == nil
}

// Bool returns a pointer to b, for AdditionalProperties.
func Bool(b bool) *bool {
	return &b
}

// Int64 returns a pointer to n, for MaxItems.
func Int64(n int64) *int64 {
	return &n
}
