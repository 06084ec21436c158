// Package sample builds schemas from BSON documents handed to it and folds
// them into a running schema for a collection.
package sample

import (
	"fmt"

	"github.com/speakeasy-api/bsonschema/schema"
	"go.mongodb.org/mongo-driver/bson"
)

// FromDocument returns the closed schema of a single document: every field
// it has is required and no other field is allowed.
func FromDocument(doc bson.Raw) (schema.Schema, error) {
	return fromDocument(doc, 1, schema.DefaultOptions().MaxDepth)
}

// FromValue returns the schema of a single BSON value. Arrays union the
// schemas of their elements; an empty array is Array(Unsat).
func FromValue(v bson.RawValue) (schema.Schema, error) {
	return fromValue(v, 1, schema.DefaultOptions().MaxDepth)
}

func fromValue(v bson.RawValue, depth, maxDepth int) (schema.Schema, error) {
	if depth > maxDepth {
		return schema.Schema{}, schema.MaxDepthError(maxDepth)
	}
	switch v.Type {
	case bson.TypeEmbeddedDocument:
		return fromDocument(v.Document(), depth, maxDepth)
	case bson.TypeArray:
		values, err := v.Array().Values()
		if err != nil {
			return schema.Schema{}, schema.Wrap(schema.ErrBSONDecode, "read array", err)
		}
		items := schema.Unsat()
		for _, item := range values {
			s, err := fromValue(item, depth+1, maxDepth)
			if err != nil {
				return schema.Schema{}, err
			}
			items = items.Union(s)
		}
		return schema.ArrayOf(items), nil
	}
	a, err := schema.AtomicFromBSONType(v.Type)
	if err != nil {
		return schema.Schema{}, err
	}
	return schema.AtomicType(a), nil
}

func fromDocument(doc bson.Raw, depth, maxDepth int) (schema.Schema, error) {
	d, err := documentOf(doc, depth, maxDepth)
	if err != nil {
		return schema.Schema{}, err
	}
	return schema.DocumentType(d), nil
}

func documentOf(doc bson.Raw, depth, maxDepth int) (schema.Document, error) {
	if depth > maxDepth {
		return schema.Document{}, schema.MaxDepthError(maxDepth)
	}
	elems, err := doc.Elements()
	if err != nil {
		return schema.Document{}, schema.Wrap(schema.ErrBSONDecode, "read document", err)
	}
	keys := make(map[string]schema.Schema, len(elems))
	required := make([]string, 0, len(elems))
	for _, e := range elems {
		s, err := fromValue(e.Value(), depth+1, maxDepth)
		if err != nil {
			return schema.Document{}, fmt.Errorf("field %q: %w", e.Key(), err)
		}
		if prev, ok := keys[e.Key()]; ok {
			keys[e.Key()] = prev.Union(s)
			continue
		}
		keys[e.Key()] = s
		required = append(required, e.Key())
	}
	return schema.NewDocument(keys, required, false), nil
}
