// Package erd holds the persisted entity records that pair a collection
// namespace with the schema of its documents.
package erd

import (
	"fmt"
	"maps"
	"slices"

	"github.com/speakeasy-api/bsonschema/schema"
	"go.uber.org/multierr"
)

// Entity is one collection: where it lives, how it is keyed and what its
// documents look like.
type Entity struct {
	DB         string
	Collection string
	PrimaryKey []string
	Schema     schema.Schema
}

// Namespace returns "db.collection".
func (e Entity) Namespace() string {
	return e.DB + "." + e.Collection
}

// Erd is a named set of entities.
type Erd struct {
	SchemaName string
	Entities   map[string]Entity
}

// New returns an empty Erd.
func New(name string) *Erd {
	return &Erd{SchemaName: name, Entities: make(map[string]Entity)}
}

// EntityNames returns the entity names in sorted order.
func (e *Erd) EntityNames() []string {
	return slices.Sorted(maps.Keys(e.Entities))
}

// Validate reports every namespace and bottom-field problem in e. The
// returned error combines them with multierr.
func (e *Erd) Validate() error {
	var errs error
	if e.SchemaName == "" {
		errs = multierr.Append(errs, schema.InvalidNamespaceError("schemaName is empty"))
	}
	for _, name := range e.EntityNames() {
		errs = multierr.Append(errs, e.Entities[name].validate(name))
	}
	return errs
}

func (e Entity) validate(name string) error {
	var errs error
	if e.DB == "" {
		errs = multierr.Append(errs, schema.InvalidNamespaceError(fmt.Sprintf("entity %q has an empty db", name)))
	}
	if e.Collection == "" {
		errs = multierr.Append(errs, schema.InvalidNamespaceError(fmt.Sprintf("entity %q has an empty collection", name)))
	}

	if e.Schema.Simplify().Kind() == schema.KindUnsat {
		return multierr.Append(errs, schema.InvalidBottomFieldError(name))
	}
	branches := e.Schema.Branches()
	if branches == nil {
		branches = []schema.Schema{e.Schema}
	}
	for _, b := range branches {
		d, ok := b.Document()
		if !ok {
			continue
		}
		for _, field := range d.SortedKeys() {
			if d.Keys[field].Simplify().Kind() == schema.KindUnsat {
				errs = multierr.Append(errs, schema.InvalidBottomFieldError(name+"."+field))
			}
		}
	}
	for _, field := range e.PrimaryKey {
		if e.Schema.ContainsField(field) == schema.Not {
			errs = multierr.Append(errs, schema.InvalidBottomFieldError(name+"."+field))
		}
	}
	return errs
}

// Merge combines two descriptions of the same schema. Entities present in both
// must point at the same namespace; their document schemas are unioned.
func (e *Erd) Merge(other *Erd) (*Erd, error) {
	out := New(e.SchemaName)
	if out.SchemaName == "" {
		out.SchemaName = other.SchemaName
	}
	maps.Copy(out.Entities, e.Entities)

	var errs error
	for _, name := range other.EntityNames() {
		theirs := other.Entities[name]
		mine, ok := out.Entities[name]
		if !ok {
			out.Entities[name] = theirs
			continue
		}
		if mine.Namespace() != theirs.Namespace() {
			errs = multierr.Append(errs, schema.InvalidNamespaceError(
				fmt.Sprintf("entity %q is %s in one description and %s in the other", name, mine.Namespace(), theirs.Namespace())))
			continue
		}
		if len(mine.PrimaryKey) == 0 {
			mine.PrimaryKey = theirs.PrimaryKey
		}
		mine.Schema = mine.Schema.Union(theirs.Schema)
		out.Entities[name] = mine
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}
