package oasexport

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/speakeasy-api/bsonschema/erd"
	"github.com/speakeasy-api/openapi/extensions"
	"github.com/speakeasy-api/openapi/jsonschema/oas3"
	"github.com/speakeasy-api/openapi/openapi"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ExportERD writes e as an OpenAPI 3.1 document with one component schema per
// entity.
func ExportERD(ctx context.Context, e *erd.Erd, w io.Writer) error {
	skeleton, err := skeletonFor(e)
	if err != nil {
		return err
	}
	return Apply(ctx, bytes.NewReader(skeleton), e, w)
}

// Apply reads an OpenAPI document from r, replaces every schema carrying an
// ExtEntity extension with the schema of the named entity, and writes the
// result to w. Extensions on replaced schemas are preserved.
func Apply(ctx context.Context, r io.Reader, e *erd.Erd, w io.Writer) error {
	doc, validationErrs, err := openapi.Unmarshal(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if len(validationErrs) > 0 {
		return fmt.Errorf("OpenAPI validation failed: %v", validationErrs[0])
	}

	type target struct {
		schema   *oas3.JSONSchema[oas3.Referenceable]
		location string
	}
	var (
		targets []target
		errs    error
	)
	for item := range openapi.Walk(ctx, doc) {
		err := item.Match(openapi.Matcher{
			Schema: func(schema *oas3.JSONSchema[oas3.Referenceable]) error {
				if ext := schema.GetExtensions(); ext != nil {
					if _, ok := ext.Get(ExtEntity); ok {
						targets = append(targets, target{schema: schema, location: fmt.Sprintf("%v", item.Location)})
					}
				}
				return nil
			},
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("walk error: %w", err))
		}
	}

	// Innermost schemas first, so replacing a parent never orphans a pending
	// child.
	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		if err := replaceSchema(t.schema, e); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", t.location, err))
		}
	}
	if errs != nil {
		return errs
	}

	if err := openapi.Marshal(ctx, doc, w); err != nil {
		return fmt.Errorf("failed to marshal OpenAPI document: %w", err)
	}
	return nil
}

func replaceSchema(js *oas3.JSONSchema[oas3.Referenceable], e *erd.Erd) error {
	original := js.GetExtensions()
	node, _ := original.Get(ExtEntity)
	ref, err := ParseEntityExtension(node)
	if err != nil {
		return err
	}
	entity, ok := e.Entities[ref.Entity]
	if !ok {
		return fmt.Errorf("unknown entity %q", ref.Entity)
	}

	converted, err := SchemaToOAS(entity.Schema)
	if err != nil {
		return fmt.Errorf("entity %q: %w", ref.Entity, err)
	}
	if original.Len() > 0 {
		if converted.Extensions == nil {
			converted.Extensions = extensions.New()
		}
		for k, v := range original.All() {
			converted.Extensions.Set(k, v)
		}
	}
	*js = *oas3.NewJSONSchemaFromSchema[oas3.Referenceable](converted)
	return nil
}

// skeletonFor renders a minimal document whose component schemas are
// placeholders pointing at each entity.
func skeletonFor(e *erd.Erd) ([]byte, error) {
	schemas := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range e.EntityNames() {
		entity := e.Entities[name]
		placeholder := &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				scalarNode(ExtEntity), entityNode(name, entity.Namespace(), entity.PrimaryKey),
			},
		}
		schemas.Content = append(schemas.Content, scalarNode(name), placeholder)
	}

	title := e.SchemaName
	if title == "" {
		title = "bsonschema"
	}
	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalarNode("openapi"), scalarNode("3.1.0"),
			scalarNode("info"), {
				Kind: yaml.MappingNode,
				Content: []*yaml.Node{
					scalarNode("title"), scalarNode(title),
					scalarNode("version"), scalarNode("1.0.0"),
				},
			},
			scalarNode("components"), {
				Kind:    yaml.MappingNode,
				Content: []*yaml.Node{scalarNode("schemas"), schemas},
			},
		},
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to render OpenAPI skeleton: %w", err)
	}
	return out, nil
}
