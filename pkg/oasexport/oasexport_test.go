package oasexport

import (
	"context"
	"strings"
	"testing"

	"github.com/speakeasy-api/bsonschema/erd"
	"github.com/speakeasy-api/bsonschema/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func usersErd() *erd.Erd {
	e := erd.New("shop")
	users := schema.NewDocument(map[string]schema.Schema{
		"_id":  schema.AtomicType(schema.ObjectID),
		"name": schema.AtomicType(schema.String),
		"age":  schema.AnyOf(schema.AtomicType(schema.Integer), schema.AtomicType(schema.Null), schema.Missing()),
		"tags": schema.ArrayOf(schema.AtomicType(schema.String)),
	}, []string{"_id", "name", "age"}, false)
	e.Entities["users"] = erd.Entity{
		DB:         "shop",
		Collection: "users",
		PrimaryKey: []string{"_id"},
		Schema:     schema.DocumentType(users),
	}
	e.Entities["events"] = erd.Entity{DB: "logs", Collection: "events", Schema: schema.AnyDocumentSchema()}
	return e
}

func exportToMap(t *testing.T, e *erd.Erd) map[string]any {
	t.Helper()
	var buf strings.Builder
	require.NoError(t, ExportERD(context.Background(), e, &buf))

	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(buf.String()), &out), buf.String())
	return out
}

func componentSchema(t *testing.T, doc map[string]any, name string) map[string]any {
	t.Helper()
	components, ok := doc["components"].(map[string]any)
	require.True(t, ok, "components missing")
	schemas, ok := components["schemas"].(map[string]any)
	require.True(t, ok, "components.schemas missing")
	s, ok := schemas[name].(map[string]any)
	require.True(t, ok, "schema %s missing", name)
	return s
}

func TestExportERD(t *testing.T) {
	doc := exportToMap(t, usersErd())
	assert.Equal(t, "3.1.0", doc["openapi"])

	info := doc["info"].(map[string]any)
	assert.Equal(t, "shop", info["title"])

	users := componentSchema(t, doc, "users")
	assert.Equal(t, "object", users["type"])
	assert.ElementsMatch(t, []any{"_id", "name"}, users["required"])

	ap, ok := users["additionalProperties"].(map[string]any)
	require.True(t, ok, "closed documents forbid additional properties")
	assert.Contains(t, ap, "not")

	props := users["properties"].(map[string]any)
	id := props["_id"].(map[string]any)
	assert.Equal(t, "string", id["type"])
	assert.Equal(t, "objectid", id["format"])
	assert.Equal(t, "objectId", id[ExtBSONType])

	age := props["age"].(map[string]any)
	require.Len(t, age["anyOf"], 2)
	branches := age["anyOf"].([]any)
	assert.Equal(t, "null", branches[0].(map[string]any)["type"])
	assert.Equal(t, "integer", branches[1].(map[string]any)["type"])
	assert.Equal(t, "int32", branches[1].(map[string]any)["format"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	assert.Equal(t, "string", tags["items"].(map[string]any)["type"])

	ext := users[ExtEntity].(map[string]any)
	assert.Equal(t, "users", ext["entity"])
	assert.Equal(t, "shop.users", ext["namespace"])
	assert.Equal(t, []any{"_id"}, ext["primaryKey"])

	events := componentSchema(t, doc, "events")
	assert.Equal(t, "object", events["type"])
	assert.NotContains(t, events, "additionalProperties")
	assert.Equal(t, "logs.events", events[ExtEntity].(map[string]any)["namespace"])
}

func TestApply_ExistingDocument(t *testing.T) {
	oasYAML := `openapi: 3.1.0
info:
  title: Shop API
  version: 2.0.0
components:
  schemas:
    User:
      x-bsonschema-entity:
        entity: users
    Plain:
      type: string
`
	var buf strings.Builder
	require.NoError(t, Apply(context.Background(), strings.NewReader(oasYAML), usersErd(), &buf))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(buf.String()), &doc))
	assert.Equal(t, "Shop API", doc["info"].(map[string]any)["title"])

	user := componentSchema(t, doc, "User")
	assert.Equal(t, "object", user["type"])
	assert.Equal(t, "users", user[ExtEntity].(map[string]any)["entity"])

	plain := componentSchema(t, doc, "Plain")
	assert.Equal(t, "string", plain["type"])
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		schemas string
		wantErr string
	}{
		{
			name: "unknown entity",
			schemas: `    Ghost:
      x-bsonschema-entity:
        entity: ghosts
`,
			wantErr: `unknown entity "ghosts"`,
		},
		{
			name: "scalar extension",
			schemas: `    Bad:
      x-bsonschema-entity: users
`,
			wantErr: "x-bsonschema-entity must be an object",
		},
		{
			name: "missing entity key",
			schemas: `    Bad:
      x-bsonschema-entity:
        name: users
`,
			wantErr: "requires 'entity' key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oasYAML := "openapi: 3.1.0\ninfo:\n  title: t\n  version: 1.0.0\ncomponents:\n  schemas:\n" + tt.schemas
			var buf strings.Builder
			err := Apply(context.Background(), strings.NewReader(oasYAML), usersErd(), &buf)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSchemaToOAS(t *testing.T) {
	t.Run("any is the empty schema", func(t *testing.T) {
		out, err := SchemaToOAS(schema.Any())
		require.NoError(t, err)
		assert.Nil(t, out.Type)
		assert.Nil(t, out.Not)
	})

	t.Run("unsat is not-anything", func(t *testing.T) {
		out, err := SchemaToOAS(schema.Unsat())
		require.NoError(t, err)
		assert.NotNil(t, out.Not)
	})

	t.Run("empty array", func(t *testing.T) {
		out, err := SchemaToOAS(schema.ArrayOf(schema.Unsat()))
		require.NoError(t, err)
		require.NotNil(t, out.MaxItems)
		assert.Equal(t, int64(0), *out.MaxItems)
		assert.Nil(t, out.Items)
	})

	t.Run("array of anything has no items", func(t *testing.T) {
		out, err := SchemaToOAS(schema.AnyArray())
		require.NoError(t, err)
		assert.Nil(t, out.Items)
		assert.Nil(t, out.MaxItems)
	})

	t.Run("formats", func(t *testing.T) {
		for a, want := range map[schema.Atomic]string{
			schema.Long:    "int64",
			schema.Double:  "double",
			schema.Decimal: "decimal128",
			schema.Date:    "date-time",
			schema.BinData: "binary",
		} {
			out, err := SchemaToOAS(schema.AtomicType(a))
			require.NoError(t, err)
			require.NotNil(t, out.Format, a.String())
			assert.Equal(t, want, *out.Format, a.String())
		}
	})

	t.Run("every atomic converts", func(t *testing.T) {
		for _, a := range schema.Atomics() {
			out, err := SchemaToOAS(schema.AtomicType(a))
			require.NoError(t, err, a.String())
			assert.NotNil(t, out.Type, a.String())
		}
	})

	t.Run("anyOf keeps every branch", func(t *testing.T) {
		out, err := SchemaToOAS(schema.Numeric())
		require.NoError(t, err)
		assert.Len(t, out.AnyOf, 4)
	})

	t.Run("optional fields are not required", func(t *testing.T) {
		d := schema.NewDocument(map[string]schema.Schema{
			"a": schema.AtomicType(schema.Integer),
			"b": schema.AnyOf(schema.AtomicType(schema.String), schema.Missing()),
			"c": schema.Missing(),
		}, []string{"a", "b", "c"}, true)
		out, err := SchemaToOAS(schema.DocumentType(d))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, out.Required)
		assert.Equal(t, 2, out.Properties.Len())
		assert.Nil(t, out.AdditionalProperties)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := SchemaToOAS(schema.Missing())
		assert.True(t, schema.IsKind(err, schema.ErrMissingNotSerializable))
	})

	t.Run("missing inside an array", func(t *testing.T) {
		_, err := SchemaToOAS(schema.ArrayOf(schema.Missing()))
		assert.True(t, schema.IsKind(err, schema.ErrMissingNotSerializable))
	})

	t.Run("too deep", func(t *testing.T) {
		s := schema.AtomicType(schema.Integer)
		for i := 0; i < schema.DefaultOptions().MaxDepth+1; i++ {
			s = schema.ArrayOf(s)
		}
		_, err := SchemaToOAS(s)
		assert.True(t, schema.IsKind(err, schema.ErrMaxDepthExceeded))
	})
}

func TestParseEntityExtension(t *testing.T) {
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("entity: '  users '\nextra: 1\n"), &node))
	ref, err := ParseEntityExtension(node.Content[0])
	require.NoError(t, err)
	assert.Equal(t, "users", ref.Entity)

	require.NoError(t, yaml.Unmarshal([]byte("entity: ''\n"), &node))
	_, err = ParseEntityExtension(node.Content[0])
	assert.ErrorContains(t, err, "requires an entity name")

	_, err = ParseEntityExtension(nil)
	assert.Error(t, err)
}
