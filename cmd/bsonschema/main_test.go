package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/speakeasy-api/bsonschema/erd"
	"github.com/speakeasy-api/bsonschema/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, argv ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := newApp(strings.NewReader(stdin), &stdout, &stderr)
	a.now = func() time.Time { return time.Unix(0, 0).UTC() }
	code := a.run(argv)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func shopErd() *erd.Erd {
	e := erd.New("shop")
	e.Entities["users"] = erd.Entity{
		DB:         "shop",
		Collection: "users",
		PrimaryKey: []string{"_id"},
		Schema: schema.DocumentType(schema.NewDocument(map[string]schema.Schema{
			"_id":  schema.AtomicType(schema.ObjectID),
			"name": schema.AtomicType(schema.String),
		}, []string{"_id", "name"}, false)),
	}
	return e
}

func TestInfer(t *testing.T) {
	input := `{"a": 1, "b": "x"}

{"a": 2}
`
	res := runCLI(t, input, "infer")
	require.Equal(t, 0, res.code, res.stderr)

	got, err := schema.FromExtJSON([]byte(res.stdout))
	require.NoError(t, err)
	want := schema.DocumentType(schema.NewDocument(map[string]schema.Schema{
		"a": schema.AtomicType(schema.Integer),
		"b": schema.AtomicType(schema.String),
	}, []string{"a"}, false))
	assert.True(t, got.Simplify().Equal(want), "got %s", got)
}

func TestInfer_Report(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "docs.jsonl", "{\"a\": 1}\n{\"a\": 2}\n{\"a\": \"three\"}\n")
	out := filepath.Join(dir, "schema.json")

	res := runCLI(t, "", "infer", "-report", "-o", out, in)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Regexp(t, `(?m)^documents\s+3$`, res.stderr)
	assert.Regexp(t, `(?m)^distinct shapes\s+2$`, res.stderr)
	assert.Regexp(t, `(?m)^started\s+1970-01-01 00:00:00 UTC$`, res.stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got, err := schema.FromExtJSON(data)
	require.NoError(t, err)
	assert.Equal(t, schema.Must, got.ContainsField("a"))
}

func TestInfer_BadInput(t *testing.T) {
	res := runCLI(t, "{\"a\": 1}\nnot json\n", "infer")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "line 2")
}

func TestUnion(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"bsonType": "object", "properties": {"a": {"bsonType": "int"}}, "required": ["a"], "additionalProperties": false}`)
	b := writeFile(t, dir, "b.json", `{"bsonType": "object", "properties": {"b": {"bsonType": "string"}}, "required": ["b"], "additionalProperties": false}`)

	res := runCLI(t, "", "union", a, b)
	require.Equal(t, 0, res.code, res.stderr)

	got, err := schema.FromExtJSON([]byte(res.stdout))
	require.NoError(t, err)
	assert.Equal(t, schema.May, got.ContainsField("a"))
	assert.Equal(t, schema.May, got.ContainsField("b"))
	assert.Equal(t, schema.Not, got.ContainsField("c"))
}

func TestUnion_ReportsEveryBadFile(t *testing.T) {
	dir := t.TempDir()
	bad1 := writeFile(t, dir, "bad1.json", `{"bsonType": "nope"}`)
	bad2 := writeFile(t, dir, "bad2.json", `{"bsonType": 7}`)

	res := runCLI(t, "", "union", bad1, bad2)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "bad1.json")
	assert.Contains(t, res.stderr, "bad2.json")
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.json", `{
		"bsonType": "object",
		"properties": {
			"id": {"bsonType": "int"},
			"address": {
				"bsonType": ["object", "null"],
				"properties": {"city": {"bsonType": "string"}},
				"required": ["city"],
				"additionalProperties": false
			}
		},
		"required": ["id", "address"],
		"additionalProperties": false
	}`)

	res := runCLI(t, "", "paths", path)
	require.Equal(t, 0, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "PATH          PRESENCE", lines[0])
	assert.Equal(t, []string{"address", "Must"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"address.city", "May"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"id", "Must"}, strings.Fields(lines[3]))
	assert.Contains(t, res.stdout, "3 paths, nullable-only polymorphism: true")
}

func TestPaths_Unknowable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "open.json", `{"bsonType": "object"}`)

	res := runCLI(t, "", "paths", path)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, string(schema.ErrCannotEnumerateAllFieldPaths))

	res = runCLI(t, "", "paths", "-max-length", "0", path)
	assert.Equal(t, 0, res.code, res.stderr)
}

func TestErdValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, shopErd().WriteFile(good))

	res := runCLI(t, "", "erd", "validate", good)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "shop: 1 entities, no problems\n", res.stdout)

	broken := shopErd()
	users := broken.Entities["users"]
	users.Collection = ""
	broken.Entities["users"] = users
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, broken.WriteFile(bad))

	res = runCLI(t, "", "erd", "validate", bad)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, string(schema.ErrInvalidNamespace))
	assert.Contains(t, res.stderr, "1 problems")
}

func TestErdExport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "shop.bson")
	require.NoError(t, shopErd().WriteFile(in))

	res := runCLI(t, "", "erd", "export", in)
	require.Equal(t, 0, res.code, res.stderr)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &doc))
	schemas := doc["components"].(map[string]any)["schemas"].(map[string]any)
	users := schemas["users"].(map[string]any)
	assert.Equal(t, "object", users["type"])
	assert.ElementsMatch(t, []any{"_id", "name"}, users["required"])
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command: frobnicate"},
		{"union needs two files", []string{"union", "a.json"}, "at least two"},
		{"erd without subcommand", []string{"erd"}, "validate or export"},
		{"unknown erd subcommand", []string{"erd", "draw"}, `unknown erd subcommand "draw"`},
		{"bad log level", []string{"--log-level", "loud", "infer"}, "invalid log level"},
		{"bad stability limit", []string{"--stability-limit", "2", "infer"}, "stability-limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.argv...)
			assert.Equal(t, 2, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestHelp(t *testing.T) {
	res := runCLI(t, "")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "bsonschema - infer and combine BSON schemas")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", "log-level: debug\nmax-depth: 3\n")
	deep := writeFile(t, dir, "deep.json", `{"bsonType": "array", "items": {"bsonType": "array", "items": {"bsonType": "array", "items": {"bsonType": "int"}}}}`)
	other := writeFile(t, dir, "other.json", `{"bsonType": "int"}`)

	res := runCLI(t, "", "--config", cfg, "union", deep, other)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, string(schema.ErrMaxDepthExceeded))

	// Flags win over the file.
	res = runCLI(t, "", "--config", cfg, "--max-depth", "10", "union", deep, other)
	assert.Equal(t, 0, res.code, res.stderr)

	unknown := writeFile(t, dir, "unknown.yaml", "colour: blue\n")
	res = runCLI(t, "", "--config", unknown, "infer")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "colour")
}

func TestConfig_Defaults(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.validate())
	assert.Equal(t, schema.DefaultOptions().MaxDepth, cfg.schemaOptions().MaxDepth)
}
