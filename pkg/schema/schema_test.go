package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/effective-security/eztoolbox/pkg/schema"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A float64 `json:"a" jsonschema:"description=first addend"`
	B float64 `json:"b,omitempty" jsonschema:"description=second addend"`
}

type searchArgs struct {
	Query string   `json:"query" jsonschema:"description=what to look for"`
	Tags  []string `json:"tags,omitempty"`
	Pair  *kvPair  `json:"pair,omitempty"`
}

type kvPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func keys(s *jsonschema.Schema) []string {
	var res []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		res = append(res, pair.Key)
	}
	return res
}

func Test_New(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(addArgs{}))
	require.NoError(t, err)

	p := s.Parameters
	assert.Equal(t, "object", p.Type)
	assert.Equal(t, []string{"a"}, p.Required)
	assert.Equal(t, []string{"a", "b"}, keys(p))

	a, ok := p.Properties.Get("a")
	require.True(t, ok)
	assert.Equal(t, "number", a.Type)
	assert.Equal(t, "first addend", a.Description)

	t.Run("cached", func(t *testing.T) {
		s2, err := schema.New(reflect.TypeOf(&addArgs{}))
		require.NoError(t, err)
		assert.Same(t, s, s2)
	})

	t.Run("nested", func(t *testing.T) {
		s, err := schema.New(reflect.TypeOf(searchArgs{}))
		require.NoError(t, err)
		assert.Equal(t, []string{"query", "tags", "pair"}, keys(s.Parameters))
		assert.Equal(t, []string{"query"}, s.Parameters.Required)

		tags, _ := s.Parameters.Properties.Get("tags")
		assert.Equal(t, "array", tags.Type)
		require.NotNil(t, tags.Items)
		assert.Equal(t, "string", tags.Items.Type)

		pair, _ := s.Parameters.Properties.Get("pair")
		assert.Equal(t, "object", pair.Type)
		assert.Contains(t, s.String(), `"query"`)
	})

	t.Run("not a struct", func(t *testing.T) {
		_, err := schema.New(reflect.TypeOf(1))
		assert.EqualError(t, err, "schema: expected struct type, got int")
	})
}

func Test_Object(t *testing.T) {
	s := schema.Object([]schema.Property{
		{Name: "b", Type: "number", Description: "second"},
		{Name: "a", Type: "array", Items: "string"},
		{Name: "x", Type: "any", HasDefault: true, Default: "d"},
	}, []string{"b"})

	assert.Equal(t, []string{"b", "a", "x"}, keys(s))

	js, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "object",
		"properties": {
			"b": {"type": "number", "description": "second"},
			"a": {"type": "array", "items": {"type": "string"}},
			"x": {"default": "d"}
		},
		"required": ["b"]
	}`, string(js))

	m, err := schema.ToMap(s)
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
	assert.Equal(t, []any{"b"}, m["required"])

	assert.Equal(t, map[string]any{"default": "d"}, m["properties"].(map[string]any)["x"])

	loose, err := schema.ToMap(schema.Object([]schema.Property{
		{Name: "filter", Type: "any"},
		{Name: "list", Type: "array", Items: "any"},
	}, nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"filter": map[string]any{},
		"list":   map[string]any{"type": "array"},
	}, loose["properties"])

	empty, err := schema.ToMap(schema.Object(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, empty)
}
