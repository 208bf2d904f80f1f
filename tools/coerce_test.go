package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Coerce(t *testing.T) {
	tcases := []struct {
		name  string
		value any
		typ   tools.SemanticType
		items tools.SemanticType
		exp   any
		err   string
	}{
		{name: "number", value: 1.5, typ: tools.TypeNumber, exp: 1.5},
		{name: "number from int", value: 3, typ: tools.TypeNumber, exp: 3.0},
		{name: "number from string", value: " 3.5", typ: tools.TypeNumber, exp: 3.5},
		{name: "number from json", value: json.Number("7"), typ: tools.TypeNumber, exp: 7.0},
		{name: "number bad", value: "abc", typ: tools.TypeNumber, err: `expected number, got "abc"`},
		{name: "number from bool", value: true, typ: tools.TypeNumber, err: `expected number, got bool`},
		{name: "integer", value: 4.0, typ: tools.TypeInteger, exp: int64(4)},
		{name: "integer from uint", value: uint8(9), typ: tools.TypeInteger, exp: int64(9)},
		{name: "integer from json", value: json.Number("12"), typ: tools.TypeInteger, exp: int64(12)},
		{name: "integer from string", value: "42", typ: tools.TypeInteger, exp: int64(42)},
		{name: "integer from float string", value: "42.0", typ: tools.TypeInteger, exp: int64(42)},
		{name: "integer overflow", value: 9223372036854775808.0, typ: tools.TypeInteger, err: `expected integer, got 9.223372036854776e+18`},
		{name: "integer min", value: -9223372036854775808.0, typ: tools.TypeInteger, exp: int64(-9223372036854775808)},
		{name: "integer fraction", value: 4.5, typ: tools.TypeInteger, err: `expected integer, got 4.5`},
		{name: "boolean", value: false, typ: tools.TypeBoolean, exp: false},
		{name: "boolean yes", value: "Yes", typ: tools.TypeBoolean, exp: true},
		{name: "boolean 0", value: "0", typ: tools.TypeBoolean, exp: false},
		{name: "boolean bad", value: "maybe", typ: tools.TypeBoolean, err: `expected boolean, got "maybe"`},
		{name: "string", value: "hi", typ: tools.TypeString, exp: "hi"},
		{name: "string from int", value: 12, typ: tools.TypeString, exp: "12"},
		{name: "string from float", value: 2.5, typ: tools.TypeString, exp: "2.5"},
		{name: "string from bool", value: true, typ: tools.TypeString, exp: "true"},
		{name: "string from bytes", value: []byte("raw"), typ: tools.TypeString, exp: "raw"},
		{name: "string from map", value: map[string]any{}, typ: tools.TypeString, err: `expected string, got map[string]interface {}`},
		{name: "array", value: []any{1, "a"}, typ: tools.TypeArray, exp: []any{1, "a"}},
		{name: "array typed", value: []string{"a", "b"}, typ: tools.TypeArray, exp: []any{"a", "b"}},
		{name: "array from json", value: "[1, 2]", typ: tools.TypeArray, items: tools.TypeInteger, exp: []any{int64(1), int64(2)}},
		{name: "array bad item", value: []any{"x"}, typ: tools.TypeArray, items: tools.TypeInteger, err: `item 0: expected integer, got "x"`},
		{name: "array bad", value: "nope", typ: tools.TypeArray, err: `expected array, got "nope"`},
		{name: "object", value: map[string]any{"k": 1}, typ: tools.TypeObject, exp: map[string]any{"k": 1}},
		{name: "object typed", value: map[string]int{"k": 1}, typ: tools.TypeObject, exp: map[string]any{"k": 1}},
		{name: "object from json", value: `{"k": "v"}`, typ: tools.TypeObject, exp: map[string]any{"k": "v"}},
		{name: "object bad", value: 1, typ: tools.TypeObject, err: `expected object, got int`},
		{name: "null", value: nil, typ: tools.TypeString, err: `expected string, got null`},
		{name: "any null", value: nil, typ: tools.TypeAny, exp: nil},
		{name: "any", value: struct{}{}, typ: tools.TypeAny, exp: struct{}{}},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := tools.Coerce(tc.value, tc.typ, tc.items)
			if tc.err != "" {
				assert.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.exp, v)
		})
	}
}

func Test_Bind(t *testing.T) {
	d, err := tools.Synthesize(tools.Func{
		Name: "repeat",
		Params: []tools.Param{
			tools.Required("text", "str"),
			tools.Optional("times", "int", 3),
			tools.Optional("tags", "list[str]", nil),
		},
		Call: noop,
	})
	require.NoError(t, err)

	args, err := d.Bind(map[string]any{"text": 5, "extra": true})
	require.NoError(t, err)
	assert.Equal(t, tools.Args{"text": "5", "times": int64(3)}, args)
	assert.False(t, args.Has("tags"))
	assert.Equal(t, []string{"extra"}, d.Unknown(map[string]any{"text": 5, "extra": true}))

	args, err = d.Bind(map[string]any{"text": "a", "times": nil, "tags": `["x"]`})
	require.NoError(t, err)
	assert.Equal(t, int64(3), args.Integer("times"))
	assert.Equal(t, []any{"x"}, args.Array("tags"))

	_, err = d.Bind(map[string]any{})
	assert.EqualError(t, err, `invalid arguments for "repeat", parameter "text": required parameter is missing`)
	assert.True(t, errors.Is(err, tools.ErrInvalidArguments))

	_, err = d.Bind(map[string]any{"text": "a", "times": "many"})
	var aerr *tools.InvalidArgumentsError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "times", aerr.Param)
	assert.Equal(t, `expected integer, got "many"`, aerr.Reason)

	_, err = d.Bind(map[string]any{"text": nil})
	assert.EqualError(t, err, `invalid arguments for "repeat", parameter "text": expected string, got null`)
}

func Test_Args(t *testing.T) {
	args := tools.Args{
		"n": 2.5,
		"i": int64(3),
		"s": "str",
		"b": true,
		"a": []any{1},
		"o": map[string]any{"k": "v"},
	}
	assert.Equal(t, 2.5, args.Number("n"))
	assert.Equal(t, 3.0, args.Number("i"))
	assert.Equal(t, int64(3), args.Integer("i"))
	assert.Equal(t, "str", args.String("s"))
	assert.True(t, args.Bool("b"))
	assert.Equal(t, []any{1}, args.Array("a"))
	assert.Equal(t, map[string]any{"k": "v"}, args.Object("o"))

	assert.Zero(t, args.Number("missing"))
	assert.Zero(t, args.Integer("missing"))
	assert.Empty(t, args.String("n"))
	assert.False(t, args.Bool("s"))
	assert.Nil(t, args.Array("o"))
	assert.Nil(t, args.Object("a"))

	var v struct {
		S string `json:"s"`
		I int    `json:"i"`
	}
	require.NoError(t, args.Decode(&v))
	assert.Equal(t, "str", v.S)
	assert.Equal(t, 3, v.I)
}

func Test_ToolCall(t *testing.T) {
	divide := tools.Func{
		Name:   "divide",
		Doc:    "Divide a by b.",
		Params: []tools.Param{tools.Required("a", "float"), tools.Required("b", "float")},
		Call: func(_ context.Context, args tools.Args) (any, error) {
			if args.Number("b") == 0 {
				return nil, errors.New("division by zero")
			}
			return args.Number("a") / args.Number("b"), nil
		},
	}
	boom := tools.Func{
		Name: "boom",
		Call: func(context.Context, tools.Args) (any, error) {
			panic("kaboom")
		},
	}

	c, errs := tools.SynthesizeBatch([]tools.Func{divide, boom})
	require.Empty(t, errs)

	tool, ok := c.Tool("divide")
	require.True(t, ok)
	assert.Equal(t, "divide", tool.Name())
	assert.Equal(t, "Divide a by b.", tool.Description())
	assert.Equal(t, tool.Descriptor().InputSchema(), tool.Parameters())

	ctx := context.Background()
	res, err := tool.Call(ctx, map[string]any{"a": 9, "b": "3"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, res)

	_, err = tool.Call(ctx, map[string]any{"a": 4, "b": 0})
	require.Error(t, err)
	assert.EqualError(t, err, `tool "divide" failed: division by zero`)
	assert.True(t, errors.Is(err, tools.ErrToolExecution))

	var terr *tools.ToolExecutionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "division by zero", terr.Err.Error())

	_, err = tool.Call(ctx, map[string]any{"a": 4})
	assert.True(t, errors.Is(err, tools.ErrInvalidArguments))
	assert.False(t, errors.Is(err, tools.ErrToolExecution))

	tool, ok = c.Tool("boom")
	require.True(t, ok)
	_, err = tool.Call(ctx, nil)
	assert.EqualError(t, err, `tool "boom" failed: panic: kaboom`)

	t.Run("remote", func(t *testing.T) {
		remote := tools.NewTool(tools.ToolDescriptor{Name: "far"}, nil)
		_, err := remote.Call(ctx, nil)
		assert.True(t, errors.Is(err, tools.ErrToolExecution))
	})
}
