package openai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/models"
	"github.com/effective-security/eztoolbox/models/openai"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/eztoolbox/tools"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var catalog = []pool.Tool{
	{
		Server: "calc",
		Descriptor: tools.ToolDescriptor{
			Name:        "add",
			Description: "Add two numbers.",
			Parameters: []tools.ParameterSpec{
				{Name: "a", Type: tools.TypeNumber, Required: true},
				{Name: "b", Type: tools.TypeNumber, Required: true},
			},
		},
	},
}

var history = []dispatch.Message{
	{Role: dispatch.RoleUser, Content: "add 1 and 2"},
	{Role: dispatch.RoleAssistant, ToolCalls: []dispatch.ToolCallRequest{
		{ID: "call_1", QualifiedName: "calc.add", Arguments: map[string]any{"a": 1, "b": 2}},
	}},
	{Role: dispatch.RoleTool, Result: &dispatch.ToolCallResult{ID: "call_1", QualifiedName: "calc.add", Value: "3"}},
}

const functionCallResponse = `{
	"id": "resp_1",
	"object": "response",
	"created_at": 1,
	"model": "test-model",
	"status": "completed",
	"output": [
		{"type": "function_call", "id": "fc_1", "call_id": "call_2", "name": "calc__add", "arguments": "{\"a\":3,\"b\":4}", "status": "completed"},
		{"type": "function_call", "id": "fc_2", "call_id": "call_3", "name": "calc__add", "arguments": "not json", "status": "completed"}
	]
}`

const messageResponse = `{
	"id": "resp_2",
	"object": "response",
	"created_at": 1,
	"model": "test-model",
	"status": "completed",
	"output": [
		{"type": "message", "id": "msg_1", "role": "assistant", "status": "completed",
		 "content": [{"type": "output_text", "text": "The sum is 3.", "annotations": []}]}
	]
}`

func newServer(t *testing.T, body string, captured *atomic.Value) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, _ := io.ReadAll(r.Body)
		captured.Store(string(req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newModel(srv *httptest.Server) *openai.Model {
	client := sdk.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)
	return openai.New(client, "test-model")
}

func Test_Generate(t *testing.T) {
	t.Run("tool calls", func(t *testing.T) {
		var captured atomic.Value
		m := newModel(newServer(t, functionCallResponse, &captured))
		assert.Equal(t, "test-model", m.Name())

		resp, err := m.Generate(context.Background(), &dispatch.ModelRequest{
			SystemPrompt: "be brief",
			History:      history,
			Catalog:      catalog,
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Content)
		require.Len(t, resp.ToolCalls, 2)
		assert.Equal(t, dispatch.ToolCallRequest{
			ID:            "call_2",
			QualifiedName: "calc.add",
			Arguments:     map[string]any{"a": float64(3), "b": float64(4)},
		}, resp.ToolCalls[0])
		assert.Equal(t, map[string]any{}, resp.ToolCalls[1].Arguments)

		body := captured.Load().(string)
		assert.Equal(t, "test-model", gjson.Get(body, "model").String())
		assert.Equal(t, "be brief", gjson.Get(body, "instructions").String())

		assert.Equal(t, int64(1), gjson.Get(body, "tools.#").Int())
		assert.Equal(t, "function", gjson.Get(body, "tools.0.type").String())
		assert.Equal(t, "calc__add", gjson.Get(body, "tools.0.name").String())
		assert.Equal(t, "Add two numbers.", gjson.Get(body, "tools.0.description").String())
		assert.Equal(t, "a", gjson.Get(body, "tools.0.parameters.required.0").String())
		assert.Equal(t, "b", gjson.Get(body, "tools.0.parameters.required.1").String())

		assert.Equal(t, int64(3), gjson.Get(body, "input.#").Int())
		assert.Equal(t, "user", gjson.Get(body, "input.0.role").String())
		assert.Equal(t, "add 1 and 2", gjson.Get(body, "input.0.content").String())
		assert.Equal(t, "function_call", gjson.Get(body, "input.1.type").String())
		assert.Equal(t, "call_1", gjson.Get(body, "input.1.call_id").String())
		assert.Equal(t, "calc__add", gjson.Get(body, "input.1.name").String())
		assert.JSONEq(t, `{"a":1,"b":2}`, gjson.Get(body, "input.1.arguments").String())
		assert.Equal(t, "function_call_output", gjson.Get(body, "input.2.type").String())
		assert.Equal(t, "3", gjson.Get(body, "input.2.output").String())
	})

	t.Run("message", func(t *testing.T) {
		var captured atomic.Value
		m := newModel(newServer(t, messageResponse, &captured))

		resp, err := m.Generate(context.Background(), &dispatch.ModelRequest{
			History: history[:1],
		})
		require.NoError(t, err)
		assert.Equal(t, "The sum is 3.", resp.Content)
		assert.Empty(t, resp.ToolCalls)

		body := captured.Load().(string)
		assert.False(t, gjson.Get(body, "instructions").Exists())
		assert.False(t, gjson.Get(body, "tools").Exists())
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`)
		}))
		defer srv.Close()

		_, err := newModel(srv).Generate(context.Background(), &dispatch.ModelRequest{History: history[:1]})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai: failed to create response")
	})
}

func Test_ToInput(t *testing.T) {
	items := openai.ToInput([]dispatch.Message{
		{Role: dispatch.RoleAssistant, Content: "let me check", ToolCalls: []dispatch.ToolCallRequest{
			{ID: "c1", QualifiedName: "calc.add"},
		}},
		{Role: dispatch.RoleTool, Result: &dispatch.ToolCallResult{ID: "c1", Failure: "Tool call failed: boom"}},
		{Role: dispatch.RoleTool},
	})
	require.Len(t, items, 3)
	require.NotNil(t, items[0].OfMessage)
	require.NotNil(t, items[1].OfFunctionCall)
	assert.Equal(t, "{}", items[1].OfFunctionCall.Arguments)
	assert.Equal(t, "calc__add", items[1].OfFunctionCall.Name)
	require.NotNil(t, items[2].OfFunctionCallOutput)
	assert.Equal(t, "Tool call failed: boom", items[2].OfFunctionCallOutput.Output.OfString.Value)
}

func Test_ToTools(t *testing.T) {
	assert.Nil(t, openai.ToTools(nil))

	list := openai.ToTools(models.Tools(catalog))
	require.Len(t, list, 1)
	require.NotNil(t, list[0].OfFunction)
	assert.Equal(t, "calc__add", list[0].OfFunction.Name)
}
