// Package openai implements the model capability over the OpenAI Responses API.
package openai

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/models"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4.1-mini"

// Model calls the Responses API, the history is sent in full on each call
type Model struct {
	client sdk.Client
	model  string
}

var (
	_ dispatch.Model = (*Model)(nil)
	_ dispatch.Named = (*Model)(nil)
)

// New returns the model
func New(client sdk.Client, model string) *Model {
	if model == "" {
		model = DefaultModel
	}
	return &Model{
		client: client,
		model:  model,
	}
}

// Name returns the model name
func (m *Model) Name() string {
	return m.model
}

// Generate returns the final message, or tool calls
func (m *Model) Generate(ctx context.Context, req *dispatch.ModelRequest) (*dispatch.ModelResponse, error) {
	resp, err := m.client.Responses.New(ctx, m.Params(req))
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create response")
	}
	return ToResponse(resp), nil
}

// Params builds the request parameters
func (m *Model) Params(req *dispatch.ModelRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: m.model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: ToInput(req.History)},
		Tools: ToTools(models.Tools(req.Catalog)),
	}
	if req.SystemPrompt != "" {
		params.Instructions = sdk.String(req.SystemPrompt)
	}
	return params
}

// ToTools converts the catalog to function tools
func ToTools(list []models.Tool) []responses.ToolUnionParam {
	if len(list) == 0 {
		return nil
	}
	res := make([]responses.ToolUnionParam, 0, len(list))
	for _, t := range list {
		tool := responses.ToolParamOfFunction(t.Name, t.Schema(), false)
		if t.Description != "" {
			tool.OfFunction.Description = sdk.String(t.Description)
		}
		res = append(res, tool)
	}
	return res
}

// ToInput converts the history to input items
func ToInput(history []dispatch.Message) []responses.ResponseInputItemUnionParam {
	var items []responses.ResponseInputItemUnionParam
	for _, msg := range history {
		switch msg.Role {
		case dispatch.RoleUser:
			items = append(items, easyMessage(responses.EasyInputMessageRoleUser, msg.Content))
		case dispatch.RoleAssistant:
			if msg.Content != "" {
				items = append(items, easyMessage(responses.EasyInputMessageRoleAssistant, msg.Content))
			}
			for _, call := range msg.ToolCalls {
				items = append(items, responses.ResponseInputItemUnionParam{
					OfFunctionCall: &responses.ResponseFunctionToolCallParam{
						CallID:    call.ID,
						Name:      models.EncodeName(call.QualifiedName),
						Arguments: models.MarshalArguments(call.Arguments),
					},
				})
			}
		case dispatch.RoleTool:
			if msg.Result == nil {
				continue
			}
			items = append(items, responses.ResponseInputItemUnionParam{
				OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
					CallID: msg.Result.ID,
					Output: responses.ResponseInputItemFunctionCallOutputOutputUnionParam{
						OfString: sdk.String(msg.Result.Content()),
					},
				},
			})
		}
	}
	return items
}

// ToResponse converts the response output
func ToResponse(resp *responses.Response) *dispatch.ModelResponse {
	res := &dispatch.ModelResponse{}
	for _, item := range resp.Output {
		if item.Type == "function_call" {
			fc := item.AsFunctionCall()
			res.ToolCalls = append(res.ToolCalls, models.ToolCall(fc.CallID, fc.Name, fc.Arguments))
		}
	}
	if len(res.ToolCalls) == 0 {
		res.Content = resp.OutputText()
	}
	return res
}

func easyMessage(role responses.EasyInputMessageRole, text string) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemUnionParam{
		OfMessage: &responses.EasyInputMessageParam{
			Role:    role,
			Content: responses.EasyInputMessageContentUnionParam{OfString: sdk.String(text)},
		},
	}
}
