// Package anthropic implements the model capability over the Anthropic Messages API.
package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/models"
	"github.com/effective-security/x/values"
)

// Defaults
const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = int64(4096)
)

// ErrUnsupportedContentType is returned for response blocks
// that are neither text nor tool use
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Model calls the Messages API
type Model struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

var (
	_ dispatch.Model = (*Model)(nil)
	_ dispatch.Named = (*Model)(nil)
)

// New returns the model, zero maxTokens uses DefaultMaxTokens
func New(client sdk.Client, model string, maxTokens int64) *Model {
	return &Model{
		client:    client,
		model:     values.StringsCoalesce(model, DefaultModel),
		maxTokens: values.NumbersCoalesce(maxTokens, DefaultMaxTokens),
	}
}

// Name returns the model name
func (m *Model) Name() string {
	return m.model
}

// Generate returns the final message, or tool calls
func (m *Model) Generate(ctx context.Context, req *dispatch.ModelRequest) (*dispatch.ModelResponse, error) {
	result, err := m.client.Messages.New(ctx, m.Params(req))
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create message")
	}
	return ToResponse(result)
}

// Params builds the request parameters
func (m *Model) Params(req *dispatch.ModelRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(m.model),
		Messages:  ToMessages(req.History),
		MaxTokens: m.maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{
			{
				Type: "text",
				Text: req.SystemPrompt,
			},
		}
	}
	if list := ToTools(models.Tools(req.Catalog)); len(list) > 0 {
		params.Tools = list
	}
	return params
}

// ToTools converts the catalog to tool definitions
func ToTools(list []models.Tool) []sdk.ToolUnionParam {
	if len(list) == 0 {
		return nil
	}

	res := make([]sdk.ToolUnionParam, len(list))
	for i, t := range list {
		inputSchema := sdk.ToolInputSchemaParam{
			Type:       "object",
			Properties: t.Properties,
		}
		if len(t.Required) > 0 {
			inputSchema.Required = t.Required
		}

		res[i] = sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return res
}

// ToMessages converts the history to messages.
// Tool results go back as tool_result blocks of a user message,
// consecutive results share one message.
func ToMessages(history []dispatch.Message) []sdk.MessageParam {
	var (
		res     []sdk.MessageParam
		results []sdk.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			res = append(res, sdk.NewUserMessage(results...))
			results = nil
		}
	}

	for _, msg := range history {
		switch msg.Role {
		case dispatch.RoleUser:
			flush()
			res = append(res, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		case dispatch.RoleAssistant:
			flush()
			var blocks []sdk.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, sdk.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				args := call.Arguments
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(call.ID, args, models.EncodeName(call.QualifiedName)))
			}
			if len(blocks) > 0 {
				res = append(res, sdk.NewAssistantMessage(blocks...))
			}
		case dispatch.RoleTool:
			if msg.Result == nil {
				continue
			}
			results = append(results, sdk.NewToolResultBlock(
				msg.Result.ID,
				msg.Result.Content(),
				msg.Result.Failed(),
			))
		}
	}
	flush()
	return res
}

// ToResponse converts the response content
func ToResponse(result *sdk.Message) (*dispatch.ModelResponse, error) {
	res := &dispatch.ModelResponse{}
	var text string
	for _, block := range result.Content {
		switch content := block.AsAny().(type) {
		case sdk.TextBlock:
			text += content.Text
		case sdk.ToolUseBlock:
			res.ToolCalls = append(res.ToolCalls, models.ToolCall(content.ID, content.Name, string(content.Input)))
		case sdk.ThinkingBlock, sdk.RedactedThinkingBlock:
			// not part of the conversation
		default:
			return nil, errors.WithMessagef(ErrUnsupportedContentType, "anthropic: %T", content)
		}
	}
	if len(res.ToolCalls) == 0 {
		res.Content = text
	}
	return res, nil
}
