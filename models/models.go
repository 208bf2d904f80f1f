// Package models holds helpers shared by the model capability adapters.
package models

import (
	"encoding/json"
	"strings"

	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "models")

// NameSeparator replaces the qualified name separator in function names,
// provider APIs allow only [a-zA-Z0-9_-] there
const NameSeparator = "__"

// EncodeName returns the provider function name of the qualified tool name
func EncodeName(qualified string) string {
	return strings.Replace(qualified, pool.Separator, NameSeparator, 1)
}

// DecodeName returns the qualified tool name of the provider function name
func DecodeName(name string) string {
	return strings.Replace(name, NameSeparator, pool.Separator, 1)
}

// ParseArguments decodes the tool call arguments,
// arguments that are not a JSON object are replaced by an empty one
func ParseArguments(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		logger.KV(xlog.WARNING,
			"status", "invalid_tool_arguments",
			"args", slices.StringUpto(raw, 64),
		)
		return map[string]any{}
	}
	return args
}

// MarshalArguments encodes the tool call arguments as JSON object
func MarshalArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	js, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(js)
}

// Tool is the provider neutral form of a catalog entry
type Tool struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// Tools converts the catalog, with names encoded for the provider
func Tools(catalog []pool.Tool) []Tool {
	res := make([]Tool, 0, len(catalog))
	for _, t := range catalog {
		props, _ := t.Descriptor.InputSchema()["properties"].(map[string]any)
		if props == nil {
			props = map[string]any{}
		}
		res = append(res, Tool{
			Name:        EncodeName(t.QualifiedName()),
			Description: t.Descriptor.Description,
			Properties:  props,
			Required:    t.Descriptor.Required(),
		})
	}
	return res
}

// Schema returns the JSON schema of the tool input
func (t Tool) Schema() map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": t.Properties,
	}
	if len(t.Required) > 0 {
		s["required"] = t.Required
	}
	return s
}

// ToolCall returns the call decoded from the provider name,
// a call without ID gets none here and a fallback one from the loop
func ToolCall(id, name, arguments string) dispatch.ToolCallRequest {
	return dispatch.ToolCallRequest{
		ID:            id,
		QualifiedName: DecodeName(name),
		Arguments:     ParseArguments(arguments),
	}
}
