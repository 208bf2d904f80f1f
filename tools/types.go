package tools

import (
	"github.com/effective-security/eztoolbox/pkg/schema"
	"github.com/invopop/jsonschema"
)

// SemanticType is the protocol-level type of a tool parameter.
type SemanticType string

// Supported semantic types
const (
	TypeString  SemanticType = "string"
	TypeNumber  SemanticType = "number"
	TypeInteger SemanticType = "integer"
	TypeBoolean SemanticType = "boolean"
	TypeArray   SemanticType = "array"
	TypeObject  SemanticType = "object"
	TypeAny     SemanticType = "any"
)

// ParameterSpec describes one parameter of a tool.
type ParameterSpec struct {
	Name string       `json:"name" yaml:"name" toml:"name"`
	Type SemanticType `json:"type" yaml:"type" toml:"type"`
	// Items is the element type when Type is array, if known
	Items       SemanticType `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
	Required    bool         `json:"required" yaml:"required" toml:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	// Default is the coerced default value of an optional parameter
	Default any `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
}

// ToolDescriptor is the synthesized metadata of a tool.
// Descriptors are values and must not be modified once produced,
// use Clone to derive a new one.
type ToolDescriptor struct {
	Name        string          `json:"name" yaml:"name" toml:"name"`
	Description string          `json:"description" yaml:"description" toml:"description"`
	Parameters  []ParameterSpec `json:"parameters" yaml:"parameters" toml:"parameters"`
	// Endpoint is the name of the owning endpoint
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// Required returns names of the required parameters, in declaration order.
func (d ToolDescriptor) Required() []string {
	var res []string
	for _, p := range d.Parameters {
		if p.Required {
			res = append(res, p.Name)
		}
	}
	return res
}

// Param returns the named parameter spec.
func (d ToolDescriptor) Param(name string) (ParameterSpec, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Clone returns a deep copy of the descriptor.
func (d ToolDescriptor) Clone() ToolDescriptor {
	c := d
	c.Parameters = append([]ParameterSpec(nil), d.Parameters...)
	return c
}

// WithEndpoint returns a copy of the descriptor owned by the endpoint.
func (d ToolDescriptor) WithEndpoint(endpoint string) ToolDescriptor {
	c := d.Clone()
	c.Endpoint = endpoint
	return c
}

// InputSchema returns the JSON schema of the tool input,
// with properties in declaration order.
func (d ToolDescriptor) InputSchema() map[string]any {
	m, err := schema.ToMap(d.jsonSchema())
	if err != nil {
		// a default that does not marshal degrades to an open schema
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return m
}

func (d ToolDescriptor) jsonSchema() *jsonschema.Schema {
	props := make([]schema.Property, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		props = append(props, schema.Property{
			Name:        p.Name,
			Type:        string(p.Type),
			Items:       string(p.Items),
			Description: p.Description,
			Default:     p.Default,
			HasDefault:  !p.Required && p.Default != nil,
		})
	}
	return schema.Object(props, d.Required())
}
