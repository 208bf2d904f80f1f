package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Callable is the implementation of a tool.
// Args are already validated and coerced to the declared types.
type Callable func(ctx context.Context, args Args) (any, error)

// Param declares one parameter of a Func.
type Param struct {
	Name string
	// Hint is the type annotation, see ParseHint
	Hint string
	// Default is used when HasDefault is set, a parameter with no default is required
	Default    any
	HasDefault bool
	// Variadic marks a parameter that takes a variable number of values,
	// such shapes cannot be described as a tool input
	Variadic bool
	// Description overrides the documentation entry of the parameter
	Description string
}

// Required declares a parameter with no default.
func Required(name, hint string) Param {
	return Param{Name: name, Hint: hint}
}

// Optional declares a parameter with a default value.
func Optional(name, hint string, def any) Param {
	return Param{Name: name, Hint: hint, Default: def, HasDefault: true}
}

// Describe returns a copy of the parameter with the description.
func (p Param) Describe(desc string) Param {
	p.Description = desc
	return p
}

// Func is the declaration of a tool in a registration table.
type Func struct {
	Name string
	// Doc is the documentation block, see docparse for the grammar
	Doc    string
	Params []Param
	Call   Callable

	// err is a deferred construction failure, reported by Synthesize
	err error
}

// Args are the coerced arguments of a tool call
type Args map[string]any

// Has returns true if the argument is present
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the string argument, or empty string
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Number returns the number argument, or 0
func (a Args) Number(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	f, _ := toNumber(a[name])
	return f
}

// Integer returns the integer argument, or 0
func (a Args) Integer(name string) int64 {
	if v, ok := a[name].(int64); ok {
		return v
	}
	i, _ := toInteger(a[name])
	return i
}

// Bool returns the boolean argument, or false
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Array returns the array argument, or nil
func (a Args) Array(name string) []any {
	v, _ := a[name].([]any)
	return v
}

// Object returns the object argument, or nil
func (a Args) Object(name string) map[string]any {
	v, _ := a[name].(map[string]any)
	return v
}

// Decode unmarshals the arguments into v, which must be a pointer to struct.
func (a Args) Decode(v any) error {
	js, err := json.Marshal(a)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(json.Unmarshal(js, v))
}
