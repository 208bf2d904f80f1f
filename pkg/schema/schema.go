package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.Mutex
)

// Schema is the reflected schema of a Go type.
type Schema struct {
	RawSchema *jsonschema.Schema
	// Parameters is the flattened object schema used as tool input
	Parameters *jsonschema.Schema
}

// New returns the schema of the given struct type.
// Results are cached per type.
func New(t reflect.Type) (*Schema, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Newf("schema: expected struct type, got %v", t)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	raw := JSONSchema(t)
	params, err := ToFunctionSchema(raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "schema: %s", t.Name())
	}

	s := &Schema{
		RawSchema:  raw,
		Parameters: params,
	}
	cache[t] = s
	return s, nil
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

// ToFunctionSchema returns the top level object schema with
// all $defs references inlined.
func ToFunctionSchema(raw *jsonschema.Schema) (*jsonschema.Schema, error) {
	rootID := strings.TrimPrefix(raw.Ref, "#/$defs/")

	defs := make(map[string]*jsonschema.Schema)
	root := raw
	for name, def := range raw.Definitions {
		if name == rootID {
			root = def
		} else {
			defs[name] = def
		}
	}

	res := &jsonschema.Schema{
		Type:       values.StringsCoalesce(root.Type, "object"),
		Properties: root.Properties,
		Required:   root.Required,
	}
	if res.Properties == nil {
		res.Properties = orderedmap.New[string, *jsonschema.Schema]()
	}

	if err := resolveRefs(res.Properties, defs); err != nil {
		return nil, err
	}
	return res, nil
}

func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) error {
	if props == nil {
		return nil
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Ref != "" {
			def, err := lookupRef(pair.Value.Ref, defs)
			if err != nil {
				return errors.WithMessagef(err, "property %q", pair.Key)
			}
			pair.Value = def
		}
		child := pair.Value
		if child.Items != nil && child.Items.Ref != "" {
			def, err := lookupRef(child.Items.Ref, defs)
			if err != nil {
				return errors.WithMessagef(err, "items of %q", pair.Key)
			}
			child.Items = def
		}
		if err := resolveRefs(child.Properties, defs); err != nil {
			return err
		}
	}
	return nil
}

func lookupRef(ref string, defs map[string]*jsonschema.Schema) (*jsonschema.Schema, error) {
	name := strings.TrimPrefix(ref, "#/$defs/")
	if def, ok := defs[name]; ok {
		return def, nil
	}
	return nil, errors.Newf("reference not found: %s", ref)
}

// JSONSchema reflects the json schema of t.
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// Struct names collide across packages, the hash keeps $defs unique.
	// See https://github.com/invopop/jsonschema/issues/42
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

// Property describes one property of an object schema.
type Property struct {
	Name        string
	Type        string
	Description string
	// Items is the element type of an array, if known
	Items string
	// Default is emitted when HasDefault is set
	Default    any
	HasDefault bool
}

// Object builds an object schema with properties in the given order.
func Object(props []Property, required []string) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
	for _, p := range props {
		ps := &jsonschema.Schema{
			Description: p.Description,
		}
		// "any" has no type constraint
		if p.Type != "" && p.Type != "any" {
			ps.Type = p.Type
		}
		if p.Type == "array" && p.Items != "" && p.Items != "any" {
			ps.Items = &jsonschema.Schema{Type: p.Items}
		}
		if p.HasDefault {
			ps.Default = p.Default
		}
		s.Properties.Set(p.Name, ps)
	}
	if len(required) > 0 {
		s.Required = append([]string(nil), required...)
	}
	return s
}

// ToMap converts the schema to its generic JSON form.
func ToMap(s *jsonschema.Schema) (map[string]any, error) {
	js, err := json.Marshal(s)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var m map[string]any
	if err := json.Unmarshal(js, &m); err != nil {
		return nil, errors.WithStack(err)
	}
	openProperties(m)
	return m, nil
}

// openProperties replaces the boolean form of an unconstrained
// property schema with an empty object
func openProperties(m map[string]any) {
	props, _ := m["properties"].(map[string]any)
	for name, p := range props {
		switch v := p.(type) {
		case bool:
			props[name] = map[string]any{}
		case map[string]any:
			openProperties(v)
			if items, ok := v["items"].(bool); ok && items {
				v["items"] = map[string]any{}
			}
		}
	}
}
