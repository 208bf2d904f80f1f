package tools

import (
	"regexp"

	"github.com/effective-security/eztoolbox/tools/docparse"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "tools")

var (
	reToolName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]{0,63}$`)
	reParamName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Synthesize produces the descriptor of one declaration,
// or SchemaGenerationError naming the offending parameter.
func Synthesize(f Func) (ToolDescriptor, error) {
	if f.err != nil {
		return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Reason: f.err.Error()}
	}
	if !reToolName.MatchString(f.Name) {
		return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Reason: "invalid tool name"}
	}
	if f.Call == nil {
		return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Reason: "callable is not provided"}
	}

	doc := docparse.Parse(f.Doc)
	seen := make(map[string]bool, len(f.Params))
	params := make([]ParameterSpec, 0, len(f.Params))

	for _, p := range f.Params {
		if !reParamName.MatchString(p.Name) {
			return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Param: p.Name, Reason: "invalid parameter name"}
		}
		if seen[p.Name] {
			return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Param: p.Name, Reason: "duplicate parameter name"}
		}
		seen[p.Name] = true

		if p.Variadic || isVariadicHint(p.Hint) {
			return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Param: p.Name, Reason: "variadic parameters are not supported"}
		}

		typ, items := ParseHint(p.Hint)
		spec := ParameterSpec{
			Name:        p.Name,
			Type:        typ,
			Items:       items,
			Required:    !p.HasDefault,
			Description: values.StringsCoalesce(p.Description, doc.Param(p.Name)),
		}
		if p.HasDefault && p.Default != nil {
			def, err := Coerce(p.Default, typ, items)
			if err != nil {
				return ToolDescriptor{}, &SchemaGenerationError{Func: f.Name, Param: p.Name, Reason: "default value: " + err.Error()}
			}
			spec.Default = def
		}
		params = append(params, spec)
	}

	return ToolDescriptor{
		Name:        f.Name,
		Description: doc.Summary,
		Parameters:  params,
	}, nil
}

// SynthesizeBatch synthesizes every declaration independently.
// The catalog holds the declarations that succeeded, in declaration order.
// For duplicate names the first declaration is kept,
// later ones are dropped and reported as DuplicateToolError.
func SynthesizeBatch(funcs []Func) (*Catalog, []error) {
	c := NewCatalog()
	var errs []error
	for i, f := range funcs {
		d, err := Synthesize(f)
		if err != nil {
			logger.KV(xlog.WARNING,
				"status", "schema_generation_failed",
				"func", f.Name,
				"err", err.Error())
			errs = append(errs, err)
			continue
		}
		if _, ok := c.Get(d.Name); ok {
			err = &DuplicateToolError{Name: d.Name, Index: i}
			logger.KV(xlog.WARNING,
				"status", "duplicate_tool",
				"func", f.Name,
				"index", i)
			errs = append(errs, err)
			continue
		}
		c.add(d, f.Call)
	}
	return c, errs
}
