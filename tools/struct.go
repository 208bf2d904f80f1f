package tools

import (
	"context"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pkg/schema"
)

// FromStruct declares a tool whose parameters are the fields of I,
// described by their json and jsonschema tags.
// A field is required unless its json tag has omitempty,
// the jsonschema default= tag declares the default value.
func FromStruct[I any](name, doc string, fn func(ctx context.Context, in *I) (any, error)) Func {
	f := Func{
		Name: name,
		Doc:  doc,
	}

	s, err := schema.New(reflect.TypeOf((*I)(nil)).Elem())
	if err != nil {
		f.err = err
		return f
	}

	if fn != nil {
		f.Call = func(ctx context.Context, args Args) (any, error) {
			in := new(I)
			if err := args.Decode(in); err != nil {
				return nil, errors.WithMessage(err, "failed to decode arguments")
			}
			return fn(ctx, in)
		}
	}

	p := s.Parameters
	for pair := p.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		hint := prop.Type
		if hint == "array" && prop.Items != nil {
			hint = "[]" + prop.Items.Type
		}

		param := Param{
			Name:        pair.Key,
			Hint:        hint,
			Description: prop.Description,
		}
		if !slices.Contains(p.Required, pair.Key) {
			param.HasDefault = true
			param.Default = prop.Default
		}
		f.Params = append(f.Params, param)
	}
	return f
}
