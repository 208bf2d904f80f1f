// Package encoding renders values in the supported output formats.
package encoding

import (
	"bytes"
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Format of the output
type Format = string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the supported formats
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML}

// ErrUnsupportedFormat is returned for unknown formats
var ErrUnsupportedFormat = errors.New("unsupported format")

// Marshal returns v in the format, terminated by a new line.
// TOML requires v to be a struct or a map.
func Marshal(format Format, v any) ([]byte, error) {
	var (
		b   bytes.Buffer
		err error
	)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&b)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		err = enc.Encode(v)
		if err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(&b).Encode(v)
	default:
		return nil, errors.WithMessagef(ErrUnsupportedFormat, "%q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode %s", format)
	}
	return b.Bytes(), nil
}

// Unmarshal decodes data in the format into v
func Unmarshal(format Format, data []byte, v any) error {
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, v)
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatTOML:
		err = toml.Unmarshal(data, v)
	default:
		return errors.WithMessagef(ErrUnsupportedFormat, "%q", format)
	}
	return errors.Wrapf(err, "unable to decode %s", format)
}
