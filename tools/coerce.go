package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Coerce converts a decoded JSON value to the semantic type.
// Numbers are returned as float64, integers as int64,
// arrays as []any and objects as map[string]any.
// When items is known, array elements are coerced as well.
func Coerce(value any, typ SemanticType, items SemanticType) (any, error) {
	if typ == TypeAny || typ == "" {
		return value, nil
	}
	if value == nil {
		return nil, errors.Newf("expected %s, got null", typ)
	}

	switch typ {
	case TypeNumber:
		return toNumber(value)
	case TypeInteger:
		return toInteger(value)
	case TypeBoolean:
		return toBoolean(value)
	case TypeString:
		return toString(value)
	case TypeArray:
		arr, err := toArray(value)
		if err != nil || items == "" || items == TypeAny {
			return arr, err
		}
		for i, v := range arr {
			c, err := Coerce(v, items, "")
			if err != nil {
				return nil, errors.WithMessagef(err, "item %d", i)
			}
			arr[i] = c
		}
		return arr, nil
	case TypeObject:
		return toObject(value)
	}
	return nil, errors.Newf("unsupported type %s", typ)
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, errors.Newf("expected number, got %q", v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.Newf("expected number, got %q", v)
		}
		return f, nil
	}
	if i, ok := intValue(value); ok {
		return float64(i), nil
	}
	return 0, errors.Newf("expected number, got %T", value)
}

func toInteger(value any) (int64, error) {
	if i, ok := intValue(value); ok {
		return i, nil
	}

	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		n, err := v.Float64()
		if err != nil {
			return 0, errors.Newf("expected integer, got %q", v.String())
		}
		f = n
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Newf("expected integer, got %q", v)
		}
		f = n
	default:
		return 0, errors.Newf("expected integer, got %T", value)
	}

	if math.Trunc(f) != f || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.Newf("expected integer, got %v", f)
	}
	return int64(f), nil
}

func intValue(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func toBoolean(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, errors.Newf("expected boolean, got %q", v)
	}
	return false, errors.Newf("expected boolean, got %T", value)
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case json.Number:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	if i, ok := intValue(value); ok {
		return strconv.FormatInt(i, 10), nil
	}
	return "", errors.Newf("expected string, got %T", value)
}

func toArray(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return append([]any(nil), v...), nil
	case string:
		var arr []any
		if err := json.Unmarshal([]byte(v), &arr); err != nil || arr == nil {
			return nil, errors.Newf("expected array, got %q", v)
		}
		return arr, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = rv.Index(i).Interface()
		}
		return arr, nil
	}
	return nil, errors.Newf("expected array, got %T", value)
}

func toObject(value any) (map[string]any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case string:
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err != nil || obj == nil {
			return nil, errors.Newf("expected object, got %q", v)
		}
		return obj, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = iter.Value().Interface()
		}
		return obj, nil
	}
	return nil, errors.Newf("expected object, got %T", value)
}

// Bind validates the arguments against the parameters,
// applies defaults of missing optional parameters
// and coerces values to their declared types.
// Arguments not described by a parameter are dropped.
func (d ToolDescriptor) Bind(args map[string]any) (Args, error) {
	res := make(Args, len(d.Parameters))
	for _, p := range d.Parameters {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				return nil, &InvalidArgumentsError{Tool: d.Name, Param: p.Name, Reason: "required parameter is missing"}
			}
			if p.Default != nil {
				res[p.Name] = p.Default
			}
			continue
		}
		if v == nil && !p.Required {
			// explicit null selects the default
			if p.Default != nil {
				res[p.Name] = p.Default
			}
			continue
		}

		c, err := Coerce(v, p.Type, p.Items)
		if err != nil {
			return nil, &InvalidArgumentsError{Tool: d.Name, Param: p.Name, Reason: err.Error()}
		}
		res[p.Name] = c
	}
	return res, nil
}

// Unknown returns the sorted names of arguments not described by a parameter.
func (d ToolDescriptor) Unknown(args map[string]any) []string {
	var res []string
	for name := range args {
		if _, ok := d.Param(name); !ok {
			res = append(res, name)
		}
	}
	slices.Sort(res)
	return res
}
