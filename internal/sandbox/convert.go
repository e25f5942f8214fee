package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// starlarkToGo converts a Starlark value into the same JSON-friendly Go
// shapes EncodeLiteral consumes, so a tool's return value round-trips
// cleanly back into the MCP response.
func starlarkToGo(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return float64(i), nil
		}
		f := val.String()
		return f, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		out := make([]interface{}, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			elem, err := starlarkToGo(val.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			elem, err := starlarkToGo(item)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]interface{}, val.Len())
		for _, item := range val.Items() {
			k, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", item[0])
			}
			elemVal, err := starlarkToGo(item[1])
			if err != nil {
				return nil, err
			}
			out[k] = elemVal
		}
		return out, nil
	default:
		return nil, fmt.Errorf("result value of type %s cannot cross the sandbox boundary", v.Type())
	}
}
