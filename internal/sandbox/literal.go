package sandbox

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// EncodeCall composes `entrySymbol(k1=v1, k2=v2, ...)` the way
// fast_mcp_sandbox.py's add_run_code does with repr(v): every argument value
// is round-tripped through a literal grammar rather than interpolated as raw
// text, so a string argument containing e.g. a quote cannot break out of its
// slot (spec.md §4.2). Only keys actually present in args are emitted, in
// order's relative order — an omitted key is left for the Starlark-native
// default embedded in the signature to bind, rather than being passed as an
// explicit None (spec.md §4.2: "each vi is the literal representation of the
// supplied argument").
func EncodeCall(entrySymbol string, args map[string]interface{}, order []string) (string, error) {
	var b strings.Builder
	b.WriteString(entrySymbol)
	b.WriteByte('(')
	first := true
	for _, name := range order {
		v, ok := args[name]
		if !ok {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		lit, err := EncodeLiteral(v)
		if err != nil {
			return "", &ArgumentError{Parameter: name, Reason: err.Error()}
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(lit)
	}
	b.WriteByte(')')
	return b.String(), nil
}

// EncodeLiteral renders a decoded-JSON Go value (string, float64, bool, nil,
// []interface{}, map[string]interface{}) as Starlark literal source text.
func EncodeLiteral(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "None", nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	case string:
		return encodeStringLiteral(val), nil
	case float64:
		return encodeNumberLiteral(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case []interface{}:
		parts := make([]string, len(val))
		for i, elem := range val {
			lit, err := EncodeLiteral(elem)
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			lit, err := EncodeLiteral(val[k])
			if err != nil {
				return "", err
			}
			parts[i] = encodeStringLiteral(k) + ": " + lit
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return "", fmt.Errorf("unrepresentable argument type %T", v)
	}
}

func encodeNumberLiteral(f float64) string {
	if math.Trunc(f) == f && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// encodeStringLiteral quotes s as a double-quoted Starlark string literal.
// Starlark's string-escape grammar is a subset of Go's for the characters
// strconv.Quote escapes (\, ", control characters), so Quote is safe here.
func encodeStringLiteral(s string) string {
	return strconv.Quote(s)
}
