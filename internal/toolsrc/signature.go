package toolsrc

import (
	"fmt"
	"strconv"
	"strings"
)

// parseParams splits a Python-style parameter list (the text between the
// parens of a `def name(...):` line) on top-level commas and recovers, for
// each parameter, its name, its JSON-schema type (from the type annotation,
// if any), whether it is required, and an annotation-derived description.
//
// Type hints and pydantic Field(...) wrappers are host-side syntax: they are
// never evaluated, only scanned for (a) the first bare type name, to pick a
// JSON-schema type, and (b) a `default=` keyword argument, which is the
// common pattern for declaring an optional parameter's default value without
// a plain Python `=` (spec.md §9: parse just enough to recover structure).
func parseParams(paramsText string, annotations map[string]string) ([]Param, error) {
	chunks := splitTopLevel(paramsText, ',')
	params := make([]Param, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		p, err := parseOneParam(chunk)
		if err != nil {
			return nil, err
		}
		if desc, ok := annotations[p.Name]; ok {
			p.AnnotationDesc = desc
		}
		params = append(params, p)
	}
	return params, nil
}

func parseOneParam(chunk string) (Param, error) {
	name, typeAnnotation, defaultExpr := splitParamChunk(chunk)
	if name == "" {
		return Param{}, fmt.Errorf("empty parameter name in %q", chunk)
	}

	jsonType := "string"
	if typeAnnotation != "" {
		jsonType = resolveJSONType(typeAnnotation)
	}

	required := defaultExpr == ""
	starlarkDefault := ""
	if defaultExpr != "" {
		starlarkDefault = normalizeDefaultLiteral(defaultExpr)
	} else if typeAnnotation != "" {
		// A FastMCP-style "Annotated[T, Field(default=X, ...)]" declares its
		// default inside the Field(...) call rather than after a plain '='.
		if def, ok := extractFieldDefault(typeAnnotation); ok {
			required = false
			starlarkDefault = normalizeDefaultLiteral(def)
		}
	}

	return Param{
		Name:            name,
		JSONType:        jsonType,
		Required:        required,
		StarlarkDefault: starlarkDefault,
	}, nil
}

// splitParamChunk splits "name: Type = default" into its three parts, each
// delimited only at top-level (outside any nested bracket/paren/string).
func splitParamChunk(chunk string) (name, typeAnnotation, defaultExpr string) {
	eqIdx := topLevelIndex(chunk, '=')
	left := chunk
	if eqIdx >= 0 {
		left = chunk[:eqIdx]
		defaultExpr = strings.TrimSpace(chunk[eqIdx+1:])
	}

	colonIdx := topLevelIndex(left, ':')
	if colonIdx >= 0 {
		name = strings.TrimSpace(left[:colonIdx])
		typeAnnotation = strings.TrimSpace(left[colonIdx+1:])
	} else {
		name = strings.TrimSpace(left)
	}
	return name, typeAnnotation, defaultExpr
}

// resolveJSONType maps a Python-ish type annotation to a JSON-schema type
// name, per SPEC_FULL.md's C2 type-hint mapping table.
func resolveJSONType(typeAnnotation string) string {
	t := typeAnnotation
	if strings.HasPrefix(t, "Annotated[") {
		inner := t[len("Annotated["):]
		parts := splitTopLevel(inner, ',')
		if len(parts) > 0 {
			t = strings.TrimSpace(parts[0])
		}
	}
	// Strip a trailing "[...]" container argument, e.g. List[str] -> List.
	if idx := strings.Index(t, "["); idx >= 0 {
		t = t[:idx]
	}
	switch strings.TrimSpace(t) {
	case "str":
		return "string"
	case "int":
		return "integer"
	case "float":
		return "number"
	case "bool":
		return "boolean"
	case "list", "List":
		return "array"
	case "dict", "Dict":
		return "object"
	default:
		return "string"
	}
}

// extractFieldDefault finds a `default=<expr>` keyword argument inside a
// Field(...) call embedded in a type annotation.
func extractFieldDefault(typeAnnotation string) (string, bool) {
	idx := strings.Index(typeAnnotation, "Field(")
	if idx < 0 {
		return "", false
	}
	open := idx + len("Field(") - 1
	close, err := matchParen(typeAnnotation, open)
	if err != nil {
		return "", false
	}
	inner := typeAnnotation[open+1 : close]
	for _, kw := range splitTopLevel(inner, ',') {
		kw = strings.TrimSpace(kw)
		if strings.HasPrefix(kw, "default") {
			eq := strings.Index(kw, "=")
			if eq >= 0 {
				return strings.TrimSpace(kw[eq+1:]), true
			}
		}
	}
	return "", false
}

// normalizeDefaultLiteral passes through Python literals that are also valid
// Starlark literals unchanged; Python's None becomes Starlark's None (same
// spelling), True/False are identical in both languages.
func normalizeDefaultLiteral(expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "None"
	}
	// A bare numeric literal needs no translation; anything we can't be sure
	// is a safe literal (e.g. a call expression with no usable default) falls
	// back to None so the sandbox-safe signature still parses.
	if _, err := strconv.ParseFloat(expr, 64); err == nil {
		return expr
	}
	switch expr {
	case "True", "False", "None":
		return expr
	}
	if len(expr) >= 2 && (expr[0] == '\'' || expr[0] == '"') && expr[len(expr)-1] == expr[0] {
		return expr
	}
	if strings.HasPrefix(expr, "[") || strings.HasPrefix(expr, "{") {
		return expr
	}
	return "None"
}

// splitTopLevel splits s on sep, ignoring occurrences of sep nested inside
// (), [], {} or string literals.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var inString byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inString = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if c == sep && depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// topLevelIndex returns the index of the first occurrence of b in s at
// nesting depth 0, or -1.
func topLevelIndex(s string, b byte) int {
	depth := 0
	var inString byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inString = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if c == b && depth == 0 {
				return i
			}
		}
	}
	return -1
}
