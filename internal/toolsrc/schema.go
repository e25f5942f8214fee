package toolsrc

// BuildInputSchema turns a parsed parameter list into the JSON-schema object
// clients see from tools/list, per spec.md I4 (properties keys are exactly
// the formal parameters, in declaration order) and P3 (schema merge of
// per-parameter descriptions). Property order in the map is not significant
// to JSON consumers; declaration order is preserved separately via Params in
// registry.Descriptor for callers that care.
func BuildInputSchema(params []Param) map[string]interface{} {
	properties := make(map[string]interface{}, len(params))
	var required []string

	for _, p := range params {
		prop := map[string]interface{}{"type": p.JSONType}
		if p.AnnotationDesc != "" {
			prop["description"] = p.AnnotationDesc
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
