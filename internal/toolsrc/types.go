package toolsrc

// Param is one recovered formal parameter of a tool's entry symbol, carrying
// both what the JSON schema needs and what the sandbox-safe signature needs.
type Param struct {
	Name           string
	JSONType       string // "string", "integer", "number", "boolean", "array", "object"
	Required       bool
	AnnotationDesc string // description recovered from the decorator's annotations.parameters, if any
	// StarlarkDefault is the literal default value text to embed in the
	// sandbox-safe signature (empty when Required is true).
	StarlarkDefault string
}

// Parsed is the output of Parse: everything C4/C5/C3 need to register and
// later execute a tool, per spec.md §4.1.
type Parsed struct {
	EntrySymbol  string
	Description  string
	Params       []Param // I4: declaration order
	Dependencies []string
	StrippedBody string // decorator removed, signature normalized to Starlark syntax
}
