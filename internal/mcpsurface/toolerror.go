package mcpsurface

// JSON-RPC 2.0 reserved error codes (teacher's tool_error.go constants).
const (
	ErrorCodeParseError     = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// ErrorCodeUnknownTool is this surface's one implementation-defined code
// (spec.md §4.4: "Unknown name on call_tool yields UnknownTool, distinct
// from execution failure"), placed in the -32000..-32099 reserved-for-server
// range JSON-RPC leaves open.
const ErrorCodeUnknownTool = -32001

// ToolError carries an explicit JSON-RPC error code/message/data triple so
// handleToolsCall doesn't have to guess a code from a generic error.
type ToolError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *ToolError) Error() string {
	return e.Message
}

func newUnknownToolError(name string) *ToolError {
	return &ToolError{
		Code:    ErrorCodeUnknownTool,
		Message: "unknown tool",
		Data:    map[string]interface{}{"name": name},
	}
}
