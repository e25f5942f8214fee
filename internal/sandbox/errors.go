package sandbox

import "fmt"

// SandboxError mirrors the structured error spec.md §4.2 says run_code may
// return: a name, a value, and a traceback that is logged but never returned
// to the MCP client.
type SandboxError struct {
	Name       string
	Value      string
	Traceback  string
}

func (e *SandboxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Value)
}

// DependencyError wraps a failed dependency install (spec.md §4.2, §7).
type DependencyError struct {
	Dependency string
	Reason     string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("sandbox: dependency %q rejected: %s", e.Dependency, e.Reason)
}

// ArgumentError is returned when a call argument cannot be encoded through
// the literal grammar (spec.md §4.2); raised before any sandbox is created.
type ArgumentError struct {
	Parameter string
	Reason    string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("sandbox: argument %q cannot be encoded: %s", e.Parameter, e.Reason)
}

// TimeoutError is returned when a sandbox session exceeds its deadline
// (spec.md §5 "timeouts").
type TimeoutError struct {
	Tool string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sandbox: tool %q timed out", e.Tool)
}

// ToolExecutionError is the MCP-level error raised from a structured
// SandboxError (spec.md §7): the traceback is deliberately not embedded here.
type ToolExecutionError struct {
	Name  string
	Value string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool execution error: %s: %s", e.Name, e.Value)
}
