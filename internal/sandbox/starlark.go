package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
)

func init() {
	// The composed call assigns a module-level `result`, which needs
	// top-level re-binding support; recursion and sets are left off since
	// nothing in the tool bodies this executor targets needs them.
	resolve.AllowGlobalReassign = true
}

// StarlarkProvider is the concrete Provider (spec.md §9's "one interpreter
// per call" note): every Execute gets its own starlark.Thread and its own
// predeclared environment, so no state can leak between tool invocations.
//
// Grounded on the code-mode Starlark executor pattern: a Thread.Print hook
// for log capture, starlark.ExecFile to run the composed source, and reading
// back a `result` global as the tool's return value.
type StarlarkProvider struct{}

// NewStarlarkProvider returns the default sandbox Provider.
func NewStarlarkProvider() *StarlarkProvider {
	return &StarlarkProvider{}
}

func (p *StarlarkProvider) Execute(ctx context.Context, req Request) (*Result, error) {
	predeclared, err := resolveDependencies(req.Dependencies)
	if err != nil {
		return nil, err
	}

	call, err := EncodeCall(req.EntrySymbol, req.Args, req.ArgOrder)
	if err != nil {
		return nil, err
	}
	source := req.Body + "\n\nresult = " + call + "\n"

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var logs []string
	thread := &starlark.Thread{
		Name: req.EntrySymbol,
		Print: func(_ *starlark.Thread, msg string) {
			logs = append(logs, msg)
		},
	}

	timer := time.AfterFunc(timeout, func() { thread.Cancel("tool execution timed out") })
	defer timer.Stop()

	done := make(chan struct{})
	var globals starlark.StringDict
	var execErr error
	go func() {
		defer close(done)
		globals, execErr = starlark.ExecFile(thread, req.EntrySymbol+".star", source, predeclared)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		thread.Cancel("request context cancelled")
		<-done
	}

	if execErr != nil {
		if isCancellation(execErr) {
			return nil, &TimeoutError{Tool: req.EntrySymbol}
		}
		return nil, classifyExecError(execErr)
	}

	resultVal, ok := globals["result"]
	if !ok || resultVal == starlark.None {
		return &Result{Logs: logs}, nil
	}
	goVal, convErr := starlarkToGo(resultVal)
	if convErr != nil {
		return nil, &ToolExecutionError{Name: "TypeError", Value: convErr.Error()}
	}
	return &Result{Chunks: chunksFromResult(goVal), Logs: logs}, nil
}

// chunksFromResult implements spec.md §4.2's "list of textual results": a
// top-level list value becomes one chunk per element (mirroring a Jupyter-
// style multi-output cell); anything else becomes a single chunk. A plain
// string renders verbatim; any other value is JSON-encoded so the chunk is
// always human-readable text.
func chunksFromResult(v interface{}) []string {
	if list, ok := v.([]interface{}); ok {
		chunks := make([]string, 0, len(list))
		for _, elem := range list {
			chunks = append(chunks, renderChunk(elem))
		}
		return chunks
	}
	return []string{renderChunk(v)}
}

func renderChunk(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func isCancellation(err error) bool {
	return strings.Contains(err.Error(), "cancelled")
}

// classifyExecError turns a starlark failure into the structured
// {name, value, traceback} shape spec.md §4.2/§7 describes, without ever
// surfacing the traceback outside this package.
func classifyExecError(err error) *ToolExecutionError {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return &ToolExecutionError{Name: "RuntimeError", Value: evalErr.Msg}
	}
	return &ToolExecutionError{Name: "SyntaxError", Value: err.Error()}
}
