package mcpsurface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/xiaodong528/mcp-box-new/internal/registry"
	"github.com/xiaodong528/mcp-box-new/internal/sandbox"
	"github.com/xiaodong528/mcp-box-new/internal/toolsrc"
)

const (
	protocolVersionLatest = "2025-11-25"
)

var supportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	"2025-06-18",
	"2025-11-25",
}

// Server is the MCP Surface (C5): it answers initialize/ping/tools-list/
// tools-call over JSON-RPC 2.0, reading tool metadata from the registry and
// routing execution to the sandbox provider. It holds no tool state of its
// own — spec.md §4.4 "the surface does not persist or parse; it sees only
// descriptors and the resolved source string held by C4".
type Server struct {
	Name         string
	Version      string
	Instructions string
	Registry     *registry.Registry
	Sandbox      sandbox.Provider
	// Timeout bounds every call_tool's sandbox execution; zero defers to
	// sandbox.DefaultTimeout (spec.md §5's 300s default).
	Timeout time.Duration
}

func isSupportedProtocolVersion(version string) bool {
	version = strings.TrimSpace(version)
	for _, v := range supportedProtocolVersions {
		if v == version {
			return true
		}
	}
	return false
}

// HandleRequest implements the streamable-HTTP transport: POST / carries one
// JSON-RPC request per body, answered with one JSON-RPC response, always
// HTTP 200 for logical (non-transport) errors, matching the teacher's
// single-shot dispatch style.
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, MCP-Protocol-Version")
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, nil, ErrorCodeParseError, "parse error", map[string]interface{}{"details": err.Error()})
		return
	}
	if req.JSONRPC != "2.0" {
		s.sendError(w, req.ID, ErrorCodeInvalidRequest, "invalid request", map[string]interface{}{"details": "jsonrpc must be \"2.0\""})
		return
	}
	if req.ID == nil {
		req.ID = ""
	}

	s.dispatch(w, r.Context(), &req)
}

// HandleSSE is the thin SSE transport entry point. Deep SSE framing
// (persistent event-stream sessions, server-initiated pushes) is out of
// scope (spec.md §1); this accepts one JSON-RPC request per POST to the same
// path and writes the single response back as one "message" SSE event, so a
// client speaking either transport gets the same RPC semantics.
func (s *Server) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		fmt.Fprintf(w, "event: endpoint\ndata: /sse\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendSSEError(w, nil, ErrorCodeParseError, "parse error")
		return
	}
	if req.ID == nil {
		req.ID = ""
	}
	w.Header().Set("Content-Type", "text/event-stream")
	s.dispatchSSE(w, r.Context(), &req)
}

func (s *Server) dispatch(w http.ResponseWriter, ctx context.Context, req *MCPRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "ping":
		s.sendResult(w, req.ID, map[string]interface{}{})
	case "tools/list":
		s.handleToolsList(w, req)
	case "tools/call":
		s.handleToolsCall(w, ctx, req)
	default:
		s.sendError(w, req.ID, ErrorCodeMethodNotFound, "method not found", map[string]interface{}{"method": req.Method})
	}
}

func (s *Server) dispatchSSE(w http.ResponseWriter, ctx context.Context, req *MCPRequest) {
	rw := &sseResponseWriter{ResponseWriter: w}
	s.dispatch(rw, ctx, req)
	rw.flush()
}

func (s *Server) handleInitialize(w http.ResponseWriter, req *MCPRequest) {
	var params initializeParams
	if req.Params != nil {
		if err := remarshal(req.Params, &params); err != nil {
			s.sendError(w, req.ID, ErrorCodeInvalidParams, "invalid params", nil)
			return
		}
	}

	version := protocolVersionLatest
	if params.ProtocolVersion != "" {
		if !isSupportedProtocolVersion(params.ProtocolVersion) {
			s.sendError(w, req.ID, ErrorCodeInvalidParams, "unsupported protocol version", map[string]interface{}{
				"requested": params.ProtocolVersion,
				"supported": supportedProtocolVersions,
			})
			return
		}
		version = params.ProtocolVersion
	}

	result := initializeResult{
		ProtocolVersion: version,
		Capabilities:    capabilities{Tools: map[string]interface{}{"listChanged": false}},
		ServerInfo:      serverInfo{Name: s.Name, Version: s.Version},
	}
	s.sendResult(w, req.ID, result)
}

func (s *Server) handleToolsList(w http.ResponseWriter, req *MCPRequest) {
	tools := s.listTools()
	s.sendResult(w, req.ID, map[string]interface{}{"tools": tools})
}

// listTools implements spec.md §4.1 "Schema merge": the registry holds the
// parameters C2 recovered; the JSON schema (with merged descriptions) is
// built fresh at list time, never cached on the Tool itself.
func (s *Server) listTools() []MCPTool {
	records := s.Registry.List()
	tools := make([]MCPTool, 0, len(records))
	for _, t := range records {
		tools = append(tools, MCPTool{
			Name:        t.Descriptor.Name,
			Description: t.Descriptor.Description,
			InputSchema: toolsrc.BuildInputSchema(t.Descriptor.Parameters),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

func (s *Server) handleToolsCall(w http.ResponseWriter, ctx context.Context, req *MCPRequest) {
	var params ToolCallParams
	if err := remarshal(req.Params, &params); err != nil {
		s.sendError(w, req.ID, ErrorCodeInvalidParams, "invalid params", nil)
		return
	}

	tool, err := s.Registry.Get(params.Name)
	if err != nil {
		toolErr := newUnknownToolError(params.Name)
		s.sendError(w, req.ID, toolErr.Code, toolErr.Message, toolErr.Data)
		return
	}

	if err := validateRequiredParameters(tool.Descriptor.Parameters, params.Arguments); err != nil {
		s.sendError(w, req.ID, ErrorCodeInvalidParams, err.Error(), nil)
		return
	}

	order := make([]string, len(tool.Descriptor.Parameters))
	for i, p := range tool.Descriptor.Parameters {
		order[i] = p.Name
	}

	result, err := s.Sandbox.Execute(ctx, sandbox.Request{
		EntrySymbol:  tool.EntrySymbol,
		Body:         tool.StrippedBody,
		Dependencies: tool.Dependencies,
		Args:         params.Arguments,
		ArgOrder:     order,
		Timeout:      s.Timeout,
	})
	if err != nil {
		s.sendToolError(w, req.ID, err)
		return
	}

	content := make([]ToolContent, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		if chunk == "" {
			continue
		}
		content = append(content, ToolContent{Type: "text", Text: chunk})
	}
	s.sendResult(w, req.ID, ToolResult{Content: content, IsError: false})
}

// validateRequiredParameters rejects a call before it ever reaches the
// sandbox if a required parameter (I4) is missing, null, or an empty string,
// adapted from the teacher's validateRequiredParameters but driven by
// Descriptor.Parameters directly instead of a re-parsed JSON schema.
func validateRequiredParameters(params []toolsrc.Param, args map[string]interface{}) error {
	for _, p := range params {
		if !p.Required {
			continue
		}
		val, exists := args[p.Name]
		if !exists || val == nil {
			return fmt.Errorf("missing required parameter: %s", p.Name)
		}
		if strVal, ok := val.(string); ok && strVal == "" {
			return fmt.Errorf("required parameter cannot be empty: %s", p.Name)
		}
	}
	return nil
}

// sendToolError maps the sandbox's typed errors onto the MCP error code the
// nature of the failure warrants (spec.md §7).
func (s *Server) sendToolError(w http.ResponseWriter, id interface{}, err error) {
	switch e := err.(type) {
	case *sandbox.ArgumentError:
		s.sendError(w, id, ErrorCodeInvalidParams, e.Error(), nil)
	case *sandbox.DependencyError:
		s.sendError(w, id, ErrorCodeInternalError, e.Error(), map[string]interface{}{"dependency": e.Dependency})
	case *sandbox.TimeoutError:
		s.sendError(w, id, ErrorCodeInternalError, e.Error(), nil)
	case *sandbox.ToolExecutionError:
		s.sendError(w, id, ErrorCodeInternalError, e.Error(), map[string]interface{}{"name": e.Name, "value": e.Value})
	default:
		s.sendError(w, id, ErrorCodeInternalError, err.Error(), nil)
	}
}

func (s *Server) sendResult(w http.ResponseWriter, id interface{}, result interface{}) {
	writeJSONRPC(w, MCPResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	writeJSONRPC(w, MCPResponse{JSONRPC: "2.0", ID: id, Error: &MCPError{Code: code, Message: message, Data: data}})
}

func (s *Server) sendSSEError(w http.ResponseWriter, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "text/event-stream")
	rw := &sseResponseWriter{ResponseWriter: w}
	writeJSONRPC(rw, MCPResponse{JSONRPC: "2.0", ID: id, Error: &MCPError{Code: code, Message: message}})
	rw.flush()
}

func writeJSONRPC(w http.ResponseWriter, resp MCPResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func remarshal(in interface{}, out interface{}) error {
	if in == nil {
		return nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
