package controlplane

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xiaodong528/mcp-box-new/internal/catalog"
	"github.com/xiaodong528/mcp-box-new/internal/httppool"
	"github.com/xiaodong528/mcp-box-new/internal/registry"
	"github.com/xiaodong528/mcp-box-new/internal/toolsrc"
)

// Server implements the two control-plane routes. It holds the same
// registry instance the MCP Surface reads from, so a successful add/remove
// is immediately visible to the next tools/list or tools/call
// (spec.md §5 "Ordering guarantees").
type Server struct {
	Registry  *registry.Registry
	Catalog   catalog.Store
	Pool      *httppool.Pool
	Transport string // "sse" or "streamable-http", echoed back on a successful add
	MCPBoxURL string
	Logger    *slog.Logger
}

// Router builds the gorilla/mux router exposing /add_mcp_tool/ and
// /remove_mcp_tool/.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/add_mcp_tool/", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/remove_mcp_tool/", s.handleRemove).Methods(http.MethodPost)
	return r
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) writeJSON(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// handleAdd implements spec.md §4.5's add_mcp_tool: parse (C2) before
// touching any store, catalog write (C1) before registry mutation (C4), and
// a best-effort reachability probe only after both have succeeded.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("mcp_tool_name")
	if name == "" {
		s.writeJSON(w, response{Result: ResultParseFail, Error: "missing mcp_tool_name"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSON(w, response{Result: ResultParseFail, Error: "failed to read request body"})
		return
	}
	source := string(body)

	parsed, err := toolsrc.Parse(source)
	if err != nil {
		s.writeJSON(w, response{Result: ResultParseFail, Error: err.Error()})
		return
	}
	if parsed.EntrySymbol != name {
		s.writeJSON(w, response{Result: ResultParseFail, Error: fmt.Sprintf("function name %q does not match mcp_tool_name %q", parsed.EntrySymbol, name)})
		return
	}

	if err := s.Registry.Reserve(name); err != nil {
		s.writeJSON(w, response{Result: ResultConflict, Error: err.Error()})
		return
	}

	if err := s.Catalog.Insert(r.Context(), catalog.Row{ToolName: name, ToolCode: source}); err != nil {
		s.Registry.Release(name)
		s.logger().Error("catalog insert failed", "tool", name, "error", err)
		s.writeJSON(w, response{Result: ResultInternal, Error: "failed to persist tool"})
		return
	}

	tool := &registry.Tool{
		Name:         name,
		Source:       source,
		Dependencies: parsed.Dependencies,
		EntrySymbol:  parsed.EntrySymbol,
		StrippedBody: parsed.StrippedBody,
		Descriptor: registry.Descriptor{
			Name:        parsed.EntrySymbol,
			Description: parsed.Description,
			Parameters:  parsed.Params,
		},
	}
	if err := s.Registry.Finalize(name, tool); err != nil {
		// Reservation vanished out from under us; remove the catalog row
		// written above as a best-effort rollback.
		s.logger().Error("registry finalize failed", "tool", name, "error", err)
		if delErr := s.Catalog.Delete(r.Context(), name); delErr != nil {
			s.logger().Warn("catalog rollback failed after registry finalize failure", "tool", name, "error", delErr)
		}
		s.writeJSON(w, response{Result: ResultInternal, Error: "failed to register tool"})
		return
	}

	if s.Pool != nil && s.MCPBoxURL != "" && !s.Pool.Reachable(s.MCPBoxURL) {
		s.logger().Warn("mcp_box_url not reachable after add", "url", s.MCPBoxURL, "tool", name)
	}

	s.writeJSON(w, response{Result: ResultOK, Transport: s.Transport, MCPBoxURL: s.MCPBoxURL})
}

// handleRemove implements spec.md §4.5's remove_mcp_tool: registry first,
// then catalog, with a catalog-delete failure downgraded to a logged warning
// rather than a reported failure (C4 is the source of truth until restart).
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("mcp_tool_name")
	if name == "" {
		s.writeJSON(w, response{Result: ResultConflict, Error: "missing mcp_tool_name"})
		return
	}

	if err := s.Registry.Unregister(name); err != nil {
		s.writeJSON(w, response{Result: ResultConflict, Error: err.Error()})
		return
	}

	if err := s.Catalog.Delete(r.Context(), name); err != nil {
		s.logger().Warn("catalog delete failed after registry unregister", "tool", name, "error", err)
	}

	s.writeJSON(w, response{Result: ResultOK})
}
