// Package registry holds the in-memory, single-writer/many-reader table of
// registered tools (C4 in the design).
package registry

import "github.com/xiaodong528/mcp-box-new/internal/toolsrc"

// Descriptor is the MCP-visible metadata for a Tool: I1 requires
// Descriptor.Name == Tool.Name == Tool.EntrySymbol. Parameters reuses
// toolsrc.Param directly — the descriptor here is exactly what C2 recovered,
// carried forward untouched; C5 turns it into a JSON schema at list time.
type Descriptor struct {
	Name        string
	Description string
	Parameters  []toolsrc.Param // order is I4: declaration order of the formal parameters
}

// Tool is the full record held by the registry: durable source plus derived
// descriptor plus whatever the sandbox executor needs to run a call.
type Tool struct {
	Name         string
	Source       string   // the original text submitted by the author (sole durable artifact)
	Descriptor   Descriptor
	Dependencies []string // ordered specifiers from the <requirements> block
	EntrySymbol  string
	StrippedBody string // source with the host-only decorator removed
}
