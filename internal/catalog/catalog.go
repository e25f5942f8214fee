// Package catalog persists the tool rows the control plane accepts, so the
// registry (C4) can be replayed at boot (spec.md §3 "Lifecycle", §4.6). Two
// backends are provided: a PostgreSQL-backed Store for normal operation and a
// read-only JSON file Store for the STORE_IN_FILE fallback mode
// (spec.md §6 configuration, original_source/src/mcp_box.py's
// load_code_from_config).
package catalog

import (
	"context"
	"errors"
)

// Row is one persisted tool: the raw source text plus the identity columns
// the original agents_mcp_box table carries (spec.md §6 "persisted state
// schema").
type Row struct {
	ID       string
	UserID   string
	ToolName string
	ToolCode string
}

// ErrReadOnly is returned by a Store that does not support mutation (the
// file backend).
var ErrReadOnly = errors.New("catalog: store is read-only")

// ErrNotFound is returned by Delete when no row matches the tool name.
var ErrNotFound = errors.New("catalog: row not found")

// Store is the persistence boundary C6 (Control Plane) writes through and
// the boot sequence reads from to replay the registry.
type Store interface {
	// LoadAll returns every persisted row, in no particular order.
	LoadAll(ctx context.Context) ([]Row, error)
	// Insert persists a new row. If row.ID is empty a new one is generated.
	Insert(ctx context.Context, row Row) error
	// Delete removes the row for the given tool name.
	Delete(ctx context.Context, toolName string) error
}
