package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// fileRow mirrors the JSON shape load_code_from_config reads from
// config/mcp-tool.json (original_source/src/mcp_box.py): a list of objects
// keyed by mcp_tool_name/mcp_tool_code.
type fileRow struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ToolName string `json:"mcp_tool_name"`
	ToolCode string `json:"mcp_tool_code"`
}

// FileStore is the STORE_IN_FILE fallback: a fixed catalog read once at
// startup. It never accepts writes (spec.md §4.6 "read-only at boot"): Insert
// and Delete return ErrReadOnly, so the control plane reports an add as an
// internal error, while a remove still takes the tool out of the registry and
// only logs the catalog failure.
type FileStore struct {
	rows []Row
}

// NewFileStore loads and parses path once; the result is immutable for the
// lifetime of the process.
func NewFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: file: read %s: %w", path, err)
	}
	var raw []fileRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: file: parse %s: %w", path, err)
	}
	rows := make([]Row, 0, len(raw))
	for _, r := range raw {
		if r.ToolCode == "" {
			continue
		}
		rows = append(rows, Row{ID: r.ID, UserID: r.UserID, ToolName: r.ToolName, ToolCode: r.ToolCode})
	}
	return &FileStore{rows: rows}, nil
}

func (s *FileStore) LoadAll(ctx context.Context) ([]Row, error) {
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *FileStore) Insert(ctx context.Context, row Row) error {
	return ErrReadOnly
}

func (s *FileStore) Delete(ctx context.Context, toolName string) error {
	return ErrReadOnly
}
