package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the minimal interface satisfied by pgx.Conn, pgxpool.Pool, and any
// test double — mirrors the pack's pattern for a mockable PostgreSQL driver
// dependency.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresConfig configures a PostgresStore.
type PostgresConfig struct {
	// DB is the database connection to use. Required.
	DB DBTX
	// Table is the name of the catalog table. Defaults to "agents_mcp_box".
	Table string
}

// PostgresStore is the normal-operation catalog backend (spec.md §4.6).
type PostgresStore struct {
	db    DBTX
	table string
}

// NewPostgresStore builds a PostgresStore. Call EnsureSchema before first use.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("catalog: postgres: db is required")
	}
	table := cfg.Table
	if table == "" {
		table = "agents_mcp_box"
	}
	return &PostgresStore{db: cfg.DB, table: table}, nil
}

// EnsureSchema creates the catalog table if it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR,
		mcp_tool_name VARCHAR UNIQUE NOT NULL,
		mcp_tool_code TEXT NOT NULL
	)`, s.table)
	_, err := s.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("catalog: postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]Row, error) {
	query := fmt.Sprintf(`SELECT id, user_id, mcp_tool_name, mcp_tool_code FROM %s`, s.table)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: postgres: load all: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.UserID, &r.ToolName, &r.ToolCode); err != nil {
			return nil, fmt.Errorf("catalog: postgres: scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: postgres: load all: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, row Row) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, user_id, mcp_tool_name, mcp_tool_code) VALUES ($1, $2, $3, $4)`, s.table)
	_, err := s.db.Exec(ctx, query, row.ID, row.UserID, row.ToolName, row.ToolCode)
	if err != nil {
		return fmt.Errorf("catalog: postgres: insert %q: %w", row.ToolName, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, toolName string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE mcp_tool_name = $1`, s.table)
	tag, err := s.db.Exec(ctx, query, toolName)
	if err != nil {
		return fmt.Errorf("catalog: postgres: delete %q: %w", toolName, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
