package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*PostgresStore)(nil)

func newTestStore(t *testing.T) (*PostgresStore, pgxmock.PgxConnIface) {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	store, err := NewPostgresStore(PostgresConfig{DB: mock})
	require.NoError(t, err)
	return store, mock
}

func TestNewPostgresStore(t *testing.T) {
	t.Run("nil db returns error", func(t *testing.T) {
		_, err := NewPostgresStore(PostgresConfig{})
		assert.Error(t, err)
	})

	t.Run("default table", func(t *testing.T) {
		mock, _ := pgxmock.NewConn()
		store, err := NewPostgresStore(PostgresConfig{DB: mock})
		require.NoError(t, err)
		assert.Equal(t, "agents_mcp_box", store.table)
	})

	t.Run("custom table", func(t *testing.T) {
		mock, _ := pgxmock.NewConn()
		store, err := NewPostgresStore(PostgresConfig{DB: mock, Table: "custom_box"})
		require.NoError(t, err)
		assert.Equal(t, "custom_box", store.table)
	})
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS agents_mcp_box").
		WillReturnResult(pgconn.NewCommandTag("CREATE TABLE"))

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGeneratesID(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO agents_mcp_box").
		WithArgs(pgxmock.AnyArg(), "test", "getHostFaultCause", "def getHostFaultCause(): pass").
		WillReturnResult(pgconn.NewCommandTag("INSERT 0 1"))

	err := store.Insert(ctx, Row{UserID: "test", ToolName: "getHostFaultCause", ToolCode: "def getHostFaultCause(): pass"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)

	rows := pgxmock.NewRows([]string{"id", "user_id", "mcp_tool_name", "mcp_tool_code"}).
		AddRow("id-1", "test", "getHostFaultCause", "def getHostFaultCause(): pass").
		AddRow("id-2", "test", "getMiddleFaultCause", "def getMiddleFaultCause(): pass")

	mock.ExpectQuery("SELECT id, user_id, mcp_tool_name, mcp_tool_code FROM agents_mcp_box").
		WillReturnRows(rows)

	got, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "getHostFaultCause", got[0].ToolName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM agents_mcp_box").
		WithArgs("missing").
		WillReturnResult(pgconn.NewCommandTag("DELETE 0"))

	err := store.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteError(t *testing.T) {
	ctx := context.Background()
	store, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM agents_mcp_box").
		WithArgs("getHostFaultCause").
		WillReturnError(fmt.Errorf("connection refused"))

	err := store.Delete(ctx, "getHostFaultCause")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "catalog: postgres: delete")
}
