// Package main is the mcpbox CLI entry point: it loads configuration, boots
// the catalog backend, replays it into the registry, and runs the MCP
// Surface and Control Plane servers concurrently.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xiaodong528/mcp-box-new/internal/catalog"
	"github.com/xiaodong528/mcp-box-new/internal/config"
	"github.com/xiaodong528/mcp-box-new/internal/controlplane"
	"github.com/xiaodong528/mcp-box-new/internal/httppool"
	"github.com/xiaodong528/mcp-box-new/internal/mcpsurface"
	"github.com/xiaodong528/mcp-box-new/internal/registry"
	"github.com/xiaodong528/mcp-box-new/internal/sandbox"
	"github.com/xiaodong528/mcp-box-new/internal/toolsrc"
)

var configPath string

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "mcpbox",
		Short: "Tool Box: a long-running MCP server hosting dynamically mutable, sandbox-executed tools",
		RunE:  runServe,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory to search for config.yaml")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, closeStore, err := buildCatalog(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	reg := registry.New()
	if err := replayCatalog(cmd.Context(), store, reg, logger); err != nil {
		return fmt.Errorf("replay catalog: %w", err)
	}

	sandboxProvider := sandbox.NewStarlarkProvider()

	mcpServer := &mcpsurface.Server{
		Name:     "mcp-box",
		Version:  "0.1.0",
		Registry: reg,
		Sandbox:  sandboxProvider,
		Timeout:  time.Duration(cfg.SandboxTimeoutSeconds) * time.Second,
	}

	mcpBoxURL := transportURL(cfg.Transport, cfg.Host, cfg.Port)
	controlServer := &controlplane.Server{
		Registry:  reg,
		Catalog:   store,
		Pool:      httppool.New(httppool.DefaultConfig()),
		Transport: cfg.Transport,
		MCPBoxURL: mcpBoxURL,
		Logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", mcpServer.HandleSSE)
	mux.HandleFunc("/", mcpServer.HandleRequest)

	mcpAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	controlAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port+1)

	mcpHTTP := &http.Server{Addr: mcpAddr, Handler: mux}
	controlHTTP := &http.Server{Addr: controlAddr, Handler: controlServer.Router()}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("mcp surface listening", "addr", mcpAddr, "transport", cfg.Transport)
		if err := mcpHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp surface: %w", err)
		}
	}()
	go func() {
		logger.Info("control plane listening", "addr", controlAddr)
		if err := controlHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("control plane: %w", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mcpHTTP.Shutdown(shutdownCtx)
	controlHTTP.Shutdown(shutdownCtx)
	return nil
}

func transportURL(transport, host string, port int) string {
	if transport == "sse" {
		return fmt.Sprintf("http://%s:%d/sse", host, port)
	}
	return fmt.Sprintf("http://%s:%d/", host, port)
}

// buildCatalog selects the relational or file-backed Store per STORE_IN_FILE,
// returning an optional close func for the pooled connection.
func buildCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalog.Store, func(), error) {
	if cfg.StoreInFile {
		logger.Info("using file catalog backend", "path", cfg.FileStorePath)
		store, err := catalog.NewFileStore(cfg.FileStorePath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	store, err := catalog.NewPostgresStore(catalog.PostgresConfig{DB: pool})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("using postgres catalog backend", "host", cfg.DBHost, "db", cfg.DBName)
	return store, pool.Close, nil
}

// replayCatalog implements boot-time registry replay (spec.md §3
// "Lifecycle": a Tool is created by a successful add_mcp_tool or by catalog
// replay at boot). A row that fails to parse is logged and skipped rather
// than aborting startup.
func replayCatalog(ctx context.Context, store catalog.Store, reg *registry.Registry, logger *slog.Logger) error {
	rows, err := store.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		parsed, err := toolsrc.Parse(row.ToolCode)
		if err != nil {
			logger.Warn("skipping unparseable catalog row at boot", "tool", row.ToolName, "error", err)
			continue
		}
		tool := &registry.Tool{
			Name:         parsed.EntrySymbol,
			Source:       row.ToolCode,
			Dependencies: parsed.Dependencies,
			EntrySymbol:  parsed.EntrySymbol,
			StrippedBody: parsed.StrippedBody,
			Descriptor: registry.Descriptor{
				Name:        parsed.EntrySymbol,
				Description: parsed.Description,
				Parameters:  parsed.Params,
			},
		}
		if err := reg.Register(tool); err != nil {
			logger.Warn("skipping duplicate catalog row at boot", "tool", row.ToolName, "error", err)
			continue
		}
		logger.Info("replayed tool from catalog", "tool", parsed.EntrySymbol)
	}
	return nil
}
