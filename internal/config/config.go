// Package config loads Tool Box's runtime configuration using Viper,
// mirroring the teacher pack's config-loading shape but binding the flat,
// unprefixed environment variables spec.md §6 names directly (no config
// file namespacing is required by the spec, so no env prefix is applied).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every externally-tunable setting (spec.md §6).
type Config struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Transport string `mapstructure:"transport"` // "sse" or "streamable-http"

	StoreInFile   bool   `mapstructure:"store_in_file"`
	FileStorePath string `mapstructure:"file_store_path"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBName     string `mapstructure:"db_name"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`

	E2BJupyterHost string `mapstructure:"e2b_jupyter_host"`

	SandboxTimeoutSeconds int `mapstructure:"sandbox_timeout_seconds"`
}

// Load builds a Config from defaults, an optional config file found along
// configPaths, and environment variables, in that order of increasing
// precedence — the same layering the teacher's LoadConfig uses.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("transport", "streamable-http")
	v.SetDefault("store_in_file", false)
	v.SetDefault("file_store_path", "./config/mcp-tool.json")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_name", "mcpbox")
	v.SetDefault("sandbox_timeout_seconds", 300)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	bindEnv(v, "host", "HOST")
	bindEnv(v, "port", "PORT")
	bindEnv(v, "transport", "TRANSPORT")
	bindEnv(v, "store_in_file", "STORE_IN_FILE")
	bindEnv(v, "file_store_path", "MCP_TOOL_CONFIG_PATH")
	bindEnv(v, "db_host", "DB_HOST")
	bindEnv(v, "db_port", "DB_PORT")
	bindEnv(v, "db_name", "DB_NAME")
	bindEnv(v, "db_user", "DB_USER")
	bindEnv(v, "db_password", "DB_PASSWORD")
	bindEnv(v, "e2b_jupyter_host", "E2B_JUPYTER_HOST")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

func bindEnv(v *viper.Viper, key, env string) {
	_ = v.BindEnv(key, env)
}
