package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 8000 || cfg.Transport != "streamable-http" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StoreInFile {
		t.Fatalf("store_in_file should default to false")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("HOST", "127.0.0.1")
	os.Setenv("PORT", "9001")
	os.Setenv("STORE_IN_FILE", "true")
	defer os.Unsetenv("HOST")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("STORE_IN_FILE")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("host = %q", cfg.Host)
	}
	if cfg.Port != 9001 {
		t.Fatalf("port = %d", cfg.Port)
	}
	if !cfg.StoreInFile {
		t.Fatalf("store_in_file should be true")
	}
}
