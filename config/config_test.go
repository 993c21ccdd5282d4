package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ServerMode != "performance" {
		t.Errorf("ServerMode = %q, want performance", cfg.ServerMode)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	content := "host: 127.0.0.1\nport: 9090\nwsPort: 9091\nserverMode: compatibility\nstaticRoot: /srv/www\ndirectoryListing: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Host != "127.0.0.1" || cfg.Port != 9090 || cfg.WSPort != 9091 {
		t.Errorf("addresses = %s %d %d", cfg.Host, cfg.Port, cfg.WSPort)
	}
	if cfg.ServerMode != "compatibility" {
		t.Errorf("ServerMode = %q", cfg.ServerMode)
	}
	if cfg.StaticRoot != "/srv/www" || !cfg.DirectoryListing {
		t.Errorf("static = %q %v", cfg.StaticRoot, cfg.DirectoryListing)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := NewLoader().Load("/no/such/config.yaml"); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DUPLEX_PORT", "7070")

	cfg, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Port)
	}
}
