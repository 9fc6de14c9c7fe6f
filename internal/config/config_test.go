package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv(EnvNamespace, "")
	t.Setenv(EnvBootstrapToken, "")

	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Namespace != DefaultNamespace {
		t.Errorf("Namespace = %q, want %q", cfg.Namespace, DefaultNamespace)
	}
	if cfg.Backend != BackendFirestore {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendFirestore)
	}
	if cfg.BootstrapToken != "" {
		t.Errorf("BootstrapToken = %q, want empty", cfg.BootstrapToken)
	}
}

func TestNewReadsSettingsFile(t *testing.T) {
	t.Setenv(EnvNamespace, "")
	dir := t.TempDir()
	settings := `{
  "namespace": "team-alpha",
  "project_id": "demo-project",
  "api_key": "AIza-test",
  "backend": "relay",
  "relay_url": "http://127.0.0.1:9000"
}`
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(settings), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Namespace != "team-alpha" || cfg.ProjectID != "demo-project" || cfg.APIKey != "AIza-test" {
		t.Errorf("cfg = %+v, want settings applied", cfg)
	}
	if cfg.Backend != BackendRelay || cfg.RelayURL != "http://127.0.0.1:9000" {
		t.Errorf("backend = %q url = %q, want relay settings", cfg.Backend, cfg.RelayURL)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(`{"namespace":"from-file"}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvNamespace, "from-env")
	t.Setenv(EnvBootstrapToken, "boot-token")

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Namespace != "from-env" {
		t.Errorf("Namespace = %q, want the environment override", cfg.Namespace)
	}
	if cfg.BootstrapToken != "boot-token" {
		t.Errorf("BootstrapToken = %q, want boot-token", cfg.BootstrapToken)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(`{"backend":"carrier-pigeon"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Error("New() error = nil, want unknown backend error")
	}
}

func TestNewRejectsMalformedSettings(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), []byte(`{not json`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Error("New() error = nil, want parse error")
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{Dir: "/tmp/rota-test"}
	if got := cfg.SettingsPath(); got != filepath.Join("/tmp/rota-test", SettingsFile) {
		t.Errorf("SettingsPath() = %q", got)
	}
	if got := cfg.SessionPath(); got != filepath.Join("/tmp/rota-test", SessionFile) {
		t.Errorf("SessionPath() = %q", got)
	}
}
