package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config.yaml or .env leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, name := range []string{"FORGE_LOG_LEVEL", "FORGE_TARGET", "FORGE_MODE", "FORGE_SANDBOX", "FORGE_DB_PATH", "FORGE_DATA_DIR", "FORGE_GCP_PROJECT_ID"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return home
}

func TestLoad(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check defaults
	if cfg.Core.LogLevel != "warn" {
		t.Errorf("Core.LogLevel = %v, want warn", cfg.Core.LogLevel)
	}
	if cfg.Transpile.Target != "rust" {
		t.Errorf("Transpile.Target = %v, want rust", cfg.Transpile.Target)
	}
	if cfg.Transpile.Mode != "strict" {
		t.Errorf("Transpile.Mode = %v, want strict", cfg.Transpile.Mode)
	}
	if cfg.Transpile.Indent != "    " {
		t.Errorf("Transpile.Indent = %q, want four spaces", cfg.Transpile.Indent)
	}
	if cfg.Toolchain.Rustc != "rustc" || cfg.Toolchain.Go != "go" {
		t.Errorf("Toolchain = %+v", cfg.Toolchain)
	}
	if cfg.Toolchain.WorkDir != os.TempDir() {
		t.Errorf("Toolchain.WorkDir = %v, want %v", cfg.Toolchain.WorkDir, os.TempDir())
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.GCS.Prefix != "artifacts/" {
		t.Errorf("GCS.Prefix = %v, want artifacts/", cfg.GCS.Prefix)
	}
	if cfg.GCP.MetricPrefix != "custom.googleapis.com/forge" {
		t.Errorf("GCP.MetricPrefix = %v", cfg.GCP.MetricPrefix)
	}
	if cfg.IsMetricsEnabled() {
		t.Error("IsMetricsEnabled() = true without a project")
	}
	wantDB := filepath.Join(home, ".forge", "data", "forge.db")
	if cfg.Database.Path != wantDB {
		t.Errorf("Database.Path = %v, want %v", cfg.Database.Path, wantDB)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("FORGE_LOG_LEVEL", "debug")
	t.Setenv("FORGE_TARGET", "go")
	t.Setenv("FORGE_SANDBOX", "true")
	t.Setenv("FORGE_GCP_PROJECT_ID", "forge-ci")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Core.LogLevel != "debug" {
		t.Errorf("Core.LogLevel = %v, want debug", cfg.Core.LogLevel)
	}
	if cfg.Transpile.Target != "go" {
		t.Errorf("Transpile.Target = %v, want go", cfg.Transpile.Target)
	}
	if !cfg.Run.Sandbox {
		t.Error("Run.Sandbox = false, want true")
	}
	if cfg.GCP.ProjectID != "forge-ci" || !cfg.IsMetricsEnabled() {
		t.Errorf("GCP.ProjectID = %q, want forge-ci", cfg.GCP.ProjectID)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "forge.yaml")
	content := "transpile:\n  mode: permissive\n  indent: \"\\t\"\ngcs:\n  bucket: builds\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Transpile.Mode != "permissive" {
		t.Errorf("Transpile.Mode = %v, want permissive", cfg.Transpile.Mode)
	}
	if cfg.Transpile.Indent != "\t" {
		t.Errorf("Transpile.Indent = %q, want tab", cfg.Transpile.Indent)
	}
	if !cfg.IsGCSEnabled() {
		t.Error("IsGCSEnabled() = false, want true")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestLoadHomeConfig(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".forge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("core:\n  log_level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Core.LogLevel != "error" {
		t.Errorf("Core.LogLevel = %v, want error", cfg.Core.LogLevel)
	}
}

func TestLoadEnvFile(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".env", []byte("FORGE_MODE=permissive\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("FORGE_MODE") })

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transpile.Mode != "permissive" {
		t.Errorf("Transpile.Mode = %v, want permissive", cfg.Transpile.Mode)
	}
}

func TestLoadFlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv("FORGE_TARGET", "rust")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", "", "")
	flags.String("mode", "", "")
	flags.Bool("sandbox", false, "")
	if err := flags.Parse([]string{"--target", "go", "--sandbox"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transpile.Target != "go" {
		t.Errorf("Transpile.Target = %v, want go", cfg.Transpile.Target)
	}
	if !cfg.Run.Sandbox {
		t.Error("Run.Sandbox = false, want true")
	}
	// unset flags must not clobber defaults
	if cfg.Transpile.Mode != "strict" {
		t.Errorf("Transpile.Mode = %v, want strict", cfg.Transpile.Mode)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Core:      CoreConfig{LogLevel: "warn"},
		Transpile: TranspileConfig{Target: "rust", Mode: "strict", Indent: "    "},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"go target", func(c *Config) { c.Transpile.Target = "go" }, false},
		{"unknown target", func(c *Config) { c.Transpile.Target = "python" }, true},
		{"unknown mode", func(c *Config) { c.Transpile.Mode = "lenient" }, true},
		{"empty indent", func(c *Config) { c.Transpile.Indent = "" }, true},
		{"bad log level", func(c *Config) { c.Core.LogLevel = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToolchainBinary(t *testing.T) {
	cfg := &Config{Toolchain: ToolchainConfig{Rustc: "/opt/rustc", Go: "/opt/go"}}
	if got := cfg.ToolchainBinary("go"); got != "/opt/go" {
		t.Errorf("ToolchainBinary(go) = %v", got)
	}
	if got := cfg.ToolchainBinary("rust"); got != "/opt/rustc" {
		t.Errorf("ToolchainBinary(rust) = %v", got)
	}
}
