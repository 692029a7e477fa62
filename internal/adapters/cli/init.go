package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize Forge configuration",
	Long: `Initialize Forge by creating the configuration directory and a default
configuration file.

This command creates:
  • ~/.forge/config.yaml - Main configuration file
  • ~/.forge/data/ - Build history database and wasm cache`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPrinter(out)

	forgeDir, err := ensureForgeDir()
	if err != nil {
		return fmt.Errorf("failed to create forge directory: %w", err)
	}

	dataDir := filepath.Join(forgeDir, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	p.Success("Created %s", dataDir)

	// Create default config file
	configPath := filepath.Join(forgeDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		p.Success("Created %s", configPath)
	} else {
		fmt.Fprintf(out, "• Config file already exists: %s\n", configPath)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit ~/.forge/config.yaml to pick a target and toolchain")
	fmt.Fprintln(out, "  2. Run 'forge run hello.fc1' to run a script")
	fmt.Fprintln(out, "  3. Run 'forge ui' to browse past builds")

	return nil
}

const defaultConfig = `# Forge Code configuration

core:
  log_level: warn  # debug, info, warn, error
  log_json: false

transpile:
  target: rust     # rust, go
  mode: strict     # strict, permissive
  indent: "    "

toolchain:
  rustc: rustc
  go: go
  keep_artifacts: false

run:
  sandbox: false   # compile to wasip1 and run in wazero

history:
  enabled: true

# Publishing with 'forge build --publish'
gcs:
  bucket: ""
  credentials_path: ""
  prefix: artifacts/

# Export build duration, status and exit codes to Cloud Monitoring
gcp:
  project_id: ""
  credentials_path: ""
  metric_prefix: custom.googleapis.com/forge
`
