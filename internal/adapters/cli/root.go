// Package cli implements the Cobra-based command-line interface for Forge Code.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forge-platform/forgecode/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Forge Code - a line-oriented transpiler",
	Long: `Forge translates Forge Code (.fc1) scripts into Rust or Go, compiles the
result with the host toolchain and runs it.

  forge run hello.fc1           transpile, compile and run
  forge build hello.fc1 -o out  produce a binary
  forge emit hello.fc1          print the generated source
  forge check hello.fc1         report diagnostics without compiling`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Errors other than a program's own exit status are printed to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exit *ExitError
		if !errors.As(err, &exit) {
			newPrinter(os.Stderr).Error(err)
		}
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.forge/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("target", "", "target language (rust, go)")
	rootCmd.PersistentFlags().String("mode", "", "handling of unrecognized lines (strict, permissive)")
	rootCmd.PersistentFlags().Bool("sandbox", false, "compile to wasip1 and run inside the wazero sandbox")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(uiCmd)
}

// initializeConfig loads configuration, letting explicitly set flags win.
func initializeConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if verbose {
		loaded.Core.LogLevel = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	return nil
}

// getForgeDir returns the Forge configuration directory.
func getForgeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".forge"), nil
}

// ensureForgeDir creates the Forge directory if it doesn't exist.
func ensureForgeDir() (string, error) {
	dir, err := getForgeDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
