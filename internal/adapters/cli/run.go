package cli

import (
	"github.com/forge-platform/forgecode/internal/core/services"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file.fc1> [-- args...]",
	Short: "Transpile, compile and run a script",
	Long: `Transpile a Forge Code script, compile the generated program in a scratch
directory and run it. The program's exit status becomes forge's exit status.

With --sandbox the program is compiled for wasip1 and executed inside the
wazero runtime with only stdio available.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true, false)
	if err != nil {
		return err
	}
	defer a.Close()
	a.enableMetrics(ctx)

	build, err := a.builds.Run(ctx, args[0], services.RunOptions{
		Args:   args[1:],
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	if build.ExitCode != 0 {
		return &ExitError{Code: build.ExitCode}
	}
	return nil
}
