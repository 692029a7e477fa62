package cli

import (
	"fmt"
	"os"

	"github.com/forge-platform/forgecode/internal/core/services"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build <file.fc1>",
	Short: "Compile a script into an executable",
	Long: `Transpile a Forge Code script and compile it with the target toolchain.
The binary is written next to the script unless -o is given.

With --publish the generated source and the binary are uploaded to the
configured GCS bucket under <prefix>/<build-id>/.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

var emitCmd = &cobra.Command{
	Use:   "emit <file.fc1>",
	Short: "Print the generated source",
	Long:  `Transpile a Forge Code script and print the generated program, or write it to a file with -o.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEmit,
}

var (
	buildOutput  string
	buildPublish bool
	emitOutput   string
)

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "artifact path")
	buildCmd.Flags().BoolVar(&buildPublish, "publish", false, "upload source and artifact to GCS")

	emitCmd.Flags().StringVarP(&emitOutput, "output", "o", "", "write the program to a file instead of stdout")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true, buildPublish)
	if err != nil {
		return err
	}
	defer a.Close()
	a.enableMetrics(ctx)

	build, err := a.builds.Build(ctx, args[0], services.BuildOptions{
		Output:      buildOutput,
		Publish:     buildPublish,
		Diagnostics: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	p.Success("Built %s", build.Artifacts[0])
	for _, location := range build.Artifacts[1:] {
		fmt.Fprintf(cmd.OutOrStdout(), "  published %s\n", location)
	}
	return nil
}

func runEmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, false, false)
	if err != nil {
		return err
	}
	defer a.Close()

	program, err := a.builds.Emit(ctx, args[0])
	if err != nil {
		return err
	}

	if emitOutput == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), program)
		return err
	}
	if err := os.WriteFile(emitOutput, []byte(program), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", emitOutput, err)
	}
	newPrinter(cmd.OutOrStdout()).Success("Wrote %s", emitOutput)
	return nil
}
