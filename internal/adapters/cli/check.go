package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <file.fc1>",
	Short: "Report diagnostics without compiling",
	Long: `Transpile a Forge Code script and report the first diagnostic, if any,
together with scan statistics. Exits non-zero when the script does not translate.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkFormat string

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "output", formatText, "output format (text, json, yaml)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, false, false)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.builds.Check(ctx, args[0])
	if err != nil {
		return err
	}

	switch checkFormat {
	case formatText:
		if report.OK {
			s := report.Stats
			newPrinter(cmd.OutOrStdout()).Success("%s translates to %s (%d lines, %d statements, %d blocks, max depth %d)",
				report.Script, report.Target, s.Lines, s.Statements, s.Blocks, s.MaxDepth)
		} else {
			newPrinter(cmd.ErrOrStderr()).Diagnostic(report.Diagnostic)
		}
	case formatJSON, formatYAML:
		if err := writeStructured(cmd.OutOrStdout(), checkFormat, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q", checkFormat)
	}

	if !report.OK {
		return &ExitError{Code: 1}
	}
	return nil
}
