package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past builds and runs",
	Long:  `List recorded builds and runs, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded builds",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded build",
	Long:  `Show a recorded build. Use 'forge artifacts list <id>' for its published files.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var (
	historyLimit  int
	historyFormat string
	historyStatus string
	historyScript string
)

func init() {
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of builds to show")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "filter by status (built, succeeded, run_failed, compile_failed, transpile_failed)")
	historyCmd.Flags().StringVar(&historyScript, "script", "", "filter by script path")
	historyCmd.PersistentFlags().StringVar(&historyFormat, "output", formatTable, "output format (table, json, yaml)")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	filter := ports.BuildFilter{Script: historyScript, Limit: historyLimit}
	if historyStatus != "" {
		status := domain.BuildStatus(historyStatus)
		filter.Status = &status
	}

	builds, err := a.builds.History(ctx, filter)
	if err != nil {
		return err
	}

	if historyFormat != formatTable {
		if builds == nil {
			builds = []*domain.Build{}
		}
		return writeStructured(cmd.OutOrStdout(), historyFormat, builds)
	}

	if len(builds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded")
		return nil
	}
	writeBuildTable(cmd.OutOrStdout(), builds)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.builds.ClearHistory(ctx)
	if err != nil {
		return err
	}
	newPrinter(cmd.OutOrStdout()).Success("Deleted %d builds", n)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid build id %q: %w", args[0], err)
	}

	a, err := newApp(ctx, true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	build, err := a.builds.GetBuild(ctx, id)
	if err != nil {
		return err
	}

	if historyFormat != formatTable {
		return writeStructured(cmd.OutOrStdout(), historyFormat, build)
	}

	writeBuildDetails(cmd.OutOrStdout(), build)
	return nil
}

func writeBuildTable(out io.Writer, builds []*domain.Build) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSCRIPT\tTARGET\tSTATUS\tEXIT\tDURATION\tCREATED")
	fmt.Fprintln(w, "--\t----\t------\t------\t------\t----\t--------\t-------")
	for _, b := range builds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(b.ID.String()),
			b.Kind,
			b.Script,
			b.Platform(),
			b.Status,
			exitLabel(b),
			b.Duration.Round(time.Millisecond),
			b.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
}

func writeBuildDetails(out io.Writer, b *domain.Build) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", b.ID)
	fmt.Fprintf(w, "Kind:\t%s\n", b.Kind)
	fmt.Fprintf(w, "Script:\t%s\n", b.Script)
	fmt.Fprintf(w, "Target:\t%s\n", b.Platform())
	fmt.Fprintf(w, "Status:\t%s\n", b.Status)
	fmt.Fprintf(w, "Exit code:\t%s\n", exitLabel(b))
	fmt.Fprintf(w, "Source hash:\t%s\n", b.SourceHash)
	fmt.Fprintf(w, "Created:\t%s\n", b.CreatedAt.Format(time.RFC3339))
	if b.CompletedAt != nil {
		fmt.Fprintf(w, "Completed:\t%s (%s)\n", b.CompletedAt.Format(time.RFC3339), b.Duration.Round(time.Millisecond))
	}
	if len(b.Artifacts) > 0 {
		fmt.Fprintf(w, "Artifacts:\t%s\n", strings.Join(b.Artifacts, ", "))
	}
	if b.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", b.Error)
	}
	w.Flush()
}

// truncateID shortens an ID for table display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// exitLabel shows the exit code only for builds that ran.
func exitLabel(b *domain.Build) string {
	if !b.Ran() {
		return "-"
	}
	return fmt.Sprintf("%d", b.ExitCode)
}
