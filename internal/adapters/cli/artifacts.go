package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Published artifact commands",
	Long:  `Inspect artifacts published to Google Cloud Storage with 'forge build --publish'.`,
}

var artifactsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the publishing configuration",
	Args:  cobra.NoArgs,
	RunE:  runArtifactsStatus,
}

var artifactsListCmd = &cobra.Command{
	Use:   "list <build-id>",
	Short: "List the artifacts published for a build",
	Args:  cobra.ExactArgs(1),
	RunE:  runArtifactsList,
}

var artifactsFormat string

func init() {
	artifactsCmd.AddCommand(artifactsStatusCmd)
	artifactsCmd.AddCommand(artifactsListCmd)

	artifactsListCmd.Flags().StringVar(&artifactsFormat, "output", formatTable, "output format (table, json, yaml)")
}

func runArtifactsStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !cfg.IsGCSEnabled() {
		fmt.Fprintln(out, "Publishing is not configured")
		fmt.Fprintln(out, "\nSet gcs.bucket in ~/.forge/config.yaml or FORGE_GCS_BUCKET to enable it")
		return nil
	}

	fmt.Fprintf(out, "GCS Publishing\n")
	fmt.Fprintf(out, "==============\n\n")
	fmt.Fprintf(out, "Bucket:        %s\n", cfg.GCS.Bucket)
	fmt.Fprintf(out, "Prefix:        %s\n", cfg.GCS.Prefix)
	if cfg.GCS.CredentialsPath != "" {
		fmt.Fprintf(out, "Credentials:   %s\n", cfg.GCS.CredentialsPath)
	} else {
		fmt.Fprintf(out, "Credentials:   Using default (ADC/Workload Identity)\n")
	}
	return nil
}

func runArtifactsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid build id %q: %w", args[0], err)
	}

	logger := newLogger()
	store, err := openArtifactStore(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	artifacts, err := store.List(ctx, id.String())
	if err != nil {
		return err
	}

	if artifactsFormat != formatTable {
		return writeStructured(cmd.OutOrStdout(), artifactsFormat, artifacts)
	}

	if len(artifacts) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No artifacts published for %s\n", id)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tCREATED\tPATH")
	for _, a := range artifacts {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", a.Name, a.Size, a.CreatedAt.Format("2006-01-02 15:04"), a.Path)
	}
	w.Flush()
	return nil
}
