package cli

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/forge-platform/forgecode/internal/adapters/storage"
	"github.com/spf13/cobra"
)

var historyBackupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Back up the build history database",
	Long: `Create a backup of the build history database.
If no output file is specified, a timestamped file is created in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryBackup,
}

var historyRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the build history from a backup",
	Long:  "Replace the build history database with a backup. Files ending in .gz are decompressed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRestore,
}

var (
	backupCompress bool
	backupForce    bool
)

func init() {
	historyCmd.AddCommand(historyBackupCmd)
	historyCmd.AddCommand(historyRestoreCmd)

	historyBackupCmd.Flags().BoolVar(&backupCompress, "compress", true, "Compress backup with gzip")
	historyRestoreCmd.Flags().BoolVarP(&backupForce, "force", "f", false, "Force restore without confirmation")
}

func runHistoryBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// Determine output file
	var outputFile string
	if len(args) > 0 {
		outputFile = args[0]
	} else {
		timestamp := time.Now().Format("20060102-150405")
		outputFile = fmt.Sprintf("forge-backup-%s.db", timestamp)
		if backupCompress {
			outputFile += ".gz"
		}
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// VACUUM INTO needs a plain file; compress from a scratch copy.
	snapshot := outputFile
	if backupCompress {
		tmpDir, err := os.MkdirTemp("", "forge-backup-*")
		if err != nil {
			return fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(tmpDir)
		snapshot = filepath.Join(tmpDir, "forge.db")
	}

	fmt.Fprintf(out, "Creating backup from %s to %s...\n", db.Path(), outputFile)
	if err := db.Backup(ctx, snapshot); err != nil {
		return err
	}

	var sourceSize int64
	if info, err := os.Stat(snapshot); err == nil {
		sourceSize = info.Size()
	}

	if backupCompress {
		if err := compressFile(snapshot, outputFile); err != nil {
			return err
		}
	}

	info, _ := os.Stat(outputFile)
	newPrinter(out).Success("Backup created")
	fmt.Fprintf(out, "  Source size:  %.2f MB\n", float64(sourceSize)/1024/1024)
	if info != nil {
		fmt.Fprintf(out, "  Backup size:  %.2f MB\n", float64(info.Size())/1024/1024)
	}
	fmt.Fprintf(out, "  Output file:  %s\n", outputFile)

	return nil
}

func compressFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dstFile.Close()

	gzWriter := gzip.NewWriter(dstFile)
	if _, err := io.Copy(gzWriter, srcFile); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

func runHistoryRestore(cmd *cobra.Command, args []string) error {
	backupFile := args[0]
	out := cmd.OutOrStdout()

	// Check if backup file exists
	info, err := os.Stat(backupFile)
	if err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	fmt.Fprintf(out, "Backup file: %s (%.2f MB)\n", backupFile, float64(info.Size())/1024/1024)

	if !backupForce {
		fmt.Fprint(out, "This will overwrite the current build history. Continue? [y/N]: ")
		var confirm string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Fprintln(out, "Restore cancelled.")
			return nil
		}
	}

	srcFile, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer srcFile.Close()

	var reader io.Reader = srcFile
	if filepath.Ext(backupFile) == ".gz" {
		gzReader, err := gzip.NewReader(srcFile)
		if err != nil {
			return fmt.Errorf("failed to decompress backup: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	bytesWritten, err := storage.Restore(cfg.Database.Path, reader)
	if err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}

	newPrinter(out).Success("Build history restored")
	fmt.Fprintf(out, "  Restored size: %.2f MB\n", float64(bytesWritten)/1024/1024)
	return nil
}
