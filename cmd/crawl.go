package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Discover new keywords, extract them, and update the snapshot",
		Long: `Runs discovery over every configured source, drops keywords already in
the snapshot, and extracts the rest one at a time with a randomized pause.
The snapshot is rewritten every pipeline.checkpoint_every records and once
more at the end. Ctrl-C stops after the current task and still saves.`,
		RunE: runCrawlCommand,
	}
	cmd.Flags().Int("max-tasks", 0, "cap extraction attempts for this run (0 = no cap)")
	cmd.Flags().String("snapshot", "", "snapshot file to read and rewrite")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = appInstance.Close() }()
	logger := appInstance.Logger()

	summary, runErr := appInstance.Pipeline().Run(cmd.Context())
	if err := appInstance.WriteMetrics(); err != nil {
		logger.Warn("metrics export failed", zap.Error(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "snapshot:    %s\n", appInstance.SnapshotPath())
	fmt.Fprintf(out, "discovered:  %d\n", summary.Discovered)
	fmt.Fprintf(out, "known:       %d\n", summary.Duplicates)
	fmt.Fprintf(out, "queued:      %d\n", summary.Queued)
	fmt.Fprintf(out, "extracted:   %d\n", summary.Extracted)
	fmt.Fprintf(out, "failed:      %d\n", summary.Failed)
	fmt.Fprintf(out, "checkpoints: %d\n", summary.Checkpoints)
	if summary.Canceled {
		fmt.Fprintln(out, "interrupted: progress saved, rerun to continue")
	}

	if runErr != nil {
		return fmt.Errorf("crawl: %w", runErr)
	}
	return nil
}
