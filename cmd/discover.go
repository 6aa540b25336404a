package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List the keywords a crawl would extract, without fetching detail pages",
		RunE:  runDiscoverCommand,
	}
	cmd.Flags().String("snapshot", "", "snapshot file used to skip known keywords")
	return cmd
}

func runDiscoverCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	defer func() { _ = appInstance.Close() }()
	queue, summary, err := appInstance.Pipeline().Plan(cmd.Context())
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tKEYWORD\tURL")
	for _, task := range queue {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", task.Kind, task.Keyword, task.URL)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write queue: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d new of %d discovered (%d already known)\n",
		summary.Queued, summary.Discovered, summary.Duplicates)
	return nil
}
