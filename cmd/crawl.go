package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/app"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl URL_FILE",
		Short: "Fetch and reduce a flat list of URLs",
		Long: `Reads one URL per line from URL_FILE ("-" for stdin; blank lines and
lines starting with # are skipped), fetches every URL under the configured
concurrency cap and reduces the parsed articles into the configured output.`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCommand,
	}
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	urls, err := readURLs(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	summary, err := appInstance.Run(cmd.Context(), app.RunRequest{URLs: urls})
	if err != nil {
		return fmt.Errorf("run crawl: %w", err)
	}
	printSummary(cmd, summary)
	appInstance.Logger.Debug("crawl command finished", zap.String("run_id", summary.RunID))
	return nil
}

func printSummary(cmd *cobra.Command, s app.Summary) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "run %s: %d dispatched, %d written, %d absent\n", s.RunID, s.Dispatched, s.Written, s.Absent)
	for _, item := range s.Items {
		_, _ = fmt.Fprintln(out, item)
	}
}
