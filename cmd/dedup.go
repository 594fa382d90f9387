package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/newsreduce/internal/app"
)

func newDedupCmd() *cobra.Command {
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "dedup BUCKETS_FILE",
		Short: "Deduplicate day-buckets of listing pages, then crawl the survivors",
		Long: `Reads a JSON array of {"day": "...", "urls": [...]} buckets from
BUCKETS_FILE ("-" for stdin), trims each bucket to the listing pages that
still show new articles and crawls the surviving URLs. With --list-only the
surviving URLs are printed instead of crawled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			buckets, err := readBuckets(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			if listOnly {
				kept, err := appInstance.Dedup(cmd.Context(), buckets)
				if err != nil {
					return fmt.Errorf("run dedup: %w", err)
				}
				for _, u := range kept {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), u)
				}
				return nil
			}

			summary, err := appInstance.Run(cmd.Context(), app.RunRequest{Buckets: buckets})
			if err != nil {
				return fmt.Errorf("run dedup crawl: %w", err)
			}
			printSummary(cmd, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&listOnly, "list-only", false, "print the surviving listing URLs instead of crawling them")
	return cmd
}
