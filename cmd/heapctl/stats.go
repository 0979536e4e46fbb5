package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <heap>",
		Short: "Show occupancy and page cache statistics",
		Long: `The stats command shows block occupancy, record table usage and the page
cache counters accumulated while gathering them.

Example:
  heapctl stats cache.heap
  heapctl stats cache.heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
}

func runStats(args []string) error {
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.List()
	if err != nil {
		return err
	}
	st, err := s.Stats()
	if err != nil {
		return err
	}

	var payload, largest int64
	for _, b := range list {
		payload += b.Size
		largest = max(largest, b.Size)
	}
	used := st.UsableBlocks - st.FreeBlocks
	slack := used*st.BlockSize - payload

	if jsonOut {
		return printJSON(map[string]any{
			"stats":         st,
			"payloadBytes":  payload,
			"largestBuffer": largest,
			"slackBytes":    slack,
		})
	}
	printInfo("\nBlocks:\n")
	printInfo("  Used: %d of %d (%.1f%%)\n", used, st.UsableBlocks, pct(used, st.UsableBlocks))
	printInfo("  Overflow record blocks: %d\n", st.OverflowBlocks)
	printInfo("\nBuffers:\n")
	printInfo("  Live: %d\n", st.LiveBuffers)
	printInfo("  Payload: %s\n", formatBytes(payload))
	printInfo("  Largest: %s\n", formatBytes(largest))
	printInfo("  Slack in tail blocks: %s\n", formatBytes(slack))
	printInfo("\nPage cache:\n")
	printInfo("  Resident: %d\n", st.Pages.Resident)
	printInfo("  Hits/Misses: %d/%d\n", st.Pages.Hits, st.Pages.Misses)
	printInfo("  Evictions: %d\n", st.Pages.Evictions)
	return nil
}
