package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <heap>",
		Short: "Check chains, ownership and leaked blocks",
		Long: `The verify command walks every live buffer's block chain and the overflow
record blocks, and reports blocks owned twice, chains of the wrong length and
blocks that are claimed but unreachable. It exits non-zero on any problem.

Example:
  heapctl verify cache.heap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args)
		},
	}
}

func runVerify(args []string) error {
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.Verify()
	if err != nil {
		return err
	}
	r.Diagnostics.FilePath = args[0]
	if jsonOut {
		if err := printJSON(r); err != nil {
			return err
		}
	} else {
		printInfo("Live records: %d\n", r.LiveRecords)
		printInfo("Chain blocks: %d\n", r.ChainBlocks)
		printInfo("Overflow blocks: %d\n", r.OverflowBlocks)
		printInfo("Free blocks: %d\n", r.FreeBlocks)
		if r.OK() {
			printInfo("  ✓ Structure valid\n")
		} else if verbose {
			printInfo("\n%s", r.Diagnostics.FormatText())
		} else {
			printInfo("\n%s", r.Diagnostics.FormatTextCompact())
		}
	}
	if !r.OK() {
		sum := r.Diagnostics.Summary
		return fmt.Errorf("heap has %d critical, %d error and %d warning issue(s)", sum.Critical, sum.Errors, sum.Warnings)
	}
	return nil
}
