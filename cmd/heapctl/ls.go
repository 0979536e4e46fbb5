package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLsCmd())
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <heap>",
		Short: "List live buffers",
		Long: `The ls command lists every live buffer with its size, block count, head
block and creation time.

Example:
  heapctl ls cache.heap
  heapctl ls cache.heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args)
		},
	}
}

func runLs(args []string) error {
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.List()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(list)
	}
	if quiet {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSIZE\tBLOCKS\tHEAD\tCREATED")
	for _, b := range list {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", b.ID, b.Size, b.Blocks, b.Head, b.Created.Format(time.RFC3339))
	}
	return w.Flush()
}
