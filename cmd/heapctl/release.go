package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newReleaseCmd())
}

func newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <heap> <id>...",
		Short: "Release buffers and free their blocks",
		Long: `The release command frees one or more buffers. Releasing an id that is
not allocated is an error.

Example:
  heapctl release cache.heap 3 4 5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(args)
		},
	}
}

func runRelease(args []string) error {
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	for _, arg := range args[1:] {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		if err := s.Release(id); err != nil {
			return fmt.Errorf("release %d: %w", id, err)
		}
		printVerbose("Released buffer %d\n", id)
	}
	printInfo("Released %d buffer(s)\n", len(args)-1)
	return nil
}
