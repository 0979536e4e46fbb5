package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/bufheap/internal/writer"
)

var (
	getOffset int64
	getCount  int64
	getOutput string
)

func init() {
	cmd := newGetCmd()
	cmd.Flags().Int64Var(&getOffset, "offset", 0, "Start offset within the buffer")
	cmd.Flags().Int64Var(&getCount, "count", -1, "Bytes to copy (-1 = to the end)")
	cmd.Flags().StringVarP(&getOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <heap> <id>",
		Short: "Copy a buffer's bytes to stdout or a file",
		Long: `The get command copies the contents of a live buffer. The buffer stays
allocated.

Example:
  heapctl get cache.heap 12 > photo.jpg
  heapctl get cache.heap 12 --offset 100 --count 16 | xxd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args)
		},
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.Info(id)
	if err != nil {
		return err
	}
	count := getCount
	if count < 0 {
		count = info.Size - getOffset
	}

	var dst io.Writer = cmd.OutOrStdout()
	var out *writer.FileWriter
	if getOutput != "" {
		out, err = writer.Create(getOutput)
		if err != nil {
			return err
		}
		defer out.Abort()
		dst = out
	}
	n, err := s.Read(id, getOffset, dst, count)
	if err != nil {
		return fmt.Errorf("read buffer %d: %w", id, err)
	}
	if out != nil {
		if err := out.Commit(); err != nil {
			return err
		}
	}
	printVerbose("Copied %d bytes\n", n)
	return nil
}
