package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPutCmd())
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <heap> [file]",
		Short: "Store a file (or stdin) as a new buffer",
		Long: `The put command allocates a buffer sized to the input and copies the
input into it. It prints the new buffer id.

Example:
  heapctl put cache.heap photo.jpg
  echo hello | heapctl put cache.heap`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(cmd, args)
		},
	}
}

func runPut(cmd *cobra.Command, args []string) error {
	var (
		src  io.Reader
		size int64
	)
	if len(args) == 2 {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			return err
		}
		src, size = f, fi.Size()
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		src, size = bytes.NewReader(data), int64(len(data))
	}
	if size == 0 {
		return fmt.Errorf("input is empty")
	}

	s, err := openStore(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.Allocate(size)
	if err != nil {
		return fmt.Errorf("allocate %d bytes: %w", size, err)
	}
	if _, err := s.Write(id, 0, src, size); err != nil {
		_ = s.Release(id)
		return fmt.Errorf("write buffer %d: %w", id, err)
	}
	printVerbose("Stored %s as buffer %d\n", formatBytes(size), id)

	if jsonOut {
		return printJSON(map[string]any{"id": id, "size": size})
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
