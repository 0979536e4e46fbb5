package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/bufheap/pkg/store"
)

var (
	createBlockSize string
	createCapacity  string
	createForce     bool
)

func init() {
	cmd := newCreateCmd()
	cmd.Flags().StringVar(&createBlockSize, "block-size", "32K", "Block size (bytes, or with K/M suffix)")
	cmd.Flags().StringVar(&createCapacity, "capacity", "2G", "Data region capacity (bytes, or with K/M/G suffix)")
	cmd.Flags().BoolVarP(&createForce, "force", "f", false, "Overwrite an existing file")
	rootCmd.AddCommand(cmd)
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <heap>",
		Short: "Create an empty heap file",
		Long: `The create command writes a new, empty heap file. The file is sized for
the requested capacity up front; on most filesystems it is sparse until
buffers are written.

Example:
  heapctl create cache.heap
  heapctl create cache.heap --block-size 4K --capacity 256M`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args)
		},
	}
}

func runCreate(args []string) error {
	path := args[0]
	bs, err := parseSize(createBlockSize)
	if err != nil {
		return fmt.Errorf("--block-size: %w", err)
	}
	capacity, err := parseSize(createCapacity)
	if err != nil {
		return fmt.Errorf("--capacity: %w", err)
	}
	if !createForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	s, err := store.Create(path, store.Options{
		BlockSize:  bs,
		Capacity:   capacity,
		PageSize:   pageSize,
		PageWindow: pageWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to create heap: %w", err)
	}
	blocks := s.BlockCount() - 1
	if err := s.Close(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{"path": path, "blockSize": bs, "blocks": blocks})
	}
	printInfo("Created %s: %d blocks of %s\n", path, blocks, formatBytes(bs))
	return nil
}

// parseSize accepts a byte count with an optional K, M or G suffix (powers
// of 1024).
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	s = strings.TrimSuffix(s, "B")
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult = 1 << 10
	case strings.HasSuffix(s, "M"):
		mult = 1 << 20
	case strings.HasSuffix(s, "G"):
		mult = 1 << 30
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n > (1<<63-1)/mult {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return n * mult, nil
}
