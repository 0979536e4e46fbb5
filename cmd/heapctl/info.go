package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <heap>",
		Short: "Validate a heap header and report its geometry",
		Long: `The info command opens a heap file, validates its header and length,
and prints the block geometry and occupancy.

Example:
  heapctl info cache.heap
  heapctl info cache.heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
}

type heapInfo struct {
	Path          string `json:"path"`
	FileSize      int64  `json:"fileSize"`
	BlockSize     int64  `json:"blockSize"`
	Blocks        int64  `json:"blocks"`
	Capacity      int64  `json:"capacity"`
	MaxAllocation int64  `json:"maxAllocation"`
	LiveBuffers   int64  `json:"liveBuffers"`
	FreeBlocks    int64  `json:"freeBlocks"`
}

func runInfo(args []string) error {
	path := args[0]
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Stats()
	if err != nil {
		return err
	}
	info := heapInfo{
		Path:          path,
		BlockSize:     st.BlockSize,
		Blocks:        st.UsableBlocks,
		Capacity:      st.UsableBlocks * st.BlockSize,
		MaxAllocation: s.MaxAllocation(),
		LiveBuffers:   st.LiveBuffers,
		FreeBlocks:    st.FreeBlocks,
	}
	if fi, err := os.Stat(path); err == nil {
		info.FileSize = fi.Size()
	}

	if jsonOut {
		return printJSON(info)
	}
	printInfo("\nHeap Information:\n")
	printInfo("  File: %s\n", info.Path)
	printInfo("  Size: %s\n", formatBytes(info.FileSize))
	printInfo("  Block size: %s\n", formatBytes(info.BlockSize))
	printInfo("  Blocks: %d (%s)\n", info.Blocks, formatBytes(info.Capacity))
	printInfo("  Max allocation: %s\n", formatBytes(info.MaxAllocation))
	printInfo("  Live buffers: %d\n", info.LiveBuffers)
	printInfo("  Free blocks: %d (%.1f%%)\n", info.FreeBlocks, pct(info.FreeBlocks, info.Blocks))
	return nil
}

func pct(n, of int64) float64 {
	if of == 0 {
		return 0
	}
	return 100 * float64(n) / float64(of)
}

