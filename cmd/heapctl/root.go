package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuapare/bufheap/internal/logger"
	"github.com/joshuapare/bufheap/pkg/store"
	"github.com/joshuapare/bufheap/pkg/types"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	pageSize   int64
	pageWindow int
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Create, inspect and edit bufheap backing files",
	Long: `heapctl works on bufheap backing files: block-structured buffer heaps
stored in a single memory-mapped file. It can create a heap, store and fetch
buffers, list live buffers and check the heap structure.

Logging goes to stderr when BUFHEAP_LOG_LEVEL is set (debug, info, warn,
error). Set BUFHEAP_LOG_DIR to write daily log files there instead.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		Int64Var(&pageSize, "page-size", 0, "Page cache page size in bytes (0 = default)")
	rootCmd.PersistentFlags().
		IntVar(&pageWindow, "pages", 0, "Maximum resident pages (0 = default)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(*cobra.Command, []string) error {
	name := os.Getenv("BUFHEAP_LOG_LEVEL")
	if name == "" {
		return nil
	}
	lvl, ok := logger.ParseLevel(name)
	if !ok {
		return fmt.Errorf("BUFHEAP_LOG_LEVEL: unknown level %q", name)
	}
	return logger.Init(logger.Options{
		Enabled: true,
		LogDir:  os.Getenv("BUFHEAP_LOG_DIR"),
		Level:   lvl,
		JSON:    jsonOut,
	})
}

// openStore opens an existing heap with the global page cache flags.
func openStore(path string) (*store.Store, error) {
	printVerbose("Opening heap: %s\n", path)
	s, err := store.Open(path, store.Options{PageSize: pageSize, PageWindow: pageWindow})
	if err != nil {
		return nil, fmt.Errorf("failed to open heap: %w", err)
	}
	return s, nil
}

func parseID(s string) (types.ID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 0 {
		return types.InvalidID, fmt.Errorf("invalid buffer id %q", s)
	}
	return types.ID(n), nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatBytes renders a byte count the way info and stats print sizes.
func formatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB", float64(n)/(1024*1024*1024))
}
