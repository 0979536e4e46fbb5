package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/bufheap/internal/logger"
	"github.com/joshuapare/bufheap/pkg/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	args := os.Args[1:]
	debugMode := false

	// Extract --debug/-d flag
	filteredArgs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--debug" || arg == "-d" {
			debugMode = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	if err := initLogging(debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch filteredArgs[0] {
	case "--help", "-h":
		printHelp()
		os.Exit(0)
	case "--version", "-v":
		fmt.Printf("heapexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}

	heapPath := filteredArgs[0]
	logger.Info("starting heapexplorer", "path", heapPath, "debug", debugMode)

	s, err := store.Open(heapPath, store.Options{})
	if err != nil {
		logger.Error("open heap", "path", heapPath, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(
		NewModel(s, heapPath),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, runErr := p.Run()
	if err := s.Close(); err != nil {
		logger.Warn("error closing heap", "error", err)
	}
	if runErr != nil {
		logger.Error("TUI error", "error", runErr)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", runErr)
		os.Exit(1)
	}

	logger.Info("heapexplorer exited normally")
}

// initLogging sends debug logs to ~/.bufheap/logs. Without --debug
// everything is discarded, since stderr belongs to the TUI.
func initLogging(debug bool) error {
	if !debug {
		return logger.Init(logger.Options{})
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return logger.Init(logger.Options{
		Enabled: true,
		LogDir:  filepath.Join(home, ".bufheap", "logs"),
		Level:   slog.LevelDebug,
	})
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: heapexplorer [options] <heap-file>\n")
	fmt.Fprintf(os.Stderr, "Try 'heapexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("heapexplorer - Interactive TUI for bufheap backing files")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  heapexplorer [options] <heap-file>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Lists the live buffers of a heap with occupancy and page cache")
	fmt.Println("  statistics. Buffers can be inspected as a hex dump, copied to the")
	fmt.Println("  clipboard and released.")
	fmt.Println()
	fmt.Println("  Keys:")
	fmt.Println("    ↑/k, ↓/j    Move up/down")
	fmt.Println("    Enter       Show hex dump of the selected buffer")
	fmt.Println("    c           Copy buffer id (hex dump when the dump is open)")
	fmt.Println("    d           Release the selected buffer")
	fmt.Println("    r           Reload")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug    Enable debug logging to ~/.bufheap/logs/")
	fmt.Println("  -h, --help     Show this help message")
	fmt.Println("  -v, --version  Show version information")
	fmt.Println()
	fmt.Println("For non-interactive operations, use the 'heapctl' command instead.")
}
