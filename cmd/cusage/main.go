// Package main is the entry point for the cursor-usage-tui application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hfrankel/cursor-usage-tui/internal/app"
	"github.com/hfrankel/cursor-usage-tui/internal/config"
	"github.com/hfrankel/cursor-usage-tui/internal/services"
	"github.com/hfrankel/cursor-usage-tui/internal/ui/tabs/info"
	"github.com/hfrankel/cursor-usage-tui/internal/ui/tabs/usage"
	"github.com/hfrankel/cursor-usage-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	// Run the application
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize the service manager. This extracts the Cursor credential
	// and starts the background refresh loop. A missing or unreadable login
	// is not fatal here; the UI shows the persistent error state instead.
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 3. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 4. Initialize tabs with shared state
	state := model.GetState()
	tabs := []app.Tab{
		usage.New(state),                          // Tab 0: Usage - spend and request summaries
		info.New(state, cfg, svcManager.UserID()), // Tab 1: Info - configuration and app info
	}
	model.SetTabs(tabs)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 6. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
	)

	// 7. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`cursor-usage-tui - Cursor spend and usage monitor for your terminal

Usage:
  cusage [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-2             Switch between tabs (Usage, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  r               Refresh usage data
  o               Open the usage dashboard in a browser
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CURSOR_DB_PATH       Override state.vscdb location
  CURSOR_API_BASE_URL  Override API base URL (default: https://cursor.com)
  DASHBOARD_URL        Override dashboard URL opened with 'o'
  REFRESH_INTERVAL     Usage polling interval (default: 60s)
  SPEND_ALERT_DOLLARS  Desktop notification threshold for today's spend

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/cursor-usage-tui/.env
  - ~/.cursor-usage/.env`)
}
