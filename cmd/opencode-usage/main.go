// Package main is the entry point for the opencode-usage TUI.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xiello/opencode-usage/internal/app"
	"github.com/xiello/opencode-usage/internal/config"
	"github.com/xiello/opencode-usage/internal/logger"
	"github.com/xiello/opencode-usage/internal/report"
	"github.com/xiello/opencode-usage/internal/services"
	"github.com/xiello/opencode-usage/internal/storage"
	"github.com/xiello/opencode-usage/internal/ui/tabs/dashboard"
	"github.com/xiello/opencode-usage/internal/ui/tabs/info"
	"github.com/xiello/opencode-usage/internal/ui/tabs/modelusage"
	"github.com/xiello/opencode-usage/internal/ui/tabs/providers"
	"github.com/xiello/opencode-usage/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--report":
			if err := runReport(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			os.Exit(0)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runReport scans the store once and prints a plain-text summary to stdout.
func runReport() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	budgets, limits := config.LoadBudgets(cfg.BudgetsPath)
	st := report.Build(storage.New(cfg.StoragePath), budgets, limits)

	fmt.Print(report.Render(st, time.Now()))
	return nil
}

// run contains the interactive application logic.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The alternate screen owns the terminal while the TUI runs.
	logger.SetOutput(io.Discard)

	// Starts the store pollers and the ingestion routing goroutine.
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	// Each tab reads the shared snapshot state for consistent data access.
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state),
		providers.New(state),
		modelusage.New(state),
		info.New(state, cfg),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`opencode-usage - Live usage and provider-health dashboard for opencode

Usage:
  opencode-usage [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information
      --report    Print a one-shot usage report and exit

Keyboard Shortcuts:
  1-4             Switch between tabs (Dashboard, Providers, Models, Info)
  Tab/Shift+Tab   Navigate between tabs
  v               Toggle month-to-date / all-time view
  s               Cycle model sort (cost/tokens/name)
  w               Cycle chart window
  j/k, Up/Down    Scroll / navigate lists
  r               Refresh now
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  OPENCODE_STORAGE_PATH        opencode storage root (default: ~/.local/share/opencode/storage)
  OPENCODE_USAGE_BUDGETS       budgets YAML file path
  OPENCODE_USAGE_POLL_INTERVAL store polling interval (default: 2s)
  OPENCODE_USAGE_SETTLE_DELAY  file settle delay before ingestion (default: 300ms)
  OPENCODE_USAGE_PRUNE_MAX_AGE retention window for the in-memory ledger (default: 2160h)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/opencode/usage-tui/.env
  - ~/.config/opencode/.env`)
}
