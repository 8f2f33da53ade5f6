package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"tunnelo/internal/reporting"
	"tunnelo/internal/tui"
	"tunnelo/internal/tunnel"
	"tunnelo/pkg/logging"
)

// For mocking in tests
var notifyContext = signal.NotifyContext

// runCLIMode supervises the tunnels with console logging until SIGINT or
// SIGTERM, then waits for every tunnel to shut down.
func runCLIMode(ctx context.Context, config *Config, engine tunnel.Config) error {
	ctx, stop := notifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Reporter = reporting.NewConsoleReporter()
	if engine.Runner == nil {
		engine.Runner = &tunnel.ExecRunner{}
	}
	orchestrator, err := tunnel.New(engine)
	if err != nil {
		logging.Error("CLI", err, "Failed to set up tunnels")
		return err
	}

	logging.Info("CLI", "Supervising %d tunnels. Press Ctrl+C to stop all tunnels and exit.", len(engine.Endpoints))
	go func() {
		<-ctx.Done()
		// A second interrupt during shutdown terminates tunnelo.
		stop()
		logging.Info("CLI", "--- Shutting down tunnels ---")
	}()

	if err := orchestrator.Run(ctx); err != nil {
		logging.Error("CLI", err, "Tunnels did not shut down cleanly")
		return err
	}
	return nil
}

// runTUIMode shows a live status view while the tunnels run. Quitting the
// view, SIGINT or SIGTERM stop the tunnels; shutdown progress is logged to
// the terminal once the view is gone.
func runTUIMode(ctx context.Context, config *Config, engine tunnel.Config) error {
	ctx, stop := notifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	level := logLevel(config)
	logChan := logging.InitForTUI(level)

	store := reporting.NewStateStore()
	updates := reporting.NewChannelReporter(0)
	engine.Reporter = reporting.Multi{
		reporting.ReporterFunc(func(u reporting.Update) { store.Apply(u) }),
		updates,
	}
	if engine.Runner == nil {
		// The view owns the terminal, so child output becomes log lines.
		engine.Runner = &tunnel.ExecRunner{Inherit: func(label string) (io.Writer, io.Writer) {
			return logging.NewLineWriter(label, logging.LevelInfo), logging.NewLineWriter(label, logging.LevelWarn)
		}}
	}

	orchestrator, err := tunnel.New(engine)
	if err != nil {
		logging.InitForCLI(level, os.Stdout)
		logging.Error("TUI", err, "Failed to set up tunnels")
		return err
	}

	done := make(chan error, 1)
	go func() { done <- orchestrator.Run(ctx) }()

	p := tui.NewProgram(ctx, tui.Config{
		Endpoints: engine.Endpoints,
		Store:     store,
		Updates:   updates.Updates(),
		Logs:      logChan,
		Debug:     config.Debug,
	})
	_, runErr := p.Run()
	cancel()
	stop()

	logging.InitForCLI(level, os.Stdout)
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		logging.Error("TUI", runErr, "Error running TUI program")
	}
	logging.Info("CLI", "--- Shutting down tunnels ---")

	if err := <-done; err != nil {
		logging.Error("CLI", err, "Tunnels did not shut down cleanly")
		return err
	}
	return nil
}
