package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tunnelo/internal/app"
)

func newUpCmd() *cobra.Command {
	var (
		flags   configFlags
		debug   bool
		tui     bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "up FILE...",
		Short: "Start and supervise the tunnels defined in FILE",
		Long: `Starts every tunnel defined in the given configuration files and keeps them
alive until interrupted. A tunnel that exits is restarted one second later.

Configuration files are rendered as Go templates before parsing. Variables are
provided with --var key=value or --vars-file, and ${ENV} references are
expanded from the environment.

By default progress is logged to the console. Use --tui for a live status view.
On Ctrl+C (or q in the status view) all tunnels are terminated and tunnelo
exits once every process has been reaped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.NewConfig(args, debug, tui)
			flags.apply(cfg)
			cfg.LogFile = logFile

			application, err := app.NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return application.Run(ctx)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&tui, "tui", false, "Show a live status view instead of console logs")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Also write debug logs to this rotating file")
	return cmd
}
