package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"tunnelo/internal/app"
	"tunnelo/internal/tunnel"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func newListCmd() *cobra.Command {
	var flags configFlags

	cmd := &cobra.Command{
		Use:   "list FILE...",
		Short: "Print the tunnels defined in FILE and the commands they run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.NewConfig(args, false, false)
			flags.apply(cfg)

			fs := afero.NewOsFs()
			endpoints, err := app.LoadEndpoints(fs, cfg)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderEndpoints(endpoints, tunnel.SSHConfigFlags(fs)))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderEndpoints(endpoints []tunnel.Endpoint, sshFlags []string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TUNNEL", "KIND", "COMMAND")

	for _, ep := range endpoints {
		t.Row(ep.Name(), string(ep.Kind), strings.Join(tunnel.Plan(ep, sshFlags), "\n"))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return lipgloss.NewStyle().Padding(0, 1)
	})
	return t.String()
}
