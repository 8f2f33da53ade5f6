package cmd

import (
	"github.com/spf13/cobra"

	"tunnelo/internal/app"
)

// configFlags are shared by every command that reads tunnel definitions.
type configFlags struct {
	vars     []string
	varsFile string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "Template variable as key=value (repeatable)")
	cmd.Flags().StringVar(&f.varsFile, "vars-file", "", "YAML file with template variables")
}

func (f *configFlags) apply(cfg *app.Config) {
	cfg.Vars = f.vars
	cfg.VarsFile = f.varsFile
}
