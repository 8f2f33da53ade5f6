package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"tunnelo/internal/config"
	"tunnelo/internal/tunnel"
	"tunnelo/pkg/logging"
)

// Application is the main application structure that bootstraps and runs tunnelo
type Application struct {
	config    *Config
	fs        afero.Fs
	endpoints []tunnel.Endpoint
}

// NewApplication initializes logging, loads the tunnel definitions and runs
// the preflight checks.
func NewApplication(cfg *Config) (*Application, error) {
	return newApplication(cfg, afero.NewOsFs())
}

func newApplication(cfg *Config, fs afero.Fs) (*Application, error) {
	logging.InitForCLI(logLevel(cfg), os.Stdout)
	if cfg.LogFile != "" {
		logging.EnableFile(logging.FileOptions{Path: cfg.LogFile})
		logging.Debug("Bootstrap", "Writing debug log to %s", cfg.LogFile)
	}

	endpoints, err := LoadEndpoints(fs, cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load tunnel configuration")
		return nil, err
	}
	logging.Info("Bootstrap", "Loaded %d tunnels from %d files", len(endpoints), len(cfg.ConfigFiles))

	preflight(endpoints)

	return &Application{
		config:    cfg,
		fs:        fs,
		endpoints: endpoints,
	}, nil
}

// LoadEndpoints reads every configured file, rendering templates with the
// configured variables, and expands the hosts into endpoints.
func LoadEndpoints(fs afero.Fs, cfg *Config) ([]tunnel.Endpoint, error) {
	vars := map[string]interface{}{}
	if cfg.VarsFile != "" {
		fileVars, err := config.LoadVarsFile(fs, cfg.VarsFile)
		if err != nil {
			return nil, err
		}
		vars = config.MergeVars(vars, fileVars)
	}
	pairs, err := config.ParseVars(cfg.Vars)
	if err != nil {
		return nil, err
	}
	vars = config.MergeVars(vars, pairs)

	hosts, err := config.NewLoader(fs, vars).LoadFiles(cfg.ConfigFiles)
	if err != nil {
		return nil, err
	}
	endpoints := tunnel.Expand(hosts)
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no tunnels defined in %v", cfg.ConfigFiles)
	}
	return endpoints, nil
}

// Endpoints returns the loaded endpoints.
func (a *Application) Endpoints() []tunnel.Endpoint {
	return a.endpoints
}

// Run executes the application in the appropriate mode
func (a *Application) Run(ctx context.Context) error {
	defer logging.Close()
	if a.config.TUI {
		return runTUIMode(ctx, a.config, a.engineConfig())
	}
	return runCLIMode(ctx, a.config, a.engineConfig())
}

func (a *Application) engineConfig() tunnel.Config {
	return tunnel.Config{
		Endpoints: a.endpoints,
		SSHFlags:  tunnel.SSHConfigFlags(a.fs),
	}
}

func logLevel(cfg *Config) logging.LogLevel {
	if cfg.Debug {
		return logging.LevelDebug
	}
	return logging.LevelInfo
}
