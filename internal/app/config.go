package app

// Config holds the application configuration
type Config struct {
	// Tunnel definition files, in the order their hosts are supervised.
	ConfigFiles []string

	// Template variables as key=value pairs and an optional YAML vars file.
	// Pairs override the file.
	Vars     []string
	VarsFile string

	// UI mode
	TUI bool

	// Debug settings
	Debug bool

	// LogFile, when set, receives a rotating debug-level copy of all logs.
	LogFile string
}

// NewConfig creates a new application configuration
func NewConfig(files []string, debug, tui bool) *Config {
	return &Config{
		ConfigFiles: files,
		Debug:       debug,
		TUI:         tui,
	}
}
