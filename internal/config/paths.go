package config

import "path/filepath"

const (
	// Layout under TGHARNESS_HOME.
	ConfigFilePath  = "config.toml"
	HistoryFilePath = "history"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".tgharness")
}

func (c *Config) ConfigPath() string {
	return homeConfigPath(c.HomeDir)
}

// HistoryPath returns the REPL history file, or "" when history is disabled.
func (c *Config) HistoryPath() string {
	if c.REPL.HistoryFile == "" {
		return ""
	}
	if filepath.IsAbs(c.REPL.HistoryFile) {
		return c.REPL.HistoryFile
	}
	return filepath.Join(c.HomeDir, c.REPL.HistoryFile)
}
