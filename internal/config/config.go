package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the project configuration file discovered by walking up
// from the working directory.
const ConfigFileName = "stepwise.toml"

// EnvironmentConfig describes a single named environment from stepwise.toml.
type EnvironmentConfig struct {
	DatabaseURL      string `toml:"database_url"`
	MigrationsPath   string `toml:"migrations_path"`
	GeneratorCommand string `toml:"generator_command"`
	StatementTimeout string `toml:"statement_timeout"`
}

// Config is the parsed stepwise.toml. Top-level values act as defaults for
// every environment.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	MigrationsPath     string                       `toml:"migrations_path"`
	GeneratorCommand   string                       `toml:"generator_command"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
}

// LoadConfig walks up from the working directory looking for stepwise.toml,
// stopping at a project root. A missing file is not an error: commands that
// need values they cannot resolve report that themselves.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return loadConfigFrom(startDir)
}

func loadConfigFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			var config Config
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, err
			}

			config.ConfigFilePath = configPath
			return &config, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// ConfigDir returns the directory containing the config file, or "" when no
// config file was found.
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
