package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultEnvironmentName = "local"

// DefaultMigrationsPath is used when neither flag, env, dotenv, nor config
// names a script directory.
const DefaultMigrationsPath = "migrations"

// ResolvedEnvironment is a named environment flattened into concrete values.
type ResolvedEnvironment struct {
	Name             string
	DatabaseURL      string
	MigrationsPath   string
	GeneratorCommand string
	StatementTimeout time.Duration
	DotenvPath       string
	FromConfig       bool
	FromDotenv       bool
}

// ResolveEnvironment flattens config defaults, the named environment block,
// a .env.<name> overlay, and process env vars into concrete values.
// Priority per value: process env > dotenv > environment block > top-level
// config defaults. The DatabaseURL may still be empty afterwards; commands
// that need a database treat that as a fatal configuration error before any
// database I/O.
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if config != nil && config.Environments != nil {
		if cfg, ok := config.Environments[envName]; ok {
			envConfig = cfg
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{
		Name:       envName,
		FromConfig: envExists,
	}

	if config != nil {
		if config.MigrationsPath != "" && envConfig.MigrationsPath == "" {
			envConfig.MigrationsPath = config.MigrationsPath
		}
		if config.GeneratorCommand != "" && envConfig.GeneratorCommand == "" {
			envConfig.GeneratorCommand = config.GeneratorCommand
		}
	}

	resolved.DatabaseURL = envConfig.DatabaseURL
	resolved.MigrationsPath = envConfig.MigrationsPath
	resolved.GeneratorCommand = envConfig.GeneratorCommand

	baseDir := config.ConfigDir()
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	resolved.DotenvPath = filepath.Join(baseDir, ".env."+envName)

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true

		if value := values["DATABASE_URL"]; value != "" {
			resolved.DatabaseURL = value
		}
		if value := values["MIGRATIONS_PATH"]; value != "" {
			resolved.MigrationsPath = value
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
	}

	// Process environment wins over everything file-based
	if value := os.Getenv("DATABASE_URL"); value != "" {
		resolved.DatabaseURL = value
	}
	if value := os.Getenv("MIGRATIONS_PATH"); value != "" {
		resolved.MigrationsPath = value
	}

	if resolved.MigrationsPath == "" {
		resolved.MigrationsPath = DefaultMigrationsPath
	}
	if !filepath.IsAbs(resolved.MigrationsPath) && config.ConfigDir() != "" {
		resolved.MigrationsPath = filepath.Join(config.ConfigDir(), resolved.MigrationsPath)
	}

	if envConfig.StatementTimeout != "" {
		timeout, err := time.ParseDuration(envConfig.StatementTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid statement_timeout for environment %q: %w", envName, err)
		}
		resolved.StatementTimeout = timeout
	}

	return resolved, nil
}
