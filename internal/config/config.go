package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DBPath    string  `yaml:"db_path"`
	CacheDir  string  `yaml:"cache_dir"`
	Threshold float64 `yaml:"similarity_threshold"`
	Gap       float64 `yaml:"ambiguity_gap"`
	LogLevel  string  `yaml:"log_level"`
	Output    string  `yaml:"output"`

	// Per-source base URLs for the fetch boundary.
	CamaraBaseURL string `yaml:"camara_base_url"`
	SenadoBaseURL string `yaml:"senado_base_url"`
	BCNBaseURL    string `yaml:"bcn_base_url"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/parlid/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
		Output:   "table",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Load ~/.config/parlid/config.yaml if it exists
	if err := loadYAMLConfig(cfg); err != nil {
		// YAML config is optional, so we don't fail if it doesn't exist
	}

	// Override with environment variables
	if dbPath := getEnvOrFile("PARLID_DB_PATH", "PARLID_DB_PATH_FILE"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cacheDir := os.Getenv("PARLID_CACHE_DIR"); cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if logLevel := os.Getenv("PARLID_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if output := os.Getenv("PARLID_OUTPUT"); output != "" {
		cfg.Output = output
	}
	if threshold := os.Getenv("PARLID_SIMILARITY_THRESHOLD"); threshold != "" {
		v, err := strconv.ParseFloat(threshold, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PARLID_SIMILARITY_THRESHOLD: %w", err)
		}
		cfg.Threshold = v
	}
	if gap := os.Getenv("PARLID_AMBIGUITY_GAP"); gap != "" {
		v, err := strconv.ParseFloat(gap, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PARLID_AMBIGUITY_GAP: %w", err)
		}
		cfg.Gap = v
	}
	if base := os.Getenv("PARLID_CAMARA_BASE_URL"); base != "" {
		cfg.CamaraBaseURL = base
	}
	if base := os.Getenv("PARLID_SENADO_BASE_URL"); base != "" {
		cfg.SenadoBaseURL = base
	}
	if base := os.Getenv("PARLID_BCN_BASE_URL"); base != "" {
		cfg.BCNBaseURL = base
	}

	// Set defaults if not configured
	if cfg.DBPath == "" {
		// Check for project-local database first
		if _, err := os.Stat(".parlid/parlid.db"); err == nil {
			cfg.DBPath = ".parlid/parlid.db"
		} else {
			// Fall back to user-global database
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "parlid", "parlid.db")
		}
	}

	if cfg.CacheDir == "" {
		if cfg.DBPath == ".parlid/parlid.db" {
			cfg.CacheDir = ".parlid/cache"
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.CacheDir = filepath.Join(homeDir, ".local", "share", "parlid", "cache")
		}
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from ~/.config/parlid/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "parlid", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return string(data)
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		// Get parent directory
		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
