package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Document storage settings
	Documents DocumentsConfig `yaml:"documents"`

	// CSV export settings
	Export ExportConfig `yaml:"export"`

	// Logging settings
	Log LogConfig `yaml:"log"`

	// User identity, recorded on created invoices
	User UserConfig `yaml:"user"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type DocumentsConfig struct {
	Dir string `yaml:"dir"` // Directory for stored invoice documents
}

type ExportConfig struct {
	Dir string `yaml:"dir"` // Directory for generated CSV exports
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

type UserConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// CurrentActor returns the identity recorded on invoices this user creates
func (c *Config) CurrentActor() string {
	if c.User.Name != "" {
		return c.User.Name
	}
	return c.User.Email
}

// DefaultConfigPath returns ~/.config/batisync/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "batisync", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "batisync", "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	base := filepath.Join(homeDir, ".config", "batisync")
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(base, "batisync.db"),
		},
		Documents: DocumentsConfig{
			Dir: filepath.Join(base, "documents"),
		},
		Export: ExportConfig{
			Dir: filepath.Join(base, "exports"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads config from the given path, or returns defaults if the file
// doesn't exist. Environment variables (optionally from a .env file in
// the working directory) override file values.
func Load(path string) (*Config, error) {
	// .env is optional; absence is not an error
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("BATISYNC_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BATISYNC_DOCUMENTS_DIR"); v != "" {
		cfg.Documents.Dir = v
	}
	if v := os.Getenv("BATISYNC_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("BATISYNC_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BATISYNC_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates all necessary directories (for the database,
// documents, exports)
func (c *Config) EnsureDirectories() error {
	dbDir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return err
	}

	if err := os.MkdirAll(c.Documents.Dir, 0700); err != nil {
		return err
	}

	return os.MkdirAll(c.Export.Dir, 0755)
}
