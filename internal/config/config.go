// Package config manages loading and interpreting application
// configuration. Values are resolved from an optional config file, then
// QUIZFORGE_* environment variables, then built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the top-level application configuration. LLM provider
// selection and credentials live in the llm package's own environment
// config; this covers everything else.
type Config struct {
	// DBPath overrides the default SQLite database location.
	DBPath string `mapstructure:"dbPath"`

	// CacheDir is where the question cache keeps its JSON entries.
	CacheDir string `mapstructure:"cacheDir"`

	// EmbeddingHost and EmbeddingModel configure the local embedding
	// backend.
	EmbeddingHost  string `mapstructure:"embeddingHost"`
	EmbeddingModel string `mapstructure:"embeddingModel"`

	// DupThreshold is the duplicate-detection cosine cutoff.
	DupThreshold float64 `mapstructure:"dupThreshold"`

	// CacheSimilarityThreshold gates cross-topic cache lookups.
	CacheSimilarityThreshold float64 `mapstructure:"cacheSimilarityThreshold"`

	// Temperature applies to all generation calls.
	Temperature float64 `mapstructure:"temperature"`

	ConfigPath string `mapstructure:"-"`
}

// Load resolves the configuration. path may be empty, in which case only
// environment variables and defaults apply; a named file that does not
// exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("dbPath", "")
	v.SetDefault("cacheDir", DefaultCacheDir())
	v.SetDefault("embeddingHost", "http://localhost:11434")
	v.SetDefault("embeddingModel", "all-minilm")
	v.SetDefault("dupThreshold", 0.85)
	v.SetDefault("cacheSimilarityThreshold", 0.7)
	v.SetDefault("temperature", 0.7)

	v.SetEnvPrefix("QUIZFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = path

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DupThreshold < 0 || c.DupThreshold > 1 {
		return fmt.Errorf("invalid configuration: dupThreshold %v outside [0, 1]", c.DupThreshold)
	}
	if c.CacheSimilarityThreshold < 0 || c.CacheSimilarityThreshold > 1 {
		return fmt.Errorf("invalid configuration: cacheSimilarityThreshold %v outside [0, 1]", c.CacheSimilarityThreshold)
	}
	return nil
}

// DefaultCacheDir returns the question cache location: $XDG_CACHE_HOME or
// ~/.cache, under a quizforge subdirectory.
func DefaultCacheDir() string {
	if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
		return filepath.Join(base, "quizforge", "questions")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".quizforge-cache")
	}
	return filepath.Join(home, ".cache", "quizforge", "questions")
}
