// Package config loads and persists the TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default file locations, relative to the user home directory.
const (
	DefaultDirName  = ".corpus"
	DefaultFileName = "config.toml"
)

// Config is the full application configuration.
type Config struct {
	Storage   Storage   `toml:"storage"`
	Chunking  Chunking  `toml:"chunking"`
	Embedding Embedding `toml:"embedding"`
	Retrieval Retrieval `toml:"retrieval"`
	Context   Context   `toml:"context"`
}

// Storage configures the persistence layer.
type Storage struct {
	// DataDir is where the database file lives. Empty means
	// ~/.corpus/data.
	DataDir string `toml:"data_dir"`

	// MaxFileSizeMB caps raw document size.
	MaxFileSizeMB int `toml:"max_file_size_mb"`
}

// Chunking configures the text splitter.
type Chunking struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// Embedding configures the embedding provider.
type Embedding struct {
	// Provider selects the adapter: "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name. Empty takes the provider's
	// default.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions is the vector size. Zero infers from the model.
	Dimensions int `toml:"dimensions"`

	// MaxInFlight caps concurrent embedding requests.
	MaxInFlight int `toml:"max_in_flight"`

	// RequestsPerSecond caps the embedding request rate.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Retrieval configures similarity search.
type Retrieval struct {
	TopK           int     `toml:"top_k"`
	ScoreThreshold float64 `toml:"score_threshold"`
}

// Context configures context assembly.
type Context struct {
	MaxTokens      int     `toml:"max_tokens"`
	ReservedTokens int     `toml:"reserved_tokens"`
	ContextRatio   float64 `toml:"context_ratio"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: Storage{
			MaxFileSizeMB: 50,
		},
		Chunking: Chunking{
			ChunkSize: 500,
			Overlap:   50,
		},
		Embedding: Embedding{
			Provider:          "ollama",
			MaxInFlight:       4,
			RequestsPerSecond: 10,
		},
		Retrieval: Retrieval{
			TopK:           5,
			ScoreThreshold: 0,
		},
		Context: Context{
			MaxTokens:      4096,
			ReservedTokens: 1024,
			ContextRatio:   0.75,
		},
	}
}

// DefaultPath returns ~/.corpus/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName, DefaultFileName), nil
}

// Load reads the configuration at path, layering it over the
// defaults. A missing file yields the defaults unchanged. An empty
// path means the default location.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to path with restricted permissions.
func Save(cfg Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks the configuration for internally impossible values.
func (c Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must be in [0, chunk_size), got %d", c.Chunking.Overlap)
	}
	if c.Storage.MaxFileSizeMB <= 0 {
		return fmt.Errorf("storage.max_file_size_mb must be positive, got %d", c.Storage.MaxFileSizeMB)
	}
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("embedding.provider must be \"ollama\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("retrieval.score_threshold must be in [0,1], got %g", c.Retrieval.ScoreThreshold)
	}
	if c.Context.ContextRatio < 0 || c.Context.ContextRatio > 1 {
		return fmt.Errorf("context.context_ratio must be in [0,1], got %g", c.Context.ContextRatio)
	}
	return nil
}

// MaxFileSizeBytes converts the configured megabyte cap to bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.Storage.MaxFileSizeMB) << 20
}
