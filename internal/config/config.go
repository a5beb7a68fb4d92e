package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docqa/internal/domain"
)

// ChunkerConfig configures how documents are split into word windows.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type        string `yaml:"type"`
	Model       string `yaml:"model,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Path       string        `yaml:"path,omitempty"`
	Collection string        `yaml:"collection"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// GeneratorConfig selects and configures the generative answerer.
type GeneratorConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// RetrievalConfig configures the query path.
type RetrievalConfig struct {
	TopK      int    `yaml:"top_k"`
	SourceTag string `yaml:"source_tag"`
}

// LogConfig sets the logger verbosity; higher shows more.
type LogConfig struct {
	Verbosity int `yaml:"verbosity"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first invalid setting as a *domain.ConfigurationError.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return domain.Configf("chunker.chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return domain.Configf("chunker.overlap must be in [0, %d), got %d", c.Chunker.ChunkSize, c.Chunker.Overlap)
	}
	switch c.Embedder.Type {
	case "gemini", "openai":
	default:
		return domain.Configf("unknown embedder: %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "sqlite", "memory":
	case "qdrant":
		if c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "" {
			return domain.Configf("vector_store.qdrant.url is required")
		}
	default:
		return domain.Configf("unknown vector store: %q", c.VectorStore.Type)
	}
	switch c.Generator.Type {
	case "gemini", "openai", "anthropic", "openrouter":
	default:
		return domain.Configf("unknown generator: %q", c.Generator.Type)
	}
	if c.Retrieval.TopK <= 0 {
		return domain.Configf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{
		Chunker:     ChunkerConfig{ChunkSize: 200, Overlap: 50},
		Embedder:    EmbedderConfig{Type: "gemini"},
		VectorStore: VectorStoreConfig{Type: "sqlite"},
		Generator:   GeneratorConfig{Type: "gemini"},
		Retrieval:   RetrievalConfig{TopK: 5},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 200
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 50
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = defaultKeyEnv(cfg.Embedder.Type)
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "db"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "documents"
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "gemini"
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = defaultKeyEnv(cfg.Generator.Type)
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SourceTag == "" {
		cfg.Retrieval.SourceTag = domain.DefaultSourceTag
	}
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	default:
		return "GEMINI_API_KEY"
	}
}
