// Package config holds application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Ollama struct {
		BaseURL      string `yaml:"base_url"`
		DefaultModel string `yaml:"default_model"`
	} `yaml:"ollama"`
	Embeddings struct {
		TextModel string `yaml:"text_model"`
	} `yaml:"embeddings"`
	Retrieval struct {
		TopK      int     `yaml:"top_k"`
		Threshold float64 `yaml:"threshold"`
		// DirectThreshold is the score above which the top chunk is
		// served without generation. 0 disables the direct tier.
		DirectThreshold float64 `yaml:"direct_threshold"`
	} `yaml:"retrieval"`
	Generation struct {
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		// Thinking controls the reasoning trace: "auto" (device probe
		// decides), "on", or "off".
		Thinking string `yaml:"thinking"`
	} `yaml:"generation"`
	Paths struct {
		DataDir string `yaml:"data_dir"`
		// CorpusFile overrides the embedded knowledge base document.
		CorpusFile string `yaml:"corpus_file"`
	} `yaml:"paths"`
}

// Load loads configuration from file or returns defaults. Environment
// variables BERI_OLLAMA_URL and BERI_MODEL override the file.
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".beri", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save saves configuration to ~/.beri/config.yaml.
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".beri")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0o644)
}

// Default returns default configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.DefaultModel = ""
	cfg.Embeddings.TextModel = "nomic-embed-text"
	cfg.Retrieval.TopK = 3
	cfg.Retrieval.Threshold = 0.25
	cfg.Retrieval.DirectThreshold = 0
	cfg.Generation.Temperature = 0.2
	cfg.Generation.MaxTokens = 250
	cfg.Generation.Thinking = "auto"
	cfg.Paths.DataDir = filepath.Join(os.Getenv("HOME"), ".beri", "data")
	cfg.Paths.CorpusFile = ""

	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BERI_OLLAMA_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("BERI_MODEL"); v != "" {
		cfg.Ollama.DefaultModel = v
	}
	if v := os.Getenv("BERI_EMBED_MODEL"); v != "" {
		cfg.Embeddings.TextModel = v
	}
}
