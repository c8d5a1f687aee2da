package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile is the config file name looked up in the working
// directory when --config is not given.
const DefaultConfigFile = ".docquery.yml"

// DefaultExcludes are glob patterns excluded from document discovery by
// default.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	".docquery/**",
}

// DefaultConfig returns a Config with sensible defaults: a fully local
// Ollama setup that needs no API key.
func DefaultConfig() *Config {
	return &Config{
		Provider:            ProviderOllama,
		Model:               "llama3",
		EmbeddingProvider:   ProviderOllama,
		EmbeddingModel:      "nomic-embed-text",
		EmbeddingDimensions: 768,
		DataDir:             DefaultDataDir(),
		TopK:                3,
		EmbedTimeoutSec:     60,
		CompleteTimeoutSec:  120,
		Include:             []string{"**/*.txt", "**/*.md", "**/*.pdf"},
		Exclude:             DefaultExcludes,
	}
}

// DefaultDataDir returns the per-user data directory where project
// registries and index files live. Falls back to a relative directory
// if the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docquery"
	}
	return filepath.Join(home, ".docquery")
}
