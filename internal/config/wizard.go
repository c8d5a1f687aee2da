package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// providerModels lists the suggested chat and embedding models per provider.
var providerModels = map[ProviderType]struct {
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
}{
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text", EmbeddingDimensions: 768},
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small", EmbeddingDimensions: 1536},
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .docquery.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to docquery! Let's configure your setup.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"ollama", "openai"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	suggested := providerModels[provider]

	// 2. Chat model.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: suggested.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Embedding model. Embeddings follow the same provider so that a
	// single local Ollama covers both.
	embedPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: suggested.EmbeddingModel,
	}
	embeddingModel, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}

	dimensions := suggested.EmbeddingDimensions
	if provider == ProviderOllama {
		dimsPrompt := promptui.Prompt{
			Label:   "Embedding dimensions",
			Default: strconv.Itoa(suggested.EmbeddingDimensions),
			Validate: func(s string) error {
				n, err := strconv.Atoi(s)
				if err != nil || n <= 0 {
					return fmt.Errorf("must be a positive integer")
				}
				return nil
			},
		}
		dimsStr, err := dimsPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("embedding dimensions: %w", err)
		}
		dimensions, _ = strconv.Atoi(dimsStr)
	}

	// 4. Data directory.
	dataDirPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: DefaultDataDir(),
	}
	dataDir, err := dataDirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Include patterns for directory ingestion.
	includePrompt := promptui.Prompt{
		Label:   "Include patterns (comma-separated globs)",
		Default: "**/*.txt, **/*.md, **/*.pdf",
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = model
	cfg.EmbeddingProvider = provider
	cfg.EmbeddingModel = embeddingModel
	cfg.EmbeddingDimensions = dimensions
	cfg.DataDir = dataDir
	cfg.Include = splitAndTrim(includeStr)

	// Check for API key.
	if envVar := APIKeyEnvVar(provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running docquery.\n", envVar)
		}
	}

	if err := cfg.Save(DefaultConfigFile); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultConfigFile)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
