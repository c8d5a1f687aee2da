package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chrys/docquery/internal/config"
	"github.com/chrys/docquery/internal/db"
	"github.com/chrys/docquery/internal/embeddings"
	"github.com/chrys/docquery/internal/history"
	"github.com/chrys/docquery/internal/llm"
	"github.com/chrys/docquery/internal/projects"
	"github.com/chrys/docquery/internal/ragengine"
)

// ragDataDirName is the subdirectory of the data dir holding each
// project's index and metadata files.
const ragDataDirName = "rag_data"

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docquery init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, cfg.EmbeddingModel), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimensions, os.Getenv("OLLAMA_HOST")), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// createProviderFromConfig creates an LLM provider based on config settings.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model)
}

// openRegistry opens the project registry in the configured data directory.
func openRegistry(cfg *config.Config) (*projects.Store, error) {
	return projects.NewStore(filepath.Join(cfg.DataDir, "configuration"))
}

// openPromptStore opens the per-project system prompt store.
func openPromptStore(cfg *config.Config) (*projects.PromptStore, error) {
	return projects.NewPromptStore(filepath.Join(cfg.DataDir, "configuration"))
}

// openHistory opens the operation history store.
func openHistory(cfg *config.Config) (*history.Store, *db.DB, error) {
	database, err := db.Open(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	return history.NewStore(database), database, nil
}

// openEngine constructs the index engine for one project, wiring the
// configured embedder, LLM provider, timeouts, and the project's custom
// system prompt if one is stored.
func openEngine(cfg *config.Config, projectID string) (*ragengine.Engine, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	opts := []ragengine.Option{
		ragengine.WithTimeouts(
			time.Duration(cfg.EmbedTimeoutSec)*time.Second,
			time.Duration(cfg.CompleteTimeoutSec)*time.Second,
		),
	}
	promptStore, err := openPromptStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening prompt store: %w", err)
	}
	if prompt := promptStore.Get(projectID); prompt != "" {
		opts = append(opts, ragengine.WithSystemPrompt(prompt))
	}

	dir := filepath.Join(cfg.DataDir, ragDataDirName, projectID)
	return ragengine.NewEngine(projectID, dir, embedder, provider, opts...)
}

// resolveProject maps the --project flag to a registered project id. An
// empty flag resolves to the only registered project; with zero or
// several projects the flag is required.
func resolveProject(registry *projects.Store, flag string) (string, error) {
	if flag != "" {
		if registry.Get(flag) == nil {
			return "", fmt.Errorf("%s: %w", flag, projects.ErrProjectNotFound)
		}
		return flag, nil
	}

	all := registry.List()
	switch len(all) {
	case 0:
		return "", fmt.Errorf("no projects exist yet; run `docquery project create` first")
	case 1:
		return all[0].ID, nil
	default:
		return "", fmt.Errorf("multiple projects exist; select one with --project")
	}
}
