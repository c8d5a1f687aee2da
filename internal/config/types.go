package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level docquery configuration, corresponding to
// .docquery.yml.
type Config struct {
	Provider            ProviderType `yaml:"provider" koanf:"provider"`
	Model               string       `yaml:"model" koanf:"model"`
	EmbeddingProvider   ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	DataDir             string       `yaml:"data_dir" koanf:"data_dir"`
	TopK                int          `yaml:"top_k" koanf:"top_k"`
	EmbedTimeoutSec     int          `yaml:"embed_timeout_seconds" koanf:"embed_timeout_seconds"`
	CompleteTimeoutSec  int          `yaml:"complete_timeout_seconds" koanf:"complete_timeout_seconds"`
	Include             []string     `yaml:"include" koanf:"include"`
	Exclude             []string     `yaml:"exclude" koanf:"exclude"`
}
