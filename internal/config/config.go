package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/josinaldojr/pdfrag/internal/rag"
)

// Provider identifies the embedding + completion service in use.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGoogle Provider = "google"
)

// Config is built once at startup and handed to every component.
type Config struct {
	PDFPath     string `yaml:"pdf_path"`
	DatabaseURL string `yaml:"database_url"`
	Collection  string `yaml:"collection"`

	OpenAIAPIKey         string `yaml:"openai_api_key"`
	OpenAIEmbeddingModel string `yaml:"openai_embedding_model"`
	OpenAIChatModel      string `yaml:"openai_chat_model"`
	OpenAIBaseURL        string `yaml:"openai_base_url"`

	GoogleAPIKey         string `yaml:"google_api_key"`
	GoogleEmbeddingModel string `yaml:"google_embedding_model"`
	GoogleChatModel      string `yaml:"google_chat_model"`
	GoogleBaseURL        string `yaml:"google_base_url"`

	EmbeddingDimensions int     `yaml:"embedding_dimensions"`
	EmbedBatchSize      int     `yaml:"embed_batch_size"`
	EmbedRateLimit      float64 `yaml:"embed_rate_limit"`
	Temperature         float32 `yaml:"temperature"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`

	PromptLanguage  string        `yaml:"prompt_language"`
	RefusalSentence string        `yaml:"refusal_sentence"`
	QuestionTimeout time.Duration `yaml:"question_timeout"`

	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_allowed_origins"`

	Verbose bool `yaml:"verbose"`
}

// Defaults returns the reference configuration without any credentials.
func Defaults() *Config {
	return &Config{
		OpenAIEmbeddingModel: "text-embedding-3-small",
		OpenAIChatModel:      "gpt-5-nano",
		GoogleEmbeddingModel: "models/text-embedding-004",
		GoogleChatModel:      "gemini-2.5-flash-lite",
		EmbedBatchSize:       100,
		ChunkSize:            rag.DefaultChunkSize,
		ChunkOverlap:         rag.DefaultChunkOverlap,
		TopK:                 rag.DefaultTopK,
		PromptLanguage:       rag.LangEnglish,
		QuestionTimeout:      60 * time.Second,
		Port:                 "8080",
		CORSOrigins:          []string{"http://localhost:3000", "http://127.0.0.1:3000"},
	}
}

// Load builds the configuration: defaults, then the YAML file (if any), then
// envFile, then the process environment. Missing files are ignored.
func Load(envFile, yamlFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &rag.ConfigurationError{Key: envFile, Reason: err.Error()}
	}
	if yamlFile == "" {
		yamlFile = os.Getenv("RAG_CONFIG_FILE")
	}

	cfg := Defaults()
	if yamlFile != "" {
		if err := cfg.mergeYAML(yamlFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a configuration from defaults and lookup only.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &rag.ConfigurationError{Key: path, Reason: err.Error()}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &rag.ConfigurationError{Key: path, Reason: "invalid yaml: " + err.Error()}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &rag.ConfigurationError{Key: key, Reason: fmt.Sprintf("must be an integer, got %q", v)}
		}
		*dst = n
		return nil
	}
	float := func(key string, bits int, set func(float64)) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, bits)
		if err != nil {
			return &rag.ConfigurationError{Key: key, Reason: fmt.Sprintf("must be a number, got %q", v)}
		}
		set(f)
		return nil
	}

	str("PDF_PATH", &c.PDFPath)
	str("DATABASE_URL", &c.DatabaseURL)
	str("PG_VECTOR_COLLECTION_NAME", &c.Collection)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("OPENAI_EMBEDDING_MODEL", &c.OpenAIEmbeddingModel)
	str("OPENAI_CHAT_MODEL", &c.OpenAIChatModel)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	str("GOOGLE_API_KEY", &c.GoogleAPIKey)
	str("GOOGLE_EMBEDDING_MODEL", &c.GoogleEmbeddingModel)
	str("GOOGLE_CHAT_MODEL", &c.GoogleChatModel)
	str("GOOGLE_BASE_URL", &c.GoogleBaseURL)
	str("PROMPT_LANGUAGE", &c.PromptLanguage)
	str("REFUSAL_SENTENCE", &c.RefusalSentence)
	str("PORT", &c.Port)

	for key, dst := range map[string]*int{
		"EMBEDDING_DIMENSIONS": &c.EmbeddingDimensions,
		"EMBED_BATCH_SIZE":     &c.EmbedBatchSize,
		"CHUNK_SIZE":           &c.ChunkSize,
		"CHUNK_OVERLAP":        &c.ChunkOverlap,
		"TOP_K":                &c.TopK,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}
	if err := float("EMBED_RATE_LIMIT", 64, func(f float64) { c.EmbedRateLimit = f }); err != nil {
		return err
	}
	if err := float("LLM_TEMPERATURE", 32, func(f float64) { c.Temperature = float32(f) }); err != nil {
		return err
	}

	if v, ok := get("QUESTION_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &rag.ConfigurationError{Key: "QUESTION_TIMEOUT", Reason: fmt.Sprintf("must be a duration like 60s, got %q", v)}
		}
		c.QuestionTimeout = d
	}
	if v, ok := get("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	if v, ok := get("RAG_VERBOSE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &rag.ConfigurationError{Key: "RAG_VERBOSE", Reason: fmt.Sprintf("must be true or false, got %q", v)}
		}
		c.Verbose = b
	}
	return nil
}

// SelectProvider picks OpenAI when its key is set, then Google.
func (c *Config) SelectProvider() (Provider, error) {
	switch {
	case c.OpenAIAPIKey != "":
		return ProviderOpenAI, nil
	case c.GoogleAPIKey != "":
		return ProviderGoogle, nil
	default:
		return "", &rag.ConfigurationError{
			Key:    "OPENAI_API_KEY/GOOGLE_API_KEY",
			Reason: "not set: configure one of them in the environment or .env file",
		}
	}
}

// RequireQuery checks the settings the query flow needs.
func (c *Config) RequireQuery() error {
	if c.DatabaseURL == "" {
		return missing("DATABASE_URL")
	}
	if c.Collection == "" {
		return missing("PG_VECTOR_COLLECTION_NAME")
	}
	if _, err := c.SelectProvider(); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return &rag.ConfigurationError{Key: "TOP_K", Reason: "must be positive"}
	}
	if !rag.SupportedLanguage(c.PromptLanguage) {
		return &rag.ConfigurationError{Key: "PROMPT_LANGUAGE", Reason: fmt.Sprintf("unsupported value %q (en, pt, es, auto)", c.PromptLanguage)}
	}
	if c.QuestionTimeout <= 0 {
		return &rag.ConfigurationError{Key: "QUESTION_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

// RequireIngest checks the settings the ingestion flow needs.
func (c *Config) RequireIngest() error {
	if c.PDFPath == "" {
		return missing("PDF_PATH")
	}
	if c.DatabaseURL == "" {
		return missing("DATABASE_URL")
	}
	if c.Collection == "" {
		return missing("PG_VECTOR_COLLECTION_NAME")
	}
	if _, err := c.SelectProvider(); err != nil {
		return err
	}
	if _, err := rag.NewChunker(c.ChunkSize, c.ChunkOverlap); err != nil {
		return &rag.ConfigurationError{Key: "CHUNK_SIZE/CHUNK_OVERLAP", Reason: err.Error()}
	}
	if c.EmbedBatchSize <= 0 {
		return &rag.ConfigurationError{Key: "EMBED_BATCH_SIZE", Reason: "must be positive"}
	}
	return nil
}

func missing(key string) error {
	return &rag.ConfigurationError{Key: key, Reason: "not set"}
}
