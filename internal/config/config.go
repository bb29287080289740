package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type Config struct {
	Server             ServerConfig
	Supabase           map[string]SupabaseConfig
	LLM                LLMConfig
	Qdrant             QdrantConfig
	Fetch              FetchConfig
	Parser             ParserConfig
	Worker             WorkerConfig
	DefaultEnvironment string
}

type ServerConfig struct {
	Port     string
	JSONLogs bool
	Debug    bool
}

// SupabaseConfig holds the credentials for one Supabase project: the pooled
// Postgres DSN for table access, and the project URL plus service-role key
// for the Storage REST API.
type SupabaseConfig struct {
	DSN        string
	URL        string
	ServiceKey string
}

type LLMConfig struct {
	Provider         string // "openai" or "gemini"
	OpenAIAPIKey     string
	GeminiAPIKey     string
	EnricherModel    string
	ExtractorModel   string
	MatcherModel     string
	ParserModel      string
	EmbeddingModel   string
	RequestTimeout   time.Duration
	RetryMaxAttempts int
	BreakerThreshold int
	BreakerRecovery  time.Duration
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

type FetchConfig struct {
	RequestTimeout   time.Duration
	BrowserTimeout   time.Duration
	MaxContentLength int
}

type ParserConfig struct {
	MaxPages        int
	FaceCascadePath string
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

func Load() *Config {
	// Deployed tasks inject real env vars, so a missing .env file is fine.
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))

	vectorSize := uint64(1536) // text-embedding-3-small
	if provider == "gemini" {
		vectorSize = 768 // text-embedding-004
	}
	if v := getEnvAsInt("QDRANT_VECTOR_SIZE", 0); v > 0 {
		vectorSize = uint64(v)
	}

	embeddingModel := getEnv("EMBEDDING_MODEL", "")
	if embeddingModel == "" {
		if provider == "gemini" {
			embeddingModel = "text-embedding-004"
		} else {
			embeddingModel = "text-embedding-3-small"
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "5001"),
			JSONLogs: getEnvAsBool("LOG_JSON", true),
			Debug:    getEnvAsBool("LOG_DEBUG", false),
		},
		DefaultEnvironment: defaultEnvironment(getEnv("DEFAULT_ENVIRONMENT", EnvProduction)),
		Supabase: map[string]SupabaseConfig{
			EnvDevelopment: {
				DSN:        getEnv("SUPABASE_DSN_DEV", ""),
				URL:        getEnv("SUPABASE_URL_DEV", "http://host.docker.internal:54321"),
				ServiceKey: getEnv("SUPABASE_PRIVATE_SERVICE_ROLE_KEY_DEV", ""),
			},
			EnvStaging: {
				DSN:        getEnv("SUPABASE_DSN_STAGING", ""),
				URL:        getEnv("SUPABASE_URL_STAGING", ""),
				ServiceKey: getEnv("SUPABASE_PRIVATE_SERVICE_ROLE_KEY_STAGING", ""),
			},
			EnvProduction: {
				DSN:        getEnv("SUPABASE_DSN_PROD", getEnv("SUPABASE_DSN", "")),
				URL:        getEnv("SUPABASE_URL_PROD", getEnv("SUPABASE_URL", "")),
				ServiceKey: getEnv("SUPABASE_PRIVATE_SERVICE_ROLE_KEY_PROD", getEnv("SUPABASE_PRIVATE_SERVICE_ROLE_KEY", "")),
			},
		},
		LLM: LLMConfig{
			Provider:         provider,
			OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			EnricherModel:    getEnv("OPENAI_JOB_ENRICHER_MODEL", "gpt-4o-mini"),
			ExtractorModel:   getEnv("OPENAI_JOB_EXTRACTOR_MODEL", "gpt-4o-mini"),
			MatcherModel:     getEnv("OPENAI_JOB_MATCHER_MODEL", "gpt-4o-mini"),
			ParserModel:      getEnv("OPENAI_PARSER_MODEL", "gpt-4o-mini"),
			EmbeddingModel:   embeddingModel,
			RequestTimeout:   getEnvAsDuration("LLM_REQUEST_TIMEOUT", "60s"),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BreakerThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
			BreakerRecovery:  getEnvAsDuration("BREAKER_RECOVERY_TIMEOUT", "60s"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "carematch_jobs"),
			VectorSize: vectorSize,
		},
		Fetch: FetchConfig{
			RequestTimeout:   getEnvAsDuration("HTTP_REQUEST_TIMEOUT", "30s"),
			BrowserTimeout:   getEnvAsDuration("BROWSER_PAGE_LOAD_TIMEOUT", "60s"),
			MaxContentLength: getEnvAsInt("MAX_CONTENT_LENGTH", 50000),
		},
		Parser: ParserConfig{
			MaxPages:        getEnvAsInt("CV_PAGES_LIMIT", 6),
			FaceCascadePath: getEnv("FACE_CASCADE_PATH", "./cascade/facefinder"),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
	}
}

// ResolveEnvironment picks the target environment for a request from its
// X-Environment header, falling back to the configured default when the
// header is empty or names an unknown environment.
func (c *Config) ResolveEnvironment(header string) string {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case EnvDevelopment:
		return EnvDevelopment
	case EnvStaging:
		return EnvStaging
	case EnvProduction:
		return EnvProduction
	}
	return c.DefaultEnvironment
}

func (c *Config) SupabaseFor(env string) (SupabaseConfig, error) {
	sc, ok := c.Supabase[env]
	if !ok {
		return SupabaseConfig{}, fmt.Errorf("unknown environment: %s", env)
	}
	return sc, nil
}

func defaultEnvironment(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case EnvDevelopment:
		return EnvDevelopment
	case EnvStaging:
		return EnvStaging
	}
	return EnvProduction
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
