// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	LLM      LLMConfig               `mapstructure:"llm"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Registry RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HTTPAddress string `mapstructure:"http_address"`
}

type CamundaConfig struct {
	BrokerAddress     string `mapstructure:"broker_address"`
	UsePlaintext      bool   `mapstructure:"use_plaintext"`
	MaxJobsActive     int    `mapstructure:"max_jobs_active"`
	Timeout           int    `mapstructure:"timeout"`            // milliseconds
	RequestTimeout    int    `mapstructure:"request_timeout"`    // milliseconds
	ConnectionTimeout int    `mapstructure:"connection_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LLMConfig configures the chat-completion upstream and the invoker around it.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	VisionModel string  `mapstructure:"vision_model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     int     `mapstructure:"timeout"`     // milliseconds, per attempt
	MaxRetries  int     `mapstructure:"max_retries"` // total attempts
	BaseDelay   int     `mapstructure:"base_delay"`  // milliseconds
}

// PlaceholderAPIKey is the value shipped in example env files.
const PlaceholderAPIKey = "your_groq_api_key_here"

// IsConfigured reports whether a usable API key is present.
func (l LLMConfig) IsConfigured() bool {
	return l.APIKey != "" && l.APIKey != PlaceholderAPIKey
}

// CacheConfig controls the generate-form result cache.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // milliseconds
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig holds the Jaeger exporter settings.
type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

// RegistryConfig points at the task registry document.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
