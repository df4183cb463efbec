package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Sessions       SessionsConfig       `mapstructure:"sessions"`
	Conversation   ConversationConfig   `mapstructure:"conversation"`
	OpenAI         OpenAIConfig         `mapstructure:"openai"`
	AzureSpeech    AzureSpeechConfig    `mapstructure:"azure_speech"`
	ElevenLabs     ElevenLabsConfig     `mapstructure:"elevenlabs"`
	Redis          RedisConfig          `mapstructure:"redis"`
	NATS           NATSConfig           `mapstructure:"nats"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Cache          CacheConfig          `mapstructure:"cache"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

// SessionsConfig selects and tunes the session store backend.
type SessionsConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend string `mapstructure:"backend"`
	// TTL applies to the redis backend only; zero keeps sessions until
	// explicitly cleared.
	TTL time.Duration `mapstructure:"ttl"`
}

// ConversationConfig tunes the turn orchestrator.
type ConversationConfig struct {
	// HistoryWindow is the number of most-recent turns given to the
	// classifier and generator as context.
	HistoryWindow   int           `mapstructure:"history_window"`
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
}

type OpenAIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	Model         string `mapstructure:"model"`
	ClassifyModel string `mapstructure:"classify_model"`
}

type AzureSpeechConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Region   string `mapstructure:"region"`
	Language string `mapstructure:"language"`
}

type ElevenLabsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	VoiceID string `mapstructure:"voice_id"`
	Model   string `mapstructure:"model"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// VaultConfig enables loading provider API keys from HashiCorp Vault
// instead of the environment.
type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	ServiceName string       `mapstructure:"service_name"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
}

type JaegerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

type CacheConfig struct {
	// AudioTTL bounds how long synthesized audio stays cached.
	AudioTTL        time.Duration `mapstructure:"audio_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}
