package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/seu-repo/conversia/internal/adapter/vault"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY", "APP_OPENAI_API_KEY")
	viper.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	viper.BindEnv("azure_speech.api_key", "AZURE_SPEECH_KEY")
	viper.BindEnv("azure_speech.region", "AZURE_SPEECH_REGION")
	viper.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	viper.BindEnv("vault.address", "VAULT_ADDR")
	viper.BindEnv("vault.token", "VAULT_TOKEN")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("sessions.backend", "SESSIONS_BACKEND")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// env vars only
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Vault.Enabled {
		if err := loadVaultSecrets(&cfg); err != nil {
			return nil, fmt.Errorf("failed to load vault secrets: %w", err)
		}
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "conversia")
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("sessions.backend", "memory")
	viper.SetDefault("conversation.history_window", 6)
	viper.SetDefault("conversation.classify_timeout", "10s")
	viper.SetDefault("conversation.generate_timeout", "20s")
	viper.SetDefault("openai.model", "gpt-4o")
	viper.SetDefault("openai.classify_model", "gpt-4o-mini")
	viper.SetDefault("azure_speech.language", "en-US")
	viper.SetDefault("elevenlabs.voice_id", "21m00Tcm4TlvDq8ikWAM")
	viper.SetDefault("elevenlabs.model", "eleven_turbo_v2_5")
	viper.SetDefault("prometheus.path", "/metrics")
	viper.SetDefault("cache.audio_ttl", "1h")
	viper.SetDefault("cache.cleanup_interval", "1m")
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", "1m")
	viper.SetDefault("circuit_breaker.timeout", "30s")
	viper.SetDefault("circuit_breaker.failure_threshold", 0.6)
}

// loadVaultSecrets overrides provider credentials with values from Vault.
// Missing secrets are not fatal; env-provided keys stay in place.
func loadVaultSecrets(cfg *Config) error {
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
	if err != nil {
		return err
	}

	if key, err := sm.GetOpenAIAPIKey(); err == nil && key != "" {
		cfg.OpenAI.APIKey = key
	}
	if key, region, err := sm.GetAzureSpeechCredentials(); err == nil && key != "" {
		cfg.AzureSpeech.APIKey = key
		if region != "" {
			cfg.AzureSpeech.Region = region
		}
	}
	if key, err := sm.GetElevenLabsAPIKey(); err == nil && key != "" {
		cfg.ElevenLabs.APIKey = key
	}
	return nil
}
