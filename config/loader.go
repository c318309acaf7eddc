package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PROPOSAL_LLM_MODEL.
const EnvPrefix = "PROPOSAL"

// Load reads configuration. An empty path searches ./config.yaml and ./configs/config.yaml;
// a missing file is fine, defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	for _, p := range []string{".env", "../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "claude-haiku-4-5")
	v.SetDefault("llm.base_url", "https://api.anthropic.com/v1/")
	v.SetDefault("llm.extract_max_tokens", 2048)
	v.SetDefault("llm.generate_max_tokens", 8192)
	v.SetDefault("llm.request_timeout", 60*time.Second)
	v.SetDefault("llm.stream_timeout", 180*time.Second)

	v.SetDefault("sessions.backend", BackendMemory)
	v.SetDefault("sessions.ttl", 24*time.Hour)
	v.SetDefault("sessions.redis.address", "")
	v.SetDefault("sessions.redis.password", "")
	v.SetDefault("sessions.redis.db", 0)
	v.SetDefault("sessions.redis.key_prefix", "proposal:session:")

	v.SetDefault("retrieval.top_k", 3)

	v.SetDefault("validation.min_transcript_chars", 50)
	v.SetDefault("validation.min_credential_chars", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
