package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load,
// e.g. REELDECK_PROVIDER_API_KEY maps to provider.api_key.
const envPrefix = "REELDECK"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file, which in turn take precedence
// over defaults. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting. The generation
// and rate-limit defaults mirror the provider's documented limits.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("store.decks_file", "decks.json")

	v.SetDefault("blob.root_dir", "data/blobs")
	v.SetDefault("blob.base_url", "http://localhost:8080/blobs")
	v.SetDefault("blob.fetch_timeout_seconds", 300)

	v.SetDefault("provider.base_url", "https://api.kie.ai/api/v1/veo")
	// Viper only surfaces environment values for keys it knows about, so the
	// key must be registered even though its only real source is
	// REELDECK_PROVIDER_API_KEY. Validation rejects the empty value.
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.request_timeout_seconds", 30)

	v.SetDefault("generation.model", "veo3_fast")
	v.SetDefault("generation.aspect_ratio", "9:16")
	v.SetDefault("generation.generation_type", "FIRST_AND_LAST_FRAMES_2_VIDEO")
	v.SetDefault("generation.videos_per_card", 2)
	v.SetDefault("generation.max_cards_per_deck", 50)

	v.SetDefault("rate_limit.batch_size", 18)
	v.SetDefault("rate_limit.window_seconds", 10.5)
	v.SetDefault("rate_limit.retry_cooldown_seconds", 10)
}
