package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Store      StoreConfig      `mapstructure:"store"      validate:"required"`
	Blob       BlobConfig       `mapstructure:"blob"       validate:"required"`
	Provider   ProviderConfig   `mapstructure:"provider"   validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig contains settings for the deck collection store.
type StoreConfig struct {
	// DecksFile is the path of the JSON file holding the full deck collection.
	DecksFile string `mapstructure:"decks_file" validate:"required"`
}

// BlobConfig contains settings for the blob store that republishes generated
// videos under durable URLs.
type BlobConfig struct {
	// RootDir is the directory blobs are written into.
	RootDir string `mapstructure:"root_dir" validate:"required"`

	// BaseURL is the public URL prefix under which blobs are served.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// FetchTimeoutSeconds bounds the download of one generated video.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds" validate:"required,gt=0"`
}

// ProviderConfig contains settings for the video generation provider API.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"  validate:"required"`

	// RequestTimeoutSeconds bounds a single submit or status call.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// GenerationConfig contains the generation defaults applied to submissions.
type GenerationConfig struct {
	Model           string `mapstructure:"model"              validate:"required"`
	AspectRatio     string `mapstructure:"aspect_ratio"       validate:"required,oneof=16:9 9:16 1:1 Auto"`
	GenerationType  string `mapstructure:"generation_type"    validate:"required"`
	VideosPerCard   int    `mapstructure:"videos_per_card"    validate:"required,gt=0"`
	MaxCardsPerDeck int    `mapstructure:"max_cards_per_deck" validate:"required,gt=0"`
}

// RateLimitConfig contains the fixed-window submission throttle settings.
// The throttle is configured, not derived from provider rate-limit headers.
type RateLimitConfig struct {
	// BatchSize is the number of requests sent before the submitter pauses.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// WindowSeconds is how long the submitter pauses between batches.
	WindowSeconds float64 `mapstructure:"window_seconds" validate:"required,gt=0"`

	// RetryCooldownSeconds is the pause before the single retry of a
	// rate-limited submission. Independent of the batch window.
	RetryCooldownSeconds float64 `mapstructure:"retry_cooldown_seconds" validate:"required,gt=0"`
}
