package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Storage    Storage    `mapstructure:"storage"`
	Database   Database   `mapstructure:"database"`
	Generation Generation `mapstructure:"generation"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	LogLevel   string `mapstructure:"log_level"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds text- and image-generation provider configuration
type AI struct {
	TextGen TextGenConfig `mapstructure:"textgen"`
	Images  ImagesConfig  `mapstructure:"images"`
}

// TextGenConfig holds the text-generation provider configuration
type TextGenConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

// ImagesConfig holds the image-generation provider configuration
type ImagesConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
	Quality string `mapstructure:"quality"`
	Timeout string `mapstructure:"timeout"`
}

// Storage holds object storage configuration for durable image hosting
type Storage struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// Database holds relational persistence configuration
type Database struct {
	URL string `mapstructure:"url"`
}

// Generation holds pipeline tuning parameters
type Generation struct {
	PublishThreshold int    `mapstructure:"publish_threshold"` // minimum quality score for auto-scheduling
	ImageSlots       int    `mapstructure:"image_slots"`       // illustration slots per post, max 5
	ImageStagger     string `mapstructure:"image_stagger"`     // delay between image submissions
	MaxAttempts      int    `mapstructure:"max_attempts"`      // total text-generation attempts
	RetryBaseDelay   string `mapstructure:"retry_base_delay"`
	ScheduleDelay    string `mapstructure:"schedule_delay"` // how far out scheduled posts are dated
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".blogforge")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.App.ConfigFile = viper.ConfigFileUsed()
	globalConfig = config
	return globalConfig, nil
}

// Get returns the loaded configuration, loading defaults if necessary.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the cached configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("ai.textgen.base_url", "https://api.anthropic.com/v1")
	viper.SetDefault("ai.textgen.model", "claude-sonnet-4-20250514")
	viper.SetDefault("ai.textgen.max_tokens", 8192)
	viper.SetDefault("ai.textgen.temperature", 0.7)
	viper.SetDefault("ai.textgen.timeout", "120s")

	viper.SetDefault("ai.images.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.images.model", "dall-e-3")
	viper.SetDefault("ai.images.size", "1792x1024")
	viper.SetDefault("ai.images.quality", "standard")
	viper.SetDefault("ai.images.timeout", "60s")

	viper.SetDefault("storage.bucket", "blog-images")
	viper.SetDefault("storage.prefix", "generated")

	viper.SetDefault("generation.publish_threshold", 50)
	viper.SetDefault("generation.image_slots", 5)
	viper.SetDefault("generation.image_stagger", "2s")
	viper.SetDefault("generation.max_attempts", 3)
	viper.SetDefault("generation.retry_base_delay", "1s")
	viper.SetDefault("generation.schedule_delay", "24h")
}

// Duration parses a duration configuration value, falling back when unset
// or malformed.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
