package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Env                string `mapstructure:"ENV"`
	ListenAddr         string `mapstructure:"LISTEN_ADDR"`
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	RedisURL           string `mapstructure:"REDIS_URL"`
	AccessTokenSecret  string `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`

	NotificationQueueSize int           `mapstructure:"NOTIFICATION_QUEUE_SIZE"`
	RelationshipCacheTTL  time.Duration `mapstructure:"RELATIONSHIP_CACHE_TTL"`
	PresenceTTL           time.Duration `mapstructure:"PRESENCE_TTL"`
	PresencePollInterval  time.Duration `mapstructure:"PRESENCE_POLL_INTERVAL"`
}

// IsProduction reports whether the service runs with production error
// semantics (cache failures degrade to misses instead of propagating).
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads the configuration from a .env file and environment variables.
func Load() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("ENV", "production")
	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("NOTIFICATION_QUEUE_SIZE", 1024)
	viper.SetDefault("RELATIONSHIP_CACHE_TTL", 10*time.Minute)
	viper.SetDefault("PRESENCE_TTL", 11*time.Second)
	viper.SetDefault("PRESENCE_POLL_INTERVAL", 5*time.Second)

	// A missing .env file is fine; environment variables take over.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
