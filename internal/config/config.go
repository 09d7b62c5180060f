// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig             `mapstructure:"bot"`
	Database DatabaseConfig        `mapstructure:"database"`
	Admin    AdminConfig           `mapstructure:"admin"`
	Sweep    SweepConfig           `mapstructure:"sweep"`
	Payment  PaymentConfig         `mapstructure:"payment"`
	Tiers    map[string]TierConfig `mapstructure:"tiers"`
}

// BotConfig holds Discord bot configuration.
type BotConfig struct {
	Token   string `mapstructure:"token"`
	GuildID string `mapstructure:"guild_id"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// SweepConfig holds entitlement expiry sweep configuration.
type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// PaymentConfig holds the manual payment conversion rate.
// CoinsPerRate coins are credited per RupeeRate rupees paid.
type PaymentConfig struct {
	RupeeRate    int64 `mapstructure:"rupee_rate"`
	CoinsPerRate int64 `mapstructure:"coins_per_rate"`
}

// TierConfig holds the price, duration and Discord role for one premium tier.
type TierConfig struct {
	Price  int64  `mapstructure:"price"`
	Days   int    `mapstructure:"days"`
	RoleID string `mapstructure:"role_id"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, SWEEP_INTERVAL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "premiumbot")
	v.SetDefault("database.name", "premiumbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Expiry sweep default
	v.SetDefault("sweep.interval", "10m")

	// Payment conversion defaults
	v.SetDefault("payment.rupee_rate", 2)
	v.SetDefault("payment.coins_per_rate", 6)

	// Tier catalog defaults
	v.SetDefault("tiers.bronze.price", 100)
	v.SetDefault("tiers.bronze.days", 3)
	v.SetDefault("tiers.silver.price", 200)
	v.SetDefault("tiers.silver.days", 5)
	v.SetDefault("tiers.gold.price", 300)
	v.SetDefault("tiers.gold.days", 7)
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
