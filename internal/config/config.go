package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Exchange Exchange `mapstructure:"exchange"`
	Trading  Trading  `mapstructure:"trading"`
	Risk     Risk     `mapstructure:"risk"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Exchange holds the configuration for the external bot-status API.
type Exchange struct {
	StatusURL      string  `mapstructure:"status_url"`
	Username       string  `mapstructure:"username"`
	Password       string  `mapstructure:"password"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the paper-trading engine.
type Trading struct {
	TradePairs     []string `mapstructure:"trade_pairs"`
	StartingEquity float64  `mapstructure:"starting_equity"`
	StakeAmount    float64  `mapstructure:"stake_amount"`
	TickInterval   int      `mapstructure:"tick_interval"`
	HistorySize    int      `mapstructure:"history_size"`
	SeedSamples    int      `mapstructure:"seed_samples"`
	ApiPort        int      `mapstructure:"api_port"`
}

// Risk holds the tunables consulted before opening new positions.
type Risk struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// Server holds the configuration for the dashboard web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the snapshot store.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("exchange.rate_limit", 10) // requests per second
	viper.SetDefault("exchange.rate_limit_burst", 5)
	viper.SetDefault("trading.starting_equity", 800)
	viper.SetDefault("trading.stake_amount", 25)
	viper.SetDefault("trading.tick_interval", 3) // seconds
	viper.SetDefault("trading.history_size", 50)
	viper.SetDefault("trading.api_port", 8081)
	viper.SetDefault("risk.min_confidence", 0.85)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "paper_trading.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
