package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// Telegram bot configuration
type BotConfig struct {
	Token         string        `mapstructure:"token"`
	CommandPrefix string        `mapstructure:"command_prefix"`
	ReviewChatID  int64         `mapstructure:"review_chat_id"`
	Webhook       WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration; an empty endpoint selects long polling
type WebhookConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ListenPort string `mapstructure:"listen_port"`
	DebugPath  string `mapstructure:"debug_path"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// remote record store holding the bans, guilds and users collections
type StoreConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// local database for the enforcement ledger and known chats
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	Path     string `mapstructure:"path"`
}

// reconciliation settings
type SyncConfig struct {
	Workers       int           `mapstructure:"workers"`
	TargetTimeout time.Duration `mapstructure:"target_timeout"`
	Interval      time.Duration `mapstructure:"interval"`
}

// prometheus endpoint; an empty listen address disables it
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("UB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// Validate checks the settings the bot cannot start without
func (c *Config) Validate() error {
	if c.Store.URL == "" {
		return fmt.Errorf("store.url is required")
	}
	if c.Bot.CommandPrefix == "" {
		return fmt.Errorf("bot.command_prefix must not be empty")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be at least 1, got %d", c.Sync.Workers)
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.command_prefix", "/")
	v.SetDefault("bot.review_chat_id", 0)
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("store.timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.path", "data/unibans.db")

	v.SetDefault("sync.workers", 8)
	v.SetDefault("sync.target_timeout", 15*time.Second)
	v.SetDefault("sync.interval", 6*time.Hour)

	v.SetDefault("metrics.listen", "")
}
