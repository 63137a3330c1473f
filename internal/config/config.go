package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the server and the admin CLI.
type Config struct {
	HTTPAddr    string        `mapstructure:"http_addr"`
	LogLevel    string        `mapstructure:"log_level"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	Locale      string        `mapstructure:"locale"`

	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	StateBackend string `mapstructure:"state_backend"`
	StateFile    string `mapstructure:"state_file"`
	RedisURL     string `mapstructure:"redis_url"`
	StateKey     string `mapstructure:"state_key"`

	NATSURL     string `mapstructure:"nats_url"`
	RabbitURL   string `mapstructure:"rabbit_url"`
	RabbitQueue string `mapstructure:"rabbit_queue"`

	TelegramBotToken string `mapstructure:"telegram_bot_token"`

	AdminToken string `mapstructure:"admin_token"` // empty disables the operator routes
	ServerURL  string `mapstructure:"server_url"`  // where the admin CLI reaches the server

	PeerWaitTTL         time.Duration `mapstructure:"peer_wait_ttl"`
	TranscriptRetention string        `mapstructure:"transcript_retention"`
}

// Retention returns the parsed transcript retention policy.
func (c Config) Retention() RetentionPolicy {
	return ParseRetention(c.TranscriptRetention)
}

var keys = map[string]any{
	"http_addr":            ":8080",
	"log_level":            "info",
	"jwt_secret":           "dev-secret-change-me",
	"token_ttl":            DefaultTokenTTL,
	"cors_origins":         "*",
	"locale":               "en",
	"db_driver":            "sqlite",
	"db_dsn":               "wellness.db",
	"state_backend":        "file",
	"state_file":           "wellness_state.json",
	"redis_url":            "",
	"state_key":            "wellness:peer_state",
	"nats_url":             "",
	"rabbit_url":           "",
	"rabbit_queue":         "counselor_bookings",
	"telegram_bot_token":   "",
	"admin_token":          "",
	"server_url":           "http://localhost:8080",
	"peer_wait_ttl":        DefaultWaitTTL,
	"transcript_retention": string(RetentionArchive),
}

// Load reads .env (if present), an optional config file named by CONFIG_FILE and the
// environment, in increasing order of precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: .env file not loaded, using environment only")
	}

	v := viper.New()
	for k, def := range keys {
		v.SetDefault(k, def)
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return Config{}, fmt.Errorf("bind env config_file: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	return cfg, nil
}

// MustLoad loads the configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// splitList flattens comma separated entries coming from a single env var.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
