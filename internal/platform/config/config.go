package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Log        LogConfig        `koanf:"log"`
	Mux        MuxConfig        `koanf:"mux"`
	Relay      RelayConfig      `koanf:"relay"`
	Telegram   TelegramConfig   `koanf:"telegram"`
	Deliveries DeliveriesConfig `koanf:"deliveries"`
}

type ServerConfig struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	MaxBodyBytes int64  `koanf:"maxbodybytes"`
}

type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MigrationsPath string `koanf:"migrationspath"`
	MaxConns       int    `koanf:"maxconns"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MuxConfig holds the webhook signing secret shared with Mux.
type MuxConfig struct {
	SigningSecret string `koanf:"signingsecret"`
}

type RelayConfig struct {
	// ForwardUnverified relays events that failed verification with
	// verified=false instead of rejecting them.
	ForwardUnverified bool `koanf:"forwardunverified"`
}

type TelegramConfig struct {
	Enabled        bool          `koanf:"enabled"`
	APIBaseURL     string        `koanf:"apibaseurl"`
	BotToken       string        `koanf:"bottoken"`
	ChatID         string        `koanf:"chatid"`
	TimeoutSeconds int           `koanf:"timeoutseconds"`
	Breaker        BreakerConfig `koanf:"breaker"`
}

type BreakerConfig struct {
	MaxRequests     uint32 `koanf:"maxrequests"`
	IntervalSeconds int    `koanf:"intervalseconds"`
	TimeoutSeconds  int    `koanf:"timeoutseconds"`
}

type DeliveriesConfig struct {
	Enabled                  bool `koanf:"enabled"`
	BufferSize               int  `koanf:"buffersize"`
	BatchSize                int  `koanf:"batchsize"`
	FlushIntervalMillis      int  `koanf:"flushintervalmillis"`
	RetentionDays            int  `koanf:"retentiondays"`
	RetentionIntervalSeconds int  `koanf:"retentionintervalseconds"`
	RetentionBatchSize       int  `koanf:"retentionbatchsize"`
}

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.port":                         8080,
		"server.host":                         "0.0.0.0",
		"server.maxbodybytes":                 1 << 20,
		"database.maxconns":                   10,
		"database.migrationspath":             "migrations",
		"log.level":                           "info",
		"log.format":                          "json",
		"relay.forwardunverified":             false,
		"telegram.enabled":                    false,
		"telegram.apibaseurl":                 "https://api.telegram.org",
		"telegram.timeoutseconds":             10,
		"telegram.breaker.maxrequests":        3,
		"telegram.breaker.intervalseconds":    10,
		"telegram.breaker.timeoutseconds":     60,
		"deliveries.enabled":                  false,
		"deliveries.buffersize":               1024,
		"deliveries.batchsize":                50,
		"deliveries.flushintervalmillis":      500,
		"deliveries.retentiondays":            30,
		"deliveries.retentionintervalseconds": 3600,
		"deliveries.retentionbatchsize":       500,
	}, "."), nil)

	// YAML file (optional)
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// Config file is optional, skip if not found
			continue
		}
	}

	// Environment variables override everything
	// MUXRELAY_SERVER_PORT -> server.port
	// Field names carry no underscores, so every "_" is a path separator.
	_ = k.Load(env.Provider("MUXRELAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "MUXRELAY_")),
			"_", ".",
		)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
