package config

import "github.com/caarlos0/env/v11"

// StoreConfig covers the optional sinks of a collection run. Empty values
// disable the corresponding sink.
type StoreConfig struct {
	StatsDBURL        string `env:"STATS_DB_URL"`
	TursoAuthToken    string `env:"TURSO_AUTH_TOKEN"`
	DatabaseURL       string `env:"DATABASE_URL"`
	DiscordWebhookURL string `env:"DISCORD_WEBHOOK_URL"`
}

func LoadStore() (StoreConfig, error) {
	var cfg StoreConfig
	err := env.Parse(&cfg)
	return cfg, err
}

type ServerConfig struct {
	HTTPAddr   string `env:"HTTP_ADDR" envDefault:":8080"`
	StatsDBURL string `env:"STATS_DB_URL,required,notEmpty"`
	AuthToken  string `env:"TURSO_AUTH_TOKEN"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
