package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type CollectorConfig struct {
	APIKey         string        `env:"OPENDOTA_API_KEY"`
	BaseURL        string        `env:"OPENDOTA_BASE_URL" envDefault:"https://api.opendota.com/api"`
	APIDelay       float64       `env:"API_DELAY" envDefault:"2.0"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	MinRank           int           `env:"MIN_RANK" envDefault:"5"`
	NumMatches        int           `env:"NUM_MATCHES" envDefault:"500"`
	MinItems          int           `env:"MIN_ITEMS" envDefault:"3"`
	MinGPM            int           `env:"MIN_GPM" envDefault:"400"`
	MaxFailedRequests int           `env:"MAX_FAILED_REQUESTS" envDefault:"10"`
	BatchPause        time.Duration `env:"BATCH_PAUSE" envDefault:"2s"`

	OutputFile    string `env:"TRAINING_DATA_FILE" envDefault:"data/dota2_training_data.jsonl"`
	RawArchiveDir string `env:"RAW_ARCHIVE_DIR"`
}

// Delay returns the post-request pause as a duration.
func (c CollectorConfig) Delay() time.Duration {
	return time.Duration(c.APIDelay * float64(time.Second))
}

func LoadCollector() (CollectorConfig, error) {
	var cfg CollectorConfig
	err := env.Parse(&cfg)
	return cfg, err
}
