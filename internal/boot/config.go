package boot

import (
	"context"
	"fmt"
	"path"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env           string `env:"ENV,default=dev"`
	BaseURL       string `env:"BASE_URL,default=http://localhost:8080"`
	DataDirectory string `env:"DATA_DIR,default=./data"`
	Server        struct {
		Port        string `env:"PORT,default=8080"`
		MetricsPort string `env:"METRICS_PORT,default=8081"`
	}
	Blob struct {
		LinkSecret string `env:"LINK_SECRET"`
	}
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}

func (c *Config) DatabasePath() string {
	return path.Join(c.DataDirectory, "demiochatplus.db")
}

func (c *Config) BlobDirectory() string {
	return path.Join(c.DataDirectory, "blobs")
}
