// Package config parses environment variables into tagged structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the environment using `env` / `envDefault` tags.
//
//	type Config struct {
//	    HTTPPort  int           `env:"HTTP_PORT" envDefault:"8080"`
//	    UploadDir string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
//	    CacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"5m"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
