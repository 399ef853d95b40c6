// Package config loads typed configuration structs from environment
// variables, reading a local .env file once per process if one exists.
package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotEnv sync.Once

// Load fills cfg from environment variables based on its `env` field tags.
// On the first call in a process it also loads a .env file from the working
// directory; a missing file is not an error.
//
// Example:
//
//	type ServerConfig struct {
//		Addr string `env:"PORTAL_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	loadDotEnv.Do(func() {
		// The .env file is a local development convenience only.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is Load panicking on error, for use during startup where a
// missing required variable should stop the process.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
