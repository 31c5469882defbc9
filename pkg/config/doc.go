// Package config loads typed configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` (.env files) and
// `github.com/caarlos0/env/v11` (struct tag parsing) and caches one parsed
// copy per struct type for the lifetime of the process.
//
// # Usage
//
//	type Settings struct {
//	    Throttle time.Duration `env:"FORMKIT_THROTTLE" envDefault:"0s"`
//	    LogLevel string        `env:"FORMKIT_LOG_LEVEL" envDefault:"info"`
//	}
//
//	if err := config.LoadEnv("./config/.env"); err != nil {
//	    log.Fatalf("loading env: %v", err)
//	}
//	var s Settings
//	config.MustLoad(&s)
//
// # Error Handling
//
// Sentinel errors can be compared with errors.Is:
//
//   - ErrParsingConfig  – env vars could not be parsed into the struct.
//   - ErrLoadingEnvFile – a .env file could not be read.
//   - ErrNilPointer     – nil pointer passed to Load / MustLoad.
//
// # Testing Helpers
//
// ResetCache clears the cache; ForceReload re-parses a single type after
// the environment changed.
package config
