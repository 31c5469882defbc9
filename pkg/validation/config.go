package validation

import (
	"strings"
	"time"

	"github.com/dmitrymomot/formkit/pkg/config"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// Config holds engine defaults read from the environment.
type Config struct {
	Throttle  time.Duration `env:"FORMKIT_THROTTLE" envDefault:"0s"`
	LogLevel  string        `env:"FORMKIT_LOG_LEVEL" envDefault:"info"`
	LogFormat string        `env:"FORMKIT_LOG_FORMAT" envDefault:"json"`
	Metrics   bool          `env:"FORMKIT_METRICS" envDefault:"false"`
}

// LoadConfig reads Config from the environment (and .env, if present).
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithConfig applies cfg: throttle, a logger built from the log settings
// and, when enabled, the OpenTelemetry metrics recorder. Options listed
// after WithConfig override it.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.throttle = cfg.Throttle

		format := logger.FormatJSON
		if strings.EqualFold(cfg.LogFormat, string(logger.FormatText)) {
			format = logger.FormatText
		}
		o.logger = logger.New(
			logger.WithFormat(format),
			logger.WithLevelName(cfg.LogLevel),
		)

		if cfg.Metrics {
			o.metrics = NewMetricsRecorder()
		}
	}
}
