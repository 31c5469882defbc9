package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/config"
	"github.com/dmitrymomot/formkit/pkg/eventloop"
	"github.com/dmitrymomot/formkit/pkg/validation"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config.ResetCache()
		t.Cleanup(config.ResetCache)

		cfg, err := validation.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, validation.Config{
			Throttle:  0,
			LogLevel:  "info",
			LogFormat: "json",
			Metrics:   false,
		}, cfg)
	})

	t.Run("from environment", func(t *testing.T) {
		config.ResetCache()
		t.Cleanup(config.ResetCache)

		t.Setenv("FORMKIT_THROTTLE", "250ms")
		t.Setenv("FORMKIT_LOG_LEVEL", "debug")
		t.Setenv("FORMKIT_LOG_FORMAT", "text")
		t.Setenv("FORMKIT_METRICS", "true")

		cfg, err := validation.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.Throttle)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.True(t, cfg.Metrics)
	})

	t.Run("invalid duration", func(t *testing.T) {
		config.ResetCache()
		t.Cleanup(config.ResetCache)

		t.Setenv("FORMKIT_THROTTLE", "soon")

		_, err := validation.LoadConfig()
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})
}

func TestWithConfig(t *testing.T) {
	t.Parallel()

	sched := eventloop.NewManual()
	rec := &recorder{}
	unit, err := validation.New(rec.observe, []validation.Dependency[string]{alwaysValid()},
		validation.WithConfig(validation.Config{
			Throttle:  20 * time.Millisecond,
			LogLevel:  "error",
			LogFormat: "unknown",
		}),
		validation.WithScheduler(sched),
	)
	require.NoError(t, err)

	require.NoError(t, unit.Evaluate("x", nil))
	sched.Flush()
	assert.Equal(t, []validation.Status{validation.StatusQueued}, rec.statuses())

	sched.Advance(20 * time.Millisecond)
	assert.Equal(t, []validation.Status{validation.StatusQueued, validation.StatusValid}, rec.statuses())

	_, err = validation.New(rec.observe, []validation.Dependency[string]{alwaysValid()},
		validation.WithConfig(validation.Config{Throttle: -time.Second}),
		validation.WithScheduler(sched),
	)
	assert.ErrorIs(t, err, validation.ErrInvalidThrottle)
}
