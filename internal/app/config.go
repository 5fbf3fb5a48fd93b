package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/rs/zerolog"

	"agent-api/internal/config"
)

// MustReadEnv reads the whole configuration once at process start.
// Handlers and services receive it explicitly; there is no global
// config state. A missing required variable fails the boot with a
// logged panic instead of surfacing later as a silent failure.
func MustReadEnv(logger zerolog.Logger) *config.Config {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	logger.Info().
		Str("env", cfg.Env).
		Msg("read env")

	return cfg
}
