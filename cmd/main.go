package main

import "agent-api/internal/app"

func main() {
	logger := app.NewDefaultLogger()
	cfg := app.MustReadEnv(logger)
	logger = app.MustInitApplicationLogger(logger, cfg)

	pgPool := app.MustConnectPostgres(logger, cfg)
	defer app.DisconnectPostgres(logger, pgPool)

	app.MustListenAndServeHTTP(logger, cfg, pgPool)
}
