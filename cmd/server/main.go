// Package main is the entry point for the Queridômetro server.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (flags, env vars, .env)
//  2. Create the logger
//  3. Build and start the server
//
// All actual logic lives in internal/ packages.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/queridometro/internal/config"
	"github.com/sakif/queridometro/internal/logging"
	"github.com/sakif/queridometro/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// === 2. SET UP LOGGING ===
	logger := logging.Setup(cfg.LogLevel)

	if cfg.UsingDevSecret() {
		logger.Warn("SESSION_SECRET not set, using the development secret; sessions can be forged")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid vote time zone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:          cfg.Port,
		DataPath:      cfg.DatabasePath,
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.Production(),
		BcryptCost:    cfg.BcryptCost,
		VoteLocation:  loc,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
