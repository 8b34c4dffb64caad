package main

import (
	"flag"
	"fmt"
	"os"

	"chat-history-server/internal/config"
	"chat-history-server/pkg/logger"

	"go.uber.org/zap"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a JSON configuration file")
	flag.Parse()

	// Load configuration
	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	// Initialize logger
	if err := logger.Init(cfg.Logging.Path, cfg.Logging.Level); err != nil {
		panic(err)
	}
	defer logger.Info("Server shutting down")

	if cfg.Security.TOTPEncryptionKey == "" {
		logger.Warn("TOTP encryption key is not set; two-factor enrollment will fail")
	}

	// Setup and start server
	srv, err := SetupServer(cfg)
	if err != nil {
		logger.Fatal("Failed to setup server", zap.Error(err))
	}

	if err := StartServer(srv); err != nil {
		logger.Error("Server error", zap.Error(err))
		os.Exit(1)
	}
}
