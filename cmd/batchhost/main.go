// Command batchhost serves the camera processes of the native vision library
// over HTTP. Each run spawns the configured bridge executable.
package main

import (
	"context"
	"log"
	"os"

	"github.com/seantiz/batchcam/internal/api"
	"github.com/seantiz/batchcam/internal/bridge"
	"github.com/seantiz/batchcam/internal/config"
	"github.com/seantiz/batchcam/internal/engine"
	"github.com/seantiz/batchcam/internal/process"
	"github.com/seantiz/batchcam/internal/store"
	"github.com/seantiz/batchcam/internal/vpgl"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Bridge.Bin == "" {
		log.Fatal("config: bridge bin is not set (BATCHCAM_BRIDGE_BIN)")
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("batchhost: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"bridge_bin", cfg.Bridge.Bin,
		"max_concurrent_runs", cfg.MaxConcurrentRuns,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	reg := process.NewRegistry()
	bridge.Register(reg, vpgl.Catalog(), bridge.Config{
		Bin:      cfg.Bridge.Bin,
		Args:     cfg.Bridge.Args,
		TimeoutS: cfg.Bridge.TimeoutS,
	}, logger)

	eng := engine.NewEngine(db, reg, logger,
		engine.WithMaxConcurrentRuns(cfg.MaxConcurrentRuns),
		engine.WithDefaultTimeout(cfg.DefaultTimeoutS),
	)
	srv := api.NewServer(cfg.ListenAddr, db, eng, logger)

	if err := srv.Run(context.Background()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
