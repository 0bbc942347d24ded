// testhost starts a batchcam host with stub processes for E2E testing.
// Usage: go run ./cmd/testhost
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/seantiz/batchcam/internal/api"
	"github.com/seantiz/batchcam/internal/config"
	"github.com/seantiz/batchcam/internal/engine"
	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/process"
	"github.com/seantiz/batchcam/internal/process/stub"
	"github.com/seantiz/batchcam/internal/store"
	"github.com/seantiz/batchcam/internal/vpgl"
)

// slowProcess logs a few lines over a second so log streaming and kills
// can be observed from outside.
var slowProcess = process.Func{
	Sig: model.Signature{Name: "testSlowProcess", Outputs: []model.Type{model.TypeInt}},
	Fn: func(ctx context.Context, inv *process.Invocation) (process.Result, error) {
		for i := range 5 {
			inv.Log(fmt.Sprintf("[slow] step %d", i+1))
			select {
			case <-ctx.Done():
				return process.Result{}, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
		return process.Result{Outputs: []model.Value{model.Int(5)}}, nil
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	reg := process.NewRegistry()
	stub.Register(reg, vpgl.Catalog())
	reg.Register(slowProcess)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	eng := engine.NewEngine(db, reg, logger, engine.WithMaxConcurrentRuns(cfg.MaxConcurrentRuns))
	srv := api.NewServer(cfg.ListenAddr, db, eng, logger)

	logger.Info("testhost: starting", "addr", cfg.ListenAddr, "processes", reg.Len())
	if err := srv.Run(context.Background()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
