// Command stubbridge is a bridge executable that answers every camera
// process with stub outputs. batchhost can run it in place of the native
// bridge:
//
//	BATCHCAM_BRIDGE_BIN=stubbridge batchhost
//
// It reads one request from stdin and writes log and result frames to
// stdout. The process name arrives as the last argument.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/seantiz/batchcam/internal/bridge"
	"github.com/seantiz/batchcam/internal/config"
	"github.com/seantiz/batchcam/internal/process"
	"github.com/seantiz/batchcam/internal/process/stub"
	"github.com/seantiz/batchcam/internal/vpgl"
)

func main() {
	// stdout carries the protocol, so diagnostics go to stderr where the
	// host forwards them as run log lines.
	logger := config.NewLogger(os.Stderr, config.ParseLogLevel(os.Getenv("BATCHCAM_LOG_LEVEL")))

	if len(os.Args) > 1 {
		logger.Debug("stubbridge: serving", "process", os.Args[len(os.Args)-1])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := process.NewRegistry()
	stub.Register(reg, vpgl.Catalog())

	agent := bridge.NewAgent(reg, logger.With(slog.String("component", "stubbridge")))
	if err := agent.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
