package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/guan-wang/guans-lala-land/internal/app"
	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

func main() {
	mode := flag.String("mode", "run", "run | serve | worker | trigger")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, *mode))
}

func run(ctx context.Context, mode string) int {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 2
	}

	needTemporal := mode == "worker" || mode == "trigger" || (mode == "serve" && cfg.Temporal.Address != "")
	a, err := app.New(ctx, cfg, app.Options{Temporal: needTemporal})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		return 1
	}
	defer a.Close()

	switch mode {
	case "run":
		out := a.RunOnce(ctx)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			a.Log.Error("Failed to encode outcome", "error", err)
		}
		if out.Status == lesson.RunStatusFailed {
			return 1
		}
		return 0
	case "serve":
		if err := a.Serve(ctx); err != nil {
			a.Log.Error("HTTP server stopped", "error", err)
			return 1
		}
		return 0
	case "worker":
		if a.Clients.Temporal == nil {
			a.Log.Error("Worker mode requires TEMPORAL_ADDRESS")
			return 2
		}
		if err := a.Worker(ctx); err != nil {
			a.Log.Error("Temporal worker stopped", "error", err)
			return 1
		}
		return 0
	case "trigger":
		if a.Clients.Temporal == nil {
			a.Log.Error("Trigger mode requires TEMPORAL_ADDRESS")
			return 2
		}
		id, err := a.Trigger(ctx)
		if err != nil {
			a.Log.Error("Failed to start lesson run", "error", err)
			return 1
		}
		fmt.Println(id)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", mode)
		return 2
	}
}
