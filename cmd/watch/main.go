package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"DocLoader/internal/app"
	"DocLoader/internal/ingest"
)

func init() {
	_ = godotenv.Load()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs, opts := app.NewFlagSet("watch")
	schedule := fs.String("schedule", "", "cron spec for repeated runs (default from LOADER_SCHEDULE)")
	port := fs.String("port", "", "health server port (default from PORT)")
	if code, ok := app.Parse(fs, opts, os.Args[1:], os.Stderr); !ok {
		os.Exit(code)
	}

	job, err := app.Prepare(ctx, *opts, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *schedule == "" {
		*schedule = job.Config.Schedule
	}
	if *port == "" {
		*port = job.Config.Port
	}

	if err := app.Watch(ctx, job, *schedule, ":"+*port, &ingest.Status{}); err != nil {
		job.Log.Error("watch stopped", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
