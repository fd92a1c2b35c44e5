package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	router "DocLoader/internal/http"
	"DocLoader/internal/ingest"
)

// Watch runs job once straight away and then on schedule, serving /healthz on
// addr, until ctx is cancelled. A tick that lands while a run is still going
// is skipped.
func Watch(ctx context.Context, job *Job, schedule, addr string, status *ingest.Status) error {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return watch(ctx, job, schedule, ln, status)
}

// watch owns ln. Runs are cancelled as soon as ctx ends or serving fails.
func watch(ctx context.Context, job *Job, schedule string, ln net.Listener, status *ingest.Status) error {
	log := job.Log
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	runOnce := func() {
		if !status.Begin() {
			log.WarnContext(runCtx, "previous ingest still running, skipping tick")
			return
		}
		rep, err := job.Run(runCtx)
		status.Record(rep, err)
		if err != nil {
			log.ErrorContext(runCtx, "ingest failed", slog.String("err", err.Error()))
			return
		}
		log.InfoContext(runCtx, "ingest completed", slog.Int("inserted", rep.Inserted), slog.Int("failed", rep.Failed))
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, runOnce); err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:      router.NewRouter(status, job.Backend.Engine().String()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	log.InfoContext(ctx, "listening", slog.String("addr", ln.Addr().String()), slog.String("schedule", schedule))

	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		runOnce()
	}()
	c.Start()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		cancelRuns()
		<-c.Stop().Done()
		first.Wait()
		return err
	}

	<-c.Stop().Done()
	first.Wait()
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
