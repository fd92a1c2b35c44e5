package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DocLoader/internal/source"
	"DocLoader/internal/store"
)

// Report totals one Run.
type Report struct {
	Engine    string    `json:"engine"`
	Files     int       `json:"files"`
	Attempted int       `json:"attempted"`
	Inserted  int       `json:"inserted"`
	Failed    int       `json:"failed"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}

// Run loads every entry of src, in name order, into b. Files are handled one
// at a time; a file that fails to load or a batch that fails to set up
// aborts the run. Per-record failures only show up in the report.
func Run(ctx context.Context, log *slog.Logger, src source.Source, b store.Backend, workers int) (rep Report, err error) {
	rep = Report{Engine: b.Engine().String(), Started: time.Now().UTC()}
	defer func() { rep.Finished = time.Now().UTC() }()

	entries, err := src.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list sources: %w", err)
	}
	for _, e := range entries {
		recs, err := source.Load(ctx, src, e)
		if err != nil {
			return rep, err
		}
		sum, err := LoadBatch(ctx, log, b, e.Name, recs, workers)
		rep.Files++
		rep.Attempted += sum.Attempted
		rep.Inserted += sum.Inserted
		rep.Failed += sum.Failed
		if err != nil {
			return rep, fmt.Errorf("%s: %w", e.Key, err)
		}
	}
	log.InfoContext(ctx, "ingest done",
		slog.String("engine", rep.Engine),
		slog.Int("files", rep.Files),
		slog.Int("attempted", rep.Attempted),
		slog.Int("inserted", rep.Inserted),
		slog.Int("failed", rep.Failed))
	return rep, nil
}

// LoadBatch writes one resource's records under its own connection, which is
// closed before returning whatever the outcome.
func LoadBatch(ctx context.Context, log *slog.Logger, b store.Backend, name string, recs []store.Record, workers int) (sum store.Summary, err error) {
	conn, err := b.Connect(ctx)
	if err != nil {
		return sum, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.WarnContext(ctx, "close connection", slog.String("err", cerr.Error()))
		}
	}()

	if err := conn.ResolveDatabase(ctx); err != nil {
		return sum, fmt.Errorf("resolve database: %w", err)
	}
	c, err := conn.ResolveContainer(ctx, name)
	if err != nil {
		return sum, fmt.Errorf("resolve container: %w", err)
	}
	return store.InsertAll(ctx, log, c, recs, workers)
}
