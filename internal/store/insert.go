package store

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Summary counts the outcome of one InsertAll call.
type Summary struct {
	Attempted int
	Inserted  int
	Failed    int
}

// InsertAll writes every record to c, at most workers at a time. A failed
// insert is logged and counted; it never stops the remaining records. Only a
// cancelled ctx ends the loop early, and that is the only error returned.
func InsertAll(ctx context.Context, log *slog.Logger, c Container, records []Record, workers int) (Summary, error) {
	if workers < 1 {
		workers = 1
	}
	var inserted, failed atomic.Int64
	attempted := 0

	var g errgroup.Group
	g.SetLimit(workers)
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		attempted++
		g.Go(func() error {
			id, err := c.Insert(ctx, rec)
			if err != nil {
				failed.Add(1)
				log.ErrorContext(ctx, "failed to insert item",
					slog.String("id", id),
					slog.String("container", c.Name()),
					slog.String("err", err.Error()))
				return nil
			}
			inserted.Add(1)
			log.InfoContext(ctx, "inserted item",
				slog.String("id", id),
				slog.String("container", c.Name()))
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Attempted: attempted, Inserted: int(inserted.Load()), Failed: int(failed.Load())}
	log.InfoContext(ctx, "finished inserting",
		slog.Int("count", sum.Attempted),
		slog.Int("inserted", sum.Inserted),
		slog.Int("failed", sum.Failed),
		slog.String("container", c.Name()))
	return sum, ctx.Err()
}
