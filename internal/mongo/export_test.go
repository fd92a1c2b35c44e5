package mongo

import (
	"context"
	"log/slog"
)

type (
	Session          = session
	CollectionHandle = collection
)

// NewWithSession builds a Backend whose connections come from open.
func NewWithSession(database string, log *slog.Logger, open func(ctx context.Context) (Session, error)) *Backend {
	return &Backend{database: database, log: log, open: open}
}
