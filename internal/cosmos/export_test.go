package cosmos

import "log/slog"

// NewWithAPI builds a Backend over a fake SDK.
func NewWithAPI(database string, log *slog.Logger, a api) *Backend {
	return &Backend{database: database, log: log, dial: func() (api, error) { return a, nil }}
}

var PartitionKey = partitionKey
