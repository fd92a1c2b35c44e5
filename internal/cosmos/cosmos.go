// Package cosmos writes batches into Azure Cosmos DB containers. The database
// is created on demand; containers must already exist.
package cosmos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/google/uuid"

	"DocLoader/internal/config"
	"DocLoader/internal/store"
)

// ErrContainerNotProvisioned means the target container is missing. Containers
// are provisioned out of band (Terraform) and are never created here.
var ErrContainerNotProvisioned = errors.New("container not provisioned")

// ErrHierarchicalPartitionKey means the container is partitioned on more than
// one path, which the loader does not write to.
var ErrHierarchicalPartitionKey = errors.New("hierarchical partition key not supported")

type Backend struct {
	database string
	log      *slog.Logger
	dial     func() (api, error)
}

func New(cfg config.Config, log *slog.Logger) (*Backend, error) {
	if cfg.CosmosEndpoint == "" || cfg.CosmosKey == "" {
		return nil, fmt.Errorf("%w: AZURE_COSMOSDB_ENDPOINT and AZURE_COSMOSDB_KEY are required for cosmos", config.ErrMissing)
	}
	return &Backend{
		database: cfg.CosmosDatabase,
		log:      log,
		dial:     func() (api, error) { return dial(cfg.CosmosEndpoint, cfg.CosmosKey) },
	}, nil
}

func (b *Backend) Engine() store.Engine { return store.EngineCosmos }

func (b *Backend) Connect(_ context.Context) (store.Conn, error) {
	a, err := b.dial()
	if err != nil {
		return nil, fmt.Errorf("cosmos client: %w", err)
	}
	return &Conn{api: a, database: b.database, log: b.log}, nil
}

type Conn struct {
	api      api
	database string
	log      *slog.Logger
}

// ResolveDatabase reads the database and creates it when the read reports 404.
func (c *Conn) ResolveDatabase(ctx context.Context) error {
	c.log.InfoContext(ctx, "getting or creating database", slog.String("database", c.database))
	err := c.api.ReadDatabase(ctx, c.database)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("read database %s: %w", c.database, err)
	}
	c.log.InfoContext(ctx, "database not found, creating", slog.String("database", c.database))
	if err := c.api.CreateDatabase(ctx, c.database); err != nil && !isConflict(err) {
		return fmt.Errorf("create database %s: %w", c.database, err)
	}
	return nil
}

func (c *Conn) ResolveContainer(ctx context.Context, name string) (store.Container, error) {
	c.log.InfoContext(ctx, "getting container", slog.String("container", name))
	paths, err := c.api.ReadContainer(ctx, c.database, name)
	if err != nil {
		if isNotFound(err) {
			c.log.ErrorContext(ctx, "container does not exist; containers are managed through Terraform, check that it applied correctly",
				slog.String("container", name))
			return nil, fmt.Errorf("%w: %s/%s (containers are managed through Terraform)", ErrContainerNotProvisioned, c.database, name)
		}
		return nil, fmt.Errorf("read container %s: %w", name, err)
	}
	if len(paths) > 1 {
		c.log.ErrorContext(ctx, "container uses a hierarchical partition key",
			slog.String("container", name),
			slog.String("paths", strings.Join(paths, ",")))
		return nil, fmt.Errorf("%w: %s/%s partitioned on %s", ErrHierarchicalPartitionKey, c.database, name, strings.Join(paths, ", "))
	}
	pk := ""
	if len(paths) == 1 {
		pk = paths[0]
	}
	return &Container{api: c.api, database: c.database, name: name, pkPath: pk, log: c.log}, nil
}

// Close is a no-op; the SDK client holds no connection to release.
func (c *Conn) Close(_ context.Context) error { return nil }

type Container struct {
	api      api
	database string
	name     string
	pkPath   string
	log      *slog.Logger
}

func (c *Container) Name() string { return c.name }

// Insert stores a copy of rec under a fresh random id, replacing any id the
// source carried. The id is returned even when the write fails.
func (c *Container) Insert(ctx context.Context, rec store.Record) (string, error) {
	item := maps.Clone(rec)
	if item == nil {
		item = store.Record{}
	}
	id := uuid.NewString()
	if old, ok := item["id"]; ok {
		c.log.WarnContext(ctx, "replacing source id",
			slog.Any("source_id", old),
			slog.String("id", id),
			slog.String("container", c.name))
	}
	item["id"] = id

	body, err := json.Marshal(item)
	if err != nil {
		return id, err
	}
	return id, c.api.CreateItem(ctx, c.database, c.name, partitionKey(item, c.pkPath), body)
}

// partitionKey reads the value at a path such as "/category" or "/a/b".
func partitionKey(item store.Record, path string) azcosmos.PartitionKey {
	if path == "" {
		return azcosmos.NullPartitionKey
	}
	var cur any = item
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		m, ok := cur.(map[string]any)
		if !ok {
			return azcosmos.NullPartitionKey
		}
		if cur, ok = m[seg]; !ok {
			return azcosmos.NullPartitionKey
		}
	}
	switch v := cur.(type) {
	case string:
		return azcosmos.NewPartitionKeyString(v)
	case bool:
		return azcosmos.NewPartitionKeyBool(v)
	case int64:
		return azcosmos.NewPartitionKeyNumber(float64(v))
	case float64:
		return azcosmos.NewPartitionKeyNumber(v)
	default:
		return azcosmos.NullPartitionKey
	}
}
