// Package mongo writes batches into MongoDB collections. The database and
// collection are created by the server on first write.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"DocLoader/internal/config"
	"DocLoader/internal/store"
)

type Backend struct {
	database string
	log      *slog.Logger
	open     func(ctx context.Context) (session, error)
}

func New(cfg config.Config, log *slog.Logger) (*Backend, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("%w: MONGODB_URI is required for mongo", config.ErrMissing)
	}
	return &Backend{
		database: cfg.MongoDatabase,
		log:      log,
		open: func(ctx context.Context) (session, error) {
			c, err := NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}, nil
}

func (b *Backend) Engine() store.Engine { return store.EngineMongo }

func (b *Backend) Connect(ctx context.Context) (store.Conn, error) {
	s, err := b.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("mongo client: %w", err)
	}
	return &Conn{s: s, database: b.database, log: b.log}, nil
}

type Conn struct {
	s        session
	database string
	log      *slog.Logger
}

// ResolveDatabase only logs: the server creates the database lazily.
func (c *Conn) ResolveDatabase(ctx context.Context) error {
	c.log.InfoContext(ctx, "getting or creating database", slog.String("database", c.database))
	return nil
}

func (c *Conn) ResolveContainer(ctx context.Context, name string) (store.Container, error) {
	c.log.InfoContext(ctx, "getting or creating collection", slog.String("collection", name))
	return &Collection{col: c.s.Collection(name), name: name}, nil
}

func (c *Conn) Close(ctx context.Context) error { return c.s.Close(ctx) }

type Collection struct {
	col  collection
	name string
}

func (c *Collection) Name() string { return c.name }

// Insert writes rec unchanged; the server assigns _id.
func (c *Collection) Insert(ctx context.Context, rec store.Record) (string, error) {
	res, err := c.col.InsertOne(ctx, rec)
	if err != nil {
		return "", err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}
