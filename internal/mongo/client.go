package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// collection is the slice of *mongo.Collection the adapter uses.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type session interface {
	Collection(name string) collection
	Close(ctx context.Context) error
}

type Client struct {
	DB *mongo.Database
	c  *mongo.Client
}

// NewClient connects and pings so that a bad URI or unreachable server fails
// here rather than on every insert.
func NewClient(ctx context.Context, uri, db string) (*Client, error) {
	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Client{DB: cl.Database(db), c: cl}, nil
}

func (c *Client) Collection(name string) collection { return c.DB.Collection(name) }

func (c *Client) Close(ctx context.Context) error { return c.c.Disconnect(ctx) }
