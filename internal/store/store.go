// Package store defines what a document backend must provide to receive a
// batch of records, and the insert loop shared by every backend.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Record is one schemaless JSON object from a source file.
type Record = map[string]any

// Engine selects the backend a run writes to.
type Engine int

const (
	EngineUnknown Engine = iota
	EngineCosmos
	EngineMongo
)

var ErrUnknownEngine = errors.New("unknown storage engine")

// Engines lists the recognised selector values in flag order.
var Engines = []Engine{EngineCosmos, EngineMongo}

func (e Engine) String() string {
	switch e {
	case EngineCosmos:
		return "cosmos"
	case EngineMongo:
		return "mongo"
	default:
		return ""
	}
}

// Set implements pflag.Value so a bad selector fails during flag parsing.
func (e *Engine) Set(s string) error {
	v, err := ParseEngine(s)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

func (e *Engine) Type() string { return "engine" }

func ParseEngine(s string) (Engine, error) {
	for _, e := range Engines {
		if s == e.String() {
			return e, nil
		}
	}
	return EngineUnknown, fmt.Errorf("%w: %q (want one of cosmos, mongo)", ErrUnknownEngine, s)
}

// Backend opens one connection scope per batch.
type Backend interface {
	Engine() Engine
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a live connection to a backend. Close must be called once the
// batch is done, whether or not it succeeded.
type Conn interface {
	ResolveDatabase(ctx context.Context) error
	ResolveContainer(ctx context.Context, name string) (Container, error)
	Close(ctx context.Context) error
}

// Container receives records. Insert returns the identifier the record was
// stored under; on failure it returns whatever identifier was known before
// the write, possibly "".
type Container interface {
	Name() string
	Insert(ctx context.Context, rec Record) (string, error)
}
