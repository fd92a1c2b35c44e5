// Package app wires flags, configuration, logging and the selected backend
// for the loader commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	flag "github.com/spf13/pflag"

	"DocLoader/internal/config"
	"DocLoader/internal/cosmos"
	"DocLoader/internal/ingest"
	"DocLoader/internal/mongo"
	"DocLoader/internal/source"
	"DocLoader/internal/store"
)

var errUsage = errors.New("usage")

type Options struct {
	JSONFiles  string
	Engine     store.Engine
	ConfigPath string
	Workers    int
	LogLevel   string
	LogFormat  string
}

// NewFlagSet registers the flags every loader command accepts. Callers may
// add their own before parsing.
func NewFlagSet(name string) (*flag.FlagSet, *Options) {
	opts := &Options{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&opts.JSONFiles, "json-files", "", "directory of JSON files, or s3://bucket/prefix")
	fs.Var(&opts.Engine, "storage-engine", "storage engine: cosmos or mongo")
	fs.StringVar(&opts.ConfigPath, "config", "", "optional JSONC config file")
	fs.IntVar(&opts.Workers, "workers", 0, "records inserted in parallel per file (default from LOADER_WORKERS, else 1)")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "text or json")
	return fs, opts
}

func (o Options) Validate() error {
	var missing []string
	if o.JSONFiles == "" {
		missing = append(missing, "--json-files")
	}
	if o.Engine == store.EngineUnknown {
		missing = append(missing, "--storage-engine")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required flag(s) %s not set", errUsage, strings.Join(missing, ", "))
	}
	return nil
}

func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	ho := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// NewBackend returns the adapter for engine.
func NewBackend(engine store.Engine, cfg config.Config, log *slog.Logger) (store.Backend, error) {
	switch engine {
	case store.EngineCosmos:
		b, err := cosmos.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	case store.EngineMongo:
		b, err := mongo.New(cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownEngine, engine.String())
	}
}

// Job is a fully configured load, ready to run once or on a schedule.
type Job struct {
	Log     *slog.Logger
	Config  config.Config
	Source  source.Source
	Backend store.Backend
}

func Prepare(ctx context.Context, opts Options, logOut io.Writer) (*Job, error) {
	log, err := NewLogger(logOut, opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	b, err := NewBackend(opts.Engine, cfg, log)
	if err != nil {
		return nil, err
	}
	src, err := source.New(ctx, opts.JSONFiles, cfg)
	if err != nil {
		return nil, fmt.Errorf("json files: %w", err)
	}
	return &Job{Log: log, Config: cfg, Source: src, Backend: b}, nil
}

func (j *Job) Run(ctx context.Context) (ingest.Report, error) {
	return ingest.Run(ctx, j.Log, j.Source, j.Backend, j.Config.Workers)
}

// Parse parses args into opts. When it reports false the command should exit
// with the returned code.
func Parse(fs *flag.FlagSet, opts *Options, args []string, stderr io.Writer) (int, bool) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Usage of %s:\n%s", fs.Name(), fs.FlagUsages())
			return 0, false
		}
		fmt.Fprintln(stderr, "error:", err)
		return 2, false
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		fmt.Fprint(stderr, fs.FlagUsages())
		return 2, false
	}
	return 0, true
}

// Run is the one-shot command: 0 on success, 2 on bad usage, 1 otherwise.
func Run(ctx context.Context, args []string, stderr io.Writer) int {
	fs, opts := NewFlagSet("ingest")
	if code, ok := Parse(fs, opts, args, stderr); !ok {
		return code
	}

	job, err := Prepare(ctx, *opts, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if _, err := job.Run(ctx); err != nil {
		job.Log.ErrorContext(ctx, "ingest failed", slog.String("err", err.Error()))
		return 1
	}
	return 0
}
