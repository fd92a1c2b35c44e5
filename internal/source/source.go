// Package source enumerates and reads the JSON files a run loads.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"DocLoader/internal/config"
	"DocLoader/internal/store"
)

// Entry is one loadable file.
type Entry struct {
	Key  string // path or object key
	Name string // resource name
}

// Source lists entries in name order and opens them for reading.
type Source interface {
	List(ctx context.Context) ([]Entry, error)
	Open(ctx context.Context, e Entry) (io.ReadCloser, error)
}

// New picks the source for location: s3://bucket/prefix, an http(s) URL of a
// single file, or a local directory.
func New(ctx context.Context, location string, cfg config.Config) (Source, error) {
	var (
		src Source
		err error
	)
	switch {
	case strings.HasPrefix(location, "s3://"):
		src, err = NewS3(ctx, location, cfg)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		src, err = NewHTTP(location, nil)
	default:
		src, err = NewDir(location)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Load opens and decodes one entry.
func Load(ctx context.Context, src Source, e Entry) ([]store.Record, error) {
	rc, err := src.Open(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Key, err)
	}
	defer rc.Close()
	recs, err := DecodeRecords(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.Key, err)
	}
	return recs, nil
}

type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: json files path", config.ErrMissing)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// List skips subdirectories and dotfiles.
func (d *Dir) List(_ context.Context) ([]Entry, error) {
	des, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		out = append(out, Entry{Key: filepath.Join(d.root, de.Name()), Name: ResourceName(de.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (d *Dir) Open(_ context.Context, e Entry) (io.ReadCloser, error) {
	return os.Open(e.Key)
}
