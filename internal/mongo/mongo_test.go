package mongo_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"DocLoader/internal/config"
	"DocLoader/internal/ingest"
	mdb "DocLoader/internal/mongo"
	"DocLoader/internal/source"
	"DocLoader/internal/store"
	"DocLoader/internal/testutil"
)

type fakeSession struct {
	mu     sync.Mutex
	cols   map[string]*fakeCollection
	closed int
}

func newFakeSession() *fakeSession {
	return &fakeSession{cols: map[string]*fakeCollection{}}
}

func (s *fakeSession) Collection(name string) mdb.CollectionHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[name]
	if !ok {
		c = &fakeCollection{}
		s.cols[name] = c
	}
	return c
}

func (s *fakeSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeCollection struct {
	mu   sync.Mutex
	docs []any
}

func (c *fakeCollection) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := doc.(store.Record); ok && rec["dup"] == true {
		return nil, errors.New("E11000 duplicate key error")
	}
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

func backend(s *fakeSession) (*mdb.Backend, *slog.Logger, *testutil.LogBuffer) {
	log, buf := testutil.NewLogger()
	return mdb.NewWithSession("robopd2", log, func(context.Context) (mdb.Session, error) { return s, nil }), log, buf
}

func TestNew_Validates(t *testing.T) {
	t.Parallel()
	log, _ := testutil.NewLogger()

	cfg := config.Defaults()
	cfg.MongoURI = ""
	_, err := mdb.New(cfg, log)
	require.ErrorIs(t, err, config.ErrMissing)

	b, err := mdb.New(config.Defaults(), log)
	require.NoError(t, err)
	assert.Equal(t, store.EngineMongo, b.Engine())
}

func TestConnect_Error(t *testing.T) {
	t.Parallel()
	log, _ := testutil.NewLogger()
	boom := errors.New("server selection timeout")
	b := mdb.NewWithSession("robopd2", log, func(context.Context) (mdb.Session, error) { return nil, boom })

	_, err := b.Connect(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestInsert_RecordsUnmodified(t *testing.T) {
	t.Parallel()
	s := newFakeSession()
	b, log, buf := backend(s)

	conn, err := b.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.ResolveDatabase(context.Background()))
	c, err := conn.ResolveContainer(context.Background(), "widgets")
	require.NoError(t, err)

	recs := []store.Record{
		{"name": "a", "id": "keep-me", "n": int64(1)},
		{"name": "b", "tags": []any{"x", int64(2)}, "sub": map[string]any{"k": 1.5}},
	}
	want := []any{
		store.Record{"name": "a", "id": "keep-me", "n": int64(1)},
		store.Record{"name": "b", "tags": []any{"x", int64(2)}, "sub": map[string]any{"k": 1.5}},
	}

	sum, err := store.InsertAll(context.Background(), log, c, recs, 1)
	require.NoError(t, err)
	assert.Equal(t, store.Summary{Attempted: 2, Inserted: 2}, sum)
	if diff := cmp.Diff(want, s.cols["widgets"].docs); diff != "" {
		t.Fatalf("stored documents differ (-want +got):\n%s", diff)
	}
	require.NoError(t, conn.Close(context.Background()))
	assert.Equal(t, 1, s.closed)

	ok := buf.Messages(t, "inserted item")
	require.Len(t, ok, 2)
	assert.Len(t, ok[0]["id"], 24)
}

func TestInsert_FailureContinues(t *testing.T) {
	t.Parallel()
	s := newFakeSession()
	b, log, buf := backend(s)

	recs := []store.Record{{"n": 1}, {"n": 2, "dup": true}, {"n": 3}, {"n": 4, "dup": true}}
	sum, err := ingest.LoadBatch(context.Background(), log, b, "widgets", recs, 2)
	require.NoError(t, err)
	assert.Equal(t, store.Summary{Attempted: 4, Inserted: 2, Failed: 2}, sum)
	assert.Equal(t, 1, s.closed)

	failed := buf.Messages(t, "failed to insert item")
	require.Len(t, failed, 2)
	for _, e := range failed {
		assert.Equal(t, "", e["id"])
		assert.Contains(t, e["err"], "duplicate key")
	}
	done := buf.Messages(t, "finished inserting")
	require.Len(t, done, 1)
	assert.EqualValues(t, 4, done[0]["count"])
}

func TestRun_WidgetsEndToEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.json"), []byte(`[{"name":"a"},{"name":"b"}]`), 0o644))
	src, err := source.NewDir(dir)
	require.NoError(t, err)

	s := newFakeSession()
	b, log, buf := backend(s)

	rep, err := ingest.Run(context.Background(), log, src, b, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Inserted)

	require.Contains(t, s.cols, "widgets")
	assert.Equal(t, []any{store.Record{"name": "a"}, store.Record{"name": "b"}}, s.cols["widgets"].docs)
	done := buf.Messages(t, "finished inserting")
	require.Len(t, done, 1)
	assert.EqualValues(t, 2, done[0]["count"])
	assert.Equal(t, 1, s.closed)
}
