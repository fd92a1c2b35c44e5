package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DocLoader/internal/config"
	"DocLoader/internal/cosmos"
	"DocLoader/internal/mongo"
	"DocLoader/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AZURE_COSMOSDB_ENDPOINT", "AZURE_COSMOSDB_KEY", "AZURE_COSMOSDB_DATABASE",
		"MONGODB_URI", "MONGODB_DATABASE", "LOADER_WORKERS",
	} {
		t.Setenv(k, "")
	}
}

func TestRun_UnknownEngine(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"--json-files", dir, "--storage-engine", "redis"}, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), `"redis"`)
	assert.Contains(t, stderr.String(), "unknown storage engine")

	stderr.Reset()
	code = Run(context.Background(), []string{"--json-files", dir, "--storage-engine", "Mongo"}, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), `"Mongo"`)
}

func TestRun_MissingFlags(t *testing.T) {
	clearEnv(t)
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"--storage-engine", "mongo"}, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "--json-files")

	stderr.Reset()
	code = Run(context.Background(), []string{"--json-files", t.TempDir()}, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "--storage-engine")
}

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"--help"}, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "--storage-engine")
}

func TestRun_InvalidJSONAbortsBeforeConnecting(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{not valid}`), 0o644))
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"--json-files", dir, "--storage-engine", "mongo", "--log-format", "json"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "ingest failed")
	assert.Contains(t, stderr.String(), "broken.json")
	assert.NotContains(t, stderr.String(), "getting or creating database")
}

func TestRun_CosmosWithoutCredentials(t *testing.T) {
	clearEnv(t)
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"--json-files", t.TempDir(), "--storage-engine", "cosmos"}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "AZURE_COSMOSDB_ENDPOINT")
}

func TestRun_EmptyDirectory(t *testing.T) {
	clearEnv(t)
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"--json-files", t.TempDir(), "--storage-engine", "mongo"}, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "ingest done")
}

func TestNewBackend(t *testing.T) {
	log, err := NewLogger(&bytes.Buffer{}, "info", "text")
	require.NoError(t, err)
	cfg := config.Defaults()
	cfg.CosmosEndpoint = "https://acct.documents.azure.com:443/"
	cfg.CosmosKey = "c2VjcmV0"

	b, err := NewBackend(store.EngineCosmos, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &cosmos.Backend{}, b)

	b, err = NewBackend(store.EngineMongo, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &mongo.Backend{}, b)

	_, err = NewBackend(store.EngineUnknown, cfg, log)
	require.ErrorIs(t, err, store.ErrUnknownEngine)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = NewLogger(&buf, "loud", "text")
	require.Error(t, err)
	_, err = NewLogger(&buf, "info", "xml")
	require.Error(t, err)
}

func TestPrepare_WorkersFlagOverridesConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOADER_WORKERS", "3")
	opts := Options{JSONFiles: t.TempDir(), Engine: store.EngineMongo, Workers: 5, LogLevel: "info"}

	job, err := Prepare(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 5, job.Config.Workers)

	opts.Workers = 0
	job, err = Prepare(context.Background(), opts, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, job.Config.Workers)
}
