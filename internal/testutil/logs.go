// Package testutil provides helpers shared by package tests.
package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// LogBuffer collects JSON log lines written through the logger returned by NewLogger.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// NewLogger returns a debug-level JSON logger writing into the returned buffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	b := &LogBuffer{}
	h := slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), b
}

// Entries decodes every line written so far.
func (b *LogBuffer) Entries(t testing.TB) []map[string]any {
	t.Helper()
	b.mu.Lock()
	data := append([]byte(nil), b.buf.Bytes()...)
	b.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad log line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	return out
}

// Messages returns the entries whose msg equals msg.
func (b *LogBuffer) Messages(t testing.TB, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range b.Entries(t) {
		if e["msg"] == msg {
			out = append(out, e)
		}
	}
	return out
}
