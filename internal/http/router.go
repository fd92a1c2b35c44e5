package http

import (
	"encoding/json"
	"net/http"
	"time"

	"DocLoader/internal/ingest"
)

// NewRouter serves /healthz with the outcome of the last scheduled run. It
// answers 503 while the last finished run failed.
func NewRouter(status *ingest.Status, engine string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status string          `json:"status"`
			Time   time.Time       `json:"time"`
			Engine string          `json:"engine"`
			Ingest ingest.Snapshot `json:"ingest"`
		}
		snap := status.Last()
		out := resp{Status: "ok", Time: time.Now().UTC(), Engine: engine, Ingest: snap}
		code := http.StatusOK
		if snap.Error != "" {
			out.Status = "error"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(out)
	})
	return mux
}
