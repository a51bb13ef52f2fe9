// statusserver.go - exposes the current TelemetrySnapshot over a small
// loopback HTTP endpoint so the optional cmd/statusview tool can poll it
// from a separate process without sharing memory across the process
// boundary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
)

// StatusServer serves the latest snapshot read from a SnapshotCache as
// JSON on /status. It is read-only: nothing it does can affect the
// event/audio context.
type StatusServer struct {
	cache  *SnapshotCache
	logger *log.Logger
}

// NewStatusServer binds a server to the cache it will poll on each request.
func NewStatusServer(cache *SnapshotCache, logger *log.Logger) *StatusServer {
	return &StatusServer{cache: cache, logger: logger}
}

// Serve listens on addr (e.g. "127.0.0.1:7581") until ctx is canceled.
func (s *StatusServer) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		snap := s.cache.Read()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			s.logger.Warn("status encode failed", "err", err)
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
