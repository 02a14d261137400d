// Package api provides the read-only HTTP API for observing a running
// simulation. The engine publishes after every turn; handlers only ever
// read the last published state, so they never touch the live world.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/tellsim/internal/engine"
)

// Server serves published world state over HTTP.
type Server struct {
	Addr    string
	limiter *RateLimiter
	hub     *Hub

	mu          sync.RWMutex
	status      []byte
	settlements []byte
	clans       []byte
	timeline    []byte
	clanDetail  map[int][]byte
	settDetail  map[int][]byte
}

// NewServer creates a server allowing perMinute requests per client.
func NewServer(addr string, perMinute int) *Server {
	return &Server{
		Addr:    addr,
		limiter: NewRateLimiter(perMinute, time.Minute),
		hub:     NewHub(),
	}
}

type timelineEntry struct {
	Turn       int              `json:"turn"`
	Year       int              `json:"year"`
	Population int              `json:"population"`
	Stats      engine.TurnStats `json:"stats"`
}

// Publish encodes the world after a turn and pushes the status to stream
// subscribers. Call it from the goroutine that steps the world.
func (s *Server) Publish(w *engine.World, snap engine.Snapshot) error {
	summary := map[string]any{
		"run_id":      w.RunID,
		"seed":        w.Seed,
		"turn":        snap.Turn,
		"year":        engine.FormatYear(snap.Year),
		"era":         snap.Era,
		"population":  snap.Population,
		"clans":       len(snap.Clans),
		"settlements": len(w.Registry.LiveSettlements()),
		"clusters":    len(w.Registry.Clusters()),
		"stats":       snap.Stats,
	}
	status, err := encode(summary)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	line, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	settlements, err := encode(snap.Settlements)
	if err != nil {
		return fmt.Errorf("encode settlements: %w", err)
	}
	clans, err := encode(snap.Clans)
	if err != nil {
		return fmt.Errorf("encode clans: %w", err)
	}

	entries := make([]timelineEntry, len(w.Timeline))
	for i, t := range w.Timeline {
		entries[i] = timelineEntry{Turn: t.Turn, Year: t.Year, Population: t.Population, Stats: t.Stats}
	}
	timeline, err := encode(entries)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}

	clanDetail := make(map[int][]byte, len(snap.Clans))
	for _, c := range snap.Clans {
		d, ok := w.ClanDetail(c.ID)
		if !ok {
			continue
		}
		if clanDetail[c.ID], err = encode(d); err != nil {
			return fmt.Errorf("encode clan %d: %w", c.ID, err)
		}
	}
	settDetail := make(map[int][]byte, len(snap.Settlements))
	for _, st := range snap.Settlements {
		d, ok := w.SettlementDetail(st.ID)
		if !ok {
			continue
		}
		if settDetail[st.ID], err = encode(d); err != nil {
			return fmt.Errorf("encode settlement %d: %w", st.ID, err)
		}
	}

	s.mu.Lock()
	s.status, s.settlements, s.clans, s.timeline = status, settlements, clans, timeline
	s.clanDetail, s.settDetail = clanDetail, settDetail
	s.mu.Unlock()

	s.hub.Broadcast(line)
	return nil
}

// Handler returns the API routes plus /metrics. /api/v1/stream is a
// websocket carrying one status line per turn.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.serve(func() []byte { return s.status }))
	mux.HandleFunc("/api/v1/settlements", s.serve(func() []byte { return s.settlements }))
	mux.HandleFunc("/api/v1/clans", s.serve(func() []byte { return s.clans }))
	mux.HandleFunc("/api/v1/timeline", s.serve(func() []byte { return s.timeline }))
	mux.HandleFunc("/api/v1/clan/", s.serveDetail("/api/v1/clan/", func() map[int][]byte { return s.clanDetail }))
	mux.HandleFunc("/api/v1/settlement/", s.serveDetail("/api/v1/settlement/", func() map[int][]byte { return s.settDetail }))
	mux.Handle("/api/v1/stream", s.hub)

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/api/", RateLimitMiddleware(s.limiter, mux))
	return root
}

// Start serves in a goroutine. Shut the returned server down when done.
func (s *Server) Start() *http.Server {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	slog.Info("HTTP API starting", "addr", s.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

func (s *Server) serve(get func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.RLock()
		body := get()
		s.mu.RUnlock()
		if body == nil {
			http.Error(w, "no turn published yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, body)
	}
}

func (s *Server) serveDetail(prefix string, get func() map[int][]byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, prefix))
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		s.mu.RLock()
		body, ok := get()[id]
		s.mu.RUnlock()
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, body)
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
