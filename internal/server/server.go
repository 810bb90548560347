package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/yanun0323/logs"

	"terminuscore/internal/orderbook"
	"terminuscore/internal/service"
)

// Server is the demo/ops HTTP surface: it reads the core through a
// service.Service and adds nothing of its own but routing, encoding and
// a background feed simulator (simulator.go).
type Server struct {
	mux *http.ServeMux
	svc *service.Service
	sim *simulator
}

// New constructs a Server backed by a fresh Service and starts the demo
// feed simulator seeding it.
func New() (*Server, error) {
	static, err := staticHandler()
	if err != nil {
		return nil, err
	}
	svc := service.New(orderbook.DefaultPriceScale)
	srv := &Server{
		mux: http.NewServeMux(),
		svc: svc,
		sim: newSimulator(svc),
	}
	srv.routes(static)
	srv.sim.start()
	return srv, nil
}

func (s *Server) routes(static http.Handler) {
	s.mux.Handle("/healthz", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/api/aggregated", http.HandlerFunc(s.handleAggregated))
	s.mux.Handle("/api/vwaf", http.HandlerFunc(s.handleVWAF))
	s.mux.Handle("/stream/aggregated", http.HandlerFunc(s.handleAggregatedStream))
	s.mux.Handle("/", static)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close stops the background feed simulator. Callers should defer this
// alongside the HTTP server's own shutdown.
func (s *Server) Close() {
	s.sim.stop()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dirty, lastWriteMs := s.svc.Health()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"time":          time.Now().UTC(),
		"dirty":         dirty,
		"last_write_ms": lastWriteMs,
	})
}

func (s *Server) handleAggregated(w http.ResponseWriter, r *http.Request) {
	levels := parseLevels(r, orderbook.OutputLevels)
	snap := s.svc.GetAggregated(levels, nowMs())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logs.Warnf("server: encode aggregated: %v", err)
	}
}

func (s *Server) handleVWAF(w http.ResponseWriter, r *http.Request) {
	view := s.svc.GetVWAF(nowMs())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		logs.Warnf("server: encode vwaf: %v", err)
	}
}

// handleAggregatedStream pushes a fresh aggregated snapshot over SSE on
// a fixed tick.
func (s *Server) handleAggregatedStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		logs.Warnf("server: /stream/aggregated flusher unsupported: %T", w)
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	levels := parseLevels(r, orderbook.OutputLevels)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ticker.C:
			snap := s.svc.GetAggregated(levels, nowMs())
			data, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			w.Write([]byte("event: aggregated\ndata: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func parseLevels(r *http.Request, def int) int {
	levels := def
	if raw := r.URL.Query().Get("levels"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			levels = v
		}
	}
	return levels
}

func nowMs() int64 { return time.Now().UnixMilli() }
