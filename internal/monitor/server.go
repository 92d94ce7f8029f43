package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/publish"
)

// Server exposes a Monitor over HTTP.
type Server struct {
	monitor *Monitor
	mux     *http.ServeMux
	server  *http.Server
}

// NewServer creates a server listening on address. Extra routes may be
// attached to Mux before Start.
func NewServer(address string, m *Monitor) *Server {
	s := &Server{monitor: m, mux: http.NewServeMux()}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              address,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Mux returns the router, for attaching further handlers.
func (s *Server) Mux() *http.ServeMux { return s.mux }

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/frame", s.handleFrame)
	s.mux.HandleFunc("/api/stats", s.handleStats)

	debug := tsweb.Debugger(s.mux)
	debug.Handle("heatmap", "Latest heatmap with contacts (interactive)", http.HandlerFunc(s.handleHeatmap))
	debug.Handle("heatmap.png", "Latest heatmap with contacts (PNG)", http.HandlerFunc(s.handleHeatmapPNG))
}

// Start serves until ctx is cancelled, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ln.Addr())
		errc <- s.server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	monitoring.Logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "ok"
	if !s.monitor.Healthy() {
		status = http.StatusServiceUnavailable
		state = "device unavailable"
	}
	writeJSON(w, status, map[string]string{"status": state})
}

// frameResponse is the /api/frame body.
type frameResponse struct {
	publish.FrameJSON
	Rows    int `json:"rows,omitempty"`
	Columns int `json:"columns,omitempty"`
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snap, ok := s.monitor.Latest()
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no frame processed yet")
		return
	}
	resp := frameResponse{FrameJSON: publish.NewFrameJSON(publish.Message{
		Seq:      snap.Seq,
		Time:     snap.Time,
		Contacts: snap.Contacts,
	})}
	if snap.Heatmap != nil {
		resp.Rows, resp.Columns = snap.Heatmap.Rows(), snap.Heatmap.Cols()
	}
	writeJSON(w, http.StatusOK, resp)
}

// statsResponse is the /api/stats body.
type statsResponse struct {
	monitoring.StatsSnapshot
	StableRatio float64 `json:"stable_ratio"`
	Healthy     bool    `json:"healthy"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	snap := s.monitor.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		StatsSnapshot: snap,
		StableRatio:   snap.StableRatio(),
		Healthy:       s.monitor.Healthy(),
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.monitor.Latest()
	if !ok || snap.Heatmap == nil {
		writeJSONError(w, http.StatusNotFound, ErrNoHeatmap.Error())
		return
	}
	var buf bytes.Buffer
	if err := renderHeatmapChart(&buf, snap); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHeatmapPNG(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.monitor.Latest()
	if !ok || snap.Heatmap == nil {
		writeJSONError(w, http.StatusNotFound, ErrNoHeatmap.Error())
		return
	}
	var buf bytes.Buffer
	title := fmt.Sprintf("seq %d", snap.Seq)
	if err := RenderHeatmapPNG(&buf, snap.Heatmap, snap.Contacts, title); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render png: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
