// Package server exposes the scanner over a WebSocket endpoint:
// clients stream camera frames up and receive detections back, and may
// ask for a live reload of the marker definitions.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	ws "github.com/gorilla/websocket"

	"github.com/markerscan/markerd/internal/cache"
	"github.com/markerscan/markerd/internal/config"
	"github.com/markerscan/markerd/internal/detect"
	"github.com/markerscan/markerd/internal/dictionary"
	"github.com/markerscan/markerd/internal/influx"
	"github.com/markerscan/markerd/internal/markers"
	"github.com/markerscan/markerd/internal/session"
	"github.com/markerscan/markerd/internal/storage"
	"github.com/markerscan/markerd/pkg/streaming"
)

// Options carries the collaborators a Server needs.
type Options struct {
	Server     config.ServerConfig
	Markers    config.MarkerConfig
	Processing config.ProcessingConfig

	Holder   *dictionary.Holder
	Detector detect.Detector
	Parser   *markers.Parser
	Encoder  *dictionary.Encoder
	Cache    *cache.DetectionCache
	Store    storage.Backend
	Influx   *influx.Manager // optional, may be nil
	Session  *session.Context
	Frames   *cache.SafeCounter // processed frame count, shared with the health monitor

	Logger *slog.Logger
}

// Server accepts WebSocket clients and runs the frame pipeline for
// each of them against the shared dictionary.
type Server struct {
	opts     Options
	logger   *slog.Logger
	upgrader ws.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// New creates a Server. Run must be called to start serving.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Frames == nil {
		opts.Frames = &cache.SafeCounter{}
	}

	s := &Server{
		opts:    opts,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = ws.Upgrader{
		ReadBufferSize:  1 << 16,
		WriteBufferSize: 1 << 16,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin honors the configured CORS allow list. "*" allows all.
func (s *Server) checkOrigin(r *http.Request) bool {
	allowed := s.opts.Server.CORSAllowedOrigins
	if allowed == "" || allowed == "*" {
		return true
	}
	return r.Header.Get("Origin") == allowed
}

// Handler returns the HTTP handler serving the /ws and /healthz
// endpoints.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	return r
}

// Run serves until ctx is cancelled, then drains clients and shuts
// down the listener.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Server.Listen(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Scanner server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.closeClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleWS upgrades the connection and runs the client loops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.opts.Server.Secret != "" && r.URL.Query().Get("secret") != s.opts.Server.Secret {
		s.logger.Warn("Rejected client with bad secret", "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c, err := newClient(s, conn)
	if err != nil {
		s.logger.Error("Failed to set up client", "remote", r.RemoteAddr, "error", err)
		_ = conn.Close()
		return
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("Client connected", "remote", r.RemoteAddr)

	c.sendStatus()
	c.run()

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "remote", r.RemoteAddr)
}

func (s *Server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// reloadDictionary re-reads the marker definitions and swaps in a
// freshly built dictionary. Existing detections keep running against
// the old dictionary until the swap completes.
func (s *Server) reloadDictionary() (int, error) {
	set, err := s.opts.Parser.ParseFile(s.opts.Markers.File)
	if err != nil {
		return 0, err
	}

	dict, err := s.opts.Encoder.Build(set)
	if err != nil {
		return 0, err
	}

	s.opts.Holder.Swap(dict)
	s.opts.Session.SetMarkerCount(len(set))
	s.logger.Info("Dictionary reloaded", "markers", len(set), "file", s.opts.Markers.File)
	return len(set), nil
}

// processingParams builds the parameter block sent to clients.
func (s *Server) processingParams() streaming.ProcessingParams {
	return streaming.ProcessingParams{
		ProcessEveryMs:       s.opts.Processing.ProcessEveryMs,
		FrameQuality:         s.opts.Processing.FrameQuality,
		MaxWidth:             s.opts.Processing.MaxWidth,
		MaxHeight:            s.opts.Processing.MaxHeight,
		MarkerTimeoutSeconds: s.opts.Processing.MarkerTimeoutSeconds,
	}
}
