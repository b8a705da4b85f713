package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghpascon/healthmonitor/internal/ingress"
	"github.com/ghpascon/healthmonitor/internal/verifier"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// maxIngressBodySize caps the payload accepted by POST /data.
	maxIngressBodySize = 1 << 20

	// DefaultDisplayCount is how many received records are shown when the
	// caller does not ask for a specific number.
	DefaultDisplayCount = 5

	defaultTitle     = "Health Monitor"
	titlePlaceholder = "{{.Title}}"
)

// Verifier is the subset of *verifier.Verifier the server exposes.
type Verifier interface {
	Start() <-chan struct{}
	Stop()
	Stats() verifier.Stats
	PeerURL() string
	Interval() time.Duration
}

// Server handles HTTP requests for the monitor.
//
// Routes:
//   - GET /: embedded status page
//   - GET /health: liveness plus a summary of verifier statistics
//   - GET /api/stats: full verifier statistics with success rate
//   - GET /api/received: the most recent ingress records (?limit=N)
//   - POST /data: ingress push from the data producer
//   - POST /api/verifier/start, POST /api/verifier/stop: manual control
//   - GET /api/sse: Server-Sent Events stream of new ingress records
//   - GET /metrics: Prometheus exposition (when a gatherer is configured)
type Server struct {
	verifier   Verifier
	ingress    ingress.Store
	gatherer   prometheus.Gatherer
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// assets and gatherer may be nil, in which case the status page and the
// /metrics route are not served. The server is not started until
// [Server.Start] is called.
func NewServer(v Verifier, st ingress.Store, gatherer prometheus.Gatherer, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if title == "" {
		title = defaultTitle
	}
	return &Server{
		verifier: v,
		ingress:  st,
		gatherer: gatherer,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
	}
}

// Handler returns the request router. It is exposed for tests and for
// embedding the routes into another server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/data", s.handleData)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/received", s.handleReceived)
	mux.HandleFunc("/api/verifier/start", s.handleVerifierStart)
	mux.HandleFunc("/api/verifier/stop", s.handleVerifierStop)
	mux.HandleFunc("/api/sse", s.handleSSE)

	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. The server
// runs until ctx is cancelled, then shuts down gracefully with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

type healthStats struct {
	TotalCalls      uint64     `json:"total_calls"`
	SuccessfulCalls uint64     `json:"successful_calls"`
	ErrorCalls      uint64     `json:"errors"`
	LastCalledAt    *time.Time `json:"last_called"`
}

type healthResponse struct {
	Status         string      `json:"status"`
	Service        string      `json:"service"`
	Port           int         `json:"port"`
	VerifierActive bool        `json:"verifier_active"`
	VerifierStats  healthStats `json:"verifier_stats"`
}

type statsResponse struct {
	verifier.Stats
	SuccessRate         float64 `json:"success_rate"`
	TargetURL           string  `json:"target_url"`
	CallIntervalSeconds float64 `json:"call_interval_seconds"`
}

type ackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.verifier.Stats()
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:         "healthy",
		Service:        s.title,
		Port:           s.port,
		VerifierActive: stats.Running,
		VerifierStats: healthStats{
			TotalCalls:      stats.TotalCalls,
			SuccessfulCalls: stats.SuccessfulCalls,
			ErrorCalls:      stats.ErrorCalls,
			LastCalledAt:    stats.LastCalledAt,
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.verifier.Stats()
	s.writeJSON(w, http.StatusOK, statsResponse{
		Stats:               stats,
		SuccessRate:         stats.SuccessRate(),
		TargetURL:           s.verifier.PeerURL(),
		CallIntervalSeconds: s.verifier.Interval().Seconds(),
	})
}

func (s *Server) handleReceived(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := DefaultDisplayCount
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.writeJSON(w, http.StatusOK, s.ingress.Recent(limit))
}

// handleData accepts any JSON object from the data producer.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngressBodySize))
	if err != nil {
		http.Error(w, "request body too large or unreadable", http.StatusBadRequest)
		return
	}

	// any object is accepted; field order is preserved
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		http.Error(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}
	var payload bytes.Buffer
	if err := json.Compact(&payload, body); err != nil {
		http.Error(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}

	rec := s.ingress.Push(payload.Bytes())
	s.logger.Info("data received", "record_id", rec.ID, "bytes", payload.Len())

	s.writeJSON(w, http.StatusOK, ackResponse{Status: "success", Message: "Data received successfully"})
}

func (s *Server) handleVerifierStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.verifier.Start()
	s.writeJSON(w, http.StatusOK, ackResponse{Status: "running", Message: "Verifier started"})
}

func (s *Server) handleVerifierStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.verifier.Stop()
	s.writeJSON(w, http.StatusOK, ackResponse{Status: "stopped", Message: "Verifier stopped"})
}

// handleDashboard serves the status page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// escape to prevent XSS through the configured title
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(s.title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSSE streams ingress records via Server-Sent Events, starting with
// the records currently on display.
//
// Writes use deadlines so a slow or vanished client cannot pin the handler
// goroutine past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.ingress.Subscribe()
	defer s.ingress.Unsubscribe(ch)

	for _, rec := range s.ingress.Recent(DefaultDisplayCount) {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case rec, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(rec)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
