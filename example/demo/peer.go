package demo

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Peer simulates the verified service.
//
// Each verification request fails with probability FailureRate and is
// delayed by a random duration in [MinDelay, MaxDelay].
type Peer struct {
	Name        string
	FailureRate float64
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Logger      *slog.Logger
}

type verificationResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

type verificationRequest struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// Handler returns the peer's routes: /, /health and /verification (GET and POST).
func (p *Peer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /verification", p.handleVerification)
	mux.HandleFunc("POST /verification", p.handleVerification)
	mux.HandleFunc("GET /health", p.handleHealth)
	mux.HandleFunc("GET /{$}", p.handleRoot)
	return mux
}

func (p *Peer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Peer) handleVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		var req verificationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "request body must be JSON"})
			return
		}
	}

	p.sleep()

	requestID := "req_" + uuid.NewString()[:8]
	if rand.Float64() < p.FailureRate {
		p.logger().Info("verification failed", "request_id", requestID)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"detail": "Verification failed: Invalid request parameters",
		})
		return
	}

	writeJSON(w, http.StatusOK, verificationResponse{
		Success:   true,
		Message:   "Verification completed successfully",
		Timestamp: time.Now(),
		RequestID: requestID,
	})
}

func (p *Peer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   p.Name,
		"timestamp": time.Now(),
	})
}

func (p *Peer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":   p.Name,
		"endpoints": []string{"/verification", "/health"},
	})
}

func (p *Peer) sleep() {
	if p.MaxDelay <= 0 || p.MaxDelay < p.MinDelay {
		return
	}
	d := p.MinDelay
	if spread := p.MaxDelay - p.MinDelay; spread > 0 {
		d += rand.N(spread)
	}
	time.Sleep(d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
