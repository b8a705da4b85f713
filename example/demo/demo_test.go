package demo

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPeer_VerificationSuccess(t *testing.T) {
	peer := &Peer{Name: "mockpeer", Logger: testLogger()}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			var body io.Reader
			if method == http.MethodPost {
				body = strings.NewReader(`{"token":"abc","user_id":"u1"}`)
			}
			rec := httptest.NewRecorder()
			peer.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/verification", body))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp verificationResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !resp.Success || !strings.HasPrefix(resp.RequestID, "req_") || resp.Timestamp.IsZero() {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestPeer_VerificationFailure(t *testing.T) {
	peer := &Peer{Name: "mockpeer", FailureRate: 1, Logger: testLogger()}

	rec := httptest.NewRecorder()
	peer.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verification", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Verification failed") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPeer_Routes(t *testing.T) {
	peer := &Peer{Name: "mockpeer", Logger: testLogger()}
	h := peer.Handler()

	tests := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodDelete, "/verification", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, rec.Code, tt.want)
		}
	}
}

func TestPeer_Delay(t *testing.T) {
	peer := &Peer{MinDelay: 30 * time.Millisecond, MaxDelay: 40 * time.Millisecond, Logger: testLogger()}

	start := time.Now()
	rec := httptest.NewRecorder()
	peer.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verification", nil))
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("request took %v, want at least 30ms", elapsed)
	}
}

func TestNewReading(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		r := NewReading(rng)
		if r.ID < 1000 || r.ID > 9999 {
			t.Fatalf("ID = %d out of range", r.ID)
		}
		if r.Value < 10 || r.Value > 100 {
			t.Fatalf("Value = %v out of range", r.Value)
		}
		wantUnit := "°C"
		if strings.HasSuffix(r.Type, "_usage") {
			wantUnit = "%"
		}
		if r.Unit != wantUnit {
			t.Fatalf("Unit = %q for type %q, want %q", r.Unit, r.Type, wantUnit)
		}
		if !strings.HasPrefix(r.SensorID, "sensor_") {
			t.Fatalf("SensorID = %q", r.SensorID)
		}
	}
}

func TestSender_Send(t *testing.T) {
	var got Reading
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","message":"Data received successfully"}`))
	}))
	defer ts.Close()

	s := NewSender(ts.URL+"/", time.Second, testLogger())
	sent, err := s.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.ID != sent.ID || got.Type != sent.Type {
		t.Errorf("server received %+v, sender reported %+v", got, sent)
	}
}

func TestSender_SendRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	s := NewSender(ts.URL, time.Second, testLogger())
	if _, err := s.Send(context.Background()); err == nil {
		t.Error("Send() expected error for 500 response, got nil")
	}
}

func TestSender_Run(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()

	sent, failed := NewSender(ts.URL, time.Second, testLogger()).Run(ctx, 50*time.Millisecond)
	if sent == 0 || failed == 0 {
		t.Errorf("sent = %d, failed = %d, want both > 0", sent, failed)
	}
	// a send cut off by cancellation reaches the server but is not counted
	if int(hits.Load()) < sent+failed {
		t.Errorf("server saw %d requests, sender counted %d", hits.Load(), sent+failed)
	}
}
