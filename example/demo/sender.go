package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

var readingTypes = []string{"temperature", "humidity", "pressure", "cpu_usage", "memory_usage"}

// Reading is one random sensor sample.
type Reading struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	SensorID  string    `json:"sensor_id"`
}

// NewReading draws a reading from rng: a value in [10, 100) with two
// decimals, "%" for usage types and "°C" otherwise.
func NewReading(rng *rand.Rand) Reading {
	kind := readingTypes[rng.IntN(len(readingTypes))]
	unit := "°C"
	if strings.HasSuffix(kind, "_usage") {
		unit = "%"
	}
	return Reading{
		ID:        1000 + rng.IntN(9000),
		Type:      kind,
		Value:     math.Round((10+rng.Float64()*90)*100) / 100,
		Unit:      unit,
		Timestamp: time.Now(),
		SensorID:  fmt.Sprintf("sensor_%d", 1+rng.IntN(10)),
	}
}

// Sender posts readings to a monitor's /data endpoint.
type Sender struct {
	url    string
	client *http.Client
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSender creates a Sender targeting baseURL.
func NewSender(baseURL string, timeout time.Duration, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		url:    strings.TrimRight(baseURL, "/") + "/data",
		client: &http.Client{Timeout: timeout},
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		logger: logger,
	}
}

// Send posts one reading and returns it. A non-200 answer is an error.
func (s *Sender) Send(ctx context.Context) (Reading, error) {
	reading := NewReading(s.rng)
	body, err := json.Marshal(reading)
	if err != nil {
		return reading, fmt.Errorf("encode reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return reading, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return reading, fmt.Errorf("post %s: %w", s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return reading, fmt.Errorf("post %s: unexpected status %d", s.url, resp.StatusCode)
	}
	return reading, nil
}

// Run sends a reading immediately and then every interval until ctx is
// cancelled. It returns the number of successful and failed sends.
func (s *Sender) Run(ctx context.Context, interval time.Duration) (sent, failed int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		reading, err := s.Send(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return sent, failed
			}
			failed++
			s.logger.Warn("send failed", "error", err, "sent", sent, "failed", failed)
		} else {
			sent++
			s.logger.Info("reading sent", "type", reading.Type, "value", reading.Value, "sensor_id", reading.SensorID, "sent", sent)
		}

		select {
		case <-ctx.Done():
			return sent, failed
		case <-ticker.C:
		}
	}
}
