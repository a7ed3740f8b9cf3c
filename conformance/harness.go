// Package conformance provides a test harness for verifying retrieval service compliance.
package conformance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/console"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/event"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/model"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/retrieval"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/server"
)

// Harness provides a test harness for retrieval service conformance testing.
type Harness struct {
	server  *httptest.Server
	console *httptest.Server
	pub     event.Publisher
}

// Config holds configuration for the conformance test harness.
type Config struct {
	// UseNATS determines whether to use NATS or a no-op event publisher
	UseNATS bool

	// DefaultImageCount is the image count used when the caller omits it
	DefaultImageCount int

	// CORSAllowedOrigins configures the allowed CORS origins
	CORSAllowedOrigins []string
}

// NewHarness creates a new conformance test harness. The service runs against
// a stub console that serves empty image listings, enough to verify the HTTP
// contract without device data.
func NewHarness(cfg Config) (*Harness, error) {
	// Stub console: every directory listing is empty
	consoleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/images/directories/") {
			_ = json.NewEncoder(w).Encode(console.ImageList{})
			return
		}
		_ = json.NewEncoder(w).Encode([]console.InferenceResult{})
	}))

	client, err := console.New(console.Options{BaseURL: consoleSrv.URL})
	if err != nil {
		consoleSrv.Close()
		return nil, err
	}

	// Initialize event publisher
	var pub event.Publisher
	if cfg.UseNATS {
		// In a real implementation, we would connect to a test NATS server
		pub = &noopPublisher{}
	} else {
		pub = &noopPublisher{}
	}

	if cfg.DefaultImageCount <= 0 {
		cfg.DefaultImageCount = 5
	}

	// Create HTTP mux with the full pipeline wired in
	mux := server.NewMux(retrieval.New(client, pub), cfg.DefaultImageCount, cfg.CORSAllowedOrigins)

	return &Harness{
		server:  httptest.NewServer(mux),
		console: consoleSrv,
		pub:     pub,
	}, nil
}

// URL returns the base URL of the test server.
func (h *Harness) URL() string {
	return h.server.URL
}

// Close shuts down the test servers and cleans up resources.
func (h *Harness) Close() {
	h.server.Close()
	h.console.Close()
	h.pub.Close()
}

// RunConformanceTests runs all conformance tests against the retrieval service.
func (h *Harness) RunConformanceTests(t *testing.T) {
	t.Run("HealthEndpoints", h.testHealthEndpoints)
	t.Run("ParameterValidation", h.testParameterValidation)
	t.Run("MethodRestriction", h.testMethodRestriction)
	t.Run("EmptyDirectory", h.testEmptyDirectory)
	t.Run("ErrorSurface", h.testErrorSurface)
}

// noopPublisher is a no-op implementation of event.Publisher for testing.
type noopPublisher struct{}

func (n *noopPublisher) PublishRetrievalCompleted(ctx context.Context, batch model.RetrievalBatch) error {
	return nil
}

func (n *noopPublisher) Close() error {
	return nil
}

// testHealthEndpoints tests the health check endpoints.
func (h *Harness) testHealthEndpoints(t *testing.T) {
	for _, endpoint := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(h.URL() + endpoint)
		if err != nil {
			t.Fatalf("failed to GET %s: %v", endpoint, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", endpoint, resp.StatusCode)
		}
	}
}

// testParameterValidation tests that invalid query parameters are rejected
// before the pipeline runs.
func (h *Harness) testParameterValidation(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"MissingDeviceID", "/v1/retrieval/images"},
		{"ZeroCount", "/v1/retrieval/images?deviceId=device-1&numberOfImages=0"},
		{"NegativeCount", "/v1/retrieval/images?deviceId=device-1&numberOfImages=-1"},
		{"NonNumericCount", "/v1/retrieval/images?deviceId=device-1&numberOfImages=five"},
	}
	for _, tc := range cases {
		resp, err := http.Get(h.URL() + tc.target)
		if err != nil {
			t.Fatalf("%s: request failed: %v", tc.name, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", tc.name, resp.StatusCode)
		}
	}
}

// testMethodRestriction tests that the retrieval endpoint only accepts GET.
func (h *Harness) testMethodRestriction(t *testing.T) {
	resp, err := http.Post(h.URL()+"/v1/retrieval/images?deviceId=device-1", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405 for POST, got %d", resp.StatusCode)
	}
}

// testEmptyDirectory tests that a window with no uploaded images yields an
// empty JSON array, not an error.
func (h *Harness) testEmptyDirectory(t *testing.T) {
	resp, err := http.Get(h.URL() + "/v1/retrieval/images?deviceId=device-1&imagePath=20230126050000000")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var records []model.OutputRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty record list, got %d records", len(records))
	}
}

// testErrorSurface tests that failures come back as {"message": ...} bodies.
func (h *Harness) testErrorSurface(t *testing.T) {
	resp, err := http.Get(h.URL() + "/v1/retrieval/images?deviceId=device-1&imagePath=not-a-timestamp")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body.Message == "" {
		t.Error("error body missing message")
	}
}
