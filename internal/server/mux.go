// internal/server/mux.go
// Package server implements the HTTP handlers and routing for the retrieval
// service. It exposes the image-and-inference retrieval endpoint alongside
// health and metrics endpoints, with request logging, correlation IDs, and
// CORS handling.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	errordefs "github.com/EdgeVision/edgevision-retrieval-go/internal/errors"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/metrics"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/model"
)

// ContextKey is used for context values to avoid collisions when storing
// values in request context.
type ContextKey string

const (
	// ContextKeyCorrelationID stores the unique ID for request tracking.
	ContextKeyCorrelationID ContextKey = "correlationId"
)

// Retriever is the pipeline capability the HTTP layer fronts.
type Retriever interface {
	Retrieve(ctx context.Context, deviceID, imagePath string, maxImages int) ([]model.OutputRecord, error)
}

// Mux handles HTTP requests for the retrieval service.
type Mux struct {
	mux     *http.ServeMux
	svc     Retriever
	metrics *metrics.Metrics

	// Request defaults
	defaultImageCount int

	// CORS configuration
	corsAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// NewMux creates a new HTTP mux with all retrieval endpoints.
func NewMux(svc Retriever, defaultImageCount int, corsAllowedOrigins []string) *http.ServeMux {
	m := &Mux{
		mux:                http.NewServeMux(),
		svc:                svc,
		metrics:            metrics.NewMetrics(),
		defaultImageCount:  defaultImageCount,
		corsAllowedOrigins: corsAllowedOrigins,
	}

	// Register health endpoints
	m.mux.HandleFunc("/healthz", m.handleHealthz)
	m.mux.HandleFunc("/readyz", m.handleReadyz)
	m.mux.Handle("/metrics", promhttp.Handler())

	// Register retrieval endpoints
	m.mux.HandleFunc("/v1/retrieval/images", m.method(http.MethodGet, m.withMiddleware(m.handleRetrieveImages)))

	return m.mux
}

// method ensures the HTTP method matches the expected method.
func (m *Mux) method(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			h(w, r)
			return
		}
		if r.Method != method {
			m.writeErrorDef(w, errordefs.New(errordefs.RTV_METHOD_NOT_ALLOWED, "method not allowed", ""))
			return
		}
		h(w, r)
	}
}

// withMiddleware applies common middleware to handlers: CORS, correlation
// IDs, request logging, and HTTP metrics.
func (m *Mux) withMiddleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Handle CORS preflight requests
		if r.Method == http.MethodOptions {
			if m.setCORSHeaders(w, r) {
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-Id")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		m.setCORSHeaders(w, r)

		// Add correlation ID if not present
		correlationID := r.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		r = r.WithContext(context.WithValue(r.Context(), ContextKeyCorrelationID, correlationID))
		w.Header().Set("X-Correlation-Id", correlationID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)

		duration := time.Since(start)
		m.metrics.HTTPRequestTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
		m.metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Observe(duration.Seconds())
		m.logRequest(r, sw.status, duration, correlationID)
	}
}

// setCORSHeaders sets the allow-origin header when the request origin is
// allowed, reporting whether it was.
func (m *Mux) setCORSHeaders(w http.ResponseWriter, r *http.Request) bool {
	if len(m.corsAllowedOrigins) == 0 {
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	for _, allowed := range m.corsAllowedOrigins {
		if allowed == "*" || allowed == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			return true
		}
	}
	return false
}

// statusWriter captures the response status for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status code before delegating.
func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// writeJSON writes a JSON response body with the given status.
func (m *Mux) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeErrorDef writes an error response as {"message": ...}, the error
// surface callers of the retrieval endpoint consume.
func (m *Mux) writeErrorDef(w http.ResponseWriter, err *errordefs.Error) {
	m.writeJSON(w, err.HTTPStatus, map[string]string{"message": err.Message})
}

// logRequest logs request details.
func (m *Mux) logRequest(r *http.Request, status int, duration time.Duration, correlationID string) {
	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("user_agent", r.UserAgent()),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("correlation_id", correlationID),
	}

	if status >= http.StatusInternalServerError {
		slog.LogAttrs(r.Context(), slog.LevelError, "request completed with error", attrs...)
	} else {
		slog.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
	}
}

// handleHealthz handles liveness health check requests.
func (m *Mux) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz handles readiness health check requests. The service is ready
// when its pipeline is wired; the console itself is checked per request, not
// here, since a console outage must surface as a request failure rather than
// take the service out of rotation.
func (m *Mux) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if m.svc == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleRetrieveImages handles GET /v1/retrieval/images. It validates the
// query parameters, supplies defaults, runs the retrieval pipeline, and maps
// its outcome: 200 with the full record list, or 500 with the pipeline's
// failure message.
func (m *Mux) handleRetrieveImages(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("retrieval-service").Start(r.Context(), "handleRetrieveImages")
	defer span.End()

	correlationID, _ := ctx.Value(ContextKeyCorrelationID).(string)

	q := r.URL.Query()
	deviceID := q.Get("deviceId")
	if deviceID == "" {
		span.SetStatus(codes.Error, "missing deviceId")
		m.writeErrorDef(w, errordefs.New(errordefs.RTV_BAD_REQUEST, "deviceId is required", correlationID))
		return
	}

	imagePath := q.Get("imagePath")

	maxImages := m.defaultImageCount
	if v := q.Get("numberOfImages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			span.SetStatus(codes.Error, "invalid numberOfImages")
			m.writeErrorDef(w, errordefs.New(errordefs.RTV_BAD_REQUEST, "numberOfImages must be a positive integer", correlationID))
			return
		}
		maxImages = n
	}

	span.SetAttributes(
		attribute.String("device_id", deviceID),
		attribute.String("image_path", imagePath),
		attribute.Int("max_images", maxImages),
	)

	records, err := m.svc.Retrieve(ctx, deviceID, imagePath, maxImages)
	if err != nil {
		span.SetStatus(codes.Error, "retrieval failed")
		var e *errordefs.Error
		if errors.As(err, &e) {
			e.CorrelationID = correlationID
			m.writeErrorDef(w, e)
		} else {
			m.writeErrorDef(w, errordefs.New(errordefs.RTV_INTERNAL, err.Error(), correlationID))
		}
		return
	}

	m.writeJSON(w, http.StatusOK, records)
}
