// internal/console/client.go
// Package console provides a client for the device management console REST
// API. It covers the two read-only capabilities the retrieval pipeline
// drives: listing uploaded device images within a time window, and looking
// up the inference result recorded for an exact capture timestamp.
// Authentication against the console is handled entirely inside this client;
// the pipeline never sees it.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/metrics"
)

// Client for the device management console.
type Client struct {
	base    string           // Base URL of the console API
	hc      *http.Client     // HTTP client with custom configuration
	tokens  *tokenSource     // Nil when the console does not require auth
	metrics *metrics.Metrics // Counters for console call outcomes
}

// Options configures a console client.
type Options struct {
	BaseURL      string // Console API base URL (required)
	TokenURL     string // OAuth2 token endpoint; empty disables auth
	ClientID     string
	ClientSecret string
}

// DeviceImage is one entry of the console's image-listing response. Name is
// the stored filename (17-digit timestamp stem plus extension) and Contents
// is the base64-encoded image bytes.
type DeviceImage struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
}

// ImageList is the console's image-listing response envelope.
type ImageList struct {
	TotalImageCount int           `json:"total_image_count"`
	Images          []DeviceImage `json:"images"`
}

// InferenceEntry is one tensor output nested in an inference result. T is the
// capture timestamp, O the base64-encoded binary detection payload.
type InferenceEntry struct {
	T string `json:"T"`
	O string `json:"O"`
}

// InferencePayload is the device-produced envelope nested in a result entry.
type InferencePayload struct {
	DeviceID   string           `json:"DeviceID"`
	ModelID    string           `json:"ModelID"`
	Inferences []InferenceEntry `json:"Inferences"`
}

// InferenceResult is one entry of the console's inference-result response.
type InferenceResult struct {
	ID              string           `json:"id"`
	DeviceID        string           `json:"device_id"`
	ModelID         string           `json:"model_id"`
	InferenceResult InferencePayload `json:"inference_result"`
}

// APIError is a non-success response from the console, carrying the
// console-supplied message when the body had the structured {"message"} form.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("console returned status %d: %s", e.StatusCode, e.Message)
}

// ListImagesParams are the query parameters of the image-listing operation.
type ListImagesParams struct {
	DeviceID       string
	SubDirectory   string // Storage sub-directory (17-digit timestamp name)
	NumberOfImages int
	Skip           int
	OrderBy        string // "ASC" or "DESC" by capture time
	FromDatetime   string // Minute-granularity window bound (yyyyMMddHHmm)
	ToDatetime     string
}

// InferenceParams are the query parameters of the inference-result lookup.
type InferenceParams struct {
	DeviceID        string
	Filter          string
	NumberOfResults int
	Raw             int    // 1 requests the raw (undeserialized) payload
	Time            string // Exact capture timestamp (yyyyMMddHHmmssfff)
}

// New creates a console client. It fails when the base URL is missing, which
// callers surface as a configuration error. Connection and request timeouts
// are tuned for the console's response characteristics; image listings with
// inline contents can be large.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("console base URL is required")
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
	}
	c := &Client{
		base:    opts.BaseURL,
		hc:      &http.Client{Transport: transport, Timeout: 60 * time.Second},
		metrics: metrics.NewMetrics(),
	}
	if opts.TokenURL != "" {
		c.tokens = newTokenSource(opts.TokenURL, opts.ClientID, opts.ClientSecret)
	}
	return c, nil
}

// ListImages lists up to NumberOfImages images for a device within the given
// window, in the requested capture-time order.
func (c *Client) ListImages(ctx context.Context, p ListImagesParams) (ImageList, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return ImageList{}, fmt.Errorf("invalid console base URL: %w", err)
	}
	u.Path += fmt.Sprintf("/devices/%s/images/directories/%s", url.PathEscape(p.DeviceID), url.PathEscape(p.SubDirectory))
	q := u.Query()
	q.Set("order_by", p.OrderBy)
	q.Set("number_of_images", strconv.Itoa(p.NumberOfImages))
	q.Set("skip", strconv.Itoa(p.Skip))
	q.Set("from_datetime", p.FromDatetime)
	q.Set("to_datetime", p.ToDatetime)
	u.RawQuery = q.Encode()

	var list ImageList
	if err := c.get(ctx, "list_images", u.String(), &list); err != nil {
		return ImageList{}, err
	}
	return list, nil
}

// GetInferenceResults looks up inference results for a device. The retrieval
// pipeline always asks for exactly one result at an exact capture timestamp,
// but the operation exposes the console's full parameter set.
func (c *Client) GetInferenceResults(ctx context.Context, p InferenceParams) ([]InferenceResult, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return nil, fmt.Errorf("invalid console base URL: %w", err)
	}
	u.Path += fmt.Sprintf("/devices/%s/inferenceresults", url.PathEscape(p.DeviceID))
	q := u.Query()
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	q.Set("number_of_inference_results", strconv.Itoa(p.NumberOfResults))
	q.Set("raw", strconv.Itoa(p.Raw))
	q.Set("time", p.Time)
	u.RawQuery = q.Encode()

	var results []InferenceResult
	if err := c.get(ctx, "get_inference_results", u.String(), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// get executes an authenticated GET and decodes a 2xx JSON body into out.
// Non-2xx responses become an *APIError carrying the console's message.
func (c *Client) get(ctx context.Context, operation, rawURL string, out interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.ConsoleRequestTotal.WithLabelValues(operation, status).Inc()
		c.metrics.ConsoleRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("console auth failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
			apiErr.Message = body.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode console %s response: %w", operation, err)
	}
	status = "ok"
	return nil
}
