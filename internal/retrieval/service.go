// internal/retrieval/service.go
// Package retrieval implements the image-and-inference retrieval pipeline:
// it resolves a query window from a starting directory timestamp, lists the
// device images uploaded within that window, pairs each image with the
// inference result recorded at its capture timestamp, decodes the binary
// detection payload, and assembles the combined output records.
package retrieval

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/console"
	errordefs "github.com/EdgeVision/edgevision-retrieval-go/internal/errors"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/event"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/inference"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/metrics"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/model"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/timestamp"
)

// imageDataPrefix is prepended to the base64 image contents so callers can
// use the field directly as an image source.
const imageDataPrefix = "data:image/jpg;base64,"

// Console is the remote client capability the pipeline drives.
type Console interface {
	ListImages(ctx context.Context, p console.ListImagesParams) (console.ImageList, error)
	GetInferenceResults(ctx context.Context, p console.InferenceParams) ([]console.InferenceResult, error)
}

// Service orchestrates one retrieval per call. It holds no per-request state,
// so a single Service is safe for concurrent callers.
type Service struct {
	console Console
	pub     event.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a retrieval service on top of a console client and an audit
// event publisher.
func New(c Console, pub event.Publisher) *Service {
	return &Service{
		console: c,
		pub:     pub,
		metrics: metrics.NewMetrics(),
		now:     time.Now,
	}
}

// Retrieve returns up to maxImages images uploaded by the device under the
// imagePath directory, each paired with its decoded detections, newest first.
// The operation is atomic: the first failure aborts the whole batch and no
// partial list is returned. A device with zero images in the window yields an
// empty list and no error.
func (s *Service) Retrieve(ctx context.Context, deviceID, imagePath string, maxImages int) ([]model.OutputRecord, error) {
	ctx, span := otel.Tracer("retrieval-service").Start(ctx, "Retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("device_id", deviceID),
		attribute.String("image_path", imagePath),
		attribute.Int("max_images", maxImages),
	)

	window, err := timestamp.ResolveWindow(imagePath, s.now())
	if err != nil {
		span.SetStatus(codes.Error, "invalid directory name")
		s.metrics.RetrievalTotal.WithLabelValues("error").Inc()
		return nil, errordefs.New(errordefs.RTV_INVALID_DIRECTORY,
			fmt.Sprintf("image directory name %q could not be parsed: %v", imagePath, err), "")
	}

	list, err := s.console.ListImages(ctx, console.ListImagesParams{
		DeviceID:       deviceID,
		SubDirectory:   imagePath,
		NumberOfImages: maxImages,
		Skip:           0,
		OrderBy:        "DESC",
		FromDatetime:   window.From,
		ToDatetime:     window.To,
	})
	if err != nil {
		span.SetStatus(codes.Error, "image listing failed")
		s.metrics.RetrievalTotal.WithLabelValues("error").Inc()
		return nil, remoteError(err)
	}

	records := make([]model.OutputRecord, 0, len(list.Images))
	for _, img := range list.Images {
		// One inference lookup at a time, in listing order. The console
		// throttles bursts, and the pairing below relies on requests never
		// interleaving.
		key := strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
		record, err := s.pairImage(ctx, deviceID, key, img.Contents)
		if err != nil {
			span.SetStatus(codes.Error, "image pairing failed")
			s.metrics.RetrievalTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		records = append(records, record)
	}

	s.metrics.RetrievalTotal.WithLabelValues("ok").Inc()
	s.metrics.RetrievalBatchSize.Observe(float64(len(records)))
	span.SetAttributes(attribute.Int("image_count", len(records)))

	if err := s.pub.PublishRetrievalCompleted(ctx, model.RetrievalBatch{
		DeviceID:   deviceID,
		Directory:  imagePath,
		ImageCount: len(records),
		From:       window.From,
		To:         window.To,
	}); err != nil {
		slog.Warn("failed to publish retrieval event", "device_id", deviceID, "error", err)
	}

	return records, nil
}

// pairImage fetches the single inference result recorded at an image's
// capture timestamp, decodes its binary payload, and assembles the combined
// output record. The timestamp key is carried through unmodified.
func (s *Service) pairImage(ctx context.Context, deviceID, key, contents string) (model.OutputRecord, error) {
	results, err := s.console.GetInferenceResults(ctx, console.InferenceParams{
		DeviceID:        deviceID,
		NumberOfResults: 1,
		Raw:             1,
		Time:            key,
	})
	if err != nil {
		return model.OutputRecord{}, remoteError(err)
	}
	if len(results) == 0 || len(results[0].InferenceResult.Inferences) == 0 ||
		results[0].InferenceResult.Inferences[0].O == "" {
		return model.OutputRecord{}, errordefs.New(errordefs.RTV_MISSING_INFERENCE,
			fmt.Sprintf("no inference data recorded for image %s", key), "")
	}

	payload, err := base64.StdEncoding.DecodeString(results[0].InferenceResult.Inferences[0].O)
	if err != nil {
		s.metrics.PayloadDecodeTotal.WithLabelValues("error").Inc()
		return model.OutputRecord{}, errordefs.New(errordefs.RTV_DECODE,
			fmt.Sprintf("inference payload for image %s is not valid base64: %v", key, err), "")
	}

	start := time.Now()
	detections, err := inference.Decode(payload)
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.PayloadDecodeTotal.WithLabelValues(status).Inc()
	s.metrics.PayloadDecodeDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		return model.OutputRecord{}, errordefs.New(errordefs.RTV_DECODE,
			fmt.Sprintf("failed to decode inference payload for image %s: %v", key, err), "")
	}

	data, err := json.Marshal(detections)
	if err != nil {
		return model.OutputRecord{}, errordefs.New(errordefs.RTV_INTERNAL,
			fmt.Sprintf("failed to serialize detections for image %s: %v", key, err), "")
	}

	return model.OutputRecord{
		Image:         imageDataPrefix + contents,
		InferenceData: string(data),
		Timestamp:     key,
	}, nil
}

// remoteError maps a console client failure to the standard remote error,
// preferring the console-supplied message when the failure carried one.
func remoteError(err error) *errordefs.Error {
	var apiErr *console.APIError
	if errors.As(err, &apiErr) {
		return errordefs.NewWithDetails(errordefs.RTV_REMOTE, apiErr.Message, "", apiErr.StatusCode)
	}
	return errordefs.New(errordefs.RTV_REMOTE, err.Error(), "")
}
