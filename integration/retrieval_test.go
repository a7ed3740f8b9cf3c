// integration/retrieval_test.go
// Package integration provides integration tests exercising the full
// retrieval path: HTTP mux, pipeline, console client, and payload decoder
// against a fake management console.
package integration

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/console"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/inference"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/model"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/retrieval"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/server"
	"github.com/EdgeVision/edgevision-retrieval-go/internal/smartcamera"
)

// recordingPublisher implements event.Publisher for integration testing.
type recordingPublisher struct {
	batches []model.RetrievalBatch
}

// PublishRetrievalCompleted implements event.Publisher for integration testing.
func (p *recordingPublisher) PublishRetrievalCompleted(ctx context.Context, batch model.RetrievalBatch) error {
	p.batches = append(p.batches, batch)
	return nil
}

// Close implements event.Publisher for integration testing.
func (p *recordingPublisher) Close() error {
	return nil
}

// detectionPayload serializes one detection into the binary payload format
// and returns it base64-encoded, the way the console stores it.
func detectionPayload(t *testing.T, classID uint32, score float32) string {
	t.Helper()
	b := flatbuffers.NewBuilder(256)

	smartcamera.BoundingBox2dStart(b)
	smartcamera.BoundingBox2dAddLeft(b, 104)
	smartcamera.BoundingBox2dAddTop(b, 32)
	smartcamera.BoundingBox2dAddRight(b, 297)
	smartcamera.BoundingBox2dAddBottom(b, 221)
	box := smartcamera.BoundingBox2dEnd(b)

	smartcamera.GeneralObjectStart(b)
	smartcamera.GeneralObjectAddClassId(b, classID)
	smartcamera.GeneralObjectAddBoundingBoxType(b, smartcamera.BoundingBoxBoundingBox2d)
	smartcamera.GeneralObjectAddBoundingBox(b, box)
	smartcamera.GeneralObjectAddScore(b, score)
	obj := smartcamera.GeneralObjectEnd(b)

	smartcamera.ObjectDetectionDataStartObjectDetectionListVector(b, 1)
	b.PrependUOffsetT(obj)
	vec := b.EndVector(1)

	smartcamera.ObjectDetectionDataStart(b)
	smartcamera.ObjectDetectionDataAddObjectDetectionList(b, vec)
	data := smartcamera.ObjectDetectionDataEnd(b)

	smartcamera.ObjectDetectionTopStart(b)
	smartcamera.ObjectDetectionTopAddPerception(b, data)
	b.Finish(smartcamera.ObjectDetectionTopEnd(b))

	return base64.StdEncoding.EncodeToString(b.FinishedBytes())
}

// fakeConsole stands up an httptest server implementing the two console
// endpoints the pipeline drives. Inference payloads are served per capture
// timestamp; requested timestamps are recorded in order.
type fakeConsole struct {
	images     []console.DeviceImage
	payloads   map[string]string // capture timestamp -> base64 payload
	failTimes  map[string]bool   // capture timestamps that return a 500
	inferTimes []string
}

func (f *fakeConsole) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/images/directories/"):
			q := r.URL.Query()
			if q.Get("order_by") != "DESC" || q.Get("skip") != "0" {
				t.Errorf("unexpected listing query: %v", q)
			}
			_ = json.NewEncoder(w).Encode(console.ImageList{
				TotalImageCount: len(f.images),
				Images:          f.images,
			})
		case strings.HasSuffix(r.URL.Path, "/inferenceresults"):
			ts := r.URL.Query().Get("time")
			f.inferTimes = append(f.inferTimes, ts)
			if f.failTimes[ts] {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "internal console failure"})
				return
			}
			_ = json.NewEncoder(w).Encode([]console.InferenceResult{
				{
					DeviceID: "device-1",
					InferenceResult: console.InferencePayload{
						DeviceID:   "device-1",
						Inferences: []console.InferenceEntry{{T: ts, O: f.payloads[ts]}},
					},
				},
			})
		default:
			t.Errorf("unexpected console request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// newRetrievalServer wires a real console client and pipeline over a fake
// console into a test HTTP server.
func newRetrievalServer(t *testing.T, f *fakeConsole) (*httptest.Server, *recordingPublisher) {
	t.Helper()
	consoleSrv := httptest.NewServer(f.handler(t))
	t.Cleanup(consoleSrv.Close)

	client, err := console.New(console.Options{BaseURL: consoleSrv.URL})
	if err != nil {
		t.Fatalf("console.New() error = %v", err)
	}

	pub := &recordingPublisher{}
	mux := server.NewMux(retrieval.New(client, pub), 5, nil)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, pub
}

// TestRetrievalEndToEnd tests the full path for a directory holding two
// images with recorded detections.
func TestRetrievalEndToEnd(t *testing.T) {
	f := &fakeConsole{
		images: []console.DeviceImage{
			{Name: "20230126053344873.jpg", Contents: "aW1nMQ=="},
			{Name: "20230126052344873.jpg", Contents: "aW1nMg=="},
		},
		payloads: map[string]string{
			"20230126053344873": detectionPayload(t, 18, 0.87),
			"20230126052344873": detectionPayload(t, 2, 0.41),
		},
	}
	srv, pub := newRetrievalServer(t, f)

	resp, err := http.Get(srv.URL + "/v1/retrieval/images?deviceId=device-1&imagePath=20230126050000000&numberOfImages=2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var records []model.OutputRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Timestamp != "20230126053344873" || records[1].Timestamp != "20230126052344873" {
		t.Errorf("records out of order: %q, %q", records[0].Timestamp, records[1].Timestamp)
	}
	if records[0].Image != "data:image/jpg;base64,aW1nMQ==" {
		t.Errorf("image = %q", records[0].Image)
	}

	var detections []inference.Detection
	if err := json.Unmarshal([]byte(records[0].InferenceData), &detections); err != nil {
		t.Fatalf("inference data is not JSON: %v", err)
	}
	if len(detections) != 1 || detections[0].ClassID != 18 || detections[0].Left != 104 {
		t.Errorf("detections = %+v", detections)
	}

	if want := []string{"20230126053344873", "20230126052344873"}; !reflect.DeepEqual(f.inferTimes, want) {
		t.Errorf("inference lookups = %v, want %v in order", f.inferTimes, want)
	}
	if len(pub.batches) != 1 || pub.batches[0].ImageCount != 2 || pub.batches[0].DeviceID != "device-1" {
		t.Errorf("published batches = %+v", pub.batches)
	}
}

// TestRetrievalEndToEndRemoteFailure tests that a console failure mid-batch
// aborts the request and surfaces the console's message.
func TestRetrievalEndToEndRemoteFailure(t *testing.T) {
	f := &fakeConsole{
		images: []console.DeviceImage{
			{Name: "20230126053344873.jpg", Contents: "aW1nMQ=="},
			{Name: "20230126052344873.jpg", Contents: "aW1nMg=="},
		},
		payloads: map[string]string{
			"20230126053344873": detectionPayload(t, 18, 0.87),
		},
		failTimes: map[string]bool{"20230126052344873": true},
	}
	srv, pub := newRetrievalServer(t, f)

	resp, err := http.Get(srv.URL + "/v1/retrieval/images?deviceId=device-1&imagePath=20230126050000000&numberOfImages=2")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body.Message != "internal console failure" {
		t.Errorf("message = %q, want console-supplied message", body.Message)
	}
	if len(pub.batches) != 0 {
		t.Errorf("published %d batches for a failed retrieval, want 0", len(pub.batches))
	}
}

// TestRetrievalEndToEndMissingInference tests that an image without a
// recorded inference result fails the whole batch.
func TestRetrievalEndToEndMissingInference(t *testing.T) {
	f := &fakeConsole{
		images: []console.DeviceImage{
			{Name: "20230126053344873.jpg", Contents: "aW1nMQ=="},
		},
		payloads: map[string]string{}, // no payload for the timestamp
	}
	srv, _ := newRetrievalServer(t, f)

	resp, err := http.Get(srv.URL + "/v1/retrieval/images?deviceId=device-1&imagePath=20230126050000000")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if !strings.Contains(body.Message, "no inference data recorded") {
		t.Errorf("message = %q", body.Message)
	}
}
