// Package inference provides tests for the binary payload decoder.
package inference

import (
	"reflect"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/smartcamera"
)

// buildPayload serializes a detection list into the binary payload format,
// using the generated builder side of the schema.
func buildPayload(t *testing.T, detections []Detection) []byte {
	t.Helper()
	b := flatbuffers.NewBuilder(256)

	offsets := make([]flatbuffers.UOffsetT, 0, len(detections))
	for _, d := range detections {
		smartcamera.BoundingBox2dStart(b)
		smartcamera.BoundingBox2dAddLeft(b, d.Left)
		smartcamera.BoundingBox2dAddTop(b, d.Top)
		smartcamera.BoundingBox2dAddRight(b, d.Right)
		smartcamera.BoundingBox2dAddBottom(b, d.Bottom)
		box := smartcamera.BoundingBox2dEnd(b)

		smartcamera.GeneralObjectStart(b)
		smartcamera.GeneralObjectAddClassId(b, d.ClassID)
		smartcamera.GeneralObjectAddBoundingBoxType(b, smartcamera.BoundingBoxBoundingBox2d)
		smartcamera.GeneralObjectAddBoundingBox(b, box)
		smartcamera.GeneralObjectAddScore(b, d.Score)
		offsets = append(offsets, smartcamera.GeneralObjectEnd(b))
	}

	smartcamera.ObjectDetectionDataStartObjectDetectionListVector(b, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offsets[i])
	}
	vec := b.EndVector(len(offsets))

	smartcamera.ObjectDetectionDataStart(b)
	smartcamera.ObjectDetectionDataAddObjectDetectionList(b, vec)
	data := smartcamera.ObjectDetectionDataEnd(b)

	smartcamera.ObjectDetectionTopStart(b)
	smartcamera.ObjectDetectionTopAddPerception(b, data)
	b.Finish(smartcamera.ObjectDetectionTopEnd(b))

	return b.FinishedBytes()
}

// TestDecodeSingleDetection tests decoding a payload carrying one detection.
func TestDecodeSingleDetection(t *testing.T) {
	want := []Detection{
		{ClassID: 18, Score: 0.87, Left: 104, Top: 32, Right: 297, Bottom: 221},
	}
	got, err := Decode(buildPayload(t, want))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

// TestDecodePreservesOrder tests that multi-detection payloads decode into
// the same order the producer wrote them.
func TestDecodePreservesOrder(t *testing.T) {
	want := []Detection{
		{ClassID: 2, Score: 0.91, Left: 10, Top: 20, Right: 110, Bottom: 120},
		{ClassID: 0, Score: 0.44, Left: 300, Top: 40, Right: 360, Bottom: 95},
		{ClassID: 7, Score: 0.63, Left: 55, Top: 210, Right: 180, Bottom: 310},
	}
	got, err := Decode(buildPayload(t, want))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

// TestDecodeZeroDetections tests that a well-formed payload with an empty
// detection list decodes to an empty slice without error. This is distinct
// from a missing payload, which the orchestrator rejects before decoding.
func TestDecodeZeroDetections(t *testing.T) {
	got, err := Decode(buildPayload(t, nil))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Decode() = %v, want empty non-nil slice", got)
	}
}

// TestDecodeDeterministic tests that decoding the same bytes twice yields
// identical detection sequences.
func TestDecodeDeterministic(t *testing.T) {
	buf := buildPayload(t, []Detection{
		{ClassID: 18, Score: 0.87, Left: 104, Top: 32, Right: 297, Bottom: 221},
		{ClassID: 3, Score: 0.12, Left: 1, Top: 2, Right: 3, Bottom: 4},
	})
	first, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() second call error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Decode() not deterministic: %+v vs %+v", first, second)
	}
}

// TestDecodeRejectsTruncated tests that truncated prefixes of a valid buffer
// fail rather than decoding to a shorter-but-valid sequence.
func TestDecodeRejectsTruncated(t *testing.T) {
	buf := buildPayload(t, []Detection{
		{ClassID: 18, Score: 0.87, Left: 104, Top: 32, Right: 297, Bottom: 221},
	})
	for _, n := range []int{0, 1, 3, 4, 8, len(buf) / 2} {
		if _, err := Decode(buf[:n]); err == nil {
			t.Errorf("Decode() of %d-byte truncated prefix expected error, got nil", n)
		}
	}
}

// TestDecodeRejectsGarbage tests that arbitrary bytes fail to decode.
func TestDecodeRejectsGarbage(t *testing.T) {
	garbage := []byte{0xff, 0xff, 0xff, 0xff, 0x01, 0x02, 0x03, 0x04}
	if _, err := Decode(garbage); err == nil {
		t.Error("Decode() of garbage bytes expected error, got nil")
	}
}
