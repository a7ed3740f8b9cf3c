// Package inference decodes the binary object-detection payload produced by
// the device's inference pipeline. The payload is a FlatBuffers-serialized
// ObjectDetectionTop message (see internal/smartcamera); decoding is a pure
// function of the input bytes and is safe to call concurrently for
// independent buffers.
package inference

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/EdgeVision/edgevision-retrieval-go/internal/smartcamera"
)

// Detection is one decoded object-detection result: a 2d bounding box in
// pixel coordinates, the class id assigned by the model, and its confidence
// score. No semantic validation of class or score ranges is performed beyond
// what the binary encoding guarantees structurally.
type Detection struct {
	ClassID uint32  `json:"class_id"`
	Score   float32 `json:"score"`
	Left    int32   `json:"left"`
	Top     int32   `json:"top"`
	Right   int32   `json:"right"`
	Bottom  int32   `json:"bottom"`
}

// Decode parses a binary inference payload into its ordered detection list.
// A well-formed payload with zero detections yields an empty, non-nil slice;
// that is a valid outcome and distinct from a missing payload, which callers
// handle before decoding. Malformed or truncated buffers fail outright,
// never producing partial or default-valued records.
func Decode(buf []byte) (detections []Detection, err error) {
	// The generated accessors index the raw buffer without bounds checks, so
	// a corrupt or truncated payload surfaces as a panic mid-walk. Convert
	// that to a decode error rather than letting it escape.
	defer func() {
		if r := recover(); r != nil {
			detections = nil
			err = fmt.Errorf("malformed inference payload: %v", r)
		}
	}()

	if len(buf) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("inference payload too short: %d bytes", len(buf))
	}
	if root := flatbuffers.GetUOffsetT(buf); int(root) >= len(buf) {
		return nil, fmt.Errorf("inference payload root offset %d out of range", root)
	}

	top := smartcamera.GetRootAsObjectDetectionTop(buf, 0)
	perception := top.Perception(nil)
	if perception == nil {
		return nil, fmt.Errorf("inference payload has no perception data")
	}

	n := perception.ObjectDetectionListLength()
	detections = make([]Detection, 0, n)
	var obj smartcamera.GeneralObject
	var tbl flatbuffers.Table
	var box smartcamera.BoundingBox2d
	for j := 0; j < n; j++ {
		if !perception.ObjectDetectionList(&obj, j) {
			return nil, fmt.Errorf("inference payload detection %d unreadable", j)
		}
		if obj.BoundingBoxType() != smartcamera.BoundingBoxBoundingBox2d || !obj.BoundingBox(&tbl) {
			return nil, fmt.Errorf("inference payload detection %d has no 2d bounding box", j)
		}
		box.Init(tbl.Bytes, tbl.Pos)
		detections = append(detections, Detection{
			ClassID: obj.ClassId(),
			Score:   obj.Score(),
			Left:    box.Left(),
			Top:     box.Top(),
			Right:   box.Right(),
			Bottom:  box.Bottom(),
		})
	}
	return detections, nil
}
