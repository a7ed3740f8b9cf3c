// Package model defines the data structures shared across the retrieval
// service: the records returned to API callers and the audit payloads
// published after a completed retrieval.
package model

// OutputRecord pairs one device image with its decoded inference result.
// Image is a data-URI (base64 JPEG), InferenceData is the JSON-serialized
// detection list, and Timestamp is the image's 17-digit filename stem,
// carried through unmodified. Records are returned in the order the console
// listed the images (descending by capture time).
type OutputRecord struct {
	Image         string `json:"image"`
	InferenceData string `json:"inferenceData"`
	Timestamp     string `json:"timestamp"`
}

// RetrievalBatch describes one completed retrieval for audit eventing.
type RetrievalBatch struct {
	DeviceID   string `json:"deviceId"`
	Directory  string `json:"directory"`
	ImageCount int    `json:"imageCount"`
	From       string `json:"from"`
	To         string `json:"to"`
}
