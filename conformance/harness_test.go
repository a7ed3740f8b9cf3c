// Package conformance provides conformance tests for the retrieval service.
package conformance

import (
	"testing"
)

// TestConformance runs the full conformance test suite.
func TestConformance(t *testing.T) {
	// Create harness with default configuration
	cfg := Config{
		UseNATS:           false,
		DefaultImageCount: 5,
	}

	harness, err := NewHarness(cfg)
	if err != nil {
		t.Fatalf("failed to create harness: %v", err)
	}
	defer harness.Close()

	// Run conformance tests
	t.Run("Conformance", func(t *testing.T) {
		harness.RunConformanceTests(t)
	})
}
