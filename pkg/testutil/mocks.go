// Package testutil provides shared mock implementations for tests that drive
// the detection pipeline without reaching an external model provider.
package testutil

import (
	"context"
	"sync"

	"github.com/effectlens/effectdetect"
)

// DefaultAnswer is the model output a MockModelClient returns when no
// AnalyzeVideoFunc is configured. It parses as a confident hard cut.
const DefaultAnswer = `{"effect": "hard_cut", "confidence": 0.92, "description": "An instant transition between two shots."}`

// MockModelClient is a mock implementation of effectdetect.ModelClient for
// testing. Configure AnalyzeVideoFunc to script answers; leave it nil for a
// valid default. CallCount and LastRequest are safe to read once in-flight
// requests have settled.
type MockModelClient struct {
	AnalyzeVideoFunc func(ctx context.Context, req effectdetect.ClassificationRequest) (string, error)

	// VariantName is reported by Variant. Empty defaults to "mock-model".
	VariantName string

	mu          sync.Mutex
	CallCount   int
	LastRequest effectdetect.ClassificationRequest
}

func (m *MockModelClient) AnalyzeVideo(ctx context.Context, req effectdetect.ClassificationRequest) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastRequest = req
	m.mu.Unlock()

	if m.AnalyzeVideoFunc != nil {
		return m.AnalyzeVideoFunc(ctx, req)
	}

	return DefaultAnswer, nil
}

func (m *MockModelClient) Variant() string {
	if m.VariantName == "" {
		return "mock-model"
	}
	return m.VariantName
}

// Calls returns the number of AnalyzeVideo invocations recorded so far.
func (m *MockModelClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}
