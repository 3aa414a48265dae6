package generator

import (
	"context"

	"github.com/google/uuid"

	"github.com/bacopilot/docorch/internal/catalog"
)

// ScriptedResult is one pre-programmed response for MockGenerator.
type ScriptedResult struct {
	Artifact Artifact
	Err      error
	Progress []int
}

// MockGenerator is a scripted Generator used by executor and API tests —
// it never calls a real model, it plays back a queue of ScriptedResults.
type MockGenerator struct {
	results map[catalog.DocType][]ScriptedResult
	calls   []catalog.DocType
}

// NewMockGenerator builds an empty MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{results: make(map[catalog.DocType][]ScriptedResult)}
}

// Script queues a result to return the next time docType is generated.
func (m *MockGenerator) Script(docType catalog.DocType, result ScriptedResult) {
	m.results[docType] = append(m.results[docType], result)
}

// Calls returns every DocType generated so far, in call order.
func (m *MockGenerator) Calls() []catalog.DocType {
	return m.calls
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, docType catalog.DocType, contextPaths []string, message string, onProgress ProgressFunc) (Artifact, error) {
	m.calls = append(m.calls, docType)

	queue := m.results[docType]
	if len(queue) == 0 {
		return Artifact{ArtifactID: uuid.NewString(), StoragePath: "/generated/" + string(docType)}, nil
	}
	next := queue[0]
	m.results[docType] = queue[1:]

	for _, pct := range next.Progress {
		if onProgress != nil {
			onProgress(pct)
		}
	}
	if next.Err != nil {
		return Artifact{}, next.Err
	}
	if next.Artifact.ArtifactID == "" {
		next.Artifact = Artifact{ArtifactID: uuid.NewString(), StoragePath: "/generated/" + string(docType)}
	}
	return next.Artifact, nil
}
