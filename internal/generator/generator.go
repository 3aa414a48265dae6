// Package generator defines the external Generator collaborator (spec.md
// §6.3) and wraps it with a circuit breaker, since it is the one call in
// the core that crosses a real network boundary to an unreliable remote
// model service.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bacopilot/docorch/internal/catalog"
)

// Artifact is what a successful generation produces.
type Artifact struct {
	ArtifactID  string
	StoragePath string
}

// ProgressFunc is invoked by a Generator implementation while a generation
// is in flight, carrying a 0..100 percent-complete estimate. The Plan
// Executor uses this to emit doc_progress events (spec.md §4.5).
type ProgressFunc func(percent int)

// Generator is the narrow external collaborator interface: given a doc
// type, assembled context paths, and a user message, produce an artifact.
// The LLM, prompt templates, and rendering are all behind this boundary —
// out of scope for this repo per spec.md §1.
type Generator interface {
	Generate(ctx context.Context, docType catalog.DocType, contextPaths []string, message string, onProgress ProgressFunc) (Artifact, error)
}

// CircuitBreaking wraps a Generator with a sony/gobreaker circuit breaker,
// so repeated downstream failures fail fast instead of piling up
// in-flight calls against a struggling model service.
type CircuitBreaking struct {
	inner   Generator
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreaking wraps inner with a circuit breaker. name identifies
// the breaker in metrics/logs; it opens once at least 5 requests in the
// one-minute counting window have a failure ratio of 50% or more.
func NewCircuitBreaking(name string, inner Generator) *CircuitBreaking {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	}
	return &CircuitBreaking{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Generate implements Generator, routing the call through the breaker.
func (c *CircuitBreaking) Generate(ctx context.Context, docType catalog.DocType, contextPaths []string, message string, onProgress ProgressFunc) (Artifact, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Generate(ctx, docType, contextPaths, message, onProgress)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return Artifact{}, fmt.Errorf("generator circuit open for %s: %w", docType, err)
		}
		return Artifact{}, err
	}
	return result.(Artifact), nil
}
