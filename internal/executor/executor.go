// Package executor implements the Plan Executor: the stateful run loop
// that drives a validated Plan's steps through the external Generator,
// gating on a user decision between steps over the Event & Decision
// Channel (spec.md §4.5).
//
// The state machine mirrors the teacher's scheduler.Scheduler
// (internal/scheduler/scheduler.go) in shape — an owning goroutine
// driving a sequence of units of work against a context, logging each
// transition with slog — generalized from "run a job on a ticker" to
// "run a plan's steps against the chosen enforcement mode".
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/channel"
	"github.com/bacopilot/docorch/internal/generator"
	"github.com/bacopilot/docorch/internal/plan"
)

// OnDocFailure governs what happens to the rest of a step once one of its
// DocTypes fails admission or generation.
type OnDocFailure string

const (
	AbortStep    OnDocFailure = "abort-step"
	ContinueStep OnDocFailure = "continue-step"
)

// Policy bundles the enumerated run-time knobs of spec.md §6.4 that
// govern the Executor specifically (the enforcement mode itself is
// passed alongside, since it is shared with Admission and the Validator).
type Policy struct {
	OnDocFailure       OnDocFailure
	GateAfterFinalStep bool
	// DecisionTimeout, if non-zero, bounds how long await_decision waits
	// before auto-resolving to stop.
	DecisionTimeout time.Duration
}

// DefaultPolicy matches spec.md §6.4's defaults.
func DefaultPolicy() Policy {
	return Policy{OnDocFailure: AbortStep, GateAfterFinalStep: false}
}

// RunState describes one run's progress: the current step index, the
// DocTypes generated so far, and whether the run is done. Execute keeps
// this bookkeeping in its own local variables; it neither fills in nor
// returns a RunState.
type RunState struct {
	StepIndex     int
	GeneratedSoFar []catalog.DocType
	Done          bool
}

// Executor drives one plan run at a time end-to-end (spec.md §5's "single
// logical orchestration per plan run").
type Executor struct {
	evaluator *admission.Evaluator
	gen       generator.Generator
	logger    *slog.Logger
	registry  *Registry
}

// New builds an Executor over the given Evaluator and Generator.
func New(eval *admission.Evaluator, gen generator.Generator, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{evaluator: eval, gen: gen, logger: logger}
}

// WithRegistry attaches a Registry so every run this Executor drives is
// tracked and reapable by a ReaperJob. Returns e for chaining.
func (e *Executor) WithRegistry(r *Registry) *Executor {
	e.registry = r
	return e
}

// errInvalidDecision is returned internally to drive the run_failed path;
// it never escapes Execute.
var errInvalidDecision = errors.New("invalid decision")

// Execute runs p to completion (or to stop/cancel/failure), emitting
// events on ch and reading decisions from it between steps, per the
// state machine of spec.md §4.5. The plan must already have been
// validated; Execute does not re-run plan-level validation, only the
// defensive per-doc admission re-check the state machine specifies.
func (e *Executor) Execute(ctx context.Context, p plan.Plan, projectID int64, mode admission.Mode, policy Policy, ch channel.Adapter) error {
	defer ch.Close()

	var touch, untrack = func() {}, func() {}
	if e.registry != nil {
		runCtx, cancel := context.WithCancel(ctx)
		touch, untrack = e.registry.Track(fmt.Sprintf("project-%d-%p", projectID, &p), cancel)
		defer untrack()
		ctx = runCtx
	}

	var generatedSoFar []catalog.DocType
	total := len(p.Steps)

	stepIdx := 0
	for stepIdx < total {
		touch()
		if ctx.Err() != nil {
			return e.cancel(ctx, ch)
		}

		step := p.Steps[stepIdx]
		if err := ch.Send(ctx, channel.Event{Type: channel.EventStepStart, StepIndex: stepIdx, StepTotal: total}); err != nil {
			return e.fail(ctx, ch, fmt.Sprintf("event channel: %v", err))
		}

		produced, stepFailed, err := e.runStep(ctx, ch, step, projectID, mode, policy, &generatedSoFar)
		if err != nil {
			return e.cancel(ctx, ch)
		}
		generatedSoFar = append(generatedSoFar, produced...)

		if stepFailed {
			if err := ch.Send(ctx, channel.Event{Type: channel.EventStepFailed, StepIndex: stepIdx, Summary: "one or more documents in this step failed"}); err != nil {
				return e.fail(ctx, ch, fmt.Sprintf("event channel: %v", err))
			}
		} else {
			if err := ch.Send(ctx, channel.Event{Type: channel.EventStepCompleted, StepIndex: stepIdx}); err != nil {
				return e.fail(ctx, ch, fmt.Sprintf("event channel: %v", err))
			}
		}

		isLastStep := stepIdx == total-1
		if isLastStep && !policy.GateAfterFinalStep {
			break
		}

		advance, err := e.gate(ctx, ch, stepIdx, policy, step, projectID, mode, &generatedSoFar)
		if err != nil {
			if errors.Is(err, errInvalidDecision) {
				return e.failf(ctx, ch, "invalid decision")
			}
			return e.cancel(ctx, ch)
		}
		if advance == 0 {
			// Stop, chosen or by decision timeout: run_stopped has been sent.
			return nil
		}
		stepIdx += advance
	}

	return ch.Send(ctx, channel.Event{Type: channel.EventRunCompleted})
}

// runStep processes every DocType in a step, in declaration order,
// strictly serialized (spec.md §4.5's ordering guarantee). It returns
// the DocTypes that completed successfully and whether any doc in the
// step failed.
func (e *Executor) runStep(ctx context.Context, ch channel.Adapter, step plan.Step, projectID int64, mode admission.Mode, policy Policy, generatedSoFar *[]catalog.DocType) ([]catalog.DocType, bool, error) {
	var produced []catalog.DocType
	stepFailed := false

	for _, doc := range step.Docs {
		if ctx.Err() != nil {
			return produced, stepFailed, ctx.Err()
		}

		if err := ch.Send(ctx, channel.Event{Type: channel.EventDocStart, DocType: string(doc.DocType), DisplayName: e.evaluator.DisplayName(doc.DocType)}); err != nil {
			return produced, stepFailed, err
		}

		verdict, verr := e.evaluator.Evaluate(ctx, doc.DocType, projectID, admission.Options{
			Mode:                mode,
			AdditionalAvailable: *generatedSoFar,
		})
		if verr != nil {
			if isCancellation(ctx, verr) {
				return produced, stepFailed, verr
			}
			stepFailed = true
			_ = ch.Send(ctx, channel.Event{Type: channel.EventDocFailed, DocType: string(doc.DocType), Reason: verr.Error()})
			if policy.OnDocFailure == AbortStep {
				break
			}
			continue
		}
		if !admission.Decide(verdict, false) {
			stepFailed = true
			_ = ch.Send(ctx, channel.Event{Type: channel.EventDocFailed, DocType: string(doc.DocType), Reason: verdict.ErrorMessage})
			if policy.OnDocFailure == AbortStep {
				break
			}
			continue
		}

		art, gerr := e.gen.Generate(ctx, doc.DocType, verdict.ContextPaths, doc.Message, func(pct int) {
			_ = ch.Send(ctx, channel.Event{Type: channel.EventDocProgress, DocType: string(doc.DocType), Percent: pct})
		})
		if gerr != nil {
			if isCancellation(ctx, gerr) {
				return produced, stepFailed, gerr
			}
			stepFailed = true
			_ = ch.Send(ctx, channel.Event{Type: channel.EventDocFailed, DocType: string(doc.DocType), Reason: gerr.Error()})
			if policy.OnDocFailure == AbortStep {
				break
			}
			continue
		}

		produced = append(produced, doc.DocType)
		*generatedSoFar = append(*generatedSoFar, doc.DocType)
		if err := ch.Send(ctx, channel.Event{
			Type: channel.EventDocCompleted, DocType: string(doc.DocType),
			ArtifactID: art.ArtifactID, StoragePath: art.StoragePath,
		}); err != nil {
			return produced, stepFailed, err
		}
	}

	return produced, stepFailed, nil
}

// isCancellation reports whether err from an Evaluate/Generate call
// reflects ctx being cancelled, as opposed to an ordinary
// PrerequisiteMissing/GenerationFailed condition. Per spec.md §7, a
// cancellation must surface as run_cancelled, never as doc_failed —
// runStep's callers treat a non-nil error return as exactly that signal.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// gate implements the between-steps decision wait and its four outcomes.
// It returns how many steps to advance by: 1 on continue, 2 on skip, and
// 0 on stop once run_stopped has been sent. A retry re-runs the doc and
// re-opens the same gate without returning.
func (e *Executor) gate(ctx context.Context, ch channel.Adapter, stepIdx int, policy Policy, justRanStep plan.Step, projectID int64, mode admission.Mode, generatedSoFar *[]catalog.DocType) (int, error) {
	for {
		if err := ch.Send(ctx, channel.Event{Type: channel.EventAwaitDecision, NextIndex: stepIdx + 1}); err != nil {
			return 0, err
		}

		waitCtx := ctx
		var cancelWait context.CancelFunc
		if policy.DecisionTimeout > 0 {
			waitCtx, cancelWait = context.WithTimeout(ctx, policy.DecisionTimeout)
		}
		decision, err := ch.Await(waitCtx)
		if cancelWait != nil {
			cancelWait()
		}
		if err != nil {
			if policy.DecisionTimeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				// Auto-resolve to stop per spec.md §4.5's decisionTimeout policy.
				decision = channel.Decision{Type: channel.DecisionStop}
			} else {
				return 0, err
			}
		}

		switch decision.Type {
		case channel.DecisionContinue:
			return 1, nil
		case channel.DecisionStop:
			return 0, ch.Send(ctx, channel.Event{Type: channel.EventRunStopped})
		case channel.DecisionSkip:
			return 2, nil
		case channel.DecisionRetry:
			if !retryTargetInStep(justRanStep, decision.DocType) {
				return 0, fmt.Errorf("%w: retry target %q not in most recent step", errInvalidDecision, decision.DocType)
			}
			if err := e.retryDoc(ctx, ch, catalog.DocType(decision.DocType), projectID, mode, generatedSoFar); err != nil {
				return 0, err
			}
			// Loop back and re-open the gate at the same index.
			continue
		default:
			return 0, errInvalidDecision
		}
	}
}

func retryTargetInStep(step plan.Step, docType string) bool {
	for _, d := range step.Docs {
		if string(d.DocType) == docType {
			return true
		}
	}
	return false
}

// retryDoc re-runs a single prior DocType in-place, per spec.md §4.5's
// retry(docType) decision.
func (e *Executor) retryDoc(ctx context.Context, ch channel.Adapter, docType catalog.DocType, projectID int64, mode admission.Mode, generatedSoFar *[]catalog.DocType) error {
	if err := ch.Send(ctx, channel.Event{Type: channel.EventDocStart, DocType: string(docType)}); err != nil {
		return err
	}
	verdict, err := e.evaluator.Evaluate(ctx, docType, projectID, admission.Options{Mode: mode, AdditionalAvailable: *generatedSoFar})
	if err != nil {
		return ch.Send(ctx, channel.Event{Type: channel.EventDocFailed, DocType: string(docType), Reason: err.Error()})
	}
	if !admission.Decide(verdict, false) {
		return ch.Send(ctx, channel.Event{Type: channel.EventDocFailed, DocType: string(docType), Reason: verdict.ErrorMessage})
	}
	art, gerr := e.gen.Generate(ctx, docType, verdict.ContextPaths, "", func(pct int) {
		_ = ch.Send(ctx, channel.Event{Type: channel.EventDocProgress, DocType: string(docType), Percent: pct})
	})
	if gerr != nil {
		return ch.Send(ctx, channel.Event{Type: channel.EventDocFailed, DocType: string(docType), Reason: gerr.Error()})
	}
	*generatedSoFar = append(*generatedSoFar, docType)
	return ch.Send(ctx, channel.Event{Type: channel.EventDocCompleted, DocType: string(docType), ArtifactID: art.ArtifactID, StoragePath: art.StoragePath})
}

func (e *Executor) cancel(ctx context.Context, ch channel.Adapter) error {
	e.logger.Warn("plan run cancelled")
	// The event is best-effort: if the channel itself is what's failing,
	// there is nothing further to report to.
	_ = ch.Send(context.Background(), channel.Event{Type: channel.EventRunCancelled})
	return ctx.Err()
}

func (e *Executor) fail(ctx context.Context, ch channel.Adapter, reason string) error {
	e.logger.Error("plan run failed", "reason", reason)
	_ = ch.Send(context.Background(), channel.Event{Type: channel.EventRunFailed, Reason: reason})
	return fmt.Errorf("plan run failed: %s", reason)
}

func (e *Executor) failf(ctx context.Context, ch channel.Adapter, format string, args ...any) error {
	return e.fail(ctx, ch, fmt.Sprintf(format, args...))
}
