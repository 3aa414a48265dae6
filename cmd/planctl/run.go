package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/channel"
	"github.com/bacopilot/docorch/internal/executor"
	"github.com/bacopilot/docorch/internal/generator"
	"github.com/bacopilot/docorch/internal/plan"
	"github.com/bacopilot/docorch/internal/project"
)

func newRunCmd() *cobra.Command {
	var auto bool
	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Validate and then execute a plan, prompting for gate decisions on the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := loadPlanFile(args[0])
			if err != nil {
				return err
			}

			store := seedStore(pf)
			insp := project.NewInspector(store, catalog.Default())
			eval := admission.NewEvaluator(catalog.Default(), insp)
			validator := plan.NewValidator(eval)

			p := pf.toPlan()
			mode := admission.Mode(pf.Mode)

			result, err := validator.Validate(cmd.Context(), p, 1, mode)
			if err != nil {
				return fmt.Errorf("validating plan: %w", err)
			}
			if !result.OK {
				for _, f := range result.Failures {
					fmt.Fprintf(cmd.OutOrStdout(), "step %d: %s: %s\n", f.StepIndex, f.DocType, f.ErrorMessage)
				}
				return fmt.Errorf("plan has %d admission failure(s); not running", len(result.Failures))
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			gen := generator.NewCircuitBreaking("planctl", generator.NewMockGenerator())
			exec := executor.New(eval, gen, logger)

			adapter := channel.NewInProcess(16)
			done := make(chan struct{})
			go renderEvents(adapter, cmd.OutOrStdout(), auto, done)

			err = exec.Execute(cmd.Context(), p, 1, mode, pf.toPolicy(), adapter)
			<-done
			return err
		},
	}
	cmd.Flags().BoolVar(&auto, "auto-continue", false, "answer every gate with \"continue\" instead of prompting")
	return cmd
}

// renderEvents drains adapter's event stream to out, prompting on stdin
// for every await_decision gate unless auto is set.
func renderEvents(adapter *channel.InProcess, out io.Writer, auto bool, done chan struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(os.Stdin)
	for ev := range adapter.Events() {
		fmt.Fprintln(out, ev.String())
		if ev.Type != channel.EventAwaitDecision {
			continue
		}
		if auto {
			_ = adapter.Decide(context.Background(), channel.Decision{Type: channel.DecisionContinue})
			continue
		}
		fmt.Fprint(out, "decision (continue/stop/skip/retry <docType>): ")
		if !scanner.Scan() {
			_ = adapter.Decide(context.Background(), channel.Decision{Type: channel.DecisionStop})
			continue
		}
		_ = adapter.Decide(context.Background(), parseDecision(scanner.Text()))
	}
}

func parseDecision(line string) channel.Decision {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return channel.Decision{Type: channel.DecisionContinue}
	}
	switch fields[0] {
	case "stop":
		return channel.Decision{Type: channel.DecisionStop}
	case "skip":
		return channel.Decision{Type: channel.DecisionSkip}
	case "retry":
		docType := ""
		if len(fields) > 1 {
			docType = fields[1]
		}
		return channel.Decision{Type: channel.DecisionRetry, DocType: docType}
	default:
		return channel.Decision{Type: channel.DecisionContinue}
	}
}
