package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/plan"
	"github.com/bacopilot/docorch/internal/project"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan.yaml>",
		Short: "Forward-simulate a plan and report every admission failure",
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

			result, err := validator.Validate(context.Background(), pf.toPlan(), 1, admission.Mode(pf.Mode))
			if err != nil {
				return fmt.Errorf("validating plan: %w", err)
			}
			if result.OK {
				fmt.Fprintln(cmd.OutOrStdout(), "plan is valid")
				return nil
			}
			for _, f := range result.Failures {
				fmt.Fprintf(cmd.OutOrStdout(), "step %d: %s: %s\n", f.StepIndex, f.DocType, f.ErrorMessage)
			}
			return fmt.Errorf("%d admission failure(s)", len(result.Failures))
		},
	}
}
