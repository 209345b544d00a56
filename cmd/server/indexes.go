package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/bootstrap"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/pagination"
	"github.com/spf13/cobra"
)

func indexesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Inspect or provision the index plan",
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the index plan and which index serves each query shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlan(cmd.OutOrStdout(), indexplan.Default(), pagination.QueryShapes())
		},
	}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Create missing indexes in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			allowUnsafe, _ := cmd.Flags().GetBool("allow-unsafe")

			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			store, err := bootstrap.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := indexplan.Apply(cmd.Context(), store.Indexes, indexplan.Default(), pagination.QueryShapes(),
				indexplan.Options{AllowUnsafe: allowUnsafe}, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created:  %s\n", joinOrNone(rep.Created))
			fmt.Fprintf(out, "existing: %s\n", joinOrNone(rep.Existing))
			for _, f := range rep.Unsafe {
				fmt.Fprintf(out, "unsafe:   %s\n", f.Shape)
			}
			return nil
		},
	}
	applyCmd.Flags().Bool("allow-unsafe", false, "Apply even when a query shape has no covering index")

	cmd.AddCommand(planCmd)
	cmd.AddCommand(applyCmd)
	return cmd
}

func printPlan(w io.Writer, plan indexplan.Plan, shapes []indexplan.Shape) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid index plan: %w", err)
	}
	fmt.Fprintf(w, "Index plan for %s\n", plan.Collection)
	for _, idx := range plan.Indexes {
		fmt.Fprintf(w, "  %s\n", idx)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-60s %s\n", "SHAPE", "INDEX")
	for _, f := range indexplan.Check(plan, shapes) {
		index := f.Index
		if !f.Safe() {
			index = "NONE (scan)"
		}
		fmt.Fprintf(w, "%-60s %s\n", f.Shape, index)
	}
	return nil
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
