package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"studytracker-backend/internal/models"
)

// sampleQuestions gives a fresh install something to practise on.
var sampleQuestions = []models.QuestionInput{
	{
		Source:    "Rudin Chapter 1",
		Problem:   "Prove that between any two distinct real numbers $a < b$, there is at least one rational number $r$ such that $a < r < b$.",
		Subject:   "Real Analysis",
		TotalTime: 3,
	},
	{
		Source:    "Advanced Calculus",
		Problem:   "Show that if $f$ is differentiable at $a$, then $$\\lim_{h \\to 0} \\frac{f(a+h) - f(a-h)}{2h} = f'(a)$$",
		Subject:   "Calculus",
		TotalTime: 6,
	},
	{
		Source:      "Linear Algebra",
		Problem:     "Let $A$ be an $n \\times n$ matrix. Prove that if $\\det(A) \\neq 0$, then the columns of $A$ form a basis for $\\mathbb{R}^n$.",
		Subject:     "Linear Algebra",
		TotalTime:   9,
		NeverLookUp: true,
	},
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show progress statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				printStats(cmd.OutOrStdout(), a.engine.Stats())
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add a few sample questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				for _, in := range sampleQuestions {
					q, err := a.engine.AddQuestion(ctx, in)
					if err != nil {
						return fmt.Errorf("seed %q: %w", in.Source, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added question #%d: %s\n", q.ID, q.Source)
				}
				return nil
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return errors.New("reset deletes all questions and their history; rerun with --yes to confirm")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				n := len(a.engine.Questions())
				if err := a.engine.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d questions\n", n)
				return nil
			})
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm deleting all questions")
	return cmd
}
