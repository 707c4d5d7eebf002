package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/scheduler"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.QuestionInput{}
			in.Source, _ = cmd.Flags().GetString("source")
			in.Problem, _ = cmd.Flags().GetString("problem")
			in.Subject, _ = cmd.Flags().GetString("subject")
			in.TotalTime, _ = cmd.Flags().GetFloat64("hours")
			in.NeverLookUp, _ = cmd.Flags().GetBool("never-look-up")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if fields := a.validator.Struct(in); fields != nil {
					return validationError(fields)
				}

				q, err := a.engine.AddQuestion(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added question #%d (%s budget)\n", q.ID, formatMinutes(q.RemainingTime))
				return nil
			})
		},
	}

	cmd.Flags().String("source", "", "Where the problem comes from (book, chapter)")
	cmd.Flags().String("problem", "", "Problem statement")
	cmd.Flags().String("subject", "", "Subject area")
	cmd.Flags().Float64("hours", 0, "Total time budget in hours")
	cmd.Flags().Bool("never-look-up", false, "Keep coming back until solved without looking up the answer")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List questions (optionally filtered by status or subject)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			subject, _ := cmd.Flags().GetString("subject")

			if status != "" && !models.Status(status).Valid() {
				return fmt.Errorf("unknown status %q (want new, in-progress, attempted or completed)", status)
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				var questions []*models.Question
				for _, q := range a.engine.Questions() {
					if status != "" && string(q.Status) != status {
						continue
					}
					if subject != "" && !strings.EqualFold(q.Subject, subject) {
						continue
					}
					questions = append(questions, q)
				}

				if len(questions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No questions found.")
					return nil
				}

				// Newest first.
				sort.SliceStable(questions, func(i, j int) bool {
					return questions[i].Created.After(questions[j].Created)
				})
				printQuestionTable(cmd.OutOrStdout(), questions)
				return nil
			})
		},
	}

	cmd.Flags().String("status", "", "Filter by status (new, in-progress, attempted, completed)")
	cmd.Flags().String("subject", "", "Filter by subject")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a question and its attempt history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				q, err := a.engine.Question(id)
				if err != nil {
					return notFound(err, id)
				}
				printQuestion(cmd.OutOrStdout(), q)
				return nil
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.engine.DeleteQuestion(ctx, id); err != nil {
					return notFound(err, id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted question #%d\n", id)
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid question id %q", s)
	}
	return id, nil
}

func notFound(err error, id int64) error {
	if errors.Is(err, scheduler.ErrQuestionNotFound) {
		return fmt.Errorf("question #%d not found", id)
	}
	return err
}

func validationError(fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %s", strings.ReplaceAll(k, "_", " "), fields[k])
	}
	return fmt.Errorf("invalid question: %s", strings.Join(parts, "; "))
}
