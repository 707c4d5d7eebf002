package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studytracker-backend/internal/models"
	"studytracker-backend/internal/scheduler"
	"studytracker-backend/internal/timer"
)

const noEligibleMessage = "No eligible questions available. All questions are either completed, in their 3-hour rest period, or have run out of time."

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Pick the next question at random",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				q, err := a.engine.SelectRandomQuestion(ctx)
				if errors.Is(err, scheduler.ErrNoEligibleQuestions) {
					fmt.Fprintln(cmd.OutOrStdout(), noEligibleMessage)
					return nil
				}
				if err != nil {
					return err
				}

				printQuestion(cmd.OutOrStdout(), q)
				fmt.Fprintf(cmd.OutOrStdout(), "\nSession: %d minutes. Record the outcome with `studyctl complete <solved|not-solved|skipped>`.\n", q.CurrentSessionTime)
				return nil
			})
		},
	}
}

func newCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <solved|not-solved|skipped>",
		Short: "Record the outcome of the active question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseResult(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				var q *models.Question
				if cmd.Flags().Changed("time") {
					minutes, _ := cmd.Flags().GetFloat64("time")
					q, err = a.engine.CompleteQuestion(ctx, result, minutes)
				} else {
					q, err = a.engine.CompleteCurrentSession(ctx, result)
				}
				if errors.Is(err, scheduler.ErrNoActiveQuestion) {
					return errors.New("no active question; run `studyctl next` first")
				}
				if err != nil {
					return err
				}

				printOutcome(cmd.OutOrStdout(), q)
				return nil
			})
		},
	}

	cmd.Flags().Float64("time", 0, "Minutes actually spent (defaults to the full session)")
	return cmd
}

func newStudyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Pick a question and run a timed session",
		Long: `Picks a random eligible question and starts the session countdown.
Type s (solved), n (not solved) or k (skip) and press enter to finish.
When time runs out on a regular question it is recorded as not solved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actual, _ := cmd.Flags().GetBool("actual-time")
			minute, _ := cmd.Flags().GetDuration("minute")
			tick, _ := cmd.Flags().GetDuration("tick")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				s := &studySession{
					engine:     a.engine,
					in:         cmd.InOrStdin(),
					out:        cmd.OutOrStdout(),
					minute:     minute,
					tick:       tick,
					actualTime: actual,
				}
				return s.run(ctx)
			})
		},
	}

	cmd.Flags().Bool("actual-time", false, "Record the elapsed time instead of the full session")
	cmd.Flags().Duration("minute", time.Minute, "Length of one session minute")
	cmd.Flags().Duration("tick", time.Minute, "How often to print the remaining time")
	cmd.Flags().MarkHidden("minute")
	return cmd
}

type studyEngine interface {
	SelectRandomQuestion(ctx context.Context) (*models.Question, error)
	CompleteQuestion(ctx context.Context, result models.Result, timeSpent float64) (*models.Question, error)
	CompleteCurrentSession(ctx context.Context, result models.Result) (*models.Question, error)
}

type studySession struct {
	engine     studyEngine
	in         io.Reader
	out        io.Writer
	minute     time.Duration
	tick       time.Duration
	actualTime bool
}

func (s *studySession) run(ctx context.Context) error {
	q, err := s.engine.SelectRandomQuestion(ctx)
	if errors.Is(err, scheduler.ErrNoEligibleQuestions) {
		fmt.Fprintln(s.out, noEligibleMessage)
		return nil
	}
	if err != nil {
		return err
	}

	printQuestion(s.out, q)
	fmt.Fprintf(s.out, "\nSession: %d minutes. [s]olved / [n]ot solved / s[k]ip\n", q.CurrentSessionTime)

	session := time.Duration(q.CurrentSessionTime) * s.minute
	ticks := make(chan time.Duration, 1)
	expired := make(chan struct{}, 1)

	countdown := timer.NewCountdown(session, s.tick)
	countdown.Start(
		func(left time.Duration) {
			select {
			case ticks <- left:
			default:
			}
		},
		func() { expired <- struct{}{} },
	)
	defer countdown.Stop()

	stop := make(chan struct{})
	defer close(stop)
	lines := readLines(s.in, stop)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case left := <-ticks:
			fmt.Fprintf(s.out, "Time remaining: %s\n", formatClock(time.Duration(float64(left)/float64(s.minute)*float64(time.Minute))))

		case <-expired:
			fmt.Fprintln(s.out, "Time is up!")
			if q.NeverLookUp {
				// Never-look-up questions wait for an explicit outcome.
				continue
			}
			done, err := s.engine.CompleteCurrentSession(ctx, models.ResultNotSolved)
			if err != nil {
				return err
			}
			printOutcome(s.out, done)
			return nil

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out, "Input closed; the question stays active.")
				return nil
			}
			result, err := parseResult(line)
			if err != nil {
				fmt.Fprintln(s.out, "Type s, n or k.")
				continue
			}
			countdown.Stop()

			var done *models.Question
			if s.actualTime {
				elapsed := session - countdown.Remaining()
				done, err = s.engine.CompleteQuestion(ctx, result, float64(elapsed)/float64(s.minute))
			} else {
				done, err = s.engine.CompleteCurrentSession(ctx, result)
			}
			if err != nil {
				return err
			}
			printOutcome(s.out, done)
			return nil
		}
	}
}

// readLines streams trimmed, non-empty input lines until EOF or stop.
func readLines(r io.Reader, stop <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-stop:
				return
			}
		}
	}()
	return out
}

func parseResult(s string) (models.Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "solved":
		return models.ResultSolved, nil
	case "n", "not-solved", "notsolved", "not_solved":
		return models.ResultNotSolved, nil
	case "k", "skip", "skipped":
		return models.ResultSkipped, nil
	}
	return "", fmt.Errorf("unknown result %q (want solved, not-solved or skipped)", s)
}

func printOutcome(w io.Writer, q *models.Question) {
	last := q.Attempts[len(q.Attempts)-1]
	fmt.Fprintf(w, "Recorded %s on question #%d (%s). Status: %s, %s left.\n",
		last.Result, q.ID, formatMinutes(last.TimeSpent), q.Status, formatMinutes(q.RemainingTime))
}
