package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"studytracker-backend/internal/models"
)

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func formatMinutes(m float64) string {
	if m <= 0 {
		return "0m"
	}
	total := int(m + 0.5)
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh%02dm", total/60, total%60)
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func printQuestionTable(w io.Writer, questions []*models.Question) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tStatus\tSubject\tSource\tRemaining\tAttempts\tNLU")
	fmt.Fprintln(tw, "--\t------\t-------\t------\t---------\t--------\t---")

	for _, q := range questions {
		nlu := ""
		if q.NeverLookUp {
			nlu = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			q.ID, q.Status, truncate(q.Subject, 20), truncate(q.Source, 28),
			formatMinutes(q.RemainingTime), len(q.Attempts), nlu)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d questions\n", len(questions))
}

func printQuestion(w io.Writer, q *models.Question) {
	fmt.Fprintf(w, "Question #%d  [%s]\n", q.ID, q.Status)
	fmt.Fprintf(w, "  Source:     %s\n", q.Source)
	fmt.Fprintf(w, "  Subject:    %s\n", q.Subject)
	fmt.Fprintf(w, "  Problem:    %s\n", q.Problem)
	fmt.Fprintf(w, "  Budget:     %s (%s left)\n", formatMinutes(q.TotalTime*60), formatMinutes(q.RemainingTime))
	fmt.Fprintf(w, "  Time spent: %s\n", formatMinutes(q.TimeSpent))
	if q.NeverLookUp {
		fmt.Fprintln(w, "  Never look up the solution")
	}
	if q.SolvedIndependently != nil {
		fmt.Fprintf(w, "  Solved independently: %t\n", *q.SolvedIndependently)
	}
	if q.Skipped {
		fmt.Fprintln(w, "  Skipped at least once")
	}
	if q.LastAttempt != nil {
		fmt.Fprintf(w, "  Last attempt: %s\n", q.LastAttempt.Local().Format("2006-01-02 15:04"))
	}

	if len(q.Attempts) == 0 {
		return
	}
	attempts := make([]models.Attempt, len(q.Attempts))
	copy(attempts, q.Attempts)
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].Date.Before(attempts[j].Date) })

	fmt.Fprintln(w, "  Attempts:")
	for i, a := range attempts {
		fmt.Fprintf(w, "    %d. %s  %-10s  %s\n", i+1, a.Date.Local().Format("2006-01-02 15:04"), a.Result, formatMinutes(a.TimeSpent))
	}
}

func printStats(w io.Writer, s models.Stats) {
	fmt.Fprintf(w, "Total questions:        %d\n", s.Total)
	fmt.Fprintf(w, "Completed:              %d\n", s.Completed)
	fmt.Fprintf(w, "In progress:            %d\n", s.InProgress)
	fmt.Fprintf(w, "Solved independently:   %d\n", s.SolvedIndependently)
	fmt.Fprintf(w, "Never-look-up solved:   %d/%d\n", s.NeverLookUpSolved, s.NeverLookUpTotal)
	fmt.Fprintf(w, "Skipped:                %d\n", s.Skipped)
	fmt.Fprintf(w, "Average attempts:       %.1f\n", s.AverageAttempts)
}
