package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "studytracker.db")
}

func run(t *testing.T, db string, in io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if in != nil {
		cmd.SetIn(in)
	}
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func addQuestion(t *testing.T, db string, extra ...string) {
	t.Helper()
	args := append([]string{"add", "--source", "Rudin 1.1", "--problem", "Show sqrt 12 is irrational", "--subject", "Analysis", "--hours", "1"}, extra...)
	_, err := run(t, db, nil, args...)
	require.NoError(t, err)
}

func TestSeedListStats(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, nil, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Added question #3: Linear Algebra")

	out, err = run(t, db, nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Rudin Chapter 1")
	assert.Contains(t, out, "3 questions")

	out, err = run(t, db, nil, "list", "--subject", "calculus")
	require.NoError(t, err)
	assert.Contains(t, out, "Advanced Calculus")
	assert.Contains(t, out, "1 questions")

	out, err = run(t, db, nil, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total questions:        3")
	assert.Contains(t, out, "Never-look-up solved:   0/1")
	assert.Contains(t, out, "Average attempts:       0.0")
}

func TestList_Empty(t *testing.T) {
	out, err := run(t, testDB(t), nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No questions found.")
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	_, err := run(t, testDB(t), nil, "list", "--status", "done")
	assert.ErrorContains(t, err, "unknown status")
}

func TestAdd_Validation(t *testing.T) {
	db := testDB(t)

	_, err := run(t, db, nil, "add", "--source", "Rudin", "--problem", "p", "--subject", "Analysis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total time")

	_, err = run(t, db, nil, "add", "--problem", "p", "--subject", "Analysis", "--hours", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source is required")

	out, err := run(t, db, nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No questions found.")
}

func TestNextCompleteShow(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	out, err := run(t, db, nil, "next")
	require.NoError(t, err)
	assert.Contains(t, out, "Question #1  [in-progress]")
	assert.Contains(t, out, "Session: 15 minutes")

	out, err = run(t, db, nil, "complete", "not-solved", "--time", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded not-solved on question #1 (12m). Status: attempted, 48m left.")

	// resting for three hours now
	out, err = run(t, db, nil, "next")
	require.NoError(t, err)
	assert.Contains(t, out, "No eligible questions available.")

	out, err = run(t, db, nil, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Solved independently: false")
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "not-solved")
}

func TestComplete_DefaultsToSessionTime(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	_, err := run(t, db, nil, "next")
	require.NoError(t, err)

	out, err := run(t, db, nil, "complete", "k")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded skipped on question #1 (15m)")
}

func TestComplete_NoActiveQuestion(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	_, err := run(t, db, nil, "complete", "solved")
	assert.ErrorContains(t, err, "no active question")

	_, err = run(t, db, nil, "complete", "maybe")
	assert.ErrorContains(t, err, "unknown result")
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	out, err := run(t, db, nil, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted question #1")

	_, err = run(t, db, nil, "delete", "1")
	assert.ErrorContains(t, err, "question #1 not found")

	_, err = run(t, db, nil, "show", "x")
	assert.ErrorContains(t, err, "invalid question id")
}

func TestReset(t *testing.T) {
	db := testDB(t)
	_, err := run(t, db, nil, "seed")
	require.NoError(t, err)

	_, err = run(t, db, nil, "reset")
	assert.ErrorContains(t, err, "--yes")

	out, err := run(t, db, nil, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 3 questions")

	// ids keep growing after a reset
	addQuestion(t, db)
	out, err = run(t, db, nil, "show", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Question #4")
}

func TestStudy_AnswerBeforeExpiry(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	out, err := run(t, db, strings.NewReader("what\ns\n"), "study")
	require.NoError(t, err)
	assert.Contains(t, out, "Type s, n or k.")
	assert.Contains(t, out, "Recorded solved on question #1 (15m). Status: completed")
}

func TestStudy_ExpiryMarksNotSolved(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	pr, pw := io.Pipe()
	defer pw.Close()

	out, err := run(t, db, pr, "study", "--minute", time.Millisecond.String(), "--tick", time.Hour.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Time is up!")
	assert.Contains(t, out, "Recorded not-solved on question #1 (15m)")

	out, err = run(t, db, nil, "show", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "not-solved"), "expiry records exactly one attempt")
}

func TestStudy_NeverLookUpWaitsForAnswer(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db, "--never-look-up")

	pr, pw := io.Pipe()
	go func() {
		time.Sleep(100 * time.Millisecond)
		pw.Write([]byte("n\n"))
	}()
	defer pw.Close()

	out, err := run(t, db, pr, "study", "--minute", time.Millisecond.String(), "--tick", time.Hour.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Time is up!")
	assert.Contains(t, out, "Recorded not-solved on question #1 (15m). Status: attempted")
}

func TestStudy_NothingEligible(t *testing.T) {
	out, err := run(t, testDB(t), strings.NewReader(""), "study")
	require.NoError(t, err)
	assert.Contains(t, out, "No eligible questions available.")
}

func TestStudy_InputClosedKeepsQuestionActive(t *testing.T) {
	db := testDB(t)
	addQuestion(t, db)

	out, err := run(t, db, strings.NewReader(""), "study")
	require.NoError(t, err)
	assert.Contains(t, out, "the question stays active")

	out, err = run(t, db, nil, "complete", "solved")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded solved on question #1")
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"s", "solved"},
		{"Solved", "solved"},
		{"n", "not-solved"},
		{"not-solved", "not-solved"},
		{"k", "skipped"},
		{"skip", "skipped"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseResult(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}

	_, err := parseResult("x")
	assert.Error(t, err)
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "0m", formatMinutes(-5))
	assert.Equal(t, "45m", formatMinutes(45))
	assert.Equal(t, "1h00m", formatMinutes(60))
	assert.Equal(t, "9h00m", formatMinutes(540))
	assert.Equal(t, "2h05m", formatMinutes(125))
}
