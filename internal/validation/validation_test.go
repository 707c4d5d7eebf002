package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"studytracker-backend/internal/models"
)

func TestStruct_QuestionInput(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		input  models.QuestionInput
		fields []string
	}{
		{
			name:  "valid",
			input: models.QuestionInput{Source: "Rudin", Problem: "3.1", Subject: "Analysis", TotalTime: 2},
		},
		{
			name:   "missing everything",
			input:  models.QuestionInput{},
			fields: []string{"source", "problem", "subject", "total_time"},
		},
		{
			name:   "blank source",
			input:  models.QuestionInput{Source: "   ", Problem: "p", Subject: "s", TotalTime: 1},
			fields: []string{"source"},
		},
		{
			name:   "negative total time",
			input:  models.QuestionInput{Source: "a", Problem: "p", Subject: "s", TotalTime: -1},
			fields: []string{"total_time"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Struct(tc.input)
			if len(tc.fields) == 0 {
				assert.Nil(t, got)
				return
			}
			assert.Len(t, got, len(tc.fields))
			for _, f := range tc.fields {
				assert.Contains(t, got, f)
			}
		})
	}
}

func TestStruct_CompleteRequest(t *testing.T) {
	v := New()

	assert.Nil(t, v.Struct(models.CompleteRequest{Result: models.ResultSolved}))

	got := v.Struct(models.CompleteRequest{Result: "maybe"})
	assert.Equal(t, "must be one of: solved not-solved skipped", got["result"])

	neg := -3.0
	got = v.Struct(models.CompleteRequest{Result: models.ResultSkipped, TimeSpent: &neg})
	assert.Equal(t, "must be at least 0", got["time_spent"])
}
