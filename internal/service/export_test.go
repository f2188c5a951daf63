package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository/memory"
)

func TestWriteResponsesCSVRoundTrip(t *testing.T) {
	questions := []model.Question{
		{ID: "q1", Type: model.QuestionTypeRating},
		{ID: "q5", Type: model.QuestionTypeText},
	}
	created := time.Date(2025, 12, 20, 21, 30, 5, 123_000_000, time.FixedZone("CST", -6*3600))
	responses := []*model.Response{
		{Answers: model.AnswerMap{"q1": 9, "q5": `He said "hi", then left`}, CreatedAt: created},
		{Answers: model.AnswerMap{"q1": nil, "q5": "línea 1\nlínea 2"}},
		{Legacy: map[string]interface{}{"q1": int32(7)}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResponsesCSV(&buf, questions, responses))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"q1", "q5", "createdAt"}, records[0])
	assert.Equal(t, []string{"9", `He said "hi", then left`, "2025-12-21T03:30:05.123Z"}, records[1])
	assert.Equal(t, []string{"", "línea 1\nlínea 2", ""}, records[2])
	assert.Equal(t, []string{"7", "", ""}, records[3])
}

func TestWriteResponsesCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponsesCSV(&buf, model.DefaultQuestions(), nil))

	assert.Equal(t, "q1,q2,q3,q4,q5,createdAt\n", buf.String())
}

func TestExportServiceNewestFirst(t *testing.T) {
	responses := memory.NewResponseRepo()
	older := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	responses.Seed(
		&model.Response{ID: "a", Answers: model.AnswerMap{"q1": 1}, CreatedAt: older},
		&model.Response{ID: "b", Answers: model.AnswerMap{"q1": 2}, CreatedAt: older.Add(time.Hour)},
	)
	svc := NewExportService(NewSchemaService(memory.NewQuestionRepo()), responses)

	var buf bytes.Buffer
	n, err := svc.WriteCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2", records[1][0])
	assert.Equal(t, "1", records[2][0])
}
