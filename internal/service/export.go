package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

const (
	// ExportFileName is the download name of the CSV export
	ExportFileName = "respuestas.csv"
	// ExportTimeLayout is UTC ISO-8601 with milliseconds
	ExportTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ExportService writes raw responses as CSV
type ExportService struct {
	schema    *SchemaService
	responses repository.ResponseRepo
}

// NewExportService creates a new export service
func NewExportService(schema *SchemaService, responses repository.ResponseRepo) *ExportService {
	return &ExportService{
		schema:    schema,
		responses: responses,
	}
}

// WriteCSV loads the schema and every response and writes them to w.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	questions, err := s.schema.Load(ctx)
	if err != nil {
		return 0, err
	}
	responses, err := s.responses.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load responses: %w", err)
	}
	if err := WriteResponsesCSV(w, questions, responses); err != nil {
		return 0, err
	}
	return len(responses), nil
}

// WriteResponsesCSV writes a header of question ids plus createdAt, then one
// row per response in the given order. Missing answers are empty cells.
func WriteResponsesCSV(w io.Writer, questions []model.Question, responses []*model.Response) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(questions)+1)
	for _, q := range questions {
		header = append(header, q.ID)
	}
	header = append(header, "createdAt")
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range responses {
		for i, q := range questions {
			v, _ := r.Answer(q.ID)
			row[i] = formatCell(v)
		}
		row[len(questions)] = formatTimestamp(r.CreatedAt)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return formatTimestamp(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ExportTimeLayout)
}
