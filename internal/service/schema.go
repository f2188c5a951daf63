package service

import (
	"context"
	"fmt"
	"sort"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

// SchemaService loads the ordered question schema
type SchemaService struct {
	questions repository.QuestionRepo
}

// NewSchemaService creates a new schema service
func NewSchemaService(questions repository.QuestionRepo) *SchemaService {
	return &SchemaService{questions: questions}
}

// Load returns the questions in ascending order. When the store holds no
// questions the built-in default set is returned, so the result is never
// empty.
func (s *SchemaService) Load(ctx context.Context) ([]model.Question, error) {
	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		questions = model.DefaultQuestions()
	}
	SortQuestions(questions)
	return questions, nil
}

// SortQuestions orders questions by ascending Order, keeping the incoming
// order for ties.
func SortQuestions(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
}
