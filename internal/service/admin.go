package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

var (
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionTextRequired = errors.New("question text is required")
	ErrConfirmationRequired = errors.New("delete requires confirmation")
	ErrQuestionExists       = errors.New("question id already exists")
)

// Refresher recomputes the dashboard after a schema change. Invalidate drops
// the cached copy when a recompute fails so the next read starts fresh.
type Refresher interface {
	Refresh(ctx context.Context) (*model.Dashboard, error)
	Invalidate(ctx context.Context) error
}

// QuestionInput is the payload for creating a question
type QuestionInput struct {
	ID        string             `json:"id,omitempty" yaml:"id"`
	Text      string             `json:"text" yaml:"text"`
	Type      model.QuestionType `json:"type" yaml:"type"`
	Required  bool               `json:"required" yaml:"required"`
	Order     int                `json:"order" yaml:"order"`
	ScaleMax  int                `json:"scaleMax,omitempty" yaml:"scaleMax"`
	MaxLength int                `json:"maxLength,omitempty" yaml:"maxLength"`
}

// AdminService manages the question catalog and the access PIN
type AdminService struct {
	questions repository.QuestionRepo
	schema    *SchemaService
	gate      *Gate
	refresher Refresher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	questions repository.QuestionRepo,
	schema *SchemaService,
	gate *Gate,
	refresher Refresher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		questions: questions,
		schema:    schema,
		gate:      gate,
		refresher: refresher,
		metrics:   m,
		logger:    logger,
	}
}

// ListQuestions returns the ordered schema, falling back to the default set.
func (s *AdminService) ListQuestions(ctx context.Context) ([]model.Question, error) {
	return s.schema.Load(ctx)
}

// NormalizeInput applies creation defaults and checks the input.
func NormalizeInput(in QuestionInput) (*model.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrQuestionTextRequired
	}
	if in.Type == "" {
		in.Type = model.QuestionTypeRating
	}

	q := &model.Question{
		ID:       strings.TrimSpace(in.ID),
		Text:     text,
		Type:     in.Type,
		Required: in.Required,
		Order:    in.Order,
	}
	if q.Order < 1 {
		q.Order = model.DefaultOrder
	}

	switch q.Type {
	case model.QuestionTypeRating:
		q.ScaleMax = model.DefaultScaleMax
		if in.ScaleMax != 0 {
			q.ScaleMax = model.ClampScaleMax(in.ScaleMax)
		}
	case model.QuestionTypeText:
		q.MaxLength = model.DefaultMaxLength
		if in.MaxLength > 0 {
			q.MaxLength = in.MaxLength
		}
	default:
		return nil, q.Type.Validate()
	}
	return q, nil
}

// CreateQuestion persists a new question and recomputes the dashboard.
func (s *AdminService) CreateQuestion(ctx context.Context, in QuestionInput) (*model.Question, error) {
	q, err := NormalizeInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, q); err != nil {
		s.metrics.AdminOperations.WithLabelValues("create", "error").Inc()
		if errors.Is(err, repository.ErrDuplicateID) {
			return nil, fmt.Errorf("%w: %s", ErrQuestionExists, q.ID)
		}
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.metrics.AdminOperations.WithLabelValues("create", "ok").Inc()
	s.logger.Info("question created", "question", q.ID, "type", q.Type)
	s.reload(ctx, "question_created")
	return q, nil
}

// NormalizePatch clamps patch values for a question whose resulting type is
// effectiveType. It mutates and returns the patch.
func NormalizePatch(patch model.QuestionPatch, effectiveType model.QuestionType) (model.QuestionPatch, error) {
	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if text == "" {
			return patch, ErrQuestionTextRequired
		}
		patch.Text = &text
	}
	if patch.Order != nil && *patch.Order < 1 {
		order := model.DefaultOrder
		patch.Order = &order
	}

	switch effectiveType {
	case model.QuestionTypeRating:
		if patch.ScaleMax != nil {
			scale := model.ClampScaleMax(*patch.ScaleMax)
			patch.ScaleMax = &scale
		}
		patch.MaxLength = nil
	case model.QuestionTypeText:
		patch.ScaleMax = nil
		if patch.MaxLength != nil && *patch.MaxLength < 1 {
			length := model.DefaultMaxLength
			patch.MaxLength = &length
		}
	default:
		return patch, effectiveType.Validate()
	}
	return patch, nil
}

// UpdateQuestion merges patch into the stored question. Fields the patch
// leaves nil keep their stored value. Editing a built-in default question
// while the catalog is empty first stores the whole default set.
func (s *AdminService) UpdateQuestion(ctx context.Context, id string, patch model.QuestionPatch) (*model.Question, error) {
	current, err := s.questions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		current, err = s.materializeDefault(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	effectiveType := current.Type
	if patch.Type != nil {
		effectiveType = *patch.Type
	}
	patch, err = NormalizePatch(patch, effectiveType)
	if err != nil {
		return nil, err
	}

	if err := s.questions.Merge(ctx, id, patch); err != nil {
		s.metrics.AdminOperations.WithLabelValues("update", "error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	patch.Apply(current)

	s.metrics.AdminOperations.WithLabelValues("update", "ok").Inc()
	s.logger.Info("question updated", "question", id)
	s.reload(ctx, "question_updated")
	return current, nil
}

// materializeDefault stores the default set when the catalog is empty and id
// names one of the defaults.
func (s *AdminService) materializeDefault(ctx context.Context, id string) (*model.Question, error) {
	stored, err := s.questions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(stored) > 0 {
		return nil, ErrQuestionNotFound
	}

	var found *model.Question
	defaults := model.DefaultQuestions()
	for i := range defaults {
		if defaults[i].ID == id {
			found = &defaults[i]
		}
	}
	if found == nil {
		return nil, ErrQuestionNotFound
	}

	for i := range defaults {
		if err := s.questions.Upsert(ctx, &defaults[i]); err != nil {
			return nil, fmt.Errorf("store default questions: %w", err)
		}
	}
	s.logger.Info("stored default question set", "count", len(defaults))
	return found, nil
}

// DeleteQuestion removes a question. confirm must be true.
func (s *AdminService) DeleteQuestion(ctx context.Context, id string, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	if err := s.questions.Delete(ctx, id); err != nil {
		s.metrics.AdminOperations.WithLabelValues("delete", "error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}

	s.metrics.AdminOperations.WithLabelValues("delete", "ok").Inc()
	s.logger.Info("question deleted", "question", id)
	s.reload(ctx, "question_deleted")
	return nil
}

// ChangeAccessPIN replaces the shared access PIN.
func (s *AdminService) ChangeAccessPIN(ctx context.Context, current, next, confirm string) error {
	if err := s.gate.ChangeSecret(ctx, current, next, confirm); err != nil {
		s.metrics.AdminOperations.WithLabelValues("change_pin", "error").Inc()
		return err
	}
	s.metrics.AdminOperations.WithLabelValues("change_pin", "ok").Inc()
	s.logger.Info("access pin changed")
	s.reload(ctx, "pin_changed")
	return nil
}

// reload recomputes the dashboard. A failure does not undo the mutation.
func (s *AdminService) reload(ctx context.Context, reason string) {
	if s.refresher == nil {
		return
	}
	if _, err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("dashboard reload failed", "reason", reason, "error", err)
		if err := s.refresher.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate dashboard", "reason", reason, "error", err)
		}
	}
}
