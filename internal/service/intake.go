package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"feedbackdesk/internal/cache"
	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

var (
	ErrSessionNotFound = cache.ErrSessionNotFound
	// ErrStorageUnavailable wraps persistence failures that the user can
	// recover from by retrying or reloading.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SubmissionNotifier is told about every persisted response
type SubmissionNotifier interface {
	Trigger(reason string)
}

// SessionView is returned by every intake operation
type SessionView struct {
	Session  *model.IntakeSession `json:"session"`
	Controls []Control            `json:"controls,omitempty"`
	PINHint  string               `json:"pinHint,omitempty"`
}

// SubmitResult describes the outcome of a submit. Session is nil when the
// response was stored but the session expired before it could be updated.
type SubmitResult struct {
	Session    *model.IntakeSession `json:"session"`
	Accepted   bool                 `json:"accepted"`
	ResponseID string               `json:"responseId,omitempty"`
}

// IntakeService runs the respondent flow: access gate, form and submission
type IntakeService struct {
	schema    *SchemaService
	gate      *Gate
	responses repository.ResponseRepo
	sessions  cache.SessionCache
	notifier  SubmissionNotifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewIntakeService creates a new intake service
func NewIntakeService(
	schema *SchemaService,
	gate *Gate,
	responses repository.ResponseRepo,
	sessions cache.SessionCache,
	notifier SubmissionNotifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *IntakeService {
	return &IntakeService{
		schema:    schema,
		gate:      gate,
		responses: responses,
		sessions:  sessions,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Bootstrap loads the schema and the access secret concurrently and opens a
// locked session. If either read fails no session is created.
func (s *IntakeService) Bootstrap(ctx context.Context) (*SessionView, error) {
	var questions []model.Question

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = s.schema.Load(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.gate.Secret(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: bootstrap: %w", ErrStorageUnavailable, err)
	}

	now := s.now().UTC()
	session := &model.IntakeSession{
		ID:        uuid.New().String(),
		State:     model.SessionLocked,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: create session: %w", ErrStorageUnavailable, err)
	}

	controls, err := RenderControls(questions, session.ControlsEnabled)
	if err != nil {
		return nil, err
	}

	s.logger.Info("intake session started", "session", session.ID, "questions", len(questions))
	return &SessionView{Session: session, Controls: controls, PINHint: MsgPINHint}, nil
}

// Get returns the session without controls.
func (s *IntakeService) Get(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionView{Session: session, PINHint: MsgPINHint}, nil
}

// End discards a session. A submit already in flight still stores its
// response.
func (s *IntakeService) End(ctx context.Context, id string) error {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("intake session ended", "session", id)
	return nil
}

// Form returns the session together with freshly rendered controls.
func (s *IntakeService) Form(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.schema.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	controls, err := RenderControls(questions, session.ControlsEnabled)
	if err != nil {
		return nil, err
	}
	return &SessionView{Session: session, Controls: controls, PINHint: MsgPINHint}, nil
}

// EnterAccess feeds gate input to the session. Live input unlocks as soon as
// it matches and otherwise only clears a previous access error; a deliberate
// check with a wrong value locks the session and sets the access error.
func (s *IntakeService) EnterAccess(ctx context.Context, id, pin string, live bool) (*SessionView, error) {
	secret, err := s.gate.Secret(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	match := MatchPIN(pin, secret)

	mode := "submit"
	if live {
		mode = "live"
	}

	session, err := s.sessions.Update(ctx, id, func(session *model.IntakeSession) error {
		if live {
			session.AccessError = ""
			if !match || session.State == model.SessionReady || session.State == model.SessionSending {
				return nil
			}
			_, err := step(session, EventAccessGranted)
			return err
		}

		event := EventAccessDenied
		if match {
			event = EventAccessGranted
		}
		_, err := step(session, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := "denied"
	if match {
		result = "granted"
	}
	if match || !live {
		s.metrics.GateAttempts.WithLabelValues(mode, result).Inc()
	}
	if !match && !live {
		s.logger.Info("access denied", "session", id)
	}
	return &SessionView{Session: session, PINHint: MsgPINHint}, nil
}

// Submit validates raw control values and persists them exactly once per
// sending->sent transition. The session is moved to sending atomically before
// the write, so a concurrent submit on the same session fails with
// ErrSubmissionInProgress. A required question left empty yields a
// *ValidationError together with the updated session; nothing is persisted.
func (s *IntakeService) Submit(ctx context.Context, id string, raw map[string]interface{}) (*SubmitResult, error) {
	questions, err := s.schema.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var (
		answers  model.AnswerMap
		validErr *ValidationError
		outcome  string
	)
	session, err := s.sessions.Update(ctx, id, func(session *model.IntakeSession) error {
		answers, validErr, outcome = nil, nil, ""

		switch session.State {
		case model.SessionSent:
			outcome = "already_sent"
			_, err := step(session, EventSubmit)
			return err
		case model.SessionLocked:
			outcome = "locked"
			_, err := step(session, EventSubmit)
			return err
		case model.SessionSending:
			_, err := step(session, EventSubmit)
			return err
		}

		collected, err := Collect(questions, raw)
		if errors.As(err, &validErr) {
			outcome = "invalid"
			session.Error = MsgRequiredMissing
			session.Notice = ""
			session.FocusQuestionID = validErr.QuestionID
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := step(session, EventSubmit); err != nil {
			return err
		}
		session.FocusQuestionID = ""
		answers = collected
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSubmissionInProgress) {
			s.metrics.Submissions.WithLabelValues("in_progress").Inc()
		}
		return nil, err
	}

	if answers == nil {
		s.metrics.Submissions.WithLabelValues(outcome).Inc()
		result := &SubmitResult{Session: session}
		if validErr != nil {
			return result, validErr
		}
		return result, nil
	}

	return s.persist(ctx, id, answers)
}

// persist writes the response and completes the transition. It ignores
// cancellation of ctx so a disconnecting client cannot leave the session
// stuck in sending.
func (s *IntakeService) persist(ctx context.Context, id string, answers model.AnswerMap) (*SubmitResult, error) {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "intake.persist")
	defer span.End()

	response, persistErr := s.responses.Append(ctx, answers)
	if persistErr != nil {
		span.RecordError(persistErr)
		span.SetStatus(codes.Error, "append response")
	}

	event := EventPersistSucceeded
	if persistErr != nil {
		event = EventPersistFailed
	}

	session, err := s.sessions.Update(ctx, id, func(session *model.IntakeSession) error {
		if session.State != model.SessionSending {
			// reset while the write was in flight
			return nil
		}
		if _, err := step(session, event); err != nil {
			return err
		}
		if persistErr == nil {
			session.Submissions++
			session.LastResponseID = response.ID
		}
		return nil
	})

	if persistErr != nil {
		s.metrics.Submissions.WithLabelValues("persist_failed").Inc()
		s.logger.Error("failed to persist response", "session", id, "error", persistErr)
		if err != nil {
			s.logger.Error("failed to release session after persist failure", "session", id, "error", err)
		}
		return &SubmitResult{Session: session}, fmt.Errorf("%w: %w", ErrStorageUnavailable, persistErr)
	}

	s.metrics.Submissions.WithLabelValues("persisted").Inc()
	s.logger.Info("response persisted", "session", id, "response", response.ID)
	if s.notifier != nil {
		s.notifier.Trigger("response_persisted")
	}
	if err != nil {
		// the response is stored; only the session record is gone
		s.logger.Warn("session lost after persist", "session", id, "response", response.ID, "error", err)
		return &SubmitResult{Accepted: true, ResponseID: response.ID}, nil
	}
	return &SubmitResult{Session: session, Accepted: true, ResponseID: response.ID}, nil
}

// Reset locks the session and clears all messages.
func (s *IntakeService) Reset(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessions.Update(ctx, id, func(session *model.IntakeSession) error {
		_, err := step(session, EventReset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &SessionView{Session: session, PINHint: MsgPINHint}, nil
}
