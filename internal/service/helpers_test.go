package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"feedbackdesk/internal/cache"
	"feedbackdesk/internal/metrics"
	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
	"feedbackdesk/internal/repository/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNotifier) Trigger(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (b *recordingBroadcaster) BroadcastToAdmins(_ string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, payload)
}

// failingResponses fails every Append.
type failingResponses struct {
	repository.ResponseRepo
	err error
}

func (f *failingResponses) Append(context.Context, model.AnswerMap) (*model.Response, error) {
	return nil, f.err
}

// gatedResponses blocks Append until release is closed.
type gatedResponses struct {
	repository.ResponseRepo
	entered chan struct{}
	release chan struct{}
}

func (g *gatedResponses) Append(ctx context.Context, answers model.AnswerMap) (*model.Response, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.ResponseRepo.Append(ctx, answers)
}

type fixture struct {
	questions *memory.QuestionRepo
	responses *memory.ResponseRepo
	settings  *memory.SettingsRepo
	sessions  *cache.MemorySessionCache
	notifier  *recordingNotifier
	metrics   *metrics.Metrics

	schema *SchemaService
	gate   *Gate
	intake *IntakeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		questions: memory.NewQuestionRepo(),
		responses: memory.NewResponseRepo(),
		settings:  memory.NewSettingsRepo(),
		sessions:  cache.NewMemorySessionCache(time.Hour),
		notifier:  &recordingNotifier{},
		metrics:   metrics.New(),
	}
	f.schema = NewSchemaService(f.questions)
	f.gate = NewGate(f.settings, model.DefaultAccessPIN)
	f.intake = f.newIntake(f.responses)
	return f
}

func (f *fixture) newIntake(responses repository.ResponseRepo) *IntakeService {
	return NewIntakeService(f.schema, f.gate, responses, f.sessions, f.notifier, f.metrics, discardLogger())
}

// unlocked bootstraps a session and enters the default PIN.
func (f *fixture) unlocked(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	view, err := f.intake.Bootstrap(ctx)
	require.NoError(t, err)
	_, err = f.intake.EnterAccess(ctx, view.Session.ID, model.DefaultAccessPIN, false)
	require.NoError(t, err)
	return view.Session.ID
}

// validAnswers fills every default question.
func validAnswers() map[string]interface{} {
	return map[string]interface{}{
		"q1": 9,
		"q2": "8",
		"q3": 10.0,
		"q4": 7,
		"q5": "  Más música  ",
	}
}
