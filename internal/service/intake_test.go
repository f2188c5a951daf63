package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

type failingSettings struct {
	repository.SettingsRepo
}

func (failingSettings) GetAccessPIN(context.Context) (string, error) {
	return "", errors.New("connection refused")
}

func countResponses(t *testing.T, f *fixture) int {
	t.Helper()
	list, err := f.responses.List(context.Background())
	require.NoError(t, err)
	return len(list)
}

func TestBootstrap(t *testing.T) {
	f := newFixture(t)

	view, err := f.intake.Bootstrap(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SessionLocked, view.Session.State)
	assert.False(t, view.Session.ControlsEnabled)
	assert.Equal(t, MsgPINHint, view.PINHint)
	require.Len(t, view.Controls, 5)
	for _, c := range view.Controls {
		assert.True(t, c.Disabled)
	}
}

func TestBootstrapFailsWhenSecretUnavailable(t *testing.T) {
	f := newFixture(t)
	f.gate = NewGate(failingSettings{}, model.DefaultAccessPIN)
	f.intake = f.newIntake(f.responses)

	_, err := f.intake.Bootstrap(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestEnterAccessLive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.intake.Bootstrap(ctx)
	require.NoError(t, err)
	id := view.Session.ID

	_, err = f.intake.EnterAccess(ctx, id, "wrong", false)
	require.NoError(t, err)

	// live input clears the error but a partial value does not unlock
	got, err := f.intake.EnterAccess(ctx, id, "FCHN", true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionLocked, got.Session.State)
	assert.Empty(t, got.Session.AccessError)

	got, err = f.intake.EnterAccess(ctx, id, "FCHN2025", true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionReady, got.Session.State)
	assert.True(t, got.Session.ControlsEnabled)
}

func TestEnterAccessLiveMismatchDoesNotRelock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	got, err := f.intake.EnterAccess(ctx, id, "FCHN202", true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionReady, got.Session.State)
	assert.Empty(t, got.Session.AccessError)
}

func TestEnterAccessDeliberate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.intake.Bootstrap(ctx)
	require.NoError(t, err)
	id := view.Session.ID

	got, err := f.intake.EnterAccess(ctx, id, "1234", false)
	require.NoError(t, err)
	assert.Equal(t, model.SessionLocked, got.Session.State)
	assert.Equal(t, MsgPINInvalid, got.Session.AccessError)

	got, err = f.intake.EnterAccess(ctx, id, "  FCHN2025\t", false)
	require.NoError(t, err)
	assert.Equal(t, model.SessionReady, got.Session.State)
	assert.Empty(t, got.Session.AccessError)
}

func TestEnterAccessUsesStoredPIN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.settings.SetAccessPIN(ctx, "9876"))
	view, err := f.intake.Bootstrap(ctx)
	require.NoError(t, err)

	got, err := f.intake.EnterAccess(ctx, view.Session.ID, model.DefaultAccessPIN, false)
	require.NoError(t, err)
	assert.Equal(t, model.SessionLocked, got.Session.State)

	got, err = f.intake.EnterAccess(ctx, view.Session.ID, "9876", false)
	require.NoError(t, err)
	assert.Equal(t, model.SessionReady, got.Session.State)
}

func TestSubmitPersistsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	result, err := f.intake.Submit(ctx, id, validAnswers())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.NotEmpty(t, result.ResponseID)
	assert.Equal(t, model.SessionSent, result.Session.State)
	assert.False(t, result.Session.ControlsEnabled)
	assert.Equal(t, MsgThanks, result.Session.Notice)
	assert.Equal(t, 1, result.Session.Submissions)
	assert.Equal(t, 1, countResponses(t, f))
	assert.Equal(t, 1, f.notifier.count())

	list, err := f.responses.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, list[0].Answers["q1"])
	assert.Equal(t, "Más música", list[0].Answers["q5"])
}

func TestSubmitAfterSentIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	_, err := f.intake.Submit(ctx, id, validAnswers())
	require.NoError(t, err)

	result, err := f.intake.Submit(ctx, id, validAnswers())
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, model.SessionSent, result.Session.State)
	assert.Equal(t, MsgAlreadySent, result.Session.Error)
	assert.Equal(t, 1, countResponses(t, f))
}

func TestSecondResponseAfterReenteringPIN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	_, err := f.intake.Submit(ctx, id, validAnswers())
	require.NoError(t, err)

	view, err := f.intake.EnterAccess(ctx, id, model.DefaultAccessPIN, true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionReady, view.Session.State)
	assert.Empty(t, view.Session.Notice)

	result, err := f.intake.Submit(ctx, id, validAnswers())
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, 2, result.Session.Submissions)
	assert.Equal(t, 2, countResponses(t, f))
}

func TestSubmitWhileLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.intake.Bootstrap(ctx)
	require.NoError(t, err)

	result, err := f.intake.Submit(ctx, view.Session.ID, validAnswers())
	require.NoError(t, err)
	assert.Equal(t, model.SessionLocked, result.Session.State)
	assert.Equal(t, MsgAccessRequired, result.Session.Error)
	assert.Equal(t, 0, countResponses(t, f))
}

func TestSubmitRequiredMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	raw := validAnswers()
	raw["q5"] = "   "

	result, err := f.intake.Submit(ctx, id, raw)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "q5", verr.QuestionID)
	assert.Equal(t, model.SessionReady, result.Session.State)
	assert.True(t, result.Session.ControlsEnabled)
	assert.Equal(t, MsgRequiredMissing, result.Session.Error)
	assert.Equal(t, "q5", result.Session.FocusQuestionID)
	assert.Equal(t, 0, countResponses(t, f))
	assert.Equal(t, 0, f.notifier.count())
}

func TestSubmitMissingControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	raw := validAnswers()
	delete(raw, "q2")

	_, err := f.intake.Submit(ctx, id, raw)
	assert.ErrorIs(t, err, ErrMissingControl)

	view, err := f.intake.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.SessionReady, view.Session.State)
	assert.Equal(t, 0, countResponses(t, f))
}

func TestSubmitPersistFailureReturnsToReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	broken := f.newIntake(&failingResponses{ResponseRepo: f.responses, err: errors.New("write timeout")})
	result, err := broken.Submit(ctx, id, validAnswers())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	require.NotNil(t, result)
	assert.Equal(t, model.SessionReady, result.Session.State)
	assert.True(t, result.Session.ControlsEnabled)
	assert.Equal(t, MsgPersistFailed, result.Session.Error)
	assert.Equal(t, 0, f.notifier.count())

	// no automatic retry; the user resubmits
	retry, err := f.intake.Submit(ctx, id, validAnswers())
	require.NoError(t, err)
	assert.True(t, retry.Accepted)
	assert.Equal(t, 1, countResponses(t, f))
}

func TestConcurrentSubmitPersistsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	gated := &gatedResponses{
		ResponseRepo: f.responses,
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := f.newIntake(gated)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, id, validAnswers())
		done <- err
	}()
	<-gated.entered

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.SessionSending, view.Session.State)

	_, err = svc.Submit(ctx, id, validAnswers())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(gated.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, countResponses(t, f))
}

func TestSubmitAcceptedWhenSessionExpiresDuringPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	gated := &gatedResponses{
		ResponseRepo: f.responses,
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := f.newIntake(gated)

	type outcome struct {
		result *SubmitResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := svc.Submit(ctx, id, validAnswers())
		done <- outcome{result, err}
	}()
	<-gated.entered

	require.NoError(t, f.sessions.Delete(ctx, id))
	close(gated.release)

	out := <-done
	require.NoError(t, out.err)
	assert.True(t, out.result.Accepted)
	assert.NotEmpty(t, out.result.ResponseID)
	assert.Nil(t, out.result.Session)
	assert.Equal(t, 1, countResponses(t, f))
	assert.Equal(t, 1, f.notifier.count())
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	_, err := f.intake.Submit(ctx, id, map[string]interface{}{"q1": 1})
	require.Error(t, err)

	view, err := f.intake.Reset(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.SessionLocked, view.Session.State)
	assert.False(t, view.Session.ControlsEnabled)
	assert.Empty(t, view.Session.Error)
	assert.Empty(t, view.Session.AccessError)
}

func TestFormReflectsControlsEnabled(t *testing.T) {
	f := newFixture(t)
	id := f.unlocked(t)

	view, err := f.intake.Form(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, view.Controls)
	assert.False(t, view.Controls[0].Disabled)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.unlocked(t)

	require.NoError(t, f.intake.End(ctx, id))

	_, err := f.intake.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.intake.End(ctx, id), ErrSessionNotFound)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.intake.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.intake.Submit(context.Background(), "missing", validAnswers())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
